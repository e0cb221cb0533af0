package inspection

import (
	"github.com/trezcool/ukaguzi/core"
	"github.com/trezcool/ukaguzi/core/school"
	"github.com/trezcool/ukaguzi/core/user"
)

// NewServiceMock returns a Service for tests.
func NewServiceMock(repo Repository, schoolSvc school.Service, usrSvc user.Service, mailSvc core.EmailService) Service {
	return &service{
		repo:      repo,
		schoolSvc: schoolSvc,
		usrSvc:    usrSvc,
		mailSvc:   mailSvc,
	}
}
