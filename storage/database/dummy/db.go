// Package dummydb provides in-memory repositories for tests.
package dummydb

import (
	"sync"

	"github.com/trezcool/ukaguzi/core/inspection"
	"github.com/trezcool/ukaguzi/core/school"
	"github.com/trezcool/ukaguzi/core/user"
)

type (
	DB struct {
		mu sync.RWMutex

		users       map[string]*user.User
		regions     map[string]*school.Region
		schools     map[string]*school.School
		assignments map[string]*school.Assignment
		visits      map[string]*inspection.Visit
		reports     map[string]*inspection.Report
		monthlies   map[string]*inspection.MonthlyReport
		decisions   []inspection.Decision
	}
)

func Open() (*DB, error) {
	db := &DB{
		users:       make(map[string]*user.User),
		regions:     make(map[string]*school.Region),
		schools:     make(map[string]*school.School),
		assignments: make(map[string]*school.Assignment),
		visits:      make(map[string]*inspection.Visit),
		reports:     make(map[string]*inspection.Report),
		monthlies:   make(map[string]*inspection.MonthlyReport),
	}
	return db, nil
}

// AddSchool seeds a school; schools are reference data, created out of band.
func (db *DB) AddSchool(sch school.School) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.schools[sch.ID] = &sch
}
