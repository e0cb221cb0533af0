package inspection_test

import (
	"testing"
	"time"

	"github.com/trezcool/ukaguzi/core/inspection"
	"github.com/trezcool/ukaguzi/core/school"
	"github.com/trezcool/ukaguzi/core/user"
	emailsvc "github.com/trezcool/ukaguzi/services/email"
	dummydb "github.com/trezcool/ukaguzi/storage/database/dummy"
	testutil "github.com/trezcool/ukaguzi/tests"
)

type testEnv struct {
	db        *dummydb.DB
	repo      inspection.Repository
	svc       inspection.Service
	usrRepo   user.Repository
	schRepo   school.Repository
	inspector user.User
	gpi       user.User
	teacher   user.User
	region    school.Region
	school    school.School
}

// setup seeds an inspector assigned to a region, a GPI and a teacher in a
// school of that region.
func setup(t *testing.T) testEnv {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	usrRepo := dummydb.NewUserRepository(db)
	schRepo := dummydb.NewSchoolRepository(db)
	inspRepo := dummydb.NewInspectionRepository(db)

	mailSvc := emailsvc.NewConsoleServiceMock()
	usrSvc := user.NewServiceMock(usrRepo, mailSvc)
	schSvc := school.NewService(schRepo, usrSvc)
	svc := inspection.NewServiceMock(inspRepo, schSvc, usrSvc, mailSvc)

	env := testEnv{
		db:      db,
		repo:    inspRepo,
		svc:     svc,
		usrRepo: usrRepo,
		schRepo: schRepo,
	}
	env.region = testutil.CreateRegion(t, schRepo, "Tunis 1", "TN-01")
	env.school = testutil.CreateSchool(t, db, "Lycee Bourguiba", env.region.ID)
	env.inspector = testutil.CreateUser(t, usrRepo, "Inspector", "inspector", "inspector@test.tn", "", []string{user.RoleInspector}, true)
	env.gpi = testutil.CreateUser(t, usrRepo, "GPI", "gpi", "gpi@test.tn", "", []string{user.RoleGPI}, true)
	env.teacher = testutil.CreateUser(t, usrRepo, "Teacher", "teacher", "teacher@test.tn", "", []string{user.RoleTeacher}, true, env.school.ID)
	testutil.CreateAssignment(t, schRepo, env.inspector.ID, env.region.ID)
	return env
}

func tomorrow() time.Time {
	return time.Now().UTC().Add(24 * time.Hour)
}
