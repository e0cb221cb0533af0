package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/ukaguzi/core/inspection"
	"github.com/trezcool/ukaguzi/core/school"
	"github.com/trezcool/ukaguzi/core/user"
	dummydb "github.com/trezcool/ukaguzi/storage/database/dummy"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	schoolID ...string,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if len(schoolID) > 0 {
		usr.SchoolID = schoolID[0]
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateRegion(t *testing.T, repo school.Repository, name, code string) school.Region {
	t.Helper()

	reg := school.Region{
		Name:      name,
		Code:      code,
		CreatedAt: time.Now().UTC(),
	}
	reg.SetActive(true)
	reg, err := repo.CreateRegion(context.Background(), reg)
	if err != nil {
		t.Fatalf("CreateRegion() failed: %v", err)
	}
	return reg
}

func CreateSchool(t *testing.T, db *dummydb.DB, name, regionID string) school.School {
	t.Helper()

	sch := school.School{
		ID:        uuid.New().String(),
		Name:      name,
		RegionID:  regionID,
		CreatedAt: time.Now().UTC(),
	}
	db.AddSchool(sch)
	return sch
}

func CreateAssignment(t *testing.T, repo school.Repository, inspectorID, regionID string) school.Assignment {
	t.Helper()

	asg := school.Assignment{
		InspectorID: inspectorID,
		RegionID:    regionID,
		AssignedAt:  time.Now().UTC(),
	}
	asg.SetActive(true)
	asg, err := repo.CreateAssignment(context.Background(), asg)
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return asg
}

func CreateVisit(
	t *testing.T,
	repo inspection.Repository,
	inspectorID, teacherID, schoolID, status string,
	scheduledAt time.Time,
) inspection.Visit {
	t.Helper()

	tstamp := time.Now().UTC()
	v := inspection.Visit{
		InspectorID:     inspectorID,
		TeacherID:       teacherID,
		SchoolID:        schoolID,
		Type:            inspection.VisitRoutine,
		Status:          status,
		ScheduledAt:     scheduledAt.UTC(),
		DurationMinutes: 90,
		CreatedAt:       tstamp,
		UpdatedAt:       tstamp,
	}
	if status == inspection.VisitCompleted {
		v.CompletedAt = tstamp
	}
	v, err := repo.CreateVisit(context.Background(), v)
	if err != nil {
		t.Fatalf("CreateVisit() failed: %v", err)
	}
	return v
}

func CreateReport(
	t *testing.T,
	repo inspection.Repository,
	visit inspection.Visit,
	status string,
	rating float64,
) inspection.Report {
	t.Helper()

	// reports follow their visit's period
	tstamp := visit.ScheduledAt.UTC()
	rep := inspection.Report{
		VisitID:           visit.ID,
		InspectorID:       visit.InspectorID,
		TeacherID:         visit.TeacherID,
		TeachingQuality:   rating,
		ClassManagement:   rating,
		StudentEngagement: rating,
		ContentDelivery:   rating,
		FinalRating:       rating,
		Status:            status,
		Version:           1,
		SubmittedAt:       tstamp,
		UpdatedAt:         tstamp,
	}
	rep, err := repo.CreateReport(context.Background(), rep)
	if err != nil {
		t.Fatalf("CreateReport() failed: %v", err)
	}
	return rep
}
