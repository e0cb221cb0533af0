package inspection_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ukaguzi/core"
	"github.com/trezcool/ukaguzi/core/inspection"
	testutil "github.com/trezcool/ukaguzi/tests"
)

func Test_service_CreateReport(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	done := testutil.CreateVisit(t, env.repo, env.inspector.ID, env.teacher.ID, env.school.ID, inspection.VisitCompleted, tomorrow())
	pending := testutil.CreateVisit(t, env.repo, env.inspector.ID, env.teacher.ID, env.school.ID, inspection.VisitScheduled, tomorrow())

	nr := inspection.NewReport{
		VisitID:           done.ID,
		TeachingQuality:   4,
		ClassManagement:   3,
		StudentEngagement: 5,
		ContentDelivery:   4,
	}

	// only for completed visits
	bad := nr
	bad.VisitID = pending.ID
	_, err := env.svc.CreateReport(ctx, env.inspector, bad)
	assert.True(t, core.IsInvalidStateError(err))

	// ratings are bounded
	bad = nr
	bad.ContentDelivery = 6
	_, err = env.svc.CreateReport(ctx, env.inspector, bad)
	assert.True(t, core.IsValidationError(err))

	rep, err := env.svc.CreateReport(ctx, env.inspector, nr)
	require.NoError(t, err)
	assert.Equal(t, inspection.StatusPendingReview, rep.Status)
	assert.Equal(t, 1, rep.Version)
	assert.Equal(t, env.teacher.ID, rep.TeacherID)
	// mean of 4, 3, 5, 4
	assert.Equal(t, 4.0, rep.FinalRating)

	// one report per visit
	_, err = env.svc.CreateReport(ctx, env.inspector, nr)
	assert.True(t, core.IsValidationError(err))
}

func Test_service_CreateReport_finalRating(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	done := testutil.CreateVisit(t, env.repo, env.inspector.ID, env.teacher.ID, env.school.ID, inspection.VisitCompleted, tomorrow())

	// 4+3+3+4 = 14/4 = 3.5
	rep, err := env.svc.CreateReport(ctx, env.inspector, inspection.NewReport{
		VisitID:           done.ID,
		TeachingQuality:   4,
		ClassManagement:   3,
		StudentEngagement: 3,
		ContentDelivery:   4,
	})
	require.NoError(t, err)
	assert.Equal(t, 3.5, rep.FinalRating)

	// an explicit final rating is kept as entered
	done2 := testutil.CreateVisit(t, env.repo, env.inspector.ID, env.teacher.ID, env.school.ID, inspection.VisitCompleted, tomorrow())
	rep2, err := env.svc.CreateReport(ctx, env.inspector, inspection.NewReport{
		VisitID:           done2.ID,
		TeachingQuality:   4,
		ClassManagement:   3,
		StudentEngagement: 3,
		ContentDelivery:   4,
		FinalRating:       2.5,
	})
	require.NoError(t, err)
	assert.Equal(t, 2.5, rep2.FinalRating)
}

func Test_service_UpdateReport(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	done := testutil.CreateVisit(t, env.repo, env.inspector.ID, env.teacher.ID, env.school.ID, inspection.VisitCompleted, tomorrow())
	rep, err := env.svc.CreateReport(ctx, env.inspector, inspection.NewReport{
		VisitID:           done.ID,
		TeachingQuality:   4,
		ClassManagement:   4,
		StudentEngagement: 4,
		ContentDelivery:   4,
	})
	require.NoError(t, err)

	// only the author may edit
	_, err = env.svc.UpdateReport(ctx, env.gpi, rep.ID, inspection.UpdateReport{TeachingQuality: 2})
	assert.True(t, core.IsAuthorizationError(err))

	got, err := env.svc.UpdateReport(ctx, env.inspector, rep.ID, inspection.UpdateReport{TeachingQuality: 2})
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.TeachingQuality)
	assert.Equal(t, 4.0, got.ClassManagement) // untouched fields keep their values
	assert.Equal(t, 3.5, got.FinalRating)     // recomputed
	assert.Equal(t, 2, got.Version)

	// approved reports are frozen
	require.NoError(t, env.svc.Review(ctx, env.gpi, inspection.KindReport, rep.ID, inspection.DecisionApprove, ""))
	_, err = env.svc.UpdateReport(ctx, env.inspector, rep.ID, inspection.UpdateReport{TeachingQuality: 5})
	assert.True(t, core.IsInvalidStateError(err))
}

func Test_service_UpdateReport_revisionCycle(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	done := testutil.CreateVisit(t, env.repo, env.inspector.ID, env.teacher.ID, env.school.ID, inspection.VisitCompleted, tomorrow())
	rep, err := env.svc.CreateReport(ctx, env.inspector, inspection.NewReport{
		VisitID:           done.ID,
		TeachingQuality:   2,
		ClassManagement:   2,
		StudentEngagement: 2,
		ContentDelivery:   2,
	})
	require.NoError(t, err)

	require.NoError(t, env.svc.Review(ctx, env.gpi, inspection.KindReport, rep.ID, inspection.DecisionRequestRevision, "please add details"))

	got, err := env.svc.GetReport(ctx, env.inspector, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, inspection.StatusRevisionRequested, got.Status)
	assert.Equal(t, "please add details", got.Feedback)

	// resubmission returns to pending_review
	got, err = env.svc.UpdateReport(ctx, env.inspector, rep.ID, inspection.UpdateReport{Strengths: "good rapport with students"})
	require.NoError(t, err)
	assert.Equal(t, inspection.StatusPendingReview, got.Status)
}

func Test_service_TeacherAverageRating(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	// no approved reports yet
	avg, err := env.svc.TeacherAverageRating(ctx, env.gpi, env.teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, avg)

	v1 := testutil.CreateVisit(t, env.repo, env.inspector.ID, env.teacher.ID, env.school.ID, inspection.VisitCompleted, tomorrow())
	v2 := testutil.CreateVisit(t, env.repo, env.inspector.ID, env.teacher.ID, env.school.ID, inspection.VisitCompleted, tomorrow())
	v3 := testutil.CreateVisit(t, env.repo, env.inspector.ID, env.teacher.ID, env.school.ID, inspection.VisitCompleted, tomorrow())
	testutil.CreateReport(t, env.repo, v1, inspection.StatusApproved, 4)
	testutil.CreateReport(t, env.repo, v2, inspection.StatusApproved, 3)
	testutil.CreateReport(t, env.repo, v3, inspection.StatusPendingReview, 1) // not counted

	avg, err = env.svc.TeacherAverageRating(ctx, env.gpi, env.teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.5, avg)
}
