package inspection_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ukaguzi/core"
	"github.com/trezcool/ukaguzi/core/inspection"
	testutil "github.com/trezcool/ukaguzi/tests"
)

func Test_service_Review(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	newReport := func(t *testing.T) inspection.Report {
		v := testutil.CreateVisit(t, env.repo, env.inspector.ID, env.teacher.ID, env.school.ID, inspection.VisitCompleted, tomorrow())
		return testutil.CreateReport(t, env.repo, v, inspection.StatusPendingReview, 4)
	}

	tests := []struct {
		name       string
		decision   string
		feedback   string
		wantStatus string
		wantErr    func(*testing.T, error)
	}{
		{
			name:       "approve without feedback",
			decision:   inspection.DecisionApprove,
			wantStatus: inspection.StatusApproved,
		},
		{
			name:       "approve with feedback",
			decision:   inspection.DecisionApprove,
			feedback:   "well done",
			wantStatus: inspection.StatusApproved,
		},
		{
			name:       "request revision",
			decision:   inspection.DecisionRequestRevision,
			feedback:   "needs more detail",
			wantStatus: inspection.StatusRevisionRequested,
		},
		{
			name:       "reject",
			decision:   inspection.DecisionReject,
			feedback:   "wrong visit",
			wantStatus: inspection.StatusRejected,
		},
		{
			name:     "revision without feedback",
			decision: inspection.DecisionRequestRevision,
			wantErr:  func(t *testing.T, err error) { assert.True(t, core.IsValidationError(err)) },
		},
		{
			name:     "reject without feedback",
			decision: inspection.DecisionReject,
			wantErr:  func(t *testing.T, err error) { assert.True(t, core.IsValidationError(err)) },
		},
		{
			name:     "unknown decision",
			decision: "escalate",
			wantErr:  func(t *testing.T, err error) { assert.True(t, core.IsValidationError(err)) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := newReport(t)
			err := env.svc.Review(ctx, env.gpi, inspection.KindReport, rep.ID, tt.decision, tt.feedback)
			if tt.wantErr != nil {
				tt.wantErr(t, err)
				return
			}
			require.NoError(t, err)

			got, err := env.svc.GetReport(ctx, env.gpi, rep.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, env.gpi.ID, got.ReviewerID)
			assert.Equal(t, tt.feedback, got.Feedback)
			assert.False(t, got.ReviewedAt.IsZero())
			assert.Equal(t, rep.Version+1, got.Version)
		})
	}
}

func Test_service_Review_authz(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	v := testutil.CreateVisit(t, env.repo, env.inspector.ID, env.teacher.ID, env.school.ID, inspection.VisitCompleted, tomorrow())
	rep := testutil.CreateReport(t, env.repo, v, inspection.StatusPendingReview, 4)

	// inspectors cannot review, not even their own reports
	err := env.svc.Review(ctx, env.inspector, inspection.KindReport, rep.ID, inspection.DecisionApprove, "")
	assert.True(t, core.IsAuthorizationError(err))
	err = env.svc.Review(ctx, env.teacher, inspection.KindReport, rep.ID, inspection.DecisionApprove, "")
	assert.True(t, core.IsAuthorizationError(err))
}

func Test_service_Review_terminalStates(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	v := testutil.CreateVisit(t, env.repo, env.inspector.ID, env.teacher.ID, env.school.ID, inspection.VisitCompleted, tomorrow())
	rep := testutil.CreateReport(t, env.repo, v, inspection.StatusPendingReview, 4)

	require.NoError(t, env.svc.Review(ctx, env.gpi, inspection.KindReport, rep.ID, inspection.DecisionApprove, ""))

	// approved is terminal; a second decision is rejected
	err := env.svc.Review(ctx, env.gpi, inspection.KindReport, rep.ID, inspection.DecisionReject, "changed my mind")
	assert.True(t, core.IsInvalidStateError(err))
}

func Test_repository_RecordDecision_versionGuard(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	v := testutil.CreateVisit(t, env.repo, env.inspector.ID, env.teacher.ID, env.school.ID, inspection.VisitCompleted, tomorrow())
	rep := testutil.CreateReport(t, env.repo, v, inspection.StatusPendingReview, 4)

	// two reviewers loaded the same pending report
	dec := inspection.Decision{
		SubjectKind: inspection.KindReport,
		SubjectID:   rep.ID,
		ReviewerID:  env.gpi.ID,
		Decision:    inspection.DecisionApprove,
		DecidedAt:   time.Now().UTC(),
	}
	_, err := env.repo.RecordDecision(ctx, rep, inspection.StatusApproved, dec)
	require.NoError(t, err)

	// the second write carries a stale version and must lose
	dec.Decision = inspection.DecisionReject
	_, err = env.repo.RecordDecision(ctx, rep, inspection.StatusRejected, dec)
	assert.Equal(t, inspection.ErrStaleObject, err)

	// exactly one decision was recorded
	decisions, err := env.repo.QueryDecisions(ctx, inspection.KindReport, rep.ID)
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, inspection.DecisionApprove, decisions[0].Decision)
}

func Test_service_QueryDecisions(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	v := testutil.CreateVisit(t, env.repo, env.inspector.ID, env.teacher.ID, env.school.ID, inspection.VisitCompleted, tomorrow())
	rep := testutil.CreateReport(t, env.repo, v, inspection.StatusPendingReview, 4)

	require.NoError(t, env.svc.Review(ctx, env.gpi, inspection.KindReport, rep.ID, inspection.DecisionRequestRevision, "more detail"))
	_, err := env.svc.UpdateReport(ctx, env.inspector, rep.ID, inspection.UpdateReport{Strengths: "patience"})
	require.NoError(t, err)
	require.NoError(t, env.svc.Review(ctx, env.gpi, inspection.KindReport, rep.ID, inspection.DecisionApprove, ""))

	decisions, err := env.svc.QueryDecisions(ctx, env.inspector, inspection.KindReport, rep.ID)
	require.NoError(t, err)
	require.Len(t, decisions, 2)
	assert.Equal(t, inspection.DecisionRequestRevision, decisions[0].Decision)
	assert.Equal(t, inspection.DecisionApprove, decisions[1].Decision)

	// the teacher is not part of the review conversation
	_, err = env.svc.QueryDecisions(ctx, env.teacher, inspection.KindReport, rep.ID)
	assert.True(t, core.IsAuthorizationError(err))
}
