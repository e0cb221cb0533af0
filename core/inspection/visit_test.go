package inspection_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ukaguzi/core"
	"github.com/trezcool/ukaguzi/core/inspection"
	"github.com/trezcool/ukaguzi/core/user"
	testutil "github.com/trezcool/ukaguzi/tests"
)

func Test_service_ScheduleVisit(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	outsider := testutil.CreateUser(t, env.usrRepo, "Outsider", "outsider", "outsider@test.tn", "", []string{user.RoleInspector}, true)

	tests := []struct {
		name    string
		actor   user.User
		nv      inspection.NewVisit
		wantErr func(*testing.T, error)
	}{
		{
			name:  "ok",
			actor: env.inspector,
			nv: inspection.NewVisit{
				TeacherID:   env.teacher.ID,
				Type:        inspection.VisitRoutine,
				ScheduledAt: tomorrow(),
			},
		},
		{
			name:  "GPI cannot schedule",
			actor: env.gpi,
			nv: inspection.NewVisit{
				TeacherID:   env.teacher.ID,
				Type:        inspection.VisitRoutine,
				ScheduledAt: tomorrow(),
			},
			wantErr: func(t *testing.T, err error) { assert.True(t, core.IsAuthorizationError(err)) },
		},
		{
			name:  "no assignment coverage",
			actor: outsider,
			nv: inspection.NewVisit{
				TeacherID:   env.teacher.ID,
				Type:        inspection.VisitRoutine,
				ScheduledAt: tomorrow(),
			},
			wantErr: func(t *testing.T, err error) { assert.True(t, core.IsAuthorizationError(err)) },
		},
		{
			name:  "unknown visit type",
			actor: env.inspector,
			nv: inspection.NewVisit{
				TeacherID:   env.teacher.ID,
				Type:        "surprise",
				ScheduledAt: tomorrow(),
			},
			wantErr: func(t *testing.T, err error) { assert.True(t, core.IsValidationError(err)) },
		},
		{
			name:  "past date",
			actor: env.inspector,
			nv: inspection.NewVisit{
				TeacherID:   env.teacher.ID,
				Type:        inspection.VisitRoutine,
				ScheduledAt: time.Now().UTC().Add(-time.Hour),
			},
			wantErr: func(t *testing.T, err error) { assert.True(t, core.IsValidationError(err)) },
		},
		{
			name:  "teacher not found",
			actor: env.inspector,
			nv: inspection.NewVisit{
				TeacherID:   env.gpi.ID, // not a teacher
				Type:        inspection.VisitRoutine,
				ScheduledAt: tomorrow(),
			},
			wantErr: func(t *testing.T, err error) { assert.True(t, core.IsValidationError(err)) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := env.svc.ScheduleVisit(ctx, tt.actor, tt.nv)
			if tt.wantErr != nil {
				tt.wantErr(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, v.ID)
			assert.Equal(t, inspection.VisitScheduled, v.Status)
			assert.Equal(t, env.inspector.ID, v.InspectorID)
			assert.Equal(t, env.school.ID, v.SchoolID)
			assert.Equal(t, 90, v.DurationMinutes)
		})
	}
}

func Test_service_RescheduleVisit(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	v := testutil.CreateVisit(t, env.repo, env.inspector.ID, env.teacher.ID, env.school.ID, inspection.VisitScheduled, tomorrow())
	newDate := tomorrow().Add(48 * time.Hour)

	got, err := env.svc.RescheduleVisit(ctx, env.inspector, v.ID, inspection.RescheduleVisit{ScheduledAt: newDate})
	require.NoError(t, err)
	assert.WithinDuration(t, newDate, got.ScheduledAt, time.Second)
	assert.Equal(t, inspection.VisitScheduled, got.Status)

	// only the owner may reschedule
	_, err = env.svc.RescheduleVisit(ctx, env.gpi, v.ID, inspection.RescheduleVisit{ScheduledAt: newDate})
	assert.True(t, core.IsAuthorizationError(err))

	// completed visits are terminal
	done := testutil.CreateVisit(t, env.repo, env.inspector.ID, env.teacher.ID, env.school.ID, inspection.VisitCompleted, tomorrow())
	_, err = env.svc.RescheduleVisit(ctx, env.inspector, done.ID, inspection.RescheduleVisit{ScheduledAt: newDate})
	assert.True(t, core.IsInvalidStateError(err))
}

func Test_service_CancelVisit(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	v := testutil.CreateVisit(t, env.repo, env.inspector.ID, env.teacher.ID, env.school.ID, inspection.VisitScheduled, tomorrow())

	// a reason is mandatory
	_, err := env.svc.CancelVisit(ctx, env.inspector, v.ID, inspection.CancelVisit{})
	assert.True(t, core.IsValidationError(err))

	got, err := env.svc.CancelVisit(ctx, env.inspector, v.ID, inspection.CancelVisit{Reason: "teacher strike"})
	require.NoError(t, err)
	assert.Equal(t, inspection.VisitCancelled, got.Status)
	assert.Equal(t, "teacher strike", got.CancelReason)

	// cancelled visits are terminal
	_, err = env.svc.CancelVisit(ctx, env.inspector, v.ID, inspection.CancelVisit{Reason: "again"})
	assert.True(t, core.IsInvalidStateError(err))
	_, err = env.svc.CompleteVisit(ctx, env.inspector, v.ID)
	assert.True(t, core.IsInvalidStateError(err))
}

func Test_service_CompleteVisit(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	v := testutil.CreateVisit(t, env.repo, env.inspector.ID, env.teacher.ID, env.school.ID, inspection.VisitScheduled, tomorrow())

	got, err := env.svc.CompleteVisit(ctx, env.inspector, v.ID)
	require.NoError(t, err)
	assert.Equal(t, inspection.VisitCompleted, got.Status)
	assert.False(t, got.CompletedAt.IsZero())
	assert.True(t, got.CanWriteReport())

	_, err = env.svc.CompleteVisit(ctx, env.inspector, v.ID)
	assert.True(t, core.IsInvalidStateError(err))
}

func Test_service_QueryVisits_scoping(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	other := testutil.CreateUser(t, env.usrRepo, "Other", "other", "other@test.tn", "", []string{user.RoleInspector}, true)
	testutil.CreateVisit(t, env.repo, env.inspector.ID, env.teacher.ID, env.school.ID, inspection.VisitScheduled, tomorrow())
	testutil.CreateVisit(t, env.repo, other.ID, env.teacher.ID, env.school.ID, inspection.VisitScheduled, tomorrow())

	mine, err := env.svc.QueryVisits(ctx, env.inspector, nil)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := env.svc.QueryVisits(ctx, env.gpi, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	teachers, err := env.svc.QueryVisits(ctx, env.teacher, nil)
	require.NoError(t, err)
	assert.Len(t, teachers, 2)
}

func Test_repository_UpdateVisit_statusGuard(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	v := testutil.CreateVisit(t, env.repo, env.inspector.ID, env.teacher.ID, env.school.ID, inspection.VisitScheduled, tomorrow())

	// an interleaved completion wins; the stale cancel loses
	v1 := v
	v1.Status = inspection.VisitCompleted
	_, err := env.repo.UpdateVisit(ctx, v1, inspection.VisitScheduled)
	require.NoError(t, err)

	v2 := v
	v2.Status = inspection.VisitCancelled
	_, err = env.repo.UpdateVisit(ctx, v2, inspection.VisitScheduled)
	assert.Equal(t, inspection.ErrStaleObject, err)
}
