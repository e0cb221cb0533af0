package inspection

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/ukaguzi/core"
	"github.com/trezcool/ukaguzi/core/user"
)

// ScheduleVisit registers a new Visit for the actor. The actor must be an
// inspector with an active region assignment covering the teacher's school,
// and the date must be in the future.
func (svc *service) ScheduleVisit(ctx context.Context, actor user.User, nv NewVisit) (Visit, error) {
	if !actor.IsInspector() {
		return Visit{}, core.NewAuthorizationError(errInspectorOnly)
	}
	if err := nv.Validate(); err != nil {
		return Visit{}, err
	}

	teacher, err := svc.usrSvc.GetByID(ctx, nv.TeacherID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Visit{}, core.NewValidationError(err,
				core.FieldError{Field: "teacher_id", Error: "teacher not found"})
		}
		return Visit{}, errors.Wrap(err, "finding teacher")
	}
	if !teacher.IsTeacher() || teacher.SchoolID == "" {
		return Visit{}, core.NewValidationError(nil,
			core.FieldError{Field: "teacher_id", Error: "user is not a school teacher"})
	}

	ok, err := svc.schoolSvc.CanInspect(ctx, actor, teacher.SchoolID)
	if err != nil {
		return Visit{}, errors.Wrap(err, "checking assignment")
	}
	if !ok {
		return Visit{}, core.NewAuthorizationError(errNoAssignmentCoverage)
	}

	ts := now()
	v := Visit{
		InspectorID:     actor.ID,
		TeacherID:       teacher.ID,
		SchoolID:        teacher.SchoolID,
		Type:            nv.Type,
		Status:          VisitScheduled,
		ScheduledAt:     nv.ScheduledAt.UTC(),
		DurationMinutes: nv.DurationMinutes,
		Notes:           nv.Notes,
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}
	return svc.repo.CreateVisit(ctx, v)
}

func (svc *service) GetVisit(ctx context.Context, actor user.User, id string) (Visit, error) {
	v, err := svc.repo.GetVisit(ctx, id)
	if err != nil {
		return Visit{}, err
	}
	if err = canReadVisit(actor, v); err != nil {
		return Visit{}, err
	}
	return v, nil
}

// QueryVisits scopes results to the actor: inspectors see their own visits,
// teachers the visits targeting them; GPI and admin see everything.
func (svc *service) QueryVisits(ctx context.Context, actor user.User, filter *VisitFilter, ordering ...core.DBOrdering) ([]Visit, error) {
	if filter == nil {
		filter = &VisitFilter{}
	}
	switch {
	case actor.IsGPI() || actor.IsAdmin():
	case actor.IsInspector():
		filter.InspectorID = actor.ID
	case actor.IsTeacher():
		filter.TeacherID = actor.ID
	default:
		return nil, core.NewAuthorizationError("permission denied")
	}
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "scheduled_at", Ascending: true}}
	}
	return svc.repo.QueryVisits(ctx, filter, ordering)
}

// RescheduleVisit moves a scheduled visit to a new future date.
// Completed and cancelled visits are terminal.
func (svc *service) RescheduleVisit(ctx context.Context, actor user.User, id string, rv RescheduleVisit) (Visit, error) {
	v, err := svc.getOwnedVisit(ctx, actor, id)
	if err != nil {
		return Visit{}, err
	}
	if err = rv.Validate(); err != nil {
		return Visit{}, err
	}
	if v.Status != VisitScheduled {
		return Visit{}, core.NewInvalidStateError("only scheduled visits can be rescheduled")
	}

	v.ScheduledAt = rv.ScheduledAt.UTC()
	v.UpdatedAt = now()
	return svc.updateVisit(ctx, v, VisitScheduled)
}

// CancelVisit cancels a scheduled visit with a mandatory reason.
func (svc *service) CancelVisit(ctx context.Context, actor user.User, id string, cv CancelVisit) (Visit, error) {
	v, err := svc.getOwnedVisit(ctx, actor, id)
	if err != nil {
		return Visit{}, err
	}
	if err = cv.Validate(); err != nil {
		return Visit{}, err
	}
	if v.Status != VisitScheduled {
		return Visit{}, core.NewInvalidStateError("only scheduled visits can be cancelled")
	}

	v.Status = VisitCancelled
	v.CancelReason = cv.Reason
	v.UpdatedAt = now()
	return svc.updateVisit(ctx, v, VisitScheduled)
}

// CompleteVisit marks a scheduled visit as carried out, enabling report creation.
func (svc *service) CompleteVisit(ctx context.Context, actor user.User, id string) (Visit, error) {
	v, err := svc.getOwnedVisit(ctx, actor, id)
	if err != nil {
		return Visit{}, err
	}
	if v.Status != VisitScheduled {
		return Visit{}, core.NewInvalidStateError("only scheduled visits can be completed")
	}

	ts := now()
	v.Status = VisitCompleted
	v.CompletedAt = ts
	v.UpdatedAt = ts
	return svc.updateVisit(ctx, v, VisitScheduled)
}

func (svc *service) getOwnedVisit(ctx context.Context, actor user.User, id string) (Visit, error) {
	v, err := svc.repo.GetVisit(ctx, id)
	if err != nil {
		return Visit{}, err
	}
	if v.InspectorID != actor.ID {
		return Visit{}, core.NewAuthorizationError(errVisitNotOwned)
	}
	return v, nil
}

func (svc *service) updateVisit(ctx context.Context, v Visit, fromStatus string) (Visit, error) {
	v, err := svc.repo.UpdateVisit(ctx, v, fromStatus)
	if err != nil {
		if errors.Cause(err) == ErrStaleObject {
			return Visit{}, core.NewConcurrentModificationError("the visit was modified concurrently")
		}
		return Visit{}, err
	}
	return v, nil
}

func canReadVisit(actor user.User, v Visit) error {
	if actor.IsGPI() || actor.IsAdmin() || v.InspectorID == actor.ID || v.TeacherID == actor.ID {
		return nil
	}
	return core.NewAuthorizationError("permission denied")
}
