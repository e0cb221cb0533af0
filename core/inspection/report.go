package inspection

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/ukaguzi/core"
	"github.com/trezcool/ukaguzi/core/user"
)

// CreateReport submits an inspection report for a completed visit. The report
// enters pending_review immediately; exactly one report may exist per visit.
func (svc *service) CreateReport(ctx context.Context, actor user.User, nr NewReport) (Report, error) {
	if !actor.IsInspector() {
		return Report{}, core.NewAuthorizationError(errInspectorOnly)
	}
	if err := nr.Validate(); err != nil {
		return Report{}, err
	}

	v, err := svc.repo.GetVisit(ctx, nr.VisitID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Report{}, core.NewValidationError(err,
				core.FieldError{Field: "visit_id", Error: "visit not found"})
		}
		return Report{}, errors.Wrap(err, "finding visit")
	}
	if v.InspectorID != actor.ID {
		return Report{}, core.NewAuthorizationError(errVisitNotOwned)
	}
	if !v.CanWriteReport() {
		return Report{}, core.NewInvalidStateError("reports can only be written for completed visits")
	}

	final := nr.FinalRating
	if final == 0 {
		final = finalRating(nr.TeachingQuality, nr.ClassManagement, nr.StudentEngagement, nr.ContentDelivery)
	}

	ts := now()
	rep := Report{
		VisitID:             v.ID,
		InspectorID:         actor.ID,
		TeacherID:           v.TeacherID,
		TeachingQuality:     nr.TeachingQuality,
		ClassManagement:     nr.ClassManagement,
		StudentEngagement:   nr.StudentEngagement,
		ContentDelivery:     nr.ContentDelivery,
		FinalRating:         final,
		Strengths:           nr.Strengths,
		AreasForImprovement: nr.AreasForImprovement,
		Recommendations:     nr.Recommendations,
		ActionItems:         nr.ActionItems,
		Status:              StatusPendingReview,
		Version:             1,
		SubmittedAt:         ts,
		UpdatedAt:           ts,
	}

	rep, err = svc.repo.CreateReport(ctx, rep)
	if err != nil {
		if errors.Cause(err) == ErrReportExists {
			return Report{}, core.NewValidationError(err,
				core.FieldError{Field: "visit_id", Error: "a report already exists for this visit"})
		}
		return Report{}, err
	}
	return rep, nil
}

func (svc *service) GetReport(ctx context.Context, actor user.User, id string) (Report, error) {
	rep, err := svc.repo.GetReport(ctx, id)
	if err != nil {
		return Report{}, err
	}
	if err = canReadReport(actor, rep); err != nil {
		return Report{}, err
	}
	return rep, nil
}

// QueryReports scopes results like QueryVisits: inspectors see their own
// reports, teachers only their approved ones; GPI and admin see everything.
func (svc *service) QueryReports(ctx context.Context, actor user.User, filter *ReportFilter, ordering ...core.DBOrdering) ([]Report, error) {
	if filter == nil {
		filter = &ReportFilter{}
	}
	switch {
	case actor.IsGPI() || actor.IsAdmin():
	case actor.IsInspector():
		filter.InspectorID = actor.ID
	case actor.IsTeacher():
		filter.TeacherID = actor.ID
		filter.Status = StatusApproved
	default:
		return nil, core.NewAuthorizationError("permission denied")
	}
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "submitted_at", Ascending: false}}
	}
	return svc.repo.QueryReports(ctx, filter, ordering)
}

// UpdateReport edits a report still under review or sent back for revision.
// A revision_requested report returns to pending_review on resubmission.
func (svc *service) UpdateReport(ctx context.Context, actor user.User, id string, ur UpdateReport) (Report, error) {
	rep, err := svc.repo.GetReport(ctx, id)
	if err != nil {
		return Report{}, err
	}
	if rep.InspectorID != actor.ID {
		return Report{}, core.NewAuthorizationError(errReportNotOwned)
	}
	if rep.Status != StatusPendingReview && rep.Status != StatusRevisionRequested {
		return Report{}, core.NewInvalidStateError("only pending or revision-requested reports can be edited")
	}
	if err = ur.Validate(rep); err != nil {
		return Report{}, err
	}

	prevVersion := rep.Version
	rep.TeachingQuality = ur.TeachingQuality
	rep.ClassManagement = ur.ClassManagement
	rep.StudentEngagement = ur.StudentEngagement
	rep.ContentDelivery = ur.ContentDelivery
	if ur.FinalRating != 0 {
		rep.FinalRating = ur.FinalRating
	} else {
		rep.FinalRating = finalRating(rep.TeachingQuality, rep.ClassManagement, rep.StudentEngagement, rep.ContentDelivery)
	}
	rep.Strengths = ur.Strengths
	rep.AreasForImprovement = ur.AreasForImprovement
	rep.Recommendations = ur.Recommendations
	rep.ActionItems = ur.ActionItems
	rep.Status = StatusPendingReview
	rep.Version = prevVersion + 1
	rep.UpdatedAt = now()

	rep, err = svc.repo.UpdateReport(ctx, rep, prevVersion)
	if err != nil {
		if errors.Cause(err) == ErrStaleObject {
			return Report{}, core.NewConcurrentModificationError("the report was modified concurrently")
		}
		return Report{}, err
	}
	return rep, nil
}

// TeacherAverageRating is the mean final rating across the teacher's approved
// reports, rounded to one decimal. Zero when no approved report exists.
func (svc *service) TeacherAverageRating(ctx context.Context, actor user.User, teacherID string) (float64, error) {
	if !(actor.IsGPI() || actor.IsAdmin() || actor.IsInspector() || actor.ID == teacherID) {
		return 0, core.NewAuthorizationError("permission denied")
	}
	reps, err := svc.repo.QueryReports(ctx, &ReportFilter{TeacherID: teacherID, Status: StatusApproved}, nil)
	if err != nil {
		return 0, err
	}
	if len(reps) == 0 {
		return 0, nil
	}
	var sum float64
	for _, r := range reps {
		sum += r.FinalRating
	}
	return roundRating(sum / float64(len(reps))), nil
}

func canReadReport(actor user.User, rep Report) error {
	switch {
	case actor.IsGPI() || actor.IsAdmin():
	case rep.InspectorID == actor.ID:
	case rep.TeacherID == actor.ID && rep.Status == StatusApproved:
	default:
		return core.NewAuthorizationError("permission denied")
	}
	return nil
}
