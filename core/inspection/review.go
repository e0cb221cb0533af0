package inspection

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/ukaguzi/core"
	"github.com/trezcool/ukaguzi/core/user"
)

// decisionStatus maps a review decision to the status it produces.
var decisionStatus = map[string]string{
	DecisionApprove:         StatusApproved,
	DecisionRequestRevision: StatusRevisionRequested,
	DecisionReject:          StatusRejected,
}

// Review applies a GPI decision to a report or monthly report. Feedback is
// mandatory for request_revision and reject. The subject must be in
// pending_review; approved and rejected are terminal.
func (svc *service) Review(ctx context.Context, actor user.User, kind, id, decision, feedback string) error {
	if !(actor.IsGPI() || actor.IsAdmin()) {
		return core.NewAuthorizationError(errGPIOnly)
	}

	newStatus, ok := decisionStatus[decision]
	if !ok {
		return core.NewValidationError(nil,
			core.FieldError{Field: "decision", Error: "must be one of: approve, request_revision, reject"})
	}
	feedback = core.CleanString(feedback)
	if feedback == "" && decision != DecisionApprove {
		return core.NewValidationError(nil,
			core.FieldError{Field: "feedback", Error: "feedback is required for this decision"})
	}

	subject, err := svc.getReviewable(ctx, kind, id)
	if err != nil {
		return err
	}
	if subject.ReviewStatus() != StatusPendingReview {
		return core.NewInvalidStateError(
			fmt.Sprintf("cannot review a %s %s", subject.ReviewStatus(), kind))
	}

	dec := Decision{
		SubjectKind: kind,
		SubjectID:   id,
		ReviewerID:  actor.ID,
		Decision:    decision,
		Feedback:    feedback,
		DecidedAt:   now(),
	}
	if _, err = svc.repo.RecordDecision(ctx, subject, newStatus, dec); err != nil {
		if errors.Cause(err) == ErrStaleObject {
			return core.NewConcurrentModificationError("the " + kind + " was reviewed concurrently")
		}
		return err
	}

	svc.notifyOwner(ctx, subject, dec)
	return nil
}

// QueryDecisions returns the decision history of a report or monthly report,
// oldest first.
func (svc *service) QueryDecisions(ctx context.Context, actor user.User, kind, id string) ([]Decision, error) {
	subject, err := svc.getReviewable(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if !(actor.IsGPI() || actor.IsAdmin() || subject.OwnerID() == actor.ID) {
		return nil, core.NewAuthorizationError("permission denied")
	}
	return svc.repo.QueryDecisions(ctx, kind, id)
}

func (svc *service) getReviewable(ctx context.Context, kind, id string) (Reviewable, error) {
	switch kind {
	case KindReport:
		return svc.repo.GetReport(ctx, id)
	case KindMonthlyReport:
		return svc.repo.GetMonthlyReport(ctx, id)
	}
	return nil, core.NewValidationError(nil,
		core.FieldError{Field: "kind", Error: "must be one of: report, monthly_report"})
}

// notifyOwner emails the owning inspector about the decision. Best effort;
// the decision stands even if the mail cannot be sent.
func (svc *service) notifyOwner(ctx context.Context, subject Reviewable, dec Decision) {
	owner, err := svc.usrSvc.GetByID(ctx, subject.OwnerID())
	if err != nil || owner.Email == "" {
		return
	}
	subj := fmt.Sprintf("[%s] Your %s has been reviewed", core.Conf.AppName, subject.ReviewKind())
	body := fmt.Sprintf("Decision: %s", dec.Decision)
	if dec.Feedback != "" {
		body += "\n\nFeedback:\n" + dec.Feedback
	}
	svc.mailSvc.SendMessages(
		&core.EmailMessage{
			To:      []mail.Address{{Name: owner.Name, Address: owner.Email}},
			Subject: subj,
			BodyStr: body,
		},
	)
}
