package inspection

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ukaguzi/core"
	"github.com/trezcool/ukaguzi/core/user"
)

// GetOrCreateMonthlyDraft returns the actor's monthly report for the period,
// creating an empty draft when none exists. At most one report exists per
// inspector and period.
func (svc *service) GetOrCreateMonthlyDraft(ctx context.Context, actor user.User, year, month int) (MonthlyReport, error) {
	if !actor.IsInspector() {
		return MonthlyReport{}, core.NewAuthorizationError(errInspectorOnly)
	}
	if err := validatePeriod(year, month); err != nil {
		return MonthlyReport{}, err
	}

	m, err := svc.repo.GetMonthlyReportByPeriod(ctx, actor.ID, year, month)
	if err == nil {
		return m, nil
	}
	if errors.Cause(err) != ErrNotFound {
		return MonthlyReport{}, err
	}

	ts := now()
	m = MonthlyReport{
		InspectorID: actor.ID,
		Year:        year,
		Month:       month,
		Status:      StatusDraft,
		Version:     1,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	m, err = svc.repo.CreateMonthlyReport(ctx, m)
	if err != nil {
		// another request created the draft first; fetch it
		if errors.Cause(err) == ErrMonthlyReportExists {
			return svc.repo.GetMonthlyReportByPeriod(ctx, actor.ID, year, month)
		}
		return MonthlyReport{}, err
	}
	return m, nil
}

// GetMonthlyReport returns a monthly report readable by the actor: GPI and
// admin see everything, inspectors only their own.
func (svc *service) GetMonthlyReport(ctx context.Context, actor user.User, id string) (MonthlyReport, error) {
	m, err := svc.repo.GetMonthlyReport(ctx, id)
	if err != nil {
		return MonthlyReport{}, err
	}
	if actor.IsGPI() || actor.IsAdmin() || m.InspectorID == actor.ID {
		return m, nil
	}
	return MonthlyReport{}, core.NewAuthorizationError("permission denied")
}

// UpdateMonthlyReport edits the narrative sections while the report is in
// draft or revision_requested.
func (svc *service) UpdateMonthlyReport(ctx context.Context, actor user.User, id string, um UpdateMonthlyReport) (MonthlyReport, error) {
	m, err := svc.getOwnedMonthly(ctx, actor, id)
	if err != nil {
		return MonthlyReport{}, err
	}
	if m.Status != StatusDraft && m.Status != StatusRevisionRequested {
		return MonthlyReport{}, core.NewInvalidStateError("only draft or revision-requested monthly reports can be edited")
	}
	if err = um.Validate(); err != nil {
		return MonthlyReport{}, err
	}

	if um.AggregateRating != 0 {
		m.AggregateRating = um.AggregateRating
	}
	m.RecurringIssues = um.RecurringIssues
	m.PositiveTrends = um.PositiveTrends
	m.Recommendations = um.Recommendations
	m.Challenges = um.Challenges
	return svc.saveMonthly(ctx, m)
}

// GenerateMonthlyStats recomputes the report's statistics from the inspector's
// visits and reports in the period.
func (svc *service) GenerateMonthlyStats(ctx context.Context, actor user.User, id string) (MonthlyReport, error) {
	m, err := svc.getOwnedMonthly(ctx, actor, id)
	if err != nil {
		return MonthlyReport{}, err
	}
	if m.Status != StatusDraft && m.Status != StatusRevisionRequested {
		return MonthlyReport{}, core.NewInvalidStateError("statistics can only be regenerated before review")
	}

	stats, aggregate, err := svc.computePeriodStats(ctx, m.InspectorID, m.Year, m.Month)
	if err != nil {
		return MonthlyReport{}, err
	}
	m.Stats = stats
	if m.AggregateRating == 0 {
		m.AggregateRating = aggregate
	}
	return svc.saveMonthly(ctx, m)
}

// SubmitMonthlyReport sends the report to GPI review. At least one approved
// inspection report in the period is required; statistics are refreshed on the
// way out.
func (svc *service) SubmitMonthlyReport(ctx context.Context, actor user.User, id string) (MonthlyReport, error) {
	m, err := svc.getOwnedMonthly(ctx, actor, id)
	if err != nil {
		return MonthlyReport{}, err
	}
	if m.Status != StatusDraft && m.Status != StatusRevisionRequested {
		return MonthlyReport{}, core.NewInvalidStateError("only draft or revision-requested monthly reports can be submitted")
	}

	approved, err := svc.repo.QueryReports(ctx, &ReportFilter{
		InspectorID: m.InspectorID,
		Status:      StatusApproved,
		Year:        m.Year,
		Month:       m.Month,
	}, nil)
	if err != nil {
		return MonthlyReport{}, err
	}
	if len(approved) == 0 {
		return MonthlyReport{}, core.NewValidationError(nil,
			core.FieldError{Field: "period", Error: "at least one approved report is required in the period"})
	}

	stats, aggregate, err := svc.computePeriodStats(ctx, m.InspectorID, m.Year, m.Month)
	if err != nil {
		return MonthlyReport{}, err
	}
	m.Stats = stats
	if m.AggregateRating == 0 {
		m.AggregateRating = aggregate
	}
	m.Status = StatusPendingReview
	m.SubmittedAt = now()
	return svc.saveMonthly(ctx, m)
}

// QueryMonthlyReports scopes results: inspectors see their own, GPI and admin
// see everything.
func (svc *service) QueryMonthlyReports(ctx context.Context, actor user.User, filter *MonthlyFilter, ordering ...core.DBOrdering) ([]MonthlyReport, error) {
	if filter == nil {
		filter = &MonthlyFilter{}
	}
	switch {
	case actor.IsGPI() || actor.IsAdmin():
	case actor.IsInspector():
		filter.InspectorID = actor.ID
	default:
		return nil, core.NewAuthorizationError("permission denied")
	}
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{
			{Field: "year", Ascending: false},
			{Field: "month", Ascending: false},
		}
	}
	return svc.repo.QueryMonthlyReports(ctx, filter, ordering)
}

// Dashboard summarizes the inspector's current workload.
func (svc *service) Dashboard(ctx context.Context, actor user.User) (DashboardStats, error) {
	if !actor.IsInspector() {
		return DashboardStats{}, core.NewAuthorizationError(errInspectorOnly)
	}

	visits, err := svc.repo.QueryVisits(ctx, &VisitFilter{InspectorID: actor.ID}, nil)
	if err != nil {
		return DashboardStats{}, err
	}
	reports, err := svc.repo.QueryReports(ctx, &ReportFilter{InspectorID: actor.ID}, nil)
	if err != nil {
		return DashboardStats{}, err
	}
	regions, err := svc.schoolSvc.QueryRegions(ctx, actor)
	if err != nil {
		return DashboardStats{}, err
	}

	ts := now()
	stats := DashboardStats{
		TotalVisits:     len(visits),
		AssignedRegions: regions,
	}
	for _, v := range visits {
		switch v.Status {
		case VisitCompleted:
			stats.CompletedVisits++
		case VisitScheduled:
			stats.PendingVisits++
			if v.ScheduledAt.After(ts) {
				stats.UpcomingVisits++
			}
		}
	}
	for _, r := range reports {
		switch r.Status {
		case StatusPendingReview:
			stats.ReportsPending++
		case StatusApproved:
			stats.ReportsApproved++
		case StatusRevisionRequested:
			stats.ReportsInRevision++
		}
	}
	if m, err := svc.repo.GetMonthlyReportByPeriod(ctx, actor.ID, ts.Year(), int(ts.Month())); err == nil {
		stats.MonthlyReportState = m.Status
	}
	return stats, nil
}

func (svc *service) getOwnedMonthly(ctx context.Context, actor user.User, id string) (MonthlyReport, error) {
	m, err := svc.repo.GetMonthlyReport(ctx, id)
	if err != nil {
		return MonthlyReport{}, err
	}
	if m.InspectorID != actor.ID {
		return MonthlyReport{}, core.NewAuthorizationError(errMonthlyNotOwned)
	}
	return m, nil
}

func (svc *service) saveMonthly(ctx context.Context, m MonthlyReport) (MonthlyReport, error) {
	prevVersion := m.Version
	m.Version = prevVersion + 1
	m.UpdatedAt = now()

	m, err := svc.repo.UpdateMonthlyReport(ctx, m, prevVersion)
	if err != nil {
		if errors.Cause(err) == ErrStaleObject {
			return MonthlyReport{}, core.NewConcurrentModificationError("the monthly report was modified concurrently")
		}
		return MonthlyReport{}, err
	}
	return m, nil
}

// computePeriodStats derives visit counters and the rating distribution of
// the inspector's period, plus the mean final rating of approved reports.
func (svc *service) computePeriodStats(ctx context.Context, inspectorID string, year, month int) (MonthlyStats, float64, error) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	visits, err := svc.repo.QueryVisits(ctx, &VisitFilter{InspectorID: inspectorID, From: from, To: to}, nil)
	if err != nil {
		return MonthlyStats{}, 0, err
	}
	reports, err := svc.repo.QueryReports(ctx, &ReportFilter{InspectorID: inspectorID, Year: year, Month: month}, nil)
	if err != nil {
		return MonthlyStats{}, 0, err
	}

	stats := MonthlyStats{
		TotalVisits:        len(visits),
		RatingDistribution: make(map[int]int),
	}
	for _, v := range visits {
		switch v.Status {
		case VisitCompleted:
			stats.CompletedVisits++
		case VisitCancelled:
			stats.CancelledVisits++
		case VisitScheduled:
			stats.PendingVisits++
		}
	}

	var sum float64
	var approved int
	for _, r := range reports {
		stats.RatingDistribution[int(r.FinalRating+0.5)]++
		if r.Status == StatusApproved {
			sum += r.FinalRating
			approved++
		}
	}
	var aggregate float64
	if approved > 0 {
		aggregate = roundRating(sum / float64(approved))
	}
	return stats, aggregate, nil
}

func validatePeriod(year, month int) error {
	var fieldErrs []core.FieldError
	if year < 2000 || year > 2100 {
		fieldErrs = append(fieldErrs, core.FieldError{Field: "year", Error: "invalid year"})
	}
	if month < 1 || month > 12 {
		fieldErrs = append(fieldErrs, core.FieldError{Field: "month", Error: "must be between 1 and 12"})
	}
	if len(fieldErrs) > 0 {
		return core.NewValidationError(nil, fieldErrs...)
	}
	return nil
}
