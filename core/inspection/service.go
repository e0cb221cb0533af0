package inspection

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ukaguzi/core"
	"github.com/trezcool/ukaguzi/core/school"
	"github.com/trezcool/ukaguzi/core/user"
)

var (
	// errors
	ErrNotFound             = errors.New("not found")
	ErrReportExists         = errors.New("a report already exists for this visit")
	ErrMonthlyReportExists  = errors.New("a monthly report already exists for this period")
	ErrStaleObject          = errors.New("object was modified concurrently")
	errVisitNotOwned        = "only the owning inspector may modify this visit"
	errReportNotOwned       = "only the authoring inspector may modify this report"
	errMonthlyNotOwned      = "only the owning inspector may modify this monthly report"
	errGPIOnly              = "only GPI may review"
	errInspectorOnly        = "only inspectors may perform this operation"
	errNoAssignmentCoverage = "no active region assignment covers this teacher's school"
)

type (
	// Reviewable is anything subject to the GPI approve/revise/reject state
	// machine: currently Report and MonthlyReport.
	Reviewable interface {
		ReviewKind() string
		ReviewID() string
		ReviewStatus() string
		ReviewVersion() int
		OwnerID() string
	}

	Repository interface {
		// visits
		CreateVisit(ctx context.Context, v Visit, exec ...core.DBExecutor) (Visit, error)
		GetVisit(ctx context.Context, id string, exec ...core.DBExecutor) (Visit, error)
		QueryVisits(ctx context.Context, filter *VisitFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Visit, error)
		// UpdateVisit applies the visit's mutable fields only while the stored
		// status still equals fromStatus; ErrStaleObject otherwise.
		UpdateVisit(ctx context.Context, v Visit, fromStatus string, exec ...core.DBExecutor) (Visit, error)

		// reports; CreateReport returns ErrReportExists when the visit already has one
		CreateReport(ctx context.Context, r Report, exec ...core.DBExecutor) (Report, error)
		GetReport(ctx context.Context, id string, exec ...core.DBExecutor) (Report, error)
		GetReportByVisit(ctx context.Context, visitID string, exec ...core.DBExecutor) (Report, error)
		QueryReports(ctx context.Context, filter *ReportFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Report, error)
		// UpdateReport applies the report's fields only while the stored
		// version still equals expectedVersion; ErrStaleObject otherwise.
		UpdateReport(ctx context.Context, r Report, expectedVersion int, exec ...core.DBExecutor) (Report, error)

		// review decision audit; RecordDecision transitions the subject to
		// newStatus and appends the decision atomically, guarded by the
		// subject's version (ErrStaleObject on conflict).
		RecordDecision(ctx context.Context, subject Reviewable, newStatus string, dec Decision, exec ...core.DBExecutor) (Decision, error)
		QueryDecisions(ctx context.Context, kind, subjectID string, exec ...core.DBExecutor) ([]Decision, error)

		// monthly reports; CreateMonthlyReport returns ErrMonthlyReportExists
		// when a report for (inspector, period) already exists
		CreateMonthlyReport(ctx context.Context, m MonthlyReport, exec ...core.DBExecutor) (MonthlyReport, error)
		GetMonthlyReport(ctx context.Context, id string, exec ...core.DBExecutor) (MonthlyReport, error)
		GetMonthlyReportByPeriod(ctx context.Context, inspectorID string, year, month int, exec ...core.DBExecutor) (MonthlyReport, error)
		QueryMonthlyReports(ctx context.Context, filter *MonthlyFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]MonthlyReport, error)
		UpdateMonthlyReport(ctx context.Context, m MonthlyReport, expectedVersion int, exec ...core.DBExecutor) (MonthlyReport, error)
	}

	Service interface {
		// Visit Registry
		ScheduleVisit(ctx context.Context, actor user.User, nv NewVisit) (Visit, error)
		GetVisit(ctx context.Context, actor user.User, id string) (Visit, error)
		QueryVisits(ctx context.Context, actor user.User, filter *VisitFilter, ordering ...core.DBOrdering) ([]Visit, error)
		RescheduleVisit(ctx context.Context, actor user.User, id string, rv RescheduleVisit) (Visit, error)
		CancelVisit(ctx context.Context, actor user.User, id string, cv CancelVisit) (Visit, error)
		CompleteVisit(ctx context.Context, actor user.User, id string) (Visit, error)

		// Report Engine
		CreateReport(ctx context.Context, actor user.User, nr NewReport) (Report, error)
		GetReport(ctx context.Context, actor user.User, id string) (Report, error)
		QueryReports(ctx context.Context, actor user.User, filter *ReportFilter, ordering ...core.DBOrdering) ([]Report, error)
		UpdateReport(ctx context.Context, actor user.User, id string, ur UpdateReport) (Report, error)

		// Review Gate; kind is KindReport or KindMonthlyReport
		Review(ctx context.Context, actor user.User, kind, id, decision, feedback string) error
		QueryDecisions(ctx context.Context, actor user.User, kind, id string) ([]Decision, error)

		// Monthly Rollup
		GetOrCreateMonthlyDraft(ctx context.Context, actor user.User, year, month int) (MonthlyReport, error)
		GetMonthlyReport(ctx context.Context, actor user.User, id string) (MonthlyReport, error)
		UpdateMonthlyReport(ctx context.Context, actor user.User, id string, um UpdateMonthlyReport) (MonthlyReport, error)
		GenerateMonthlyStats(ctx context.Context, actor user.User, id string) (MonthlyReport, error)
		SubmitMonthlyReport(ctx context.Context, actor user.User, id string) (MonthlyReport, error)
		QueryMonthlyReports(ctx context.Context, actor user.User, filter *MonthlyFilter, ordering ...core.DBOrdering) ([]MonthlyReport, error)

		// read models
		Dashboard(ctx context.Context, actor user.User) (DashboardStats, error)
		TeacherAverageRating(ctx context.Context, actor user.User, teacherID string) (float64, error)
	}

	service struct {
		repo      Repository
		schoolSvc school.Service
		usrSvc    user.Service
		mailSvc   core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, schoolSvc school.Service, usrSvc user.Service, mailSvc core.EmailService) Service {
	return &service{
		repo:      repo,
		schoolSvc: schoolSvc,
		usrSvc:    usrSvc,
		mailSvc:   mailSvc,
	}
}

// now returns the current UTC time; mockable in tests.
var now = func() time.Time { return time.Now().UTC() }
