package inspection

import (
	"math"
	"time"

	"github.com/trezcool/ukaguzi/core"
	"github.com/trezcool/ukaguzi/core/school"
)

// Visit types
const (
	VisitRoutine           = "routine"
	VisitClassObservation  = "class_visit"
	VisitFollowUp          = "follow_up"
	VisitComplaintBased    = "complaint_based"
	VisitEvaluationRenewal = "evaluation_renewal"
)

var VisitTypes = []string{
	VisitRoutine,
	VisitClassObservation,
	VisitFollowUp,
	VisitComplaintBased,
	VisitEvaluationRenewal,
}

// Visit statuses: scheduled → completed | cancelled; both terminal.
const (
	VisitScheduled = "scheduled"
	VisitCompleted = "completed"
	VisitCancelled = "cancelled"
)

// Review statuses, shared by Report and MonthlyReport.
// draft only applies to MonthlyReport; a Report is submitted on creation.
const (
	StatusDraft             = "draft"
	StatusPendingReview     = "pending_review"
	StatusApproved          = "approved"
	StatusRevisionRequested = "revision_requested"
	StatusRejected          = "rejected"
)

// Review decisions
const (
	DecisionApprove         = "approve"
	DecisionRequestRevision = "request_revision"
	DecisionReject          = "reject"
)

// Reviewable subject kinds
const (
	KindReport        = "report"
	KindMonthlyReport = "monthly_report"
)

type Visit struct {
	ID              string    `json:"id"`
	InspectorID     string    `json:"inspector_id"`
	TeacherID       string    `json:"teacher_id"`
	SchoolID        string    `json:"school_id"`
	Type            string    `json:"type"`
	Status          string    `json:"status"`
	ScheduledAt     time.Time `json:"scheduled_at"` // UTC
	DurationMinutes int       `json:"duration_minutes"`
	Notes           string    `json:"notes,omitempty"`
	CancelReason    string    `json:"cancellation_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"` // UTC
	UpdatedAt       time.Time `json:"updated_at"` // UTC
	CompletedAt     time.Time `json:"completed_at,omitempty"`
}

// CanWriteReport reports whether a Report may be created from this Visit.
func (v Visit) CanWriteReport() bool {
	return v.Status == VisitCompleted
}

type Report struct {
	ID          string `json:"id"`
	VisitID     string `json:"visit_id"`
	InspectorID string `json:"inspector_id"`
	TeacherID   string `json:"teacher_id"`

	// category ratings, 1–5, fractional allowed
	TeachingQuality   float64 `json:"teaching_quality"`
	ClassManagement   float64 `json:"class_management"`
	StudentEngagement float64 `json:"student_engagement"`
	ContentDelivery   float64 `json:"content_delivery"`
	FinalRating       float64 `json:"final_rating"`

	Strengths           string `json:"strengths,omitempty"`
	AreasForImprovement string `json:"areas_for_improvement,omitempty"`
	Recommendations     string `json:"recommendations,omitempty"`
	ActionItems         string `json:"action_items,omitempty"`

	Status     string    `json:"status"`
	ReviewerID string    `json:"reviewer_id,omitempty"`
	Feedback   string    `json:"feedback,omitempty"`
	ReviewedAt time.Time `json:"reviewed_at,omitempty"`

	Version     int       `json:"version"`
	SubmittedAt time.Time `json:"submitted_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"`   // UTC
}

var _ Reviewable = (*Report)(nil)

func (r Report) ReviewKind() string   { return KindReport }
func (r Report) ReviewID() string     { return r.ID }
func (r Report) ReviewStatus() string { return r.Status }
func (r Report) ReviewVersion() int   { return r.Version }
func (r Report) OwnerID() string      { return r.InspectorID }

// MonthlyStats are derived from the inspector's visits and reports in the period.
type MonthlyStats struct {
	TotalVisits        int         `json:"total_visits"`
	CompletedVisits    int         `json:"completed_visits"`
	CancelledVisits    int         `json:"cancelled_visits"`
	PendingVisits      int         `json:"pending_visits"`
	RatingDistribution map[int]int `json:"rating_distribution,omitempty"`
}

type MonthlyReport struct {
	ID          string `json:"id"`
	InspectorID string `json:"inspector_id"`
	Year        int    `json:"year"`
	Month       int    `json:"month"` // 1–12

	Stats           MonthlyStats `json:"stats"`
	AggregateRating float64      `json:"aggregate_rating,omitempty"`

	RecurringIssues string `json:"recurring_issues,omitempty"`
	PositiveTrends  string `json:"positive_trends,omitempty"`
	Recommendations string `json:"recommendations,omitempty"`
	Challenges      string `json:"challenges_faced,omitempty"`

	Status     string    `json:"status"`
	ReviewerID string    `json:"reviewer_id,omitempty"`
	Feedback   string    `json:"feedback,omitempty"`
	ReviewedAt time.Time `json:"reviewed_at,omitempty"`

	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	SubmittedAt time.Time `json:"submitted_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

var _ Reviewable = (*MonthlyReport)(nil)

func (m MonthlyReport) ReviewKind() string   { return KindMonthlyReport }
func (m MonthlyReport) ReviewID() string     { return m.ID }
func (m MonthlyReport) ReviewStatus() string { return m.Status }
func (m MonthlyReport) ReviewVersion() int   { return m.Version }
func (m MonthlyReport) OwnerID() string      { return m.InspectorID }

// Decision is an append-only audit record of a GPI review decision.
type Decision struct {
	ID          string    `json:"id"`
	SubjectKind string    `json:"subject_kind"`
	SubjectID   string    `json:"subject_id"`
	ReviewerID  string    `json:"reviewer_id"`
	Decision    string    `json:"decision"`
	Feedback    string    `json:"feedback,omitempty"`
	DecidedAt   time.Time `json:"decided_at"` // UTC
}

// NewVisit contains information needed to schedule a new Visit.
type NewVisit struct {
	TeacherID       string    `json:"teacher_id" validate:"required"`
	Type            string    `json:"type" validate:"required,visittype"`
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"omitempty,gt=0"`
	Notes           string    `json:"notes"`
}

func (nv *NewVisit) Validate() error {
	nv.Notes = core.CleanString(nv.Notes)
	if nv.DurationMinutes == 0 {
		nv.DurationMinutes = defaultVisitDuration
	}
	return core.Validate.Struct(nv)
}

// RescheduleVisit moves a scheduled Visit to a new future date/time.
type RescheduleVisit struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
}

func (rv *RescheduleVisit) Validate() error { return core.Validate.Struct(rv) }

// CancelVisit cancels a scheduled Visit; a reason is mandatory.
type CancelVisit struct {
	Reason string `json:"reason" validate:"required"`
}

func (cv *CancelVisit) Validate() error {
	cv.Reason = core.CleanString(cv.Reason)
	return core.Validate.Struct(cv)
}

// NewReport contains information needed to create a Report from a completed Visit.
// FinalRating may be entered independently; when omitted it is computed as the
// mean of the four category ratings rounded to one decimal.
type NewReport struct {
	VisitID string `json:"visit_id" validate:"required"`

	TeachingQuality   float64 `json:"teaching_quality" validate:"required,gte=1,lte=5"`
	ClassManagement   float64 `json:"class_management" validate:"required,gte=1,lte=5"`
	StudentEngagement float64 `json:"student_engagement" validate:"required,gte=1,lte=5"`
	ContentDelivery   float64 `json:"content_delivery" validate:"required,gte=1,lte=5"`
	FinalRating       float64 `json:"final_rating" validate:"omitempty,gte=1,lte=5"`

	Strengths           string `json:"strengths"`
	AreasForImprovement string `json:"areas_for_improvement"`
	Recommendations     string `json:"recommendations"`
	ActionItems         string `json:"action_items"`
}

func (nr *NewReport) Validate() error {
	nr.Strengths = core.CleanString(nr.Strengths)
	nr.AreasForImprovement = core.CleanString(nr.AreasForImprovement)
	nr.Recommendations = core.CleanString(nr.Recommendations)
	nr.ActionItems = core.CleanString(nr.ActionItems)
	return core.Validate.Struct(nr)
}

// UpdateReport defines what may be modified on a Report while it is editable.
// Zero ratings and empty narratives keep the original values.
type UpdateReport struct {
	TeachingQuality   float64 `json:"teaching_quality" validate:"omitempty,gte=1,lte=5"`
	ClassManagement   float64 `json:"class_management" validate:"omitempty,gte=1,lte=5"`
	StudentEngagement float64 `json:"student_engagement" validate:"omitempty,gte=1,lte=5"`
	ContentDelivery   float64 `json:"content_delivery" validate:"omitempty,gte=1,lte=5"`
	FinalRating       float64 `json:"final_rating" validate:"omitempty,gte=1,lte=5"`

	Strengths           string `json:"strengths"`
	AreasForImprovement string `json:"areas_for_improvement"`
	Recommendations     string `json:"recommendations"`
	ActionItems         string `json:"action_items"`
}

func (ur *UpdateReport) Validate(orig Report) error {
	if ur.TeachingQuality == 0 {
		ur.TeachingQuality = orig.TeachingQuality
	}
	if ur.ClassManagement == 0 {
		ur.ClassManagement = orig.ClassManagement
	}
	if ur.StudentEngagement == 0 {
		ur.StudentEngagement = orig.StudentEngagement
	}
	if ur.ContentDelivery == 0 {
		ur.ContentDelivery = orig.ContentDelivery
	}
	if s := core.CleanString(ur.Strengths); s != "" {
		ur.Strengths = s
	} else {
		ur.Strengths = orig.Strengths
	}
	if s := core.CleanString(ur.AreasForImprovement); s != "" {
		ur.AreasForImprovement = s
	} else {
		ur.AreasForImprovement = orig.AreasForImprovement
	}
	if s := core.CleanString(ur.Recommendations); s != "" {
		ur.Recommendations = s
	} else {
		ur.Recommendations = orig.Recommendations
	}
	if s := core.CleanString(ur.ActionItems); s != "" {
		ur.ActionItems = s
	} else {
		ur.ActionItems = orig.ActionItems
	}
	return core.Validate.Struct(ur)
}

// UpdateMonthlyReport defines what may be modified on a MonthlyReport while it
// is in draft or revision_requested.
type UpdateMonthlyReport struct {
	AggregateRating float64 `json:"aggregate_rating" validate:"omitempty,gte=1,lte=5"`
	RecurringIssues string  `json:"recurring_issues"`
	PositiveTrends  string  `json:"positive_trends"`
	Recommendations string  `json:"recommendations"`
	Challenges      string  `json:"challenges_faced"`
}

func (um *UpdateMonthlyReport) Validate() error {
	um.RecurringIssues = core.CleanString(um.RecurringIssues)
	um.PositiveTrends = core.CleanString(um.PositiveTrends)
	um.Recommendations = core.CleanString(um.Recommendations)
	um.Challenges = core.CleanString(um.Challenges)
	return core.Validate.Struct(um)
}

// ReviewRequest carries GPI feedback for a review decision.
// Feedback is mandatory for request-revision and reject; optional for approve.
type ReviewRequest struct {
	Feedback string `json:"feedback"`
}

// Filters

type VisitFilter struct {
	InspectorID string    `query:"-"`
	TeacherID   string    `query:"teacher_id"`
	Status      string    `query:"status"`
	From        time.Time `query:"from"`
	To          time.Time `query:"to"`
}

type ReportFilter struct {
	InspectorID string `query:"-"`
	TeacherID   string `query:"teacher_id"`
	Status      string `query:"status"`
	Year        int    `query:"year"`
	Month       int    `query:"month"`
}

type MonthlyFilter struct {
	InspectorID string `query:"-"`
	Status      string `query:"status"`
	Year        int    `query:"year"`
}

// DashboardStats is the inspector dashboard read model.
type DashboardStats struct {
	TotalVisits        int             `json:"total_visits"`
	CompletedVisits    int             `json:"completed_visits"`
	PendingVisits      int             `json:"pending_visits"`
	UpcomingVisits     int             `json:"upcoming_visits"`
	ReportsPending     int             `json:"reports_pending_review"`
	ReportsApproved    int             `json:"reports_approved"`
	ReportsInRevision  int             `json:"reports_revision_requested"`
	AssignedRegions    []school.Region `json:"assigned_regions"`
	MonthlyReportState string          `json:"monthly_report_status,omitempty"`
}

const defaultVisitDuration = 90 // minutes

// finalRating is the mean of the four category ratings rounded to one decimal.
func finalRating(teaching, management, engagement, delivery float64) float64 {
	return roundRating((teaching + management + engagement + delivery) / 4)
}

func roundRating(r float64) float64 { return math.Round(r*10) / 10 }
