package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ukaguzi/core"
	"github.com/trezcool/ukaguzi/core/inspection"
)

type (
	inspectionRepository struct {
		db core.DB
	}

	visitRow struct {
		ID              string    `db:"id"`
		InspectorID     string    `db:"inspector_id"`
		TeacherID       string    `db:"teacher_id"`
		SchoolID        string    `db:"school_id"`
		Type            string    `db:"type"`
		Status          string    `db:"status"`
		ScheduledAt     time.Time `db:"scheduled_at"`
		DurationMinutes int       `db:"duration_minutes"`
		Notes           string    `db:"notes"`
		CancelReason    string    `db:"cancellation_reason"`
		CreatedAt       time.Time `db:"created_at"`
		UpdatedAt       time.Time `db:"updated_at"`
		CompletedAt     null.Time `db:"completed_at"`
	}

	reportRow struct {
		ID                  string      `db:"id"`
		VisitID             string      `db:"visit_id"`
		InspectorID         string      `db:"inspector_id"`
		TeacherID           string      `db:"teacher_id"`
		TeachingQuality     float64     `db:"teaching_quality"`
		ClassManagement     float64     `db:"class_management"`
		StudentEngagement   float64     `db:"student_engagement"`
		ContentDelivery     float64     `db:"content_delivery"`
		FinalRating         float64     `db:"final_rating"`
		Strengths           string      `db:"strengths"`
		AreasForImprovement string      `db:"areas_for_improvement"`
		Recommendations     string      `db:"recommendations"`
		ActionItems         string      `db:"action_items"`
		Status              string      `db:"status"`
		ReviewerID          null.String `db:"reviewer_id"`
		Feedback            string      `db:"feedback"`
		ReviewedAt          null.Time   `db:"reviewed_at"`
		Version             int         `db:"version"`
		SubmittedAt         time.Time   `db:"submitted_at"`
		UpdatedAt           time.Time   `db:"updated_at"`
	}

	monthlyRow struct {
		ID              string       `db:"id"`
		InspectorID     string       `db:"inspector_id"`
		Year            int          `db:"year"`
		Month           int          `db:"month"`
		Stats           null.JSON    `db:"stats"`
		AggregateRating null.Float64 `db:"aggregate_rating"`
		RecurringIssues string       `db:"recurring_issues"`
		PositiveTrends  string       `db:"positive_trends"`
		Recommendations string       `db:"recommendations"`
		Challenges      string       `db:"challenges_faced"`
		Status          string       `db:"status"`
		ReviewerID      null.String  `db:"reviewer_id"`
		Feedback        string       `db:"feedback"`
		ReviewedAt      null.Time    `db:"reviewed_at"`
		Version         int          `db:"version"`
		CreatedAt       time.Time    `db:"created_at"`
		SubmittedAt     null.Time    `db:"submitted_at"`
		UpdatedAt       time.Time    `db:"updated_at"`
	}

	decisionRow struct {
		ID          string    `db:"id"`
		SubjectKind string    `db:"subject_kind"`
		SubjectID   string    `db:"subject_id"`
		ReviewerID  string    `db:"reviewer_id"`
		Decision    string    `db:"decision"`
		Feedback    string    `db:"feedback"`
		DecidedAt   time.Time `db:"decided_at"`
	}
)

var _ inspection.Repository = (*inspectionRepository)(nil) // interface compliance check

func NewInspectionRepository(db core.DB) inspection.Repository {
	return &inspectionRepository{db: db}
}

const (
	visitColumns = `id, inspector_id, teacher_id, school_id, type, status, scheduled_at, duration_minutes,
		notes, cancellation_reason, created_at, updated_at, completed_at`
	reportColumns = `id, visit_id, inspector_id, teacher_id, teaching_quality, class_management,
		student_engagement, content_delivery, final_rating, strengths, areas_for_improvement,
		recommendations, action_items, status, reviewer_id, feedback, reviewed_at, version,
		submitted_at, updated_at`
	monthlyColumns = `id, inspector_id, year, month, stats, aggregate_rating, recurring_issues,
		positive_trends, recommendations, challenges_faced, status, reviewer_id, feedback,
		reviewed_at, version, created_at, submitted_at, updated_at`
	decisionColumns = `id, subject_kind, subject_id, reviewer_id, decision, feedback, decided_at`
)

func (repo inspectionRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.db
}

func (repo inspectionRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return inspection.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// visits

func (repo inspectionRepository) rowVisit(v inspection.Visit) visitRow {
	return visitRow{
		ID:              v.ID,
		InspectorID:     v.InspectorID,
		TeacherID:       v.TeacherID,
		SchoolID:        v.SchoolID,
		Type:            v.Type,
		Status:          v.Status,
		ScheduledAt:     v.ScheduledAt.UTC(),
		DurationMinutes: v.DurationMinutes,
		Notes:           v.Notes,
		CancelReason:    v.CancelReason,
		CreatedAt:       v.CreatedAt.UTC(),
		UpdatedAt:       v.UpdatedAt.UTC(),
		CompletedAt:     null.NewTime(v.CompletedAt.UTC(), !v.CompletedAt.IsZero()),
	}
}

func (repo inspectionRepository) unrowVisit(row visitRow) inspection.Visit {
	return inspection.Visit{
		ID:              row.ID,
		InspectorID:     row.InspectorID,
		TeacherID:       row.TeacherID,
		SchoolID:        row.SchoolID,
		Type:            row.Type,
		Status:          row.Status,
		ScheduledAt:     row.ScheduledAt,
		DurationMinutes: row.DurationMinutes,
		Notes:           row.Notes,
		CancelReason:    row.CancelReason,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
		CompletedAt:     row.CompletedAt.Time,
	}
}

func (repo inspectionRepository) CreateVisit(ctx context.Context, v inspection.Visit, exec ...core.DBExecutor) (inspection.Visit, error) {
	v.ID = uuid.New().String()
	query := `
		INSERT INTO inspection_visit (` + visitColumns + `)
		VALUES (:id, :inspector_id, :teacher_id, :school_id, :type, :status, :scheduled_at, :duration_minutes,
			:notes, :cancellation_reason, :created_at, :updated_at, :completed_at)`
	if _, err := sqlxNamedExec(ctx, repo.getExec(exec), query, repo.rowVisit(v)); err != nil {
		return inspection.Visit{}, errors.Wrap(err, "inserting visit")
	}
	return v, nil
}

func (repo inspectionRepository) GetVisit(ctx context.Context, id string, exec ...core.DBExecutor) (inspection.Visit, error) {
	if _, err := uuid.Parse(id); err != nil {
		return inspection.Visit{}, inspection.ErrNotFound
	}
	var row visitRow
	query := `SELECT ` + visitColumns + ` FROM inspection_visit WHERE id = $1`
	if err := repo.getExec(exec).GetContext(ctx, &row, query, id); err != nil {
		return inspection.Visit{}, repo.trapNoRowsErr(err, "finding visit")
	}
	return repo.unrowVisit(row), nil
}

func (repo inspectionRepository) QueryVisits(ctx context.Context, filter *inspection.VisitFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]inspection.Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM inspection_visit`
	var conds []string
	var args []interface{}

	if filter != nil {
		if filter.InspectorID != "" {
			conds = append(conds, `inspector_id = ?`)
			args = append(args, filter.InspectorID)
		}
		if filter.TeacherID != "" {
			conds = append(conds, `teacher_id = ?`)
			args = append(args, filter.TeacherID)
		}
		if filter.Status != "" {
			conds = append(conds, `status = ?`)
			args = append(args, filter.Status)
		}
		if !filter.From.IsZero() {
			conds = append(conds, `scheduled_at >= ?`)
			args = append(args, filter.From.UTC())
		}
		if !filter.To.IsZero() {
			conds = append(conds, `scheduled_at < ?`)
			args = append(args, filter.To.UTC())
		}
	}

	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += orderBy(ordering)

	exe := repo.getExec(exec)
	var rows []visitRow
	if err := exe.SelectContext(ctx, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying visits")
	}
	visits := make([]inspection.Visit, 0, len(rows))
	for _, row := range rows {
		visits = append(visits, repo.unrowVisit(row))
	}
	return visits, nil
}

func (repo inspectionRepository) UpdateVisit(ctx context.Context, v inspection.Visit, fromStatus string, exec ...core.DBExecutor) (inspection.Visit, error) {
	query := `
		UPDATE inspection_visit
		SET status = $2, scheduled_at = $3, notes = $4, cancellation_reason = $5, updated_at = $6, completed_at = $7
		WHERE id = $1 AND status = $8`
	res, err := repo.getExec(exec).ExecContext(ctx, query,
		v.ID, v.Status, v.ScheduledAt.UTC(), v.Notes, v.CancelReason, v.UpdatedAt.UTC(),
		null.NewTime(v.CompletedAt.UTC(), !v.CompletedAt.IsZero()), fromStatus)
	if err != nil {
		return inspection.Visit{}, errors.Wrap(err, "updating visit")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return inspection.Visit{}, inspection.ErrStaleObject
	}
	return v, nil
}

// reports

func (repo inspectionRepository) rowReport(r inspection.Report) reportRow {
	return reportRow{
		ID:                  r.ID,
		VisitID:             r.VisitID,
		InspectorID:         r.InspectorID,
		TeacherID:           r.TeacherID,
		TeachingQuality:     r.TeachingQuality,
		ClassManagement:     r.ClassManagement,
		StudentEngagement:   r.StudentEngagement,
		ContentDelivery:     r.ContentDelivery,
		FinalRating:         r.FinalRating,
		Strengths:           r.Strengths,
		AreasForImprovement: r.AreasForImprovement,
		Recommendations:     r.Recommendations,
		ActionItems:         r.ActionItems,
		Status:              r.Status,
		ReviewerID:          null.NewString(r.ReviewerID, r.ReviewerID != ""),
		Feedback:            r.Feedback,
		ReviewedAt:          null.NewTime(r.ReviewedAt.UTC(), !r.ReviewedAt.IsZero()),
		Version:             r.Version,
		SubmittedAt:         r.SubmittedAt.UTC(),
		UpdatedAt:           r.UpdatedAt.UTC(),
	}
}

func (repo inspectionRepository) unrowReport(row reportRow) inspection.Report {
	return inspection.Report{
		ID:                  row.ID,
		VisitID:             row.VisitID,
		InspectorID:         row.InspectorID,
		TeacherID:           row.TeacherID,
		TeachingQuality:     row.TeachingQuality,
		ClassManagement:     row.ClassManagement,
		StudentEngagement:   row.StudentEngagement,
		ContentDelivery:     row.ContentDelivery,
		FinalRating:         row.FinalRating,
		Strengths:           row.Strengths,
		AreasForImprovement: row.AreasForImprovement,
		Recommendations:     row.Recommendations,
		ActionItems:         row.ActionItems,
		Status:              row.Status,
		ReviewerID:          row.ReviewerID.String,
		Feedback:            row.Feedback,
		ReviewedAt:          row.ReviewedAt.Time,
		Version:             row.Version,
		SubmittedAt:         row.SubmittedAt,
		UpdatedAt:           row.UpdatedAt,
	}
}

func (repo inspectionRepository) CreateReport(ctx context.Context, r inspection.Report, exec ...core.DBExecutor) (inspection.Report, error) {
	r.ID = uuid.New().String()
	query := `
		INSERT INTO inspection_report (` + reportColumns + `)
		VALUES (:id, :visit_id, :inspector_id, :teacher_id, :teaching_quality, :class_management,
			:student_engagement, :content_delivery, :final_rating, :strengths, :areas_for_improvement,
			:recommendations, :action_items, :status, :reviewer_id, :feedback, :reviewed_at, :version,
			:submitted_at, :updated_at)`
	if _, err := sqlxNamedExec(ctx, repo.getExec(exec), query, repo.rowReport(r)); err != nil {
		if isUniqueViolation(err) {
			return inspection.Report{}, inspection.ErrReportExists
		}
		return inspection.Report{}, errors.Wrap(err, "inserting report")
	}
	return r, nil
}

func (repo inspectionRepository) GetReport(ctx context.Context, id string, exec ...core.DBExecutor) (inspection.Report, error) {
	if _, err := uuid.Parse(id); err != nil {
		return inspection.Report{}, inspection.ErrNotFound
	}
	var row reportRow
	query := `SELECT ` + reportColumns + ` FROM inspection_report WHERE id = $1`
	if err := repo.getExec(exec).GetContext(ctx, &row, query, id); err != nil {
		return inspection.Report{}, repo.trapNoRowsErr(err, "finding report")
	}
	return repo.unrowReport(row), nil
}

func (repo inspectionRepository) GetReportByVisit(ctx context.Context, visitID string, exec ...core.DBExecutor) (inspection.Report, error) {
	var row reportRow
	query := `SELECT ` + reportColumns + ` FROM inspection_report WHERE visit_id = $1`
	if err := repo.getExec(exec).GetContext(ctx, &row, query, visitID); err != nil {
		return inspection.Report{}, repo.trapNoRowsErr(err, "finding report by visit")
	}
	return repo.unrowReport(row), nil
}

func (repo inspectionRepository) QueryReports(ctx context.Context, filter *inspection.ReportFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]inspection.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM inspection_report`
	var conds []string
	var args []interface{}

	if filter != nil {
		if filter.InspectorID != "" {
			conds = append(conds, `inspector_id = ?`)
			args = append(args, filter.InspectorID)
		}
		if filter.TeacherID != "" {
			conds = append(conds, `teacher_id = ?`)
			args = append(args, filter.TeacherID)
		}
		if filter.Status != "" {
			conds = append(conds, `status = ?`)
			args = append(args, filter.Status)
		}
		if filter.Year != 0 && filter.Month != 0 {
			from := time.Date(filter.Year, time.Month(filter.Month), 1, 0, 0, 0, 0, time.UTC)
			conds = append(conds, `submitted_at >= ?`, `submitted_at < ?`)
			args = append(args, from, from.AddDate(0, 1, 0))
		} else if filter.Year != 0 {
			conds = append(conds, `EXTRACT(YEAR FROM submitted_at) = ?`)
			args = append(args, filter.Year)
		}
	}

	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += orderBy(ordering)

	exe := repo.getExec(exec)
	var rows []reportRow
	if err := exe.SelectContext(ctx, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying reports")
	}
	reports := make([]inspection.Report, 0, len(rows))
	for _, row := range rows {
		reports = append(reports, repo.unrowReport(row))
	}
	return reports, nil
}

func (repo inspectionRepository) UpdateReport(ctx context.Context, r inspection.Report, expectedVersion int, exec ...core.DBExecutor) (inspection.Report, error) {
	query := `
		UPDATE inspection_report
		SET teaching_quality = :teaching_quality, class_management = :class_management,
			student_engagement = :student_engagement, content_delivery = :content_delivery,
			final_rating = :final_rating, strengths = :strengths, areas_for_improvement = :areas_for_improvement,
			recommendations = :recommendations, action_items = :action_items, status = :status,
			version = :version, updated_at = :updated_at
		WHERE id = :id AND version = :expected_version`
	arg := struct {
		reportRow
		ExpectedVersion int `db:"expected_version"`
	}{repo.rowReport(r), expectedVersion}

	res, err := sqlxNamedExec(ctx, repo.getExec(exec), query, arg)
	if err != nil {
		return inspection.Report{}, errors.Wrap(err, "updating report")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return inspection.Report{}, inspection.ErrStaleObject
	}
	return r, nil
}

// review decisions

var reviewTables = map[string]string{
	inspection.KindReport:        "inspection_report",
	inspection.KindMonthlyReport: "monthly_report",
}

func (repo inspectionRepository) RecordDecision(ctx context.Context, subject inspection.Reviewable, newStatus string, dec inspection.Decision, exec ...core.DBExecutor) (inspection.Decision, error) {
	table, ok := reviewTables[subject.ReviewKind()]
	if !ok {
		return inspection.Decision{}, errors.Errorf("unknown review kind %q", subject.ReviewKind())
	}

	exe := repo.getExec(exec)
	var tx core.DBTransactor
	if len(exec) == 0 {
		var err error
		if tx, err = repo.db.BeginTxx(ctx, nil); err != nil {
			return inspection.Decision{}, errors.Wrap(err, "beginning transaction")
		}
		exe = tx
		defer func() { _ = tx.Rollback() }()
	}

	query := `
		UPDATE ` + table + `
		SET status = $2, reviewer_id = $3, feedback = $4, reviewed_at = $5, updated_at = $5, version = version + 1
		WHERE id = $1 AND status = $6 AND version = $7`
	res, err := exe.ExecContext(ctx, query,
		subject.ReviewID(), newStatus, dec.ReviewerID, dec.Feedback, dec.DecidedAt.UTC(),
		inspection.StatusPendingReview, subject.ReviewVersion())
	if err != nil {
		return inspection.Decision{}, errors.Wrap(err, "applying decision")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return inspection.Decision{}, inspection.ErrStaleObject
	}

	dec.ID = uuid.New().String()
	insert := `
		INSERT INTO review_decision (` + decisionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = exe.ExecContext(ctx, insert,
		dec.ID, dec.SubjectKind, dec.SubjectID, dec.ReviewerID, dec.Decision, dec.Feedback, dec.DecidedAt.UTC())
	if err != nil {
		return inspection.Decision{}, errors.Wrap(err, "recording decision")
	}

	if tx != nil {
		if err = tx.Commit(); err != nil {
			return inspection.Decision{}, errors.Wrap(err, "committing decision")
		}
	}
	return dec, nil
}

func (repo inspectionRepository) QueryDecisions(ctx context.Context, kind, subjectID string, exec ...core.DBExecutor) ([]inspection.Decision, error) {
	var rows []decisionRow
	query := `
		SELECT ` + decisionColumns + ` FROM review_decision
		WHERE subject_kind = $1 AND subject_id = $2
		ORDER BY decided_at ASC`
	if err := repo.getExec(exec).SelectContext(ctx, &rows, query, kind, subjectID); err != nil {
		return nil, errors.Wrap(err, "querying decisions")
	}
	decisions := make([]inspection.Decision, 0, len(rows))
	for _, row := range rows {
		decisions = append(decisions, inspection.Decision(row))
	}
	return decisions, nil
}

// monthly reports

func (repo inspectionRepository) rowMonthly(m inspection.MonthlyReport) (monthlyRow, error) {
	stats, err := json.Marshal(m.Stats)
	if err != nil {
		return monthlyRow{}, errors.Wrap(err, "marshalling stats")
	}
	return monthlyRow{
		ID:              m.ID,
		InspectorID:     m.InspectorID,
		Year:            m.Year,
		Month:           m.Month,
		Stats:           null.JSONFrom(stats),
		AggregateRating: null.NewFloat64(m.AggregateRating, m.AggregateRating != 0),
		RecurringIssues: m.RecurringIssues,
		PositiveTrends:  m.PositiveTrends,
		Recommendations: m.Recommendations,
		Challenges:      m.Challenges,
		Status:          m.Status,
		ReviewerID:      null.NewString(m.ReviewerID, m.ReviewerID != ""),
		Feedback:        m.Feedback,
		ReviewedAt:      null.NewTime(m.ReviewedAt.UTC(), !m.ReviewedAt.IsZero()),
		Version:         m.Version,
		CreatedAt:       m.CreatedAt.UTC(),
		SubmittedAt:     null.NewTime(m.SubmittedAt.UTC(), !m.SubmittedAt.IsZero()),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}, nil
}

func (repo inspectionRepository) unrowMonthly(row monthlyRow) (inspection.MonthlyReport, error) {
	m := inspection.MonthlyReport{
		ID:              row.ID,
		InspectorID:     row.InspectorID,
		Year:            row.Year,
		Month:           row.Month,
		AggregateRating: row.AggregateRating.Float64,
		RecurringIssues: row.RecurringIssues,
		PositiveTrends:  row.PositiveTrends,
		Recommendations: row.Recommendations,
		Challenges:      row.Challenges,
		Status:          row.Status,
		ReviewerID:      row.ReviewerID.String,
		Feedback:        row.Feedback,
		ReviewedAt:      row.ReviewedAt.Time,
		Version:         row.Version,
		CreatedAt:       row.CreatedAt,
		SubmittedAt:     row.SubmittedAt.Time,
		UpdatedAt:       row.UpdatedAt,
	}
	if row.Stats.Valid {
		if err := json.Unmarshal(row.Stats.JSON, &m.Stats); err != nil {
			return inspection.MonthlyReport{}, errors.Wrap(err, "unmarshalling stats")
		}
	}
	return m, nil
}

func (repo inspectionRepository) CreateMonthlyReport(ctx context.Context, m inspection.MonthlyReport, exec ...core.DBExecutor) (inspection.MonthlyReport, error) {
	m.ID = uuid.New().String()
	row, err := repo.rowMonthly(m)
	if err != nil {
		return inspection.MonthlyReport{}, err
	}
	query := `
		INSERT INTO monthly_report (` + monthlyColumns + `)
		VALUES (:id, :inspector_id, :year, :month, :stats, :aggregate_rating, :recurring_issues,
			:positive_trends, :recommendations, :challenges_faced, :status, :reviewer_id, :feedback,
			:reviewed_at, :version, :created_at, :submitted_at, :updated_at)`
	if _, err = sqlxNamedExec(ctx, repo.getExec(exec), query, row); err != nil {
		if isUniqueViolation(err) {
			return inspection.MonthlyReport{}, inspection.ErrMonthlyReportExists
		}
		return inspection.MonthlyReport{}, errors.Wrap(err, "inserting monthly report")
	}
	return m, nil
}

func (repo inspectionRepository) GetMonthlyReport(ctx context.Context, id string, exec ...core.DBExecutor) (inspection.MonthlyReport, error) {
	if _, err := uuid.Parse(id); err != nil {
		return inspection.MonthlyReport{}, inspection.ErrNotFound
	}
	var row monthlyRow
	query := `SELECT ` + monthlyColumns + ` FROM monthly_report WHERE id = $1`
	if err := repo.getExec(exec).GetContext(ctx, &row, query, id); err != nil {
		return inspection.MonthlyReport{}, repo.trapNoRowsErr(err, "finding monthly report")
	}
	return repo.unrowMonthly(row)
}

func (repo inspectionRepository) GetMonthlyReportByPeriod(ctx context.Context, inspectorID string, year, month int, exec ...core.DBExecutor) (inspection.MonthlyReport, error) {
	var row monthlyRow
	query := `SELECT ` + monthlyColumns + ` FROM monthly_report WHERE inspector_id = $1 AND year = $2 AND month = $3`
	if err := repo.getExec(exec).GetContext(ctx, &row, query, inspectorID, year, month); err != nil {
		return inspection.MonthlyReport{}, repo.trapNoRowsErr(err, "finding monthly report by period")
	}
	return repo.unrowMonthly(row)
}

func (repo inspectionRepository) QueryMonthlyReports(ctx context.Context, filter *inspection.MonthlyFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]inspection.MonthlyReport, error) {
	query := `SELECT ` + monthlyColumns + ` FROM monthly_report`
	var conds []string
	var args []interface{}

	if filter != nil {
		if filter.InspectorID != "" {
			conds = append(conds, `inspector_id = ?`)
			args = append(args, filter.InspectorID)
		}
		if filter.Status != "" {
			conds = append(conds, `status = ?`)
			args = append(args, filter.Status)
		}
		if filter.Year != 0 {
			conds = append(conds, `year = ?`)
			args = append(args, filter.Year)
		}
	}

	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += orderBy(ordering)

	exe := repo.getExec(exec)
	var rows []monthlyRow
	if err := exe.SelectContext(ctx, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying monthly reports")
	}
	reports := make([]inspection.MonthlyReport, 0, len(rows))
	for _, row := range rows {
		m, err := repo.unrowMonthly(row)
		if err != nil {
			return nil, err
		}
		reports = append(reports, m)
	}
	return reports, nil
}

func (repo inspectionRepository) UpdateMonthlyReport(ctx context.Context, m inspection.MonthlyReport, expectedVersion int, exec ...core.DBExecutor) (inspection.MonthlyReport, error) {
	row, err := repo.rowMonthly(m)
	if err != nil {
		return inspection.MonthlyReport{}, err
	}
	query := `
		UPDATE monthly_report
		SET stats = :stats, aggregate_rating = :aggregate_rating, recurring_issues = :recurring_issues,
			positive_trends = :positive_trends, recommendations = :recommendations, challenges_faced = :challenges_faced,
			status = :status, version = :version, submitted_at = :submitted_at, updated_at = :updated_at
		WHERE id = :id AND version = :expected_version`
	arg := struct {
		monthlyRow
		ExpectedVersion int `db:"expected_version"`
	}{row, expectedVersion}

	res, err := sqlxNamedExec(ctx, repo.getExec(exec), query, arg)
	if err != nil {
		return inspection.MonthlyReport{}, errors.Wrap(err, "updating monthly report")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return inspection.MonthlyReport{}, inspection.ErrStaleObject
	}
	return m, nil
}
