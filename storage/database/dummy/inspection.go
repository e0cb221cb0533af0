package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/ukaguzi/core"
	"github.com/trezcool/ukaguzi/core/inspection"
)

type inspectionRepository struct {
	db *DB
}

var _ inspection.Repository = (*inspectionRepository)(nil) // interface compliance check

func NewInspectionRepository(db *DB) inspection.Repository {
	return &inspectionRepository{db: db}
}

// visits

func (repo *inspectionRepository) CreateVisit(ctx context.Context, v inspection.Visit, exec ...core.DBExecutor) (inspection.Visit, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	v.ID = uuid.New().String()
	repo.db.visits[v.ID] = &v
	return v, nil
}

func (repo *inspectionRepository) GetVisit(ctx context.Context, id string, exec ...core.DBExecutor) (inspection.Visit, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if v, ok := repo.db.visits[id]; ok {
		return *v, nil
	}
	return inspection.Visit{}, inspection.ErrNotFound
}

func (repo *inspectionRepository) QueryVisits(ctx context.Context, filter *inspection.VisitFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]inspection.Visit, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var visits []inspection.Visit
	for _, v := range repo.db.visits {
		if filter != nil {
			if filter.InspectorID != "" && v.InspectorID != filter.InspectorID {
				continue
			}
			if filter.TeacherID != "" && v.TeacherID != filter.TeacherID {
				continue
			}
			if filter.Status != "" && v.Status != filter.Status {
				continue
			}
			if !filter.From.IsZero() && v.ScheduledAt.Before(filter.From) {
				continue
			}
			if !filter.To.IsZero() && !v.ScheduledAt.Before(filter.To) {
				continue
			}
		}
		visits = append(visits, *v)
	}
	sort.Slice(visits, func(i, j int) bool { return visits[i].ScheduledAt.Before(visits[j].ScheduledAt) })
	return visits, nil
}

func (repo *inspectionRepository) UpdateVisit(ctx context.Context, v inspection.Visit, fromStatus string, exec ...core.DBExecutor) (inspection.Visit, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	stored, ok := repo.db.visits[v.ID]
	if !ok {
		return inspection.Visit{}, inspection.ErrNotFound
	}
	if stored.Status != fromStatus {
		return inspection.Visit{}, inspection.ErrStaleObject
	}
	repo.db.visits[v.ID] = &v
	return v, nil
}

// reports

func (repo *inspectionRepository) CreateReport(ctx context.Context, r inspection.Report, exec ...core.DBExecutor) (inspection.Report, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, existing := range repo.db.reports {
		if existing.VisitID == r.VisitID {
			return inspection.Report{}, inspection.ErrReportExists
		}
	}

	r.ID = uuid.New().String()
	repo.db.reports[r.ID] = &r
	return r, nil
}

func (repo *inspectionRepository) GetReport(ctx context.Context, id string, exec ...core.DBExecutor) (inspection.Report, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if r, ok := repo.db.reports[id]; ok {
		return *r, nil
	}
	return inspection.Report{}, inspection.ErrNotFound
}

func (repo *inspectionRepository) GetReportByVisit(ctx context.Context, visitID string, exec ...core.DBExecutor) (inspection.Report, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, r := range repo.db.reports {
		if r.VisitID == visitID {
			return *r, nil
		}
	}
	return inspection.Report{}, inspection.ErrNotFound
}

func (repo *inspectionRepository) QueryReports(ctx context.Context, filter *inspection.ReportFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]inspection.Report, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var reports []inspection.Report
	for _, r := range repo.db.reports {
		if filter != nil {
			if filter.InspectorID != "" && r.InspectorID != filter.InspectorID {
				continue
			}
			if filter.TeacherID != "" && r.TeacherID != filter.TeacherID {
				continue
			}
			if filter.Status != "" && r.Status != filter.Status {
				continue
			}
			// Month narrows a Year filter; alone it has no effect.
			if filter.Year != 0 {
				if r.SubmittedAt.Year() != filter.Year {
					continue
				}
				if filter.Month != 0 && int(r.SubmittedAt.Month()) != filter.Month {
					continue
				}
			}
		}
		reports = append(reports, *r)
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].SubmittedAt.After(reports[j].SubmittedAt) })
	return reports, nil
}

func (repo *inspectionRepository) UpdateReport(ctx context.Context, r inspection.Report, expectedVersion int, exec ...core.DBExecutor) (inspection.Report, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	stored, ok := repo.db.reports[r.ID]
	if !ok {
		return inspection.Report{}, inspection.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return inspection.Report{}, inspection.ErrStaleObject
	}
	repo.db.reports[r.ID] = &r
	return r, nil
}

// review decisions

func (repo *inspectionRepository) RecordDecision(ctx context.Context, subject inspection.Reviewable, newStatus string, dec inspection.Decision, exec ...core.DBExecutor) (inspection.Decision, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	ts := dec.DecidedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	switch subject.ReviewKind() {
	case inspection.KindReport:
		stored, ok := repo.db.reports[subject.ReviewID()]
		if !ok {
			return inspection.Decision{}, inspection.ErrNotFound
		}
		if stored.Status != inspection.StatusPendingReview || stored.Version != subject.ReviewVersion() {
			return inspection.Decision{}, inspection.ErrStaleObject
		}
		stored.Status = newStatus
		stored.ReviewerID = dec.ReviewerID
		stored.Feedback = dec.Feedback
		stored.ReviewedAt = ts
		stored.UpdatedAt = ts
		stored.Version++
	case inspection.KindMonthlyReport:
		stored, ok := repo.db.monthlies[subject.ReviewID()]
		if !ok {
			return inspection.Decision{}, inspection.ErrNotFound
		}
		if stored.Status != inspection.StatusPendingReview || stored.Version != subject.ReviewVersion() {
			return inspection.Decision{}, inspection.ErrStaleObject
		}
		stored.Status = newStatus
		stored.ReviewerID = dec.ReviewerID
		stored.Feedback = dec.Feedback
		stored.ReviewedAt = ts
		stored.UpdatedAt = ts
		stored.Version++
	default:
		return inspection.Decision{}, inspection.ErrNotFound
	}

	dec.ID = uuid.New().String()
	repo.db.decisions = append(repo.db.decisions, dec)
	return dec, nil
}

func (repo *inspectionRepository) QueryDecisions(ctx context.Context, kind, subjectID string, exec ...core.DBExecutor) ([]inspection.Decision, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var decisions []inspection.Decision
	for _, dec := range repo.db.decisions {
		if dec.SubjectKind == kind && dec.SubjectID == subjectID {
			decisions = append(decisions, dec)
		}
	}
	return decisions, nil
}

// monthly reports

func (repo *inspectionRepository) CreateMonthlyReport(ctx context.Context, m inspection.MonthlyReport, exec ...core.DBExecutor) (inspection.MonthlyReport, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, existing := range repo.db.monthlies {
		if existing.InspectorID == m.InspectorID && existing.Year == m.Year && existing.Month == m.Month {
			return inspection.MonthlyReport{}, inspection.ErrMonthlyReportExists
		}
	}

	m.ID = uuid.New().String()
	repo.db.monthlies[m.ID] = &m
	return m, nil
}

func (repo *inspectionRepository) GetMonthlyReport(ctx context.Context, id string, exec ...core.DBExecutor) (inspection.MonthlyReport, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if m, ok := repo.db.monthlies[id]; ok {
		return *m, nil
	}
	return inspection.MonthlyReport{}, inspection.ErrNotFound
}

func (repo *inspectionRepository) GetMonthlyReportByPeriod(ctx context.Context, inspectorID string, year, month int, exec ...core.DBExecutor) (inspection.MonthlyReport, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, m := range repo.db.monthlies {
		if m.InspectorID == inspectorID && m.Year == year && m.Month == month {
			return *m, nil
		}
	}
	return inspection.MonthlyReport{}, inspection.ErrNotFound
}

func (repo *inspectionRepository) QueryMonthlyReports(ctx context.Context, filter *inspection.MonthlyFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]inspection.MonthlyReport, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var reports []inspection.MonthlyReport
	for _, m := range repo.db.monthlies {
		if filter != nil {
			if filter.InspectorID != "" && m.InspectorID != filter.InspectorID {
				continue
			}
			if filter.Status != "" && m.Status != filter.Status {
				continue
			}
			if filter.Year != 0 && m.Year != filter.Year {
				continue
			}
		}
		reports = append(reports, *m)
	}
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].Year != reports[j].Year {
			return reports[i].Year > reports[j].Year
		}
		return reports[i].Month > reports[j].Month
	})
	return reports, nil
}

func (repo *inspectionRepository) UpdateMonthlyReport(ctx context.Context, m inspection.MonthlyReport, expectedVersion int, exec ...core.DBExecutor) (inspection.MonthlyReport, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	stored, ok := repo.db.monthlies[m.ID]
	if !ok {
		return inspection.MonthlyReport{}, inspection.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return inspection.MonthlyReport{}, inspection.ErrStaleObject
	}
	repo.db.monthlies[m.ID] = &m
	return m, nil
}
