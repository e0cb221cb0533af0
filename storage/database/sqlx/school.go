package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ukaguzi/core"
	"github.com/trezcool/ukaguzi/core/school"
)

type (
	schoolRepository struct {
		exec core.DBExecutor
	}

	regionRow struct {
		ID          string    `db:"id"`
		Name        string    `db:"name"`
		Code        string    `db:"code"`
		Governorate string    `db:"governorate"`
		Description string    `db:"description"`
		IsActive    null.Bool `db:"is_active"`
		CreatedAt   null.Time `db:"created_at"`
	}

	schoolRow struct {
		ID        string    `db:"id"`
		Name      string    `db:"name"`
		RegionID  string    `db:"region_id"`
		CreatedAt null.Time `db:"created_at"`
	}

	assignmentRow struct {
		ID           string      `db:"id"`
		InspectorID  string      `db:"inspector_id"`
		RegionID     string      `db:"region_id"`
		AssignedByID null.String `db:"assigned_by_id"`
		IsActive     null.Bool   `db:"is_active"`
		Notes        string      `db:"notes"`
		AssignedAt   null.Time   `db:"assigned_at"`
	}
)

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(exec core.DBExecutor) school.Repository {
	return &schoolRepository{exec: exec}
}

const (
	regionColumns     = `id, name, code, governorate, description, is_active, created_at`
	assignmentColumns = `id, inspector_id, region_id, assigned_by_id, is_active, notes, assigned_at`
)

func (repo schoolRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo schoolRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return school.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo schoolRepository) unrowRegion(row regionRow) school.Region {
	return school.Region{
		ID:          row.ID,
		Name:        row.Name,
		Code:        row.Code,
		Governorate: row.Governorate,
		Description: row.Description,
		IsActive:    row.IsActive.Ptr(),
		CreatedAt:   row.CreatedAt.Time,
	}
}

func (repo schoolRepository) unrowAssignment(row assignmentRow) school.Assignment {
	return school.Assignment{
		ID:           row.ID,
		InspectorID:  row.InspectorID,
		RegionID:     row.RegionID,
		AssignedByID: row.AssignedByID.String,
		IsActive:     row.IsActive.Ptr(),
		Notes:        row.Notes,
		AssignedAt:   row.AssignedAt.Time,
	}
}

func (repo schoolRepository) CreateRegion(ctx context.Context, reg school.Region, exec ...core.DBExecutor) (school.Region, error) {
	reg.ID = uuid.New().String()
	query := `
		INSERT INTO region (` + regionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.getExec(exec).ExecContext(ctx, query,
		reg.ID, reg.Name, reg.Code, reg.Governorate, reg.Description, null.BoolFromPtr(reg.IsActive), reg.CreatedAt.UTC())
	if err != nil {
		return school.Region{}, errors.Wrap(err, "inserting region")
	}
	return reg, nil
}

func (repo schoolRepository) GetRegion(ctx context.Context, id string, exec ...core.DBExecutor) (school.Region, error) {
	if _, err := uuid.Parse(id); err != nil {
		return school.Region{}, school.ErrNotFound
	}
	var row regionRow
	query := `SELECT ` + regionColumns + ` FROM region WHERE id = $1`
	if err := repo.getExec(exec).GetContext(ctx, &row, query, id); err != nil {
		return school.Region{}, repo.trapNoRowsErr(err, "finding region")
	}
	return repo.unrowRegion(row), nil
}

func (repo schoolRepository) QueryRegions(ctx context.Context, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]school.Region, error) {
	var rows []regionRow
	query := `SELECT ` + regionColumns + ` FROM region WHERE is_active` + orderBy(ordering)
	if err := repo.getExec(exec).SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying regions")
	}
	regions := make([]school.Region, 0, len(rows))
	for _, row := range rows {
		regions = append(regions, repo.unrowRegion(row))
	}
	return regions, nil
}

func (repo schoolRepository) QueryRegionsByInspector(ctx context.Context, inspectorID string, exec ...core.DBExecutor) ([]school.Region, error) {
	var rows []regionRow
	query := `
		SELECT r.id, r.name, r.code, r.governorate, r.description, r.is_active, r.created_at
		FROM region r
		JOIN inspector_region_assignment a ON a.region_id = r.id
		WHERE a.inspector_id = $1 AND a.is_active AND r.is_active
		ORDER BY r.code ASC`
	if err := repo.getExec(exec).SelectContext(ctx, &rows, query, inspectorID); err != nil {
		return nil, errors.Wrap(err, "querying inspector regions")
	}
	regions := make([]school.Region, 0, len(rows))
	for _, row := range rows {
		regions = append(regions, repo.unrowRegion(row))
	}
	return regions, nil
}

func (repo schoolRepository) GetSchool(ctx context.Context, id string, exec ...core.DBExecutor) (school.School, error) {
	if _, err := uuid.Parse(id); err != nil {
		return school.School{}, school.ErrNotFound
	}
	var row schoolRow
	query := `SELECT id, name, region_id, created_at FROM school WHERE id = $1`
	if err := repo.getExec(exec).GetContext(ctx, &row, query, id); err != nil {
		return school.School{}, repo.trapNoRowsErr(err, "finding school")
	}
	return school.School{
		ID:        row.ID,
		Name:      row.Name,
		RegionID:  row.RegionID,
		CreatedAt: row.CreatedAt.Time,
	}, nil
}

func (repo schoolRepository) CreateAssignment(ctx context.Context, asg school.Assignment, exec ...core.DBExecutor) (school.Assignment, error) {
	asg.ID = uuid.New().String()
	query := `
		INSERT INTO inspector_region_assignment (` + assignmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.getExec(exec).ExecContext(ctx, query,
		asg.ID, asg.InspectorID, asg.RegionID, null.NewString(asg.AssignedByID, asg.AssignedByID != ""),
		null.BoolFromPtr(asg.IsActive), asg.Notes, asg.AssignedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return school.Assignment{}, school.ErrAssignmentExists
		}
		return school.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return asg, nil
}

func (repo schoolRepository) GetAssignment(ctx context.Context, id string, exec ...core.DBExecutor) (school.Assignment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return school.Assignment{}, school.ErrNotFound
	}
	var row assignmentRow
	query := `SELECT ` + assignmentColumns + ` FROM inspector_region_assignment WHERE id = $1`
	if err := repo.getExec(exec).GetContext(ctx, &row, query, id); err != nil {
		return school.Assignment{}, repo.trapNoRowsErr(err, "finding assignment")
	}
	return repo.unrowAssignment(row), nil
}

func (repo schoolRepository) UpdateAssignment(ctx context.Context, asg school.Assignment, exec ...core.DBExecutor) (school.Assignment, error) {
	query := `
		UPDATE inspector_region_assignment
		SET is_active = $2, notes = $3
		WHERE id = $1`
	res, err := repo.getExec(exec).ExecContext(ctx, query, asg.ID, null.BoolFromPtr(asg.IsActive), asg.Notes)
	if err != nil {
		return school.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return school.Assignment{}, school.ErrNotFound
	}
	return asg, nil
}

func (repo schoolRepository) HasActiveAssignment(ctx context.Context, inspectorID, regionID string, exec ...core.DBExecutor) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM inspector_region_assignment
			WHERE inspector_id = $1 AND region_id = $2 AND is_active
		)`
	if err := repo.getExec(exec).GetContext(ctx, &exists, query, inspectorID, regionID); err != nil {
		return false, errors.Wrap(err, "checking assignment")
	}
	return exists, nil
}
