package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/ukaguzi/core"
	"github.com/trezcool/ukaguzi/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CreateRegion(ctx context.Context, reg school.Region, exec ...core.DBExecutor) (school.Region, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	reg.ID = uuid.New().String()
	repo.db.regions[reg.ID] = &reg
	return reg, nil
}

func (repo *schoolRepository) GetRegion(ctx context.Context, id string, exec ...core.DBExecutor) (school.Region, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if reg, ok := repo.db.regions[id]; ok {
		return *reg, nil
	}
	return school.Region{}, school.ErrNotFound
}

func (repo *schoolRepository) QueryRegions(ctx context.Context, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]school.Region, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	regions := make([]school.Region, 0, len(repo.db.regions))
	for _, reg := range repo.db.regions {
		if reg.IsActive != nil && *reg.IsActive {
			regions = append(regions, *reg)
		}
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Code < regions[j].Code })
	return regions, nil
}

func (repo *schoolRepository) QueryRegionsByInspector(ctx context.Context, inspectorID string, exec ...core.DBExecutor) ([]school.Region, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var regions []school.Region
	for _, asg := range repo.db.assignments {
		if asg.InspectorID != inspectorID || asg.IsActive == nil || !*asg.IsActive {
			continue
		}
		if reg, ok := repo.db.regions[asg.RegionID]; ok {
			regions = append(regions, *reg)
		}
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Code < regions[j].Code })
	return regions, nil
}

func (repo *schoolRepository) GetSchool(ctx context.Context, id string, exec ...core.DBExecutor) (school.School, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if sch, ok := repo.db.schools[id]; ok {
		return *sch, nil
	}
	return school.School{}, school.ErrNotFound
}

func (repo *schoolRepository) CreateAssignment(ctx context.Context, asg school.Assignment, exec ...core.DBExecutor) (school.Assignment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, existing := range repo.db.assignments {
		if existing.InspectorID == asg.InspectorID && existing.RegionID == asg.RegionID {
			return school.Assignment{}, school.ErrAssignmentExists
		}
	}

	asg.ID = uuid.New().String()
	repo.db.assignments[asg.ID] = &asg
	return asg, nil
}

func (repo *schoolRepository) GetAssignment(ctx context.Context, id string, exec ...core.DBExecutor) (school.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if asg, ok := repo.db.assignments[id]; ok {
		return *asg, nil
	}
	return school.Assignment{}, school.ErrNotFound
}

func (repo *schoolRepository) UpdateAssignment(ctx context.Context, asg school.Assignment, exec ...core.DBExecutor) (school.Assignment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.assignments[asg.ID]; !ok {
		return school.Assignment{}, school.ErrNotFound
	}
	repo.db.assignments[asg.ID] = &asg
	return asg, nil
}

func (repo *schoolRepository) HasActiveAssignment(ctx context.Context, inspectorID, regionID string, exec ...core.DBExecutor) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, asg := range repo.db.assignments {
		if asg.InspectorID == inspectorID && asg.RegionID == regionID && asg.IsActive != nil && *asg.IsActive {
			return true, nil
		}
	}
	return false, nil
}
