package school

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ukaguzi/core"
	"github.com/trezcool/ukaguzi/core/user"
)

var (
	// errors
	ErrNotFound         = errors.New("not found")
	ErrAssignmentExists = errors.New("this inspector is already assigned to this region")
)

type (
	Repository interface {
		CreateRegion(ctx context.Context, reg Region, exec ...core.DBExecutor) (Region, error)
		GetRegion(ctx context.Context, id string, exec ...core.DBExecutor) (Region, error)
		QueryRegions(ctx context.Context, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Region, error)
		QueryRegionsByInspector(ctx context.Context, inspectorID string, exec ...core.DBExecutor) ([]Region, error)
		GetSchool(ctx context.Context, id string, exec ...core.DBExecutor) (School, error)
		CreateAssignment(ctx context.Context, asg Assignment, exec ...core.DBExecutor) (Assignment, error)
		GetAssignment(ctx context.Context, id string, exec ...core.DBExecutor) (Assignment, error)
		UpdateAssignment(ctx context.Context, asg Assignment, exec ...core.DBExecutor) (Assignment, error)
		// HasActiveAssignment reports whether an active assignment links the
		// inspector to the region.
		HasActiveAssignment(ctx context.Context, inspectorID, regionID string, exec ...core.DBExecutor) (bool, error)
	}

	Service interface {
		CreateRegion(ctx context.Context, actor user.User, nr NewRegion) (Region, error)
		QueryRegions(ctx context.Context, actor user.User) ([]Region, error)
		GetSchool(ctx context.Context, id string) (School, error)
		Assign(ctx context.Context, actor user.User, na NewAssignment) (Assignment, error)
		DeactivateAssignment(ctx context.Context, actor user.User, id string) (Assignment, error)
		// CanInspect reports whether the inspector has an active region
		// assignment covering the given school.
		CanInspect(ctx context.Context, inspector user.User, schoolID string) (bool, error)
	}

	service struct {
		repo   Repository
		usrSvc user.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrSvc user.Service) Service {
	return &service{
		repo:   repo,
		usrSvc: usrSvc,
	}
}

func (svc *service) CreateRegion(ctx context.Context, actor user.User, nr NewRegion) (Region, error) {
	if !actor.IsAdmin() {
		return Region{}, core.NewAuthorizationError("only admin can manage regions")
	}
	reg := Region{
		Name:        nr.Name,
		Code:        nr.Code,
		Governorate: nr.Governorate,
		Description: nr.Description,
		CreatedAt:   time.Now().UTC(),
	}
	reg.SetActive(true)
	return svc.repo.CreateRegion(ctx, reg)
}

// QueryRegions returns all active regions for GPI/admin callers; inspectors
// only see the regions they are assigned to.
func (svc *service) QueryRegions(ctx context.Context, actor user.User) ([]Region, error) {
	if actor.IsGPI() || actor.IsAdmin() {
		return svc.repo.QueryRegions(ctx, []core.DBOrdering{{Field: "code", Ascending: true}})
	}
	if actor.IsInspector() {
		return svc.repo.QueryRegionsByInspector(ctx, actor.ID)
	}
	return nil, core.NewAuthorizationError("permission denied")
}

func (svc *service) GetSchool(ctx context.Context, id string) (School, error) {
	return svc.repo.GetSchool(ctx, id)
}

func (svc *service) Assign(ctx context.Context, actor user.User, na NewAssignment) (Assignment, error) {
	if !(actor.IsGPI() || actor.IsAdmin()) {
		return Assignment{}, core.NewAuthorizationError("only GPI can assign inspectors")
	}

	inspector, err := svc.usrSvc.GetByID(ctx, na.InspectorID)
	if err != nil {
		return Assignment{}, errors.Wrap(err, "finding inspector")
	}
	if !inspector.IsInspector() {
		return Assignment{}, core.NewValidationError(nil,
			core.FieldError{Field: "inspector_id", Error: "user is not an inspector"})
	}
	if _, err = svc.repo.GetRegion(ctx, na.RegionID); err != nil {
		return Assignment{}, errors.Wrap(err, "finding region")
	}

	asg := Assignment{
		InspectorID:  na.InspectorID,
		RegionID:     na.RegionID,
		AssignedByID: actor.ID,
		Notes:        na.Notes,
		AssignedAt:   time.Now().UTC(),
	}
	asg.SetActive(true)

	asg, err = svc.repo.CreateAssignment(ctx, asg)
	if err != nil {
		if errors.Cause(err) == ErrAssignmentExists {
			return Assignment{}, core.NewValidationError(err)
		}
		return Assignment{}, err
	}
	return asg, nil
}

func (svc *service) DeactivateAssignment(ctx context.Context, actor user.User, id string) (Assignment, error) {
	if !(actor.IsGPI() || actor.IsAdmin()) {
		return Assignment{}, core.NewAuthorizationError("only GPI can manage assignments")
	}
	asg, err := svc.repo.GetAssignment(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	asg.SetActive(false)
	return svc.repo.UpdateAssignment(ctx, asg)
}

func (svc *service) CanInspect(ctx context.Context, inspector user.User, schoolID string) (bool, error) {
	if !inspector.IsInspector() {
		return false, nil
	}
	sch, err := svc.repo.GetSchool(ctx, schoolID)
	if err != nil {
		return false, errors.Wrap(err, "finding school")
	}
	return svc.repo.HasActiveAssignment(ctx, inspector.ID, sch.RegionID)
}
