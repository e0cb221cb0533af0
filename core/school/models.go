package school

import (
	"time"

	"github.com/trezcool/ukaguzi/core"
)

type Region struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"` // eg. TUN-01
	Governorate string    `json:"governorate,omitempty"`
	Description string    `json:"description,omitempty"`
	IsActive    *bool     `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

func (r *Region) SetActive(active bool) {
	r.IsActive = &active
}

type School struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	RegionID  string    `json:"region_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// Assignment links an inspector to a Region. An inspector acts on a teacher
// only if some active assignment covers the teacher's school's region.
type Assignment struct {
	ID           string    `json:"id"`
	InspectorID  string    `json:"inspector_id"`
	RegionID     string    `json:"region_id"`
	AssignedByID string    `json:"assigned_by_id,omitempty"`
	IsActive     *bool     `json:"is_active"`
	Notes        string    `json:"notes,omitempty"`
	AssignedAt   time.Time `json:"assigned_at"` // UTC
}

func (a *Assignment) SetActive(active bool) {
	a.IsActive = &active
}

// NewRegion contains information needed to create a new Region.
type NewRegion struct {
	Name        string `json:"name" validate:"required"`
	Code        string `json:"code" validate:"required"`
	Governorate string `json:"governorate"`
	Description string `json:"description"`
}

func (nr *NewRegion) Validate() error {
	nr.Name = core.CleanString(nr.Name)
	nr.Code = core.CleanString(nr.Code, true /* lower */)
	return core.Validate.Struct(nr)
}

// NewAssignment contains information needed to assign an inspector to a Region.
type NewAssignment struct {
	InspectorID string `json:"inspector_id" validate:"required"`
	RegionID    string `json:"region_id" validate:"required"`
	Notes       string `json:"notes"`
}

func (na *NewAssignment) Validate() error {
	na.Notes = core.CleanString(na.Notes)
	return core.Validate.Struct(na)
}
