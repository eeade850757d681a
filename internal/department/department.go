package department

import (
	"time"

	departmentDatamodel "github.com/dwiprasetya/gatepass-management/internal/core/datamodel/department"
)

// Department is an organizational unit that owns the first approval
// stage. Deletion is soft: inactive departments stop accepting new
// requests but their history stays queryable.
type Department struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	HeadActorID *int64    `json:"head_actor_id,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (d *Department) HasHead() bool {
	return d.HeadActorID != nil
}

func ToDataModel(d *Department) *departmentDatamodel.Department {
	return &departmentDatamodel.Department{
		ID:          d.ID,
		Name:        d.Name,
		HeadActorID: d.HeadActorID,
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func FromDataModel(d *departmentDatamodel.Department) *Department {
	return &Department{
		ID:          d.ID,
		Name:        d.Name,
		HeadActorID: d.HeadActorID,
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func FromDataModelSlice(departments []*departmentDatamodel.Department) []*Department {
	result := make([]*Department, len(departments))
	for i, d := range departments {
		result[i] = FromDataModel(d)
	}
	return result
}
