package actor

import (
	"time"

	actorDatamodel "github.com/dwiprasetya/gatepass-management/internal/core/datamodel/actor"
	"github.com/dwiprasetya/gatepass-management/internal/auth"
)

// Actor is a directory account: approvers, gate attendants and
// students. Department is only meaningful for department heads.
type Actor struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Department   *string   `json:"department,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func ValidRole(role string) bool {
	switch role {
	case auth.RoleDepartmentHead, auth.RoleInstitutionHead, auth.RoleGateAttendant, auth.RoleStudent:
		return true
	}
	return false
}

func (a *Actor) IsDepartmentHead() bool {
	return a.Role == auth.RoleDepartmentHead
}

func ToDataModel(a *Actor) *actorDatamodel.Actor {
	return &actorDatamodel.Actor{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		Role:         a.Role,
		Department:   a.Department,
		IsActive:     a.IsActive,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func FromDataModel(a *actorDatamodel.Actor) *Actor {
	return &Actor{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		Role:         a.Role,
		Department:   a.Department,
		IsActive:     a.IsActive,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func FromDataModelSlice(actors []*actorDatamodel.Actor) []*Actor {
	result := make([]*Actor, len(actors))
	for i, a := range actors {
		result[i] = FromDataModel(a)
	}
	return result
}
