package department

import (
	"github.com/dwiprasetya/gatepass-management/internal"
)

const maxDepartmentNameLength = 80

type CreateDepartmentDTO struct {
	Name string `json:"name"`
}

func (dto CreateDepartmentDTO) Validate() error {
	return validateName(dto.Name)
}

type RenameDepartmentDTO struct {
	Name string `json:"name"`
}

func (dto RenameDepartmentDTO) Validate() error {
	return validateName(dto.Name)
}

type AssignHeadDTO struct {
	ActorID int64 `json:"actor_id"`
}

func (dto AssignHeadDTO) Validate() error {
	if dto.ActorID <= 0 {
		return internal.NewValidationFieldError("actor_id", "actor_id is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return internal.NewValidationFieldError("name", "department name is required", internal.ErrCodeValidationFailed)
	}
	if len(name) > maxDepartmentNameLength {
		return internal.NewValidationFieldError("name", "department name is too long", internal.ErrCodeValidationFailed)
	}
	return nil
}
