package actor

import (
	"strings"

	"github.com/dwiprasetya/gatepass-management/internal"
	"github.com/dwiprasetya/gatepass-management/internal/auth"
)

const minPasswordLength = 8

type CreateActorDTO struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	Role       string  `json:"role"`
	Department *string `json:"department,omitempty"`
}

func (dto CreateActorDTO) Validate() error {
	if dto.Name == "" {
		return internal.NewValidationFieldError("name", "name is required", internal.ErrCodeValidationFailed)
	}
	if dto.Email == "" || !strings.Contains(dto.Email, "@") {
		return internal.NewValidationFieldError("email", "a valid email is required", internal.ErrCodeValidationFailed)
	}
	if len(dto.Password) < minPasswordLength {
		return internal.NewValidationFieldError("password", "password must be at least 8 characters", internal.ErrCodeValidationFailed)
	}
	if !ValidRole(dto.Role) {
		return internal.NewValidationFieldError("role", "unknown role", internal.ErrCodeValidationFailed)
	}
	return dto.validateRoleDepartment()
}

// Department heads must carry a department; nobody else may.
func (dto CreateActorDTO) validateRoleDepartment() error {
	hasDepartment := dto.Department != nil && *dto.Department != ""
	if dto.Role == auth.RoleDepartmentHead && !hasDepartment {
		return internal.NewValidationFieldError("department", "department is required for department heads", internal.ErrCodeRoleDepartment)
	}
	if dto.Role != auth.RoleDepartmentHead && hasDepartment {
		return internal.ErrRoleDepartment
	}
	return nil
}

// UpdateActorDTO carries partial profile updates; nil means unchanged.
// Department is validated against the actor's role in the service since
// roles are immutable after creation.
type UpdateActorDTO struct {
	Name       *string `json:"name,omitempty"`
	Email      *string `json:"email,omitempty"`
	Password   *string `json:"password,omitempty"`
	Department *string `json:"department,omitempty"`
}

func (dto UpdateActorDTO) Validate() error {
	if dto.Name != nil && *dto.Name == "" {
		return internal.NewValidationFieldError("name", "name cannot be empty", internal.ErrCodeValidationFailed)
	}
	if dto.Email != nil && !strings.Contains(*dto.Email, "@") {
		return internal.NewValidationFieldError("email", "a valid email is required", internal.ErrCodeValidationFailed)
	}
	if dto.Password != nil && len(*dto.Password) < minPasswordLength {
		return internal.NewValidationFieldError("password", "password must be at least 8 characters", internal.ErrCodeValidationFailed)
	}
	return nil
}
