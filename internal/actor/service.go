package actor

import (
	"log/slog"
	"time"

	"github.com/dwiprasetya/gatepass-management/internal"
)

// Repository defines the data access methods for directory accounts.
type Repository interface {
	Create(a *Actor) error
	GetByID(id int64) (*Actor, error)
	GetByEmail(email string) (*Actor, error)
	List(limit, offset int) ([]*Actor, error)
	Update(a *Actor) error
	Deactivate(id int64, now time.Time) error
}

// PasswordHasher is satisfied by the auth service.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

// GatePassCounter reports in-flight passes for a department; a head
// with live workflow cannot be deactivated.
type GatePassCounter interface {
	CountPendingForDepartment(department string) (int64, error)
}

// DepartmentRegistry releases head links so departments never point at
// deactivated accounts.
type DepartmentRegistry interface {
	ReleaseHeadFor(actorID int64, now time.Time) error
}

type Service struct {
	repo        Repository
	hasher      PasswordHasher
	gatePasses  GatePassCounter
	departments DepartmentRegistry
	logger      *slog.Logger
}

func NewService(repo Repository, hasher PasswordHasher, gatePasses GatePassCounter, departments DepartmentRegistry, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		hasher:      hasher,
		gatePasses:  gatePasses,
		departments: departments,
		logger:      logger,
	}
}

// CreateActor registers a new directory account.
func (s *Service) CreateActor(dto CreateActorDTO) (*Actor, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.HashPassword(dto.Password)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	now := time.Now()
	a := &Actor{
		Name:         dto.Name,
		Email:        dto.Email,
		PasswordHash: hash,
		Role:         dto.Role,
		Department:   dto.Department,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(a); err != nil {
		s.logger.Error("failed to create actor", "error", err, "email", dto.Email)
		return nil, err
	}

	s.logger.Info("actor created", "actor_id", a.ID, "role", a.Role)

	return a, nil
}

func (s *Service) GetActor(id int64) (*Actor, error) {
	return s.repo.GetByID(id)
}

func (s *Service) ListActors(limit, offset int) ([]*Actor, error) {
	return s.repo.List(limit, offset)
}

// UpdateActor changes profile fields; role changes are not supported,
// accounts are replaced instead.
func (s *Service) UpdateActor(id int64, dto UpdateActorDTO) (*Actor, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	a, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		a.Name = *dto.Name
	}
	if dto.Email != nil {
		a.Email = *dto.Email
	}
	if dto.Password != nil {
		hash, err := s.hasher.HashPassword(*dto.Password)
		if err != nil {
			return nil, internal.NewInternalError("failed to hash password", err)
		}
		a.PasswordHash = hash
	}
	if dto.Department != nil {
		if *dto.Department == "" {
			if a.IsDepartmentHead() {
				return nil, internal.NewValidationFieldError("department", "department is required for department heads", internal.ErrCodeRoleDepartment)
			}
			a.Department = nil
		} else {
			if !a.IsDepartmentHead() {
				return nil, internal.ErrRoleDepartment
			}
			a.Department = dto.Department
		}
	}
	a.UpdatedAt = time.Now()

	if err := s.repo.Update(a); err != nil {
		s.logger.Error("failed to update actor", "error", err, "actor_id", id)
		return nil, err
	}

	s.logger.Info("actor updated", "actor_id", id)

	return a, nil
}

// DeactivateActor soft-deletes an account. A department head whose
// department still has passes in flight stays until they are settled.
func (s *Service) DeactivateActor(id int64) error {
	a, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}

	if a.IsDepartmentHead() && a.Department != nil && *a.Department != "" {
		pending, err := s.gatePasses.CountPendingForDepartment(*a.Department)
		if err != nil {
			s.logger.Error("failed to count pending passes", "error", err, "department", *a.Department)
			return internal.NewInternalError("failed to check pending gate passes", err)
		}
		if pending > 0 {
			s.logger.Warn("deactivation blocked by pending passes",
				"actor_id", id,
				"department", *a.Department,
				"pending", pending)
			return internal.ErrHasDependents
		}
	}

	now := time.Now()
	if err := s.repo.Deactivate(id, now); err != nil {
		s.logger.Error("failed to deactivate actor", "error", err, "actor_id", id)
		return err
	}

	// A department must never point at a dead account.
	if a.IsDepartmentHead() {
		if err := s.departments.ReleaseHeadFor(id, now); err != nil {
			s.logger.Error("failed to release department head link", "error", err, "actor_id", id)
			return internal.NewInternalError("failed to release department head link", err)
		}
	}

	s.logger.Info("actor deactivated", "actor_id", id)

	return nil
}

// GetNameByID implements the gatepass.ActorDirectory lookup used by
// the public viewer.
func (s *Service) GetNameByID(actorID int64) (string, error) {
	a, err := s.repo.GetByID(actorID)
	if err != nil {
		return "", err
	}
	return a.Name, nil
}
