package department

import (
	"log/slog"
	"time"

	"github.com/dwiprasetya/gatepass-management/internal"
	"github.com/dwiprasetya/gatepass-management/internal/actor"
)

// Repository defines the data access methods for the registry.
type Repository interface {
	Create(d *Department) error
	GetByID(id int64) (*Department, error)
	GetByName(name string) (*Department, error)
	GetByHeadActorID(actorID int64) (*Department, error)
	List(includeInactive bool) ([]*Department, error)
	Update(d *Department) error
}

// ActorRegistry gives the registry access to head accounts: validation
// on assignment and department propagation on rename/revoke.
type ActorRegistry interface {
	GetByID(id int64) (*actor.Actor, error)
	SetDepartment(actorID int64, department *string, now time.Time) error
}

// GatePassRegistry covers the cross-cutting pass queries the registry
// needs: rename propagation and the pending-work guard on delete.
type GatePassRegistry interface {
	CountPendingForDepartment(department string) (int64, error)
	RenameDepartment(oldName, newName string, now time.Time) error
}

type Service struct {
	repo       Repository
	actors     ActorRegistry
	gatePasses GatePassRegistry
	logger     *slog.Logger
}

func NewService(repo Repository, actors ActorRegistry, gatePasses GatePassRegistry, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		actors:     actors,
		gatePasses: gatePasses,
		logger:     logger,
	}
}

func (s *Service) CreateDepartment(dto CreateDepartmentDTO) (*Department, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	d := &Department{
		Name:      dto.Name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(d); err != nil {
		s.logger.Error("failed to create department", "error", err, "name", dto.Name)
		return nil, err
	}

	s.logger.Info("department created", "department_id", d.ID, "name", d.Name)

	return d, nil
}

func (s *Service) GetDepartment(id int64) (*Department, error) {
	return s.repo.GetByID(id)
}

// ListDepartments returns active departments; the admin view may ask
// for soft-deleted ones too.
func (s *Service) ListDepartments(includeInactive bool) ([]*Department, error) {
	return s.repo.List(includeInactive)
}

// ExistsActive implements the gatepass.DepartmentDirectory check used
// on submission.
func (s *Service) ExistsActive(name string) (bool, error) {
	d, err := s.repo.GetByName(name)
	if err != nil {
		if err == internal.ErrDepartmentNotFound {
			return false, nil
		}
		return false, err
	}
	return d.IsActive, nil
}

// RenameDepartment renames the unit and propagates the new name to its
// historical gate passes and its head's account.
func (s *Service) RenameDepartment(id int64, dto RenameDepartmentDTO) (*Department, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	d, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if d.Name == dto.Name {
		return d, nil
	}

	oldName := d.Name
	now := time.Now()
	d.Name = dto.Name
	d.UpdatedAt = now

	if err := s.repo.Update(d); err != nil {
		s.logger.Error("failed to rename department", "error", err, "department_id", id)
		return nil, err
	}

	if err := s.gatePasses.RenameDepartment(oldName, dto.Name, now); err != nil {
		s.logger.Error("failed to propagate rename to gate passes",
			"error", err,
			"department_id", id,
			"old_name", oldName,
			"new_name", dto.Name)
		return nil, internal.NewInternalError("failed to propagate department rename", err)
	}

	if d.HeadActorID != nil {
		if err := s.actors.SetDepartment(*d.HeadActorID, &dto.Name, now); err != nil {
			s.logger.Error("failed to propagate rename to head actor",
				"error", err,
				"department_id", id,
				"head_actor_id", *d.HeadActorID)
			return nil, internal.NewInternalError("failed to propagate department rename", err)
		}
	}

	s.logger.Info("department renamed",
		"department_id", id,
		"old_name", oldName,
		"new_name", dto.Name)

	return d, nil
}

// AssignHead makes an actor the head of this department. An actor
// already heading another department is moved, not duplicated; a
// previous head of this department is released.
func (s *Service) AssignHead(id int64, dto AssignHeadDTO) (*Department, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	d, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	a, err := s.actors.GetByID(dto.ActorID)
	if err != nil {
		return nil, err
	}
	if !a.IsDepartmentHead() || !a.IsActive {
		return nil, internal.ErrActorNotEligible
	}

	now := time.Now()

	// Release the actor from any department they currently head.
	if previous, err := s.repo.GetByHeadActorID(dto.ActorID); err == nil && previous.ID != d.ID {
		previous.HeadActorID = nil
		previous.UpdatedAt = now
		if err := s.repo.Update(previous); err != nil {
			return nil, internal.NewInternalError("failed to release previous department", err)
		}
	}

	// Release this department's previous head.
	if d.HeadActorID != nil && *d.HeadActorID != dto.ActorID {
		if err := s.actors.SetDepartment(*d.HeadActorID, nil, now); err != nil {
			return nil, internal.NewInternalError("failed to release previous head", err)
		}
	}

	d.HeadActorID = &dto.ActorID
	d.UpdatedAt = now
	if err := s.repo.Update(d); err != nil {
		return nil, err
	}

	if err := s.actors.SetDepartment(dto.ActorID, &d.Name, now); err != nil {
		return nil, internal.NewInternalError("failed to update head's department", err)
	}

	s.logger.Info("department head assigned",
		"department_id", d.ID,
		"actor_id", dto.ActorID)

	return d, nil
}

// RevokeHead clears the head assignment.
func (s *Service) RevokeHead(id int64) (*Department, error) {
	d, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if d.HeadActorID == nil {
		return nil, internal.ErrNoHeadAssigned
	}

	now := time.Now()
	headID := *d.HeadActorID
	d.HeadActorID = nil
	d.UpdatedAt = now

	if err := s.repo.Update(d); err != nil {
		return nil, err
	}

	if err := s.actors.SetDepartment(headID, nil, now); err != nil {
		return nil, internal.NewInternalError("failed to clear head's department", err)
	}

	s.logger.Info("department head revoked", "department_id", d.ID, "actor_id", headID)

	return d, nil
}

// DeleteDepartment soft-deletes a unit. Departments with passes still
// moving through the workflow cannot be removed.
func (s *Service) DeleteDepartment(id int64) error {
	d, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}

	pending, err := s.gatePasses.CountPendingForDepartment(d.Name)
	if err != nil {
		s.logger.Error("failed to count pending passes", "error", err, "department", d.Name)
		return internal.NewInternalError("failed to check pending gate passes", err)
	}
	if pending > 0 {
		s.logger.Warn("department delete blocked by pending passes",
			"department_id", id,
			"pending", pending)
		return internal.ErrHasPendingGatePasses
	}

	now := time.Now()
	if d.HeadActorID != nil {
		if err := s.actors.SetDepartment(*d.HeadActorID, nil, now); err != nil {
			return internal.NewInternalError("failed to release head on delete", err)
		}
		d.HeadActorID = nil
	}

	d.IsActive = false
	d.UpdatedAt = now
	if err := s.repo.Update(d); err != nil {
		s.logger.Error("failed to delete department", "error", err, "department_id", id)
		return err
	}

	s.logger.Info("department deleted", "department_id", id, "name", d.Name)

	return nil
}
