package gatepass

import (
	"context"
	"log/slog"
	"time"

	"github.com/dwiprasetya/gatepass-management/internal"
	"github.com/dwiprasetya/gatepass-management/internal/core/events"
)

// maxPublicIDAttempts bounds retries when a generated public id collides.
const maxPublicIDAttempts = 5

// Repository defines the data access methods for gate passes.
type Repository interface {
	Create(gp *GatePass) error
	GetByID(id int64) (*GatePass, error)
	GetByPublicID(publicID string) (*GatePass, error)
	Update(gp *GatePass) error
	Delete(id int64) error
	ListByDepartment(department string, statuses []string, limit, offset int) ([]*GatePass, error)
	ListByStatus(statuses []string, limit, offset int) ([]*GatePass, error)
	ListByRequester(requesterActorID int64, limit, offset int) ([]*GatePass, error)
	RecentExits(limit int) ([]*GatePass, error)
	CountByStatus() (map[string]int64, error)
	CountPendingByDepartment() (map[string]int64, error)
	MarkStaleApproved(cutoff, now time.Time) (int64, error)
}

// DepartmentDirectory answers whether a department accepts new requests.
type DepartmentDirectory interface {
	ExistsActive(name string) (bool, error)
}

// ActorDirectory resolves approver display names for the public viewer.
type ActorDirectory interface {
	GetNameByID(actorID int64) (string, error)
}

// ImageDeleter removes stored photos; failures are tolerated.
type ImageDeleter interface {
	Delete(ctx context.Context, ref string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Clock is injected so reconciliation cutoffs are testable.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Service handles the gate pass workflow business logic.
type Service struct {
	repo        Repository
	departments DepartmentDirectory
	actors      ActorDirectory
	images      ImageDeleter
	eventBus    EventPublisher
	clock       Clock
	logger      *slog.Logger
}

func NewService(repo Repository, departments DepartmentDirectory, actors ActorDirectory, images ImageDeleter, eventBus EventPublisher, clock Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{
		repo:        repo,
		departments: departments,
		actors:      actors,
		images:      images,
		eventBus:    eventBus,
		clock:       clock,
		logger:      logger,
	}
}

// Submit creates a new gate pass in pending_department.
func (s *Service) Submit(dto CreateGatePassDTO) (*GatePass, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Warn("gate pass validation failed", "error", err)
		return nil, err
	}

	active, err := s.departments.ExistsActive(dto.DepartmentName)
	if err != nil {
		s.logger.Error("department lookup failed", "error", err, "department", dto.DepartmentName)
		return nil, internal.NewInternalError("failed to verify department", err)
	}
	if !active {
		return nil, internal.ErrDepartmentNotFound
	}

	now := s.clock.Now()
	gp := &GatePass{
		RequesterName:       dto.RequesterName,
		RequesterActorID:    dto.RequesterActorID,
		RequesterExternalID: dto.RequesterExternalID,
		DepartmentName:      dto.DepartmentName,
		Reason:              dto.Reason,
		EvidencePhotoRef:    dto.EvidencePhotoRef,
		CompanionName:       dto.CompanionName,
		CompanionPhotoRef:   dto.CompanionPhotoRef,
		Status:              StatusPendingDepartment,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	for attempt := 1; ; attempt++ {
		publicID, err := NewPublicID(s.clock.Now())
		if err != nil {
			return nil, internal.NewInternalError("failed to generate gate pass id", err)
		}
		gp.PublicID = publicID

		err = s.repo.Create(gp)
		if err == nil {
			break
		}
		if err != ErrDuplicatePublicID {
			s.logger.Error("failed to create gate pass", "error", err)
			return nil, internal.NewInternalError("failed to create gate pass", err)
		}
		if attempt >= maxPublicIDAttempts {
			s.logger.Error("public id generation exhausted", "attempts", attempt)
			return nil, internal.ErrIDGenerationExhausted
		}
		s.logger.Warn("public id collision, retrying", "public_id", publicID, "attempt", attempt)
	}

	s.logger.Info("gate pass submitted",
		"gate_pass_id", gp.ID,
		"public_id", gp.PublicID,
		"department", gp.DepartmentName)

	s.eventBus.Publish(context.Background(), events.NewGatePassSubmittedEvent(gp.ID, gp.PublicID, gp.DepartmentName))

	return gp, nil
}

// DepartmentDecide records a department head's decision. The head may
// only decide requests addressed to their own department.
func (s *Service) DepartmentDecide(gatePassID, actorID int64, actorDepartment *string, dto DecisionDTO) (*GatePass, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	gp, err := s.repo.GetByID(gatePassID)
	if err != nil {
		return nil, err
	}

	if actorDepartment == nil || *actorDepartment != gp.DepartmentName {
		s.logger.Warn("department decision denied: wrong department",
			"gate_pass_id", gatePassID,
			"actor_id", actorID,
			"pass_department", gp.DepartmentName)
		return nil, internal.ErrWrongDepartment
	}

	if !gp.IsPendingDepartment() {
		s.logger.Warn("department decision denied: not pending",
			"gate_pass_id", gatePassID,
			"status", gp.Status)
		return nil, internal.ErrNotPendingDepartment
	}

	gp.ApplyDepartmentDecision(dto.IsApproval(), actorID, dto.Remarks, s.clock.Now())

	if err := s.repo.Update(gp); err != nil {
		return nil, err
	}

	s.logger.Info("department decision recorded",
		"gate_pass_id", gp.ID,
		"public_id", gp.PublicID,
		"approved", dto.IsApproval(),
		"actor_id", actorID)

	s.eventBus.Publish(context.Background(), events.NewGatePassDecidedEvent(gp.ID, gp.PublicID, "department", dto.IsApproval(), actorID))

	return gp, nil
}

// InstitutionDecide records the institution head's decision on a pass
// that already cleared its department.
func (s *Service) InstitutionDecide(gatePassID, actorID int64, dto DecisionDTO) (*GatePass, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	gp, err := s.repo.GetByID(gatePassID)
	if err != nil {
		return nil, err
	}

	if !gp.IsPendingInstitution() {
		s.logger.Warn("institution decision denied: not pending institution",
			"gate_pass_id", gatePassID,
			"status", gp.Status)
		return nil, internal.ErrNotPendingInstitution
	}

	gp.ApplyInstitutionDecision(dto.IsApproval(), actorID, dto.Remarks, s.clock.Now())

	if err := s.repo.Update(gp); err != nil {
		return nil, err
	}

	s.logger.Info("institution decision recorded",
		"gate_pass_id", gp.ID,
		"public_id", gp.PublicID,
		"approved", dto.IsApproval(),
		"actor_id", actorID)

	s.eventBus.Publish(context.Background(), events.NewGatePassDecidedEvent(gp.ID, gp.PublicID, "institution", dto.IsApproval(), actorID))

	return gp, nil
}

// VerifyForGate looks up a pass by its shareable id for the gate desk.
func (s *Service) VerifyForGate(publicID string) (*GatePass, error) {
	return s.repo.GetByPublicID(NormalizePublicID(publicID))
}

// ConfirmExit marks an exit-eligible pass as used. Demoted passes
// (approved_not_exited) are still honored at the gate.
func (s *Service) ConfirmExit(publicID string, actorID int64) (*GatePass, error) {
	gp, err := s.repo.GetByPublicID(NormalizePublicID(publicID))
	if err != nil {
		return nil, err
	}

	if gp.IsExited() {
		return nil, internal.ErrAlreadyExited
	}
	if !gp.IsExitEligible() {
		s.logger.Warn("exit confirmation denied",
			"public_id", gp.PublicID,
			"status", gp.Status)
		return nil, internal.ErrNotApprovedYet
	}

	gp.ConfirmExit(actorID, s.clock.Now())

	if err := s.repo.Update(gp); err != nil {
		return nil, err
	}

	s.logger.Info("exit confirmed",
		"gate_pass_id", gp.ID,
		"public_id", gp.PublicID,
		"actor_id", actorID)

	s.eventBus.Publish(context.Background(), events.NewGatePassExitConfirmedEvent(gp.ID, gp.PublicID, actorID))

	return gp, nil
}

// ReconcileStale demotes approved passes whose approval predates the
// current day to approved_not_exited. Returns how many were demoted.
func (s *Service) ReconcileStale() (int64, error) {
	now := s.clock.Now()
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	demoted, err := s.repo.MarkStaleApproved(cutoff, now)
	if err != nil {
		s.logger.Error("reconciliation failed", "error", err)
		return 0, internal.NewInternalError("failed to reconcile stale passes", err)
	}

	s.logger.Info("stale passes reconciled", "demoted", demoted, "cutoff", cutoff)

	if demoted > 0 {
		s.eventBus.Publish(context.Background(), events.NewGatePassReconciledEvent(now, demoted))
	}

	return demoted, nil
}

// Delete removes a pass and best-effort deletes its stored photos.
// Photo deletion failures are logged, never surfaced.
func (s *Service) Delete(ctx context.Context, gatePassID int64) error {
	gp, err := s.repo.GetByID(gatePassID)
	if err != nil {
		return err
	}

	for _, ref := range gp.PhotoRefs() {
		if err := s.images.Delete(ctx, ref); err != nil {
			s.logger.Warn("failed to delete gate pass photo",
				"gate_pass_id", gatePassID,
				"ref", ref,
				"error", err)
		}
	}

	if err := s.repo.Delete(gatePassID); err != nil {
		return internal.NewInternalError("failed to delete gate pass", err)
	}

	s.logger.Info("gate pass deleted", "gate_pass_id", gatePassID, "public_id", gp.PublicID)

	s.eventBus.Publish(ctx, events.NewGatePassDeletedEvent(gp.ID, gp.PublicID))

	return nil
}

// PublicLookup returns the redacted projection for anonymous status checks.
func (s *Service) PublicLookup(publicID string) (*PublicView, error) {
	gp, err := s.repo.GetByPublicID(NormalizePublicID(publicID))
	if err != nil {
		return nil, err
	}

	view := &PublicView{
		PublicID:       gp.PublicID,
		RequesterName:  gp.RequesterName,
		DepartmentName: gp.DepartmentName,
		Reason:         gp.Reason,
		Status:         gp.Status,
		CompanionName:  gp.CompanionName,
		SubmittedAt:    gp.CreatedAt,
	}

	if a := gp.DepartmentApproval; a != nil {
		view.DepartmentRemarks = a.Remarks
		decidedAt := a.DecidedAt
		view.DecidedAt = &decidedAt
		if name, err := s.actors.GetNameByID(a.DecidedBy); err == nil {
			view.DepartmentHead = &name
		}
	}
	if a := gp.InstitutionApproval; a != nil {
		view.InstitutionRemarks = a.Remarks
		decidedAt := a.DecidedAt
		view.DecidedAt = &decidedAt
		if name, err := s.actors.GetNameByID(a.DecidedBy); err == nil {
			view.InstitutionHead = &name
		}
	}
	if e := gp.ExitConfirmation; e != nil {
		confirmedAt := e.ConfirmedAt
		view.ExitConfirmedAt = &confirmedAt
	}

	return view, nil
}

func (s *Service) PendingForDepartment(department string, limit, offset int) ([]*GatePass, error) {
	return s.repo.ListByDepartment(department, []string{StatusPendingDepartment}, limit, offset)
}

func (s *Service) AllForDepartment(department string, limit, offset int) ([]*GatePass, error) {
	return s.repo.ListByDepartment(department, nil, limit, offset)
}

func (s *Service) PendingInstitution(limit, offset int) ([]*GatePass, error) {
	return s.repo.ListByStatus([]string{StatusPendingInstitution}, limit, offset)
}

func (s *Service) AllPasses(limit, offset int) ([]*GatePass, error) {
	return s.repo.ListByStatus(nil, limit, offset)
}

func (s *Service) MyRequests(requesterActorID int64, limit, offset int) ([]*GatePass, error) {
	return s.repo.ListByRequester(requesterActorID, limit, offset)
}

func (s *Service) RecentExits(limit int) ([]*GatePass, error) {
	return s.repo.RecentExits(limit)
}

// Stats aggregates pass counts for the institution dashboard.
func (s *Service) Stats() (*Stats, error) {
	counts, err := s.repo.CountByStatus()
	if err != nil {
		return nil, internal.NewInternalError("failed to compute stats", err)
	}

	stats := &Stats{}
	for status, count := range counts {
		stats.Total += count
		switch status {
		case StatusPendingDepartment, StatusPendingInstitution:
			stats.Pending += count
		case StatusApproved, StatusApprovedNotExited:
			stats.Approved += count
		case StatusRejectedDepartment, StatusRejectedInstitution:
			stats.Rejected += count
		case StatusExitConfirmed:
			stats.ExitConfirmed += count
		}
	}

	pendingByDepartment, err := s.repo.CountPendingByDepartment()
	if err != nil {
		return nil, internal.NewInternalError("failed to compute stats", err)
	}
	stats.PendingByDepartment = pendingByDepartment

	return stats, nil
}
