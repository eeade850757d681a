package audit

import (
	"context"
	"log/slog"

	"github.com/dwiprasetya/gatepass-management/internal/core/events"
)

// EventHandler writes an audit trail for every workflow transition.
// It consumes the gatepass events off the in-process bus so the
// services never block on audit I/O.
type EventHandler struct {
	logger *slog.Logger
}

func NewEventHandler(logger *slog.Logger) *EventHandler {
	return &EventHandler{logger: logger}
}

func (h *EventHandler) HandleSubmitted(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.GatePassSubmittedEvent)
	if !ok {
		return nil
	}

	h.logger.Info("audit: gate pass submitted",
		"event_id", e.EventID(),
		"gate_pass_id", e.GatePassID,
		"public_id", e.PublicID,
		"department", e.DepartmentName,
		"occurred_at", e.OccurredAt())

	return nil
}

func (h *EventHandler) HandleDecided(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.GatePassDecidedEvent)
	if !ok {
		return nil
	}

	h.logger.Info("audit: gate pass decided",
		"event_id", e.EventID(),
		"gate_pass_id", e.GatePassID,
		"public_id", e.PublicID,
		"stage", e.Stage,
		"approved", e.Approved,
		"decided_by", e.DecidedBy,
		"occurred_at", e.OccurredAt())

	return nil
}

func (h *EventHandler) HandleExitConfirmed(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.GatePassExitConfirmedEvent)
	if !ok {
		return nil
	}

	h.logger.Info("audit: exit confirmed",
		"event_id", e.EventID(),
		"gate_pass_id", e.GatePassID,
		"public_id", e.PublicID,
		"confirmed_by", e.ConfirmedBy,
		"occurred_at", e.OccurredAt())

	return nil
}

func (h *EventHandler) HandleReconciled(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.GatePassReconciledEvent)
	if !ok {
		return nil
	}

	h.logger.Info("audit: stale passes reconciled",
		"event_id", e.EventID(),
		"as_of", e.AsOf,
		"demoted", e.Demoted)

	return nil
}

func (h *EventHandler) HandleDeleted(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.GatePassDeletedEvent)
	if !ok {
		return nil
	}

	h.logger.Info("audit: gate pass deleted",
		"event_id", e.EventID(),
		"gate_pass_id", e.GatePassID,
		"public_id", e.PublicID)

	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeGatePassSubmitted, h.HandleSubmitted)
	eventBus.Subscribe(events.EventTypeGatePassDecided, h.HandleDecided)
	eventBus.Subscribe(events.EventTypeGatePassExitConfirmed, h.HandleExitConfirmed)
	eventBus.Subscribe(events.EventTypeGatePassReconciled, h.HandleReconciled)
	eventBus.Subscribe(events.EventTypeGatePassDeleted, h.HandleDeleted)

	h.logger.Info("audit event handlers registered")
}
