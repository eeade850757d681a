package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeGatePassSubmitted     = "gatepass.submitted"
	EventTypeGatePassDecided       = "gatepass.decided"
	EventTypeGatePassExitConfirmed = "gatepass.exit_confirmed"
	EventTypeGatePassReconciled    = "gatepass.reconciled"
	EventTypeGatePassDeleted       = "gatepass.deleted"
)

type GatePassSubmittedEvent struct {
	BaseEvent
	GatePassID     int64  `json:"gate_pass_id"`
	PublicID       string `json:"public_id"`
	DepartmentName string `json:"department_name"`
}

func NewGatePassSubmittedEvent(gatePassID int64, publicID, departmentName string) *GatePassSubmittedEvent {
	return &GatePassSubmittedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeGatePassSubmitted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"gate_pass_id":    gatePassID,
				"public_id":       publicID,
				"department_name": departmentName,
			},
		},
		GatePassID:     gatePassID,
		PublicID:       publicID,
		DepartmentName: departmentName,
	}
}

// GatePassDecidedEvent covers both approval stages; Stage is either
// "department" or "institution".
type GatePassDecidedEvent struct {
	BaseEvent
	GatePassID int64  `json:"gate_pass_id"`
	PublicID   string `json:"public_id"`
	Stage      string `json:"stage"`
	Approved   bool   `json:"approved"`
	DecidedBy  int64  `json:"decided_by"`
}

func NewGatePassDecidedEvent(gatePassID int64, publicID, stage string, approved bool, decidedBy int64) *GatePassDecidedEvent {
	return &GatePassDecidedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeGatePassDecided,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"gate_pass_id": gatePassID,
				"public_id":    publicID,
				"stage":        stage,
				"approved":     approved,
				"decided_by":   decidedBy,
			},
		},
		GatePassID: gatePassID,
		PublicID:   publicID,
		Stage:      stage,
		Approved:   approved,
		DecidedBy:  decidedBy,
	}
}

type GatePassExitConfirmedEvent struct {
	BaseEvent
	GatePassID  int64  `json:"gate_pass_id"`
	PublicID    string `json:"public_id"`
	ConfirmedBy int64  `json:"confirmed_by"`
}

func NewGatePassExitConfirmedEvent(gatePassID int64, publicID string, confirmedBy int64) *GatePassExitConfirmedEvent {
	return &GatePassExitConfirmedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeGatePassExitConfirmed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"gate_pass_id": gatePassID,
				"public_id":    publicID,
				"confirmed_by": confirmedBy,
			},
		},
		GatePassID:  gatePassID,
		PublicID:    publicID,
		ConfirmedBy: confirmedBy,
	}
}

type GatePassDeletedEvent struct {
	BaseEvent
	GatePassID int64  `json:"gate_pass_id"`
	PublicID   string `json:"public_id"`
}

func NewGatePassDeletedEvent(gatePassID int64, publicID string) *GatePassDeletedEvent {
	return &GatePassDeletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeGatePassDeleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"gate_pass_id": gatePassID,
				"public_id":    publicID,
			},
		},
		GatePassID: gatePassID,
		PublicID:   publicID,
	}
}

type GatePassReconciledEvent struct {
	BaseEvent
	AsOf    time.Time `json:"as_of"`
	Demoted int64     `json:"demoted"`
}

func NewGatePassReconciledEvent(asOf time.Time, demoted int64) *GatePassReconciledEvent {
	return &GatePassReconciledEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeGatePassReconciled,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"as_of":   asOf,
				"demoted": demoted,
			},
		},
		AsOf:    asOf,
		Demoted: demoted,
	}
}
