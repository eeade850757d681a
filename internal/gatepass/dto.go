package gatepass

import (
	"time"

	"github.com/dwiprasetya/gatepass-management/internal"
)

const (
	maxReasonLength = 500
	maxNameLength   = 120

	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// CreateGatePassDTO carries the submission form fields. Photo uploads
// arrive as multipart parts and are stored before the service is called;
// only the resulting references appear here.
type CreateGatePassDTO struct {
	RequesterName       string  `json:"requester_name"`
	RequesterActorID    *int64  `json:"-"`
	RequesterExternalID *string `json:"requester_external_id,omitempty"`
	DepartmentName      string  `json:"department_name"`
	Reason              string  `json:"reason"`
	EvidencePhotoRef    string  `json:"-"`
	CompanionName       *string `json:"companion_name,omitempty"`
	CompanionPhotoRef   *string `json:"-"`
}

func (dto CreateGatePassDTO) Validate() error {
	if dto.RequesterName == "" {
		return internal.NewValidationFieldError("requester_name", "requester name is required", internal.ErrCodeValidationFailed)
	}
	if len(dto.RequesterName) > maxNameLength {
		return internal.NewValidationFieldError("requester_name", "requester name is too long", internal.ErrCodeValidationFailed)
	}
	if dto.DepartmentName == "" {
		return internal.NewValidationFieldError("department_name", "department is required", internal.ErrCodeValidationFailed)
	}
	if dto.Reason == "" {
		return internal.NewValidationFieldError("reason", "reason is required", internal.ErrCodeValidationFailed)
	}
	if len(dto.Reason) > maxReasonLength {
		return internal.NewValidationFieldError("reason", "reason must be at most 500 characters", internal.ErrCodeValidationFailed)
	}
	if dto.EvidencePhotoRef == "" {
		return internal.NewValidationFieldError("evidence_photo", "evidence photo is required", internal.ErrCodeMissingPhoto)
	}
	// A companion entry is only meaningful as a name+photo pair.
	if dto.CompanionName != nil && *dto.CompanionName != "" {
		if dto.CompanionPhotoRef == nil || *dto.CompanionPhotoRef == "" {
			return internal.NewValidationFieldError("companion_photo", "companion photo is required when a companion is named", internal.ErrCodeCompanionPhoto)
		}
	} else if dto.CompanionPhotoRef != nil && *dto.CompanionPhotoRef != "" {
		return internal.NewValidationFieldError("companion_name", "companion name is required when a companion photo is provided", internal.ErrCodeCompanionPhoto)
	}
	return nil
}

// DecisionDTO is shared by both approval stages.
type DecisionDTO struct {
	Action  string `json:"action"`
	Remarks string `json:"remarks,omitempty"`
}

func (dto DecisionDTO) Validate() error {
	if dto.Action != DecisionApprove && dto.Action != DecisionReject {
		return internal.NewValidationFieldError("action", "action must be either 'approve' or 'reject'", internal.ErrCodeValidationFailed)
	}
	if dto.Action == DecisionReject && dto.Remarks == "" {
		return internal.NewValidationFieldError("remarks", "remarks are required when rejecting", internal.ErrCodeValidationFailed)
	}
	if len(dto.Remarks) > maxReasonLength {
		return internal.NewValidationFieldError("remarks", "remarks must be at most 500 characters", internal.ErrCodeValidationFailed)
	}
	return nil
}

func (dto DecisionDTO) IsApproval() bool {
	return dto.Action == DecisionApprove
}

// PublicView is the redacted projection returned to anonymous viewers:
// no internal ids, no photo references, approvers shown by display name.
type PublicView struct {
	PublicID           string     `json:"public_id"`
	RequesterName      string     `json:"requester_name"`
	DepartmentName     string     `json:"department_name"`
	Reason             string     `json:"reason"`
	Status             string     `json:"status"`
	CompanionName      *string    `json:"companion_name,omitempty"`
	DepartmentRemarks  string     `json:"department_remarks,omitempty"`
	InstitutionRemarks string     `json:"institution_remarks,omitempty"`
	DepartmentHead     *string    `json:"department_head,omitempty"`
	InstitutionHead    *string    `json:"institution_head,omitempty"`
	DecidedAt          *time.Time `json:"decided_at,omitempty"`
	ExitConfirmedAt    *time.Time `json:"exit_confirmed_at,omitempty"`
	SubmittedAt        time.Time  `json:"submitted_at"`
}

// Stats summarizes pass volumes for the institution dashboard.
type Stats struct {
	Total               int64            `json:"total"`
	Pending             int64            `json:"pending"`
	Approved            int64            `json:"approved"`
	Rejected            int64            `json:"rejected"`
	ExitConfirmed       int64            `json:"exit_confirmed"`
	PendingByDepartment map[string]int64 `json:"pending_by_department"`
}

// ListResponse wraps paginated collections.
type ListResponse struct {
	GatePasses []*GatePass `json:"gate_passes"`
	Limit      int         `json:"limit"`
	Offset     int         `json:"offset"`
}
