package gatepass

import (
	"errors"
	"time"

	gatepassDatamodel "github.com/dwiprasetya/gatepass-management/internal/core/datamodel/gatepass"
)

// ErrDuplicatePublicID is returned by repositories when an insert hits
// the unique index on public_id; the service retries with a fresh id.
var ErrDuplicatePublicID = errors.New("duplicate public id")

// Gate pass lifecycle. Department approval moves a request to
// pending_institution; institution approval makes it exit-eligible.
// Approved passes that are never used are demoted to approved_not_exited
// by the nightly reconciliation, but stay exit-eligible.
const (
	StatusPendingDepartment   = "pending_department"
	StatusRejectedDepartment  = "rejected_department"
	StatusPendingInstitution  = "pending_institution"
	StatusRejectedInstitution = "rejected_institution"
	StatusApproved            = "approved"
	StatusApprovedNotExited   = "approved_not_exited"
	StatusExitConfirmed       = "exit_confirmed"
)

// Approval records one decision stage of the workflow.
type Approval struct {
	DecidedBy int64     `json:"decided_by"`
	DecidedAt time.Time `json:"decided_at"`
	Remarks   string    `json:"remarks,omitempty"`
}

type ExitConfirmation struct {
	ConfirmedBy int64     `json:"confirmed_by"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// GatePass is the core workflow entity. RequesterActorID is only set
// when the requester has a directory account; walk-in submissions
// carry just a name and an optional external id.
type GatePass struct {
	ID                  int64   `json:"id"`
	PublicID            string  `json:"public_id"`
	RequesterActorID    *int64  `json:"requester_actor_id,omitempty"`
	RequesterName       string  `json:"requester_name"`
	RequesterExternalID *string `json:"requester_external_id,omitempty"`
	DepartmentName      string  `json:"department_name"`
	Reason              string  `json:"reason"`
	EvidencePhotoRef    string  `json:"evidence_photo_ref"`
	CompanionName       *string `json:"companion_name,omitempty"`
	CompanionPhotoRef   *string `json:"companion_photo_ref,omitempty"`

	Status string `json:"status"`

	DepartmentApproval  *Approval         `json:"department_approval,omitempty"`
	InstitutionApproval *Approval         `json:"institution_approval,omitempty"`
	ExitConfirmation    *ExitConfirmation `json:"exit_confirmation,omitempty"`

	Version   int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (g *GatePass) IsPendingDepartment() bool {
	return g.Status == StatusPendingDepartment
}

func (g *GatePass) IsPendingInstitution() bool {
	return g.Status == StatusPendingInstitution
}

// IsExitEligible reports whether a gate attendant may confirm exit.
func (g *GatePass) IsExitEligible() bool {
	return g.Status == StatusApproved || g.Status == StatusApprovedNotExited
}

func (g *GatePass) IsExited() bool {
	return g.Status == StatusExitConfirmed
}

func (g *GatePass) IsRejected() bool {
	return g.Status == StatusRejectedDepartment || g.Status == StatusRejectedInstitution
}

func (g *GatePass) HasCompanion() bool {
	return g.CompanionName != nil && *g.CompanionName != ""
}

// ApplyDepartmentDecision transitions out of pending_department.
func (g *GatePass) ApplyDepartmentDecision(approve bool, decidedBy int64, remarks string, at time.Time) {
	g.DepartmentApproval = &Approval{
		DecidedBy: decidedBy,
		DecidedAt: at,
		Remarks:   remarks,
	}
	if approve {
		g.Status = StatusPendingInstitution
	} else {
		g.Status = StatusRejectedDepartment
	}
	g.UpdatedAt = at
}

// ApplyInstitutionDecision transitions out of pending_institution.
func (g *GatePass) ApplyInstitutionDecision(approve bool, decidedBy int64, remarks string, at time.Time) {
	g.InstitutionApproval = &Approval{
		DecidedBy: decidedBy,
		DecidedAt: at,
		Remarks:   remarks,
	}
	if approve {
		g.Status = StatusApproved
	} else {
		g.Status = StatusRejectedInstitution
	}
	g.UpdatedAt = at
}

func (g *GatePass) ConfirmExit(confirmedBy int64, at time.Time) {
	g.ExitConfirmation = &ExitConfirmation{
		ConfirmedBy: confirmedBy,
		ConfirmedAt: at,
	}
	g.Status = StatusExitConfirmed
	g.UpdatedAt = at
}

// PhotoRefs returns all stored image references for cleanup on delete.
func (g *GatePass) PhotoRefs() []string {
	refs := []string{}
	if g.EvidencePhotoRef != "" {
		refs = append(refs, g.EvidencePhotoRef)
	}
	if g.CompanionPhotoRef != nil && *g.CompanionPhotoRef != "" {
		refs = append(refs, *g.CompanionPhotoRef)
	}
	return refs
}

func ToDataModel(g *GatePass) *gatepassDatamodel.GatePass {
	dm := &gatepassDatamodel.GatePass{
		ID:                  g.ID,
		PublicID:            g.PublicID,
		RequesterActorID:    g.RequesterActorID,
		RequesterName:       g.RequesterName,
		RequesterExternalID: g.RequesterExternalID,
		DepartmentName:      g.DepartmentName,
		Reason:              g.Reason,
		EvidencePhotoRef:    g.EvidencePhotoRef,
		CompanionName:       g.CompanionName,
		CompanionPhotoRef:   g.CompanionPhotoRef,
		Status:              g.Status,
		Version:             g.Version,
		CreatedAt:           g.CreatedAt,
		UpdatedAt:           g.UpdatedAt,
	}

	if a := g.DepartmentApproval; a != nil {
		dm.DepartmentDecided = true
		dm.DepartmentDecidedBy = &a.DecidedBy
		decidedAt := a.DecidedAt
		dm.DepartmentDecidedAt = &decidedAt
		dm.DepartmentRemarks = a.Remarks
	}
	if a := g.InstitutionApproval; a != nil {
		dm.InstitutionDecided = true
		dm.InstitutionDecidedBy = &a.DecidedBy
		decidedAt := a.DecidedAt
		dm.InstitutionDecidedAt = &decidedAt
		dm.InstitutionRemarks = a.Remarks
	}
	if e := g.ExitConfirmation; e != nil {
		dm.ExitConfirmed = true
		dm.ExitConfirmedBy = &e.ConfirmedBy
		confirmedAt := e.ConfirmedAt
		dm.ExitConfirmedAt = &confirmedAt
	}

	return dm
}

func FromDataModel(dm *gatepassDatamodel.GatePass) *GatePass {
	g := &GatePass{
		ID:                  dm.ID,
		PublicID:            dm.PublicID,
		RequesterActorID:    dm.RequesterActorID,
		RequesterName:       dm.RequesterName,
		RequesterExternalID: dm.RequesterExternalID,
		DepartmentName:      dm.DepartmentName,
		Reason:              dm.Reason,
		EvidencePhotoRef:    dm.EvidencePhotoRef,
		CompanionName:       dm.CompanionName,
		CompanionPhotoRef:   dm.CompanionPhotoRef,
		Status:              dm.Status,
		Version:             dm.Version,
		CreatedAt:           dm.CreatedAt,
		UpdatedAt:           dm.UpdatedAt,
	}

	if dm.DepartmentDecided && dm.DepartmentDecidedBy != nil && dm.DepartmentDecidedAt != nil {
		g.DepartmentApproval = &Approval{
			DecidedBy: *dm.DepartmentDecidedBy,
			DecidedAt: *dm.DepartmentDecidedAt,
			Remarks:   dm.DepartmentRemarks,
		}
	}
	if dm.InstitutionDecided && dm.InstitutionDecidedBy != nil && dm.InstitutionDecidedAt != nil {
		g.InstitutionApproval = &Approval{
			DecidedBy: *dm.InstitutionDecidedBy,
			DecidedAt: *dm.InstitutionDecidedAt,
			Remarks:   dm.InstitutionRemarks,
		}
	}
	if dm.ExitConfirmed && dm.ExitConfirmedBy != nil && dm.ExitConfirmedAt != nil {
		g.ExitConfirmation = &ExitConfirmation{
			ConfirmedBy: *dm.ExitConfirmedBy,
			ConfirmedAt: *dm.ExitConfirmedAt,
		}
	}

	return g
}

func FromDataModelSlice(passes []*gatepassDatamodel.GatePass) []*GatePass {
	result := make([]*GatePass, len(passes))
	for i, dm := range passes {
		result[i] = FromDataModel(dm)
	}
	return result
}
