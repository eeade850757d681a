package gatepass

import (
	"time"
)

// GatePass is the persistence shape for exit requests. Approval sub-records
// are flattened into prefixed columns; the domain package folds them back
// into nested structs.
type GatePass struct {
	ID                  int64   `json:"id" gorm:"primaryKey"`
	PublicID            string  `json:"public_id" gorm:"column:public_id;uniqueIndex;not null"`
	RequesterActorID    *int64  `json:"requester_actor_id,omitempty" gorm:"column:requester_actor_id"`
	RequesterName       string  `json:"requester_name" gorm:"column:requester_name;not null"`
	RequesterExternalID *string `json:"requester_external_id,omitempty" gorm:"column:requester_external_id"`
	DepartmentName      string  `json:"department_name" gorm:"column:department_name;not null"`
	Reason              string  `json:"reason" gorm:"not null"`
	EvidencePhotoRef    string  `json:"evidence_photo_ref" gorm:"column:evidence_photo_ref;not null"`
	CompanionName       *string `json:"companion_name,omitempty" gorm:"column:companion_name"`
	CompanionPhotoRef   *string `json:"companion_photo_ref,omitempty" gorm:"column:companion_photo_ref"`

	Status string `json:"status" gorm:"column:status;default:pending_department"`

	DepartmentDecided   bool       `json:"department_decided" gorm:"column:department_decided;default:false"`
	DepartmentDecidedBy *int64     `json:"department_decided_by,omitempty" gorm:"column:department_decided_by"`
	DepartmentDecidedAt *time.Time `json:"department_decided_at,omitempty" gorm:"column:department_decided_at"`
	DepartmentRemarks   string     `json:"department_remarks" gorm:"column:department_remarks"`

	InstitutionDecided   bool       `json:"institution_decided" gorm:"column:institution_decided;default:false"`
	InstitutionDecidedBy *int64     `json:"institution_decided_by,omitempty" gorm:"column:institution_decided_by"`
	InstitutionDecidedAt *time.Time `json:"institution_decided_at,omitempty" gorm:"column:institution_decided_at"`
	InstitutionRemarks   string     `json:"institution_remarks" gorm:"column:institution_remarks"`

	ExitConfirmed   bool       `json:"exit_confirmed" gorm:"column:exit_confirmed;default:false"`
	ExitConfirmedBy *int64     `json:"exit_confirmed_by,omitempty" gorm:"column:exit_confirmed_by"`
	ExitConfirmedAt *time.Time `json:"exit_confirmed_at,omitempty" gorm:"column:exit_confirmed_at"`

	Version   int64     `json:"-" gorm:"column:version;default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (GatePass) TableName() string {
	return "gate_passes"
}
