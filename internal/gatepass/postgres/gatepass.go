package postgres

import (
	"errors"
	"strings"
	"time"

	"github.com/dwiprasetya/gatepass-management/internal"
	gatepassDatamodel "github.com/dwiprasetya/gatepass-management/internal/core/datamodel/gatepass"
	"github.com/dwiprasetya/gatepass-management/internal/gatepass"
	"gorm.io/gorm"
)

// GatePassRepository implements the gatepass.Repository interface using GORM
type GatePassRepository struct {
	db *gorm.DB
}

func NewGatePassRepository(db *gorm.DB) *GatePassRepository {
	return &GatePassRepository{db: db}
}

// Create saves a new gate pass, mapping unique-index collisions on
// public_id onto ErrDuplicatePublicID so the service can retry.
func (r *GatePassRepository) Create(gp *gatepass.GatePass) error {
	dm := gatepass.ToDataModel(gp)
	if err := r.db.Create(dm).Error; err != nil {
		if isDuplicateKeyError(err) {
			return gatepass.ErrDuplicatePublicID
		}
		return err
	}
	gp.ID = dm.ID
	return nil
}

func (r *GatePassRepository) GetByID(id int64) (*gatepass.GatePass, error) {
	var dm gatepassDatamodel.GatePass
	err := r.db.Where("id = ?", id).First(&dm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrGatePassNotFound
		}
		return nil, err
	}
	return gatepass.FromDataModel(&dm), nil
}

func (r *GatePassRepository) GetByPublicID(publicID string) (*gatepass.GatePass, error) {
	var dm gatepassDatamodel.GatePass
	err := r.db.Where("public_id = ?", publicID).First(&dm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrGatePassNotFound
		}
		return nil, err
	}
	return gatepass.FromDataModel(&dm), nil
}

// Update persists a transition guarded by the version column. A missed
// row means someone else transitioned the pass first.
func (r *GatePassRepository) Update(gp *gatepass.GatePass) error {
	dm := gatepass.ToDataModel(gp)
	currentVersion := dm.Version
	dm.Version = currentVersion + 1

	result := r.db.Model(&gatepassDatamodel.GatePass{}).
		Where("id = ? AND version = ?", dm.ID, currentVersion).
		Updates(map[string]interface{}{
			"status":                 dm.Status,
			"department_decided":     dm.DepartmentDecided,
			"department_decided_by":  dm.DepartmentDecidedBy,
			"department_decided_at":  dm.DepartmentDecidedAt,
			"department_remarks":     dm.DepartmentRemarks,
			"institution_decided":    dm.InstitutionDecided,
			"institution_decided_by": dm.InstitutionDecidedBy,
			"institution_decided_at": dm.InstitutionDecidedAt,
			"institution_remarks":    dm.InstitutionRemarks,
			"exit_confirmed":         dm.ExitConfirmed,
			"exit_confirmed_by":      dm.ExitConfirmedBy,
			"exit_confirmed_at":      dm.ExitConfirmedAt,
			"version":                dm.Version,
			"updated_at":             dm.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrConcurrentUpdate
	}

	gp.Version = dm.Version
	return nil
}

func (r *GatePassRepository) Delete(id int64) error {
	result := r.db.Where("id = ?", id).Delete(&gatepassDatamodel.GatePass{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrGatePassNotFound
	}
	return nil
}

func (r *GatePassRepository) ListByDepartment(department string, statuses []string, limit, offset int) ([]*gatepass.GatePass, error) {
	query := r.db.Where("department_name = ?", department)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var dms []*gatepassDatamodel.GatePass
	err := query.Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&dms).Error
	if err != nil {
		return nil, err
	}
	return gatepass.FromDataModelSlice(dms), nil
}

func (r *GatePassRepository) ListByStatus(statuses []string, limit, offset int) ([]*gatepass.GatePass, error) {
	query := r.db.Session(&gorm.Session{})
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var dms []*gatepassDatamodel.GatePass
	err := query.Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&dms).Error
	if err != nil {
		return nil, err
	}
	return gatepass.FromDataModelSlice(dms), nil
}

func (r *GatePassRepository) ListByRequester(requesterActorID int64, limit, offset int) ([]*gatepass.GatePass, error) {
	var dms []*gatepassDatamodel.GatePass
	err := r.db.Where("requester_actor_id = ?", requesterActorID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&dms).Error
	if err != nil {
		return nil, err
	}
	return gatepass.FromDataModelSlice(dms), nil
}

func (r *GatePassRepository) RecentExits(limit int) ([]*gatepass.GatePass, error) {
	var dms []*gatepassDatamodel.GatePass
	err := r.db.Where("status = ?", gatepass.StatusExitConfirmed).
		Order("exit_confirmed_at DESC").
		Limit(limit).
		Find(&dms).Error
	if err != nil {
		return nil, err
	}
	return gatepass.FromDataModelSlice(dms), nil
}

func (r *GatePassRepository) CountByStatus() (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}

	var rows []row
	err := r.db.Model(&gatepassDatamodel.GatePass{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.Count
	}
	return counts, nil
}

// CountPendingByDepartment breaks the in-flight queue down per
// department for the institution dashboard.
func (r *GatePassRepository) CountPendingByDepartment() (map[string]int64, error) {
	type row struct {
		DepartmentName string
		Count          int64
	}

	var rows []row
	err := r.db.Model(&gatepassDatamodel.GatePass{}).
		Select("department_name, COUNT(*) as count").
		Where("status IN ?", []string{
			gatepass.StatusPendingDepartment,
			gatepass.StatusPendingInstitution,
		}).
		Group("department_name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, rw := range rows {
		counts[rw.DepartmentName] = rw.Count
	}
	return counts, nil
}

// MarkStaleApproved demotes approved passes whose institution decision
// predates the cutoff to approved_not_exited in one bulk update.
func (r *GatePassRepository) MarkStaleApproved(cutoff, now time.Time) (int64, error) {
	result := r.db.Model(&gatepassDatamodel.GatePass{}).
		Where("status = ? AND institution_decided_at < ?", gatepass.StatusApproved, cutoff).
		Updates(map[string]interface{}{
			"status":     gatepass.StatusApprovedNotExited,
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CountPendingForDepartment counts passes still moving through the
// workflow for one department; used to block department deletion.
func (r *GatePassRepository) CountPendingForDepartment(department string) (int64, error) {
	var count int64
	err := r.db.Model(&gatepassDatamodel.GatePass{}).
		Where("department_name = ? AND status IN ?", department, []string{
			gatepass.StatusPendingDepartment,
			gatepass.StatusPendingInstitution,
			gatepass.StatusApproved,
		}).
		Count(&count).Error
	return count, err
}

// RenameDepartment propagates a registry rename onto historical passes.
func (r *GatePassRepository) RenameDepartment(oldName, newName string, now time.Time) error {
	return r.db.Model(&gatepassDatamodel.GatePass{}).
		Where("department_name = ?", oldName).
		Updates(map[string]interface{}{
			"department_name": newName,
			"updated_at":      now,
		}).Error
}

func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
