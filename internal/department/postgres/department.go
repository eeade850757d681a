package postgres

import (
	"errors"
	"strings"
	"time"

	"github.com/dwiprasetya/gatepass-management/internal"
	departmentDatamodel "github.com/dwiprasetya/gatepass-management/internal/core/datamodel/department"
	"github.com/dwiprasetya/gatepass-management/internal/department"
	"gorm.io/gorm"
)

// DepartmentRepository implements the department.Repository interface using GORM
type DepartmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) Create(d *department.Department) error {
	dm := department.ToDataModel(d)
	if err := r.db.Create(dm).Error; err != nil {
		if isDuplicateKeyError(err) {
			return internal.ErrDuplicateName
		}
		return err
	}
	d.ID = dm.ID
	return nil
}

func (r *DepartmentRepository) GetByID(id int64) (*department.Department, error) {
	var dm departmentDatamodel.Department
	err := r.db.Where("id = ?", id).First(&dm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrDepartmentNotFound
		}
		return nil, err
	}
	return department.FromDataModel(&dm), nil
}

func (r *DepartmentRepository) GetByName(name string) (*department.Department, error) {
	var dm departmentDatamodel.Department
	err := r.db.Where("name = ?", name).First(&dm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrDepartmentNotFound
		}
		return nil, err
	}
	return department.FromDataModel(&dm), nil
}

func (r *DepartmentRepository) GetByHeadActorID(actorID int64) (*department.Department, error) {
	var dm departmentDatamodel.Department
	err := r.db.Where("head_actor_id = ?", actorID).First(&dm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrDepartmentNotFound
		}
		return nil, err
	}
	return department.FromDataModel(&dm), nil
}

func (r *DepartmentRepository) List(includeInactive bool) ([]*department.Department, error) {
	query := r.db.Session(&gorm.Session{})
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	var dms []*departmentDatamodel.Department
	err := query.Order("name ASC").Find(&dms).Error
	if err != nil {
		return nil, err
	}
	return department.FromDataModelSlice(dms), nil
}

func (r *DepartmentRepository) Update(d *department.Department) error {
	dm := department.ToDataModel(d)
	result := r.db.Model(&departmentDatamodel.Department{}).
		Where("id = ?", dm.ID).
		Updates(map[string]interface{}{
			"name":          dm.Name,
			"head_actor_id": dm.HeadActorID,
			"is_active":     dm.IsActive,
			"updated_at":    dm.UpdatedAt,
		})
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return internal.ErrDuplicateName
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrDepartmentNotFound
	}
	return nil
}

// ReleaseHeadFor clears the head link on any department led by the
// given actor; used when a head account is deactivated.
func (r *DepartmentRepository) ReleaseHeadFor(actorID int64, now time.Time) error {
	return r.db.Model(&departmentDatamodel.Department{}).
		Where("head_actor_id = ?", actorID).
		Updates(map[string]interface{}{
			"head_actor_id": nil,
			"updated_at":    now,
		}).Error
}

func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
