package postgres

import (
	"errors"
	"strings"
	"time"

	"github.com/dwiprasetya/gatepass-management/internal"
	"github.com/dwiprasetya/gatepass-management/internal/actor"
	actorDatamodel "github.com/dwiprasetya/gatepass-management/internal/core/datamodel/actor"
	"gorm.io/gorm"
)

// ActorRepository implements the actor.Repository interface using GORM
type ActorRepository struct {
	db *gorm.DB
}

func NewActorRepository(db *gorm.DB) *ActorRepository {
	return &ActorRepository{db: db}
}

func (r *ActorRepository) Create(a *actor.Actor) error {
	dm := actor.ToDataModel(a)
	if err := r.db.Create(dm).Error; err != nil {
		if isDuplicateKeyError(err) {
			return internal.ErrDuplicateEmail
		}
		return err
	}
	a.ID = dm.ID
	return nil
}

func (r *ActorRepository) GetByID(id int64) (*actor.Actor, error) {
	var dm actorDatamodel.Actor
	err := r.db.Where("id = ?", id).First(&dm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrActorNotFound
		}
		return nil, err
	}
	return actor.FromDataModel(&dm), nil
}

func (r *ActorRepository) GetByEmail(email string) (*actor.Actor, error) {
	var dm actorDatamodel.Actor
	err := r.db.Where("email = ?", email).First(&dm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrActorNotFound
		}
		return nil, err
	}
	return actor.FromDataModel(&dm), nil
}

func (r *ActorRepository) List(limit, offset int) ([]*actor.Actor, error) {
	var dms []*actorDatamodel.Actor
	err := r.db.Order("name ASC").
		Limit(limit).
		Offset(offset).
		Find(&dms).Error
	if err != nil {
		return nil, err
	}
	return actor.FromDataModelSlice(dms), nil
}

func (r *ActorRepository) Update(a *actor.Actor) error {
	dm := actor.ToDataModel(a)
	if err := r.db.Save(dm).Error; err != nil {
		if isDuplicateKeyError(err) {
			return internal.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *ActorRepository) Deactivate(id int64, now time.Time) error {
	result := r.db.Model(&actorDatamodel.Actor{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrActorNotFound
	}
	return nil
}

// SetDepartment rewrites the department column; used by the registry
// when heads are assigned, revoked or their department is renamed.
func (r *ActorRepository) SetDepartment(actorID int64, department *string, now time.Time) error {
	return r.db.Model(&actorDatamodel.Actor{}).
		Where("id = ?", actorID).
		Updates(map[string]interface{}{
			"department": department,
			"updated_at": now,
		}).Error
}

func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
