package auth

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/dwiprasetya/gatepass-management/internal/auth"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetCredentialsByEmail(email string) (string, int64, bool, error) {
	var passwordHash string
	var actorID int64
	var isActive bool
	query := `SELECT id, password_hash, is_active FROM actors WHERE email = ?`

	row := r.db.Raw(query, email).Row()
	if err := row.Scan(&actorID, &passwordHash, &isActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", 0, false, fmt.Errorf("actor not found")
		}
		return "", 0, false, err
	}
	return passwordHash, actorID, isActive, nil
}

func (r *Repository) GetActorByID(actorID int64) (*auth.Actor, error) {
	var actor auth.Actor
	query := `SELECT id, name, email, role, department, is_active FROM actors WHERE id = ?`

	row := r.db.Raw(query, actorID).Row()
	if err := row.Scan(&actor.ID, &actor.Name, &actor.Email, &actor.Role, &actor.Department, &actor.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("actor not found")
		}
		return nil, err
	}
	return &actor, nil
}
