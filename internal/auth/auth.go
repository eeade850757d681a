package auth

import (
	"context"
	"time"

	"github.com/dwiprasetya/gatepass-management/internal"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleDepartmentHead  = "department_head"
	RoleInstitutionHead = "institution_head"
	RoleGateAttendant   = "gate_attendant"
	RoleStudent         = "student"
)

type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthTokens, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetActorByID(actorID int64) (*Actor, error)
	HashPassword(password string) (string, error)
}

type RepositoryAPI interface {
	GetCredentialsByEmail(email string) (passwordHash string, actorID int64, isActive bool, err error)
	GetActorByID(actorID int64) (*Actor, error)
}

type TokenGeneratorAPI interface {
	GenerateAccessToken(actorID string, email, role string) (token string, err error)
	GenerateRefreshToken(actorID string, email, role string) (token string, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Actor is the authenticated identity carried through request contexts.
// Department is only set for department heads.
type Actor struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Role       string  `json:"role"`
	Department *string `json:"department,omitempty"`
	IsActive   bool    `json:"is_active"`
}

func (a *Actor) IsDepartmentHead() bool {
	return a.Role == RoleDepartmentHead
}

func (a *Actor) IsInstitutionHead() bool {
	return a.Role == RoleInstitutionHead
}

func (a *Actor) IsGateAttendant() bool {
	return a.Role == RoleGateAttendant
}

func (a *Actor) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if a.Role == role {
			return true
		}
	}
	return false
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Claims struct {
	ActorID string `json:"actor_id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

var (
	ErrInvalidCredentials = internal.ErrInvalidCredentials
	ErrInvalidToken       = internal.ErrInvalidToken
	ErrTokenExpired       = internal.ErrTokenExpired
	ErrActorInactive      = internal.ErrUserInactive
)

// ActorFromContext retrieves the authenticated actor placed there by AuthMiddleware.
func ActorFromContext(ctx context.Context) (*Actor, bool) {
	if ctx == nil {
		return nil, false
	}
	actor, ok := ctx.Value(internal.ContextActorKey).(*Actor)
	return actor, ok && actor != nil
}

func ContextWithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, internal.ContextActorKey, actor)
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
