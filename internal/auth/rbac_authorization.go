package auth

import (
	"log/slog"
	"net/http"
)

// RoleAuthorization gates routes on the actor's role. Roles are fixed
// at account creation, so no lookup is needed beyond the context actor.
type RoleAuthorization struct {
	logger *slog.Logger
}

func NewRoleAuthorization(logger *slog.Logger) *RoleAuthorization {
	return &RoleAuthorization{logger: logger}
}

func (ra *RoleAuthorization) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				ra.logger.Warn("authorization check failed: actor not found in context")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !actor.HasAnyRole(roles...) {
				ra.logger.WarnContext(r.Context(), "access denied: role not permitted",
					"actor_id", actor.ID,
					"actor_role", actor.Role,
					"required_roles", roles)
				http.Error(w, "Forbidden: insufficient role", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RoleAuthorization) RequireDepartmentHead() func(http.Handler) http.Handler {
	return ra.RequireRole(RoleDepartmentHead)
}

func (ra *RoleAuthorization) RequireInstitutionHead() func(http.Handler) http.Handler {
	return ra.RequireRole(RoleInstitutionHead)
}

func (ra *RoleAuthorization) RequireGateAttendant() func(http.Handler) http.Handler {
	return ra.RequireRole(RoleGateAttendant)
}

func (ra *RoleAuthorization) RequireApprover() func(http.Handler) http.Handler {
	return ra.RequireRole(RoleDepartmentHead, RoleInstitutionHead)
}
