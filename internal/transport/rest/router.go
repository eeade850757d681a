package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/dwiprasetya/gatepass-management/internal/actor"
	"github.com/dwiprasetya/gatepass-management/internal/auth"
	"github.com/dwiprasetya/gatepass-management/internal/department"
	"github.com/dwiprasetya/gatepass-management/internal/gatepass"
	"github.com/dwiprasetya/gatepass-management/internal/transport/middleware"
	"github.com/dwiprasetya/gatepass-management/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	authHandler *auth.Handler,
	rbac *auth.RoleAuthorization,
	actorHandler *actor.Handler,
	departmentHandler *department.Handler,
	gatePassHandler *gatepass.Handler,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Anonymous surface: submission form data, submission itself,
		// and the shareable status viewer. Submission accepts an
		// optional session so students can track their own requests.
		r.Get("/departments", departmentHandler.ListDepartments)
		r.With(authHandler.OptionalAuth).Post("/gatepass", gatePassHandler.Submit)
		r.Get("/viewer/{publicId}", gatePassHandler.PublicLookup)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", authHandler.Login)
			sr.Post("/refresh", authHandler.RefreshToken)
			sr.Post("/logout", authHandler.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.AuthMiddleware)

			pr.Get("/me", authHandler.Me)
			pr.Get("/my-requests", gatePassHandler.MyRequests)

			// Department head queue.
			pr.Route("/department", func(dr chi.Router) {
				dr.Use(rbac.RequireDepartmentHead())
				dr.Get("/gatepass/pending", gatePassHandler.PendingForDepartment)
				dr.Get("/gatepass", gatePassHandler.AllForDepartment)
				dr.Patch("/gatepass/{id}/decide", gatePassHandler.DepartmentDecide)
			})

			// Institution head: second approval stage plus administration.
			pr.Route("/institution", func(ir chi.Router) {
				ir.Use(rbac.RequireInstitutionHead())
				ir.Get("/gatepass/pending", gatePassHandler.PendingInstitution)
				ir.Get("/gatepass", gatePassHandler.AllPasses)
				ir.Get("/gatepass/stats", gatePassHandler.Stats)
				ir.Patch("/gatepass/{id}/decide", gatePassHandler.InstitutionDecide)
				ir.Delete("/gatepass/{id}", gatePassHandler.Delete)
				ir.Post("/reconcile", gatePassHandler.Reconcile)

				ir.Route("/actors", func(ar chi.Router) {
					ar.Get("/", actorHandler.ListActors)
					ar.Post("/", actorHandler.CreateActor)
					ar.Get("/{id}", actorHandler.GetActor)
					ar.Patch("/{id}", actorHandler.UpdateActor)
					ar.Delete("/{id}", actorHandler.DeactivateActor)
				})

				ir.Route("/departments", func(dpr chi.Router) {
					dpr.Post("/", departmentHandler.CreateDepartment)
					dpr.Get("/{id}", departmentHandler.GetDepartment)
					dpr.Patch("/{id}/rename", departmentHandler.RenameDepartment)
					dpr.Patch("/{id}/head", departmentHandler.AssignHead)
					dpr.Delete("/{id}/head", departmentHandler.RevokeHead)
					dpr.Delete("/{id}", departmentHandler.DeleteDepartment)
				})
			})

			// Gate desk.
			pr.Route("/gate", func(gr chi.Router) {
				gr.Use(rbac.RequireGateAttendant())
				gr.Get("/verify", gatePassHandler.VerifyForGate)
				gr.Post("/confirm-exit", gatePassHandler.ConfirmExit)
				gr.Get("/recent-exits", gatePassHandler.RecentExits)
			})
		})
	})
}
