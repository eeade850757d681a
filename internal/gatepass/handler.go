package gatepass

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dwiprasetya/gatepass-management/internal/auth"
	"github.com/dwiprasetya/gatepass-management/internal/transport"
	"github.com/dwiprasetya/gatepass-management/pkg/logger"
	"github.com/go-chi/chi"
)

// maxSubmitFormSize caps the multipart submission (photos included).
const maxSubmitFormSize = 10 << 20

type ServiceAPI interface {
	Submit(dto CreateGatePassDTO) (*GatePass, error)
	DepartmentDecide(gatePassID, actorID int64, actorDepartment *string, dto DecisionDTO) (*GatePass, error)
	InstitutionDecide(gatePassID, actorID int64, dto DecisionDTO) (*GatePass, error)
	VerifyForGate(publicID string) (*GatePass, error)
	ConfirmExit(publicID string, actorID int64) (*GatePass, error)
	ReconcileStale() (int64, error)
	Delete(ctx context.Context, gatePassID int64) error
	PublicLookup(publicID string) (*PublicView, error)
	PendingForDepartment(department string, limit, offset int) ([]*GatePass, error)
	AllForDepartment(department string, limit, offset int) ([]*GatePass, error)
	PendingInstitution(limit, offset int) ([]*GatePass, error)
	AllPasses(limit, offset int) ([]*GatePass, error)
	MyRequests(requesterActorID int64, limit, offset int) ([]*GatePass, error)
	RecentExits(limit int) ([]*GatePass, error)
	Stats() (*Stats, error)
}

// ImageStore uploads submitted photos before the service is invoked.
type ImageStore interface {
	Store(ctx context.Context, file io.Reader, filename string) (string, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Images  ImageStore
}

func NewHandler(service ServiceAPI, images ImageStore) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
		Images:      images,
	}
}

// Submit accepts the public multipart submission form: text fields plus
// an evidence photo and an optional companion photo.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxSubmitFormSize); err != nil {
		h.Logger.Error("Submit: invalid multipart form", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	dto := CreateGatePassDTO{
		RequesterName:  r.FormValue("requester_name"),
		DepartmentName: r.FormValue("department_name"),
		Reason:         r.FormValue("reason"),
	}
	// Submission is anonymous, but a logged-in requester gets the pass
	// tied to their account so it shows up under /my-requests.
	if actor, ok := auth.ActorFromContext(r.Context()); ok {
		dto.RequesterActorID = &actor.ID
	}
	if v := r.FormValue("requester_external_id"); v != "" {
		dto.RequesterExternalID = &v
	}
	if v := r.FormValue("companion_name"); v != "" {
		dto.CompanionName = &v
	}

	evidenceRef, ok := h.storeFormFile(w, r, "evidence_photo")
	if !ok {
		return
	}
	dto.EvidencePhotoRef = evidenceRef

	if _, header, err := r.FormFile("companion_photo"); err == nil && header != nil {
		companionRef, ok := h.storeFormFile(w, r, "companion_photo")
		if !ok {
			return
		}
		dto.CompanionPhotoRef = &companionRef
	}

	gp, err := h.Service.Submit(dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("Submit: gate pass created",
		"gate_pass_id", gp.ID,
		"public_id", gp.PublicID,
		"department", gp.DepartmentName)

	h.WriteJSON(w, http.StatusCreated, gp)
}

// storeFormFile uploads one multipart file part and returns the image
// reference. Writes the error response itself on failure.
func (h *Handler) storeFormFile(w http.ResponseWriter, r *http.Request, field string) (string, bool) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if field == "evidence_photo" {
			h.WriteError(w, http.StatusBadRequest, "evidence photo is required")
		} else {
			h.WriteError(w, http.StatusBadRequest, "invalid "+field+" upload")
		}
		return "", false
	}
	defer file.Close()

	ref, err := h.Images.Store(r.Context(), file, header.Filename)
	if err != nil {
		h.Logger.Error("failed to store uploaded photo", "field", field, "error", err)
		h.WriteError(w, http.StatusBadGateway, "failed to store uploaded photo")
		return "", false
	}

	return ref, true
}

// PublicLookup serves the anonymous status viewer.
func (h *Handler) PublicLookup(w http.ResponseWriter, r *http.Request) {
	publicID := chi.URLParam(r, "publicId")
	if publicID == "" {
		h.WriteError(w, http.StatusBadRequest, "gate pass id is required")
		return
	}

	view, err := h.Service.PublicLookup(publicID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) DepartmentDecide(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	gatePassID, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var dto DecisionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	gp, err := h.Service.DepartmentDecide(gatePassID, actor.ID, actor.Department, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, gp)
}

func (h *Handler) InstitutionDecide(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	gatePassID, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var dto DecisionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	gp, err := h.Service.InstitutionDecide(gatePassID, actor.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, gp)
}

// VerifyForGate shows the gate attendant the full pass for an id typed
// or scanned at the gate.
func (h *Handler) VerifyForGate(w http.ResponseWriter, r *http.Request) {
	publicID := r.URL.Query().Get("public_id")
	if publicID == "" {
		h.WriteError(w, http.StatusBadRequest, "public_id query parameter is required")
		return
	}

	gp, err := h.Service.VerifyForGate(publicID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, gp)
}

func (h *Handler) ConfirmExit(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body struct {
		PublicID string `json:"public_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.PublicID == "" {
		h.WriteError(w, http.StatusBadRequest, "public_id is required")
		return
	}

	gp, err := h.Service.ConfirmExit(body.PublicID, actor.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("ConfirmExit: exit confirmed", "public_id", gp.PublicID, "actor_id", actor.ID)
	h.WriteJSON(w, http.StatusOK, gp)
}

func (h *Handler) RecentExits(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	passes, err := h.Service.RecentExits(limit)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"gate_passes": passes, "limit": limit})
}

// PendingForDepartment lists the authenticated head's own queue.
func (h *Handler) PendingForDepartment(w http.ResponseWriter, r *http.Request) {
	h.listForDepartment(w, r, true)
}

func (h *Handler) AllForDepartment(w http.ResponseWriter, r *http.Request) {
	h.listForDepartment(w, r, false)
}

func (h *Handler) listForDepartment(w http.ResponseWriter, r *http.Request, pendingOnly bool) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if actor.Department == nil || *actor.Department == "" {
		h.Logger.Warn("department list denied: no department assigned", "actor_id", actor.ID)
		h.WriteError(w, http.StatusForbidden, "no department assigned")
		return
	}

	limit, offset := h.pagination(r)

	var passes []*GatePass
	var err error
	if pendingOnly {
		passes, err = h.Service.PendingForDepartment(*actor.Department, limit, offset)
	} else {
		passes, err = h.Service.AllForDepartment(*actor.Department, limit, offset)
	}
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ListResponse{GatePasses: passes, Limit: limit, Offset: offset})
}

func (h *Handler) PendingInstitution(w http.ResponseWriter, r *http.Request) {
	limit, offset := h.pagination(r)

	passes, err := h.Service.PendingInstitution(limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ListResponse{GatePasses: passes, Limit: limit, Offset: offset})
}

func (h *Handler) AllPasses(w http.ResponseWriter, r *http.Request) {
	limit, offset := h.pagination(r)

	passes, err := h.Service.AllPasses(limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ListResponse{GatePasses: passes, Limit: limit, Offset: offset})
}

func (h *Handler) MyRequests(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := h.pagination(r)

	passes, err := h.Service.MyRequests(actor.ID, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ListResponse{GatePasses: passes, Limit: limit, Offset: offset})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	gatePassID, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), gatePassID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	demoted, err := h.Service.ReconcileStale()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]int64{"demoted": demoted})
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.Logger.Error("invalid gate pass ID", "id", idStr)
		h.WriteError(w, http.StatusBadRequest, "invalid gate pass ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) pagination(r *http.Request) (int, int) {
	limit := 20
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	return limit, offset
}
