package grants

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/gatehouse-hq/gatehouse/internal/platform/httpx"
)

// Handler wires HTTP endpoints for grant management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers grant routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listGrants)
	r.Post("/", h.createGrant)
	r.Get("/{grantID}", h.getGrant)
	r.Delete("/{grantID}", h.deleteGrant)
}

type createGrantRequest struct {
	SubjectType string `json:"subjectType" validate:"required,oneof=role user group"`
	SubjectID   int64  `json:"subjectId" validate:"required"`
	ScopeType   string `json:"scopeType" validate:"required,oneof=global org"`
	ScopeID     *int64 `json:"scopeId"`
	Right       string `json:"right" validate:"required"`
	Effect      string `json:"effect" validate:"omitempty,oneof=allow deny"`
}

func (h *Handler) listGrants(w http.ResponseWriter, r *http.Request) {
	subjectType := r.URL.Query().Get("subject_type")
	subjectID, err := strconv.ParseInt(r.URL.Query().Get("subject_id"), 10, 64)
	if subjectType == "" || err != nil || subjectID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "subject_type and subject_id required")
		return
	}
	grants, err := h.service.ListGrants(r.Context(), SubjectType(subjectType), subjectID)
	if err != nil {
		h.logger.Error("list grants", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"grants": grants})
}

func (h *Handler) createGrant(w http.ResponseWriter, r *http.Request) {
	var req createGrantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	grant, err := h.service.CreateGrant(r.Context(), CreateGrantInput{
		SubjectType: SubjectType(req.SubjectType),
		SubjectID:   req.SubjectID,
		ScopeType:   ScopeType(req.ScopeType),
		ScopeID:     req.ScopeID,
		Right:       req.Right,
		Effect:      Effect(req.Effect),
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, grant)
}

func (h *Handler) getGrant(w http.ResponseWriter, r *http.Request) {
	publicID, ok := h.pathUUID(w, r)
	if !ok {
		return
	}
	grant, err := h.service.GetGrant(r.Context(), publicID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, grant)
}

func (h *Handler) deleteGrant(w http.ResponseWriter, r *http.Request) {
	publicID, ok := h.pathUUID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteGrant(r.Context(), publicID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathUUID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "grantID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid grant id")
		return uuid.UUID{}, false
	}
	return id, true
}
