package access

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/gatehouse-hq/gatehouse/internal/platform/httpx"
	"github.com/gatehouse-hq/gatehouse/internal/rights"
)

const (
	checkRateLimit  = 120
	checkRateWindow = time.Minute
)

// DecisionService is the business contract the handler consumes.
type DecisionService interface {
	CheckRight(ctx context.Context, input CheckInput) (Decision, error)
}

// Handler exposes the decision endpoint and the advisory rights catalog.
type Handler struct {
	logger    *slog.Logger
	service   DecisionService
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service DecisionService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers access routes.
func (h *Handler) MountRoutes(r chi.Router) {
	limiter := httprate.Limit(checkRateLimit, checkRateWindow,
		httprate.WithKeyFuncs(checkRateKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "")
		}),
	)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Post("/check", h.handleCheck)
	})
	r.Get("/rights", h.handleRights)
}

type checkRequest struct {
	UserID int64  `json:"userId" validate:"required"`
	OrgID  *int64 `json:"orgId"`
	Right  string `json:"right" validate:"required"`
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	decision, err := h.service.CheckRight(r.Context(), CheckInput{
		UserID: req.UserID,
		OrgID:  req.OrgID,
		Right:  req.Right,
	})
	if err != nil {
		h.logger.Error("check right", slog.Int64("user_id", req.UserID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, decision)
}

func (h *Handler) handleRights(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"rights": rights.List()})
}

func checkRateKey(r *http.Request) (string, error) {
	if user := r.Header.Get("X-Actor-ID"); user != "" {
		return "actor:" + user, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
