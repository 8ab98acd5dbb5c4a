package groups

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gatehouse-hq/gatehouse/internal/platform/httpx"
)

// Handler wires HTTP endpoints for group management.
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

// MountRoutes registers group routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listGroups)
	r.Post("/", h.createGroup)
	r.Get("/{groupID}", h.getGroup)
	r.Put("/{groupID}", h.updateGroup)
	r.Post("/{groupID}/roles", h.linkRole)
	r.Delete("/{groupID}/roles/{roleID}", h.unlinkRole)
	r.Get("/{groupID}/members", h.listMembers)
	r.Post("/{groupID}/members", h.addMember)
	r.Post("/{groupID}/members/bulk", h.addMembers)
	r.Delete("/{groupID}/members/{userID}", h.removeMember)
}

type createGroupRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	IsGlobal    bool   `json:"isGlobal"`
	OrgID       *int64 `json:"orgId"`
}

type updateGroupRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Status      string `json:"status" validate:"required,oneof=active disabled"`
}

type linkRoleRequest struct {
	RoleID int64 `json:"roleId" validate:"required"`
}

type addMemberRequest struct {
	UserID int64 `json:"userId" validate:"required"`
}

type addMembersRequest struct {
	UserIDs []int64 `json:"userIds" validate:"required,min=1"`
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	var orgID *int64
	if raw := r.URL.Query().Get("org_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid org_id")
			return
		}
		orgID = &id
	}
	groups, err := h.service.ListGroups(r.Context(), orgID)
	if err != nil {
		h.logger.Error("list groups", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"groups": groups})
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if !h.decode(w, r, &req) {
		return
	}
	group, err := h.service.CreateGroup(r.Context(), CreateGroupInput{
		Name:        req.Name,
		Description: req.Description,
		IsGlobal:    req.IsGlobal,
		OrgID:       req.OrgID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, group)
}

func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "groupID")
	if !ok {
		return
	}
	group, err := h.service.GetGroup(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, group)
}

func (h *Handler) updateGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "groupID")
	if !ok {
		return
	}
	var req updateGroupRequest
	if !h.decode(w, r, &req) {
		return
	}
	group, err := h.service.UpdateGroup(r.Context(), id, UpdateGroupInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      Status(req.Status),
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, group)
}

func (h *Handler) linkRole(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.pathID(w, r, "groupID")
	if !ok {
		return
	}
	var req linkRoleRequest
	if !h.decode(w, r, &req) {
		return
	}
	link, err := h.service.LinkRole(r.Context(), groupID, req.RoleID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, link)
}

func (h *Handler) unlinkRole(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.pathID(w, r, "groupID")
	if !ok {
		return
	}
	roleID, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}
	if err := h.service.UnlinkRole(r.Context(), groupID, roleID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.pathID(w, r, "groupID")
	if !ok {
		return
	}
	members, err := h.service.ListMembers(r.Context(), groupID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"members": members})
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.pathID(w, r, "groupID")
	if !ok {
		return
	}
	var req addMemberRequest
	if !h.decode(w, r, &req) {
		return
	}
	link, err := h.service.AddMember(r.Context(), groupID, req.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, link)
}

func (h *Handler) addMembers(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.pathID(w, r, "groupID")
	if !ok {
		return
	}
	var req addMembersRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.service.AddMembers(r.Context(), groupID, req.UserIDs)
	if err != nil {
		var inactive *InactiveMembersError
		if errors.As(err, &inactive) {
			httpx.JSON(w, http.StatusBadRequest, map[string]any{
				"title":          "Validation Failed",
				"status":         http.StatusBadRequest,
				"detail":         "some users are not active members of the group org",
				"failingUserIds": inactive.UserIDs,
			})
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.pathID(w, r, "groupID")
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	if err := h.service.RemoveMember(r.Context(), groupID, userID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid "+name)
		return 0, false
	}
	return id, true
}
