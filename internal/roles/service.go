package roles

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gatehouse-hq/gatehouse/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	CreateRole(ctx context.Context, role Role) (Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	UpdateRole(ctx context.Context, role Role) (Role, error)
	ListRoles(ctx context.Context, orgID *int64) ([]Role, error)
	AssignUserRole(ctx context.Context, userID, roleID int64) (UserRoleLink, error)
	RemoveUserRole(ctx context.Context, userID, roleID int64) error
}

// OrgPort answers whether an organization exists.
type OrgPort interface {
	Exists(ctx context.Context, orgID int64) (bool, error)
}

// AuditPort records mutations.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CacheInvalidator bumps the decision cache version after committed writes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Service handles role business logic and write-path invariants.
type Service struct {
	repo   RepositoryPort
	org    OrgPort
	audit  AuditPort
	cache  CacheInvalidator
	logger *slog.Logger
}

// NewService builds Service instance. Audit and cache may be nil in tests.
func NewService(repo RepositoryPort, org OrgPort, audit AuditPort, cache CacheInvalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, org: org, audit: audit, cache: cache, logger: logger}
}

// CreateRoleInput describes creation payload.
type CreateRoleInput struct {
	Key         string
	Name        string
	Description string
	IsGlobal    bool
	OrgID       *int64
}

// CreateRole validates the global/org invariant and persists the role.
func (s *Service) CreateRole(ctx context.Context, input CreateRoleInput) (Role, error) {
	key := strings.TrimSpace(input.Key)
	name := strings.TrimSpace(input.Name)
	if key == "" || name == "" {
		return Role{}, fmt.Errorf("roles: key and name required: %w", shared.ErrValidation)
	}
	if err := s.validateScope(ctx, input.IsGlobal, input.OrgID); err != nil {
		return Role{}, err
	}
	role := Role{
		Key:         key,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Status:      StatusActive,
		IsGlobal:    input.IsGlobal,
		OrgID:       input.OrgID,
	}
	created, err := s.repo.CreateRole(ctx, role)
	if err != nil {
		return Role{}, err
	}
	s.recordAudit(ctx, "ROLE_CREATE", created.ID, nil, created)
	s.invalidate(ctx)
	return created, nil
}

// UpdateRoleInput describes mutable role fields.
type UpdateRoleInput struct {
	Name        string
	Description string
	Status      Status
}

// UpdateRole changes name, description or status. Scope is immutable after
// creation; re-scoping a role would silently re-scope every grant on it.
func (s *Service) UpdateRole(ctx context.Context, id int64, input UpdateRoleInput) (Role, error) {
	before, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return Role{}, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Role{}, fmt.Errorf("roles: name required: %w", shared.ErrValidation)
	}
	if input.Status != StatusActive && input.Status != StatusDisabled {
		return Role{}, fmt.Errorf("roles: unknown status %q: %w", input.Status, shared.ErrValidation)
	}
	updated := before
	updated.Name = name
	updated.Description = strings.TrimSpace(input.Description)
	updated.Status = input.Status
	after, err := s.repo.UpdateRole(ctx, updated)
	if err != nil {
		return Role{}, err
	}
	s.recordAudit(ctx, "ROLE_UPDATE", id, before, after)
	s.invalidate(ctx)
	return after, nil
}

// GetRole fetches a role by id.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// ListRoles returns roles, optionally filtered to one organization.
func (s *Service) ListRoles(ctx context.Context, orgID *int64) ([]Role, error) {
	return s.repo.ListRoles(ctx, orgID)
}

// AssignUserRole links a role directly to a user.
func (s *Service) AssignUserRole(ctx context.Context, userID, roleID int64) (UserRoleLink, error) {
	if userID == 0 || roleID == 0 {
		return UserRoleLink{}, fmt.Errorf("roles: user id and role id required: %w", shared.ErrValidation)
	}
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return UserRoleLink{}, err
	}
	link, err := s.repo.AssignUserRole(ctx, userID, roleID)
	if err != nil {
		return UserRoleLink{}, err
	}
	s.recordAudit(ctx, "USER_ROLE_ASSIGN", link.ID, nil, link)
	s.invalidate(ctx)
	return link, nil
}

// RemoveUserRole removes a direct user-role assignment.
func (s *Service) RemoveUserRole(ctx context.Context, userID, roleID int64) error {
	if err := s.repo.RemoveUserRole(ctx, userID, roleID); err != nil {
		return err
	}
	s.recordAudit(ctx, "USER_ROLE_REMOVE", roleID, UserRoleLink{UserID: userID, RoleID: roleID}, nil)
	s.invalidate(ctx)
	return nil
}

func (s *Service) validateScope(ctx context.Context, isGlobal bool, orgID *int64) error {
	if isGlobal && orgID != nil {
		return fmt.Errorf("roles: global role cannot carry an org id: %w", shared.ErrValidation)
	}
	if !isGlobal {
		if orgID == nil {
			return fmt.Errorf("roles: org-scoped role requires an org id: %w", shared.ErrValidation)
		}
		ok, err := s.org.Exists(ctx, *orgID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("roles: organization %d: %w", *orgID, shared.ErrNotFound)
		}
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action string, entityID int64, before, after any) {
	if s.audit == nil {
		return
	}
	actor, _ := shared.ActorFromContext(ctx)
	log := shared.AuditLog{
		ActorType: actor.Type,
		ActorID:   actor.ID,
		Action:    action,
		Entity:    "role",
		EntityID:  strconv.FormatInt(entityID, 10),
		Before:    before,
		After:     after,
	}
	if err := s.audit.Record(ctx, log); err != nil {
		s.logger.Error("record audit", slog.String("action", action), slog.Any("error", err))
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate decision cache", slog.Any("error", err))
	}
}
