package grants

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/gatehouse-hq/gatehouse/internal/shared"
)

// RepositoryPort defines data access methods for grants.
type RepositoryPort interface {
	CreateGrant(ctx context.Context, grant Grant) (Grant, error)
	GetGrant(ctx context.Context, publicID uuid.UUID) (Grant, error)
	DeleteGrant(ctx context.Context, publicID uuid.UUID) (Grant, error)
	ListGrants(ctx context.Context, subjectType SubjectType, subjectID int64) ([]Grant, error)
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

// Service handles grant business logic.
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

// CreateGrantInput describes creation payload.
type CreateGrantInput struct {
	SubjectType SubjectType
	SubjectID   int64
	ScopeType   ScopeType
	ScopeID     *int64
	Right       string
	Effect      Effect
}

// CreateGrant validates scope consistency and persists the grant. The right
// is stored as given; wildcard patterns are legal and unknown rights are
// not rejected.
func (s *Service) CreateGrant(ctx context.Context, input CreateGrantInput) (Grant, error) {
	right := strings.TrimSpace(input.Right)
	if right == "" {
		return Grant{}, fmt.Errorf("grants: right required: %w", shared.ErrValidation)
	}
	switch input.SubjectType {
	case SubjectRole, SubjectUser, SubjectGroup:
	default:
		return Grant{}, fmt.Errorf("grants: unknown subject type %q: %w", input.SubjectType, shared.ErrValidation)
	}
	if input.SubjectID == 0 {
		return Grant{}, fmt.Errorf("grants: subject id required: %w", shared.ErrValidation)
	}
	effect := input.Effect
	if effect == "" {
		effect = EffectAllow
	}
	if effect != EffectAllow && effect != EffectDeny {
		return Grant{}, fmt.Errorf("grants: unknown effect %q: %w", input.Effect, shared.ErrValidation)
	}
	switch input.ScopeType {
	case ScopeGlobal:
		if input.ScopeID != nil {
			return Grant{}, fmt.Errorf("grants: global grant cannot carry a scope id: %w", shared.ErrValidation)
		}
	case ScopeOrg:
		if input.ScopeID == nil {
			return Grant{}, fmt.Errorf("grants: org-scoped grant requires a scope id: %w", shared.ErrValidation)
		}
		ok, err := s.org.Exists(ctx, *input.ScopeID)
		if err != nil {
			return Grant{}, err
		}
		if !ok {
			return Grant{}, fmt.Errorf("grants: organization %d: %w", *input.ScopeID, shared.ErrNotFound)
		}
	default:
		return Grant{}, fmt.Errorf("grants: unknown scope type %q: %w", input.ScopeType, shared.ErrValidation)
	}

	actor, _ := shared.ActorFromContext(ctx)
	grant := Grant{
		PublicID:      uuid.New(),
		SubjectType:   input.SubjectType,
		SubjectID:     input.SubjectID,
		ScopeType:     input.ScopeType,
		ScopeID:       input.ScopeID,
		Right:         right,
		Effect:        effect,
		CreatedByType: actor.Type,
		CreatedByID:   actor.ID,
	}
	created, err := s.repo.CreateGrant(ctx, grant)
	if err != nil {
		return Grant{}, err
	}
	s.recordAudit(ctx, "GRANT_CREATE", created.PublicID.String(), nil, created)
	s.invalidate(ctx)
	return created, nil
}

// GetGrant fetches a grant by public id.
func (s *Service) GetGrant(ctx context.Context, publicID uuid.UUID) (Grant, error) {
	return s.repo.GetGrant(ctx, publicID)
}

// DeleteGrant removes a grant by public id.
func (s *Service) DeleteGrant(ctx context.Context, publicID uuid.UUID) error {
	deleted, err := s.repo.DeleteGrant(ctx, publicID)
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "GRANT_DELETE", publicID.String(), deleted, nil)
	s.invalidate(ctx)
	return nil
}

// ListGrants returns grants attached to one subject.
func (s *Service) ListGrants(ctx context.Context, subjectType SubjectType, subjectID int64) ([]Grant, error) {
	switch subjectType {
	case SubjectRole, SubjectUser, SubjectGroup:
	default:
		return nil, fmt.Errorf("grants: unknown subject type %q: %w", subjectType, shared.ErrValidation)
	}
	return s.repo.ListGrants(ctx, subjectType, subjectID)
}

func (s *Service) recordAudit(ctx context.Context, action, entityID string, before, after any) {
	if s.audit == nil {
		return
	}
	actor, _ := shared.ActorFromContext(ctx)
	log := shared.AuditLog{
		ActorType: actor.Type,
		ActorID:   actor.ID,
		Action:    action,
		Entity:    "grant",
		EntityID:  entityID,
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
