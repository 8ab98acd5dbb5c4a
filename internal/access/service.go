package access

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/gatehouse-hq/gatehouse/internal/shared"
)

// RepositoryPort describes the reads the decision path performs. Missing
// rows yield empty results; errors are reserved for storage failures, which
// propagate to the caller and are never treated as "allow".
type RepositoryPort interface {
	UserRoleIDs(ctx context.Context, userID int64) ([]int64, error)
	UserGroupIDs(ctx context.Context, userID int64) ([]int64, error)
	GroupRoleIDs(ctx context.Context, groupIDs []int64) ([]int64, error)
	RolesByIDs(ctx context.Context, ids []int64) ([]RoleRef, error)
	GroupsByIDs(ctx context.Context, ids []int64) ([]GroupRef, error)
	GrantsForSubjects(ctx context.Context, subjects []Subject, orgID *int64) ([]GrantRow, error)
	OrgExists(ctx context.Context, orgID int64) (bool, error)
}

// DecisionMetrics counts decision outcomes.
type DecisionMetrics interface {
	ObserveDecision(reason string)
}

// Service orchestrates resolution, grant aggregation and effect evaluation.
// Decisions are pure reads; concurrent checks never interfere.
type Service struct {
	repo     RepositoryPort
	resolver *Resolver
	cache    *DecisionCache
	metrics  DecisionMetrics
	logger   *slog.Logger
	flight   singleflight.Group
	now      func() time.Time
}

// NewService constructs the decision service. Cache and metrics are
// optional; a nil cache disables decision caching entirely.
func NewService(repo RepositoryPort, cache *DecisionCache, metrics DecisionMetrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		resolver: NewResolver(repo),
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// CheckInput carries the parameters of one access check.
type CheckInput struct {
	UserID int64
	OrgID  *int64
	Right  string
}

// CheckRight decides whether the user may perform the right in the given
// scope. Denial is a successful return value; only structurally invalid
// input or a storage failure produces an error.
func (s *Service) CheckRight(ctx context.Context, input CheckInput) (Decision, error) {
	right := strings.TrimSpace(input.Right)
	if input.UserID == 0 {
		return Decision{}, fmt.Errorf("access: user id required: %w", shared.ErrValidation)
	}
	if right == "" {
		return Decision{}, fmt.Errorf("access: right required: %w", shared.ErrValidation)
	}
	if input.OrgID != nil {
		ok, err := s.repo.OrgExists(ctx, *input.OrgID)
		if err != nil {
			return Decision{}, err
		}
		if !ok {
			return Decision{}, fmt.Errorf("access: organization %d: %w", *input.OrgID, shared.ErrNotFound)
		}
	}

	version, err := s.cache.Version(ctx)
	if err != nil {
		s.logger.Warn("decision cache version", slog.Any("error", err))
		version = -1
	}
	key := decisionKey(version, input.UserID, input.OrgID, right)
	if version >= 0 {
		if cached, ok := s.cache.Get(ctx, key); ok {
			s.observe(cached.Reason)
			return cached, nil
		}
	}

	// Concurrent identical checks collapse into one evaluation. The key
	// includes the cache version so a write between two calls never hands
	// the second caller a pre-write result.
	resultChan := s.flight.DoChan(key, func() (any, error) {
		return s.evaluate(ctx, input.UserID, input.OrgID, right)
	})
	var decision Decision
	select {
	case <-ctx.Done():
		return Decision{}, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return Decision{}, res.Err
		}
		decision = res.Val.(Decision)
	}

	if version >= 0 {
		s.cache.Put(ctx, key, decision)
	}
	s.observe(decision.Reason)
	return decision, nil
}

func (s *Service) evaluate(ctx context.Context, userID int64, orgID *int64, right string) (Decision, error) {
	resolution, err := s.resolver.Resolve(ctx, userID, orgID)
	if err != nil {
		return Decision{}, err
	}

	subjects := make([]Subject, len(resolution.Subjects))
	layers := make(map[Subject]Layer, len(resolution.Subjects))
	for i, es := range resolution.Subjects {
		subjects[i] = es.Subject
		layers[es.Subject] = es.Layer
	}

	grants, err := s.repo.GrantsForSubjects(ctx, subjects, orgID)
	if err != nil {
		return Decision{}, err
	}

	entries := make([]EffectEntry, len(grants))
	for i, grant := range grants {
		entries[i] = EffectEntry{Right: grant.Right, Effect: grant.Effect}
	}
	verdict := EvaluateEffects(entries, right)

	explain := make([]MatchedGrant, 0, len(verdict.Matched))
	for _, idx := range verdict.Matched {
		grant := grants[idx]
		explain = append(explain, MatchedGrant{
			GrantID: grant.ID,
			Subject: grant.Subject,
			Layer:   layers[grant.Subject],
			Right:   grant.Right,
			Effect:  grant.Effect,
		})
	}

	return Decision{
		Allowed:       verdict.Allowed,
		Reason:        verdict.Reason,
		DecisionLayer: dominantLayer(explain),
		Explain:       explain,
		Context: DecisionContext{
			UserID:      userID,
			OrgID:       orgID,
			Right:       right,
			RoleIDs:     resolution.RoleIDs,
			GroupIDs:    resolution.GroupIDs,
			TraceID:     uuid.NewString(),
			EvaluatedAt: s.now().UTC(),
		},
	}, nil
}

func (s *Service) observe(reason Reason) {
	if s.metrics != nil {
		s.metrics.ObserveDecision(string(reason))
	}
}

// dominantLayer reports the most direct resolution path among the deciding
// entries; the full per-entry breakdown stays in Explain.
func dominantLayer(matched []MatchedGrant) Layer {
	precedence := []Layer{LayerUserDirect, LayerRole, LayerGroupRole, LayerGroup}
	present := make(map[Layer]bool, len(matched))
	for _, m := range matched {
		present[m.Layer] = true
	}
	for _, layer := range precedence {
		if present[layer] {
			return layer
		}
	}
	return ""
}

func decisionKey(version, userID int64, orgID *int64, right string) string {
	scope := "global"
	if orgID != nil {
		scope = strconv.FormatInt(*orgID, 10)
	}
	return fmt.Sprintf("gatehouse:decision:%d:%d:%s:%s", version, userID, scope, right)
}
