package groups

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/gatehouse-hq/gatehouse/internal/shared"
)

// RepositoryPort defines data access methods for groups and their links.
type RepositoryPort interface {
	CreateGroup(ctx context.Context, group Group) (Group, error)
	GetGroup(ctx context.Context, id int64) (Group, error)
	UpdateGroup(ctx context.Context, group Group) (Group, error)
	ListGroups(ctx context.Context, orgID *int64) ([]Group, error)
	RoleScope(ctx context.Context, roleID int64) (RoleScope, error)
	LinkRole(ctx context.Context, groupID, roleID int64) (GroupRoleLink, error)
	UnlinkRole(ctx context.Context, groupID, roleID int64) error
	AddMember(ctx context.Context, groupID, userID int64) (GroupMemberLink, error)
	AddMembers(ctx context.Context, groupID int64, userIDs []int64) (int64, error)
	RemoveMember(ctx context.Context, groupID, userID int64) error
	ListMembers(ctx context.Context, groupID int64) ([]GroupMemberLink, error)
}

// MembershipPort answers organization membership questions. It is consulted
// once, at link-creation time; memberships are deliberately not re-checked
// on later decisions.
type MembershipPort interface {
	IsActiveMember(ctx context.Context, orgID, userID int64) (bool, error)
	ActiveMemberSet(ctx context.Context, orgID int64, userIDs []int64) (map[int64]struct{}, error)
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

// Service handles group business logic and the write-path invariants.
type Service struct {
	repo       RepositoryPort
	membership MembershipPort
	org        OrgPort
	audit      AuditPort
	cache      CacheInvalidator
	logger     *slog.Logger
}

// NewService builds Service instance. Audit and cache may be nil in tests.
func NewService(repo RepositoryPort, membership MembershipPort, org OrgPort, audit AuditPort, cache CacheInvalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, membership: membership, org: org, audit: audit, cache: cache, logger: logger}
}

// CreateGroupInput describes creation payload.
type CreateGroupInput struct {
	Name        string
	Description string
	IsGlobal    bool
	OrgID       *int64
}

// CreateGroup validates the global/org invariant and persists the group.
func (s *Service) CreateGroup(ctx context.Context, input CreateGroupInput) (Group, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Group{}, fmt.Errorf("groups: name required: %w", shared.ErrValidation)
	}
	if input.IsGlobal && input.OrgID != nil {
		return Group{}, fmt.Errorf("groups: global group cannot carry an org id: %w", shared.ErrValidation)
	}
	if !input.IsGlobal {
		if input.OrgID == nil {
			return Group{}, fmt.Errorf("groups: org-scoped group requires an org id: %w", shared.ErrValidation)
		}
		ok, err := s.org.Exists(ctx, *input.OrgID)
		if err != nil {
			return Group{}, err
		}
		if !ok {
			return Group{}, fmt.Errorf("groups: organization %d: %w", *input.OrgID, shared.ErrNotFound)
		}
	}
	group := Group{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Status:      StatusActive,
		IsGlobal:    input.IsGlobal,
		OrgID:       input.OrgID,
	}
	created, err := s.repo.CreateGroup(ctx, group)
	if err != nil {
		return Group{}, err
	}
	s.recordAudit(ctx, "GROUP_CREATE", created.ID, nil, created)
	s.invalidate(ctx)
	return created, nil
}

// UpdateGroupInput describes mutable group fields.
type UpdateGroupInput struct {
	Name        string
	Description string
	Status      Status
}

// UpdateGroup changes name, description or status. Scope is immutable.
func (s *Service) UpdateGroup(ctx context.Context, id int64, input UpdateGroupInput) (Group, error) {
	before, err := s.repo.GetGroup(ctx, id)
	if err != nil {
		return Group{}, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Group{}, fmt.Errorf("groups: name required: %w", shared.ErrValidation)
	}
	if input.Status != StatusActive && input.Status != StatusDisabled {
		return Group{}, fmt.Errorf("groups: unknown status %q: %w", input.Status, shared.ErrValidation)
	}
	updated := before
	updated.Name = name
	updated.Description = strings.TrimSpace(input.Description)
	updated.Status = input.Status
	after, err := s.repo.UpdateGroup(ctx, updated)
	if err != nil {
		return Group{}, err
	}
	s.recordAudit(ctx, "GROUP_UPDATE", id, before, after)
	s.invalidate(ctx)
	return after, nil
}

// GetGroup fetches a group by id.
func (s *Service) GetGroup(ctx context.Context, id int64) (Group, error) {
	return s.repo.GetGroup(ctx, id)
}

// ListGroups returns groups, optionally filtered to one organization.
func (s *Service) ListGroups(ctx context.Context, orgID *int64) ([]Group, error) {
	return s.repo.ListGroups(ctx, orgID)
}

// LinkRole attaches a role to a group after the scope-consistency check:
// a global group links only to global roles; an org-scoped group links to
// global roles or to roles of exactly its own organization.
func (s *Service) LinkRole(ctx context.Context, groupID, roleID int64) (GroupRoleLink, error) {
	group, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return GroupRoleLink{}, err
	}
	role, err := s.repo.RoleScope(ctx, roleID)
	if err != nil {
		return GroupRoleLink{}, err
	}
	if group.IsGlobal && !role.IsGlobal {
		return GroupRoleLink{}, fmt.Errorf("groups: global group cannot link org-scoped role %d: %w", roleID, shared.ErrValidation)
	}
	if !group.IsGlobal && !role.IsGlobal {
		if role.OrgID == nil || group.OrgID == nil || *role.OrgID != *group.OrgID {
			return GroupRoleLink{}, fmt.Errorf("groups: role %d belongs to a different org than group %d: %w", roleID, groupID, shared.ErrValidation)
		}
	}
	link, err := s.repo.LinkRole(ctx, groupID, roleID)
	if err != nil {
		return GroupRoleLink{}, err
	}
	s.recordAudit(ctx, "GROUP_ROLE_LINK", link.ID, nil, link)
	s.invalidate(ctx)
	return link, nil
}

// UnlinkRole detaches a role from a group.
func (s *Service) UnlinkRole(ctx context.Context, groupID, roleID int64) error {
	if err := s.repo.UnlinkRole(ctx, groupID, roleID); err != nil {
		return err
	}
	s.recordAudit(ctx, "GROUP_ROLE_UNLINK", groupID, GroupRoleLink{GroupID: groupID, RoleID: roleID}, nil)
	s.invalidate(ctx)
	return nil
}

// AddMember links a user into a group. For an org-scoped group the user
// must be an active member of that organization at this moment; the check
// is not repeated afterwards.
func (s *Service) AddMember(ctx context.Context, groupID, userID int64) (GroupMemberLink, error) {
	if userID == 0 {
		return GroupMemberLink{}, fmt.Errorf("groups: user id required: %w", shared.ErrValidation)
	}
	group, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return GroupMemberLink{}, err
	}
	if !group.IsGlobal {
		active, err := s.membership.IsActiveMember(ctx, *group.OrgID, userID)
		if err != nil {
			return GroupMemberLink{}, err
		}
		if !active {
			return GroupMemberLink{}, fmt.Errorf("groups: user is not an active member of the group org: %w", shared.ErrValidation)
		}
	}
	link, err := s.repo.AddMember(ctx, groupID, userID)
	if err != nil {
		return GroupMemberLink{}, err
	}
	s.recordAudit(ctx, "GROUP_MEMBER_ADD", link.ID, nil, link)
	s.invalidate(ctx)
	return link, nil
}

// AddMembers links many users into a group at once. The org-membership
// precondition is checked for the whole batch up front: one ineligible user
// rejects the entire batch and nothing is written. Duplicate links are
// absorbed during insert, so InsertedCount reflects only new rows.
func (s *Service) AddMembers(ctx context.Context, groupID int64, userIDs []int64) (BulkAddResult, error) {
	userIDs = dedupeIDs(userIDs)
	if len(userIDs) == 0 {
		return BulkAddResult{}, fmt.Errorf("groups: at least one user id required: %w", shared.ErrValidation)
	}
	group, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return BulkAddResult{}, err
	}
	if !group.IsGlobal {
		active, err := s.membership.ActiveMemberSet(ctx, *group.OrgID, userIDs)
		if err != nil {
			return BulkAddResult{}, err
		}
		var failing []int64
		for _, userID := range userIDs {
			if _, ok := active[userID]; !ok {
				failing = append(failing, userID)
			}
		}
		if len(failing) > 0 {
			sort.Slice(failing, func(i, j int) bool { return failing[i] < failing[j] })
			return BulkAddResult{}, &InactiveMembersError{OrgID: *group.OrgID, UserIDs: failing}
		}
	}
	inserted, err := s.repo.AddMembers(ctx, groupID, userIDs)
	if err != nil {
		return BulkAddResult{}, err
	}
	result := BulkAddResult{RequestedCount: len(userIDs), InsertedCount: inserted}
	s.recordAudit(ctx, "GROUP_MEMBER_BULK_ADD", groupID, nil, map[string]any{
		"userIds":       userIDs,
		"insertedCount": inserted,
	})
	s.invalidate(ctx)
	return result, nil
}

// RemoveMember unlinks a user from a group.
func (s *Service) RemoveMember(ctx context.Context, groupID, userID int64) error {
	if err := s.repo.RemoveMember(ctx, groupID, userID); err != nil {
		return err
	}
	s.recordAudit(ctx, "GROUP_MEMBER_REMOVE", groupID, GroupMemberLink{GroupID: groupID, UserID: userID}, nil)
	s.invalidate(ctx)
	return nil
}

// ListMembers returns the member links of a group.
func (s *Service) ListMembers(ctx context.Context, groupID int64) ([]GroupMemberLink, error) {
	if _, err := s.repo.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, groupID)
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
		Entity:    "group",
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

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
