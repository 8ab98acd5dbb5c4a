package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatehouse-hq/gatehouse/internal/observability"
)

// DriftedLink is a group membership whose user is no longer an active member
// of the group's organization. Org membership is only enforced when a member
// is added, so these links accumulate as people leave orgs. The scan reports
// them for operators to review; it never revokes anything itself.
type DriftedLink struct {
	GroupID int64
	OrgID   int64
	UserID  int64
}

// MembershipDriftScanJob finds and reports drifted group memberships.
type MembershipDriftScanJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *observability.Metrics
	clock   func() time.Time
}

// NewMembershipDriftScanJob initialises the drift scan handler.
func NewMembershipDriftScanJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *observability.Metrics) *MembershipDriftScanJob {
	return &MembershipDriftScanJob{
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the drift scan.
func (j *MembershipDriftScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("membership drift scan: handler not configured")
	}
	var payload MembershipDriftScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Limit <= 0 {
		payload.Limit = 1000
	}

	start := j.now()
	logger := j.logger().With(slog.Int("limit", payload.Limit))
	logger.Info("starting membership drift scan")

	links, err := j.scan(ctx, payload.Limit)
	if err != nil {
		logger.Error("drift scan failed", slog.Any("error", err))
		return err
	}

	for _, link := range links {
		logger.Warn("group member left org",
			slog.Int64("group_id", link.GroupID),
			slog.Int64("org_id", link.OrgID),
			slog.Int64("user_id", link.UserID),
		)
	}
	j.Metrics.SetDriftLinks(len(links))

	logger.Info("completed membership drift scan",
		slog.Int("drifted", len(links)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *MembershipDriftScanJob) scan(ctx context.Context, limit int) ([]DriftedLink, error) {
	rows, err := j.Pool.Query(ctx, `
        SELECT gm.group_id, g.org_id, gm.user_id
        FROM group_members gm
        JOIN groups g ON g.id = gm.group_id
        WHERE g.is_global = FALSE
          AND NOT EXISTS (
            SELECT 1 FROM organization_members om
            WHERE om.org_id = g.org_id
              AND om.user_id = gm.user_id
              AND om.status = 'active'
          )
        ORDER BY g.org_id, gm.group_id, gm.user_id
        LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []DriftedLink
	for rows.Next() {
		var link DriftedLink
		if err := rows.Scan(&link.GroupID, &link.OrgID, &link.UserID); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

func (j *MembershipDriftScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

func (j *MembershipDriftScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
