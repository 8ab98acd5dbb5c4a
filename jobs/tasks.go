package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskMembershipDriftScan reports group members who left the group's org.
	TaskMembershipDriftScan = "membership:drift_scan"
)

// MembershipDriftScanPayload bounds a drift scan run.
type MembershipDriftScanPayload struct {
	// Limit caps how many drifted links a single run reports.
	Limit int `json:"limit"`
}

// NewMembershipDriftScanTask constructs an Asynq task.
func NewMembershipDriftScanTask(payload MembershipDriftScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMembershipDriftScan, data, asynq.Queue(QueueDefault)), nil
}
