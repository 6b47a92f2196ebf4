package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReceivablesScan is the task type for the receivables snapshot scan.
	TaskReceivablesScan = "ledger:snapshot_scan"
)

// ReceivablesScanPayload describes a snapshot scan request.
type ReceivablesScanPayload struct {
	TriggeredBy string `json:"triggeredBy"`
}

// NewReceivablesScanTask constructs an Asynq task.
func NewReceivablesScanTask(payload ReceivablesScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReceivablesScan, data), nil
}
