// Package jobs runs background work on Asynq: the periodic gate-overstay
// scan that flags trucks parked past the alert threshold.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/warelog/warelog/internal/gatelog"
	jobmetrics "github.com/warelog/warelog/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskGateOverstayScan is the task type for the overstay scan.
	TaskGateOverstayScan = "gate:overstay_scan"
)

// OverstayScanPayload configures one overstay scan run.
type OverstayScanPayload struct {
	ThresholdHours int `json:"threshold_hours"`
}

// NewOverstayScanTask constructs an Asynq task.
func NewOverstayScanTask(payload OverstayScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGateOverstayScan, data), nil
}

// NewOverstayScanHandler builds the handler for TaskGateOverstayScan tasks.
// Each alert is logged; the admin console reads the same query on demand.
func NewOverstayScanHandler(svc *gatelog.Service, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskGateOverstayScan)
		var payload OverstayScanPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return tracker.End(asynq.SkipRetry)
		}
		alerts, err := svc.ParkedAlerts(ctx, payload.ThresholdHours)
		if err != nil {
			return tracker.End(err)
		}
		metrics.AddOverstays(len(alerts))
		for _, alert := range alerts {
			logger.WarnContext(ctx, "vehicle overstay",
				slog.Int64("vehicle_id", alert.VehicleID),
				slog.String("plate", alert.Plate),
				slog.String("driver", alert.Driver),
				slog.Int("hours_in", alert.HoursIn),
			)
		}
		logger.InfoContext(ctx, "overstay scan complete", slog.Int("alerts", len(alerts)))
		return tracker.End(nil)
	}
}
