package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/inventory"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/observability"
)

// LowStockScanJob lists items at or below their reorder level and notifies
// the configured address.
type LowStockScanJob struct {
	Inventory   *inventory.Service
	Enqueuer    *Client
	Logger      *slog.Logger
	Metrics     *observability.Metrics
	NotifyEmail string
}

// NewLowStockScanJob wires dependencies for the scan handler.
func NewLowStockScanJob(inv *inventory.Service, enqueuer *Client, logger *slog.Logger, metrics *observability.Metrics, notifyEmail string) *LowStockScanJob {
	return &LowStockScanJob{Inventory: inv, Enqueuer: enqueuer, Logger: logger, Metrics: metrics, NotifyEmail: notifyEmail}
}

// Handle processes low stock scan tasks.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Inventory == nil {
		return errors.New("low stock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	notify := payload.NotifyEmail
	if notify == "" {
		notify = j.NotifyEmail
	}

	items, err := j.Inventory.ListLowStock(ctx)
	if err != nil {
		j.recordJob("error")
		return err
	}
	if len(items) == 0 {
		j.recordJob("ok")
		return nil
	}

	j.Logger.Warn("low stock detected", slog.Int("items", len(items)))
	if notify != "" && j.Enqueuer != nil {
		var body strings.Builder
		body.WriteString("Items at or below reorder level:\n")
		for _, item := range items {
			fmt.Fprintf(&body, "- %s: %.2f %s (reorder at %.2f)\n", item.Name, item.CurrentStock, item.Unit, item.ReorderLevel)
		}
		if _, err := j.Enqueuer.EnqueueSendEmail(ctx, SendEmailPayload{
			To:      notify,
			Subject: fmt.Sprintf("Low stock alert: %d item(s)", len(items)),
			Body:    body.String(),
		}); err != nil {
			j.recordJob("error")
			return err
		}
	}
	j.recordJob("ok")
	return nil
}

func (j *LowStockScanJob) recordJob(outcome string) {
	if j.Metrics != nil {
		j.Metrics.RecordJob(TaskTypeLowStockScan, outcome)
	}
}
