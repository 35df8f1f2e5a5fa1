package worker

import (
	"context"
	"encoding/json"

	"pharmapos/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueAlerts = "jobs:alerts"
	QueueEmail  = "jobs:email"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AlertJobPayload is the low-stock alert as queued for the alert worker.
type AlertJobPayload struct {
	LotID       string `json:"lot_id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Remaining   int    `json:"remaining"`
	Threshold   int    `json:"threshold"`
}

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail  string `json:"to_email"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	Attempts int    `json:"attempts"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// Notify implements service.AlertSink. Fire-and-forget: a queue failure is
// logged, never surfaced to the sale that triggered it.
func (d *Dispatcher) Notify(ctx context.Context, alert service.LowStockAlert) {
	payload := AlertJobPayload{
		LotID:       alert.LotID.String(),
		ProductID:   alert.ProductID.String(),
		ProductName: alert.ProductName,
		Remaining:   alert.Remaining,
		Threshold:   alert.Threshold,
	}
	if err := d.enqueue(ctx, QueueAlerts, "low_stock", payload); err != nil {
		log.Error().Err(err).Str("product", alert.ProductName).Msg("failed to enqueue low-stock alert")
	}
}

// EnqueueEmail pushes an email job to Redis.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, "email", payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}
