package worker

// alert_worker.go
// Processes low-stock alerts from QueueAlerts: always logs the alert, and
// forwards it as an email job when an alert recipient is configured.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

type AlertWorker struct {
	dispatcher *Dispatcher
	alertEmail string // empty = log only
}

func NewAlertWorker(dispatcher *Dispatcher, alertEmail string) *AlertWorker {
	return &AlertWorker{dispatcher: dispatcher, alertEmail: alertEmail}
}

func (w *AlertWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload AlertJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("alert_worker: invalid payload")
		return
	}

	log.Warn().
		Str("product", payload.ProductName).
		Str("lot_id", payload.LotID).
		Int("remaining", payload.Remaining).
		Int("threshold", payload.Threshold).
		Msg("alert_worker: product is running out of stock")

	if w.alertEmail == "" {
		return
	}

	mail := EmailJobPayload{
		ToEmail: w.alertEmail,
		Subject: fmt.Sprintf("Low stock: %s", payload.ProductName),
		Body: fmt.Sprintf(
			"Product %q is running out of stock.\nRemaining quantity: %d (threshold %d).\nLot: %s",
			payload.ProductName, payload.Remaining, payload.Threshold, payload.LotID,
		),
	}
	if err := w.dispatcher.EnqueueEmail(ctx, mail); err != nil {
		log.Error().Err(err).Str("product", payload.ProductName).Msg("alert_worker: failed to enqueue alert email")
	}
}
