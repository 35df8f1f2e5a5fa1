package worker

// email_worker.go
// Processes email jobs from QueueEmail. Sends stock alert mail via SMTP,
// guarded by a circuit breaker. Transient failures are retried by
// re-enqueueing; jobs that exhaust their attempts land in the DLQ.

import (
	"context"
	"encoding/json"

	"pharmapos/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const maxEmailAttempts = 3

type EmailWorker struct {
	mailer     *infra.Mailer
	cb         *infra.CircuitBreaker
	rdb        *redis.Client
	dispatcher *Dispatcher
}

func NewEmailWorker(mailer *infra.Mailer, cb *infra.CircuitBreaker, rdb *redis.Client, dispatcher *Dispatcher) *EmailWorker {
	return &EmailWorker{mailer: mailer, cb: cb, rdb: rdb, dispatcher: dispatcher}
}

func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email — skipping")
		return
	}

	err := w.cb.Execute(func() error {
		return w.mailer.Send(payload.ToEmail, payload.Subject, payload.Body)
	})
	if err == nil {
		log.Info().Str("to", payload.ToEmail).Str("subject", payload.Subject).Msg("email_worker: alert mail sent")
		return
	}

	payload.Attempts++
	if payload.Attempts >= maxEmailAttempts {
		data, _ := json.Marshal(payload)
		SendToDLQ(ctx, w.rdb, QueueEmail, "email", data, err.Error(), payload.Attempts)
		return
	}

	log.Warn().Err(err).Int("attempt", payload.Attempts).Str("to", payload.ToEmail).
		Msg("email_worker: send failed — requeueing")
	if enqErr := w.dispatcher.EnqueueEmail(ctx, payload); enqErr != nil {
		log.Error().Err(enqErr).Msg("email_worker: requeue failed")
	}
}
