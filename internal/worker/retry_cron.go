package worker

// retry_cron.go
// Background goroutine that periodically re-drives dead-lettered email jobs
// back onto the live queue once the mailer circuit breaker has recovered.
// Uses the Circuit Breaker state to avoid hammering a downed SMTP server.

import (
	"context"
	"encoding/json"
	"time"

	"pharmapos/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	CB         *infra.CircuitBreaker
	RDB        *redis.Client
	Dispatcher *Dispatcher
}

// StartRetryCron launches a background goroutine that ticks every 30s and,
// while the mailer circuit breaker is closed, pops a small batch from the
// email DLQ and re-enqueues it. It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	// If CB is not fully closed, skip entirely — don't hammer a downed server
	if cfg.CB.State() != infra.CBClosed {
		log.Debug().Msg("retry_cron: circuit breaker is not closed, skipping tick")
		return
	}

	dlqKey := DLQPrefix + QueueEmail
	redriven := 0

	for i := 0; i < retryBatchSize; i++ {
		// Check CB state before each pop — it may have tripped mid-batch
		if cfg.CB.State() != infra.CBClosed {
			log.Debug().Msg("retry_cron: circuit breaker opened mid-batch, stopping")
			return
		}

		raw, err := cfg.RDB.RPop(ctx, dlqKey).Result()
		if err == redis.Nil {
			break
		}
		if err != nil {
			log.Error().Err(err).Msg("retry_cron: failed to pop from DLQ")
			return
		}

		var entry DLQEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			log.Error().Err(err).Msg("retry_cron: malformed DLQ entry, dropping")
			continue
		}

		var payload EmailJobPayload
		if err := json.Unmarshal(entry.Payload, &payload); err != nil {
			log.Error().Err(err).Msg("retry_cron: malformed email payload, dropping")
			continue
		}

		// Reset the attempt counter so the worker gets a fresh retry budget.
		payload.Attempts = 0
		if err := cfg.Dispatcher.EnqueueEmail(ctx, payload); err != nil {
			log.Error().Err(err).Str("to", payload.ToEmail).Msg("retry_cron: failed to re-enqueue, pushing back to DLQ")
			SendToDLQ(ctx, cfg.RDB, QueueEmail, entry.JobType, entry.Payload, entry.Reason, entry.Attempts)
			return
		}
		redriven++
	}

	if redriven > 0 {
		log.Info().Int("count", redriven).Msg("retry_cron: re-enqueued dead-lettered email jobs")
	}
}
