// Package mirror publishes the latest probe status outside the status file.
package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/Proton-105/liveness-probe/internal/errors"
	"github.com/Proton-105/liveness-probe/internal/probe"
)

// KV is the subset of the Redis client used by the mirror.
type KV interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Record is the JSON document stored under the mirror key.
type Record struct {
	probe.Status
	RunID     string    `json:"run_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RedisMirror stores the latest status under a key that expires unless it
// is refreshed, so the key disappears when the probe stops writing.
type RedisMirror struct {
	kv      KV
	key     string
	ttl     time.Duration
	runID   string
	log     *slog.Logger
	breaker *apperrors.CircuitBreaker
	now     func() time.Time
}

var _ probe.Publisher = (*RedisMirror)(nil)

// NewRedisMirror creates a mirror writing to key with the given ttl.
func NewRedisMirror(kv KV, key string, ttl time.Duration, runID string, log *slog.Logger) *RedisMirror {
	if log == nil {
		log = slog.Default()
	}

	return &RedisMirror{
		kv:      kv,
		key:     key,
		ttl:     ttl,
		runID:   runID,
		log:     log,
		breaker: apperrors.NewCircuitBreaker(),
		now:     time.Now,
	}
}

// Publish stores status as JSON. Transient failures are retried; while the
// breaker is open the call fails fast.
func (m *RedisMirror) Publish(ctx context.Context, status probe.Status) error {
	payload, err := json.Marshal(Record{Status: status, RunID: m.runID, UpdatedAt: m.now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}

	return m.call(ctx, "publish", func() error {
		return m.kv.Set(ctx, m.key, payload, m.ttl)
	})
}

// Clear deletes the mirrored status.
func (m *RedisMirror) Clear(ctx context.Context) error {
	return m.call(ctx, "clear", func() error {
		return m.kv.Delete(ctx, m.key)
	})
}

func (m *RedisMirror) call(ctx context.Context, op string, fn func() error) error {
	err := m.breaker.Call(func() error {
		return apperrors.WithRetry(ctx, func() error {
			if err := fn(); err != nil {
				return apperrors.NewMirrorError(op, err)
			}
			return nil
		})
	})
	if err == nil {
		return nil
	}

	if errors.Is(err, apperrors.ErrCircuitOpen) {
		m.log.Debug("status mirror skipped, circuit open", slog.String("op", op))
		return apperrors.NewMirrorError(op, err)
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.NewMirrorError(op, err)
}
