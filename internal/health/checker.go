package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/Proton-105/liveness-probe/internal/probe"
	"github.com/Proton-105/liveness-probe/internal/state"
	"github.com/Proton-105/liveness-probe/internal/statusfile"
)

const statusOK = "OK"

// Checkable represents a component that can report its health status.
type Checkable interface {
	HealthCheck(ctx context.Context) error
}

// CheckFunc adapts a function to Checkable.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}

// Checker aggregates health checks for multiple components.
type Checker struct {
	log    *slog.Logger
	mu     sync.RWMutex
	checks map[string]Checkable
}

// NewChecker instantiates a Checker with the provided logger.
func NewChecker(log *slog.Logger) *Checker {
	return &Checker{
		log:    log,
		checks: make(map[string]Checkable),
	}
}

// AddCheck registers a checkable component by name.
func (c *Checker) AddCheck(name string, check Checkable) {
	if name == "" || check == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Names returns the registered component names in sorted order.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check runs all registered health checks and returns their statuses.
func (c *Checker) Check(ctx context.Context) map[string]string {
	c.mu.RLock()
	checks := make(map[string]Checkable, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	results := make(map[string]string, len(checks))

	for name, check := range checks {
		if err := check.HealthCheck(ctx); err != nil {
			results[name] = err.Error()
			if c.log != nil {
				c.log.Warn("health check failed", slog.String("component", name), slog.Any("error", err))
			}
			continue
		}

		results[name] = statusOK
	}

	return results
}

// Healthy reports whether every result is OK.
func Healthy(results map[string]string) bool {
	for _, result := range results {
		if result != statusOK {
			return false
		}
	}
	return true
}

// StatusFileChecker reports whether the status file is present.
type StatusFileChecker struct {
	store statusfile.Store
}

// NewStatusFileChecker constructs a StatusFileChecker.
func NewStatusFileChecker(store statusfile.Store) *StatusFileChecker {
	return &StatusFileChecker{store: store}
}

// HealthCheck fails when the status file is missing.
func (c *StatusFileChecker) HealthCheck(ctx context.Context) error {
	if c == nil || c.store == nil {
		return errors.New("status file store not configured")
	}

	exists, err := c.store.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("status file %s is missing", c.store.Path())
	}
	return nil
}

// SnapshotSource provides the loop state.
type SnapshotSource interface {
	Snapshot() probe.Snapshot
}

// LoopChecker reports whether the probe loop is alive with both chains running.
type LoopChecker struct {
	loop SnapshotSource
}

// NewLoopChecker constructs a LoopChecker.
func NewLoopChecker(loop SnapshotSource) *LoopChecker {
	return &LoopChecker{loop: loop}
}

// HealthCheck fails unless the loop is alive and both chains are active.
func (c *LoopChecker) HealthCheck(ctx context.Context) error {
	if c == nil || c.loop == nil {
		return errors.New("probe loop not configured")
	}

	snap := c.loop.Snapshot()
	switch {
	case snap.Phase != state.StateAlive:
		return fmt.Errorf("probe loop is %s", snap.Phase)
	case !snap.Writing:
		return errors.New("write chain stopped")
	case !snap.Checking:
		return errors.New("check chain stopped")
	}
	return nil
}
