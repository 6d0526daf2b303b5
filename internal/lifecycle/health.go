package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Proton-105/liveness-probe/internal/health"
	"github.com/Proton-105/liveness-probe/internal/state"
)

// HealthChecker exposes liveness and readiness probes.
type HealthChecker interface {
	Liveness(ctx context.Context) error
	Readiness(ctx context.Context) error
}

// Probes answers orchestrator probes from the loop state and the status file.
type Probes struct {
	log        *slog.Logger
	loop       health.SnapshotSource
	statusFile health.Checkable
}

var _ HealthChecker = (*Probes)(nil)

// NewProbes creates a new Probes instance.
func NewProbes(log *slog.Logger, loop health.SnapshotSource, statusFile health.Checkable) *Probes {
	if log == nil {
		log = slog.Default()
	}
	return &Probes{log: log, loop: loop, statusFile: statusFile}
}

// Liveness mirrors the status file contract: the process is live while the
// loop has not been triggered and the file exists.
func (p *Probes) Liveness(ctx context.Context) error {
	if p.loop == nil {
		return errors.New("probe loop not configured")
	}

	phase := p.loop.Snapshot().Phase
	if phase == state.StateDying || phase == state.StateDead {
		p.log.Debug("liveness probe failed", slog.String("phase", string(phase)))
		return fmt.Errorf("probe loop is %s", phase)
	}

	if phase == state.StateAlive && p.statusFile != nil {
		if err := p.statusFile.HealthCheck(ctx); err != nil {
			p.log.Debug("liveness probe failed", slog.Any("error", err))
			return err
		}
	}

	p.log.Debug("liveness probe called")
	return nil
}

// Readiness reports success once the first status file is written.
func (p *Probes) Readiness(ctx context.Context) error {
	if p.loop == nil {
		return errors.New("probe loop not configured")
	}

	if phase := p.loop.Snapshot().Phase; phase != state.StateAlive {
		p.log.Debug("readiness probe failed", slog.String("phase", string(phase)))
		return fmt.Errorf("probe loop is %s", phase)
	}

	p.log.Debug("readiness probe called")
	return nil
}
