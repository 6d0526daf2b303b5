package probe

import (
	"context"
	"time"

	"github.com/Proton-105/liveness-probe/internal/state"
)

// Run starts the loop and drives both chains from a single goroutine until
// the loop is dead, ctx is cancelled or a status write fails.
// A chain whose cycle reports false stops its ticker; nothing restarts it.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.Start(ctx); err != nil {
		return err
	}

	writeTicker := time.NewTicker(l.cfg.Interval)
	defer writeTicker.Stop()

	firstCheck := time.NewTimer(l.cfg.InitialDelay)
	defer firstCheck.Stop()

	var checkTicker *time.Ticker
	var checkC <-chan time.Time
	defer func() {
		if checkTicker != nil {
			checkTicker.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-writeTicker.C:
			more, err := l.WriteRefreshCycle(ctx)
			if err != nil {
				return err
			}
			if !more {
				writeTicker.Stop()
			}

		case <-firstCheck.C:
			if l.CheckCycle(ctx) {
				checkTicker = time.NewTicker(l.cfg.Interval)
				checkC = checkTicker.C
			}

		case <-checkC:
			if !l.CheckCycle(ctx) {
				checkTicker.Stop()
				checkC = nil
			}
		}

		if l.Phase() == state.StateDead {
			return nil
		}
	}
}
