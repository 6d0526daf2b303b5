package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/Proton-105/liveness-probe/internal/errors"
	"github.com/Proton-105/liveness-probe/internal/state"
	"github.com/Proton-105/liveness-probe/internal/statusfile"
	"github.com/Proton-105/liveness-probe/pkg/metrics"
)

// ErrAlreadyStarted is returned by Start when the loop left StateInit.
var ErrAlreadyStarted = errors.New("probe loop already started")

// Publisher mirrors the status outside the status file.
type Publisher interface {
	Publish(ctx context.Context, status Status) error
	Clear(ctx context.Context) error
}

// ErrorHandler logs classified errors and reports whether they are fatal.
type ErrorHandler interface {
	Handle(ctx context.Context, err error) bool
}

// Config holds the loop timing.
type Config struct {
	// Interval between two cycles of the same chain.
	Interval time.Duration
	// InitialDelay before the first check cycle.
	InitialDelay time.Duration
}

// Option customises a Loop.
type Option func(*Loop)

// WithPublisher mirrors every written status through p.
func WithPublisher(p Publisher) Option {
	return func(l *Loop) {
		l.pub = p
	}
}

// WithErrorHandler routes non-fatal errors through h instead of plain logging.
func WithErrorHandler(h ErrorHandler) Option {
	return func(l *Loop) {
		l.errs = h
	}
}

// WithConsole prints the status text of every passed check and the crash
// notice to w verbatim, next to the structured log.
func WithConsole(w io.Writer) Option {
	return func(l *Loop) {
		l.console = w
	}
}

// WithMachine uses m to track the lifecycle phase.
func WithMachine(m *state.Machine) Option {
	return func(l *Loop) {
		l.phase = m
	}
}

// Snapshot is a point-in-time copy of the loop state.
type Snapshot struct {
	Phase    state.State
	Status   Status
	Alive    bool
	Writing  bool
	Checking bool
}

// Loop owns the probe state shared by the write and check chains.
// Cycles must run on a single goroutine; Snapshot may be called from any.
type Loop struct {
	cfg   Config
	store statusfile.Store
	rnd   Random
	log   *slog.Logger
	pub   Publisher
	errs  ErrorHandler
	phase *state.Machine

	console io.Writer

	mu       sync.RWMutex
	counter  int
	random   int
	alive    bool
	content  string
	writing  bool
	checking bool
}

// New creates a Loop writing to store and drawing from rnd.
func New(cfg Config, store statusfile.Store, rnd Random, log *slog.Logger, opts ...Option) (*Loop, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("probe: interval must be > 0")
	}
	if cfg.InitialDelay < 0 {
		return nil, errors.New("probe: initial delay must be >= 0")
	}
	if store == nil {
		return nil, errors.New("probe: status store required")
	}
	if rnd == nil {
		return nil, errors.New("probe: random source required")
	}
	if log == nil {
		log = slog.Default()
	}

	l := &Loop{
		cfg:   cfg,
		store: store,
		rnd:   rnd,
		log:   log,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.phase == nil {
		l.phase = state.NewMachine(log)
	}

	return l, nil
}

// Start resets the counters and writes the first status file.
func (l *Loop) Start(ctx context.Context) error {
	if l.phase.Current() != state.StateInit {
		return ErrAlreadyStarted
	}

	l.mu.Lock()
	l.counter = 0
	l.random = 0
	l.alive = true
	l.mu.Unlock()

	if err := l.writeStatus(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	l.writing = true
	l.checking = true
	l.mu.Unlock()

	metrics.SetCounter(0)
	metrics.SetAlive(true)

	if err := l.phase.TransitionTo(state.StateAlive); err != nil {
		return fmt.Errorf("probe: start: %w", err)
	}

	l.log.Info("status file initialised", slog.String("path", l.store.Path()))
	return nil
}

// WriteRefreshCycle rewrites the status file while alive and reports whether
// the chain continues. Once dead it removes the file and stops.
func (l *Loop) WriteRefreshCycle(ctx context.Context) (bool, error) {
	l.mu.RLock()
	alive, writing := l.alive, l.writing
	l.mu.RUnlock()

	if !writing {
		return false, nil
	}

	if alive {
		if err := l.writeStatus(ctx); err != nil {
			if ctx.Err() == nil {
				l.setWriting(false)
			}
			return false, err
		}
		return true, nil
	}

	l.removeStatus(ctx)
	l.clearPublished(ctx)
	l.setWriting(false)

	if l.phase.Current() == state.StateDying {
		if err := l.phase.TransitionTo(state.StateDead); err != nil {
			l.log.Warn("probe: unable to mark loop dead", slog.Any("error", err))
		}
	}

	l.log.Info("write chain stopped, status file removed", slog.String("path", l.store.Path()))
	return false, nil
}

// CheckCycle draws a random number and either simulates the crash or
// confirms the status file, reporting whether the chain continues.
func (l *Loop) CheckCycle(ctx context.Context) bool {
	l.mu.RLock()
	alive, checking := l.alive, l.checking
	l.mu.RUnlock()

	if !alive || !checking {
		return false
	}

	drawn := l.rnd.IntN(MaxValue)

	l.mu.Lock()
	l.random = drawn
	l.mu.Unlock()

	if drawn == TriggerValue {
		l.mu.Lock()
		l.alive = false
		l.checking = false
		l.mu.Unlock()

		metrics.SetAlive(false)
		metrics.RecordCheck("triggered", drawn)

		if err := l.phase.TransitionTo(state.StateDying); err != nil {
			l.log.Warn("probe: unable to mark loop dying", slog.Any("error", err))
		}
		l.removeStatus(ctx)

		l.log.Warn("simulated crash, status file removed", slog.Int("random_number", drawn))
		l.print(fmt.Sprintf("It is going to crash ☹️ ...\nRandom number is %d!", drawn))
		return false
	}

	exists, err := l.store.Exists(ctx)
	if ctx.Err() != nil {
		return false
	}
	if err != nil || !exists {
		l.setChecking(false)
		metrics.RecordCheck("missing", drawn)
		l.handle(ctx, apperrors.NewStatusMissingError(l.store.Path(), err))
		return false
	}

	l.mu.Lock()
	l.counter++
	counter := l.counter
	content := l.content
	l.mu.Unlock()

	metrics.SetCounter(counter)
	metrics.RecordCheck("passed", drawn)

	l.log.Info("liveness check passed",
		slog.Int("counter", counter),
		slog.Int("random_number", drawn),
		slog.String("content", content),
	)
	l.print(content)
	return true
}

// Stop removes the status file and the mirrored status. It is used on
// shutdown so a stopped process never leaves a liveness signal behind.
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	l.writing = false
	l.checking = false
	l.mu.Unlock()

	metrics.RecordStatusRemoval()
	if err := l.store.Remove(ctx); err != nil {
		return apperrors.NewStatusRemoveError(l.store.Path(), err)
	}
	l.clearPublished(ctx)

	return nil
}

// Snapshot returns a copy of the current state.
func (l *Loop) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return Snapshot{
		Phase: l.phase.Current(),
		Status: Status{
			Counter:      l.counter,
			RandomNumber: l.random,
			Text:         l.content,
		},
		Alive:    l.alive,
		Writing:  l.writing,
		Checking: l.checking,
	}
}

// Phase returns the current lifecycle phase.
func (l *Loop) Phase() state.State {
	return l.phase.Current()
}

func (l *Loop) writeStatus(ctx context.Context) error {
	l.mu.RLock()
	status := NewStatus(l.counter, l.random)
	l.mu.RUnlock()

	err := l.store.Write(ctx, status.Text)
	metrics.RecordStatusWrite(err)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return apperrors.NewStatusWriteError(l.store.Path(), err)
	}

	l.mu.Lock()
	l.content = status.Text
	l.mu.Unlock()

	if l.pub != nil {
		if err := l.pub.Publish(ctx, status); err != nil {
			l.handle(ctx, err)
		}
	}

	return nil
}

func (l *Loop) removeStatus(ctx context.Context) {
	metrics.RecordStatusRemoval()
	if err := l.store.Remove(ctx); err != nil {
		l.handle(ctx, apperrors.NewStatusRemoveError(l.store.Path(), err))
	}
}

func (l *Loop) clearPublished(ctx context.Context) {
	if l.pub == nil {
		return
	}
	if err := l.pub.Clear(ctx); err != nil {
		l.handle(ctx, err)
	}
}

func (l *Loop) handle(ctx context.Context, err error) {
	if l.errs != nil {
		l.errs.Handle(ctx, err)
		return
	}
	l.log.Error(err.Error())
}

func (l *Loop) print(text string) {
	if l.console == nil {
		return
	}
	_, _ = fmt.Fprintln(l.console, text)
}

func (l *Loop) setWriting(v bool) {
	l.mu.Lock()
	l.writing = v
	l.mu.Unlock()
}

func (l *Loop) setChecking(v bool) {
	l.mu.Lock()
	l.checking = v
	l.mu.Unlock()
}
