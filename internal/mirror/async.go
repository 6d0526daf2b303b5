package mirror

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Proton-105/liveness-probe/internal/probe"
)

// update is one pending mirror operation; clear wins over any status.
type update struct {
	status probe.Status
	clear  bool
}

// AsyncPublisher hands mirror updates to a background worker so the probe
// loop never waits on the network. Only the latest update is kept: a newer
// status or a clear replaces one the worker has not picked up yet.
type AsyncPublisher struct {
	next    probe.Publisher
	timeout time.Duration
	errs    probe.ErrorHandler
	log     *slog.Logger

	pending chan update
	quit    chan struct{}
	done    chan struct{}

	startOnce sync.Once
	closeOnce sync.Once
	mu        sync.Mutex
}

var _ probe.Publisher = (*AsyncPublisher)(nil)

// NewAsyncPublisher wraps next. Every call to next is bounded by timeout;
// failures are passed to errs.
func NewAsyncPublisher(next probe.Publisher, timeout time.Duration, errs probe.ErrorHandler, log *slog.Logger) *AsyncPublisher {
	if log == nil {
		log = slog.Default()
	}

	return &AsyncPublisher{
		next:    next,
		timeout: timeout,
		errs:    errs,
		log:     log,
		pending: make(chan update, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the worker. It keeps the values of ctx but not its
// cancellation: the worker stops on Close so a final clear still goes out.
func (p *AsyncPublisher) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		go p.run(context.WithoutCancel(ctx))
	})
}

// Publish queues status and returns immediately.
func (p *AsyncPublisher) Publish(_ context.Context, status probe.Status) error {
	p.enqueue(update{status: status})
	return nil
}

// Clear queues the removal of the mirrored status and returns immediately.
func (p *AsyncPublisher) Clear(_ context.Context) error {
	p.enqueue(update{clear: true})
	return nil
}

// Close delivers the last queued update and stops the worker. It returns
// ctx.Err() when ctx ends first.
func (p *AsyncPublisher) Close(ctx context.Context) error {
	p.closeOnce.Do(func() { close(p.quit) })

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *AsyncPublisher) enqueue(u update) {
	p.mu.Lock()
	defer p.mu.Unlock()

	select {
	case prev := <-p.pending:
		if prev.clear {
			u = prev
		}
	default:
	}
	p.pending <- u
}

func (p *AsyncPublisher) run(ctx context.Context) {
	defer close(p.done)

	for {
		select {
		case u := <-p.pending:
			p.apply(ctx, u)
		case <-p.quit:
			select {
			case u := <-p.pending:
				p.apply(ctx, u)
			default:
			}
			return
		}
	}
}

func (p *AsyncPublisher) apply(ctx context.Context, u update) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var err error
	if u.clear {
		err = p.next.Clear(callCtx)
	} else {
		err = p.next.Publish(callCtx, u.status)
	}
	if err == nil {
		return
	}

	if p.errs != nil {
		p.errs.Handle(ctx, err)
		return
	}
	p.log.Warn("status mirror update failed", slog.Any("error", err))
}
