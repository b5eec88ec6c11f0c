package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/vehicle-tracker/internal/core/domain"
	"github.com/samirrijal/vehicle-tracker/internal/core/ports"
)

// DefaultInterval is the wall-clock time between ticks.
const DefaultInterval = time.Second

var (
	ErrAlreadyStarted = errors.New("playback already started")
	ErrStopped        = errors.New("playback stopped")
)

// Option configures a Controller.
type Option func(*Controller)

// WithClock injects the tick source.
func WithClock(clock Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithInterval sets the tick interval. Non-positive values keep the default.
func WithInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithPattern sets the directional marker pattern.
func WithPattern(p Pattern) Option {
	return func(c *Controller) { c.pattern = p }
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithSessionID overrides the generated session ID.
func WithSessionID(id string) Option {
	return func(c *Controller) { c.sessionID = id }
}

// OnFrame registers an observer called with a frame after the route loads
// and after every tick that moves the cursor. Observers run on the
// controller's loop goroutine and must not call Stop.
func OnFrame(fn func(domain.Frame)) Option {
	return func(c *Controller) { c.observers = append(c.observers, fn) }
}

// Controller turns a route into a time-driven animation.
//
// A single loop goroutine applies the fetch result and every tick, so ticks
// never interleave with each other or with the load. Readers get copies.
type Controller struct {
	provider  ports.LocationProvider
	clock     Clock
	interval  time.Duration
	pattern   Pattern
	logger    *slog.Logger
	sessionID string
	observers []func(domain.Frame)

	// emitMu serialises observer calls with Stop, so no frame is delivered
	// once Stop has returned.
	emitMu sync.Mutex

	mu      sync.Mutex
	state   *State
	err     error
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewController creates an uninitialized controller for provider.
func NewController(provider ports.LocationProvider, opts ...Option) *Controller {
	c := &Controller{
		provider: provider,
		clock:    RealClock(),
		interval: DefaultInterval,
		pattern:  DefaultPattern,
		logger:   slog.Default(),
		state:    NewState(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.sessionID == "" {
		c.sessionID = uuid.NewString()
	}
	c.logger = c.logger.With("session_id", c.sessionID)
	return c
}

type fetchResult struct {
	route domain.Route
	err   error
}

// Start requests the route (unless already loaded, or already failed) and
// begins ticking. It does not wait for the fetch; a failed fetch is reported
// by Err and leaves the controller uninitialized for the rest of the session.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Phase() == domain.PhaseStopped {
		c.mu.Unlock()
		return ErrStopped
	}
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	needFetch := !c.state.Loaded() && !c.state.Failed()
	ticker := c.clock.NewTicker(c.interval)
	c.mu.Unlock()

	var fetched chan fetchResult
	if needFetch {
		fetched = make(chan fetchResult, 1)
		go func() {
			route, err := c.provider.FetchRoute(loopCtx)
			fetched <- fetchResult{route: route, err: err}
		}()
	}

	c.logger.Info("playback started", "interval", c.interval.String())
	go c.loop(loopCtx, ticker, fetched)
	return nil
}

func (c *Controller) loop(ctx context.Context, ticker Ticker, fetched chan fetchResult) {
	defer close(c.done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case res := <-fetched:
			// A nil channel blocks forever: the fetch completes at most once.
			fetched = nil
			c.apply(res)
		case <-ticker.C():
			c.Tick()
		}
	}
}

// Load fetches the route synchronously. Intended for callers that drive
// ticks themselves; Start performs the fetch on its own otherwise. The fetch
// happens at most once per session: after a success Load returns nil, after
// a failure it returns the recorded error, in both cases without fetching.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	loaded, err := c.state.Loaded(), c.err
	c.mu.Unlock()
	if err != nil {
		return err
	}
	if loaded {
		return nil
	}

	route, err := c.provider.FetchRoute(ctx)
	c.apply(fetchResult{route: route, err: err})
	if err != nil {
		if recorded := c.Err(); recorded != nil {
			return recorded
		}
		return fmt.Errorf("fetch route: %w", err)
	}
	return nil
}

func (c *Controller) apply(res fetchResult) {
	c.mu.Lock()
	if c.state.Phase() == domain.PhaseStopped {
		c.mu.Unlock()
		return
	}
	if res.err != nil {
		if c.state.Loaded() {
			c.mu.Unlock()
			return
		}
		c.state.Fail()
		if c.err == nil {
			c.err = fmt.Errorf("fetch route: %w", res.err)
		}
		c.mu.Unlock()
		c.logger.Warn("route fetch failed, playback stays uninitialized", "error", res.err)
		return
	}
	if !c.state.Load(res.route) {
		c.mu.Unlock()
		return
	}
	frame := c.frameLocked()
	c.mu.Unlock()

	c.logger.Info("route loaded", "records", frame.Total)
	c.emit(frame)
}

// Tick advances the cursor by one record and reports whether it moved.
// It is a no-op before load, at the last record, and after Stop. Safe to call
// concurrently with Stop: a frame is never delivered after Stop returns.
func (c *Controller) Tick() bool {
	c.mu.Lock()
	moved := c.state.Advance()
	var frame domain.Frame
	if moved {
		frame = c.frameLocked()
	}
	c.mu.Unlock()

	if moved {
		c.emit(frame)
		if frame.Phase == domain.PhaseCompleted {
			c.logger.Info("playback completed", "records", frame.Total)
		}
	}
	return moved
}

// Stop cancels the timer and waits for the loop to exit. After Stop returns
// no tick is applied. Safe to call more than once, and before Start.
func (c *Controller) Stop() {
	c.mu.Lock()
	alreadyStopped := c.state.Phase() == domain.PhaseStopped
	c.state.Stop()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	// Wait out an observer call already in flight from Load or Tick.
	c.emitMu.Lock()
	c.emitMu.Unlock()

	if !alreadyStopped {
		c.logger.Info("playback stopped")
	}
}

func (c *Controller) emit(frame domain.Frame) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	if c.Phase() == domain.PhaseStopped {
		return
	}
	for _, fn := range c.observers {
		fn(frame)
	}
}

func (c *Controller) frameLocked() domain.Frame {
	f := c.state.Frame(c.pattern)
	f.SessionID = c.sessionID
	return f
}

// SessionID identifies this playback session.
func (c *Controller) SessionID() string { return c.sessionID }

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() domain.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Phase()
}

// Cursor returns the index of the current record.
func (c *Controller) Cursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Cursor()
}

// Current returns the current record; ok is false when there is none.
func (c *Controller) Current() (domain.LocationRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Current()
}

// Frame renders the current state. Safe in every phase.
func (c *Controller) Frame() domain.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frameLocked()
}

// Err returns the fetch error, if the fetch failed.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}
