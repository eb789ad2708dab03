// Package autosave implements the debounced, idempotent autosave pipeline of
// an editing session: change detection, debounce scheduling and serialized
// persistence calls with user notifications.
package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/inkpot/internal/clock"
	"github.com/debemdeboas/inkpot/internal/model"
	"github.com/debemdeboas/inkpot/internal/notify"
)

var autosaveLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	autosaveLogger = l
}

// Gateway persists documents. Errors are opaque to the coordinator.
type Gateway interface {
	Create(ctx context.Context, fields model.BlogFields) (*model.Blog, error)
	Update(ctx context.Context, id model.BlogID, fields model.BlogFields) (*model.Blog, error)
}

type Config struct {
	// Debounce is the quiet period before a changed document is saved.
	Debounce time.Duration
	// TitleDebounce delays title keystrokes before they count as a change.
	TitleDebounce time.Duration
	// SaveTimeout bounds a single persistence call.
	SaveTimeout time.Duration
	// NotifyOnAutosave reports successful debounced saves. Forced saves and
	// failures are always reported.
	NotifyOnAutosave bool
}

func DefaultConfig() Config {
	return Config{
		Debounce:      2 * time.Second,
		TitleDebounce: 2 * time.Second,
		SaveTimeout:   10 * time.Second,
	}
}

type State int

const (
	StateIdle State = iota
	StatePending
	StateSaving
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateSaving:
		return "saving"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Status is a point-in-time view of a coordinator.
type Status struct {
	State  State
	BlogID model.BlogID
	Record SaveRecord
}

// Coordinator runs autosave for one editing session. All methods are safe for
// concurrent use; persistence calls are never issued concurrently.
type Coordinator struct {
	cfg     Config
	clock   clock.Clock
	gateway Gateway
	sink    notify.Sink
	baseCtx context.Context

	saves  *Debouncer
	titles *Debouncer

	// saveMu serializes gateway calls and is held for their whole duration.
	saveMu sync.Mutex

	mu         sync.Mutex
	tracker    *Tracker
	blogID     model.BlogID
	latest     *Snapshot
	pending    *Snapshot // captured when the save timer was armed
	queued     *Snapshot // newest change seen while a save was in flight
	inflight   int
	terminated bool

	// armed and titleArmed number timer arms; a callback whose number is
	// stale was superseded after it fired and must do nothing.
	armed      uint64
	titleArmed uint64
	// flushes counts forced saves. A debounced save captured before a
	// flush is older than what the flush writes and is dropped.
	flushes uint64
}

// New returns an idle coordinator for a document that has not been saved yet.
// ctx is the parent of every debounced persistence call; closing the session
// does not cancel calls already in flight.
func New(ctx context.Context, cfg Config, gw Gateway, sink notify.Sink, c clock.Clock) *Coordinator {
	if sink == nil {
		sink = notify.Discard
	}
	if c == nil {
		c = clock.New()
	}

	return &Coordinator{
		cfg:     cfg,
		clock:   c,
		gateway: gw,
		sink:    sink,
		baseCtx: ctx,
		saves:   NewDebouncer(c, cfg.Debounce),
		titles:  NewDebouncer(c, cfg.TitleDebounce),
		tracker: NewTracker(),
	}
}

// Resume binds the coordinator to an already persisted blog so later saves
// update it and its stored content does not count as a change.
func (c *Coordinator) Resume(b *model.Blog) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.blogID = b.ID
	snap := SnapshotFromBlog(b)
	c.tracker.Baseline(snap)
	c.latest = &snap
}

// NotifyChanged reports an edit. Unchanged or empty documents are ignored;
// anything else (re)arms the save timer with a copy of s.
func (c *Coordinator) NotifyChanged(s Snapshot) {
	snap := s.Normalize()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.terminated {
		return
	}
	c.latest = &snap
	c.changedLocked(snap)
}

// NotifyTitleChanged reports a title keystroke. The change enters the save
// timer only after the title has been quiet for the title debounce, using the
// latest document seen by then.
func (c *Coordinator) NotifyTitleChanged(s Snapshot) {
	snap := s.Normalize()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.terminated {
		return
	}
	c.latest = &snap
	if c.inflight > 0 || c.pending != nil || !Eligible(snap) || !c.tracker.Changed(snap) {
		// In flight the edit is queued, an armed save timer absorbs it, and
		// a no-op edit disarms whatever is pending.
		c.titles.Cancel()
		c.changedLocked(snap)
		return
	}

	c.titleArmed++
	seq := c.titleArmed
	c.titles.Schedule(func() { c.titleSettled(seq) })
}

// FlushNow saves s immediately, cancelling any armed timer. The outcome is
// always notified. A save already in flight completes first.
func (c *Coordinator) FlushNow(ctx context.Context, s Snapshot) error {
	snap := s.Normalize()

	c.mu.Lock()
	if c.terminated {
		c.mu.Unlock()
		return ErrTerminated
	}
	if !Eligible(snap) {
		c.sink.Notify(notify.Notification{
			Kind:        notify.KindError,
			Title:       "Nothing to save",
			Description: "Add a title or some content before saving.",
		})
		c.mu.Unlock()
		return ErrEmptyDocument
	}

	c.saves.Cancel()
	c.titles.Cancel()
	c.pending = nil
	c.queued = nil
	c.latest = &snap
	c.inflight++
	c.flushes++
	flushes := c.flushes
	c.mu.Unlock()

	return c.save(ctx, snap, true, flushes)
}

// Close tears the session down. No callback runs afterwards and results of
// in-flight saves are discarded.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.terminated {
		return
	}
	c.terminated = true
	c.saves.Stop()
	c.titles.Stop()
	c.pending = nil
	c.queued = nil

	autosaveLogger.Debug().Str("blog_id", string(c.blogID)).Msg("Autosave session closed")
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Status{
		State:  c.stateLocked(),
		BlogID: c.blogID,
		Record: c.tracker.Record(),
	}
}

// Latest returns the most recent document reported to the coordinator.
func (c *Coordinator) Latest() (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.latest == nil {
		return Snapshot{}, false
	}
	return c.latest.Normalize(), true
}

func (c *Coordinator) stateLocked() State {
	switch {
	case c.terminated:
		return StateTerminated
	case c.inflight > 0:
		return StateSaving
	case c.pending != nil || c.titles.Pending():
		return StatePending
	default:
		return StateIdle
	}
}

func (c *Coordinator) changedLocked(snap Snapshot) {
	if c.inflight > 0 {
		// Re-examined against the fresh save record once the call resolves.
		if Eligible(snap) {
			c.queued = &snap
		} else {
			c.queued = nil
		}
		return
	}

	if !Eligible(snap) || !c.tracker.Changed(snap) {
		// An armed save would now write a document the user moved away from.
		if c.pending != nil {
			c.saves.Cancel()
			c.pending = nil
		}
		return
	}

	if c.pending != nil && c.pending.Canonical() == snap.Canonical() {
		return
	}

	c.pending = &snap
	c.titles.Cancel()
	c.armed++
	seq := c.armed
	c.saves.Schedule(func() { c.fire(seq) })
}

func (c *Coordinator) titleSettled(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.terminated || c.latest == nil || seq != c.titleArmed {
		return
	}
	c.changedLocked(*c.latest)
}

func (c *Coordinator) fire(seq uint64) {
	c.mu.Lock()
	// A re-arm between the timer firing and here owns the pending snapshot
	// and its own full quiet period.
	if c.terminated || c.pending == nil || seq != c.armed {
		c.mu.Unlock()
		return
	}
	snap := *c.pending
	c.pending = nil
	c.inflight++
	flushes := c.flushes
	c.mu.Unlock()

	// Failures are reported through the sink.
	_ = c.save(c.baseCtx, snap, false, flushes)
}

// save runs one gateway call. flushes is the forced-save count seen when snap
// was captured.
func (c *Coordinator) save(ctx context.Context, snap Snapshot, forced bool, flushes uint64) error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	if c.terminated {
		c.inflight--
		c.mu.Unlock()
		return ErrTerminated
	}
	if !forced && flushes != c.flushes {
		c.inflight--
		autosaveLogger.Debug().Str("blog_id", string(c.blogID)).Msg("Dropping autosave superseded by a forced save")
		c.requeueLocked()
		c.mu.Unlock()
		return nil
	}
	id := c.blogID
	c.mu.Unlock()

	if c.cfg.SaveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.SaveTimeout)
		defer cancel()
	}

	op := "update"
	var blog *model.Blog
	var err error
	if id == "" {
		op = "create"
		blog, err = c.gateway.Create(ctx, snap.Fields())
	} else {
		blog, err = c.gateway.Update(ctx, id, snap.Fields())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.inflight--
	if c.terminated {
		autosaveLogger.Debug().Str("op", op).Msg("Discarding save result after teardown")
		return ErrTerminated
	}

	if err != nil {
		autosaveLogger.Error().Err(err).Str("op", op).Str("blog_id", string(id)).Bool("forced", forced).Msg("Save failed")
		c.sink.Notify(failureNotification(forced))
		c.requeueLocked()
		return &SaveError{Op: op, Err: err}
	}

	if blog != nil && c.blogID == "" {
		c.blogID = blog.ID
	}
	c.tracker.MarkSaved(snap, c.clock.Now())

	autosaveLogger.Debug().Str("op", op).Str("blog_id", string(c.blogID)).Bool("forced", forced).Msg("Document saved")

	if forced || c.cfg.NotifyOnAutosave {
		c.sink.Notify(successNotification(snap, forced))
	}
	c.requeueLocked()
	return nil
}

// requeueLocked schedules the change remembered while a save was in flight,
// using the newest document reported since.
func (c *Coordinator) requeueLocked() {
	if c.inflight > 0 || c.queued == nil {
		return
	}
	q := *c.queued
	if c.latest != nil {
		q = *c.latest
	}
	c.queued = nil
	c.changedLocked(q)
}

func successNotification(snap Snapshot, forced bool) notify.Notification {
	switch {
	case forced && snap.Status == model.StatusPublished:
		return notify.Notification{Kind: notify.KindSuccess, Title: "Post published", Description: "Your post is now live."}
	case forced:
		return notify.Notification{Kind: notify.KindSuccess, Title: "Draft saved", Description: "Your draft has been saved."}
	default:
		return notify.Notification{Kind: notify.KindSuccess, Title: "Draft saved", Description: "Your changes have been saved automatically."}
	}
}

func failureNotification(forced bool) notify.Notification {
	if forced {
		return notify.Notification{Kind: notify.KindError, Title: "Error", Description: "Failed to save draft. Please try again."}
	}
	return notify.Notification{Kind: notify.KindError, Title: "Error", Description: "Failed to save your changes automatically."}
}
