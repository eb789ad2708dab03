// Package notify delivers user-facing save notifications (toasts).
package notify

import (
	"sync"

	"github.com/rs/zerolog"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

type Notification struct {
	Kind        Kind   `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Sink receives notifications. Notify is fire-and-forget: it must not block
// and must not call back into the component that notified it.
type Sink interface {
	Notify(n Notification)
}

type SinkFunc func(n Notification)

func (f SinkFunc) Notify(n Notification) {
	f(n)
}

// Discard drops every notification.
var Discard Sink = SinkFunc(func(Notification) {})

// Multi fans a notification out to several sinks in order.
type Multi []Sink

func (m Multi) Notify(n Notification) {
	for _, s := range m {
		if s != nil {
			s.Notify(n)
		}
	}
}

// LogSink writes notifications to a zerolog logger.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(l zerolog.Logger) *LogSink {
	return &LogSink{logger: l}
}

func (s *LogSink) Notify(n Notification) {
	ev := s.logger.Info()
	if n.Kind == KindError {
		ev = s.logger.Warn()
	}
	ev.Str("kind", string(n.Kind)).Str("title", n.Title).Msg(n.Description)
}

// Recorder keeps every notification it receives.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Count returns how many recorded notifications have the given kind.
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, item := range r.items {
		if item.Kind == kind {
			n++
		}
	}
	return n
}
