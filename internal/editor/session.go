// Package editor manages editing sessions: one autosave coordinator per open
// editor, addressed by a ULID session id.
package editor

import (
	"context"
	"sync"
	"time"

	"github.com/debemdeboas/inkpot/internal/autosave"
	"github.com/debemdeboas/inkpot/internal/model"
	"github.com/dustin/go-humanize"
)

type SessionID string

// Field names accepted by Session.Change.
const (
	FieldTitle   = "title"
	FieldContent = "content"
	FieldTags    = "tags"
	FieldStatus  = "status"
)

type Session struct {
	ID     SessionID
	Author model.UserID

	coord *autosave.Coordinator

	mu       sync.Mutex
	lastSeen time.Time
}

// Change reports an edit of the whole document. Title edits go through the
// title debounce.
func (s *Session) Change(field string, doc autosave.Snapshot) {
	if field == FieldTitle {
		s.coord.NotifyTitleChanged(doc)
		return
	}
	s.coord.NotifyChanged(doc)
}

// Save persists doc as a draft right away. A nil doc saves the latest
// reported document.
func (s *Session) Save(ctx context.Context, doc *autosave.Snapshot) error {
	return s.flush(ctx, doc, model.StatusDraft)
}

// Publish persists doc right away with the published status.
func (s *Session) Publish(ctx context.Context, doc *autosave.Snapshot) error {
	return s.flush(ctx, doc, model.StatusPublished)
}

func (s *Session) flush(ctx context.Context, doc *autosave.Snapshot, status model.Status) error {
	var snap autosave.Snapshot
	if doc != nil {
		snap = *doc
	} else if latest, ok := s.coord.Latest(); ok {
		snap = latest
	}
	snap.Status = status
	return s.coord.FlushNow(ctx, snap)
}

func (s *Session) Status() autosave.Status {
	return s.coord.Status()
}

// Document returns the latest document reported to the session.
func (s *Session) Document() autosave.Snapshot {
	doc, _ := s.coord.Latest()
	return doc
}

func (s *Session) close() {
	s.coord.Close()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// View is the JSON shape of a session's status.
type View struct {
	SessionID   SessionID    `json:"session_id"`
	State       string       `json:"state"`
	BlogID      model.BlogID `json:"blog_id,omitempty"`
	LastSavedAt *time.Time   `json:"last_saved_at,omitempty"`
	LastSaved   string       `json:"last_saved,omitempty"`
}

func (s *Session) View(now time.Time) View {
	st := s.Status()
	v := View{
		SessionID: s.ID,
		State:     st.State.String(),
		BlogID:    st.BlogID,
	}
	if at := st.Record.SavedAt; at != nil {
		v.LastSavedAt = at
		v.LastSaved = humanize.RelTime(*at, now, "ago", "from now")
	}
	return v
}
