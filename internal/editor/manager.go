package editor

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/debemdeboas/inkpot/internal/autosave"
	"github.com/debemdeboas/inkpot/internal/cache"
	"github.com/debemdeboas/inkpot/internal/clock"
	"github.com/debemdeboas/inkpot/internal/model"
	"github.com/debemdeboas/inkpot/internal/notify"
	"github.com/debemdeboas/inkpot/internal/service"
	"github.com/debemdeboas/inkpot/internal/sse"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

var editorLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	editorLogger = l
}

var ErrSessionNotFound = errors.New("editor session not found")

type Manager struct {
	ctx      context.Context
	svc      *service.BlogService
	clients  *sse.SSEClients
	autosave autosave.Config
	idle     time.Duration
	clock    clock.Clock

	sessions *cache.Cache[SessionID, *Session]

	mu      sync.Mutex
	entropy io.Reader
	reaper  clock.Timer
	stopped bool
}

// NewManager returns a manager whose sessions persist through svc. ctx is the
// parent context of every debounced save.
func NewManager(ctx context.Context, svc *service.BlogService, clients *sse.SSEClients, cfg autosave.Config, idle time.Duration, c clock.Clock) *Manager {
	if c == nil {
		c = clock.New()
	}
	return &Manager{
		ctx:      ctx,
		svc:      svc,
		clients:  clients,
		autosave: cfg,
		idle:     idle,
		clock:    c,
		sessions: cache.NewCache[SessionID, *Session](),
		entropy:  ulid.Monotonic(rand.Reader, 0),
	}
}

// Open starts a session for author. With a blog id the stored blog becomes the
// saved state and is returned as the initial document.
func (m *Manager) Open(ctx context.Context, author model.UserID, blogID model.BlogID) (*Session, autosave.Snapshot, error) {
	var existing *model.Blog
	if blogID != "" {
		b, err := m.svc.Get(ctx, author, blogID)
		if err != nil {
			return nil, autosave.Snapshot{}, err
		}
		existing = b
	}

	id, err := m.newID()
	if err != nil {
		return nil, autosave.Snapshot{}, err
	}

	l := editorLogger.With().Str("session_id", string(id)).Logger()
	sinks := notify.Multi{notify.NewLogSink(l)}
	if m.clients != nil {
		sinks = append(sinks, notify.NewStreamSink(m.clients, string(id)))
	}

	s := &Session{
		ID:       id,
		Author:   author,
		coord:    autosave.New(m.ctx, m.autosave, m.svc.Gateway(author), sinks, m.clock),
		lastSeen: m.clock.Now(),
	}

	var doc autosave.Snapshot
	if existing != nil {
		s.coord.Resume(existing)
		doc = autosave.SnapshotFromBlog(existing).Normalize()
	}

	m.sessions.Set(id, s)
	l.Info().Str("author_id", string(author)).Str("blog_id", string(blogID)).Msg("Editor session opened")
	return s, doc, nil
}

// Get returns author's session and marks it as active.
func (m *Manager) Get(author model.UserID, id SessionID) (*Session, error) {
	s, ok := m.sessions.Get(id)
	if !ok || s.Author != author {
		return nil, ErrSessionNotFound
	}
	s.touch(m.clock.Now())
	return s, nil
}

// Close tears author's session down.
func (m *Manager) Close(author model.UserID, id SessionID) error {
	s, ok := m.sessions.Get(id)
	if !ok || s.Author != author {
		return ErrSessionNotFound
	}
	m.remove(s)
	return nil
}

func (m *Manager) remove(s *Session) {
	if _, ok := m.sessions.Pop(s.ID); !ok {
		return
	}
	s.close()
	if m.clients != nil {
		m.clients.DeleteSession(string(s.ID))
	}
	editorLogger.Info().Str("session_id", string(s.ID)).Msg("Editor session closed")
}

func (m *Manager) Len() int {
	return m.sessions.Len()
}

// Reap closes idle sessions that have been inactive longer than the idle
// timeout and returns how many were closed. Sessions with a save armed or in
// flight are left alone.
func (m *Manager) Reap() int {
	now := m.clock.Now()
	n := 0
	for _, s := range m.sessions.Values() {
		if now.Sub(s.idleSince()) < m.idle {
			continue
		}
		if s.Status().State != autosave.StateIdle {
			continue
		}
		m.remove(s)
		n++
	}
	if n > 0 {
		editorLogger.Info().Int("reaped", n).Msg("Closed idle editor sessions")
	}
	return n
}

// StartReaper runs Reap periodically until Shutdown.
func (m *Manager) StartReaper() {
	interval := max(m.idle/4, time.Second)

	var tick func()
	tick = func() {
		m.Reap()

		m.mu.Lock()
		defer m.mu.Unlock()
		if !m.stopped {
			m.reaper = m.clock.AfterFunc(interval, tick)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped || m.reaper != nil {
		return
	}
	m.reaper = m.clock.AfterFunc(interval, tick)
}

// Shutdown stops the reaper and closes every session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.stopped = true
	if m.reaper != nil {
		m.reaper.Stop()
	}
	m.mu.Unlock()

	for _, s := range m.sessions.Values() {
		m.remove(s)
	}
}

func (m *Manager) newID() (SessionID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(m.clock.Now()), m.entropy)
	if err != nil {
		return "", err
	}
	return SessionID(id.String()), nil
}
