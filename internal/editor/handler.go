package editor

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/debemdeboas/inkpot/internal/auth"
	"github.com/debemdeboas/inkpot/internal/autosave"
	"github.com/debemdeboas/inkpot/internal/config"
	"github.com/debemdeboas/inkpot/internal/model"
	"github.com/debemdeboas/inkpot/internal/repository"
	"github.com/debemdeboas/inkpot/internal/routes"
	"github.com/debemdeboas/inkpot/internal/sse"
	"github.com/debemdeboas/inkpot/internal/util"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type Handler struct {
	manager *Manager
	clients *sse.SSEClients
	auth    auth.AuthProvider
}

func NewHandler(manager *Manager, clients *sse.SSEClients, provider auth.AuthProvider) *Handler {
	return &Handler{
		manager: manager,
		clients: clients,
		auth:    provider,
	}
}

// Register mounts the editor session routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc(routes.EditorSessions, h.OpenSession).Methods(http.MethodPost)
	r.HandleFunc(routes.EditorSession, h.GetSession).Methods(http.MethodGet)
	r.HandleFunc(routes.EditorSession, h.CloseSession).Methods(http.MethodDelete)
	r.HandleFunc(routes.EditorSessionChanges, h.Change).Methods(http.MethodPost)
	r.HandleFunc(routes.EditorSessionSave, h.Save).Methods(http.MethodPost)
	r.HandleFunc(routes.EditorSessionPublish, h.Publish).Methods(http.MethodPost)
	r.HandleFunc(routes.EditorSessionEvents, h.Events).Methods(http.MethodGet)
}

type openRequest struct {
	BlogID model.BlogID `json:"blog_id"`
}

type openResponse struct {
	View
	Document autosave.Snapshot `json:"document"`
}

// ChangeRequest carries the full document after an edit of Field.
type ChangeRequest struct {
	Field string `json:"field"`
	autosave.Snapshot
}

func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	author, err := h.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	var req openRequest
	if _, err := util.DecodeJSON(r, &req); err != nil {
		util.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s, doc, err := h.manager.Open(r.Context(), author, req.BlogID)
	if errors.Is(err, repository.ErrNotFound) {
		util.WriteError(w, http.StatusNotFound, "Blog not found")
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to open editor session")
		util.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	util.WriteJSON(w, http.StatusCreated, openResponse{
		View:     s.View(h.manager.clock.Now()),
		Document: doc,
	})
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	util.WriteJSON(w, http.StatusOK, s.View(h.manager.clock.Now()))
}

func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	author, err := h.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}
	if err := h.manager.Close(author, SessionID(mux.Vars(r)["id"])); err != nil {
		util.WriteError(w, http.StatusNotFound, "Session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Change(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req ChangeRequest
	if ok, err := util.DecodeJSON(r, &req); err != nil || !ok {
		util.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.Change(req.Field, req.Snapshot)
	util.WriteJSON(w, http.StatusAccepted, s.View(h.manager.clock.Now()))
}

func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	h.flush(w, r, (*Session).Save)
}

func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	h.flush(w, r, (*Session).Publish)
}

func (h *Handler) flush(w http.ResponseWriter, r *http.Request, fn func(*Session, context.Context, *autosave.Snapshot) error) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var doc *autosave.Snapshot
	var body autosave.Snapshot
	decoded, err := util.DecodeJSON(r, &body)
	if err != nil {
		util.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if decoded {
		doc = &body
	}

	err = fn(s, r.Context(), doc)
	var saveErr *autosave.SaveError
	switch {
	case err == nil:
		util.WriteJSON(w, http.StatusOK, s.View(h.manager.clock.Now()))
	case errors.Is(err, autosave.ErrEmptyDocument):
		util.WriteError(w, http.StatusUnprocessableEntity, "Add a title or some content before saving.")
	case errors.Is(err, autosave.ErrTerminated):
		util.WriteError(w, http.StatusGone, "Session closed")
	case errors.As(err, &saveErr):
		zerolog.Ctx(r.Context()).Error().Err(err).Str("session_id", string(s.ID)).Msg("Forced save failed")
		util.WriteError(w, http.StatusBadGateway, "Failed to save draft. Please try again.")
	default:
		util.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// Events streams the session's notifications as server-sent events.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		util.WriteError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	w.Header().Set(config.HCType, config.CTypeSSE)
	w.Header().Set(config.HCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: connected\ndata: %s\n\n", s.ID)
	flusher.Flush()

	client := sse.NewClient(string(s.ID))
	h.clients.Add(client)
	defer h.clients.Delete(client)

	l := zerolog.Ctx(r.Context())
	l.Debug().Str("session_id", string(s.ID)).Msg("SSE client connected")

	done := r.Context().Done()
	for {
		select {
		case msg, ok := <-client.Msg:
			if !ok {
				// Session closed.
				return
			}
			fmt.Fprintf(w, "event: notification\ndata: %s\n\n", msg)
			flusher.Flush()
		case <-done:
			l.Debug().Str("session_id", string(s.ID)).Msg("SSE client disconnected")
			return
		}
	}
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	author, err := h.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return nil, false
	}
	s, err := h.manager.Get(author, SessionID(mux.Vars(r)["id"]))
	if err != nil {
		util.WriteError(w, http.StatusNotFound, "Session not found")
		return nil, false
	}
	return s, true
}
