package editor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/debemdeboas/inkpot/internal/auth"
	"github.com/debemdeboas/inkpot/internal/config"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	*fixture
	handler *Handler
	router  http.Handler
	cookie  *http.Cookie
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	f := newFixture(t)

	provider := auth.NewDemoAuthProvider(config.Default().Auth)
	h := NewHandler(f.manager, f.clients, provider)

	r := mux.NewRouter()
	h.Register(r)

	rec := httptest.NewRecorder()
	provider.SignIn(rec, httptest.NewRequest(http.MethodPost, "/api/auth/signin", nil))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	return &apiFixture{
		fixture: f,
		handler: h,
		router:  provider.WithSessionAuthorization()(r),
		cookie:  cookies[0],
	}
}

func (a *apiFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req.AddCookie(a.cookie)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *apiFixture) open(t *testing.T, body string) openResponse {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/editor/sessions", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp openResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHandlerRequiresUser(t *testing.T) {
	a := newAPIFixture(t)

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/editor/sessions", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerEditAndAutosave(t *testing.T) {
	a := newAPIFixture(t)
	resp := a.open(t, "")
	assert.Equal(t, "idle", resp.State)
	base := "/api/editor/sessions/" + string(resp.SessionID)

	rec := a.do(t, http.MethodPost, base+"/changes", `{"field":"content","title":"Hi","content":"there","tags":["go"]}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"pending"`)

	a.clock.Advance(2 * time.Second)

	rec = a.do(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var v View
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	assert.Equal(t, "idle", v.State)
	assert.NotEmpty(t, v.BlogID)
	assert.Equal(t, "now", v.LastSaved)

	b, err := a.repo.Get(context.Background(), demoUser, v.BlogID)
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, b.Tags)
}

func TestHandlerOpenExisting(t *testing.T) {
	a := newAPIFixture(t)
	resp := a.open(t, `{"blog_id":"1"}`)
	assert.Equal(t, "Getting Started with Next.js", resp.Document.Title)
	assert.EqualValues(t, "1", resp.BlogID)

	rec := a.do(t, http.MethodPost, "/api/editor/sessions", `{"blog_id":"nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerSaveAndPublish(t *testing.T) {
	a := newAPIFixture(t)
	base := "/api/editor/sessions/" + string(a.open(t, "").SessionID)

	rec := a.do(t, http.MethodPost, base+"/save", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = a.do(t, http.MethodPost, base+"/save", `{"title":"T","content":"C"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var v View
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))

	rec = a.do(t, http.MethodPost, base+"/publish", "")
	require.Equal(t, http.StatusOK, rec.Code)

	b, err := a.repo.Get(context.Background(), demoUser, v.BlogID)
	require.NoError(t, err)
	assert.EqualValues(t, "published", b.Status)
	assert.Equal(t, "C", b.Content)
}

func TestHandlerBadBody(t *testing.T) {
	a := newAPIFixture(t)
	base := "/api/editor/sessions/" + string(a.open(t, "").SessionID)

	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPost, base+"/changes", "").Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPost, base+"/changes", "{").Code)
}

func TestHandlerCloseSession(t *testing.T) {
	a := newAPIFixture(t)
	base := "/api/editor/sessions/" + string(a.open(t, "").SessionID)

	assert.Equal(t, http.StatusNoContent, a.do(t, http.MethodDelete, base, "").Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodDelete, base, "").Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, base, "").Code)
}

// lockedRecorder guards the body so the test can poll it while the stream runs.
type lockedRecorder struct {
	mu  sync.Mutex
	rec *httptest.ResponseRecorder
}

func (l *lockedRecorder) Header() http.Header { return l.rec.Header() }

func (l *lockedRecorder) Write(b []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rec.Write(b)
}

func (l *lockedRecorder) WriteHeader(code int) { l.rec.WriteHeader(code) }

func (l *lockedRecorder) Flush() {}

func (l *lockedRecorder) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rec.Body.String()
}

func TestHandlerEventsStreamNotifications(t *testing.T) {
	a := newAPIFixture(t)
	resp := a.open(t, "")
	base := "/api/editor/sessions/" + string(resp.SessionID)

	req := httptest.NewRequest(http.MethodGet, base+"/events", nil)
	req.AddCookie(a.cookie)
	w := &lockedRecorder{rec: httptest.NewRecorder()}

	done := make(chan struct{})
	go func() {
		defer close(done)
		a.router.ServeHTTP(w, req)
	}()

	require.Eventually(t, func() bool {
		return a.clients.Count(string(resp.SessionID)) == 1
	}, time.Second, 5*time.Millisecond)

	rec := a.do(t, http.MethodPost, base+"/save", `{"title":"T","content":"C"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Eventually(t, func() bool {
		return strings.Contains(w.String(), "Draft saved")
	}, time.Second, 5*time.Millisecond)

	// Closing the session ends the stream.
	assert.Equal(t, http.StatusNoContent, a.do(t, http.MethodDelete, base, "").Code)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("event stream did not end after the session closed")
	}

	body := w.String()
	assert.Contains(t, body, "event: connected")
	assert.Contains(t, body, "event: notification")
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
}
