// Package api exposes the blog and editor HTTP API.
package api

import (
	"net/http"

	"github.com/debemdeboas/inkpot/internal/auth"
	"github.com/debemdeboas/inkpot/internal/config"
	"github.com/debemdeboas/inkpot/internal/editor"
	"github.com/debemdeboas/inkpot/internal/routes"
	"github.com/debemdeboas/inkpot/internal/service"
	"github.com/debemdeboas/inkpot/internal/util"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

var apiLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	apiLogger = l
}

type Server struct {
	site   config.SiteConfig
	blogs  *service.BlogService
	auth   *auth.DemoAuthProvider
	editor *editor.Handler
}

func NewServer(site config.SiteConfig, blogs *service.BlogService, provider *auth.DemoAuthProvider, editorHandler *editor.Handler) *Server {
	return &Server{
		site:   site,
		blogs:  blogs,
		auth:   provider,
		editor: editorHandler,
	}
}

// Handler builds the router with its middleware chain.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc(routes.RootPath, s.serveIndex).Methods(http.MethodGet)
	r.HandleFunc(routes.HealthPath, serveHealth).Methods(http.MethodGet)

	r.HandleFunc(routes.AuthSignIn, s.auth.SignIn).Methods(http.MethodPost)
	r.HandleFunc(routes.AuthSignOut, s.auth.SignOut).Methods(http.MethodPost)
	r.HandleFunc(routes.AuthMe, s.auth.Me).Methods(http.MethodGet)

	r.HandleFunc(routes.APIDashboard, s.serveDashboard).Methods(http.MethodGet)
	r.HandleFunc(routes.APIBlogs, s.listBlogs).Methods(http.MethodGet)
	r.HandleFunc(routes.APIBlogs, s.createBlog).Methods(http.MethodPost)
	r.HandleFunc(routes.APIBlogSaveDraft, s.saveDraft).Methods(http.MethodPost)
	r.HandleFunc(routes.APIBlog, s.getBlog).Methods(http.MethodGet)
	r.HandleFunc(routes.APIBlog, s.updateBlog).Methods(http.MethodPut)
	r.HandleFunc(routes.APIBlog, s.deleteBlog).Methods(http.MethodDelete)

	if s.editor != nil {
		s.editor.Register(r)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		util.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		util.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	var h http.Handler = r
	h = s.auth.WithSessionAuthorization()(h)
	h = secureHeaders(h)
	h = requestLogger(apiLogger)(h)
	return h
}

func serveHealth(w http.ResponseWriter, r *http.Request) {
	util.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	_, signedIn := auth.UserIDFromContext(r.Context())
	util.WriteJSON(w, http.StatusOK, map[string]any{
		"name":        s.site.Name,
		"description": s.site.Description,
		"signed_in":   signedIn,
		"links": map[string]string{
			"sign_in":   routes.AuthSignIn,
			"dashboard": routes.APIDashboard,
			"blogs":     routes.APIBlogs,
			"editor":    routes.EditorSessions,
		},
	})
}
