package api

import (
	"net/http"

	"github.com/debemdeboas/inkpot/internal/model"
	"github.com/debemdeboas/inkpot/internal/repository"
	"github.com/debemdeboas/inkpot/internal/service"
	"github.com/debemdeboas/inkpot/internal/util"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// saveDraftRequest accepts the blog id as either "id" or "_id".
type saveDraftRequest struct {
	ID       model.BlogID `json:"id"`
	LegacyID model.BlogID `json:"_id"`
	model.BlogFields
}

func (r saveDraftRequest) blogID() model.BlogID {
	if r.ID != "" {
		return r.ID
	}
	return r.LegacyID
}

func (s *Server) serveDashboard(w http.ResponseWriter, r *http.Request) {
	author, err := s.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	d, err := s.blogs.Dashboard(r.Context(), author)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, d)
}

func (s *Server) listBlogs(w http.ResponseWriter, r *http.Request) {
	author, err := s.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	blogs, err := s.blogs.List(r.Context(), author, model.Status(r.URL.Query().Get("status")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, blogs)
}

func (s *Server) createBlog(w http.ResponseWriter, r *http.Request) {
	author, err := s.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	var f model.BlogFields
	if ok, err := util.DecodeJSON(r, &f); err != nil || !ok {
		util.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	b, err := s.blogs.Create(r.Context(), author, f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusCreated, b)
}

func (s *Server) saveDraft(w http.ResponseWriter, r *http.Request) {
	author, err := s.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	var req saveDraftRequest
	if ok, err := util.DecodeJSON(r, &req); err != nil || !ok {
		util.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	b, err := s.blogs.SaveDraft(r.Context(), author, req.blogID(), req.BlogFields)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, b)
}

func (s *Server) getBlog(w http.ResponseWriter, r *http.Request) {
	author, err := s.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	b, err := s.blogs.Get(r.Context(), author, model.BlogID(mux.Vars(r)["id"]))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, b)
}

func (s *Server) updateBlog(w http.ResponseWriter, r *http.Request) {
	author, err := s.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	var patch service.BlogPatch
	if ok, err := util.DecodeJSON(r, &patch); err != nil || !ok {
		util.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	b, err := s.blogs.Patch(r.Context(), author, model.BlogID(mux.Vars(r)["id"]), patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, b)
}

func (s *Server) deleteBlog(w http.ResponseWriter, r *http.Request) {
	author, err := s.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	if err := s.blogs.Delete(r.Context(), author, model.BlogID(mux.Vars(r)["id"])); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		util.WriteJSON(w, http.StatusBadRequest, map[string]any{"error": verr.Problems})
	case errors.Is(err, repository.ErrNotFound):
		util.WriteError(w, http.StatusNotFound, "Blog not found")
	default:
		zerolog.Ctx(r.Context()).Error().Stack().Err(err).Msg("Blog request failed")
		util.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}
