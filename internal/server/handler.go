package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/orgball2608/news-mobile-core/internal/auth"
	"github.com/orgball2608/news-mobile-core/internal/domain"
	"github.com/orgball2608/news-mobile-core/internal/feed"
	"github.com/orgball2608/news-mobile-core/internal/news"
	"github.com/orgball2608/news-mobile-core/pkg/errors"
)

func (s server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok"))
}

func (s server) getSession(w http.ResponseWriter, _ *http.Request) {
	s.writeSession(w, http.StatusOK)
}

func (s server) signIn(w http.ResponseWriter, r *http.Request) {
	var req Credentials
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.Session.SignIn(r.Context(), auth.Credentials(req)); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSession(w, http.StatusOK)
}

func (s server) signUp(w http.ResponseWriter, r *http.Request) {
	var req Credentials
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.Session.SignUp(r.Context(), auth.Credentials(req)); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSession(w, http.StatusCreated)
}

func (s server) signOut(w http.ResponseWriter, r *http.Request) {
	if err := s.Session.SignOut(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSession(w, http.StatusOK)
}

func (s server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileUpdateRequest
	if !s.decode(w, r, &req) {
		return
	}

	upd := domain.ProfileUpdate{Email: req.Email, Icon: req.Icon}
	if err := s.Session.UpdateProfile(r.Context(), upd); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s server) listPosts(w http.ResponseWriter, _ *http.Request) {
	s.listPostsWithStatus(w, http.StatusOK)
}

func (s server) createPost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, Error{Error: "invalid multipart form"})
		return
	}

	req := feed.SubmitRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}

	file, _, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		req.Image, err = io.ReadAll(file)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Error{Error: "failed to read image"})
			return
		}
	case errors.Is(err, http.ErrMissingFile):
	default:
		writeJSON(w, http.StatusBadRequest, Error{Error: "invalid image field"})
		return
	}

	if err := s.Feed.Submit(r.Context(), req); err != nil {
		s.writeError(w, err)
		return
	}
	s.listPostsWithStatus(w, http.StatusCreated)
}

func (s server) refreshPosts(w http.ResponseWriter, r *http.Request) {
	if err := s.Feed.Refresh(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.listPostsWithStatus(w, http.StatusOK)
}

func (s server) listPostsWithStatus(w http.ResponseWriter, status int) {
	st := s.Feed.State()
	writeJSON(w, status, ListPostsResponse{
		Posts:        toPosts(s.Feed.Posts(), s.ImageBaseURL),
		IsLoading:    st.IsLoading,
		ErrorMessage: st.ErrorMessage,
	})
}

func (s server) listNews(w http.ResponseWriter, _ *http.Request) {
	st := s.News.State()
	writeJSON(w, http.StatusOK, ListNewsResponse{
		Articles:     toArticles(s.News.Articles(), s.Location),
		IsLoading:    st.IsLoading,
		ErrorMessage: st.ErrorMessage,
	})
}

func (s server) refreshNews(w http.ResponseWriter, r *http.Request) {
	if err := s.News.Load(r.Context(), r.URL.Query().Get("q")); err != nil {
		s.writeError(w, err)
		return
	}
	s.listNews(w, r)
}

func (s server) writeSession(w http.ResponseWriter, status int) {
	st := s.Session.State()
	writeJSON(w, status, SessionResponse{
		Identity:     toIdentity(s.Session.Identity()),
		Profile:      toProfile(s.Profiles.Profile()),
		IsLoading:    st.IsLoading,
		ErrorMessage: st.ErrorMessage,
	})
}

func (s server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, Error{Error: "invalid request body"})
		return false
	}
	return true
}

// writeError maps core failures to a status and a displayable message.
func (s server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, news.ErrLoadInProgress):
		status = http.StatusConflict
	case errors.Is(err, news.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.IsAuthFailure(err), errors.IsUnauthorized(err):
		status = http.StatusUnauthorized
	case errors.Is(err, errors.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.IsStoreUnavailable(err):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		s.Logger.Error("Request failed", "error", err)
	}

	writeJSON(w, status, Error{Error: errors.GetMessage(err), Code: errors.GetCode(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
