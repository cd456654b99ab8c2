// Package server exposes the client core to a local shell over JSON.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/orgball2608/news-mobile-core/internal/auth"
	"github.com/orgball2608/news-mobile-core/internal/domain"
	"github.com/orgball2608/news-mobile-core/internal/feed"
	"github.com/orgball2608/news-mobile-core/internal/news"
	"github.com/orgball2608/news-mobile-core/internal/session"
	"github.com/orgball2608/news-mobile-core/pkg/logger"
)

const (
	maxBodySize   = 1 << 20
	maxUploadSize = 10 << 20
)

type Session interface {
	Identity() *domain.Identity
	State() session.State
	SignIn(ctx context.Context, creds auth.Credentials) error
	SignUp(ctx context.Context, creds auth.Credentials) error
	SignOut(ctx context.Context) error
	UpdateProfile(ctx context.Context, upd domain.ProfileUpdate) error
}

type Profiles interface {
	Profile() *domain.Profile
}

type Feed interface {
	Posts() []domain.Post
	State() feed.State
	Refresh(ctx context.Context) error
	Submit(ctx context.Context, req feed.SubmitRequest) error
}

type News interface {
	Articles() []domain.Article
	State() news.State
	Load(ctx context.Context, query string) error
}

type Deps struct {
	Session      Session
	Profiles     Profiles
	Feed         Feed
	News         News
	Logger       logger.Logger
	ImageBaseURL string
	Location     *time.Location
}

type server struct {
	Deps
}

// SetupRouter registers the handlers on r.
func SetupRouter(deps Deps, r chi.Router) {
	if deps.Location == nil {
		deps.Location = time.Local
	}
	srv := server{Deps: deps}

	r.Use(
		middleware.RequestID,
		echoRequestID,
		srv.logRequests,
		middleware.StripSlashes,
		middleware.Recoverer,
	)

	r.Get("/healthz", srv.healthz)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/session", srv.getSession)
		r.Post("/session/signin", srv.signIn)
		r.Post("/session/signup", srv.signUp)
		r.Post("/session/signout", srv.signOut)
		r.Put("/session/profile", srv.updateProfile)

		r.Get("/posts", srv.listPosts)
		r.Post("/posts", srv.createPost)
		r.Post("/posts/refresh", srv.refreshPosts)

		r.Get("/news", srv.listNews)
		r.Post("/news/refresh", srv.refreshNews)
	})
}

// echoRequestID returns the id assigned by middleware.RequestID to the caller.
func echoRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			w.Header().Set(middleware.RequestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	})
}

func (s server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.Logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
