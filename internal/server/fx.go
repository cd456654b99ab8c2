package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/fx"

	"github.com/orgball2608/news-mobile-core/internal/feed"
	"github.com/orgball2608/news-mobile-core/internal/news"
	"github.com/orgball2608/news-mobile-core/internal/profilebinder"
	"github.com/orgball2608/news-mobile-core/internal/session"
	"github.com/orgball2608/news-mobile-core/pkg/config"
	"github.com/orgball2608/news-mobile-core/pkg/logger"
)

type Opts struct {
	fx.In

	Config    *config.Config
	Logger    logger.Logger
	Session   *session.Session
	Binder    *profilebinder.Binder
	Feed      *feed.Controller
	News      *news.Loader
	Lifecycle fx.Lifecycle
}

// New builds the HTTP server and binds it to the fx lifecycle.
func New(opts Opts) *http.Server {
	log := opts.Logger.WithComponent("http")

	r := chi.NewRouter()
	SetupRouter(Deps{
		Session:      opts.Session,
		Profiles:     opts.Binder,
		Feed:         opts.Feed,
		News:         opts.News,
		Logger:       log,
		ImageBaseURL: opts.Config.Images.BaseURL,
		Location:     time.Local,
	}, r)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", opts.Config.App.Host, opts.Config.App.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	opts.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
			}
			log.Info("Starting server", "addr", srv.Addr)

			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("Server stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})

	return srv
}

var Module = fx.Module("server",
	fx.Provide(New),
	fx.Invoke(func(*http.Server) {}),
)
