package app

import (
	"context"
	"fmt"

	"github.com/orgball2608/news-mobile-core/internal/auth/authimpl"
	"github.com/orgball2608/news-mobile-core/internal/feed"
	"github.com/orgball2608/news-mobile-core/internal/imageenc"
	"github.com/orgball2608/news-mobile-core/internal/migrations"
	"github.com/orgball2608/news-mobile-core/internal/news"
	"github.com/orgball2608/news-mobile-core/internal/news/newsimpl"
	"github.com/orgball2608/news-mobile-core/internal/poller"
	repositories "github.com/orgball2608/news-mobile-core/internal/repositories/fx"
	"github.com/orgball2608/news-mobile-core/internal/server"
	"github.com/orgball2608/news-mobile-core/internal/session"
	"github.com/orgball2608/news-mobile-core/pkg/config"
	"github.com/orgball2608/news-mobile-core/pkg/logger"
	"github.com/orgball2608/news-mobile-core/pkg/pgx"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(
		config.New,
		logger.FxOption,
		pgx.New,
	),
	repositories.Module,
	fx.Invoke(migrate),

	authimpl.Module,
	session.Module,
	newsimpl.Module,
	news.Module,
	feed.Module,
	fx.Provide(
		newImageEncoder,
		func(s *session.Session) feed.IdentitySource { return s },
		func(s *session.Session) poller.Identities { return s },
		func(c *feed.Controller) poller.Feed { return c },
		func(l *news.Loader) poller.News { return l },
	),
	poller.Module,
	server.Module,
)

func newImageEncoder(cfg *config.Config) feed.ImageEncoder {
	return imageenc.New(imageenc.Options{
		MaxWidth:        cfg.Images.MaxDimension,
		MaxHeight:       cfg.Images.MaxDimension,
		Quality:         cfg.Images.Quality,
		MaxPayloadBytes: cfg.Images.MaxPayloadBytes,
		MaxPixels:       cfg.Images.MaxPixels,
	})
}

func migrate(cfg *config.Config, log logger.Logger) error {
	if err := migrations.Up(context.Background(), cfg.GetDSN()); err != nil {
		return fmt.Errorf("failed to migrate document store: %w", err)
	}
	log.Info("Document store schema is up to date")
	return nil
}
