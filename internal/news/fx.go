package news

import (
	"time"

	"github.com/orgball2608/news-mobile-core/internal/ratelimit"
	"github.com/orgball2608/news-mobile-core/pkg/config"
	"go.uber.org/fx"
)

var Module = fx.Module("news",
	fx.Provide(
		fx.Annotate(
			func(cfg *config.Config) *ratelimit.InMemoryLimiter {
				return ratelimit.NewInMemoryLimiter(cfg.News.LoadsPerMin, time.Minute, cfg.News.LoadsBurst)
			},
			fx.As(new(ratelimit.Limiter)),
		),
		New,
	),
)
