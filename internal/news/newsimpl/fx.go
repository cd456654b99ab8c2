package newsimpl

import (
	"github.com/orgball2608/news-mobile-core/internal/news"
	"go.uber.org/fx"
)

var Module = fx.Module("news_client",
	fx.Provide(
		fx.Annotate(
			New,
			fx.As(new(news.Client)),
		),
	),
)
