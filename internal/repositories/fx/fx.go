package fx

import (
	"github.com/orgball2608/news-mobile-core/internal/repositories/post"
	"github.com/orgball2608/news-mobile-core/internal/repositories/profile"
	"go.uber.org/fx"
)

var Module = fx.Options(
	post.Module,
	profile.Module,
)
