// Package feed owns the in-memory post feed.
package feed

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/orgball2608/news-mobile-core/internal/domain"
	"github.com/orgball2608/news-mobile-core/internal/observable"
	"github.com/orgball2608/news-mobile-core/internal/repositories/post"
	"github.com/orgball2608/news-mobile-core/pkg/errors"
	"github.com/orgball2608/news-mobile-core/pkg/logger"
	"go.uber.org/fx"
	"golang.org/x/sync/singleflight"
)

const refreshKey = "refresh"

var (
	ErrNotSignedIn = errors.WrapWithCode(errors.ErrUnauthorized, "not_signed_in", "sign in to create a post")
	ErrEmptyTitle  = errors.WrapWithCode(errors.ErrInvalidInput, "empty_title", "title is required")
)

// IdentitySource reports who is signed in.
type IdentitySource interface {
	Identity() *domain.Identity
}

// ImageEncoder turns a raw picture into an inline payload.
type ImageEncoder interface {
	EncodeErr(raw []byte) (string, error)
}

type SubmitRequest struct {
	Title       string
	Description string
	Image       []byte // Optional raw picture
}

type State struct {
	IsLoading    bool
	ErrorMessage string
}

type Opts struct {
	fx.In

	Posts    post.Repository
	Identity IdentitySource
	Encoder  ImageEncoder
	Logger   logger.Logger
}

// Controller holds the feed as a full snapshot of the latest applied list
// call. Concurrent refreshes share one in-flight call, and a result is only
// applied when no later-started call has been applied before it.
type Controller struct {
	posts    post.Repository
	identity IdentitySource
	encoder  ImageEncoder
	logger   logger.Logger

	group singleflight.Group

	mu      sync.Mutex
	seq     uint64 // last started list call
	applied uint64 // last applied list call
	loading int
	lastErr error

	feed  *observable.Value[[]domain.Post]
	state *observable.Value[State]
}

func New(opts Opts) *Controller {
	return &Controller{
		posts:    opts.Posts,
		identity: opts.Identity,
		encoder:  opts.Encoder,
		logger:   opts.Logger.WithComponent("feed"),
		feed:     observable.New[[]domain.Post](nil),
		state:    observable.New(State{}),
	}
}

// Refresh replaces the feed with a fresh list. On failure the previous feed
// stays and the error is recorded. The call runs to completion even if ctx
// is cancelled.
func (c *Controller) Refresh(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)

	c.beginLoading()
	defer c.endLoading()

	_, err, shared := c.group.Do(refreshKey, func() (any, error) {
		return nil, c.load(ctx)
	})
	if shared {
		c.logger.Debug("Joined in-flight refresh")
	}
	return err
}

func (c *Controller) load(ctx context.Context) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	posts, err := c.posts.List(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq < c.applied {
		c.logger.Debug("Discarding stale list result", "seq", seq, "applied", c.applied)
		return err
	}

	if err != nil {
		c.logger.Error("Failed to refresh feed", "error", err)
		c.lastErr = err
		c.state.Update(func(s State) State {
			s.ErrorMessage = "failed to load posts: " + errors.GetMessage(err)
			return s
		})
		return err
	}

	c.applied = seq
	c.lastErr = nil
	c.feed.Set(slices.Clip(posts))
	c.state.Update(func(s State) State {
		s.ErrorMessage = ""
		return s
	})
	c.logger.Info("Feed refreshed", "count", len(posts))
	return nil
}

// Submit creates a post for the signed-in identity and refreshes the feed
// before returning, so on success the new post is already visible.
func (c *Controller) Submit(ctx context.Context, req SubmitRequest) error {
	identity := c.identity.Identity()
	if identity == nil {
		return ErrNotSignedIn
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return ErrEmptyTitle
	}

	ctx = context.WithoutCancel(ctx)

	draft := domain.Post{
		Title:       title,
		Description: req.Description,
	}
	if len(req.Image) > 0 {
		payload, err := c.encoder.EncodeErr(req.Image)
		if err != nil {
			c.logger.Warn("Posting without image", "error", err)
		} else {
			draft.ImageBase64 = payload
		}
	}

	c.beginLoading()
	defer c.endLoading()

	created, err := c.posts.Create(ctx, draft, identity.ID, identity.Email)
	if err != nil {
		c.logger.Error("Failed to create post", "user_id", identity.ID, "error", err)
		return err
	}
	c.logger.Info("Post created", "post_id", created.ID, "user_id", identity.ID)

	// A flight started before the insert may miss the new post
	c.group.Forget(refreshKey)
	if err := c.Refresh(ctx); err != nil {
		c.logger.Warn("Post created but feed refresh failed", "post_id", created.ID, "error", err)
	}

	return nil
}

// Posts returns a copy of the current feed.
func (c *Controller) Posts() []domain.Post {
	return slices.Clone(c.feed.Get())
}

// PostsView exposes the feed for subscription. Subscribers must not modify
// the slice they receive.
func (c *Controller) PostsView() observable.View[[]domain.Post] {
	return c.feed
}

func (c *Controller) IsLoading() bool {
	return c.state.Get().IsLoading
}

func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Controller) State() State {
	return c.state.Get()
}

func (c *Controller) StateView() observable.View[State] {
	return c.state
}

func (c *Controller) beginLoading() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loading++
	if c.loading == 1 {
		c.state.Update(func(s State) State {
			s.IsLoading = true
			return s
		})
	}
}

func (c *Controller) endLoading() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loading--
	if c.loading == 0 {
		c.state.Update(func(s State) State {
			s.IsLoading = false
			return s
		})
	}
}
