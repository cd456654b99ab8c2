package auth

import (
	"context"

	"github.com/orgball2608/news-mobile-core/internal/domain"
	"github.com/orgball2608/news-mobile-core/internal/observable"
)

type Credentials struct {
	Email    string
	Password string
}

// Listener receives the identity after every auth transition, nil when
// signed out.
type Listener func(identity *domain.Identity)

type Client interface {
	// SignIn authenticates an existing account. Failures wrap errors.ErrAuthFailure.
	SignIn(ctx context.Context, creds Credentials) (*domain.Identity, error)

	// SignUp creates the account and signs it in.
	SignUp(ctx context.Context, creds Credentials) (*domain.Identity, error)

	SignOut(ctx context.Context) error

	// Current returns the signed-in identity or nil.
	Current() *domain.Identity

	// Subscribe delivers the current state right away and then one call per
	// transition. Close the returned handle to stop listening.
	Subscribe(fn Listener) *observable.Subscription
}
