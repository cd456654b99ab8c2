// Package session tracks the signed-in identity and drives the auth actions.
package session

import (
	"context"

	"github.com/orgball2608/news-mobile-core/internal/auth"
	"github.com/orgball2608/news-mobile-core/internal/domain"
	"github.com/orgball2608/news-mobile-core/internal/observable"
	"github.com/orgball2608/news-mobile-core/internal/repositories/profile"
	"github.com/orgball2608/news-mobile-core/pkg/errors"
	"github.com/orgball2608/news-mobile-core/pkg/logger"
	"go.uber.org/fx"
)

// ProfileBinder reacts to identity changes.
type ProfileBinder interface {
	OnIdentityChange(identity *domain.Identity)
	Reload()
}

type State struct {
	IsLoading    bool
	ErrorMessage string
}

type Opts struct {
	fx.In

	Auth     auth.Client
	Profiles profile.Repository
	Binder   ProfileBinder
	Logger   logger.Logger
}

type Session struct {
	auth     auth.Client
	profiles profile.Repository
	binder   ProfileBinder
	logger   logger.Logger

	identity *observable.Value[*domain.Identity]
	state    *observable.Value[State]
	sub      *observable.Subscription
}

func New(opts Opts) *Session {
	s := &Session{
		auth:     opts.Auth,
		profiles: opts.Profiles,
		binder:   opts.Binder,
		logger:   opts.Logger.WithComponent("session"),
		identity: observable.New[*domain.Identity](nil),
		state:    observable.New(State{}),
	}
	s.sub = s.auth.Subscribe(s.onAuthChange)
	return s
}

// onAuthChange is the only writer of the identity.
func (s *Session) onAuthChange(identity *domain.Identity) {
	if identity == nil {
		s.logger.Info("Identity cleared")
	} else {
		s.logger.Info("Identity set", "user_id", identity.ID)
	}

	// The binder clears the profile before observers see the new identity
	s.binder.OnIdentityChange(identity)
	s.identity.Set(identity)
}

func (s *Session) Identity() *domain.Identity {
	return s.identity.Get()
}

func (s *Session) IdentityView() observable.View[*domain.Identity] {
	return s.identity
}

func (s *Session) State() State {
	return s.state.Get()
}

func (s *Session) StateView() observable.View[State] {
	return s.state
}

func (s *Session) SignIn(ctx context.Context, creds auth.Credentials) error {
	s.begin()

	_, err := s.auth.SignIn(ctx, creds)
	if err != nil {
		s.logger.Warn("Sign in failed", "email", creds.Email, "error", err)
		s.finish("sign in failed: " + errors.GetMessage(err))
		return err
	}

	s.finish("")
	return nil
}

// SignUp creates the account and provisions its profile document. A failed
// provision is logged only, the account exists regardless.
func (s *Session) SignUp(ctx context.Context, creds auth.Credentials) error {
	s.begin()

	identity, err := s.auth.SignUp(ctx, creds)
	if err != nil {
		s.logger.Warn("Sign up failed", "email", creds.Email, "error", err)
		s.finish("sign up failed: " + errors.GetMessage(err))
		return err
	}

	if err := s.profiles.Provision(ctx, identity.ID, identity.Email); err != nil {
		s.logger.Error("Failed to provision profile", "user_id", identity.ID, "error", err)
	} else if domain.SameIdentity(s.Identity(), identity) {
		s.binder.Reload()
	}

	s.finish("")
	return nil
}

func (s *Session) SignOut(ctx context.Context) error {
	s.begin()

	if err := s.auth.SignOut(ctx); err != nil {
		s.logger.Warn("Sign out failed", "error", err)
		s.finish("sign out failed: " + errors.GetMessage(err))
		return err
	}

	s.finish("")
	return nil
}

// UpdateProfile merges upd into the profile of the signed-in identity.
func (s *Session) UpdateProfile(ctx context.Context, upd domain.ProfileUpdate) error {
	identity := s.Identity()
	if identity == nil {
		return errors.ErrUnauthorized
	}
	if upd.IsEmpty() {
		return errors.WrapWithCode(errors.ErrInvalidInput, "empty_update", "nothing to update")
	}

	if err := s.profiles.Update(ctx, identity.ID, upd); err != nil {
		s.logger.Error("Failed to update profile", "user_id", identity.ID, "error", err)
		return err
	}

	s.binder.Reload()
	return nil
}

func (s *Session) begin() {
	s.state.Set(State{IsLoading: true})
}

func (s *Session) finish(msg string) {
	s.state.Set(State{ErrorMessage: msg})
}

// Close releases the auth subscription. Safe to call more than once.
func (s *Session) Close() {
	s.sub.Close()
}

