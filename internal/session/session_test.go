package session

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/orgball2608/news-mobile-core/internal/auth"
	"github.com/orgball2608/news-mobile-core/internal/domain"
	"github.com/orgball2608/news-mobile-core/internal/observable"
	"github.com/orgball2608/news-mobile-core/internal/profilebinder"
	mock_profile "github.com/orgball2608/news-mobile-core/internal/repositories/profile/mocks"
	"github.com/orgball2608/news-mobile-core/pkg/errors"
	"github.com/orgball2608/news-mobile-core/pkg/logger"
)

// fakeAuth is an in-memory auth provider with the same notification
// semantics as the REST client.
type fakeAuth struct {
	mu        sync.Mutex
	accounts  map[string]string
	current   *domain.Identity
	listeners map[int]auth.Listener
	next      int
	calls     int
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{accounts: map[string]string{}, listeners: map[int]auth.Listener{}}
}

func (f *fakeAuth) SignIn(_ context.Context, c auth.Credentials) (*domain.Identity, error) {
	f.mu.Lock()
	f.calls++
	pw, ok := f.accounts[c.Email]
	f.mu.Unlock()

	if !ok || pw != c.Password {
		return nil, errors.WrapKind(errors.ErrAuthFailure, errors.ErrUnauthorized, "invalid email or password")
	}
	id := &domain.Identity{ID: "uid-" + c.Email, Email: c.Email}
	f.set(id)
	return id, nil
}

func (f *fakeAuth) SignUp(_ context.Context, c auth.Credentials) (*domain.Identity, error) {
	f.mu.Lock()
	f.calls++
	if _, ok := f.accounts[c.Email]; ok {
		f.mu.Unlock()
		return nil, errors.WrapKind(errors.ErrAuthFailure, errors.ErrInvalidInput, "an account with this email already exists")
	}
	f.accounts[c.Email] = c.Password
	f.mu.Unlock()

	id := &domain.Identity{ID: "uid-" + c.Email, Email: c.Email}
	f.set(id)
	return id, nil
}

func (f *fakeAuth) SignOut(context.Context) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	f.set(nil)
	return nil
}

func (f *fakeAuth) Current() *domain.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeAuth) Subscribe(fn auth.Listener) *observable.Subscription {
	f.mu.Lock()
	id := f.next
	f.next++
	f.listeners[id] = fn
	current := f.current
	f.mu.Unlock()

	fn(current)
	return observable.NewSubscription(func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	})
}

func (f *fakeAuth) set(id *domain.Identity) {
	f.mu.Lock()
	f.current = id
	var fns []auth.Listener
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(id)
	}
}

func (f *fakeAuth) listenerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

type fixture struct {
	session  *Session
	auth     *fakeAuth
	profiles *mock_profile.MockRepository
	binder   *profilebinder.Binder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	profiles := mock_profile.NewMockRepository(ctrl)
	binder := profilebinder.New(profilebinder.Opts{Profiles: profiles, Logger: logger.Nop()})
	fa := newFakeAuth()

	s := New(Opts{Auth: fa, Profiles: profiles, Binder: binder, Logger: logger.Nop()})
	t.Cleanup(func() {
		s.Close()
		binder.Close()
	})

	return &fixture{session: s, auth: fa, profiles: profiles, binder: binder}
}

func strPtr(s string) *string { return &s }

func TestSession_SignUpSignOutWrongPassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// The store plays the provisioned document back to the binder
	var (
		mu          sync.Mutex
		provisioned domain.Profile
	)
	f.profiles.EXPECT().
		Provision(gomock.Any(), "uid-a@x.com", "a@x.com").
		DoAndReturn(func(_ context.Context, _, email string) error {
			mu.Lock()
			defer mu.Unlock()
			provisioned = domain.Profile{Email: strPtr(email), Icon: strPtr("")}
			return nil
		})
	f.profiles.EXPECT().
		Get(gomock.Any(), "uid-a@x.com").
		DoAndReturn(func(context.Context, string) (domain.Profile, error) {
			mu.Lock()
			defer mu.Unlock()
			return provisioned, nil
		}).
		AnyTimes()

	require.NoError(t, f.session.SignUp(ctx, auth.Credentials{Email: "a@x.com", Password: "secret1"}))
	f.binder.Wait()

	require.NotNil(t, f.session.Identity())
	assert.Equal(t, "a@x.com", f.session.Identity().Email)
	assert.Equal(t, State{}, f.session.State())

	p := f.binder.Profile()
	require.NotNil(t, p)
	assert.Equal(t, "a@x.com", *p.Email)
	assert.Equal(t, "", *p.Icon)

	require.NoError(t, f.session.SignOut(ctx))
	assert.Nil(t, f.session.Identity())
	assert.Nil(t, f.binder.Profile())

	err := f.session.SignIn(ctx, auth.Credentials{Email: "a@x.com", Password: "wrong"})
	require.Error(t, err)

	assert.Nil(t, f.session.Identity())
	st := f.session.State()
	assert.False(t, st.IsLoading)
	assert.Equal(t, "sign in failed: invalid email or password", st.ErrorMessage)
}

func TestSession_ProvisionFailureStillSignsUp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.profiles.EXPECT().
		Provision(gomock.Any(), "uid-b@x.com", "b@x.com").
		Return(errors.WrapKind(errors.ErrStoreUnavailable, context.DeadlineExceeded, "failed to provision profile"))
	f.profiles.EXPECT().
		Get(gomock.Any(), "uid-b@x.com").
		Return(domain.Profile{}, errors.ErrNotFound).
		AnyTimes()

	require.NoError(t, f.session.SignUp(ctx, auth.Credentials{Email: "b@x.com", Password: "secret1"}))
	f.binder.Wait()

	require.NotNil(t, f.session.Identity())
	assert.Empty(t, f.session.State().ErrorMessage)
	assert.Nil(t, f.binder.Profile())
}

func TestSession_SignUpFailureSkipsProvision(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.auth.accounts["taken@x.com"] = "secret1"

	err := f.session.SignUp(ctx, auth.Credentials{Email: "taken@x.com", Password: "secret1"})
	require.Error(t, err)

	assert.Nil(t, f.session.Identity())
	assert.Equal(t, "sign up failed: an account with this email already exists", f.session.State().ErrorMessage)
	assert.False(t, f.session.State().IsLoading)
}

func TestSession_ErrorClearedOnNextAttempt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.auth.accounts["a@x.com"] = "secret1"
	f.profiles.EXPECT().Get(gomock.Any(), "uid-a@x.com").Return(domain.Profile{}, nil).AnyTimes()

	require.Error(t, f.session.SignIn(ctx, auth.Credentials{Email: "a@x.com", Password: "nope"}))
	require.NotEmpty(t, f.session.State().ErrorMessage)

	var states []State
	sub := f.session.StateView().Subscribe(func(s State, _ uint64) { states = append(states, s) })
	defer sub.Close()

	require.NoError(t, f.session.SignIn(ctx, auth.Credentials{Email: "a@x.com", Password: "secret1"}))
	f.binder.Wait()

	assert.Equal(t, []State{{IsLoading: true}, {}}, states)
}

func TestSession_IdentityViewOnePerTransition(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.auth.accounts["a@x.com"] = "secret1"
	f.profiles.EXPECT().Get(gomock.Any(), gomock.Any()).Return(domain.Profile{}, nil).AnyTimes()

	var seen []*domain.Identity
	sub := f.session.IdentityView().Subscribe(func(id *domain.Identity, _ uint64) { seen = append(seen, id) })
	defer sub.Close()

	require.NoError(t, f.session.SignIn(ctx, auth.Credentials{Email: "a@x.com", Password: "secret1"}))
	require.NoError(t, f.session.SignOut(ctx))
	f.binder.Wait()

	require.Len(t, seen, 2)
	assert.Equal(t, "uid-a@x.com", seen[0].ID)
	assert.Nil(t, seen[1])
}

func TestSession_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	upd := domain.ProfileUpdate{Icon: strPtr("/static/icons/a.png")}
	require.ErrorIs(t, f.session.UpdateProfile(ctx, upd), errors.ErrUnauthorized)

	f.auth.accounts["a@x.com"] = "secret1"
	f.profiles.EXPECT().Get(gomock.Any(), "uid-a@x.com").Return(domain.Profile{Icon: strPtr("/static/icons/a.png")}, nil).AnyTimes()
	f.profiles.EXPECT().Update(gomock.Any(), "uid-a@x.com", upd).Return(nil)

	require.NoError(t, f.session.SignIn(ctx, auth.Credentials{Email: "a@x.com", Password: "secret1"}))
	require.NoError(t, f.session.UpdateProfile(ctx, upd))
	f.binder.Wait()

	require.NotNil(t, f.binder.Profile())
	assert.Equal(t, "/static/icons/a.png", *f.binder.Profile().Icon)

	err := f.session.UpdateProfile(ctx, domain.ProfileUpdate{})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestSession_CloseReleasesSubscriptionOnce(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, 1, f.auth.listenerCount())

	f.session.Close()
	f.session.Close()

	assert.Equal(t, 0, f.auth.listenerCount())
}
