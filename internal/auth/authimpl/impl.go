package authimpl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/orgball2608/news-mobile-core/internal/auth"
	"github.com/orgball2608/news-mobile-core/internal/domain"
	"github.com/orgball2608/news-mobile-core/internal/observable"
	"github.com/orgball2608/news-mobile-core/pkg/config"
	"github.com/orgball2608/news-mobile-core/pkg/errors"
	"github.com/orgball2608/news-mobile-core/pkg/logger"
	"go.uber.org/fx"
)

const (
	signInPath = "/accounts:signInWithPassword"
	signUpPath = "/accounts:signUp"
)

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

// Client talks to an Identity Toolkit compatible REST endpoint and keeps the
// signed-in identity in memory.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	logger   logger.Logger

	// transitionMu serializes transitions so listeners see them in order
	transitionMu sync.Mutex

	mu        sync.RWMutex
	current   *domain.Identity
	listeners map[uint64]auth.Listener
	nextID    uint64
}

var _ auth.Client = (*Client)(nil)

func New(opts Opts) *Client {
	return NewClient(
		opts.Config.Auth.Endpoint,
		opts.Config.Auth.APIKey,
		opts.Config.Auth.Timeout,
		opts.Logger.WithComponent("auth"),
	)
}

func NewClient(endpoint, apiKey string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		logger:   log,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		listeners: make(map[uint64]auth.Listener),
	}
}

func (c *Client) SignIn(ctx context.Context, creds auth.Credentials) (*domain.Identity, error) {
	return c.authenticate(ctx, signInPath, creds)
}

func (c *Client) SignUp(ctx context.Context, creds auth.Credentials) (*domain.Identity, error) {
	return c.authenticate(ctx, signUpPath, creds)
}

func (c *Client) SignOut(_ context.Context) error {
	c.transitionMu.Lock()
	defer c.transitionMu.Unlock()

	if c.Current() == nil {
		return nil
	}

	c.transition(nil)
	c.logger.Info("Signed out")
	return nil
}

func (c *Client) Current() *domain.Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

func (c *Client) Subscribe(fn auth.Listener) *observable.Subscription {
	c.transitionMu.Lock()
	defer c.transitionMu.Unlock()

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	current := c.current
	c.mu.Unlock()

	fn(current)

	return observable.NewSubscription(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	})
}

type credentialsRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type credentialsResponse struct {
	LocalID string `json:"localId"`
	Email   string `json:"email"`
	IDToken string `json:"idToken"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) authenticate(ctx context.Context, path string, creds auth.Credentials) (*domain.Identity, error) {
	if strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
		return nil, errors.WrapKind(errors.ErrAuthFailure, errors.ErrInvalidInput, "email and password are required")
	}

	body, err := json.Marshal(credentialsRequest{
		Email:             creds.Email,
		Password:          creds.Password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, errors.WrapKind(errors.ErrAuthFailure, err, "failed to encode request")
	}

	u := c.endpoint + path + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, errors.WrapKind(errors.ErrAuthFailure, err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.WrapKind(errors.ErrAuthFailure, err, "network error, try again")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapKind(errors.ErrAuthFailure, err, "network error, try again")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errorResponse
		_ = json.Unmarshal(raw, &e)
		return nil, providerError(resp.StatusCode, e.Error.Message)
	}

	var out credentialsResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.WrapKind(errors.ErrAuthFailure, err, "unexpected response from auth provider")
	}
	if out.LocalID == "" {
		return nil, errors.WrapKind(errors.ErrAuthFailure, fmt.Errorf("missing localId"), "unexpected response from auth provider")
	}

	email := out.Email
	if email == "" {
		email = creds.Email
	}
	identity := &domain.Identity{ID: out.LocalID, Email: email}

	c.transitionMu.Lock()
	defer c.transitionMu.Unlock()

	if !domain.SameIdentity(c.Current(), identity) {
		c.transition(identity)
		c.logger.Info("Signed in", "user_id", identity.ID)
	}

	return identity, nil
}

// transition must be called with transitionMu held.
func (c *Client) transition(identity *domain.Identity) {
	c.mu.Lock()
	c.current = identity
	listeners := make([]auth.Listener, 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(identity)
	}
}

// providerError maps the provider's error code to a message fit for display.
func providerError(status int, code string) error {
	// Codes may carry a detail suffix, e.g. "WEAK_PASSWORD : Password should be at least 6 characters"
	base := code
	if i := strings.IndexAny(base, " :"); i >= 0 {
		base = base[:i]
	}

	var msg string
	switch base {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS":
		msg = "invalid email or password"
	case "USER_DISABLED":
		msg = "this account has been disabled"
	case "EMAIL_EXISTS":
		msg = "an account with this email already exists"
	case "WEAK_PASSWORD":
		msg = "password should be at least 6 characters"
	case "INVALID_EMAIL", "MISSING_EMAIL":
		msg = "the email address is badly formatted"
	case "MISSING_PASSWORD":
		msg = "email and password are required"
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		msg = "too many attempts, try again later"
	case "OPERATION_NOT_ALLOWED":
		msg = "password sign-in is disabled"
	default:
		msg = "authentication failed"
	}

	return errors.WrapKind(errors.ErrAuthFailure, fmt.Errorf("status %d: %s", status, code), msg)
}
