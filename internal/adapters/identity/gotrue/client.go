// Package gotrue implements the identity provider against a GoTrue-style
// auth API: password-grant token exchange, logout, and user introspection.
// The provider contract's event stream is produced here: subscribers get an
// initial-session event once the persisted token has been checked, then a
// signed-in or signed-out event for every later state change.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rafaeldtinoco-dev/investfolio/internal/domain"
	"github.com/rafaeldtinoco-dev/investfolio/internal/ports"
)

const (
	maxAuthResponseBytes = 1 << 20

	// sessionSecretKey is where the access token lives in the secret store
	// between runs.
	sessionSecretKey = "investfolio://session/access_token"
)

type Client struct {
	baseURL        string
	apiKey         string
	httpClient     *http.Client
	requestTimeout time.Duration
	secrets        ports.SecretStore

	mu          sync.Mutex
	subscribers map[string]func(ports.AuthEvent)
	accessToken string
	restored    bool
}

var _ ports.IdentityProvider = (*Client)(nil)

type Config struct {
	BaseURL        string
	APIKey         string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	Secrets        ports.SecretStore
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("auth base url is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		httpClient:     httpClient,
		requestTimeout: cfg.RequestTimeout,
		secrets:        cfg.Secrets,
		subscribers:    map[string]func(ports.AuthEvent){},
	}, nil
}

type tokenResponse struct {
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	ExpiresIn   int64   `json:"expires_in"`
	User        userRow `json:"user"`
}

type userRow struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Metadata struct {
		Name string `json:"name"`
	} `json:"user_metadata"`
}

func (u userRow) toPrincipal() domain.Principal {
	name := u.Metadata.Name
	if name == "" {
		name = u.Email
	}
	return domain.Principal{ID: u.ID, Email: u.Email, DisplayName: name}
}

type authErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"msg"`
}

func (e authErrorResponse) String() string {
	switch {
	case e.ErrorDescription != "":
		return e.ErrorDescription
	case e.Message != "":
		return e.Message
	case e.Error != "":
		return e.Error
	default:
		return "unknown auth error"
	}
}

// SignInWithCredentials exchanges an email and password for a session. On
// success the token is persisted and a signed-in event fans out to all
// subscribers.
func (c *Client) SignInWithCredentials(ctx context.Context, identifier, secret string) (domain.Principal, error) {
	body, err := json.Marshal(map[string]string{"email": identifier, "password": secret})
	if err != nil {
		return domain.Principal{}, fmt.Errorf("encode credentials: %w", err)
	}

	status, raw, err := c.post(ctx, "/auth/v1/token?grant_type=password", bytes.NewReader(body), "")
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %v", domain.ErrAuthTransport, err)
	}

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		var payload authErrorResponse
		_ = json.Unmarshal(raw, &payload)
		if status >= http.StatusInternalServerError {
			return domain.Principal{}, fmt.Errorf("%w: %s", domain.ErrAuthTransport, payload)
		}
		return domain.Principal{}, fmt.Errorf("%w: %s", domain.ErrAuthRejected, payload)
	}

	var payload tokenResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.Principal{}, fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" || payload.User.ID == "" {
		return domain.Principal{}, fmt.Errorf("%w: token response missing required fields", domain.ErrAuthRejected)
	}

	principal := payload.User.toPrincipal()

	c.mu.Lock()
	c.accessToken = payload.AccessToken
	c.mu.Unlock()

	// Persistence is comfort for the next run, not a requirement for this
	// one; the in-memory session is already live.
	if c.secrets != nil {
		_ = c.secrets.Put(ctx, sessionSecretKey, payload.AccessToken)
	}

	c.emit(ports.AuthEvent{Kind: ports.AuthEventSignedIn, Principal: &principal})

	return principal, nil
}

// SignOut revokes the server-side session. The local token and persisted
// secret are dropped and a signed-out event is emitted even when the remote
// call fails: the caller decides what to do with the error, but this client
// no longer holds a session either way.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	token := c.accessToken
	c.accessToken = ""
	c.mu.Unlock()

	var remoteErr error
	if token != "" {
		status, _, err := c.post(ctx, "/auth/v1/logout", nil, token)
		if err != nil {
			remoteErr = fmt.Errorf("%w: %v", domain.ErrAuthTransport, err)
		} else if status >= http.StatusMultipleChoices {
			remoteErr = fmt.Errorf("sign out: status %d", status)
		}
	}

	if c.secrets != nil {
		if err := c.secrets.Delete(ctx, sessionSecretKey); err != nil {
			remoteErr = errors.Join(remoteErr, fmt.Errorf("drop persisted session token: %w", err))
		}
	}

	c.emit(ports.AuthEvent{Kind: ports.AuthEventSignedOut})

	return remoteErr
}

// Subscribe registers an event callback and, for the first subscriber,
// kicks off the startup credential check that ends in an initial-session
// event. The returned handle is idempotent.
func (c *Client) Subscribe(onEvent func(ports.AuthEvent)) ports.Unsubscribe {
	c.mu.Lock()
	id := uuid.NewString()
	c.subscribers[id] = onEvent
	restore := !c.restored
	c.restored = true
	c.mu.Unlock()

	if restore {
		go c.restoreSession(context.Background())
	}

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}

// AccessToken exposes the live token for sibling adapters (the catalog
// client sends it as the bearer credential).
func (c *Client) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

// restoreSession validates any persisted token against the user endpoint
// and reports the outcome as an initial-session event, with a principal
// when the token is still good and without one otherwise.
func (c *Client) restoreSession(ctx context.Context) {
	principal := c.lookupPersistedPrincipal(ctx)
	c.emit(ports.AuthEvent{Kind: ports.AuthEventInitialSession, Principal: principal})
}

func (c *Client) lookupPersistedPrincipal(ctx context.Context) *domain.Principal {
	if c.secrets == nil {
		return nil
	}

	token, err := c.secrets.Get(ctx, sessionSecretKey)
	if err != nil || token == "" {
		return nil
	}

	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil
	}
	c.setHeaders(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Expired or revoked token: forget it so the next run skips the
		// round trip.
		_ = c.secrets.Delete(ctx, sessionSecretKey)
		return nil
	}

	var user userRow
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxAuthResponseBytes)).Decode(&user); err != nil || user.ID == "" {
		return nil
	}

	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()

	principal := user.toPrincipal()
	return &principal
}

func (c *Client) emit(event ports.AuthEvent) {
	c.mu.Lock()
	subscribers := make([]func(ports.AuthEvent), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subscribers = append(subscribers, fn)
	}
	c.mu.Unlock()

	for _, fn := range subscribers {
		fn(event)
	}
}

// post runs the request and returns the status code plus the fully read
// body, so the timeout context can be released before decoding starts.
func (c *Client) post(ctx context.Context, path string, body io.Reader, bearer string) (int, []byte, error) {
	requestCtx := ctx
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		requestCtx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("create auth request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setHeaders(req, bearer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxAuthResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read auth response: %w", err)
	}

	return resp.StatusCode, payload, nil
}

func (c *Client) setHeaders(req *http.Request, bearer string) {
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if bearer == "" {
		bearer = c.apiKey
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
}
