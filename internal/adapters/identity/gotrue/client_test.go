package gotrue

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafaeldtinoco-dev/investfolio/internal/domain"
	"github.com/rafaeldtinoco-dev/investfolio/internal/ports"
)

type memorySecrets struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemorySecrets() *memorySecrets {
	return &memorySecrets{values: map[string]string{}}
}

func (m *memorySecrets) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *memorySecrets) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memorySecrets) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

var _ ports.SecretStore = (*memorySecrets)(nil)

type eventLog struct {
	mu     sync.Mutex
	events []ports.AuthEvent
}

func (l *eventLog) record(event ports.AuthEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) snapshot() []ports.AuthEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ports.AuthEvent, len(l.events))
	copy(out, l.events)
	return out
}

func (l *eventLog) waitFor(t *testing.T, kind ports.AuthEventKind) ports.AuthEvent {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, event := range l.snapshot() {
			if event.Kind == kind {
				return event
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no %s event arrived", kind)
	return ports.AuthEvent{}
}

func TestSignInSuccessEmitsSignedIn(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/v1/token", r.URL.Path)
		require.Equal(t, "password", r.URL.Query().Get("grant_type"))
		require.Equal(t, "anon-key", r.Header.Get("apikey"))

		var credentials map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&credentials))
		require.Equal(t, "joao@email.com", credentials["email"])

		_, _ = io.WriteString(w, `{
			"access_token": "token-abc",
			"token_type": "bearer",
			"expires_in": 3600,
			"user": {"id": "user-1", "email": "joao@email.com", "user_metadata": {"name": "João"}}
		}`)
	}))
	defer server.Close()

	secrets := newMemorySecrets()
	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "anon-key", HTTPClient: server.Client(), Secrets: secrets})
	require.NoError(t, err)

	signedIn := make(chan ports.AuthEvent, 1)
	client.Subscribe(func(event ports.AuthEvent) {
		if event.Kind == ports.AuthEventSignedIn {
			signedIn <- event
		}
	})

	principal, err := client.SignInWithCredentials(context.Background(), "joao@email.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "user-1", principal.ID)
	assert.Equal(t, "João", principal.DisplayName)
	assert.Equal(t, "token-abc", client.AccessToken())

	event := <-signedIn
	require.NotNil(t, event.Principal)
	assert.Equal(t, "user-1", event.Principal.ID)

	persisted, _ := secrets.Get(context.Background(), sessionSecretKey)
	assert.Equal(t, "token-abc", persisted)
}

func TestSignInRejectedOnBadCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error": "invalid_grant", "error_description": "Invalid login credentials"}`)
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL, HTTPClient: server.Client()})
	require.NoError(t, err)

	_, err = client.SignInWithCredentials(context.Background(), "joao@email.com", "wrong")
	require.ErrorIs(t, err, domain.ErrAuthRejected)
	assert.Contains(t, err.Error(), "Invalid login credentials")
	assert.Empty(t, client.AccessToken())
}

func TestSignInTransportErrorOnServerFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL, HTTPClient: server.Client()})
	require.NoError(t, err)

	_, err = client.SignInWithCredentials(context.Background(), "joao@email.com", "hunter2")
	assert.ErrorIs(t, err, domain.ErrAuthTransport)
}

func TestSignInTransportErrorOnConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // nothing listens anymore

	client, err := NewClient(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.SignInWithCredentials(context.Background(), "joao@email.com", "hunter2")
	assert.ErrorIs(t, err, domain.ErrAuthTransport)
}

func TestSignOutClearsSessionEvenOnRemoteFailure(t *testing.T) {
	tokenHandler := func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"access_token": "token-abc", "user": {"id": "user-1", "email": "joao@email.com"}}`)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/v1/logout" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		tokenHandler(w, r)
	}))
	defer server.Close()

	secrets := newMemorySecrets()
	client, err := NewClient(Config{BaseURL: server.URL, HTTPClient: server.Client(), Secrets: secrets})
	require.NoError(t, err)

	signedOut := make(chan struct{}, 1)
	client.Subscribe(func(event ports.AuthEvent) {
		if event.Kind == ports.AuthEventSignedOut {
			signedOut <- struct{}{}
		}
	})

	_, err = client.SignInWithCredentials(context.Background(), "joao@email.com", "hunter2")
	require.NoError(t, err)

	err = client.SignOut(context.Background())
	require.Error(t, err)

	<-signedOut
	assert.Empty(t, client.AccessToken())
	persisted, _ := secrets.Get(context.Background(), sessionSecretKey)
	assert.Empty(t, persisted, "the persisted token is dropped regardless of the remote outcome")
}

func TestSignOutWithoutSessionStillEmits(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "https://demo.example.com"})
	require.NoError(t, err)

	signedOut := make(chan struct{}, 1)
	client.Subscribe(func(event ports.AuthEvent) {
		if event.Kind == ports.AuthEventSignedOut {
			signedOut <- struct{}{}
		}
	})

	require.NoError(t, client.SignOut(context.Background()))
	<-signedOut
}

func TestSubscribeRestoresPersistedSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/v1/user", r.URL.Path)
		require.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"id": "user-1", "email": "joao@email.com"}`)
	}))
	defer server.Close()

	secrets := newMemorySecrets()
	require.NoError(t, secrets.Put(context.Background(), sessionSecretKey, "token-abc"))

	client, err := NewClient(Config{BaseURL: server.URL, HTTPClient: server.Client(), Secrets: secrets})
	require.NoError(t, err)

	initial := make(chan ports.AuthEvent, 1)
	client.Subscribe(func(event ports.AuthEvent) {
		if event.Kind == ports.AuthEventInitialSession {
			initial <- event
		}
	})

	select {
	case event := <-initial:
		require.NotNil(t, event.Principal)
		assert.Equal(t, "user-1", event.Principal.ID)
		assert.Equal(t, "token-abc", client.AccessToken())
	case <-time.After(2 * time.Second):
		t.Fatal("no initial-session event arrived")
	}
}

func TestSubscribeRestoreGivesUpOnStalledServer(t *testing.T) {
	unblock := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		<-unblock
	}))
	defer server.Close()
	defer close(unblock)

	secrets := newMemorySecrets()
	require.NoError(t, secrets.Put(context.Background(), sessionSecretKey, "token-abc"))

	client, err := NewClient(Config{
		BaseURL:        server.URL,
		HTTPClient:     server.Client(),
		Secrets:        secrets,
		RequestTimeout: 50 * time.Millisecond,
	})
	require.NoError(t, err)

	initial := make(chan ports.AuthEvent, 1)
	client.Subscribe(func(event ports.AuthEvent) {
		if event.Kind == ports.AuthEventInitialSession {
			initial <- event
		}
	})

	select {
	case event := <-initial:
		assert.Nil(t, event.Principal)
	case <-time.After(2 * time.Second):
		t.Fatal("restore never gave up on the stalled user endpoint")
	}
}

func TestSubscribeDropsStalePersistedToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	secrets := newMemorySecrets()
	require.NoError(t, secrets.Put(context.Background(), sessionSecretKey, "expired-token"))

	client, err := NewClient(Config{BaseURL: server.URL, HTTPClient: server.Client(), Secrets: secrets})
	require.NoError(t, err)

	initial := make(chan ports.AuthEvent, 1)
	client.Subscribe(func(event ports.AuthEvent) {
		if event.Kind == ports.AuthEventInitialSession {
			initial <- event
		}
	})

	select {
	case event := <-initial:
		assert.Nil(t, event.Principal)
		persisted, _ := secrets.Get(context.Background(), sessionSecretKey)
		assert.Empty(t, persisted, "a rejected token must not survive to the next run")
	case <-time.After(2 * time.Second):
		t.Fatal("no initial-session event arrived")
	}
}

func TestSubscribeWithoutSecretsEmitsAnonymousInitialSession(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "https://demo.example.com"})
	require.NoError(t, err)

	initial := make(chan ports.AuthEvent, 1)
	client.Subscribe(func(event ports.AuthEvent) {
		if event.Kind == ports.AuthEventInitialSession {
			initial <- event
		}
	})

	select {
	case event := <-initial:
		assert.Nil(t, event.Principal)
	case <-time.After(2 * time.Second):
		t.Fatal("no initial-session event arrived")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "https://demo.example.com"})
	require.NoError(t, err)

	log := &eventLog{}
	unsubscribe := client.Subscribe(log.record)
	log.waitFor(t, ports.AuthEventInitialSession)
	unsubscribe()
	unsubscribe()

	require.NoError(t, client.SignOut(context.Background()))
	for _, event := range log.snapshot() {
		assert.NotEqual(t, ports.AuthEventSignedOut, event.Kind)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}
