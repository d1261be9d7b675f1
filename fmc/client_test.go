package fmc

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netadapt/fmc-mcp/config"
)

// fakeFMC is an httptest-backed stand-in for the controller. It serves
// the token endpoints itself and delegates everything else to handler.
type fakeFMC struct {
	mu           sync.Mutex
	authCalls    int
	refreshCalls int
	tokenSeq     int

	authStatus    int
	refreshStatus int
	domainUUID    string

	handler http.HandlerFunc
}

func newFakeFMC() *fakeFMC {
	return &fakeFMC{
		authStatus:    http.StatusNoContent,
		refreshStatus: http.StatusNoContent,
		handler: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, `{}`)
		},
	}
}

func (f *fakeFMC) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case generateTokenPath:
		f.mu.Lock()
		f.authCalls++
		f.tokenSeq++
		seq := f.tokenSeq
		status := f.authStatus
		domain := f.domainUUID
		f.mu.Unlock()

		if status != http.StatusNoContent {
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error":"bad credentials"}`)
			return
		}
		w.Header().Set(accessTokenHeader, fmt.Sprintf("A%d", seq))
		w.Header().Set(refreshTokenHeader, fmt.Sprintf("R%d", seq))
		if domain != "" {
			w.Header().Set(domainUUIDHeader, domain)
		}
		w.WriteHeader(http.StatusNoContent)

	case refreshTokenPath:
		f.mu.Lock()
		f.refreshCalls++
		f.tokenSeq++
		seq := f.tokenSeq
		status := f.refreshStatus
		f.mu.Unlock()

		if status != http.StatusNoContent {
			w.WriteHeader(status)
			return
		}
		w.Header().Set(accessTokenHeader, fmt.Sprintf("A%d", seq))
		w.Header().Set(refreshTokenHeader, fmt.Sprintf("R%d", seq))
		w.WriteHeader(http.StatusNoContent)

	default:
		f.handler(w, r)
	}
}

func (f *fakeFMC) counts() (auth, refresh int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authCalls, f.refreshCalls
}

func newTestClient(t *testing.T, fake *fakeFMC, opts ...Option) *Client {
	t.Helper()

	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	cfg := config.FMCConfig{
		Host:           "fmc.example.com",
		Username:       "apiuser",
		Password:       "apipass",
		Timeout:        5,
		RateLimit:      6000,
		MaxConnections: 5,
	}

	opts = append([]Option{WithBaseURL(server.URL)}, opts...)
	return NewClient(cfg, zerolog.Nop(), opts...)
}

func TestConnectAuthenticates(t *testing.T) {
	fake := newFakeFMC()
	client := newTestClient(t, fake)

	var gotToken string
	fake.handler = func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get(accessTokenHeader)
		fmt.Fprint(w, `{"ok":true}`)
	}

	ctx := context.Background()
	require.NoError(t, client.Connect(ctx))
	defer client.Close()

	// Idempotent: a second Connect does not re-authenticate.
	require.NoError(t, client.Connect(ctx))
	auth, _ := fake.counts()
	assert.Equal(t, 1, auth)

	_, err := client.GetJSON(ctx, "/api/test", nil)
	require.NoError(t, err)
	assert.Equal(t, "A1", gotToken)
}

func TestConnectAuthFailure(t *testing.T) {
	fake := newFakeFMC()
	fake.authStatus = http.StatusUnauthorized
	client := newTestClient(t, fake)

	err := client.Connect(context.Background())
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
	assert.Contains(t, authErr.Body, "bad credentials")

	// A failed connect leaves the client disconnected.
	_, err = client.Get(context.Background(), "/api/test", nil)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestRequestBeforeConnect(t *testing.T) {
	client := newTestClient(t, newFakeFMC())

	_, err := client.Get(context.Background(), "/api/test", nil)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestCloseIsIdempotent(t *testing.T) {
	fake := newFakeFMC()
	client := newTestClient(t, fake)

	require.NoError(t, client.Connect(context.Background()))
	client.Close()
	client.Close()

	_, err := client.Get(context.Background(), "/api/test", nil)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestRequest401RefreshesAndRetriesOnce(t *testing.T) {
	fake := newFakeFMC()
	client := newTestClient(t, fake)

	var calls int
	var tokens []string
	var mu sync.Mutex
	fake.handler = func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		tokens = append(tokens, r.Header.Get(accessTokenHeader))
		n := calls
		mu.Unlock()

		if n == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	}

	ctx := context.Background()
	require.NoError(t, client.Connect(ctx))
	defer client.Close()

	_, err := client.GetJSON(ctx, "/api/test", nil)
	require.NoError(t, err)

	_, refresh := fake.counts()
	assert.Equal(t, 1, refresh)
	assert.Equal(t, 2, calls)
	// The retry carries the refreshed token, not the stale one.
	assert.Equal(t, []string{"A1", "A2"}, tokens)
}

func TestRequestSecond401Propagates(t *testing.T) {
	fake := newFakeFMC()
	client := newTestClient(t, fake)

	var calls int
	var mu sync.Mutex
	fake.handler = func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusUnauthorized)
	}

	ctx := context.Background()
	require.NoError(t, client.Connect(ctx))
	defer client.Close()

	_, err := client.GetJSON(ctx, "/api/test", nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	_, refresh := fake.counts()
	assert.Equal(t, 1, refresh)
	assert.Equal(t, 2, calls)
}

func TestRequest429HonorsRetryAfter(t *testing.T) {
	fake := newFakeFMC()
	client := newTestClient(t, fake)

	var calls int
	var mu sync.Mutex
	fake.handler = func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()

		if n == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	}

	ctx := context.Background()
	require.NoError(t, client.Connect(ctx))
	defer client.Close()

	start := time.Now()
	_, err := client.GetJSON(ctx, "/api/test", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.GreaterOrEqual(t, time.Since(start), time.Second)
}

func TestRequestSecond429Propagates(t *testing.T) {
	fake := newFakeFMC()
	client := newTestClient(t, fake)

	var calls int
	var mu sync.Mutex
	fake.handler = func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}

	ctx := context.Background()
	require.NoError(t, client.Connect(ctx))
	defer client.Close()

	_, err := client.GetJSON(ctx, "/api/test", nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, 2, calls)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 5, parseRetryAfter("5"))
	assert.Equal(t, defaultRetryAfter, parseRetryAfter(""))
	assert.Equal(t, defaultRetryAfter, parseRetryAfter("soon"))
	assert.Equal(t, defaultRetryAfter, parseRetryAfter("-3"))
}

func TestRefreshCounterAndCeiling(t *testing.T) {
	fake := newFakeFMC()
	client := newTestClient(t, fake)

	ctx := context.Background()
	require.NoError(t, client.Connect(ctx))
	defer client.Close()

	for i := 1; i <= maxRefreshes; i++ {
		require.NoError(t, client.refreshAuthToken(ctx))
		client.mu.Lock()
		count := client.refreshCount
		client.mu.Unlock()
		assert.Equal(t, i, count)
	}

	// At the ceiling the next attempt re-authenticates instead of
	// refreshing, resetting the counter.
	require.NoError(t, client.refreshAuthToken(ctx))

	auth, refresh := fake.counts()
	assert.Equal(t, 2, auth)
	assert.Equal(t, maxRefreshes, refresh)

	client.mu.Lock()
	assert.Equal(t, 0, client.refreshCount)
	client.mu.Unlock()
}

func TestRefreshFailureFallsBackToReauth(t *testing.T) {
	fake := newFakeFMC()
	fake.refreshStatus = http.StatusBadRequest
	client := newTestClient(t, fake)

	ctx := context.Background()
	require.NoError(t, client.Connect(ctx))
	defer client.Close()

	require.NoError(t, client.refreshAuthToken(ctx))

	auth, refresh := fake.counts()
	assert.Equal(t, 2, auth)
	assert.Equal(t, 1, refresh)
}

func TestDomainUUIDResolution(t *testing.T) {
	t.Run("configured value wins over discovery", func(t *testing.T) {
		fake := newFakeFMC()
		fake.domainUUID = "discovered-uuid"
		client := newTestClient(t, fake)
		client.cfg.DomainUUID = "configured-uuid"
		client.domainUUID = "configured-uuid"

		require.NoError(t, client.Connect(context.Background()))
		defer client.Close()
		assert.Equal(t, "configured-uuid", client.DomainUUID())
	})

	t.Run("discovered when not configured", func(t *testing.T) {
		fake := newFakeFMC()
		fake.domainUUID = "discovered-uuid"
		client := newTestClient(t, fake)

		require.NoError(t, client.Connect(context.Background()))
		defer client.Close()
		assert.Equal(t, "discovered-uuid", client.DomainUUID())
	})

	t.Run("global default when neither", func(t *testing.T) {
		fake := newFakeFMC()
		client := newTestClient(t, fake)

		require.NoError(t, client.Connect(context.Background()))
		defer client.Close()
		assert.Equal(t, globalDomainUUID, client.DomainUUID())
	})
}

func TestGetJSONStrictStatus(t *testing.T) {
	fake := newFakeFMC()
	client := newTestClient(t, fake)

	fake.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"boom"}`)
	}

	ctx := context.Background()
	require.NoError(t, client.Connect(ctx))
	defer client.Close()

	_, err := client.GetJSON(ctx, "/api/test", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "boom")
}
