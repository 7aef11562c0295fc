package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/willr196/vergo-db-sub002/internal/client/store"
)

func testClient(t *testing.T, url string) (*Client, store.Store) {
	t.Helper()
	creds := store.NewMemStore()
	return New(url, creds, zerolog.Nop()), creds
}

func TestTokenReadFreshPerCall(t *testing.T) {
	var seen []string
	var mu sync.Mutex
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	c, creds := testClient(t, ts.URL)
	require.NoError(t, creds.Set(store.KeyAccessToken, "T1"))
	require.NoError(t, c.Get(context.Background(), "/x", nil))
	require.NoError(t, creds.Set(store.KeyAccessToken, "T2"))
	require.NoError(t, c.Get(context.Background(), "/x", nil))

	require.Equal(t, []string{"Bearer T1", "Bearer T2"}, seen)
}

func TestRefreshRetryOnce(t *testing.T) {
	var refreshCalls, dataCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/jobseeker/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		w.Write([]byte(`{"token":"T2","refreshToken":"R2"}`))
	})
	mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&dataCalls, 1)
		if r.Header.Get("Authorization") != "Bearer T2" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"ok":false,"error":"expired"}`))
			return
		}
		w.Write([]byte(`{"ok":true,"value":"fresh"}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c, creds := testClient(t, ts.URL)
	require.NoError(t, creds.Set(store.KeyAccessToken, "T1"))
	require.NoError(t, creds.Set(store.KeyRefreshToken, "R1"))

	var out struct {
		Value string `json:"value"`
	}
	require.NoError(t, c.Get(context.Background(), "/data", &out))
	require.Equal(t, "fresh", out.Value)
	require.EqualValues(t, 1, atomic.LoadInt32(&refreshCalls))
	require.EqualValues(t, 2, atomic.LoadInt32(&dataCalls))

	// New pair is persisted; a subsequent call carries T2 directly.
	tok, _ := creds.Get(store.KeyAccessToken)
	require.Equal(t, "T2", tok)
	ref, _ := creds.Get(store.KeyRefreshToken)
	require.Equal(t, "R2", ref)
	require.NoError(t, c.Get(context.Background(), "/data", nil))
	require.EqualValues(t, 1, atomic.LoadInt32(&refreshCalls))
}

func TestSecond401DoesNotRefreshAgain(t *testing.T) {
	var refreshCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/jobseeker/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		w.Write([]byte(`{"token":"T2"}`))
	})
	mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"ok":false,"error":"nope"}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c, creds := testClient(t, ts.URL)
	require.NoError(t, creds.Set(store.KeyAccessToken, "T1"))
	require.NoError(t, creds.Set(store.KeyRefreshToken, "R1"))

	err := c.Get(context.Background(), "/data", nil)
	require.True(t, IsAuth(err))
	require.EqualValues(t, 1, atomic.LoadInt32(&refreshCalls))
}

func TestRefreshFailureWipesSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/jobseeker/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"ok":false,"error":"invalid refresh token"}`))
	})
	mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"ok":false,"error":"expired"}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c, creds := testClient(t, ts.URL)
	require.NoError(t, creds.Set(store.KeyAccessToken, "T1"))
	require.NoError(t, creds.Set(store.KeyRefreshToken, "R1"))
	require.NoError(t, creds.Set(store.KeyUserType, "jobseeker"))
	require.NoError(t, creds.Set(store.KeyUserProfile, "{}"))
	require.NoError(t, creds.Set(store.KeyLastActiveAt, time.Now().Format(time.RFC3339)))

	err := c.Get(context.Background(), "/data", nil)
	require.True(t, IsAuth(err))
	for _, key := range store.SessionKeys {
		_, ok := creds.Get(key)
		require.False(t, ok, "field %s should be absent after failed refresh", key)
	}
}

func TestConcurrent401sShareOneRefresh(t *testing.T) {
	var refreshCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/jobseeker/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte(`{"token":"T2"}`))
	})
	mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer T2" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"ok":false,"error":"expired"}`))
			return
		}
		w.Write([]byte(`{"ok":true}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c, creds := testClient(t, ts.URL)
	require.NoError(t, creds.Set(store.KeyAccessToken, "T1"))
	require.NoError(t, creds.Set(store.KeyRefreshToken, "R1"))

	start := make(chan struct{})
	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = c.Get(context.Background(), "/data", nil)
		}(i)
	}
	close(start)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, atomic.LoadInt32(&refreshCalls))
}

func TestErrorTaxonomy(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"ok":false,"error":"missing field","code":"validation","details":{"field":"email"}}`))
	}))
	defer ts.Close()

	c, _ := testClient(t, ts.URL)
	err := c.Post(context.Background(), "/x", map[string]string{}, nil)
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, KindServer, ae.Kind)
	require.Equal(t, "missing field", ae.Message)
	require.Equal(t, "validation", ae.Code)
	require.Equal(t, http.StatusUnprocessableEntity, ae.Status)
	require.Equal(t, "email", ae.Details["field"])

	// Unreachable server is a network error.
	ts.Close()
	err = c.Get(context.Background(), "/x", nil)
	require.True(t, IsNetwork(err))
	require.False(t, IsAuth(err))
}

func TestClientRefreshPathSelectedByUserType(t *testing.T) {
	var clientRefresh int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/client/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&clientRefresh, 1)
		w.Write([]byte(`{"token":"T2"}`))
	})
	mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer T2" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"ok":false,"error":"expired"}`))
			return
		}
		w.Write([]byte(`{"ok":true}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c, creds := testClient(t, ts.URL)
	require.NoError(t, creds.Set(store.KeyAccessToken, "T1"))
	require.NoError(t, creds.Set(store.KeyRefreshToken, "R1"))
	require.NoError(t, creds.Set(store.KeyUserType, "client"))

	require.NoError(t, c.Get(context.Background(), "/data", nil))
	require.EqualValues(t, 1, atomic.LoadInt32(&clientRefresh))
}
