package replay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/willr196/vergo-db-sub002/internal/client/api"
	"github.com/willr196/vergo-db-sub002/internal/client/offline"
	"github.com/willr196/vergo-db-sub002/internal/client/store"
)

func testQueue(t *testing.T) *offline.Store {
	t.Helper()
	q, err := offline.Open("file:" + filepath.Join(t.TempDir(), "offline.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func TestReplayRemovesOnlyAfterSuccess(t *testing.T) {
	var applies, withdraws int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/jobs/job-1/apply", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&applies, 1)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	})
	mux.HandleFunc("DELETE /api/v1/applications/ap-1", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&withdraws, 1)
		w.Write([]byte(`{"ok":true}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	q := testQueue(t)
	ctx := context.Background()
	_, err := q.Enqueue(ctx, offline.ActionApply, map[string]string{"job_id": "job-1"})
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, offline.ActionWithdraw, map[string]string{"application_id": "ap-1"})
	require.NoError(t, err)

	client := api.New(ts.URL, store.NewMemStore(), zerolog.Nop())
	r := New(q, client, zerolog.Nop())
	done, err := r.ReplayAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, done)
	require.EqualValues(t, 1, atomic.LoadInt32(&applies))
	require.EqualValues(t, 1, atomic.LoadInt32(&withdraws))

	remaining, err := q.List(ctx)
	require.NoError(t, err)
	require.Empty(t, remaining)
}

func TestReplayStopsAtFirstFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/jobs/bad/apply", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"ok":false,"error":"job not found"}`))
	})
	mux.HandleFunc("POST /api/v1/jobs/good/apply", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	q := testQueue(t)
	ctx := context.Background()
	bad, err := q.Enqueue(ctx, offline.ActionApply, map[string]string{"job_id": "bad"})
	require.NoError(t, err)
	good, err := q.Enqueue(ctx, offline.ActionApply, map[string]string{"job_id": "good"})
	require.NoError(t, err)

	client := api.New(ts.URL, store.NewMemStore(), zerolog.Nop())
	r := New(q, client, zerolog.Nop())
	done, err := r.ReplayAll(ctx)
	require.Error(t, err)
	require.Zero(t, done)

	// Both actions are still queued, in order.
	remaining, err := q.List(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	require.Equal(t, bad.ID, remaining[0].ID)
	require.Equal(t, good.ID, remaining[1].ID)
}

func TestAttachReplaysOnReconnect(t *testing.T) {
	delivered := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/jobs/job-1/apply", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
		close(delivered)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	q := testQueue(t)
	ctx := context.Background()
	_, err := q.Enqueue(ctx, offline.ActionApply, map[string]string{"job_id": "job-1"})
	require.NoError(t, err)

	client := api.New(ts.URL, store.NewMemStore(), zerolog.Nop())
	r := New(q, client, zerolog.Nop())

	conn := &fakeConn{}
	unsub := r.Attach(ctx, conn)
	defer unsub()

	conn.flip(false)
	conn.flip(true)
	<-delivered

	remaining, err := q.List(ctx)
	require.NoError(t, err)
	require.Empty(t, remaining)
}

type fakeConn struct {
	online bool
	subs   []func(bool)
}

func (f *fakeConn) Online() bool { return f.online }
func (f *fakeConn) Subscribe(fn func(bool)) func() {
	f.subs = append(f.subs, fn)
	return func() {}
}

func (f *fakeConn) flip(online bool) {
	f.online = online
	for _, fn := range f.subs {
		fn(online)
	}
}
