package refresh

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-site/backend"
	"catalog-site/backend/backendtest"
	"catalog-site/catalog"
	"catalog-site/store"
)

type recorder struct {
	mu    sync.Mutex
	calls [][]catalog.ProcessedVideo
}

func (r *recorder) OnRowsChanged(rows []catalog.ProcessedVideo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, rows)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *recorder) last() []catalog.ProcessedVideo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

func setup(t *testing.T) (*backendtest.Server, *Refresher) {
	t.Helper()
	srv := backendtest.New(backendtest.Authors(), backendtest.Categories())
	t.Cleanup(srv.Close)
	_, w := store.New()
	return srv, New(backend.New(srv.URL, w))
}

func TestRefreshBroadcasts(t *testing.T) {
	srv, r := setup(t)
	a, b := &recorder{}, &recorder{}
	r.Subscribe(a)
	r.Subscribe(b)

	assert.Empty(t, r.Rows())
	require.NoError(t, r.Refresh(context.Background()))

	rows := r.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, "Night Hunter", rows[0].Name)
	assert.Equal(t, []string{"Thriller", "Crime"}, rows[0].Categories)
	assert.Equal(t, "one 1080p", rows[0].HighestQualityFormat)
	assert.Equal(t, 1, a.count())
	assert.Equal(t, rows, b.last())

	r.Unsubscribe(b)
	srv.SetAuthors(backendtest.Authors()[:1])
	require.NoError(t, r.Refresh(context.Background()))
	assert.Equal(t, 2, a.count())
	assert.Len(t, a.last(), 2)
	assert.Equal(t, 1, b.count())
}

func TestRefreshFailureKeepsRows(t *testing.T) {
	srv, r := setup(t)
	l := &recorder{}
	r.Subscribe(l)
	require.NoError(t, r.Refresh(context.Background()))

	srv.Fail(http.MethodGet, "/authors", http.StatusInternalServerError)
	err := r.Refresh(context.Background())
	var ferr *backend.FetchError
	require.ErrorAs(t, err, &ferr)

	assert.Len(t, r.Rows(), 3)
	assert.Equal(t, 1, l.count())
}

func TestPublishSkipsSeenVersion(t *testing.T) {
	_, r := setup(t)
	l := &recorder{}
	r.Subscribe(l)
	require.NoError(t, r.Refresh(context.Background()))

	r.publish()
	assert.Equal(t, 1, l.count())
}

type snapshotRecorder struct {
	recorder
	versions []uint64
	during   func()
}

func (r *snapshotRecorder) OnSnapshot(version uint64, rows []catalog.ProcessedVideo) {
	r.versions = append(r.versions, version)
	r.OnRowsChanged(rows)
	if r.during != nil {
		r.during()
	}
}

func TestBroadcastCarriesProjectedVersion(t *testing.T) {
	srv := backendtest.New(backendtest.Authors(), backendtest.Categories())
	t.Cleanup(srv.Close)
	s, w := store.New()
	r := New(backend.New(srv.URL, w))

	l := &snapshotRecorder{}
	// another fetch commits while the rows are being delivered
	l.during = func() {
		w.Commit(w.Begin(), backendtest.Authors()[:1], backendtest.Categories())
	}
	r.Subscribe(l)
	require.NoError(t, r.Refresh(context.Background()))

	assert.Equal(t, []uint64{1}, l.versions)
	assert.Len(t, l.last(), 3)
	assert.Equal(t, uint64(2), s.Version())
}

func TestRowsAreCopies(t *testing.T) {
	_, r := setup(t)
	require.NoError(t, r.Refresh(context.Background()))

	rows := r.Rows()
	rows[0].Categories[0] = "changed"
	assert.Equal(t, "Thriller", r.Rows()[0].Categories[0])
}

func TestTriggersCoalesce(t *testing.T) {
	_, r := setup(t)
	r.Trigger()
	r.Trigger()
	r.Trigger()
	assert.Len(t, r.trigger, 1)
}

func TestRunRefreshesOnTrigger(t *testing.T) {
	_, r := setup(t)
	l := &recorder{}
	r.Subscribe(l)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, 0)
		close(done)
	}()

	r.Trigger()
	assert.Eventually(t, func() bool { return len(r.Rows()) == 3 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
	assert.Equal(t, 1, l.count())
}

func TestRunRefreshesOnInterval(t *testing.T) {
	srv, r := setup(t)
	l := &recorder{}
	r.Subscribe(l)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx, 10*time.Millisecond)

	assert.Eventually(t, func() bool { return l.count() >= 1 }, time.Second, 5*time.Millisecond)
	srv.SetAuthors(nil)
	assert.Eventually(t, func() bool { return len(r.Rows()) == 0 }, time.Second, 5*time.Millisecond)
}
