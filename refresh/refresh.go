// Package refresh reloads the catalog from the backend and pushes the
// projected rows to every subscribed table.
package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"catalog-site/backend"
	"catalog-site/catalog"
	"catalog-site/projection"
	"catalog-site/store"
)

var log = logrus.NewEntry(logrus.StandardLogger())

func Init(logger *logrus.Logger) error {
	log = logger.WithFields(logrus.Fields{
		"component": "refresh",
	})
	return nil
}

type Fetcher interface {
	Fetch(ctx context.Context) (backend.FetchResult, error)
	Store() *store.Store
}

type Listener interface {
	OnRowsChanged(rows []catalog.ProcessedVideo)
}

// VersionListener is a Listener that also wants the store version the rows
// were projected from. It is called instead of OnRowsChanged.
type VersionListener interface {
	Listener
	OnSnapshot(version uint64, rows []catalog.ProcessedVideo)
}

type Refresher struct {
	fetcher Fetcher
	trigger chan struct{}

	mu        sync.Mutex
	rows      []catalog.ProcessedVideo
	version   uint64 // store version the rows were projected from
	listeners map[Listener]struct{}
}

func New(f Fetcher) *Refresher {
	return &Refresher{
		fetcher:   f,
		trigger:   make(chan struct{}, 1),
		rows:      []catalog.ProcessedVideo{},
		listeners: make(map[Listener]struct{}),
	}
}

func (r *Refresher) Subscribe(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[l] = struct{}{}
}

func (r *Refresher) Unsubscribe(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.listeners, l)
}

// Refresh fetches the catalog and, when it produced a newer snapshot,
// broadcasts the projected rows. A failed fetch leaves every table as it was.
func (r *Refresher) Refresh(ctx context.Context) error {
	res, err := r.fetcher.Fetch(ctx)
	if err != nil {
		log.WithError(err).Error("refresh failed")
		return err
	}
	if !res.Applied {
		log.Debugln("refresh superseded by a newer fetch")
		return nil
	}
	r.publish()
	return nil
}

// publish projects the store's current snapshot unless it was already sent.
func (r *Refresher) publish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	authors, categories, version := r.fetcher.Store().Snapshot()
	if version <= r.version {
		return
	}
	r.version = version
	r.rows = projection.Project(authors, categories)

	log.Infof("broadcasting %d rows (version %d) to %d tables", len(r.rows), version, len(r.listeners))
	for l := range r.listeners {
		if vl, ok := l.(VersionListener); ok {
			vl.OnSnapshot(version, r.rows)
			continue
		}
		l.OnRowsChanged(r.rows)
	}
}

// Rows returns the latest projected rows.
func (r *Refresher) Rows() []catalog.ProcessedVideo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]catalog.ProcessedVideo, len(r.rows))
	for i, row := range r.rows {
		out[i] = row.Clone()
	}
	return out
}

// Trigger asks the worker for a refresh. Requests made while one is pending
// are merged.
func (r *Refresher) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Run refreshes on every Trigger and, if interval > 0, on a ticker. It
// returns when ctx is done.
func (r *Refresher) Run(ctx context.Context, interval time.Duration) {
	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.trigger:
		case <-tick:
		}
		// failures are logged by Refresh
		_ = r.Refresh(ctx)
	}
}
