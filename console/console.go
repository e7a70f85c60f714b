// Package console keeps one table and one form per signed-in user.
package console

import (
	"context"
	"sort"
	"sync"
	"time"

	"catalog-site/catalog"
	"catalog-site/form"
	"catalog-site/refresh"
	"catalog-site/table"
)

type Backend interface {
	table.Remover
	form.Writer
}

// Source supplies rows to new tables and reloads them after writes.
type Source interface {
	Refresh(ctx context.Context) error
	Rows() []catalog.ProcessedVideo
	Subscribe(l refresh.Listener)
	Unsubscribe(l refresh.Listener)
}

type Session struct {
	UserID  uint
	Table   *table.Controller
	Form    *form.Controller
	Created time.Time
}

type Registry struct {
	mu       sync.Mutex
	sessions map[uint]*Session
	backend  Backend
	source   Source
}

func NewRegistry(b Backend, src Source) *Registry {
	return &Registry{
		sessions: make(map[uint]*Session),
		backend:  b,
		source:   src,
	}
}

// Get returns the user's session, creating it on first use.
func (r *Registry) Get(userID uint) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[userID]; ok {
		return s
	}

	f := form.New(r.backend, r.source.Refresh)
	edit := func(row catalog.ProcessedVideo) {
		f.BeginEdit(row)
	}
	t := table.New(edit, r.backend, r.source.Refresh)

	r.source.Subscribe(t)
	t.OnRowsChanged(r.source.Rows())

	s := &Session{UserID: userID, Table: t, Form: f, Created: time.Now()}
	r.sessions[userID] = s
	return s
}

// Remove drops the user's session. The next Get starts a fresh one.
func (r *Registry) Remove(userID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[userID]
	if !ok {
		return
	}
	r.source.Unsubscribe(s.Table)
	delete(r.sessions, userID)
}

// Each calls fn for every session in user id order.
func (r *Registry) Each(fn func(s *Session)) {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UserID < sessions[j].UserID
	})
	for _, s := range sessions {
		fn(s)
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
