// Package store holds the last catalog snapshot fetched from the backend.
//
// Readers get a *Store and only ever see deep copies. The single *Writer is
// handed to the backend client, which is the only code allowed to install a
// new snapshot.
package store

import (
	"sync"
	"sync/atomic"
	"time"

	"catalog-site/catalog"
)

type Store struct {
	mu         sync.RWMutex
	authors    []catalog.Author
	categories []catalog.Category
	byName     map[string]int // author name -> index, first match wins
	byVideo    map[int]int    // video id -> author index
	byCategory map[int]int    // category id -> index, first match wins

	issued   atomic.Uint64
	applied  uint64
	version  uint64
	loadedAt time.Time
}

type Writer struct {
	s *Store
}

// Ticket orders fetches by the time they started.
type Ticket uint64

func New() (*Store, *Writer) {
	s := &Store{}
	s.reindex()
	return s, &Writer{s: s}
}

func (w *Writer) Store() *Store {
	return w.s
}

// Begin is called before a fetch starts.
func (w *Writer) Begin() Ticket {
	return Ticket(w.s.issued.Add(1))
}

// Commit installs a snapshot unless a fetch that started later already
// committed one. It reports whether the snapshot was installed.
func (w *Writer) Commit(t Ticket, authors []catalog.Author, categories []catalog.Category) bool {
	s := w.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if uint64(t) <= s.applied {
		return false
	}
	s.applied = uint64(t)
	s.authors = catalog.CloneAuthors(authors)
	s.categories = append([]catalog.Category{}, categories...)
	s.version++
	s.loadedAt = time.Now()
	s.reindex()
	return true
}

func (s *Store) reindex() {
	s.byName = make(map[string]int, len(s.authors))
	s.byVideo = make(map[int]int)
	s.byCategory = make(map[int]int, len(s.categories))
	for i, a := range s.authors {
		if _, ok := s.byName[a.Name]; !ok {
			s.byName[a.Name] = i
		}
		for _, v := range a.Videos {
			if _, ok := s.byVideo[v.ID]; !ok {
				s.byVideo[v.ID] = i
			}
		}
	}
	for i, c := range s.categories {
		if _, ok := s.byCategory[c.ID]; !ok {
			s.byCategory[c.ID] = i
		}
	}
}

func (s *Store) Authors() []catalog.Author {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return catalog.CloneAuthors(s.authors)
}

func (s *Store) Categories() []catalog.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]catalog.Category{}, s.categories...)
}

func (s *Store) AuthorByName(name string) (catalog.Author, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byName[name]
	if !ok {
		return catalog.Author{}, false
	}
	return s.authors[i].Clone(), true
}

func (s *Store) AuthorByVideoID(id int) (catalog.Author, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byVideo[id]
	if !ok {
		return catalog.Author{}, false
	}
	return s.authors[i].Clone(), true
}

func (s *Store) Category(id int) (catalog.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byCategory[id]
	if !ok {
		return catalog.Category{}, false
	}
	return s.categories[i], true
}

// Snapshot returns both collections and the version they belong to.
func (s *Store) Snapshot() ([]catalog.Author, []catalog.Category, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return catalog.CloneAuthors(s.authors), append([]catalog.Category{}, s.categories...), s.version
}

// Version counts installed snapshots, 0 until the first fetch lands.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}
