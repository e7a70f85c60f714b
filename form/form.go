// Package form drives the add/edit video form of a console session.
package form

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"catalog-site/catalog"
	"catalog-site/store"
)

var ErrNotEditing = errors.New("form is not open")

type Mode string

const (
	Hidden  Mode = "hidden"
	Adding  Mode = "adding"
	Editing Mode = "editing"
)

type Fields struct {
	Name       string   `json:"name"`
	Author     string   `json:"author"`
	Categories []string `json:"categories"`
}

func (f Fields) clone() Fields {
	out := f
	out.Categories = append([]string{}, f.Categories...)
	return out
}

type State struct {
	Mode   Mode                    `json:"mode"`
	Header string                  `json:"header"`
	Fields Fields                  `json:"fields"`
	Row    *catalog.ProcessedVideo `json:"row,omitempty"`
}

// ValidationError lists the required fields left empty.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

// Writer is the part of the backend client the form writes through.
type Writer interface {
	Store() *store.Store
	CreateAuthor(ctx context.Context, a catalog.Author) error
	ReplaceAuthor(ctx context.Context, a catalog.Author) error
	DeleteAuthor(ctx context.Context, id int) error
}

type RefreshFunc func(ctx context.Context) error

type Controller struct {
	// submitting serializes Submit; mu guards the form state and is never
	// held across a backend call.
	submitting sync.Mutex

	mu      sync.Mutex
	mode    Mode
	header  string
	fields  Fields
	row     catalog.ProcessedVideo
	opened  uint64 // bumped whenever the form is opened or closed
	backend Writer
	refresh RefreshFunc
}

func New(w Writer, refresh RefreshFunc) *Controller {
	return &Controller{
		mode:    Hidden,
		fields:  Fields{Categories: []string{}},
		backend: w,
		refresh: refresh,
	}
}

func (c *Controller) BeginAdd() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opened++
	c.mode = Adding
	c.header = "Add Video"
	c.fields = Fields{Categories: []string{}}
	c.row = catalog.ProcessedVideo{}
	return c.stateLocked()
}

// BeginEdit opens the form on row with its name, author and categories
// filled in.
func (c *Controller) BeginEdit(row catalog.ProcessedVideo) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opened++
	c.mode = Editing
	c.header = "Edit Video: " + row.Name
	c.fields = Fields{
		Name:       row.Name,
		Author:     row.Author,
		Categories: append([]string{}, row.Categories...),
	}
	c.row = row.Clone()
	return c.stateLocked()
}

func (c *Controller) Cancel() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
	return c.stateLocked()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	s := State{Mode: c.mode, Header: c.header, Fields: c.fields.clone()}
	if c.mode == Editing {
		row := c.row.Clone()
		s.Row = &row
	}
	return s
}

func (c *Controller) resetLocked() {
	c.opened++
	c.mode = Hidden
	c.header = ""
	c.fields = Fields{Categories: []string{}}
	c.row = catalog.ProcessedVideo{}
}

func validate(f Fields) error {
	var missing []string
	if strings.TrimSpace(f.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(f.Author) == "" {
		missing = append(missing, "author")
	}
	hasCategory := false
	for _, cat := range f.Categories {
		if strings.TrimSpace(cat) != "" {
			hasCategory = true
			break
		}
	}
	if !hasCategory {
		missing = append(missing, "categories")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// Submit writes the form to the backend. On success the rows are refreshed
// and the form closes; on failure it stays open with the submitted fields.
// The form can be read or cancelled while the writes are in flight.
func (c *Controller) Submit(ctx context.Context, f Fields) error {
	c.submitting.Lock()
	defer c.submitting.Unlock()

	c.mu.Lock()
	if c.mode == Hidden {
		c.mu.Unlock()
		return ErrNotEditing
	}
	c.fields = f.clone()
	mode, videoID, opened := c.mode, c.row.ID, c.opened
	c.mu.Unlock()

	if err := validate(f); err != nil {
		return err
	}

	var err error
	if mode == Adding {
		err = c.add(ctx, f)
	} else {
		err = c.edit(ctx, videoID, f)
	}
	if err != nil {
		return err
	}
	c.refreshRows(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	// leave a form the user reopened meanwhile alone
	if c.opened == opened {
		c.resetLocked()
	}
	return nil
}

func (c *Controller) refreshRows(ctx context.Context) {
	if c.refresh == nil {
		return
	}
	if err := c.refresh(ctx); err != nil {
		log.WithError(err).Warn("refresh after submit failed")
	}
}

func (c *Controller) add(ctx context.Context, f Fields) error {
	st := c.backend.Store()
	authors := st.Authors()
	video := catalog.Video{
		ID:          catalog.NextVideoID(authors),
		CategoryIDs: catalog.CategoryIDsByNames(f.Categories, st.Categories()),
		Name:        f.Name,
		ReleaseDate: catalog.Today(),
		Formats:     catalog.DefaultFormats(),
	}

	if i := catalog.FindAuthorByName(f.Author, authors); i != -1 {
		author := authors[i]
		author.Videos = append(author.Videos, video)
		log.Infof("adding video %d to author %d", video.ID, author.ID)
		return c.backend.ReplaceAuthor(ctx, author)
	}

	author := catalog.Author{
		ID:     catalog.NextAuthorID(authors),
		Name:   f.Author,
		Videos: []catalog.Video{video},
	}
	log.Infof("adding video %d with new author %d", video.ID, author.ID)
	return c.backend.CreateAuthor(ctx, author)
}

// edit keeps the video's id, release date and formats. A changed author
// moves the video: the target is written before the source gives it up.
// A move that stopped halfway leaves the video with both authors; editing
// it again finishes the move.
func (c *Controller) edit(ctx context.Context, videoID int, f Fields) error {
	st := c.backend.Store()
	authors := st.Authors()

	// source is the holder the video moves away from; holder is any author
	// holding it, which is the target when the move already landed there.
	si, holder := -1, -1
	for i := range authors {
		if authors[i].VideoIndex(videoID) == -1 {
			continue
		}
		if holder == -1 {
			holder = i
		}
		if si == -1 && authors[i].Name != f.Author {
			si = i
		}
	}
	if holder == -1 {
		return fmt.Errorf("video %d: %w", videoID, catalog.ErrVideoNotFound)
	}

	if si == -1 {
		owner := authors[holder]
		vi := owner.VideoIndex(videoID)
		owner.Videos[vi] = editVideo(owner.Videos[vi], f, st)
		log.Infof("updating video %d of author %d", videoID, owner.ID)
		return c.backend.ReplaceAuthor(ctx, owner)
	}

	source := authors[si]
	vi := source.VideoIndex(videoID)
	edited := editVideo(source.Videos[vi], f, st)

	if ti := catalog.FindAuthorByName(f.Author, authors); ti != -1 {
		target := authors[ti]
		if i := target.VideoIndex(videoID); i != -1 {
			target.Videos[i] = edited
		} else {
			target.Videos = append(target.Videos, edited)
		}
		log.Infof("moving video %d from author %d to %d", videoID, source.ID, target.ID)
		if err := c.backend.ReplaceAuthor(ctx, target); err != nil {
			return err
		}
	} else {
		target := catalog.Author{
			ID:     catalog.NextAuthorID(authors),
			Name:   f.Author,
			Videos: []catalog.Video{edited},
		}
		log.Infof("moving video %d from author %d to new author %d", videoID, source.ID, target.ID)
		if err := c.backend.CreateAuthor(ctx, target); err != nil {
			return err
		}
	}

	source.RemoveVideo(vi)
	var err error
	if len(source.Videos) == 0 {
		err = c.backend.DeleteAuthor(ctx, source.ID)
	} else {
		err = c.backend.ReplaceAuthor(ctx, source)
	}
	if err != nil {
		// the target already holds the video; reload so a retry starts from there
		log.WithError(err).Warnf("video %d is held by two authors", videoID)
		c.refreshRows(ctx)
	}
	return err
}

func editVideo(v catalog.Video, f Fields, st *store.Store) catalog.Video {
	out := v.Clone()
	out.Name = f.Name
	out.CategoryIDs = catalog.CategoryIDsByNames(f.Categories, st.Categories())
	return out
}

// AuthorOptions lists the distinct author names in backend order.
func AuthorOptions(st *store.Store) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, a := range st.Authors() {
		if !seen[a.Name] {
			seen[a.Name] = true
			out = append(out, a.Name)
		}
	}
	return out
}

func CategoryOptions(st *store.Store) []string {
	cats := st.Categories()
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = c.Name
	}
	return out
}
