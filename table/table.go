// Package table keeps the rows shown in one console's catalog table and
// turns edit and delete requests into backend writes.
package table

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"catalog-site/catalog"
	"catalog-site/store"
)

var (
	ErrUnknownColumn = errors.New("unknown column")
	ErrNotConfirmed  = errors.New("delete not confirmed")
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Columns that start with an ascending sort.
var SortableColumns = []string{"name", "author", "categories", "releaseDate", "highestQualityFormat"}

// EditFunc receives a row the user asked to edit.
type EditFunc func(row catalog.ProcessedVideo)

// RefreshFunc reloads rows from the backend after a write.
type RefreshFunc func(ctx context.Context) error

// ConfirmFunc asks the user to confirm a prompt.
type ConfirmFunc func(prompt string) bool

// Remover is the part of the backend client a delete needs.
type Remover interface {
	Store() *store.Store
	ReplaceAuthor(ctx context.Context, a catalog.Author) error
	DeleteAuthor(ctx context.Context, id int) error
}

type Controller struct {
	mu         sync.Mutex
	allRows    []catalog.ProcessedVideo
	visible    []catalog.ProcessedVideo
	searchText string
	directions map[string]Direction
	populated  bool
	collator   *collate.Collator

	edit    EditFunc
	remover Remover
	refresh RefreshFunc
}

func New(edit EditFunc, remover Remover, refresh RefreshFunc) *Controller {
	c := &Controller{
		allRows:    []catalog.ProcessedVideo{},
		visible:    []catalog.ProcessedVideo{},
		directions: make(map[string]Direction, len(SortableColumns)),
		collator:   collate.New(language.Und),
		edit:       edit,
		remover:    remover,
		refresh:    refresh,
	}
	for _, col := range SortableColumns {
		c.directions[col] = Asc
	}
	return c
}

// OnRowsChanged installs a new upstream row set. An active search is
// re-applied so visible rows never outlive the rows they came from.
func (c *Controller) OnRowsChanged(rows []catalog.ProcessedVideo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.allRows = cloneRows(rows)
	if !c.populated {
		c.populated = true
		c.visible = cloneRows(c.allRows)
		return
	}
	if isBlank(c.searchText) {
		c.visible = cloneRows(c.allRows)
		return
	}
	c.visible = filter(c.allRows, strings.ToLower(c.searchText))
}

// Search filters all rows by a case-insensitive substring. Blank text shows
// every row in upstream order.
func (c *Controller) Search(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.searchText = text
	if isBlank(text) {
		c.visible = cloneRows(c.allRows)
		return
	}
	c.visible = filter(c.allRows, strings.ToLower(text))
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func filter(rows []catalog.ProcessedVideo, term string) []catalog.ProcessedVideo {
	out := []catalog.ProcessedVideo{}
	for _, r := range rows {
		if matches(r, term) {
			out = append(out, r.Clone())
		}
	}
	return out
}

func matches(r catalog.ProcessedVideo, term string) bool {
	for _, field := range []string{r.Name, r.Author, r.ReleaseDate, r.HighestQualityFormat} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	for _, cat := range r.Categories {
		if strings.Contains(strings.ToLower(cat), term) {
			return true
		}
	}
	return false
}

// SortBy stable-sorts the visible rows by column and flips that column's
// direction for the next call.
func (c *Controller) SortBy(column string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !isColumn(column) {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	dir, ok := c.directions[column]
	if !ok {
		dir = Asc
	}

	keys := make([]string, len(c.visible))
	for i := range c.visible {
		keys[i] = strings.ToLower(columnValue(c.visible[i], column))
	}
	idx := make([]int, len(c.visible))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		cmp := c.collator.CompareString(keys[idx[i]], keys[idx[j]])
		if dir == Asc {
			return cmp < 0
		}
		return cmp > 0
	})
	sorted := make([]catalog.ProcessedVideo, len(idx))
	for i, k := range idx {
		sorted[i] = c.visible[k]
	}
	c.visible = sorted

	if dir == Asc {
		c.directions[column] = Desc
	} else {
		c.directions[column] = Asc
	}
	return nil
}

func isColumn(column string) bool {
	if column == "id" {
		return true
	}
	for _, col := range SortableColumns {
		if col == column {
			return true
		}
	}
	return false
}

func columnValue(r catalog.ProcessedVideo, column string) string {
	switch column {
	case "id":
		return strconv.Itoa(r.ID)
	case "name":
		return r.Name
	case "author":
		return r.Author
	case "categories":
		return strings.Join(r.Categories, ", ")
	case "releaseDate":
		return r.ReleaseDate
	case "highestQualityFormat":
		return r.HighestQualityFormat
	}
	return ""
}

// RequestEdit hands the row to the edit callback.
func (c *Controller) RequestEdit(row catalog.ProcessedVideo) {
	if c.edit != nil {
		c.edit(row.Clone())
	}
}

// RequestEditByID edits the visible row with the given video id.
func (c *Controller) RequestEditByID(id int) (catalog.ProcessedVideo, error) {
	row, ok := c.VisibleRow(id)
	if !ok {
		return catalog.ProcessedVideo{}, catalog.ErrVideoNotFound
	}
	c.RequestEdit(row)
	return row, nil
}

func (c *Controller) VisibleRow(id int) (catalog.ProcessedVideo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.visible {
		if r.ID == id {
			return r.Clone(), true
		}
	}
	return catalog.ProcessedVideo{}, false
}

func DeletePrompt(row catalog.ProcessedVideo) string {
	return fmt.Sprintf("Are you sure you want to delete \"%s\"?", row.Name)
}

// RequestDelete removes the row's video from its author once confirm agrees.
// The author is deleted outright when this was its last video. Table state
// only changes through the refresh that follows a successful write.
func (c *Controller) RequestDelete(ctx context.Context, row catalog.ProcessedVideo, confirm ConfirmFunc) error {
	if confirm == nil || !confirm(DeletePrompt(row)) {
		return ErrNotConfirmed
	}

	author, ok := c.remover.Store().AuthorByName(row.Author)
	if !ok {
		return fmt.Errorf("author %q: %w", row.Author, catalog.ErrVideoNotFound)
	}
	i := author.VideoIndex(row.ID)
	if i == -1 {
		return fmt.Errorf("video %d of %q: %w", row.ID, row.Author, catalog.ErrVideoNotFound)
	}

	var err error
	if len(author.Videos) == 1 {
		err = c.remover.DeleteAuthor(ctx, author.ID)
	} else {
		author.RemoveVideo(i)
		err = c.remover.ReplaceAuthor(ctx, author)
	}
	if err != nil {
		return err
	}

	log.Infof("deleted video %d (%s)", row.ID, row.Name)
	if c.refresh != nil {
		if err := c.refresh(ctx); err != nil {
			log.WithError(err).Warn("refresh after delete failed")
		}
	}
	return nil
}

// Rows returns a copy of the visible rows.
func (c *Controller) Rows() []catalog.ProcessedVideo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneRows(c.visible)
}

func (c *Controller) AllRows() []catalog.ProcessedVideo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneRows(c.allRows)
}

func (c *Controller) SearchText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.searchText
}

func (c *Controller) SortDirections() map[string]Direction {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]Direction, len(c.directions))
	for k, v := range c.directions {
		out[k] = v
	}
	return out
}

func cloneRows(rows []catalog.ProcessedVideo) []catalog.ProcessedVideo {
	out := make([]catalog.ProcessedVideo, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}
