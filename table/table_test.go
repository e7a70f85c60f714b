package table

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-site/backend"
	"catalog-site/backend/backendtest"
	"catalog-site/catalog"
	"catalog-site/projection"
	"catalog-site/store"
)

func row(id int, name, author string, cats ...string) catalog.ProcessedVideo {
	return catalog.ProcessedVideo{
		ID:                   id,
		Name:                 name,
		Author:               author,
		Categories:           cats,
		HighestQualityFormat: "one 1080p",
		ReleaseDate:          "2020-01-01",
	}
}

func names(rows []catalog.ProcessedVideo) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func populated(rows ...catalog.ProcessedVideo) *Controller {
	c := New(nil, nil, nil)
	c.OnRowsChanged(rows)
	return c
}

func TestInitialState(t *testing.T) {
	c := New(nil, nil, nil)
	assert.Empty(t, c.Rows())
	assert.Equal(t, "", c.SearchText())
	assert.Equal(t, map[string]Direction{
		"name":                 Asc,
		"author":               Asc,
		"categories":           Asc,
		"releaseDate":          Asc,
		"highestQualityFormat": Asc,
	}, c.SortDirections())
}

func TestOnRowsChanged(t *testing.T) {
	c := populated(row(1, "A", "x"), row(2, "B", "y"))
	assert.Equal(t, []string{"A", "B"}, names(c.Rows()))

	c.OnRowsChanged([]catalog.ProcessedVideo{row(3, "C", "z")})
	assert.Equal(t, []string{"C"}, names(c.Rows()))
	assert.Equal(t, []string{"C"}, names(c.AllRows()))
}

func TestOnRowsChangedKeepsSearch(t *testing.T) {
	c := populated(row(1, "Video 1", "x"), row(2, "Video 2", "y"))
	c.Search("video 2")

	c.OnRowsChanged([]catalog.ProcessedVideo{row(1, "Video 1", "x"), row(3, "Another video 2", "y")})
	assert.Equal(t, []string{"Another video 2"}, names(c.Rows()))

	c.OnRowsChanged([]catalog.ProcessedVideo{row(1, "Video 1", "x")})
	assert.Empty(t, c.Rows())
}

func TestSearch(t *testing.T) {
	c := populated(
		row(1, "Video 1", "David Munch", "Thriller"),
		row(2, "Video 2", "Li Sun Chi", "Drama", "Crime"),
	)

	c.Search("video 1")
	assert.Equal(t, []string{"Video 1"}, names(c.Rows()))

	c.Search("MUNCH")
	assert.Equal(t, []string{"Video 1"}, names(c.Rows()))

	c.Search("crim")
	assert.Equal(t, []string{"Video 2"}, names(c.Rows()))

	c.Search("1080p")
	assert.Len(t, c.Rows(), 2)

	c.Search("2020-01")
	assert.Len(t, c.Rows(), 2)

	c.Search("nothing")
	assert.Empty(t, c.Rows())
	assert.NotNil(t, c.Rows())
}

func TestBlankSearchRestoresAllRows(t *testing.T) {
	c := populated(row(1, "B", "x"), row(2, "A", "y"), row(3, "C", "z"))
	c.Search("a")
	require.NoError(t, c.SortBy("name"))

	for _, text := range []string{"", "   ", "\t"} {
		c.Search(text)
		assert.Equal(t, c.AllRows(), c.Rows())
		assert.Equal(t, []string{"B", "A", "C"}, names(c.Rows()))
	}
}

func TestSortToggles(t *testing.T) {
	c := populated(row(1, "B", "x"), row(2, "A", "y"))

	require.NoError(t, c.SortBy("name"))
	assert.Equal(t, []string{"A", "B"}, names(c.Rows()))
	assert.Equal(t, Desc, c.SortDirections()["name"])

	require.NoError(t, c.SortBy("name"))
	assert.Equal(t, []string{"B", "A"}, names(c.Rows()))
	assert.Equal(t, Asc, c.SortDirections()["name"])

	// allRows keeps upstream order
	assert.Equal(t, []string{"B", "A"}, names(c.AllRows()))
}

func TestSortColumnsAreIndependent(t *testing.T) {
	c := populated(row(1, "B", "x"), row(2, "A", "y"))
	require.NoError(t, c.SortBy("name"))
	require.NoError(t, c.SortBy("author"))

	dirs := c.SortDirections()
	assert.Equal(t, Desc, dirs["name"])
	assert.Equal(t, Desc, dirs["author"])
	assert.Equal(t, Asc, dirs["categories"])
}

func TestSortIsStableAndCaseInsensitive(t *testing.T) {
	c := populated(
		row(1, "first", "beta"),
		row(2, "second", "Alpha"),
		row(3, "third", "BETA"),
		row(4, "fourth", "alpha"),
	)
	require.NoError(t, c.SortBy("author"))
	assert.Equal(t, []string{"second", "fourth", "first", "third"}, names(c.Rows()))

	require.NoError(t, c.SortBy("author"))
	assert.Equal(t, []string{"first", "third", "second", "fourth"}, names(c.Rows()))
}

func TestSortUsesCollation(t *testing.T) {
	c := populated(row(1, "zeta", "x"), row(2, "Émile", "x"), row(3, "eve", "x"))
	require.NoError(t, c.SortBy("name"))
	assert.Equal(t, []string{"Émile", "eve", "zeta"}, names(c.Rows()))
}

func TestSortCategoriesAndID(t *testing.T) {
	c := populated(
		row(10, "a", "x", "Drama", "Crime"),
		row(9, "b", "x", "Crime"),
		row(100, "c", "x", "Drama"),
	)
	require.NoError(t, c.SortBy("categories"))
	assert.Equal(t, []string{"b", "c", "a"}, names(c.Rows()))

	_, ok := c.SortDirections()["id"]
	assert.False(t, ok)
	require.NoError(t, c.SortBy("id"))
	// ids compare as strings
	assert.Equal(t, []string{"a", "c", "b"}, names(c.Rows()))
	assert.Equal(t, Desc, c.SortDirections()["id"])
}

func TestSortUnknownColumn(t *testing.T) {
	c := populated(row(1, "A", "x"))
	err := c.SortBy("formats")
	assert.True(t, errors.Is(err, ErrUnknownColumn))
	assert.NotContains(t, c.SortDirections(), "formats")
}

func TestRequestEdit(t *testing.T) {
	var got []catalog.ProcessedVideo
	c := New(func(r catalog.ProcessedVideo) { got = append(got, r) }, nil, nil)
	c.OnRowsChanged([]catalog.ProcessedVideo{row(1, "A", "x", "Drama")})

	before := c.Rows()
	c.RequestEdit(before[0])
	r, err := c.RequestEditByID(1)
	require.NoError(t, err)
	assert.Equal(t, "A", r.Name)

	require.Len(t, got, 2)
	assert.Equal(t, before, c.Rows())

	_, err = c.RequestEditByID(42)
	assert.ErrorIs(t, err, catalog.ErrVideoNotFound)
	assert.Len(t, got, 2)
}

type fixture struct {
	srv       *backendtest.Server
	client    *backend.Client
	table     *Controller
	refreshes int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{srv: backendtest.New(backendtest.Authors(), backendtest.Categories())}
	t.Cleanup(f.srv.Close)

	_, w := store.New()
	f.client = backend.New(f.srv.URL, w)
	f.table = New(nil, f.client, func(ctx context.Context) error {
		f.refreshes++
		authors, categories, err := f.client.FetchCatalog(ctx)
		if err != nil {
			return err
		}
		f.table.OnRowsChanged(projection.Project(authors, categories))
		return nil
	})
	require.NoError(t, f.table.refresh(context.Background()))
	f.refreshes = 0
	return f
}

func yes(string) bool { return true }

func TestDeleteOneOfTwoVideos(t *testing.T) {
	f := newFixture(t)
	target, ok := f.table.VisibleRow(2)
	require.True(t, ok)

	require.NoError(t, f.table.RequestDelete(context.Background(), target, yes))

	authors := f.srv.Authors()
	require.Len(t, authors, 2)
	require.Len(t, authors[0].Videos, 1)
	assert.Equal(t, 1, authors[0].Videos[0].ID)
	assert.Equal(t, []backendtest.Request{{Method: http.MethodPut, Path: "/authors/1"}}, f.srv.Writes())

	assert.Equal(t, 1, f.refreshes)
	assert.Equal(t, []string{"Night Hunter", "Ocean Depths"}, names(f.table.Rows()))
}

func TestDeleteLastVideoDeletesAuthor(t *testing.T) {
	f := newFixture(t)
	target, ok := f.table.VisibleRow(3)
	require.True(t, ok)

	require.NoError(t, f.table.RequestDelete(context.Background(), target, yes))

	authors := f.srv.Authors()
	require.Len(t, authors, 1)
	assert.Equal(t, "David Munch", authors[0].Name)
	assert.Equal(t, []backendtest.Request{{Method: http.MethodDelete, Path: "/authors/2"}}, f.srv.Writes())
	assert.Len(t, f.table.Rows(), 2)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	f := newFixture(t)
	target, _ := f.table.VisibleRow(1)

	var prompt string
	err := f.table.RequestDelete(context.Background(), target, func(p string) bool {
		prompt = p
		return false
	})
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Equal(t, `Are you sure you want to delete "Night Hunter"?`, prompt)

	assert.ErrorIs(t, f.table.RequestDelete(context.Background(), target, nil), ErrNotConfirmed)
	assert.Empty(t, f.srv.Writes())
	assert.Equal(t, 0, f.refreshes)
}

func TestDeleteMissingVideo(t *testing.T) {
	f := newFixture(t)

	err := f.table.RequestDelete(context.Background(), row(1, "Night Hunter", "Nobody"), yes)
	assert.ErrorIs(t, err, catalog.ErrVideoNotFound)

	err = f.table.RequestDelete(context.Background(), row(99, "Ghost", "David Munch"), yes)
	assert.ErrorIs(t, err, catalog.ErrVideoNotFound)

	assert.Empty(t, f.srv.Writes())
}

func TestDeleteWriteFailureSkipsRefresh(t *testing.T) {
	f := newFixture(t)
	f.srv.Fail(http.MethodPut, "/authors/1", http.StatusInternalServerError)
	before := f.table.Rows()
	target, _ := f.table.VisibleRow(1)

	err := f.table.RequestDelete(context.Background(), target, yes)
	var werr *backend.WriteError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, http.StatusInternalServerError, werr.StatusCode)

	assert.Equal(t, 0, f.refreshes)
	assert.Equal(t, before, f.table.Rows())
	assert.Len(t, f.srv.Authors()[0].Videos, 2)
}

func TestDeleteRefreshFailureIsNotReturned(t *testing.T) {
	f := newFixture(t)
	f.srv.Fail(http.MethodGet, "/categories", http.StatusInternalServerError)
	target, _ := f.table.VisibleRow(2)

	require.NoError(t, f.table.RequestDelete(context.Background(), target, yes))
	assert.Equal(t, 1, f.refreshes)
	// rows stay as they were until a refresh succeeds
	assert.Len(t, f.table.Rows(), 3)
}
