// Package backend talks to the REST catalog service that persists authors
// and their videos.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"catalog-site/catalog"
	"catalog-site/store"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration // 0 keeps the timeout of the http client
	limiter *rate.Limiter // nil means unlimited
	writer  *store.Writer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout bounds each request. It is applied to a copy of the http
// client, so a shared client passed to WithHTTPClient is left untouched.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRateLimit caps outgoing requests per second; rps <= 0 disables it.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New builds a client that commits fetched snapshots through w.
func New(baseURL string, w *store.Writer, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		writer:  w,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = &http.Client{Timeout: defaultTimeout}
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Store is the read side of the snapshot this client keeps current.
func (c *Client) Store() *store.Store {
	return c.writer.Store()
}

type FetchResult struct {
	Authors    []catalog.Author
	Categories []catalog.Category
	// false when a fetch that started later had already been committed
	Applied bool
}

// Fetch retrieves authors and categories in parallel. Both must succeed;
// otherwise the store is left alone and a *FetchError is returned.
func (c *Client) Fetch(ctx context.Context) (FetchResult, error) {
	ticket := c.writer.Begin()

	var authors []catalog.Author
	var categories []catalog.Category

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.getJSON(gctx, "authors", &authors)
	})
	g.Go(func() error {
		return c.getJSON(gctx, "categories", &categories)
	})
	if err := g.Wait(); err != nil {
		log.WithError(err).Error("failed to fetch catalog")
		return FetchResult{}, err
	}

	if authors == nil {
		authors = []catalog.Author{}
	}
	if categories == nil {
		categories = []catalog.Category{}
	}

	applied := c.writer.Commit(ticket, authors, categories)
	if !applied {
		log.Debugln("dropped stale catalog snapshot", ticket)
	}
	return FetchResult{Authors: authors, Categories: categories, Applied: applied}, nil
}

func (c *Client) FetchCatalog(ctx context.Context) ([]catalog.Author, []catalog.Category, error) {
	res, err := c.Fetch(ctx)
	if err != nil {
		return nil, nil, err
	}
	return res.Authors, res.Categories, nil
}

// CreateAuthor posts a new author. The backend may answer with an empty body.
func (c *Client) CreateAuthor(ctx context.Context, a catalog.Author) error {
	return c.send(ctx, http.MethodPost, "/authors", a.ID, a)
}

func (c *Client) ReplaceAuthor(ctx context.Context, a catalog.Author) error {
	return c.send(ctx, http.MethodPut, fmt.Sprintf("/authors/%d", a.ID), a.ID, a)
}

func (c *Client) DeleteAuthor(ctx context.Context, id int) error {
	return c.send(ctx, http.MethodDelete, fmt.Sprintf("/authors/%d", id), id, nil)
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *Client) getJSON(ctx context.Context, resource string, out any) error {
	if err := c.wait(ctx); err != nil {
		return &FetchError{Resource: resource, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+resource, nil)
	if err != nil {
		return &FetchError{Resource: resource, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &FetchError{Resource: resource, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &FetchError{Resource: resource, StatusCode: resp.StatusCode, Err: responseError(resp)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &FetchError{Resource: resource, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, authorID int, body any) error {
	fail := func(status int, err error) error {
		werr := &WriteError{Method: method, Path: path, AuthorID: authorID, StatusCode: status, Err: err}
		log.WithFields(logrus.Fields{
			"method":    method,
			"path":      path,
			"author_id": authorID,
			"status":    status,
		}).WithError(err).Error("backend write failed")
		return werr
	}

	if err := c.wait(ctx); err != nil {
		return fail(0, err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fail(0, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fail(0, err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Infoln(method, path)
	resp, err := c.http.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(resp.StatusCode, responseError(resp))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// responseError turns the start of an error body into an error.
func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return errors.New(msg)
}
