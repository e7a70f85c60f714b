// Package backendtest runs an in-memory catalog backend for tests.
package backendtest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/labstack/echo/v4"

	"catalog-site/catalog"
)

type Request struct {
	Method string
	Path   string
}

type Server struct {
	*httptest.Server

	mu         sync.Mutex
	authors    []catalog.Author
	categories []catalog.Category
	failures   map[string]int // "METHOD /path" -> status
	requests   []Request
}

func New(authors []catalog.Author, categories []catalog.Category) *Server {
	s := &Server{
		authors:    catalog.CloneAuthors(authors),
		categories: append([]catalog.Category{}, categories...),
		failures:   make(map[string]int),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(s.record)
	e.GET("/authors", s.listAuthors)
	e.GET("/categories", s.listCategories)
	e.POST("/authors", s.createAuthor)
	e.PUT("/authors/:id", s.replaceAuthor)
	e.DELETE("/authors/:id", s.deleteAuthor)

	s.Server = httptest.NewServer(e)
	return s
}

// Fail makes every later request matching method and path answer with status.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
}

func (s *Server) Heal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]int)
}

func (s *Server) Authors() []catalog.Author {
	s.mu.Lock()
	defer s.mu.Unlock()
	return catalog.CloneAuthors(s.authors)
}

func (s *Server) SetAuthors(authors []catalog.Author) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authors = catalog.CloneAuthors(authors)
}

// Writes returns every non-GET request seen so far.
func (s *Server) Writes() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Request
	for _, r := range s.requests {
		if r.Method != http.MethodGet {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		s.mu.Lock()
		s.requests = append(s.requests, Request{Method: req.Method, Path: req.URL.Path})
		status, fail := s.failures[req.Method+" "+req.URL.Path]
		s.mu.Unlock()
		if fail {
			return c.String(status, "injected failure")
		}
		return next(c)
	}
}

func (s *Server) listAuthors(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Authors())
}

func (s *Server) listCategories(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.categories)
}

func (s *Server) createAuthor(c echo.Context) error {
	var a catalog.Author
	if err := c.Bind(&a); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.authors {
		if existing.ID == a.ID {
			return c.String(http.StatusConflict, fmt.Sprintf("author %d exists", a.ID))
		}
	}
	s.authors = append(s.authors, a)
	return c.JSON(http.StatusCreated, a)
}

func (s *Server) replaceAuthor(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.String(http.StatusBadRequest, "bad id")
	}
	var a catalog.Author
	if err := c.Bind(&a); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.authors {
		if s.authors[i].ID == id {
			s.authors[i] = a
			return c.JSON(http.StatusOK, a)
		}
	}
	return c.String(http.StatusNotFound, "not found")
}

func (s *Server) deleteAuthor(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.String(http.StatusBadRequest, "bad id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.authors {
		if s.authors[i].ID == id {
			s.authors = append(s.authors[:i:i], s.authors[i+1:]...)
			return c.JSON(http.StatusOK, map[string]string{})
		}
	}
	return c.String(http.StatusNotFound, "not found")
}
