package backend

import "fmt"

// FetchError reports a failed GET. No part of the catalog is applied when
// either collection fails.
type FetchError struct {
	Resource   string
	StatusCode int // 0 if no response arrived
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.Resource, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Resource, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// WriteError reports a rejected POST, PUT or DELETE against /authors.
type WriteError struct {
	Method     string
	Path       string
	AuthorID   int
	StatusCode int // 0 if no response arrived
	Err        error
}

func (e *WriteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Method, e.Path, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
