package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"catalog-site/catalog"
)

type rowsChanged struct {
	Version uint64 `json:"version"`
	Rows    int    `json:"rows"`
}

// queue buffers the latest change for one event stream
type queue struct {
	ch chan rowsChanged
}

func (q *queue) OnRowsChanged(rows []catalog.ProcessedVideo) {
	q.OnSnapshot(0, rows)
}

func (q *queue) OnSnapshot(version uint64, rows []catalog.ProcessedVideo) {
	ev := rowsChanged{Version: version, Rows: len(rows)}
	select {
	case q.ch <- ev:
	default:
		// drop the stale event so the newest one is delivered
		select {
		case <-q.ch:
		default:
		}
		select {
		case q.ch <- ev:
		default:
		}
	}
}

// EventsGet streams a server-sent event whenever the catalog is reloaded.
func EventsGet(c echo.Context) error {
	if _, err := GetUser(c); err != nil {
		return err
	}

	req := c.Request()
	res := c.Response()

	// Set headers for SSE
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")

	// Create a channel to signal client disconnect
	done := req.Context().Done()

	q := &queue{ch: make(chan rowsChanged, 1)}
	refresher.Subscribe(q)
	defer refresher.Unsubscribe(q)

	res.WriteHeader(http.StatusOK)
	res.Flush()

	// Send SSE messages
	for {
		select {
		case <-done:
			return nil
		case event := <-q.ch:
			jsonData, err := json.Marshal(event)
			if err != nil {
				return err
			}

			msg := fmt.Sprintf("data: %s\n\n", jsonData)
			_, err = res.Write([]byte(msg))
			if err != nil {
				return err
			}
			res.Flush()
		}
	}
}
