package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"catalog-site/database"
	"catalog-site/writelog"
)

type snapshotStatus struct {
	Version  uint64     `json:"version"`
	LoadedAt *time.Time `json:"loadedAt,omitempty"`
	Rows     int        `json:"rows"`
}

func StatusGet(c echo.Context) error {
	st := client.Store()
	snap := snapshotStatus{
		Version: st.Version(),
		Rows:    len(refresher.Rows()),
	}
	if loaded := st.LoadedAt(); !loaded.IsZero() {
		snap.LoadedAt = &loaded
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"build":    MakeBuildInfo(),
		"backend":  client.BaseURL(),
		"snapshot": snap,
		"sessions": registry.Len(),
	})
}

// RefreshPost reloads the catalog for every session. With async=true the
// reload is handed to the background worker.
func RefreshPost(c echo.Context) error {
	s, err := consoleFor(c)
	if err != nil {
		return err
	}
	if c.QueryParam("async") == "true" {
		refresher.Trigger()
		return c.NoContent(http.StatusAccepted)
	}
	if err := refresher.Refresh(c.Request().Context()); err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, tableState(s.Table))
}

func FailuresGet(c echo.Context) error {
	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	failures, err := writelog.Recent(database.Get(), limit)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, failures)
}
