package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"catalog-site/catalog"
	"catalog-site/table"
)

type tableResponse struct {
	Rows           []catalog.ProcessedVideo   `json:"rows"`
	SearchText     string                     `json:"searchText"`
	SortDirections map[string]table.Direction `json:"sortDirections"`
}

func tableState(t *table.Controller) tableResponse {
	return tableResponse{
		Rows:           t.Rows(),
		SearchText:     t.SearchText(),
		SortDirections: t.SortDirections(),
	}
}

func TableGet(c echo.Context) error {
	s, err := consoleFor(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tableState(s.Table))
}

func TableSearchPost(c echo.Context) error {
	s, err := consoleFor(c)
	if err != nil {
		return err
	}
	s.Table.Search(c.FormValue("text"))
	return c.JSON(http.StatusOK, tableState(s.Table))
}

func TableSortPost(c echo.Context) error {
	s, err := consoleFor(c)
	if err != nil {
		return err
	}
	if err := s.Table.SortBy(c.Param("column")); err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, tableState(s.Table))
}

func rowID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid row id")
	}
	return id, nil
}

// TableEditPost opens the user's form on a visible row.
func TableEditPost(c echo.Context) error {
	s, err := consoleFor(c)
	if err != nil {
		return err
	}
	id, err := rowID(c)
	if err != nil {
		return err
	}
	if _, err := s.Table.RequestEditByID(id); err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, s.Form.State())
}

// TableRowDelete deletes a visible row. Without confirm=true it answers 409
// with the question the user has to agree to.
func TableRowDelete(c echo.Context) error {
	s, err := consoleFor(c)
	if err != nil {
		return err
	}
	id, err := rowID(c)
	if err != nil {
		return err
	}
	row, ok := s.Table.VisibleRow(id)
	if !ok {
		return apiError(c, catalog.ErrVideoNotFound)
	}

	confirmed := c.QueryParam("confirm") == "true"
	var prompt string
	err = s.Table.RequestDelete(c.Request().Context(), row, func(p string) bool {
		prompt = p
		return confirmed
	})
	if errors.Is(err, table.ErrNotConfirmed) {
		return c.JSON(http.StatusConflict, errorBody{Error: err.Error(), Prompt: prompt})
	} else if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, tableState(s.Table))
}
