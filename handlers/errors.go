package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"catalog-site/backend"
	"catalog-site/catalog"
	"catalog-site/database"
	"catalog-site/form"
	"catalog-site/table"
	"catalog-site/writelog"
)

type errorBody struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
	Prompt  string   `json:"prompt,omitempty"`
}

// apiError maps err to a status code and writes it as JSON. Failed backend
// writes are also recorded in the write failure log.
func apiError(c echo.Context, err error) error {
	var verr *form.ValidationError
	var ferr *backend.FetchError
	var werr *backend.WriteError

	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, errorBody{Error: err.Error(), Missing: verr.Missing})
	case errors.Is(err, table.ErrUnknownColumn):
		return c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, catalog.ErrVideoNotFound):
		return c.JSON(http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, form.ErrNotEditing):
		return c.JSON(http.StatusConflict, errorBody{Error: err.Error()})
	case errors.As(err, &ferr):
		return c.JSON(http.StatusBadGateway, errorBody{Error: err.Error()})
	case errors.As(err, &werr):
		var userID uint
		if user, uerr := GetUser(c); uerr == nil {
			userID = user.Id
		}
		requestID := c.Response().Header().Get(echo.HeaderXRequestID)
		if _, rerr := writelog.Record(database.Get(), err, requestID, userID); rerr != nil {
			log.WithError(rerr).Error("couldn't record write failure")
		}
		return c.JSON(http.StatusBadGateway, errorBody{Error: err.Error()})
	}

	log.WithError(err).Error("request failed")
	return c.JSON(http.StatusInternalServerError, errorBody{Error: err.Error()})
}
