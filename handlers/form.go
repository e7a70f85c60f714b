package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"catalog-site/form"
)

func FormGet(c echo.Context) error {
	s, err := consoleFor(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.Form.State())
}

func FormAddPost(c echo.Context) error {
	s, err := consoleFor(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.Form.BeginAdd())
}

func FormCancelPost(c echo.Context) error {
	s, err := consoleFor(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.Form.Cancel())
}

func FormSubmitPost(c echo.Context) error {
	s, err := consoleFor(c)
	if err != nil {
		return err
	}
	var fields form.Fields
	if err := c.Bind(&fields); err != nil {
		return err
	}
	if err := s.Form.Submit(c.Request().Context(), fields); err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, s.Form.State())
}

func CategoriesGet(c echo.Context) error {
	return c.JSON(http.StatusOK, form.CategoryOptions(client.Store()))
}

func AuthorsGet(c echo.Context) error {
	return c.JSON(http.StatusOK, form.AuthorOptions(client.Store()))
}
