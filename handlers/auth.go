package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"catalog-site/database"
	"catalog-site/users"
)

func LoginPost(c echo.Context) error {
	username := c.FormValue("username")
	password := c.FormValue("password")

	user, err := users.Authenticate(database.Get(), username, password)
	if errors.Is(err, users.ErrInvalidCredentials) {
		return c.JSON(http.StatusUnauthorized, errorBody{Error: "Invalid credentials"})
	} else if err != nil {
		return apiError(c, err)
	}

	session, err := store.Get(c.Request(), "session")
	if err != nil {
		return c.String(http.StatusInternalServerError, "Unable to retrieve session")
	}
	session.Values["user_id"] = user.ID
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return c.String(http.StatusInternalServerError, "Unable to save session")
	}

	log.Infof("user %s signed in", user.Username)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":       user.ID,
		"username": user.Username,
	})
}

// LogoutPost clears the cookie and drops the user's table and form.
func LogoutPost(c echo.Context) error {
	if user, err := GetUser(c); err == nil {
		registry.Remove(user.Id)
	}
	session, _ := store.Get(c.Request(), "session")
	delete(session.Values, "user_id")
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		log.WithError(err).Error("couldn't save session")
	}
	return c.NoContent(http.StatusNoContent)
}
