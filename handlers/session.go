package handlers

import (
	"errors"

	"github.com/labstack/echo/v4"

	"catalog-site/console"
)

type User struct {
	Id uint
}

func GetUser(c echo.Context) (User, error) {
	session, err := store.Get(c.Request(), "session")
	if err != nil {
		return User{}, errors.New("couldn't retrieve session from store")
	}
	val, ok := session.Values["user_id"]
	if !ok {
		return User{}, errors.New("user_id not in session")
	}
	id, ok := val.(uint)
	if !ok {
		return User{}, errors.New("user_id has unexpected type")
	}
	return User{Id: id}, nil
}

// consoleFor returns the table and form of the signed-in user.
func consoleFor(c echo.Context) (*console.Session, error) {
	user, err := GetUser(c)
	if err != nil {
		return nil, err
	}
	return registry.Get(user.Id), nil
}
