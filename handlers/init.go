package handlers

import (
	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"

	"catalog-site/backend"
	"catalog-site/config"
	"catalog-site/console"
	"catalog-site/refresh"
)

var log = logrus.NewEntry(logrus.StandardLogger())
var store *sessions.CookieStore

var client *backend.Client
var registry *console.Registry
var refresher *refresh.Refresher

func Init(logger *logrus.Logger, c *backend.Client, reg *console.Registry, r *refresh.Refresher) error {
	log = logger.WithFields(logrus.Fields{
		"component": "handlers",
	})

	// create the cookie store
	key, err := config.GetSessionAuthKey()
	if err != nil {
		return err
	}
	store = sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 60 * 60, // seconds
		HttpOnly: true,
		Secure:   config.GetSecure(),
	}

	client = c
	registry = reg
	refresher = r
	return nil
}
