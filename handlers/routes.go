package handlers

import "github.com/labstack/echo/v4"

func Register(e *echo.Echo) {
	e.POST("/login", LoginPost)
	e.POST("/logout", LogoutPost)
	e.GET("/status", StatusGet, AuthMiddleware)

	api := e.Group("/api")
	api.Use(AuthMiddleware)
	api.GET("/table", TableGet)
	api.POST("/table/search", TableSearchPost)
	api.POST("/table/sort/:column", TableSortPost)
	api.POST("/table/rows/:id/edit", TableEditPost)
	api.DELETE("/table/rows/:id", TableRowDelete)

	api.GET("/form", FormGet)
	api.POST("/form/add", FormAddPost)
	api.POST("/form/cancel", FormCancelPost)
	api.POST("/form/submit", FormSubmitPost)

	api.GET("/categories", CategoriesGet)
	api.GET("/authors", AuthorsGet)
	api.POST("/refresh", RefreshPost)
	api.GET("/failures", FailuresGet)
	api.GET("/events", EventsGet)
}
