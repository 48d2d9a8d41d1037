package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/api/healthcheck", app.healthCheckHandler)

	// users
	router.HandlerFunc(http.MethodPost, "/api/users", app.createUserHandler)
	router.HandlerFunc(http.MethodGet, "/api/users", app.listUsersHandler)
	router.HandlerFunc(http.MethodGet, "/api/users/:id", app.getUserHandler)
	router.Handler(http.MethodPost, "/api/login", app.rateLimit(http.HandlerFunc(app.loginHandler)))

	// blogs
	router.HandlerFunc(http.MethodGet, "/api/blogs", app.listBlogsHandler)
	router.HandlerFunc(http.MethodPost, "/api/blogs", app.requireAuthUser(app.createBlogHandler))
	router.HandlerFunc(http.MethodGet, "/api/blogs/:id", app.getBlogHandler)
	router.HandlerFunc(http.MethodPut, "/api/blogs/:id", app.replaceBlogHandler)
	router.HandlerFunc(http.MethodDelete, "/api/blogs/:id", app.requireAuthUser(app.deleteBlogHandler))
	router.HandlerFunc(http.MethodPut, "/api/blogs/:id/like", app.likeBlogHandler)
	router.HandlerFunc(http.MethodPost, "/api/blogs/:id/comments", app.commentBlogHandler)
	router.HandlerFunc(http.MethodGet, "/api/stats", app.statsHandler)

	if app.config.Environment == "test" {
		router.HandlerFunc(http.MethodPost, "/api/testing/reset", app.resetHandler)
	}

	return app.recoverPanic(app.enableCORS(app.logRequest(app.authenticate(router))))
}
