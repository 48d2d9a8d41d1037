package main

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheckHandler(t *testing.T) {
	app := &application{config: testConfig(), logger: slog.New(slog.NewJSONHandler(io.Discard, nil))}
	ts := newTestServer(t, app.routes())

	status, body := ts.do(t, http.MethodGet, "/api/healthcheck", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "available", body["status"])
}

func TestUserHandlers(t *testing.T) {
	app, _ := newTestApplication(t, testConfig())
	ts := newTestServer(t, app.routes())

	testCases := []struct {
		name       string
		payload    any
		wantStatus int
		wantBody   envelope
	}{
		{
			name:       "valid request",
			payload:    map[string]string{"username": "mluukkai", "name": "Matti Luukkainen", "password": "salainen"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "duplicate username",
			payload:    map[string]string{"username": "mluukkai", "password": "salainen"},
			wantStatus: http.StatusConflict,
			wantBody:   envelope{"error": map[string]any{"username": "this username is already taken"}},
		},
		{
			name:       "short password",
			payload:    map[string]string{"username": "hellas", "password": "ab"},
			wantStatus: http.StatusBadRequest,
			wantBody:   envelope{"error": map[string]any{"password": "must be between 3 and 72 characters long"}},
		},
		{
			name:       "unknown field",
			payload:    map[string]string{"username": "hellas", "password": "salainen", "role": "admin"},
			wantStatus: http.StatusBadRequest,
			wantBody:   envelope{"error": `request body contains unknown field "role"`},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := ts.do(t, http.MethodPost, "/api/users", "", tc.payload)
			assert.Equal(t, tc.wantStatus, status)
			if tc.wantBody != nil {
				assert.Equal(t, tc.wantBody, body)
			}
		})
	}

	t.Run("login", func(t *testing.T) {
		status, body := ts.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "mluukkai", "password": "salainen"})
		assert.Equal(t, http.StatusOK, status)
		assert.NotEmpty(t, body["token"])
		assert.Equal(t, "Matti Luukkainen", body["name"])

		status, _ = ts.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "mluukkai", "password": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("list and get", func(t *testing.T) {
		status, body := ts.do(t, http.MethodGet, "/api/users", "", nil)
		require.Equal(t, http.StatusOK, status)
		users := body["users"].([]any)
		require.Len(t, users, 1)

		id := users[0].(map[string]any)["id"].(string)
		status, body = ts.do(t, http.MethodGet, "/api/users/"+id, "", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "mluukkai", body["user"].(map[string]any)["username"])

		status, _ = ts.do(t, http.MethodGet, "/api/users/"+uuid.NewString(), "", nil)
		assert.Equal(t, http.StatusNotFound, status)

		status, _ = ts.do(t, http.MethodGet, "/api/users/not-an-id", "", nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestBlogHandlers(t *testing.T) {
	app, _ := newTestApplication(t, testConfig())
	ts := newTestServer(t, app.routes())

	token, userID := ts.login(t, "author")
	otherToken, otherID := ts.login(t, "other")

	var blogID string

	t.Run("create requires a token", func(t *testing.T) {
		status, _ := ts.do(t, http.MethodPost, "/api/blogs", "", map[string]any{"title": "Go", "url": "https://go.dev"})
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("create ignores a spoofed owner", func(t *testing.T) {
		status, body := ts.do(t, http.MethodPost, "/api/blogs", token, map[string]any{
			"title":  "Go",
			"url":    "https://go.dev",
			"userId": otherID,
		})
		require.Equal(t, http.StatusCreated, status)

		blog := body["blog"].(map[string]any)
		assert.Equal(t, float64(0), blog["likes"])
		assert.Equal(t, []any{}, blog["comments"])
		assert.Equal(t, userID, blog["user"].(map[string]any)["id"])
		blogID = blog["id"].(string)
	})

	t.Run("create validates fields", func(t *testing.T) {
		status, body := ts.do(t, http.MethodPost, "/api/blogs", token, map[string]any{"title": "Go"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, envelope{"error": map[string]any{"url": "must be provided"}}, body)
	})

	t.Run("owned blogs appear on the user", func(t *testing.T) {
		_, body := ts.do(t, http.MethodGet, "/api/users/"+userID, "", nil)
		blogs := body["user"].(map[string]any)["blogs"].([]any)
		require.Len(t, blogs, 1)
		assert.Equal(t, blogID, blogs[0].(map[string]any)["id"])
	})

	t.Run("anonymous like", func(t *testing.T) {
		status, body := ts.do(t, http.MethodPut, "/api/blogs/"+blogID+"/like", "", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(1), body["blog"].(map[string]any)["likes"])
	})

	t.Run("comment", func(t *testing.T) {
		status, body := ts.do(t, http.MethodPost, "/api/blogs/"+blogID+"/comments", "", map[string]string{"comment": "great"})
		assert.Equal(t, http.StatusCreated, status)
		assert.Equal(t, []any{"great"}, body["blog"].(map[string]any)["comments"])

		status, _ = ts.do(t, http.MethodPost, "/api/blogs/"+blogID+"/comments", "", map[string]string{"comment": "   "})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("replace with echoed blog", func(t *testing.T) {
		_, body := ts.do(t, http.MethodGet, "/api/blogs/"+blogID, "", nil)
		blog := body["blog"].(map[string]any)
		blog["likes"] = 41

		status, body := ts.do(t, http.MethodPut, "/api/blogs/"+blogID, otherToken, blog)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(41), body["blog"].(map[string]any)["likes"])
		assert.Equal(t, []any{"great"}, body["blog"].(map[string]any)["comments"])
	})

	t.Run("replace cannot move the blog", func(t *testing.T) {
		status, _ := ts.do(t, http.MethodPut, "/api/blogs/"+blogID, token, map[string]any{"user": otherID})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("stats", func(t *testing.T) {
		status, body := ts.do(t, http.MethodGet, "/api/stats", "", nil)
		require.Equal(t, http.StatusOK, status)

		stats := body["stats"].(map[string]any)
		assert.Equal(t, float64(41), stats["total_likes"])
		assert.Equal(t, map[string]any{"author": "author", "count": float64(1)}, stats["most_blogs"])
		assert.Equal(t, map[string]any{"author": "author", "total_likes": float64(41)}, stats["most_likes"])
	})

	t.Run("delete", func(t *testing.T) {
		status, _ := ts.do(t, http.MethodDelete, "/api/blogs/"+blogID, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status)

		status, _ = ts.do(t, http.MethodDelete, "/api/blogs/"+blogID, otherToken, nil)
		assert.Equal(t, http.StatusForbidden, status)

		status, _ = ts.do(t, http.MethodDelete, "/api/blogs/"+blogID, token, nil)
		assert.Equal(t, http.StatusNoContent, status)

		status, _ = ts.do(t, http.MethodGet, "/api/blogs/"+blogID, "", nil)
		assert.Equal(t, http.StatusNotFound, status)

		status, _ = ts.do(t, http.MethodDelete, "/api/blogs/"+blogID, token, nil)
		assert.Equal(t, http.StatusNoContent, status)
	})

	t.Run("malformed id", func(t *testing.T) {
		status, body := ts.do(t, http.MethodGet, "/api/blogs/1234", "", nil)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, envelope{"error": "malformatted id"}, body)
	})

	t.Run("reset", func(t *testing.T) {
		status, _ := ts.do(t, http.MethodPost, "/api/testing/reset", "", nil)
		assert.Equal(t, http.StatusNoContent, status)

		_, body := ts.do(t, http.MethodGet, "/api/users", "", nil)
		assert.Empty(t, body["users"])
	})
}

func TestPolicyFlags(t *testing.T) {
	cfg := testConfig()
	cfg.AnonymousLikes = false
	cfg.ReplaceRequiresOwner = true
	cfg.Environment = "production"

	app, _ := newTestApplication(t, cfg)
	ts := newTestServer(t, app.routes())

	token, _ := ts.login(t, "author")
	otherToken, _ := ts.login(t, "other")

	_, body := ts.do(t, http.MethodPost, "/api/blogs", token, map[string]any{"title": "Go", "url": "https://go.dev"})
	blogID := body["blog"].(map[string]any)["id"].(string)

	status, _ := ts.do(t, http.MethodPut, "/api/blogs/"+blogID+"/like", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = ts.do(t, http.MethodPut, "/api/blogs/"+blogID+"/like", otherToken, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = ts.do(t, http.MethodPut, "/api/blogs/"+blogID, otherToken, map[string]any{"likes": 0})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = ts.do(t, http.MethodPut, "/api/blogs/"+blogID, token, map[string]any{"likes": 0})
	assert.Equal(t, http.StatusOK, status)

	// the reset route only exists in the test environment
	status, _ = ts.do(t, http.MethodPost, "/api/testing/reset", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}
