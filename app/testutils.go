package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sushihentaime/bloglist/internal/blogservice"
	"github.com/sushihentaime/bloglist/internal/common"
	"github.com/sushihentaime/bloglist/internal/userservice"
)

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)

	t.Cleanup(ts.Close)

	return &testServer{ts}
}

func testConfig() *Config {
	return &Config{
		Environment:       "test",
		Version:           "test",
		JWTSecret:         "test-secret",
		JWTTTL:            time.Hour,
		RateLimitRPS:      100,
		RateLimitBurst:    100,
		RateLimitEnabled:  true,
		AnonymousLikes:    true,
		AnonymousComments: true,
	}
}

// newTestApplication runs against a fresh postgres container without a broker.
func newTestApplication(t *testing.T, cfg *Config) (*application, *sql.DB) {
	db := common.TestDB("file://../migrations", t)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	app := &application{
		config:      cfg,
		logger:      logger,
		userService: userservice.NewUserService(db, userservice.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)),
		blogService: blogservice.NewBlogService(db, common.NewCache(5*time.Minute, 10*time.Minute), nil, cfg.policy(), logger),
	}

	return app, db
}

func readResponse(t *testing.T, res *http.Response) (int, envelope) {
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	if len(body) == 0 {
		return res.StatusCode, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatal(err)
	}

	return res.StatusCode, env
}

func (ts *testServer) do(t *testing.T, method, path, token string, payload any) (int, envelope) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		js, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(js)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}

// login creates a user and returns the token and id of that user.
func (ts *testServer) login(t *testing.T, username string) (string, string) {
	t.Helper()

	status, _ := ts.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"username": username,
		"name":     "Test " + username,
		"password": "sekret",
	})
	if status != http.StatusCreated {
		t.Fatalf("could not create user %s: status %d", username, status)
	}

	status, body := ts.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"username": username,
		"password": "sekret",
	})
	if status != http.StatusOK {
		t.Fatalf("could not log in %s: status %d", username, status)
	}

	return body["token"].(string), body["id"].(string)
}
