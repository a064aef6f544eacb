package app_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/atlas-admin/atlas-admin/internal/app"
	"github.com/atlas-admin/atlas-admin/internal/shared"
	_ "github.com/atlas-admin/atlas-admin/testing"
)

func newStackRouter(logger *slog.Logger, sessions *shared.SessionManager) http.Handler {
	r := chi.NewRouter()
	for _, mw := range app.MiddlewareStack(app.MiddlewareConfig{
		Logger:         logger,
		SessionManager: sessions,
		CSRFManager:    shared.NewCSRFManager("csrfsecret"),
	}) {
		r.Use(mw)
	}
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func TestSessionCommitFailureIsLogged(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	router := newStackRouter(logger, sessions)

	// With Redis gone the commit on first write must fail loudly, not
	// silently drop the session.
	mr.Close()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if !strings.Contains(buf.String(), "session commit failed") {
		t.Fatalf("expected commit failure warning in log, got: %s", buf.String())
	}
}

func TestSessionCookieIssuedOnSuccess(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	router := newStackRouter(logger, sessions)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	found := false
	for _, cookie := range res.Result().Cookies() {
		if cookie.Name == sessions.CookieName() && cookie.Value != "" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected session cookie on first response")
	}
}
