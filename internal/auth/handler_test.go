package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/atlas-admin/atlas-admin/internal/auth"
	"github.com/atlas-admin/atlas-admin/internal/shared"
	_ "github.com/atlas-admin/atlas-admin/testing"
)

func newAuthRouter(t *testing.T, repo auth.Repository) (http.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	handler := auth.NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), auth.NewService(repo), sessionManager, csrfManager, nil)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess, err := sessionManager.Load(req.Context(), req)
			if err != nil {
				t.Fatalf("load session: %v", err)
			}
			ctx := shared.ContextWithSession(req.Context(), sess)
			next.ServeHTTP(&commitWriter{ResponseWriter: w, ctx: ctx, manager: sessionManager, sess: sess}, req.WithContext(ctx))
		})
	})
	handler.MountRoutes(r)
	return r, sessionManager
}

// commitWriter persists the session before the first byte of the
// response, the way the server middleware does.
type commitWriter struct {
	http.ResponseWriter
	ctx       context.Context
	manager   *shared.SessionManager
	sess      *shared.Session
	committed bool
}

func (w *commitWriter) WriteHeader(status int) {
	if !w.committed {
		w.committed = true
		_ = w.manager.Commit(w.ctx, w.ResponseWriter, nil, w.sess)
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *commitWriter) Write(data []byte) (int, error) {
	if !w.committed {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(data)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	user := &auth.User{
		ID:           1,
		Email:        "user@test.local",
		PasswordHash: hashPassword(t, "correctpass"),
		IsActive:     true,
	}
	router, _ := newAuthRouter(t, &stubRepo{user: user})

	body := `{"email":"user@test.local","password":"wrongpass"}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestLoginRejectsInactiveAccountUniformly(t *testing.T) {
	user := &auth.User{
		ID:           1,
		Email:        "user@test.local",
		PasswordHash: hashPassword(t, "correctpass"),
		IsActive:     false,
	}
	router, _ := newAuthRouter(t, &stubRepo{user: user})

	body := `{"email":"user@test.local","password":"correctpass"}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
	// The body must not reveal which branch rejected the login.
	if strings.Contains(res.Body.String(), "inactive") {
		t.Fatalf("response leaked rejection reason: %s", res.Body.String())
	}
}

func TestLoginValidatesBody(t *testing.T) {
	router, _ := newAuthRouter(t, &stubRepo{})

	body := `{"email":"not-an-email","password":""}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestLoginSuccessIssuesCSRFToken(t *testing.T) {
	user := &auth.User{
		ID:           42,
		Email:        "user@test.local",
		Name:         "Test User",
		PasswordHash: hashPassword(t, "correctpass"),
		IsActive:     true,
	}
	router, sessionManager := newAuthRouter(t, &stubRepo{user: user})

	body := `{"email":"user@test.local","password":"correctpass"}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var payload struct {
		ID        int64  `json:"id"`
		Email     string `json:"email"`
		CSRFToken string `json:"csrf_token"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.ID != 42 || payload.Email != "user@test.local" {
		t.Fatalf("unexpected principal in response: %+v", payload)
	}
	if payload.CSRFToken == "" {
		t.Fatalf("expected csrf token in response")
	}

	var sessionCookie *http.Cookie
	for _, cookie := range res.Result().Cookies() {
		if cookie.Name == sessionManager.CookieName() {
			sessionCookie = cookie
		}
	}
	if sessionCookie == nil || sessionCookie.Value == "" {
		t.Fatalf("expected session cookie to be set")
	}

	// The committed session must carry the principal.
	loadReq := httptest.NewRequest(http.MethodGet, "/", nil)
	loadReq.AddCookie(sessionCookie)
	sess, err := sessionManager.Load(context.Background(), loadReq)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if sess.User() != "42" {
		t.Fatalf("expected principal 42 in session, got %q", sess.User())
	}
}
