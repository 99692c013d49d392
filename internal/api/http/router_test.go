package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/desh1993/fitness-mvp/internal/api/http/handlers"
	"github.com/desh1993/fitness-mvp/internal/auth"
	"github.com/desh1993/fitness-mvp/internal/config"
	"github.com/desh1993/fitness-mvp/internal/domain"
	"github.com/desh1993/fitness-mvp/internal/events"
	"github.com/desh1993/fitness-mvp/internal/observability"
	"github.com/desh1993/fitness-mvp/internal/persistence"
	"github.com/desh1993/fitness-mvp/internal/repository"
	"github.com/desh1993/fitness-mvp/internal/service"
)

const testCookie = "fithub_session"

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics("fithub_test")

	cfg := config.Config{
		App:     config.AppConfig{Name: "fithub-members", Version: "test"},
		Auth:    config.AuthConfig{JWTSecret: "secret", SessionTTLMinutes: 60, SessionCookie: testCookie, LoginMaxAttempts: 5},
		Members: config.MembersConfig{DefaultPerPage: 10, MaxPerPage: 100},
	}

	users := repository.NewMemoryUserRepository()
	hash, err := auth.HashPassword("password", 4)
	require.NoError(t, err)
	verified := time.Now()
	require.NoError(t, users.Create(context.Background(), &domain.User{
		Name: "Admin User", Email: "admin@fithub.com", PasswordHash: hash, EmailVerifiedAt: &verified,
	}))
	require.NoError(t, users.Create(context.Background(), &domain.User{
		Name: "New Hire", Email: "new@fithub.com", PasswordHash: hash,
	}))

	sessions := auth.NewMemorySessionStore()
	authService := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo: users,
		Sessions: sessions,
		Throttle: auth.NewLoginThrottle(auth.NewMemoryAttemptCounter(), cfg.Auth.LoginMaxAttempts, time.Minute),
		Metrics:  metrics,
		Logger:   logger,
	})
	dispatcher := events.NewInMemoryDispatcher()
	service.NewActivityService(dispatcher, logger, metrics).RegisterHandlers()
	memberService := service.NewMemberService(cfg.Members, service.MemberDependencies{
		MemberRepo: repository.NewMemoryMemberRepository(),
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, MiddlewareConfig{Timeout: 5 * time.Second})
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, &persistence.Postgres{}, nil),
		Auth:           handlers.NewAuthHandler(authService, cfg.Auth),
		Members:        handlers.NewMembersHandler(memberService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), sessions, users, testCookie),
		Metrics:        metrics.Handler(),
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func login(t *testing.T, app *fiber.App) string {
	t.Helper()
	return loginAs(t, app, "admin@fithub.com")
}

func loginAs(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	status, body := doJSON(t, app, nethttp.MethodPost, "/api/login", "", map[string]any{
		"email": email, "password": "password",
	})
	require.Equal(t, nethttp.StatusOK, status)
	return body["auth"].(map[string]any)["token"].(string)
}

func TestRoutes_RequireAuthentication(t *testing.T) {
	app := newTestApp(t)

	status, body := doJSON(t, app, nethttp.MethodGet, "/members", "", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", body["error"].(map[string]any)["code"])

	status, _ = doJSON(t, app, nethttp.MethodGet, "/health/live", "", nil)
	assert.Equal(t, nethttp.StatusOK, status)
}

func TestMembers_RequireVerifiedEmail(t *testing.T) {
	app := newTestApp(t)
	token := loginAs(t, app, "new@fithub.com")

	status, _ := doJSON(t, app, nethttp.MethodGet, "/api/me", token, nil)
	assert.Equal(t, nethttp.StatusOK, status)

	status, body := doJSON(t, app, nethttp.MethodGet, "/members", token, nil)
	assert.Equal(t, nethttp.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body["error"].(map[string]any)["code"])
}

func TestLogin_SetsCookieAndRejectsBadCredentials(t *testing.T) {
	app := newTestApp(t)

	raw, _ := json.Marshal(map[string]any{"email": "admin@fithub.com", "password": "password"})
	req := httptest.NewRequest(nethttp.MethodPost, "/api/login", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)

	var cookie *nethttp.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == testCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	meReq := httptest.NewRequest(nethttp.MethodGet, "/api/me", nil)
	meReq.AddCookie(&nethttp.Cookie{Name: testCookie, Value: cookie.Value})
	meResp, err := app.Test(meReq, -1)
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusOK, meResp.StatusCode)

	status, body := doJSON(t, app, nethttp.MethodPost, "/api/login", "", map[string]any{
		"email": "admin@fithub.com", "password": "wrong",
	})
	assert.Equal(t, nethttp.StatusUnprocessableEntity, status)
	details := body["error"].(map[string]any)["details"].(map[string]any)
	assert.Equal(t, []any{"The provided credentials do not match our records."}, details["fields"].(map[string]any)["email"])
}

func TestLogout_RevokesToken(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app)

	status, body := doJSON(t, app, nethttp.MethodGet, "/api/user", token, nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, true, body["success"])

	status, _ = doJSON(t, app, nethttp.MethodPost, "/api/logout", token, nil)
	require.Equal(t, nethttp.StatusOK, status)

	status, _ = doJSON(t, app, nethttp.MethodGet, "/api/me", token, nil)
	assert.Equal(t, nethttp.StatusUnauthorized, status)
}

func TestMembers_CRUDFlow(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app)

	status, body := doJSON(t, app, nethttp.MethodPost, "/members", token, map[string]any{
		"name": "Aisyah", "email": "aisyah@fithub.my", "phone": "+60123456789",
		"date_of_birth": "1995-06-01", "membership_type": "premium", "status": "active",
	})
	require.Equal(t, nethttp.StatusCreated, status)
	assert.Equal(t, "Member created successfully.", body["message"])
	created := body["data"].(map[string]any)
	assert.Equal(t, "1995-06-01", created["date_of_birth"])
	assert.Nil(t, created["joined_at"])
	id := int64(created["id"].(float64))

	status, body = doJSON(t, app, nethttp.MethodPost, "/members", token, map[string]any{
		"name": "Copy", "email": "aisyah@fithub.my",
	})
	require.Equal(t, nethttp.StatusUnprocessableEntity, status)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_FAILED", errBody["code"])
	assert.Equal(t, []any{"The email has already been taken."},
		errBody["details"].(map[string]any)["fields"].(map[string]any)["email"])

	path := "/members/" + jsonNumber(id)
	status, body = doJSON(t, app, nethttp.MethodPut, path, token, map[string]any{
		"name": "Aisyah R", "email": "aisyah@fithub.my", "membership_type": "student", "status": "inactive",
	})
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "Member updated successfully.", body["message"])
	assert.Equal(t, "student", body["data"].(map[string]any)["membership_type"])
	assert.Nil(t, body["data"].(map[string]any)["phone"])

	status, body = doJSON(t, app, nethttp.MethodGet, "/members?status=inactive&search=AISYAH", token, nil)
	require.Equal(t, nethttp.StatusOK, status)
	page := body["members"].(map[string]any)
	assert.Equal(t, float64(1), page["total"])
	assert.Equal(t, float64(1), page["from"])
	assert.Equal(t, map[string]any{"search": "AISYAH", "status": "inactive"}, body["filters"])

	status, body = doJSON(t, app, nethttp.MethodGet, "/members?page=5", token, nil)
	require.Equal(t, nethttp.StatusOK, status)
	page = body["members"].(map[string]any)
	assert.Nil(t, page["from"])
	assert.Nil(t, page["to"])
	assert.Equal(t, float64(1), page["last_page"])

	status, body = doJSON(t, app, nethttp.MethodDelete, path, token, nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "Member deleted successfully.", body["message"])

	status, body = doJSON(t, app, nethttp.MethodDelete, path, token, nil)
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["error"].(map[string]any)["code"])

	status, _ = doJSON(t, app, nethttp.MethodGet, "/members/abc", token, nil)
	assert.Equal(t, nethttp.StatusBadRequest, status)
}

func TestMembers_Check(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app)

	status, body := doJSON(t, app, nethttp.MethodPost, "/members/check", token, map[string]any{"field": "bogus", "value": "x"})
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, "BAD_REQUEST", body["error"].(map[string]any)["code"])

	status, body = doJSON(t, app, nethttp.MethodPost, "/members/check", token, map[string]any{"field": "phone", "value": "123456789"})
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, map[string]any{
		"valid": false, "exists": false, "message": "Phone must be in Malaysian format: +60XXXXXXXXX",
	}, body)

	status, body = doJSON(t, app, nethttp.MethodPost, "/members/check", token, map[string]any{"field": "phone", "value": "+60123456789"})
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, map[string]any{"valid": true, "exists": false}, body)

	status, body = doJSON(t, app, nethttp.MethodPost, "/members/check", token, map[string]any{"field": "email", "value": "a@b.c", "exclude_id": 3})
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, map[string]any{"exists": false}, body)

	status, body = doJSON(t, app, nethttp.MethodPost, "/members/check", token, map[string]any{"field": "email", "value": "a@b.c", "exclude_id": "3"})
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, map[string]any{"exists": false}, body)
}

func TestUnknownRouteKeepsStatus(t *testing.T) {
	app := newTestApp(t)
	status, body := doJSON(t, app, nethttp.MethodGet, "/nope", "", nil)
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["error"].(map[string]any)["code"])
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest(nethttp.MethodGet, "/metrics", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
}

func jsonNumber(id int64) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}
