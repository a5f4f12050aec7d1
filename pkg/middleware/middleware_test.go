package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"mentor-booking/internal/data/entity"
	"mentor-booking/pkg/utils"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubSessions struct {
	byToken map[string]*entity.Session
	err     error
}

func (s stubSessions) FindValidSession(_ context.Context, token string) (*entity.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byToken[token], nil
}

// echoUser writes the caller id and role placed in the context by AuthSession.
func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := utils.GetUserIDFromContext(r.Context())
		role, _ := utils.GetRoleFromContext(r.Context())
		utils.ResponseSuccess(w, "ok", map[string]any{"id": id, "role": role})
	})
}

func TestAuthSession(t *testing.T) {
	sessions := stubSessions{byToken: map[string]*entity.Session{
		"good": {UserID: 11, Role: entity.RoleMentee},
	}}

	tests := []struct {
		name   string
		header string
		finder SessionFinder
		want   int
	}{
		{"missing header", "", sessions, http.StatusUnauthorized},
		{"not bearer", "Basic abc", sessions, http.StatusUnauthorized},
		{"empty bearer", "Bearer   ", sessions, http.StatusUnauthorized},
		{"unknown token", "Bearer nope", sessions, http.StatusUnauthorized},
		{"store failure", "Bearer good", stubSessions{err: errors.New("db down")}, http.StatusInternalServerError},
		{"valid", "Bearer good", sessions, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			AuthSession(tt.finder, zap.NewNop())(echoUser()).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAuthSessionPutsUserInContext(t *testing.T) {
	sessions := stubSessions{byToken: map[string]*entity.Session{
		"good": {UserID: 5, Role: entity.RoleMentor},
	}}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()

	AuthSession(sessions, zap.NewNop())(echoUser()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":true,"message":"ok","data":{"id":5,"role":"mentor"}}`, rec.Body.String())
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name string
		ctx  func(context.Context) context.Context
		want int
	}{
		{"no user", func(ctx context.Context) context.Context { return ctx }, http.StatusUnauthorized},
		{"wrong role", func(ctx context.Context) context.Context {
			return utils.SetUserContext(ctx, 11, string(entity.RoleMentee))
		}, http.StatusForbidden},
		{"allowed role", func(ctx context.Context) context.Context {
			return utils.SetUserContext(ctx, 5, string(entity.RoleMentor))
		}, http.StatusOK},
		{"second allowed role", func(ctx context.Context) context.Context {
			return utils.SetUserContext(ctx, 1, string(entity.RoleAdmin))
		}, http.StatusOK},
	}

	guard := RequireRole(zap.NewNop(), entity.RoleMentor, entity.RoleAdmin)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(tt.ctx(req.Context()))
			rec := httptest.NewRecorder()

			guard(echoUser()).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRecoverTurnsPanicInto500(t *testing.T) {
	boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	rec := httptest.NewRecorder()

	Recover(zap.NewNop())(boom).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := CORS([]string{"https://app.example.com"})(next)

	t.Run("preflight from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/pay/checkout-session", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Authorization")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.MethodPost, rec.Header().Get("Access-Control-Allow-Methods"))
	})

	t.Run("preflight from unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/pay/checkout-session", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("plain OPTIONS reaches the router", func(t *testing.T) {
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/slots/plans/9", nil))

		assert.Equal(t, http.StatusTeapot, rec.Code)
	})

	t.Run("actual request gets origin header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/slots/plans/9", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestLoggerKeepsStatus(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	rec := httptest.NewRecorder()

	Logger(zap.NewNop())(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
}
