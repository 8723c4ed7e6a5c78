package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/pkg/helpers"
)

type stubAuth struct {
	token string
	err   error
}

func (s stubAuth) Authenticate(_ context.Context, token string) (*entity.Account, error) {
	if s.err != nil {
		return nil, s.err
	}
	if token != s.token {
		return nil, application.ErrSessionInvalid
	}
	return &entity.Account{ID: "acc-1", Email: "a@example.com"}, nil
}

func newEngine(a Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/me", Auth(a, helpers.NewDiscardLogger()), func(c *gin.Context) {
		acc, ok := AccountFrom(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.String(http.StatusOK, acc.ID)
	})
	return r
}

func TestAuth(t *testing.T) {
	r := newEngine(stubAuth{token: "good"})

	cases := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Basic good", http.StatusUnauthorized},
		{"Bearer ", http.StatusUnauthorized},
		{"Bearer bad", http.StatusUnauthorized},
		{"Bearer good", http.StatusOK},
		{"bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.want, w.Code, tc.header)
		if tc.want == http.StatusOK {
			assert.Equal(t, "acc-1", w.Body.String())
		}
	}
}

func TestAuth_BackendFailureIs500(t *testing.T) {
	r := newEngine(stubAuth{err: errors.New("redis down")})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer x")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequestID(t *testing.T) {
	r := newEngine(stubAuth{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(RequestIDHeader, "6f1c2a34-8b7d-4e0f-9a21-3c5d7e9f1b2a")
	r.ServeHTTP(w, req)
	assert.Equal(t, "6f1c2a34-8b7d-4e0f-9a21-3c5d7e9f1b2a", w.Header().Get(RequestIDHeader))
}

func TestRealIPAndAccessLog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.InfoLevel)

	r := gin.New()
	r.Use(RealIP(), AccessLog(logger))
	r.GET("/ip", func(c *gin.Context) { c.String(http.StatusOK, ClientIP(c)) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	r.ServeHTTP(w, req)

	assert.Equal(t, "203.0.113.7", w.Body.String())
	require.Len(t, hook.AllEntries(), 1)
	e := hook.LastEntry()
	assert.Equal(t, 200, e.Data["status"])
	assert.Equal(t, "/ip", e.Data["path"])
	assert.Equal(t, "203.0.113.7", e.Data["client_ip"])
}
