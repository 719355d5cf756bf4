package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/friends", nil)
	rr := httptest.NewRecorder()

	AuthMiddleware(next).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, called, "handler must not run without an identity")
	assert.Contains(t, rr.Body.String(), "Authorization header required")
}

func TestAuthMiddlewareRejectsNonBearerHeader(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/friends", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rr := httptest.NewRecorder()

	AuthMiddleware(next).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGetUserID(t *testing.T) {
	_, ok := GetUserID(context.Background())
	assert.False(t, ok)

	ctx := context.WithValue(context.Background(), UserIDKey, "user-123")
	userID, ok := GetUserID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "user-123", userID)

	ctx = context.WithValue(context.Background(), UserIDKey, "")
	_, ok = GetUserID(ctx)
	assert.False(t, ok)
}
