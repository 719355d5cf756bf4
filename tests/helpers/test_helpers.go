package helpers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"postcarditAPI/middleware"
)

// SetupTestDB connects to the test database. Tests that need real storage
// are skipped when no database is configured so the rest of the suite can
// run anywhere.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL or DATABASE_URL not set; skipping database-backed test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	return pool
}

// CleanupTestDB removes rows created by test fixtures and closes the pool.
func CleanupTestDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()
	statements := []string{
		`DELETE FROM postcards WHERE sender_id LIKE 'test-%' OR recipient_id LIKE 'test-%'`,
		`DELETE FROM friendships WHERE requester_id LIKE 'test-%' OR addressee_id LIKE 'test-%'`,
		`DELETE FROM users WHERE user_id LIKE 'test-%'`,
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			t.Logf("Warning: failed to cleanup test data: %v", err)
		}
	}
	pool.Close()
}

// NewTestUserID returns a unique principal id in the test namespace that
// CleanupTestDB knows how to remove.
func NewTestUserID() string {
	return "test-" + uuid.New().String()
}

// InsertTestUser creates a user row directly, bypassing the service layer.
func InsertTestUser(t *testing.T, pool *pgxpool.Pool, userID, username, email string) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
	INSERT INTO users (user_id, username, email, created_at, updated_at)
	VALUES ($1, $2, $3, NOW(), NOW())`, userID, username, email)
	if err != nil {
		t.Fatalf("Failed to insert test user: %v", err)
	}
}

// WithUserID attaches an authenticated principal to a request, the way the
// auth middleware would after verifying a token.
func WithUserID(r *http.Request, userID string) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID)
	return r.WithContext(ctx)
}

// GenerateMockJWT produces a signed token shaped like the identity
// provider's, for tests that exercise header parsing.
func GenerateMockJWT(userID string) (string, error) {
	secretKey := []byte("test-secret-key-for-testing-only")

	claims := jwt.MapClaims{
		"sub": userID,
		"iss": "https://clerk.test",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour * 24).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}
