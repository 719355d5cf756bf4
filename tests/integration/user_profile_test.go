package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postcarditAPI/handlers"
	"postcarditAPI/internal/user"
	"postcarditAPI/services"
	"postcarditAPI/tests/helpers"
)

func TestUserProfileFlow(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	userHandler := handlers.NewUserHandler(userService)

	suffix := uuid.New().String()[:8]
	userID := helpers.NewTestUserID()
	username := "maja_" + suffix
	email := username + "@example.com"

	createBody := fmt.Sprintf(`{"username":%q,"email":%q,"fullName":"Maja Novak","bio":"hello"}`, username, email)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(createBody))
	req = helpers.WithUserID(req, userID)
	rr := httptest.NewRecorder()
	userHandler.CreateProfile(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, "body=%s", rr.Body.String())

	// A second create for the same principal conflicts.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(createBody))
	req = helpers.WithUserID(req, userID)
	rr = httptest.NewRecorder()
	userHandler.CreateProfile(rr, req)
	assert.Equal(t, http.StatusConflict, rr.Code)

	// So does another principal claiming the same username.
	otherID := helpers.NewTestUserID()
	otherBody := fmt.Sprintf(`{"username":%q,"email":"other_%s@example.com"}`, username, suffix)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(otherBody))
	req = helpers.WithUserID(req, otherID)
	rr = httptest.NewRecorder()
	userHandler.CreateProfile(rr, req)
	assert.Equal(t, http.StatusConflict, rr.Code)

	// Own profile exposes email; a foreign view does not.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req = helpers.WithUserID(req, userID)
	rr = httptest.NewRecorder()
	userHandler.GetProfile(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var self user.Profile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &self))
	assert.Equal(t, email, self.Email)
	assert.NotNil(t, self.UpdatedAt)

	// Partial update touches only the provided fields.
	updateBody := `{"bio":"postcards from everywhere"}`
	req = httptest.NewRequest(http.MethodPut, "/api/v1/users", strings.NewReader(updateBody))
	req = helpers.WithUserID(req, userID)
	rr = httptest.NewRecorder()
	userHandler.UpdateProfile(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var updated user.Profile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.Equal(t, "postcards from everywhere", updated.Bio)
	assert.Equal(t, username, updated.Username)
	assert.Equal(t, "Maja Novak", updated.FullName)

	// Exact search finds the user for others but hides private fields.
	searcherID := helpers.NewTestUserID()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/search?q="+username+"&type=username", nil)
	req = helpers.WithUserID(req, searcherID)
	rr = httptest.NewRecorder()
	userHandler.SearchUsers(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var searchResp user.SearchResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &searchResp))
	require.Equal(t, 1, searchResp.Count)
	assert.Equal(t, userID, searchResp.Users[0].UserID)
	assert.Empty(t, searchResp.Users[0].Email)

	// Searching for yourself yields nothing.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/search?q="+username+"&type=username", nil)
	req = helpers.WithUserID(req, userID)
	rr = httptest.NewRecorder()
	userHandler.SearchUsers(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &searchResp))
	assert.Equal(t, 0, searchResp.Count)

	// Bad search type is rejected.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/search?q=x&type=phone", nil)
	req = helpers.WithUserID(req, userID)
	rr = httptest.NewRecorder()
	userHandler.SearchUsers(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWebhookProvisioning(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	t.Setenv("CLERK_WEBHOOK_SECRET", "")

	userService := services.NewUserService(pool)
	webhookHandler := handlers.NewWebhookHandler(userService)

	suffix := uuid.New().String()[:8]
	userID := helpers.NewTestUserID()

	payload := fmt.Sprintf(`{
		"type": "user.created",
		"data": {
			"id": %q,
			"username": "piotr_%s",
			"first_name": "Piotr",
			"last_name": "Kowalski",
			"image_url": "https://img.example/p.png",
			"email_addresses": [{"email_address": "piotr_%s@example.com"}]
		}
	}`, userID, suffix, suffix)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	webhookHandler.HandleClerkWebhook(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, "body=%s", rr.Body.String())

	u, err := userService.GetUserByID(req.Context(), userID)
	require.NoError(t, err)
	assert.Equal(t, "piotr_"+suffix, u.Username)
	assert.Equal(t, "Piotr Kowalski", u.FullName)
	assert.True(t, u.IsActive)

	// Deletion from the identity provider deactivates, never removes.
	deletePayload := fmt.Sprintf(`{"type": "user.deleted", "data": {"id": %q}}`, userID)
	req = httptest.NewRequest(http.MethodPost, "/webhooks/clerk", strings.NewReader(deletePayload))
	rr = httptest.NewRecorder()
	webhookHandler.HandleClerkWebhook(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	u, err = userService.GetUserByID(req.Context(), userID)
	require.NoError(t, err)
	assert.False(t, u.IsActive)
}
