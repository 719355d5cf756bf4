package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postcarditAPI/internal/apperrors"
)

// Every protected handler must refuse to run without an authenticated
// principal on the context.
func TestHandlersRequireAuthentication(t *testing.T) {
	userHandler := NewUserHandler(nil)
	friendshipHandler := NewFriendshipHandler(nil)
	postcardHandler := NewPostcardHandler(nil)

	cases := []struct {
		name    string
		method  string
		path    string
		handler http.HandlerFunc
	}{
		{"GetProfile", http.MethodGet, "/api/v1/users", userHandler.GetProfile},
		{"CreateProfile", http.MethodPost, "/api/v1/users", userHandler.CreateProfile},
		{"UpdateProfile", http.MethodPut, "/api/v1/users", userHandler.UpdateProfile},
		{"SearchUsers", http.MethodGet, "/api/v1/users/search", userHandler.SearchUsers},
		{"GetUserByID", http.MethodGet, "/api/v1/users/u2", userHandler.GetUserByID},
		{"GetFriendships", http.MethodGet, "/api/v1/friends", friendshipHandler.GetFriendships},
		{"SearchCandidates", http.MethodGet, "/api/v1/friends/search", friendshipHandler.SearchCandidates},
		{"SendFriendRequest", http.MethodPost, "/api/v1/friends/send-request", friendshipHandler.SendFriendRequest},
		{"AcceptFriendRequest", http.MethodPost, "/api/v1/friends/accept-request", friendshipHandler.AcceptFriendRequest},
		{"SendPostcard", http.MethodPost, "/api/v1/postcards", postcardHandler.SendPostcard},
		{"GetSentPostcards", http.MethodGet, "/api/v1/postcards/sent", postcardHandler.GetSentPostcards},
		{"GetReceivedPostcards", http.MethodGet, "/api/v1/postcards/received", postcardHandler.GetReceivedPostcards},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, bytes.NewReader(nil))
			rr := httptest.NewRecorder()

			tc.handler(rr, req)

			assert.Equal(t, http.StatusUnauthorized, rr.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, "User not authenticated", body["error"])
		})
	}
}

func TestRespondWithAppError(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantBody   string
	}{
		{apperrors.InvalidRequest("Username is required"), http.StatusBadRequest, "Username is required"},
		{apperrors.Forbidden("Unauthorized to accept this friend request"), http.StatusForbidden, "Unauthorized to accept this friend request"},
		{apperrors.NotFound("Friend request not found"), http.StatusNotFound, "Friend request not found"},
		{apperrors.Conflict("Already friends"), http.StatusConflict, "Already friends"},
		{apperrors.Internal("Failed to send postcard", fmt.Errorf("pg down")), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tc := range cases {
		rr := httptest.NewRecorder()
		respondWithAppError(rr, tc.err)

		assert.Equal(t, tc.wantStatus, rr.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, tc.wantBody, body["error"])
	}
}

func TestClerkWebhookSignature(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", "whsec_test")
	handler := NewWebhookHandler(nil)

	payload := []byte(`{"type":"session.created","data":{}}`)

	t.Run("missing signature headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(payload))
		rr := httptest.NewRecorder()

		handler.HandleClerkWebhook(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("wrong signature", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(payload))
		req.Header.Set("svix-id", "msg_1")
		req.Header.Set("svix-timestamp", "1700000000")
		req.Header.Set("svix-signature", "v1,deadbeef")
		rr := httptest.NewRecorder()

		handler.HandleClerkWebhook(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("valid signature, unhandled event", func(t *testing.T) {
		signed := fmt.Sprintf("%s.%s.%s", "msg_1", "1700000000", payload)
		mac := hmac.New(sha256.New, []byte("whsec_test"))
		mac.Write([]byte(signed))
		sig := "v1," + hex.EncodeToString(mac.Sum(nil))

		req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(payload))
		req.Header.Set("svix-id", "msg_1")
		req.Header.Set("svix-timestamp", "1700000000")
		req.Header.Set("svix-signature", sig)
		rr := httptest.NewRecorder()

		handler.HandleClerkWebhook(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
