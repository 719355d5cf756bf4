package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"postcarditAPI/internal/types/friendship"
	"postcarditAPI/middleware"
	"postcarditAPI/services"
)

type FriendshipHandler struct {
	friendshipService *services.FriendshipService
}

func NewFriendshipHandler(friendshipService *services.FriendshipService) *FriendshipHandler {
	return &FriendshipHandler{
		friendshipService: friendshipService,
	}
}

func (h *FriendshipHandler) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req friendship.SendRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	f, err := h.friendshipService.SendFriendRequest(ctx, userID, req.Username)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	middleware.FriendRequestsSent.Inc()

	respondWithJSON(w, http.StatusCreated, map[string]any{
		"message":      "Friend request sent successfully",
		"friendshipId": f.ID,
		"status":       f.Status,
	})
}

func (h *FriendshipHandler) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req friendship.AcceptRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	f, err := h.friendshipService.AcceptFriendRequest(ctx, userID, req.FriendshipID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	middleware.FriendRequestsAccepted.Inc()

	respondWithJSON(w, http.StatusOK, map[string]any{
		"message":      "Friend request accepted successfully",
		"friendshipId": f.ID,
		"status":       f.Status,
	})
}

func (h *FriendshipHandler) GetFriendships(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	resp, err := h.friendshipService.GetFriendships(ctx, userID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

func (h *FriendshipHandler) SearchCandidates(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	query := r.URL.Query().Get("q")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	results, err := h.friendshipService.SearchCandidates(ctx, userID, query, limit)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	logrus.WithFields(logrus.Fields{"userId": userID, "query": query}).Debug("Friend search served")

	respondWithJSON(w, http.StatusOK, friendship.SearchResponse{
		Query:   query,
		Results: results,
		Count:   len(results),
	})
}
