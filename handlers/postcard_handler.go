package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"postcarditAPI/internal/types/postcard"
	"postcarditAPI/middleware"
	"postcarditAPI/services"
)

type PostcardHandler struct {
	postcardService *services.PostcardService
}

func NewPostcardHandler(postcardService *services.PostcardService) *PostcardHandler {
	return &PostcardHandler{
		postcardService: postcardService,
	}
}

func (h *PostcardHandler) SendPostcard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req postcard.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	p, err := h.postcardService.SendPostcard(ctx, userID, &req)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	middleware.PostcardsSent.Inc()

	respondWithJSON(w, http.StatusCreated, postcard.SendResponse{
		PostcardID: p.ID,
		Status:     p.Status,
		SentAt:     p.SentAt,
		Message:    "Postcard sent successfully",
	})
}

func (h *PostcardHandler) GetSentPostcards(w http.ResponseWriter, r *http.Request) {
	h.servePage(w, r, h.postcardService.GetSentPostcards)
}

func (h *PostcardHandler) GetReceivedPostcards(w http.ResponseWriter, r *http.Request) {
	h.servePage(w, r, h.postcardService.GetReceivedPostcards)
}

func (h *PostcardHandler) servePage(
	w http.ResponseWriter,
	r *http.Request,
	fetch func(ctx context.Context, userID string, limit int, cursor string) (*postcard.Page, error),
) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = parsed
	}
	cursor := r.URL.Query().Get("lastKey")

	page, err := fetch(ctx, userID, limit, cursor)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, page)
}
