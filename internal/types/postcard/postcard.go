package postcard

import (
	"encoding/json"
	"time"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

const StatusSent = "sent"

// Postcard is immutable once written: there is no update or delete path,
// so SentAt doubles as both created and updated time.
type Postcard struct {
	ID          string          `json:"postcardId"`
	SenderID    string          `json:"senderId"`
	RecipientID string          `json:"recipientId"`
	ImageURL    string          `json:"imageUrl"`
	Message     string          `json:"message"`
	Location    json.RawMessage `json:"location,omitempty"`
	SentAt      time.Time       `json:"sentAt"`
	Status      string          `json:"status"`
}

type SendRequest struct {
	RecipientID string          `json:"recipientId"`
	ImageURL    string          `json:"imageUrl"`
	Message     string          `json:"message"`
	Location    json.RawMessage `json:"location,omitempty"`
}

type SendResponse struct {
	PostcardID string    `json:"postcardId"`
	Status     string    `json:"status"`
	SentAt     time.Time `json:"sentAt"`
	Message    string    `json:"message"`
}

// Page is one window of a sent or received stream. NextCursor is present
// only when more results exist beyond this page.
type Page struct {
	Postcards  []Postcard `json:"postcards"`
	Count      int        `json:"count"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

// ClampLimit normalizes a requested page size: non-positive values fall back
// to the default, anything above the cap is cut to the cap.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageLimit
	}
	if limit > MaxPageLimit {
		return MaxPageLimit
	}
	return limit
}
