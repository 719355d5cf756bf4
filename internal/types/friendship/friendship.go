package friendship

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
)

// Friendship is a single directed request record. Requester and addressee
// roles are fixed at creation; only the status and updated_at ever change.
type Friendship struct {
	ID          string    `json:"friendshipId"`
	RequesterID string    `json:"requesterId"`
	AddresseeID string    `json:"addresseeId"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type SendRequestRequest struct {
	Username string `json:"username"`
}

type AcceptRequestRequest struct {
	FriendshipID string `json:"friendshipId"`
}

// Entry is one row of a categorized relationship listing. UserID is always
// the counterpart of the listing user, never the user themselves.
type Entry struct {
	FriendshipID string    `json:"friendshipId"`
	UserID       string    `json:"userId"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

type ListCounts struct {
	Friends         int `json:"friends"`
	PendingSent     int `json:"pendingSent"`
	PendingReceived int `json:"pendingReceived"`
}

type ListResponse struct {
	Friends         []Entry    `json:"friends"`
	PendingSent     []Entry    `json:"pendingSent"`
	PendingReceived []Entry    `json:"pendingReceived"`
	Counts          ListCounts `json:"counts"`
}

// Candidate is a search hit for the friend discovery search.
type Candidate struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

type SearchResponse struct {
	Query   string      `json:"query"`
	Results []Candidate `json:"results"`
	Count   int         `json:"count"`
}

// Categorize partitions a user's friendship records into accepted friends,
// requests they sent that are still pending, and requests waiting on them.
// Accepted records from either direction merge into one friends list; each
// entry exposes the counterpart, so the record's role decides which side
// goes in the entry.
func Categorize(asRequester, asAddressee []Friendship) *ListResponse {
	resp := &ListResponse{
		Friends:         []Entry{},
		PendingSent:     []Entry{},
		PendingReceived: []Entry{},
	}

	for _, f := range asRequester {
		entry := Entry{
			FriendshipID: f.ID,
			UserID:       f.AddresseeID,
			Status:       f.Status,
			CreatedAt:    f.CreatedAt,
		}
		switch f.Status {
		case StatusAccepted:
			resp.Friends = append(resp.Friends, entry)
		case StatusPending:
			resp.PendingSent = append(resp.PendingSent, entry)
		}
	}

	for _, f := range asAddressee {
		entry := Entry{
			FriendshipID: f.ID,
			UserID:       f.RequesterID,
			Status:       f.Status,
			CreatedAt:    f.CreatedAt,
		}
		switch f.Status {
		case StatusAccepted:
			resp.Friends = append(resp.Friends, entry)
		case StatusPending:
			resp.PendingReceived = append(resp.PendingReceived, entry)
		}
	}

	resp.Counts = ListCounts{
		Friends:         len(resp.Friends),
		PendingSent:     len(resp.PendingSent),
		PendingReceived: len(resp.PendingReceived),
	}
	return resp
}
