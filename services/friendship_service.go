package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"postcarditAPI/internal/apperrors"
	"postcarditAPI/internal/types/friendship"
)

const (
	minSearchQueryLen       = 2
	defaultSearchLimit      = 20
	maxCandidateSearchLimit = 50
)

type FriendshipService struct {
	db          *pgxpool.Pool
	userService *UserService
}

func NewFriendshipService(db *pgxpool.Pool, userService *UserService) *FriendshipService {
	return &FriendshipService{db: db, userService: userService}
}

const friendshipColumns = `friendship_id, requester_id, addressee_id, status, created_at, updated_at`

func scanFriendship(row pgx.Row) (*friendship.Friendship, error) {
	f := &friendship.Friendship{}
	err := row.Scan(&f.ID, &f.RequesterID, &f.AddresseeID, &f.Status, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// SendFriendRequest resolves the addressee by username and creates a pending
// friendship. Retries after a prior success are rejected by the existence
// check; that conflict is the idempotency guard, the send itself is not
// idempotent.
func (s *FriendshipService) SendFriendRequest(ctx context.Context, requesterID, addresseeUsername string) (*friendship.Friendship, error) {
	if strings.TrimSpace(addresseeUsername) == "" {
		return nil, apperrors.InvalidRequest("Username is required")
	}

	addressee, err := s.userService.GetUserByUsername(ctx, addresseeUsername)
	if err != nil {
		return nil, err
	}

	if addressee.ID == requesterID {
		return nil, apperrors.InvalidRequest("Cannot send friend request to yourself")
	}

	// Existence check in both directions: the record may have been created
	// with either party as requester.
	existing, err := s.findBetween(ctx, requesterID, addressee.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Status == friendship.StatusAccepted {
			return nil, apperrors.Conflict("Already friends")
		}
		return nil, apperrors.Conflict("Friend request already sent")
	}

	query := `
	INSERT INTO friendships (friendship_id, requester_id, addressee_id, status, created_at, updated_at)
	VALUES ($1, $2, $3, 'pending', NOW(), NOW())
	RETURNING ` + friendshipColumns

	f, err := scanFriendship(s.db.QueryRow(ctx, query, uuid.New().String(), requesterID, addressee.ID))
	if err != nil {
		// The pair index closes the race between the check above and this
		// insert: a concurrent send for the same pair loses here.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.Conflict("Friend request already sent")
		}
		logrus.WithError(err).WithFields(logrus.Fields{
			"requesterId": requesterID,
			"addresseeId": addressee.ID,
		}).Error("SendFriendRequest: insert failed")
		return nil, apperrors.Internal("Failed to send friend request", err)
	}

	logrus.WithFields(logrus.Fields{
		"friendshipId": f.ID,
		"requesterId":  f.RequesterID,
		"addresseeId":  f.AddresseeID,
	}).Info("Friend request sent")

	return f, nil
}

// AcceptFriendRequest moves a pending friendship to accepted. Only the
// addressee may accept, and the transition is one-way and terminal.
func (s *FriendshipService) AcceptFriendRequest(ctx context.Context, currentUserID, friendshipID string) (*friendship.Friendship, error) {
	if strings.TrimSpace(friendshipID) == "" {
		return nil, apperrors.InvalidRequest("Friendship ID is required")
	}

	f, err := scanFriendship(s.db.QueryRow(ctx,
		`SELECT `+friendshipColumns+` FROM friendships WHERE friendship_id = $1`, friendshipID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("Friend request not found")
		}
		logrus.WithError(err).WithField("friendshipId", friendshipID).Error("AcceptFriendRequest: lookup failed")
		return nil, apperrors.Internal("Failed to accept friend request", err)
	}

	if f.AddresseeID != currentUserID {
		return nil, apperrors.Forbidden("Unauthorized to accept this friend request")
	}
	if f.Status == friendship.StatusAccepted {
		return nil, apperrors.Conflict("Friend request already accepted")
	}
	if f.Status != friendship.StatusPending {
		return nil, apperrors.InvalidState("Friend request is no longer pending")
	}

	updated, err := scanFriendship(s.db.QueryRow(ctx, `
	UPDATE friendships SET status = 'accepted', updated_at = NOW()
	WHERE friendship_id = $1
	RETURNING `+friendshipColumns, friendshipID))
	if err != nil {
		logrus.WithError(err).WithField("friendshipId", friendshipID).Error("AcceptFriendRequest: update failed")
		return nil, apperrors.Internal("Failed to accept friend request", err)
	}

	s.bumpFriendCounts(ctx, updated.RequesterID, updated.AddresseeID)

	logrus.WithFields(logrus.Fields{
		"friendshipId": friendshipID,
		"userId":       currentUserID,
	}).Info("Friend request accepted")

	return updated, nil
}

// GetFriendships returns the caller's relationships categorized into
// friends, pending sent, and pending received.
func (s *FriendshipService) GetFriendships(ctx context.Context, userID string) (*friendship.ListResponse, error) {
	asRequester, err := s.queryByRole(ctx, "requester_id", userID)
	if err != nil {
		return nil, err
	}
	asAddressee, err := s.queryByRole(ctx, "addressee_id", userID)
	if err != nil {
		return nil, err
	}

	resp := friendship.Categorize(asRequester, asAddressee)

	logrus.WithFields(logrus.Fields{
		"userId":          userID,
		"friends":         resp.Counts.Friends,
		"pendingSent":     resp.Counts.PendingSent,
		"pendingReceived": resp.Counts.PendingReceived,
	}).Info("Retrieved friendships")

	return resp, nil
}

// SearchCandidates finds users whose username or email contains the query,
// excluding the caller. A user matching both attributes appears once.
// Ordering is whatever the scan produces; callers must not rely on it.
func (s *FriendshipService) SearchCandidates(ctx context.Context, currentUserID, query string, limit int) ([]friendship.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.InvalidRequest("Search query is required")
	}
	if len(query) < minSearchQueryLen {
		return nil, apperrors.InvalidRequest("Search query must be at least 2 characters")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxCandidateSearchLimit {
		limit = maxCandidateSearchLimit
	}

	pattern := "%" + escapeLike(query) + "%"

	rows, err := s.db.Query(ctx, `
	SELECT user_id, username, email, full_name
	FROM users
	WHERE (username ILIKE $1 OR email ILIKE $1) AND user_id <> $2
	LIMIT $3`, pattern, currentUserID, limit)
	if err != nil {
		logrus.WithError(err).Error("SearchCandidates: query failed")
		return nil, apperrors.Internal("Failed to search for friends", err)
	}
	defer rows.Close()

	results := []friendship.Candidate{}
	for rows.Next() {
		var c friendship.Candidate
		if err := rows.Scan(&c.UserID, &c.Username, &c.Email, &c.Name); err != nil {
			return nil, apperrors.Internal("Failed to search for friends", err)
		}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal("Failed to search for friends", err)
	}

	logrus.WithFields(logrus.Fields{
		"query": query,
		"count": len(results),
	}).Info("Friend candidate search")

	return results, nil
}

// findBetween looks for a friendship between two users in either direction.
func (s *FriendshipService) findBetween(ctx context.Context, userA, userB string) (*friendship.Friendship, error) {
	f, err := scanFriendship(s.db.QueryRow(ctx, `
	SELECT `+friendshipColumns+` FROM friendships
	WHERE (requester_id = $1 AND addressee_id = $2)
	   OR (requester_id = $2 AND addressee_id = $1)`, userA, userB))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		logrus.WithError(err).Error("findBetween: query failed")
		return nil, apperrors.Internal("Failed to check existing friendship", err)
	}
	return f, nil
}

func (s *FriendshipService) queryByRole(ctx context.Context, roleColumn, userID string) ([]friendship.Friendship, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+friendshipColumns+` FROM friendships WHERE `+roleColumn+` = $1 ORDER BY created_at`, userID)
	if err != nil {
		logrus.WithError(err).WithField("userId", userID).Error("queryByRole: query failed")
		return nil, apperrors.Internal("Failed to get friends", err)
	}
	defer rows.Close()

	var out []friendship.Friendship
	for rows.Next() {
		f, err := scanFriendship(rows)
		if err != nil {
			return nil, apperrors.Internal("Failed to get friends", err)
		}
		out = append(out, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal("Failed to get friends", err)
	}
	return out, nil
}

// bumpFriendCounts advances the denormalized friends_count on both profiles.
// Best effort: the friendship itself is already accepted, a failed counter
// update only skews the display number.
func (s *FriendshipService) bumpFriendCounts(ctx context.Context, userA, userB string) {
	_, err := s.db.Exec(ctx,
		`UPDATE users SET friends_count = friends_count + 1 WHERE user_id = ANY($1)`,
		[]string{userA, userB})
	if err != nil {
		logrus.WithError(err).Warn("bumpFriendCounts: counter update failed")
	}
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
