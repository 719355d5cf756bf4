package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"postcarditAPI/internal/apperrors"
	"postcarditAPI/internal/types/postcard"
)

type PostcardService struct {
	db *pgxpool.Pool
}

func NewPostcardService(db *pgxpool.Pool) *PostcardService {
	return &PostcardService{db: db}
}

const postcardColumns = `postcard_id, sender_id, recipient_id, image_url, message, location, sent_at, status`

func scanPostcard(row pgx.Row) (*postcard.Postcard, error) {
	p := &postcard.Postcard{}
	err := row.Scan(&p.ID, &p.SenderID, &p.RecipientID, &p.ImageURL, &p.Message, &p.Location, &p.SentAt, &p.Status)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SendPostcard appends one immutable postcard record. There is deliberately
// no self-send restriction, recipient-existence check, or friendship
// requirement: any authenticated user may send to any user identifier.
func (s *PostcardService) SendPostcard(ctx context.Context, senderID string, req *postcard.SendRequest) (*postcard.Postcard, error) {
	if strings.TrimSpace(req.RecipientID) == "" || strings.TrimSpace(req.ImageURL) == "" {
		return nil, apperrors.InvalidRequest("recipientId and imageUrl are required")
	}

	location := req.Location
	if len(location) == 0 {
		location = json.RawMessage("{}")
	}

	query := `
	INSERT INTO postcards (postcard_id, sender_id, recipient_id, image_url, message, location, sent_at, status)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING ` + postcardColumns

	p, err := scanPostcard(s.db.QueryRow(ctx, query,
		uuid.New().String(),
		senderID,
		req.RecipientID,
		req.ImageURL,
		req.Message,
		location,
		time.Now().UTC(),
		postcard.StatusSent,
	))
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"senderId":    senderID,
			"recipientId": req.RecipientID,
		}).Error("SendPostcard: insert failed")
		return nil, apperrors.Internal("Failed to send postcard", err)
	}

	s.bumpPostcardCount(ctx, senderID)

	logrus.WithFields(logrus.Fields{
		"postcardId":  p.ID,
		"senderId":    p.SenderID,
		"recipientId": p.RecipientID,
	}).Info("Postcard sent")

	return p, nil
}

// GetSentPostcards pages through postcards the user sent, most recent first.
func (s *PostcardService) GetSentPostcards(ctx context.Context, userID string, limit int, cursorToken string) (*postcard.Page, error) {
	return s.pageByRole(ctx, "sender_id", userID, limit, cursorToken)
}

// GetReceivedPostcards pages through postcards addressed to the user,
// most recent first.
func (s *PostcardService) GetReceivedPostcards(ctx context.Context, userID string, limit int, cursorToken string) (*postcard.Page, error) {
	return s.pageByRole(ctx, "recipient_id", userID, limit, cursorToken)
}

// pageByRole runs one keyset-paginated scan over the per-user index for the
// given role column. It fetches one row beyond the page to learn whether a
// resume cursor is needed; that extra row never leaves this function.
func (s *PostcardService) pageByRole(ctx context.Context, roleColumn, userID string, limit int, cursorToken string) (*postcard.Page, error) {
	limit = postcard.ClampLimit(limit)

	query := `SELECT ` + postcardColumns + ` FROM postcards WHERE ` + roleColumn + ` = $1`
	args := []any{userID}

	if cursorToken != "" {
		cursor, err := postcard.DecodeCursor(cursorToken)
		if err != nil {
			return nil, apperrors.InvalidRequest("Invalid lastKey parameter")
		}
		query += ` AND (sent_at, postcard_id) < ($2, $3) ORDER BY sent_at DESC, postcard_id DESC LIMIT $4`
		args = append(args, cursor.SentAt, cursor.PostcardID, limit+1)
	} else {
		query += ` ORDER BY sent_at DESC, postcard_id DESC LIMIT $2`
		args = append(args, limit+1)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		logrus.WithError(err).WithField("userId", userID).Error("pageByRole: query failed")
		return nil, apperrors.Internal("Failed to retrieve postcards", err)
	}
	defer rows.Close()

	postcards := []postcard.Postcard{}
	for rows.Next() {
		p, err := scanPostcard(rows)
		if err != nil {
			return nil, apperrors.Internal("Failed to retrieve postcards", err)
		}
		postcards = append(postcards, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal("Failed to retrieve postcards", err)
	}

	page := &postcard.Page{}
	if len(postcards) > limit {
		postcards = postcards[:limit]
		last := postcards[len(postcards)-1]
		page.NextCursor = postcard.Cursor{SentAt: last.SentAt, PostcardID: last.ID}.Encode()
	}
	page.Postcards = postcards
	page.Count = len(postcards)

	return page, nil
}

// bumpPostcardCount advances the sender's denormalized postcards_count.
// Best effort, same as the friend counter.
func (s *PostcardService) bumpPostcardCount(ctx context.Context, senderID string) {
	_, err := s.db.Exec(ctx,
		`UPDATE users SET postcards_count = postcards_count + 1 WHERE user_id = $1`, senderID)
	if err != nil {
		logrus.WithError(err).Warn("bumpPostcardCount: counter update failed")
	}
}
