package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"postcarditAPI/internal/apperrors"
	"postcarditAPI/internal/user"
)

const maxUserSearchLimit = 50

type UserService struct {
	db *pgxpool.Pool
}

func NewUserService(db *pgxpool.Pool) *UserService {
	return &UserService{db: db}
}

const userColumns = `user_id, username, email, full_name, bio, profile_picture_url,
	is_active, postcards_count, friends_count, created_at, updated_at`

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FullName,
		&u.Bio,
		&u.ProfilePictureURL,
		&u.IsActive,
		&u.PostcardsCount,
		&u.FriendsCount,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateProfile initializes the profile for an authenticated principal. The
// user id comes from the identity provider, so a second create for the same
// principal is a conflict, as is a taken username or email.
func (s *UserService) CreateProfile(ctx context.Context, userID string, req *user.CreateProfileRequest) (*user.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	if username == "" || email == "" {
		return nil, apperrors.InvalidRequest("username and email are required")
	}

	query := `
	INSERT INTO users (user_id, username, email, full_name, bio, profile_picture_url, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	RETURNING ` + userColumns

	u, err := scanUser(s.db.QueryRow(ctx, query,
		userID,
		username,
		email,
		strings.TrimSpace(req.FullName),
		strings.TrimSpace(req.Bio),
		req.ProfilePictureURL,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "users_pkey":
				return nil, apperrors.Conflict("User profile already exists")
			case "users_username_key":
				return nil, apperrors.Conflict("Username already taken")
			case "users_email_key":
				return nil, apperrors.Conflict("Email already registered")
			}
			return nil, apperrors.Conflict("User profile already exists")
		}
		logrus.WithError(err).WithField("userId", userID).Error("CreateProfile: insert failed")
		return nil, apperrors.Internal("Failed to create user profile", err)
	}

	logrus.WithField("userId", userID).Info("User profile created")
	return u, nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`

	u, err := scanUser(s.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("User not found")
		}
		logrus.WithError(err).WithField("userId", userID).Error("GetUserByID: query failed")
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}
	return u, nil
}

// GetUserByUsername resolves a username to a profile, exact match.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	u, err := scanUser(s.db.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("User not found")
		}
		logrus.WithError(err).WithField("username", username).Error("GetUserByUsername: query failed")
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}
	return u, nil
}

// UpdateProfile applies a partial update to the caller's own profile.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req *user.UpdateProfileRequest) (*user.User, error) {
	if req.Username == nil && req.FullName == nil && req.Bio == nil && req.ProfilePictureURL == nil {
		return nil, apperrors.InvalidRequest("No valid fields to update")
	}

	current, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	username := current.Username
	if req.Username != nil {
		username = strings.TrimSpace(*req.Username)
		if username == "" {
			return nil, apperrors.InvalidRequest("username cannot be empty")
		}
	}
	fullName := current.FullName
	if req.FullName != nil {
		fullName = strings.TrimSpace(*req.FullName)
	}
	bio := current.Bio
	if req.Bio != nil {
		bio = strings.TrimSpace(*req.Bio)
	}
	pictureURL := current.ProfilePictureURL
	if req.ProfilePictureURL != nil {
		pictureURL = *req.ProfilePictureURL
	}

	query := `
	UPDATE users
	SET username = $2, full_name = $3, bio = $4, profile_picture_url = $5, updated_at = NOW()
	WHERE user_id = $1
	RETURNING ` + userColumns

	u, err := scanUser(s.db.QueryRow(ctx, query, userID, username, fullName, bio, pictureURL))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.Conflict("Username already taken")
		}
		logrus.WithError(err).WithField("userId", userID).Error("UpdateProfile: update failed")
		return nil, apperrors.Internal("Failed to update user profile", err)
	}

	logrus.WithField("userId", userID).Info("User profile updated")
	return u, nil
}

// SearchExact performs an exact equality lookup on username or email,
// excluding the caller. searchType selects which attribute is matched.
func (s *UserService) SearchExact(ctx context.Context, currentUserID, searchTerm, searchType string, limit int) ([]*user.User, error) {
	searchTerm = strings.TrimSpace(searchTerm)
	if searchTerm == "" {
		return nil, apperrors.InvalidRequest("Search term is required")
	}
	if searchType != "username" && searchType != "email" {
		return nil, apperrors.InvalidRequest(`Search type must be "username" or "email"`)
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > maxUserSearchLimit {
		limit = maxUserSearchLimit
	}

	column := "username"
	if searchType == "email" {
		column = "email"
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1 AND user_id <> $2 LIMIT $3`

	rows, err := s.db.Query(ctx, query, searchTerm, currentUserID, limit)
	if err != nil {
		logrus.WithError(err).Error("SearchExact: query failed")
		return nil, apperrors.Internal("Failed to search users", err)
	}
	defer rows.Close()

	users := []*user.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, apperrors.Internal("Failed to search users", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal("Failed to search users", err)
	}

	return users, nil
}

// SyncFromAuthProvider upserts profile fields pushed by the identity
// provider's webhook. Username conflicts are ignored here; provisioning
// keeps whatever name the user already claimed.
func (s *UserService) SyncFromAuthProvider(ctx context.Context, userID, username, email, fullName, pictureURL string) error {
	if username == "" {
		// Fall back to a stable placeholder; the user renames via profile update.
		username = "user_" + userID
	}

	query := `
	INSERT INTO users (user_id, username, email, full_name, profile_picture_url, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	ON CONFLICT (user_id) DO UPDATE
	SET email = EXCLUDED.email,
	    full_name = EXCLUDED.full_name,
	    profile_picture_url = EXCLUDED.profile_picture_url,
	    updated_at = NOW()
	`

	if _, err := s.db.Exec(ctx, query, userID, username, email, fullName, pictureURL); err != nil {
		logrus.WithError(err).WithField("userId", userID).Error("SyncFromAuthProvider: upsert failed")
		return apperrors.Internal("Failed to provision user", err)
	}

	logrus.WithField("userId", userID).Info("User synced from auth provider")
	return nil
}

// DeactivateUser marks a profile inactive when the identity provider
// reports the account deleted. Records are never physically removed.
func (s *UserService) DeactivateUser(ctx context.Context, userID string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE user_id = $1`, userID)
	if err != nil {
		logrus.WithError(err).WithField("userId", userID).Error("DeactivateUser: update failed")
		return apperrors.Internal("Failed to deactivate user", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("User not found")
	}

	logrus.WithField("userId", userID).Info("User deactivated")
	return nil
}
