package user

import "time"

type User struct {
	ID                string    `json:"userId"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	FullName          string    `json:"fullName"`
	Bio               string    `json:"bio"`
	ProfilePictureURL string    `json:"profilePictureUrl"`
	IsActive          bool      `json:"isActive"`
	PostcardsCount    int       `json:"postcardsCount"`
	FriendsCount      int       `json:"friendsCount"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Profile is the outward projection of a User. Email and UpdatedAt are
// private fields, exposed only when the profile belongs to the caller.
type Profile struct {
	UserID            string     `json:"userId"`
	Username          string     `json:"username"`
	Email             string     `json:"email,omitempty"`
	FullName          string     `json:"fullName"`
	Bio               string     `json:"bio"`
	ProfilePictureURL string     `json:"profilePictureUrl"`
	IsActive          bool       `json:"isActive"`
	PostcardsCount    int        `json:"postcardsCount"`
	FriendsCount      int        `json:"friendsCount"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         *time.Time `json:"updatedAt,omitempty"`
}

// FormatProfile projects a user record for API output, including the
// private fields only for the owner's own profile.
func (u *User) FormatProfile(isSelf bool) *Profile {
	p := &Profile{
		UserID:            u.ID,
		Username:          u.Username,
		FullName:          u.FullName,
		Bio:               u.Bio,
		ProfilePictureURL: u.ProfilePictureURL,
		IsActive:          u.IsActive,
		PostcardsCount:    u.PostcardsCount,
		FriendsCount:      u.FriendsCount,
		CreatedAt:         u.CreatedAt,
	}
	if isSelf {
		p.Email = u.Email
		updatedAt := u.UpdatedAt
		p.UpdatedAt = &updatedAt
	}
	return p
}
