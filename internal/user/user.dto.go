package user

type CreateProfileRequest struct {
	Username          string `json:"username"`
	Email             string `json:"email"`
	FullName          string `json:"fullName"`
	Bio               string `json:"bio"`
	ProfilePictureURL string `json:"profilePictureUrl,omitempty"`
}

// UpdateProfileRequest carries partial updates; nil means leave unchanged.
type UpdateProfileRequest struct {
	Username          *string `json:"username,omitempty"`
	FullName          *string `json:"fullName,omitempty"`
	Bio               *string `json:"bio,omitempty"`
	ProfilePictureURL *string `json:"profilePictureUrl,omitempty"`
}

type SearchResponse struct {
	Users      []*Profile `json:"users"`
	Count      int        `json:"count"`
	SearchTerm string     `json:"searchTerm"`
	SearchType string     `json:"searchType"`
}
