package domain

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	PlanFree    = "free"
	PlanPremium = "premium"
)

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Plan         string    `json:"plan"`
	Phone        *string   `json:"phone,omitempty"`
	Bio          *string   `json:"bio,omitempty"`
	ProfileImage *string   `json:"profileImage,omitempty"`
	CoverImage   *string   `json:"coverImage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session pairs an opaque bearer token with the user it authenticates.
// Sessions live in the cache under "session:<token>" with a TTL.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// ProfileUpdate carries the mutable profile fields; nil means "leave as is".
type ProfileUpdate struct {
	Name  *string
	Phone *string
	Bio   *string
}
