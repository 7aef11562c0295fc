package models

import "time"

// UserType distinguishes the two marketplace account kinds.
type UserType string

const (
	UserTypeJobSeeker UserType = "jobseeker"
	UserTypeClient    UserType = "client"
)

// Valid reports whether t is a known account kind.
func (t UserType) Valid() bool {
	return t == UserTypeJobSeeker || t == UserTypeClient
}

// User is the normalized identity snapshot exchanged with the backend and
// persisted locally by the session layer. Company is only set for client
// accounts.
type User struct {
	ID        string    `json:"id"`
	Type      UserType  `json:"type"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Company   string    `json:"company,omitempty"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

type Job struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	Rate        string    `json:"rate,omitempty"`
	Description string    `json:"description,omitempty"`
	PostedAt    time.Time `json:"posted_at"`
}

type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationWithdrawn ApplicationStatus = "withdrawn"
)

type Application struct {
	ID        string            `json:"id"`
	JobID     string            `json:"job_id"`
	UserID    string            `json:"user_id"`
	Status    ApplicationStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

// TokenResponse is the refresh endpoint payload. RefreshToken is present
// only when the backend rotated it.
type TokenResponse struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
}
