package auth

import "time"

const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

type User struct {
	ID              string
	Email           string
	PasswordHash    string
	FirstName       string
	LastName        string
	Role            string
	IsEmailVerified bool
	ProfilePhoto    string
	Phone           string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DeviceSession binds a user to one logged-in device. At most one live
// session exists per (UserID, DeviceID); login replaces any previous one.
// RefreshToken stores the exact refresh JWT issued for this session; a
// presented refresh token must match it byte for byte.
type DeviceSession struct {
	ID             string
	UserID         string
	DeviceID       string
	RefreshToken   string
	ExpiresAt      time.Time
	LastActivityAt time.Time
	CreatedAt      time.Time
}

// Principal is the resolved identity attached to a request after successful
// access-token validation. It is rebuilt on every request and never cached.
type Principal struct {
	UserID          string `json:"userId"`
	Email           string `json:"email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Role            string `json:"role"`
	IsEmailVerified bool   `json:"isEmailVerified"`
	ProfilePhoto    string `json:"profilePhoto"`
	Phone           string `json:"phone"`
	DeviceID        string `json:"deviceId"`
}

type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func principalFor(user User, deviceID string) Principal {
	return Principal{
		UserID:          user.ID,
		Email:           user.Email,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		Role:            user.Role,
		IsEmailVerified: user.IsEmailVerified,
		ProfilePhoto:    user.ProfilePhoto,
		Phone:           user.Phone,
		DeviceID:        deviceID,
	}
}
