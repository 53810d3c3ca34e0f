package auth

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Stable client-facing messages for the 401 taxonomy. Anything not listed
// here is an infrastructure failure and surfaces as a 500.
var failureMessages = map[error]string{
	ErrInvalidToken:        "Invalid or expired token",
	ErrUserNotFound:        "User not found",
	ErrAccountDeactivated:  "Account has been deactivated",
	ErrSessionInvalid:      "Session expired or invalid",
	ErrInvalidRefreshToken: "Invalid refresh token",
	ErrRefreshTokenMissing: "Refresh token not found",
	ErrInvalidCredentials:  "Invalid credentials",
}

func unauthorizedMessage(err error) (string, bool) {
	for sentinel, message := range failureMessages {
		if errors.Is(err, sentinel) {
			return message, true
		}
	}
	return "", false
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success":    false,
		"statusCode": status,
		"message":    message,
	})
}
