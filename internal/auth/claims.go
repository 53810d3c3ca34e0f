package auth

import "github.com/golang-jwt/jwt/v5"

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims is the payload of both access and refresh JWTs. The user id travels
// in the registered "sub" claim. TokenType distinguishes the two token kinds
// so one can never be presented in place of the other, even though they are
// signed with different secrets.
type Claims struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	DeviceID  string `json:"deviceId"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}
