package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"elearn-auth/internal/observability"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultSessionTTL = 7 * 24 * time.Hour
)

// Service turns bearer tokens into verified Principals and owns the device
// session lifecycle: login creates a session, refresh exchanges its token for
// a new access token, logout deletes it. Access and refresh tokens are HS256
// JWTs signed with separate secrets.
type Service struct {
	store         Store
	logger        *observability.Logger
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	sessionTTL    time.Duration
	now           func() time.Time
}

func NewService(store Store, logger *observability.Logger, accessSecret, refreshSecret string) *Service {
	return &Service{
		store:         store,
		logger:        logger,
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     defaultAccessTTL,
		sessionTTL:    defaultSessionTTL,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) WithTTLs(accessTTL, sessionTTL time.Duration) {
	if accessTTL > 0 {
		s.accessTTL = accessTTL
	}
	if sessionTTL > 0 {
		s.sessionTTL = sessionTTL
	}
}

// ValidateAccess resolves an access token into a Principal. The checks run in
// a fixed order and the first failure wins: signature and expiry, then user
// existence, then the active flag, then a live device session. The session
// activity timestamp is updated best-effort; a failed update never rejects
// the request.
func (s *Service) ValidateAccess(ctx context.Context, token string) (Principal, error) {
	claims, err := s.verify(token, s.accessSecret, tokenTypeAccess)
	if err != nil {
		return Principal{}, err
	}

	now := s.now()

	user, err := s.store.FindUser(ctx, claims.Subject)
	if err != nil {
		return Principal{}, err
	}
	if !user.IsActive {
		return Principal{}, ErrAccountDeactivated
	}

	session, err := s.store.FindActiveDeviceSession(ctx, user.ID, claims.DeviceID, now)
	if err != nil {
		return Principal{}, err
	}

	if err := s.store.TouchDeviceSession(ctx, session.ID, now); err != nil {
		s.logger.Warn("session_touch_failed", map[string]any{
			"session_id": session.ID,
			"error":      err.Error(),
		})
	}

	return principalFor(user, claims.DeviceID), nil
}

// ValidateRefresh verifies a refresh token against its device session. The
// presented token must match the stored session token exactly; a rotated or
// foreign-device token is rejected even when its signature and expiry are
// fine.
func (s *Service) ValidateRefresh(ctx context.Context, refreshToken string) (Principal, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return Principal{}, ErrRefreshTokenMissing
	}

	claims, err := s.verify(refreshToken, s.refreshSecret, tokenTypeRefresh)
	if err != nil {
		return Principal{}, ErrInvalidRefreshToken
	}

	session, err := s.store.FindActiveDeviceSessionByRefreshToken(ctx, claims.Subject, refreshToken, s.now())
	if err != nil {
		return Principal{}, err
	}

	user, err := s.store.FindUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Principal{}, ErrInvalidRefreshToken
		}
		return Principal{}, err
	}
	if !user.IsActive {
		return Principal{}, ErrAccountDeactivated
	}

	return principalFor(user, session.DeviceID), nil
}

// Login checks credentials and installs a fresh device session for the given
// device fingerprint, superseding any previous session on that device.
func (s *Service) Login(ctx context.Context, email, password, deviceID string) (Tokens, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Tokens{}, ErrInvalidCredentials
		}
		return Tokens{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Tokens{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return Tokens{}, ErrAccountDeactivated
	}

	now := s.now()
	refreshToken, err := s.mint(user, deviceID, tokenTypeRefresh, s.refreshSecret, s.sessionTTL)
	if err != nil {
		return Tokens{}, err
	}

	sessionID, err := uuid.NewV7()
	if err != nil {
		return Tokens{}, fmt.Errorf("generate session id: %w", err)
	}

	if err := s.store.ReplaceDeviceSession(ctx, DeviceSession{
		ID:             sessionID.String(),
		UserID:         user.ID,
		DeviceID:       deviceID,
		RefreshToken:   refreshToken,
		ExpiresAt:      now.Add(s.sessionTTL),
		LastActivityAt: now,
		CreatedAt:      now,
	}); err != nil {
		return Tokens{}, err
	}

	accessToken, err := s.mint(user, deviceID, tokenTypeAccess, s.accessSecret, s.accessTTL)
	if err != nil {
		return Tokens{}, err
	}

	return Tokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is not rotated; the session keeps its expiry and the
// client must log in again once it lapses.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	principal, err := s.ValidateRefresh(ctx, refreshToken)
	if err != nil {
		return Tokens{}, err
	}

	user := User{ID: principal.UserID, Email: principal.Email, Role: principal.Role}
	accessToken, err := s.mint(user, principal.DeviceID, tokenTypeAccess, s.accessSecret, s.accessTTL)
	if err != nil {
		return Tokens{}, err
	}

	return Tokens{
		AccessToken:  accessToken,
		RefreshToken: strings.TrimSpace(refreshToken),
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

// Logout deletes the device session bound to the refresh token. Works on
// expired sessions too, so a lapsed device can still clean itself up.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return ErrRefreshTokenMissing
	}

	claims, err := s.verify(refreshToken, s.refreshSecret, tokenTypeRefresh)
	if err != nil {
		return ErrInvalidRefreshToken
	}

	deleted, err := s.store.DeleteDeviceSession(ctx, claims.Subject, refreshToken)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrInvalidRefreshToken
	}

	return nil
}

func (s *Service) verify(tokenStr string, secret []byte, wantType string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.TokenType != wantType || claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}

func (s *Service) mint(user User, deviceID, tokenType string, secret []byte, ttl time.Duration) (string, error) {
	jti, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate token id: %w", err)
	}

	now := s.now()
	claims := Claims{
		Email:     user.Email,
		Role:      user.Role,
		DeviceID:  deviceID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        jti.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	encoded, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}

	return encoded, nil
}
