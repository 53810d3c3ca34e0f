package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func loginBody(email, password, deviceID string) *strings.Reader {
	body, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
		"deviceId": deviceID,
	})
	return strings.NewReader(string(body))
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (bool, int, string) {
	t.Helper()
	var body struct {
		Success    bool   `json:"success"`
		StatusCode int    `json:"statusCode"`
		Message    string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json body: %v", err)
	}
	return body.Success, body.StatusCode, body.Message
}

func TestLoginHandlerIssuesTokens(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct horse battery"), bcrypt.MinCost)
	user := activeUser()
	user.PasswordHash = string(hash)
	store := newFakeStore()
	store.addUser(user)

	handler := NewHandler(newTestService(store))

	req := httptest.NewRequest(http.MethodPost, "/auth/login", loginBody(user.Email, "correct horse battery", "device-1"))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var tokens Tokens
	if err := json.Unmarshal(rec.Body.Bytes(), &tokens); err != nil {
		t.Fatalf("invalid tokens json: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" || tokens.TokenType != "Bearer" {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}
}

func TestLoginHandlerValidatesInput(t *testing.T) {
	handler := NewHandler(newTestService(newFakeStore()))

	cases := []struct {
		name string
		body *strings.Reader
	}{
		{"bad json", strings.NewReader("{")},
		{"bad email", loginBody("not-an-email", "longenoughpassword", "device-1")},
		{"short password", loginBody("a@b.co", "short", "device-1")},
		{"missing device", loginBody("a@b.co", "longenoughpassword", "")},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", tc.body)
		rec := httptest.NewRecorder()
		handler.Login(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rec.Code)
		}
	}
}

func TestLoginHandlerRejectsBadCredentials(t *testing.T) {
	handler := NewHandler(newTestService(newFakeStore()))

	req := httptest.NewRequest(http.MethodPost, "/auth/login", loginBody("nobody@example.com", "longenoughpassword", "device-1"))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if _, _, message := decodeEnvelope(t, rec); message != "Invalid credentials" {
		t.Fatalf("unexpected message: %q", message)
	}
}

func TestRefreshHandlerRequiresToken(t *testing.T) {
	handler := NewHandler(newTestService(newFakeStore()))

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(`{"refresh_token":""}`))
	rec := httptest.NewRecorder()
	handler.Refresh(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if _, _, message := decodeEnvelope(t, rec); message != "Refresh token not found" {
		t.Fatalf("unexpected message: %q", message)
	}
}

func TestRefreshHandlerReturnsFreshAccessToken(t *testing.T) {
	user := activeUser()
	store := newFakeStore()
	store.addUser(user)

	svc := newTestService(store)
	refresh, _ := svc.mint(user, "device-1", tokenTypeRefresh, svc.refreshSecret, svc.sessionTTL)
	store.addSession(liveSession(user, "device-1", refresh))

	handler := NewHandler(svc)

	body, _ := json.Marshal(map[string]string{"refresh_token": refresh})
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(string(body)))
	rec := httptest.NewRecorder()
	handler.Refresh(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var tokens Tokens
	if err := json.Unmarshal(rec.Body.Bytes(), &tokens); err != nil {
		t.Fatalf("invalid tokens json: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken != refresh {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}
}

func TestRefreshHandlerRejectsUnknownToken(t *testing.T) {
	user := activeUser()
	store := newFakeStore()
	store.addUser(user)

	svc := newTestService(store)
	// Well-formed and unexpired, but never stored on any session.
	unbound, _ := svc.mint(user, "device-1", tokenTypeRefresh, svc.refreshSecret, svc.sessionTTL)

	handler := NewHandler(svc)

	body, _ := json.Marshal(map[string]string{"refresh_token": unbound})
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(string(body)))
	rec := httptest.NewRecorder()
	handler.Refresh(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if _, _, message := decodeEnvelope(t, rec); message != "Invalid refresh token" {
		t.Fatalf("unexpected message: %q", message)
	}
}

func TestLogoutHandler(t *testing.T) {
	user := activeUser()
	store := newFakeStore()
	store.addUser(user)

	svc := newTestService(store)
	refresh, _ := svc.mint(user, "device-1", tokenTypeRefresh, svc.refreshSecret, svc.sessionTTL)
	store.addSession(liveSession(user, "device-1", refresh))

	handler := NewHandler(svc)

	body, _ := json.Marshal(map[string]string{"refresh_token": refresh})
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", strings.NewReader(string(body)))
	rec := httptest.NewRecorder()
	handler.Logout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(store.sessions) != 0 {
		t.Fatal("session survived logout")
	}
}

func TestLogoutHandlerRequiresToken(t *testing.T) {
	handler := NewHandler(newTestService(newFakeStore()))

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", strings.NewReader(`{"refresh_token":" "}`))
	rec := httptest.NewRecorder()
	handler.Logout(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if _, _, message := decodeEnvelope(t, rec); message != "Refresh token not found" {
		t.Fatalf("unexpected message: %q", message)
	}
}
