package auth

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/getsentry/sentry-go"

	"elearn-auth/internal/observability"
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const maxJSONBodyBytes = 1 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	DeviceID string `json:"deviceId"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body loginRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	body.Email = strings.TrimSpace(strings.ToLower(body.Email))
	body.DeviceID = strings.TrimSpace(body.DeviceID)
	if !emailRegex.MatchString(body.Email) {
		writeError(w, http.StatusBadRequest, "Email format is invalid")
		return
	}
	if len(body.Password) < 8 || len(body.Password) > 200 {
		writeError(w, http.StatusBadRequest, "Password format is invalid")
		return
	}
	if body.DeviceID == "" || len(body.DeviceID) > 128 {
		writeError(w, http.StatusBadRequest, "Device id is required")
		return
	}

	tokens, err := h.service.Login(r.Context(), body.Email, body.Password, body.DeviceID)
	if err != nil {
		if message, ok := unauthorizedMessage(err); ok {
			observability.AuthOutcomes.WithLabelValues("login", "rejected").Inc()
			writeError(w, http.StatusUnauthorized, message)
			return
		}

		sentry.CaptureException(err)
		observability.AuthOutcomes.WithLabelValues("login", "error").Inc()
		writeError(w, http.StatusInternalServerError, "Failed to login")
		return
	}

	observability.AuthOutcomes.WithLabelValues("login", "ok").Inc()
	writeJSON(w, http.StatusOK, tokens)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body refreshRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	tokens, err := h.service.Refresh(r.Context(), body.RefreshToken)
	if err != nil {
		if message, ok := unauthorizedMessage(err); ok {
			observability.AuthOutcomes.WithLabelValues("refresh", "rejected").Inc()
			writeError(w, http.StatusUnauthorized, message)
			return
		}

		sentry.CaptureException(err)
		observability.AuthOutcomes.WithLabelValues("refresh", "error").Inc()
		writeError(w, http.StatusInternalServerError, "Failed to refresh token")
		return
	}

	observability.AuthOutcomes.WithLabelValues("refresh", "ok").Inc()
	writeJSON(w, http.StatusOK, tokens)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body logoutRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := h.service.Logout(r.Context(), body.RefreshToken); err != nil {
		if message, ok := unauthorizedMessage(err); ok {
			observability.AuthOutcomes.WithLabelValues("logout", "rejected").Inc()
			writeError(w, http.StatusUnauthorized, message)
			return
		}

		sentry.CaptureException(err)
		observability.AuthOutcomes.WithLabelValues("logout", "error").Inc()
		writeError(w, http.StatusInternalServerError, "Failed to logout")
		return
	}

	observability.AuthOutcomes.WithLabelValues("logout", "ok").Inc()
	w.WriteHeader(http.StatusNoContent)
}

// Me echoes the Principal resolved by Middleware. It exists so clients (and
// downstream services) can see exactly what identity the edge attached.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	writeJSON(w, http.StatusOK, principal)
}
