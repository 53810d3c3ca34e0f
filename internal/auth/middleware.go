package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"

	"elearn-auth/internal/observability"
)

type contextKey struct{}

var principalKey contextKey

// Middleware guards a protected route: it extracts the bearer token, runs the
// full access validation, and attaches the resolved Principal to the request
// context. Downstream handlers trust the Principal without re-validating.
func Middleware(authn *Service, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			observability.AuthOutcomes.WithLabelValues("access", "missing_token").Inc()
			writeError(w, http.StatusUnauthorized, "Missing or malformed authorization header")
			return
		}

		principal, err := authn.ValidateAccess(r.Context(), token)
		if err != nil {
			if message, ok := unauthorizedMessage(err); ok {
				observability.AuthOutcomes.WithLabelValues("access", "rejected").Inc()
				writeError(w, http.StatusUnauthorized, message)
				return
			}

			sentry.CaptureException(err)
			observability.AuthOutcomes.WithLabelValues("access", "error").Inc()
			writeError(w, http.StatusInternalServerError, "Failed to authenticate request")
			return
		}

		observability.AuthOutcomes.WithLabelValues("access", "ok").Inc()
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey, principal)))
	})
}

// PrincipalFrom returns the Principal attached by Middleware. The second
// return is false on unauthenticated requests.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	principal, ok := ctx.Value(principalKey).(Principal)
	return principal, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}
