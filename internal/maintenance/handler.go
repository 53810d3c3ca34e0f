package maintenance

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"elearn-auth/internal/observability"
)

// SessionCleaner is the slice of the auth repository the cleanup job needs.
type SessionCleaner interface {
	CleanupExpiredSessions(ctx context.Context, retention time.Duration, batchSize int) (int64, error)
}

// CleanupHandler deletes device sessions that expired before the retention
// cutoff. It is meant to be driven by an external cron and is disabled
// entirely unless a cron secret is configured.
type CleanupHandler struct {
	cleaner    SessionCleaner
	logger     *observability.Logger
	cronSecret string
	retention  time.Duration
	batchSize  int
}

func NewCleanupHandler(cleaner SessionCleaner, logger *observability.Logger, cronSecret string, retention time.Duration, batchSize int) *CleanupHandler {
	return &CleanupHandler{
		cleaner:    cleaner,
		logger:     logger,
		cronSecret: strings.TrimSpace(cronSecret),
		retention:  retention,
		batchSize:  batchSize,
	}
}

func (h *CleanupHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.cronSecret == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) != h.cronSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	deleted, err := h.cleaner.CleanupExpiredSessions(r.Context(), h.retention, h.batchSize)
	if err != nil {
		h.logger.Error("session_cleanup_failed", map[string]any{"error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "cleanup failed"})
		return
	}

	h.logger.Info("session_cleanup_completed", map[string]any{
		"deleted_sessions": deleted,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"deleted_sessions": deleted,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
