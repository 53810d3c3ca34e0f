package maintenance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"elearn-auth/internal/observability"
)

type fakeCleaner struct {
	deleted int64
	err     error
	calls   int
}

func (f *fakeCleaner) CleanupExpiredSessions(ctx context.Context, retention time.Duration, batchSize int) (int64, error) {
	f.calls++
	return f.deleted, f.err
}

func newTestHandler(cleaner *fakeCleaner, secret string) *CleanupHandler {
	return NewCleanupHandler(cleaner, observability.NewLogger("test"), secret, 14*24*time.Hour, 500)
}

func TestCleanupDisabledWithoutSecret(t *testing.T) {
	cleaner := &fakeCleaner{}
	handler := newTestHandler(cleaner, "")

	req := httptest.NewRequest(http.MethodPost, "/internal/maintenance/cleanup", nil)
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if cleaner.calls != 0 {
		t.Fatal("cleanup ran without a configured secret")
	}
}

func TestCleanupRejectsWrongSecret(t *testing.T) {
	cleaner := &fakeCleaner{}
	handler := newTestHandler(cleaner, "cron-secret")

	req := httptest.NewRequest(http.MethodPost, "/internal/maintenance/cleanup", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if cleaner.calls != 0 {
		t.Fatal("cleanup ran with a wrong secret")
	}
}

func TestCleanupRuns(t *testing.T) {
	cleaner := &fakeCleaner{deleted: 42}
	handler := newTestHandler(cleaner, "cron-secret")

	req := httptest.NewRequest(http.MethodPost, "/internal/maintenance/cleanup", nil)
	req.Header.Set("Authorization", "Bearer cron-secret")
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if cleaner.calls != 1 {
		t.Fatalf("expected one cleanup call, got %d", cleaner.calls)
	}
}
