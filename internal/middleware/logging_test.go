package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/allstar/sportshub/internal/model"
)

func captureLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewJSONHandler(buf, nil)), buf
}

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("failed to decode log record: %v", err)
	}
	return record
}

func TestLogging_RecordsMethodPathStatusDuration(t *testing.T) {
	logger, buf := captureLogger()
	handler := NewLoggingMiddleware(logger)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	record := decodeLogLine(t, buf)
	if record["method"] != "GET" {
		t.Errorf("method = %v", record["method"])
	}
	if record["path"] != "/products" {
		t.Errorf("path = %v", record["path"])
	}
	if record["status"] != float64(http.StatusOK) {
		t.Errorf("status = %v", record["status"])
	}
	if _, ok := record["duration_ms"]; !ok {
		t.Error("duration_ms should be recorded")
	}
	if record["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", record["level"])
	}
}

func TestLogging_ServerError_LogsAtErrorLevel(t *testing.T) {
	logger, buf := captureLogger()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	handler := NewLoggingMiddleware(logger)(next)

	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	record := decodeLogLine(t, buf)
	if record["level"] != "ERROR" {
		t.Errorf("level = %v, want ERROR", record["level"])
	}
}

func TestLogging_ClientError_LogsAtWarnLevel(t *testing.T) {
	logger, buf := captureLogger()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	handler := NewLoggingMiddleware(logger)(next)

	req := httptest.NewRequest(http.MethodGet, "/customers/missing", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	record := decodeLogLine(t, buf)
	if record["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", record["level"])
	}
}

func TestLogging_AuthenticatedRequest_IncludesUserAttributes(t *testing.T) {
	logger, buf := captureLogger()
	handler := NewLoggingMiddleware(logger)(okHandler())

	user := &model.User{ID: "user-7", Role: model.RoleManager}
	req := httptest.NewRequest(http.MethodGet, "/finance", nil)
	req = req.WithContext(ContextWithUser(req.Context(), user))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	record := decodeLogLine(t, buf)
	if record["user_id"] != "user-7" {
		t.Errorf("user_id = %v", record["user_id"])
	}
	if record["role"] != "manager" {
		t.Errorf("role = %v", record["role"])
	}
}

func TestLogging_UnauthenticatedRequest_OmitsUserAttributes(t *testing.T) {
	logger, buf := captureLogger()
	handler := NewLoggingMiddleware(logger)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	record := decodeLogLine(t, buf)
	if _, ok := record["user_id"]; ok {
		t.Error("user_id should not be present without authentication")
	}
}
