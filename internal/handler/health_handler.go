package handler

import (
	"context"
	"net/http"

	"github.com/allstar/sportshub/internal/model"
)

// Pinger はデータベース疎通確認のインターフェース。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// NewHealthHandler はヘルスチェックエンドポイントのハンドラーを返す。
// GET /healthz
func NewHealthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			writeAPIErrorResponse(w, http.StatusServiceUnavailable, &model.APIError{
				Code:     "UNHEALTHY",
				Message:  "Database is unreachable.",
				Category: "system",
				Action:   "Check the database connection.",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
