package middleware

import "net/http"

// HTTPMetrics はレスポンスステータスの計測フック。
type HTTPMetrics interface {
	RecordHTTPStatus(statusCode int)
}

// nopHTTPMetrics は計測を無効化するHTTPMetrics実装。
type nopHTTPMetrics struct{}

func (nopHTTPMetrics) RecordHTTPStatus(statusCode int) {}

// NewHTTPMetricsMiddleware は全レスポンスのステータスコードを計数する
// ミドルウェアを返す。metricsがnilの場合は計測なしで透過する。
func NewHTTPMetricsMiddleware(metrics HTTPMetrics) func(next http.Handler) http.Handler {
	if metrics == nil {
		metrics = nopHTTPMetrics{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}
			next.ServeHTTP(rec, r)
			metrics.RecordHTTPStatus(rec.statusCode)
		})
	}
}
