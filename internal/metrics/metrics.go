// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// authstate.Metrics と middleware.GuardMetrics の両方を満たす。
type Collector struct {
	signInSuccess prometheus.Counter
	signInFail    *prometheus.CounterVec
	bootstrap     *prometheus.CounterVec
	lookupRetry   prometheus.Counter
	guardDecision *prometheus.CounterVec
	httpStatus    *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signInSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "allstar_signin_success_total",
			Help: "サインイン成功の合計数",
		}),
		signInFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "allstar_signin_fail_total",
			Help: "サインイン失敗の理由別合計数",
		}, []string{"reason"}),
		bootstrap: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "allstar_bootstrap_total",
			Help: "セッション復元の結果別合計数",
		}, []string{"outcome"}),
		lookupRetry: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "allstar_profile_lookup_retry_total",
			Help: "プロファイル取得リトライの合計数",
		}),
		guardDecision: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "allstar_guard_decision_total",
			Help: "ルートガード判定の結果別合計数",
		}, []string{"outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "allstar_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.signInSuccess,
		c.signInFail,
		c.bootstrap,
		c.lookupRetry,
		c.guardDecision,
		c.httpStatus,
	)

	return c
}

// RecordSignInSuccess はサインイン成功を記録する。
func (c *Collector) RecordSignInSuccess() {
	c.signInSuccess.Inc()
}

// RecordSignInFailure はサインイン失敗を理由付きで記録する。
func (c *Collector) RecordSignInFailure(reason string) {
	c.signInFail.WithLabelValues(reason).Inc()
}

// RecordBootstrap はセッション復元の結果を記録する。
func (c *Collector) RecordBootstrap(outcome string) {
	c.bootstrap.WithLabelValues(outcome).Inc()
}

// RecordLookupRetry はプロファイル取得のリトライを記録する。
func (c *Collector) RecordLookupRetry() {
	c.lookupRetry.Inc()
}

// RecordGuardDecision はルートガードの判定結果を記録する。
func (c *Collector) RecordGuardDecision(outcome string) {
	c.guardDecision.WithLabelValues(outcome).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// SetupMetricsRoute はPrometheusメトリクス公開用のHTTPハンドラーを返す。
func SetupMetricsRoute(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
