// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層から利用する。
type MetricsCollector interface {
	RecordSnapshot(duration time.Duration)
	RecordRecalcSuccess()
	RecordRecalcFailure()
	RecordNotificationStored()
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	snapshotTotal       prometheus.Counter
	snapshotLatency     prometheus.Histogram
	recalcSuccess       prometheus.Counter
	recalcFail          prometheus.Counter
	notificationsStored prometheus.Counter
	httpStatus          *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		snapshotTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kpiboard_snapshot_total",
			Help: "KPIスナップショット生成の合計数",
		}),
		snapshotLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kpiboard_snapshot_latency_seconds",
			Help:    "KPIスナップショット生成のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		recalcSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kpiboard_recalc_success_total",
			Help: "KPI達成率再計算成功の合計数",
		}),
		recalcFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kpiboard_recalc_fail_total",
			Help: "KPI達成率再計算失敗の合計数",
		}),
		notificationsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kpiboard_notifications_stored_total",
			Help: "保存された通知の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kpiboard_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.snapshotTotal,
		c.snapshotLatency,
		c.recalcSuccess,
		c.recalcFail,
		c.notificationsStored,
		c.httpStatus,
	)

	return c
}

// RecordSnapshot はスナップショット生成1回分を記録する。
func (c *Collector) RecordSnapshot(duration time.Duration) {
	c.snapshotTotal.Inc()
	c.snapshotLatency.Observe(duration.Seconds())
}

// RecordRecalcSuccess は再計算成功を記録する。
func (c *Collector) RecordRecalcSuccess() {
	c.recalcSuccess.Inc()
}

// RecordRecalcFailure は再計算失敗を記録する。
func (c *Collector) RecordRecalcFailure() {
	c.recalcFail.Inc()
}

// RecordNotificationStored は通知の保存を記録する。
func (c *Collector) RecordNotificationStored() {
	c.notificationsStored.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
