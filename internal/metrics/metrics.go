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
// ポーリングワーカーから利用する。
type MetricsCollector interface {
	RecordCycleSuccess()
	RecordCyclePartial()
	RecordFetchFailure(endpoint string)
	RecordParseFailure(endpoint string, count int)
	RecordHTTPStatus(statusCode int)
	RecordCycleLatency(duration time.Duration)
	RecordCoverage(missingProposals, missingReviews int, proposalsDonePct, reviewsDonePct float64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	cycleSuccess     prometheus.Counter
	cyclePartial     prometheus.Counter
	fetchFail        *prometheus.CounterVec
	parseFail        *prometheus.CounterVec
	httpStatus       *prometheus.CounterVec
	cycleLatency     prometheus.Histogram
	missingProposals prometheus.Gauge
	missingReviews   prometheus.Gauge
	proposalsDonePct prometheus.Gauge
	reviewsDonePct   prometheus.Gauge
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		cycleSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reviewmon_cycle_success_total",
			Help: "完全なデータで完了したポーリングサイクルの合計数",
		}),
		cyclePartial: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reviewmon_cycle_partial_total",
			Help: "不完全なデータで完了したポーリングサイクルの合計数",
		}),
		fetchFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reviewmon_fetch_fail_total",
			Help: "エンドポイント別のページフェッチ失敗の合計数",
		}, []string{"endpoint"}),
		parseFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reviewmon_parse_fail_total",
			Help: "エンドポイント別のレコードパース失敗の合計数",
		}, []string{"endpoint"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reviewmon_http_status_total",
			Help: "HTTPステータスコード別のAPIエラーレスポンス数",
		}, []string{"status_code"}),
		cycleLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reviewmon_cycle_latency_seconds",
			Help:    "ポーリングサイクルのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		missingProposals: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reviewmon_missing_proposals",
			Help: "目標レビュー数に達していない投稿数",
		}),
		missingReviews: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reviewmon_missing_reviews",
			Help: "不足しているレビューの総数",
		}),
		proposalsDonePct: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reviewmon_proposals_done_percent",
			Help: "レビュー完了した投稿の割合（%）",
		}),
		reviewsDonePct: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reviewmon_reviews_done_percent",
			Help: "完了したレビューの割合（%）",
		}),
	}

	reg.MustRegister(
		c.cycleSuccess,
		c.cyclePartial,
		c.fetchFail,
		c.parseFail,
		c.httpStatus,
		c.cycleLatency,
		c.missingProposals,
		c.missingReviews,
		c.proposalsDonePct,
		c.reviewsDonePct,
	)

	return c
}

// RecordCycleSuccess は完全なデータでのサイクル完了を記録する。
func (c *Collector) RecordCycleSuccess() {
	c.cycleSuccess.Inc()
}

// RecordCyclePartial は不完全なデータでのサイクル完了を記録する。
func (c *Collector) RecordCyclePartial() {
	c.cyclePartial.Inc()
}

// RecordFetchFailure はページフェッチ失敗を記録する。
func (c *Collector) RecordFetchFailure(endpoint string) {
	c.fetchFail.WithLabelValues(endpoint).Inc()
}

// RecordParseFailure はレコードパース失敗を記録する。
func (c *Collector) RecordParseFailure(endpoint string, count int) {
	if count <= 0 {
		return
	}
	c.parseFail.WithLabelValues(endpoint).Add(float64(count))
}

// RecordHTTPStatus はAPIレスポンスのHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordCycleLatency はポーリングサイクルのレイテンシを記録する。
func (c *Collector) RecordCycleLatency(duration time.Duration) {
	c.cycleLatency.Observe(duration.Seconds())
}

// RecordCoverage は最新サイクルのカバレッジ値をゲージに反映する。
func (c *Collector) RecordCoverage(missingProposals, missingReviews int, proposalsDonePct, reviewsDonePct float64) {
	c.missingProposals.Set(float64(missingProposals))
	c.missingReviews.Set(float64(missingReviews))
	c.proposalsDonePct.Set(proposalsDonePct)
	c.reviewsDonePct.Set(reviewsDonePct)
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
