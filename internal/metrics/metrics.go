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
// サービス層・ミドルウェア・ワーカーから利用する。
type MetricsCollector interface {
	RecordGarageCreated()
	RecordSlugProbes(count int)
	RecordSlugConflict()
	RecordOwnerLogin(result string)
	RecordItemMutation(op string)
	RecordInterestCreated()
	RecordHTTPStatus(statusCode int)
	RecordPhotoFetch(duration time.Duration, ok bool)
	RecordParticipantsCleaned(count int64)
}

// オーナーログイン結果のラベル値
const (
	LoginResultSuccess  = "success"
	LoginResultInvalid  = "invalid"
	LoginResultNotFound = "not_found"
)

// 品物操作のラベル値
const (
	ItemOpCreate = "create"
	ItemOpUpdate = "update"
	ItemOpDelete = "delete"
)

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	garagesCreated      prometheus.Counter
	slugProbes          prometheus.Counter
	slugConflicts       prometheus.Counter
	ownerLogins         *prometheus.CounterVec
	itemMutations       *prometheus.CounterVec
	interests           prometheus.Counter
	httpStatus          *prometheus.CounterVec
	photoFetchLatency   *prometheus.HistogramVec
	participantsCleaned prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		garagesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "garagesale_garages_created_total",
			Help: "作成されたガレージの合計数",
		}),
		slugProbes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "garagesale_slug_probes_total",
			Help: "slugの空き確認クエリの合計数",
		}),
		slugConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "garagesale_slug_conflicts_total",
			Help: "同時作成によるslug一意制約違反の合計数",
		}),
		ownerLogins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "garagesale_owner_logins_total",
			Help: "オーナーログイン試行の結果別の合計数",
		}, []string{"result"}),
		itemMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "garagesale_item_mutations_total",
			Help: "品物の作成・更新・削除の操作別の合計数",
		}, []string{"op"}),
		interests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "garagesale_interests_total",
			Help: "登録された関心の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "garagesale_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		photoFetchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "garagesale_photo_fetch_latency_seconds",
			Help:    "写真プロキシの取得レイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		participantsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "garagesale_participants_cleaned_total",
			Help: "保持期間切れで削除された来場者の合計数",
		}),
	}

	reg.MustRegister(
		c.garagesCreated,
		c.slugProbes,
		c.slugConflicts,
		c.ownerLogins,
		c.itemMutations,
		c.interests,
		c.httpStatus,
		c.photoFetchLatency,
		c.participantsCleaned,
	)

	return c
}

// RecordGarageCreated はガレージ作成を記録する。
func (c *Collector) RecordGarageCreated() {
	c.garagesCreated.Inc()
}

// RecordSlugProbes はslugの空き確認回数を記録する。
func (c *Collector) RecordSlugProbes(count int) {
	c.slugProbes.Add(float64(count))
}

// RecordSlugConflict はslugの一意制約違反を記録する。
func (c *Collector) RecordSlugConflict() {
	c.slugConflicts.Inc()
}

// RecordOwnerLogin はオーナーログインの結果を記録する。
func (c *Collector) RecordOwnerLogin(result string) {
	c.ownerLogins.WithLabelValues(result).Inc()
}

// RecordItemMutation は品物の変更操作を記録する。
func (c *Collector) RecordItemMutation(op string) {
	c.itemMutations.WithLabelValues(op).Inc()
}

// RecordInterestCreated は関心の登録を記録する。
func (c *Collector) RecordInterestCreated() {
	c.interests.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordPhotoFetch は写真取得のレイテンシを成否別に記録する。
func (c *Collector) RecordPhotoFetch(duration time.Duration, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	c.photoFetchLatency.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordParticipantsCleaned は削除された来場者数を記録する。
func (c *Collector) RecordParticipantsCleaned(count int64) {
	c.participantsCleaned.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var _ MetricsCollector = (*Collector)(nil)
