package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标。
// 使用独立注册表，进程内可安全创建多个实例（测试中尤其如此）。
type Metrics struct {
	registry *prometheus.Registry

	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 邮箱指标
	MailboxesCreated prometheus.Counter
	MailboxesDeleted prometheus.Counter

	// 投递指标
	MessagesStored  prometheus.Counter
	MessagesDropped prometheus.Counter
	MessagesFailed  prometheus.Counter
}

// NewMetrics 创建监控指标。
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dropmail_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dropmail_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		MailboxesCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dropmail_mailboxes_created_total",
				Help: "Total number of mailboxes created",
			},
		),

		MailboxesDeleted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dropmail_mailboxes_deleted_total",
				Help: "Total number of mailboxes deleted",
			},
		),

		MessagesStored: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dropmail_messages_stored_total",
				Help: "Total number of inbound messages stored",
			},
		),

		MessagesDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dropmail_messages_dropped_total",
				Help: "Total number of inbound messages dropped for unknown recipients",
			},
		),

		MessagesFailed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dropmail_messages_failed_total",
				Help: "Total number of inbound messages that failed to persist",
			},
		),
	}
}

// RecordHTTPRequest 记录一次 HTTP 请求。
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordMailboxCreated 记录邮箱创建。
func (m *Metrics) RecordMailboxCreated() {
	m.MailboxesCreated.Inc()
}

// RecordMailboxDeleted 记录邮箱删除。
func (m *Metrics) RecordMailboxDeleted() {
	m.MailboxesDeleted.Inc()
}

// RecordMessageStored 记录一封邮件成功入库。
func (m *Metrics) RecordMessageStored() {
	m.MessagesStored.Inc()
}

// RecordMessageDropped 记录一封因收件人不存在被丢弃的邮件。
func (m *Metrics) RecordMessageDropped() {
	m.MessagesDropped.Inc()
}

// RecordMessageFailed 记录一封入库失败的邮件。
func (m *Metrics) RecordMessageFailed() {
	m.MessagesFailed.Inc()
}

// Handler 返回暴露本实例注册表的 Prometheus HTTP 处理器。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
