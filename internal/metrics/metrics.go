// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what services and middleware report to
type Recorder interface {
	RecordOTPSent(channel string, ok bool)
	RecordSignup(kind, stage string)
	RecordLogin(kind, result string)
	RecordSMSStatus(status string)
	RecordHTTPRequest(method string, status int, d time.Duration)
	RecordStagingPurged(n int)
}

// Collector is the Prometheus implementation of Recorder
type Collector struct {
	otpSent       *prometheus.CounterVec
	signups       *prometheus.CounterVec
	logins        *prometheus.CounterVec
	smsStatus     *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpLatency   prometheus.Histogram
	stagingPurged prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		otpSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "washpe_otp_sent_total",
			Help: "OTP deliveries by channel and result",
		}, []string{"channel", "result"}),
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "washpe_signups_total",
			Help: "Signup flow transitions by actor kind and stage",
		}, []string{"kind", "stage"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "washpe_logins_total",
			Help: "Login verifications by actor kind and result",
		}, []string{"kind", "result"}),
		smsStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "washpe_sms_status_total",
			Help: "SMS delivery status callbacks by status",
		}, []string{"status"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "washpe_http_requests_total",
			Help: "HTTP responses by method and status code",
		}, []string{"method", "status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "washpe_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		stagingPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "washpe_staging_purged_total",
			Help: "Expired registrations removed by the purge job",
		}),
	}

	reg.MustRegister(
		c.otpSent,
		c.signups,
		c.logins,
		c.smsStatus,
		c.httpRequests,
		c.httpLatency,
		c.stagingPurged,
	)

	return c
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func (c *Collector) RecordOTPSent(channel string, ok bool) {
	c.otpSent.WithLabelValues(channel, result(ok)).Inc()
}

func (c *Collector) RecordSignup(kind, stage string) {
	c.signups.WithLabelValues(kind, stage).Inc()
}

func (c *Collector) RecordLogin(kind, result string) {
	c.logins.WithLabelValues(kind, result).Inc()
}

func (c *Collector) RecordSMSStatus(status string) {
	c.smsStatus.WithLabelValues(status).Inc()
}

func (c *Collector) RecordHTTPRequest(method string, status int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.httpLatency.Observe(d.Seconds())
}

func (c *Collector) RecordStagingPurged(n int) {
	c.stagingPurged.Add(float64(n))
}

// Nop discards everything; used where metrics are not wired
type Nop struct{}

func (Nop) RecordOTPSent(string, bool)                   {}
func (Nop) RecordSignup(string, string)                  {}
func (Nop) RecordLogin(string, string)                   {}
func (Nop) RecordSMSStatus(string)                       {}
func (Nop) RecordHTTPRequest(string, int, time.Duration) {}
func (Nop) RecordStagingPurged(int)                      {}

// Handler returns the Prometheus scrape handler for gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
