package metrics

import (
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	initOnce sync.Once

	httpRequests *prometheus.CounterVec

	// AttachmentUploads counts files that completed the attachment pipeline.
	AttachmentUploads prometheus.Counter
	// AttachmentFailures counts files that reached the error terminal stage.
	AttachmentFailures prometheus.Counter
	// AttachmentBytesStored accumulates compressed bytes written to storage.
	AttachmentBytesStored prometheus.Counter
)

// InitMetrics registers the application collectors. Safe to call more than
// once.
func InitMetrics() {
	initOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldlog_http_requests_total",
			Help: "HTTP requests by method, path, and status.",
		}, []string{"method", "path", "status"})

		AttachmentUploads = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldlog_attachment_uploads_total",
			Help: "Files that completed the attachment pipeline.",
		})
		AttachmentFailures = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldlog_attachment_failures_total",
			Help: "Files that failed the attachment pipeline.",
		})
		AttachmentBytesStored = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldlog_attachment_bytes_stored_total",
			Help: "Compressed bytes written to object storage.",
		})

		prometheus.MustRegister(httpRequests, AttachmentUploads, AttachmentFailures, AttachmentBytesStored)
	})
}

// Middleware counts requests per route and status.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if httpRequests == nil {
			return
		}
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Register attaches the Prometheus metrics endpoint to the router.
func Register(router *gin.Engine, path string) {
	router.GET(path, gin.WrapH(promhttp.Handler()))
}
