package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SOS 业务指标
	SignalsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sos_signals_created_total",
		Help: "SOS signals created",
	})
	OffersRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sos_helper_offers_total",
		Help: "Helper offers recorded",
	})
	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sos_lifecycle_transitions_total",
		Help: "Signal lifecycle transitions by target state and outcome",
	}, []string{"target", "outcome"})
)

// RecordTransition outcome 为 "ok" 或拒绝原因（forbidden / invalid_transition 等）
func RecordTransition(target, outcome string) {
	Transitions.WithLabelValues(target, outcome).Inc()
}

// Handler 暴露 /metrics
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
