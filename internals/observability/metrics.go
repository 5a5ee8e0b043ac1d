package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DecisionTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schoolerp", Name: "decision_transitions_total",
		Help: "Admission decision transitions by operation and result",
	}, []string{"operation", "result"})

	HostelBookings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schoolerp", Name: "hostel_bookings_total",
		Help: "Hostel booking attempts by result",
	}, []string{"result"})

	OTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schoolerp", Name: "otp_requests_total",
		Help: "OTP requests by purpose and result",
	}, []string{"purpose", "result"})

	EmailsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schoolerp", Name: "emails_total",
		Help: "Outgoing emails by result",
	}, []string{"result"})

	WebhookEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schoolerp", Name: "payment_webhook_events_total",
		Help: "Payment gateway notifications by processing status",
	}, []string{"status"})

	SchedulerRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schoolerp", Name: "scheduler_runs_total",
		Help: "Scheduled job runs by job and result",
	}, []string{"job", "result"})

	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "schoolerp", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(DecisionTransitions, HostelBookings, OTPRequests, EmailsSent, WebhookEvents, SchedulerRuns, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }

// Result labels an outcome as ok or the error code that stopped it.
func Result(err error, code string) string {
	if err == nil {
		return "ok"
	}
	if code != "" {
		return code
	}
	return "error"
}
