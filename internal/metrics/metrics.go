package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the application counters. Each server owns its own registry
// so that tests can build servers side by side.
type Metrics struct {
	// OTP / login metrics
	OTPIssuedTotal     prometheus.Counter
	LoginAttemptsTotal *prometheus.CounterVec // outcome: success, mismatch, not_found
	ChallengesExpired  prometheus.Counter
	ChallengesPending  prometheus.Gauge
	EmailDeliveryTotal *prometheus.CounterVec // status: sent, failed, disabled
	LogoutsTotal       prometheus.Counter

	// Calculator metrics
	CalculationsTotal *prometheus.CounterVec // status: ok, invalid
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		OTPIssuedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "app_otp_issued_total",
			Help: "Total number of OTP challenges issued.",
		}),
		LoginAttemptsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "app_login_attempts_total",
			Help: "Total number of OTP verification attempts by outcome.",
		}, []string{"outcome"}),
		ChallengesExpired: f.NewCounter(prometheus.CounterOpts{
			Name: "app_otp_expired_total",
			Help: "Total number of OTP challenges removed after expiring.",
		}),
		ChallengesPending: f.NewGauge(prometheus.GaugeOpts{
			Name: "app_otp_pending",
			Help: "Number of OTP challenges currently held in memory.",
		}),
		EmailDeliveryTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "app_email_delivery_total",
			Help: "Total number of OTP email deliveries by status.",
		}, []string{"status"}),
		LogoutsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "app_logouts_total",
			Help: "Total number of logouts.",
		}),
		CalculationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "app_circle_calculations_total",
			Help: "Total number of circle calculations by status.",
		}, []string{"status"}),
	}
}

// RegisterRuntimeCollectors adds the process and Go runtime collectors to reg.
func RegisterRuntimeCollectors(reg prometheus.Registerer) {
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(collectors.NewGoCollector())
}
