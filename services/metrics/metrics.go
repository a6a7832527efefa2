package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "enthusiasm"

// notification outcomes
const (
	OutcomeSent   = "sent"
	OutcomeFailed = "failed"
)

var (
	// Notifications counts outbound messages by channel (email, chat), backend and outcome.
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Outbound notifications by channel, backend and outcome.",
	}, []string{"channel", "backend", "outcome"})

	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Login attempts by role and outcome.",
	}, []string{"role", "outcome"})

	Registrations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Registered students.",
	})

	Attendances = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attendances_total",
		Help:      "Recorded attendances.",
	})

	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_total",
		Help:      "Uploaded submissions by kind.",
	}, []string{"kind"})
)

func Notification(channel, backend string, err error) {
	outcome := OutcomeSent
	if err != nil {
		outcome = OutcomeFailed
	}
	Notifications.WithLabelValues(channel, backend, outcome).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
