package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Check-in outcome labels.
const (
	checkInSuccess   = "success"
	checkInDuplicate = "duplicate"
	checkInBadToken  = "invalid_token"
	checkInNoMember  = "member_not_found"
	checkInNoEvent   = "event_not_found"
	checkInInvalid   = "invalid_input"
	checkInFailed    = "error"
	checkInForbidden = "unauthorized"
)

// Login link issuance paths.
const (
	issuedByProvider = "provider"
	issuedByDevToken = "dev"
	issuedNone       = "none"
)

// Metrics holds the service-level Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	checkIns         *prometheus.CounterVec
	loginLinks       *prometheus.CounterVec
	devTokenConsumed prometheus.Counter
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		checkIns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flock",
			Name:      "checkins_total",
			Help:      "Check-in attempts by result.",
		}, []string{"result"}),
		loginLinks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flock",
			Name:      "login_links_total",
			Help:      "Login link requests for known members by issuance path.",
		}, []string{"path"}),
		devTokenConsumed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "flock",
			Name:      "dev_tokens_consumed_total",
			Help:      "Development login tokens successfully exchanged for a session.",
		}),
	}
}

func (m *Metrics) checkIn(result string) {
	if m == nil {
		return
	}
	m.checkIns.WithLabelValues(result).Inc()
}

func (m *Metrics) loginLink(path string) {
	if m == nil {
		return
	}
	m.loginLinks.WithLabelValues(path).Inc()
}

func (m *Metrics) devTokenUsed() {
	if m == nil {
		return
	}
	m.devTokenConsumed.Inc()
}
