package certification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "certification_transitions_total",
		Help: "Certification request status transitions by outcome.",
	}, []string{"from", "to", "result"})

	membershipsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memberships_issued_total",
		Help: "Memberships minted on approval.",
	})

	verificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "membership_verifications_total",
		Help: "Public membership verifications by outcome.",
	}, []string{"result"})
)
