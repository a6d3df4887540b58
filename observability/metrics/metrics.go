package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine operation counters and gauges. Registered on the default registerer
// so the daemon only has to expose promhttp.Handler.
var (
	TicksProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pyro",
		Subsystem: "engine",
		Name:      "ticks_processed_total",
		Help:      "Emission ticks processed, counting catch-up batches per tick.",
	})
	Burns = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pyro",
		Subsystem: "engine",
		Name:      "burns_total",
		Help:      "Accepted normal burns.",
	})
	EventBurns = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pyro",
		Subsystem: "engine",
		Name:      "event_burns_total",
		Help:      "Accepted event burns.",
	})
	Claims = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pyro",
		Subsystem: "engine",
		Name:      "claims_total",
		Help:      "Settlement claims that advanced the settled-day pointer.",
	})
	NodeClaims = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pyro",
		Subsystem: "engine",
		Name:      "node_claims_total",
		Help:      "Successful node seat withdrawals.",
	})
	Cascades = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pyro",
		Subsystem: "engine",
		Name:      "cascades_total",
		Help:      "Upline grants applied through the referral cascade.",
	})
	Rejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pyro",
		Subsystem: "engine",
		Name:      "rejections_total",
		Help:      "Rejected state-mutating calls by reason.",
	}, []string{"reason"})
	TotalPower = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pyro",
		Subsystem: "engine",
		Name:      "total_power",
		Help:      "Current global entitlement, scaled to float.",
	})
	PoolBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pyro",
		Subsystem: "engine",
		Name:      "pool_balance",
		Help:      "Engine pool balance, scaled to float.",
	})
)
