package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 账本核心指标
var (
	PledgesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pledge_pledges_total",
		Help: "Total number of pledges recorded",
	})

	PledgedAmountTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pledge_pledged_amount_total",
		Help: "Total gross amount pledged",
	})

	RaffleRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pledge_raffle_requests_total",
		Help: "Randomness requests opened, by scope kind",
	}, []string{"scope"})

	RaffleFulfillmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pledge_raffle_fulfillments_total",
		Help: "Randomness fulfillments processed, by scope kind",
	}, []string{"scope"})

	PrizesDistributedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pledge_prizes_distributed_total",
		Help: "Prizes transferred to winners",
	})

	PendingRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pledge_pending_randomness_requests",
		Help: "Randomness requests currently awaiting fulfillment",
	})
)
