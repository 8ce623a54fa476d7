package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EntriesCommitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_entries_total",
			Help: "Ledger entries committed, by kind.",
		},
		[]string{"kind"},
	)

	LedgerRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_rejections_total",
			Help: "Ledger operations rejected before commit, by reason.",
		},
		[]string{"reason"},
	)

	RoundsSettled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "game_rounds_settled_total",
			Help: "Game rounds settled through the ledger.",
		},
	)
)

// Handler serves the Prometheus scrape endpoint.
var Handler = promhttp.Handler

// Register installs all collectors on the default registry. Call once at
// startup; the counters work unregistered, so tests skip this.
func Register() {
	prometheus.MustRegister(EntriesCommitted)
	prometheus.MustRegister(LedgerRejections)
	prometheus.MustRegister(RoundsSettled)
}
