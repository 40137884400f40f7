package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for danledger.
type Metrics struct {
	// --- Operations ---
	OpsApplied  *prometheus.CounterVec
	OpsRejected *prometheus.CounterVec
	OpDuration  *prometheus.HistogramVec

	// --- Value flow ---
	TokensMintedBase  prometheus.Counter
	EscrowDebited     prometheus.Counter
	CurrencyPaidBase  prometheus.Counter
	AllowanceCredited prometheus.Counter
	AllowanceDebited  prometheus.Counter

	// --- RPC surface ---
	RequestDedupeHits *prometheus.CounterVec
	PublishDrops      prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	latencyBuckets := []float64{
		0.00005, 0.0001, 0.00025, 0.0005, 0.001,
		0.002, 0.005, 0.01, 0.025, 0.05, 0.1,
	}

	return &Metrics{
		OpsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dan_ledger_ops_applied_total",
			Help: "Operations successfully applied",
		}, []string{"op"}),

		OpsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dan_ledger_ops_rejected_total",
			Help: "Operations rejected, by error kind",
		}, []string{"op", "reason"}),

		OpDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dan_ledger_op_duration_seconds",
			Help:    "Time to execute a single operation",
			Buckets: latencyBuckets,
		}, []string{"op"}),

		TokensMintedBase: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dan_ledger_tokens_minted_base_total",
			Help: "DAN base units minted by distributions",
		}),

		EscrowDebited: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dan_ledger_escrow_debited_total",
			Help: "Currency units debited from demander escrow",
		}),

		CurrencyPaidBase: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dan_ledger_currency_paid_base_total",
			Help: "Currency base units paid out by withdrawals",
		}),

		AllowanceCredited: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dan_ledger_allowance_credited_total",
			Help: "Withdrawal allowance credited to workers",
		}),

		AllowanceDebited: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dan_ledger_allowance_debited_total",
			Help: "Withdrawal allowance consumed by withdrawals",
		}),

		RequestDedupeHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dan_ledger_request_dedupe_hits_total",
			Help: "Requests answered from the dedupe cache",
		}, []string{"op"}),

		PublishDrops: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dan_ledger_publish_drops_total",
			Help: "Outbound events dropped due to a full publish channel",
		}),
	}
}
