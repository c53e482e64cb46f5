package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Placement outcomes recorded on placement_requests_total.
const (
	OutcomePlaced        = "placed"
	OutcomeAlreadyPlaced = "already_placed"
	OutcomeRejected      = "rejected"
	OutcomeError         = "error"
)

// Retry reasons recorded on placement_retries_total.
const (
	RetrySlotConflict = "slot_conflict"
	RetryUnavailable  = "unavailable"
)

// Release triggers recorded on placement_commissions_released_total.
const (
	TriggerPairing   = "pairing"
	TriggerMaxDepth  = "max_depth"
	TriggerReconcile = "reconcile"
)

// Metrics provides observability for the placement module.
type Metrics struct {
	Requests            *prometheus.CounterVec
	Retries             *prometheus.CounterVec
	CommissionsReleased *prometheus.CounterVec
	RewardsUnlocked     prometheus.Counter
	ResolveDuration     prometheus.Histogram
	BFSNodesVisited     prometheus.Histogram
	EventsFailed        prometheus.Counter
}

// New creates the placement metrics on reg. A nil registerer uses the default
// Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "placement_requests_total",
			Help: "PlaceAgent calls by outcome",
		}, []string{"outcome"}),
		Retries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "placement_retries_total",
			Help: "Placement attempts retried after a conflict or transient store error",
		}, []string{"reason"}),
		CommissionsReleased: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "placement_commissions_released_total",
			Help: "Commissions moved to paid, by trigger",
		}, []string{"trigger"}),
		RewardsUnlocked: factory.NewCounter(prometheus.CounterOpts{
			Name: "placement_rewards_unlocked_total",
			Help: "Locked rewards released by the max-depth trigger",
		}),
		ResolveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "placement_resolve_duration_seconds",
			Help:    "Duration of slot resolution including the downline search",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		BFSNodesVisited: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "placement_bfs_nodes_visited",
			Help:    "Nodes inspected by a downline search before a free slot was found",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		EventsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "placement_events_failed_total",
			Help: "Placement events that could not be published",
		}),
	}
}

func (m *Metrics) IncrementRequest(outcome string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementRetry(reason string) {
	if m == nil {
		return
	}
	m.Retries.WithLabelValues(reason).Inc()
}

func (m *Metrics) AddCommissionsReleased(trigger string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CommissionsReleased.WithLabelValues(trigger).Add(float64(n))
}

func (m *Metrics) AddRewardsUnlocked(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RewardsUnlocked.Add(float64(n))
}

// ObserveResolve records the duration of a resolve call started at start.
func (m *Metrics) ObserveResolve(start time.Time) {
	if m == nil {
		return
	}
	m.ResolveDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveBFSNodes(n int) {
	if m == nil {
		return
	}
	m.BFSNodesVisited.Observe(float64(n))
}

func (m *Metrics) IncrementEventsFailed() {
	if m == nil {
		return
	}
	m.EventsFailed.Inc()
}
