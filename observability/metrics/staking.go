package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// StakingMetrics aggregates the prometheus instruments published by the
// staking engine.
type StakingMetrics struct {
	totalStaked        prometheus.Gauge
	pendingWithdrawals prometheus.Gauge
	operations         *prometheus.CounterVec
	rewardsPaid        prometheus.Counter
}

var (
	stakingOnce     sync.Once
	stakingRegistry *StakingMetrics
)

// Staking returns the process-wide staking metrics, registering them on first
// use.
func Staking() *StakingMetrics {
	stakingOnce.Do(func() {
		stakingRegistry = &StakingMetrics{
			totalStaked: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "staking_total_staked",
				Help: "Sum of all positions' principal held by the pool vault.",
			}),
			pendingWithdrawals: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "staking_pending_withdrawals",
				Help: "Number of positions currently frozen behind a withdrawal request.",
			}),
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "staking_operations_total",
				Help: "Count of completed state transitions by operation.",
			}, []string{"op"}),
			rewardsPaid: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "staking_rewards_paid_total",
				Help: "Cumulative reward units paid out to stakers.",
			}),
		}
		prometheus.MustRegister(
			stakingRegistry.totalStaked,
			stakingRegistry.pendingWithdrawals,
			stakingRegistry.operations,
			stakingRegistry.rewardsPaid,
		)
	})
	return stakingRegistry
}

// SetTotalStaked records the pool-wide staked principal.
func (m *StakingMetrics) SetTotalStaked(total float64) {
	if m == nil {
		return
	}
	m.totalStaked.Set(total)
}

// IncPendingWithdrawals marks a new pending withdrawal request.
func (m *StakingMetrics) IncPendingWithdrawals() {
	if m == nil {
		return
	}
	m.pendingWithdrawals.Inc()
}

// DecPendingWithdrawals marks a cancelled or completed withdrawal request.
func (m *StakingMetrics) DecPendingWithdrawals() {
	if m == nil {
		return
	}
	m.pendingWithdrawals.Dec()
}

// IncOperation records a completed state transition.
func (m *StakingMetrics) IncOperation(op string) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	m.operations.WithLabelValues(op).Inc()
}

// AddRewardsPaid accumulates paid-out reward units.
func (m *StakingMetrics) AddRewardsPaid(amount float64) {
	if m == nil || amount <= 0 {
		return
	}
	m.rewardsPaid.Add(amount)
}
