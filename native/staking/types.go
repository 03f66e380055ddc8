package staking

import "math/big"

// WithdrawalRequest earmarks a position's full virtual balance for delayed
// exit. UnlockAt is fixed when the request is created, so a later change to
// the pool wait duration cannot move an already-pending unlock.
type WithdrawalRequest struct {
	RequestedAt  uint64
	UnlockAt     uint64
	LockedAmount *big.Int
}

// Position is the per-account accrual record. Principal tracks raw deposits,
// VirtualBalance is the compounding basis (principal plus interest folded in
// over time) and BankedRewards holds interest realized into a claimable
// counter but not yet paid out. A position is created on first stake and never
// deleted; zeroed fields after a full exit represent a dormant account that
// can be staked into again.
type Position struct {
	Owner           [20]byte
	Principal       *big.Int
	VirtualBalance  *big.Int
	BankedRewards   *big.Int
	LastAccrualTick uint64
	Request         *WithdrawalRequest `rlp:"nil"`
}

// Normalize replaces nil big.Int fields with zero values.
func (p *Position) Normalize() *Position {
	if p == nil {
		return nil
	}
	if p.Principal == nil {
		p.Principal = big.NewInt(0)
	}
	if p.VirtualBalance == nil {
		p.VirtualBalance = big.NewInt(0)
	}
	if p.BankedRewards == nil {
		p.BankedRewards = big.NewInt(0)
	}
	if p.Request != nil && p.Request.LockedAmount == nil {
		p.Request.LockedAmount = big.NewInt(0)
	}
	return p
}

// PoolState aggregates the pool-wide ledger: the sum of all positions'
// principal plus the rate policy. GlobalLastTick is diagnostic only; each
// position self-realizes lazily from its own last-accrual tick.
type PoolState struct {
	TotalStaked         *big.Int
	AnnualRateScaled    uint64
	WaitDurationSeconds uint64
	GlobalLastTick      uint64
}

// Normalize replaces nil big.Int fields with zero values.
func (p *PoolState) Normalize() *PoolState {
	if p == nil {
		return nil
	}
	if p.TotalStaked == nil {
		p.TotalStaked = big.NewInt(0)
	}
	return p
}

// UserInfo summarises a position for account queries.
type UserInfo struct {
	Owner           [20]byte `json:"owner"`
	Earned          *big.Int `json:"earned"`
	Principal       *big.Int `json:"principal"`
	VirtualBalance  *big.Int `json:"virtualBalance"`
	LastAccrualTick uint64   `json:"lastAccrualTick"`
	PendingRequest  bool     `json:"pendingRequest"`
	UnlockAt        uint64   `json:"unlockAt,omitempty"`
	ComputedAtUnix  int64    `json:"computedAtUnix"`
}
