package staking

import (
	"fmt"
	"math/big"

	"yieldpool/core/types"
)

const (
	EventTypeStaked              = "staking.staked"
	EventTypeWithdrawn           = "staking.withdrawn"
	EventTypeRewardsClaimed      = "staking.rewards_claimed"
	EventTypeWithdrawRequested   = "staking.withdrawal_requested"
	EventTypeWithdrawCancelled   = "staking.withdrawal_cancelled"
	EventTypeWithdrawCompleted   = "staking.withdrawal_completed"
	EventTypeRateUpdated         = "staking.rate_updated"
	EventTypeWaitUpdated         = "staking.wait_updated"
	EventTypeEmergencyWithdrawal = "staking.emergency_withdrawal"
)

func addrString(addr [20]byte) string {
	return fmt.Sprintf("0x%x", addr)
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func uintString(v uint64) string {
	return fmt.Sprintf("%d", v)
}

// StakedEvent is emitted when principal enters a position.
type StakedEvent struct {
	Owner     [20]byte
	Amount    *big.Int
	Principal *big.Int
	Tick      uint64
}

func (StakedEvent) EventType() string { return EventTypeStaked }

func (e StakedEvent) Event() *types.Event {
	return &types.Event{
		Type: EventTypeStaked,
		Attributes: map[string]string{
			"owner":     addrString(e.Owner),
			"amount":    formatAmount(e.Amount),
			"principal": formatAmount(e.Principal),
			"tick":      uintString(e.Tick),
		},
	}
}

// WithdrawnEvent is emitted when principal leaves a position through the plain
// withdrawal path or an exit.
type WithdrawnEvent struct {
	Owner     [20]byte
	Amount    *big.Int
	Principal *big.Int
	Tick      uint64
}

func (WithdrawnEvent) EventType() string { return EventTypeWithdrawn }

func (e WithdrawnEvent) Event() *types.Event {
	return &types.Event{
		Type: EventTypeWithdrawn,
		Attributes: map[string]string{
			"owner":     addrString(e.Owner),
			"amount":    formatAmount(e.Amount),
			"principal": formatAmount(e.Principal),
			"tick":      uintString(e.Tick),
		},
	}
}

// RewardsClaimedEvent is emitted when banked rewards are paid out.
type RewardsClaimedEvent struct {
	Owner  [20]byte
	Amount *big.Int
	Banked *big.Int
	Tick   uint64
}

func (RewardsClaimedEvent) EventType() string { return EventTypeRewardsClaimed }

func (e RewardsClaimedEvent) Event() *types.Event {
	return &types.Event{
		Type: EventTypeRewardsClaimed,
		Attributes: map[string]string{
			"owner":  addrString(e.Owner),
			"amount": formatAmount(e.Amount),
			"banked": formatAmount(e.Banked),
			"tick":   uintString(e.Tick),
		},
	}
}

// WithdrawRequestedEvent is emitted when a position enters the pending
// withdrawal state. UnlockAt carries the wall-clock time at which completion
// becomes possible.
type WithdrawRequestedEvent struct {
	Owner        [20]byte
	LockedAmount *big.Int
	RequestedAt  uint64
	UnlockAt     uint64
}

func (WithdrawRequestedEvent) EventType() string { return EventTypeWithdrawRequested }

func (e WithdrawRequestedEvent) Event() *types.Event {
	return &types.Event{
		Type: EventTypeWithdrawRequested,
		Attributes: map[string]string{
			"owner":       addrString(e.Owner),
			"locked":      formatAmount(e.LockedAmount),
			"requestedAt": uintString(e.RequestedAt),
			"unlockAt":    uintString(e.UnlockAt),
		},
	}
}

// WithdrawCancelledEvent is emitted when a pending request is abandoned and
// the position returns to active accrual.
type WithdrawCancelledEvent struct {
	Owner [20]byte
}

func (WithdrawCancelledEvent) EventType() string { return EventTypeWithdrawCancelled }

func (e WithdrawCancelledEvent) Event() *types.Event {
	return &types.Event{
		Type: EventTypeWithdrawCancelled,
		Attributes: map[string]string{
			"owner": addrString(e.Owner),
		},
	}
}

// WithdrawCompletedEvent is emitted when a matured request pays out.
type WithdrawCompletedEvent struct {
	Owner  [20]byte
	Amount *big.Int
}

func (WithdrawCompletedEvent) EventType() string { return EventTypeWithdrawCompleted }

func (e WithdrawCompletedEvent) Event() *types.Event {
	return &types.Event{
		Type: EventTypeWithdrawCompleted,
		Attributes: map[string]string{
			"owner":  addrString(e.Owner),
			"amount": formatAmount(e.Amount),
		},
	}
}

// RateUpdatedEvent is emitted when the operator changes the annual rate.
type RateUpdatedEvent struct {
	Caller   [20]byte
	OldScale uint64
	NewScale uint64
}

func (RateUpdatedEvent) EventType() string { return EventTypeRateUpdated }

func (e RateUpdatedEvent) Event() *types.Event {
	return &types.Event{
		Type: EventTypeRateUpdated,
		Attributes: map[string]string{
			"caller": addrString(e.Caller),
			"old":    uintString(e.OldScale),
			"new":    uintString(e.NewScale),
		},
	}
}

// WaitUpdatedEvent is emitted when the operator changes the withdrawal delay.
type WaitUpdatedEvent struct {
	Caller     [20]byte
	OldSeconds uint64
	NewSeconds uint64
}

func (WaitUpdatedEvent) EventType() string { return EventTypeWaitUpdated }

func (e WaitUpdatedEvent) Event() *types.Event {
	return &types.Event{
		Type: EventTypeWaitUpdated,
		Attributes: map[string]string{
			"caller": addrString(e.Caller),
			"old":    uintString(e.OldSeconds),
			"new":    uintString(e.NewSeconds),
		},
	}
}

// EmergencyWithdrawalEvent is emitted when the operator sweeps non-principal
// surplus out of the pool vault.
type EmergencyWithdrawalEvent struct {
	Caller    [20]byte
	Recipient [20]byte
	Amount    *big.Int
	Forced    bool
}

func (EmergencyWithdrawalEvent) EventType() string { return EventTypeEmergencyWithdrawal }

func (e EmergencyWithdrawalEvent) Event() *types.Event {
	return &types.Event{
		Type: EventTypeEmergencyWithdrawal,
		Attributes: map[string]string{
			"caller":    addrString(e.Caller),
			"recipient": addrString(e.Recipient),
			"amount":    formatAmount(e.Amount),
			"forced":    fmt.Sprintf("%t", e.Forced),
		},
	}
}
