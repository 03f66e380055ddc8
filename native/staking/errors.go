package staking

import "errors"

var (
	// ErrNilState marks an engine that was not wired to a persistence layer.
	ErrNilState = errors.New("staking engine: state not configured")
	// ErrInvalidAmount rejects zero or negative amounts.
	ErrInvalidAmount = errors.New("staking engine: amount must be positive")
	// ErrNothingStaked rejects operations that require existing principal.
	ErrNothingStaked = errors.New("staking engine: no principal staked")
	// ErrInsufficientPrincipal rejects withdrawals beyond the staked principal.
	ErrInsufficientPrincipal = errors.New("staking engine: amount exceeds staked principal")
	// ErrInsufficientBalance rejects stakes beyond the owner's asset balance.
	ErrInsufficientBalance = errors.New("staking engine: insufficient account balance")
	// ErrInsufficientLiquidity marks a pool vault that cannot cover a payout.
	ErrInsufficientLiquidity = errors.New("staking engine: insufficient pool liquidity")
	// ErrWithdrawPending rejects operations that cannot run while a withdrawal
	// request is in flight, including placing a second request.
	ErrWithdrawPending = errors.New("staking engine: withdrawal request pending")
	// ErrNoWithdrawRequest rejects cancel/complete without a pending request.
	ErrNoWithdrawRequest = errors.New("staking engine: no withdrawal request")
	// ErrWithdrawLocked rejects completion before the wait period elapsed.
	ErrWithdrawLocked = errors.New("staking engine: withdrawal wait period has not elapsed")
	// ErrZeroRecipient rejects sweeps to the zero address.
	ErrZeroRecipient = errors.New("staking engine: recipient not configured")
	// ErrExceedsSurplus rejects sweeps beyond the non-principal surplus when no
	// override is supplied.
	ErrExceedsSurplus = errors.New("staking engine: amount exceeds non-principal surplus")
	// ErrInvariantViolation marks arithmetic that would underflow ledger
	// counters. It indicates a programming error, never a recoverable
	// condition, and aborts the call without partial effects.
	ErrInvariantViolation = errors.New("staking engine: ledger invariant violated")
)
