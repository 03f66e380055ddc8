package staking

import (
	"math/big"
	"time"

	"yieldpool/core/events"
	"yieldpool/core/types"
	nativecommon "yieldpool/native/common"
	"yieldpool/observability/metrics"
)

const moduleName = "staking"

// RoleOperator names the capability required for pool policy changes and
// custodial sweeps. The role registry itself lives outside the engine; callers
// are checked against the injected RoleView.
const RoleOperator = "ROLE_STAKING_OPERATOR"

type engineState interface {
	StakingPosition(owner [20]byte) (*Position, error)
	PutStakingPosition(pos *Position) error
	StakingPool() (*PoolState, error)
	PutStakingPool(pool *PoolState) error
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
}

// Engine owns the staking ledger state transitions: deposits, accrual
// checkpoints, reward claims and the withdrawal-delay state machine. Every
// mutating entry point realizes pending interest for the affected position
// before performing its own effect.
type Engine struct {
	state         engineState
	moduleAddress [20]byte
	params        Params
	emitter       events.Emitter
	pauses        nativecommon.PauseView
	roles         nativecommon.RoleView
	nowFn         func() int64
	telemetry     *metrics.StakingMetrics
}

// NewEngine constructs a staking engine whose vault lives at moduleAddr. The
// engine starts with default pool parameters, a no-op emitter and the system
// clock; use the setters to wire collaborators.
func NewEngine(moduleAddr [20]byte) *Engine {
	return &Engine{
		moduleAddress: moduleAddr,
		params:        DefaultParams(),
		emitter:       events.NoopEmitter{},
		nowFn:         func() int64 { return time.Now().Unix() },
		telemetry:     metrics.Staking(),
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetParams configures the policy applied when the pool ledger is first
// initialised. Existing pool state is not rewritten.
func (e *Engine) SetParams(params Params) error {
	if e == nil {
		return nil
	}
	if err := params.Validate(); err != nil {
		return err
	}
	e.params = params
	return nil
}

// SetPauses wires the module pause/execution latch.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetRoles wires the capability registry consulted for operator-only
// operations. Without one, privileged calls are denied.
func (e *Engine) SetRoles(r nativecommon.RoleView) {
	if e == nil {
		return
	}
	e.roles = r
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if e == nil {
		return
	}
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) ensurePool() (*PoolState, error) {
	pool, err := e.state.StakingPool()
	if err != nil {
		return nil, err
	}
	if pool == nil {
		pool = &PoolState{
			TotalStaked:         big.NewInt(0),
			AnnualRateScaled:    e.params.AnnualRateScaled,
			WaitDurationSeconds: e.params.WaitDurationSeconds,
		}
	}
	return pool.Normalize(), nil
}

func (e *Engine) ensurePosition(owner [20]byte) (*Position, error) {
	pos, err := e.state.StakingPosition(owner)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		pos = &Position{Owner: owner}
	}
	return pos.Normalize(), nil
}

func (e *Engine) loadAccount(addr [20]byte) (*types.Account, error) {
	acc, err := e.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	return acc.Normalize(), nil
}

// transfer moves asset units between two ledger accounts. All internal
// bookkeeping of the calling operation must be computed before the transfer
// persists, so a failure here aborts the whole call with no partial effects.
func (e *Engine) transfer(from, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	fromAcc, err := e.loadAccount(from)
	if err != nil {
		return err
	}
	if fromAcc.Balance.Cmp(amount) < 0 {
		if from == e.moduleAddress {
			return ErrInsufficientLiquidity
		}
		return ErrInsufficientBalance
	}
	toAcc, err := e.loadAccount(to)
	if err != nil {
		return err
	}
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amount)
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amount)
	if err := e.state.PutAccount(from, fromAcc); err != nil {
		return err
	}
	return e.state.PutAccount(to, toAcc)
}

// Stake pulls amount from the owner's asset balance into the pool vault and
// grows the position's principal and compounding basis. Stakes into a position
// with a pending withdrawal request are rejected: a fresh deposit cannot be
// mixed into an amount already earmarked for exit.
func (e *Engine) Stake(owner [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	pool, err := e.ensurePool()
	if err != nil {
		return err
	}
	pos, err := e.ensurePosition(owner)
	if err != nil {
		return err
	}
	if pos.Request != nil {
		return ErrWithdrawPending
	}

	tick := tickAt(e.now())
	realize(pool, pos, tick)

	pos.Principal = new(big.Int).Add(pos.Principal, amount)
	pos.VirtualBalance = new(big.Int).Add(pos.VirtualBalance, amount)
	pool.TotalStaked = new(big.Int).Add(pool.TotalStaked, amount)
	pool.GlobalLastTick = tick

	if err := e.transfer(owner, e.moduleAddress, amount); err != nil {
		return err
	}
	if err := e.state.PutStakingPosition(pos); err != nil {
		return err
	}
	if err := e.state.PutStakingPool(pool); err != nil {
		return err
	}

	if e.telemetry != nil {
		e.telemetry.IncOperation("stake")
		e.telemetry.SetTotalStaked(approxFloat(pool.TotalStaked))
	}
	e.emit(StakedEvent{Owner: owner, Amount: cloneBigInt(amount), Principal: cloneBigInt(pos.Principal), Tick: tick})
	return nil
}

// Withdraw returns amount of principal to the owner, shrinking the virtual
// balance by the amount/principal ratio so the remaining basis keeps
// compounding proportionally. It is the immediate path; positions with a
// pending delayed-withdrawal request must cancel or complete it first.
func (e *Engine) Withdraw(owner [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	pool, err := e.ensurePool()
	if err != nil {
		return err
	}
	pos, err := e.ensurePosition(owner)
	if err != nil {
		return err
	}
	if pos.Request != nil {
		return ErrWithdrawPending
	}
	if pos.Principal.Sign() == 0 {
		return ErrNothingStaked
	}
	if amount.Cmp(pos.Principal) > 0 {
		return ErrInsufficientPrincipal
	}

	tick := tickAt(e.now())
	realize(pool, pos, tick)

	if amount.Cmp(pos.Principal) == 0 {
		pos.VirtualBalance = big.NewInt(0)
	} else {
		reduction := proportionOf(pos.VirtualBalance, amount, pos.Principal)
		if reduction.Cmp(pos.VirtualBalance) > 0 {
			return ErrInvariantViolation
		}
		pos.VirtualBalance = new(big.Int).Sub(pos.VirtualBalance, reduction)
	}
	pos.Principal = new(big.Int).Sub(pos.Principal, amount)

	if pool.TotalStaked.Cmp(amount) < 0 {
		return ErrInvariantViolation
	}
	pool.TotalStaked = new(big.Int).Sub(pool.TotalStaked, amount)
	pool.GlobalLastTick = tick

	if err := e.transfer(e.moduleAddress, owner, amount); err != nil {
		return err
	}
	if err := e.state.PutStakingPosition(pos); err != nil {
		return err
	}
	if err := e.state.PutStakingPool(pool); err != nil {
		return err
	}

	if e.telemetry != nil {
		e.telemetry.IncOperation("withdraw")
		e.telemetry.SetTotalStaked(approxFloat(pool.TotalStaked))
	}
	e.emit(WithdrawnEvent{Owner: owner, Amount: cloneBigInt(amount), Principal: cloneBigInt(pos.Principal), Tick: tick})
	return nil
}

// ClaimRewards pays banked rewards to the owner. A zero or nil amount claims
// everything; otherwise the payout is capped at the banked balance. The paid
// interest is removed from the compounding basis (floored at the raw
// principal) so future accrual does not compound on value that has left the
// pool. Claiming nothing is a successful no-op.
func (e *Engine) ClaimRewards(owner [20]byte, amount *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if amount != nil && amount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}

	pool, err := e.ensurePool()
	if err != nil {
		return nil, err
	}
	pos, err := e.ensurePosition(owner)
	if err != nil {
		return nil, err
	}

	tick := tickAt(e.now())
	realize(pool, pos, tick)

	pay := cloneBigInt(pos.BankedRewards)
	if amount != nil && amount.Sign() > 0 && amount.Cmp(pay) < 0 {
		pay = new(big.Int).Set(amount)
	}
	if pay.Sign() == 0 {
		return big.NewInt(0), nil
	}

	pos.BankedRewards = new(big.Int).Sub(pos.BankedRewards, pay)
	e.rebaseAfterClaim(pos, pay)
	pool.GlobalLastTick = tick

	if err := e.transfer(e.moduleAddress, owner, pay); err != nil {
		return nil, err
	}
	if err := e.state.PutStakingPosition(pos); err != nil {
		return nil, err
	}
	if err := e.state.PutStakingPool(pool); err != nil {
		return nil, err
	}

	if e.telemetry != nil {
		e.telemetry.IncOperation("claim")
		e.telemetry.AddRewardsPaid(approxFloat(pay))
	}
	e.emit(RewardsClaimedEvent{Owner: owner, Amount: cloneBigInt(pay), Banked: cloneBigInt(pos.BankedRewards), Tick: tick})
	return pay, nil
}

// rebaseAfterClaim drops the paid interest out of the compounding basis,
// never below the raw principal. If a withdrawal request is pending, the
// locked snapshot shrinks by the same amount so the delayed payout cannot
// re-pay rewards that were already claimed.
func (e *Engine) rebaseAfterClaim(pos *Position, paid *big.Int) {
	if pos.Principal.Sign() == 0 {
		return
	}
	rebased := new(big.Int).Sub(pos.VirtualBalance, paid)
	if rebased.Cmp(pos.Principal) < 0 {
		rebased = new(big.Int).Set(pos.Principal)
	}
	reduction := new(big.Int).Sub(pos.VirtualBalance, rebased)
	pos.VirtualBalance = rebased
	if pos.Request != nil && reduction.Sign() > 0 {
		locked := new(big.Int).Sub(pos.Request.LockedAmount, reduction)
		if locked.Sign() < 0 {
			locked = big.NewInt(0)
		}
		pos.Request.LockedAmount = locked
	}
}

// Exit combines a full principal withdrawal with a full reward claim in one
// atomic call.
func (e *Engine) Exit(owner [20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}

	pool, err := e.ensurePool()
	if err != nil {
		return err
	}
	pos, err := e.ensurePosition(owner)
	if err != nil {
		return err
	}
	if pos.Request != nil {
		return ErrWithdrawPending
	}

	tick := tickAt(e.now())
	realize(pool, pos, tick)

	principalOut := cloneBigInt(pos.Principal)
	rewardOut := cloneBigInt(pos.BankedRewards)
	if principalOut.Sign() == 0 && rewardOut.Sign() == 0 {
		return ErrNothingStaked
	}

	if pool.TotalStaked.Cmp(principalOut) < 0 {
		return ErrInvariantViolation
	}
	pool.TotalStaked = new(big.Int).Sub(pool.TotalStaked, principalOut)
	pool.GlobalLastTick = tick

	pos.Principal = big.NewInt(0)
	pos.VirtualBalance = big.NewInt(0)
	pos.BankedRewards = big.NewInt(0)
	pos.LastAccrualTick = tick

	total := new(big.Int).Add(principalOut, rewardOut)
	if err := e.transfer(e.moduleAddress, owner, total); err != nil {
		return err
	}
	if err := e.state.PutStakingPosition(pos); err != nil {
		return err
	}
	if err := e.state.PutStakingPool(pool); err != nil {
		return err
	}

	if e.telemetry != nil {
		e.telemetry.IncOperation("exit")
		e.telemetry.SetTotalStaked(approxFloat(pool.TotalStaked))
		e.telemetry.AddRewardsPaid(approxFloat(rewardOut))
	}
	if principalOut.Sign() > 0 {
		e.emit(WithdrawnEvent{Owner: owner, Amount: principalOut, Principal: big.NewInt(0), Tick: tick})
	}
	if rewardOut.Sign() > 0 {
		e.emit(RewardsClaimedEvent{Owner: owner, Amount: rewardOut, Banked: big.NewInt(0), Tick: tick})
	}
	return nil
}

// RequestWithdrawal freezes the position's full virtual balance for delayed
// exit. Accrual stops at the checkpoint taken here; earned() reports the
// banked snapshot unchanged until the request is cancelled or completed.
func (e *Engine) RequestWithdrawal(owner [20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}

	pool, err := e.ensurePool()
	if err != nil {
		return err
	}
	pos, err := e.ensurePosition(owner)
	if err != nil {
		return err
	}
	if pos.Principal.Sign() == 0 {
		return ErrNothingStaked
	}
	if pos.Request != nil {
		return ErrWithdrawPending
	}

	now := e.now()
	tick := tickAt(now)
	realize(pool, pos, tick)

	requestedAt := uint64(now)
	unlockAt := requestedAt + pool.WaitDurationSeconds
	pos.Request = &WithdrawalRequest{
		RequestedAt:  requestedAt,
		UnlockAt:     unlockAt,
		LockedAmount: cloneBigInt(pos.VirtualBalance),
	}
	pool.GlobalLastTick = tick

	if err := e.state.PutStakingPosition(pos); err != nil {
		return err
	}
	if err := e.state.PutStakingPool(pool); err != nil {
		return err
	}

	if e.telemetry != nil {
		e.telemetry.IncOperation("request_withdrawal")
		e.telemetry.IncPendingWithdrawals()
	}
	e.emit(WithdrawRequestedEvent{
		Owner:        owner,
		LockedAmount: cloneBigInt(pos.Request.LockedAmount),
		RequestedAt:  requestedAt,
		UnlockAt:     unlockAt,
	})
	return nil
}

// CancelWithdrawal abandons a pending request and returns the position to
// active accrual. The accrual tick stays where the request froze it, so the
// span spent pending earns interest on the next checkpoint; cancellation does
// not forfeit the frozen-period growth.
func (e *Engine) CancelWithdrawal(owner [20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}

	pos, err := e.ensurePosition(owner)
	if err != nil {
		return err
	}
	if pos.Request == nil {
		return ErrNoWithdrawRequest
	}
	pos.Request = nil

	if err := e.state.PutStakingPosition(pos); err != nil {
		return err
	}

	if e.telemetry != nil {
		e.telemetry.IncOperation("cancel_withdrawal")
		e.telemetry.DecPendingWithdrawals()
	}
	e.emit(WithdrawCancelledEvent{Owner: owner})
	return nil
}

// CompleteWithdrawal pays out the locked amount once the wait period has
// elapsed and retires the position to its dormant state. Banked rewards are
// untouched and remain claimable afterwards.
func (e *Engine) CompleteWithdrawal(owner [20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}

	pool, err := e.ensurePool()
	if err != nil {
		return err
	}
	pos, err := e.ensurePosition(owner)
	if err != nil {
		return err
	}
	if pos.Request == nil {
		return ErrNoWithdrawRequest
	}
	now := e.now()
	if uint64(now) < pos.Request.UnlockAt {
		return ErrWithdrawLocked
	}

	payout := cloneBigInt(pos.Request.LockedAmount)
	principalOut := cloneBigInt(pos.Principal)
	if pool.TotalStaked.Cmp(principalOut) < 0 {
		return ErrInvariantViolation
	}
	tick := tickAt(now)
	pool.TotalStaked = new(big.Int).Sub(pool.TotalStaked, principalOut)
	pool.GlobalLastTick = tick

	pos.Principal = big.NewInt(0)
	pos.VirtualBalance = big.NewInt(0)
	pos.LastAccrualTick = tick
	pos.Request = nil

	if err := e.transfer(e.moduleAddress, owner, payout); err != nil {
		return err
	}
	if err := e.state.PutStakingPosition(pos); err != nil {
		return err
	}
	if err := e.state.PutStakingPool(pool); err != nil {
		return err
	}

	if e.telemetry != nil {
		e.telemetry.IncOperation("complete_withdrawal")
		e.telemetry.DecPendingWithdrawals()
		e.telemetry.SetTotalStaked(approxFloat(pool.TotalStaked))
	}
	e.emit(WithdrawCompletedEvent{Owner: owner, Amount: payout})
	return nil
}

// SetAnnualRate updates the pool rate policy. The change is prospective only:
// positions realize lazily from their own checkpoints, and spans accrued under
// the old rate are already banked by the time they observe the new one.
func (e *Engine) SetAnnualRate(caller [20]byte, rateScaled uint64) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := nativecommon.RequireRole(e.roles, RoleOperator, caller); err != nil {
		return err
	}
	if err := (Params{AnnualRateScaled: rateScaled}).Validate(); err != nil {
		return err
	}

	pool, err := e.ensurePool()
	if err != nil {
		return err
	}
	old := pool.AnnualRateScaled
	pool.AnnualRateScaled = rateScaled
	pool.GlobalLastTick = tickAt(e.now())
	if err := e.state.PutStakingPool(pool); err != nil {
		return err
	}
	e.emit(RateUpdatedEvent{Caller: caller, OldScale: old, NewScale: rateScaled})
	return nil
}

// SetWaitDuration updates the withdrawal delay for requests created from now
// on. Requests already pending keep their originally computed unlock time.
func (e *Engine) SetWaitDuration(caller [20]byte, seconds uint64) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := nativecommon.RequireRole(e.roles, RoleOperator, caller); err != nil {
		return err
	}
	if err := (Params{WaitDurationSeconds: seconds}).Validate(); err != nil {
		return err
	}

	pool, err := e.ensurePool()
	if err != nil {
		return err
	}
	old := pool.WaitDurationSeconds
	pool.WaitDurationSeconds = seconds
	if err := e.state.PutStakingPool(pool); err != nil {
		return err
	}
	e.emit(WaitUpdatedEvent{Caller: caller, OldSeconds: old, NewSeconds: seconds})
	return nil
}

// EmergencyWithdraw sweeps asset balance out of the pool vault. The sweep is
// bounded by the non-principal surplus (vault balance minus total staked)
// unless force is set.
func (e *Engine) EmergencyWithdraw(caller [20]byte, amount *big.Int, recipient [20]byte, force bool) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := nativecommon.RequireRole(e.roles, RoleOperator, caller); err != nil {
		return err
	}
	if recipient == ([20]byte{}) {
		return ErrZeroRecipient
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	pool, err := e.ensurePool()
	if err != nil {
		return err
	}
	vault, err := e.loadAccount(e.moduleAddress)
	if err != nil {
		return err
	}
	surplus := new(big.Int).Sub(vault.Balance, pool.TotalStaked)
	if surplus.Sign() < 0 {
		surplus = big.NewInt(0)
	}
	if !force && amount.Cmp(surplus) > 0 {
		return ErrExceedsSurplus
	}

	if err := e.transfer(e.moduleAddress, recipient, amount); err != nil {
		return err
	}
	if e.telemetry != nil {
		e.telemetry.IncOperation("emergency_withdrawal")
	}
	e.emit(EmergencyWithdrawalEvent{Caller: caller, Recipient: recipient, Amount: cloneBigInt(amount), Forced: force})
	return nil
}

// Earned reports the claimable rewards for owner at the current time without
// mutating any state.
func (e *Engine) Earned(owner [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	pool, err := e.ensurePool()
	if err != nil {
		return nil, err
	}
	pos, err := e.ensurePosition(owner)
	if err != nil {
		return nil, err
	}
	return earnedAt(pool, pos, tickAt(e.now())), nil
}

// UserInfo summarises the position for account queries without mutating any
// state.
func (e *Engine) UserInfo(owner [20]byte) (*UserInfo, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	pool, err := e.ensurePool()
	if err != nil {
		return nil, err
	}
	pos, err := e.ensurePosition(owner)
	if err != nil {
		return nil, err
	}
	now := e.now()
	info := &UserInfo{
		Owner:           owner,
		Earned:          earnedAt(pool, pos, tickAt(now)),
		Principal:       cloneBigInt(pos.Principal),
		VirtualBalance:  cloneBigInt(pos.VirtualBalance),
		LastAccrualTick: pos.LastAccrualTick,
		PendingRequest:  pos.Request != nil,
		ComputedAtUnix:  now,
	}
	if pos.Request != nil {
		info.UnlockAt = pos.Request.UnlockAt
	}
	return info, nil
}

func approxFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
