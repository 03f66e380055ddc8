package staking

import (
	"errors"
	"math/big"
	"testing"
)

func pendingPosition(t *testing.T) (*Engine, *mockState, *testClock) {
	t.Helper()
	engine, state, clk := newTestEngine(t)
	state.fund(alice, thousandUnits())
	mustStake(t, engine, alice, thousandUnits())
	clk.advanceMinutes(10_000)
	if err := engine.RequestWithdrawal(alice); err != nil {
		t.Fatalf("request withdrawal: %v", err)
	}
	return engine, state, clk
}

func TestRequestWithdrawalLocksRealizedBalance(t *testing.T) {
	engine, state, clk := newTestEngine(t)
	state.fund(alice, thousandUnits())
	mustStake(t, engine, alice, thousandUnits())
	clk.advanceMinutes(10_000)

	emitter := &recordingEmitter{}
	engine.SetEmitter(emitter)

	wantLocked := compoundedBalance(state.pool, state.positions[alice], tickAt(clk.now))
	if err := engine.RequestWithdrawal(alice); err != nil {
		t.Fatalf("request withdrawal: %v", err)
	}

	pos := state.positions[alice]
	if pos.Request == nil {
		t.Fatalf("request not recorded")
	}
	if pos.Request.LockedAmount.Cmp(wantLocked) != 0 {
		t.Fatalf("locked amount: got %s want %s", pos.Request.LockedAmount, wantLocked)
	}
	if pos.Request.RequestedAt != uint64(clk.now) {
		t.Fatalf("requested at: got %d want %d", pos.Request.RequestedAt, clk.now)
	}
	if pos.Request.UnlockAt != uint64(clk.now)+600 {
		t.Fatalf("unlock at: got %d want %d", pos.Request.UnlockAt, uint64(clk.now)+600)
	}

	evt, ok := emitter.last().(WithdrawRequestedEvent)
	if !ok {
		t.Fatalf("expected withdrawal-requested event, got %T", emitter.last())
	}
	if evt.UnlockAt != pos.Request.UnlockAt {
		t.Fatalf("event unlock at: got %d want %d", evt.UnlockAt, pos.Request.UnlockAt)
	}
}

func TestRequestWithdrawalFreezesAccrual(t *testing.T) {
	engine, state, clk := pendingPosition(t)

	frozen, err := engine.Earned(alice)
	if err != nil {
		t.Fatalf("earned: %v", err)
	}
	clk.advanceMinutes(10_000)
	later, err := engine.Earned(alice)
	if err != nil {
		t.Fatalf("earned after wait: %v", err)
	}
	if frozen.Cmp(later) != 0 {
		t.Fatalf("earnings moved while pending: %s -> %s", frozen, later)
	}
	if got := state.positions[alice].Request.LockedAmount; got.Sign() <= 0 {
		t.Fatalf("locked snapshot missing")
	}
}

func TestRequestWithdrawalRejections(t *testing.T) {
	engine, state, _ := pendingPosition(t)

	snapshot := *state.positions[alice].Request
	if err := engine.RequestWithdrawal(alice); !errors.Is(err, ErrWithdrawPending) {
		t.Fatalf("double request: got %v", err)
	}
	if *state.positions[alice].Request != snapshot {
		t.Fatalf("rejected request mutated pending state")
	}

	if err := engine.RequestWithdrawal(bob); !errors.Is(err, ErrNothingStaked) {
		t.Fatalf("request without principal: got %v", err)
	}
}

func TestMutationsRejectedWhilePending(t *testing.T) {
	engine, state, _ := pendingPosition(t)
	state.fund(alice, thousandUnits())

	if err := engine.Stake(alice, big.NewInt(1)); !errors.Is(err, ErrWithdrawPending) {
		t.Fatalf("stake while pending: got %v", err)
	}
	if err := engine.Withdraw(alice, big.NewInt(1)); !errors.Is(err, ErrWithdrawPending) {
		t.Fatalf("withdraw while pending: got %v", err)
	}
	if err := engine.Exit(alice); !errors.Is(err, ErrWithdrawPending) {
		t.Fatalf("exit while pending: got %v", err)
	}
}

func TestCancelWithdrawalResumesAccrual(t *testing.T) {
	engine, state, clk := pendingPosition(t)

	frozen, err := engine.Earned(alice)
	if err != nil {
		t.Fatalf("earned: %v", err)
	}

	clk.advanceMinutes(1_000)
	if err := engine.CancelWithdrawal(alice); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	pos := state.positions[alice]
	if pos.Request != nil {
		t.Fatalf("request not cleared")
	}

	// The accrual checkpoint stayed where the request froze it, so the span
	// spent pending earns on the next observation rather than being forfeit.
	resumed, err := engine.Earned(alice)
	if err != nil {
		t.Fatalf("earned after cancel: %v", err)
	}
	if resumed.Cmp(frozen) <= 0 {
		t.Fatalf("pending span forfeited: frozen %s resumed %s", frozen, resumed)
	}
	wantDelta := new(big.Int).Sub(compoundedBalance(state.pool, pos, tickAt(clk.now)), pos.VirtualBalance)
	wantResumed := new(big.Int).Add(pos.BankedRewards, wantDelta)
	if resumed.Cmp(wantResumed) != 0 {
		t.Fatalf("resumed earnings: got %s want %s", resumed, wantResumed)
	}

	if err := engine.CancelWithdrawal(alice); !errors.Is(err, ErrNoWithdrawRequest) {
		t.Fatalf("cancel without request: got %v", err)
	}
}

func TestCompleteWithdrawalBeforeUnlockRejected(t *testing.T) {
	engine, _, clk := pendingPosition(t)

	if err := engine.CompleteWithdrawal(alice); !errors.Is(err, ErrWithdrawLocked) {
		t.Fatalf("early completion: got %v", err)
	}
	clk.advanceSeconds(599)
	if err := engine.CompleteWithdrawal(alice); !errors.Is(err, ErrWithdrawLocked) {
		t.Fatalf("one second early: got %v", err)
	}
	clk.advanceSeconds(1)
	if err := engine.CompleteWithdrawal(alice); err != nil {
		t.Fatalf("completion at unlock: %v", err)
	}
}

func TestCompleteWithdrawalPaysLockedAmount(t *testing.T) {
	engine, state, clk := pendingPosition(t)

	locked := new(big.Int).Set(state.positions[alice].Request.LockedAmount)
	banked := new(big.Int).Set(state.positions[alice].BankedRewards)
	clk.advanceSeconds(600)

	if err := engine.CompleteWithdrawal(alice); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got := state.balance(alice); got.Cmp(locked) != 0 {
		t.Fatalf("payout: got %s want %s", got, locked)
	}

	pos := state.positions[alice]
	if pos.Principal.Sign() != 0 || pos.VirtualBalance.Sign() != 0 || pos.Request != nil {
		t.Fatalf("position not retired after completion")
	}
	if state.pool.TotalStaked.Sign() != 0 {
		t.Fatalf("total staked not released: %s", state.pool.TotalStaked)
	}

	// Banked rewards survive completion and stay claimable.
	if pos.BankedRewards.Cmp(banked) != 0 {
		t.Fatalf("banked rewards: got %s want %s", pos.BankedRewards, banked)
	}
	paid, err := engine.ClaimRewards(alice, nil)
	if err != nil {
		t.Fatalf("claim after completion: %v", err)
	}
	if paid.Cmp(banked) != 0 {
		t.Fatalf("post-completion claim: got %s want %s", paid, banked)
	}

	if err := engine.CompleteWithdrawal(alice); !errors.Is(err, ErrNoWithdrawRequest) {
		t.Fatalf("second completion: got %v", err)
	}
}

func TestWaitDurationChangeKeepsPendingUnlock(t *testing.T) {
	engine, state, clk := pendingPosition(t)

	unlockAt := state.positions[alice].Request.UnlockAt
	if err := engine.SetWaitDuration(operator, 86_400); err != nil {
		t.Fatalf("wait change: %v", err)
	}
	if got := state.positions[alice].Request.UnlockAt; got != unlockAt {
		t.Fatalf("pending unlock moved: got %d want %d", got, unlockAt)
	}

	// The original unlock time still gates completion, not the new policy.
	clk.advanceSeconds(600)
	if err := engine.CompleteWithdrawal(alice); err != nil {
		t.Fatalf("completion at original unlock: %v", err)
	}
}

func TestClaimWhilePendingShrinksLockedSnapshot(t *testing.T) {
	engine, state, clk := pendingPosition(t)

	pos := state.positions[alice]
	banked := new(big.Int).Set(pos.BankedRewards)
	lockedBefore := new(big.Int).Set(pos.Request.LockedAmount)

	paid, err := engine.ClaimRewards(alice, nil)
	if err != nil {
		t.Fatalf("claim while pending: %v", err)
	}
	if paid.Cmp(banked) != 0 {
		t.Fatalf("frozen claim payout: got %s want %s", paid, banked)
	}

	// The delayed payout must not re-pay interest that was just claimed.
	pos = state.positions[alice]
	wantLocked := new(big.Int).Sub(lockedBefore, paid)
	if pos.Request.LockedAmount.Cmp(wantLocked) != 0 {
		t.Fatalf("locked snapshot: got %s want %s", pos.Request.LockedAmount, wantLocked)
	}

	clk.advanceSeconds(600)
	if err := engine.CompleteWithdrawal(alice); err != nil {
		t.Fatalf("complete: %v", err)
	}
	want := new(big.Int).Add(paid, wantLocked)
	if got := state.balance(alice); got.Cmp(want) != 0 {
		t.Fatalf("total payout: got %s want %s", got, want)
	}
}

func TestRateChangeDoesNotTouchFrozenPosition(t *testing.T) {
	engine, _, clk := pendingPosition(t)

	frozen, err := engine.Earned(alice)
	if err != nil {
		t.Fatalf("earned: %v", err)
	}
	if err := engine.SetAnnualRate(operator, 60_000_000); err != nil {
		t.Fatalf("rate change: %v", err)
	}
	clk.advanceMinutes(1_000)
	later, err := engine.Earned(alice)
	if err != nil {
		t.Fatalf("earned after rate change: %v", err)
	}
	if frozen.Cmp(later) != 0 {
		t.Fatalf("frozen position accrued under new rate: %s -> %s", frozen, later)
	}
}
