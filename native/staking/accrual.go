package staking

import "math/big"

// perTickRate derives the scale-1e8 per-minute rate from the pool's annual
// rate. It is recomputed from the live policy on every call, so rate changes
// apply prospectively only and are never reapplied to already-banked spans.
func perTickRate(pool *PoolState) *big.Int {
	if pool == nil || pool.AnnualRateScaled == 0 {
		return big.NewInt(0)
	}
	rate := new(big.Int).SetUint64(pool.AnnualRateScaled)
	return rate.Quo(rate, big.NewInt(MinutesPerYear))
}

// baseBalance returns the compounding basis for a position: the virtual
// balance once accrual has run at least once, otherwise the raw principal
// (the pre-first-accrual bootstrap case).
func baseBalance(pos *Position) *big.Int {
	if pos == nil {
		return big.NewInt(0)
	}
	if pos.VirtualBalance != nil && pos.VirtualBalance.Sign() > 0 {
		return new(big.Int).Set(pos.VirtualBalance)
	}
	return cloneBigInt(pos.Principal)
}

// compoundedBalance evaluates the position's balance at asOfTick under the
// compound-interest formula P*(1+r)^t in fixed point. It is a pure function
// of the stored state: positions with no principal, or ticks at or before the
// last accrual checkpoint, report the stored basis unmodified.
func compoundedBalance(pool *PoolState, pos *Position, asOfTick uint64) *big.Int {
	base := baseBalance(pos)
	if pos == nil || pos.Principal == nil || pos.Principal.Sign() == 0 {
		return base
	}
	if asOfTick <= pos.LastAccrualTick {
		return base
	}
	rate := perTickRate(pool)
	if rate.Sign() == 0 {
		return base
	}
	elapsed := asOfTick - pos.LastAccrualTick
	growth := scaledPow(new(big.Int).Add(Scale, rate), elapsed)
	return scaledMul(base, growth)
}

// earnedAt reports the claimable interest at asOfTick: banked rewards plus the
// accrued-but-unrealized delta since the last checkpoint. While a withdrawal
// request is pending the position is frozen and the banked snapshot taken at
// request time is returned unchanged, no matter how much time passes.
func earnedAt(pool *PoolState, pos *Position, asOfTick uint64) *big.Int {
	if pos == nil {
		return big.NewInt(0)
	}
	banked := cloneBigInt(pos.BankedRewards)
	if pos.Principal == nil || pos.Principal.Sign() == 0 || pos.Request != nil {
		return banked
	}
	delta := compoundedBalance(pool, pos, asOfTick)
	delta.Sub(delta, baseBalance(pos))
	if delta.Sign() < 0 {
		return banked
	}
	return banked.Add(banked, delta)
}

// realize is the checkpoint every mutating operation runs before touching
// balances: it folds interest accrued up to nowTick into the banked counter,
// compounds the virtual balance in place and advances the accrual tick. It
// must see the position as of before the caller's own mutations so interest is
// computed on the pre-mutation basis. While a withdrawal request is pending
// the position is frozen and realize is a no-op.
func realize(pool *PoolState, pos *Position, nowTick uint64) {
	if pos == nil || pos.Request != nil {
		return
	}
	pos.BankedRewards = earnedAt(pool, pos, nowTick)
	if pos.Principal != nil && pos.Principal.Sign() > 0 {
		pos.VirtualBalance = compoundedBalance(pool, pos, nowTick)
	}
	pos.LastAccrualTick = nowTick
}
