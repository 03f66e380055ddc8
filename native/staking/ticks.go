package staking

// MinutesPerYear is the number of accrual ticks in a 365-day year.
const MinutesPerYear = 525_600

// tickAt quantises a unix timestamp to the one-minute accrual tick. All
// interest math operates on tick deltas, never raw seconds, which bounds the
// compounding granularity and keeps per-call cost independent of how the
// wall clock is sampled within a minute.
func tickAt(unixSeconds int64) uint64 {
	if unixSeconds <= 0 {
		return 0
	}
	return uint64(unixSeconds) / 60
}
