package staking

import "fmt"

const (
	// maxAnnualRateScaled caps the annual rate policy at 500% APY.
	maxAnnualRateScaled uint64 = 500_000_000
	// maxWaitDurationSeconds caps the withdrawal delay at 365 days.
	maxWaitDurationSeconds uint64 = 365 * 24 * 60 * 60
)

// Params captures the pool rate policy applied when a pool ledger is first
// initialised. AnnualRateScaled is a scale-1e8 fraction, e.g. 30_000_000 for a
// 30% annual rate.
type Params struct {
	AnnualRateScaled    uint64
	WaitDurationSeconds uint64
}

// DefaultParams returns the policy applied when no configuration is supplied:
// 30% APY with a 7-day withdrawal delay.
func DefaultParams() Params {
	return Params{
		AnnualRateScaled:    30_000_000,
		WaitDurationSeconds: 7 * 24 * 60 * 60,
	}
}

// Validate rejects policies outside the supported bounds.
func (p Params) Validate() error {
	if p.AnnualRateScaled > maxAnnualRateScaled {
		return fmt.Errorf("staking: annual rate %d exceeds maximum %d", p.AnnualRateScaled, maxAnnualRateScaled)
	}
	if p.WaitDurationSeconds > maxWaitDurationSeconds {
		return fmt.Errorf("staking: wait duration %ds exceeds maximum %ds", p.WaitDurationSeconds, maxWaitDurationSeconds)
	}
	return nil
}
