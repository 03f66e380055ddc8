package staking

import "math/big"

// Scale is the fixed-point denominator shared with the underlying asset, which
// carries 8 fractional digits. All rates and growth factors are expressed as
// integers scaled by it.
var Scale = big.NewInt(100_000_000)

// scaledMul multiplies two scale-1e8 fixed-point quantities and rescales the
// product, truncating toward zero. The multiply happens before the divide so
// no intermediate precision is lost.
func scaledMul(a, b *big.Int) *big.Int {
	if a == nil || b == nil {
		return big.NewInt(0)
	}
	product := new(big.Int).Mul(a, b)
	return product.Quo(product, Scale)
}

// scaledPow raises a scale-1e8 fixed-point base to a plain integer exponent
// using exponentiation by squaring. Cost is logarithmic in the exponent, so
// settling an account dormant for a full year (525,600 ticks) takes ~20
// multiply/divide steps instead of one per elapsed minute.
func scaledPow(base *big.Int, exponent uint64) *big.Int {
	result := new(big.Int).Set(Scale)
	if base == nil || exponent == 0 {
		return result
	}
	square := new(big.Int).Set(base)
	for exponent > 0 {
		if exponent&1 == 1 {
			result.Mul(result, square)
			result.Quo(result, Scale)
		}
		exponent >>= 1
		if exponent > 0 {
			square.Mul(square, square)
			square.Quo(square, Scale)
		}
	}
	return result
}

// proportionOf reduces value by the amount/total ratio in fixed point. The
// ratio is expanded first and applied second; reordering the divisions changes
// the rounding on withdrawal boundaries.
func proportionOf(value, amount, total *big.Int) *big.Int {
	if value == nil || amount == nil || total == nil || total.Sign() == 0 {
		return big.NewInt(0)
	}
	ratio := new(big.Int).Mul(amount, Scale)
	ratio.Quo(ratio, total)
	return scaledMul(value, ratio)
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
