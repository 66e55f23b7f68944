// Package precision normalizes fixed-point amounts across assets with
// differing decimal scales. Cross-asset ratio math first lifts both operands
// to a shared working precision, divides there, then rescales to the
// destination asset's native precision.
package precision

import (
	"errors"
	"math/big"
)

// WorkingDecimals is the shared internal precision for cross-asset ratio
// computations: every operand is lifted here before dividing, so assets with
// 6 and 18 decimal scales compose without losing digits.
const WorkingDecimals = 18

// maxDecimals bounds the pow10 table; rescaling between any two supported
// scales never shifts by more than this many digits.
const maxDecimals = 36

var (
	ErrAmountTooSmall = errors.New("amount too small for target precision")
	ErrNegativeAmount = errors.New("amount is negative")
	ErrScaleTooLarge  = errors.New("decimal scale exceeds supported range")
)

// pow10 table covers every supported rescale factor; normalizing between two
// scales never needs more than WorkingDecimals digits of shift.
var pow10 [maxDecimals + 1]*big.Int

func init() {
	p := big.NewInt(1)
	ten := big.NewInt(10)
	for i := range pow10 {
		pow10[i] = new(big.Int).Set(p)
		p = new(big.Int).Mul(p, ten)
	}
}

// Pow10 returns 10^n as a shared read-only big.Int. Callers must not mutate it.
func Pow10(n uint8) (*big.Int, error) {
	if int(n) >= len(pow10) {
		return nil, ErrScaleTooLarge
	}
	return pow10[n], nil
}

// Normalize rescales amount from one decimal base to another. Scaling up is
// lossless; scaling down truncates, never rounds up, so the protocol cannot
// manufacture value. A nonzero amount that would floor to zero is rejected
// with ErrAmountTooSmall instead of silently vanishing.
func Normalize(amount *big.Int, fromDecimals, toDecimals uint8) (*big.Int, error) {
	return normalize(amount, fromDecimals, toDecimals, false)
}

// NormalizeCeil rescales like Normalize but rounds up when scaling down.
// Used for input-side amounts, where rounding must favor the pool.
func NormalizeCeil(amount *big.Int, fromDecimals, toDecimals uint8) (*big.Int, error) {
	return normalize(amount, fromDecimals, toDecimals, true)
}

func normalize(amount *big.Int, fromDecimals, toDecimals uint8, ceil bool) (*big.Int, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	if int(fromDecimals) >= len(pow10) || int(toDecimals) >= len(pow10) {
		return nil, ErrScaleTooLarge
	}

	if fromDecimals == toDecimals {
		return new(big.Int).Set(amount), nil
	}

	if toDecimals > fromDecimals {
		factor := pow10[toDecimals-fromDecimals]
		return new(big.Int).Mul(amount, factor), nil
	}

	factor := pow10[fromDecimals-toDecimals]
	quo, rem := new(big.Int).QuoRem(amount, factor, new(big.Int))
	if ceil && rem.Sign() != 0 {
		quo.Add(quo, big.NewInt(1))
	}
	if quo.Sign() == 0 && amount.Sign() != 0 {
		return nil, ErrAmountTooSmall
	}
	return quo, nil
}
