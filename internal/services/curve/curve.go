// Package curve implements the per-shard pricing and fee curve for
// exact-output swaps. Everything here is pure fixed-point integer arithmetic
// over uint256 intermediates; identical inputs always produce bit-identical
// quotes, and every rounding step favors the pool, never the trader.
package curve

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/hxuan190/shard-exchange/internal/domain"
	"github.com/hxuan190/shard-exchange/internal/services/precision"
)

var (
	ErrThresholdExceeded = errors.New("trade size threshold exceeded")
	ErrZeroReserve       = errors.New("zero reserve")
	ErrOverflow          = errors.New("fixed-point overflow")
	ErrInvalidAmount     = errors.New("invalid amount")
)

var u256FeeScale = uint256.NewInt(domain.FeeScale)

// Quote prices an exact-output swap against a single shard's oriented state.
//
// Steps, with every fraction scaled to domain.FeeScale:
//  1. ratio = amountOut / reserveOut; reject with ErrThresholdExceeded when it
//     exceeds the curve's max trade ratio. The comparison is cross-multiplied
//     exactly, so the admission gate never suffers truncation error.
//  2. feeRate = max(feeFloor, feeCeiling + betaSlope*ratio). BetaSlope <= 0,
//     so a larger ratio (same trade on a smaller shard) pays a lower rate,
//     down to the floor.
//  3. baseAmount = amountOut * reserveIn / reserveOut, computed at the shared
//     working precision and rescaled to the input asset, ceiling division.
//  4. tradeFee = baseAmount * feeRate; ownerFee = baseAmount * ownerFeeRate
//     (the owner rate is a flat per-shard constant).
//  5. amountIn = baseAmount + tradeFee + ownerFee.
func Quote(v domain.ShardView, amountOut *big.Int) (*domain.SwapQuote, error) {
	if amountOut == nil || amountOut.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if v.ReserveIn == nil || v.ReserveOut == nil || v.ReserveIn.Sign() == 0 || v.ReserveOut.Sign() == 0 {
		return nil, ErrZeroReserve
	}

	out, overflow := uint256.FromBig(amountOut)
	if overflow {
		return nil, ErrOverflow
	}
	rOut, overflow := uint256.FromBig(v.ReserveOut)
	if overflow {
		return nil, ErrOverflow
	}

	// Admission gate: amountOut * FeeScale > maxTradeRatio * reserveOut.
	lhs, rhs := new(uint256.Int), new(uint256.Int)
	if _, overflow = lhs.MulOverflow(out, u256FeeScale); overflow {
		return nil, ErrOverflow
	}
	if _, overflow = rhs.MulOverflow(rOut, uint256.NewInt(v.Curve.MaxTradeRatio)); overflow {
		return nil, ErrOverflow
	}
	if lhs.Cmp(rhs) > 0 {
		return nil, ErrThresholdExceeded
	}

	// ratio truncates down, which only ever raises the fee rate.
	ratio := new(uint256.Int).Div(lhs, rOut)
	feeRate := effectiveFeeRate(v.Curve, v.TradeFeeRate, ratio)

	base18, err := baseAmount(v, amountOut)
	if err != nil {
		return nil, err
	}

	tradeFee18 := mulRateCeil(base18, feeRate)
	ownerFee18 := mulRateCeil(base18, v.OwnerFeeRate)

	decIn := v.AssetIn.DecimalScale
	baseIn, err := precision.NormalizeCeil(base18.ToBig(), precision.WorkingDecimals, decIn)
	if err != nil {
		return nil, err
	}
	tradeFee, err := precision.NormalizeCeil(tradeFee18.ToBig(), precision.WorkingDecimals, decIn)
	if err != nil {
		return nil, err
	}
	ownerFee, err := precision.NormalizeCeil(ownerFee18.ToBig(), precision.WorkingDecimals, decIn)
	if err != nil {
		return nil, err
	}

	amountIn := new(big.Int).Add(baseIn, tradeFee)
	amountIn.Add(amountIn, ownerFee)

	return &domain.SwapQuote{
		AmountIn: amountIn,
		TradeFee: tradeFee,
		OwnerFee: ownerFee,
	}, nil
}

// FeeRateAtZero is the trade-fee rate for a vanishingly small trade: the
// curve's ceiling, clamped to the floor.
func FeeRateAtZero(params domain.CurveParams, tradeFeeRate uint64) uint64 {
	ceiling := params.FeeCeiling
	if ceiling == 0 {
		ceiling = tradeFeeRate
	}
	if ceiling < params.FeeFloor {
		return params.FeeFloor
	}
	return ceiling
}

// effectiveFeeRate evaluates max(floor, ceiling + betaSlope*ratio). A curve
// with zero ceiling falls back to the shard's flat trade-fee rate, so shards
// configured without a variable curve still price consistently.
func effectiveFeeRate(params domain.CurveParams, tradeFeeRate uint64, ratio *uint256.Int) uint64 {
	ceiling := params.FeeCeiling
	if ceiling == 0 {
		ceiling = tradeFeeRate
	}

	// betaSlope <= 0 by invariant; work with its magnitude.
	slope := uint64(-params.BetaSlope)
	discount := new(uint256.Int).Mul(ratio, uint256.NewInt(slope))
	discount.Div(discount, u256FeeScale)

	if !discount.IsUint64() || discount.Uint64() >= ceiling {
		return params.FeeFloor
	}
	rate := ceiling - discount.Uint64()
	if rate < params.FeeFloor {
		return params.FeeFloor
	}
	return rate
}

// baseAmount computes the no-fee exchange amount amountOut * reserveIn /
// reserveOut at working precision, ceiling division. Both operands are lifted
// to the shared precision before dividing, per the normalization contract.
func baseAmount(v domain.ShardView, amountOut *big.Int) (*uint256.Int, error) {
	out18big, err := precision.Normalize(amountOut, v.AssetOut.DecimalScale, precision.WorkingDecimals)
	if err != nil {
		return nil, err
	}
	rIn18big, err := precision.Normalize(v.ReserveIn, v.AssetIn.DecimalScale, precision.WorkingDecimals)
	if err != nil {
		return nil, err
	}
	rOut18big, err := precision.Normalize(v.ReserveOut, v.AssetOut.DecimalScale, precision.WorkingDecimals)
	if err != nil {
		return nil, err
	}

	out18, overflow := uint256.FromBig(out18big)
	if overflow {
		return nil, ErrOverflow
	}
	rIn18, overflow := uint256.FromBig(rIn18big)
	if overflow {
		return nil, ErrOverflow
	}
	rOut18, overflow := uint256.FromBig(rOut18big)
	if overflow {
		return nil, ErrOverflow
	}

	num := new(uint256.Int)
	if _, overflow = num.MulOverflow(out18, rIn18); overflow {
		return nil, ErrOverflow
	}
	return divCeil(num, rOut18), nil
}

// mulRateCeil applies a FeeScale-scaled rate to an amount, rounding up.
func mulRateCeil(amount *uint256.Int, rate uint64) *uint256.Int {
	num := new(uint256.Int).Mul(amount, uint256.NewInt(rate))
	return divCeil(num, u256FeeScale)
}

func divCeil(num, den *uint256.Int) *uint256.Int {
	quo, rem := new(uint256.Int), new(uint256.Int)
	quo.DivMod(num, den, rem)
	if !rem.IsZero() {
		quo.AddUint64(quo, 1)
	}
	return quo
}
