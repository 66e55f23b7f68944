package domain

import "math/big"

// SwapQuote is the price of an exact-output swap against one shard. All
// amounts are denominated in the input asset's fixed-point units.
// AmountIn = base exchange amount + TradeFee + OwnerFee.
type SwapQuote struct {
	AmountIn *big.Int
	TradeFee *big.Int
	OwnerFee *big.Int
}

// RouteHop is one shard traversal inside a plan.
type RouteHop struct {
	ShardID   ShardID
	AssetIn   AssetID
	AssetOut  AssetID
	AmountIn  *big.Int
	AmountOut *big.Int
}

// RoutePlan is the full execution plan for an exact-output trade: an ordered
// hop list where consecutive hops share an intermediate asset and
// hop[i].AmountIn == hop[i-1].AmountOut exactly. The external ledger executes
// the plan; the core only computes it.
type RoutePlan struct {
	Hops []RouteHop
}

// AmountIn is the total input the first hop consumes.
func (p *RoutePlan) AmountIn() *big.Int {
	if len(p.Hops) == 0 {
		return new(big.Int)
	}
	return p.Hops[0].AmountIn
}

// AmountOut is the final hop's output, equal to the caller's requested amount.
func (p *RoutePlan) AmountOut() *big.Int {
	if len(p.Hops) == 0 {
		return new(big.Int)
	}
	return p.Hops[len(p.Hops)-1].AmountOut
}

// ShardSummary is the listing shape exposed by the query API, oriented to the
// caller's requested direction. FeeRateAtZero is the trade-fee rate a
// vanishingly small trade would pay (FeeScale-scaled).
type ShardSummary struct {
	ShardID       ShardID
	State         ShardState
	ReserveIn     *big.Int
	ReserveOut    *big.Int
	FeeRateAtZero uint64
}
