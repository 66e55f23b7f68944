// Package router selects shards and chains hops to satisfy exact-output
// trades. Candidate failures (threshold, zero reserve, uninitialized) are
// routing signals, not caller errors: the router tries the next shard and
// only ever surfaces NoLiquidity or NoRoute.
package router

import (
	"errors"
	"math/big"

	"github.com/hxuan190/shard-exchange/internal/domain"
	"github.com/hxuan190/shard-exchange/internal/metrics"
	"github.com/hxuan190/shard-exchange/internal/services/registry"
)

var (
	ErrNoLiquidity  = errors.New("no shard can satisfy the requested output")
	ErrNoRoute      = errors.New("no route found")
	ErrInvalidRoute = errors.New("input and output assets must differ")
)

// QuoterFunc prices an exact-output swap against one shard. The router treats
// any error as "candidate unusable" and moves on.
type QuoterFunc func(shard *domain.Shard, assetIn, assetOut domain.AssetID, amountOut *big.Int) (*domain.SwapQuote, error)

type Router struct {
	registry *registry.Registry
	quoter   QuoterFunc
}

func New(reg *registry.Registry, quoter QuoterFunc) *Router {
	return &Router{registry: reg, quoter: quoter}
}

// BestShard quotes every shard for the pair and returns the one demanding the
// lowest amountIn. Not necessarily the smallest shard in absolute terms, but
// the decreasing fee curve means the smallest shard usually wins for
// small-to-medium trades. Returns ErrNoLiquidity when no candidate survives.
func (r *Router) BestShard(assetIn, assetOut domain.AssetID, amountOut *big.Int) (*domain.Shard, *domain.SwapQuote, error) {
	candidates := r.registry.ShardsFor(assetIn, assetOut)
	if len(candidates) == 0 {
		return nil, nil, ErrNoLiquidity
	}

	var best *domain.Shard
	var bestQuote *domain.SwapQuote

	for _, shard := range candidates {
		quote, err := r.quoter(shard, assetIn, assetOut, amountOut)
		if err != nil {
			metrics.QuoteRejections.WithLabelValues(rejectReason(err)).Inc()
			continue
		}
		if bestQuote == nil || quote.AmountIn.Cmp(bestQuote.AmountIn) < 0 {
			best = shard
			bestQuote = quote
		}
	}

	if bestQuote == nil {
		return nil, nil, ErrNoLiquidity
	}
	return best, bestQuote, nil
}

// Route builds an execution plan delivering exactly amountOut of assetOut.
// Direct when possible; otherwise through a single intermediary asset (no
// general graph search, no splitting). An oversized request that trips every
// shard's threshold fails with ErrNoRoute rather than delivering less.
func (r *Router) Route(assetIn, assetOut domain.AssetID, amountOut *big.Int) (*domain.RoutePlan, error) {
	if assetIn == assetOut {
		return nil, ErrInvalidRoute
	}

	if plan, err := r.composeBackward([]domain.AssetID{assetIn, assetOut}, amountOut); err == nil {
		return plan, nil
	}

	mid, ok := r.findIntermediary(assetIn, assetOut)
	if !ok {
		return nil, ErrNoRoute
	}

	plan, err := r.composeBackward([]domain.AssetID{assetIn, mid, assetOut}, amountOut)
	if err != nil {
		// No fallback search past the first viable intermediary.
		return nil, ErrNoRoute
	}
	return plan, nil
}

// findIntermediary scans pairs in registry order for the first asset M with
// at least one Active shard on both (assetIn, M) and (M, assetOut).
func (r *Router) findIntermediary(assetIn, assetOut domain.AssetID) (domain.AssetID, bool) {
	for _, key := range r.registry.AllPairs() {
		mid, ok := key.Other(assetIn)
		if !ok || mid == assetOut {
			continue
		}
		if r.registry.HasActiveShard(assetIn, mid) && r.registry.HasActiveShard(mid, assetOut) {
			return mid, true
		}
	}
	return "", false
}

// composeBackward folds the asset path from destination to source: the last
// hop is priced first for the requested output, and each earlier hop must
// deliver exactly the later hop's input. Hop boundaries carry amounts through
// untouched, so hop[i].AmountIn == hop[i-1].AmountOut with no truncation.
func (r *Router) composeBackward(path []domain.AssetID, amountOut *big.Int) (*domain.RoutePlan, error) {
	hops := make([]domain.RouteHop, len(path)-1)
	need := amountOut

	for i := len(path) - 1; i >= 1; i-- {
		shard, quote, err := r.BestShard(path[i-1], path[i], need)
		if err != nil {
			return nil, err
		}
		hops[i-1] = domain.RouteHop{
			ShardID:   shard.ID,
			AssetIn:   path[i-1],
			AssetOut:  path[i],
			AmountIn:  quote.AmountIn,
			AmountOut: need,
		}
		need = quote.AmountIn
	}

	metrics.RouteHops.Observe(float64(len(hops)))
	return &domain.RoutePlan{Hops: hops}, nil
}
