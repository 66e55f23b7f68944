package domain

import (
	"math/big"
	"sync"
)

// ShardID indexes into the registry's append-only shard arena.
type ShardID uint64

// PairKey is an unordered asset pair. Construct only via NewPairKey so that
// (A,B) and (B,A) hash identically.
type PairKey struct {
	A AssetID `json:"a"`
	B AssetID `json:"b"`
}

func NewPairKey(a, b AssetID) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

func (k PairKey) String() string {
	return string(k.A) + "/" + string(k.B)
}

// Contains reports whether id is one of the pair's assets.
func (k PairKey) Contains(id AssetID) bool {
	return k.A == id || k.B == id
}

// Other returns the pair's counter-asset for id. Second result is false when
// id is not part of the pair.
func (k PairKey) Other(id AssetID) (AssetID, bool) {
	switch id {
	case k.A:
		return k.B, true
	case k.B:
		return k.A, true
	}
	return "", false
}

type ShardState uint8

const (
	ShardUninitialized ShardState = iota
	ShardActive
)

func (s ShardState) String() string {
	switch s {
	case ShardUninitialized:
		return "Uninitialized"
	case ShardActive:
		return "Active"
	default:
		return "UNKNOWN"
	}
}

// FeeScale is the fixed denominator for every fractional parameter:
// fee rates, the beta slope and the max trade ratio are all expressed as
// value/FeeScale.
const FeeScale = 1_000_000

// CurveParams are a shard's pricing-curve constants, fixed at initialization
// unless the owner updates them. BetaSlope must be <= 0: the fee rate is
// non-increasing in the trade-size ratio, which is what makes a smaller
// shard cheaper for the same absolute trade.
type CurveParams struct {
	BetaSlope     int64  `json:"betaSlope"`
	FeeFloor      uint64 `json:"feeFloor"`
	FeeCeiling    uint64 `json:"feeCeiling"`
	MaxTradeRatio uint64 `json:"maxTradeRatio"`
}

func (p CurveParams) Valid() bool {
	if p.BetaSlope > 0 {
		return false
	}
	if p.FeeFloor > p.FeeCeiling {
		return false
	}
	return p.MaxTradeRatio > 0 && p.MaxTradeRatio <= FeeScale
}

// Shard is one pool instance for an asset pair. Many shards may exist per
// pair; the registry keeps them in creation order. Reserves only move through
// Initialize, CommitSwap and ApplyLiquidity, each of which is all-or-nothing.
type Shard struct {
	ID     ShardID
	AssetA Asset
	AssetB Asset
	Owner  string

	mu           sync.RWMutex
	state        ShardState
	reserveA     *big.Int
	reserveB     *big.Int
	lpSupply     *big.Int
	tradeFeeRate uint64
	ownerFeeRate uint64
	curve        CurveParams
}

func NewShard(id ShardID, assetA, assetB Asset, owner string) *Shard {
	return &Shard{
		ID:       id,
		AssetA:   assetA,
		AssetB:   assetB,
		Owner:    owner,
		state:    ShardUninitialized,
		reserveA: new(big.Int),
		reserveB: new(big.Int),
		lpSupply: new(big.Int),
	}
}

func (s *Shard) Pair() PairKey {
	return NewPairKey(s.AssetA.ID, s.AssetB.ID)
}

func (s *Shard) State() ShardState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Orient maps the caller's in/out assets onto the shard's unordered pair.
// Shards never store direction-dependent state; every operation resolves
// direction here first. ok is false when either asset is not part of the pair.
func (s *Shard) Orient(assetIn, assetOut AssetID) (aToB bool, ok bool) {
	switch {
	case assetIn == s.AssetA.ID && assetOut == s.AssetB.ID:
		return true, true
	case assetIn == s.AssetB.ID && assetOut == s.AssetA.ID:
		return false, true
	}
	return false, false
}

// ShardView is a consistent read-only snapshot of a shard's pricing state,
// oriented to a concrete swap direction. Quoting works exclusively on views
// so concurrent readers never observe a half-applied mutation.
type ShardView struct {
	ID           ShardID
	State        ShardState
	AssetIn      Asset
	AssetOut     Asset
	ReserveIn    *big.Int
	ReserveOut   *big.Int
	LpSupply     *big.Int
	TradeFeeRate uint64
	OwnerFeeRate uint64
	Curve        CurveParams
}

// View snapshots the shard oriented as assetIn -> assetOut. ok mirrors Orient.
func (s *Shard) View(assetIn, assetOut AssetID) (ShardView, bool) {
	aToB, ok := s.Orient(assetIn, assetOut)
	if !ok {
		return ShardView{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v := ShardView{
		ID:           s.ID,
		State:        s.state,
		LpSupply:     new(big.Int).Set(s.lpSupply),
		TradeFeeRate: s.tradeFeeRate,
		OwnerFeeRate: s.ownerFeeRate,
		Curve:        s.curve,
	}
	if aToB {
		v.AssetIn, v.AssetOut = s.AssetA, s.AssetB
		v.ReserveIn = new(big.Int).Set(s.reserveA)
		v.ReserveOut = new(big.Int).Set(s.reserveB)
	} else {
		v.AssetIn, v.AssetOut = s.AssetB, s.AssetA
		v.ReserveIn = new(big.Int).Set(s.reserveB)
		v.ReserveOut = new(big.Int).Set(s.reserveA)
	}
	return v, true
}

// Initialize performs the single Uninitialized -> Active transition, setting
// reserves, fee rates, curve and lpSupply in one step. Returns false when the
// shard is already Active; no partial initialization is ever observable.
func (s *Shard) Initialize(amountA, amountB, lpSupply *big.Int, tradeFeeRate, ownerFeeRate uint64, curve CurveParams) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != ShardUninitialized {
		return false
	}
	s.reserveA = new(big.Int).Set(amountA)
	s.reserveB = new(big.Int).Set(amountB)
	s.lpSupply = new(big.Int).Set(lpSupply)
	s.tradeFeeRate = tradeFeeRate
	s.ownerFeeRate = ownerFeeRate
	s.curve = curve
	s.state = ShardActive
	return true
}

// CommitSwap applies a fully validated swap: reserveIn grows by amountIn,
// reserveOut shrinks by amountOut. Callers quote and check slippage first;
// this is the single point where a swap touches reserves.
func (s *Shard) CommitSwap(aToB bool, amountIn, amountOut *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if aToB {
		s.reserveA.Add(s.reserveA, amountIn)
		s.reserveB.Sub(s.reserveB, amountOut)
	} else {
		s.reserveB.Add(s.reserveB, amountIn)
		s.reserveA.Sub(s.reserveA, amountOut)
	}
}

// ApplyLiquidity adjusts reserves and lpSupply by the given signed deltas.
// Used by both add (positive) and remove (negative) after validation.
func (s *Shard) ApplyLiquidity(deltaA, deltaB, deltaLP *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reserveA.Add(s.reserveA, deltaA)
	s.reserveB.Add(s.reserveB, deltaB)
	s.lpSupply.Add(s.lpSupply, deltaLP)
}

// SetParams replaces fee rates and curve parameters. Takes effect on the next
// quote, never retroactively. Owner checks happen above this layer.
func (s *Shard) SetParams(tradeFeeRate, ownerFeeRate uint64, curve CurveParams) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tradeFeeRate = tradeFeeRate
	s.ownerFeeRate = ownerFeeRate
	s.curve = curve
}

// Restore rehydrates a shard loaded from persistence. Only the persistence
// adapter calls this.
func (s *Shard) Restore(state ShardState, reserveA, reserveB, lpSupply *big.Int, tradeFeeRate, ownerFeeRate uint64, curve CurveParams) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = state
	s.reserveA = new(big.Int).Set(reserveA)
	s.reserveB = new(big.Int).Set(reserveB)
	s.lpSupply = new(big.Int).Set(lpSupply)
	s.tradeFeeRate = tradeFeeRate
	s.ownerFeeRate = ownerFeeRate
	s.curve = curve
}

// Reserves returns copies of the current reserves in A/B order.
func (s *Shard) Reserves() (reserveA, reserveB *big.Int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return new(big.Int).Set(s.reserveA), new(big.Int).Set(s.reserveB)
}

// LpSupply returns a copy of the current liquidity-token supply.
func (s *Shard) LpSupply() *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return new(big.Int).Set(s.lpSupply)
}

// Params returns the current fee rates and curve parameters.
func (s *Shard) Params() (tradeFeeRate, ownerFeeRate uint64, curve CurveParams) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tradeFeeRate, s.ownerFeeRate, s.curve
}
