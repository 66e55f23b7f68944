package exchange

import (
	"context"
	"math/big"

	"github.com/hxuan190/shard-exchange/internal/domain"
	"github.com/hxuan190/shard-exchange/internal/metrics"
	"github.com/hxuan190/shard-exchange/internal/services/curve"
	"github.com/hxuan190/shard-exchange/internal/services/precision"
)

// shardQuote is the QuoterFunc handed to the router. Pure read: snapshots the
// shard and prices against the snapshot.
func (svc *Service) shardQuote(shard *domain.Shard, assetIn, assetOut domain.AssetID, amountOut *big.Int) (*domain.SwapQuote, error) {
	view, ok := shard.View(assetIn, assetOut)
	if !ok {
		return nil, domain.ErrUnknownAsset
	}
	if view.State != domain.ShardActive {
		return nil, domain.ErrNotInitialized
	}
	return curve.Quote(view, amountOut)
}

// CreateShard appends an Uninitialized shard for the pair and records its
// owner. The shard prices nothing until InitializeShard funds it.
func (svc *Service) CreateShard(assetA, assetB domain.AssetID, owner string) (*domain.Shard, error) {
	a, err := svc.directory.Lookup(assetA)
	if err != nil {
		return nil, err
	}
	b, err := svc.directory.Lookup(assetB)
	if err != nil {
		return nil, err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	shard, err := svc.registry.CreateShard(a, b, owner)
	if err != nil {
		return nil, err
	}

	svc.persist(shard)
	metrics.ShardCount.Set(float64(svc.registry.Len()))
	metrics.PairCount.Set(float64(len(svc.registry.AllPairs())))

	svc.logger.InfoShard(shard.ID).
		Str("pair", shard.Pair().String()).
		Str("owner", owner).
		Msg("shard created")

	return shard, nil
}

// InitializeShard funds a new shard, fixes its fee and curve parameters, and
// mints the initial LP supply. The deposit is pulled from the caller's ledger
// account; a failure on the second leg refunds the first.
func (svc *Service) InitializeShard(ctx context.Context, id domain.ShardID, amountA, amountB *big.Int, tradeFeeRate, ownerFeeRate uint64, curveParams domain.CurveParams, from string) (*big.Int, error) {
	if amountA == nil || amountA.Sign() <= 0 || amountB == nil || amountB.Sign() <= 0 {
		return nil, ErrInvalidParams
	}
	if tradeFeeRate >= domain.FeeScale || ownerFeeRate >= domain.FeeScale {
		return nil, ErrInvalidParams
	}
	if !curveParams.Valid() {
		return nil, ErrInvalidParams
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	shard, err := svc.registry.Get(id)
	if err != nil {
		return nil, err
	}
	if shard.State() != domain.ShardUninitialized {
		return nil, ErrInvalidParams
	}
	if from != shard.Owner {
		return nil, ErrNotOwner
	}

	lpSupply, err := initialLpSupply(amountA, shard.AssetA.DecimalScale, amountB, shard.AssetB.DecimalScale)
	if err != nil {
		return nil, err
	}

	if err := svc.ledger.TransferIn(ctx, shard.AssetA.ID, amountA, from); err != nil {
		return nil, err
	}
	if err := svc.ledger.TransferIn(ctx, shard.AssetB.ID, amountB, from); err != nil {
		if rbErr := svc.ledger.TransferOut(ctx, shard.AssetA.ID, amountA, from); rbErr != nil {
			svc.logger.ErrorShard(id).Err(rbErr).Msg("refund failed after deposit abort")
		}
		return nil, err
	}

	if !shard.Initialize(amountA, amountB, lpSupply, tradeFeeRate, ownerFeeRate, curveParams) {
		// State moved under us despite the lock; refund both legs.
		svc.ledger.TransferOut(ctx, shard.AssetA.ID, amountA, from)
		svc.ledger.TransferOut(ctx, shard.AssetB.ID, amountB, from)
		return nil, ErrInvalidParams
	}

	svc.persist(shard)

	svc.logger.InfoShard(id).
		Str("lpSupply", lpSupply.String()).
		Uint64("tradeFeeRate", tradeFeeRate).
		Uint64("ownerFeeRate", ownerFeeRate).
		Msg("shard initialized")

	return lpSupply, nil
}

// UpdateCurveParams swaps a live shard's parameters. Owner only; applies to
// the next quote, never retroactively.
func (svc *Service) UpdateCurveParams(id domain.ShardID, tradeFeeRate, ownerFeeRate uint64, curveParams domain.CurveParams, caller string) error {
	if tradeFeeRate >= domain.FeeScale || ownerFeeRate >= domain.FeeScale {
		return ErrInvalidParams
	}
	if !curveParams.Valid() {
		return ErrInvalidParams
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	shard, err := svc.registry.Get(id)
	if err != nil {
		return err
	}
	if caller != shard.Owner {
		return ErrNotOwner
	}

	shard.SetParams(tradeFeeRate, ownerFeeRate, curveParams)
	svc.persist(shard)

	svc.logger.InfoShard(id).Str("caller", caller).Msg("curve params updated")
	return nil
}

// initialLpSupply is the geometric mean of the two deposits after both are
// normalized to working precision, so pairs with different decimal scales
// mint comparable initial supplies.
func initialLpSupply(amountA *big.Int, decA uint8, amountB *big.Int, decB uint8) (*big.Int, error) {
	normA, err := precision.Normalize(amountA, decA, precision.WorkingDecimals)
	if err != nil {
		return nil, err
	}
	normB, err := precision.Normalize(amountB, decB, precision.WorkingDecimals)
	if err != nil {
		return nil, err
	}

	product := new(big.Int).Mul(normA, normB)
	lp := product.Sqrt(product)
	if lp.Sign() == 0 {
		return nil, precision.ErrAmountTooSmall
	}
	return lp, nil
}
