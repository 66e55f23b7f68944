package exchange

import (
	"context"
	"math/big"

	"github.com/hxuan190/shard-exchange/internal/domain"
	"github.com/hxuan190/shard-exchange/internal/metrics"
)

// AddLiquidity mints LP shares proportional to the current reserve ratio.
// The mint is the lower of the two per-side proportions; a deposit far off
// the reserve ratio therefore under-mints and fails the caller's minLP guard.
func (svc *Service) AddLiquidity(ctx context.Context, id domain.ShardID, amountA, amountB, minLP *big.Int, from string) (*big.Int, error) {
	if amountA == nil || amountA.Sign() <= 0 || amountB == nil || amountB.Sign() <= 0 {
		return nil, ErrInvalidParams
	}
	if minLP == nil {
		minLP = new(big.Int)
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	shard, err := svc.registry.Get(id)
	if err != nil {
		return nil, err
	}
	if shard.State() != domain.ShardActive {
		return nil, domain.ErrNotInitialized
	}

	reserveA, reserveB := shard.Reserves()
	lpSupply := shard.LpSupply()
	if reserveA.Sign() == 0 || reserveB.Sign() == 0 || lpSupply.Sign() == 0 {
		return nil, domain.ErrNotInitialized
	}

	lpA := new(big.Int).Mul(lpSupply, amountA)
	lpA.Quo(lpA, reserveA)
	lpB := new(big.Int).Mul(lpSupply, amountB)
	lpB.Quo(lpB, reserveB)

	minted := lpA
	if lpB.Cmp(lpA) < 0 {
		minted = lpB
	}

	if minted.Sign() == 0 || minted.Cmp(minLP) < 0 {
		metrics.LiquidityOps.WithLabelValues("add", "rejected").Inc()
		if lpA.Cmp(lpB) != 0 {
			return nil, ErrRatioMismatch
		}
		return nil, ErrSlippageExceeded
	}

	if err := svc.ledger.TransferIn(ctx, shard.AssetA.ID, amountA, from); err != nil {
		metrics.LiquidityOps.WithLabelValues("add", "failed").Inc()
		return nil, err
	}
	if err := svc.ledger.TransferIn(ctx, shard.AssetB.ID, amountB, from); err != nil {
		if rbErr := svc.ledger.TransferOut(ctx, shard.AssetA.ID, amountA, from); rbErr != nil {
			svc.logger.ErrorShard(id).Err(rbErr).Msg("refund failed after deposit abort")
		}
		metrics.LiquidityOps.WithLabelValues("add", "failed").Inc()
		return nil, err
	}

	shard.ApplyLiquidity(amountA, amountB, minted)
	svc.persist(shard)
	metrics.LiquidityOps.WithLabelValues("add", "ok").Inc()

	svc.logger.InfoShard(id).
		Str("minted", minted.String()).
		Str("provider", from).
		Msg("liquidity added")

	return minted, nil
}

// RemoveLiquidity burns LP shares and pays out both reserves pro rata,
// rounding payouts down so the pool never over-distributes. A shard drained
// to zero stays Active; quotes against it fail until someone re-adds funds.
func (svc *Service) RemoveLiquidity(ctx context.Context, id domain.ShardID, lpAmount, minA, minB *big.Int, to string) (*big.Int, *big.Int, error) {
	if lpAmount == nil || lpAmount.Sign() <= 0 {
		return nil, nil, ErrInvalidParams
	}
	if minA == nil {
		minA = new(big.Int)
	}
	if minB == nil {
		minB = new(big.Int)
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	shard, err := svc.registry.Get(id)
	if err != nil {
		return nil, nil, err
	}
	if shard.State() != domain.ShardActive {
		return nil, nil, domain.ErrNotInitialized
	}

	reserveA, reserveB := shard.Reserves()
	lpSupply := shard.LpSupply()
	if lpSupply.Sign() == 0 || lpAmount.Cmp(lpSupply) > 0 {
		return nil, nil, ErrInvalidParams
	}

	payoutA := new(big.Int).Mul(reserveA, lpAmount)
	payoutA.Quo(payoutA, lpSupply)
	payoutB := new(big.Int).Mul(reserveB, lpAmount)
	payoutB.Quo(payoutB, lpSupply)

	if payoutA.Cmp(minA) < 0 || payoutB.Cmp(minB) < 0 {
		metrics.LiquidityOps.WithLabelValues("remove", "rejected").Inc()
		return nil, nil, ErrSlippageExceeded
	}

	negA := new(big.Int).Neg(payoutA)
	negB := new(big.Int).Neg(payoutB)
	negLP := new(big.Int).Neg(lpAmount)
	shard.ApplyLiquidity(negA, negB, negLP)

	if err := svc.ledger.TransferOut(ctx, shard.AssetA.ID, payoutA, to); err != nil {
		shard.ApplyLiquidity(payoutA, payoutB, lpAmount)
		metrics.LiquidityOps.WithLabelValues("remove", "failed").Inc()
		return nil, nil, err
	}
	if err := svc.ledger.TransferOut(ctx, shard.AssetB.ID, payoutB, to); err != nil {
		shard.ApplyLiquidity(payoutA, payoutB, lpAmount)
		if rbErr := svc.ledger.TransferIn(ctx, shard.AssetA.ID, payoutA, to); rbErr != nil {
			svc.logger.ErrorShard(id).Err(rbErr).Msg("clawback failed after payout abort")
		}
		metrics.LiquidityOps.WithLabelValues("remove", "failed").Inc()
		return nil, nil, err
	}

	svc.persist(shard)
	metrics.LiquidityOps.WithLabelValues("remove", "ok").Inc()

	svc.logger.InfoShard(id).
		Str("burned", lpAmount.String()).
		Str("recipient", to).
		Msg("liquidity removed")

	return payoutA, payoutB, nil
}
