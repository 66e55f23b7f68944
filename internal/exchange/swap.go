package exchange

import (
	"context"
	"math/big"
	"time"

	"github.com/hxuan190/shard-exchange/internal/domain"
	"github.com/hxuan190/shard-exchange/internal/metrics"
	"github.com/hxuan190/shard-exchange/internal/services/curve"
)

// Quote prices an exact-output swap against the best shard for the pair.
// Read-only and safe to call concurrently; the result is advisory until
// ExecuteSwap re-quotes under the mutation lock.
func (svc *Service) Quote(assetIn, assetOut domain.AssetID, amountOut *big.Int) (domain.ShardID, *domain.SwapQuote, error) {
	start := time.Now()

	shard, quote, err := svc.router.BestShard(assetIn, assetOut, amountOut)
	metrics.QuoteDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.QuoteRequests.WithLabelValues("failed").Inc()
		return 0, nil, err
	}

	metrics.QuoteRequests.WithLabelValues("ok").Inc()
	return shard.ID, quote, nil
}

// Route computes an exact-output plan, direct or through one intermediary.
func (svc *Service) Route(assetIn, assetOut domain.AssetID, amountOut *big.Int) (*domain.RoutePlan, error) {
	start := time.Now()

	plan, err := svc.router.Route(assetIn, assetOut, amountOut)
	metrics.RouteDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RouteRequests.WithLabelValues("failed").Inc()
		return nil, err
	}

	metrics.RouteRequests.WithLabelValues("ok").Inc()
	return plan, nil
}

// ExecuteSwap settles an exact-output swap against one shard. The quote is
// recomputed under the mutation lock; if reserves moved past maxAmountIn
// since the caller's quote, the swap fails SlippageExceeded with no effects.
func (svc *Service) ExecuteSwap(ctx context.Context, id domain.ShardID, assetIn, assetOut domain.AssetID, amountOut, maxAmountIn *big.Int, recipient string) (*big.Int, error) {
	if amountOut == nil || amountOut.Sign() <= 0 || maxAmountIn == nil {
		return nil, ErrInvalidParams
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	shard, err := svc.registry.Get(id)
	if err != nil {
		metrics.SwapExecutions.WithLabelValues("failed").Inc()
		return nil, err
	}

	quote, err := svc.shardQuote(shard, assetIn, assetOut, amountOut)
	if err != nil {
		metrics.SwapExecutions.WithLabelValues("failed").Inc()
		return nil, err
	}

	if quote.AmountIn.Cmp(maxAmountIn) > 0 {
		metrics.SwapExecutions.WithLabelValues("slippage").Inc()
		return nil, ErrSlippageExceeded
	}

	if err := svc.ledger.TransferIn(ctx, assetIn, quote.AmountIn, recipient); err != nil {
		metrics.SwapExecutions.WithLabelValues("failed").Inc()
		return nil, err
	}
	if err := svc.ledger.TransferOut(ctx, assetOut, amountOut, recipient); err != nil {
		if rbErr := svc.ledger.TransferOut(ctx, assetIn, quote.AmountIn, recipient); rbErr != nil {
			svc.logger.ErrorShard(id).Err(rbErr).Msg("refund failed after swap abort")
		}
		metrics.SwapExecutions.WithLabelValues("failed").Inc()
		return nil, err
	}

	aToB, _ := shard.Orient(assetIn, assetOut)
	shard.CommitSwap(aToB, quote.AmountIn, amountOut)
	svc.persist(shard)
	metrics.SwapExecutions.WithLabelValues("ok").Inc()

	svc.logger.InfoShard(id).
		Str("assetIn", string(assetIn)).
		Str("assetOut", string(assetOut)).
		Str("amountIn", quote.AmountIn.String()).
		Str("amountOut", amountOut.String()).
		Str("recipient", recipient).
		Msg("swap executed")

	return quote.AmountIn, nil
}

// ListShards summarizes every shard for a pair in creation order. Shards the
// caller cannot trade against still appear, with their state exposed.
func (svc *Service) ListShards(assetIn, assetOut domain.AssetID) ([]domain.ShardSummary, error) {
	shards := svc.registry.ShardsFor(assetIn, assetOut)
	if len(shards) == 0 {
		return nil, ErrNoLiquidity
	}

	summaries := make([]domain.ShardSummary, 0, len(shards))
	for _, shard := range shards {
		view, ok := shard.View(assetIn, assetOut)
		if !ok {
			continue
		}
		summaries = append(summaries, domain.ShardSummary{
			ShardID:       shard.ID,
			State:         view.State,
			ReserveIn:     view.ReserveIn,
			ReserveOut:    view.ReserveOut,
			FeeRateAtZero: curve.FeeRateAtZero(view.Curve, view.TradeFeeRate),
		})
	}
	return summaries, nil
}

// GetShard returns the live shard by id.
func (svc *Service) GetShard(id domain.ShardID) (*domain.Shard, error) {
	return svc.registry.Get(id)
}

// AllShards returns every registered shard grouped by pair.
func (svc *Service) AllShards() []*domain.Shard {
	return svc.registry.AllShards()
}

// AllPairs returns every pair with at least one shard, in creation order.
func (svc *Service) AllPairs() []domain.PairKey {
	return svc.registry.AllPairs()
}
