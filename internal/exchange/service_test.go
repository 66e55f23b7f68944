package exchange

import (
	"context"
	"errors"
	"math/big"
	"testing"

	ledgeradapter "github.com/hxuan190/shard-exchange/internal/adapters/ledger"
	"github.com/hxuan190/shard-exchange/internal/config"
	"github.com/hxuan190/shard-exchange/internal/domain"
)

var testCurve = domain.CurveParams{
	BetaSlope:     -1_050_000,
	FeeFloor:      1_000,
	FeeCeiling:    12_000,
	MaxTradeRatio: 10_400,
}

const (
	billion = 1_000_000_000
	million = 1_000_000
)

func newTestService(t *testing.T) (*Service, *ledgeradapter.MemoryLedger) {
	t.Helper()

	ledger := ledgeradapter.NewMemoryLedger("exchange")
	directory := ledgeradapter.NewDirectory([]domain.Asset{
		{ID: "usd", DecimalScale: 6},
		{ID: "eth", DecimalScale: 6},
		{ID: "btc", DecimalScale: 6},
	})
	cfg := &config.ExchangeConfig{
		PersistenceEnabled: false,
		ExchangeAccount:    "exchange",
	}
	return New(cfg, ledger, directory), ledger
}

// newFundedShard creates, funds and initializes a 1000/1000 usd-eth shard
// owned by alice.
func newFundedShard(t *testing.T, svc *Service, ledger *ledgeradapter.MemoryLedger) *domain.Shard {
	t.Helper()

	ledger.Credit("alice", "usd", big.NewInt(10*billion))
	ledger.Credit("alice", "eth", big.NewInt(10*billion))

	shard, err := svc.CreateShard("usd", "eth", "alice")
	if err != nil {
		t.Fatalf("CreateShard failed: %v", err)
	}

	_, err = svc.InitializeShard(context.Background(), shard.ID,
		big.NewInt(billion), big.NewInt(billion), 12_000, 500, testCurve, "alice")
	if err != nil {
		t.Fatalf("InitializeShard failed: %v", err)
	}
	return shard
}

func TestCreateShardUnknownAsset(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.CreateShard("usd", "xrp", "alice"); !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("err = %v, want ErrAssetNotFound", err)
	}
}

func TestInitializeShard(t *testing.T) {
	svc, ledger := newTestService(t)
	ledger.Credit("alice", "usd", big.NewInt(2*billion))
	ledger.Credit("alice", "eth", big.NewInt(2*billion))

	shard, err := svc.CreateShard("usd", "eth", "alice")
	if err != nil {
		t.Fatalf("CreateShard failed: %v", err)
	}

	lpSupply, err := svc.InitializeShard(context.Background(), shard.ID,
		big.NewInt(billion), big.NewInt(billion), 12_000, 500, testCurve, "alice")
	if err != nil {
		t.Fatalf("InitializeShard failed: %v", err)
	}

	// geometric mean of two 1000-unit deposits at working precision
	wantLP, _ := new(big.Int).SetString("1000000000000000000000", 10)
	if lpSupply.Cmp(wantLP) != 0 {
		t.Errorf("lpSupply = %s, want %s", lpSupply, wantLP)
	}
	if shard.State() != domain.ShardActive {
		t.Errorf("state = %v, want Active", shard.State())
	}

	// deposits left alice's account
	if got := ledger.Balance("alice", "usd").Int64(); got != billion {
		t.Errorf("alice usd = %d, want %d", got, billion)
	}

	// second initialization must fail
	_, err = svc.InitializeShard(context.Background(), shard.ID,
		big.NewInt(billion), big.NewInt(billion), 12_000, 500, testCurve, "alice")
	if err == nil {
		t.Error("re-initialization succeeded, want error")
	}
}

func TestInitializeShardNotOwner(t *testing.T) {
	svc, ledger := newTestService(t)
	ledger.Credit("mallory", "usd", big.NewInt(billion))
	ledger.Credit("mallory", "eth", big.NewInt(billion))

	shard, _ := svc.CreateShard("usd", "eth", "alice")
	_, err := svc.InitializeShard(context.Background(), shard.ID,
		big.NewInt(billion), big.NewInt(billion), 12_000, 500, testCurve, "mallory")
	if !errors.Is(err, ErrNotOwner) {
		t.Errorf("err = %v, want ErrNotOwner", err)
	}
}

// TestInitializeShardRefundsOnPartialDeposit: when the second deposit leg
// fails, the first leg is refunded and the shard stays Uninitialized.
func TestInitializeShardRefundsOnPartialDeposit(t *testing.T) {
	svc, ledger := newTestService(t)
	ledger.Credit("alice", "usd", big.NewInt(2*billion))
	// no eth balance

	shard, _ := svc.CreateShard("usd", "eth", "alice")
	_, err := svc.InitializeShard(context.Background(), shard.ID,
		big.NewInt(billion), big.NewInt(billion), 12_000, 500, testCurve, "alice")
	if err == nil {
		t.Fatal("initialization succeeded without eth balance")
	}

	if got := ledger.Balance("alice", "usd").Int64(); got != 2*billion {
		t.Errorf("alice usd = %d after refund, want %d", got, 2*billion)
	}
	if shard.State() != domain.ShardUninitialized {
		t.Errorf("state = %v, want Uninitialized", shard.State())
	}
}

func TestQuoteMatchesReferenceNumbers(t *testing.T) {
	svc, ledger := newTestService(t)
	shard := newFundedShard(t, svc, ledger)

	shardID, quote, err := svc.Quote("usd", "eth", big.NewInt(million))
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}
	if shardID != shard.ID {
		t.Errorf("shard = %d, want %d", shardID, shard.ID)
	}
	if got := quote.AmountIn.Int64(); got != 1_011_450 {
		t.Errorf("AmountIn = %d, want 1011450", got)
	}
}

func TestExecuteSwap(t *testing.T) {
	svc, ledger := newTestService(t)
	shard := newFundedShard(t, svc, ledger)
	ledger.Credit("bob", "usd", big.NewInt(2*million))

	amountIn, err := svc.ExecuteSwap(context.Background(), shard.ID, "usd", "eth",
		big.NewInt(million), big.NewInt(1_011_450), "bob")
	if err != nil {
		t.Fatalf("ExecuteSwap failed: %v", err)
	}
	if amountIn.Int64() != 1_011_450 {
		t.Errorf("amountIn = %d, want 1011450", amountIn.Int64())
	}

	if got := ledger.Balance("bob", "usd").Int64(); got != 2*million-1_011_450 {
		t.Errorf("bob usd = %d, want %d", got, 2*million-1_011_450)
	}
	if got := ledger.Balance("bob", "eth").Int64(); got != million {
		t.Errorf("bob eth = %d, want %d", got, million)
	}

	reserveA, reserveB := shard.Reserves()
	if reserveA.Int64() != billion+1_011_450 {
		t.Errorf("usd reserve = %d, want %d", reserveA.Int64(), billion+1_011_450)
	}
	if reserveB.Int64() != billion-million {
		t.Errorf("eth reserve = %d, want %d", reserveB.Int64(), billion-million)
	}
}

// TestExecuteSwapSlippage: the execution-time re-quote must respect
// maxAmountIn, and a rejection leaves reserves and balances untouched.
func TestExecuteSwapSlippage(t *testing.T) {
	svc, ledger := newTestService(t)
	shard := newFundedShard(t, svc, ledger)
	ledger.Credit("bob", "usd", big.NewInt(2*million))

	_, err := svc.ExecuteSwap(context.Background(), shard.ID, "usd", "eth",
		big.NewInt(million), big.NewInt(1_011_449), "bob")
	if !errors.Is(err, ErrSlippageExceeded) {
		t.Fatalf("err = %v, want ErrSlippageExceeded", err)
	}

	if got := ledger.Balance("bob", "usd").Int64(); got != 2*million {
		t.Errorf("bob usd = %d, want untouched %d", got, 2*million)
	}
	reserveA, _ := shard.Reserves()
	if reserveA.Int64() != billion {
		t.Errorf("usd reserve = %d, want untouched %d", reserveA.Int64(), billion)
	}
}

func TestExecuteSwapInsufficientBalance(t *testing.T) {
	svc, ledger := newTestService(t)
	shard := newFundedShard(t, svc, ledger)
	ledger.Credit("bob", "usd", big.NewInt(1_000))

	_, err := svc.ExecuteSwap(context.Background(), shard.ID, "usd", "eth",
		big.NewInt(million), big.NewInt(2*million), "bob")
	if err == nil {
		t.Fatal("swap succeeded without funds")
	}

	reserveA, _ := shard.Reserves()
	if reserveA.Int64() != billion {
		t.Errorf("usd reserve = %d, want untouched %d", reserveA.Int64(), billion)
	}
}

func TestAddLiquidity(t *testing.T) {
	svc, ledger := newTestService(t)
	shard := newFundedShard(t, svc, ledger)
	ledger.Credit("bob", "usd", big.NewInt(billion))
	ledger.Credit("bob", "eth", big.NewInt(billion))

	half := big.NewInt(billion / 2)
	minted, err := svc.AddLiquidity(context.Background(), shard.ID, half, half, nil, "bob")
	if err != nil {
		t.Fatalf("AddLiquidity failed: %v", err)
	}

	// half the reserves mints half the supply
	wantMint, _ := new(big.Int).SetString("500000000000000000000", 10)
	if minted.Cmp(wantMint) != 0 {
		t.Errorf("minted = %s, want %s", minted, wantMint)
	}

	reserveA, reserveB := shard.Reserves()
	if reserveA.Int64() != billion+billion/2 || reserveB.Int64() != billion+billion/2 {
		t.Errorf("reserves = %d/%d", reserveA.Int64(), reserveB.Int64())
	}
}

func TestAddLiquidityRatioMismatch(t *testing.T) {
	svc, ledger := newTestService(t)
	shard := newFundedShard(t, svc, ledger)
	ledger.Credit("bob", "usd", big.NewInt(billion))
	ledger.Credit("bob", "eth", big.NewInt(billion))

	minLP, _ := new(big.Int).SetString("490000000000000000000", 10)
	_, err := svc.AddLiquidity(context.Background(), shard.ID,
		big.NewInt(billion/2), big.NewInt(billion/10), minLP, "bob")
	if !errors.Is(err, ErrRatioMismatch) {
		t.Fatalf("err = %v, want ErrRatioMismatch", err)
	}

	// no partial deposit
	if got := ledger.Balance("bob", "usd").Int64(); got != billion {
		t.Errorf("bob usd = %d, want untouched %d", got, billion)
	}
}

func TestAddLiquiditySlippage(t *testing.T) {
	svc, ledger := newTestService(t)
	shard := newFundedShard(t, svc, ledger)
	ledger.Credit("bob", "usd", big.NewInt(billion))
	ledger.Credit("bob", "eth", big.NewInt(billion))

	// balanced deposit but an unreachable minLP
	minLP, _ := new(big.Int).SetString("600000000000000000000", 10)
	_, err := svc.AddLiquidity(context.Background(), shard.ID,
		big.NewInt(billion/2), big.NewInt(billion/2), minLP, "bob")
	if !errors.Is(err, ErrSlippageExceeded) {
		t.Fatalf("err = %v, want ErrSlippageExceeded", err)
	}
}

func TestRemoveLiquidity(t *testing.T) {
	svc, ledger := newTestService(t)
	shard := newFundedShard(t, svc, ledger)

	burn, _ := new(big.Int).SetString("500000000000000000000", 10)
	payoutA, payoutB, err := svc.RemoveLiquidity(context.Background(), shard.ID,
		burn, nil, nil, "alice")
	if err != nil {
		t.Fatalf("RemoveLiquidity failed: %v", err)
	}

	if payoutA.Int64() != billion/2 || payoutB.Int64() != billion/2 {
		t.Errorf("payouts = %d/%d, want %d each", payoutA.Int64(), payoutB.Int64(), billion/2)
	}
	// alice started with 10B, deposited 1B at initialization, got 0.5B back
	if got := ledger.Balance("alice", "usd").Int64(); got != 10*billion-billion+billion/2 {
		t.Errorf("alice usd = %d", got)
	}

	reserveA, _ := shard.Reserves()
	if reserveA.Int64() != billion/2 {
		t.Errorf("usd reserve = %d, want %d", reserveA.Int64(), billion/2)
	}
}

func TestRemoveLiquidityMinGuard(t *testing.T) {
	svc, ledger := newTestService(t)
	shard := newFundedShard(t, svc, ledger)

	burn, _ := new(big.Int).SetString("500000000000000000000", 10)
	_, _, err := svc.RemoveLiquidity(context.Background(), shard.ID,
		burn, big.NewInt(billion), nil, "alice")
	if !errors.Is(err, ErrSlippageExceeded) {
		t.Fatalf("err = %v, want ErrSlippageExceeded", err)
	}
}

// TestDrainedShardStaysActive: withdrawing all liquidity leaves the shard
// Active with zero reserves, and quotes fail on zero reserve rather than
// state.
func TestDrainedShardStaysActive(t *testing.T) {
	svc, ledger := newTestService(t)
	shard := newFundedShard(t, svc, ledger)

	_, _, err := svc.RemoveLiquidity(context.Background(), shard.ID,
		shard.LpSupply(), nil, nil, "alice")
	if err != nil {
		t.Fatalf("full withdrawal failed: %v", err)
	}

	if shard.State() != domain.ShardActive {
		t.Errorf("state = %v, want Active after drain", shard.State())
	}
	if _, _, err := svc.Quote("usd", "eth", big.NewInt(1)); !errors.Is(err, ErrNoLiquidity) {
		t.Errorf("quote on drained shard: err = %v, want ErrNoLiquidity", err)
	}
}

func TestUpdateCurveParams(t *testing.T) {
	svc, ledger := newTestService(t)
	shard := newFundedShard(t, svc, ledger)

	updated := testCurve
	updated.FeeCeiling = 20_000

	if err := svc.UpdateCurveParams(shard.ID, 20_000, 500, updated, "mallory"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("err = %v, want ErrNotOwner", err)
	}
	if err := svc.UpdateCurveParams(shard.ID, 20_000, 500, updated, "alice"); err != nil {
		t.Fatalf("owner update failed: %v", err)
	}

	// the new ceiling shows up on the next quote
	_, quote, err := svc.Quote("usd", "eth", big.NewInt(million))
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}
	// feeRate = 0.02 - 1.05*0.001 = 0.01895
	if got := quote.TradeFee.Int64(); got != 18_950 {
		t.Errorf("TradeFee = %d, want 18950", got)
	}
}

func TestListShards(t *testing.T) {
	svc, ledger := newTestService(t)
	newFundedShard(t, svc, ledger)
	svc.CreateShard("usd", "eth", "bob") // uninitialized, still listed

	summaries, err := svc.ListShards("usd", "eth")
	if err != nil {
		t.Fatalf("ListShards failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("summaries = %d, want 2", len(summaries))
	}

	if summaries[0].State != domain.ShardActive || summaries[0].FeeRateAtZero != 12_000 {
		t.Errorf("summary[0] = %+v", summaries[0])
	}
	if summaries[1].State != domain.ShardUninitialized {
		t.Errorf("summary[1] state = %v, want Uninitialized", summaries[1].State)
	}

	if _, err := svc.ListShards("usd", "btc"); !errors.Is(err, ErrNoLiquidity) {
		t.Errorf("empty pair: err = %v, want ErrNoLiquidity", err)
	}
}

// TestRouteThroughIntermediary wires usd-eth and eth-btc shards and routes
// usd -> btc in two hops with matching boundary amounts.
func TestRouteThroughIntermediary(t *testing.T) {
	svc, ledger := newTestService(t)
	newFundedShard(t, svc, ledger)

	ledger.Credit("alice", "btc", big.NewInt(10*billion))
	second, err := svc.CreateShard("eth", "btc", "alice")
	if err != nil {
		t.Fatalf("CreateShard failed: %v", err)
	}
	_, err = svc.InitializeShard(context.Background(), second.ID,
		big.NewInt(billion), big.NewInt(billion), 12_000, 500, testCurve, "alice")
	if err != nil {
		t.Fatalf("InitializeShard failed: %v", err)
	}

	plan, err := svc.Route("usd", "btc", big.NewInt(million))
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	if len(plan.Hops) != 2 {
		t.Fatalf("hops = %d, want 2", len(plan.Hops))
	}
	if plan.Hops[0].AmountOut.Cmp(plan.Hops[1].AmountIn) != 0 {
		t.Errorf("hop boundary mismatch: %s vs %s", plan.Hops[0].AmountOut, plan.Hops[1].AmountIn)
	}
	if plan.AmountOut().Int64() != million {
		t.Errorf("plan output = %d, want %d", plan.AmountOut().Int64(), million)
	}
}
