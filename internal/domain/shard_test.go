package domain

import (
	"math/big"
	"testing"
)

var (
	usd = Asset{ID: "usd", DecimalScale: 6}
	eth = Asset{ID: "eth", DecimalScale: 18}
)

func TestNewPairKeyUnordered(t *testing.T) {
	if NewPairKey("usd", "eth") != NewPairKey("eth", "usd") {
		t.Error("pair keys differ by argument order")
	}
	if got := NewPairKey("usd", "eth").String(); got != "eth/usd" {
		t.Errorf("String = %q, want eth/usd", got)
	}
}

func TestPairKeyOther(t *testing.T) {
	key := NewPairKey("usd", "eth")

	other, ok := key.Other("usd")
	if !ok || other != "eth" {
		t.Errorf("Other(usd) = %q, %v", other, ok)
	}
	if _, ok := key.Other("btc"); ok {
		t.Error("Other accepted an asset outside the pair")
	}
}

func TestOrient(t *testing.T) {
	shard := NewShard(1, usd, eth, "alice")

	tests := []struct {
		name     string
		assetIn  AssetID
		assetOut AssetID
		wantAToB bool
		wantOK   bool
	}{
		{"a to b", "usd", "eth", true, true},
		{"b to a", "eth", "usd", false, true},
		{"unknown in", "btc", "eth", false, false},
		{"unknown out", "usd", "btc", false, false},
		{"same asset", "usd", "usd", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aToB, ok := shard.Orient(tt.assetIn, tt.assetOut)
			if aToB != tt.wantAToB || ok != tt.wantOK {
				t.Errorf("Orient = %v, %v, want %v, %v", aToB, ok, tt.wantAToB, tt.wantOK)
			}
		})
	}
}

func TestInitializeOneWay(t *testing.T) {
	shard := NewShard(1, usd, eth, "alice")
	params := CurveParams{MaxTradeRatio: 10_400}

	if !shard.Initialize(big.NewInt(100), big.NewInt(200), big.NewInt(50), 1_000, 500, params) {
		t.Fatal("first Initialize returned false")
	}
	if shard.State() != ShardActive {
		t.Errorf("state = %v, want Active", shard.State())
	}
	if shard.Initialize(big.NewInt(1), big.NewInt(1), big.NewInt(1), 0, 0, params) {
		t.Error("second Initialize succeeded")
	}

	reserveA, reserveB := shard.Reserves()
	if reserveA.Int64() != 100 || reserveB.Int64() != 200 {
		t.Errorf("reserves = %d/%d, want 100/200", reserveA.Int64(), reserveB.Int64())
	}
}

func TestViewOrientsReserves(t *testing.T) {
	shard := NewShard(1, usd, eth, "alice")
	shard.Initialize(big.NewInt(100), big.NewInt(200), big.NewInt(50), 1_000, 500, CurveParams{MaxTradeRatio: 1})

	v, ok := shard.View("eth", "usd")
	if !ok {
		t.Fatal("View rejected a valid orientation")
	}
	if v.AssetIn != eth || v.AssetOut != usd {
		t.Errorf("assets = %v -> %v", v.AssetIn.ID, v.AssetOut.ID)
	}
	if v.ReserveIn.Int64() != 200 || v.ReserveOut.Int64() != 100 {
		t.Errorf("reserves = %d/%d, want 200/100", v.ReserveIn.Int64(), v.ReserveOut.Int64())
	}

	if _, ok := shard.View("usd", "btc"); ok {
		t.Error("View accepted an asset outside the pair")
	}
}

// TestViewIsSnapshot: mutating the shard after taking a view must not change
// the view's reserves.
func TestViewIsSnapshot(t *testing.T) {
	shard := NewShard(1, usd, eth, "alice")
	shard.Initialize(big.NewInt(100), big.NewInt(200), big.NewInt(50), 0, 0, CurveParams{MaxTradeRatio: 1})

	v, _ := shard.View("usd", "eth")
	shard.CommitSwap(true, big.NewInt(10), big.NewInt(20))

	if v.ReserveIn.Int64() != 100 || v.ReserveOut.Int64() != 200 {
		t.Errorf("snapshot reserves moved: %d/%d", v.ReserveIn.Int64(), v.ReserveOut.Int64())
	}
}

func TestCommitSwapDirections(t *testing.T) {
	shard := NewShard(1, usd, eth, "alice")
	shard.Initialize(big.NewInt(1_000), big.NewInt(1_000), big.NewInt(1_000), 0, 0, CurveParams{MaxTradeRatio: 1})

	shard.CommitSwap(true, big.NewInt(100), big.NewInt(50))
	reserveA, reserveB := shard.Reserves()
	if reserveA.Int64() != 1_100 || reserveB.Int64() != 950 {
		t.Errorf("after aToB: %d/%d, want 1100/950", reserveA.Int64(), reserveB.Int64())
	}

	shard.CommitSwap(false, big.NewInt(100), big.NewInt(50))
	reserveA, reserveB = shard.Reserves()
	if reserveA.Int64() != 1_050 || reserveB.Int64() != 1_050 {
		t.Errorf("after bToA: %d/%d, want 1050/1050", reserveA.Int64(), reserveB.Int64())
	}
}

func TestCurveParamsValid(t *testing.T) {
	tests := []struct {
		name   string
		params CurveParams
		want   bool
	}{
		{"typical", CurveParams{BetaSlope: -1_050_000, FeeFloor: 1_000, FeeCeiling: 12_000, MaxTradeRatio: 10_400}, true},
		{"flat curve", CurveParams{MaxTradeRatio: 1}, true},
		{"positive slope", CurveParams{BetaSlope: 1, MaxTradeRatio: 1}, false},
		{"floor above ceiling", CurveParams{FeeFloor: 2, FeeCeiling: 1, MaxTradeRatio: 1}, false},
		{"zero threshold", CurveParams{}, false},
		{"threshold above one", CurveParams{MaxTradeRatio: FeeScale + 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.params.Valid(); got != tt.want {
				t.Errorf("Valid = %v, want %v", got, tt.want)
			}
		})
	}
}
