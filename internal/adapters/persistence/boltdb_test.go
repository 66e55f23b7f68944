package persistence

import (
	"math/big"
	"testing"

	"github.com/bytedance/sonic"

	"github.com/hxuan190/shard-exchange/internal/domain"
	"github.com/hxuan190/shard-exchange/internal/services/registry"
)

func TestShardStoredRoundTrip(t *testing.T) {
	assetA := domain.Asset{ID: "eth", DecimalScale: 18}
	assetB := domain.Asset{ID: "usd", DecimalScale: 6}

	shard := domain.NewShard(42, assetA, assetB, "alice")
	reserveA, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	shard.Restore(domain.ShardActive,
		reserveA, big.NewInt(987_654_321), big.NewInt(1_000_000),
		12_000, 500,
		domain.CurveParams{BetaSlope: -1_050_000, FeeFloor: 1_000, FeeCeiling: 12_000, MaxTradeRatio: 10_400})

	stored := shardToStored(shard)
	restored, err := storedToShard(stored)
	if err != nil {
		t.Fatalf("storedToShard failed: %v", err)
	}

	if restored.ID != shard.ID || restored.Owner != shard.Owner {
		t.Errorf("identity mismatch: id %d owner %q", restored.ID, restored.Owner)
	}
	if restored.AssetA != assetA || restored.AssetB != assetB {
		t.Errorf("assets mismatch: %+v / %+v", restored.AssetA, restored.AssetB)
	}
	if restored.State() != domain.ShardActive {
		t.Errorf("state = %v, want Active", restored.State())
	}

	gotA, gotB := restored.Reserves()
	if gotA.Cmp(reserveA) != 0 {
		t.Errorf("reserveA = %s, want %s", gotA, reserveA)
	}
	if gotB.Int64() != 987_654_321 {
		t.Errorf("reserveB = %s", gotB)
	}

	tradeFeeRate, ownerFeeRate, curve := restored.Params()
	if tradeFeeRate != 12_000 || ownerFeeRate != 500 {
		t.Errorf("fee rates = %d/%d", tradeFeeRate, ownerFeeRate)
	}
	if curve.BetaSlope != -1_050_000 || curve.MaxTradeRatio != 10_400 {
		t.Errorf("curve = %+v", curve)
	}
}

func TestStoredToShardRejectsCorruptRecords(t *testing.T) {
	valid := StoredShard{
		ID: 1, State: uint8(domain.ShardActive),
		AssetA: "eth", AssetADec: 18,
		AssetB: "usd", AssetBDec: 6,
		ReserveA: "10", ReserveB: "20", LpSupply: "5",
	}

	tests := []struct {
		name   string
		mutate func(*StoredShard)
	}{
		{"missing asset", func(s *StoredShard) { s.AssetA = "" }},
		{"bad reserveA", func(s *StoredShard) { s.ReserveA = "not-a-number" }},
		{"bad lpSupply", func(s *StoredShard) { s.LpSupply = "" }},
		{"bad state", func(s *StoredShard) { s.State = 99 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stored := valid
			tt.mutate(&stored)
			if _, err := storedToShard(&stored); err == nil {
				t.Error("corrupt record accepted")
			}
		})
	}
}

func TestShardKeyOrdering(t *testing.T) {
	// lexicographic key order must match numeric id order
	if string(shardKey(2)) >= string(shardKey(10)) {
		t.Errorf("key(2)=%s not below key(10)=%s", shardKey(2), shardKey(10))
	}
}

// Bucket listings come back as an unordered map, so a restart must not
// depend on iteration order: decodeShards sorts by id, which is creation
// order, and the rebuilt per-pair lists match the pre-restart registry.
func TestDecodeShardsRestoresCreationOrder(t *testing.T) {
	assetA := domain.Asset{ID: "usd", DecimalScale: 6}
	assetB := domain.Asset{ID: "eth", DecimalScale: 6}

	data := make(map[string][]byte, 16)
	for id := uint64(1); id <= 16; id++ {
		shard := domain.NewShard(domain.ShardID(id), assetA, assetB, "alice")
		raw, err := sonic.Marshal(shardToStored(shard))
		if err != nil {
			t.Fatalf("marshal shard %d: %v", id, err)
		}
		data[string(shardKey(id))] = raw
	}

	shards, unmarshalFailed, conversionFailed := decodeShards(data)
	if unmarshalFailed != 0 || conversionFailed != 0 {
		t.Fatalf("decode failures: %d/%d", unmarshalFailed, conversionFailed)
	}
	if len(shards) != 16 {
		t.Fatalf("decoded %d shards, want 16", len(shards))
	}
	for i, shard := range shards {
		if want := domain.ShardID(i + 1); shard.ID != want {
			t.Fatalf("shards[%d].ID = %d, want %d", i, shard.ID, want)
		}
	}

	reg := registry.New()
	for _, shard := range shards {
		if err := reg.Restore(shard); err != nil {
			t.Fatalf("Restore shard %d: %v", shard.ID, err)
		}
	}
	for i, shard := range reg.ShardsFor("usd", "eth") {
		if want := domain.ShardID(i + 1); shard.ID != want {
			t.Errorf("pair list[%d] = %d, want %d", i, shard.ID, want)
		}
	}
}

func TestUninitializedShardRoundTrip(t *testing.T) {
	shard := domain.NewShard(7,
		domain.Asset{ID: "btc", DecimalScale: 8},
		domain.Asset{ID: "usd", DecimalScale: 6},
		"bob")

	restored, err := storedToShard(shardToStored(shard))
	if err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if restored.State() != domain.ShardUninitialized {
		t.Errorf("state = %v, want Uninitialized", restored.State())
	}
	reserveA, reserveB := restored.Reserves()
	if reserveA.Sign() != 0 || reserveB.Sign() != 0 {
		t.Errorf("reserves = %s/%s, want zero", reserveA, reserveB)
	}
}
