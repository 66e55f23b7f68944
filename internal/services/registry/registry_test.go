package registry

import (
	"errors"
	"math/big"
	"testing"

	"github.com/hxuan190/shard-exchange/internal/domain"
)

var (
	usd = domain.Asset{ID: "usd", DecimalScale: 6}
	eth = domain.Asset{ID: "eth", DecimalScale: 18}
	btc = domain.Asset{ID: "btc", DecimalScale: 8}
)

func TestCreateShardAssignsSequentialIDs(t *testing.T) {
	r := New()

	first, err := r.CreateShard(usd, eth, "alice")
	if err != nil {
		t.Fatalf("CreateShard failed: %v", err)
	}
	second, err := r.CreateShard(usd, eth, "bob")
	if err != nil {
		t.Fatalf("CreateShard failed: %v", err)
	}

	if first.ID != 1 || second.ID != 2 {
		t.Errorf("ids = %d, %d, want 1, 2", first.ID, second.ID)
	}
	if first.State() != domain.ShardUninitialized {
		t.Errorf("new shard state = %v, want Uninitialized", first.State())
	}
}

func TestCreateShardRejectsSameAsset(t *testing.T) {
	r := New()
	if _, err := r.CreateShard(usd, usd, "alice"); !errors.Is(err, ErrSameAsset) {
		t.Errorf("err = %v, want ErrSameAsset", err)
	}
}

func TestShardsForIsOrderIndependent(t *testing.T) {
	r := New()

	s1, _ := r.CreateShard(usd, eth, "alice")
	s2, _ := r.CreateShard(eth, usd, "bob")
	r.CreateShard(usd, btc, "carol")

	forward := r.ShardsFor("usd", "eth")
	reverse := r.ShardsFor("eth", "usd")

	if len(forward) != 2 || len(reverse) != 2 {
		t.Fatalf("lists = %d, %d shards, want 2, 2", len(forward), len(reverse))
	}
	if forward[0].ID != s1.ID || forward[1].ID != s2.ID {
		t.Errorf("creation order not preserved: got %d, %d", forward[0].ID, forward[1].ID)
	}
	for i := range forward {
		if forward[i].ID != reverse[i].ID {
			t.Errorf("pair lookup differs by argument order at %d", i)
		}
	}
}

func TestGet(t *testing.T) {
	r := New()
	created, _ := r.CreateShard(usd, eth, "alice")

	got, err := r.Get(created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != created {
		t.Error("Get returned a different shard instance")
	}

	if _, err := r.Get(999); !errors.Is(err, ErrShardNotFound) {
		t.Errorf("err = %v, want ErrShardNotFound", err)
	}
}

func TestRestore(t *testing.T) {
	r := New()

	shard := domain.NewShard(7, usd, eth, "alice")
	if err := r.Restore(shard); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	// duplicates are rejected
	if err := r.Restore(domain.NewShard(7, usd, eth, "bob")); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("err = %v, want ErrDuplicateID", err)
	}

	// the id counter advances past restored ids
	next, err := r.CreateShard(usd, btc, "carol")
	if err != nil {
		t.Fatalf("CreateShard failed: %v", err)
	}
	if next.ID != 8 {
		t.Errorf("next id = %d, want 8", next.ID)
	}
}

func TestAllPairsFirstSeenOrder(t *testing.T) {
	r := New()
	r.CreateShard(usd, eth, "alice")
	r.CreateShard(btc, usd, "bob")
	r.CreateShard(eth, usd, "carol") // existing pair, no new entry

	pairs := r.AllPairs()
	if len(pairs) != 2 {
		t.Fatalf("pairs = %d, want 2", len(pairs))
	}
	if pairs[0] != domain.NewPairKey("usd", "eth") || pairs[1] != domain.NewPairKey("btc", "usd") {
		t.Errorf("pair order = %v", pairs)
	}
}

func TestHasActiveShard(t *testing.T) {
	r := New()
	shard, _ := r.CreateShard(usd, eth, "alice")

	if r.HasActiveShard("usd", "eth") {
		t.Error("uninitialized shard counted as active")
	}

	shard.Initialize(big.NewInt(1000), big.NewInt(1000), big.NewInt(1000), 0, 0, domain.CurveParams{MaxTradeRatio: 1})
	if !r.HasActiveShard("eth", "usd") {
		t.Error("active shard not found")
	}
	if r.HasActiveShard("usd", "btc") {
		t.Error("unknown pair reported active")
	}
}

func TestAllShardsGroupedByPair(t *testing.T) {
	r := New()
	r.CreateShard(usd, eth, "alice") // id 1, pair usd/eth
	r.CreateShard(btc, usd, "bob")   // id 2, pair btc/usd
	r.CreateShard(eth, usd, "carol") // id 3, pair usd/eth

	all := r.AllShards()
	if len(all) != 3 {
		t.Fatalf("shards = %d, want 3", len(all))
	}
	wantOrder := []domain.ShardID{1, 3, 2}
	for i, shard := range all {
		if shard.ID != wantOrder[i] {
			t.Errorf("position %d: id = %d, want %d", i, shard.ID, wantOrder[i])
		}
	}
}
