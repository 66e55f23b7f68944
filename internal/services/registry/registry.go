// Package registry owns the process-wide shard arena: an append-only index
// of shards grouped by unordered asset pair. Shards are never removed; a
// drained shard stays listed and self-excludes from routing via ZeroReserve
// quote failures.
package registry

import (
	"errors"
	"sync"

	"github.com/hxuan190/shard-exchange/internal/domain"
)

var (
	ErrSameAsset     = errors.New("pair assets must differ")
	ErrShardNotFound = errors.New("shard not found")
	ErrDuplicateID   = errors.New("shard id already registered")
)

type Registry struct {
	mu     sync.RWMutex
	nextID domain.ShardID
	shards map[domain.ShardID]*domain.Shard

	// pairs keeps per-pair creation order; pairList keeps first-seen pair
	// order so intermediary scans are deterministic across calls.
	pairs    map[domain.PairKey][]domain.ShardID
	pairList []domain.PairKey
}

func New() *Registry {
	return &Registry{
		nextID: 1,
		shards: make(map[domain.ShardID]*domain.Shard),
		pairs:  make(map[domain.PairKey][]domain.ShardID),
	}
}

// CreateShard appends a new Uninitialized shard to the pair's list and
// returns it. (A,B) and (B,A) resolve to the same list.
func (r *Registry) CreateShard(assetA, assetB domain.Asset, owner string) (*domain.Shard, error) {
	if assetA.ID == assetB.ID {
		return nil, ErrSameAsset
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++

	shard := domain.NewShard(id, assetA, assetB, owner)
	r.track(shard)
	return shard, nil
}

// Restore re-registers a shard loaded from persistence under its original id.
// The pair index order is the caller's responsibility (load in stored order).
func (r *Registry) Restore(shard *domain.Shard) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.shards[shard.ID]; exists {
		return ErrDuplicateID
	}
	if shard.ID >= r.nextID {
		r.nextID = shard.ID + 1
	}
	r.track(shard)
	return nil
}

func (r *Registry) track(shard *domain.Shard) {
	key := shard.Pair()
	if _, seen := r.pairs[key]; !seen {
		r.pairList = append(r.pairList, key)
	}
	r.shards[shard.ID] = shard
	r.pairs[key] = append(r.pairs[key], shard.ID)
}

// Get returns the shard with the given id.
func (r *Registry) Get(id domain.ShardID) (*domain.Shard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	shard, ok := r.shards[id]
	if !ok {
		return nil, ErrShardNotFound
	}
	return shard, nil
}

// ShardsFor returns the pair's shards in creation order. The slice is a copy;
// the shards themselves are shared and internally synchronized.
func (r *Registry) ShardsFor(a, b domain.AssetID) []*domain.Shard {
	key := domain.NewPairKey(a, b)

	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.pairs[key]
	if len(ids) == 0 {
		return nil
	}
	out := make([]*domain.Shard, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.shards[id])
	}
	return out
}

// AllPairs returns every pair key in first-creation order.
func (r *Registry) AllPairs() []domain.PairKey {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.PairKey, len(r.pairList))
	copy(out, r.pairList)
	return out
}

// AllShards returns every shard, grouped by pair in creation order.
func (r *Registry) AllShards() []*domain.Shard {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Shard, 0, len(r.shards))
	for _, key := range r.pairList {
		for _, id := range r.pairs[key] {
			out = append(out, r.shards[id])
		}
	}
	return out
}

// HasActiveShard reports whether the pair has at least one Active shard.
// Routing uses this to qualify intermediary assets before quoting.
func (r *Registry) HasActiveShard(a, b domain.AssetID) bool {
	for _, shard := range r.ShardsFor(a, b) {
		if shard.State() == domain.ShardActive {
			return true
		}
	}
	return false
}

// Len returns the total shard count.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.shards)
}
