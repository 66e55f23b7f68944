package persistence

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/shard-exchange/internal/domain"
)

const (
	ShardsBucket = "shards"

	DefaultDBPath = "./data/shard-exchange.db"
)

// StoredShard is the on-disk form of a shard. Amounts are decimal strings
// so arbitrary-precision reserves survive the JSON round trip.
type StoredShard struct {
	ID           uint64 `json:"id"`
	State        uint8  `json:"state"`
	AssetA       string `json:"assetA"`
	AssetADec    uint8  `json:"assetADec"`
	AssetB       string `json:"assetB"`
	AssetBDec    uint8  `json:"assetBDec"`
	Owner        string `json:"owner"`
	ReserveA     string `json:"reserveA"`
	ReserveB     string `json:"reserveB"`
	LpSupply     string `json:"lpSupply"`
	TradeFeeRate uint64 `json:"tradeFeeRate"`
	OwnerFeeRate uint64 `json:"ownerFeeRate"`

	BetaSlope     int64  `json:"betaSlope"`
	FeeFloor      uint64 `json:"feeFloor"`
	FeeCeiling    uint64 `json:"feeCeiling"`
	MaxTradeRatio uint64 `json:"maxTradeRatio"`
}

type Storage struct {
	db     *boltdb.BoltDatabase
	dbPath string
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	os.MkdirAll(filepath.Dir(dbPath), 0755)

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}

	log.Info().Str("path", dbPath).Msg("[shardStorage] opened database")

	return &Storage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) SaveShard(shard *domain.Shard) error {
	stored := shardToStored(shard)
	data, err := sonic.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal shard: %w", err)
	}

	return s.db.Set(ShardsBucket, shardKey(stored.ID), data)
}

func (s *Storage) SaveShardBatch(shards []*domain.Shard) error {
	if len(shards) == 0 {
		return nil
	}

	batch := s.db.NewBatch()
	for _, shard := range shards {
		stored := shardToStored(shard)
		data, err := sonic.Marshal(stored)
		if err != nil {
			return fmt.Errorf("failed to marshal shard %d: %w", stored.ID, err)
		}

		value := data
		op := &boltdb.WriteOperation{
			Bucket: []byte(ShardsBucket),
			Key:    shardKey(stored.ID),
			Value:  &value,
			Op:     boltdb.OpSet,
		}
		if err := batch.Add(op); err != nil {
			return fmt.Errorf("failed to add shard %d to batch: %w", stored.ID, err)
		}
	}

	if err := batch.Execute(); err != nil {
		log.Error().Err(err).Int("count", len(shards)).Msg("[shardStorage] FAILED to execute batch")
		return err
	}

	log.Info().Int("count", len(shards)).Msg("[shardStorage] saved shard batch")
	return nil
}

func (s *Storage) LoadAllShards() ([]*domain.Shard, error) {
	data, err := s.db.List(ShardsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list shards: %w", err)
	}

	shards, unmarshalFailed, conversionFailed := decodeShards(data)

	if unmarshalFailed > 0 || conversionFailed > 0 {
		log.Error().
			Int("total_in_db", len(data)).
			Int("loaded", len(shards)).
			Int("unmarshal_failed", unmarshalFailed).
			Int("conversion_failed", conversionFailed).
			Msg("[shardStorage] shard loading completed with errors")
	} else {
		log.Info().
			Int("total_in_db", len(data)).
			Int("loaded", len(shards)).
			Msg("[shardStorage] shard loading completed successfully")
	}

	return shards, nil
}

// decodeShards converts raw records into shards, skipping corrupt entries.
// List hands back an unordered map, so the result is sorted by id: ids are
// assigned in creation order and the registry's per-pair lists must be
// rebuilt in it.
func decodeShards(data map[string][]byte) ([]*domain.Shard, int, int) {
	shards := make([]*domain.Shard, 0, len(data))
	unmarshalFailed := 0
	conversionFailed := 0

	for key, value := range data {
		var stored StoredShard
		if err := sonic.Unmarshal(value, &stored); err != nil {
			log.Error().Str("key", key).Err(err).Msg("[shardStorage] failed to unmarshal shard, skipping")
			unmarshalFailed++
			continue
		}

		shard, err := storedToShard(&stored)
		if err != nil {
			log.Error().Str("key", key).Err(err).Msg("[shardStorage] failed to convert stored shard, skipping")
			conversionFailed++
			continue
		}

		shards = append(shards, shard)
	}

	sort.Slice(shards, func(i, j int) bool { return shards[i].ID < shards[j].ID })

	return shards, unmarshalFailed, conversionFailed
}

func (s *Storage) GetShardCount() (int, error) {
	data, err := s.db.List(ShardsBucket)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// shardKey pads the id so bolt's lexicographic order matches numeric order.
func shardKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%020d", id))
}

func shardToStored(shard *domain.Shard) *StoredShard {
	reserveA, reserveB := shard.Reserves()
	lpSupply := shard.LpSupply()
	tradeFeeRate, ownerFeeRate, curve := shard.Params()

	ra := "0"
	rb := "0"
	lp := "0"
	if reserveA != nil {
		ra = reserveA.String()
	}
	if reserveB != nil {
		rb = reserveB.String()
	}
	if lpSupply != nil {
		lp = lpSupply.String()
	}

	return &StoredShard{
		ID:           uint64(shard.ID),
		State:        uint8(shard.State()),
		AssetA:       string(shard.AssetA.ID),
		AssetADec:    shard.AssetA.DecimalScale,
		AssetB:       string(shard.AssetB.ID),
		AssetBDec:    shard.AssetB.DecimalScale,
		Owner:        shard.Owner,
		ReserveA:     ra,
		ReserveB:     rb,
		LpSupply:     lp,
		TradeFeeRate: tradeFeeRate,
		OwnerFeeRate: ownerFeeRate,

		BetaSlope:     curve.BetaSlope,
		FeeFloor:      curve.FeeFloor,
		FeeCeiling:    curve.FeeCeiling,
		MaxTradeRatio: curve.MaxTradeRatio,
	}
}

func storedToShard(stored *StoredShard) (*domain.Shard, error) {
	if stored.AssetA == "" || stored.AssetB == "" {
		return nil, fmt.Errorf("missing asset ids")
	}

	reserveA, ok := new(big.Int).SetString(stored.ReserveA, 10)
	if !ok {
		return nil, fmt.Errorf("invalid reserveA %q", stored.ReserveA)
	}
	reserveB, ok := new(big.Int).SetString(stored.ReserveB, 10)
	if !ok {
		return nil, fmt.Errorf("invalid reserveB %q", stored.ReserveB)
	}
	lpSupply, ok := new(big.Int).SetString(stored.LpSupply, 10)
	if !ok {
		return nil, fmt.Errorf("invalid lpSupply %q", stored.LpSupply)
	}

	state := domain.ShardState(stored.State)
	if state != domain.ShardUninitialized && state != domain.ShardActive {
		return nil, fmt.Errorf("invalid state %s", strconv.Itoa(int(stored.State)))
	}

	assetA := domain.Asset{ID: domain.AssetID(stored.AssetA), DecimalScale: stored.AssetADec}
	assetB := domain.Asset{ID: domain.AssetID(stored.AssetB), DecimalScale: stored.AssetBDec}

	shard := domain.NewShard(domain.ShardID(stored.ID), assetA, assetB, stored.Owner)
	shard.Restore(state, reserveA, reserveB, lpSupply, stored.TradeFeeRate, stored.OwnerFeeRate, domain.CurveParams{
		BetaSlope:     stored.BetaSlope,
		FeeFloor:      stored.FeeFloor,
		FeeCeiling:    stored.FeeCeiling,
		MaxTradeRatio: stored.MaxTradeRatio,
	})

	return shard, nil
}
