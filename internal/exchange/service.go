package exchange

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	ledgeradapter "github.com/hxuan190/shard-exchange/internal/adapters/ledger"
	"github.com/hxuan190/shard-exchange/internal/adapters/persistence"
	"github.com/hxuan190/shard-exchange/internal/config"
	"github.com/hxuan190/shard-exchange/internal/domain"
	"github.com/hxuan190/shard-exchange/internal/metrics"
	"github.com/hxuan190/shard-exchange/internal/services"
	"github.com/hxuan190/shard-exchange/internal/services/registry"
	"github.com/hxuan190/shard-exchange/internal/services/router"
)

const EXCHANGE_SERVICE = "exchange-service"

var (
	ErrSlippageExceeded = errors.New("slippage exceeded")
	ErrRatioMismatch    = errors.New("liquidity ratio mismatch")
	ErrNotOwner         = errors.New("caller is not the shard owner")
	ErrInvalidParams    = errors.New("invalid shard parameters")

	// Error aliases
	ErrNoLiquidity   = router.ErrNoLiquidity
	ErrNoRoute       = router.ErrNoRoute
	ErrInvalidRoute  = router.ErrInvalidRoute
	ErrShardNotFound = registry.ErrShardNotFound
	ErrSameAsset     = registry.ErrSameAsset
	ErrAssetNotFound = domain.ErrAssetNotFound
)

// Ledger moves asset balances between accounts and the exchange. Transfers
// are expected to commit or abort together with the reserve update they
// accompany; the in-memory reference lives in adapters/ledger.
type Ledger interface {
	TransferIn(ctx context.Context, asset domain.AssetID, amount *big.Int, from string) error
	TransferOut(ctx context.Context, asset domain.AssetID, amount *big.Int, to string) error
}

type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	// mu serializes every state mutation. Quotes read shard snapshots and
	// run without it.
	mu sync.Mutex

	registry  *registry.Registry
	router    *router.Router
	store     *persistence.Storage
	ledger    Ledger
	directory domain.AssetDirectory

	config *config.ExchangeConfig
}

// New builds a standalone service without the container, for embedding and
// tests. Persistence stays off unless Start is called with a config that
// enables it.
func New(cfg *config.ExchangeConfig, l Ledger, d domain.AssetDirectory) *Service {
	svc := &Service{
		config:    cfg,
		ledger:    l,
		directory: d,
		registry:  registry.New(),
	}
	svc.logger = services.NewServiceLogger(svc)
	svc.router = router.New(svc.registry, svc.shardQuote)
	return svc
}

func (svc *Service) ID() string {
	return EXCHANGE_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)
	svc.config = c.GetConfig(config.EXCHANGE_CONFIG_KEY).(*config.ExchangeConfig)

	assets, err := svc.config.AssetList()
	if err != nil {
		return err
	}

	if svc.directory == nil {
		svc.directory = ledgeradapter.NewDirectory(assets)
	}
	if svc.ledger == nil {
		svc.ledger = ledgeradapter.NewMemoryLedger(svc.config.ExchangeAccount)
	}

	svc.registry = registry.New()
	svc.router = router.New(svc.registry, svc.shardQuote)

	return nil
}

func (svc *Service) Start() error {
	if !svc.config.PersistenceEnabled {
		svc.logger.Warn().Msg("persistence disabled, shards will not survive restarts")
		return nil
	}

	store, err := persistence.NewStorage(svc.config.DBPath)
	if err != nil {
		return err
	}
	svc.store = store

	shards, err := store.LoadAllShards()
	if err != nil {
		return err
	}

	for _, shard := range shards {
		if err := svc.registry.Restore(shard); err != nil {
			svc.logger.ErrorShard(shard.ID).Err(err).Msg("failed to restore shard, skipping")
		}
	}

	metrics.ShardCount.Set(float64(svc.registry.Len()))
	metrics.PairCount.Set(float64(len(svc.registry.AllPairs())))

	svc.logger.Info().Int("shards", svc.registry.Len()).Msg("exchange started")
	return nil
}

func (svc *Service) Stop() error {
	if svc.store == nil {
		return nil
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	if err := svc.store.SaveShardBatch(svc.registry.AllShards()); err != nil {
		log.Error().Err(err).Msg("[exchangeService] failed to flush shards on shutdown")
	}
	return svc.store.Close()
}

// SetLedger replaces the ledger backend. Must be called before Configure
// returns the service into the running container.
func (svc *Service) SetLedger(l Ledger) {
	svc.ledger = l
}

// SetDirectory replaces the asset directory.
func (svc *Service) SetDirectory(d domain.AssetDirectory) {
	svc.directory = d
}

// Registry exposes the shard registry for handlers and tests.
func (svc *Service) Registry() *registry.Registry {
	return svc.registry
}

func (svc *Service) persist(shard *domain.Shard) {
	if svc.store == nil {
		return
	}
	if err := svc.store.SaveShard(shard); err != nil {
		metrics.StorageWriteFailures.Inc()
		svc.logger.ErrorShard(shard.ID).Err(err).Msg("failed to persist shard")
		return
	}
	metrics.StorageWrites.Inc()
}
