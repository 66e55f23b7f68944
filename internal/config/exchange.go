package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andrew-solarstorm/go-packages/common"

	"github.com/hxuan190/shard-exchange/internal/domain"
)

type ExchangeConfig struct {
	// DBPath is the path to the BoltDB file for shard persistence.
	// Default: "./data/shard-exchange.db"
	DBPath string

	// PersistenceEnabled controls whether shards are persisted to disk.
	// Default: true
	PersistenceEnabled bool

	// Assets is a comma-separated "id:decimals" list defining the asset
	// directory, e.g. "usd:6,eth:18,btc:8".
	Assets string

	// ExchangeAccount is the ledger account the exchange settles through.
	ExchangeAccount string
}

func (c *ExchangeConfig) Key() string {
	return EXCHANGE_CONFIG_KEY
}

func (c *ExchangeConfig) Load() error {
	c.DBPath = common.GetEnvOrDefault("EXCHANGE_DB_PATH", "./data/shard-exchange.db")
	c.PersistenceEnabled = common.GetEnvOrDefault("EXCHANGE_PERSISTENCE_ENABLED", "true") == "true"
	c.Assets = common.GetEnvOrDefault("EXCHANGE_ASSETS", "usd:6,eth:18,btc:8")
	c.ExchangeAccount = common.GetEnvOrDefault("EXCHANGE_ACCOUNT", "exchange")
	return c.Validate()
}

func (c *ExchangeConfig) Validate() error {
	if _, err := c.AssetList(); err != nil {
		return err
	}
	if c.ExchangeAccount == "" {
		return fmt.Errorf("exchange account must not be empty")
	}
	return nil
}

// AssetList parses the Assets spec into directory entries.
func (c *ExchangeConfig) AssetList() ([]domain.Asset, error) {
	parts := strings.Split(c.Assets, ",")
	assets := make([]domain.Asset, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, decStr, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("invalid asset entry %q, want id:decimals", part)
		}

		dec, err := strconv.ParseUint(decStr, 10, 8)
		if err != nil || dec > 18 {
			return nil, fmt.Errorf("invalid decimal scale in asset entry %q", part)
		}

		assets = append(assets, domain.Asset{
			ID:           domain.AssetID(strings.TrimSpace(id)),
			DecimalScale: uint8(dec),
		})
	}

	if len(assets) == 0 {
		return nil, fmt.Errorf("asset directory must not be empty")
	}
	return assets, nil
}
