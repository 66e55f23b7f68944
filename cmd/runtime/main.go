package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/shard-exchange/internal/common"
	"github.com/hxuan190/shard-exchange/internal/config"
	"github.com/hxuan190/shard-exchange/internal/exchange"
	"github.com/hxuan190/shard-exchange/internal/http"
)

// @title Shard Exchange API
// @version 1.0
// @description Sharded-liquidity exchange core: exact-output quoting across
// @description many small pools per pair, single-intermediary routing, and a
// @description size-discounting fee curve that favors small shards for
// @description small-to-medium trades.
// @description
// @description ## Amounts
// @description - All amounts are decimal strings in the asset's smallest units
// @description - Fee rates and curve parameters are integers in millionths
// @description
// @description ## Rate Limit
// @description - 10 requests/second (burst: 20)
// @BasePath /
// @schemes http
// @tag.name quote
// @tag.description Exact-output quotes and route plans
// @tag.name shards
// @tag.description Shard listing, lifecycle, liquidity, and swap execution

func main() {
	common.InitRuntime()

	// load env
	err := godotenv.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load env")
		return
	}

	// di container config
	conf := container.NewConf(
		&config.GeneralConfig{},
		&config.ExchangeConfig{},
	)

	// di container
	dic, err := container.New(
		conf,

		&exchange.Service{},
		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	// Run() blocks until SIGINT/SIGTERM
	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}
