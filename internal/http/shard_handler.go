package http

import (
	"math/big"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/shard-exchange/internal/domain"
	"github.com/hxuan190/shard-exchange/internal/exchange"
	"github.com/hxuan190/shard-exchange/internal/http/httputil"
)

type ShardHandler struct {
	exchangeSvc *exchange.Service
}

func NewShardHandler(exchangeSvc *exchange.Service) *ShardHandler {
	return &ShardHandler{exchangeSvc: exchangeSvc}
}

func (h *ShardHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.listShards)
	pub.GET("/pairs", h.listPairs)
	pub.GET("/:id", h.getShard)

	admin.POST("", h.createShard)
	admin.POST("/:id/initialize", h.initializeShard)
	admin.POST("/:id/liquidity", h.addLiquidity)
	admin.POST("/:id/liquidity/remove", h.removeLiquidity)
	admin.POST("/:id/swap", h.executeSwap)
	admin.POST("/:id/params", h.updateParams)
}

func (h *ShardHandler) Root() string {
	return "/shards"
}

// ShardSummaryInfo is the per-shard listing entry, oriented to the caller's
// in/out direction.
type ShardSummaryInfo struct {
	ShardID    uint64 `json:"shardId" example:"1"`
	State      string `json:"state" example:"active"`
	ReserveIn  string `json:"reserveIn" example:"1000000000"`
	ReserveOut string `json:"reserveOut" example:"1000000000"`

	// Marginal fee rate at zero trade size, in millionths
	FeeRateAtZero uint64 `json:"feeRateAtZero" example:"12000"`
}

// ShardDetail is the full state of one shard in its native A/B orientation.
type ShardDetail struct {
	ShardID      uint64 `json:"shardId" example:"1"`
	State        string `json:"state" example:"active"`
	AssetA       string `json:"assetA" example:"eth"`
	AssetB       string `json:"assetB" example:"usd"`
	Owner        string `json:"owner" example:"alice"`
	ReserveA     string `json:"reserveA" example:"1000000000"`
	ReserveB     string `json:"reserveB" example:"1000000000"`
	LpSupply     string `json:"lpSupply" example:"1000000000000000000"`
	TradeFeeRate uint64 `json:"tradeFeeRate" example:"12000"`
	OwnerFeeRate uint64 `json:"ownerFeeRate" example:"500"`

	BetaSlope     int64  `json:"betaSlope" example:"-1050000"`
	FeeFloor      uint64 `json:"feeFloor" example:"1000"`
	FeeCeiling    uint64 `json:"feeCeiling" example:"12000"`
	MaxTradeRatio uint64 `json:"maxTradeRatio" example:"10400"`
}

// CurveParamsRequest carries curve and fee parameters in millionths.
type CurveParamsRequest struct {
	TradeFeeRate  uint64 `json:"tradeFeeRate" example:"12000"`
	OwnerFeeRate  uint64 `json:"ownerFeeRate" example:"500"`
	BetaSlope     int64  `json:"betaSlope" example:"-1050000"`
	FeeFloor      uint64 `json:"feeFloor" example:"1000"`
	FeeCeiling    uint64 `json:"feeCeiling" example:"12000"`
	MaxTradeRatio uint64 `json:"maxTradeRatio" binding:"required" example:"10400"`
}

func (r *CurveParamsRequest) curve() domain.CurveParams {
	return domain.CurveParams{
		BetaSlope:     r.BetaSlope,
		FeeFloor:      r.FeeFloor,
		FeeCeiling:    r.FeeCeiling,
		MaxTradeRatio: r.MaxTradeRatio,
	}
}

type CreateShardRequest struct {
	AssetA string `json:"assetA" binding:"required" example:"eth"`
	AssetB string `json:"assetB" binding:"required" example:"usd"`
	Owner  string `json:"owner" binding:"required" example:"alice"`
}

type InitializeShardRequest struct {
	CurveParamsRequest
	AmountA string `json:"amountA" binding:"required" example:"1000000000"`
	AmountB string `json:"amountB" binding:"required" example:"1000000000"`
	From    string `json:"from" binding:"required" example:"alice"`
}

type AddLiquidityRequest struct {
	AmountA string `json:"amountA" binding:"required" example:"500000000"`
	AmountB string `json:"amountB" binding:"required" example:"500000000"`
	MinLP   string `json:"minLp" example:"0"`
	From    string `json:"from" binding:"required" example:"bob"`
}

type RemoveLiquidityRequest struct {
	LpAmount string `json:"lpAmount" binding:"required" example:"100000000"`
	MinA     string `json:"minA" example:"0"`
	MinB     string `json:"minB" example:"0"`
	To       string `json:"to" binding:"required" example:"bob"`
}

type ExecuteSwapRequest struct {
	AssetIn     string `json:"assetIn" binding:"required" example:"usd"`
	AssetOut    string `json:"assetOut" binding:"required" example:"eth"`
	AmountOut   string `json:"amountOut" binding:"required" example:"1000000"`
	MaxAmountIn string `json:"maxAmountIn" binding:"required" example:"1020000"`
	Recipient   string `json:"recipient" binding:"required" example:"bob"`
}

func parseAmount(c *gin.Context, name, raw string, required bool) (*big.Int, bool) {
	if raw == "" {
		if required {
			httputil.BadRequest(c, "missing "+name)
			return nil, false
		}
		return new(big.Int), true
	}

	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok || amount.Sign() < 0 {
		httputil.BadRequest(c, "invalid "+name+": must be a non-negative integer")
		return nil, false
	}
	return amount, true
}

func parseShardID(c *gin.Context) (domain.ShardID, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httputil.BadRequest(c, "invalid shard id")
		return 0, false
	}
	return domain.ShardID(id), true
}

// @Summary List shards for a pair
// @Description Summarize every shard registered for the pair, oriented to the
// @Description caller's assetIn/assetOut direction.
// @Tags shards
// @Produce json
// @Param assetIn query string true "Input asset identifier" example("usd")
// @Param assetOut query string true "Output asset identifier" example("eth")
// @Success 200 {array} ShardSummaryInfo
// @Failure 404 {object} map[string]string "No shards for the pair"
// @Router /api/v1/shards [get]
func (h *ShardHandler) listShards(c *gin.Context) {
	assetIn := c.Query("assetIn")
	assetOut := c.Query("assetOut")
	if assetIn == "" || assetOut == "" {
		httputil.BadRequest(c, "assetIn and assetOut are required")
		return
	}

	summaries, err := h.exchangeSvc.ListShards(domain.AssetID(assetIn), domain.AssetID(assetOut))
	if err != nil {
		handleExchangeError(c, err)
		return
	}

	out := make([]ShardSummaryInfo, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, ShardSummaryInfo{
			ShardID:       uint64(s.ShardID),
			State:         s.State.String(),
			ReserveIn:     s.ReserveIn.String(),
			ReserveOut:    s.ReserveOut.String(),
			FeeRateAtZero: s.FeeRateAtZero,
		})
	}
	httputil.Success(c, out)
}

// @Summary List registered pairs
// @Tags shards
// @Produce json
// @Success 200 {array} string
// @Router /api/v1/shards/pairs [get]
func (h *ShardHandler) listPairs(c *gin.Context) {
	pairs := h.exchangeSvc.AllPairs()
	out := make([]string, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, p.String())
	}
	httputil.Success(c, out)
}

// @Summary Get shard detail
// @Tags shards
// @Produce json
// @Param id path int true "Shard id"
// @Success 200 {object} ShardDetail
// @Failure 404 {object} map[string]string "Unknown shard"
// @Router /api/v1/shards/{id} [get]
func (h *ShardHandler) getShard(c *gin.Context) {
	id, ok := parseShardID(c)
	if !ok {
		return
	}

	shard, err := h.exchangeSvc.GetShard(id)
	if err != nil {
		handleExchangeError(c, err)
		return
	}

	httputil.Success(c, shardToDetail(shard))
}

// @Summary Create shard
// @Description Register an Uninitialized shard for the pair. It prices
// @Description nothing until initialized with funds and curve parameters.
// @Tags shards
// @Accept json
// @Produce json
// @Param request body CreateShardRequest true "Pair and owner"
// @Success 200 {object} ShardDetail
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /api/v1/admin/shards [post]
func (h *ShardHandler) createShard(c *gin.Context) {
	var req CreateShardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	shard, err := h.exchangeSvc.CreateShard(domain.AssetID(req.AssetA), domain.AssetID(req.AssetB), req.Owner)
	if err != nil {
		handleExchangeError(c, err)
		return
	}

	httputil.Success(c, shardToDetail(shard))
}

// @Summary Initialize shard
// @Description Fund a shard, fix its fee and curve parameters, and mint the
// @Description initial LP supply. One-way transition.
// @Tags shards
// @Accept json
// @Produce json
// @Param id path int true "Shard id"
// @Param request body InitializeShardRequest true "Deposits and parameters"
// @Success 200 {object} map[string]string "Minted LP supply"
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /api/v1/admin/shards/{id}/initialize [post]
func (h *ShardHandler) initializeShard(c *gin.Context) {
	id, ok := parseShardID(c)
	if !ok {
		return
	}

	var req InitializeShardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	amountA, ok := parseAmount(c, "amountA", req.AmountA, true)
	if !ok {
		return
	}
	amountB, ok := parseAmount(c, "amountB", req.AmountB, true)
	if !ok {
		return
	}

	lpSupply, err := h.exchangeSvc.InitializeShard(c.Request.Context(), id, amountA, amountB, req.TradeFeeRate, req.OwnerFeeRate, req.curve(), req.From)
	if err != nil {
		handleExchangeError(c, err)
		return
	}

	httputil.Success(c, gin.H{"lpSupply": lpSupply.String()})
}

// @Summary Add liquidity
// @Tags shards
// @Accept json
// @Produce json
// @Param id path int true "Shard id"
// @Param request body AddLiquidityRequest true "Deposits and minimum LP"
// @Success 200 {object} map[string]string "Minted LP amount"
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /api/v1/admin/shards/{id}/liquidity [post]
func (h *ShardHandler) addLiquidity(c *gin.Context) {
	id, ok := parseShardID(c)
	if !ok {
		return
	}

	var req AddLiquidityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	amountA, ok := parseAmount(c, "amountA", req.AmountA, true)
	if !ok {
		return
	}
	amountB, ok := parseAmount(c, "amountB", req.AmountB, true)
	if !ok {
		return
	}
	minLP, ok := parseAmount(c, "minLp", req.MinLP, false)
	if !ok {
		return
	}

	minted, err := h.exchangeSvc.AddLiquidity(c.Request.Context(), id, amountA, amountB, minLP, req.From)
	if err != nil {
		handleExchangeError(c, err)
		return
	}

	httputil.Success(c, gin.H{"lpMinted": minted.String()})
}

// @Summary Remove liquidity
// @Tags shards
// @Accept json
// @Produce json
// @Param id path int true "Shard id"
// @Param request body RemoveLiquidityRequest true "LP to burn and minimum payouts"
// @Success 200 {object} map[string]string "Payout amounts"
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /api/v1/admin/shards/{id}/liquidity/remove [post]
func (h *ShardHandler) removeLiquidity(c *gin.Context) {
	id, ok := parseShardID(c)
	if !ok {
		return
	}

	var req RemoveLiquidityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	lpAmount, ok := parseAmount(c, "lpAmount", req.LpAmount, true)
	if !ok {
		return
	}
	minA, ok := parseAmount(c, "minA", req.MinA, false)
	if !ok {
		return
	}
	minB, ok := parseAmount(c, "minB", req.MinB, false)
	if !ok {
		return
	}

	payoutA, payoutB, err := h.exchangeSvc.RemoveLiquidity(c.Request.Context(), id, lpAmount, minA, minB, req.To)
	if err != nil {
		handleExchangeError(c, err)
		return
	}

	httputil.Success(c, gin.H{
		"amountA": payoutA.String(),
		"amountB": payoutB.String(),
	})
}

// @Summary Execute exact-output swap
// @Description Re-quotes under the exchange's write lock and settles if the
// @Description required input stays within maxAmountIn.
// @Tags shards
// @Accept json
// @Produce json
// @Param id path int true "Shard id"
// @Param request body ExecuteSwapRequest true "Swap parameters"
// @Success 200 {object} map[string]string "Settled input amount"
// @Failure 400 {object} map[string]string "Invalid request or slippage exceeded"
// @Router /api/v1/admin/shards/{id}/swap [post]
func (h *ShardHandler) executeSwap(c *gin.Context) {
	id, ok := parseShardID(c)
	if !ok {
		return
	}

	var req ExecuteSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	amountOut, ok := parseAmount(c, "amountOut", req.AmountOut, true)
	if !ok {
		return
	}
	maxAmountIn, ok := parseAmount(c, "maxAmountIn", req.MaxAmountIn, true)
	if !ok {
		return
	}

	amountIn, err := h.exchangeSvc.ExecuteSwap(c.Request.Context(), id, domain.AssetID(req.AssetIn), domain.AssetID(req.AssetOut), amountOut, maxAmountIn, req.Recipient)
	if err != nil {
		handleExchangeError(c, err)
		return
	}

	httputil.Success(c, gin.H{"amountIn": amountIn.String()})
}

// @Summary Update curve parameters
// @Description Owner-only. Takes effect on the next quote.
// @Tags shards
// @Accept json
// @Produce json
// @Param id path int true "Shard id"
// @Param request body CurveParamsRequest true "New parameters"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Invalid request or not owner"
// @Router /api/v1/admin/shards/{id}/params [post]
func (h *ShardHandler) updateParams(c *gin.Context) {
	id, ok := parseShardID(c)
	if !ok {
		return
	}

	var req struct {
		CurveParamsRequest
		Caller string `json:"caller" binding:"required" example:"alice"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if err := h.exchangeSvc.UpdateCurveParams(id, req.TradeFeeRate, req.OwnerFeeRate, req.curve(), req.Caller); err != nil {
		handleExchangeError(c, err)
		return
	}

	httputil.Success(c, gin.H{"status": "updated"})
}

func shardToDetail(shard *domain.Shard) ShardDetail {
	reserveA, reserveB := shard.Reserves()
	tradeFeeRate, ownerFeeRate, curveParams := shard.Params()

	return ShardDetail{
		ShardID:      uint64(shard.ID),
		State:        shard.State().String(),
		AssetA:       string(shard.AssetA.ID),
		AssetB:       string(shard.AssetB.ID),
		Owner:        shard.Owner,
		ReserveA:     reserveA.String(),
		ReserveB:     reserveB.String(),
		LpSupply:     shard.LpSupply().String(),
		TradeFeeRate: tradeFeeRate,
		OwnerFeeRate: ownerFeeRate,

		BetaSlope:     curveParams.BetaSlope,
		FeeFloor:      curveParams.FeeFloor,
		FeeCeiling:    curveParams.FeeCeiling,
		MaxTradeRatio: curveParams.MaxTradeRatio,
	}
}
