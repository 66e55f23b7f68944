package http

import (
	"errors"
	"math/big"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/shard-exchange/internal/domain"
	"github.com/hxuan190/shard-exchange/internal/exchange"
	"github.com/hxuan190/shard-exchange/internal/http/httputil"
	"github.com/hxuan190/shard-exchange/internal/services/curve"
)

type QuoteHandler struct {
	exchangeSvc *exchange.Service
}

func NewQuoteHandler(exchangeSvc *exchange.Service) *QuoteHandler {
	return &QuoteHandler{exchangeSvc: exchangeSvc}
}

func (h *QuoteHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getQuote)
	pub.GET("/route", h.getRoute)
}

func (h *QuoteHandler) Root() string {
	return "/quote"
}

// QuoteRequest asks for an exact-output price: the caller fixes amountOut
// and the exchange computes the required input.
type QuoteRequest struct {
	// Input asset identifier
	AssetIn string `form:"assetIn" binding:"required" example:"usd"`

	// Output asset identifier
	AssetOut string `form:"assetOut" binding:"required" example:"eth"`

	// Desired output amount in the output asset's smallest units
	AmountOut string `form:"amountOut" binding:"required" example:"1000000"`
}

// QuoteResponse is the priced exact-output swap against the best shard.
type QuoteResponse struct {
	ShardID uint64 `json:"shardId" example:"1"`

	AssetIn  string `json:"assetIn" example:"usd"`
	AssetOut string `json:"assetOut" example:"eth"`

	// Required input amount in the input asset's smallest units
	AmountIn string `json:"amountIn" example:"1011450"`

	AmountOut string `json:"amountOut" example:"1000000"`

	// Trade fee portion of amountIn
	TradeFee string `json:"tradeFee" example:"10950"`

	// Owner fee portion of amountIn
	OwnerFee string `json:"ownerFee" example:"500"`
}

// RouteHopInfo describes one hop of a route plan.
type RouteHopInfo struct {
	ShardID   uint64 `json:"shardId" example:"3"`
	AssetIn   string `json:"assetIn" example:"usd"`
	AssetOut  string `json:"assetOut" example:"eth"`
	AmountIn  string `json:"amountIn" example:"1011450"`
	AmountOut string `json:"amountOut" example:"1000000"`
}

// RouteResponse is a full exact-output plan, one or two hops.
type RouteResponse struct {
	AssetIn   string         `json:"assetIn" example:"usd"`
	AssetOut  string         `json:"assetOut" example:"btc"`
	AmountIn  string         `json:"amountIn" example:"1011450"`
	AmountOut string         `json:"amountOut" example:"1000000"`
	HopCount  int            `json:"hopCount" example:"2"`
	Hops      []RouteHopInfo `json:"hops"`
}

func (h *QuoteHandler) parseQuoteRequest(c *gin.Context) (*QuoteRequest, *big.Int, bool) {
	var req QuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.BadRequest(c, "invalid query parameters: "+err.Error())
		return nil, nil, false
	}

	amountOut, ok := new(big.Int).SetString(req.AmountOut, 10)
	if !ok || amountOut.Sign() <= 0 {
		httputil.BadRequest(c, "invalid amountOut: must be a positive integer")
		return nil, nil, false
	}

	return &req, amountOut, true
}

// @Summary Get exact-output swap quote
// @Description Price a swap where the caller fixes the desired output amount.
// @Description The exchange scans every shard for the pair and returns the one
// @Description requiring the lowest input.
// @Tags quote
// @Produce json
// @Param assetIn query string true "Input asset identifier" example("usd")
// @Param assetOut query string true "Output asset identifier" example("eth")
// @Param amountOut query string true "Desired output in smallest units" example("1000000")
// @Success 200 {object} QuoteResponse "Best available quote"
// @Failure 400 {object} map[string]string "Invalid request parameters"
// @Failure 404 {object} map[string]string "No shard can serve the request"
// @Router /api/v1/quote [get]
func (h *QuoteHandler) getQuote(c *gin.Context) {
	req, amountOut, ok := h.parseQuoteRequest(c)
	if !ok {
		return
	}

	shardID, quote, err := h.exchangeSvc.Quote(domain.AssetID(req.AssetIn), domain.AssetID(req.AssetOut), amountOut)
	if err != nil {
		handleExchangeError(c, err)
		return
	}

	httputil.Success(c, QuoteResponse{
		ShardID:   uint64(shardID),
		AssetIn:   req.AssetIn,
		AssetOut:  req.AssetOut,
		AmountIn:  quote.AmountIn.String(),
		AmountOut: amountOut.String(),
		TradeFee:  quote.TradeFee.String(),
		OwnerFee:  quote.OwnerFee.String(),
	})
}

// @Summary Get exact-output route plan
// @Description Compute a route for the pair: direct if any shard serves it,
// @Description otherwise through a single intermediary asset. Plans are
// @Description composed backward from the destination so hop boundaries
// @Description match exactly.
// @Tags quote
// @Produce json
// @Param assetIn query string true "Input asset identifier" example("usd")
// @Param assetOut query string true "Output asset identifier" example("btc")
// @Param amountOut query string true "Desired output in smallest units" example("1000000")
// @Success 200 {object} RouteResponse "Route plan"
// @Failure 400 {object} map[string]string "Invalid request parameters"
// @Failure 404 {object} map[string]string "No path can serve the request"
// @Router /api/v1/quote/route [get]
func (h *QuoteHandler) getRoute(c *gin.Context) {
	req, amountOut, ok := h.parseQuoteRequest(c)
	if !ok {
		return
	}

	plan, err := h.exchangeSvc.Route(domain.AssetID(req.AssetIn), domain.AssetID(req.AssetOut), amountOut)
	if err != nil {
		handleExchangeError(c, err)
		return
	}

	hops := make([]RouteHopInfo, 0, len(plan.Hops))
	for _, hop := range plan.Hops {
		hops = append(hops, RouteHopInfo{
			ShardID:   uint64(hop.ShardID),
			AssetIn:   string(hop.AssetIn),
			AssetOut:  string(hop.AssetOut),
			AmountIn:  hop.AmountIn.String(),
			AmountOut: hop.AmountOut.String(),
		})
	}

	httputil.Success(c, RouteResponse{
		AssetIn:   req.AssetIn,
		AssetOut:  req.AssetOut,
		AmountIn:  plan.AmountIn().String(),
		AmountOut: plan.AmountOut().String(),
		HopCount:  len(plan.Hops),
		Hops:      hops,
	})
}

// handleExchangeError maps exchange errors onto HTTP statuses. Liquidity and
// routing misses are 404s; validation, slippage, and per-shard quote
// rejections (which swaps against a named shard surface directly) are 400s.
func handleExchangeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, exchange.ErrNoLiquidity),
		errors.Is(err, exchange.ErrNoRoute),
		errors.Is(err, exchange.ErrShardNotFound),
		errors.Is(err, exchange.ErrAssetNotFound):
		httputil.NotFound(c, err.Error())
	case errors.Is(err, exchange.ErrInvalidRoute),
		errors.Is(err, exchange.ErrInvalidParams),
		errors.Is(err, exchange.ErrSameAsset),
		errors.Is(err, exchange.ErrSlippageExceeded),
		errors.Is(err, exchange.ErrRatioMismatch),
		errors.Is(err, exchange.ErrNotOwner),
		errors.Is(err, curve.ErrThresholdExceeded),
		errors.Is(err, curve.ErrZeroReserve),
		errors.Is(err, curve.ErrOverflow),
		errors.Is(err, curve.ErrInvalidAmount),
		errors.Is(err, domain.ErrNotInitialized),
		errors.Is(err, domain.ErrUnknownAsset):
		httputil.BadRequest(c, err.Error())
	default:
		httputil.InternalError(c, err.Error())
	}
}
