package server

import (
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/contactkeval/option-picker/internal/chart"
	"github.com/contactkeval/option-picker/internal/config"
	"github.com/contactkeval/option-picker/internal/data"
	"github.com/contactkeval/option-picker/internal/payoff"
	"github.com/contactkeval/option-picker/internal/report"
	"github.com/contactkeval/option-picker/internal/strategy"
)

// Handler serves strategy selection and payoff evaluation.
type Handler struct {
	provider data.Provider
	selector strategy.Selector
	points   int
}

func NewHandler(provider data.Provider, selector strategy.Selector, points int) *Handler {
	if points < 2 {
		points = chart.DefaultPoints
	}
	return &Handler{provider: provider, selector: selector, points: points}
}

// Load registers the API routes on g.
func (h *Handler) Load(g *gin.Engine) {
	g.GET("/health", h.Health())

	base := g.Group("/api/v1")
	{
		base.GET("/strategy", h.StrategyGet())
		base.POST("/payoff", h.PayoffPost())
	}
}

func (h *Handler) Health() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "ok")
	}
}

type strategyQuery struct {
	Ticker     string  `form:"ticker" binding:"required"`
	Expiration string  `form:"expiration" binding:"required,datetime=2006-01-02"`
	Date       string  `form:"date" binding:"omitempty,datetime=2006-01-02"`
	Current    float64 `form:"current" binding:"omitempty,gt=0"`
	Target     float64 `form:"target" binding:"required,gt=0"`
	Strategy   string  `form:"strategy"`
	Snap       bool    `form:"snap"`
	Points     int     `form:"points" binding:"omitempty,gte=2,lte=10000"`

	LongCallStrike  string `form:"long_call_strike"`
	ShortCallStrike string `form:"short_call_strike"`
	LongPutStrike   string `form:"long_put_strike"`
	ShortPutStrike  string `form:"short_put_strike"`
}

// StrategyGet selects and prices a strategy for the query.
func (h *Handler) StrategyGet() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var q strategyQuery
		if err := ctx.ShouldBindQuery(&q); err != nil {
			abort(ctx, http.StatusBadRequest, err)
			return
		}

		name, err := strategy.ParseName(q.Strategy)
		if err != nil {
			fail(ctx, err)
			return
		}

		// both validated by the binding
		expiry, _ := time.Parse(data.DateLayout, q.Expiration)
		asOf, _ := config.ParseDate(q.Date)

		m := strategy.Market{Provider: h.provider, Underlying: strings.ToUpper(strings.TrimSpace(q.Ticker)), Expiration: expiry, AsOf: asOf}

		current := q.Current
		if current == 0 {
			if current, err = m.CurrentPrice(ctx); err != nil {
				fail(ctx, err)
				return
			}
		}

		overrides, err := strategy.SharedOverridesFromExprs(current, q.Target,
			q.LongCallStrike, q.ShortCallStrike, q.LongPutStrike, q.ShortPutStrike)
		if err != nil {
			fail(ctx, err)
			return
		}

		res, err := h.selector.Select(ctx, m, strategy.Request{
			Current:      current,
			Target:       q.Target,
			Strategy:     name,
			Overrides:    overrides,
			SnapToListed: q.Snap,
		})
		if err != nil {
			fail(ctx, err)
			return
		}

		points := q.Points
		if points == 0 {
			points = h.points
		}
		ctx.JSON(http.StatusOK, report.NewSelection(m, current, q.Target, res, points))
	}
}

type legReq struct {
	Strike  float64 `json:"strike" binding:"gt=0"`
	IsCall  bool    `json:"is_call"`
	IsLong  bool    `json:"is_long"`
	Premium float64 `json:"premium" binding:"gte=0"`
}

type payoffReq struct {
	Legs   []legReq `json:"legs" binding:"required,min=1,max=16,dive"`
	Low    float64  `json:"low" binding:"gte=0"`
	High   float64  `json:"high" binding:"gte=0"`
	Points int      `json:"points" binding:"omitempty,gte=2,lte=10000"`
}

type payoffResp struct {
	NetCost float64        `json:"net_cost"`
	Summary payoff.Summary `json:"summary"`
	Curve   []chart.Point  `json:"curve"`
}

// PayoffPost evaluates an arbitrary leg list without market data.
func (h *Handler) PayoffPost() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req payoffReq
		if err := ctx.ShouldBindJSON(&req); err != nil {
			abort(ctx, http.StatusBadRequest, err)
			return
		}

		legs := make([]payoff.Leg, len(req.Legs))
		lo, hi := math.Inf(1), 0.0
		for i, l := range req.Legs {
			legs[i] = payoff.NewLeg(l.Strike, l.IsCall, l.IsLong, l.Premium)
			lo, hi = math.Min(lo, l.Strike), math.Max(hi, l.Strike)
		}

		if req.Low == 0 && req.High == 0 {
			req.Low, req.High = chart.Bounds(lo, hi)
		}
		if req.High <= req.Low {
			abort(ctx, http.StatusBadRequest, errors.New("high must be above low"))
			return
		}

		points := req.Points
		if points == 0 {
			points = h.points
		}

		fn := payoff.Combine(legs)
		ctx.JSON(http.StatusOK, payoffResp{
			NetCost: payoff.NetCost(legs),
			Summary: payoff.Summarize(legs),
			Curve:   chart.Sample(fn, req.Low, req.High, points),
		})
	}
}

// fail maps selector errors onto HTTP statuses.
func fail(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, strategy.ErrInvalidInput):
		abort(ctx, http.StatusBadRequest, err)
	case errors.Is(err, strategy.ErrDataUnavailable):
		abort(ctx, http.StatusBadGateway, err)
	default:
		abort(ctx, http.StatusInternalServerError, err)
	}
}

func abort(ctx *gin.Context, status int, err error) {
	ctx.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
