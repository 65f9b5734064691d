package api

import (
	"time"

	"github.com/FrankPreci/capitol-shill/internal/domain/models"
	"github.com/FrankPreci/capitol-shill/internal/enrichment"
	"github.com/FrankPreci/capitol-shill/internal/eventstudy"
	"github.com/FrankPreci/capitol-shill/internal/portfolio"
	"github.com/FrankPreci/capitol-shill/internal/symbols"
	"github.com/FrankPreci/capitol-shill/internal/usecase"
	xhttp "github.com/FrankPreci/capitol-shill/pkg/http"
	xlogger "github.com/FrankPreci/capitol-shill/pkg/logger"
	"github.com/FrankPreci/capitol-shill/pkg/queue"
	"github.com/FrankPreci/capitol-shill/pkg/util"

	"github.com/labstack/echo/v4"
)

// StudyEchoHandler exposes the event-study operations over HTTP.
type StudyEchoHandler struct {
	logger    *xlogger.Logger
	engine    *eventstudy.Engine
	runner    *usecase.StudyRunner
	processor *usecase.ResultProcessor
	enricher  *enrichment.Enricher
	optimizer *portfolio.Optimizer
	norm      *symbols.Normalizer
	publisher queue.QueueService // nil when async mode is disabled
}

func NewStudyEchoHandler(
	logger *xlogger.Logger,
	engine *eventstudy.Engine,
	runner *usecase.StudyRunner,
	processor *usecase.ResultProcessor,
	enricher *enrichment.Enricher,
	optimizer *portfolio.Optimizer,
	norm *symbols.Normalizer,
	publisher queue.QueueService,
) *StudyEchoHandler {
	return &StudyEchoHandler{
		logger:    logger,
		engine:    engine,
		runner:    runner,
		processor: processor,
		enricher:  enricher,
		optimizer: optimizer,
		norm:      norm,
		publisher: publisher,
	}
}

func (h *StudyEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.POST("/car", h.CAR)
	g.POST("/studies", h.Studies)
	g.POST("/portfolio", h.Portfolio)
	g.GET("/metadata/:symbol", h.Metadata)
}

// CARResponse is the single-trade study result.
type CARResponse struct {
	Ticker          string   `json:"ticker"`
	TransactionDate string   `json:"transaction_date"`
	WindowDays      int      `json:"window_days"`
	CAR             *float64 `json:"car"`
}

func (h *StudyEchoHandler) CAR(c echo.Context) error {
	req := &models.CARRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	tradeDate, ok := util.ParseDate(req.TransactionDate)
	if !ok {
		return xhttp.BadRequestResponse(c,
			xhttp.BadRequestErrorf("unparseable transaction_date %q", req.TransactionDate))
	}

	car := h.engine.CalculateCAR(c.Request().Context(), req.Ticker, tradeDate, req.WindowDays)
	return xhttp.SuccessResponse(c, &CARResponse{
		Ticker:          req.Ticker,
		TransactionDate: tradeDate.Format(util.DateLayout),
		WindowDays:      req.WindowDays,
		CAR:             car,
	})
}

// StudiesResponse is the batch study result, or the enqueue receipt in
// async mode.
type StudiesResponse struct {
	Results  []models.StudyResult `json:"results,omitempty"`
	Enqueued bool                 `json:"enqueued,omitempty"`
	Trades   int                  `json:"trades"`
}

func (h *StudyEchoHandler) Studies(c echo.Context) error {
	req := &models.StudyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if req.Async {
		if h.publisher == nil {
			return xhttp.BadRequestResponse(c,
				xhttp.BadRequestError("async studies are disabled, no queue configured"))
		}
		payload := usecase.StudyJobPayload{Trades: req.Trades, WindowDays: req.WindowDays}
		if err := h.publisher.PublishMessage(c.Request().Context(), usecase.StudyJobType, payload); err != nil {
			h.logger.Error("enqueue study batch", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
		return xhttp.CreatedResponse(c, &StudiesResponse{Enqueued: true, Trades: len(req.Trades)})
	}

	started := time.Now()
	results := h.runner.Run(c.Request().Context(), usecase.ToTradeRecords(req.Trades), req.WindowDays)
	if err := h.processor.ProcessBatch(c.Request().Context(), results); err != nil {
		// Results still go back to the caller; delivery is best effort.
		h.logger.Error("deliver study results", xlogger.Error(err))
	}
	h.logger.Info("sync study batch served",
		xlogger.Int("trades", len(req.Trades)),
		xlogger.Duration("took", time.Since(started)))
	return xhttp.SuccessResponse(c, &StudiesResponse{Results: results, Trades: len(req.Trades)})
}

func (h *StudyEchoHandler) Portfolio(c echo.Context) error {
	req := &models.PortfolioRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	report, err := h.optimizer.Optimize(c.Request().Context(), req.Tickers)
	if err != nil {
		h.logger.Error("portfolio optimization", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if report == nil {
		return xhttp.BadRequestResponse(c,
			xhttp.BadRequestError("need at least two studiable tickers with joint history"))
	}
	return xhttp.SuccessResponse(c, report)
}

func (h *StudyEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{
		"status":    "ok",
		"benchmark": h.engine.Benchmark(),
	})
}

func (h *StudyEchoHandler) Metadata(c echo.Context) error {
	sym, ok := h.norm.Normalize(c.Param("symbol"))
	if !ok {
		return xhttp.BadRequestResponse(c,
			xhttp.BadRequestErrorf("unusable symbol %q", c.Param("symbol")))
	}
	return xhttp.SuccessResponse(c, h.enricher.Asset(c.Request().Context(), sym))
}
