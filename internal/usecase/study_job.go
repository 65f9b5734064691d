package usecase

import (
	"context"
	"fmt"

	"github.com/FrankPreci/capitol-shill/internal/domain/models"
	"github.com/FrankPreci/capitol-shill/pkg/logger"
	"github.com/FrankPreci/capitol-shill/pkg/queue"
	"github.com/FrankPreci/capitol-shill/pkg/util"
)

// StudyJobType is the queue message type for async batch studies.
const StudyJobType = "study_batch"

// StudyJobPayload is the enqueued form of a batch study request.
type StudyJobPayload struct {
	Trades     []models.TradeInput `json:"trades"`
	WindowDays int                 `json:"window_days"`
}

// ToTradeRecords converts raw trade inputs, parsing dates. Unparseable
// dates become the zero time, which the study engine reports as invalid
// input rather than failing the batch.
func ToTradeRecords(inputs []models.TradeInput) []models.TradeRecord {
	out := make([]models.TradeRecord, len(inputs))
	for i, in := range inputs {
		rec := models.TradeRecord{
			Ticker:         in.Ticker,
			Representative: in.Representative,
			Transaction:    in.Transaction,
			Amount:         in.Amount,
		}
		if d, ok := util.ParseDate(in.TransactionDate); ok {
			rec.TransactionDate = d
		}
		out[i] = rec
	}
	return out
}

// StudyJob consumes queued batch study requests, runs them through the
// study runner and hands results to the configured backend.
type StudyJob struct {
	runner    *StudyRunner
	processor *ResultProcessor
	log       *logger.Logger
}

func NewStudyJob(runner *StudyRunner, processor *ResultProcessor, log *logger.Logger) *StudyJob {
	return &StudyJob{runner: runner, processor: processor, log: log}
}

func (j *StudyJob) Name() string { return "study_batch_job" }
func (j *StudyJob) Type() string { return StudyJobType }

func (j *StudyJob) Handle(ctx context.Context, payload interface{}) error {
	req, err := queue.ParsePayload[StudyJobPayload](payload)
	if err != nil {
		return fmt.Errorf("parse study payload: %w", err)
	}
	if len(req.Trades) == 0 {
		return nil
	}
	windowDays := req.WindowDays
	if windowDays <= 0 {
		windowDays = 30
	}

	results := j.runner.Run(ctx, ToTradeRecords(req.Trades), windowDays)
	if err := j.processor.ProcessBatch(ctx, results); err != nil {
		return fmt.Errorf("deliver study results: %w", err)
	}

	j.log.Info("async study batch finished",
		logger.Int("trades", len(req.Trades)),
		logger.Int("window_days", windowDays))
	return nil
}
