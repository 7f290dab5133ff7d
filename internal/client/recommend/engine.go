package recommend

import (
	"context"
	"time"

	"github.com/dmitrijs2005/spendwise/internal/client/models"
	"github.com/dmitrijs2005/spendwise/internal/logging"
)

// Engine runs Generate in the background and hands the result back on a
// channel.
type Engine struct {
	logger logging.Logger
}

func NewEngine(logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Engine{logger: logger.With("component", "recommend")}
}

// Start copies the inputs and evaluates them on a new goroutine. The channel
// receives at most one value and is closed afterwards; nothing is sent if
// ctx ends first.
func (e *Engine) Start(ctx context.Context, incomes, expenses []models.Record, opts Options) <-chan []Recommendation {
	incomes = models.CloneRecords(incomes)
	expenses = models.CloneRecords(expenses)
	out := make(chan []Recommendation, 1)

	go func() {
		defer close(out)
		start := time.Now()
		recs := Generate(incomes, expenses, opts)
		e.logger.Debug(ctx, "recommendations generated", "count", len(recs), "took", time.Since(start))

		select {
		case out <- recs:
		case <-ctx.Done():
		}
	}()
	return out
}

// Run is Start followed by a wait.
func (e *Engine) Run(ctx context.Context, incomes, expenses []models.Record, opts Options) ([]Recommendation, error) {
	select {
	case recs, ok := <-e.Start(ctx, incomes, expenses, opts):
		if !ok {
			return nil, ctx.Err()
		}
		return recs, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
