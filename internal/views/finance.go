package views

import (
	"context"

	"go.uber.org/zap"

	"github.com/hyperjump/aether/internal/models"
	"github.com/hyperjump/aether/internal/storage"
	"github.com/hyperjump/aether/pkg/utils"
)

// FinanceSummary totals the ledger.
type FinanceSummary struct {
	Credits float64 `json:"credits"`
	Debits  float64 `json:"debits"`
	Net     float64 `json:"net"`
	Pending int     `json:"pending"`
	Flagged int     `json:"flagged"`
}

// Finance is the general-ledger panel with its AI anomaly review.
type Finance struct {
	transactions []models.Transaction
	analyst      Analyst
	analysis     *cachedText
}

// NewFinance creates the panel over a fixed ledger and restores the last
// analysis from storage.
func NewFinance(ctx context.Context, kv storage.Store, analyst Analyst, transactions []models.Transaction, logger *zap.Logger) *Finance {
	logger = utils.OrNop(logger)
	return &Finance{
		transactions: transactions,
		analyst:      analyst,
		analysis:     newCachedText(ctx, kv, storage.KeyFinanceAnalysis, logger),
	}
}

// Transactions returns a copy of the ledger.
func (f *Finance) Transactions() []models.Transaction {
	out := make([]models.Transaction, len(f.transactions))
	copy(out, f.transactions)
	return out
}

// Summary totals credits, debits and the rows needing attention.
func (f *Finance) Summary() FinanceSummary {
	var s FinanceSummary
	for _, tx := range f.transactions {
		switch tx.Type {
		case models.Credit:
			s.Credits += tx.Amount
		case models.Debit:
			s.Debits += tx.Amount
		}
		switch tx.Status {
		case models.Pending:
			s.Pending++
		case models.Flagged:
			s.Flagged++
		}
	}
	s.Net = s.Credits - s.Debits
	return s
}

// Analyze runs the anomaly review and caches its text. It returns ErrBusy if
// a review is already running.
func (f *Finance) Analyze(ctx context.Context) (string, error) {
	return f.analysis.run(ctx, func(ctx context.Context) string {
		return f.analyst.AnalyzeFraud(ctx, f.transactions)
	})
}

// Cached returns the last analysis, if any.
func (f *Finance) Cached() (string, bool) { return f.analysis.get() }

// Clear forgets the last analysis.
func (f *Finance) Clear(ctx context.Context) error { return f.analysis.clear(ctx) }

// Busy reports whether a review is running.
func (f *Finance) Busy() bool { return f.analysis.busy.Load() }

// Reload re-reads the cached analysis from storage.
func (f *Finance) Reload(ctx context.Context) { f.analysis.Reload(ctx) }
