package ai

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/hyperjump/aether/internal/config"
	"github.com/hyperjump/aether/internal/models"
)

// Operation names used in logs and metrics.
const (
	OpComplete  = "complete"
	OpConverse  = "converse"
	OpFraud     = "fraud_analysis"
	OpInventory = "inventory_strategy"
	OpChat      = "chat"
)

// Call outcomes reported to the Observer.
const (
	OutcomeOK       = "ok"
	OutcomeEmpty    = "empty"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
)

// Observer receives one event per model call.
type Observer interface {
	ObserveModelCall(op, outcome string, d time.Duration)
}

// Reply is the assistant's answer to a chat turn. Failed is set when Text is
// the connection fallback rather than model output.
type Reply struct {
	Text   string `json:"text"`
	Failed bool   `json:"failed"`
}

// Gateway wraps a Model with a per-call timeout and a circuit breaker. It
// holds no conversation state.
type Gateway struct {
	mu      sync.RWMutex
	model   Model
	config  config.AIConfig
	breaker *gobreaker.CircuitBreaker

	logger   *zap.Logger
	observer Observer
}

// NewGateway creates a gateway. cfg may be nil for defaults; logger and
// observer may be nil.
func NewGateway(model Model, cfg *config.AIConfig, logger *zap.Logger, observer Observer) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Gateway{logger: logger, observer: observer}
	g.Reconfigure(model, cfg)
	return g
}

// Reconfigure swaps the model and settings used by subsequent calls. Calls in
// flight finish with the old ones. The circuit breaker starts closed.
func (g *Gateway) Reconfigure(model Model, cfg *config.AIConfig) {
	c := config.DefaultAIConfig()
	if cfg != nil {
		c = *cfg
	}
	if c.Model == "" {
		c.Model = config.DefaultModel
	}
	breaker := newBreaker(c.Breaker, g.logger)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.model = model
	g.config = c
	g.breaker = breaker
}

func newBreaker(bc config.BreakerConfig, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "language-model",
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < bc.MinRequests {
				return false
			}
			if bc.FailureThreshold <= 0 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= bc.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}

// ModelName returns the configured model identifier.
func (g *Gateway) ModelName() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.config.Model
}

// BreakerState returns "closed", "half-open" or "open".
func (g *Gateway) BreakerState() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.breaker.State().String()
}

// Complete sends a standalone prompt.
func (g *Gateway) Complete(ctx context.Context, prompt string) (string, error) {
	return g.call(ctx, OpComplete, Request{Prompt: prompt})
}

// Converse sends message after the given prior turns.
func (g *Gateway) Converse(ctx context.Context, history []Turn, message string) (string, error) {
	return g.call(ctx, OpConverse, Request{History: history, Prompt: message})
}

// AnalyzeFraud asks for an anomaly review of the ledger. It always returns
// text: the model's answer or a fallback message.
func (g *Gateway) AnalyzeFraud(ctx context.Context, transactions []models.Transaction) string {
	prompt, err := FraudPrompt(transactions)
	if err != nil {
		g.logger.Error("failed to build prompt", zap.String("op", OpFraud), zap.Error(err))
		return FraudErrorText
	}
	return g.completeOr(ctx, OpFraud, prompt, FraudErrorText, FraudEmptyText)
}

// InventoryStrategy asks for an ESIA procurement strategy. It always returns
// text: the model's answer or a fallback message.
func (g *Gateway) InventoryStrategy(ctx context.Context, items []models.InventoryItem) string {
	prompt, err := InventoryPrompt(items)
	if err != nil {
		g.logger.Error("failed to build prompt", zap.String("op", OpInventory), zap.Error(err))
		return InventoryErrorText
	}
	return g.completeOr(ctx, OpInventory, prompt, InventoryErrorText, InventoryEmptyText)
}

// Reply answers a chat turn. When patients is non-empty the record context is
// prepended to text. history should already exclude turns that must not be
// replayed (see TurnsFrom).
func (g *Gateway) Reply(ctx context.Context, history []Turn, text string, patients []models.Patient) Reply {
	g.mu.RLock()
	limit := g.config.MaxContextPatients
	g.mu.RUnlock()
	message := ComposeMessage(patients, text, limit)
	out, err := g.call(ctx, OpChat, Request{History: history, Prompt: message})
	if err != nil {
		return Reply{Text: ChatErrorText, Failed: true}
	}
	if out == "" {
		return Reply{Text: ChatEmptyText}
	}
	return Reply{Text: out}
}

func (g *Gateway) completeOr(ctx context.Context, op, prompt, onError, onEmpty string) string {
	out, err := g.call(ctx, op, Request{Prompt: prompt})
	if err != nil {
		return onError
	}
	if out == "" {
		return onEmpty
	}
	return out
}

func (g *Gateway) call(ctx context.Context, op string, req Request) (string, error) {
	g.mu.RLock()
	model, cfg, breaker := g.model, g.config, g.breaker
	g.mu.RUnlock()

	req.Model = cfg.Model
	req.System = SystemInstruction
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := breaker.Execute(func() (interface{}, error) {
		return model.Generate(ctx, req)
	})
	elapsed := time.Since(start)

	var out string
	if s, ok := res.(string); ok {
		out = s
	}
	outcome := OutcomeOK
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = OutcomeRejected
	case err != nil:
		outcome = OutcomeError
	case out == "":
		outcome = OutcomeEmpty
	}
	if g.observer != nil {
		g.observer.ObserveModelCall(op, outcome, elapsed)
	}
	if err != nil {
		g.logger.Error("model call failed",
			zap.String("op", op),
			zap.String("outcome", outcome),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return "", err
	}
	g.logger.Debug("model call finished",
		zap.String("op", op),
		zap.String("outcome", outcome),
		zap.Duration("elapsed", elapsed),
		zap.Int("chars", len(out)))
	return out, nil
}
