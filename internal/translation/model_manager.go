package translation

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/quickaccess-catalog-go/internal/constants"
	"github.com/kapu/quickaccess-catalog-go/internal/util"
	"github.com/kapu/quickaccess-catalog-go/pkg/errors"
)

var (
	statusCodePattern = regexp.MustCompile(`\b(5\d{2})\b`)
	geminiCodePattern = regexp.MustCompile(`"code":(\d{3})`)
	openaiCodePattern = regexp.MustCompile(`^(\d{3})\s`)
)

// ModelManager sends prompts to the primary provider and falls back to the secondary one.
// Repeated service failures open a circuit breaker that short-circuits further requests.
type ModelManager struct {
	primary        Provider
	fallback       Provider
	circuitBreaker *util.CircuitBreaker
	logger         *zap.Logger
}

type ModelManagerConfig struct {
	GeminiAPIKey       string
	OpenAIAPIKey       string
	DefaultGeminiModel string
	DefaultOpenAIModel string
	EnableFallback     bool
}

func NewModelManager(ctx context.Context, cfg ModelManagerConfig, logger *zap.Logger) (*ModelManager, error) {
	var primary, fallback Provider

	if cfg.GeminiAPIKey != "" {
		gemini, err := NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.DefaultGeminiModel, logger)
		if err != nil {
			return nil, err
		}
		primary = gemini
	}

	if openaiProvider := NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.DefaultOpenAIModel, logger); openaiProvider != nil {
		switch {
		case primary == nil:
			primary = openaiProvider
		case cfg.EnableFallback:
			fallback = openaiProvider
			logger.Info("OpenAI fallback enabled")
		}
	}

	if primary == nil {
		return nil, errors.NewValidationError("no AI provider configured", "GEMINI_API_KEY", "")
	}

	mm := newModelManager(primary, fallback, logger)
	mm.circuitBreaker = util.NewCircuitBreaker(
		"ai-translation",
		constants.CircuitBreakerConfig.FailureThreshold,
		constants.CircuitBreakerConfig.ResetTimeout,
		constants.CircuitBreakerConfig.HealthCheckInterval,
		mm.healthCheckPing,
		logger,
	)
	return mm, nil
}

// newModelManager builds a manager whose breaker recovers on timeout only.
func newModelManager(primary, fallback Provider, logger *zap.Logger) *ModelManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelManager{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		circuitBreaker: util.NewCircuitBreaker(
			"ai-translation",
			constants.CircuitBreakerConfig.FailureThreshold,
			constants.CircuitBreakerConfig.ResetTimeout,
			0,
			nil,
			logger,
		),
	}
}

// Generate returns the raw model output for prompt.
func (mm *ModelManager) Generate(ctx context.Context, prompt string, opts *GenerateOptions) (string, *GenerateMetadata, error) {
	if !mm.circuitBreaker.CanExecute() {
		status := mm.circuitBreaker.GetStatus()
		nextRetry := "unknown"
		if status.NextRetryTime != nil {
			nextRetry = status.NextRetryTime.Format(time.RFC3339)
		}
		return "", nil, errors.NewServiceError(
			fmt.Sprintf("AI translation unavailable until %s", nextRetry), "ai", "generate", nil)
	}

	result, primaryErr := mm.primary.Generate(ctx, prompt, opts)
	if primaryErr == nil {
		mm.circuitBreaker.RecordSuccess()
		return result.Text, &GenerateMetadata{Provider: mm.primary.Name(), Model: result.Model}, nil
	}

	if mm.fallback == nil {
		mm.recordFailure(primaryErr, nil)
		return "", nil, errors.NewServiceError("AI generation failed", mm.primary.Name(), "generate", primaryErr)
	}

	mm.logger.Info("Primary provider failed, using fallback",
		zap.String("primary", mm.primary.Name()),
		zap.String("fallback", mm.fallback.Name()),
		zap.Error(primaryErr),
	)

	result, fallbackErr := mm.fallback.Generate(ctx, prompt, opts)
	if fallbackErr == nil {
		mm.circuitBreaker.RecordSuccess()
		return result.Text, &GenerateMetadata{Provider: mm.fallback.Name(), Model: result.Model, UsedFallback: true}, nil
	}

	mm.recordFailure(primaryErr, fallbackErr)
	return "", nil, errors.NewServiceError("AI generation failed", mm.fallback.Name(), "generate", fallbackErr)
}

func (mm *ModelManager) recordFailure(primaryErr, fallbackErr error) {
	if !isServiceFailure(primaryErr) && !isServiceFailure(fallbackErr) {
		return
	}
	timeout := constants.CircuitBreakerConfig.ResetTimeout
	if isRateLimitError(primaryErr) || isRateLimitError(fallbackErr) {
		timeout = constants.CircuitBreakerConfig.RateLimitTimeout
	}
	mm.circuitBreaker.RecordFailure(timeout)
}

func (mm *ModelManager) healthCheckPing() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	primaryOK := mm.primary.Ping(ctx)
	fallbackOK := mm.fallback != nil && mm.fallback.Ping(ctx)

	mm.logger.Info("Health Check: Result",
		zap.Bool("primary", primaryOK),
		zap.Bool("fallback", fallbackOK),
	)
	return primaryOK || fallbackOK
}

func (mm *ModelManager) GetCircuitStatus() util.CircuitBreakerStatus {
	return mm.circuitBreaker.GetStatus()
}

func (mm *ModelManager) ResetCircuit() {
	mm.circuitBreaker.Reset()
}

func isServiceFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()

	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") {
		return true
	}
	if isRateLimitError(err) {
		return true
	}
	if statusCodePattern.MatchString(msg) {
		return true
	}
	code, ok := extractStatusCode(msg)
	return ok && code >= 500 && code < 600
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()

	if strings.Contains(msg, "429") || strings.Contains(msg, "Rate limit") || strings.Contains(msg, "quota") {
		return true
	}
	code, ok := extractStatusCode(msg)
	return ok && code == 429
}

func extractStatusCode(msg string) (int, bool) {
	for _, pattern := range []*regexp.Regexp{geminiCodePattern, openaiCodePattern} {
		if matches := pattern.FindStringSubmatch(msg); len(matches) > 1 {
			if code, err := strconv.Atoi(matches[1]); err == nil {
				return code, true
			}
		}
	}
	return 0, false
}
