package translation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/kapu/quickaccess-catalog-go/internal/constants"
)

// Generator produces model output for a prompt. *ModelManager implements it.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts *GenerateOptions) (string, *GenerateMetadata, error)
}

type AIConfig struct {
	SourceLanguage string
	TargetLanguage string
	Model          string
	RequestTimeout time.Duration
	MaxConcurrent  int
	MaxTextLength  int
}

// AITranslator translates names through a language model in the background.
// Results are remembered for the life of the process and concurrent requests for the
// same text share one model call.
type AITranslator struct {
	generator Generator
	cfg       AIConfig
	logger    *zap.Logger
	workers   *pool.Pool

	mu       sync.Mutex
	memo     map[string]string
	inflight map[string][]func(string)

	closeMu   sync.RWMutex
	closed    bool
	launchers sync.WaitGroup
}

func NewAITranslator(generator Generator, cfg AIConfig, logger *zap.Logger) *AITranslator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = constants.TranslationConfig.RequestTimeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = constants.TranslationConfig.MaxConcurrent
	}
	if cfg.MaxTextLength <= 0 {
		cfg.MaxTextLength = constants.TranslationConfig.MaxTextLength
	}

	return &AITranslator{
		generator: generator,
		cfg:       cfg,
		logger:    logger,
		workers:   pool.New().WithMaxGoroutines(cfg.MaxConcurrent),
		memo:      make(map[string]string),
		inflight:  make(map[string][]func(string)),
	}
}

// TranslateAsync calls deliver with the translation of text once it is known.
// Failures are logged and deliver is never called for them.
func (t *AITranslator) TranslateAsync(text string, deliver func(string)) {
	if !t.translatable(text) {
		return
	}

	t.mu.Lock()
	if translated, ok := t.memo[text]; ok {
		t.mu.Unlock()
		deliver(translated)
		return
	}
	if waiters, pending := t.inflight[text]; pending {
		t.inflight[text] = append(waiters, deliver)
		t.mu.Unlock()
		return
	}
	t.inflight[text] = []func(string){deliver}
	t.mu.Unlock()

	t.closeMu.RLock()
	defer t.closeMu.RUnlock()
	if t.closed {
		t.abandon(text)
		return
	}

	// pool.Go blocks while every worker is busy; callers must not wait for it.
	t.launchers.Add(1)
	go func() {
		defer t.launchers.Done()
		t.workers.Go(func() { t.run(text) })
	}()
}

// Translate is the blocking form used by batch tools.
func (t *AITranslator) Translate(ctx context.Context, text string) (string, error) {
	if !t.translatable(text) {
		return "", fmt.Errorf("text is empty or longer than %d characters", t.cfg.MaxTextLength)
	}

	t.mu.Lock()
	translated, ok := t.memo[text]
	t.mu.Unlock()
	if ok {
		return translated, nil
	}

	translated, err := t.generate(ctx, text)
	if err != nil {
		return "", err
	}

	t.mu.Lock()
	t.memo[text] = translated
	t.mu.Unlock()
	return translated, nil
}

func (t *AITranslator) translatable(text string) bool {
	text = strings.TrimSpace(text)
	return text != "" && utf8.RuneCountInString(text) <= t.cfg.MaxTextLength
}

func (t *AITranslator) run(text string) {
	ctx, cancel := context.WithTimeout(context.Background(), t.cfg.RequestTimeout)
	defer cancel()

	translated, err := t.generate(ctx, text)

	t.mu.Lock()
	waiters := t.inflight[text]
	delete(t.inflight, text)
	if err == nil {
		t.memo[text] = translated
	}
	t.mu.Unlock()

	if err != nil {
		t.logger.Warn("AI translation failed", zap.String("text", text), zap.Error(err))
		return
	}
	for _, deliver := range waiters {
		deliver(translated)
	}
}

func (t *AITranslator) abandon(text string) {
	t.mu.Lock()
	delete(t.inflight, text)
	t.mu.Unlock()
}

func (t *AITranslator) generate(ctx context.Context, text string) (string, error) {
	prompt, err := BuildPrompt(PromptVars{
		SourceLanguage: t.cfg.SourceLanguage,
		TargetLanguage: t.cfg.TargetLanguage,
		Text:           text,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build prompt: %w", err)
	}

	output, meta, err := t.generator.Generate(ctx, prompt, &GenerateOptions{Model: t.cfg.Model, Preset: PresetPrecise})
	if err != nil {
		return "", err
	}

	translated := cleanOutput(output)
	if translated == "" {
		return "", fmt.Errorf("model returned an empty translation")
	}
	if meta != nil {
		t.logger.Debug("AI translation received",
			zap.String("text", text),
			zap.String("translated", translated),
			zap.String("provider", meta.Provider),
			zap.Bool("fallback", meta.UsedFallback),
		)
	}
	return translated, nil
}

// cleanOutput keeps the first non-empty line and strips wrapping quotes and code fences.
func cleanOutput(output string) string {
	output = strings.TrimSpace(output)
	output = strings.TrimPrefix(output, "```")
	output = strings.TrimSuffix(output, "```")

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return strings.TrimSpace(strings.Trim(line, "\"'`「」"))
	}
	return ""
}

// Close stops accepting requests and waits for running translations.
func (t *AITranslator) Close() {
	t.closeMu.Lock()
	if t.closed {
		t.closeMu.Unlock()
		return
	}
	t.closed = true
	t.closeMu.Unlock()

	t.launchers.Wait()
	t.workers.Wait()
}

// Pending reports how many distinct texts are still being translated.
func (t *AITranslator) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight)
}
