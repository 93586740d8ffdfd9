package translation

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kapu/quickaccess-catalog-go/internal/constants"
	"github.com/kapu/quickaccess-catalog-go/internal/util"
)

type fakeProvider struct {
	name  string
	text  string
	err   error
	calls int
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Generate(_ context.Context, _ string, _ *GenerateOptions) (ProviderResult, error) {
	p.calls++
	if p.err != nil {
		return ProviderResult{}, p.err
	}
	return ProviderResult{Text: p.text, Model: p.name + "-model"}, nil
}

func (p *fakeProvider) Ping(context.Context) bool { return p.err == nil }

func TestModelManagerUsesPrimary(t *testing.T) {
	primary := &fakeProvider{name: "Gemini", text: "Chair"}
	fallback := &fakeProvider{name: "OpenAI", text: "Seat"}
	mm := newModelManager(primary, fallback, zap.NewNop())

	text, meta, err := mm.Generate(context.Background(), "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, "Chair", text)
	assert.Equal(t, "Gemini", meta.Provider)
	assert.False(t, meta.UsedFallback)
	assert.Equal(t, 0, fallback.calls)
}

func TestModelManagerFallsBack(t *testing.T) {
	primary := &fakeProvider{name: "Gemini", err: stderrors.New(`{"code":500}`)}
	fallback := &fakeProvider{name: "OpenAI", text: "Seat"}
	mm := newModelManager(primary, fallback, zap.NewNop())

	text, meta, err := mm.Generate(context.Background(), "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, "Seat", text)
	assert.True(t, meta.UsedFallback)
	assert.Equal(t, util.CircuitStateClosed, mm.GetCircuitStatus().State)
}

func TestModelManagerOpensCircuitOnServiceFailures(t *testing.T) {
	primary := &fakeProvider{name: "Gemini", err: stderrors.New("503 Service Unavailable")}
	mm := newModelManager(primary, nil, zap.NewNop())

	for i := 0; i < constants.CircuitBreakerConfig.FailureThreshold; i++ {
		_, _, err := mm.Generate(context.Background(), "prompt", nil)
		require.Error(t, err)
	}
	assert.Equal(t, util.CircuitStateOpen, mm.GetCircuitStatus().State)

	calls := primary.calls
	_, _, err := mm.Generate(context.Background(), "prompt", nil)
	require.Error(t, err)
	assert.Equal(t, calls, primary.calls, "open circuit must not reach the provider")

	mm.ResetCircuit()
	primary.err = nil
	primary.text = "Chair"
	_, _, err = mm.Generate(context.Background(), "prompt", nil)
	require.NoError(t, err)
}

func TestModelManagerIgnoresClientErrorsForCircuit(t *testing.T) {
	primary := &fakeProvider{name: "Gemini", err: stderrors.New("400 bad request")}
	mm := newModelManager(primary, nil, zap.NewNop())

	for i := 0; i < constants.CircuitBreakerConfig.FailureThreshold+1; i++ {
		_, _, _ = mm.Generate(context.Background(), "prompt", nil)
	}
	assert.Equal(t, util.CircuitStateClosed, mm.GetCircuitStatus().State)
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, isServiceFailure(stderrors.New("context deadline exceeded")))
	assert.True(t, isServiceFailure(stderrors.New(`{"code":502,"message":"bad gateway"}`)))
	assert.True(t, isRateLimitError(stderrors.New("429 Too Many Requests")))
	assert.True(t, isRateLimitError(stderrors.New("quota exhausted")))
	assert.False(t, isServiceFailure(stderrors.New("invalid argument")))
	assert.False(t, isServiceFailure(nil))
}

func TestPresetOverrides(t *testing.T) {
	opts := &GenerateOptions{Preset: PresetBalanced, Overrides: &ModelConfig{Temperature: 0.5}}
	config := opts.config()
	assert.Equal(t, float32(0.5), config.Temperature)
	assert.Equal(t, GetPresetConfig(PresetBalanced).MaxOutputTokens, config.MaxOutputTokens)

	var none *GenerateOptions
	assert.Equal(t, GetPresetConfig(PresetPrecise), none.config())
}
