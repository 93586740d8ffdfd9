package translation

// ModelPreset selects sampling parameters for a generation request.
type ModelPreset string

const (
	PresetPrecise  ModelPreset = "precise"  // 단일 이름 번역
	PresetBalanced ModelPreset = "balanced" // 일괄 번역
)

type ModelConfig struct {
	Temperature     float32
	TopP            float32
	TopK            int
	MaxOutputTokens int
}

type GenerateMetadata struct {
	Provider     string
	Model        string
	UsedFallback bool
}

type GenerateOptions struct {
	Model     string
	Preset    ModelPreset
	Overrides *ModelConfig
}

type ProviderResult struct {
	Text  string
	Model string
}

func GetPresetConfig(preset ModelPreset) ModelConfig {
	switch preset {
	case PresetPrecise:
		return ModelConfig{
			Temperature:     0.1,
			TopP:            0.9,
			TopK:            20,
			MaxOutputTokens: 128,
		}
	case PresetBalanced:
		return ModelConfig{
			Temperature:     0.2,
			TopP:            0.95,
			TopK:            40,
			MaxOutputTokens: 1024,
		}
	default:
		return GetPresetConfig(PresetPrecise)
	}
}

func (o *GenerateOptions) preset() ModelPreset {
	if o == nil || o.Preset == "" {
		return PresetPrecise
	}
	return o.Preset
}

func (o *GenerateOptions) config() ModelConfig {
	config := GetPresetConfig(o.preset())
	if o == nil || o.Overrides == nil {
		return config
	}
	if o.Overrides.Temperature > 0 {
		config.Temperature = o.Overrides.Temperature
	}
	if o.Overrides.TopP > 0 {
		config.TopP = o.Overrides.TopP
	}
	if o.Overrides.TopK > 0 {
		config.TopK = o.Overrides.TopK
	}
	if o.Overrides.MaxOutputTokens > 0 {
		config.MaxOutputTokens = o.Overrides.MaxOutputTokens
	}
	return config
}
