package llm

const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 4096
	DefaultTopP        = 0.9
)

// Params holds the generation parameters shared by every provider family.
type Params struct {
	Temperature   float64  `json:"temperature"`
	MaxTokens     int      `json:"max_tokens"`
	TopP          float64  `json:"top_p"`
	TopK          *int     `json:"top_k,omitempty"`
	StopSequences []string `json:"stop_sequences,omitempty"`
}

// DefaultParams returns the parameters used when a request leaves them unset.
func DefaultParams() Params {
	return Params{
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		TopP:        DefaultTopP,
	}
}

// Overrides carries optional parameter values from an inbound request.
// Nil fields fall back to the base Params.
type Overrides struct {
	Temperature   *float64 `json:"temperature,omitempty" mapstructure:"temperature"`
	MaxTokens     *int     `json:"max_tokens,omitempty" mapstructure:"maxTokens"`
	TopP          *float64 `json:"top_p,omitempty" mapstructure:"topP"`
	TopK          *int     `json:"top_k,omitempty" mapstructure:"topK"`
	StopSequences []string `json:"stop_sequences,omitempty" mapstructure:"stopSequences"`
}

// Apply returns base with every non-nil override applied.
func (o Overrides) Apply(base Params) Params {
	if o.Temperature != nil {
		base.Temperature = *o.Temperature
	}
	if o.MaxTokens != nil && *o.MaxTokens > 0 {
		base.MaxTokens = *o.MaxTokens
	}
	if o.TopP != nil {
		base.TopP = *o.TopP
	}
	if o.TopK != nil {
		base.TopK = o.TopK
	}
	if len(o.StopSequences) > 0 {
		base.StopSequences = o.StopSequences
	}
	return base
}
