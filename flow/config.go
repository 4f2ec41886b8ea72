package flow

import "encoding/json"

const (
	customCacheableKey   = "cacheable"
	customCacheFieldsKey = "cacheFields"
)

// Config is the per-type configuration of a node.
type Config interface {
	// CacheFields returns the fields that affect the node's output, keyed
	// by their serialized name.
	CacheFields() map[string]any
}

// OptIn is implemented by configs carrying an explicit cache flag.
type OptIn interface {
	CacheEnabled() bool
}

// Capture is implemented by input-capture configs.
type Capture interface {
	CapturedValue() string
	WithCaptured(v string) Config
}

// TextInputConfig holds the text captured from the user.
type TextInputConfig struct {
	Value string `json:"value" yaml:"value"`
}

// CacheFields returns the captured value.
func (c TextInputConfig) CacheFields() map[string]any { return map[string]any{"value": c.Value} }

// CapturedValue returns the captured text.
func (c TextInputConfig) CapturedValue() string { return c.Value }

// WithCaptured returns a copy holding v, used for caller overrides.
func (c TextInputConfig) WithCaptured(v string) Config {
	c.Value = v
	return c
}

// ImageInputConfig holds the URL of an uploaded image.
type ImageInputConfig struct {
	ImageURL string `json:"imageUrl" yaml:"imageUrl"`
}

// CacheFields returns the image URL.
func (c ImageInputConfig) CacheFields() map[string]any { return map[string]any{"imageUrl": c.ImageURL} }

// CapturedValue returns the image URL.
func (c ImageInputConfig) CapturedValue() string { return c.ImageURL }

// WithCaptured returns a copy holding v.
func (c ImageInputConfig) WithCaptured(v string) Config {
	c.ImageURL = v
	return c
}

// AudioInputConfig holds the URL of a recorded or uploaded clip.
type AudioInputConfig struct {
	AudioURL string `json:"audioUrl" yaml:"audioUrl"`
}

// CacheFields returns the audio URL.
func (c AudioInputConfig) CacheFields() map[string]any { return map[string]any{"audioUrl": c.AudioURL} }

// CapturedValue returns the audio URL.
func (c AudioInputConfig) CapturedValue() string { return c.AudioURL }

// WithCaptured returns a copy holding v.
func (c AudioInputConfig) WithCaptured(v string) Config {
	c.AudioURL = v
	return c
}

// UserInputConfig asks a live user for a value during the run.
type UserInputConfig struct {
	Question string `json:"question" yaml:"question"`
}

// CacheFields returns the question.
func (c UserInputConfig) CacheFields() map[string]any {
	return map[string]any{"question": c.Question}
}

// PromptConfig configures a text model call.
type PromptConfig struct {
	Prompt       string  `json:"prompt" yaml:"prompt"`
	SystemPrompt string  `json:"systemPrompt" yaml:"systemPrompt"`
	Model        string  `json:"model" yaml:"model"`
	Temperature  float64 `json:"temperature" yaml:"temperature"`
	MaxTokens    int     `json:"maxTokens" yaml:"maxTokens"`
	Cacheable    bool    `json:"cacheable" yaml:"cacheable"`
	// LastOutput mirrors the most recent result for display only.
	LastOutput string `json:"lastOutput,omitempty" yaml:"lastOutput,omitempty"`
}

// CacheFields returns every field except the display-only LastOutput.
func (c PromptConfig) CacheFields() map[string]any {
	return map[string]any{
		"prompt":       c.Prompt,
		"systemPrompt": c.SystemPrompt,
		"model":        c.Model,
		"temperature":  c.Temperature,
		"maxTokens":    c.MaxTokens,
	}
}

// CacheEnabled reports the node's cache opt-in.
func (c PromptConfig) CacheEnabled() bool { return c.Cacheable }

// ImageGenerationConfig configures an image model call.
type ImageGenerationConfig struct {
	Prompt      string `json:"prompt" yaml:"prompt"`
	Model       string `json:"model" yaml:"model"`
	AspectRatio string `json:"aspectRatio" yaml:"aspectRatio"`
	Seed        int64  `json:"seed" yaml:"seed"`
	Cacheable   bool   `json:"cacheable" yaml:"cacheable"`
}

// CacheFields returns the generation parameters.
func (c ImageGenerationConfig) CacheFields() map[string]any {
	return map[string]any{
		"prompt":      c.Prompt,
		"model":       c.Model,
		"aspectRatio": c.AspectRatio,
		"seed":        c.Seed,
	}
}

// CacheEnabled reports the node's cache opt-in.
func (c ImageGenerationConfig) CacheEnabled() bool { return c.Cacheable }

// AudioGenerationConfig configures a speech synthesis call.
type AudioGenerationConfig struct {
	Text      string `json:"text" yaml:"text"`
	Model     string `json:"model" yaml:"model"`
	Voice     string `json:"voice" yaml:"voice"`
	Cacheable bool   `json:"cacheable" yaml:"cacheable"`
}

// CacheFields returns the text, model and voice.
func (c AudioGenerationConfig) CacheFields() map[string]any {
	return map[string]any{"text": c.Text, "model": c.Model, "voice": c.Voice}
}

// CacheEnabled reports the node's cache opt-in.
func (c AudioGenerationConfig) CacheEnabled() bool { return c.Cacheable }

// TranscriptionConfig configures a speech-to-text call.
type TranscriptionConfig struct {
	Model     string `json:"model" yaml:"model"`
	Language  string `json:"language" yaml:"language"`
	Cacheable bool   `json:"cacheable" yaml:"cacheable"`
}

// CacheFields returns the model and language.
func (c TranscriptionConfig) CacheFields() map[string]any {
	return map[string]any{"model": c.Model, "language": c.Language}
}

// CacheEnabled reports the node's cache opt-in.
func (c TranscriptionConfig) CacheEnabled() bool { return c.Cacheable }

// CodeConfig is a transform over the node's inputs.
type CodeConfig struct {
	Code      string `json:"code" yaml:"code"`
	Language  string `json:"language" yaml:"language"`
	Cacheable bool   `json:"cacheable" yaml:"cacheable"`
}

// CacheFields returns the code and its language.
func (c CodeConfig) CacheFields() map[string]any {
	return map[string]any{"code": c.Code, "language": c.Language}
}

// CacheEnabled reports the node's cache opt-in.
func (c CodeConfig) CacheEnabled() bool { return c.Cacheable }

// OutputConfig is the empty config of terminal output nodes.
type OutputConfig struct{}

// CacheFields is empty; output nodes are never cached.
func (c OutputConfig) CacheFields() map[string]any { return map[string]any{} }

// CommentConfig holds an annotation on the canvas.
type CommentConfig struct {
	Text string `json:"text" yaml:"text"`
}

// CacheFields is empty; comments never execute.
func (c CommentConfig) CacheFields() map[string]any { return map[string]any{} }

// CustomConfig holds the config of a node type registered outside this
// package. When Keys is empty every value is treated as cache-relevant.
// In documents it is one flat object; "cacheable" and "cacheFields" are
// lifted into Cacheable and Keys.
type CustomConfig struct {
	Values    map[string]any
	Keys      []string
	Cacheable bool
}

// MarshalJSON writes the flat document form read back by Node.UnmarshalJSON.
func (c CustomConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.document())
}

func (c CustomConfig) document() map[string]any {
	doc := make(map[string]any, len(c.Values)+2)
	for k, v := range c.Values {
		doc[k] = v
	}
	if c.Cacheable {
		doc[customCacheableKey] = true
	}
	if len(c.Keys) > 0 {
		doc[customCacheFieldsKey] = c.Keys
	}
	return doc
}

// CacheFields returns the values named by Keys, or all values.
func (c CustomConfig) CacheFields() map[string]any {
	out := make(map[string]any, len(c.Values))
	if len(c.Keys) == 0 {
		for k, v := range c.Values {
			out[k] = v
		}
		return out
	}
	for _, k := range c.Keys {
		if v, ok := c.Values[k]; ok {
			out[k] = v
		}
	}
	return out
}

// CacheEnabled reports the node's cache opt-in.
func (c CustomConfig) CacheEnabled() bool { return c.Cacheable }

// NewConfig returns the zero config variant for a type.
func NewConfig(t NodeType) Config {
	if !t.IsBuiltin() {
		return CustomConfig{}
	}
	switch t {
	case TypeTextInput:
		return TextInputConfig{}
	case TypeImageInput:
		return ImageInputConfig{}
	case TypeAudioInput:
		return AudioInputConfig{}
	case TypeUserInput:
		return UserInputConfig{}
	case TypePrompt:
		return PromptConfig{}
	case TypeImageGeneration:
		return ImageGenerationConfig{}
	case TypeAudioGeneration:
		return AudioGenerationConfig{}
	case TypeTranscription:
		return TranscriptionConfig{}
	case TypeCode:
		return CodeConfig{}
	case TypeOutput:
		return OutputConfig{}
	case TypeComment:
		return CommentConfig{}
	}
	return CustomConfig{}
}
