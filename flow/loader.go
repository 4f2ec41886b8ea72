package flow

import (
	"encoding/json"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// Parse decodes a flow document. JSON documents are accepted as well,
// since they are valid YAML.
func Parse(data []byte) (*Graph, error) {
	var g Graph
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("flow: parsing document: %w", err)
	}
	return &g, nil
}

// LoadFile reads and parses the flow document at path.
func LoadFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("flow: %s: %w", path, err)
	}
	return g, nil
}

type rawYAMLNode struct {
	ID     string    `yaml:"id"`
	Type   NodeType  `yaml:"type"`
	Label  string    `yaml:"label"`
	Config yaml.Node `yaml:"config"`
}

// UnmarshalYAML decodes the config block into the variant selected by type.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	var raw rawYAMLNode
	if err := value.Decode(&raw); err != nil {
		return err
	}
	cfg, err := decodeConfig(raw.Type, func(v any) error {
		if raw.Config.Kind == 0 {
			return nil
		}
		return raw.Config.Decode(v)
	})
	if err != nil {
		return fmt.Errorf("node %q: %w", raw.ID, err)
	}
	*n = Node{ID: raw.ID, Type: raw.Type, Label: raw.Label, Config: cfg}
	return nil
}

type rawJSONNode struct {
	ID     string          `json:"id"`
	Type   NodeType        `json:"type"`
	Label  string          `json:"label"`
	Config json.RawMessage `json:"config"`
}

// UnmarshalJSON decodes the config object into the variant selected by type.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw rawJSONNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	cfg, err := decodeConfig(raw.Type, func(v any) error {
		if len(raw.Config) == 0 || string(raw.Config) == "null" {
			return nil
		}
		return json.Unmarshal(raw.Config, v)
	})
	if err != nil {
		return fmt.Errorf("node %q: %w", raw.ID, err)
	}
	*n = Node{ID: raw.ID, Type: raw.Type, Label: raw.Label, Config: cfg}
	return nil
}

func decodeConfig(t NodeType, decode func(v any) error) (Config, error) {
	if !t.IsBuiltin() {
		return decodeCustom(t, decode)
	}
	switch t {
	case TypeTextInput:
		return decodeInto[TextInputConfig](decode)
	case TypeImageInput:
		return decodeInto[ImageInputConfig](decode)
	case TypeAudioInput:
		return decodeInto[AudioInputConfig](decode)
	case TypeUserInput:
		return decodeInto[UserInputConfig](decode)
	case TypePrompt:
		return decodeInto[PromptConfig](decode)
	case TypeImageGeneration:
		return decodeInto[ImageGenerationConfig](decode)
	case TypeAudioGeneration:
		return decodeInto[AudioGenerationConfig](decode)
	case TypeTranscription:
		return decodeInto[TranscriptionConfig](decode)
	case TypeCode:
		return decodeInto[CodeConfig](decode)
	case TypeOutput:
		return OutputConfig{}, nil
	case TypeComment:
		return decodeInto[CommentConfig](decode)
	}
	return nil, fmt.Errorf("no config decoder for %s", t)
}

func decodeCustom(t NodeType, decode func(v any) error) (Config, error) {
	values := map[string]any{}
	if err := decode(&values); err != nil {
		return nil, fmt.Errorf("decoding %s config: %w", t, err)
	}
	cfg := CustomConfig{Values: values}
	if v, ok := values[customCacheableKey].(bool); ok {
		cfg.Cacheable = v
		delete(values, customCacheableKey)
	}
	if keys, ok := values[customCacheFieldsKey].([]any); ok {
		for _, k := range keys {
			if s, ok := k.(string); ok {
				cfg.Keys = append(cfg.Keys, s)
			}
		}
		delete(values, customCacheFieldsKey)
	}
	return cfg, nil
}

func decodeInto[T Config](decode func(v any) error) (Config, error) {
	var cfg T
	if err := decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}
