package executor

import (
	"context"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/flow"
)

// SystemHandle carries a wired system prompt.
const SystemHandle = "system"

// TextRequest is one call to a text model.
type TextRequest struct {
	Model        string
	Prompt       string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
	// Stream receives partial output as it is generated.
	Stream func(chunk string)
}

// TextResponse is a text model's answer.
type TextResponse struct {
	Text      string
	Reasoning string
	Usage     map[string]any
}

// TextModel is implemented by text generation providers.
type TextModel interface {
	Generate(ctx context.Context, req TextRequest) (TextResponse, error)
}

// TextModelFunc adapts a function to TextModel.
type TextModelFunc func(ctx context.Context, req TextRequest) (TextResponse, error)

// Generate calls f.
func (f TextModelFunc) Generate(ctx context.Context, req TextRequest) (TextResponse, error) {
	return f(ctx, req)
}

// NewPromptExecutor returns an executor for prompt nodes backed by model.
// Wired "prompt" and "system" inputs take precedence over the node config.
func NewPromptExecutor(model TextModel) Executor {
	return Func(func(ctx context.Context, in *Context) (flow.Result, error) {
		cfg, _ := in.Node.Config.(flow.PromptConfig)
		prompt := in.InputOr(flow.DefaultTargetHandle, cfg.Prompt)
		if prompt == "" {
			return flow.Result{}, errors.InvalidInput("prompt", "prompt is empty")
		}

		resp, err := model.Generate(ctx, TextRequest{
			Model:        cfg.Model,
			Prompt:       prompt,
			SystemPrompt: in.InputOr(SystemHandle, cfg.SystemPrompt),
			Temperature:  cfg.Temperature,
			MaxTokens:    cfg.MaxTokens,
			Stream:       in.Stream,
		})
		if err != nil {
			return flow.Result{}, err
		}

		res := flow.Result{Output: resp.Text, Reasoning: resp.Reasoning}
		if cfg.Model != "" || len(resp.Usage) > 0 {
			res.DebugInfo = map[string]any{}
			if cfg.Model != "" {
				res.DebugInfo["model"] = cfg.Model
			}
			for k, v := range resp.Usage {
				res.DebugInfo[k] = v
			}
		}
		return res, nil
	})
}
