package llm

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"
	openrouterx "github.com/tanpawarit/Inmobilia-Lead-Capture/pkg/openrouter"
)

// GraphInferrer runs prompt -> chat model -> content as a compiled eino
// graph.
type GraphInferrer struct {
	runner compose.Runnable[map[string]any, string]
}

var _ contractx.Inferrer = (*GraphInferrer)(nil)

func NewGraphInferrer(ctx context.Context, chatModel einomodel.BaseChatModel) (*GraphInferrer, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", contractx.ErrModelInvoke)
	}
	runner, err := compileCompletionGraph(ctx, chatModel)
	if err != nil {
		return nil, fmt.Errorf("%w: compile completion graph: %v", contractx.ErrModelInvoke, err)
	}
	return &GraphInferrer{runner: runner}, nil
}

func (g *GraphInferrer) Complete(ctx context.Context, system string, user string) (string, error) {
	out, err := g.runner.Invoke(ctx, map[string]any{
		"system": system,
		"input":  user,
	})
	if err != nil {
		return "", fmt.Errorf("%w: completion invoke: %v", contractx.ErrModelInvoke, err)
	}
	return out, nil
}

func compileCompletionGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
) (compose.Runnable[map[string]any, string], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{input}"),
	)

	graph := compose.NewGraph[map[string]any, string]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add completion prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add completion model node: %w", err)
	}
	if err := graph.AddLambdaNode("content",
		compose.InvokableLambda(func(ctx context.Context, msg *schema.Message) (string, error) {
			if msg == nil || strings.TrimSpace(msg.Content) == "" {
				return "", fmt.Errorf("%w: empty model response", contractx.ErrSchemaViolation)
			}
			return msg.Content, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add completion content node: %w", err)
	}

	edges := [][2]string{
		{compose.START, "prompt"},
		{"prompt", "model"},
		{"model", "content"},
		{"content", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add completion edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("llm.completion_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile completion graph: %w", err)
	}
	return runner, nil
}

// NewInferrer builds the configured backend for purpose. It returns a nil
// inferrer when no API key is configured.
func NewInferrer(ctx context.Context, cfg Config, p Purpose) (contractx.Inferrer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled() {
		return nil, nil
	}

	orCfg := cfg.OpenRouterFor(p)
	if cfg.Backend == BackendCompletions {
		inf, err := openrouterx.NewCompletionInferrer(orCfg)
		if err != nil {
			return nil, err
		}
		return inf, nil
	}

	chatModel, err := orCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s model: %v", contractx.ErrModelInvoke, p, err)
	}
	inf, err := NewGraphInferrer(ctx, chatModel)
	if err != nil {
		return nil, err
	}
	return inf, nil
}
