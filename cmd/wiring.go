package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	orchestratorx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/agents/orchestrator"
	llmx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/llm"
	configx "github.com/tanpawarit/Inmobilia-Lead-Capture/pkg/config"
)

// newEngine builds the turn engine and the hand-off summarizer from the
// LLM_* and ENGINE_* settings. Without an LLM API key both run on
// deterministic rules only.
func newEngine(ctx context.Context) (*orchestratorx.Engine, *orchestratorx.Summarizer, error) {
	llmCfg, err := configx.New[llmx.Config]("LLM")
	if err != nil {
		return nil, nil, err
	}
	engineCfg, err := configx.New[orchestratorx.EngineConfig]("ENGINE")
	if err != nil {
		return nil, nil, err
	}

	extraction, err := llmx.NewInferrer(ctx, *llmCfg, llmx.PurposeExtraction)
	if err != nil {
		return nil, nil, fmt.Errorf("extraction model: %w", err)
	}
	summary, err := llmx.NewInferrer(ctx, *llmCfg, llmx.PurposeSummary)
	if err != nil {
		return nil, nil, fmt.Errorf("summary model: %w", err)
	}
	if llmCfg.Enabled() {
		engineCfg.ExtractionTimeout = llmCfg.ExtractionTimeout
		log.Info().Str("backend", llmCfg.Backend).Str("model", llmCfg.Model).Msg("language model enabled")
	} else {
		log.Warn().Msg("LLM_API_KEY not set, free-text extraction disabled")
	}

	engine, err := orchestratorx.NewEngine(extraction, *engineCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create engine: %w", err)
	}
	return engine, orchestratorx.NewSummarizer(summary), nil
}
