package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"
	openrouterx "github.com/tanpawarit/Inmobilia-Lead-Capture/pkg/openrouter"
)

const (
	BackendGraph       = "graph"
	BackendCompletions = "completions"
)

// Purpose selects per-call model overrides.
type Purpose string

const (
	PurposeExtraction Purpose = "extraction"
	PurposeSummary    Purpose = "summary"
)

type Config struct {
	Backend            string        `envconfig:"BACKEND" split_words:"true" default:"graph"`
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" default:"openai/gpt-4o-mini"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"400"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	ExtractionTimeout  time.Duration `envconfig:"EXTRACTION_TIMEOUT" split_words:"true" default:"8s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	ExtractionModel    string  `envconfig:"EXTRACTION_MODEL" split_words:"true"`
	SummaryModel       string  `envconfig:"SUMMARY_MODEL" split_words:"true"`
	SummaryTemperature float32 `envconfig:"SUMMARY_TEMPERATURE" split_words:"true" default:"-1"`
}

// Enabled reports whether a model is configured at all. Without an API key
// the engine runs on deterministic patterns only.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

func (c Config) Validate() error {
	switch strings.TrimSpace(c.Backend) {
	case BackendGraph, BackendCompletions:
	default:
		return fmt.Errorf("%w: unknown llm backend %q", contractx.ErrValidation, c.Backend)
	}
	if c.Enabled() && strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

func (c Config) OpenRouterFor(p Purpose) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature
	timeout := c.Timeout

	switch p {
	case PurposeExtraction:
		if v := strings.TrimSpace(c.ExtractionModel); v != "" {
			modelName = v
		}
		if c.ExtractionTimeout > 0 {
			timeout = c.ExtractionTimeout
		}
	case PurposeSummary:
		if v := strings.TrimSpace(c.SummaryModel); v != "" {
			modelName = v
		}
		if c.SummaryTemperature >= 0 {
			temp = c.SummaryTemperature
		}
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
