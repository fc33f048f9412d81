package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"
)

type fakeChatModel struct {
	reply string
	err   error
	input []*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func TestGraphInferrerComplete(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{reply: `{"found": true, "value": "Surco"}`}
	inf, err := NewGraphInferrer(context.Background(), fake)
	if err != nil {
		t.Fatalf("NewGraphInferrer() error = %v", err)
	}

	out, err := inf.Complete(context.Background(), `Responde {"found": bool}`, "campo: district\nmensaje: vivo en surco")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if out != fake.reply {
		t.Fatalf("Complete() = %q", out)
	}
	if len(fake.input) != 2 {
		t.Fatalf("model saw %d messages, want 2", len(fake.input))
	}
	if fake.input[0].Role != schema.System || fake.input[0].Content != `Responde {"found": bool}` {
		t.Fatalf("system message = %+v", fake.input[0])
	}
	if fake.input[1].Role != schema.User || fake.input[1].Content != "campo: district\nmensaje: vivo en surco" {
		t.Fatalf("user message = %+v", fake.input[1])
	}
}

func TestGraphInferrerErrors(t *testing.T) {
	t.Parallel()

	failing, err := NewGraphInferrer(context.Background(), &fakeChatModel{err: errors.New("rate limited")})
	if err != nil {
		t.Fatalf("NewGraphInferrer() error = %v", err)
	}
	if _, err := failing.Complete(context.Background(), "s", "u"); !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("Complete() error = %v, want ErrModelInvoke", err)
	}

	empty, err := NewGraphInferrer(context.Background(), &fakeChatModel{reply: "  "})
	if err != nil {
		t.Fatalf("NewGraphInferrer() error = %v", err)
	}
	if _, err := empty.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatal("Complete() on empty content should fail")
	}

	if _, err := NewGraphInferrer(context.Background(), nil); err == nil {
		t.Fatal("NewGraphInferrer(nil) should fail")
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	if err := (Config{Backend: "carrier-pigeon"}).Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Validate() error = %v, want ErrValidation", err)
	}
	if err := (Config{Backend: BackendGraph, APIKey: "k"}).Validate(); err == nil {
		t.Fatal("Validate() without model should fail when enabled")
	}
	if err := (Config{Backend: BackendCompletions}).Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestOpenRouterForPurpose(t *testing.T) {
	t.Parallel()

	cfg := Config{
		APIKey:             " key ",
		Model:              "base/model",
		Temperature:        0.2,
		Timeout:            30 * time.Second,
		ExtractionTimeout:  5 * time.Second,
		ExtractionModel:    "fast/model",
		SummaryTemperature: 0.7,
		MaxCompletionToken: 300,
	}

	ex := cfg.OpenRouterFor(PurposeExtraction)
	if ex.Model != "fast/model" || ex.Timeout != 5*time.Second || ex.Temperature != 0.2 {
		t.Fatalf("extraction config = %+v", ex)
	}
	if ex.APIKey != "key" || ex.MaxCompletionToken == nil || *ex.MaxCompletionToken != 300 {
		t.Fatalf("extraction config = %+v", ex)
	}

	sum := cfg.OpenRouterFor(PurposeSummary)
	if sum.Model != "base/model" || sum.Temperature != 0.7 || sum.Timeout != 30*time.Second {
		t.Fatalf("summary config = %+v", sum)
	}
}

func TestNewInferrerDisabled(t *testing.T) {
	t.Parallel()

	inf, err := NewInferrer(context.Background(), Config{Backend: BackendGraph}, PurposeExtraction)
	if err != nil {
		t.Fatalf("NewInferrer() error = %v", err)
	}
	if inf != nil {
		t.Fatalf("NewInferrer() = %T, want nil without api key", inf)
	}
}

func TestNewInferrerCompletionsBackend(t *testing.T) {
	t.Parallel()

	inf, err := NewInferrer(context.Background(), Config{
		Backend: BackendCompletions,
		APIKey:  "k",
		Model:   "m",
		BaseURL: "http://127.0.0.1:1",
	}, PurposeSummary)
	if err != nil {
		t.Fatalf("NewInferrer() error = %v", err)
	}
	if inf == nil {
		t.Fatal("NewInferrer() = nil")
	}
}
