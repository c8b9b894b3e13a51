package reranker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/loxleyftsck/IndoGovRAG-sub001/internal/llm"
)

// fakeLLM returns a canned response and records the last request.
type fakeLLM struct {
	response   string
	err        error
	lastPrompt string
	lastOpts   llm.GenerateOptions
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, opts llm.GenerateOptions) (string, error) {
	f.lastPrompt = prompt
	f.lastOpts = opts
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestLLMJudge_Score(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     float64
		wantErr  bool
	}{
		{"plain integer", "7", 7, false},
		{"decimal", "7.5", 7.5, false},
		{"surrounding whitespace", " 8 \n", 8, false},
		{"zero", "0", 0, false},
		{"ten", "10", 10, false},
		{"trailing prose", "8 out of 10", 0, true},
		{"range answer", "7-8", 0, true},
		{"refusal", "I cannot rate this passage.", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			judge := NewLLMJudge(&fakeLLM{response: tt.response})

			got, err := judge.Score(context.Background(), "syarat PHK", "Pasal 151 ...")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for response %q, got score %g", tt.response, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("score = %g, expected %g", got, tt.want)
			}
		})
	}
}

func TestLLMJudge_GenerationError(t *testing.T) {
	wantErr := errors.New("connection refused")
	judge := NewLLMJudge(&fakeLLM{err: wantErr})

	_, err := judge.Score(context.Background(), "q", "text")
	if !errors.Is(err, wantErr) {
		t.Errorf("expected wrapped generation error, got %v", err)
	}
}

func TestLLMJudge_RequestShape(t *testing.T) {
	client := &fakeLLM{response: "5"}
	judge := NewLLMJudge(client, WithModel("mistral"))

	if _, err := judge.Score(context.Background(), "upah minimum", "Pasal 88 mengatur upah."); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if client.lastOpts.Model != "mistral" {
		t.Errorf("model = %q, expected %q", client.lastOpts.Model, "mistral")
	}
	if client.lastOpts.Temperature != 0 {
		t.Errorf("temperature = %g, expected 0", client.lastOpts.Temperature)
	}
	if client.lastOpts.MaxTokens == 0 {
		t.Error("expected a token limit on scoring requests")
	}
	if !strings.Contains(client.lastPrompt, "upah minimum") {
		t.Error("prompt does not contain the question")
	}
	if !strings.Contains(client.lastPrompt, "Pasal 88") {
		t.Error("prompt does not contain the passage")
	}
}

func TestLLMJudge_TruncatesLongPassages(t *testing.T) {
	client := &fakeLLM{response: "5"}
	judge := NewLLMJudge(client)

	long := strings.Repeat("ketentuan ", 1000)
	if _, err := judge.Score(context.Background(), "q", long); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.lastPrompt) >= len(long) {
		t.Errorf("prompt length %d suggests the passage was not truncated", len(client.lastPrompt))
	}
}

func TestLLMJudge_DefaultModel(t *testing.T) {
	client := &fakeLLM{response: "3"}
	judge := NewLLMJudge(client)

	if _, err := judge.Score(context.Background(), "q", "text"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.lastOpts.Model == "" {
		t.Error("expected a default model to be set")
	}
}
