package reranker

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/loxleyftsck/IndoGovRAG-sub001/internal/llm"
)

// Judge produces a bounded relevance estimate for a (query, passage) pair on
// the [JudgeScaleMin, JudgeScaleMax] scale. Implementations are expected to
// be remote and unreliable: the reranker applies its own per-call timeout
// and substitutes NeutralScore on any error or out-of-range value, so
// implementations should return errors freely rather than guess.
type Judge interface {
	Score(ctx context.Context, query, text string) (float64, error)
}

const (
	// defaultJudgeModel is used when no model is configured.
	defaultJudgeModel = "llama3.2"

	// maxPassageChars truncates very long passages before prompting.
	// Legal articles occasionally run to several pages; the opening of an
	// article is enough for a relevance call.
	maxPassageChars = 2000
)

// LLMJudge scores query/passage pairs with an LLM behind the llm.LLM
// interface. The client is injected so tests can substitute a deterministic
// fake.
type LLMJudge struct {
	llmClient llm.LLM
	model     string
}

// LLMJudgeOption is a functional option for configuring LLMJudge.
type LLMJudgeOption func(*LLMJudge)

// WithModel sets the model used for scoring.
func WithModel(model string) LLMJudgeOption {
	return func(j *LLMJudge) {
		j.model = model
	}
}

// NewLLMJudge creates an LLM-backed relevance judge.
func NewLLMJudge(llmClient llm.LLM, opts ...LLMJudgeOption) *LLMJudge {
	j := &LLMJudge{
		llmClient: llmClient,
		model:     defaultJudgeModel,
	}

	for _, opt := range opts {
		opt(j)
	}

	return j
}

// Score asks the LLM for a single numeric relevance score. The response is
// parsed strictly: whitespace-trimmed, then strconv.ParseFloat. Anything
// else (ranges, trailing prose, non-Western numerals) is an error; the
// caller's neutral-score fallback handles it.
func (j *LLMJudge) Score(ctx context.Context, query, text string) (float64, error) {
	prompt := buildScorePrompt(query, text)

	opts := llm.GenerateOptions{
		Model:       j.model,
		Temperature: 0.0, // Deterministic scoring
		MaxTokens:   8,
	}

	response, err := j.llmClient.Generate(ctx, prompt, opts)
	if err != nil {
		return 0, fmt.Errorf("judge generation failed: %w", err)
	}

	score, err := strconv.ParseFloat(strings.TrimSpace(response), 64)
	if err != nil {
		return 0, fmt.Errorf("judge returned non-numeric response %q", response)
	}

	return score, nil
}

// buildScorePrompt constructs the single-passage scoring prompt.
func buildScorePrompt(query, text string) string {
	if len(text) > maxPassageChars {
		text = text[:maxPassageChars] + "..."
	}

	var sb strings.Builder
	sb.WriteString("You are a relevance scoring system for Indonesian legal documents.\n")
	sb.WriteString("Rate how well the passage answers the question on a scale from 0 to 10.\n")
	sb.WriteString("0 means completely irrelevant, 10 means it directly answers the question.\n\n")
	sb.WriteString("Question: ")
	sb.WriteString(query)
	sb.WriteString("\n\nPassage:\n")
	sb.WriteString(text)
	sb.WriteString("\n\nOutput ONLY the number, no explanation:")
	return sb.String()
}

// Ensure LLMJudge implements Judge.
var _ Judge = (*LLMJudge)(nil)
