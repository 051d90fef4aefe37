// Package tutor produces short hints after a wrong quiz answer.
package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/iamsmart/masterclass/internal/curriculum"
	"github.com/iamsmart/masterclass/internal/llm"
)

// Purpose labels hint requests in the LLM event log.
const Purpose = "quiz-hint"

// ErrDisabled is returned when no provider is configured.
var ErrDisabled = errors.New("tutor: hints are disabled")

// ErrLeak is returned when the model's hint contains the correct answer.
var ErrLeak = errors.New("tutor: hint revealed the answer")

const maxHintRunes = 280

var hintSchema = &llm.Schema{
	Name:        "quiz-hint",
	Description: "A short hint that nudges the learner without giving the answer.",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"hint": map[string]any{
				"type":        "string",
				"description": "One or two sentences. Never quote or name the correct option.",
			},
		},
		"required":             []any{"hint"},
		"additionalProperties": false,
	},
}

const systemPrompt = `You are a patient teaching assistant for a generative AI course for working professionals.
A learner picked a wrong option in a multiple-choice check. Give one short hint (at most two sentences)
that points them back to the idea the question tests. Never state, quote or paraphrase the correct option,
and never say which letter or position is correct.`

// Tutor asks a provider for hints.
type Tutor struct {
	provider llm.Provider
}

// New returns a Tutor. A nil provider yields a Tutor whose Hint always
// returns ErrDisabled.
func New(p llm.Provider) *Tutor {
	return &Tutor{provider: p}
}

// Enabled reports whether hints can be produced.
func (t *Tutor) Enabled() bool {
	return t != nil && t.provider != nil
}

// Hint explains why chosen (an option index into q.Options) is not the
// best answer to q without revealing the correct option.
func (t *Tutor) Hint(ctx context.Context, userID, sectionTitle string, q curriculum.Question, chosen int) (string, error) {
	if !t.Enabled() {
		return "", ErrDisabled
	}
	if chosen < 0 || chosen >= len(q.Options) {
		return "", fmt.Errorf("tutor: option %d out of range", chosen)
	}

	ctx = llm.WithUser(llm.WithPurpose(ctx, Purpose), userID)
	resp, err := t.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    llm.UserText(prompt(sectionTitle, q, chosen)),
		Schema:      hintSchema,
		MaxTokens:   200,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("generate hint: %w", err)
	}

	var out struct {
		Hint string `json:"hint"`
	}
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return "", fmt.Errorf("decode hint: %w", err)
	}
	hint := clip(strings.TrimSpace(out.Hint), maxHintRunes)
	if hint == "" {
		return "", errors.New("tutor: empty hint")
	}
	if reveals(hint, q) {
		return "", ErrLeak
	}
	return hint, nil
}

// prompt lists the options without marking the correct one.
func prompt(sectionTitle string, q curriculum.Question, chosen int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Section: %s\nQuestion: %s\nOptions:\n", sectionTitle, q.Prompt)
	for _, o := range q.Options {
		fmt.Fprintf(&b, "- %s\n", o)
	}
	fmt.Fprintf(&b, "The learner chose: %s\n", q.Options[chosen])
	return b.String()
}

// reveals reports whether hint contains the correct option's text.
func reveals(hint string, q curriculum.Question) bool {
	if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= len(q.Options) {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(q.Options[q.CorrectOptionIndex]))
	if answer == "" {
		return false
	}
	return strings.Contains(strings.ToLower(hint), answer)
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
