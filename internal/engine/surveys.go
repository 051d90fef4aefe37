package engine

import (
	"encoding/json"
	"fmt"

	"github.com/iamsmart/masterclass/internal/profile"
	"github.com/iamsmart/masterclass/internal/store"
)

// CompleteSurvey records a one-time survey and returns the prompt chained
// after it (the score card after a day's feedback form). A survey that was
// already recorded keeps its original answers.
func (e *Engine) CompleteSurvey(kind PromptKind, answers map[string]string) (Prompt, error) {
	key, ok := kind.SurveyKey()
	if !ok {
		return Prompt{}, fmt.Errorf("%w: %s", ErrUnknownSurvey, kind)
	}

	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return Prompt{}, ErrNotStarted
	}
	already := e.profile.HasSurvey(key)
	if !already {
		e.replaceLocked(e.profile.WithSurvey(key, answers, e.now()))
	}
	userID := e.userID
	e.mu.Unlock()

	if !already {
		e.record(store.ProgressEventData{
			UserID: userID,
			Kind:   KindSurveyCompleted,
			Detail: encodeDetail(string(key), answers),
		})
	}
	return followUp(e.rules, kind), nil
}

// CompleteOnboarding validates and stores the onboarding answers.
func (e *Engine) CompleteOnboarding(o profile.Onboarding) error {
	o = o.Normalized()
	if err := o.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return ErrNotStarted
	}
	e.replaceLocked(e.profile.WithOnboarding(o, e.now()))
	userID := e.userID
	e.mu.Unlock()

	e.record(store.ProgressEventData{
		UserID: userID,
		Kind:   KindOnboardingCompleted,
		Detail: o.Profession,
	})
	return nil
}

func encodeDetail(key string, answers map[string]string) string {
	b, err := json.Marshal(struct {
		Key     string            `json:"key"`
		Answers map[string]string `json:"answers,omitempty"`
	}{key, answers})
	if err != nil {
		return key
	}
	return string(b)
}
