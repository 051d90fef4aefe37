package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/iamsmart/masterclass/internal/store"
)

func hintSchema() *Schema {
	return &Schema{
		Name: "test-hint",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"hint":  map[string]any{"type": "string"},
				"level": map[string]any{"type": "string", "enum": []any{"gentle", "direct"}},
			},
			"required":             []any{"hint"},
			"additionalProperties": false,
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"hint":"think about context"}`, false},
		{"valid with enum", `{"hint":"x","level":"direct"}`, false},
		{"missing required", `{"level":"gentle"}`, true},
		{"wrong type", `{"hint":3}`, true},
		{"bad enum", `{"hint":"x","level":"loud"}`, true},
		{"extra field", `{"hint":"x","answer":"B"}`, true},
		{"malformed", `{"hint":`, true},
		{"empty", ``, true},
	}
	for _, tt := range tests {
		err := validateResponse(hintSchema(), json.RawMessage(tt.raw))
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: err = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		var inv *ErrInvalidResponse
		if err != nil && !errors.As(err, &inv) {
			t.Errorf("%s: err = %T, want *ErrInvalidResponse", tt.name, err)
		}
	}
	if err := validateResponse(nil, json.RawMessage(`garbage`)); err != nil {
		t.Errorf("nil schema: err = %v", err)
	}
}

func TestCheckOutput_TruncatedWhenInvalidAtMaxTokens(t *testing.T) {
	req := Request{Schema: hintSchema()}
	err := checkOutput(req, json.RawMessage(`{"hint":"cut`), "max_tokens")
	var trunc *ErrTruncated
	if !errors.As(err, &trunc) {
		t.Fatalf("err = %v, want *ErrTruncated", err)
	}
	if err := checkOutput(req, json.RawMessage(`{"hint":"ok"}`), "max_tokens"); err != nil {
		t.Errorf("valid output at max tokens: err = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		cfg     Config
		wantErr string
	}{
		{Config{Provider: ProviderMock}, ""},
		{Config{Provider: ProviderAnthropic, Anthropic: ProviderConfig{APIKey: "k"}}, ""},
		{Config{Provider: ProviderOpenAI}, "MASTERCLASS_OPENAI_API_KEY"},
		{Config{Provider: ProviderGemini}, "MASTERCLASS_GEMINI_API_KEY"},
		{Config{Provider: "openrouter"}, "unknown LLM provider"},
	}
	for _, tt := range tests {
		err := tt.cfg.Validate()
		switch {
		case tt.wantErr == "" && err != nil:
			t.Errorf("%s: unexpected error %v", tt.cfg.Provider, err)
		case tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)):
			t.Errorf("%s: err = %v, want containing %q", tt.cfg.Provider, err, tt.wantErr)
		}
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("MASTERCLASS_LLM_PROVIDER", "openai")
	t.Setenv("MASTERCLASS_OPENAI_API_KEY", "sk-test")
	t.Setenv("MASTERCLASS_OPENAI_BASE_URL", "http://localhost:1234/v1")
	t.Setenv("MASTERCLASS_ANTHROPIC_MODEL", "claude-sonnet")

	cfg := ConfigFromEnv()
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("Provider = %q, want openai", cfg.Provider)
	}
	if cfg.OpenAI.APIKey != "sk-test" || cfg.OpenAI.BaseURL != "http://localhost:1234/v1" {
		t.Errorf("OpenAI = %+v", cfg.OpenAI)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("OpenAI.Model = %q, want default", cfg.OpenAI.Model)
	}
	if cfg.Anthropic.Model != "claude-sonnet" {
		t.Errorf("Anthropic.Model = %q", cfg.Anthropic.Model)
	}
}

func TestDiscoverConfig(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	if _, ok := DiscoverConfig(); ok {
		t.Fatal("DiscoverConfig found a provider with no keys set")
	}

	t.Setenv("GEMINI_API_KEY", "g")
	t.Setenv("OPENAI_API_KEY", "o")
	cfg, ok := DiscoverConfig()
	if !ok || cfg.Provider != ProviderOpenAI || cfg.OpenAI.APIKey != "o" {
		t.Errorf("DiscoverConfig = %+v, %v; want openai first", cfg.Provider, ok)
	}
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 5 * time.Millisecond, Multiplier: 2}
}

func TestRetry(t *testing.T) {
	ok := MockResponse{Content: json.RawMessage(`"fine"`)}
	down := MockResponse{Err: &ErrUnavailable{Err: errors.New("down")}}
	invalid := MockResponse{Err: &ErrInvalidResponse{Err: errors.New("bad")}}
	trunc := MockResponse{Err: &ErrTruncated{}}

	tests := []struct {
		name      string
		replies   []MockResponse
		wantErr   bool
		wantCalls int
	}{
		{"first attempt", []MockResponse{ok}, false, 1},
		{"transient then ok", []MockResponse{down, ok}, false, 2},
		{"all fail", []MockResponse{down, down, down, ok}, true, 3},
		{"invalid retried once", []MockResponse{invalid, invalid, ok}, true, 2},
		{"invalid then ok", []MockResponse{invalid, ok}, false, 2},
		{"truncated not retried", []MockResponse{trunc, ok}, true, 1},
	}
	for _, tt := range tests {
		m := NewMock(tt.replies...)
		_, err := WithRetry(m, fastRetry()).Generate(context.Background(), Request{})
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: err = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if got := len(m.Calls()); got != tt.wantCalls {
			t.Errorf("%s: calls = %d, want %d", tt.name, got, tt.wantCalls)
		}
	}
}

func TestRetry_HonorsRetryAfter(t *testing.T) {
	m := NewMock(
		MockResponse{Err: &ErrRateLimit{RetryAfter: 20 * time.Millisecond}},
		MockResponse{Content: json.RawMessage(`"ok"`)},
	)
	start := time.Now()
	if _, err := WithRetry(m, fastRetry()).Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d := time.Since(start); d < 20*time.Millisecond {
		t.Errorf("waited %v, want >= RetryAfter", d)
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	m := NewMock(MockResponse{Err: &ErrUnavailable{}}, MockResponse{Content: json.RawMessage(`"ok"`)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := fastRetry()
	cfg.InitialWait = time.Second
	if _, err := WithRetry(m, cfg).Generate(ctx, Request{}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

type recordingEvents struct {
	mu     sync.Mutex
	events []store.LLMRequestEventData
	err    error
}

func (r *recordingEvents) AppendProgressEvent(context.Context, store.ProgressEventData) error {
	return nil
}

func (r *recordingEvents) QueryProgressEvents(context.Context, store.QueryOpts) ([]store.ProgressEventRecord, error) {
	return nil, nil
}

func (r *recordingEvents) AppendLLMRequest(_ context.Context, d store.LLMRequestEventData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, d)
	return r.err
}

func (r *recordingEvents) QueryLLMEvents(context.Context, store.QueryOpts) ([]store.LLMRequestEventRecord, error) {
	return nil, nil
}

func TestLogging_RecordsEveryAttempt(t *testing.T) {
	events := &recordingEvents{}
	m := NewMock(
		MockResponse{Err: &ErrUnavailable{Err: errors.New("boom")}},
		MockResponse{Content: json.RawMessage(`"ok"`), Usage: Usage{InputTokens: 12, OutputTokens: 4}},
	)
	p := WithRetry(WithLogging(m, ProviderMock, events, nil), fastRetry())

	ctx := WithUser(WithPurpose(context.Background(), "quiz-hint"), "asha")
	if _, err := p.Generate(ctx, Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events.events) != 2 {
		t.Fatalf("events = %d, want 2", len(events.events))
	}
	first, second := events.events[0], events.events[1]
	if first.Success || !strings.Contains(first.ErrorMessage, "boom") {
		t.Errorf("first = %+v, want failed with message", first)
	}
	if !second.Success || second.InputTokens != 12 || second.OutputTokens != 4 {
		t.Errorf("second = %+v", second)
	}
	if second.Purpose != "quiz-hint" || second.UserID != "asha" || second.Provider != ProviderMock {
		t.Errorf("labels = %q/%q/%q", second.Purpose, second.UserID, second.Provider)
	}
}

func TestLogging_FailureIsOnlyWarned(t *testing.T) {
	var buf bytes.Buffer
	events := &recordingEvents{err: errors.New("disk full")}
	p := WithLogging(NewMock(MockResponse{Content: json.RawMessage(`"ok"`)}), ProviderMock, events, log.New(&buf, "", 0))

	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "warning: failed to log LLM request event: disk full") {
		t.Errorf("log = %q", buf.String())
	}
}

func TestPurposeDefaults(t *testing.T) {
	if got := PurposeFrom(context.Background()); got != "unknown" {
		t.Errorf("PurposeFrom = %q, want unknown", got)
	}
	if got := UserFrom(context.Background()); got != "" {
		t.Errorf("UserFrom = %q, want empty", got)
	}
}

func TestMock_Fallback(t *testing.T) {
	m := NewMock()
	if _, err := m.Generate(context.Background(), Request{}); err == nil {
		t.Fatal("empty mock without fallback should fail")
	}
	m.Fallback = func(Request) MockResponse { return MockResponse{Content: json.RawMessage(`"again"`)} }
	resp, err := m.Generate(context.Background(), Request{})
	if err != nil || string(resp.Content) != `"again"` {
		t.Errorf("Generate = %v, %v", resp, err)
	}
	if len(m.Calls()) != 2 {
		t.Errorf("calls = %d, want 2", len(m.Calls()))
	}
}

func TestNew_Mock(t *testing.T) {
	events := &recordingEvents{}
	p, err := New(context.Background(), Config{Provider: ProviderMock}, events, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Errorf("ModelID = %q", p.ModelID())
	}
	if _, err := New(context.Background(), Config{Provider: ProviderAnthropic}, nil, nil); err == nil {
		t.Error("New without key should fail validation")
	}
}

func TestAnthropic_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_1",
			"type":        "message",
			"role":        "assistant",
			"content":     []map[string]any{{"type": "text", "text": `{"hint":"Re-read the section title."}`}},
			"model":       "claude-haiku-4-5-20251001",
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 40, "output_tokens": 9},
		})
	}))
	defer srv.Close()

	p, err := NewAnthropic(ProviderConfig{APIKey: "k", Model: "claude-haiku", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if p.ModelID() != "claude-haiku-4-5-20251001" {
		t.Errorf("ModelID = %q, alias not resolved", p.ModelID())
	}
	resp, err := p.Generate(context.Background(), Request{
		System: "tutor", Messages: UserText("help"), Schema: hintSchema(), MaxTokens: 100,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Usage.TotalTokens != 49 || resp.StopReason != "end" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestOpenAI_GenerateText(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "c1",
			"object":  "chat.completion",
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": "Think about tone."}, "finish_reason": "stop"}},
			"usage":   map[string]any{"prompt_tokens": 20, "completion_tokens": 5, "total_tokens": 25},
		})
	}))
	defer srv.Close()

	p, err := NewOpenAI(ProviderConfig{APIKey: "k", Model: "gpt-4o-mini", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := p.Generate(context.Background(), Request{Messages: UserText("help"), MaxTokens: 50})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if gotPath != "/v1/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}
	var text string
	if err := json.Unmarshal(resp.Content, &text); err != nil || text != "Think about tone." {
		t.Errorf("content = %s (%v)", resp.Content, err)
	}
}

func TestOpenAI_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":{"message":"upstream","type":"server_error"}}`))
	}))
	defer srv.Close()

	p, _ := NewOpenAI(ProviderConfig{APIKey: "k", Model: "gpt-4o-mini", BaseURL: srv.URL})
	_, err := p.Generate(context.Background(), Request{Messages: UserText("x")})
	var un *ErrUnavailable
	if !errors.As(err, &un) {
		t.Errorf("err = %v, want *ErrUnavailable", err)
	}
}

func TestGeminiSchema(t *testing.T) {
	s := geminiSchema(hintSchema().Definition)
	if s.Type != genai.TypeObject {
		t.Errorf("Type = %v", s.Type)
	}
	if len(s.Properties) != 2 || s.Properties["hint"].Type != genai.TypeString {
		t.Errorf("Properties = %+v", s.Properties)
	}
	if len(s.Required) != 1 || s.Required[0] != "hint" {
		t.Errorf("Required = %v", s.Required)
	}
	if got := s.Properties["level"].Enum; len(got) != 2 {
		t.Errorf("Enum = %v", got)
	}
}

func TestSpend(t *testing.T) {
	usd, unpriced := Spend([]UsageRecord{
		{Model: "gpt-4o-mini", InputTokens: 1_000_000, OutputTokens: 0},
		{Model: "claude-haiku-4-5", InputTokens: 0, OutputTokens: 200_000},
		{Model: "some-local-model", InputTokens: 10, OutputTokens: 10},
	})
	if usd < 1.149 || usd > 1.151 {
		t.Errorf("usd = %v, want 1.15", usd)
	}
	if unpriced != 1 {
		t.Errorf("unpriced = %d, want 1", unpriced)
	}
}
