package perception

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeLLM returns a canned response and records the prompts it saw.
type fakeLLM struct {
	response string
	err      error

	systemPrompt string
	userPrompt   string
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return f.CompleteWithSystem(ctx, "", prompt)
}

func (f *fakeLLM) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.systemPrompt = systemPrompt
	f.userPrompt = userPrompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestExtractorParsesEnvelope(t *testing.T) {
	llm := &fakeLLM{response: `{
		"intent": "book_ticket",
		"parameters": {"train_id": "g100", "user_id": "user_002", "from_city": "", "to_city": "", "date": ""},
		"missing_parameters": [],
		"clarify_question": ""
	}`}
	e := NewExtractor(llm, 0, zaptest.NewLogger(t))

	intent := e.Extract(context.Background(), "book G100 for user_002", nil)

	assert.Equal(t, OpBookTicket, intent.Operation)
	assert.Equal(t, "G100", intent.Slots.TrainID, "train IDs are uppercased")
	assert.Equal(t, "user_002", intent.Slots.UserID)
	assert.Empty(t, intent.Clarify)
}

func TestExtractorHandlesMarkdownFences(t *testing.T) {
	llm := &fakeLLM{response: "Here is the result:\n```json\n" + `{
		"intent": "search_trains",
		"parameters": {"train_id": "", "user_id": "", "from_city": "Beijing", "to_city": "Shanghai", "date": "2025-06-01"},
		"missing_parameters": [],
		"clarify_question": ""
	}` + "\n```"}
	e := NewExtractor(llm, 0, zaptest.NewLogger(t))

	intent := e.Extract(context.Background(), "trains from Beijing to Shanghai on June 1st", nil)

	assert.Equal(t, OpSearchTrains, intent.Operation)
	assert.Equal(t, "Beijing", intent.Slots.From)
	assert.Equal(t, "Shanghai", intent.Slots.To)
	assert.Equal(t, "2025-06-01", intent.Slots.Date)
}

func TestExtractorFallbackOnOracleError(t *testing.T) {
	llm := &fakeLLM{err: errors.New("connection refused")}
	e := NewExtractor(llm, 0, zaptest.NewLogger(t))

	intent := e.Extract(context.Background(), "book a train", nil)

	assert.Equal(t, OpUnknown, intent.Operation)
	assert.Equal(t, Slots{}, intent.Slots, "fallback carries no slots")
	assert.Empty(t, intent.Missing)
	assert.Equal(t, FallbackClarification, intent.Clarify)
}

func TestExtractorFallbackOnGarbage(t *testing.T) {
	for _, response := range []string{
		"I'm sorry, I can't help with that.",
		`{"intent": "book_ticket", "parameters":`,
		"",
	} {
		llm := &fakeLLM{response: response}
		e := NewExtractor(llm, 0, zaptest.NewLogger(t))

		intent := e.Extract(context.Background(), "book a train", nil)
		assert.Equal(t, FallbackIntent(), intent, "response %q must fall back", response)
	}
}

func TestExtractorUnknownOperationCollapses(t *testing.T) {
	llm := &fakeLLM{response: `{"intent": "order_pizza", "parameters": {}, "missing_parameters": [], "clarify_question": ""}`}
	e := NewExtractor(llm, 0, zaptest.NewLogger(t))

	intent := e.Extract(context.Background(), "order a pizza", nil)
	assert.Equal(t, OpUnknown, intent.Operation)
}

func TestExtractorKeepsClarifyQuestion(t *testing.T) {
	llm := &fakeLLM{response: `{
		"intent": "book_ticket",
		"parameters": {"train_id": "", "user_id": "", "from_city": "", "to_city": "", "date": ""},
		"missing_parameters": ["train_id"],
		"clarify_question": "Which train would you like to book?"
	}`}
	e := NewExtractor(llm, 0, zaptest.NewLogger(t))

	intent := e.Extract(context.Background(), "book a ticket", nil)

	assert.Equal(t, OpBookTicket, intent.Operation)
	assert.Equal(t, []string{"train_id"}, intent.Missing)
	assert.Equal(t, "Which train would you like to book?", intent.Clarify)
}

func TestExtractorInjectsHistory(t *testing.T) {
	llm := &fakeLLM{response: `{"intent": "list_trains", "parameters": {}, "missing_parameters": [], "clarify_question": ""}`}
	e := NewExtractor(llm, 0, zaptest.NewLogger(t))

	history := []ConversationTurn{
		{Role: "user", Content: "what trains are there"},
		{Role: "agent", Content: strings.Repeat("x", 1000)},
	}
	e.Extract(context.Background(), "book the first one", history)

	assert.Contains(t, llm.userPrompt, "what trains are there")
	assert.Contains(t, llm.userPrompt, "New user message: book the first one")
	assert.NotContains(t, llm.userPrompt, strings.Repeat("x", 500), "agent turns are truncated")
	assert.Contains(t, llm.userPrompt, "...")
}

func TestTruncateForLogRuneBoundary(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"short untouched", "hello", 10, "hello"},
		{"ascii cut", "hello world", 5, "hello..."},
		{"cjk cut mid-rune", "北京南站", 4, "北..."},
		{"cjk cut on boundary", "北京南站", 6, "北京..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateForLog(tt.in, tt.limit)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestExtractorHistoryTruncationKeepsValidUTF8(t *testing.T) {
	llm := &fakeLLM{response: `{"intent": "list_trains", "parameters": {}, "missing_parameters": [], "clarify_question": ""}`}
	e := NewExtractor(llm, 0, zaptest.NewLogger(t))

	history := []ConversationTurn{
		{Role: "agent", Content: strings.Repeat("x", 399) + strings.Repeat("北京南站到上海虹桥", 60)},
	}
	e.Extract(context.Background(), "book the first one", history)

	assert.True(t, utf8.ValidString(llm.userPrompt), "truncated history must stay valid UTF-8")
}

func TestParseOperation(t *testing.T) {
	tests := []struct {
		in   string
		want Operation
	}{
		{"book_ticket", OpBookTicket},
		{" Query_Ticket ", OpQueryTicket},
		{"CANCEL_TICKET", OpCancelTicket},
		{"list_trains", OpListTrains},
		{"search_trains", OpSearchTrains},
		{"my_tickets", OpMyTickets},
		{"unknown", OpUnknown},
		{"buy_ticket", OpUnknown},
		{"", OpUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseOperation(tt.in), "input %q", tt.in)
	}
}

func TestSanitizeTrainID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"G100", "G100"},
		{"g100.", "G100"},
		{"train G100", "G100"},
		{" d200 ", "D200"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeTrainID(tt.in), "input %q", tt.in)
	}
}

func TestExtractJSON(t *testing.T) {
	const want = `{"a": "b {not a brace}", "c": {"d": 1}}`

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", want, want},
		{"prose wrapped", "Sure! " + want + " Hope that helps.", want},
		{"fenced", "```json\n" + want + "\n```", want},
		{"escaped quote", `{"a": "say \"hi\""}`, `{"a": "say \"hi\""}`},
		{"no json", "nothing here", ""},
		{"unbalanced", `{"a": `, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}

func TestFallbackIntentShape(t *testing.T) {
	fb := FallbackIntent()
	require.Equal(t, OpUnknown, fb.Operation)
	require.Equal(t, FallbackClarification, fb.Clarify)
	require.Empty(t, fb.Missing)
}
