package perception

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// intentSystemPrompt instructs the oracle to emit one JSON envelope per
// utterance. The operation vocabulary and parameter keys here are the
// contract: ParseOperation and intentEnvelope mirror them exactly.
const intentSystemPrompt = `You are an intent extraction engine for a train ticketing assistant.

Given a user message and the recent conversation, identify the intended operation and extract its parameters. The supported operations are:

- query_ticket: ask about a specific train (needs train_id, or from_city/to_city/date to narrow it down)
- book_ticket: book a ticket on a train (needs train_id, or from_city/to_city/date to narrow it down; user_id if mentioned)
- cancel_ticket: cancel a booked ticket (needs train_id, or from_city/to_city/date to narrow it down; user_id if mentioned)
- list_trains: list all available trains (no parameters)
- search_trains: search trains by criteria (from_city, to_city, date; at least one)
- my_tickets: show the user's booked tickets (user_id if mentioned)
- unknown: anything else

Extraction rules:
1. train_id is an alphanumeric code like G100, D200, K300. Extract it verbatim, uppercase.
2. user_id is only extracted when the user explicitly names one (e.g. "for user_002").
3. from_city and to_city are city names. "from Beijing to Shanghai" sets both.
4. date is normalized to YYYY-MM-DD when the message gives enough to do so; otherwise copy what the user said.
5. Use the conversation context: a bare train ID or "book it" refers to the train under discussion.
6. If book_ticket, cancel_ticket, or query_ticket has no train_id but does have from_city, to_city, or date, do NOT ask for the train ID. Return the criteria as extracted and leave clarify_question empty; the system resolves the train itself.
7. Use empty strings for parameters that are not present. Never use null.
8. missing_parameters lists required parameter names you could not extract.
9. clarify_question is a short question to the user, only when you truly cannot proceed and rule 6 does not apply.

Respond with ONLY a valid JSON object, no markdown fences, in exactly this shape:

{
  "intent": "<operation>",
  "parameters": {
    "train_id": "",
    "user_id": "",
    "from_city": "",
    "to_city": "",
    "date": ""
  },
  "missing_parameters": [],
  "clarify_question": ""
}`

// intentEnvelope is the oracle's wire shape.
type intentEnvelope struct {
	Intent     string `json:"intent"`
	Parameters struct {
		TrainID  string `json:"train_id"`
		UserID   string `json:"user_id"`
		FromCity string `json:"from_city"`
		ToCity   string `json:"to_city"`
		Date     string `json:"date"`
	} `json:"parameters"`
	MissingParameters []string `json:"missing_parameters"`
	ClarifyQuestion   string   `json:"clarify_question"`
}

// Extractor turns raw utterances into Intents via the LLM oracle.
// Extract never returns an error: any oracle failure degrades to
// FallbackIntent so the conversation keeps moving.
type Extractor struct {
	client  LLMClient
	timeout time.Duration
	logger  *zap.Logger
}

// NewExtractor creates an extractor. A zero timeout defaults to 30s.
func NewExtractor(client LLMClient, timeout time.Duration, logger *zap.Logger) *Extractor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		client:  client,
		timeout: timeout,
		logger:  logger,
	}
}

// Extract runs the oracle over one utterance plus recent history.
func (e *Extractor) Extract(ctx context.Context, utterance string, history []ConversationTurn) Intent {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := e.client.CompleteWithSystem(ctx, intentSystemPrompt, buildUserPrompt(utterance, history))
	if err != nil {
		e.logger.Warn("intent oracle failed, falling back",
			zap.Error(err),
			zap.Duration("elapsed", time.Since(start)))
		return FallbackIntent()
	}

	intent, err := parseIntentResponse(raw)
	if err != nil {
		e.logger.Warn("intent response unparseable, falling back",
			zap.Error(err),
			zap.String("raw", truncateForLog(raw, 200)))
		return FallbackIntent()
	}

	e.logger.Debug("intent extracted",
		zap.String("operation", string(intent.Operation)),
		zap.String("train_id", intent.Slots.TrainID),
		zap.String("from", intent.Slots.From),
		zap.String("to", intent.Slots.To),
		zap.String("date", intent.Slots.Date),
		zap.Duration("elapsed", time.Since(start)))
	return intent
}

// buildUserPrompt renders the history window ahead of the new utterance.
// Agent turns are truncated so one verbose train listing cannot crowd the
// utterance out of the context.
func buildUserPrompt(utterance string, history []ConversationTurn) string {
	var b strings.Builder
	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, turn := range history {
			content := turn.Content
			if turn.Role != "user" {
				content = truncateForLog(content, 400)
			}
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, content)
		}
		b.WriteString("\n")
	}
	b.WriteString("New user message: ")
	b.WriteString(utterance)
	return b.String()
}

func parseIntentResponse(raw string) (Intent, error) {
	jsonStr := extractJSON(raw)
	if jsonStr == "" {
		return Intent{}, fmt.Errorf("no JSON object in response")
	}

	var env intentEnvelope
	if err := json.Unmarshal([]byte(jsonStr), &env); err != nil {
		return Intent{}, fmt.Errorf("failed to parse intent envelope: %w", err)
	}

	intent := Intent{
		Operation: ParseOperation(env.Intent),
		Slots: Slots{
			TrainID: sanitizeTrainID(env.Parameters.TrainID),
			UserID:  strings.TrimSpace(env.Parameters.UserID),
			From:    strings.TrimSpace(env.Parameters.FromCity),
			To:      strings.TrimSpace(env.Parameters.ToCity),
			Date:    strings.TrimSpace(env.Parameters.Date),
		},
		Clarify: strings.TrimSpace(env.ClarifyQuestion),
	}
	for _, m := range env.MissingParameters {
		if m = strings.TrimSpace(m); m != "" {
			intent.Missing = append(intent.Missing, m)
		}
	}
	return intent, nil
}

// extractJSON pulls the first balanced JSON object out of a response that
// may be wrapped in markdown fences or prose.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if fenced := strings.Index(s, "```"); fenced != -1 {
		rest := s[fenced+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end != -1 {
			s = rest[:end]
		} else {
			s = rest
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}

var trainIDPattern = regexp.MustCompile(`[^A-Za-z0-9]+`)

// sanitizeTrainID normalizes an oracle-extracted train ID: first token only,
// punctuation stripped, uppercased. The oracle occasionally emits "G100." or
// "train G100".
func sanitizeTrainID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	fields := strings.Fields(id)
	id = fields[len(fields)-1]
	id = trainIDPattern.ReplaceAllString(id, "")
	return strings.ToUpper(id)
}

// truncateForLog cuts s to at most limit bytes on a rune boundary, so
// multi-byte text never yields invalid UTF-8 in logs or prompts.
func truncateForLog(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
