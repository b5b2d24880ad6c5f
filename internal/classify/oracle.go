package classify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/examgrid/papers-cli/internal/model"
	"github.com/examgrid/papers-cli/internal/taxonomy"
	"github.com/examgrid/papers-cli/pkg/anthropic"
)

const oracleSystemPrompt = `You classify nursing exam multiple-choice questions. Respond with a valid JSON object: {"subject": "<subject>", "topic": "<topic>", "subtopic": "<subtopic>"}. Use "Unknown" for any level you cannot determine.`

// oracleTextLimit caps how much question text is sent per call.
const oracleTextLimit = 2500

// Oracle delegates classification to the Anthropic API when rules are
// not confident. Any failure (transport, timeout, unparseable reply)
// degrades to "unknown" for that one question and is never fatal.
type Oracle struct {
	client  anthropic.Client
	model   string
	timeout time.Duration
}

// NewOracle creates an Oracle strategy.
func NewOracle(client anthropic.Client, modelID string, timeout time.Duration) *Oracle {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Oracle{client: client, model: modelID, timeout: timeout}
}

func (o *Oracle) Name() string { return "oracle" }

// Classify sends the question text and options to the model and parses
// the label triple from its reply.
func (o *Oracle) Classify(ctx context.Context, q *model.Question, _ *taxonomy.Taxonomy) (Result, bool, error) {
	text := questionText(q)
	if len(text) > oracleTextLimit {
		text = text[:oracleTextLimit]
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.client.CreateMessage(callCtx, anthropic.MessageRequest{
		Model:     o.model,
		MaxTokens: 128,
		System:    oracleSystemPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: text},
		},
	})
	if err != nil {
		zap.L().Warn("classify: oracle call failed",
			zap.String("question_hash", q.QuestionHash),
			zap.Error(err),
		)
		return Result{}, false, nil
	}

	resp.Usage.LogUsage(o.model, "classify")

	res, ok := parseOracleReply(resp.Text())
	return res, ok, nil
}

// parseOracleReply decodes the model's JSON label triple. An "Unknown"
// subject, missing fields, or broken JSON all count as undecided.
func parseOracleReply(text string) (Result, bool) {
	var reply struct {
		Subject  string `json:"subject"`
		Topic    string `json:"topic"`
		Subtopic string `json:"subtopic"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &reply); err != nil {
		return Result{}, false
	}

	subject := strings.TrimSpace(reply.Subject)
	if subject == "" || strings.EqualFold(subject, model.UnknownLabel) {
		return Result{}, false
	}

	res := Result{
		Subject: subject,
		Topic:   strings.TrimSpace(reply.Topic),
		Method:  model.TagMethodFallback,
		Score:   1,
	}
	if !strings.EqualFold(res.Topic, model.UnknownLabel) {
		res.Subtopic = strings.TrimSpace(reply.Subtopic)
	} else {
		res.Topic = ""
	}
	if strings.EqualFold(res.Subtopic, model.UnknownLabel) {
		res.Subtopic = ""
	}
	return res, true
}

// cleanJSON strips a markdown code fence from around a JSON payload.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	}
	return text
}
