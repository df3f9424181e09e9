package agent

import (
	"context"
	"errors"
	"fmt"

	"propensia_dashboard/internal/initiatives/ports"
	"propensia_dashboard/platform/format"
	"propensia_dashboard/platform/sanitize"

	"google.golang.org/adk/model"
)

// ErrEmptyDraft is returned when the model produced no usable text.
var ErrEmptyDraft = errors.New("model returned an empty draft")

// FollowUpWriter drafts follow-up emails for stale opportunities.
type FollowUpWriter struct {
	*textAgent
}

var _ ports.FollowUpWriter = (*FollowUpWriter)(nil)

func NewFollowUpWriter(llm model.LLM) (*FollowUpWriter, error) {
	a, err := newTextAgent(llm,
		"FollowUpWriter",
		"follow-up-writer",
		"Writes short sales follow-up emails for stale opportunities.",
		followUpSystemPrompt,
	)
	if err != nil {
		return nil, err
	}
	return &FollowUpWriter{textAgent: a}, nil
}

// WriteFollowUp returns a plain-text email body.
func (w *FollowUpWriter) WriteFollowUp(ctx context.Context, input ports.FollowUpInput) (string, error) {
	out, err := w.run(ctx, "follow-up", buildFollowUpPrompt(input))
	if err != nil {
		return "", err
	}
	body := sanitize.EmailBody(out)
	if body == "" {
		return "", ErrEmptyDraft
	}
	return body, nil
}

const followUpSystemPrompt = `You are a sales representative at Propensia AI writing to a prospect.
Write only the email body in plain text: no subject line, no markdown, no placeholders in brackets.
Keep it under 180 words.`

func buildFollowUpPrompt(input ports.FollowUpInput) string {
	contact := input.ContactName
	if contact == "" {
		contact = "the customer"
	}
	return fmt.Sprintf(`Write a concise, professional follow-up email to %s from a sales rep at Propensia AI.
Reference %s's Opportunity (%s) for $%s.
Emphasize how Propensia AI's predictive analytics can solve their sales challenges.
Request a meeting within 24-72 hours. Use a friendly tone and clear call-to-action.`,
		contact,
		input.AccountName,
		input.OpportunityName,
		format.Number(input.Amount, 2),
	)
}
