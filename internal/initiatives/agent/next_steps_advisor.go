package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"propensia_dashboard/internal/crm"
	"propensia_dashboard/internal/opportunities/scoring"
	"propensia_dashboard/platform/format"
	"propensia_dashboard/platform/sanitize"

	"google.golang.org/adk/model"
)

const maxNextSteps = 5

var bulletPrefix = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)

// NextStepsAdvisor suggests concrete actions to advance an opportunity.
type NextStepsAdvisor struct {
	*textAgent
}

func NewNextStepsAdvisor(llm model.LLM) (*NextStepsAdvisor, error) {
	a, err := newTextAgent(llm,
		"NextStepsAdvisor",
		"next-steps-advisor",
		"Suggests next steps for a sales opportunity.",
		"You are a pragmatic B2B sales coach. Answer with a bulleted list only.",
	)
	if err != nil {
		return nil, err
	}
	return &NextStepsAdvisor{textAgent: a}, nil
}

// NextSteps returns between one and five action items.
func (a *NextStepsAdvisor) NextSteps(ctx context.Context, record crm.Record, result scoring.Result) ([]string, error) {
	out, err := a.run(ctx, "next-steps-"+record.ID(), buildNextStepsPrompt(record, result))
	if err != nil {
		return nil, err
	}
	steps := parseBullets(sanitize.GeneratedText(out))
	if len(steps) == 0 {
		return nil, ErrEmptyDraft
	}
	return steps, nil
}

func buildNextStepsPrompt(record crm.Record, result scoring.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this sales opportunity and provide 3-5 specific next steps:\n")
	fmt.Fprintf(&b, "- Name: %s\n", record.String("Name"))
	fmt.Fprintf(&b, "- Account: %s\n", record.String("Account.Name"))
	fmt.Fprintf(&b, "- Stage: %s\n", record.String("StageName"))
	fmt.Fprintf(&b, "- Amount: $%s\n", format.Number(result.Amount, 2))
	fmt.Fprintf(&b, "- Close date: %s\n", format.Date(record.String("CloseDate")))
	fmt.Fprintf(&b, "- Propensity score: %.2f / 10, win probability %.2f%%, %s\n", result.Score, result.Probability, result.Priority)
	for _, field := range crm.QualifierFields {
		if raw, ok := record[field]; ok && raw != nil {
			fmt.Fprintf(&b, "- %s: %v\n", strings.TrimSuffix(field, "__c"), raw)
		}
	}
	b.WriteString(`
Focus on:
1. Immediate actions to advance the deal
2. Key stakeholders to engage
3. Potential risks to address
4. Timeline considerations

Format as a bulleted list with clear, actionable items.`)
	return b.String()
}

// parseBullets extracts list items. Lines that are not list items are kept
// only when the text contains no list at all.
func parseBullets(text string) []string {
	var bullets, plain []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if bulletPrefix.MatchString(trimmed) {
			item := strings.TrimSpace(bulletPrefix.ReplaceAllString(trimmed, ""))
			item = strings.TrimSpace(strings.ReplaceAll(item, "**", ""))
			if item != "" {
				bullets = append(bullets, item)
			}
			continue
		}
		plain = append(plain, trimmed)
	}
	if len(bullets) == 0 {
		bullets = plain
	}
	if len(bullets) > maxNextSteps {
		bullets = bullets[:maxNextSteps]
	}
	return bullets
}
