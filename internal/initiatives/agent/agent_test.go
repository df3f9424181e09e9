package agent

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"
	"testing"

	"propensia_dashboard/internal/crm"
	"propensia_dashboard/internal/initiatives/ports"
	"propensia_dashboard/internal/opportunities/scoring"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

type fakeLLM struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) GenerateContent(_ context.Context, req *model.LLMRequest, _ bool) iter.Seq2[*model.LLMResponse, error] {
	f.mu.Lock()
	var prompt strings.Builder
	for _, content := range req.Contents {
		for _, part := range content.Parts {
			prompt.WriteString(part.Text)
		}
	}
	f.prompts = append(f.prompts, prompt.String())
	f.mu.Unlock()

	return func(yield func(*model.LLMResponse, error) bool) {
		if f.err != nil {
			yield(nil, f.err)
			return
		}
		yield(&model.LLMResponse{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: f.reply}}},
		}, nil)
	}
}

func TestFollowUpWriterBuildsPromptAndCleansOutput(t *testing.T) {
	llm := &fakeLLM{reply: "Subject: Quick check-in\n\nHi Dana,\n\n<b>Could we meet Thursday?</b>"}
	writer, err := NewFollowUpWriter(llm)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}

	body, err := writer.WriteFollowUp(context.Background(), ports.FollowUpInput{
		ContactName:     "Dana Scully",
		OpportunityName: "Platform Renewal",
		AccountName:     "Acme",
		Amount:          1250000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != "Hi Dana,\n\nCould we meet Thursday?" {
		t.Fatalf("unexpected body %q", body)
	}

	prompt := llm.prompts[0]
	for _, want := range []string{"Dana Scully", "Acme's Opportunity (Platform Renewal)", "$1,250,000.00", "24-72 hours"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestFollowUpWriterPropagatesModelErrors(t *testing.T) {
	writer, err := NewFollowUpWriter(&fakeLLM{err: errors.New("rate limited")})
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	if _, err := writer.WriteFollowUp(context.Background(), ports.FollowUpInput{ContactName: "A"}); err == nil {
		t.Fatalf("expected model error")
	}

	empty, _ := NewFollowUpWriter(&fakeLLM{reply: "   "})
	if _, err := empty.WriteFollowUp(context.Background(), ports.FollowUpInput{ContactName: "A"}); err == nil {
		t.Fatalf("expected empty draft error")
	}
}

func TestNextStepsAdvisorParsesBullets(t *testing.T) {
	llm := &fakeLLM{reply: "Here is the plan:\n- **Schedule a demo** with the CFO\n* Send ROI case study\n1. Confirm budget owner\n2) Agree on a close plan\n- Map competitors\n- Extra item"}
	advisor, err := NewNextStepsAdvisor(llm)
	if err != nil {
		t.Fatalf("create advisor: %v", err)
	}

	record := crm.Record{"Id": "006A", "Name": "Big Deal", "StageName": "Proposal", "Amount": 300000.0, "High_Intent__c": true}
	steps, err := advisor.NextSteps(context.Background(), record, scoring.Calculate(record))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(steps) != 5 {
		t.Fatalf("expected 5 steps, got %d: %v", len(steps), steps)
	}
	if steps[0] != "Schedule a demo with the CFO" {
		t.Fatalf("unexpected first step %q", steps[0])
	}
	if steps[2] != "Confirm budget owner" || steps[3] != "Agree on a close plan" {
		t.Fatalf("unexpected numbered steps %v", steps)
	}
	if !strings.Contains(llm.prompts[0], "High_Intent: true") {
		t.Fatalf("expected qualifiers in prompt:\n%s", llm.prompts[0])
	}
}

func TestParseBulletsFallsBackToPlainLines(t *testing.T) {
	got := parseBullets("Call the champion.\n\nSend pricing.")
	if len(got) != 2 || got[1] != "Send pricing." {
		t.Fatalf("unexpected fallback %v", got)
	}
}
