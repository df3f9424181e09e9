// Package agent wraps the ADK agents that write follow-up emails and
// suggest next steps for an opportunity.
package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

// textAgent runs a tool-less LLM agent for single-turn text generation.
type textAgent struct {
	agent          agent.Agent
	runner         *runner.Runner
	sessionService session.Service
	appName        string
	runMu          sync.Mutex
}

func newTextAgent(llm model.LLM, name, appName, description, instruction string) (*textAgent, error) {
	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        name,
		Model:       llm,
		Description: description,
		Instruction: instruction,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s agent: %w", name, err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s runner: %w", name, err)
	}

	return &textAgent{
		agent:          adkAgent,
		runner:         r,
		sessionService: sessionService,
		appName:        appName,
	}, nil
}

// run sends one prompt in a fresh session and returns the concatenated reply.
func (a *textAgent) run(ctx context.Context, userID, promptText string) (string, error) {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	sessionID := uuid.New().String()

	_, err := a.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   a.appName,
		UserID:    userID,
		SessionID: sessionID,
	})
	if err != nil {
		return "", fmt.Errorf("%s: create session: %w", a.appName, err)
	}
	defer func() {
		_ = a.sessionService.Delete(ctx, &session.DeleteRequest{
			AppName:   a.appName,
			UserID:    userID,
			SessionID: sessionID,
		})
	}()

	userMessage := &genai.Content{
		Role: "user",
		Parts: []*genai.Part{{
			Text: promptText,
		}},
	}

	runConfig := agent.RunConfig{StreamingMode: agent.StreamingModeNone}

	var outputText strings.Builder
	for event, err := range a.runner.Run(ctx, userID, sessionID, userMessage, runConfig) {
		if err != nil {
			return "", fmt.Errorf("%s: run failed: %w", a.appName, err)
		}
		if event.Content == nil {
			continue
		}
		for _, part := range event.Content.Parts {
			outputText.WriteString(part.Text)
		}
	}

	return strings.TrimSpace(outputText.String()), nil
}
