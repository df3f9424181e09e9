package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const TaskRescoreOpportunity = "opportunities.rescore"

type RescoreOpportunityPayload struct {
	OpportunityID string `json:"opportunityId"`
}

func NewRescoreOpportunityTask(payload RescoreOpportunityPayload) (*asynq.Task, error) {
	if payload.OpportunityID == "" {
		return nil, fmt.Errorf("opportunity id is required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRescoreOpportunity, data), nil
}

func ParseRescoreOpportunityPayload(task *asynq.Task) (RescoreOpportunityPayload, error) {
	var payload RescoreOpportunityPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RescoreOpportunityPayload{}, err
	}
	if payload.OpportunityID == "" {
		return RescoreOpportunityPayload{}, fmt.Errorf("opportunity id is required")
	}
	return payload, nil
}
