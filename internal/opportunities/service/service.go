// Package service provides the opportunity scoring business logic: the
// write-back updater, the dashboard aggregation and the insights view.
package service

import (
	"context"
	"fmt"
	"math"

	"propensia_dashboard/internal/crm"
	"propensia_dashboard/internal/opportunities/scoring"
	"propensia_dashboard/internal/opportunities/transport"
	"propensia_dashboard/platform/apperr"
	"propensia_dashboard/platform/logger"
)

// CRM is the subset of the Salesforce client the service needs.
type CRM interface {
	GetOpportunity(ctx context.Context, id string) (crm.Record, error)
	UpdateOpportunity(ctx context.Context, id string, fields map[string]any) error
	DashboardOpportunities(ctx context.Context) ([]crm.Record, error)
}

// NextStepsAdvisor suggests follow-up actions for an opportunity.
type NextStepsAdvisor interface {
	NextSteps(ctx context.Context, record crm.Record, result scoring.Result) ([]string, error)
}

// UpdateOutcome describes what UpdateScores did with a record.
type UpdateOutcome string

const (
	OutcomeUnchanged UpdateOutcome = "unchanged"
	OutcomeUpdated   UpdateOutcome = "updated"
	OutcomeFailed    UpdateOutcome = "failed"
	OutcomeMissing   UpdateOutcome = "missing"
)

// Service handles opportunity scoring.
type Service struct {
	crm      CRM
	advisor  NextStepsAdvisor
	pageSize int
	log      *logger.Logger
}

// New creates a new opportunities service. advisor may be nil when AI is disabled.
func New(client CRM, advisor NextStepsAdvisor, pageSize int, log *logger.Logger) *Service {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Service{
		crm:      client,
		advisor:  advisor,
		pageSize: pageSize,
		log:      log,
	}
}

// AIEnabled reports whether next-step suggestions are available.
func (s *Service) AIEnabled() bool {
	return s.advisor != nil
}

// UpdateScores recomputes the score of one opportunity and writes it back
// only when it differs from the stored values. A failed write is logged and
// reported as OutcomeFailed; it is not retried.
func (s *Service) UpdateScores(ctx context.Context, id string) (UpdateOutcome, error) {
	record, err := s.crm.GetOpportunity(ctx, id)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("fetch opportunity %s: %w", id, err)
	}
	if record == nil {
		s.log.Warn("opportunity not found for rescoring", "opportunity_id", id)
		return OutcomeMissing, nil
	}

	result := scoring.Calculate(record)
	if storedMatches(record, result) {
		s.log.Debug("opportunity score unchanged", "opportunity_id", id, "score", result.Score)
		return OutcomeUnchanged, nil
	}

	fields := map[string]any{
		crm.FieldPropensityScore: result.Score,
		crm.FieldWinProbability:  result.Probability,
		crm.FieldPriorityLevel:   result.Priority,
	}
	if err := s.crm.UpdateOpportunity(ctx, id, fields); err != nil {
		s.log.Error("failed to write opportunity score", "opportunity_id", id, "error", err)
		return OutcomeFailed, nil
	}

	s.log.Info("opportunity score updated",
		"opportunity_id", id,
		"score", result.Score,
		"probability", result.Probability,
		"priority", result.Priority,
	)
	return OutcomeUpdated, nil
}

// Rescore adapts UpdateScores to the poller's dispatch signature.
func (s *Service) Rescore(ctx context.Context, id string) error {
	_, err := s.UpdateScores(ctx, id)
	return err
}

// storedMatches compares the computed tuple with the stored fields at
// two-decimal precision.
func storedMatches(record crm.Record, result scoring.Result) bool {
	storedScore, ok := storedNumber(record[crm.FieldPropensityScore])
	if !ok || storedScore != round2(result.Score) {
		return false
	}
	storedProb, ok := storedNumber(record[crm.FieldWinProbability])
	if !ok || storedProb != round2(result.Probability) {
		return false
	}
	storedPriority, _ := record[crm.FieldPriorityLevel].(string)
	return storedPriority == result.Priority
}

func storedNumber(raw any) (float64, bool) {
	if raw == nil {
		return 0, false
	}
	return round2(scoring.ParseNumber(raw)), true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Insights returns the detail view of one opportunity, including AI
// suggested next steps when an advisor is configured.
func (s *Service) Insights(ctx context.Context, id string) (*transport.Insights, error) {
	record, err := s.crm.GetOpportunity(ctx, id)
	if err != nil {
		return nil, apperr.Upstream("could not load the opportunity from Salesforce", err).WithOp("opportunities.Insights")
	}
	if record == nil {
		return nil, apperr.NotFound("opportunity not found")
	}

	result := scoring.Calculate(record)
	insights := &transport.Insights{
		Opportunity: toScored(record, result),
		Qualifiers:  qualifiers(record),
		AIEnabled:   s.advisor != nil,
	}

	if s.advisor == nil {
		return insights, nil
	}
	steps, err := s.advisor.NextSteps(ctx, record, result)
	if err != nil {
		s.log.Error("next steps generation failed", "opportunity_id", id, "error", err)
		insights.NextStepsError = "Next steps are unavailable right now."
		return insights, nil
	}
	insights.NextSteps = steps
	return insights, nil
}

var qualifierLabels = map[string]string{
	"icp_fit__c":             "ICP Fit",
	"Engagement_Score__c":    "Engagement Score",
	"Intent_Data__c":         "Intent Data",
	"Past_Success__c":        "Past Success",
	"Total_Sales_Touches__c": "Total Sales Touches",
	"Number_of_Meetings__c":  "Number of Meetings",
	"Contacts_Associated__c": "Contacts Associated",
	"Budget_Defined__c":      "Budget Defined",
	"Need_Defined__c":        "Need Defined",
	"Timeline_Defined__c":    "Timeline",
	"Short_List_Defined__c":  "Short List",
	"High_Intent__c":         "High Intent",
}

func qualifiers(record crm.Record) []transport.Qualifier {
	out := make([]transport.Qualifier, 0, len(crm.QualifierFields))
	for _, field := range crm.QualifierFields {
		value := "N/A"
		if raw, ok := record[field]; ok && raw != nil {
			value = fmt.Sprint(raw)
		}
		out = append(out, transport.Qualifier{Label: qualifierLabels[field], Value: value})
	}
	return out
}

func toScored(record crm.Record, result scoring.Result) transport.ScoredOpportunity {
	return transport.ScoredOpportunity{
		ID:          record.ID(),
		Name:        record.String("Name"),
		AccountName: record.String("Account.Name"),
		StageName:   record.String("StageName"),
		Amount:      result.Amount,
		CloseDate:   record.String("CloseDate"),
		Score:       result.Score,
		Probability: result.Probability,
		Priority:    result.Priority,
	}
}
