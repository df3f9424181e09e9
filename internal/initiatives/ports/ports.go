// Package ports defines the contracts between the initiatives service and
// its AI and delivery adapters.
package ports

import "context"

// FollowUpInput describes one contact on a stale opportunity.
type FollowUpInput struct {
	ContactName     string
	OpportunityName string
	AccountName     string
	Amount          float64
}

// FollowUpWriter drafts the body of a follow-up email.
type FollowUpWriter interface {
	WriteFollowUp(ctx context.Context, input FollowUpInput) (string, error)
}
