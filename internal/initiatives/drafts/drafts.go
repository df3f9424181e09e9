// Package drafts stores batches of generated emails between preview and approval.
package drafts

import (
	"context"
	"errors"
	"time"
)

// ErrBatchNotFound is returned for unknown or expired batches.
var ErrBatchNotFound = errors.New("draft batch not found or expired")

// Draft is one generated email awaiting approval.
type Draft struct {
	ID              string  `json:"id"`
	OpportunityID   string  `json:"opportunityId"`
	OpportunityName string  `json:"opportunityName"`
	AccountName     string  `json:"accountName"`
	Amount          float64 `json:"amount"`
	ContactName     string  `json:"contactName"`
	To              string  `json:"to"`
	Subject         string  `json:"subject"`
	Body            string  `json:"body"`
}

// Batch groups the drafts produced by one initiative run.
type Batch struct {
	ID           string    `json:"id"`
	InitiativeID int       `json:"initiativeId"`
	Drafts       []Draft   `json:"drafts"`
	CreatedAt    time.Time `json:"createdAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Expired reports whether the batch is past its expiry at now.
func (b *Batch) Expired(now time.Time) bool {
	return !b.ExpiresAt.IsZero() && !now.Before(b.ExpiresAt)
}

// Select returns the drafts whose IDs are listed, in batch order, without duplicates.
func (b *Batch) Select(ids []string) []Draft {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	selected := make([]Draft, 0, len(ids))
	for _, d := range b.Drafts {
		if wanted[d.ID] {
			selected = append(selected, d)
		}
	}
	return selected
}

// Store keeps batches until they are approved or expire.
type Store interface {
	Save(ctx context.Context, batch *Batch) error
	Get(ctx context.Context, id string) (*Batch, error)
	Delete(ctx context.Context, id string) error
}
