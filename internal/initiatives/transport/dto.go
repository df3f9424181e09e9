// Package transport contains request and response types of the initiatives module.
package transport

import (
	"time"

	"propensia_dashboard/internal/initiatives/drafts"
)

// ApproveEmailsRequest is the body of POST /approve_emails/:id.
// BatchID may be omitted when the batch cookie is present.
type ApproveEmailsRequest struct {
	BatchID  string   `json:"batchId" form:"batchId" validate:"omitempty,uuid4"`
	DraftIDs []string `json:"draftIds" form:"draftIds" validate:"required,min=1,max=200,dive,uuid4"`
}

// EmailResult reports delivery for one recipient.
type EmailResult struct {
	To      string `json:"to"`
	Success bool   `json:"success"`
}

// ApproveEmailsResponse is returned after sending approved drafts.
type ApproveEmailsResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Sent    int           `json:"sent"`
	Results []EmailResult `json:"results"`
}

// RunResult is the outcome of running an initiative.
type RunResult struct {
	InitiativeID   int
	InitiativeName string
	BatchID        string
	Drafts         []drafts.Draft
	ExpiresAt      time.Time
	Message        string
	Warning        string
}

// HasDrafts reports whether a batch was stored.
func (r RunResult) HasDrafts() bool { return r.BatchID != "" && len(r.Drafts) > 0 }
