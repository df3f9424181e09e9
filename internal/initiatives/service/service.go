// Package service implements the AI initiatives: drafting follow-up emails
// for stale opportunities and sending the drafts a user approves.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"propensia_dashboard/internal/crm"
	"propensia_dashboard/internal/email"
	"propensia_dashboard/internal/initiatives/catalog"
	"propensia_dashboard/internal/initiatives/drafts"
	"propensia_dashboard/internal/initiatives/ports"
	"propensia_dashboard/internal/initiatives/transport"
	"propensia_dashboard/internal/opportunities/scoring"
	"propensia_dashboard/platform/apperr"
	"propensia_dashboard/platform/logger"

	"github.com/google/uuid"
)

// CRM is the subset of the Salesforce client the initiatives need.
type CRM interface {
	InactiveOpportunities(ctx context.Context, cutoff time.Time) ([]crm.Record, error)
	UpdateOpportunity(ctx context.Context, id string, fields map[string]any) error
}

// Options tune drafting.
type Options struct {
	DraftTTL       time.Duration
	StaleAfterDays int
}

// Service runs initiatives.
type Service struct {
	catalog *catalog.Catalog
	crm     CRM
	writer  ports.FollowUpWriter
	sender  email.Sender
	store   drafts.Store
	opts    Options
	log     *logger.Logger
	now     func() time.Time
}

// New creates the initiatives service. writer may be nil when AI is disabled.
func New(cat *catalog.Catalog, client CRM, writer ports.FollowUpWriter, sender email.Sender, store drafts.Store, opts Options, log *logger.Logger) *Service {
	if opts.DraftTTL <= 0 {
		opts.DraftTTL = time.Hour
	}
	if opts.StaleAfterDays <= 0 {
		opts.StaleAfterDays = 7
	}
	return &Service{
		catalog: cat,
		crm:     client,
		writer:  writer,
		sender:  sender,
		store:   store,
		opts:    opts,
		log:     log,
		now:     time.Now,
	}
}

// Catalog returns the initiatives shown on the agents page.
func (s *Service) Catalog() []catalog.Initiative {
	return s.catalog.All()
}

// AIEnabled reports whether drafting is possible.
func (s *Service) AIEnabled() bool {
	return s.writer != nil
}

// FollowUpSubject is the subject line of a follow-up email.
func FollowUpSubject(opportunityName, accountName string) string {
	return fmt.Sprintf("Follow-up: %s - %s", opportunityName, accountName)
}

// RunInitiative drafts emails for the initiative and stores them as a batch.
func (s *Service) RunInitiative(ctx context.Context, id int) (*transport.RunResult, error) {
	initiative, err := s.runnable(id)
	if err != nil {
		return nil, err
	}

	result := &transport.RunResult{InitiativeID: initiative.ID, InitiativeName: initiative.Name}
	if s.writer == nil {
		result.Warning = "AI drafting is disabled because OPENAI_API_KEY is not configured."
		return result, nil
	}

	now := s.now().UTC()
	cutoff := now.AddDate(0, 0, -s.opts.StaleAfterDays)
	records, err := s.crm.InactiveOpportunities(ctx, cutoff)
	if err != nil {
		return nil, apperr.Upstream("could not load inactive opportunities from Salesforce", err).WithOp("initiatives.RunInitiative")
	}

	generated := s.draftAll(ctx, records)
	if len(generated) == 0 {
		result.Message = "No stale opportunities with reachable contacts were found."
		return result, nil
	}

	batch := &drafts.Batch{
		ID:           uuid.NewString(),
		InitiativeID: initiative.ID,
		Drafts:       generated,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.opts.DraftTTL),
	}
	if err := s.store.Save(ctx, batch); err != nil {
		return nil, apperr.Internal("could not store the email drafts").WithDetails(err.Error())
	}

	s.log.Info("follow-up drafts generated", "batch_id", batch.ID, "drafts", len(generated), "opportunities", len(records))

	result.BatchID = batch.ID
	result.Drafts = batch.Drafts
	result.ExpiresAt = batch.ExpiresAt
	result.Message = fmt.Sprintf("Generated %d email drafts", len(generated))
	return result, nil
}

// draftAll writes one draft per contact with an email address. Contacts whose
// generation fails are skipped.
func (s *Service) draftAll(ctx context.Context, records []crm.Record) []drafts.Draft {
	var out []drafts.Draft
	for _, record := range records {
		oppName := record.String("Name")
		accountName := record.String("Account.Name")
		amount := scoring.ParseNumber(record["Amount"])

		for _, contact := range record.Contacts() {
			if contact.Email == "" {
				continue
			}
			if ctx.Err() != nil {
				return out
			}

			body, err := s.writer.WriteFollowUp(ctx, ports.FollowUpInput{
				ContactName:     contact.Name,
				OpportunityName: oppName,
				AccountName:     accountName,
				Amount:          amount,
			})
			if err != nil {
				s.log.Warn("follow-up generation failed", "opportunity_id", record.ID(), "contact", contact.Email, "error", err)
				continue
			}

			out = append(out, drafts.Draft{
				ID:              uuid.NewString(),
				OpportunityID:   record.ID(),
				OpportunityName: oppName,
				AccountName:     accountName,
				Amount:          amount,
				ContactName:     contact.Name,
				To:              contact.Email,
				Subject:         FollowUpSubject(oppName, accountName),
				Body:            body,
			})
		}
	}
	return out
}

// ApproveEmails sends the selected drafts of a batch, stamps each contacted
// opportunity, and deletes the batch whatever the individual outcomes.
func (s *Service) ApproveEmails(ctx context.Context, id int, batchID string, draftIDs []string) (*transport.ApproveEmailsResponse, error) {
	if _, err := s.runnable(id); err != nil {
		return nil, err
	}
	if batchID == "" {
		return nil, apperr.BadRequest("no draft batch to approve")
	}
	if len(draftIDs) == 0 {
		return nil, apperr.Validation("no emails selected")
	}

	batch, err := s.store.Get(ctx, batchID)
	if errors.Is(err, drafts.ErrBatchNotFound) {
		return nil, apperr.Gone("these drafts have expired; run the initiative again")
	}
	if err != nil {
		return nil, apperr.Internal("could not load the email drafts").WithDetails(err.Error())
	}
	if batch.InitiativeID != id {
		return nil, apperr.NotFound("draft batch does not belong to this initiative")
	}

	selected := batch.Select(draftIDs)
	if len(selected) == 0 {
		return nil, apperr.Validation("none of the selected drafts belong to this batch")
	}
	if !email.Enabled(s.sender) {
		// The batch is kept so it can be approved once sending is configured.
		return nil, apperr.Unavailable("email sending is not configured").WithOp("initiatives.ApproveEmails")
	}

	ctx = context.WithValue(ctx, logger.BatchIDKey, batch.ID)
	log := s.log.WithContext(ctx)

	results := make([]transport.EmailResult, 0, len(selected))
	sent := 0
	for _, draft := range selected {
		err := s.sender.SendFollowUpEmail(ctx, email.Message{
			To:          draft.To,
			ContactName: draft.ContactName,
			Subject:     draft.Subject,
			Body:        draft.Body,
		})
		if err != nil {
			log.Error("follow-up email failed", "to", draft.To, "opportunity_id", draft.OpportunityID, "error", err)
			results = append(results, transport.EmailResult{To: draft.To, Success: false})
			continue
		}

		sent++
		results = append(results, transport.EmailResult{To: draft.To, Success: true})
		s.stampLastEmailSent(ctx, log, draft.OpportunityID)
	}

	if err := s.store.Delete(ctx, batch.ID); err != nil {
		log.Error("failed to delete draft batch", "error", err)
	}

	log.Info("follow-up emails approved", "selected", len(selected), "sent", sent)

	return &transport.ApproveEmailsResponse{
		Status:  "success",
		Message: fmt.Sprintf("Sent %d of %d emails", sent, len(selected)),
		Sent:    sent,
		Results: results,
	}, nil
}

func (s *Service) stampLastEmailSent(ctx context.Context, log *logger.Logger, opportunityID string) {
	if opportunityID == "" {
		return
	}
	fields := map[string]any{crm.FieldLastEmailSent: s.now().UTC().Format(time.RFC3339)}
	if err := s.crm.UpdateOpportunity(ctx, opportunityID, fields); err != nil {
		log.Warn("failed to stamp last email sent", "opportunity_id", opportunityID, "error", err)
	}
}

func (s *Service) runnable(id int) (catalog.Initiative, error) {
	initiative, ok := s.catalog.Get(id)
	if !ok {
		return catalog.Initiative{}, apperr.NotFound("initiative not found")
	}
	if !initiative.Runnable || initiative.ID != catalog.FollowUpEmailsID {
		return catalog.Initiative{}, apperr.BadRequest("this initiative is not available yet")
	}
	return initiative, nil
}
