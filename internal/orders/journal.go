package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

// ListParams filters the admin journal listing.
type ListParams struct {
	pagination.Params
	BusinessID string
	Status     string
}

// ListResult wraps a page of entries and the cursor for the next one.
type ListResult struct {
	Items  []models.CheckoutJournalEntry `json:"items"`
	Cursor string                        `json:"cursor"`
}

// Journal is the gorm-backed audit trail of checkout attempts.
type Journal struct {
	repo  Repository
	newID func() uuid.UUID
}

var _ checkout.Journal = (*Journal)(nil)

// NewJournal wires the journal on top of its repository.
func NewJournal(repo Repository) (*Journal, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "journal repository required")
	}
	return &Journal{repo: repo, newID: uuid.New}, nil
}

// Record stores one attempt.
func (j *Journal) Record(ctx context.Context, attempt checkout.Attempt) error {
	if !attempt.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown submission status")
	}

	at := attempt.At
	if at.IsZero() {
		at = time.Now()
	}

	entry := &models.CheckoutJournalEntry{
		ID:           j.newID(),
		BusinessID:   attempt.BusinessID,
		SessionID:    attempt.SessionID,
		Status:       attempt.Status,
		Total:        attempt.Total,
		LineCount:    attempt.LineCount,
		CustomerName: attempt.CustomerName,
		CreatedAt:    at.UTC(),
	}
	if attempt.MessageID != 0 {
		id := attempt.MessageID
		entry.TelegramMessageID = &id
	}
	if reason := strings.TrimSpace(attempt.FailureReason); reason != "" {
		entry.FailureReason = &reason
	}

	if err := j.repo.Create(ctx, entry); err != nil {
		return pkgerrors.FromDatabase(err, "record checkout attempt")
	}
	return nil
}

// List returns one page of entries, newest first.
func (j *Journal) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listJournalParams{
		BusinessID: strings.TrimSpace(params.BusinessID),
		Limit:      params.Limit,
	}
	if params.Status != "" {
		status, err := enums.ParseSubmissionStatus(params.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		query.Status = status.String()
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := j.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.FromDatabase(err, "list checkout journal")
	}
	if rows == nil {
		rows = []models.CheckoutJournalEntry{}
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}
