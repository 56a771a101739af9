package orders

import (
	"context"

	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/pagination"
	"gorm.io/gorm"
)

// Repository persists checkout journal entries.
type Repository interface {
	Create(ctx context.Context, entry *models.CheckoutJournalEntry) error
	List(ctx context.Context, params listJournalParams) ([]models.CheckoutJournalEntry, *pagination.Cursor, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a journal repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

type listJournalParams struct {
	BusinessID string
	Status     string
	Limit      int
	Cursor     *pagination.Cursor
}

func (r *repository) Create(ctx context.Context, entry *models.CheckoutJournalEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// List pages newest first. The returned cursor points at the last row of the
// page; nil means there is nothing further.
func (r *repository) List(ctx context.Context, params listJournalParams) ([]models.CheckoutJournalEntry, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.CheckoutJournalEntry{})
	if params.BusinessID != "" {
		query = query.Where("business_id = ?", params.BusinessID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			params.Cursor.CreatedAt, params.Cursor.CreatedAt, params.Cursor.ID,
		)
	}

	var entries []models.CheckoutJournalEntry
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(params.Limit)).Find(&entries).Error; err != nil {
		return nil, nil, err
	}

	page, next := pagination.Trim(entries, params.Limit, func(e models.CheckoutJournalEntry) pagination.Cursor {
		return pagination.Cursor{CreatedAt: e.CreatedAt, ID: e.ID}
	})
	return page, next, nil
}
