package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/orders"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

const maxFilterLen = 128

type journalLister interface {
	List(ctx context.Context, params orders.ListParams) (*orders.ListResult, error)
}

// AdminCheckoutJournal lists recorded checkout attempts, newest first.
func AdminCheckoutJournal(journal journalLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := r.URL.Query()
		result, err := journal.List(r.Context(), orders.ListParams{
			Params: pagination.Params{
				Limit:  limit,
				Cursor: validators.SanitizeString(query.Get("cursor"), maxFilterLen),
			},
			BusinessID: validators.SanitizeString(query.Get("business_id"), maxFilterLen),
			Status:     validators.SanitizeString(query.Get("status"), maxFilterLen),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
