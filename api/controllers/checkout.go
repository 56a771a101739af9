package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// Checkout submits the shopper's cart as an order message. Field checks are
// left to the submitter so invalid attempts are counted like any other. A
// shopper with no session has an empty cart by definition.
func Checkout(sessions sessionRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var fields checkout.Fields
		if err := validators.DecodeJSONBody(r, &fields); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess, ok := existingSession(w, r, sessions, logg)
		if !ok {
			return
		}
		if sess == nil {
			if err := checkout.Validate(fields); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteError(r.Context(), logg, w, checkout.EmptyCartError())
			return
		}

		outcome, err := sess.Checkout.Submit(r.Context(), fields)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, outcome)
	}
}
