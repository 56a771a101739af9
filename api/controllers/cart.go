package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/storefront"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type sessionRegistry interface {
	Get(ctx context.Context, sessionID, businessID string) (*storefront.Session, error)
	Lookup(sessionID, businessID string) (*storefront.Session, bool)
	Touch(sess *storefront.Session)
}

type itemResolver interface {
	Item(ctx context.Context, businessID, itemID string) (cart.Item, error)
}

type addItemRequest struct {
	ItemID   string `json:"item_id" validate:"required,notblank"`
	Quantity int    `json:"quantity" validate:"gte=0,lte=999"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0,lte=999"`
}

type sessionRef struct {
	sessionID  string
	businessID string
}

// requestSession reads the business and cart session of the request,
// writing the error response itself when either is missing.
func requestSession(w http.ResponseWriter, r *http.Request, sessions sessionRegistry, logg *logger.Logger) (sessionRef, bool) {
	if sessions == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sessions unavailable"))
		return sessionRef{}, false
	}
	businessID, err := businessIDParam(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return sessionRef{}, false
	}
	sessionID := middleware.CartSessionFromContext(r.Context())
	if sessionID == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart session required"))
		return sessionRef{}, false
	}
	return sessionRef{sessionID: sessionID, businessID: businessID}, true
}

// existingSession returns the live session for the request, or nil when the
// shopper has never added anything. It never creates one.
func existingSession(w http.ResponseWriter, r *http.Request, sessions sessionRegistry, logg *logger.Logger) (*storefront.Session, bool) {
	ref, ok := requestSession(w, r, sessions, logg)
	if !ok {
		return nil, false
	}
	sess, _ := sessions.Lookup(ref.sessionID, ref.businessID)
	return sess, true
}

func emptySnapshot() cart.Snapshot {
	return cart.NewAggregator().Snapshot()
}

func snapshotOf(sess *storefront.Session) cart.Snapshot {
	if sess == nil {
		return emptySnapshot()
	}
	return sess.Cart.Snapshot()
}

func CartGet(sessions sessionRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := existingSession(w, r, sessions, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, snapshotOf(sess))
	}
}

// CartAddItem resolves the item through the catalog so prices always come
// from the backend, never from the client. The session is created only
// after the catalog has confirmed the item belongs to the business.
func CartAddItem(sessions sessionRegistry, items itemResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ref, ok := requestSession(w, r, sessions, logg)
		if !ok {
			return
		}

		item, err := items.Item(r.Context(), ref.businessID, payload.ItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess, err := sessions.Get(r.Context(), ref.sessionID, ref.businessID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess.Cart.AddItem(item, payload.Quantity)
		responses.WriteSuccess(w, sess.Cart.Snapshot())
	}
}

func CartUpdateItem(sessions sessionRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload setQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess, ok := existingSession(w, r, sessions, logg)
		if !ok {
			return
		}
		if sess != nil {
			sess.Cart.SetQuantity(chi.URLParam(r, "itemId"), *payload.Quantity)
		}
		responses.WriteSuccess(w, snapshotOf(sess))
	}
}

func CartRemoveItem(sessions sessionRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := existingSession(w, r, sessions, logg)
		if !ok {
			return
		}
		if sess != nil {
			sess.Cart.RemoveItem(chi.URLParam(r, "itemId"))
		}
		responses.WriteSuccess(w, snapshotOf(sess))
	}
}

func CartClear(sessions sessionRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := existingSession(w, r, sessions, logg)
		if !ok {
			return
		}
		if sess != nil {
			sess.Cart.Clear()
		}
		responses.WriteSuccess(w, snapshotOf(sess))
	}
}
