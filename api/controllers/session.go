package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/pkg/auth/session"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type sessionSaver interface {
	Save(ctx context.Context, token string) (*session.Session, error)
}

type sessionRevoker interface {
	Revoke(ctx context.Context, tokenID string) error
}

type sessionCreateRequest struct {
	Token string `json:"token" validate:"required,notblank"`
}

type sessionResponse struct {
	ID        string           `json:"id"`
	Identity  session.Identity `json:"identity"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// SessionCreate verifies an identity-provider token and stores the session.
func SessionCreate(store sessionSaver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload sessionCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess, err := store.Save(r.Context(), payload.Token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			ctx := logg.WithUserID(r.Context(), sess.Identity.UserID)
			logg.Info(ctx, "session.created")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sessionResponse{
			ID:        sess.ID,
			Identity:  sess.Identity,
			ExpiresAt: sess.ExpiresAt,
		})
	}
}

// SessionRevoke ends the session of the token that authenticated the request.
func SessionRevoke(store sessionRevoker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenID := middleware.TokenIDFromContext(r.Context())
		if tokenID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
			return
		}
		if err := store.Revoke(r.Context(), tokenID); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session"))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
