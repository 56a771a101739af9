package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/storefront/api/responses"
	pkgAuth "github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/auth/session"
	"github.com/angelmondragon/storefront/pkg/backend"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// Auth validates an identity-provider bearer token, requires a live session
// for its jti and seeds the request context with the identity. The raw token
// is attached for forwarding to the remote backend.
func Auth(cfg config.AuthConfig, checker session.Checker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := pkgAuth.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				challenge(w, "")
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseIdentityToken(cfg, token)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					msg = "token expired"
				}
				challenge(w, msg)
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msg))
				return
			}

			if checker != nil {
				live, err := checker.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !live {
					challenge(w, "session unavailable")
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID())
			ctx = context.WithValue(ctx, ctxRole, claims.Role.String())
			ctx = context.WithValue(ctx, ctxTokenID, claims.ID)
			if claims.BusinessID != "" {
				ctx = context.WithValue(ctx, ctxBusinessID, claims.BusinessID)
			}
			ctx = backend.WithToken(ctx, token)

			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID())
				ctx = logg.WithField(ctx, "actor_role", claims.Role.String())
				if claims.BusinessID != "" {
					ctx = logg.WithBusinessID(ctx, claims.BusinessID)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// challenge sets the bearer challenge; a non-empty description marks the
// presented token as unusable.
func challenge(w http.ResponseWriter, description string) {
	value := `Bearer realm="storefront"`
	if description != "" {
		value += `, error="invalid_token", error_description="` + description + `"`
	}
	w.Header().Set("WWW-Authenticate", value)
}
