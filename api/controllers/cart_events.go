package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/storefront"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const cartEvent = "cart"

var (
	keepAliveInterval = 15 * time.Second
	// attachInterval is how often a stream opened before the shopper's
	// first add checks whether the session exists yet.
	attachInterval = time.Second
)

// CartEvents streams one "cart" server-sent event per cart change, starting
// with the current state. Slow readers only ever see the latest snapshot.
// Opening a stream never creates a session; an unknown shopper sees an
// empty cart until their first add. Every keep-alive marks the session as
// in use so an open stream is not swept.
func CartEvents(sessions sessionRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}
		ref, ok := requestSession(w, r, sessions, logg)
		if !ok {
			return
		}

		var sess *storefront.Session
		updates := make(chan cart.Snapshot, 1)
		unsubscribe := func() {}
		defer func() { unsubscribe() }()
		attach := func(s *storefront.Session) {
			sess = s
			unsubscribe = s.Cart.Subscribe(func(snap cart.Snapshot) {
				for {
					select {
					case updates <- snap:
						return
					default:
					}
					select {
					case <-updates:
					default:
					}
				}
			})
		}
		if existing, found := sessions.Lookup(ref.sessionID, ref.businessID); found {
			attach(existing)
		}

		// The stream outlives the server write timeout.
		_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		if err := responses.WriteEvent(w, cartEvent, snapshotOf(sess)); err != nil {
			return
		}

		keepAlive := time.NewTicker(keepAliveInterval)
		defer keepAlive.Stop()

		var attachTick <-chan time.Time
		if sess == nil {
			ticker := time.NewTicker(attachInterval)
			defer ticker.Stop()
			attachTick = ticker.C
		}

		for {
			select {
			case <-r.Context().Done():
				return
			case <-attachTick:
				existing, found := sessions.Lookup(ref.sessionID, ref.businessID)
				if !found {
					continue
				}
				attach(existing)
				attachTick = nil
				if err := responses.WriteEvent(w, cartEvent, existing.Cart.Snapshot()); err != nil {
					return
				}
			case snap := <-updates:
				if err := responses.WriteEvent(w, cartEvent, snap); err != nil {
					if logg != nil {
						logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "cart.events_write_failed")
					}
					return
				}
				sessions.Touch(sess)
			case <-keepAlive.C:
				if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
					return
				}
				flusher.Flush()
				sessions.Touch(sess)
			}
		}
	}
}
