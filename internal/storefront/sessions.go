package storefront

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/pkg/backend"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// Session is the single cart and checkout pair owned by one shopper for
// one business.
type Session struct {
	ID         string
	BusinessID string
	Cart       *cart.Aggregator
	Checkout   *checkout.Submitter

	lastSeen atomic.Int64
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// LastSeen is the last time a handler used the session.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

type contactLister interface {
	List(ctx context.Context, query map[string]string) ([]backend.TelegramContact, error)
}

// SessionGauge reports the number of live sessions.
type SessionGauge interface {
	SetActiveSessions(n int)
}

type CheckoutMetrics interface {
	checkout.Metrics
	SessionGauge
}

// Params wire the registry collaborators. MaxSessions caps live sessions;
// zero means no cap. ParseMode is the mode the channel sends with.
type Params struct {
	Channel       checkout.Channel
	Contacts      contactLister
	DefaultChatID int64
	ParseMode     enums.ParseMode
	Journal       checkout.Journal
	Metrics       CheckoutMetrics
	Logger        *logger.Logger
	IdleTTL       time.Duration
	MaxSessions   int
}

type sessionKey struct {
	sessionID  string
	businessID string
}

// Sessions hands out one Session per (cart session id, business id). Only
// Get creates sessions.
type Sessions struct {
	mu       sync.Mutex
	sessions map[sessionKey]*Session

	channel       checkout.Channel
	contacts      contactLister
	defaultChatID int64
	parseMode     enums.ParseMode
	journal       checkout.Journal
	metrics       CheckoutMetrics
	logg          *logger.Logger
	idleTTL       time.Duration
	maxSessions   int
	now           func() time.Time
}

var errTooManySessions = pkgerrors.New(pkgerrors.CodeRateLimit, "too many active carts, try again later")

func NewSessions(params Params) (*Sessions, error) {
	if params.Channel == nil {
		return nil, fmt.Errorf("notification channel required")
	}
	if params.DefaultChatID == 0 {
		return nil, fmt.Errorf("default chat id required")
	}
	if params.MaxSessions < 0 {
		return nil, fmt.Errorf("max sessions must not be negative")
	}
	return &Sessions{
		sessions:      map[sessionKey]*Session{},
		channel:       params.Channel,
		contacts:      params.Contacts,
		defaultChatID: params.DefaultChatID,
		parseMode:     params.ParseMode,
		journal:       params.Journal,
		metrics:       params.Metrics,
		logg:          params.Logger,
		idleTTL:       params.IdleTTL,
		maxSessions:   params.MaxSessions,
		now:           time.Now,
	}, nil
}

// Get returns the session for the pair, creating it when absent. Callers
// create only for a business they have already checked exists. Creation
// fails with a rate limit error once MaxSessions are live.
func (r *Sessions) Get(ctx context.Context, sessionID, businessID string) (*Session, error) {
	key, err := newKey(sessionID, businessID)
	if err != nil {
		return nil, err
	}
	if sess, ok := r.lookup(key); ok {
		return sess, nil
	}
	if r.full() {
		return nil, errTooManySessions
	}

	// Resolve outside the lock; the lookup may hit the network.
	chatID := r.resolveChatID(ctx, key.businessID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.sessions[key]; ok {
		sess.touch(r.now())
		return sess, nil
	}
	if r.maxSessions > 0 && len(r.sessions) >= r.maxSessions {
		return nil, errTooManySessions
	}

	agg := cart.NewAggregator()
	opts := []checkout.Option{checkout.WithJournal(r.journal), checkout.WithLogger(r.logg)}
	if r.metrics != nil {
		opts = append(opts, checkout.WithMetrics(r.metrics))
	}
	submitter, err := checkout.NewSubmitter(agg, r.channel, checkout.Config{
		ChatID:     chatID,
		SessionID:  key.sessionID,
		BusinessID: key.businessID,
		ParseMode:  r.parseMode,
	}, opts...)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		ID:         key.sessionID,
		BusinessID: key.businessID,
		Cart:       agg,
		Checkout:   submitter,
	}
	sess.touch(r.now())
	r.sessions[key] = sess
	r.reportLocked()
	return sess, nil
}

// Lookup returns an existing session without creating one.
func (r *Sessions) Lookup(sessionID, businessID string) (*Session, bool) {
	key, err := newKey(sessionID, businessID)
	if err != nil {
		return nil, false
	}
	return r.lookup(key)
}

// Touch marks the session as in use so Sweep keeps it.
func (r *Sessions) Touch(sess *Session) {
	if sess != nil {
		sess.touch(r.now())
	}
}

func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the idle TTL and returns how
// many were removed. Sessions with a submission in flight are kept.
func (r *Sessions) Sweep(ctx context.Context) int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	removed := 0
	for key, sess := range r.sessions {
		if sess.Checkout.InFlight() || !sess.LastSeen().Before(cutoff) {
			continue
		}
		delete(r.sessions, key)
		removed++
	}
	r.reportLocked()
	remaining := len(r.sessions)
	r.mu.Unlock()

	if r.logg != nil && removed > 0 {
		r.logg.Info(r.logg.WithFields(ctx, map[string]any{
			"removed":   removed,
			"remaining": remaining,
		}), "storefront.sessions_swept")
	}
	return removed
}

func (r *Sessions) lookup(key sessionKey) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[key]
	if ok {
		sess.touch(r.now())
	}
	return sess, ok
}

func (r *Sessions) full() bool {
	if r.maxSessions <= 0 {
		return false
	}
	return r.Len() >= r.maxSessions
}

func (r *Sessions) reportLocked() {
	if r.metrics != nil {
		r.metrics.SetActiveSessions(len(r.sessions))
	}
}

// resolveChatID prefers the business's configured telegram contact and
// falls back to the default chat when none exists or the lookup fails.
func (r *Sessions) resolveChatID(ctx context.Context, businessID string) int64 {
	if r.contacts == nil {
		return r.defaultChatID
	}
	contacts, err := r.contacts.List(ctx, map[string]string{"businessId": businessID})
	if err != nil {
		if r.logg != nil {
			r.logg.Warn(r.logg.WithFields(r.logg.WithBusinessID(ctx, businessID), map[string]any{
				"error": err.Error(),
			}), "storefront.chat_lookup_failed")
		}
		return r.defaultChatID
	}
	for _, contact := range contacts {
		if contact.BusinessID != "" && contact.BusinessID != businessID {
			continue
		}
		if contact.ChatID != 0 {
			return contact.ChatID
		}
	}
	return r.defaultChatID
}

func newKey(sessionID, businessID string) (sessionKey, error) {
	key := sessionKey{
		sessionID:  strings.TrimSpace(sessionID),
		businessID: strings.TrimSpace(businessID),
	}
	if key.sessionID == "" {
		return sessionKey{}, pkgerrors.New(pkgerrors.CodeValidation, "cart session id required")
	}
	if key.businessID == "" {
		return sessionKey{}, pkgerrors.New(pkgerrors.CodeValidation, "business id required")
	}
	return key, nil
}
