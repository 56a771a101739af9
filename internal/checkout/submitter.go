package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/telegram"
)

// Metric outcome labels.
const (
	OutcomeSubmitted = "submitted"
	OutcomeFailed    = "failed"
	OutcomeInvalid   = "invalid"
	OutcomeInFlight  = "in_flight"
)

// Channel delivers the formatted order message.
type Channel interface {
	SendMessage(ctx context.Context, chatID int64, text string) (*telegram.Message, error)
}

// Attempt is what the journal keeps about one delivery attempt.
type Attempt struct {
	SessionID     string
	BusinessID    string
	Status        enums.SubmissionStatus
	Total         decimal.Decimal
	LineCount     int
	CustomerName  string
	MessageID     int64
	FailureReason string
	At            time.Time
}

// Journal records delivery attempts. Failures never change the outcome.
type Journal interface {
	Record(ctx context.Context, attempt Attempt) error
}

// Metrics observes submissions.
type Metrics interface {
	ObserveCheckout(outcome string, duration time.Duration)
}

// Config identifies where orders for one cart are sent. ParseMode must
// match the mode the channel sends with; empty means legacy Markdown.
type Config struct {
	ChatID     int64
	SessionID  string
	BusinessID string
	ParseMode  enums.ParseMode
}

// Option configures optional collaborators.
type Option func(*Submitter)

func WithJournal(j Journal) Option {
	return func(s *Submitter) { s.journal = j }
}

func WithMetrics(m Metrics) Option {
	return func(s *Submitter) { s.metrics = m }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Submitter) { s.logg = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Submitter) {
		if now != nil {
			s.now = now
		}
	}
}

// Submitter turns one cart plus customer details into a chat order.
// At most one submission runs at a time.
type Submitter struct {
	cart    *cart.Aggregator
	channel Channel
	cfg     Config
	journal Journal
	metrics Metrics
	logg    *logger.Logger
	now     func() time.Time

	inFlight atomic.Bool
}

func NewSubmitter(c *cart.Aggregator, channel Channel, cfg Config, opts ...Option) (*Submitter, error) {
	if c == nil {
		return nil, fmt.Errorf("cart aggregator required")
	}
	if channel == nil {
		return nil, fmt.Errorf("notification channel required")
	}
	if cfg.ChatID == 0 {
		return nil, fmt.Errorf("chat id required")
	}
	s := &Submitter{
		cart:    c,
		channel: channel,
		cfg:     cfg,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// InFlight reports whether a submission is currently running.
func (s *Submitter) InFlight() bool {
	return s.inFlight.Load()
}

// ChatID is the chat orders from this cart are sent to.
func (s *Submitter) ChatID() int64 {
	return s.cfg.ChatID
}

// Submit validates fields, sends the order and clears the cart once the
// channel acknowledges it. On any delivery failure the cart is untouched
// and a *SubmissionError is returned.
func (s *Submitter) Submit(ctx context.Context, fields Fields) (*Outcome, error) {
	start := s.now()

	if err := Validate(fields); err != nil {
		s.observe(OutcomeInvalid, start)
		return nil, err
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		s.observe(OutcomeInFlight, start)
		return nil, ErrSubmissionInFlight
	}
	defer s.inFlight.Store(false)

	snap := s.cart.Snapshot()
	if snap.Empty() {
		s.observe(OutcomeInvalid, start)
		return nil, EmptyCartError()
	}

	f := fields.normalized()
	draft := OrderDraft{
		Items:           snap.Lines,
		CustomerName:    f.CustomerName,
		CustomerPhone:   f.CustomerPhone,
		CustomerAddress: f.CustomerAddress,
		Notes:           f.Notes,
		Total:           snap.Total,
		SubmittedAt:     start.UTC(),
	}

	// Once sent the order cannot be recalled, so a caller going away must
	// not turn a delivered message into a reported failure.
	sendCtx := context.WithoutCancel(ctx)
	msg, err := s.channel.SendMessage(sendCtx, s.cfg.ChatID, FormatMessage(draft, s.cfg.ParseMode))
	if err != nil {
		subErr := &SubmissionError{Cause: err}
		s.record(ctx, draft, enums.SubmissionStatusFailed, 0, err)
		s.observe(OutcomeFailed, start)
		if s.logg != nil {
			s.logg.Error(s.logCtx(ctx), "checkout.failed", err)
		}
		return nil, subErr
	}

	s.cart.Clear()

	var messageID int64
	if msg != nil {
		messageID = msg.MessageID
	}
	s.record(ctx, draft, enums.SubmissionStatusSubmitted, messageID, nil)
	s.observe(OutcomeSubmitted, start)
	if s.logg != nil {
		logCtx := s.logg.WithFields(s.logCtx(ctx), map[string]any{
			"message_id": messageID,
			"total":      draft.Total.StringFixed(2),
			"line_count": len(draft.Items),
		})
		s.logg.Info(logCtx, "checkout.submitted")
	}

	return &Outcome{Draft: draft, MessageID: messageID}, nil
}

func (s *Submitter) record(ctx context.Context, draft OrderDraft, status enums.SubmissionStatus, messageID int64, cause error) {
	if s.journal == nil {
		return
	}
	attempt := Attempt{
		SessionID:    s.cfg.SessionID,
		BusinessID:   s.cfg.BusinessID,
		Status:       status,
		Total:        draft.Total,
		LineCount:    len(draft.Items),
		CustomerName: draft.CustomerName,
		MessageID:    messageID,
		At:           draft.SubmittedAt,
	}
	if cause != nil {
		attempt.FailureReason = failureReason(cause)
	}
	if err := s.journal.Record(context.WithoutCancel(ctx), attempt); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(s.logCtx(ctx), "error", err.Error()), "checkout.journal_failed")
	}
}

func (s *Submitter) observe(outcome string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveCheckout(outcome, s.now().Sub(start))
	}
}

func (s *Submitter) logCtx(ctx context.Context) context.Context {
	ctx = s.logg.WithSessionID(ctx, s.cfg.SessionID)
	return s.logg.WithBusinessID(ctx, s.cfg.BusinessID)
}

const maxFailureReason = 500

// failureReason is the journaled cause, capped at maxFailureReason runes.
func failureReason(err error) string {
	reason := err.Error()
	var apiErr *telegram.APIError
	if errors.As(err, &apiErr) {
		reason = apiErr.Error()
	}
	return truncateRunes(reason, maxFailureReason)
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
