package storefront

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/pkg/backend"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/telegram"
)

type recordingChannel struct {
	mu      sync.Mutex
	chatIDs []int64
}

func (c *recordingChannel) SendMessage(_ context.Context, chatID int64, _ string) (*telegram.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chatIDs = append(c.chatIDs, chatID)
	return &telegram.Message{MessageID: int64(len(c.chatIDs))}, nil
}

type stubContacts struct {
	contacts []backend.TelegramContact
	err      error
	calls    int
}

func (s *stubContacts) List(_ context.Context, query map[string]string) ([]backend.TelegramContact, error) {
	s.calls++
	return s.contacts, s.err
}

type gaugeRecorder struct {
	mu   sync.Mutex
	last int
}

func (g *gaugeRecorder) ObserveCheckout(string, time.Duration) {}

func (g *gaugeRecorder) SetActiveSessions(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = n
}

func newRegistry(t *testing.T, contacts contactLister, ch checkout.Channel, idle time.Duration) (*Sessions, *gaugeRecorder) {
	t.Helper()
	gauge := &gaugeRecorder{}
	r, err := NewSessions(Params{
		Channel:       ch,
		Contacts:      contacts,
		DefaultChatID: -1,
		Metrics:       gauge,
		IdleTTL:       idle,
	})
	require.NoError(t, err)
	return r, gauge
}

func TestSessionsGetCreatesOncePerKey(t *testing.T) {
	r, gauge := newRegistry(t, nil, &recordingChannel{}, time.Hour)
	ctx := context.Background()

	a, err := r.Get(ctx, "s1", "biz-1")
	require.NoError(t, err)
	again, err := r.Get(ctx, "s1", "biz-1")
	require.NoError(t, err)
	assert.Same(t, a, again)

	other, err := r.Get(ctx, "s1", "biz-2")
	require.NoError(t, err)
	assert.NotSame(t, a, other, "carts are scoped per business")

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 2, gauge.last)

	_, ok := r.Lookup("s2", "biz-1")
	assert.False(t, ok)
}

func TestSessionsConcurrentGetReturnsSameSession(t *testing.T) {
	r, _ := newRegistry(t, nil, &recordingChannel{}, time.Hour)
	var g errgroup.Group
	results := make([]*Session, 20)
	for i := range results {
		g.Go(func() error {
			sess, err := r.Get(context.Background(), "s1", "biz-1")
			results[i] = sess
			return err
		})
	}
	require.NoError(t, g.Wait())
	for _, sess := range results {
		assert.Same(t, results[0], sess)
	}
}

func TestSessionsResolveBusinessChat(t *testing.T) {
	ch := &recordingChannel{}
	contacts := &stubContacts{contacts: []backend.TelegramContact{
		{BusinessID: "other", ChatID: 999},
		{BusinessID: "biz-1", ChatID: -100555},
	}}
	r, _ := newRegistry(t, contacts, ch, time.Hour)

	sess, err := r.Get(context.Background(), "s1", "biz-1")
	require.NoError(t, err)
	assert.Equal(t, int64(-100555), sess.Checkout.ChatID())

	sess.Cart.AddItem(cart.Item{ID: "A", Name: "Burger", UnitPrice: decimal.RequireFromString("5")}, 1)
	_, err = sess.Checkout.Submit(context.Background(), checkout.Fields{CustomerName: "a", CustomerPhone: "b", CustomerAddress: "c"})
	require.NoError(t, err)
	assert.Equal(t, []int64{-100555}, ch.chatIDs)
}

func TestSessionsFallBackToDefaultChat(t *testing.T) {
	failing := &stubContacts{err: errors.New("backend down")}
	r, _ := newRegistry(t, failing, &recordingChannel{}, time.Hour)
	sess, err := r.Get(context.Background(), "s1", "biz-1")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), sess.Checkout.ChatID())

	empty := &stubContacts{}
	r, _ = newRegistry(t, empty, &recordingChannel{}, time.Hour)
	sess, err = r.Get(context.Background(), "s1", "biz-1")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), sess.Checkout.ChatID())
}

func TestSessionsRequireKeys(t *testing.T) {
	r, _ := newRegistry(t, nil, &recordingChannel{}, time.Hour)
	_, err := r.Get(context.Background(), "", "biz-1")
	assert.Error(t, err)
	_, err = r.Get(context.Background(), "s1", " ")
	assert.Error(t, err)
}

func TestSweepDropsIdleSessions(t *testing.T) {
	r, gauge := newRegistry(t, nil, &recordingChannel{}, time.Hour)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	_, err := r.Get(context.Background(), "old", "biz-1")
	require.NoError(t, err)

	now = now.Add(90 * time.Minute)
	_, err = r.Get(context.Background(), "fresh", "biz-1")
	require.NoError(t, err)

	counter := &sweptCounter{}
	removed := NewSweepJob(r, counter)
	require.NoError(t, removed.Run(context.Background()))
	assert.Equal(t, 1, counter.total)

	_, ok := r.Lookup("old", "biz-1")
	assert.False(t, ok)
	_, ok = r.Lookup("fresh", "biz-1")
	assert.True(t, ok)
	assert.Equal(t, 1, gauge.last)
	assert.Equal(t, SweepJobName, removed.Name())
}

func TestSweepDisabledWithoutTTL(t *testing.T) {
	r, _ := newRegistry(t, nil, &recordingChannel{}, 0)
	_, err := r.Get(context.Background(), "s1", "biz-1")
	require.NoError(t, err)
	assert.Equal(t, 0, r.Sweep(context.Background()))
}

func TestNewSessionsValidatesParams(t *testing.T) {
	_, err := NewSessions(Params{DefaultChatID: 1})
	assert.Error(t, err)
	_, err = NewSessions(Params{Channel: &recordingChannel{}})
	assert.Error(t, err)
	_, err = NewSessions(Params{Channel: &recordingChannel{}, DefaultChatID: 1, MaxSessions: -1})
	assert.Error(t, err)
}

func TestSessionsLookupNeverCreates(t *testing.T) {
	contacts := &stubContacts{}
	r, gauge := newRegistry(t, contacts, &recordingChannel{}, time.Hour)

	for i := 0; i < 3; i++ {
		_, ok := r.Lookup("s1", "biz-1")
		assert.False(t, ok)
	}
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, contacts.calls)
	assert.Equal(t, 0, gauge.last)
}

func TestSessionsGetRespectsCap(t *testing.T) {
	contacts := &stubContacts{}
	r, err := NewSessions(Params{
		Channel:       &recordingChannel{},
		Contacts:      contacts,
		DefaultChatID: -1,
		MaxSessions:   2,
	})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = r.Get(ctx, "s1", "biz-1")
	require.NoError(t, err)
	_, err = r.Get(ctx, "s2", "biz-1")
	require.NoError(t, err)

	_, err = r.Get(ctx, "s3", "biz-1")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeRateLimit))
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 2, contacts.calls, "a rejected session must not hit the backend")

	existing, err := r.Get(ctx, "s1", "biz-1")
	require.NoError(t, err)
	assert.Equal(t, "s1", existing.ID)
}

func TestSessionsSubmitterUsesParseMode(t *testing.T) {
	ch := &textChannel{}
	r, err := NewSessions(Params{Channel: ch, DefaultChatID: -1, ParseMode: enums.ParseModeHTML})
	require.NoError(t, err)

	sess, err := r.Get(context.Background(), "s1", "biz-1")
	require.NoError(t, err)
	sess.Cart.AddItem(cart.Item{ID: "a", Name: "Fish & Chips", UnitPrice: decimal.RequireFromString("4")}, 1)
	_, err = sess.Checkout.Submit(context.Background(), checkout.Fields{
		CustomerName:    "Ann",
		CustomerPhone:   "555",
		CustomerAddress: "1 Main St",
	})
	require.NoError(t, err)
	assert.Contains(t, ch.text, "<b>Total:</b> 4.00")
	assert.Contains(t, ch.text, "Fish &amp; Chips")
}

func TestTouchKeepsSessionThroughSweep(t *testing.T) {
	r, _ := newRegistry(t, nil, &recordingChannel{}, time.Hour)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	watched, err := r.Get(context.Background(), "watched", "biz-1")
	require.NoError(t, err)
	_, err = r.Get(context.Background(), "idle", "biz-1")
	require.NoError(t, err)

	now = now.Add(45 * time.Minute)
	r.Touch(watched)
	now = now.Add(45 * time.Minute)

	assert.Equal(t, 1, r.Sweep(context.Background()))
	_, ok := r.Lookup("watched", "biz-1")
	assert.True(t, ok)
	_, ok = r.Lookup("idle", "biz-1")
	assert.False(t, ok)
}

type textChannel struct {
	text string
}

func (c *textChannel) SendMessage(_ context.Context, _ int64, text string) (*telegram.Message, error) {
	c.text = text
	return &telegram.Message{MessageID: 1}, nil
}

type sweptCounter struct {
	total int
}

func (c *sweptCounter) AddSwept(n int) {
	c.total += n
}
