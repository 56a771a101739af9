package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/storefront"
	"github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/telegram"
)

const (
	testBusinessID = "biz-1"
	testChatID     = int64(42)
)

type fakeChannel struct {
	mu       sync.Mutex
	err      error
	messages []string
	chats    []int64
}

func (f *fakeChannel) SendMessage(_ context.Context, chatID int64, text string) (*telegram.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.messages = append(f.messages, text)
	f.chats = append(f.chats, chatID)
	return &telegram.Message{MessageID: int64(len(f.messages))}, nil
}

type stubItems struct {
	items map[string]cart.Item
	err   error
}

func (s stubItems) Item(_ context.Context, businessID, itemID string) (cart.Item, error) {
	if s.err != nil {
		return cart.Item{}, s.err
	}
	item, ok := s.items[itemID]
	if !ok || businessID != testBusinessID {
		return cart.Item{}, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	return item, nil
}

func menuItems() stubItems {
	return stubItems{items: map[string]cart.Item{
		"taco":  {ID: "taco", Name: "Taco", UnitPrice: decimal.RequireFromString("2.50")},
		"horch": {ID: "horch", Name: "Horchata", UnitPrice: decimal.RequireFromString("3.25")},
	}}
}

func newTestSessions(t *testing.T, ch *fakeChannel) *storefront.Sessions {
	t.Helper()
	sessions, err := storefront.NewSessions(storefront.Params{Channel: ch, DefaultChatID: testChatID})
	require.NoError(t, err)
	return sessions
}

// serve routes one request through chi with the cart session middleware so
// URL params and the session id behave as they do in the real router.
func serve(h http.HandlerFunc, method, pattern, target, body, cartSession string) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	router.With(middleware.CartSession(nil)).Method(method, pattern, h)

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if cartSession != "" {
		req.Header.Set("X-Cart-Session", cartSession)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

var testAuth = config.AuthConfig{Secret: "secret", Issuer: "identity.test", MaxSessionTTL: time.Hour}

type allowAll struct{}

func (allowAll) HasSession(context.Context, string) (bool, error) { return true, nil }

func mintToken(t *testing.T, role enums.Role, jti string) string {
	t.Helper()
	token, err := auth.MintIdentityToken(testAuth, time.Now(), time.Hour, auth.IdentityPayload{
		UserID: "user-1",
		Role:   role,
		JTI:    jti,
	})
	require.NoError(t, err)
	return token
}
