package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	redisclient "github.com/angelmondragon/storefront/pkg/redis"
)

func newTestStore(t *testing.T, maxTTL time.Duration) (*Store, *miniredis.Miniredis, config.AuthConfig) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })

	cfg := config.AuthConfig{Secret: "secret", Issuer: "identity.test", MaxSessionTTL: maxTTL}
	store, err := NewStore(redisclient.FromRedis(raw), cfg)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store, mr, cfg
}

func mint(t *testing.T, cfg config.AuthConfig, ttl time.Duration, jti string) string {
	t.Helper()
	token, err := auth.MintIdentityToken(cfg, time.Now(), ttl, auth.IdentityPayload{
		UserID: "user-1",
		Email:  "admin@example.com",
		Role:   enums.RoleAdmin,
		JTI:    jti,
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	return token
}

func TestStoreSaveLoadRevoke(t *testing.T) {
	store, mr, cfg := newTestStore(t, 24*time.Hour)
	ctx := context.Background()
	token := mint(t, cfg, time.Hour, "jti-1")

	sess, err := store.Save(ctx, token)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if sess.ID != "jti-1" || sess.Identity.UserID != "user-1" || sess.Identity.Role != enums.RoleAdmin {
		t.Fatalf("unexpected session %+v", sess)
	}

	ttl := mr.TTL("sf:session:jti-1")
	if ttl <= 59*time.Minute || ttl > time.Hour {
		t.Fatalf("expected ttl close to token lifetime, got %v", ttl)
	}

	loaded, err := store.Load(ctx, "jti-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Token != token || loaded.Identity.Email != "admin@example.com" {
		t.Fatalf("loaded session mismatch: %+v", loaded)
	}

	ok, err := store.HasSession(ctx, "jti-1")
	if err != nil || !ok {
		t.Fatalf("expected live session, got %v (%v)", ok, err)
	}

	if err := store.Revoke(ctx, "jti-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := store.Load(ctx, "jti-1"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after revoke, got %v", err)
	}
	ok, err = store.HasSession(ctx, "jti-1")
	if err != nil || ok {
		t.Fatalf("expected no session after revoke, got %v (%v)", ok, err)
	}
}

func TestStoreSaveCapsTTL(t *testing.T) {
	store, mr, cfg := newTestStore(t, 10*time.Minute)
	token := mint(t, cfg, 48*time.Hour, "jti-long")

	sess, err := store.Save(context.Background(), token)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := mr.TTL("sf:session:jti-long"); got != 10*time.Minute {
		t.Fatalf("expected capped ttl 10m, got %v", got)
	}
	if time.Until(sess.ExpiresAt) > 10*time.Minute {
		t.Fatalf("expires_at should reflect the cap, got %v", sess.ExpiresAt)
	}
}

func TestStoreSessionExpiresWithToken(t *testing.T) {
	store, mr, cfg := newTestStore(t, 0)
	token := mint(t, cfg, 5*time.Minute, "jti-short")
	if _, err := store.Save(context.Background(), token); err != nil {
		t.Fatalf("save: %v", err)
	}

	mr.FastForward(6 * time.Minute)
	if _, err := store.Load(context.Background(), "jti-short"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected session to expire with the token, got %v", err)
	}
}

func TestStoreSaveRejectsInvalidToken(t *testing.T) {
	store, _, _ := newTestStore(t, time.Hour)
	_, err := store.Save(context.Background(), "not-a-jwt")
	if err == nil {
		t.Fatal("expected invalid token to be rejected")
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestStoreRequiresTokenID(t *testing.T) {
	store, _, _ := newTestStore(t, time.Hour)
	if _, err := store.HasSession(context.Background(), " "); err == nil {
		t.Fatal("expected empty token id to error")
	}
	if _, err := store.Load(context.Background(), ""); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession for empty id, got %v", err)
	}
}
