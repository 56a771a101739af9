package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	redisclient "github.com/angelmondragon/storefront/pkg/redis"
)

var (
	ErrNoSession     = errors.New("session not found")
	ErrTokenExpiring = errors.New("identity token is already expired")
)

type backingStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, keys ...string) error
	SessionKey(tokenID string) string
}

// Identity is the subset of identity claims kept with a session.
type Identity struct {
	UserID     string     `json:"user_id"`
	Email      string     `json:"email,omitempty"`
	Name       string     `json:"name,omitempty"`
	Role       enums.Role `json:"role"`
	BusinessID string     `json:"business_id,omitempty"`
}

// Session pairs an identity with the raw token that is forwarded to the
// remote backend on the user's behalf.
type Session struct {
	ID        string    `json:"id"`
	Identity  Identity  `json:"identity"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Checker exposes the read-only surface needed by middleware.
type Checker interface {
	HasSession(ctx context.Context, tokenID string) (bool, error)
}

// Store keeps identity sessions in Redis keyed by the token's jti.
type Store struct {
	store  backingStore
	cfg    config.AuthConfig
	maxTTL time.Duration
	now    func() time.Time
}

func NewStore(client *redisclient.Client, cfg config.AuthConfig) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return newStore(client, cfg), nil
}

func newStore(backing backingStore, cfg config.AuthConfig) *Store {
	return &Store{
		store:  backing,
		cfg:    cfg,
		maxTTL: cfg.MaxSessionTTL,
		now:    time.Now,
	}
}

// Save verifies the token and persists it until it expires, capped by the
// configured maximum session lifetime.
func (s *Store) Save(ctx context.Context, token string) (*Session, error) {
	claims, err := auth.ParseIdentityToken(s.cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid identity token")
	}

	now := s.now()
	expiresAt := claims.ExpiresAt.Time
	ttl := expiresAt.Sub(now)
	if ttl <= 0 {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, ErrTokenExpiring, "identity token expired")
	}
	if s.maxTTL > 0 && ttl > s.maxTTL {
		ttl = s.maxTTL
		expiresAt = now.Add(ttl)
	}

	sess := &Session{
		ID: claims.ID,
		Identity: Identity{
			UserID:     claims.UserID(),
			Email:      claims.Email,
			Name:       claims.Name,
			Role:       claims.Role,
			BusinessID: claims.BusinessID,
		},
		Token:     strings.TrimSpace(token),
		ExpiresAt: expiresAt.UTC(),
	}

	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("encoding session: %w", err)
	}
	if err := s.store.Set(ctx, s.store.SessionKey(sess.ID), payload, ttl); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storing session")
	}
	return sess, nil
}

func (s *Store) Load(ctx context.Context, tokenID string) (*Session, error) {
	if strings.TrimSpace(tokenID) == "" {
		return nil, ErrNoSession
	}
	raw, err := s.store.Get(ctx, s.store.SessionKey(tokenID))
	if err != nil {
		if redisclient.IsMiss(err) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &sess, nil
}

// HasSession reports whether the token id still has a live session.
func (s *Store) HasSession(ctx context.Context, tokenID string) (bool, error) {
	if strings.TrimSpace(tokenID) == "" {
		return false, fmt.Errorf("token id is required")
	}
	return s.store.Exists(ctx, s.store.SessionKey(tokenID))
}

func (s *Store) Revoke(ctx context.Context, tokenID string) error {
	if strings.TrimSpace(tokenID) == "" {
		return fmt.Errorf("token id is required")
	}
	return s.store.Del(ctx, s.store.SessionKey(tokenID))
}
