package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

func testConfig() config.AuthConfig {
	return config.AuthConfig{Secret: "secret", Issuer: "identity.test"}
}

func TestMintAndParseIdentityToken(t *testing.T) {
	cfg := testConfig()
	now := time.Now().UTC()

	token, err := MintIdentityToken(cfg, now, 30*time.Minute, IdentityPayload{
		UserID:     "user-1",
		Email:      "owner@example.com",
		Role:       enums.RoleAdmin,
		BusinessID: "biz-1",
		JTI:        "jti-1",
	})
	if err != nil {
		t.Fatalf("mint identity token: %v", err)
	}

	claims, err := ParseIdentityToken(cfg, token)
	if err != nil {
		t.Fatalf("parse identity token: %v", err)
	}
	if claims.UserID() != "user-1" {
		t.Fatalf("expected subject user-1, got %s", claims.UserID())
	}
	if claims.Role != enums.RoleAdmin {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.ID != "jti-1" {
		t.Fatalf("expected jti-1, got %s", claims.ID)
	}
	if claims.BusinessID != "biz-1" || claims.Email != "owner@example.com" {
		t.Fatalf("custom claims not preserved: %+v", claims)
	}

	diff := claims.ExpiresAt.Sub(now.Add(30 * time.Minute))
	if diff < -time.Second || diff > time.Second {
		t.Fatalf("unexpected expiry %v", claims.ExpiresAt)
	}
}

func TestParseIdentityTokenInvalidSignature(t *testing.T) {
	cfg := testConfig()
	token, err := MintIdentityToken(cfg, time.Now(), time.Minute, IdentityPayload{UserID: "u", Role: enums.RoleCustomer})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseIdentityToken(cfg, token+"x"); err == nil {
		t.Fatal("expected invalid signature error")
	}
}

func TestParseIdentityTokenExpired(t *testing.T) {
	cfg := testConfig()
	token, err := MintIdentityToken(cfg, time.Now().Add(-time.Hour), 15*time.Minute, IdentityPayload{UserID: "u", Role: enums.RoleCustomer})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	_, err = ParseIdentityToken(cfg, token)
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected expired error, got %v", err)
	}
}

func TestParseIdentityTokenWrongIssuer(t *testing.T) {
	cfg := testConfig()
	token, err := MintIdentityToken(cfg, time.Now(), time.Minute, IdentityPayload{UserID: "u", Role: enums.RoleAdmin})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	other := cfg
	other.Issuer = "someone-else"
	if _, err := ParseIdentityToken(other, token); err == nil {
		t.Fatal("expected issuer mismatch to be rejected")
	}
}

func TestParseIdentityTokenRequiresJTI(t *testing.T) {
	cfg := testConfig()
	claims := IdentityClaims{
		Role: enums.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u",
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseIdentityToken(cfg, token); !errors.Is(err, ErrMissingTokenID) {
		t.Fatalf("expected ErrMissingTokenID, got %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]struct {
		header string
		token  string
		ok     bool
	}{
		"valid":        {header: "Bearer abc", token: "abc", ok: true},
		"lowercase":    {header: "bearer  abc ", token: "abc", ok: true},
		"missing":      {header: "", ok: false},
		"wrong scheme": {header: "Basic abc", ok: false},
		"empty token":  {header: "Bearer   ", ok: false},
	}
	for name, tc := range cases {
		token, ok := BearerToken(tc.header)
		if ok != tc.ok || token != tc.token {
			t.Fatalf("%s: got (%q, %v), want (%q, %v)", name, token, ok, tc.token, tc.ok)
		}
	}
}

func TestParseIdentityTokenLeeway(t *testing.T) {
	cfg := testConfig()
	token, err := MintIdentityToken(cfg, time.Now().Add(-time.Minute), 50*time.Second, IdentityPayload{UserID: "u", Role: enums.RoleCustomer})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseIdentityToken(cfg, token); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected expiry without leeway, got %v", err)
	}
	cfg.Leeway = 30 * time.Second
	if _, err := ParseIdentityToken(cfg, token); err != nil {
		t.Fatalf("expected leeway to absorb skew, got %v", err)
	}
}

func TestParseIdentityTokenRequiresSubject(t *testing.T) {
	cfg := testConfig()
	claims := IdentityClaims{
		Role: enums.RoleCustomer,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-9",
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseIdentityToken(cfg, token); !errors.Is(err, ErrMissingSubject) {
		t.Fatalf("expected ErrMissingSubject, got %v", err)
	}
}
