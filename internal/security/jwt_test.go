package security

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestJWTSignAndParse(t *testing.T) {
	mgr := NewJWTManager(testSecret, "travelwatch", time.Hour)

	token, err := mgr.Sign(42, "user@example.com")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := mgr.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Email != "user@example.com" {
		t.Fatalf("unexpected email claim: %s", claims.Email)
	}
	id, err := claims.UserID()
	if err != nil {
		t.Fatalf("user id: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected subject 42, got %d", id)
	}
}

func TestJWTParseRejections(t *testing.T) {
	mgr := NewJWTManager(testSecret, "travelwatch", time.Hour)

	t.Run("garbage token", func(t *testing.T) {
		if _, err := mgr.Parse("not.a.token"); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		other := NewJWTManager("ffffffffffffffffffffffffffffffff", "travelwatch", time.Hour)
		token, err := other.Sign(1, "a@b.com")
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		if _, err := mgr.Parse(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		short := NewJWTManager(testSecret, "travelwatch", -time.Minute)
		token, err := short.Sign(1, "a@b.com")
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		if _, err := mgr.Parse(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTManager(testSecret, "someone-else", time.Hour)
		token, err := other.Sign(1, "a@b.com")
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		if _, err := mgr.Parse(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("none algorithm", func(t *testing.T) {
		claims := Claims{
			Email: "a@b.com",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "1",
				Issuer:    "travelwatch",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		if _, err := mgr.Parse(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("missing email claim", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Subject:   "1",
			Issuer:    "travelwatch",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		if _, err := mgr.Parse(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("missing expiry", func(t *testing.T) {
		claims := Claims{
			Email: "a@b.com",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject: "1",
				Issuer:  "travelwatch",
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		if _, err := mgr.Parse(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestClaimsUserIDNonNumeric(t *testing.T) {
	c := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "abc"}}
	if _, err := c.UserID(); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
