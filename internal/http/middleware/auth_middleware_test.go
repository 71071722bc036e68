package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"travelwatch/internal/security"
)

func bearerProbe(t *testing.T, mgr *security.JWTManager, authorization string) (*httptest.ResponseRecorder, *security.Claims) {
	t.Helper()
	var got *security.Claims
	h := Auth(mgr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			t.Fatal("expected claims in context past the gate")
		}
		got = claims
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr, got
}

func TestAuthAcceptsValidBearer(t *testing.T) {
	mgr := security.NewJWTManager("0123456789abcdef0123456789abcdef", "travelwatch", time.Hour)
	token, err := mgr.Sign(7, "user@example.com")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	rr, claims := bearerProbe(t, mgr, "Bearer "+token)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if claims == nil || claims.Email != "user@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	id, err := claims.UserID()
	if err != nil || id != 7 {
		t.Fatalf("unexpected subject: %d, %v", id, err)
	}
}

func TestAuthRejections(t *testing.T) {
	mgr := security.NewJWTManager("0123456789abcdef0123456789abcdef", "travelwatch", time.Hour)
	expired := security.NewJWTManager("0123456789abcdef0123456789abcdef", "travelwatch", -time.Minute)
	expiredToken, err := expired.Sign(7, "user@example.com")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	cases := []struct {
		name          string
		authorization string
	}{
		{"no header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"empty bearer", "Bearer "},
		{"garbage token", "Bearer not.a.token"},
		{"expired token", "Bearer " + expiredToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr, _ := bearerProbe(t, mgr, tc.authorization)
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rr.Code)
			}
			env := decodeEnvelope(t, rr)
			if env.Error == nil || env.Error.Code != "UNAUTHORIZED" {
				t.Fatalf("unexpected error body: %+v", env.Error)
			}
		})
	}
}

func TestClaimsFromContextMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := ClaimsFromContext(req.Context()); ok {
		t.Fatal("expected no claims on a bare context")
	}
}
