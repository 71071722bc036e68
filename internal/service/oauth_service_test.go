package service

import (
	"context"
	"errors"
	"testing"

	"travelwatch/internal/domain"
)

func TestHandleGoogleCallbackProvisionsNewIdentity(t *testing.T) {
	repo := newStubUserRepo()
	provider := &stubOAuthProvider{
		userInfo: &OAuthUserInfo{ProviderUserID: "g-77", Email: "new@example.com", Name: "New Person"},
	}
	svc := NewOAuthService(provider, repo)

	user, err := svc.HandleGoogleCallback(context.Background(), "code")
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	if user.Email != "new@example.com" || user.Name != "New Person" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.OAuthProvider == nil || *user.OAuthProvider != "google" {
		t.Fatal("expected google federation fields")
	}
	if user.OAuthID == nil || *user.OAuthID != "g-77" {
		t.Fatal("expected provider user id recorded")
	}
	if user.HasLocalCredential() {
		t.Fatal("federated identity must have no password hash")
	}
}

func TestHandleGoogleCallbackReturningIdentity(t *testing.T) {
	repo := newStubUserRepo()
	provider := &stubOAuthProvider{
		userInfo: &OAuthUserInfo{ProviderUserID: "g-77", Email: "back@example.com", Name: "Back Again"},
	}
	svc := NewOAuthService(provider, repo)

	first, err := svc.HandleGoogleCallback(context.Background(), "code-1")
	if err != nil {
		t.Fatalf("first callback: %v", err)
	}
	second, err := svc.HandleGoogleCallback(context.Background(), "code-2")
	if err != nil {
		t.Fatalf("second callback: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same identity, got %d and %d", first.ID, second.ID)
	}
}

func TestHandleGoogleCallbackExistingLocalIdentity(t *testing.T) {
	repo := newStubUserRepo()
	hash := "digest"
	if err := repo.Create(context.Background(), &domain.User{
		Name: "Local", Email: "local@example.com", PasswordHash: &hash,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	provider := &stubOAuthProvider{
		userInfo: &OAuthUserInfo{ProviderUserID: "g-88", Email: "local@example.com", Name: "Google Name"},
	}
	svc := NewOAuthService(provider, repo)

	user, err := svc.HandleGoogleCallback(context.Background(), "code")
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	if user.Name != "Local" {
		t.Fatalf("expected existing row untouched, got name %q", user.Name)
	}
	if user.OAuthProvider != nil {
		t.Fatal("existing local row must not gain federation fields")
	}
	if !user.HasLocalCredential() {
		t.Fatal("existing local credential must survive")
	}
}

func TestHandleGoogleCallbackMissingEmail(t *testing.T) {
	repo := newStubUserRepo()
	provider := &stubOAuthProvider{
		userInfo: &OAuthUserInfo{ProviderUserID: "g-99", Email: "", Name: "No Mail"},
	}
	svc := NewOAuthService(provider, repo)

	if _, err := svc.HandleGoogleCallback(context.Background(), "code"); !errors.Is(err, ErrProviderNoEmail) {
		t.Fatalf("expected ErrProviderNoEmail, got %v", err)
	}
	if len(repo.byID) != 0 {
		t.Fatal("no identity may be provisioned without an email")
	}
}

func TestHandleGoogleCallbackBlankNameFallback(t *testing.T) {
	repo := newStubUserRepo()
	provider := &stubOAuthProvider{
		userInfo: &OAuthUserInfo{ProviderUserID: "g-11", Email: "blank@example.com", Name: "   "},
	}
	svc := NewOAuthService(provider, repo)

	user, err := svc.HandleGoogleCallback(context.Background(), "code")
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	if user.Name != "Unnamed" {
		t.Fatalf("expected fallback name, got %q", user.Name)
	}
}

func TestHandleGoogleCallbackUserInfoFailure(t *testing.T) {
	repo := newStubUserRepo()
	provider := &stubOAuthProvider{userInfoErr: errors.New("userinfo status: 500")}
	svc := NewOAuthService(provider, repo)

	if _, err := svc.HandleGoogleCallback(context.Background(), "code"); err == nil {
		t.Fatal("expected userinfo error")
	}
	if !provider.gotUserInfo {
		t.Fatal("expected userinfo attempt after exchange")
	}
}

func TestClassifyOAuthError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "none"},
		{"canceled", context.Canceled, "context_canceled"},
		{"deadline", context.DeadlineExceeded, "timeout"},
		{"userinfo status", errors.New("userinfo status: 503"), "userinfo_status"},
		{"missing subject", errors.New("missing subject in userinfo"), "invalid_userinfo"},
		{"exchange", errors.New("oauth2: cannot fetch token"), "oauth2_exchange"},
		{"other", errors.New("boom"), "other"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyOAuthError(tc.err); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}
