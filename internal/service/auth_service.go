package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"travelwatch/internal/config"
	"travelwatch/internal/domain"
	"travelwatch/internal/repository"
	"travelwatch/internal/security"
)

const minPasswordLength = 8

type AuthService struct {
	cfg      *config.Config
	oauthSvc *OAuthService
	userRepo repository.UserRepository
	jwtMgr   *security.JWTManager
}

type LoginResult struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

func NewAuthService(cfg *config.Config, oauthSvc *OAuthService, userRepo repository.UserRepository, jwtMgr *security.JWTManager) *AuthService {
	return &AuthService{cfg: cfg, oauthSvc: oauthSvc, userRepo: userRepo, jwtMgr: jwtMgr}
}

// Signup creates a local identity. No token is issued; the client logs
// in separately.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" {
		return nil, invalidInput("name is required")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, invalidInput("password must be at least 8 characters")
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{Name: name, Email: email, PasswordHash: &hash, Role: "user"}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// Login verifies a local credential and mints a bearer token. An
// identity enrolled only through federation has no password hash and is
// steered to the federated path instead of a generic failure.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.HasLocalCredential() {
		return nil, ErrPasswordLoginUnavailable
	}
	if !security.VerifyPassword(*user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return s.issueFor(user)
}

func (s *AuthService) GoogleLoginURL(state string) string {
	if !s.cfg.AuthGoogleEnabled {
		return ""
	}
	return s.oauthSvc.LoginURL(state)
}

// LoginWithGoogleCode completes the federation flow: the code is
// exchanged for an assertion, the assertion resolved to one identity
// (created on first sight), and a token minted for it.
func (s *AuthService) LoginWithGoogleCode(ctx context.Context, code string) (*LoginResult, error) {
	if !s.cfg.AuthGoogleEnabled {
		return nil, ErrGoogleAuthDisabled
	}
	user, err := s.oauthSvc.HandleGoogleCallback(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.issueFor(user)
}

// CurrentUser resolves verified bearer claims back to the stored
// identity. A token whose subject no longer maps to a row (deleted
// user, foreign subject format) reads as an unknown user.
func (s *AuthService) CurrentUser(ctx context.Context, claims *security.Claims) (*domain.User, error) {
	id, err := claims.UserID()
	if err != nil {
		return nil, ErrUserNotFound
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issueFor(user *domain.User) (*LoginResult, error) {
	token, err := s.jwtMgr.Sign(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Token: token, ExpiresAt: time.Now().Add(s.jwtMgr.TTL())}, nil
}

func validateEmail(email string) error {
	if email == "" {
		return invalidInput("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return invalidInput("invalid email")
	}
	return nil
}
