package service

import "errors"

var (
	ErrGoogleAuthDisabled = errors.New("google auth is disabled")

	// Local credential path.
	ErrEmailTaken               = errors.New("user already exists")
	ErrUserNotFound             = errors.New("user not found")
	ErrPasswordLoginUnavailable = errors.New("use google login for this account")
	ErrInvalidCredentials       = errors.New("invalid password")

	// Federation path.
	ErrProviderNoEmail = errors.New("identity provider supplied no email")

	// Upstream data providers.
	ErrUpstreamFailed  = errors.New("upstream request failed")
	ErrUpstreamTimeout = errors.New("upstream request timed out")
)

// ValidationError marks request-shape failures so the handler can map
// them to BAD_INPUT instead of an internal error.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalidInput(msg string) error { return &ValidationError{Message: msg} }
