package service

import "errors"

var (
	ErrUserExists              = errors.New("user already exists")
	ErrUserNotFound            = errors.New("user not found")
	ErrNotFound                = errors.New("not found")
	ErrForbidden               = errors.New("not authorized")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrPasswordMismatch        = errors.New("new passwords do not match")
	ErrIncorrectPassword       = errors.New("incorrect old password")
	ErrInvalidTOTP             = errors.New("invalid 2fa code")
	ErrTwoFactorNotInitialized = errors.New("2fa secret not generated")
	ErrTwoFactorNotEnabled     = errors.New("2fa not enabled")
	ErrQRGeneration            = errors.New("could not generate qr code")
	ErrRateLimited             = errors.New("rate limited")
	ErrUpstream                = errors.New("upstream service failure")
	ErrAdvisorUnavailable      = errors.New("ai advisor not configured")
)

// ValidationError describe una entrada faltante o mal formada; Message se muestra al cliente.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Message
}

func validationError(msg string) error {
	return &ValidationError{Message: msg}
}
