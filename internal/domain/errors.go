package domain

import "errors"

// Sentinel errors returned by the service layer. Handlers map these onto
// HTTP status codes; everything else is treated as an internal error.
var (
	ErrValidation           = errors.New("invalid input")
	ErrEmailInUse           = errors.New("email already in use")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrEmailNotVerified     = errors.New("email not verified")
	ErrUserNotFound         = errors.New("user not found")
	ErrIncorrectOldPassword = errors.New("incorrect old password")
	ErrAlreadyVerified      = errors.New("account is already verified")

	// OTP validation outcomes. ErrOTPNotFound covers both an unknown email
	// and a code that does not match the stored one, including a code that
	// was already consumed.
	ErrOTPNotFound = errors.New("invalid otp or email")
	ErrOTPExpired  = errors.New("otp expired")

	ErrEventNotFound = errors.New("event not found")
	ErrNotOwner      = errors.New("permission denied")
	ErrAlreadyRSVPed = errors.New("already rsvped to this event")
)
