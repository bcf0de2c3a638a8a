package biddingerrors

import "errors"

// Repository-level errors
var (
	ErrListingNotFound = errors.New("listing not found")
	ErrNoBids          = errors.New("no bids found for listing")
)

// business logic errors
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidBid      = errors.New("invalid bid")
	ErrBidTooLow       = errors.New("bid amount too low")
	ErrInvalidListing  = errors.New("invalid listing")
	ErrInvalidQuery    = errors.New("invalid listing query")
)

// session errors
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidOTP         = errors.New("invalid or expired otp")
	ErrEmailNotVerified   = errors.New("email not verified")
)

// infrastructure errors
var (
	ErrInvalidImage   = errors.New("unsupported image")
	ErrNetworkFailure = errors.New("network failure")
)
