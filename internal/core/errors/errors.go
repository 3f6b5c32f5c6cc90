// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - Unexported errors (err*): Use for internal package errors
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Configuration errors. These are fatal at startup.
var (
	// ErrMissingConfig indicates a required configuration value is absent.
	ErrMissingConfig = errors.New("missing required configuration")

	// ErrInvalidConfig indicates a configuration value could not be used.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Telegram session errors.
var (
	// ErrAuthFailed indicates the Telegram session could not be authorized. Fatal.
	ErrAuthFailed = errors.New("telegram authorization failed")

	// ErrSignupNotSupported indicates the phone number has no Telegram account.
	ErrSignupNotSupported = errors.New("signup not supported")
)

// Media errors. These degrade the media part of a payload and never abort forwarding.
var (
	// ErrNoMediaSource indicates a binary media item has no way to be downloaded.
	ErrNoMediaSource = errors.New("media has no download source")

	// ErrMediaTooLarge indicates the media exceeds the configured download limit.
	ErrMediaTooLarge = errors.New("media too large")
)

// Webhook delivery errors.
var (
	// ErrUnexpectedStatus indicates the sink answered with a non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected webhook status")

	// ErrEncodePayload indicates the payload could not be serialized.
	ErrEncodePayload = errors.New("encode payload")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
