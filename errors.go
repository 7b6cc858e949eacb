package courier

import "errors"

// Sentinel errors for driver resolution and command dispatch.
var (
	// ErrUnknownDriver indicates a registry lookup for an unregistered name.
	ErrUnknownDriver = errors.New("courier: unknown driver")

	// ErrMissingConfig indicates a driver was resolved without a required option.
	ErrMissingConfig = errors.New("courier: missing required config")

	// ErrInvalidConfig indicates a malformed configuration document.
	ErrInvalidConfig = errors.New("courier: invalid configuration")

	// ErrInvalidArgument indicates a builder call received a malformed argument.
	ErrInvalidArgument = errors.New("courier: invalid argument")

	// ErrNoDestination indicates dispatch of a payload without a destination.
	ErrNoDestination = errors.New("courier: payload must have a destination")

	// ErrNoContent indicates dispatch of a payload without body or template.
	ErrNoContent = errors.New("courier: payload must have content")

	// ErrUnsupportedType indicates the payload type failed the allowlist check.
	ErrUnsupportedType = errors.New("courier: payload type not allowed")

	// ErrAlreadyExecuted indicates reuse of a spent command builder.
	ErrAlreadyExecuted = errors.New("courier: command already executed")

	// ErrDispatchFailed indicates the underlying driver failed to deliver.
	ErrDispatchFailed = errors.New("courier: dispatch failed")
)
