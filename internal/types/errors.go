package types

import "errors"

var (
	// ErrInvalid marks a user-supplied Config that failed validation.
	ErrInvalid = errors.New("invalid config")

	// ErrNotFound is returned by the config store when nothing was saved yet.
	ErrNotFound = errors.New("config not found")

	// ErrCorrupt is returned by the config store when the stored file cannot be used.
	ErrCorrupt = errors.New("config corrupt")

	// ErrAdapterUnavailable means the host has no usable wireless adapter.
	ErrAdapterUnavailable = errors.New("wireless adapter unavailable")

	// ErrPermissionDenied means the OS refused a network configuration change.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInterfaceNotFound means the target adapter does not exist.
	ErrInterfaceNotFound = errors.New("interface not found")

	// ErrInvalidAddress means a static profile failed re-validation at apply time.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrLeaseFailed means no DHCP lease could be obtained.
	ErrLeaseFailed = errors.New("dhcp lease failed")
)
