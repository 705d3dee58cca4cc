package clientcli

import "errors"

// Errors for profile operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoProfiles      = errors.New("no profiles configured")
	ErrProfileExists   = errors.New("profile already exists")
)

// Errors for configuration validation.
var (
	ErrConfigRequired  = errors.New("config is required")
	ErrInvalidEndpoint = errors.New("endpoint must be an http or https URL")
)

// Errors for downloads.
var (
	ErrEmptyID = errors.New("archive id is required")
	// ErrIncompleteArchive is returned when the server ended the transfer
	// before the archive was complete. No output file is left behind.
	ErrIncompleteArchive = errors.New("archive transfer incomplete")
)
