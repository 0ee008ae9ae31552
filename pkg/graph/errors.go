package graph

import "errors"

var (
	// ErrMissingCredential is returned when a provider requires a credential
	// (API key, database password) that the configuration does not supply.
	ErrMissingCredential = errors.New("missing credential")

	// ErrUnreachableBackend is returned when a configured backend cannot be
	// reached during engine construction.
	ErrUnreachableBackend = errors.New("backend unreachable")

	// ErrUnsupportedProvider is returned when a provider name is not
	// recognized by any factory.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrNotFound is returned when an episode or fact does not exist.
	ErrNotFound = errors.New("not found")
)
