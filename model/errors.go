package model

import "errors"

var (
	// ErrEndpointUnresolved marks a relationship mention whose endpoint
	// failed to resolve or create; reportable and skippable, never fatal
	ErrEndpointUnresolved = errors.New("relationship endpoint unresolved")

	// ErrBackendUnavailable marks an embedding or LLM backend failure;
	// callers degrade instead of failing the request
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrEntityNotFound marks a lookup for an entity that does not exist
	ErrEntityNotFound = errors.New("entity not found")
)
