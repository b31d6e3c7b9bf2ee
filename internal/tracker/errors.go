package tracker

import "errors"

var (
	// ErrNoBaseURL is returned when rewriting is attempted without a
	// configured tracking base URL. This is fatal for the whole send:
	// emitting unreachable tracking URLs is worse than not sending.
	ErrNoBaseURL = errors.New("tracking base URL not configured")

	// ErrLinkNotFound is returned when a slug resolves to no tracked link.
	ErrLinkNotFound = errors.New("tracked link not found")

	// ErrSlugTaken is returned by the link store when an insert collides
	// with an existing slug. Callers regenerate the slug and retry.
	ErrSlugTaken = errors.New("slug already exists")
)
