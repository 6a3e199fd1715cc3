package services

import "errors"

var (
	// ErrInvalidRequest is returned before generation starts for bad input
	ErrInvalidRequest = errors.New("invalid request")

	// ErrGenerationExhausted is returned when a ticket hits the attempt ceiling
	ErrGenerationExhausted = errors.New("generation exhausted")

	// ErrUpstreamDataUnavailable is returned when draw history is missing or unusable
	ErrUpstreamDataUnavailable = errors.New("upstream data unavailable")

	// ErrNoBatch is returned by exports before any batch was generated
	ErrNoBatch = errors.New("no batch generated yet")
)
