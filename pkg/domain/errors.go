package domain

import "errors"

// ErrConfiguration is returned when the environment is configured in a way that
// makes a requested operation impossible, e.g. an address space with no invalid
// location left to target.
var ErrConfiguration = errors.New("configuration error")

// ErrMalformedObservation marks an observation that breaks the monitor contract.
var ErrMalformedObservation = errors.New("malformed observation")
