package models

import "errors"

var (
	// ErrNotFound means a product is missing, inactive, or has no price data
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument means a request violated a business rule
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUpstreamUnavailable means the product store could not be reached
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
