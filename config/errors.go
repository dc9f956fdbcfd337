package config

import "errors"

var (
	// ErrInvalidConfig is returned by Validate for out-of-range settings.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrReadConfig is returned when a config or .env file cannot be read.
	ErrReadConfig = errors.New("config: read failed")
)
