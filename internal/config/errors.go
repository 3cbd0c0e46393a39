package config

import (
	"errors"
)

// Sentinel error kinds for this package. Load wraps every failure in one
// of these so callers can errors.Is without caring about koanf internals.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
