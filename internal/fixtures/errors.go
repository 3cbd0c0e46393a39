package fixtures

import (
	"errors"
)

// Sentinel kinds for fixture generation errors.
var (
	ErrInvalidConfig = errors.New("invalid fixture config")
	ErrWriteFixture  = errors.New("write fixture failed")
)
