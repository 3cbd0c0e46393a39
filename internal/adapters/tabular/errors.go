package tabular

import "errors"

// Sentinel kinds for tabular I/O errors.
var (
	ErrOpenInput     = errors.New("open input failed")
	ErrParseInput    = errors.New("parse input failed")
	ErrEmptyInput    = errors.New("input has no usable rows")
	ErrMissingColumn = errors.New("missing required column")
	ErrWriteOutput   = errors.New("write output failed")
)
