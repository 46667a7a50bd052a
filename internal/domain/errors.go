package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrStateConflict  = errors.New("job state conflict")
	ErrResultNotReady = errors.New("result not ready")
)
