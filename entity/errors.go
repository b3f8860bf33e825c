package entity

import "errors"

var (
	ErrNotFound = errors.New("ticket not found")
	ErrConflict = errors.New("invalid status transition")
)
