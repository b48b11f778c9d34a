package domain

import "errors"

var (
	ErrInvalidAlert  = errors.New("invalid price alert")
	ErrAlertNotFound = errors.New("price alert not found")
)
