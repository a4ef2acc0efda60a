package entity

import "errors"

var (
	ErrNotFound             = errors.New("record not found")
	ErrPrimaryAlreadySet    = errors.New("workspace already has a primary location")
	ErrAccountLimitExceeded = errors.New("workspace account limit exceeded")
)
