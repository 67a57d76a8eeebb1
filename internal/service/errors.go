package service

import "errors"

// Domain-level failures, mapped to HTTP status codes by the handler layer.
var (
	ErrEmailTaken      = errors.New("user with email already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidAPIKey   = errors.New("invalid API key")
	ErrLoanNotFound    = errors.New("loan not found")
	ErrNotOwner        = errors.New("only the owner can share this loan")
	ErrSelfShare       = errors.New("cannot share loan with yourself")
	ErrMonthOutOfRange = errors.New("month exceeds loan term")
	ErrInvalidTerms    = errors.New("invalid loan terms")
)
