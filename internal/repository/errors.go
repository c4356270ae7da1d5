package repository

import "errors"

var (
	ErrNotFound            = errors.New("record not found")
	ErrInsufficientBalance = errors.New("insufficient token balance")
	ErrDuplicateReference  = errors.New("ledger reference already used")
)
