package domain

import "errors"

// Domain errors
var (
	ErrInvalidAmount        = errors.New("invalid payment amount")
	ErrInvalidPhoneNumber   = errors.New("invalid phone number")
	ErrInvalidWalletID      = errors.New("invalid wallet ID")
	ErrInvalidReference     = errors.New("invalid payment reference")
	ErrInvalidPurpose       = errors.New("invalid payment purpose")
	ErrInvalidResolution    = errors.New("invalid resolution")
	ErrIntentNotFound       = errors.New("payment intent not found")
	ErrIntentTerminal       = errors.New("payment intent already resolved")
	ErrWalletNotFound       = errors.New("wallet not found")
	ErrWalletInactive       = errors.New("wallet is not active")
	ErrDuplicateReference   = errors.New("duplicate payment reference")
	ErrOptimisticLock       = errors.New("version mismatch - optimistic lock failed")
	ErrReferenceLockTimeout = errors.New("timed out waiting for reference lock")
)
