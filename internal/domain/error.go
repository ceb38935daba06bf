package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrAlreadyExists       = errors.New("entity already exists")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInvalidTransition   = errors.New("illegal order status transition")
	ErrCodeNotFound        = errors.New("access code not found")
	ErrCodeExpired        = errors.New("access code has expired")
	ErrCodeAlreadyUsed    = errors.New("access code already used")
	ErrAccountUsedCode    = errors.New("account has already redeemed a code")
	ErrEmailMismatch      = errors.New("access code is bound to a different email")
	ErrGatewayUnavailable = errors.New("payment gateway not configured")
	ErrLockHeld           = errors.New("resource is locked by another operation")
	ErrAlreadyVoted       = errors.New("voter has already voted on this poll")

	// Infra-level sentinels
	ErrReadDatabaseRow = errors.New("failed to read database row")
)
