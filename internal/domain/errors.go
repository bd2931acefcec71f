package domain

import "errors"

var (
	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrUserRequired = errors.New("user id is required")
	ErrUserInactive = errors.New("user account is inactive")

	// Balance errors
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be positive")

	// Tier errors
	ErrTierNotFound         = errors.New("tier not found")
	ErrInvalidFeePercentage = errors.New("fee percentage must be between 0 and 100")

	// Card errors
	ErrCardNotFound = errors.New("card not found")
	ErrCardInactive = errors.New("card is not active")

	// Ledger errors
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrLedgerSnapshotMismatch = errors.New("balance snapshots do not account for entry amount")
	ErrNoLedgerEntries        = errors.New("user has no ledger entries")

	// Fee errors
	ErrFeeRecordNotFound = errors.New("monthly fee record not found")
	ErrFeeAlreadySettled = errors.New("monthly fee record is no longer pending")

	// Funding errors
	ErrDepositInFlight = errors.New("deposit settlement already in progress")

	// Billing errors
	ErrBillingInProgress = errors.New("billing already in progress for user")
)
