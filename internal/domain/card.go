package domain

import "time"

// CardStatus is the lifecycle state of a virtual card.
type CardStatus string

const (
	CardStatusActive     CardStatus = "active"
	CardStatusFrozen     CardStatus = "frozen"
	CardStatusTerminated CardStatus = "terminated"
)

var validCardStatuses = map[CardStatus]bool{
	CardStatusActive:     true,
	CardStatusFrozen:     true,
	CardStatusTerminated: true,
}

// IsValid checks if the card status is known.
func (s CardStatus) IsValid() bool {
	return validCardStatuses[s]
}

// Card is a virtual card issued through the card-issuing provider.
//
// ProviderCardID is the provider's identifier; the sync job reconciles Status
// against the provider's view of the card.
type Card struct {
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ID             string
	UserID         string
	ProviderCardID string
	Last4          string
	Brand          string
	Currency       string
	Status         CardStatus
}

// IsActive reports whether the card accrues monthly fees.
func (c *Card) IsActive() bool {
	return c.Status == CardStatusActive
}
