package domain

import "github.com/shopspring/decimal"

// Tier is a fee schedule assigned to users. Higher levels pay lower fees.
type Tier struct {
	ID                      string
	DisplayName             string
	Level                   int
	CardCreationFee         decimal.Decimal
	CardMonthlyFee          decimal.Decimal
	DepositFeePercentage    decimal.Decimal
	WithdrawalFeePercentage decimal.Decimal
}

// Validate checks the tier's fee schedule.
func (t *Tier) Validate() error {
	if t.CardCreationFee.IsNegative() || t.CardMonthlyFee.IsNegative() {
		return ErrInvalidAmount
	}

	hundred := decimal.NewFromInt(100)

	for _, pct := range []decimal.Decimal{t.DepositFeePercentage, t.WithdrawalFeePercentage} {
		if pct.IsNegative() || pct.GreaterThan(hundred) {
			return ErrInvalidFeePercentage
		}
	}

	return nil
}
