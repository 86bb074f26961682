package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Quote amounts charged for a reservation
type Quote struct {
	AmountTotal   decimal.Decimal
	AmountDeposit decimal.Decimal
	PaymentStatus PaymentStatus
}

// PriceReservation computes amounts from the establishment price and an optional discount percent.
// Free reservations carry no amounts.
func PriceReservation(policy *EstablishmentPolicy, partySize int, paymentType PaymentType, discountPercent decimal.Decimal) Quote {
	if paymentType == PaymentFree {
		return Quote{
			AmountTotal:   decimal.Zero,
			AmountDeposit: decimal.Zero,
			PaymentStatus: PaymentNotRequired,
		}
	}

	total := policy.PricePerGuest.Mul(decimal.NewFromInt(int64(partySize)))
	if discountPercent.IsPositive() {
		factor := hundred.Sub(decimal.Min(discountPercent, hundred)).Div(hundred)
		total = total.Mul(factor)
	}
	total = total.Round(2)

	deposit := total
	if paymentType == PaymentDeposit {
		deposit = total.Mul(decimal.NewFromInt(int64(policy.DepositPercent))).Div(hundred).Round(2)
	}

	status := PaymentPending
	if deposit.IsZero() {
		status = PaymentNotRequired
	}

	return Quote{
		AmountTotal:   total,
		AmountDeposit: deposit,
		PaymentStatus: status,
	}
}

// RefundAmount part of the deposit returned for the given refund percent
func RefundAmount(deposit decimal.Decimal, refundPercent int) decimal.Decimal {
	return deposit.Mul(decimal.NewFromInt(int64(refundPercent))).Div(hundred).Round(2)
}
