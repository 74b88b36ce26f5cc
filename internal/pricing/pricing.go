// Package pricing holds the studio tariff. All amounts are fixed-point
// decimals; recurrence multiplication must not drift the way binary floats
// would.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// BasePrice is the hourly room rate in BRL.
var BasePrice = decimal.NewFromFloat(30.00)

var extensionPrices = map[int]decimal.Decimal{
	0:  decimal.Zero,
	15: decimal.NewFromFloat(8.00),
	30: decimal.NewFromFloat(15.00),
}

// ExtensionPrice returns the surcharge for an extension tier. Unknown tiers
// price as zero; tier validity is checked upstream.
func ExtensionPrice(minutes int) decimal.Decimal {
	if p, ok := extensionPrices[minutes]; ok {
		return p
	}
	return decimal.Zero
}

// UnitPrice is the cost of one session: base rate plus extension surcharge.
func UnitPrice(extensionMinutes int) decimal.Decimal {
	return BasePrice.Add(ExtensionPrice(extensionMinutes))
}

// SeriesTotal is the cost of a weekly series: unit price times the number
// of sessions (the anchor plus one per extra week).
func SeriesTotal(extensionMinutes, weeks int) decimal.Decimal {
	return UnitPrice(extensionMinutes).Mul(decimal.NewFromInt(int64(weeks + 1)))
}

// CancelledReservation is what a credit policy gets to look at.
type CancelledReservation struct {
	Date        time.Time
	UnitPrice   decimal.Decimal
	Paid        bool
	CancelledAt time.Time
}

// CreditPolicy decides the credit granted for a cancellation. The amount a
// cancellation is worth is a business rule that changes; callers plug in
// whatever the contract of the day says.
type CreditPolicy func(r CancelledReservation) decimal.Decimal

// FullCreditWhenPaid is the default policy: a paid reservation converts into
// credit at its full unit price, an unpaid one yields nothing.
func FullCreditWhenPaid(r CancelledReservation) decimal.Decimal {
	if r.Paid {
		return r.UnitPrice
	}
	return decimal.Zero
}
