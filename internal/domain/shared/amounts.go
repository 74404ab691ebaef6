package shared

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// MoneyPlaces is the precision of posted amounts.
	MoneyPlaces int32 = 2
	// CostPlaces is the precision of unit costs and quantities.
	CostPlaces int32 = 4
)

// RoundMoney rounds half away from zero to 2 places.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// RoundCost rounds to 4 places.
func RoundCost(d decimal.Decimal) decimal.Decimal {
	return d.Round(CostPlaces)
}

// DateOnly truncates t to a UTC calendar date using t's own wall clock.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MustParseDate parses YYYY-MM-DD and panics on error. Intended for tests
// and static seed data.
func MustParseDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}
