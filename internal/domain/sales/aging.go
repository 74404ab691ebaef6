package sales

import (
	"sort"
	"time"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AgingBucket names a days-past-due band.
type AgingBucket string

const (
	BucketCurrent AgingBucket = "current"
	Bucket1To30   AgingBucket = "1_30"
	Bucket31To60  AgingBucket = "31_60"
	Bucket61To90  AgingBucket = "61_90"
	BucketOver90  AgingBucket = "over_90"
)

// BucketFor places days past due into a band.
func BucketFor(daysPastDue int) AgingBucket {
	switch {
	case daysPastDue <= 0:
		return BucketCurrent
	case daysPastDue <= 30:
		return Bucket1To30
	case daysPastDue <= 60:
		return Bucket31To60
	case daysPastDue <= 90:
		return Bucket61To90
	default:
		return BucketOver90
	}
}

// AgingAmounts holds one amount per band.
type AgingAmounts struct {
	Current decimal.Decimal `json:"current"`
	Days30  decimal.Decimal `json:"days_1_30"`
	Days60  decimal.Decimal `json:"days_31_60"`
	Days90  decimal.Decimal `json:"days_61_90"`
	Over90  decimal.Decimal `json:"over_90"`
	Total   decimal.Decimal `json:"total"`
}

func zeroAging() AgingAmounts {
	return AgingAmounts{decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero}
}

func (a *AgingAmounts) add(b AgingBucket, amount decimal.Decimal) {
	switch b {
	case BucketCurrent:
		a.Current = a.Current.Add(amount)
	case Bucket1To30:
		a.Days30 = a.Days30.Add(amount)
	case Bucket31To60:
		a.Days60 = a.Days60.Add(amount)
	case Bucket61To90:
		a.Days90 = a.Days90.Add(amount)
	default:
		a.Over90 = a.Over90.Add(amount)
	}
	a.Total = a.Total.Add(amount)
}

// AgingRow is one customer's outstanding balance by band.
type AgingRow struct {
	CustomerID   uuid.UUID `json:"customer_id"`
	CustomerCode string    `json:"customer_code"`
	CustomerName string    `json:"customer_name"`
	AgingAmounts
}

// AgingReport is the accounts receivable aging as of a date.
type AgingReport struct {
	AsOf   time.Time    `json:"as_of"`
	Rows   []AgingRow   `json:"rows"`
	Totals AgingAmounts `json:"totals"`
}

// BuildAgingReport buckets the balance due of open invoices. Invoices with
// no balance are skipped. Rows are sorted by customer code.
func BuildAgingReport(asOf time.Time, invoices []SalesInvoice, customers map[uuid.UUID]*Customer) *AgingReport {
	asOf = shared.DateOnly(asOf)
	rows := make(map[uuid.UUID]*AgingRow)
	report := &AgingReport{AsOf: asOf, Totals: zeroAging()}
	for _, inv := range invoices {
		if !inv.IsOpen() || inv.InvoiceDate.After(asOf) {
			continue
		}
		due := inv.BalanceDue()
		if !due.IsPositive() {
			continue
		}
		row, ok := rows[inv.CustomerID]
		if !ok {
			row = &AgingRow{CustomerID: inv.CustomerID, AgingAmounts: zeroAging()}
			if c, found := customers[inv.CustomerID]; found {
				row.CustomerCode, row.CustomerName = c.Code, c.Name
			}
			rows[inv.CustomerID] = row
		}
		days := int(asOf.Sub(shared.DateOnly(inv.DueDate)).Hours() / 24)
		bucket := BucketFor(days)
		row.add(bucket, due)
		report.Totals.add(bucket, due)
	}
	report.Rows = make([]AgingRow, 0, len(rows))
	for _, r := range rows {
		report.Rows = append(report.Rows, *r)
	}
	sort.Slice(report.Rows, func(i, j int) bool {
		return report.Rows[i].CustomerCode < report.Rows[j].CustomerCode
	})
	return report
}
