package bankfeed

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clearbook/backend/internal/domain/banking"
	"github.com/clearbook/backend/internal/domain/shared"
)

// CodeInvalidStatementFile is returned for exports that cannot be mapped
// to statement lines.
const CodeInvalidStatementFile = "INVALID_STATEMENT_FILE"

// maxRowErrors caps the row errors listed in one error message
const maxRowErrors = 10

// DateLayouts are tried in order for the date column.
var DateLayouts = []string{"2006-01-02", "2006/01/02", "01/02/2006", "Jan 2, 2006"}

var (
	withdrawalColumns = []string{"debit", "withdrawal"}
	depositColumns    = []string{"credit", "deposit"}
)

// RowError describes one row that could not be read
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e RowError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("row %d, column '%s': %s (%q)", e.Row, e.Column, e.Message, e.Value)
	}
	return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
}

// CSVParser maps a CSV export to statement lines. Columns are matched by
// header name: date, description, optional reference, and either a signed
// amount column or separate withdrawal and deposit columns.
type CSVParser struct {
	opts []Option
}

// NewCSVParser creates a CSVParser
func NewCSVParser(opts ...Option) *CSVParser {
	return &CSVParser{opts: opts}
}

type columns struct {
	amount     string
	withdrawal string
	deposit    string
}

// Parse reads every row of r. Any unreadable row fails the whole file.
func (p *CSVParser) Parse(r io.Reader) ([]banking.LineInput, error) {
	reader, err := NewReader(r, p.opts...)
	if err != nil {
		return nil, shared.NewDomainError(CodeInvalidStatementFile, err.Error())
	}
	cols, err := resolveColumns(reader)
	if err != nil {
		return nil, err
	}
	rows, err := reader.ReadAllRows()
	if err != nil {
		return nil, shared.NewDomainError(CodeInvalidStatementFile, err.Error())
	}
	if len(rows) == 0 {
		return nil, shared.NewDomainError(CodeInvalidStatementFile, "Statement file contains no data rows")
	}

	var (
		lines   []banking.LineInput
		rowErrs []RowError
	)
	for _, row := range rows {
		line, errs := mapRow(row, cols)
		if len(errs) > 0 {
			rowErrs = append(rowErrs, errs...)
			continue
		}
		lines = append(lines, line)
	}
	if len(rowErrs) > 0 {
		return nil, shared.NewDomainError(CodeInvalidStatementFile, summarize(rowErrs))
	}
	return lines, nil
}

func resolveColumns(r *Reader) (columns, error) {
	var missing []string
	for _, required := range []string{"date", "description"} {
		if !r.Has(required) {
			missing = append(missing, required)
		}
	}
	var cols columns
	if r.Has("amount") {
		cols.amount = "amount"
	} else {
		cols.withdrawal, _ = r.First(withdrawalColumns...)
		cols.deposit, _ = r.First(depositColumns...)
		if cols.withdrawal == "" && cols.deposit == "" {
			missing = append(missing, "amount (or debit/credit)")
		}
	}
	if len(missing) > 0 {
		return columns{}, shared.NewDomainErrorf(CodeInvalidStatementFile, "Missing columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func mapRow(row *Row, cols columns) (banking.LineInput, []RowError) {
	var errs []RowError
	fail := func(column, msg, value string) {
		errs = append(errs, RowError{Row: row.LineNumber, Column: column, Message: msg, Value: value})
	}

	line := banking.LineInput{
		Description: row.Get("description"),
		Reference:   row.Get("reference"),
	}
	raw := row.Get("date")
	date, err := ParseDate(raw)
	if err != nil {
		fail("date", "unrecognized date", raw)
	}
	line.Date = date

	switch {
	case cols.amount != "":
		amount, err := ParseAmount(row.Get(cols.amount))
		if err != nil {
			fail(cols.amount, "invalid amount", row.Get(cols.amount))
		}
		line.Amount = amount
	default:
		out, err := optionalAmount(row, cols.withdrawal)
		if err != nil {
			fail(cols.withdrawal, "invalid amount", row.Get(cols.withdrawal))
		}
		in, err := optionalAmount(row, cols.deposit)
		if err != nil {
			fail(cols.deposit, "invalid amount", row.Get(cols.deposit))
		}
		line.Amount = in.Abs().Sub(out.Abs())
	}
	if len(errs) == 0 && line.Amount.IsZero() {
		fail("amount", "amount cannot be zero", "")
	}
	return line, errs
}

func optionalAmount(row *Row, column string) (decimal.Decimal, error) {
	if column == "" || row.Get(column) == "" {
		return decimal.Zero, nil
	}
	return ParseAmount(row.Get(column))
}

func summarize(errs []RowError) string {
	shown := errs
	if len(shown) > maxRowErrors {
		shown = shown[:maxRowErrors]
	}
	parts := make([]string, len(shown))
	for i, e := range shown {
		parts[i] = e.Error()
	}
	msg := strings.Join(parts, "; ")
	if more := len(errs) - len(shown); more > 0 {
		msg += fmt.Sprintf("; and %d more", more)
	}
	return msg
}

// ParseDate accepts the layouts in DateLayouts
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ParseAmount reads amounts such as "1,234.50", "$ -12.00", "(45.10)" or
// "€12". Parentheses mean negative.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-':
			negative = !negative
		case r == ',', r == ' ', r == '\u00a0', r == '+':
		case strings.ContainsRune("$€£¥", r):
		default:
			return decimal.Zero, fmt.Errorf("invalid character %q in amount", r)
		}
	}
	if b.Len() == 0 {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero, err
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}
