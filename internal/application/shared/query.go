package shared

import (
	"strings"
	"time"

	"github.com/clearbook/backend/internal/domain/shared"
)

// DateLayout is the wire format of business dates.
const DateLayout = "2006-01-02"

// PageQuery is embedded in list filters bound from the query string.
type PageQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search   string `form:"search"`
}

// ToFilter converts the query into a repository filter with defaults.
func (q PageQuery) ToFilter() shared.Filter {
	f := shared.DefaultFilter()
	if q.Page > 0 {
		f.Page = q.Page
	}
	if q.PageSize > 0 {
		f.PageSize = q.PageSize
	}
	if q.OrderBy != "" {
		f.OrderBy = q.OrderBy
	}
	if q.OrderDir != "" {
		f.OrderDir = q.OrderDir
	}
	f.Search = strings.TrimSpace(q.Search)
	return f
}

// ParseDate parses an optional YYYY-MM-DD value. Empty input yields the
// zero time.
func ParseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, shared.NewDomainErrorf("INVALID_INPUT", "%s must be a date in YYYY-MM-DD format", field)
	}
	return t, nil
}

// ParseRequiredDate is ParseDate for mandatory fields.
func ParseRequiredDate(field, value string) (time.Time, error) {
	t, err := ParseDate(field, value)
	if err != nil {
		return t, err
	}
	if t.IsZero() {
		return t, shared.NewDomainErrorf("INVALID_INPUT", "%s is required", field)
	}
	return t, nil
}

// DateOrToday parses value or falls back to today's date.
func DateOrToday(field, value string, now time.Time) (time.Time, error) {
	t, err := ParseDate(field, value)
	if err != nil || !t.IsZero() {
		return t, err
	}
	return shared.DateOnly(now), nil
}

// FormatDate renders a business date, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
