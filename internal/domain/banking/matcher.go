package banking

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// DefaultDateWindowDays is how far a book date may drift from the bank date.
const DefaultDateWindowDays = 5

// BookEntry is a posted journal line on a bank's ledger account.
type BookEntry struct {
	JournalLineID uuid.UUID       `json:"journal_line_id"`
	VoucherID     uuid.UUID       `json:"voucher_id"`
	VoucherNumber string          `json:"voucher_number"`
	Reference     string          `json:"reference"`
	Description   string          `json:"description"`
	Date          time.Time       `json:"date"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
}

// SignedAmount is debit minus credit, comparable to a statement amount.
func (e BookEntry) SignedAmount() decimal.Decimal {
	return e.Debit.Sub(e.Credit)
}

// MatchKind says which pass produced a match.
type MatchKind string

const (
	MatchByReference  MatchKind = "reference"
	MatchByAmountDate MatchKind = "amount_date"
)

// Match pairs a statement line with a book entry.
type Match struct {
	StatementLineID uuid.UUID
	Entry           BookEntry
	Kind            MatchKind
}

// AutoMatchResult summarizes an auto-match run.
type AutoMatchResult struct {
	Matched     int `json:"matched"`
	ByReference int `json:"by_reference"`
	ByAmount    int `json:"by_amount_date"`
	Unmatched   int `json:"unmatched"`
}

// Matcher pairs unmatched statement lines with uncleared book entries.
type Matcher struct {
	window int
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithDateWindow sets the allowed distance in days.
func WithDateWindow(days int) MatcherOption {
	return func(m *Matcher) {
		if days >= 0 {
			m.window = days
		}
	}
}

// NewMatcher creates a matcher.
func NewMatcher(opts ...MatcherOption) *Matcher {
	m := &Matcher{window: DefaultDateWindowDays}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Window returns the configured date window in days.
func (m *Matcher) Window() int {
	return m.window
}

// normalize folds case for caseless comparison. A Caser carries state, so
// each Match call gets its own.
func normalize(fold cases.Caser, s string) string {
	return fold.String(strings.TrimSpace(s))
}

func daysBetween(a, b time.Time) int {
	d := int(a.Sub(b).Hours() / 24)
	if d < 0 {
		return -d
	}
	return d
}

// Match returns proposed matches for lines. A first pass pairs every line
// that carries a reference with a candidate whose voucher reference or
// number equals it; a second pass pairs the lines still open by amount and
// date. Each candidate is used at most once and amounts must be equal.
// Within a pass lines are taken in the given order and ties go to the
// closest date, then the earlier date, then the lower voucher number.
func (m *Matcher) Match(lines []*StatementLine, candidates []BookEntry) []Match {
	fold := cases.Fold()
	used := make(map[uuid.UUID]bool, len(candidates))
	done := make(map[uuid.UUID]bool, len(lines))
	var matches []Match

	pass := func(kind MatchKind, accept func(line *StatementLine, c BookEntry) bool) {
		for _, line := range lines {
			if line.IsMatched() || done[line.ID] {
				continue
			}
			chosen, ok := m.best(line, candidates, used, accept)
			if !ok {
				continue
			}
			used[chosen.JournalLineID] = true
			done[line.ID] = true
			matches = append(matches, Match{StatementLineID: line.ID, Entry: chosen, Kind: kind})
		}
	}

	pass(MatchByReference, func(line *StatementLine, c BookEntry) bool {
		ref := normalize(fold, line.Reference)
		return ref != "" && (normalize(fold, c.Reference) == ref || normalize(fold, c.VoucherNumber) == ref)
	})
	pass(MatchByAmountDate, func(*StatementLine, BookEntry) bool { return true })
	return matches
}

// best picks the closest unused candidate with the line's amount inside the
// date window that accept allows.
func (m *Matcher) best(line *StatementLine, candidates []BookEntry, used map[uuid.UUID]bool,
	accept func(*StatementLine, BookEntry) bool) (BookEntry, bool) {
	var eligible []BookEntry
	for _, c := range candidates {
		if used[c.JournalLineID] || !c.SignedAmount().Equal(line.Amount) {
			continue
		}
		if daysBetween(c.Date, line.Date) > m.window || !accept(line, c) {
			continue
		}
		eligible = append(eligible, c)
	}
	if len(eligible) == 0 {
		return BookEntry{}, false
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		di, dj := daysBetween(eligible[i].Date, line.Date), daysBetween(eligible[j].Date, line.Date)
		if di != dj {
			return di < dj
		}
		if !eligible[i].Date.Equal(eligible[j].Date) {
			return eligible[i].Date.Before(eligible[j].Date)
		}
		return eligible[i].VoucherNumber < eligible[j].VoucherNumber
	})
	return eligible[0], true
}

// Summarize counts matches by kind.
func Summarize(matches []Match, remaining int) AutoMatchResult {
	r := AutoMatchResult{Matched: len(matches), Unmatched: remaining}
	for _, m := range matches {
		if m.Kind == MatchByReference {
			r.ByReference++
		} else {
			r.ByAmount++
		}
	}
	return r
}
