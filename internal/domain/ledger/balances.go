package ledger

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TrialBalanceTolerance is the largest debit/credit difference still
// reported as balanced.
var TrialBalanceTolerance = decimal.NewFromFloat(0.01)

// AccountBalance holds raw posted debit and credit totals of one account.
type AccountBalance struct {
	AccountID uuid.UUID       `json:"account_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Type      AccountType     `json:"type"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
}

// Balance returns the balance in the account's normal direction.
func (b AccountBalance) Balance() decimal.Decimal {
	return b.Type.NormalBalance().SignedBalance(b.Debit, b.Credit)
}

// Net returns debit minus credit.
func (b AccountBalance) Net() decimal.Decimal {
	return b.Debit.Sub(b.Credit)
}

// TrialBalanceStatus represents the result status of a trial balance check
type TrialBalanceStatus string

const (
	TrialBalanceStatusBalanced   TrialBalanceStatus = "BALANCED"
	TrialBalanceStatusUnbalanced TrialBalanceStatus = "UNBALANCED"
)

// TrialBalanceLine is one account row of a trial balance.
type TrialBalanceLine struct {
	AccountID     uuid.UUID       `json:"account_id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Type          AccountType     `json:"type"`
	DebitTotal    decimal.Decimal `json:"debit_total"`
	CreditTotal   decimal.Decimal `json:"credit_total"`
	DebitBalance  decimal.Decimal `json:"debit_balance"`
	CreditBalance decimal.Decimal `json:"credit_balance"`
}

// TrialBalance lists every account with activity up to AsOf.
type TrialBalance struct {
	AsOf        time.Time          `json:"as_of"`
	Lines       []TrialBalanceLine `json:"lines"`
	TotalDebit  decimal.Decimal    `json:"total_debit"`
	TotalCredit decimal.Decimal    `json:"total_credit"`
	Difference  decimal.Decimal    `json:"difference"`
	Status      TrialBalanceStatus `json:"status"`
}

// IsBalanced returns true if the trial balance is balanced
func (tb *TrialBalance) IsBalanced() bool {
	return tb.Status == TrialBalanceStatusBalanced
}

// BuildTrialBalance presents each net balance in its debit or credit column.
func BuildTrialBalance(asOf time.Time, balances []AccountBalance) *TrialBalance {
	sorted := sortedByCode(balances)
	tb := &TrialBalance{
		AsOf:        asOf,
		Lines:       make([]TrialBalanceLine, 0, len(sorted)),
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	for _, b := range sorted {
		if b.Debit.IsZero() && b.Credit.IsZero() {
			continue
		}
		line := TrialBalanceLine{
			AccountID:     b.AccountID,
			Code:          b.Code,
			Name:          b.Name,
			Type:          b.Type,
			DebitTotal:    b.Debit,
			CreditTotal:   b.Credit,
			DebitBalance:  decimal.Zero,
			CreditBalance: decimal.Zero,
		}
		if net := b.Net(); net.IsPositive() {
			line.DebitBalance = net
		} else {
			line.CreditBalance = net.Neg()
		}
		tb.TotalDebit = tb.TotalDebit.Add(line.DebitBalance)
		tb.TotalCredit = tb.TotalCredit.Add(line.CreditBalance)
		tb.Lines = append(tb.Lines, line)
	}
	tb.Difference = tb.TotalDebit.Sub(tb.TotalCredit)
	tb.Status = TrialBalanceStatusBalanced
	if tb.Difference.Abs().GreaterThan(TrialBalanceTolerance) {
		tb.Status = TrialBalanceStatusUnbalanced
	}
	return tb
}

// StatementLine is one account on a financial statement.
type StatementLine struct {
	AccountID uuid.UUID       `json:"account_id,omitempty"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
}

// StatementSection groups lines of one account type.
type StatementSection struct {
	Type  AccountType     `json:"type"`
	Lines []StatementLine `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

func buildSection(t AccountType, balances []AccountBalance) StatementSection {
	sec := StatementSection{Type: t, Lines: make([]StatementLine, 0), Total: decimal.Zero}
	for _, b := range sortedByCode(balances) {
		if b.Type != t {
			continue
		}
		amt := b.Balance()
		if amt.IsZero() {
			continue
		}
		sec.Lines = append(sec.Lines, StatementLine{AccountID: b.AccountID, Code: b.Code, Name: b.Name, Amount: amt})
		sec.Total = sec.Total.Add(amt)
	}
	return sec
}

// BalanceSheet reports assets against liabilities and equity.
type BalanceSheet struct {
	AsOf                   time.Time        `json:"as_of"`
	Assets                 StatementSection `json:"assets"`
	Liabilities            StatementSection `json:"liabilities"`
	Equity                 StatementSection `json:"equity"`
	CurrentEarnings        decimal.Decimal  `json:"current_earnings"`
	TotalLiabilitiesEquity decimal.Decimal  `json:"total_liabilities_and_equity"`
	Balanced               bool             `json:"balanced"`
}

// BuildBalanceSheet builds the statement from balance sheet balances and
// the revenue/expense balances that make up current earnings.
func BuildBalanceSheet(asOf time.Time, balanceSheet, profitAndLoss []AccountBalance) *BalanceSheet {
	earnings := netIncome(profitAndLoss)
	bs := &BalanceSheet{
		AsOf:            asOf,
		Assets:          buildSection(AccountTypeAsset, balanceSheet),
		Liabilities:     buildSection(AccountTypeLiability, balanceSheet),
		Equity:          buildSection(AccountTypeEquity, balanceSheet),
		CurrentEarnings: earnings,
	}
	if !earnings.IsZero() {
		bs.Equity.Lines = append(bs.Equity.Lines, StatementLine{Code: "", Name: "Current Earnings", Amount: earnings})
		bs.Equity.Total = bs.Equity.Total.Add(earnings)
	}
	bs.TotalLiabilitiesEquity = bs.Liabilities.Total.Add(bs.Equity.Total)
	bs.Balanced = bs.Assets.Total.Equal(bs.TotalLiabilitiesEquity)
	return bs
}

// IncomeStatement reports revenue and expenses over a date range.
type IncomeStatement struct {
	From      time.Time        `json:"from"`
	To        time.Time        `json:"to"`
	Revenue   StatementSection `json:"revenue"`
	Expenses  StatementSection `json:"expenses"`
	NetIncome decimal.Decimal  `json:"net_income"`
}

// BuildIncomeStatement builds the statement from period balances.
func BuildIncomeStatement(from, to time.Time, balances []AccountBalance) *IncomeStatement {
	is := &IncomeStatement{
		From:     from,
		To:       to,
		Revenue:  buildSection(AccountTypeRevenue, balances),
		Expenses: buildSection(AccountTypeExpense, balances),
	}
	is.NetIncome = is.Revenue.Total.Sub(is.Expenses.Total)
	return is
}

func netIncome(balances []AccountBalance) decimal.Decimal {
	total := decimal.Zero
	for _, b := range balances {
		switch b.Type {
		case AccountTypeRevenue:
			total = total.Add(b.Balance())
		case AccountTypeExpense:
			total = total.Sub(b.Balance())
		}
	}
	return total
}

func sortedByCode(balances []AccountBalance) []AccountBalance {
	out := append([]AccountBalance(nil), balances...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// LedgerEntry is one posted line in an account ledger.
type LedgerEntry struct {
	VoucherID     uuid.UUID       `json:"voucher_id"`
	VoucherNumber string          `json:"voucher_number"`
	VoucherType   VoucherType     `json:"voucher_type"`
	Date          time.Time       `json:"date"`
	Reference     string          `json:"reference"`
	Description   string          `json:"description"`
	LineID        uuid.UUID       `json:"line_id"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	Balance       decimal.Decimal `json:"balance"`
}

// AccountLedger is the posted history of one account over a range.
type AccountLedger struct {
	AccountID      uuid.UUID       `json:"account_id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	NormalBalance  BalanceSide     `json:"normal_balance"`
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Entries        []LedgerEntry   `json:"entries"`
	TotalDebit     decimal.Decimal `json:"total_debit"`
	TotalCredit    decimal.Decimal `json:"total_credit"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
}

// BuildAccountLedger computes running balances. Entries must already be in
// posting order (date, number).
func BuildAccountLedger(account *Account, from, to time.Time, openingDebit, openingCredit decimal.Decimal, entries []LedgerEntry) *AccountLedger {
	side := account.NormalBalance()
	running := side.SignedBalance(openingDebit, openingCredit)
	l := &AccountLedger{
		AccountID:      account.ID,
		Code:           account.Code,
		Name:           account.Name,
		NormalBalance:  side,
		From:           from,
		To:             to,
		OpeningBalance: running,
		Entries:        make([]LedgerEntry, 0, len(entries)),
		TotalDebit:     decimal.Zero,
		TotalCredit:    decimal.Zero,
	}
	for _, e := range entries {
		running = running.Add(side.SignedBalance(e.Debit, e.Credit))
		e.Balance = running
		l.TotalDebit = l.TotalDebit.Add(e.Debit)
		l.TotalCredit = l.TotalCredit.Add(e.Credit)
		l.Entries = append(l.Entries, e)
	}
	l.ClosingBalance = running
	return l
}
