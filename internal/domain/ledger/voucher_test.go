package ledger

import (
	"testing"
	"time"

	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newDraft(t *testing.T) *JournalVoucher {
	t.Helper()
	v, err := NewJournalVoucher(uuid.New(), VoucherTypeGeneral, shared.MustParseDate("2026-03-15"), "Office rent")
	require.NoError(t, err)
	return v
}

func TestJournalVoucherAddLine(t *testing.T) {
	tests := []struct {
		name    string
		debit   string
		credit  string
		wantErr bool
	}{
		{"debit only", "100", "0", false},
		{"credit only", "0", "100", false},
		{"both sides", "100", "100", true},
		{"neither side", "0", "0", true},
		{"negative debit", "-5", "0", true},
		{"rounds below a cent to zero", "0.004", "0", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newDraft(t)
			err := v.AddLine(LineInput{AccountID: uuid.New(), Debit: d(tt.debit), Credit: d(tt.credit)})
			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, v.Lines)
			} else {
				require.NoError(t, err)
				assert.Len(t, v.Lines, 1)
			}
		})
	}

	t.Run("requires account", func(t *testing.T) {
		v := newDraft(t)
		assert.Error(t, v.Debit(uuid.Nil, d("10"), ""))
	})

	t.Run("rounds amounts to cents", func(t *testing.T) {
		v := newDraft(t)
		require.NoError(t, v.Debit(uuid.New(), d("10.005"), ""))
		assert.True(t, v.Lines[0].Debit.Equal(d("10.01")))
	})
}

func TestJournalVoucherValidate(t *testing.T) {
	cash, rent := uuid.New(), uuid.New()

	t.Run("balanced voucher passes", func(t *testing.T) {
		v := newDraft(t)
		require.NoError(t, v.Debit(rent, d("1200"), ""))
		require.NoError(t, v.Credit(cash, d("1200"), ""))
		assert.NoError(t, v.Validate())
	})

	t.Run("single line fails", func(t *testing.T) {
		v := newDraft(t)
		require.NoError(t, v.Debit(rent, d("1200"), ""))
		err := v.Validate()
		de, ok := shared.GetDomainError(err)
		require.True(t, ok)
		assert.Equal(t, CodeUnbalancedVoucher, de.Code)
	})

	t.Run("unbalanced voucher reports totals", func(t *testing.T) {
		v := newDraft(t)
		require.NoError(t, v.Debit(rent, d("1200"), ""))
		require.NoError(t, v.Credit(cash, d("1000"), ""))
		err := v.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1200.00")
		assert.Contains(t, err.Error(), "1000.00")
	})

	t.Run("split lines balance", func(t *testing.T) {
		v := newDraft(t)
		require.NoError(t, v.Debit(rent, d("33.33"), ""))
		require.NoError(t, v.Debit(rent, d("33.33"), ""))
		require.NoError(t, v.Debit(rent, d("33.34"), ""))
		require.NoError(t, v.Credit(cash, d("100"), ""))
		assert.NoError(t, v.Validate())
	})
}

func TestJournalVoucherPost(t *testing.T) {
	v := newDraft(t)
	require.NoError(t, v.Debit(uuid.New(), d("50"), ""))
	require.NoError(t, v.Credit(uuid.New(), d("50"), ""))

	user := uuid.New()
	now := time.Now()
	require.NoError(t, v.Post("JV-2026-00001", user, now))

	assert.Equal(t, VoucherStatusPosted, v.Status)
	assert.Equal(t, "JV-2026-00001", v.Number)
	assert.Equal(t, &user, v.PostedBy)
	assert.True(t, v.IsPosted())

	events := v.GetDomainEvents()
	require.Len(t, events, 1)
	posted := events[0].(*VoucherPostedEvent)
	assert.True(t, posted.Amount.Equal(d("50")))

	t.Run("posted voucher is immutable", func(t *testing.T) {
		assert.ErrorIs(t, v.Debit(uuid.New(), d("1"), ""), ErrVoucherNotDraft)
		assert.ErrorIs(t, v.UpdateHeader(now, "", ""), ErrVoucherNotDraft)
		assert.ErrorIs(t, v.ReplaceLines(nil), ErrVoucherNotDraft)
		assert.Error(t, v.Post("JV-2026-00002", user, now))
	})
}

func TestJournalVoucherReplaceLinesKeepsOldOnError(t *testing.T) {
	v := newDraft(t)
	a := uuid.New()
	require.NoError(t, v.Debit(a, d("10"), ""))

	err := v.ReplaceLines([]LineInput{
		{AccountID: uuid.New(), Debit: d("5")},
		{AccountID: uuid.New()},
	})
	require.Error(t, err)
	require.Len(t, v.Lines, 1)
	assert.Equal(t, a, v.Lines[0].AccountID)
}

func TestJournalVoucherReversal(t *testing.T) {
	expense, cash := uuid.New(), uuid.New()
	v := newDraft(t)
	require.NoError(t, v.Debit(expense, d("80"), "fuel"))
	require.NoError(t, v.Credit(cash, d("80"), "fuel"))

	_, err := v.NewReversal(time.Time{}, "")
	assert.Error(t, err, "drafts cannot be reversed")

	require.NoError(t, v.Post("JV-2026-00007", uuid.Nil, time.Now()))

	_, err = v.NewReversal(shared.MustParseDate("2026-03-01"), "")
	assert.Error(t, err, "reversal cannot precede original")

	rev, err := v.NewReversal(shared.MustParseDate("2026-04-01"), "duplicate entry")
	require.NoError(t, err)
	assert.Equal(t, VoucherTypeReversal, rev.Type)
	assert.Equal(t, "JV-2026-00007", rev.Reference)
	assert.Equal(t, "Reversal of JV-2026-00007: duplicate entry", rev.Description)
	require.Len(t, rev.Lines, 2)
	assert.Equal(t, expense, rev.Lines[0].AccountID)
	assert.True(t, rev.Lines[0].Credit.Equal(d("80")))
	assert.True(t, rev.Lines[1].Debit.Equal(d("80")))
	require.NoError(t, rev.Validate())

	assert.Error(t, v.MarkReversed(rev, uuid.Nil), "reversal must be posted first")
	require.NoError(t, rev.Post("RJ-2026-00001", uuid.Nil, time.Now()))
	require.NoError(t, v.MarkReversed(rev, uuid.Nil))
	assert.Equal(t, VoucherStatusReversed, v.Status)
	assert.True(t, v.IsPosted())

	_, err = v.NewReversal(time.Time{}, "")
	assert.ErrorContains(t, err, "already been reversed")

	_, err = rev.NewReversal(time.Time{}, "")
	assert.Error(t, err)
}

func TestFormatDocumentNumber(t *testing.T) {
	assert.Equal(t, "JV-2026-00001", FormatDocumentNumber(VoucherTypeGeneral.Prefix(), 2026, 1))
	assert.Equal(t, "INV-2026-12345", FormatDocumentNumber(PrefixInvoice, 2026, 12345))
	assert.Equal(t, "MO-2026-100000", FormatDocumentNumber(PrefixProductionOrder, 2026, 100000))
}
