package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ecomarket/ecocoins-backend/pkg/db/dbtest"
	"github.com/ecomarket/ecocoins-backend/pkg/enums"
	pkgerrors "github.com/ecomarket/ecocoins-backend/pkg/errors"
)

func strPtr(v string) *string { return &v }

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t, "ledger")
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	return svc, conn
}

func TestAppendDerivesDeltaFromType(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		input AppendInput
		delta int64
	}{
		{AppendInput{UserID: "u1", Type: enums.LedgerEntryTypeEarn, Amount: 100, Source: "CHALLENGE"}, 100},
		{AppendInput{UserID: "u1", Type: enums.LedgerEntryTypeSpend, Amount: 30, Source: "ORDER"}, -30},
		{AppendInput{UserID: "u1", Type: enums.LedgerEntryTypeRefund, Amount: 10, Source: "ORDER"}, 10},
		{AppendInput{UserID: "u1", Type: enums.LedgerEntryTypeAdjust, Amount: 5, Delta: -5, Source: "ADMIN"}, -5},
	}
	for _, tc := range cases {
		entry, inserted, err := svc.Append(ctx, conn, tc.input)
		require.NoError(t, err)
		assert.True(t, inserted)
		assert.Equal(t, tc.delta, entry.Delta, string(tc.input.Type))
	}

	sum, err := svc.SumDeltas(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 75, sum)
}

func TestAppendDetectsDuplicateRef(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	input := AppendInput{UserID: "u1", Type: enums.LedgerEntryTypeEarn, Amount: 100, Source: "CHALLENGE", RefID: strPtr("C1")}

	_, inserted, err := svc.Append(ctx, conn, input)
	require.NoError(t, err)
	require.True(t, inserted)

	_, inserted, err = svc.Append(ctx, conn, input)
	require.NoError(t, err)
	assert.False(t, inserted, "same (user, type, source, ref) must be detected as already applied")

	other := input
	other.Type = enums.LedgerEntryTypeSpend
	_, inserted, err = svc.Append(ctx, conn, other)
	require.NoError(t, err)
	assert.True(t, inserted, "a different type with the same ref is a distinct entry")

	var count int64
	require.NoError(t, conn.Table("wallet_ledger_entries").Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestAppendWithoutRefIsNeverDeduplicated(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	input := AppendInput{UserID: "u1", Type: enums.LedgerEntryTypeEarn, Amount: 1, Source: "CHALLENGE", RefID: strPtr("  ")}

	for i := 0; i < 3; i++ {
		_, inserted, err := svc.Append(ctx, conn, input)
		require.NoError(t, err)
		assert.True(t, inserted)
	}
	sum, err := svc.SumDeltas(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, sum)
}

func TestAppendValidation(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	bad := []AppendInput{
		{Type: enums.LedgerEntryTypeEarn, Amount: 1, Source: "X"},
		{UserID: "u1", Type: "BONUS", Amount: 1, Source: "X"},
		{UserID: "u1", Type: enums.LedgerEntryTypeEarn, Amount: 1},
		{UserID: "u1", Type: enums.LedgerEntryTypeEarn, Amount: -1, Source: "X"},
		{UserID: "u1", Type: enums.LedgerEntryTypeAdjust, Amount: 5, Delta: 3, Source: "ADMIN"},
	}
	for _, input := range bad {
		_, _, err := svc.Append(ctx, conn, input)
		require.Error(t, err)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "%+v", input)
	}
}

func TestRecentIsNewestFirstAndLimited(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		_, _, err := svc.Append(ctx, conn, AppendInput{UserID: "u1", Type: enums.LedgerEntryTypeEarn, Amount: i, Source: "CHALLENGE"})
		require.NoError(t, err)
	}
	_, _, err := svc.Append(ctx, conn, AppendInput{UserID: "u2", Type: enums.LedgerEntryTypeEarn, Amount: 99, Source: "CHALLENGE"})
	require.NoError(t, err)

	entries, err := svc.Recent(ctx, "u1", 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.EqualValues(t, 5, entries[0].Amount)
	assert.EqualValues(t, 4, entries[1].Amount)
	assert.EqualValues(t, 3, entries[2].Amount)

	sums, err := svc.SumDeltasByUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"u1": 15, "u2": 99}, sums)
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(nil)
	assert.Error(t, err)
}
