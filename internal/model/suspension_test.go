package model

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestViolationIDsColumnRoundTrip(t *testing.T) {
	ids := ViolationIDs{"a", "b", "c"}

	value, err := ids.Value()
	require.NoError(t, err)
	require.JSONEq(t, `["a","b","c"]`, value.(string))

	var scanned ViolationIDs
	require.NoError(t, scanned.Scan(value))
	require.Equal(t, ids, scanned)

	// Nil list still stores a readable column.
	value, err = ViolationIDs(nil).Value()
	require.NoError(t, err)
	require.JSONEq(t, `[]`, value.(string))
}

func TestCategoryColumnsTolerateNull(t *testing.T) {
	var flags CategoryFlags
	require.NoError(t, flags.Scan(nil))
	require.Nil(t, flags)

	require.NoError(t, flags.Scan(`{"hate":true}`))
	require.True(t, flags["hate"])

	var scores CategoryScores
	require.NoError(t, scores.Scan([]byte(`{"hate":0.97}`)))
	require.InDelta(t, 0.97, scores["hate"], 1e-9)

	require.Error(t, scores.Scan(42))
}

func TestSuspensionEntryLapsed(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	entry := &Suspension{
		ID:     1,
		UserID: 1,
		Type:   SuspensionTemporary,
		State:  SuspensionActive,
		EndsAt: sql.NullTime{Time: now.Add(24 * time.Hour), Valid: true},
	}

	require.False(t, entry.Lapsed(now))
	require.True(t, entry.Lapsed(now.Add(24*time.Hour)))

	// Permanent entries never lapse.
	permanent := &Suspension{ID: 2, Type: SuspensionPermanent, State: SuspensionActive}
	require.False(t, permanent.Lapsed(now.Add(1000*time.Hour)))
	require.True(t, permanent.Permanent())

	// Lifted entries never lapse either.
	entry.State = SuspensionLifted
	require.False(t, entry.Lapsed(now.Add(48*time.Hour)))
}
