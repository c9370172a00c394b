package model

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAccountStatusHashIsStable(t *testing.T) {
	InitHashFunction()

	account := &AccountStatus{
		ID:              42,
		StrikeCount:     2,
		SuspensionCount: 1,
		State:           AccountActive,
	}

	hash, err := account.Hash()
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	hash2, err := account.Hash()
	require.NoError(t, err)
	require.Equal(t, hash, hash2)

	// Meta fields do not change the identity of the record.
	account.UpdatedAt = time.Now()
	hash3, err := account.Hash()
	require.NoError(t, err)
	require.Equal(t, hash, hash3)

	// Moderation fields do.
	account.StrikeCount = 0
	hash4, err := account.Hash()
	require.NoError(t, err)
	require.NotEqual(t, hash, hash4)
}

func TestAccountStatusValidate(t *testing.T) {
	now := time.Now().UTC()

	testcases := []struct {
		Name    string
		Account *AccountStatus
		Valid   bool
	}{
		{
			Name:    "fresh active account",
			Account: &AccountStatus{ID: 1, State: AccountActive},
			Valid:   true,
		},
		{
			Name: "suspended with end and zero strikes",
			Account: &AccountStatus{
				ID:            2,
				State:         AccountSuspended,
				SuspensionEnd: sql.NullTime{Time: now.Add(time.Hour), Valid: true},
			},
			Valid: true,
		},
		{
			Name:    "suspended without end",
			Account: &AccountStatus{ID: 3, State: AccountSuspended},
			Valid:   false,
		},
		{
			Name: "suspended with strikes",
			Account: &AccountStatus{
				ID:            4,
				State:         AccountSuspended,
				StrikeCount:   1,
				SuspensionEnd: sql.NullTime{Time: now, Valid: true},
			},
			Valid: false,
		},
		{
			Name: "banned with suspension end",
			Account: &AccountStatus{
				ID:            5,
				State:         AccountBanned,
				SuspensionEnd: sql.NullTime{Time: now, Valid: true},
			},
			Valid: false,
		},
		{
			Name:    "active with three strikes",
			Account: &AccountStatus{ID: 6, State: AccountActive, StrikeCount: 3},
			Valid:   false,
		},
		{
			Name:    "unknown state",
			Account: &AccountStatus{ID: 7, State: "frozen"},
			Valid:   false,
		},
	}

	for _, testcase := range testcases {
		t.Run(testcase.Name, func(t *testing.T) {
			err := testcase.Account.Validate()
			if testcase.Valid {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestSuspensionLapsed(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	account := &AccountStatus{
		ID:            1,
		State:         AccountSuspended,
		SuspensionEnd: sql.NullTime{Time: now.Add(time.Hour), Valid: true},
	}

	require.False(t, account.SuspensionLapsed(now))
	require.True(t, account.SuspensionLapsed(now.Add(time.Hour)))
	require.True(t, account.SuspensionLapsed(now.Add(2*time.Hour)))

	account.State = AccountBanned
	require.False(t, account.SuspensionLapsed(now.Add(2*time.Hour)))
}
