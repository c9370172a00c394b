package model

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/lexora-app/moderation-server/internal/utility"
)

type (
	UserID int64
)

// AccountState is the moderation status of an account.
type AccountState string

const (
	AccountActive    AccountState = "active"
	AccountSuspended AccountState = "suspended"
	AccountBanned    AccountState = "banned"
)

// Valid reports whether the state is one of the known values.
func (s AccountState) Valid() bool {
	switch s {
	case AccountActive, AccountSuspended, AccountBanned:
		return true
	}

	return false
}

// AccountStatus is the live moderation state of one account.
// There is exactly one row per user and it is only ever mutated inside a
// per-account transaction.
type AccountStatus struct {
	ID UserID `gorm:"primaryKey" hash:"x" json:"id"` // Unique identifier of the account.

	StrikeCount     uint         `gorm:"not null;default:0"        hash:"x" json:"strike_count"`     // Strikes since the last suspension, 0..2 while active.
	SuspensionCount uint         `gorm:"not null;default:0"        hash:"x" json:"suspension_count"` // Lifetime suspensions, never decremented automatically.
	State           AccountState `gorm:"not null;default:'active'" hash:"x" json:"state"`
	SuspensionEnd   sql.NullTime `hash:"x" json:"suspension_end"`    // Set iff the account is suspended.
	LastViolationAt sql.NullTime `hash:"x" json:"last_violation_at"` // Time of the most recent recorded violation.
	BannedAt        sql.NullTime `hash:"x" json:"banned_at"`
	BannedReason    string       `hash:"x" json:"banned_reason"`

	// Meta fields
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Extra     string    `json:"extra"` // Extra data.
}

// TableName - set the table name.
func (AccountStatus) TableName() string {
	return "account_moderation"
}

// GetID - get the account ID.
func (obj *AccountStatus) GetID() int64 {
	return int64(obj.ID)
}

// Hash - calculate the hash of the object.
func (obj *AccountStatus) Hash() (string, error) {
	return utility.Hash(obj)
}

// Suspended reports whether the account currently holds a suspension,
// expired or not.
func (obj *AccountStatus) Suspended() bool {
	return obj.State == AccountSuspended
}

// Banned reports whether the account is permanently banned.
func (obj *AccountStatus) Banned() bool {
	return obj.State == AccountBanned
}

// SuspensionLapsed reports whether a suspended account's window has passed.
func (obj *AccountStatus) SuspensionLapsed(now time.Time) bool {
	return obj.State == AccountSuspended && obj.SuspensionEnd.Valid && !now.Before(obj.SuspensionEnd.Time)
}

// Validate checks the cross-field invariants of the row.
func (obj *AccountStatus) Validate() error {
	switch obj.State {
	case AccountSuspended:
		if !obj.SuspensionEnd.Valid {
			return fmt.Errorf("suspended account %d has no suspension end", obj.ID)
		}

		if obj.StrikeCount != 0 {
			return fmt.Errorf("suspended account %d has %d strikes", obj.ID, obj.StrikeCount)
		}
	case AccountBanned:
		if obj.SuspensionEnd.Valid {
			return fmt.Errorf("banned account %d has a suspension end", obj.ID)
		}
	case AccountActive:
		if obj.StrikeCount > 2 {
			return fmt.Errorf("active account %d has %d strikes", obj.ID, obj.StrikeCount)
		}
	default:
		return fmt.Errorf("account %d has unknown state %q", obj.ID, obj.State)
	}

	return nil
}

// ToInt64 - get the user ID.
func (id UserID) ToInt64() int64 {
	return int64(id)
}

// ToString - get the user ID.
func (id UserID) ToString() string {
	return strconv.FormatInt(int64(id), 10)
}
