package model

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/lexora-app/moderation-server/internal/utility"
)

// SuspensionType distinguishes a time-boxed suspension from a permanent ban
// entry in the ledger.
type SuspensionType string

const (
	SuspensionTemporary SuspensionType = "temporary"
	SuspensionPermanent SuspensionType = "permanent"
)

// SuspensionState is the lifecycle state of a ledger entry.
type SuspensionState string

const (
	SuspensionActive  SuspensionState = "active"
	SuspensionLifted  SuspensionState = "lifted"
	SuspensionExpired SuspensionState = "expired"
)

// Valid reports whether the state is one of the known values.
func (s SuspensionState) Valid() bool {
	switch s {
	case SuspensionActive, SuspensionLifted, SuspensionExpired:
		return true
	}

	return false
}

// ViolationIDs is the ordered evidence trail of a suspension, stored as JSON.
type ViolationIDs []string

func (v ViolationIDs) Value() (driver.Value, error) {
	if v == nil {
		return "[]", nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return string(data), nil
}

func (v *ViolationIDs) Scan(value interface{}) error {
	return scanJSONColumn(value, v)
}

// Suspension is one entry of the append-only suspension ledger.
// At most one entry per account is active at a time.
type Suspension struct {
	ID     int64          `gorm:"primaryKey;autoIncrement" hash:"x" json:"id"`
	UserID UserID         `gorm:"index;not null"           hash:"x" json:"user_id"`
	Type   SuspensionType `gorm:"not null"                 hash:"x" json:"suspension_type"`
	Reason string         `gorm:"not null"                 hash:"x" json:"reason"`

	ViolationIDs        ViolationIDs `gorm:"type:text" hash:"x" json:"violation_ids"`         // Oldest first, never empty.
	SuspensionNumber    uint         `gorm:"not null"  hash:"x" json:"suspension_number"`     // 1-based, per account.
	StrikesAtSuspension uint         `hash:"x" json:"strikes_at_suspension"`

	StartedAt time.Time    `gorm:"not null"    hash:"x" json:"started_at"`
	EndsAt    sql.NullTime `hash:"x" json:"ends_at"` // Null iff permanent.

	State        SuspensionState `gorm:"not null;index" json:"status"`
	LiftedAt     sql.NullTime    `json:"lifted_at"`
	LiftedBy     string          `json:"lifted_by"`
	LiftedReason string          `json:"lifted_reason"`

	// Meta fields
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Extra     string    `json:"extra"` // Extra data.
}

// TableName - set the table name.
func (Suspension) TableName() string {
	return "suspensions"
}

// GetID - get the suspension ID.
func (obj *Suspension) GetID() int64 {
	return obj.ID
}

// Hash - calculate the hash of the object.
func (obj *Suspension) Hash() (string, error) {
	return utility.Hash(obj)
}

// Permanent reports whether the entry represents a ban.
func (obj *Suspension) Permanent() bool {
	return obj.Type == SuspensionPermanent
}

// Lapsed reports whether a temporary suspension's window has passed.
func (obj *Suspension) Lapsed(now time.Time) bool {
	return obj.State == SuspensionActive && obj.EndsAt.Valid && !now.Before(obj.EndsAt.Time)
}
