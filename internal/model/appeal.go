package model

import (
	"database/sql"
	"time"

	"github.com/lexora-app/moderation-server/internal/utility"
)

// AppealState is the review lifecycle of an appeal.
type AppealState string

const (
	AppealPending     AppealState = "pending"
	AppealUnderReview AppealState = "under_review"
	AppealApproved    AppealState = "approved"
	AppealRejected    AppealState = "rejected"
)

// Terminal reports whether the appeal has been resolved.
func (s AppealState) Terminal() bool {
	return s == AppealApproved || s == AppealRejected
}

// Appeal is a user's contest of exactly one suspension.
// The unique index on SuspensionID enforces one appeal per suspension.
type Appeal struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" hash:"x" json:"id"`
	UserID       UserID `gorm:"index;not null"           hash:"x" json:"user_id"`
	SuspensionID int64  `gorm:"uniqueIndex;not null"     hash:"x" json:"suspension_id"`

	Reason            string `gorm:"not null" hash:"x" json:"appeal_reason"`
	AdditionalContext string `hash:"x" json:"additional_context"`

	State           AppealState  `gorm:"not null;index" json:"status"`
	ReviewedBy      string       `json:"reviewed_by"`
	ReviewedAt      sql.NullTime `json:"reviewed_at"`
	AdminNotes      string       `json:"admin_notes"`
	RejectionReason string       `json:"rejection_reason"`

	// Meta fields
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Extra     string    `json:"extra"` // Extra data.
}

// TableName - set the table name.
func (Appeal) TableName() string {
	return "appeals"
}

// GetID - get the appeal ID.
func (obj *Appeal) GetID() int64 {
	return obj.ID
}

// Hash - calculate the hash of the object.
func (obj *Appeal) Hash() (string, error) {
	return utility.Hash(obj)
}
