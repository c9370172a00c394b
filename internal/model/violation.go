package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/lexora-app/moderation-server/internal/utility"
)

// ViolationType is the surface the flagged content came from.
type ViolationType string

const (
	ViolationForumPost     ViolationType = "forum_post"
	ViolationForumReply    ViolationType = "forum_reply"
	ViolationChatbotPrompt ViolationType = "chatbot_prompt"
	ViolationAdminAction   ViolationType = "admin_action"
)

// Valid reports whether the type is one of the known values.
func (t ViolationType) Valid() bool {
	switch t {
	case ViolationForumPost, ViolationForumReply, ViolationChatbotPrompt, ViolationAdminAction:
		return true
	}

	return false
}

// ViolationOrigin tags how a violation entered the system.
type ViolationOrigin string

const (
	OriginAutomatic     ViolationOrigin = "automatic"      // classifier-driven pipeline
	OriginAdminOverride ViolationOrigin = "admin_override" // manual admin action
)

// EnforcementAction is the outcome of recording a violation.
type EnforcementAction string

const (
	ActionStrikeAdded EnforcementAction = "strike_added"
	ActionSuspended   EnforcementAction = "suspended"
	ActionBanned      EnforcementAction = "banned"
)

var errorUnexpectedColumnType = errors.New("unexpected column type")

// CategoryFlags is the classifier's per-category flag map, stored as JSON.
type CategoryFlags map[string]bool

func (c CategoryFlags) Value() (driver.Value, error) {
	if c == nil {
		return "{}", nil
	}

	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}

	return string(data), nil
}

func (c *CategoryFlags) Scan(value interface{}) error {
	return scanJSONColumn(value, c)
}

// CategoryScores is the classifier's per-category score map, stored as JSON.
type CategoryScores map[string]float64

func (c CategoryScores) Value() (driver.Value, error) {
	if c == nil {
		return "{}", nil
	}

	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}

	return string(data), nil
}

func (c *CategoryScores) Scan(value interface{}) error {
	return scanJSONColumn(value, c)
}

func scanJSONColumn(value interface{}, out interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, out)
	case string:
		return json.Unmarshal([]byte(v), out)
	default:
		return errorUnexpectedColumnType
	}
}

// Violation is one flagged-content event together with the enforcement
// decision it produced. Rows are immutable once created and only removed
// by a cascading account deletion.
type Violation struct {
	ID     string          `gorm:"primaryKey"     hash:"x" json:"id"` // UUID assigned by the recorder.
	UserID UserID          `gorm:"index;not null" hash:"x" json:"user_id"`
	Type   ViolationType   `gorm:"not null"       hash:"x" json:"violation_type"`
	Origin ViolationOrigin `gorm:"not null"       hash:"x" json:"origin"`

	ContentID   string `gorm:"index" hash:"x" json:"content_id"` // Stable id of the flagged content item.
	ContentText string `hash:"x" json:"content_text"`            // Snapshot, not a live reference.

	// Classifier verdict, stored as opaque metadata.
	FlaggedCategories CategoryFlags  `gorm:"type:text" json:"flagged_categories"`
	CategoryScores    CategoryScores `gorm:"type:text" json:"category_scores"`
	Summary           string         `json:"summary"`

	// Post-decision counters, stamped at recording time.
	ActionTaken          EnforcementAction `gorm:"not null" hash:"x" json:"action_taken"`
	StrikeCountAfter     uint              `hash:"x" json:"strike_count_after"`
	SuspensionCountAfter uint              `hash:"x" json:"suspension_count_after"`

	// Meta fields
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	Extra     string    `json:"extra"` // Extra data.
}

// TableName - set the table name.
func (Violation) TableName() string {
	return "violations"
}

// Hash - calculate the hash of the object.
func (obj *Violation) Hash() (string, error) {
	return utility.Hash(obj)
}
