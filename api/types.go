package api

import "time"

// Account is the wire shape of an account's moderation state.
type Account struct {
	ID              int64      `json:"id"`
	StrikeCount     uint       `json:"strike_count"`
	SuspensionCount uint       `json:"suspension_count"`
	Status          string     `json:"status"`
	SuspensionEnd   *time.Time `json:"suspension_end,omitempty"`
	LastViolationAt *time.Time `json:"last_violation_at,omitempty"`
	BannedAt        *time.Time `json:"banned_at,omitempty"`
	BannedReason    string     `json:"banned_reason,omitempty"`
}

// Violation is the wire shape of one recorded violation.
type Violation struct {
	ID                   string             `json:"id"`
	UserID               int64              `json:"user_id"`
	ViolationType        string             `json:"violation_type"`
	Origin               string             `json:"origin"`
	ContentID            string             `json:"content_id,omitempty"`
	ContentText          string             `json:"content_text,omitempty"`
	FlaggedCategories    map[string]bool    `json:"flagged_categories,omitempty"`
	CategoryScores       map[string]float64 `json:"category_scores,omitempty"`
	Summary              string             `json:"summary,omitempty"`
	ActionTaken          string             `json:"action_taken"`
	StrikeCountAfter     uint               `json:"strike_count_after"`
	SuspensionCountAfter uint               `json:"suspension_count_after"`
	CreatedAt            time.Time          `json:"created_at"`
}

// Suspension is the wire shape of one ledger entry.
type Suspension struct {
	ID                  int64      `json:"id"`
	UserID              int64      `json:"user_id"`
	SuspensionType      string     `json:"suspension_type"`
	Reason              string     `json:"reason"`
	ViolationIDs        []string   `json:"violation_ids"`
	SuspensionNumber    uint       `json:"suspension_number"`
	StrikesAtSuspension uint       `json:"strikes_at_suspension"`
	StartedAt           time.Time  `json:"started_at"`
	EndsAt              *time.Time `json:"ends_at,omitempty"`
	Status              string     `json:"status"`
	LiftedAt            *time.Time `json:"lifted_at,omitempty"`
	LiftedBy            string     `json:"lifted_by,omitempty"`
	LiftedReason        string     `json:"lifted_reason,omitempty"`
}

// Appeal is the wire shape of one appeal.
type Appeal struct {
	ID                int64      `json:"id"`
	UserID            int64      `json:"user_id"`
	SuspensionID      int64      `json:"suspension_id"`
	AppealReason      string     `json:"appeal_reason"`
	AdditionalContext string     `json:"additional_context,omitempty"`
	Status            string     `json:"status"`
	ReviewedBy        string     `json:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time `json:"reviewed_at,omitempty"`
	AdminNotes        string     `json:"admin_notes,omitempty"`
	RejectionReason   string     `json:"rejection_reason,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Enforcement is the wire shape of one recording outcome.
type Enforcement struct {
	Account    *Account    `json:"account"`
	Violation  *Violation  `json:"violation"`
	Suspension *Suspension `json:"suspension,omitempty"`
}
