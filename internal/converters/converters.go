package converters

import (
	"database/sql"
	"time"

	"github.com/lexora-app/moderation-server/api"
	"github.com/lexora-app/moderation-server/internal/model"
	"github.com/lexora-app/moderation-server/internal/storage"
)

func nullableTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}

	value := t.Time

	return &value
}

// Convert a moderation state row to its wire shape.
func AccountToAPI(account *model.AccountStatus) *api.Account {
	if account == nil {
		return nil
	}

	return &api.Account{
		ID:              account.GetID(),
		StrikeCount:     account.StrikeCount,
		SuspensionCount: account.SuspensionCount,
		Status:          string(account.State),
		SuspensionEnd:   nullableTime(account.SuspensionEnd),
		LastViolationAt: nullableTime(account.LastViolationAt),
		BannedAt:        nullableTime(account.BannedAt),
		BannedReason:    account.BannedReason,
	}
}

// Convert a violation record to its wire shape.
func ViolationToAPI(violation *model.Violation) *api.Violation {
	if violation == nil {
		return nil
	}

	return &api.Violation{
		ID:                   violation.ID,
		UserID:               violation.UserID.ToInt64(),
		ViolationType:        string(violation.Type),
		Origin:               string(violation.Origin),
		ContentID:            violation.ContentID,
		ContentText:          violation.ContentText,
		FlaggedCategories:    violation.FlaggedCategories,
		CategoryScores:       violation.CategoryScores,
		Summary:              violation.Summary,
		ActionTaken:          string(violation.ActionTaken),
		StrikeCountAfter:     violation.StrikeCountAfter,
		SuspensionCountAfter: violation.SuspensionCountAfter,
		CreatedAt:            violation.CreatedAt,
	}
}

// Convert a ledger entry to its wire shape.
func SuspensionToAPI(suspension *model.Suspension) *api.Suspension {
	if suspension == nil {
		return nil
	}

	return &api.Suspension{
		ID:                  suspension.ID,
		UserID:              suspension.UserID.ToInt64(),
		SuspensionType:      string(suspension.Type),
		Reason:              suspension.Reason,
		ViolationIDs:        suspension.ViolationIDs,
		SuspensionNumber:    suspension.SuspensionNumber,
		StrikesAtSuspension: suspension.StrikesAtSuspension,
		StartedAt:           suspension.StartedAt,
		EndsAt:              nullableTime(suspension.EndsAt),
		Status:              string(suspension.State),
		LiftedAt:            nullableTime(suspension.LiftedAt),
		LiftedBy:            suspension.LiftedBy,
		LiftedReason:        suspension.LiftedReason,
	}
}

// Convert an appeal to its wire shape.
func AppealToAPI(appeal *model.Appeal) *api.Appeal {
	if appeal == nil {
		return nil
	}

	return &api.Appeal{
		ID:                appeal.ID,
		UserID:            appeal.UserID.ToInt64(),
		SuspensionID:      appeal.SuspensionID,
		AppealReason:      appeal.Reason,
		AdditionalContext: appeal.AdditionalContext,
		Status:            string(appeal.State),
		ReviewedBy:        appeal.ReviewedBy,
		ReviewedAt:        nullableTime(appeal.ReviewedAt),
		AdminNotes:        appeal.AdminNotes,
		RejectionReason:   appeal.RejectionReason,
		CreatedAt:         appeal.CreatedAt,
		UpdatedAt:         appeal.UpdatedAt,
	}
}

// Convert a recording outcome to its wire shape.
func EnforcementToAPI(outcome *storage.ViolationOutcome) *api.Enforcement {
	if outcome == nil {
		return nil
	}

	return &api.Enforcement{
		Account:    AccountToAPI(outcome.Account),
		Violation:  ViolationToAPI(outcome.Violation),
		Suspension: SuspensionToAPI(outcome.Suspension),
	}
}

// Convert a violation slice to its wire shape.
func ViolationsToAPI(violations []model.Violation) []api.Violation {
	out := make([]api.Violation, 0, len(violations))
	for i := range violations {
		out = append(out, *ViolationToAPI(&violations[i]))
	}

	return out
}

// Convert a suspension slice to its wire shape.
func SuspensionsToAPI(suspensions []model.Suspension) []api.Suspension {
	out := make([]api.Suspension, 0, len(suspensions))
	for i := range suspensions {
		out = append(out, *SuspensionToAPI(&suspensions[i]))
	}

	return out
}

// Convert an appeal slice to its wire shape.
func AppealsToAPI(appeals []model.Appeal) []api.Appeal {
	out := make([]api.Appeal, 0, len(appeals))
	for i := range appeals {
		out = append(out, *AppealToAPI(&appeals[i]))
	}

	return out
}
