package moderation

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	moderr "github.com/lexora-app/moderation-server/internal/err"
	"github.com/lexora-app/moderation-server/internal/model"
	"github.com/lexora-app/moderation-server/internal/policy"
	"github.com/lexora-app/moderation-server/internal/storage"
)

// Admin overrides cover content the classifier never scored. Strike
// applications still travel the normal ladder; force-suspend and force-ban
// bypass it. Every override writes a synthetic violation record so no
// suspension is ever left without an evidence trail.

// adminViolation builds the synthetic record for one override action.
func adminViolation(userID model.UserID, adminID, reason string) *model.Violation {
	verdict := model.AdminVerdict(reason)

	return &model.Violation{
		ID:                uuid.NewString(),
		UserID:            userID,
		Type:              model.ViolationAdminAction,
		Origin:            model.OriginAdminOverride,
		ContentID:         "admin:" + uuid.NewString(),
		ContentText:       reason,
		FlaggedCategories: verdict.Categories,
		CategoryScores:    verdict.Scores,
		Summary:           "admin override by " + adminID + ": " + reason,
	}
}

func validateOverride(userID model.UserID, adminID, reason string) error {
	if userID == 0 {
		return moderr.WrapValidation("user_id is required")
	}

	if adminID == "" {
		return moderr.WrapValidation("admin id is required")
	}

	if reason == "" {
		return moderr.WrapValidation("reason is required")
	}

	return nil
}

// ApplyStrike adds one manual strike through the normal ladder, so a third
// manual strike escalates exactly like an automatic one.
func (e *Engine) ApplyStrike(ctx context.Context, userID model.UserID, adminID, reason string) (*storage.ViolationOutcome, error) {
	if err := validateOverride(userID, adminID, reason); err != nil {
		return nil, err
	}

	violation := adminViolation(userID, adminID, reason)

	now := e.now()
	thresholds := e.thresholds()

	outcome, err := e.db.ApplyViolation(ctx, violation, reason, 0, now,
		func(account *model.AccountStatus) policy.Decision {
			return policy.Decide(account, now, thresholds)
		})
	if err != nil {
		return nil, err
	}

	e.logOverride(ctx, "strike applied", userID, adminID)
	e.metrics.LogEnforcement(string(outcome.Violation.ActionTaken), userID.ToInt64(), map[string]interface{}{
		"origin": string(model.OriginAdminOverride),
	})

	return outcome, nil
}

// ForceSuspend bypasses the ladder and installs a suspension directly.
// A zero duration means the configured default window.
func (e *Engine) ForceSuspend(ctx context.Context, userID model.UserID, adminID, reason string, duration time.Duration) (*storage.ViolationOutcome, error) {
	if err := validateOverride(userID, adminID, reason); err != nil {
		return nil, err
	}

	if duration <= 0 {
		duration = e.suspensionDuration()
	}

	outcome, err := e.db.ForceSuspend(ctx, adminViolation(userID, adminID, reason), reason, duration, e.now())
	if err != nil {
		return nil, err
	}

	e.logOverride(ctx, "account force-suspended", userID, adminID)
	e.metrics.LogEnforcement(string(model.ActionSuspended), userID.ToInt64(), map[string]interface{}{
		"origin": string(model.OriginAdminOverride),
	})

	return outcome, nil
}

// ForcePermanentBan bypasses the ladder and installs a permanent ban.
func (e *Engine) ForcePermanentBan(ctx context.Context, userID model.UserID, adminID, reason string) (*storage.ViolationOutcome, error) {
	if err := validateOverride(userID, adminID, reason); err != nil {
		return nil, err
	}

	outcome, err := e.db.ForceBan(ctx, adminViolation(userID, adminID, reason), reason, e.now())
	if err != nil {
		return nil, err
	}

	e.logOverride(ctx, "account force-banned", userID, adminID)
	e.metrics.LogEnforcement(string(model.ActionBanned), userID.ToInt64(), map[string]interface{}{
		"origin": string(model.OriginAdminOverride),
	})

	return outcome, nil
}

// LiftSuspension ends an active suspension early. History stays: the strike
// and suspension counters are untouched.
func (e *Engine) LiftSuspension(ctx context.Context, suspensionID int64, adminID, reason string) (*model.Suspension, error) {
	if adminID == "" {
		return nil, moderr.WrapValidation("admin id is required")
	}

	if reason == "" {
		return nil, moderr.WrapValidation("reason is required")
	}

	lifted, err := e.db.LiftSuspension(ctx, suspensionID, adminID, reason, e.now())
	if err != nil {
		return nil, err
	}

	e.logOverride(ctx, "suspension lifted", lifted.UserID, adminID)

	return lifted, nil
}

// Unban is the explicit reversal of a permanent ban, logged as its own
// admin action.
func (e *Engine) Unban(ctx context.Context, userID model.UserID, adminID, reason string) (*model.AccountStatus, error) {
	if err := validateOverride(userID, adminID, reason); err != nil {
		return nil, err
	}

	account, err := e.db.Unban(ctx, userID, adminID, reason, e.now())
	if err != nil {
		return nil, err
	}

	e.logOverride(ctx, "account unbanned", userID, adminID)

	return account, nil
}

// RemoveStrike is the admin correction: decrement floored at zero, never an
// escalation, never a change to the suspension count.
func (e *Engine) RemoveStrike(ctx context.Context, userID model.UserID, adminID string) (*model.AccountStatus, error) {
	if userID == 0 {
		return nil, moderr.WrapValidation("user_id is required")
	}

	if adminID == "" {
		return nil, moderr.WrapValidation("admin id is required")
	}

	account, err := e.db.RemoveStrike(ctx, userID, policy.RemoveStrike)
	if err != nil {
		return nil, err
	}

	e.logOverride(ctx, "strike removed", userID, adminID)

	return account, nil
}

func (e *Engine) logOverride(ctx context.Context, msg string, userID model.UserID, adminID string) {
	e.logger.InfoContext(ctx, msg,
		slog.Int64("user_id", userID.ToInt64()),
		slog.String("admin_id", adminID),
	)
}
