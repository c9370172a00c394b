package moderation

import (
	"context"
	"log/slog"

	moderr "github.com/lexora-app/moderation-server/internal/err"
	"github.com/lexora-app/moderation-server/internal/model"
)

// Appeal resolution outcomes accepted over the API.
const (
	AppealOutcomeApproved = "approved"
	AppealOutcomeRejected = "rejected"
)

// SubmitAppeal lets a suspended user contest exactly one suspension.
func (e *Engine) SubmitAppeal(ctx context.Context, userID model.UserID, suspensionID int64, reason, additionalContext string) (*model.Appeal, error) {
	if userID == 0 {
		return nil, moderr.WrapValidation("user_id is required")
	}

	if suspensionID == 0 {
		return nil, moderr.WrapValidation("suspension_id is required")
	}

	if reason == "" {
		return nil, moderr.WrapValidation("appeal_reason is required")
	}

	entry, err := e.db.Suspension(ctx, suspensionID)
	if err != nil {
		return nil, err
	}

	// A user can only contest their own suspension.
	if entry.UserID != userID {
		return nil, moderr.WrapValidation("suspension %d does not belong to user %d", suspensionID, userID)
	}

	appeal := &model.Appeal{
		UserID:            userID,
		SuspensionID:      suspensionID,
		Reason:            reason,
		AdditionalContext: additionalContext,
	}

	if err := e.db.CreateAppeal(ctx, appeal); err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "appeal submitted",
		slog.Int64("user_id", userID.ToInt64()),
		slog.Int64("suspension_id", suspensionID),
		slog.Int64("appeal_id", appeal.ID),
	)

	return appeal, nil
}

// BeginAppealReview - pending → under_review, attributed to the reviewer.
func (e *Engine) BeginAppealReview(ctx context.Context, appealID int64, adminID string) (*model.Appeal, error) {
	if adminID == "" {
		return nil, moderr.WrapValidation("admin id is required")
	}

	return e.db.BeginReview(ctx, appealID, adminID)
}

// ResolveAppeal closes a review. Approval lifts the suspension and returns
// the account to active in the same store transaction; rejection leaves the
// suspension untouched.
func (e *Engine) ResolveAppeal(ctx context.Context, appealID int64, adminID, outcome, notes, rejectionReason string) (*model.Appeal, error) {
	if adminID == "" {
		return nil, moderr.WrapValidation("admin id is required")
	}

	var approve bool

	switch outcome {
	case AppealOutcomeApproved:
		approve = true
	case AppealOutcomeRejected:
		if rejectionReason == "" {
			return nil, moderr.WrapValidation("rejection_reason is required")
		}
	default:
		return nil, moderr.WrapValidation("unknown outcome %q", outcome)
	}

	appeal, err := e.db.ResolveAppeal(ctx, appealID, adminID, approve, notes, rejectionReason, e.now())
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "appeal resolved",
		slog.Int64("appeal_id", appealID),
		slog.String("outcome", outcome),
		slog.String("admin_id", adminID),
	)

	e.metrics.LogEvent("appeal_resolved", map[string]string{"outcome": outcome}, map[string]interface{}{
		"appeal_id": appealID,
		"user_id":   appeal.UserID.ToInt64(),
	})

	return appeal, nil
}
