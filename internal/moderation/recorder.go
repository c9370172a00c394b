package moderation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	moderr "github.com/lexora-app/moderation-server/internal/err"
	"github.com/lexora-app/moderation-server/internal/model"
	"github.com/lexora-app/moderation-server/internal/policy"
	"github.com/lexora-app/moderation-server/internal/storage"
)

// RecordInput is one flagged-content event entering the pipeline.
type RecordInput struct {
	UserID      model.UserID
	Type        model.ViolationType
	ContentID   string
	ContentText string
	Verdict     model.Verdict
}

// Record is the single entry point of the automatic pipeline: persist the
// violation, walk the ladder and escalate when a threshold is hit. The same
// upstream event is recorded at most once per dedup window.
func (e *Engine) Record(ctx context.Context, input RecordInput) (*storage.ViolationOutcome, error) {
	if err := validateRecordInput(&input); err != nil {
		return nil, err
	}

	dedupKey := fmt.Sprintf("%d/%s/%s", input.UserID, input.Type, input.ContentID)
	if _, hit := e.dedup.Get(dedupKey); hit {
		return nil, moderr.ErrorDuplicateViolation
	}

	violation := &model.Violation{
		ID:                uuid.NewString(),
		UserID:            input.UserID,
		Type:              input.Type,
		Origin:            model.OriginAutomatic,
		ContentID:         input.ContentID,
		ContentText:       input.ContentText,
		FlaggedCategories: input.Verdict.Categories,
		CategoryScores:    input.Verdict.Scores,
		Summary:           input.Verdict.Summary,
	}

	reason := input.Verdict.Summary
	if reason == "" {
		reason = "content flagged by safety classifier"
	}

	now := e.now()
	thresholds := e.thresholds()

	outcome, err := e.db.ApplyViolation(ctx, violation, reason, e.dedupWindow(), now,
		func(account *model.AccountStatus) policy.Decision {
			return policy.Decide(account, now, thresholds)
		})
	if err != nil {
		return nil, err
	}

	e.dedup.SetWithTTL(dedupKey, struct{}{}, 1, e.dedupWindow())

	e.logger.InfoContext(ctx, "violation recorded",
		slog.Int64("user_id", input.UserID.ToInt64()),
		slog.String("violation_id", violation.ID),
		slog.String("type", string(input.Type)),
		slog.String("action", string(outcome.Violation.ActionTaken)),
	)

	e.metrics.LogEnforcement(string(outcome.Violation.ActionTaken), input.UserID.ToInt64(), map[string]interface{}{
		"violation_type": string(input.Type),
		"strikes":        outcome.Account.StrikeCount,
		"suspensions":    outcome.Account.SuspensionCount,
	})

	return outcome, nil
}

func validateRecordInput(input *RecordInput) error {
	if input.UserID == 0 {
		return moderr.WrapValidation("user_id is required")
	}

	if !input.Type.Valid() || input.Type == model.ViolationAdminAction {
		return moderr.WrapValidation("unknown violation type %q", input.Type)
	}

	if input.ContentID == "" {
		return moderr.WrapValidation("content_id is required")
	}

	// Caller contract: record is invoked if-and-only-if the classifier
	// flagged the content.
	if !input.Verdict.Flagged {
		return moderr.WrapValidation("verdict is not flagged")
	}

	return nil
}
