package moderation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	moderr "github.com/lexora-app/moderation-server/internal/err"
	"github.com/lexora-app/moderation-server/internal/model"
)

// Gate denial reasons.
const (
	GateReasonTemporary = "temporary" // suspended, comes with the window end
	GateReasonPermanent = "permanent" // banned
)

// GateResult is the pre-publish verdict for one account.
type GateResult struct {
	Allowed       bool       `json:"allowed"`
	Reason        string     `json:"reason,omitempty"`
	SuspensionEnd *time.Time `json:"suspension_end,omitempty"`
}

// CheckCanPost is the guard consulted before accepting new content. A
// suspended account whose window has passed heals on the spot: the gate
// expires the suspension itself instead of waiting for the sweep.
func (e *Engine) CheckCanPost(ctx context.Context, userID model.UserID) (*GateResult, error) {
	if userID == 0 {
		return nil, moderr.WrapValidation("user_id is required")
	}

	account, err := e.db.Account(ctx, userID)
	if err != nil {
		// No moderation history means nothing to block.
		if errors.Is(err, moderr.ErrorAccountNotFound) {
			return &GateResult{Allowed: true}, nil
		}

		return nil, err
	}

	switch {
	case account.Banned():
		return &GateResult{Allowed: false, Reason: GateReasonPermanent}, nil

	case account.Suspended():
		now := e.now()
		if !account.SuspensionLapsed(now) {
			end := account.SuspensionEnd.Time

			return &GateResult{
				Allowed:       false,
				Reason:        GateReasonTemporary,
				SuspensionEnd: &end,
			}, nil
		}

		healed, err := e.db.ExpireLapsed(ctx, userID, now)
		if err != nil {
			return nil, err
		}

		if healed {
			e.logger.InfoContext(ctx, "suspension expired on gate check",
				slog.Int64("user_id", userID.ToInt64()))
		}

		return &GateResult{Allowed: true}, nil

	default:
		return &GateResult{Allowed: true}, nil
	}
}
