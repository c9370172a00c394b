package storage

import (
	"context"
	"database/sql"
	"time"

	moderr "github.com/lexora-app/moderation-server/internal/err"
	"github.com/lexora-app/moderation-server/internal/model"
	"github.com/lexora-app/moderation-server/internal/policy"
	"gorm.io/gorm"
)

// ViolationOutcome is the committed result of one enforcement write.
type ViolationOutcome struct {
	Account    *model.AccountStatus
	Violation  *model.Violation
	Suspension *model.Suspension // set when the write opened a ledger entry
}

// ApplyViolation runs the whole ladder write as one per-account transaction:
// lock the account row, dedup the content item, compute the decision while
// holding the lock, persist the immutable violation, mutate the account and,
// on escalation, open the ledger entry. Either all of it commits or none.
func (s *Storage) ApplyViolation(
	ctx context.Context,
	violation *model.Violation,
	reason string,
	dedupWindow time.Duration,
	now time.Time,
	decide func(*model.AccountStatus) policy.Decision,
) (*ViolationOutcome, error) {
	outcome := &ViolationOutcome{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := s.lockAccount(tx, violation.UserID, true)
		if err != nil {
			return err
		}

		// The gate blocks suspended and banned accounts before content is
		// accepted; a ladder write against one here means the caller raced
		// past stale state.
		if account.State != model.AccountActive {
			return moderr.ErrorInvalidTransition
		}

		if violation.ContentID != "" && dedupWindow > 0 {
			duplicate, err := recentViolationExists(tx, violation, now.Add(-dedupWindow))
			if err != nil {
				return err
			}

			if duplicate {
				return moderr.ErrorDuplicateViolation
			}
		}

		priorStrikes := account.StrikeCount
		decision := decide(account)

		violation.ActionTaken = decision.Action
		violation.StrikeCountAfter = decision.StrikeCountAfter
		violation.SuspensionCountAfter = decision.SuspensionCountAfter

		if err := tx.Create(violation).Error; err != nil {
			return err
		}

		account.StrikeCount = decision.StrikeCountAfter
		account.SuspensionCount = decision.SuspensionCountAfter
		account.LastViolationAt = sql.NullTime{Time: now, Valid: true}

		switch decision.Action {
		case model.ActionStrikeAdded:
			// Counter bump only.
		case model.ActionSuspended:
			account.State = model.AccountSuspended
			account.SuspensionEnd = sql.NullTime{Time: *decision.SuspensionEnd, Valid: true}
		case model.ActionBanned:
			account.State = model.AccountBanned
			account.SuspensionEnd = sql.NullTime{}
			account.BannedAt = sql.NullTime{Time: now, Valid: true}
			account.BannedReason = reason
		}

		if err := tx.Save(account).Error; err != nil {
			return err
		}

		if decision.Action != model.ActionStrikeAdded {
			evidence, err := evidenceTrail(tx, violation, priorStrikes)
			if err != nil {
				return err
			}

			entry := &model.Suspension{
				UserID:              violation.UserID,
				Reason:              reason,
				ViolationIDs:        evidence,
				SuspensionNumber:    decision.SuspensionCountAfter,
				StrikesAtSuspension: priorStrikes,
				StartedAt:           now,
				State:               model.SuspensionActive,
			}

			if decision.Action == model.ActionSuspended {
				entry.Type = model.SuspensionTemporary
				entry.EndsAt = sql.NullTime{Time: *decision.SuspensionEnd, Valid: true}
			} else {
				entry.Type = model.SuspensionPermanent
			}

			if err := s.openSuspension(tx, entry); err != nil {
				return err
			}

			outcome.Suspension = entry
		}

		outcome.Account = account
		outcome.Violation = violation

		return nil
	})
	if err != nil {
		return nil, wrapStoreUnlessTyped("apply violation", err)
	}

	return outcome, nil
}

// recentViolationExists probes the dedup window for the same upstream event.
func recentViolationExists(tx *gorm.DB, violation *model.Violation, since time.Time) (bool, error) {
	var count int64

	err := tx.Model(&model.Violation{}).
		Where("user_id = ? AND content_id = ? AND type = ? AND created_at > ?",
			int64(violation.UserID), violation.ContentID, violation.Type, since).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// evidenceTrail collects the ids of the prior strikes plus the triggering
// violation, oldest first. Strike counters reset at every suspension, so the
// most recent strike_added rows are exactly the strikes of this cycle.
func evidenceTrail(tx *gorm.DB, triggering *model.Violation, priorStrikes uint) (model.ViolationIDs, error) {
	ids := make(model.ViolationIDs, 0, priorStrikes+1)

	if priorStrikes > 0 {
		var prior []model.Violation

		err := tx.
			Where("user_id = ? AND action_taken = ? AND id <> ?",
				int64(triggering.UserID), model.ActionStrikeAdded, triggering.ID).
			Order("created_at DESC").
			Limit(int(priorStrikes)).
			Find(&prior).Error
		if err != nil {
			return nil, err
		}

		for i := len(prior) - 1; i >= 0; i-- {
			ids = append(ids, prior[i].ID)
		}
	}

	return append(ids, triggering.ID), nil
}

// ViolationsByUser - list violations, optionally filtered by type, newest
// first.
func (s *Storage) ViolationsByUser(ctx context.Context, userID model.UserID, violationType model.ViolationType, limit, offset int) ([]model.Violation, error) {
	query := s.db.WithContext(ctx).Model(&model.Violation{})

	if userID != 0 {
		query = query.Where("user_id = ?", int64(userID))
	}

	if violationType != "" {
		query = query.Where("type = ?", violationType)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}

	if offset > 0 {
		query = query.Offset(offset)
	}

	var violations []model.Violation
	if err := query.Order("created_at DESC").Find(&violations).Error; err != nil {
		return nil, moderr.WrapStore("list violations", err)
	}

	return violations, nil
}
