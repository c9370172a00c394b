package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	moderr "github.com/lexora-app/moderation-server/internal/err"
	"github.com/lexora-app/moderation-server/internal/model"
	"gorm.io/gorm"
)

// openSuspension appends a ledger entry, refusing a second active one for
// the same account.
func (s *Storage) openSuspension(tx *gorm.DB, entry *model.Suspension) error {
	var active int64

	err := tx.Model(&model.Suspension{}).
		Where("user_id = ? AND state = ?", int64(entry.UserID), model.SuspensionActive).
		Count(&active).Error
	if err != nil {
		return err
	}

	if active > 0 {
		return moderr.ErrorAlreadySuspended
	}

	return tx.Create(entry).Error
}

// ForceSuspend - admin bypass of the ladder: install a suspension directly,
// continuing the account's own suspension sequence. The synthetic violation
// is the entry's evidence trail.
func (s *Storage) ForceSuspend(ctx context.Context, violation *model.Violation, reason string, duration time.Duration, now time.Time) (*ViolationOutcome, error) {
	outcome := &ViolationOutcome{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := s.lockAccount(tx, violation.UserID, true)
		if err != nil {
			return err
		}

		// Banned is terminal except via the explicit unban operation.
		if account.State == model.AccountBanned {
			return moderr.ErrorInvalidTransition
		}

		if account.State == model.AccountSuspended {
			return moderr.ErrorAlreadySuspended
		}

		priorStrikes := account.StrikeCount
		end := now.Add(duration)

		account.State = model.AccountSuspended
		account.StrikeCount = 0
		account.SuspensionCount++
		account.SuspensionEnd = sql.NullTime{Time: end, Valid: true}
		account.LastViolationAt = sql.NullTime{Time: now, Valid: true}

		violation.ActionTaken = model.ActionSuspended
		violation.StrikeCountAfter = 0
		violation.SuspensionCountAfter = account.SuspensionCount

		if err := tx.Create(violation).Error; err != nil {
			return err
		}

		if err := tx.Save(account).Error; err != nil {
			return err
		}

		entry := &model.Suspension{
			UserID:              violation.UserID,
			Type:                model.SuspensionTemporary,
			Reason:              reason,
			ViolationIDs:        model.ViolationIDs{violation.ID},
			SuspensionNumber:    account.SuspensionCount,
			StrikesAtSuspension: priorStrikes,
			StartedAt:           now,
			EndsAt:              sql.NullTime{Time: end, Valid: true},
			State:               model.SuspensionActive,
		}

		if err := s.openSuspension(tx, entry); err != nil {
			return err
		}

		outcome.Account = account
		outcome.Violation = violation
		outcome.Suspension = entry

		return nil
	})
	if err != nil {
		return nil, wrapStoreUnlessTyped("force suspend", err)
	}

	return outcome, nil
}

// ForceBan - admin bypass of the ladder: install a permanent ban directly.
// An open temporary suspension is superseded: the ban makes its window moot,
// so it transitions to expired and the ban gets its own ledger entry.
func (s *Storage) ForceBan(ctx context.Context, violation *model.Violation, reason string, now time.Time) (*ViolationOutcome, error) {
	outcome := &ViolationOutcome{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := s.lockAccount(tx, violation.UserID, true)
		if err != nil {
			return err
		}

		if account.State == model.AccountBanned {
			return moderr.ErrorInvalidTransition
		}

		err = tx.Model(&model.Suspension{}).
			Where("user_id = ? AND state = ?", int64(violation.UserID), model.SuspensionActive).
			Update("state", model.SuspensionExpired).Error
		if err != nil {
			return err
		}

		priorStrikes := account.StrikeCount

		account.State = model.AccountBanned
		account.StrikeCount = 0
		account.SuspensionCount++
		account.SuspensionEnd = sql.NullTime{}
		account.BannedAt = sql.NullTime{Time: now, Valid: true}
		account.BannedReason = reason
		account.LastViolationAt = sql.NullTime{Time: now, Valid: true}

		violation.ActionTaken = model.ActionBanned
		violation.StrikeCountAfter = 0
		violation.SuspensionCountAfter = account.SuspensionCount

		if err := tx.Create(violation).Error; err != nil {
			return err
		}

		if err := tx.Save(account).Error; err != nil {
			return err
		}

		entry := &model.Suspension{
			UserID:              violation.UserID,
			Type:                model.SuspensionPermanent,
			Reason:              reason,
			ViolationIDs:        model.ViolationIDs{violation.ID},
			SuspensionNumber:    account.SuspensionCount,
			StrikesAtSuspension: priorStrikes,
			StartedAt:           now,
			State:               model.SuspensionActive,
		}

		if err := s.openSuspension(tx, entry); err != nil {
			return err
		}

		outcome.Account = account
		outcome.Violation = violation
		outcome.Suspension = entry

		return nil
	})
	if err != nil {
		return nil, wrapStoreUnlessTyped("force ban", err)
	}

	return outcome, nil
}

// LiftSuspension - active → lifted, and the account returns to active.
// A lifted suspension does not erase history: strike and suspension counts
// stay untouched.
func (s *Storage) LiftSuspension(ctx context.Context, suspensionID int64, adminID, reason string, now time.Time) (*model.Suspension, error) {
	var lifted *model.Suspension

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := s.suspensionForUpdate(tx, suspensionID)
		if err != nil {
			return err
		}

		if entry.State != model.SuspensionActive {
			return moderr.ErrorSuspensionNotActive
		}

		entry.State = model.SuspensionLifted
		entry.LiftedAt = sql.NullTime{Time: now, Valid: true}
		entry.LiftedBy = adminID
		entry.LiftedReason = reason

		if err := tx.Save(entry).Error; err != nil {
			return err
		}

		if err := reactivateAccount(tx, entry.UserID); err != nil {
			return err
		}

		lifted = entry

		return nil
	})
	if err != nil {
		return nil, wrapStoreUnlessTyped("lift suspension", err)
	}

	return lifted, nil
}

// ExpireSuspension - active → expired once the window has passed, and the
// account returns to active with strikes still at zero. Both the sweep and
// the gate's opportunistic path call this; the conditional update makes the
// second call a no-op rather than an error.
func (s *Storage) ExpireSuspension(ctx context.Context, suspensionID int64, now time.Time) (bool, error) {
	expired := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Suspension{}).
			Where("id = ? AND state = ? AND ends_at IS NOT NULL AND ends_at <= ?",
				suspensionID, model.SuspensionActive, now).
			Update("state", model.SuspensionExpired)
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return nil // already expired, lifted, or still running
		}

		expired = true

		var entry model.Suspension
		if err := tx.First(&entry, suspensionID).Error; err != nil {
			return err
		}

		return reactivateAccount(tx, entry.UserID)
	})
	if err != nil {
		return false, moderr.WrapStore("expire suspension", err)
	}

	return expired, nil
}

// ExpireDue - the background sweep: expire every active suspension whose
// window has passed. Returns the ids it transitioned.
func (s *Storage) ExpireDue(ctx context.Context, now time.Time) ([]int64, error) {
	var due []model.Suspension

	err := s.db.WithContext(ctx).
		Where("state = ? AND ends_at IS NOT NULL AND ends_at <= ?", model.SuspensionActive, now).
		Find(&due).Error
	if err != nil {
		return nil, moderr.WrapStore("sweep suspensions", err)
	}

	expired := make([]int64, 0, len(due))

	for _, entry := range due {
		ok, err := s.ExpireSuspension(ctx, entry.ID, now)
		if err != nil {
			return expired, err
		}

		if ok {
			expired = append(expired, entry.ID)
		}
	}

	return expired, nil
}

// ExpireLapsed - the gate's opportunistic path: expire the account's active
// suspension and reactivate the account once the window has passed. Both
// updates are conditional, so racing with the background sweep is harmless,
// and the account heals even if its ledger entry is already closed.
func (s *Storage) ExpireLapsed(ctx context.Context, userID model.UserID, now time.Time) (bool, error) {
	healed := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.Suspension{}).
			Where("user_id = ? AND state = ? AND ends_at IS NOT NULL AND ends_at <= ?",
				int64(userID), model.SuspensionActive, now).
			Update("state", model.SuspensionExpired).Error
		if err != nil {
			return err
		}

		result := tx.Model(&model.AccountStatus{}).
			Where("id = ? AND state = ? AND suspension_end IS NOT NULL AND suspension_end <= ?",
				int64(userID), model.AccountSuspended, now).
			Updates(map[string]interface{}{
				"state":          model.AccountActive,
				"suspension_end": nil,
			})
		if result.Error != nil {
			return result.Error
		}

		healed = result.RowsAffected > 0

		return nil
	})
	if err != nil {
		return false, moderr.WrapStore("expire lapsed suspension", err)
	}

	return healed, nil
}

// reactivateAccount returns a suspended account to active, leaving the
// counters as history. Banned accounts are untouched.
func reactivateAccount(tx *gorm.DB, userID model.UserID) error {
	return tx.Model(&model.AccountStatus{}).
		Where("id = ? AND state = ?", int64(userID), model.AccountSuspended).
		Updates(map[string]interface{}{
			"state":          model.AccountActive,
			"suspension_end": nil,
		}).Error
}

func (s *Storage) suspensionForUpdate(tx *gorm.DB, suspensionID int64) (*model.Suspension, error) {
	var entry model.Suspension

	if err := s.locked(tx).First(&entry, suspensionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, moderr.ErrorSuspensionNotFound
		}

		return nil, err
	}

	return &entry, nil
}

// Suspension - fetch one ledger entry.
func (s *Storage) Suspension(ctx context.Context, suspensionID int64) (*model.Suspension, error) {
	var entry model.Suspension

	if err := s.db.WithContext(ctx).First(&entry, suspensionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, moderr.ErrorSuspensionNotFound
		}

		return nil, moderr.WrapStore("fetch suspension", err)
	}

	return &entry, nil
}

// ActiveSuspension - the account's current active entry, if any.
func (s *Storage) ActiveSuspension(ctx context.Context, userID model.UserID) (*model.Suspension, error) {
	var entry model.Suspension

	err := s.db.WithContext(ctx).
		Where("user_id = ? AND state = ?", int64(userID), model.SuspensionActive).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, moderr.ErrorSuspensionNotFound
		}

		return nil, moderr.WrapStore("fetch active suspension", err)
	}

	return &entry, nil
}

// SuspensionsByUser - list ledger entries, optionally filtered by state,
// newest first.
func (s *Storage) SuspensionsByUser(ctx context.Context, userID model.UserID, state model.SuspensionState) ([]model.Suspension, error) {
	query := s.db.WithContext(ctx).Model(&model.Suspension{})

	if userID != 0 {
		query = query.Where("user_id = ?", int64(userID))
	}

	if state != "" {
		query = query.Where("state = ?", state)
	}

	var entries []model.Suspension
	if err := query.Order("started_at DESC").Find(&entries).Error; err != nil {
		return nil, moderr.WrapStore("list suspensions", err)
	}

	return entries, nil
}
