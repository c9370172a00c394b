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

// Account - get the moderation state of one account.
func (s *Storage) Account(ctx context.Context, userID model.UserID) (*model.AccountStatus, error) {
	var account model.AccountStatus
	if err := s.db.WithContext(ctx).First(&account, int64(userID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, moderr.ErrorAccountNotFound
		}

		return nil, moderr.WrapStore("fetch account", err)
	}

	return &account, nil
}

// lockAccount fetches the account row for update inside tx, provisioning an
// active row on first contact when provision is set.
func (s *Storage) lockAccount(tx *gorm.DB, userID model.UserID, provision bool) (*model.AccountStatus, error) {
	var account model.AccountStatus

	err := s.locked(tx).First(&account, int64(userID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if !provision {
			return nil, moderr.ErrorAccountNotFound
		}

		account = model.AccountStatus{
			ID:    userID,
			State: model.AccountActive,
		}
		if err := tx.Create(&account).Error; err != nil {
			return nil, err
		}

		return &account, nil
	}

	if err != nil {
		return nil, err
	}

	return &account, nil
}

// RemoveStrike - admin correction: decrement the strike count, floored at
// zero. Never escalates, never touches the suspension count.
func (s *Storage) RemoveStrike(ctx context.Context, userID model.UserID, strikes func(uint) uint) (*model.AccountStatus, error) {
	var account *model.AccountStatus

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.lockAccount(tx, userID, false)
		if err != nil {
			return err
		}

		locked.StrikeCount = strikes(locked.StrikeCount)
		if err := tx.Save(locked).Error; err != nil {
			return err
		}

		account = locked

		return nil
	})
	if err != nil {
		return nil, wrapStoreUnlessTyped("remove strike", err)
	}

	return account, nil
}

// Unban - explicit admin reversal of a permanent ban. The account returns to
// active with zero strikes; the suspension count stays as history. The ban's
// ledger entry transitions to lifted for the audit trail.
func (s *Storage) Unban(ctx context.Context, userID model.UserID, adminID, reason string, now time.Time) (*model.AccountStatus, error) {
	var account *model.AccountStatus

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.lockAccount(tx, userID, false)
		if err != nil {
			return err
		}

		if locked.State != model.AccountBanned {
			return moderr.ErrorInvalidTransition
		}

		locked.State = model.AccountActive
		locked.StrikeCount = 0
		locked.SuspensionEnd = sql.NullTime{}
		locked.BannedAt = sql.NullTime{}
		locked.BannedReason = ""

		if err := tx.Save(locked).Error; err != nil {
			return err
		}

		// Close the ban's ledger entry, if one is still active.
		err = tx.Model(&model.Suspension{}).
			Where("user_id = ? AND state = ?", int64(userID), model.SuspensionActive).
			Updates(map[string]interface{}{
				"state":         model.SuspensionLifted,
				"lifted_at":     now,
				"lifted_by":     adminID,
				"lifted_reason": reason,
			}).Error
		if err != nil {
			return err
		}

		account = locked

		return nil
	})
	if err != nil {
		return nil, wrapStoreUnlessTyped("unban", err)
	}

	return account, nil
}

// AggregateStats - counts for the admin dashboard.
type AggregateStats struct {
	ActiveAccounts    int64 `json:"active_accounts"`
	SuspendedAccounts int64 `json:"suspended_accounts"`
	BannedAccounts    int64 `json:"banned_accounts"`
	TotalViolations   int64 `json:"total_violations"`
	ActiveSuspensions int64 `json:"active_suspensions"`
	PendingAppeals    int64 `json:"pending_appeals"`
}

// Stats - aggregate moderation counts by status.
func (s *Storage) Stats(ctx context.Context) (*AggregateStats, error) {
	db := s.db.WithContext(ctx)

	var stats AggregateStats

	counts := []struct {
		out   *int64
		query *gorm.DB
	}{
		{&stats.ActiveAccounts, db.Model(&model.AccountStatus{}).Where("state = ?", model.AccountActive)},
		{&stats.SuspendedAccounts, db.Model(&model.AccountStatus{}).Where("state = ?", model.AccountSuspended)},
		{&stats.BannedAccounts, db.Model(&model.AccountStatus{}).Where("state = ?", model.AccountBanned)},
		{&stats.TotalViolations, db.Model(&model.Violation{})},
		{&stats.ActiveSuspensions, db.Model(&model.Suspension{}).Where("state = ?", model.SuspensionActive)},
		{&stats.PendingAppeals, db.Model(&model.Appeal{}).Where("state IN ?", []model.AppealState{model.AppealPending, model.AppealUnderReview})},
	}

	for _, c := range counts {
		if err := c.query.Count(c.out).Error; err != nil {
			return nil, moderr.WrapStore("aggregate stats", err)
		}
	}

	return &stats, nil
}

// DeleteAccount - cascade removal of an account and its moderation history.
func (s *Storage) DeleteAccount(ctx context.Context, userID model.UserID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id := int64(userID)

		if err := tx.Where("user_id = ?", id).Delete(&model.Appeal{}).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", id).Delete(&model.Suspension{}).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", id).Delete(&model.Violation{}).Error; err != nil {
			return err
		}

		return tx.Delete(&model.AccountStatus{}, id).Error
	})
	if err != nil {
		return moderr.WrapStore("delete account", err)
	}

	return nil
}

// wrapStoreUnlessTyped keeps taxonomy errors intact and wraps everything
// else as a store failure.
func wrapStoreUnlessTyped(op string, err error) error {
	switch {
	case errors.Is(err, moderr.ErrorAccountNotFound),
		errors.Is(err, moderr.ErrorSuspensionNotFound),
		errors.Is(err, moderr.ErrorAppealNotFound),
		errors.Is(err, moderr.ErrorAlreadySuspended),
		errors.Is(err, moderr.ErrorInvalidTransition),
		errors.Is(err, moderr.ErrorDuplicateAppeal),
		errors.Is(err, moderr.ErrorSuspensionNotActive),
		errors.Is(err, moderr.ErrorDuplicateViolation),
		errors.Is(err, moderr.ErrorValidation):
		return err
	default:
		return moderr.WrapStore(op, err)
	}
}
