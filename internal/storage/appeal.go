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

// CreateAppeal - submit a contest of one active suspension. Exactly one
// appeal may ever exist per suspension.
func (s *Storage) CreateAppeal(ctx context.Context, appeal *model.Appeal) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := s.suspensionForUpdate(tx, appeal.SuspensionID)
		if err != nil {
			return err
		}

		// Appeals only make sense against a live suspension.
		if entry.State != model.SuspensionActive {
			return moderr.ErrorSuspensionNotActive
		}

		var existing int64

		err = tx.Model(&model.Appeal{}).
			Where("suspension_id = ?", appeal.SuspensionID).
			Count(&existing).Error
		if err != nil {
			return err
		}

		if existing > 0 {
			return moderr.ErrorDuplicateAppeal
		}

		appeal.State = model.AppealPending

		return tx.Create(appeal).Error
	})
	if err != nil {
		return wrapStoreUnlessTyped("create appeal", err)
	}

	return nil
}

// Appeal - fetch one appeal.
func (s *Storage) Appeal(ctx context.Context, appealID int64) (*model.Appeal, error) {
	var appeal model.Appeal

	if err := s.db.WithContext(ctx).First(&appeal, appealID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, moderr.ErrorAppealNotFound
		}

		return nil, moderr.WrapStore("fetch appeal", err)
	}

	return &appeal, nil
}

// AppealsByState - list appeals for the admin queue, oldest first.
func (s *Storage) AppealsByState(ctx context.Context, state model.AppealState, limit, offset int) ([]model.Appeal, error) {
	query := s.db.WithContext(ctx).Model(&model.Appeal{})

	if state != "" {
		query = query.Where("state = ?", state)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}

	if offset > 0 {
		query = query.Offset(offset)
	}

	var appeals []model.Appeal
	if err := query.Order("created_at ASC").Find(&appeals).Error; err != nil {
		return nil, moderr.WrapStore("list appeals", err)
	}

	return appeals, nil
}

// BeginReview - pending → under_review only.
func (s *Storage) BeginReview(ctx context.Context, appealID int64, adminID string) (*model.Appeal, error) {
	var reviewed *model.Appeal

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		appeal, err := s.appealForUpdate(tx, appealID)
		if err != nil {
			return err
		}

		if appeal.State != model.AppealPending {
			return moderr.ErrorInvalidTransition
		}

		appeal.State = model.AppealUnderReview
		appeal.ReviewedBy = adminID

		if err := tx.Save(appeal).Error; err != nil {
			return err
		}

		reviewed = appeal

		return nil
	})
	if err != nil {
		return nil, wrapStoreUnlessTyped("begin review", err)
	}

	return reviewed, nil
}

// ResolveAppeal - under_review → approved | rejected. Approval lifts the
// suspension and reactivates the account in the same transaction, so the
// three writes land together or not at all. Rejection touches only the
// appeal row.
func (s *Storage) ResolveAppeal(ctx context.Context, appealID int64, adminID string, approve bool, notes, rejectionReason string, now time.Time) (*model.Appeal, error) {
	var resolved *model.Appeal

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		appeal, err := s.appealForUpdate(tx, appealID)
		if err != nil {
			return err
		}

		if appeal.State != model.AppealUnderReview {
			return moderr.ErrorInvalidTransition
		}

		if approve {
			// Suspension and account first, appeal outcome last: the
			// approved appeal row is the record the whole transition
			// hangs off.
			entry, err := s.suspensionForUpdate(tx, appeal.SuspensionID)
			if err != nil {
				return err
			}

			if entry.State == model.SuspensionActive {
				entry.State = model.SuspensionLifted
				entry.LiftedAt = sql.NullTime{Time: now, Valid: true}
				entry.LiftedBy = adminID
				entry.LiftedReason = "appeal approved"

				if err := tx.Save(entry).Error; err != nil {
					return err
				}
			}

			if err := reactivateAccount(tx, appeal.UserID); err != nil {
				return err
			}

			appeal.State = model.AppealApproved
		} else {
			appeal.State = model.AppealRejected
			appeal.RejectionReason = rejectionReason
		}

		appeal.ReviewedBy = adminID
		appeal.ReviewedAt = sql.NullTime{Time: now, Valid: true}
		appeal.AdminNotes = notes

		if err := tx.Save(appeal).Error; err != nil {
			return err
		}

		resolved = appeal

		return nil
	})
	if err != nil {
		return nil, wrapStoreUnlessTyped("resolve appeal", err)
	}

	return resolved, nil
}

func (s *Storage) appealForUpdate(tx *gorm.DB, appealID int64) (*model.Appeal, error) {
	var appeal model.Appeal

	if err := s.locked(tx).First(&appeal, appealID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, moderr.ErrorAppealNotFound
		}

		return nil, err
	}

	return &appeal, nil
}
