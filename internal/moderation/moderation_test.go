package moderation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	config "github.com/lexora-app/moderation-server/internal/config"
	moderr "github.com/lexora-app/moderation-server/internal/err"
	"github.com/lexora-app/moderation-server/internal/metrics"
	"github.com/lexora-app/moderation-server/internal/model"
	"github.com/lexora-app/moderation-server/internal/storage"
	"github.com/stretchr/testify/require"
)

var testDatabaseSeq atomic.Int64

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestEngine(t *testing.T) (*Engine, *fakeClock) {
	t.Helper()

	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Driver:     "sqlite3",
			Connection: fmt.Sprintf("file:moderation_test_%d?mode=memory&cache=shared", testDatabaseSeq.Add(1)),
		},
		Moderation: config.ModerationConfig{
			StrikesForSuspension: 3,
			SuspensionsForBan:    3,
			SuspensionDuration:   168 * time.Hour,
			DedupWindow:          10 * time.Minute,
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := storage.New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	engine, err := New(db, cfg, logger, metrics.NewMetricsFake())
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	engine.WithClock(clock.Now)

	return engine, clock
}

func recordFlagged(t *testing.T, e *Engine, userID model.UserID, contentID string) *storage.ViolationOutcome {
	t.Helper()

	outcome, err := e.Record(context.Background(), RecordInput{
		UserID:      userID,
		Type:        model.ViolationForumPost,
		ContentID:   contentID,
		ContentText: "offending text",
		Verdict: model.Verdict{
			Flagged:    true,
			Categories: map[string]bool{"harassment": true},
			Scores:     map[string]float64{"harassment": 0.91},
			Summary:    "harassment detected",
		},
	})
	require.NoError(t, err)

	return outcome
}

// suspendUser records three flagged posts and returns the escalating outcome.
func suspendUser(t *testing.T, e *Engine, userID model.UserID) *storage.ViolationOutcome {
	t.Helper()

	var outcome *storage.ViolationOutcome
	for i := 0; i < 3; i++ {
		outcome = recordFlagged(t, e, userID, fmt.Sprintf("content-%d-%d", userID, i))
	}

	require.NotNil(t, outcome.Suspension)

	return outcome
}

func TestRecordValidation(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	flagged := model.Verdict{Flagged: true}

	cases := []struct {
		name  string
		input RecordInput
	}{
		{"missing user", RecordInput{Type: model.ViolationForumPost, ContentID: "c", Verdict: flagged}},
		{"unknown type", RecordInput{UserID: 1, Type: "story", ContentID: "c", Verdict: flagged}},
		{"admin type reserved", RecordInput{UserID: 1, Type: model.ViolationAdminAction, ContentID: "c", Verdict: flagged}},
		{"missing content id", RecordInput{UserID: 1, Type: model.ViolationForumPost, Verdict: flagged}},
		{"unflagged verdict", RecordInput{UserID: 1, Type: model.ViolationForumPost, ContentID: "c"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Record(ctx, tc.input)
			require.ErrorIs(t, err, moderr.ErrorValidation)
		})
	}
}

func TestRecordDeduplicatesSameContent(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	recordFlagged(t, engine, 11, "post-1")

	// The classifier re-flagging the same item inside the window is one
	// event, not a second strike.
	_, err := engine.Record(ctx, RecordInput{
		UserID:    11,
		Type:      model.ViolationForumPost,
		ContentID: "post-1",
		Verdict:   model.Verdict{Flagged: true},
	})
	require.ErrorIs(t, err, moderr.ErrorDuplicateViolation)

	account, err := engine.db.Account(ctx, 11)
	require.NoError(t, err)
	require.Equal(t, uint(1), account.StrikeCount)
}

func TestThirdViolationSuspendsAndGateHeals(t *testing.T) {
	engine, clock := newTestEngine(t)
	ctx := context.Background()

	const userID = model.UserID(42)

	outcome := suspendUser(t, engine, userID)
	require.Equal(t, model.ActionSuspended, outcome.Violation.ActionTaken)
	require.True(t, outcome.Account.SuspensionEnd.Time.Equal(clock.Now().Add(168*time.Hour)))

	gate, err := engine.CheckCanPost(ctx, userID)
	require.NoError(t, err)
	require.False(t, gate.Allowed)
	require.Equal(t, GateReasonTemporary, gate.Reason)
	require.NotNil(t, gate.SuspensionEnd)
	require.True(t, gate.SuspensionEnd.Equal(outcome.Account.SuspensionEnd.Time))

	// Eight days later the window has passed; the gate expires the
	// suspension itself instead of waiting for the sweep.
	clock.Advance(8 * 24 * time.Hour)

	gate, err = engine.CheckCanPost(ctx, userID)
	require.NoError(t, err)
	require.True(t, gate.Allowed)

	account, err := engine.db.Account(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, model.AccountActive, account.State)
	require.Zero(t, account.StrikeCount)
	require.Equal(t, uint(1), account.SuspensionCount)

	entry, err := engine.db.Suspension(ctx, outcome.Suspension.ID)
	require.NoError(t, err)
	require.Equal(t, model.SuspensionExpired, entry.State)
}

func TestNinthViolationBans(t *testing.T) {
	engine, clock := newTestEngine(t)
	ctx := context.Background()

	const userID = model.UserID(43)

	var last *storage.ViolationOutcome
	for i := 0; i < 9; i++ {
		last = recordFlagged(t, engine, userID, fmt.Sprintf("post-%d", i))

		if last.Violation.ActionTaken == model.ActionSuspended {
			clock.Advance(8 * 24 * time.Hour)

			gate, err := engine.CheckCanPost(ctx, userID)
			require.NoError(t, err)
			require.True(t, gate.Allowed)
		}
	}

	require.Equal(t, model.ActionBanned, last.Violation.ActionTaken)
	require.Equal(t, uint(3), last.Account.SuspensionCount)

	gate, err := engine.CheckCanPost(ctx, userID)
	require.NoError(t, err)
	require.False(t, gate.Allowed)
	require.Equal(t, GateReasonPermanent, gate.Reason)
	require.Nil(t, gate.SuspensionEnd)

	// A ban never heals on its own.
	clock.Advance(365 * 24 * time.Hour)

	gate, err = engine.CheckCanPost(ctx, userID)
	require.NoError(t, err)
	require.False(t, gate.Allowed)
}

func TestGateAllowsUnknownAccounts(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	gate, err := engine.CheckCanPost(ctx, 777)
	require.NoError(t, err)
	require.True(t, gate.Allowed)
	require.Empty(t, gate.Reason)

	_, err = engine.CheckCanPost(ctx, 0)
	require.ErrorIs(t, err, moderr.ErrorValidation)
}

func TestForcePermanentBan(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	const userID = model.UserID(99)

	outcome, err := engine.ForcePermanentBan(ctx, userID, "admin-9", "doxxing")
	require.NoError(t, err)
	require.Equal(t, model.AccountBanned, outcome.Account.State)
	require.Equal(t, model.SuspensionPermanent, outcome.Suspension.Type)

	// Every override leaves a synthetic violation behind it.
	violations, err := engine.db.ViolationsByUser(ctx, userID, "", 0, 0)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	require.Equal(t, model.ViolationAdminAction, violations[0].Type)
	require.Equal(t, model.OriginAdminOverride, violations[0].Origin)
	require.Equal(t, model.ActionBanned, violations[0].ActionTaken)

	gate, err := engine.CheckCanPost(ctx, userID)
	require.NoError(t, err)
	require.False(t, gate.Allowed)
	require.Equal(t, GateReasonPermanent, gate.Reason)

	_, err = engine.ForcePermanentBan(ctx, userID, "admin-9", "")
	require.ErrorIs(t, err, moderr.ErrorValidation)
}

func TestForceSuspendDefaultsToConfiguredWindow(t *testing.T) {
	engine, clock := newTestEngine(t)
	ctx := context.Background()

	outcome, err := engine.ForceSuspend(ctx, 100, "admin-9", "manual review", 0)
	require.NoError(t, err)
	require.True(t, outcome.Suspension.EndsAt.Time.Equal(clock.Now().Add(168*time.Hour)))

	explicit, err := engine.ForceSuspend(ctx, 101, "admin-9", "manual review", 48*time.Hour)
	require.NoError(t, err)
	require.True(t, explicit.Suspension.EndsAt.Time.Equal(clock.Now().Add(48*time.Hour)))
}

func TestSubmitAppealGuards(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	const userID = model.UserID(50)

	outcome := suspendUser(t, engine, userID)

	appeal, err := engine.SubmitAppeal(ctx, userID, outcome.Suspension.ID, "the posts were quotes", "see thread 123")
	require.NoError(t, err)
	require.Equal(t, model.AppealPending, appeal.State)

	// One appeal per suspension, ever.
	_, err = engine.SubmitAppeal(ctx, userID, outcome.Suspension.ID, "second try", "")
	require.ErrorIs(t, err, moderr.ErrorDuplicateAppeal)

	// Only the suspended user may contest their own suspension.
	_, err = engine.SubmitAppeal(ctx, 51, outcome.Suspension.ID, "not mine", "")
	require.ErrorIs(t, err, moderr.ErrorValidation)

	_, err = engine.SubmitAppeal(ctx, userID, 99999, "nothing there", "")
	require.ErrorIs(t, err, moderr.ErrorSuspensionNotFound)

	_, err = engine.SubmitAppeal(ctx, userID, outcome.Suspension.ID, "", "")
	require.ErrorIs(t, err, moderr.ErrorValidation)
}

func TestAppealReviewFlow(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	t.Run("approval reactivates the account", func(t *testing.T) {
		outcome := suspendUser(t, engine, 60)

		appeal, err := engine.SubmitAppeal(ctx, 60, outcome.Suspension.ID, "mistake", "")
		require.NoError(t, err)

		reviewed, err := engine.BeginAppealReview(ctx, appeal.ID, "admin-1")
		require.NoError(t, err)
		require.Equal(t, model.AppealUnderReview, reviewed.State)

		resolved, err := engine.ResolveAppeal(ctx, appeal.ID, "admin-1", AppealOutcomeApproved, "verified", "")
		require.NoError(t, err)
		require.Equal(t, model.AppealApproved, resolved.State)

		gate, err := engine.CheckCanPost(ctx, 60)
		require.NoError(t, err)
		require.True(t, gate.Allowed)
	})

	t.Run("rejection keeps the suspension", func(t *testing.T) {
		outcome := suspendUser(t, engine, 61)

		appeal, err := engine.SubmitAppeal(ctx, 61, outcome.Suspension.ID, "mistake", "")
		require.NoError(t, err)

		_, err = engine.BeginAppealReview(ctx, appeal.ID, "admin-1")
		require.NoError(t, err)

		// A rejection must say why.
		_, err = engine.ResolveAppeal(ctx, appeal.ID, "admin-1", AppealOutcomeRejected, "", "")
		require.ErrorIs(t, err, moderr.ErrorValidation)

		resolved, err := engine.ResolveAppeal(ctx, appeal.ID, "admin-1", AppealOutcomeRejected, "", "clear violation")
		require.NoError(t, err)
		require.Equal(t, model.AppealRejected, resolved.State)

		gate, err := engine.CheckCanPost(ctx, 61)
		require.NoError(t, err)
		require.False(t, gate.Allowed)
	})

	t.Run("unknown outcome", func(t *testing.T) {
		_, err := engine.ResolveAppeal(ctx, 1, "admin-1", "escalated", "", "")
		require.ErrorIs(t, err, moderr.ErrorValidation)
	})
}

func TestApplyStrikeWalksTheLadder(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	const userID = model.UserID(70)

	for i := 0; i < 2; i++ {
		outcome, err := engine.ApplyStrike(ctx, userID, "admin-2", "tos violation")
		require.NoError(t, err)
		require.Equal(t, model.ActionStrikeAdded, outcome.Violation.ActionTaken)
	}

	// A third manual strike escalates exactly like an automatic one.
	outcome, err := engine.ApplyStrike(ctx, userID, "admin-2", "tos violation")
	require.NoError(t, err)
	require.Equal(t, model.ActionSuspended, outcome.Violation.ActionTaken)
	require.NotNil(t, outcome.Suspension)

	_, err = engine.ApplyStrike(ctx, userID, "", "tos violation")
	require.ErrorIs(t, err, moderr.ErrorValidation)
}

func TestRemoveStrikeAndUnban(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.ApplyStrike(ctx, 80, "admin-2", "tos violation")
	require.NoError(t, err)

	account, err := engine.RemoveStrike(ctx, 80, "admin-2")
	require.NoError(t, err)
	require.Zero(t, account.StrikeCount)

	_, err = engine.RemoveStrike(ctx, 80, "")
	require.ErrorIs(t, err, moderr.ErrorValidation)

	_, err = engine.ForcePermanentBan(ctx, 81, "admin-2", "doxxing")
	require.NoError(t, err)

	account, err = engine.Unban(ctx, 81, "admin-2", "ban issued in error")
	require.NoError(t, err)
	require.Equal(t, model.AccountActive, account.State)

	gate, err := engine.CheckCanPost(ctx, 81)
	require.NoError(t, err)
	require.True(t, gate.Allowed)
}

func TestLiftSuspensionEarly(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	outcome := suspendUser(t, engine, 90)

	lifted, err := engine.LiftSuspension(ctx, outcome.Suspension.ID, "admin-3", "first offense leniency")
	require.NoError(t, err)
	require.Equal(t, model.SuspensionLifted, lifted.State)

	gate, err := engine.CheckCanPost(ctx, 90)
	require.NoError(t, err)
	require.True(t, gate.Allowed)

	_, err = engine.LiftSuspension(ctx, outcome.Suspension.ID, "admin-3", "again")
	require.ErrorIs(t, err, moderr.ErrorSuspensionNotActive)
}

func TestSweepExpiresLapsedSuspensions(t *testing.T) {
	engine, clock := newTestEngine(t)
	ctx := context.Background()

	first := suspendUser(t, engine, 95)
	second := suspendUser(t, engine, 96)

	expired, err := engine.Sweep(ctx)
	require.NoError(t, err)
	require.Empty(t, expired)

	clock.Advance(8 * 24 * time.Hour)

	expired, err = engine.Sweep(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{first.Suspension.ID, second.Suspension.ID}, expired)

	for _, userID := range []model.UserID{95, 96} {
		account, err := engine.db.Account(ctx, userID)
		require.NoError(t, err)
		require.Equal(t, model.AccountActive, account.State)
	}

	// Nothing left for the next tick.
	expired, err = engine.Sweep(ctx)
	require.NoError(t, err)
	require.Empty(t, expired)
}
