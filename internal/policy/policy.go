// Package policy holds the pure enforcement ladder: strikes accumulate until
// they trigger a suspension, suspensions accumulate until they trigger a
// permanent ban. The package does no I/O and raises no errors; invalid input
// is a caller bug and must be filtered before reaching it.
package policy

import (
	"time"

	"github.com/lexora-app/moderation-server/internal/model"
)

// Default ladder constants.
const (
	DefaultStrikesForSuspension = 3
	DefaultSuspensionsForBan    = 3
	DefaultSuspensionDuration   = 7 * 24 * time.Hour
)

// Thresholds parameterizes the ladder. Zero values are replaced by the
// defaults so an empty config section still behaves per policy.
type Thresholds struct {
	StrikesForSuspension int
	SuspensionsForBan    int
	SuspensionDuration   time.Duration
}

// DefaultThresholds returns the standard ladder.
func DefaultThresholds() Thresholds {
	return Thresholds{
		StrikesForSuspension: DefaultStrikesForSuspension,
		SuspensionsForBan:    DefaultSuspensionsForBan,
		SuspensionDuration:   DefaultSuspensionDuration,
	}
}

func (t Thresholds) normalized() Thresholds {
	if t.StrikesForSuspension <= 0 {
		t.StrikesForSuspension = DefaultStrikesForSuspension
	}

	if t.SuspensionsForBan <= 0 {
		t.SuspensionsForBan = DefaultSuspensionsForBan
	}

	if t.SuspensionDuration <= 0 {
		t.SuspensionDuration = DefaultSuspensionDuration
	}

	return t
}

// Decision is the computed outcome of one violation.
type Decision struct {
	Action               model.EnforcementAction
	StrikeCountAfter     uint
	SuspensionCountAfter uint
	SuspensionEnd        *time.Time // set iff Action == ActionSuspended
}

// Decide computes the next enforcement state for one new violation against
// the current account state. The strike ladder resets to zero exactly at the
// triggering event; strikes never accumulate past the threshold.
//
// Callers gate suspended/banned accounts before invoking this for automatic
// violations; admin-forced paths skip the ladder entirely and never call it.
func Decide(current *model.AccountStatus, now time.Time, thresholds Thresholds) Decision {
	t := thresholds.normalized()

	newStrikes := current.StrikeCount + 1
	if int(newStrikes) < t.StrikesForSuspension {
		return Decision{
			Action:               model.ActionStrikeAdded,
			StrikeCountAfter:     newStrikes,
			SuspensionCountAfter: current.SuspensionCount,
		}
	}

	newSuspensions := current.SuspensionCount + 1
	if int(newSuspensions) < t.SuspensionsForBan {
		end := now.Add(t.SuspensionDuration)

		return Decision{
			Action:               model.ActionSuspended,
			StrikeCountAfter:     0,
			SuspensionCountAfter: newSuspensions,
			SuspensionEnd:        &end,
		}
	}

	return Decision{
		Action:               model.ActionBanned,
		StrikeCountAfter:     0,
		SuspensionCountAfter: newSuspensions,
	}
}

// RemoveStrike is the admin correction arithmetic: decrement floored at
// zero. It never escalates and never touches the suspension count.
func RemoveStrike(strikes uint) uint {
	if strikes == 0 {
		return 0
	}

	return strikes - 1
}
