package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/saehim/attendance-backend/internal/data/repos"
	"github.com/saehim/attendance-backend/internal/domain"
	domainagg "github.com/saehim/attendance-backend/internal/domain/aggregates"
	"github.com/saehim/attendance-backend/internal/platform/dbctx"
)

type StreakAggregateDeps struct {
	Base BaseDeps

	Events repos.AttendanceEventRepo
	States repos.StreakAggregateRepo
}

type streakAggregate struct {
	deps StreakAggregateDeps
}

func NewAttendanceStreakAggregate(deps StreakAggregateDeps) domainagg.AttendanceStreakAggregate {
	deps.Base = deps.Base.withDefaults()
	return &streakAggregate{deps: deps}
}

func (a *streakAggregate) Contract() domainagg.Contract {
	return domainagg.AttendanceStreakAggregateContract
}

func (a *streakAggregate) Apply(ctx context.Context, in domainagg.ApplyStreakInput) (domainagg.StreakResult, error) {
	const op = "Attendance.Streak.Apply"
	var out domainagg.StreakResult
	if err := validateStreakTarget(in.MemberID, in.ActivityType, in.OccurredAt); err != nil {
		return out, MapError(op, err)
	}
	if !in.Status.Valid() {
		return out, MapError(op, ValidationError("status must be attended or absent"))
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if existing, err := a.deps.Events.GetByOccurrence(dbc, in.MemberID, in.ActivityType, in.OccurredAt); err != nil {
			return err
		} else if existing != nil {
			return ConflictError("attendance already recorded for this instance; submit a correction instead")
		}

		latest, err := a.deps.Events.LatestByMemberAndType(dbc, in.MemberID, in.ActivityType)
		if err != nil {
			return err
		}
		// The fold treats every new event as the newest; an out-of-order
		// arrival would corrupt the run counters.
		if latest != nil && !in.OccurredAt.After(latest.OccurredAt) {
			return ConflictError("attendance predates the latest recorded instance")
		}

		agg, err := a.deps.States.Get(dbc, in.MemberID, in.ActivityType)
		if err != nil {
			return err
		}
		created := false
		if agg == nil {
			agg, err = a.seedAggregate(dbc, in.MemberID, in.ActivityType)
			if err != nil {
				return err
			}
			created = true
		}
		if agg.Disabled {
			return PreconditionError("streak aggregate is disabled for this member")
		}

		now := time.Now().UTC()
		if err := a.deps.Events.Create(dbc, &domain.AttendanceEvent{
			MemberID:     in.MemberID,
			ActivityType: in.ActivityType,
			OccurredAt:   in.OccurredAt,
			Status:       in.Status,
		}); err != nil {
			return err
		}

		advanceStreak(agg, in.Status)

		if created {
			agg.CreatedAt = now
			agg.UpdatedAt = now
			if err := a.deps.States.Create(dbc, agg); err != nil {
				return err
			}
		} else {
			if err := a.persistCounters(dbc, agg, now); err != nil {
				return err
			}
		}
		out = streakResult(agg, now)
		return nil
	})
	return out, err
}

func (a *streakAggregate) ApplyCorrection(ctx context.Context, in domainagg.CorrectStreakInput) (domainagg.StreakResult, error) {
	const op = "Attendance.Streak.ApplyCorrection"
	var out domainagg.StreakResult
	if err := validateStreakTarget(in.MemberID, in.ActivityType, in.OccurredAt); err != nil {
		return out, MapError(op, err)
	}
	if !in.NewStatus.Valid() {
		return out, MapError(op, ValidationError("status must be attended or absent"))
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		latest, err := a.deps.Events.LatestByMemberAndType(dbc, in.MemberID, in.ActivityType)
		if err != nil {
			return err
		}
		if latest == nil {
			return NotFoundError("no attendance history to correct")
		}
		// OppositeLastStreakLen holds exactly one level of undo, so only the
		// newest recorded instance can be rewritten.
		if !latest.OccurredAt.Equal(in.OccurredAt) {
			return ConflictError("only the most recent attendance record can be corrected")
		}

		agg, err := a.deps.States.Get(dbc, in.MemberID, in.ActivityType)
		if err != nil {
			return err
		}
		if agg == nil {
			return NotFoundError("no streak aggregate for this member and activity")
		}
		if agg.Disabled {
			return PreconditionError("streak aggregate is disabled for this member")
		}

		now := time.Now().UTC()
		if in.NewStatus == agg.CurrentStreakStatus {
			// Resubmission with an unchanged status.
			out = streakResult(agg, now)
			return nil
		}

		if err := rewindLatestStreak(agg, in.NewStatus); err != nil {
			return err
		}
		if err := a.deps.Events.UpdateStatus(dbc, latest.ID, in.NewStatus); err != nil {
			return err
		}
		if err := a.persistCounters(dbc, agg, now); err != nil {
			return err
		}
		out = streakResult(agg, now)
		return nil
	})
	return out, err
}

func (a *streakAggregate) Disable(ctx context.Context, in domainagg.DisableStreakInput) (domainagg.DisableStreakResult, error) {
	const op = "Attendance.Streak.Disable"
	var out domainagg.DisableStreakResult
	if len(in.MemberIDs) == 0 {
		return out, nil
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		n, err := a.deps.States.DisableByMembers(dbc, in.MemberIDs, in.ActivityType)
		if err != nil {
			return err
		}
		out.DisabledCount = int(n)
		return nil
	})
	return out, err
}

// seedAggregate builds a fresh aggregate row whose totals replay the member's
// full prior event history. Streak counters start at zero; the triggering
// event has not been inserted yet and folds afterwards.
func (a *streakAggregate) seedAggregate(dbc dbctx.Context, memberID uuid.UUID, activityType string) (*domain.StreakAggregate, error) {
	history, err := a.deps.Events.ListByMemberAndType(dbc, memberID, activityType)
	if err != nil {
		return nil, err
	}
	agg := &domain.StreakAggregate{
		MemberID:            memberID,
		ActivityType:        activityType,
		CurrentStreakStatus: domain.StatusNone,
	}
	for _, ev := range history {
		switch ev.Status {
		case domain.StatusAttended:
			agg.TotalAttended++
		case domain.StatusAbsent:
			agg.TotalAbsent++
		}
	}
	return agg, nil
}

func (a *streakAggregate) persistCounters(dbc dbctx.Context, agg *domain.StreakAggregate, now time.Time) error {
	ok, err := a.deps.Base.CASGuard.UpdateByVersion(dbc, domain.StreakAggregate{}.TableName(), agg.ID, agg.Version, map[string]any{
		"current_streak_count":     agg.CurrentStreakCount,
		"current_streak_status":    agg.CurrentStreakStatus,
		"opposite_last_streak_len": agg.OppositeLastStreakLen,
		"total_attended":           agg.TotalAttended,
		"total_absent":             agg.TotalAbsent,
		"version":                  agg.Version + 1,
		"updated_at":               now,
	})
	if err != nil {
		return err
	}
	if err := RequireCASSuccess(ok, "streak aggregate was modified concurrently"); err != nil {
		return err
	}
	agg.Version++
	agg.UpdatedAt = now
	return nil
}

func validateStreakTarget(memberID uuid.UUID, activityType string, occurredAt time.Time) error {
	if memberID == uuid.Nil {
		return ValidationError("member id is required")
	}
	if activityType == "" {
		return ValidationError("activity type is required")
	}
	if occurredAt.IsZero() {
		return ValidationError("occurrence timestamp is required")
	}
	return nil
}

// advanceStreak folds one newly recorded status into the aggregate.
//
// A matching status extends the current run. A differing status (or the very
// first event) ends the previous run: its length is parked in
// OppositeLastStreakLen and a new run of length 1 starts. OppositeLastStreakLen
// is refreshed only on a break, never on a continuation.
func advanceStreak(agg *domain.StreakAggregate, status domain.AttendanceStatus) {
	if status == agg.CurrentStreakStatus {
		agg.CurrentStreakCount++
	} else {
		agg.OppositeLastStreakLen = agg.CurrentStreakCount
		agg.CurrentStreakCount = 1
		agg.CurrentStreakStatus = status
	}
	switch status {
	case domain.StatusAttended:
		agg.TotalAttended++
	case domain.StatusAbsent:
		agg.TotalAbsent++
	}
}

// rewindLatestStreak rewrites the most recent fold to newStatus, restoring
// the counters to what advanceStreak would have produced had the event always
// carried newStatus. Callers have already rejected the equal-status no-op.
func rewindLatestStreak(agg *domain.StreakAggregate, newStatus domain.AttendanceStatus) error {
	if agg.CurrentStreakStatus == domain.StatusNone || agg.CurrentStreakCount == 0 {
		return NotFoundError("no folded event to correct")
	}
	switch newStatus {
	case domain.StatusAttended:
		if agg.TotalAbsent == 0 {
			return InvariantError("correction would drive total_absent negative")
		}
		agg.TotalAttended++
		agg.TotalAbsent--
	case domain.StatusAbsent:
		if agg.TotalAttended == 0 {
			return InvariantError("correction would drive total_attended negative")
		}
		agg.TotalAbsent++
		agg.TotalAttended--
	}
	prevCount := agg.CurrentStreakCount
	agg.CurrentStreakStatus = newStatus
	agg.CurrentStreakCount = agg.OppositeLastStreakLen + 1
	// The run that just lost its newest record is now the opposite side,
	// shorter by the corrected record itself.
	agg.OppositeLastStreakLen = prevCount - 1
	return nil
}

func streakResult(agg *domain.StreakAggregate, at time.Time) domainagg.StreakResult {
	return domainagg.StreakResult{
		MemberID:              agg.MemberID,
		ActivityType:          agg.ActivityType,
		CurrentStreakCount:    agg.CurrentStreakCount,
		CurrentStreakStatus:   agg.CurrentStreakStatus,
		OppositeLastStreakLen: agg.OppositeLastStreakLen,
		TotalAttended:         agg.TotalAttended,
		TotalAbsent:           agg.TotalAbsent,
		AppliedAt:             at,
	}
}
