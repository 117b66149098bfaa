package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/saehim/attendance-backend/internal/domain"
)

var AttendanceStreakAggregateContract = Contract{
	Name:             "Attendance.StreakAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyTableRepoQueries,
	Notes: "Owns the per-(member, activity type) streak counters. Folds one event per write " +
		"under a version guard; reporting reads recompute from the raw event log instead.",
}

// AttendanceStreakAggregate owns streak counter invariant writes.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodePreconditionFailed,
// CodeRetryable, CodeInternal.
type AttendanceStreakAggregate interface {
	Aggregate

	// Apply records one new attendance event and folds it into the
	// aggregate in a single transaction, creating and history-seeding the
	// aggregate row on first contact.
	Apply(ctx context.Context, in ApplyStreakInput) (StreakResult, error)

	// ApplyCorrection retroactively changes the status of the most recently
	// recorded event, updating the event row and rewinding the fold. Only
	// one level of undo exists; anything older conflicts.
	ApplyCorrection(ctx context.Context, in CorrectStreakInput) (StreakResult, error)

	// Disable freezes the aggregates of members who left the active
	// population for the season. History is preserved.
	Disable(ctx context.Context, in DisableStreakInput) (DisableStreakResult, error)
}

type ApplyStreakInput struct {
	MemberID     uuid.UUID
	ActivityType string
	OccurredAt   time.Time
	Status       domain.AttendanceStatus
}

type CorrectStreakInput struct {
	MemberID     uuid.UUID
	ActivityType string
	// OccurredAt identifies the event instance being corrected. It must be
	// the most recently recorded instance; older targets conflict.
	OccurredAt time.Time
	NewStatus  domain.AttendanceStatus
}

type DisableStreakInput struct {
	MemberIDs    []uuid.UUID
	ActivityType string
}

// StreakResult reports the aggregate counters after a successful write.
type StreakResult struct {
	MemberID              uuid.UUID
	ActivityType          string
	CurrentStreakCount    int
	CurrentStreakStatus   domain.AttendanceStatus
	OppositeLastStreakLen int
	TotalAttended         int
	TotalAbsent           int
	AppliedAt             time.Time
}

type DisableStreakResult struct {
	DisabledCount int
}
