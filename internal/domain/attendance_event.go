package domain

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceStatus is the recorded outcome for one member at one activity
// instance. StatusNone only appears on a streak aggregate that has not folded
// any event yet.
type AttendanceStatus string

const (
	StatusAttended AttendanceStatus = "attended"
	StatusAbsent   AttendanceStatus = "absent"
	StatusNone     AttendanceStatus = "none"
)

// Valid reports whether s is a recordable status. StatusNone is not
// recordable; it is an aggregate-only zero value.
func (s AttendanceStatus) Valid() bool {
	return s == StatusAttended || s == StatusAbsent
}

// Activity type keys for the recurring services tracked by reporting.
const (
	ActivitySunday           = "sunday_service"
	ActivitySundayYoungAdult = "sunday_young_adult_service"
	ActivityWednesdayYoung   = "wednesday_young_adult_service"
)

// HeadlineActivityPattern is the SQL LIKE pattern selecting the headline
// services counted by the weekly participation rate.
const HeadlineActivityPattern = "sunday_%"

// AttendanceEvent is one roster submission row: one event per
// (member, activity instance). Rows are immutable except for a correction of
// the most recently recorded event's status.
type AttendanceEvent struct {
	ID           uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	MemberID     uuid.UUID        `gorm:"type:uuid;not null;index:idx_attendance_event_member_type_time,unique,priority:1" json:"member_id"`
	Member       *Member          `gorm:"constraint:OnDelete:CASCADE;foreignKey:MemberID;references:ID" json:"member,omitempty"`
	ActivityType string           `gorm:"not null;index:idx_attendance_event_member_type_time,unique,priority:2" json:"activity_type"`
	OccurredAt   time.Time        `gorm:"not null;index:idx_attendance_event_member_type_time,unique,priority:3;index" json:"occurred_at"`
	Status       AttendanceStatus `gorm:"not null" json:"status"`
	CreatedAt    time.Time        `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"not null;default:now()" json:"updated_at"`
}

func (AttendanceEvent) TableName() string { return "attendance_event" }

// CurrentRun returns the status of the newest event and the length of the
// uninterrupted run it heads. Events must be ordered newest-first. For a
// window covering a member's whole uncorrected history this matches the
// (CurrentStreakStatus, CurrentStreakCount) pair maintained on their
// StreakAggregate row.
func CurrentRun(events []*AttendanceEvent) (AttendanceStatus, int) {
	if len(events) == 0 {
		return StatusNone, 0
	}
	status := events[0].Status
	n := 0
	for _, ev := range events {
		if ev.Status != status {
			break
		}
		n++
	}
	return status, n
}
