package domain

import (
	"time"

	"github.com/google/uuid"
)

// StreakAggregate is the running per-(member, activity type) summary folded
// incrementally from attendance events.
//
// Invariants:
//   - CurrentStreakStatus selects which direction the current streak runs;
//     at most one direction is active at a time.
//   - TotalAttended + TotalAbsent equals the number of events folded since
//     the row was created.
//   - OppositeLastStreakLen remembers the length of the one streak that ended
//     when the current streak started. That single level of history is what
//     makes a latest-event correction reversible; nothing older can be
//     corrected through this row.
//
// Disabled freezes the row when season scoping drops the member from the
// active population; history is kept.
type StreakAggregate struct {
	ID                    uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	MemberID              uuid.UUID        `gorm:"type:uuid;not null;index:idx_streak_aggregate_member_type,unique,priority:1" json:"member_id"`
	Member                *Member          `gorm:"constraint:OnDelete:CASCADE;foreignKey:MemberID;references:ID" json:"member,omitempty"`
	ActivityType          string           `gorm:"not null;index:idx_streak_aggregate_member_type,unique,priority:2" json:"activity_type"`
	CurrentStreakCount    int              `gorm:"not null;default:0" json:"current_streak_count"`
	CurrentStreakStatus   AttendanceStatus `gorm:"not null;default:'none'" json:"current_streak_status"`
	OppositeLastStreakLen int              `gorm:"not null;default:0" json:"opposite_last_streak_len"`
	TotalAttended         int              `gorm:"not null;default:0" json:"total_attended"`
	TotalAbsent           int              `gorm:"not null;default:0" json:"total_absent"`
	Disabled              bool             `gorm:"not null;default:false" json:"disabled"`
	Version               int              `gorm:"not null;default:0" json:"version"`
	CreatedAt             time.Time        `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt             time.Time        `gorm:"not null;default:now()" json:"updated_at"`
}

func (StreakAggregate) TableName() string { return "attendance_streak_aggregate" }
