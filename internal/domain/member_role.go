package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleMember = "member"
	RoleLeader = "leader"
)

// MemberRole assigns a member to an organization for one season. CreatedAt
// doubles as the population cutoff for week-over-week reporting: an
// assignment created before a window boundary counts toward that window's
// population.
type MemberRole struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	MemberID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"member_id"`
	Member         *Member        `gorm:"constraint:OnDelete:CASCADE;foreignKey:MemberID;references:ID" json:"member,omitempty"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"organization_id"`
	Organization   *Organization  `gorm:"constraint:OnDelete:CASCADE;foreignKey:OrganizationID;references:ID" json:"organization,omitempty"`
	RoleName       string         `gorm:"not null;index" json:"role_name"`
	CreatedAt      time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (MemberRole) TableName() string { return "member_role" }
