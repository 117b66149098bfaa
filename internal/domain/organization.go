package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Organization name encodes the three-level hierarchy as
// "{department}국_{group}그룹_{team}순". The tree is also walkable through
// ParentID; name prefix matching and parent traversal must agree.
type Organization struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name      string         `gorm:"not null;index:idx_organization_season_name,priority:2" json:"name"`
	ParentID  *uuid.UUID     `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	SeasonID  uuid.UUID      `gorm:"type:uuid;not null;index:idx_organization_season_name,priority:1" json:"season_id"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Organization) TableName() string { return "organization" }
