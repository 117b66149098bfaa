// Package testutil provides the shared postgres harness for repo integration
// tests. Tests skip unless TEST_POSTGRES_DSN points at a disposable database.
package testutil

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/saehim/attendance-backend/internal/domain"
	"github.com/saehim/attendance-backend/internal/platform/logger"
)

// OpenTestDB connects to the integration database, migrates the schema and
// truncates every table so each test starts clean.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open test postgres: %v", err)
	}
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		t.Fatalf("enable uuid-ossp: %v", err)
	}
	if err := db.AutoMigrate(
		&domain.Member{},
		&domain.Organization{},
		&domain.MemberRole{},
		&domain.AttendanceEvent{},
		&domain.StreakAggregate{},
	); err != nil {
		t.Fatalf("migrate test schema: %v", err)
	}

	tables := []string{
		domain.StreakAggregate{}.TableName(),
		domain.AttendanceEvent{}.TableName(),
		domain.MemberRole{}.TableName(),
		domain.Organization{}.TableName(),
		domain.Member{}.TableName(),
	}
	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf(`TRUNCATE TABLE %q CASCADE`, table)).Error; err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}
	return db
}

func TestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

// SeedMember inserts a member row with sane defaults.
func SeedMember(t *testing.T, db *gorm.DB, name string, isNew bool, registeredAt time.Time) *domain.Member {
	t.Helper()
	m := &domain.Member{
		ID:           uuid.New(),
		Name:         name,
		IsNewMember:  isNew,
		RegisteredAt: registeredAt,
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed member %s: %v", name, err)
	}
	return m
}

// SeedOrganization inserts an organization row for the given season.
func SeedOrganization(t *testing.T, db *gorm.DB, seasonID uuid.UUID, name string, parentID *uuid.UUID) *domain.Organization {
	t.Helper()
	o := &domain.Organization{
		ID:       uuid.New(),
		SeasonID: seasonID,
		Name:     name,
		ParentID: parentID,
	}
	if err := db.Create(o).Error; err != nil {
		t.Fatalf("seed organization %s: %v", name, err)
	}
	return o
}

// SeedRole assigns a member to an organization, backdating CreatedAt so
// population cutoff queries see it.
func SeedRole(t *testing.T, db *gorm.DB, memberID, orgID uuid.UUID, roleName string, createdAt time.Time) *domain.MemberRole {
	t.Helper()
	r := &domain.MemberRole{
		ID:             uuid.New(),
		MemberID:       memberID,
		OrganizationID: orgID,
		RoleName:       roleName,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
	if err := db.Create(r).Error; err != nil {
		t.Fatalf("seed role: %v", err)
	}
	return r
}

// SeedEvent inserts one attendance event.
func SeedEvent(t *testing.T, db *gorm.DB, memberID uuid.UUID, activityType string, occurredAt time.Time, status domain.AttendanceStatus) *domain.AttendanceEvent {
	t.Helper()
	ev := &domain.AttendanceEvent{
		ID:           uuid.New(),
		MemberID:     memberID,
		ActivityType: activityType,
		OccurredAt:   occurredAt,
		Status:       status,
	}
	if err := db.Create(ev).Error; err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return ev
}
