package services

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/saehim/attendance-backend/internal/domain"
)

func TestGetWeeklyAggregationComparesWindows(t *testing.T) {
	seasonID := uuid.New()
	orgRepo, _ := seasonOrgs(seasonID, "1국_1그룹_1순")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lastCutoff := now.Add(-weeklyWindow)

	memberIDs := []uuid.UUID{uuid.New(), uuid.New()}
	// Population grew from 35 to 40 between the windows; attendance went
	// from 32 to 28.
	roleRepo := &fakeRoleRepo{
		populationAsOf: map[time.Time]int64{now: 40, lastCutoff: 35},
		memberIDsAsOf:  map[time.Time][]uuid.UUID{now: memberIDs, lastCutoff: memberIDs},
	}
	eventRepo := &fakeEventRepo{
		attendedByPattern: map[time.Time]int64{now: 28, lastCutoff: 32},
	}
	memberRepo := &fakeMemberRepo{
		newInWindow: map[time.Time]int64{now: 5, lastCutoff: 1},
	}

	log := testLogger(t)
	svc := NewWeeklyRateService(log, NewOrgScopeService(log, orgRepo), eventRepo, roleRepo, memberRepo)

	out, err := svc.GetWeeklyAggregation(context.Background(), seasonID, ScopeFilter{}, now)
	if err != nil {
		t.Fatalf("GetWeeklyAggregation: %v", err)
	}

	if out.ThisWeek.Population != 40 || out.ThisWeek.AttendanceCount != 28 || out.ThisWeek.NewMemberCount != 5 {
		t.Fatalf("this week: %+v", out.ThisWeek)
	}
	if out.LastWeek.Population != 35 || out.LastWeek.AttendanceCount != 32 || out.LastWeek.NewMemberCount != 1 {
		t.Fatalf("last week: %+v", out.LastWeek)
	}
	if math.Abs(out.ThisWeek.Rate-28.0/40.0) > 1e-9 {
		t.Fatalf("this week rate: got=%f", out.ThisWeek.Rate)
	}
	if math.Abs(out.LastWeek.Rate-32.0/35.0) > 1e-9 {
		t.Fatalf("last week rate: got=%f", out.LastWeek.Rate)
	}
	// The rate can fall while raw attendance context still shows growth in
	// the denominator.
	if out.ThisWeek.Rate >= out.LastWeek.Rate {
		t.Fatalf("expected rate drop: this=%f last=%f", out.ThisWeek.Rate, out.LastWeek.Rate)
	}
}

func TestGetWeeklyAggregationZeroPopulation(t *testing.T) {
	seasonID := uuid.New()
	orgRepo, _ := seasonOrgs(seasonID, "1국_1그룹_1순")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	roleRepo := &fakeRoleRepo{
		populationAsOf: map[time.Time]int64{},
		memberIDsAsOf:  map[time.Time][]uuid.UUID{},
	}
	eventRepo := &fakeEventRepo{attendedByPattern: map[time.Time]int64{}}
	memberRepo := &fakeMemberRepo{newInWindow: map[time.Time]int64{}}

	log := testLogger(t)
	svc := NewWeeklyRateService(log, NewOrgScopeService(log, orgRepo), eventRepo, roleRepo, memberRepo)

	out, err := svc.GetWeeklyAggregation(context.Background(), seasonID, ScopeFilter{}, now)
	if err != nil {
		t.Fatalf("GetWeeklyAggregation: %v", err)
	}
	if out.ThisWeek.Rate != 0 || out.LastWeek.Rate != 0 {
		t.Fatalf("zero population must yield zero rate: %+v", out)
	}
}

func TestGetWeeklyAggregationEmptyScope(t *testing.T) {
	seasonID := uuid.New()
	orgRepo := &fakeOrgRepo{bySeason: map[uuid.UUID][]*domain.Organization{}}

	log := testLogger(t)
	svc := NewWeeklyRateService(log, NewOrgScopeService(log, orgRepo), &fakeEventRepo{}, &fakeRoleRepo{}, &fakeMemberRepo{})

	out, err := svc.GetWeeklyAggregation(context.Background(), seasonID, ScopeFilter{}, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GetWeeklyAggregation: %v", err)
	}
	if out != (WeeklyRateResult{}) {
		t.Fatalf("empty scope should yield zeroed result: %+v", out)
	}
}
