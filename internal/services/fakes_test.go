package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/saehim/attendance-backend/internal/domain"
	domainagg "github.com/saehim/attendance-backend/internal/domain/aggregates"
	"github.com/saehim/attendance-backend/internal/platform/dbctx"
	"github.com/saehim/attendance-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

type fakeOrgRepo struct {
	bySeason map[uuid.UUID][]*domain.Organization
	children map[uuid.UUID][]*domain.Organization

	prefixCalls []string
	exactCalls  []string
}

func (f *fakeOrgRepo) ListBySeason(_ dbctx.Context, seasonID uuid.UUID) ([]*domain.Organization, error) {
	return f.bySeason[seasonID], nil
}

func (f *fakeOrgRepo) FindByNamePrefix(_ dbctx.Context, seasonID uuid.UUID, prefix string) ([]*domain.Organization, error) {
	f.prefixCalls = append(f.prefixCalls, prefix)
	out := []*domain.Organization{}
	for _, o := range f.bySeason[seasonID] {
		if len(o.Name) >= len(prefix) && o.Name[:len(prefix)] == prefix {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrgRepo) FindByName(_ dbctx.Context, seasonID uuid.UUID, name string) ([]*domain.Organization, error) {
	f.exactCalls = append(f.exactCalls, name)
	out := []*domain.Organization{}
	for _, o := range f.bySeason[seasonID] {
		if o.Name == name {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrgRepo) FindChildren(_ dbctx.Context, parentID uuid.UUID) ([]*domain.Organization, error) {
	return f.children[parentID], nil
}

type fakeEventRepo struct {
	// events keyed by activity type, already newest-first as the real repo
	// returns them from ListInWindow.
	inWindow map[string][]*domain.AttendanceEvent

	attendedByPattern map[time.Time]int64
	attendedInRange   []*domain.AttendanceEvent
	byOccurrence      map[string]*domain.AttendanceEvent

	listInWindowCalls int
}

func occKey(memberID uuid.UUID, activityType string, occurredAt time.Time) string {
	return memberID.String() + "|" + activityType + "|" + occurredAt.UTC().Format(time.RFC3339)
}

func (f *fakeEventRepo) Create(_ dbctx.Context, _ *domain.AttendanceEvent) error { return nil }
func (f *fakeEventRepo) UpdateStatus(_ dbctx.Context, _ uuid.UUID, _ domain.AttendanceStatus) error {
	return nil
}

func (f *fakeEventRepo) GetByOccurrence(_ dbctx.Context, memberID uuid.UUID, activityType string, occurredAt time.Time) (*domain.AttendanceEvent, error) {
	return f.byOccurrence[occKey(memberID, activityType, occurredAt)], nil
}

func (f *fakeEventRepo) LatestByMemberAndType(_ dbctx.Context, _ uuid.UUID, _ string) (*domain.AttendanceEvent, error) {
	return nil, nil
}

func (f *fakeEventRepo) ListByMemberAndType(_ dbctx.Context, _ uuid.UUID, _ string) ([]*domain.AttendanceEvent, error) {
	return nil, nil
}

func (f *fakeEventRepo) ListInWindow(_ dbctx.Context, _ []uuid.UUID, activityType string, from, to time.Time) ([]*domain.AttendanceEvent, error) {
	f.listInWindowCalls++
	out := []*domain.AttendanceEvent{}
	for _, ev := range f.inWindow[activityType] {
		if !ev.OccurredAt.Before(from) && ev.OccurredAt.Before(to) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) CountAttendedByPattern(_ dbctx.Context, _ []uuid.UUID, _ string, _, _, to time.Time) (int64, error) {
	return f.attendedByPattern[to], nil
}

func (f *fakeEventRepo) ListAttendedInRange(_ dbctx.Context, activityType string, from, to time.Time) ([]*domain.AttendanceEvent, error) {
	out := []*domain.AttendanceEvent{}
	for _, ev := range f.attendedInRange {
		if ev.ActivityType != activityType {
			continue
		}
		if !ev.OccurredAt.Before(from) && ev.OccurredAt.Before(to) {
			out = append(out, ev)
		}
	}
	return out, nil
}

type fakeRoleRepo struct {
	roles []*domain.MemberRole
	// populationAsOf / memberIDsAsOf keyed by cutoff.
	populationAsOf map[time.Time]int64
	memberIDsAsOf  map[time.Time][]uuid.UUID
}

func (f *fakeRoleRepo) ListByOrgIDs(_ dbctx.Context, _ []uuid.UUID) ([]*domain.MemberRole, error) {
	return f.roles, nil
}

func (f *fakeRoleRepo) CountDistinctMembersAsOf(_ dbctx.Context, _ []uuid.UUID, cutoff time.Time) (int64, error) {
	return f.populationAsOf[cutoff], nil
}

func (f *fakeRoleRepo) ListMemberIDsAsOf(_ dbctx.Context, _ []uuid.UUID, cutoff time.Time) ([]uuid.UUID, error) {
	return f.memberIDsAsOf[cutoff], nil
}

type fakeMemberRepo struct {
	newInWindow map[time.Time]int64
}

func (f *fakeMemberRepo) GetByIDs(_ dbctx.Context, _ []uuid.UUID) ([]*domain.Member, error) {
	return nil, nil
}

func (f *fakeMemberRepo) CountNewInWindow(_ dbctx.Context, memberIDs []uuid.UUID, _, to time.Time) (int64, error) {
	if len(memberIDs) == 0 {
		return 0, nil
	}
	return f.newInWindow[to], nil
}

type fakeStreakAggregate struct {
	applied   []domainagg.ApplyStreakInput
	corrected []domainagg.CorrectStreakInput

	applyErr   error
	correctErr error
	result     domainagg.StreakResult
}

func (f *fakeStreakAggregate) Contract() domainagg.Contract {
	return domainagg.AttendanceStreakAggregateContract
}

func (f *fakeStreakAggregate) Apply(_ context.Context, in domainagg.ApplyStreakInput) (domainagg.StreakResult, error) {
	f.applied = append(f.applied, in)
	return f.result, f.applyErr
}

func (f *fakeStreakAggregate) ApplyCorrection(_ context.Context, in domainagg.CorrectStreakInput) (domainagg.StreakResult, error) {
	f.corrected = append(f.corrected, in)
	return f.result, f.correctErr
}

func (f *fakeStreakAggregate) Disable(_ context.Context, _ domainagg.DisableStreakInput) (domainagg.DisableStreakResult, error) {
	return domainagg.DisableStreakResult{}, nil
}

type fakeReportCache struct {
	store map[string][]byte

	getErr error
	setErr error
	gets   int
	sets   int
}

func newFakeReportCache() *fakeReportCache {
	return &fakeReportCache{store: map[string][]byte{}}
}

func (f *fakeReportCache) Get(_ context.Context, key string, dst any) (bool, error) {
	f.gets++
	if f.getErr != nil {
		return false, f.getErr
	}
	raw, ok := f.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (f *fakeReportCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.store[key] = raw
	return nil
}

func (f *fakeReportCache) Client() *goredis.Client { return nil }
func (f *fakeReportCache) Close() error            { return nil }
