package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/saehim/attendance-backend/internal/data/repos"
	"github.com/saehim/attendance-backend/internal/domain"
	domainagg "github.com/saehim/attendance-backend/internal/domain/aggregates"
	"github.com/saehim/attendance-backend/internal/platform/dbctx"
	"github.com/saehim/attendance-backend/internal/platform/logger"
)

const weeklyWindow = 7 * 24 * time.Hour

// WeeklySnapshot describes one 7-day window ending at its cutoff. Population
// counts role assignments created before the cutoff, so members added mid-week
// join the denominator of the following window.
type WeeklySnapshot struct {
	Population      int     `json:"population"`
	AttendanceCount int     `json:"attendance_count"`
	NewMemberCount  int     `json:"new_member_count"`
	Rate            float64 `json:"rate"`
}

type WeeklyRateResult struct {
	ThisWeek WeeklySnapshot `json:"this_week"`
	LastWeek WeeklySnapshot `json:"last_week"`
}

type WeeklyRateService interface {
	// GetWeeklyAggregation compares the 7-day window ending at now with the
	// one before it, using the headline sunday activities for attendance.
	GetWeeklyAggregation(ctx context.Context, seasonID uuid.UUID, filter ScopeFilter, now time.Time) (WeeklyRateResult, error)
}

type weeklyRateService struct {
	log     *logger.Logger
	scope   OrgScopeService
	events  repos.AttendanceEventRepo
	roles   repos.MemberRoleRepo
	members repos.MemberRepo
}

func NewWeeklyRateService(log *logger.Logger, scope OrgScopeService, events repos.AttendanceEventRepo, roles repos.MemberRoleRepo, members repos.MemberRepo) WeeklyRateService {
	return &weeklyRateService{
		log:     log.With("service", "WeeklyRateService"),
		scope:   scope,
		events:  events,
		roles:   roles,
		members: members,
	}
}

func (s *weeklyRateService) GetWeeklyAggregation(ctx context.Context, seasonID uuid.UUID, filter ScopeFilter, now time.Time) (WeeklyRateResult, error) {
	const op = "WeeklyRate.GetWeeklyAggregation"
	var out WeeklyRateResult
	if now.IsZero() {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "reference time is required", nil)
	}

	orgIDs, err := s.scope.Resolve(ctx, seasonID, filter)
	if err != nil {
		return out, err
	}
	if len(orgIDs) == 0 {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap, err := s.snapshot(gctx, orgIDs, now)
		if err != nil {
			return err
		}
		out.ThisWeek = snap
		return nil
	})
	g.Go(func() error {
		snap, err := s.snapshot(gctx, orgIDs, now.Add(-weeklyWindow))
		if err != nil {
			return err
		}
		out.LastWeek = snap
		return nil
	})
	if err := g.Wait(); err != nil {
		return WeeklyRateResult{}, err
	}
	return out, nil
}

func (s *weeklyRateService) snapshot(ctx context.Context, orgIDs []uuid.UUID, cutoff time.Time) (WeeklySnapshot, error) {
	const op = "WeeklyRate.snapshot"
	var snap WeeklySnapshot
	dbc := dbctx.Context{Ctx: ctx}
	from := cutoff.Add(-weeklyWindow)

	population, err := s.roles.CountDistinctMembersAsOf(dbc, orgIDs, cutoff)
	if err != nil {
		return snap, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	attended, err := s.events.CountAttendedByPattern(dbc, orgIDs, domain.HeadlineActivityPattern, cutoff, from, cutoff)
	if err != nil {
		return snap, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	memberIDs, err := s.roles.ListMemberIDsAsOf(dbc, orgIDs, cutoff)
	if err != nil {
		return snap, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	newMembers, err := s.members.CountNewInWindow(dbc, memberIDs, from, cutoff)
	if err != nil {
		return snap, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}

	snap.Population = int(population)
	snap.AttendanceCount = int(attended)
	snap.NewMemberCount = int(newMembers)
	if snap.Population > 0 {
		snap.Rate = float64(snap.AttendanceCount) / float64(snap.Population)
	}
	return snap, nil
}
