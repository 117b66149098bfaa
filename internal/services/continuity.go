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

const (
	// defaultWindowCycles is how many weekly cycles the continuity window
	// spans; it is also the ceiling a run observed inside the window can hit.
	defaultWindowCycles = 4
	cycleLength         = 7 * 24 * time.Hour
)

// MemberStreak is one watchlist row: a member and their current uninterrupted
// run as observed inside the reporting window.
type MemberStreak struct {
	MemberID  uuid.UUID               `json:"member_id"`
	Name      string                  `json:"name"`
	Status    domain.AttendanceStatus `json:"status"`
	RunLength int                     `json:"run_length"`
}

// ActivityContinuity reports one activity type. The Exactly lists are strict
// equality buckets for follow-up outreach; the AtLeast counters are cumulative
// tallies for the dashboard headline.
type ActivityContinuity struct {
	AbsentExactly2 []MemberStreak `json:"absent_exactly_2"`
	AbsentExactly3 []MemberStreak `json:"absent_exactly_3"`
	AbsentExactly4 []MemberStreak `json:"absent_exactly_4"`
	AbsentAtLeast2 int            `json:"absent_at_least_2"`
	AbsentAtLeast3 int            `json:"absent_at_least_3"`
	AbsentAtLeast4 int            `json:"absent_at_least_4"`
	LoyalAtLeast4  int            `json:"loyal_at_least_4"`
}

type ContinuityReport struct {
	Sunday              ActivityContinuity `json:"sunday"`
	SundayYoungAdult    ActivityContinuity `json:"sunday_young_adult"`
	WednesdayYoungAdult ActivityContinuity `json:"wednesday_young_adult"`
}

type ContinuityService interface {
	// GetContinuousMembers builds the absence watchlists and loyalty counts
	// for every tracked activity type over the trailing window ending at now.
	GetContinuousMembers(ctx context.Context, seasonID uuid.UUID, filter ScopeFilter, now time.Time) (ContinuityReport, error)
}

type continuityService struct {
	log          *logger.Logger
	scope        OrgScopeService
	events       repos.AttendanceEventRepo
	roles        repos.MemberRoleRepo
	windowCycles int
}

func NewContinuityService(log *logger.Logger, scope OrgScopeService, events repos.AttendanceEventRepo, roles repos.MemberRoleRepo) ContinuityService {
	return &continuityService{
		log:          log.With("service", "ContinuityService"),
		scope:        scope,
		events:       events,
		roles:        roles,
		windowCycles: defaultWindowCycles,
	}
}

func (s *continuityService) GetContinuousMembers(ctx context.Context, seasonID uuid.UUID, filter ScopeFilter, now time.Time) (ContinuityReport, error) {
	const op = "Continuity.GetContinuousMembers"
	var report ContinuityReport
	if now.IsZero() {
		return report, domainagg.NewError(domainagg.CodeValidation, op, "reference time is required", nil)
	}

	orgIDs, err := s.scope.Resolve(ctx, seasonID, filter)
	if err != nil {
		return report, err
	}
	if len(orgIDs) == 0 {
		return report, nil
	}

	roster, err := s.roles.ListByOrgIDs(dbctx.Context{Ctx: ctx}, orgIDs)
	if err != nil {
		return report, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	names := make(map[uuid.UUID]string, len(roster))
	ordinary := make(map[uuid.UUID]bool, len(roster))
	for _, role := range roster {
		if role.Member != nil {
			names[role.MemberID] = role.Member.Name
		}
		if role.RoleName == domain.RoleMember {
			ordinary[role.MemberID] = true
		}
	}

	from := now.Add(-time.Duration(s.windowCycles) * cycleLength)

	targets := []struct {
		activityType string
		out          *ActivityContinuity
	}{
		{domain.ActivitySunday, &report.Sunday},
		{domain.ActivitySundayYoungAdult, &report.SundayYoungAdult},
		{domain.ActivityWednesdayYoung, &report.WednesdayYoungAdult},
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range targets {
		t := t
		g.Go(func() error {
			events, err := s.events.ListInWindow(dbctx.Context{Ctx: gctx}, orgIDs, t.activityType, from, now)
			if err != nil {
				return domainagg.Wrap(domainagg.CodeInternal, op, err)
			}
			*t.out = s.classify(events, names, ordinary)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ContinuityReport{}, err
	}
	return report, nil
}

// classify walks each member's in-window events newest-first and buckets the
// current run. Events arrive already ordered newest-first.
func (s *continuityService) classify(events []*domain.AttendanceEvent, names map[uuid.UUID]string, ordinary map[uuid.UUID]bool) ActivityContinuity {
	byMember := make(map[uuid.UUID][]*domain.AttendanceEvent)
	order := []uuid.UUID{}
	for _, ev := range events {
		if _, ok := byMember[ev.MemberID]; !ok {
			order = append(order, ev.MemberID)
		}
		byMember[ev.MemberID] = append(byMember[ev.MemberID], ev)
	}

	out := ActivityContinuity{
		AbsentExactly2: []MemberStreak{},
		AbsentExactly3: []MemberStreak{},
		AbsentExactly4: []MemberStreak{},
	}
	for _, memberID := range order {
		status, run := domain.CurrentRun(byMember[memberID])
		if run == 0 {
			continue
		}
		switch status {
		case domain.StatusAbsent:
			if run >= 2 {
				out.AbsentAtLeast2++
			}
			if run >= 3 {
				out.AbsentAtLeast3++
			}
			if run >= 4 {
				out.AbsentAtLeast4++
			}
			row := MemberStreak{
				MemberID:  memberID,
				Name:      names[memberID],
				Status:    status,
				RunLength: run,
			}
			switch run {
			case 2:
				out.AbsentExactly2 = append(out.AbsentExactly2, row)
			case 3:
				out.AbsentExactly3 = append(out.AbsentExactly3, row)
			case 4:
				out.AbsentExactly4 = append(out.AbsentExactly4, row)
			}
		case domain.StatusAttended:
			if run >= s.windowCycles && ordinary[memberID] {
				out.LoyalAtLeast4++
			}
		}
	}
	return out
}
