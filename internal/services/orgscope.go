package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/saehim/attendance-backend/internal/data/repos"
	"github.com/saehim/attendance-backend/internal/domain"
	domainagg "github.com/saehim/attendance-backend/internal/domain/aggregates"
	"github.com/saehim/attendance-backend/internal/platform/dbctx"
	"github.com/saehim/attendance-backend/internal/platform/logger"
)

// Hierarchy level suffixes embedded in organization names. A full path reads
// "{dept}국_{group}그룹_{team}순".
const (
	deptSuffix  = "국"
	groupSuffix = "그룹"
	teamSuffix  = "순"
	levelSep    = "_"
)

// ScopeFilter narrows reporting to one branch of the season hierarchy. Levels
// are cumulative: a group only means something inside a department, a team
// only inside a group.
type ScopeFilter struct {
	Department string
	Group      string
	Team       string
}

type OrgScopeService interface {
	// Resolve maps a filter to the organization ids it covers within one
	// season. An empty filter covers the whole season.
	Resolve(ctx context.Context, seasonID uuid.UUID, filter ScopeFilter) ([]uuid.UUID, error)
	// ResolveSubtree walks parent_id links below root, root included. It is
	// the structural alternative to name-prefix matching and does not depend
	// on the name encoding.
	ResolveSubtree(ctx context.Context, rootID uuid.UUID) ([]uuid.UUID, error)
}

type orgScopeService struct {
	log  *logger.Logger
	orgs repos.OrganizationRepo
}

func NewOrgScopeService(log *logger.Logger, orgs repos.OrganizationRepo) OrgScopeService {
	return &orgScopeService{
		log:  log.With("service", "OrgScopeService"),
		orgs: orgs,
	}
}

func (s *orgScopeService) Resolve(ctx context.Context, seasonID uuid.UUID, filter ScopeFilter) ([]uuid.UUID, error) {
	const op = "OrgScope.Resolve"
	if seasonID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "season id is required", nil)
	}
	dept := strings.TrimSpace(filter.Department)
	group := strings.TrimSpace(filter.Group)
	team := strings.TrimSpace(filter.Team)
	if group != "" && dept == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "group filter requires a department", nil)
	}
	if team != "" && group == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "team filter requires a group", nil)
	}

	dbc := dbctx.Context{Ctx: ctx}
	var (
		orgs []*domain.Organization
		err  error
	)
	switch {
	case dept == "":
		orgs, err = s.orgs.ListBySeason(dbc, seasonID)
	case group == "":
		orgs, err = s.orgs.FindByNamePrefix(dbc, seasonID, dept+deptSuffix)
	case team == "":
		orgs, err = s.orgs.FindByNamePrefix(dbc, seasonID, dept+deptSuffix+levelSep+group+groupSuffix)
	default:
		orgs, err = s.orgs.FindByName(dbc, seasonID, dept+deptSuffix+levelSep+group+groupSuffix+levelSep+team+teamSuffix)
	}
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	out := make([]uuid.UUID, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, o.ID)
	}
	return out, nil
}

func (s *orgScopeService) ResolveSubtree(ctx context.Context, rootID uuid.UUID) ([]uuid.UUID, error) {
	const op = "OrgScope.ResolveSubtree"
	if rootID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "root organization id is required", nil)
	}
	dbc := dbctx.Context{Ctx: ctx}
	out := []uuid.UUID{rootID}
	seen := map[uuid.UUID]bool{rootID: true}
	queue := []uuid.UUID{rootID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		children, err := s.orgs.FindChildren(dbc, cur)
		if err != nil {
			return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
		}
		for _, child := range children {
			if seen[child.ID] {
				continue
			}
			seen[child.ID] = true
			out = append(out, child.ID)
			queue = append(queue, child.ID)
		}
	}
	return out, nil
}
