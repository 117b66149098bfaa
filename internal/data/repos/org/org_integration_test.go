package org

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/saehim/attendance-backend/internal/data/repos/testutil"
	"github.com/saehim/attendance-backend/internal/domain"
	"github.com/saehim/attendance-backend/internal/platform/dbctx"
)

func TestOrganizationRepoPrefixEscapesSeparator(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewOrganizationRepo(db, testutil.TestLogger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	seasonID := uuid.New()
	testutil.SeedOrganization(t, db, seasonID, "1국", nil)
	testutil.SeedOrganization(t, db, seasonID, "1국_1그룹", nil)
	testutil.SeedOrganization(t, db, seasonID, "1국_1그룹_1순", nil)
	// "_" in the prefix must match literally, not as a single-char wildcard.
	testutil.SeedOrganization(t, db, seasonID, "1국X1그룹", nil)
	testutil.SeedOrganization(t, db, seasonID, "10국_1그룹", nil)

	got, err := repo.FindByNamePrefix(dbc, seasonID, "1국_1그룹")
	if err != nil {
		t.Fatalf("prefix query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("prefix matches: want=2 got=%d (%+v)", len(got), got)
	}
	for _, o := range got {
		if o.Name == "1국X1그룹" {
			t.Fatalf("separator matched as wildcard: %s", o.Name)
		}
	}
}

func TestOrganizationRepoSeasonIsolation(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewOrganizationRepo(db, testutil.TestLogger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	thisSeason := uuid.New()
	lastSeason := uuid.New()
	testutil.SeedOrganization(t, db, thisSeason, "1국_1그룹_1순", nil)
	testutil.SeedOrganization(t, db, lastSeason, "1국_1그룹_1순", nil)

	got, err := repo.FindByName(dbc, thisSeason, "1국_1그룹_1순")
	if err != nil {
		t.Fatalf("find by name: %v", err)
	}
	if len(got) != 1 || got[0].SeasonID != thisSeason {
		t.Fatalf("season isolation: %+v", got)
	}

	all, err := repo.ListBySeason(dbc, thisSeason)
	if err != nil {
		t.Fatalf("list by season: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("season list: want=1 got=%d", len(all))
	}
}

func TestOrganizationRepoFindChildren(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewOrganizationRepo(db, testutil.TestLogger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	seasonID := uuid.New()
	dept := testutil.SeedOrganization(t, db, seasonID, "1국", nil)
	groupA := testutil.SeedOrganization(t, db, seasonID, "1국_1그룹", &dept.ID)
	testutil.SeedOrganization(t, db, seasonID, "1국_2그룹", &dept.ID)
	testutil.SeedOrganization(t, db, seasonID, "1국_1그룹_1순", &groupA.ID)

	children, err := repo.FindChildren(dbc, dept.ID)
	if err != nil {
		t.Fatalf("find children: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("direct children: want=2 got=%d", len(children))
	}
}

func TestMemberRoleRepoPopulationCutoffs(t *testing.T) {
	db := testutil.OpenTestDB(t)
	roleRepo := NewMemberRoleRepo(db, testutil.TestLogger(t))
	memberRepo := NewMemberRepo(db, testutil.TestLogger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	seasonID := uuid.New()
	org := testutil.SeedOrganization(t, db, seasonID, "1국_1그룹_1순", nil)
	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	early := testutil.SeedMember(t, db, "김하나", false, cutoff.AddDate(0, -6, 0))
	lateNew := testutil.SeedMember(t, db, "이두리", true, cutoff.AddDate(0, 0, -3))
	afterCutoff := testutil.SeedMember(t, db, "박세미", true, cutoff.AddDate(0, 0, 2))

	testutil.SeedRole(t, db, early.ID, org.ID, domain.RoleMember, cutoff.AddDate(0, -6, 0))
	testutil.SeedRole(t, db, lateNew.ID, org.ID, domain.RoleMember, cutoff.AddDate(0, 0, -3))
	testutil.SeedRole(t, db, afterCutoff.ID, org.ID, domain.RoleMember, cutoff.AddDate(0, 0, 2))

	population, err := roleRepo.CountDistinctMembersAsOf(dbc, []uuid.UUID{org.ID}, cutoff)
	if err != nil {
		t.Fatalf("population: %v", err)
	}
	if population != 2 {
		t.Fatalf("population as of cutoff: want=2 got=%d", population)
	}

	ids, err := roleRepo.ListMemberIDsAsOf(dbc, []uuid.UUID{org.ID}, cutoff)
	if err != nil {
		t.Fatalf("member ids: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("member ids as of cutoff: want=2 got=%d", len(ids))
	}

	newMembers, err := memberRepo.CountNewInWindow(dbc, ids, cutoff.AddDate(0, 0, -7), cutoff)
	if err != nil {
		t.Fatalf("new members: %v", err)
	}
	if newMembers != 1 {
		t.Fatalf("new members in window: want=1 got=%d", newMembers)
	}
}

func TestMemberRoleRepoListByOrgIDsPreloadsMembers(t *testing.T) {
	db := testutil.OpenTestDB(t)
	roleRepo := NewMemberRoleRepo(db, testutil.TestLogger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	seasonID := uuid.New()
	org := testutil.SeedOrganization(t, db, seasonID, "1국_1그룹_1순", nil)
	member := testutil.SeedMember(t, db, "최네오", false, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC))
	testutil.SeedRole(t, db, member.ID, org.ID, domain.RoleLeader, time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC))

	roles, err := roleRepo.ListByOrgIDs(dbc, []uuid.UUID{org.ID})
	if err != nil {
		t.Fatalf("list roles: %v", err)
	}
	if len(roles) != 1 || roles[0].Member == nil || roles[0].Member.Name != "최네오" {
		t.Fatalf("preloaded roles: %+v", roles)
	}
	if roles[0].RoleName != domain.RoleLeader {
		t.Fatalf("role name: %+v", roles[0])
	}
}
