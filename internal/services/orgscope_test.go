package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/saehim/attendance-backend/internal/domain"
	domainagg "github.com/saehim/attendance-backend/internal/domain/aggregates"
)

func seasonOrgs(seasonID uuid.UUID, names ...string) (*fakeOrgRepo, map[string]uuid.UUID) {
	repo := &fakeOrgRepo{bySeason: map[uuid.UUID][]*domain.Organization{}}
	ids := map[string]uuid.UUID{}
	for _, name := range names {
		id := uuid.New()
		ids[name] = id
		repo.bySeason[seasonID] = append(repo.bySeason[seasonID], &domain.Organization{
			ID:       id,
			SeasonID: seasonID,
			Name:     name,
		})
	}
	return repo, ids
}

func TestResolveScopeLevels(t *testing.T) {
	seasonID := uuid.New()
	repo, ids := seasonOrgs(seasonID,
		"1국", "1국_1그룹", "1국_1그룹_1순", "1국_1그룹_2순", "1국_2그룹", "1국_2그룹_1순",
		"2국", "2국_1그룹", "2국_1그룹_1순",
	)
	svc := NewOrgScopeService(testLogger(t), repo)

	cases := []struct {
		name      string
		filter    ScopeFilter
		wantNames []string
	}{
		{
			name:      "empty filter covers the season",
			filter:    ScopeFilter{},
			wantNames: []string{"1국", "1국_1그룹", "1국_1그룹_1순", "1국_1그룹_2순", "1국_2그룹", "1국_2그룹_1순", "2국", "2국_1그룹", "2국_1그룹_1순"},
		},
		{
			name:      "department filter covers its subtree",
			filter:    ScopeFilter{Department: "1"},
			wantNames: []string{"1국", "1국_1그룹", "1국_1그룹_1순", "1국_1그룹_2순", "1국_2그룹", "1국_2그룹_1순"},
		},
		{
			name:      "group filter covers the group subtree",
			filter:    ScopeFilter{Department: "1", Group: "1"},
			wantNames: []string{"1국_1그룹", "1국_1그룹_1순", "1국_1그룹_2순"},
		},
		{
			name:      "full filter resolves exactly one team",
			filter:    ScopeFilter{Department: "2", Group: "1", Team: "1"},
			wantNames: []string{"2국_1그룹_1순"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.Resolve(context.Background(), seasonID, tc.filter)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if len(got) != len(tc.wantNames) {
				t.Fatalf("scope size: want=%d got=%d", len(tc.wantNames), len(got))
			}
			want := map[uuid.UUID]bool{}
			for _, name := range tc.wantNames {
				want[ids[name]] = true
			}
			for _, id := range got {
				if !want[id] {
					t.Fatalf("unexpected org id in scope: %s", id)
				}
			}
		})
	}
}

func TestResolveRejectsGapsInFilter(t *testing.T) {
	seasonID := uuid.New()
	repo, _ := seasonOrgs(seasonID, "1국")
	svc := NewOrgScopeService(testLogger(t), repo)

	cases := []struct {
		name   string
		filter ScopeFilter
	}{
		{"group without department", ScopeFilter{Group: "1"}},
		{"team without group", ScopeFilter{Department: "1", Team: "2"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Resolve(context.Background(), seasonID, tc.filter)
			if !domainagg.IsCode(err, domainagg.CodeValidation) {
				t.Fatalf("expected validation error, got=%v", err)
			}
		})
	}
}

func TestResolveDepartmentPrefixDoesNotLeakAcrossDigits(t *testing.T) {
	seasonID := uuid.New()
	repo, ids := seasonOrgs(seasonID, "1국", "1국_1그룹", "10국", "10국_1그룹")
	svc := NewOrgScopeService(testLogger(t), repo)

	got, err := svc.Resolve(context.Background(), seasonID, ScopeFilter{Department: "1"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("scope size: want=2 got=%d", len(got))
	}
	for _, id := range got {
		if id == ids["10국"] || id == ids["10국_1그룹"] {
			t.Fatalf("department 1 scope leaked into department 10")
		}
	}
}

func TestResolveEmptySeasonYieldsEmptyScope(t *testing.T) {
	repo := &fakeOrgRepo{bySeason: map[uuid.UUID][]*domain.Organization{}}
	svc := NewOrgScopeService(testLogger(t), repo)

	got, err := svc.Resolve(context.Background(), uuid.New(), ScopeFilter{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty scope, got=%d ids", len(got))
	}
}

func TestResolveSubtreeWalksAllDescendants(t *testing.T) {
	root := uuid.New()
	groupA := uuid.New()
	groupB := uuid.New()
	teamA1 := uuid.New()
	repo := &fakeOrgRepo{
		children: map[uuid.UUID][]*domain.Organization{
			root:   {{ID: groupA}, {ID: groupB}},
			groupA: {{ID: teamA1}},
		},
	}
	svc := NewOrgScopeService(testLogger(t), repo)

	got, err := svc.ResolveSubtree(context.Background(), root)
	if err != nil {
		t.Fatalf("ResolveSubtree: %v", err)
	}
	want := map[uuid.UUID]bool{root: true, groupA: true, groupB: true, teamA1: true}
	if len(got) != len(want) {
		t.Fatalf("subtree size: want=%d got=%d", len(want), len(got))
	}
	for _, id := range got {
		if !want[id] {
			t.Fatalf("unexpected id in subtree: %s", id)
		}
	}
}
