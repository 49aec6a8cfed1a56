package app

import (
	"errors"
	"net/http"
	"testing"

	"scorekeep/api/internal/share"
	"scorekeep/api/internal/store"
)

func placements(results []PlacementResult) map[string]int {
	out := map[string]int{}
	for _, r := range results {
		if r.Placement != nil {
			out[r.MatchPlayerID] = *r.Placement
		}
	}
	return out
}

func winners(results []PlacementResult) map[string]bool {
	out := map[string]bool{}
	for _, r := range results {
		out[r.MatchPlayerID] = r.Winner
	}
	return out
}

func TestDefaultPlacementHighestWins(t *testing.T) {
	players := []store.MatchPlayer{
		{ID: "a", Score: 40},
		{ID: "b", Score: 72},
		{ID: "c", Score: 55},
	}
	results := DefaultPlacement(players, store.Scoresheet{WinCondition: "highest"})

	got := placements(results)
	want := map[string]int{"b": 1, "c": 2, "a": 3}
	for id, rank := range want {
		if got[id] != rank {
			t.Fatalf("placement[%s] = %d, want %d (all: %v)", id, got[id], rank, got)
		}
	}
	if w := winners(results); !w["b"] || w["a"] || w["c"] {
		t.Fatalf("winners = %v", w)
	}
}

func TestDefaultPlacementLowestWins(t *testing.T) {
	players := []store.MatchPlayer{
		{ID: "a", Score: 40},
		{ID: "b", Score: 72},
	}
	results := DefaultPlacement(players, store.Scoresheet{WinCondition: "lowest"})
	got := placements(results)
	if got["a"] != 1 || got["b"] != 2 {
		t.Fatalf("placements = %v", got)
	}
}

func TestDefaultPlacementTiesSharePlacement(t *testing.T) {
	players := []store.MatchPlayer{
		{ID: "a", Score: 50},
		{ID: "b", Score: 50},
		{ID: "c", Score: 30},
	}
	results := DefaultPlacement(players, store.Scoresheet{WinCondition: "highest"})

	got := placements(results)
	if got["a"] != 1 || got["b"] != 1 {
		t.Fatalf("tied players at %d/%d, want shared first", got["a"], got["b"])
	}
	// The player after a tie skips the shared rank.
	if got["c"] != 3 {
		t.Fatalf("placement[c] = %d, want 3", got["c"])
	}
	w := winners(results)
	if !w["a"] || !w["b"] || w["c"] {
		t.Fatalf("winners = %v", w)
	}
}

func TestDefaultPlacementCoop(t *testing.T) {
	target := 50
	sheet := store.Scoresheet{IsCoop: true, TargetScore: &target}

	won := DefaultPlacement([]store.MatchPlayer{{ID: "a", Score: 60}, {ID: "b", Score: 50}}, sheet)
	for _, r := range won {
		if !r.Winner {
			t.Fatalf("coop team above target must all win: %+v", r)
		}
		if r.Placement != nil {
			t.Fatalf("coop results carry no placement: %+v", r)
		}
	}

	lost := DefaultPlacement([]store.MatchPlayer{{ID: "a", Score: 60}, {ID: "b", Score: 49}}, sheet)
	for _, r := range lost {
		if r.Winner {
			t.Fatalf("one player under target must lose the team: %+v", r)
		}
	}

	// No target means the session itself counts as a win.
	free := DefaultPlacement([]store.MatchPlayer{{ID: "a", Score: 0}}, store.Scoresheet{IsCoop: true})
	if !free[0].Winner {
		t.Fatalf("coop without target must win")
	}
}

func TestMapShareError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{share.ErrLinkNotOwned, http.StatusForbidden, "FORBIDDEN"},
		{share.ErrPermissionDenied, http.StatusForbidden, "FORBIDDEN"},
		{share.ErrAlreadyDecided, http.StatusConflict, "ALREADY_DECIDED"},
		{share.ErrUnresolvedDependency, http.StatusUnprocessableEntity, "UNRESOLVED_DEPENDENCY"},
	}
	for _, tc := range cases {
		mapped := mapShareError(tc.err)
		var de *DomainError
		if !errors.As(mapped, &de) {
			t.Fatalf("%v did not map to a DomainError: %v", tc.err, mapped)
		}
		if de.Status != tc.status || de.Code != tc.code {
			t.Fatalf("%v mapped to %d/%s, want %d/%s", tc.err, de.Status, de.Code, tc.status, tc.code)
		}
	}

	// Anything else passes through untouched so mapError can still see
	// sql.ErrNoRows and friends.
	plain := errors.New("boom")
	if mapShareError(plain) != plain {
		t.Fatalf("unrelated error was rewrapped")
	}
}
