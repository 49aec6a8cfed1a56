package share

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"scorekeep/api/internal/perm"
	"scorekeep/api/internal/store"
)

const (
	alice = "u_alice"
	bob   = "u_bob"
	carol = "u_carol"
)

// world is one owner's catalog plus a finished match with two participants,
// one of them linked to a friend account.
type world struct {
	st     *memStore
	engine *Engine

	gameID       string
	sheetID      string
	locationID   string
	roleID       string
	alicePlayer  string
	bobPlayer    string
	bobMatchSeat string
	matchID      string
}

func seedWorld(t *testing.T) *world {
	t.Helper()
	m := newMemStore()
	w := &world{st: m, engine: NewEngine(m)}

	w.gameID = "game_1"
	m.games[w.gameID] = store.Game{ID: w.gameID, OwnerID: alice, Name: "Cascadia"}

	w.sheetID = "sheet_1"
	m.scoresheets[w.sheetID] = store.Scoresheet{
		ID: w.sheetID, OwnerID: alice, GameID: w.gameID,
		Name: "Standard", Type: "game", WinCondition: "highest",
	}
	m.rounds = append(m.rounds, store.Round{ID: "round_1", ScoresheetID: w.sheetID, Name: "Wildlife", SortOrder: 0})

	w.locationID = "loc_1"
	m.locations[w.locationID] = store.Location{ID: w.locationID, OwnerID: alice, Name: "Kitchen table"}

	w.roleID = "role_1"
	m.gameRoles[w.roleID] = store.GameRole{ID: w.roleID, OwnerID: alice, GameID: w.gameID, Name: "Dealer"}

	aliceID := alice
	bobID := bob
	w.alicePlayer = "player_alice"
	m.players[w.alicePlayer] = store.Player{ID: w.alicePlayer, OwnerID: alice, Name: "Alice", IsUser: true, LinkedUserID: &aliceID}
	w.bobPlayer = "player_bob"
	m.players[w.bobPlayer] = store.Player{ID: w.bobPlayer, OwnerID: alice, Name: "Bob", IsUser: true, LinkedUserID: &bobID}

	w.matchID = "match_1"
	loc := w.locationID
	m.matches[w.matchID] = store.Match{
		ID: w.matchID, OwnerID: alice, GameID: w.gameID,
		ScoresheetID: w.sheetID, LocationID: &loc, Finished: true,
	}
	m.matchPlayers = append(m.matchPlayers,
		store.MatchPlayer{ID: "mp_alice", MatchID: w.matchID, PlayerID: w.alicePlayer, Score: 87},
		store.MatchPlayer{ID: "mp_bob", MatchID: w.matchID, PlayerID: w.bobPlayer, Score: 92},
	)
	w.bobMatchSeat = "mp_bob"
	m.matchPlayerRoles = append(m.matchPlayerRoles,
		store.MatchPlayerRole{ID: "mpr_1", MatchPlayerID: "mp_bob", GameRoleID: w.roleID},
	)
	return w
}

func allowAll(ownerID, friendID string, autoAccept bool) store.FriendSetting {
	return store.FriendSetting{
		ID: "fs_" + ownerID + "_" + friendID, OwnerID: ownerID, FriendID: friendID,
		AutoShareMatches: true, ShareLocation: true, SharePlayers: true,
		AllowSharedGames: true, AllowSharedPlayers: true, AllowSharedLocation: true,
		AllowSharedMatches: true, AllowSharedScoresheets: true,
		AutoAcceptGames: autoAccept, AutoAcceptPlayers: autoAccept, AutoAcceptLocation: autoAccept,
		AutoAcceptMatches: autoAccept, AutoAcceptScoresheets: autoAccept,
		DefaultPermissionGames: "view", DefaultPermissionPlayers: "view",
		DefaultPermissionLocation: "view", DefaultPermissionMatches: "view",
		DefaultPermissionScoresheets: "view",
	}
}

func (w *world) befriend(autoAccept bool) {
	w.st.friendSettings[settingKey(alice, bob)] = allowAll(alice, bob, autoAccept)
	w.st.friendSettings[settingKey(bob, alice)] = allowAll(bob, alice, autoAccept)
}

func requestByItem(tree RequestTree, itemType ItemType, itemID string) (store.ShareRequest, bool) {
	if tree.Root.ItemType == string(itemType) && tree.Root.ItemID == itemID {
		return tree.Root, true
	}
	for _, child := range tree.Children {
		if child.ItemType == string(itemType) && child.ItemID == itemID {
			return child, true
		}
	}
	return store.ShareRequest{}, false
}

func TestClosureDeduplicatesSharedDependencies(t *testing.T) {
	w := seedWorld(t)
	ctx := context.Background()

	// Second match at the same location with the same sheet snapshot.
	loc := w.locationID
	w.st.matches["match_2"] = store.Match{
		ID: "match_2", OwnerID: alice, GameID: w.gameID,
		ScoresheetID: w.sheetID, LocationID: &loc,
	}
	w.st.matchPlayers = append(w.st.matchPlayers,
		store.MatchPlayer{ID: "mp_3", MatchID: "match_2", PlayerID: w.alicePlayer},
	)

	items, err := buildClosure(ctx, w.st, alice, bob, ItemRef{Type: ItemGame, ID: w.gameID}, allInclusive())
	if err != nil {
		t.Fatalf("buildClosure: %v", err)
	}

	counts := map[string]int{}
	for _, item := range items {
		counts[itemKey(item.Type, item.ID)]++
	}
	for key, n := range counts {
		if n != 1 {
			t.Fatalf("item %s appears %d times in closure", key, n)
		}
	}
	if counts[itemKey(ItemLocation, w.locationID)] != 1 {
		t.Fatalf("shared location missing from closure: %v", counts)
	}
	if counts[itemKey(ItemMatch, w.matchID)] != 1 || counts[itemKey(ItemMatch, "match_2")] != 1 {
		t.Fatalf("expected both matches in closure: %v", counts)
	}

	// Dependency order: every item's rank is >= its predecessor's.
	for i := 1; i < len(items); i++ {
		if dependencyRank[items[i].Type] < dependencyRank[items[i-1].Type] {
			t.Fatalf("closure out of dependency order at %d: %v", i, items)
		}
	}
}

func TestAutoShareMaterializesAcceptedTree(t *testing.T) {
	w := seedWorld(t)
	w.befriend(true)
	ctx := context.Background()

	w.engine.AutoShareMatch(ctx, alice, w.matchID)

	sharedMatch, err := w.st.GetSharedMatch(ctx, alice, bob, w.matchID)
	if err != nil {
		t.Fatalf("shared match not materialized: %v", err)
	}
	if sharedMatch.SharedGameID == nil || sharedMatch.SharedScoresheetID == nil {
		t.Fatalf("shared match missing catalog references: %+v", sharedMatch)
	}
	if sharedMatch.SharedLocationID == nil {
		t.Fatalf("location sharing enabled but mirror has no location")
	}

	sharedGame, err := w.st.GetSharedGame(ctx, alice, bob, w.gameID)
	if err != nil {
		t.Fatalf("shared game not materialized: %v", err)
	}
	if sharedGame.LinkedGameID == nil {
		t.Fatalf("shared game not resolved to a clone")
	}
	clone := w.st.games[*sharedGame.LinkedGameID]
	if clone.OwnerID != bob || clone.Name != "Cascadia" {
		t.Fatalf("game clone wrong: %+v", clone)
	}

	sharedSheet, err := w.st.GetSharedScoresheet(ctx, alice, bob, w.sheetID)
	if err != nil {
		t.Fatalf("shared scoresheet not materialized: %v", err)
	}
	if sharedSheet.LinkedScoresheetID == nil {
		t.Fatalf("shared scoresheet not resolved")
	}
	sheetClone := w.st.scoresheets[*sharedSheet.LinkedScoresheetID]
	if sheetClone.GameID != *sharedGame.LinkedGameID {
		t.Fatalf("scoresheet clone bound to %s, want recipient game %s", sheetClone.GameID, *sharedGame.LinkedGameID)
	}

	if len(w.st.sharedMatchPlayers) != 2 {
		t.Fatalf("got %d shared match players, want 2", len(w.st.sharedMatchPlayers))
	}
	seatMirrored := false
	for _, smp := range w.st.sharedMatchPlayers {
		if smp.MatchPlayerID == w.bobMatchSeat {
			seatMirrored = true
			if smp.SharedMatchID != sharedMatch.ID {
				t.Fatalf("seat mirror bound to %s, want %s", smp.SharedMatchID, sharedMatch.ID)
			}
		}
	}
	if !seatMirrored {
		t.Fatalf("bob's seat has no mirror")
	}
	if len(w.st.sharedMatchPlayerRoles) != 1 {
		t.Fatalf("got %d shared match player roles, want 1", len(w.st.sharedMatchPlayerRoles))
	}

	// The match itself is never cloned.
	if len(w.st.matches) != 1 {
		t.Fatalf("match was cloned: %d rows", len(w.st.matches))
	}

	// Re-running is a no-op: closure skips accepted items, mirrors stay unique.
	w.engine.AutoShareMatch(ctx, alice, w.matchID)
	if len(w.st.sharedMatches) != 1 {
		t.Fatalf("got %d shared matches after re-share, want 1", len(w.st.sharedMatches))
	}
	if len(w.st.matches) != 1 {
		t.Fatalf("re-share cloned the match")
	}
}

func TestRepeatedAutoShareReusesRequestRows(t *testing.T) {
	w := seedWorld(t)
	w.befriend(true)
	ctx := context.Background()

	// Every match edit re-runs the pipeline; the accepted rows must be
	// reused, not stacked.
	w.engine.AutoShareMatch(ctx, alice, w.matchID)
	requestsAfterFirst := len(w.st.requests)
	w.engine.AutoShareMatch(ctx, alice, w.matchID)
	w.engine.AutoShareMatch(ctx, alice, w.matchID)

	if len(w.st.requests) != requestsAfterFirst {
		t.Fatalf("got %d requests after re-runs, want %d", len(w.st.requests), requestsAfterFirst)
	}
	roots := 0
	for _, req := range w.st.requests {
		if req.SharedWithID == bob && req.ItemType == string(ItemMatch) && req.ItemID == w.matchID {
			roots++
		}
	}
	if roots != 1 {
		t.Fatalf("got %d match requests for bob, want 1", roots)
	}
}

func TestRepeatedShareReusesPendingTree(t *testing.T) {
	w := seedWorld(t)
	w.befriend(false)
	ctx := context.Background()

	w.engine.AutoShareMatch(ctx, alice, w.matchID)
	requestsAfterFirst := len(w.st.requests)
	w.engine.AutoShareMatch(ctx, alice, w.matchID)
	if len(w.st.requests) != requestsAfterFirst {
		t.Fatalf("got %d requests after re-run, want %d", len(w.st.requests), requestsAfterFirst)
	}

	pending, err := w.engine.ListPendingForRecipient(ctx, bob)
	if err != nil {
		t.Fatalf("ListPendingForRecipient: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("got %d pending roots, want 1", len(pending))
	}

	// A manual re-share of the same match lands on the open tree too.
	tree, err := w.engine.CreateShareRequest(ctx, alice, ItemRef{Type: ItemMatch, ID: w.matchID}, bob, perm.View)
	if err != nil {
		t.Fatalf("CreateShareRequest: %v", err)
	}
	if tree.Root.ID != pending[0].ID {
		t.Fatalf("manual re-share created root %s, want existing %s", tree.Root.ID, pending[0].ID)
	}
	if len(w.st.requests) != requestsAfterFirst {
		t.Fatalf("manual re-share added rows: got %d, want %d", len(w.st.requests), requestsAfterFirst)
	}
}

func TestManualShareStaysPendingWithoutAutoAccept(t *testing.T) {
	w := seedWorld(t)
	w.befriend(false)
	ctx := context.Background()

	tree, err := w.engine.CreateShareRequest(ctx, alice, ItemRef{Type: ItemGame, ID: w.gameID}, bob, perm.View)
	if err != nil {
		t.Fatalf("CreateShareRequest: %v", err)
	}
	if tree.Root.Status != StatusPending {
		t.Fatalf("root status = %s, want pending", tree.Root.Status)
	}
	for _, child := range tree.Children {
		if child.Status != StatusPending {
			t.Fatalf("child %s/%s status = %s, want pending", child.ItemType, child.ItemID, child.Status)
		}
	}
	if len(w.st.sharedGames)+len(w.st.sharedMatches)+len(w.st.sharedPlayers) != 0 {
		t.Fatalf("pending share materialized mirrors")
	}

	pending, err := w.engine.ListPendingForRecipient(ctx, bob)
	if err != nil {
		t.Fatalf("ListPendingForRecipient: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != tree.Root.ID {
		t.Fatalf("pending roots = %+v, want just %s", pending, tree.Root.ID)
	}
}

func TestAcceptWithLinkReusesRecipientEntity(t *testing.T) {
	w := seedWorld(t)
	w.befriend(false)
	ctx := context.Background()

	// Bob already tracks himself as a player.
	bobID := bob
	w.st.players["player_bob_own"] = store.Player{ID: "player_bob_own", OwnerID: bob, Name: "Me", LinkedUserID: &bobID}
	playersBefore := len(w.st.players)

	tree, err := w.engine.CreateShareRequest(ctx, alice, ItemRef{Type: ItemMatch, ID: w.matchID}, bob, perm.View)
	if err != nil {
		t.Fatalf("CreateShareRequest: %v", err)
	}
	playerReq, ok := requestByItem(tree, ItemPlayer, w.bobPlayer)
	if !ok {
		t.Fatalf("player request missing from tree")
	}

	_, err = w.engine.AcceptShareRequest(ctx, bob, tree.Root.ID, []Decision{
		{RequestID: playerReq.ID, Accept: true, LinkID: "player_bob_own"},
	})
	if err != nil {
		t.Fatalf("AcceptShareRequest: %v", err)
	}

	sharedPlayer, err := w.st.GetSharedPlayer(ctx, alice, bob, w.bobPlayer)
	if err != nil {
		t.Fatalf("shared player missing: %v", err)
	}
	if sharedPlayer.LinkedPlayerID == nil || *sharedPlayer.LinkedPlayerID != "player_bob_own" {
		t.Fatalf("linked player = %v, want player_bob_own", sharedPlayer.LinkedPlayerID)
	}
	// Linking never clones; the game and the other player still do.
	clones := len(w.st.players) - playersBefore
	if clones != 1 {
		t.Fatalf("got %d new player rows, want 1 (the unlinked participant)", clones)
	}
}

func TestAcceptClonesAndIsIdempotent(t *testing.T) {
	w := seedWorld(t)
	w.befriend(false)
	ctx := context.Background()

	tree, err := w.engine.CreateShareRequest(ctx, alice, ItemRef{Type: ItemMatch, ID: w.matchID}, bob, perm.View)
	if err != nil {
		t.Fatalf("CreateShareRequest: %v", err)
	}
	if _, err := w.engine.AcceptShareRequest(ctx, bob, tree.Root.ID, nil); err != nil {
		t.Fatalf("AcceptShareRequest: %v", err)
	}

	sharedGame, err := w.st.GetSharedGame(ctx, alice, bob, w.gameID)
	if err != nil || sharedGame.LinkedGameID == nil {
		t.Fatalf("shared game unresolved after accept: %v %+v", err, sharedGame)
	}
	firstLink := *sharedGame.LinkedGameID
	if w.st.games[firstLink].OwnerID != bob {
		t.Fatalf("clone owner = %s, want %s", w.st.games[firstLink].OwnerID, bob)
	}
	gamesAfterFirst := len(w.st.games)

	// Accepting the same tree again re-runs materializers without new rows.
	if _, err := w.engine.AcceptShareRequest(ctx, bob, tree.Root.ID, nil); err != nil {
		t.Fatalf("re-accept: %v", err)
	}
	sharedGame, _ = w.st.GetSharedGame(ctx, alice, bob, w.gameID)
	if *sharedGame.LinkedGameID != firstLink {
		t.Fatalf("re-accept relinked game: %s -> %s", firstLink, *sharedGame.LinkedGameID)
	}
	if len(w.st.games) != gamesAfterFirst {
		t.Fatalf("re-accept cloned again: %d -> %d games", gamesAfterFirst, len(w.st.games))
	}
	if len(w.st.sharedMatches) != 1 {
		t.Fatalf("got %d shared matches, want 1", len(w.st.sharedMatches))
	}
}

func TestAcceptRejectsForeignLinkTarget(t *testing.T) {
	w := seedWorld(t)
	w.befriend(false)
	ctx := context.Background()

	w.st.players["player_carols"] = store.Player{ID: "player_carols", OwnerID: carol, Name: "Carol's"}

	tree, err := w.engine.CreateShareRequest(ctx, alice, ItemRef{Type: ItemMatch, ID: w.matchID}, bob, perm.View)
	if err != nil {
		t.Fatalf("CreateShareRequest: %v", err)
	}
	playerReq, ok := requestByItem(tree, ItemPlayer, w.bobPlayer)
	if !ok {
		t.Fatalf("player request missing from tree")
	}

	_, err = w.engine.AcceptShareRequest(ctx, bob, tree.Root.ID, []Decision{
		{RequestID: playerReq.ID, Accept: true, LinkID: "player_carols"},
	})
	if !errors.Is(err, ErrLinkNotOwned) {
		t.Fatalf("err = %v, want ErrLinkNotOwned", err)
	}
}

func TestRejectCascadesToPendingChildrenOnly(t *testing.T) {
	w := seedWorld(t)
	// Locations have no upstream dependency, so an auto-accepted location
	// materializes at share time even while the rest of the tree waits.
	setting := allowAll(bob, alice, false)
	setting.AutoAcceptLocation = true
	w.st.friendSettings[settingKey(bob, alice)] = setting
	w.st.friendSettings[settingKey(alice, bob)] = allowAll(alice, bob, false)
	ctx := context.Background()

	tree, err := w.engine.CreateShareRequest(ctx, alice, ItemRef{Type: ItemMatch, ID: w.matchID}, bob, perm.View)
	if err != nil {
		t.Fatalf("CreateShareRequest: %v", err)
	}
	if tree.Root.Status != StatusPending {
		t.Fatalf("root status = %s, want pending", tree.Root.Status)
	}
	locReq, ok := requestByItem(tree, ItemLocation, w.locationID)
	if !ok || locReq.Status != StatusAccepted {
		t.Fatalf("location request = %+v, want auto-accepted", locReq)
	}
	if len(w.st.sharedLocations) != 1 {
		t.Fatalf("got %d shared locations at share time, want 1", len(w.st.sharedLocations))
	}

	if err := w.engine.RejectShareRequest(ctx, bob, tree.Root.ID); err != nil {
		t.Fatalf("RejectShareRequest: %v", err)
	}

	root, _ := w.st.GetShareRequest(ctx, tree.Root.ID)
	if root.Status != StatusRejected {
		t.Fatalf("root status = %s, want rejected", root.Status)
	}
	children, _ := w.st.ListChildShareRequests(ctx, tree.Root.ID)
	for _, child := range children {
		switch child.ItemType {
		case string(ItemLocation):
			if child.Status != StatusAccepted {
				t.Fatalf("accepted child was demoted: %+v", child)
			}
		default:
			if child.Status != StatusRejected {
				t.Fatalf("pending child %s/%s not rejected: %s", child.ItemType, child.ItemID, child.Status)
			}
		}
	}
	if len(w.st.sharedLocations) != 1 {
		t.Fatalf("reject touched the materialized location mirror")
	}

	// Both decisions are final.
	if _, err := w.engine.AcceptShareRequest(ctx, bob, tree.Root.ID, nil); !errors.Is(err, ErrAlreadyDecided) {
		t.Fatalf("accept after reject: err = %v, want ErrAlreadyDecided", err)
	}
}

func TestRejectAcceptedRootFails(t *testing.T) {
	w := seedWorld(t)
	w.befriend(false)
	ctx := context.Background()

	tree, err := w.engine.CreateShareRequest(ctx, alice, ItemRef{Type: ItemGame, ID: w.gameID}, bob, perm.View)
	if err != nil {
		t.Fatalf("CreateShareRequest: %v", err)
	}
	if _, err := w.engine.AcceptShareRequest(ctx, bob, tree.Root.ID, nil); err != nil {
		t.Fatalf("AcceptShareRequest: %v", err)
	}
	if err := w.engine.RejectShareRequest(ctx, bob, tree.Root.ID); !errors.Is(err, ErrAlreadyDecided) {
		t.Fatalf("reject after accept: err = %v, want ErrAlreadyDecided", err)
	}
}

func TestShareRequestVisibility(t *testing.T) {
	w := seedWorld(t)
	w.befriend(false)
	ctx := context.Background()

	tree, err := w.engine.CreateShareRequest(ctx, alice, ItemRef{Type: ItemGame, ID: w.gameID}, bob, perm.View)
	if err != nil {
		t.Fatalf("CreateShareRequest: %v", err)
	}

	if _, err := w.engine.GetShareRequest(ctx, alice, tree.Root.ID); err != nil {
		t.Fatalf("owner view: %v", err)
	}
	if _, err := w.engine.GetShareRequest(ctx, bob, tree.Root.ID); err != nil {
		t.Fatalf("recipient view: %v", err)
	}
	if _, err := w.engine.GetShareRequest(ctx, carol, tree.Root.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("stranger view: err = %v, want sql.ErrNoRows", err)
	}
	// A stranger cannot decide either.
	if _, err := w.engine.AcceptShareRequest(ctx, carol, tree.Root.ID, nil); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("stranger accept: err = %v, want sql.ErrNoRows", err)
	}
}

func TestCreateShareRequestRequiresOwnershipAndFriendship(t *testing.T) {
	w := seedWorld(t)
	w.befriend(false)
	ctx := context.Background()

	w.st.games["game_bobs"] = store.Game{ID: "game_bobs", OwnerID: bob, Name: "Bob's"}
	if _, err := w.engine.CreateShareRequest(ctx, alice, ItemRef{Type: ItemGame, ID: "game_bobs"}, bob, perm.View); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("sharing a foreign game: err = %v, want sql.ErrNoRows", err)
	}
	if _, err := w.engine.CreateShareRequest(ctx, alice, ItemRef{Type: ItemGame, ID: w.gameID}, carol, perm.View); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("sharing with a non-friend: err = %v, want sql.ErrNoRows", err)
	}
	if _, err := w.engine.CreateShareRequest(ctx, alice, ItemRef{Type: "banana", ID: "x"}, bob, perm.View); err == nil {
		t.Fatalf("invalid item type accepted")
	}
}

func TestPermissionCappedByRecipientDefault(t *testing.T) {
	w := seedWorld(t)
	w.befriend(false)
	ctx := context.Background()

	tree, err := w.engine.CreateShareRequest(ctx, alice, ItemRef{Type: ItemGame, ID: w.gameID}, bob, perm.Edit)
	if err != nil {
		t.Fatalf("CreateShareRequest: %v", err)
	}
	if tree.Root.Permission != string(perm.View) {
		t.Fatalf("root permission = %s, want capped to view", tree.Root.Permission)
	}

	// With an edit default the requested level goes through.
	setting := allowAll(bob, alice, false)
	setting.DefaultPermissionMatches = "edit"
	w.st.friendSettings[settingKey(bob, alice)] = setting

	tree2, err := w.engine.CreateShareRequest(ctx, alice, ItemRef{Type: ItemMatch, ID: w.matchID}, bob, perm.Edit)
	if err != nil {
		t.Fatalf("CreateShareRequest: %v", err)
	}
	if tree2.Root.Permission != string(perm.Edit) {
		t.Fatalf("match permission = %s, want edit", tree2.Root.Permission)
	}
}

func TestAutoShareRespectsBothDirections(t *testing.T) {
	ctx := context.Background()

	// Bob does not accept incoming matches.
	w := seedWorld(t)
	w.st.friendSettings[settingKey(alice, bob)] = allowAll(alice, bob, true)
	bobSetting := allowAll(bob, alice, true)
	bobSetting.AllowSharedMatches = false
	w.st.friendSettings[settingKey(bob, alice)] = bobSetting
	w.engine.AutoShareMatch(ctx, alice, w.matchID)
	if len(w.st.requests) != 0 || len(w.st.sharedMatches) != 0 {
		t.Fatalf("auto-share ran against recipient opt-out")
	}

	// Alice does not push matches.
	w = seedWorld(t)
	aliceSetting := allowAll(alice, bob, true)
	aliceSetting.AutoShareMatches = false
	w.st.friendSettings[settingKey(alice, bob)] = aliceSetting
	w.st.friendSettings[settingKey(bob, alice)] = allowAll(bob, alice, true)
	w.engine.AutoShareMatch(ctx, alice, w.matchID)
	if len(w.st.requests) != 0 {
		t.Fatalf("auto-share ran with owner push disabled")
	}

	// No friendship at all.
	w = seedWorld(t)
	w.engine.AutoShareMatch(ctx, alice, w.matchID)
	if len(w.st.requests) != 0 {
		t.Fatalf("auto-share ran without a friendship")
	}
}

func TestAutoShareOmitsLocationWhenDisabled(t *testing.T) {
	w := seedWorld(t)
	aliceSetting := allowAll(alice, bob, true)
	aliceSetting.ShareLocation = false
	w.st.friendSettings[settingKey(alice, bob)] = aliceSetting
	w.st.friendSettings[settingKey(bob, alice)] = allowAll(bob, alice, true)
	ctx := context.Background()

	w.engine.AutoShareMatch(ctx, alice, w.matchID)

	if len(w.st.sharedLocations) != 0 {
		t.Fatalf("location mirrored despite ShareLocation off")
	}
	sharedMatch, err := w.st.GetSharedMatch(ctx, alice, bob, w.matchID)
	if err != nil {
		t.Fatalf("shared match missing: %v", err)
	}
	if sharedMatch.SharedLocationID != nil {
		t.Fatalf("mirror carries a location reference: %+v", sharedMatch)
	}
}

func TestAutoShareFanOutIsolation(t *testing.T) {
	w := seedWorld(t)
	ctx := context.Background()

	// A second linked participant, Carol, whose share will fail.
	carolID := carol
	w.st.players["player_carol"] = store.Player{ID: "player_carol", OwnerID: alice, Name: "Carol", IsUser: true, LinkedUserID: &carolID}
	w.st.matchPlayers = append(w.st.matchPlayers,
		store.MatchPlayer{ID: "mp_carol", MatchID: w.matchID, PlayerID: "player_carol"},
	)
	w.st.friendSettings[settingKey(alice, bob)] = allowAll(alice, bob, true)
	w.st.friendSettings[settingKey(bob, alice)] = allowAll(bob, alice, true)
	w.st.friendSettings[settingKey(alice, carol)] = allowAll(alice, carol, true)
	w.st.friendSettings[settingKey(carol, alice)] = allowAll(carol, alice, true)
	// The failure hits midway through carol's cascade: her request rows and
	// catalog mirrors are already written when the match mirror insert blows
	// up, so only a transaction rollback can clean them out.
	w.st.failSharedMatchFor = carol

	w.engine.AutoShareMatch(ctx, alice, w.matchID)

	if _, err := w.st.GetSharedMatch(ctx, alice, bob, w.matchID); err != nil {
		t.Fatalf("bob's share lost to carol's failure: %v", err)
	}
	if _, err := w.st.GetSharedMatch(ctx, alice, carol, w.matchID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("carol's failed share left a match mirror: %v", err)
	}
	if _, err := w.st.GetSharedGame(ctx, alice, carol, w.gameID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("carol's failed share left a game mirror: %v", err)
	}
	for _, req := range w.st.requests {
		if req.SharedWithID == carol {
			t.Fatalf("carol's failed share left a request: %+v", req)
		}
	}
	for _, sp := range w.st.sharedPlayers {
		if sp.SharedWithID == carol {
			t.Fatalf("carol's failed share left a player mirror: %+v", sp)
		}
	}
}

func TestAuthorizeMatchPermissionLadder(t *testing.T) {
	w := seedWorld(t)
	w.befriend(true)
	ctx := context.Background()
	w.engine.AutoShareMatch(ctx, alice, w.matchID)

	// Owner passes everything, delete included.
	access, err := w.engine.AuthorizeMatch(ctx, alice, w.matchID, perm.ActionDelete)
	if err != nil || !access.IsOwner {
		t.Fatalf("owner delete: %v %+v", err, access)
	}

	// Bob's mirror is view: reads pass, mutations do not.
	access, err = w.engine.AuthorizeMatch(ctx, bob, w.matchID, perm.ActionRead)
	if err != nil {
		t.Fatalf("recipient read: %v", err)
	}
	if access.IsOwner || access.Permission != perm.View || access.Mirror == nil {
		t.Fatalf("recipient access wrong: %+v", access)
	}
	for _, action := range []perm.Action{perm.ActionScore, perm.ActionStart, perm.ActionFinish, perm.ActionDelete} {
		if _, err := w.engine.AuthorizeMatch(ctx, bob, w.matchID, action); !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("view mirror allowed %s: %v", action, err)
		}
	}

	// Edit covers mutations but never delete.
	for i := range w.st.sharedMatches {
		w.st.sharedMatches[i].Permission = string(perm.Edit)
	}
	for _, action := range []perm.Action{perm.ActionScore, perm.ActionComment, perm.ActionTeam, perm.ActionRole, perm.ActionPause} {
		if _, err := w.engine.AuthorizeMatch(ctx, bob, w.matchID, action); err != nil {
			t.Fatalf("edit mirror denied %s: %v", action, err)
		}
	}
	if _, err := w.engine.AuthorizeMatch(ctx, bob, w.matchID, perm.ActionDelete); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("edit mirror allowed delete: %v", err)
	}

	// Strangers see nothing, not a 403.
	if _, err := w.engine.AuthorizeMatch(ctx, carol, w.matchID, perm.ActionRead); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("stranger read: err = %v, want sql.ErrNoRows", err)
	}
}

func TestAuthorizeCatalogReads(t *testing.T) {
	w := seedWorld(t)
	w.befriend(true)
	ctx := context.Background()
	w.engine.AutoShareMatch(ctx, alice, w.matchID)

	if _, err := w.engine.AuthorizeGameRead(ctx, bob, w.gameID); err != nil {
		t.Fatalf("recipient game read: %v", err)
	}
	if _, err := w.engine.AuthorizePlayerRead(ctx, bob, w.bobPlayer); err != nil {
		t.Fatalf("recipient player read: %v", err)
	}
	if _, err := w.engine.AuthorizeLocationRead(ctx, bob, w.locationID); err != nil {
		t.Fatalf("recipient location read: %v", err)
	}
	if _, err := w.engine.AuthorizeGameRead(ctx, carol, w.gameID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("stranger game read: err = %v, want sql.ErrNoRows", err)
	}
}

func TestEveryItemTypeIsMaterializable(t *testing.T) {
	for _, itemType := range AllItemTypes {
		if _, ok := materializers[itemType]; !ok {
			t.Fatalf("item type %s has no materializer", itemType)
		}
		if _, ok := dependencyRank[itemType]; !ok {
			t.Fatalf("item type %s has no dependency rank", itemType)
		}
	}
}

func TestPromoteDependenciesLiftsPendingCatalogItems(t *testing.T) {
	parent := "shr_root"
	tree := RequestTree{
		Root: store.ShareRequest{ID: parent, ItemType: string(ItemMatch), Status: StatusAccepted},
		Children: []store.ShareRequest{
			{ItemType: string(ItemGame), ParentShareID: &parent, Status: StatusPending},
			{ItemType: string(ItemScoresheet), ParentShareID: &parent, Status: StatusRejected},
			{ItemType: string(ItemMatchPlayer), ParentShareID: &parent, Status: StatusPending},
		},
	}
	promoteDependencies(&tree)
	if tree.Children[0].Status != StatusAccepted {
		t.Fatalf("pending game not promoted: %s", tree.Children[0].Status)
	}
	if tree.Children[1].Status != StatusRejected {
		t.Fatalf("rejected scoresheet promoted: %s", tree.Children[1].Status)
	}
	if tree.Children[2].Status != StatusPending {
		t.Fatalf("match player promoted past its rank: %s", tree.Children[2].Status)
	}
}

func TestDerivedStatus(t *testing.T) {
	setting := store.FriendSetting{AllowSharedGames: true, AutoAcceptGames: true, AllowSharedMatches: true}
	if got := derivedStatus(setting, ItemGame); got != StatusAccepted {
		t.Fatalf("auto-accepted game: %s", got)
	}
	if got := derivedStatus(setting, ItemMatch); got != StatusPending {
		t.Fatalf("allowed match without auto: %s", got)
	}
	if got := derivedStatus(setting, ItemPlayer); got != StatusRejected {
		t.Fatalf("disallowed player: %s", got)
	}
}
