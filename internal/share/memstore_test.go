package share

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"slices"
	"sort"

	"scorekeep/api/internal/store"
)

// memStore is an in-memory Store for engine tests. WithTx snapshots every
// container and restores it when the callback errors, so a failure midway
// through a cascade leaves no partial writes behind. failSharedMatchFor
// injects a mirror-insert failure for one recipient to exercise fan-out
// isolation.
type memStore struct {
	games       map[string]store.Game
	players     map[string]store.Player
	locations   map[string]store.Location
	scoresheets map[string]store.Scoresheet
	rounds      []store.Round
	gameRoles   map[string]store.GameRole

	matches          map[string]store.Match
	matchPlayers     []store.MatchPlayer
	matchPlayerRoles []store.MatchPlayerRole

	friendSettings map[string]store.FriendSetting

	requests []store.ShareRequest

	sharedGames            []store.SharedGame
	sharedPlayers          []store.SharedPlayer
	sharedLocations        []store.SharedLocation
	sharedScoresheets      []store.SharedScoresheet
	sharedRounds           []store.SharedRound
	sharedGameRoles        []store.SharedGameRole
	sharedMatches          []store.SharedMatch
	sharedMatchPlayers     []store.SharedMatchPlayer
	sharedMatchPlayerRoles []store.SharedMatchPlayerRole

	failSharedMatchFor string
}

func newMemStore() *memStore {
	return &memStore{
		games:          map[string]store.Game{},
		players:        map[string]store.Player{},
		locations:      map[string]store.Location{},
		scoresheets:    map[string]store.Scoresheet{},
		gameRoles:      map[string]store.GameRole{},
		matches:        map[string]store.Match{},
		friendSettings: map[string]store.FriendSetting{},
	}
}

func settingKey(ownerID, friendID string) string {
	return ownerID + "|" + friendID
}

func (m *memStore) WithTx(ctx context.Context, fn func(Store) error) error {
	snap := memStore{
		games:       maps.Clone(m.games),
		players:     maps.Clone(m.players),
		locations:   maps.Clone(m.locations),
		scoresheets: maps.Clone(m.scoresheets),
		rounds:      slices.Clone(m.rounds),
		gameRoles:   maps.Clone(m.gameRoles),

		matches:          maps.Clone(m.matches),
		matchPlayers:     slices.Clone(m.matchPlayers),
		matchPlayerRoles: slices.Clone(m.matchPlayerRoles),

		friendSettings: maps.Clone(m.friendSettings),

		requests: slices.Clone(m.requests),

		sharedGames:            slices.Clone(m.sharedGames),
		sharedPlayers:          slices.Clone(m.sharedPlayers),
		sharedLocations:        slices.Clone(m.sharedLocations),
		sharedScoresheets:      slices.Clone(m.sharedScoresheets),
		sharedRounds:           slices.Clone(m.sharedRounds),
		sharedGameRoles:        slices.Clone(m.sharedGameRoles),
		sharedMatches:          slices.Clone(m.sharedMatches),
		sharedMatchPlayers:     slices.Clone(m.sharedMatchPlayers),
		sharedMatchPlayerRoles: slices.Clone(m.sharedMatchPlayerRoles),
	}
	if err := fn(m); err != nil {
		snap.failSharedMatchFor = m.failSharedMatchFor
		*m = snap
		return err
	}
	return nil
}

func (m *memStore) GetGame(ctx context.Context, gameID string) (store.Game, error) {
	game, ok := m.games[gameID]
	if !ok {
		return store.Game{}, sql.ErrNoRows
	}
	return game, nil
}

func (m *memStore) InsertGame(ctx context.Context, game store.Game) error {
	m.games[game.ID] = game
	return nil
}

func (m *memStore) GetPlayer(ctx context.Context, playerID string) (store.Player, error) {
	player, ok := m.players[playerID]
	if !ok {
		return store.Player{}, sql.ErrNoRows
	}
	return player, nil
}

func (m *memStore) InsertPlayer(ctx context.Context, player store.Player) error {
	m.players[player.ID] = player
	return nil
}

func (m *memStore) GetLocation(ctx context.Context, locationID string) (store.Location, error) {
	location, ok := m.locations[locationID]
	if !ok {
		return store.Location{}, sql.ErrNoRows
	}
	return location, nil
}

func (m *memStore) InsertLocation(ctx context.Context, location store.Location) error {
	m.locations[location.ID] = location
	return nil
}

func (m *memStore) GetScoresheet(ctx context.Context, scoresheetID string) (store.Scoresheet, error) {
	sheet, ok := m.scoresheets[scoresheetID]
	if !ok {
		return store.Scoresheet{}, sql.ErrNoRows
	}
	return sheet, nil
}

func (m *memStore) InsertScoresheet(ctx context.Context, sheet store.Scoresheet) error {
	m.scoresheets[sheet.ID] = sheet
	return nil
}

func (m *memStore) ListGameScoresheets(ctx context.Context, gameID string) ([]store.Scoresheet, error) {
	var items []store.Scoresheet
	for _, sheet := range m.scoresheets {
		if sheet.GameID == gameID && (sheet.Type == "game" || sheet.Type == "default") {
			items = append(items, sheet)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (m *memStore) ListRounds(ctx context.Context, scoresheetID string) ([]store.Round, error) {
	var items []store.Round
	for _, round := range m.rounds {
		if round.ScoresheetID == scoresheetID {
			items = append(items, round)
		}
	}
	return items, nil
}

func (m *memStore) InsertRound(ctx context.Context, round store.Round) error {
	m.rounds = append(m.rounds, round)
	return nil
}

func (m *memStore) GetGameRole(ctx context.Context, roleID string) (store.GameRole, error) {
	role, ok := m.gameRoles[roleID]
	if !ok {
		return store.GameRole{}, sql.ErrNoRows
	}
	return role, nil
}

func (m *memStore) InsertGameRole(ctx context.Context, role store.GameRole) error {
	m.gameRoles[role.ID] = role
	return nil
}

func (m *memStore) GetMatch(ctx context.Context, matchID string) (store.Match, error) {
	match, ok := m.matches[matchID]
	if !ok {
		return store.Match{}, sql.ErrNoRows
	}
	return match, nil
}

func (m *memStore) ListMatchesByGame(ctx context.Context, gameID string) ([]store.Match, error) {
	var items []store.Match
	for _, match := range m.matches {
		if match.GameID == gameID {
			items = append(items, match)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (m *memStore) ListMatchesByPlayer(ctx context.Context, playerID string) ([]store.Match, error) {
	var items []store.Match
	for _, mp := range m.matchPlayers {
		if mp.PlayerID != playerID {
			continue
		}
		if match, ok := m.matches[mp.MatchID]; ok {
			items = append(items, match)
		}
	}
	return items, nil
}

func (m *memStore) GetMatchPlayer(ctx context.Context, matchPlayerID string) (store.MatchPlayer, error) {
	for _, mp := range m.matchPlayers {
		if mp.ID == matchPlayerID {
			return mp, nil
		}
	}
	return store.MatchPlayer{}, sql.ErrNoRows
}

func (m *memStore) ListMatchPlayers(ctx context.Context, matchID string) ([]store.MatchPlayer, error) {
	var items []store.MatchPlayer
	for _, mp := range m.matchPlayers {
		if mp.MatchID == matchID {
			items = append(items, mp)
		}
	}
	return items, nil
}

func (m *memStore) ListMatchPlayerRoles(ctx context.Context, matchPlayerID string) ([]store.MatchPlayerRole, error) {
	var items []store.MatchPlayerRole
	for _, mpr := range m.matchPlayerRoles {
		if mpr.MatchPlayerID == matchPlayerID {
			items = append(items, mpr)
		}
	}
	return items, nil
}

func (m *memStore) GetFriendSetting(ctx context.Context, ownerID, friendID string) (store.FriendSetting, error) {
	setting, ok := m.friendSettings[settingKey(ownerID, friendID)]
	if !ok {
		return store.FriendSetting{}, sql.ErrNoRows
	}
	return setting, nil
}

func (m *memStore) InsertShareRequest(ctx context.Context, req store.ShareRequest) error {
	m.requests = append(m.requests, req)
	return nil
}

func (m *memStore) GetShareRequest(ctx context.Context, requestID string) (store.ShareRequest, error) {
	for _, req := range m.requests {
		if req.ID == requestID {
			return req, nil
		}
	}
	return store.ShareRequest{}, sql.ErrNoRows
}

func (m *memStore) ListChildShareRequests(ctx context.Context, parentID string) ([]store.ShareRequest, error) {
	var items []store.ShareRequest
	for _, req := range m.requests {
		if req.ParentShareID != nil && *req.ParentShareID == parentID {
			items = append(items, req)
		}
	}
	return items, nil
}

func (m *memStore) ListShareRequestsForRecipient(ctx context.Context, sharedWithID, status string) ([]store.ShareRequest, error) {
	var items []store.ShareRequest
	for _, req := range m.requests {
		if req.SharedWithID == sharedWithID && req.Status == status && req.ParentShareID == nil {
			items = append(items, req)
		}
	}
	return items, nil
}

func (m *memStore) UpdateShareRequestStatus(ctx context.Context, requestID, status string) error {
	for i := range m.requests {
		if m.requests[i].ID == requestID {
			m.requests[i].Status = status
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memStore) FindOpenShareRequest(ctx context.Context, ownerID, sharedWithID, itemType, itemID string) (store.ShareRequest, error) {
	for i := len(m.requests) - 1; i >= 0; i-- {
		req := m.requests[i]
		if req.OwnerID == ownerID && req.SharedWithID == sharedWithID &&
			req.ItemType == itemType && req.ItemID == itemID && req.Status != StatusRejected {
			return req, nil
		}
	}
	return store.ShareRequest{}, sql.ErrNoRows
}

func (m *memStore) HasAcceptedShareRequest(ctx context.Context, ownerID, sharedWithID, itemType, itemID string) (bool, error) {
	for _, req := range m.requests {
		if req.OwnerID == ownerID && req.SharedWithID == sharedWithID &&
			req.ItemType == itemType && req.ItemID == itemID && req.Status == StatusAccepted {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) InsertSharedGame(ctx context.Context, sg store.SharedGame) (store.SharedGame, error) {
	if existing, err := m.GetSharedGame(ctx, sg.OwnerID, sg.SharedWithID, sg.GameID); err == nil {
		return existing, nil
	}
	m.sharedGames = append(m.sharedGames, sg)
	return sg, nil
}

func (m *memStore) GetSharedGame(ctx context.Context, ownerID, sharedWithID, gameID string) (store.SharedGame, error) {
	for _, sg := range m.sharedGames {
		if sg.OwnerID == ownerID && sg.SharedWithID == sharedWithID && sg.GameID == gameID {
			return sg, nil
		}
	}
	return store.SharedGame{}, sql.ErrNoRows
}

func (m *memStore) GetSharedGameForUser(ctx context.Context, gameID, userID string) (store.SharedGame, error) {
	for _, sg := range m.sharedGames {
		if sg.GameID == gameID && sg.SharedWithID == userID {
			return sg, nil
		}
	}
	return store.SharedGame{}, sql.ErrNoRows
}

func (m *memStore) SetSharedGameLink(ctx context.Context, sharedGameID string, linkedGameID *string) error {
	for i := range m.sharedGames {
		if m.sharedGames[i].ID == sharedGameID {
			m.sharedGames[i].LinkedGameID = linkedGameID
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memStore) InsertSharedPlayer(ctx context.Context, sp store.SharedPlayer) (store.SharedPlayer, error) {
	if existing, err := m.GetSharedPlayer(ctx, sp.OwnerID, sp.SharedWithID, sp.PlayerID); err == nil {
		return existing, nil
	}
	m.sharedPlayers = append(m.sharedPlayers, sp)
	return sp, nil
}

func (m *memStore) GetSharedPlayer(ctx context.Context, ownerID, sharedWithID, playerID string) (store.SharedPlayer, error) {
	for _, sp := range m.sharedPlayers {
		if sp.OwnerID == ownerID && sp.SharedWithID == sharedWithID && sp.PlayerID == playerID {
			return sp, nil
		}
	}
	return store.SharedPlayer{}, sql.ErrNoRows
}

func (m *memStore) GetSharedPlayerForUser(ctx context.Context, playerID, userID string) (store.SharedPlayer, error) {
	for _, sp := range m.sharedPlayers {
		if sp.PlayerID == playerID && sp.SharedWithID == userID {
			return sp, nil
		}
	}
	return store.SharedPlayer{}, sql.ErrNoRows
}

func (m *memStore) SetSharedPlayerLink(ctx context.Context, sharedPlayerID string, linkedPlayerID *string) error {
	for i := range m.sharedPlayers {
		if m.sharedPlayers[i].ID == sharedPlayerID {
			m.sharedPlayers[i].LinkedPlayerID = linkedPlayerID
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memStore) InsertSharedLocation(ctx context.Context, sl store.SharedLocation) (store.SharedLocation, error) {
	if existing, err := m.GetSharedLocation(ctx, sl.OwnerID, sl.SharedWithID, sl.LocationID); err == nil {
		return existing, nil
	}
	m.sharedLocations = append(m.sharedLocations, sl)
	return sl, nil
}

func (m *memStore) GetSharedLocation(ctx context.Context, ownerID, sharedWithID, locationID string) (store.SharedLocation, error) {
	for _, sl := range m.sharedLocations {
		if sl.OwnerID == ownerID && sl.SharedWithID == sharedWithID && sl.LocationID == locationID {
			return sl, nil
		}
	}
	return store.SharedLocation{}, sql.ErrNoRows
}

func (m *memStore) GetSharedLocationForUser(ctx context.Context, locationID, userID string) (store.SharedLocation, error) {
	for _, sl := range m.sharedLocations {
		if sl.LocationID == locationID && sl.SharedWithID == userID {
			return sl, nil
		}
	}
	return store.SharedLocation{}, sql.ErrNoRows
}

func (m *memStore) SetSharedLocationLink(ctx context.Context, sharedLocationID string, linkedLocationID *string) error {
	for i := range m.sharedLocations {
		if m.sharedLocations[i].ID == sharedLocationID {
			m.sharedLocations[i].LinkedLocationID = linkedLocationID
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memStore) InsertSharedScoresheet(ctx context.Context, ss store.SharedScoresheet) (store.SharedScoresheet, error) {
	if existing, err := m.GetSharedScoresheet(ctx, ss.OwnerID, ss.SharedWithID, ss.ScoresheetID); err == nil {
		return existing, nil
	}
	m.sharedScoresheets = append(m.sharedScoresheets, ss)
	return ss, nil
}

func (m *memStore) GetSharedScoresheet(ctx context.Context, ownerID, sharedWithID, scoresheetID string) (store.SharedScoresheet, error) {
	for _, ss := range m.sharedScoresheets {
		if ss.OwnerID == ownerID && ss.SharedWithID == sharedWithID && ss.ScoresheetID == scoresheetID {
			return ss, nil
		}
	}
	return store.SharedScoresheet{}, sql.ErrNoRows
}

func (m *memStore) SetSharedScoresheetLink(ctx context.Context, sharedScoresheetID string, linkedScoresheetID *string) error {
	for i := range m.sharedScoresheets {
		if m.sharedScoresheets[i].ID == sharedScoresheetID {
			m.sharedScoresheets[i].LinkedScoresheetID = linkedScoresheetID
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memStore) InsertSharedRound(ctx context.Context, sr store.SharedRound) (store.SharedRound, error) {
	for _, existing := range m.sharedRounds {
		if existing.OwnerID == sr.OwnerID && existing.SharedWithID == sr.SharedWithID && existing.RoundID == sr.RoundID {
			return existing, nil
		}
	}
	m.sharedRounds = append(m.sharedRounds, sr)
	return sr, nil
}

func (m *memStore) InsertSharedGameRole(ctx context.Context, sgr store.SharedGameRole) (store.SharedGameRole, error) {
	if existing, err := m.GetSharedGameRole(ctx, sgr.OwnerID, sgr.SharedWithID, sgr.GameRoleID); err == nil {
		return existing, nil
	}
	m.sharedGameRoles = append(m.sharedGameRoles, sgr)
	return sgr, nil
}

func (m *memStore) GetSharedGameRole(ctx context.Context, ownerID, sharedWithID, gameRoleID string) (store.SharedGameRole, error) {
	for _, sgr := range m.sharedGameRoles {
		if sgr.OwnerID == ownerID && sgr.SharedWithID == sharedWithID && sgr.GameRoleID == gameRoleID {
			return sgr, nil
		}
	}
	return store.SharedGameRole{}, sql.ErrNoRows
}

func (m *memStore) SetSharedGameRoleLink(ctx context.Context, sharedGameRoleID string, linkedGameRoleID *string) error {
	for i := range m.sharedGameRoles {
		if m.sharedGameRoles[i].ID == sharedGameRoleID {
			m.sharedGameRoles[i].LinkedGameRoleID = linkedGameRoleID
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memStore) InsertSharedMatch(ctx context.Context, sm store.SharedMatch) (store.SharedMatch, error) {
	if m.failSharedMatchFor != "" && sm.SharedWithID == m.failSharedMatchFor {
		return store.SharedMatch{}, fmt.Errorf("injected mirror insert failure")
	}
	if existing, err := m.GetSharedMatch(ctx, sm.OwnerID, sm.SharedWithID, sm.MatchID); err == nil {
		return existing, nil
	}
	m.sharedMatches = append(m.sharedMatches, sm)
	return sm, nil
}

func (m *memStore) GetSharedMatch(ctx context.Context, ownerID, sharedWithID, matchID string) (store.SharedMatch, error) {
	for _, sm := range m.sharedMatches {
		if sm.OwnerID == ownerID && sm.SharedWithID == sharedWithID && sm.MatchID == matchID {
			return sm, nil
		}
	}
	return store.SharedMatch{}, sql.ErrNoRows
}

func (m *memStore) GetSharedMatchForUser(ctx context.Context, matchID, userID string) (store.SharedMatch, error) {
	for _, sm := range m.sharedMatches {
		if sm.MatchID == matchID && sm.SharedWithID == userID {
			return sm, nil
		}
	}
	return store.SharedMatch{}, sql.ErrNoRows
}

func (m *memStore) ListSharedMatchesForUser(ctx context.Context, userID string) ([]store.SharedMatch, error) {
	var items []store.SharedMatch
	for _, sm := range m.sharedMatches {
		if sm.SharedWithID == userID {
			items = append(items, sm)
		}
	}
	return items, nil
}

func (m *memStore) InsertSharedMatchPlayer(ctx context.Context, smp store.SharedMatchPlayer) (store.SharedMatchPlayer, error) {
	for _, existing := range m.sharedMatchPlayers {
		if existing.OwnerID == smp.OwnerID && existing.SharedWithID == smp.SharedWithID && existing.MatchPlayerID == smp.MatchPlayerID {
			return existing, nil
		}
	}
	m.sharedMatchPlayers = append(m.sharedMatchPlayers, smp)
	return smp, nil
}

func (m *memStore) ListSharedMatchPlayers(ctx context.Context, sharedMatchID string) ([]store.SharedMatchPlayer, error) {
	var items []store.SharedMatchPlayer
	for _, smp := range m.sharedMatchPlayers {
		if smp.SharedMatchID == sharedMatchID {
			items = append(items, smp)
		}
	}
	return items, nil
}

func (m *memStore) InsertSharedMatchPlayerRole(ctx context.Context, smpr store.SharedMatchPlayerRole) error {
	for _, existing := range m.sharedMatchPlayerRoles {
		if existing.SharedMatchPlayerID == smpr.SharedMatchPlayerID && existing.GameRoleID == smpr.GameRoleID {
			return nil
		}
	}
	m.sharedMatchPlayerRoles = append(m.sharedMatchPlayerRoles, smpr)
	return nil
}
