package share

import (
	"context"
	"database/sql"
	"errors"

	"scorekeep/api/internal/perm"
	"scorekeep/api/internal/store"
)

// MatchAccess is the guard's verdict on one caller/match pair.
type MatchAccess struct {
	Match      store.Match
	IsOwner    bool
	Permission perm.Permission
	Mirror     *store.SharedMatch
}

// AuthorizeMatch gates every read and mutation on a shared-sourced match.
// Owners pass for any action. Recipients pass when their mirror's permission
// covers the action; delete never passes through a mirror. Callers with
// neither ownership nor a mirror get sql.ErrNoRows so existence is not
// leaked.
func (e *Engine) AuthorizeMatch(ctx context.Context, callerID, matchID string, action perm.Action) (MatchAccess, error) {
	match, err := e.store.GetMatch(ctx, matchID)
	if err != nil {
		return MatchAccess{}, err
	}
	if match.OwnerID == callerID {
		return MatchAccess{Match: match, IsOwner: true, Permission: perm.Edit}, nil
	}

	mirror, err := e.store.GetSharedMatchForUser(ctx, matchID, callerID)
	if errors.Is(err, sql.ErrNoRows) {
		return MatchAccess{}, sql.ErrNoRows
	}
	if err != nil {
		return MatchAccess{}, err
	}
	permission := perm.Normalize(mirror.Permission)
	if !perm.Allows(permission, action) {
		return MatchAccess{}, ErrPermissionDenied
	}
	return MatchAccess{Match: match, Permission: permission, Mirror: &mirror}, nil
}

// AuthorizeGameRead resolves read access to a game the caller may only know
// through a share.
func (e *Engine) AuthorizeGameRead(ctx context.Context, callerID, gameID string) (store.Game, error) {
	game, err := e.store.GetGame(ctx, gameID)
	if err != nil {
		return store.Game{}, err
	}
	if game.OwnerID == callerID {
		return game, nil
	}
	if _, err := e.store.GetSharedGameForUser(ctx, gameID, callerID); err != nil {
		return store.Game{}, err
	}
	return game, nil
}

// AuthorizePlayerRead resolves read access to a player record.
func (e *Engine) AuthorizePlayerRead(ctx context.Context, callerID, playerID string) (store.Player, error) {
	player, err := e.store.GetPlayer(ctx, playerID)
	if err != nil {
		return store.Player{}, err
	}
	if player.OwnerID == callerID {
		return player, nil
	}
	if _, err := e.store.GetSharedPlayerForUser(ctx, playerID, callerID); err != nil {
		return store.Player{}, err
	}
	return player, nil
}

// AuthorizeLocationRead resolves read access to a location record.
func (e *Engine) AuthorizeLocationRead(ctx context.Context, callerID, locationID string) (store.Location, error) {
	location, err := e.store.GetLocation(ctx, locationID)
	if err != nil {
		return store.Location{}, err
	}
	if location.OwnerID == callerID {
		return location, nil
	}
	if _, err := e.store.GetSharedLocationForUser(ctx, locationID, callerID); err != nil {
		return store.Location{}, err
	}
	return location, nil
}

// ListSharedMatches returns the matches shared with the caller.
func (e *Engine) ListSharedMatches(ctx context.Context, callerID string) ([]store.SharedMatch, error) {
	return e.store.ListSharedMatchesForUser(ctx, callerID)
}
