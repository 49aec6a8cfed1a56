package share

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"scorekeep/api/internal/store"
	"scorekeep/api/internal/util"
)

// Decision is one per-item choice from the recipient's accept screen.
// LinkID, when set on a linkable type, resolves the mirror against an
// entity the recipient already owns instead of cloning.
type Decision struct {
	RequestID string
	Accept    bool
	LinkID    string
}

// materializer resolves one accepted request into its mirror row and, for
// catalog types, a linked or cloned recipient-side entity. Materializers are
// idempotent: re-running against an already resolved mirror is a no-op.
type materializer func(ctx context.Context, st Store, req store.ShareRequest, linkID string) error

var materializers = map[ItemType]materializer{
	ItemGame:        materializeGame,
	ItemScoresheet:  materializeScoresheet,
	ItemLocation:    materializeLocation,
	ItemPlayer:      materializePlayer,
	ItemMatch:       materializeMatch,
	ItemMatchPlayer: materializeMatchPlayer,
}

func materialize(ctx context.Context, st Store, req store.ShareRequest, linkID string) error {
	fn, ok := materializers[ItemType(req.ItemType)]
	if !ok {
		return fmt.Errorf("no materializer for item type %q", req.ItemType)
	}
	return fn(ctx, st, req, linkID)
}

// AcceptShareRequest applies the recipient's per-item decisions to a pending
// tree. The whole cascade commits or rolls back as one transaction.
// Re-accepting an already accepted tree re-runs the idempotent materializers
// and changes nothing.
func (e *Engine) AcceptShareRequest(ctx context.Context, callerID, requestID string, decisions []Decision) (RequestTree, error) {
	byRequest := make(map[string]Decision, len(decisions))
	for _, d := range decisions {
		byRequest[d.RequestID] = d
	}

	var tree RequestTree
	err := e.store.WithTx(ctx, func(tx Store) error {
		root, err := tx.GetShareRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if root.SharedWithID != callerID {
			return sql.ErrNoRows
		}
		if root.ParentShareID != nil {
			return fmt.Errorf("request %s is not a root", requestID)
		}
		if root.Status == StatusRejected {
			return ErrAlreadyDecided
		}
		children, err := tx.ListChildShareRequests(ctx, root.ID)
		if err != nil {
			return err
		}

		all := make([]*store.ShareRequest, 0, 1+len(children))
		all = append(all, &root)
		for i := range children {
			all = append(all, &children[i])
		}

		for rank := 0; rank <= dependencyRank[ItemMatchPlayer]; rank++ {
			for _, req := range all {
				if dependencyRank[ItemType(req.ItemType)] != rank {
					continue
				}
				if req.Status == StatusRejected {
					continue
				}
				decision, decided := byRequest[req.ID]
				if decided && !decision.Accept {
					if err := tx.UpdateShareRequestStatus(ctx, req.ID, StatusRejected); err != nil {
						return err
					}
					req.Status = StatusRejected
					continue
				}
				if err := materialize(ctx, tx, *req, decision.LinkID); err != nil {
					return fmt.Errorf("materialize %s %s: %w", req.ItemType, req.ItemID, err)
				}
				if req.Status != StatusAccepted {
					if err := tx.UpdateShareRequestStatus(ctx, req.ID, StatusAccepted); err != nil {
						return err
					}
					req.Status = StatusAccepted
				}
			}
		}
		tree = RequestTree{Root: root, Children: children}
		return nil
	})
	if err != nil {
		return RequestTree{}, err
	}
	return tree, nil
}

// RejectShareRequest marks a pending root and every undecided child
// rejected. No mirrors are written; already accepted children (auto-accepts
// materialized at share time) stay as they are.
func (e *Engine) RejectShareRequest(ctx context.Context, callerID, requestID string) error {
	return e.store.WithTx(ctx, func(tx Store) error {
		root, err := tx.GetShareRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if root.SharedWithID != callerID {
			return sql.ErrNoRows
		}
		if root.ParentShareID != nil {
			return fmt.Errorf("request %s is not a root", requestID)
		}
		if root.Status == StatusAccepted {
			return ErrAlreadyDecided
		}
		children, err := tx.ListChildShareRequests(ctx, root.ID)
		if err != nil {
			return err
		}
		if err := tx.UpdateShareRequestStatus(ctx, root.ID, StatusRejected); err != nil {
			return err
		}
		for _, child := range children {
			if child.Status != StatusPending {
				continue
			}
			if err := tx.UpdateShareRequestStatus(ctx, child.ID, StatusRejected); err != nil {
				return err
			}
		}
		return nil
	})
}

func materializeGame(ctx context.Context, st Store, req store.ShareRequest, linkID string) error {
	mirror, err := st.GetSharedGame(ctx, req.OwnerID, req.SharedWithID, req.ItemID)
	if errors.Is(err, sql.ErrNoRows) {
		mirror, err = st.InsertSharedGame(ctx, store.SharedGame{
			ID:           util.NewID("shg"),
			OwnerID:      req.OwnerID,
			SharedWithID: req.SharedWithID,
			GameID:       req.ItemID,
			Permission:   req.Permission,
		})
	}
	if err != nil {
		return err
	}
	if mirror.LinkedGameID != nil {
		return nil
	}

	var linked string
	if linkID != "" {
		target, err := st.GetGame(ctx, linkID)
		if err != nil {
			return err
		}
		if target.OwnerID != req.SharedWithID {
			return ErrLinkNotOwned
		}
		linked = target.ID
	} else {
		src, err := st.GetGame(ctx, req.ItemID)
		if err != nil {
			return err
		}
		clone := store.Game{
			ID:            util.NewID("game"),
			OwnerID:       req.SharedWithID,
			Name:          src.Name,
			YearPublished: src.YearPublished,
			Description:   src.Description,
			Rules:         src.Rules,
			PlayersMin:    src.PlayersMin,
			PlayersMax:    src.PlayersMax,
			PlaytimeMin:   src.PlaytimeMin,
			PlaytimeMax:   src.PlaytimeMax,
		}
		if err := st.InsertGame(ctx, clone); err != nil {
			return err
		}
		linked = clone.ID
	}
	return st.SetSharedGameLink(ctx, mirror.ID, &linked)
}

// materializeScoresheet always clones. A scoresheet is bound to one game's
// scoring shape, so reuse is never offered; the clone keeps the source id as
// parent for provenance and is rebound to the recipient-side game.
func materializeScoresheet(ctx context.Context, st Store, req store.ShareRequest, linkID string) error {
	mirror, err := st.GetSharedScoresheet(ctx, req.OwnerID, req.SharedWithID, req.ItemID)
	if err == nil && mirror.LinkedScoresheetID != nil {
		return nil
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	src, err := st.GetScoresheet(ctx, req.ItemID)
	if err != nil {
		return err
	}
	sharedGame, err := st.GetSharedGame(ctx, req.OwnerID, req.SharedWithID, src.GameID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUnresolvedDependency
	}
	if err != nil {
		return err
	}
	if sharedGame.LinkedGameID == nil {
		return ErrUnresolvedDependency
	}

	if mirror.ID == "" {
		mirror, err = st.InsertSharedScoresheet(ctx, store.SharedScoresheet{
			ID:           util.NewID("shs"),
			OwnerID:      req.OwnerID,
			SharedWithID: req.SharedWithID,
			ScoresheetID: req.ItemID,
			SharedGameID: &sharedGame.ID,
			Permission:   req.Permission,
		})
		if err != nil {
			return err
		}
		if mirror.LinkedScoresheetID != nil {
			return nil
		}
	}

	clone := store.Scoresheet{
		ID:           util.NewID("sheet"),
		OwnerID:      req.SharedWithID,
		GameID:       *sharedGame.LinkedGameID,
		ParentID:     &src.ID,
		Name:         src.Name,
		Type:         src.Type,
		WinCondition: src.WinCondition,
		RoundsScore:  src.RoundsScore,
		TargetScore:  src.TargetScore,
		IsCoop:       src.IsCoop,
	}
	if err := st.InsertScoresheet(ctx, clone); err != nil {
		return err
	}

	rounds, err := st.ListRounds(ctx, src.ID)
	if err != nil {
		return err
	}
	for _, round := range rounds {
		roundClone := store.Round{
			ID:           util.NewID("round"),
			ScoresheetID: clone.ID,
			Name:         round.Name,
			Type:         round.Type,
			Score:        round.Score,
			SortOrder:    round.SortOrder,
			Color:        round.Color,
		}
		if err := st.InsertRound(ctx, roundClone); err != nil {
			return err
		}
		if _, err := st.InsertSharedRound(ctx, store.SharedRound{
			ID:                 util.NewID("shro"),
			OwnerID:            req.OwnerID,
			SharedWithID:       req.SharedWithID,
			RoundID:            round.ID,
			LinkedRoundID:      &roundClone.ID,
			SharedScoresheetID: mirror.ID,
		}); err != nil {
			return err
		}
	}
	return st.SetSharedScoresheetLink(ctx, mirror.ID, &clone.ID)
}

func materializeLocation(ctx context.Context, st Store, req store.ShareRequest, linkID string) error {
	mirror, err := st.GetSharedLocation(ctx, req.OwnerID, req.SharedWithID, req.ItemID)
	if errors.Is(err, sql.ErrNoRows) {
		mirror, err = st.InsertSharedLocation(ctx, store.SharedLocation{
			ID:           util.NewID("shl"),
			OwnerID:      req.OwnerID,
			SharedWithID: req.SharedWithID,
			LocationID:   req.ItemID,
			Permission:   req.Permission,
		})
	}
	if err != nil {
		return err
	}
	if mirror.LinkedLocationID != nil {
		return nil
	}

	var linked string
	if linkID != "" {
		target, err := st.GetLocation(ctx, linkID)
		if err != nil {
			return err
		}
		if target.OwnerID != req.SharedWithID {
			return ErrLinkNotOwned
		}
		linked = target.ID
	} else {
		src, err := st.GetLocation(ctx, req.ItemID)
		if err != nil {
			return err
		}
		clone := store.Location{
			ID:      util.NewID("loc"),
			OwnerID: req.SharedWithID,
			Name:    src.Name,
		}
		if err := st.InsertLocation(ctx, clone); err != nil {
			return err
		}
		linked = clone.ID
	}
	return st.SetSharedLocationLink(ctx, mirror.ID, &linked)
}

func materializePlayer(ctx context.Context, st Store, req store.ShareRequest, linkID string) error {
	mirror, err := st.GetSharedPlayer(ctx, req.OwnerID, req.SharedWithID, req.ItemID)
	if errors.Is(err, sql.ErrNoRows) {
		mirror, err = st.InsertSharedPlayer(ctx, store.SharedPlayer{
			ID:           util.NewID("shp"),
			OwnerID:      req.OwnerID,
			SharedWithID: req.SharedWithID,
			PlayerID:     req.ItemID,
			Permission:   req.Permission,
		})
	}
	if err != nil {
		return err
	}
	if mirror.LinkedPlayerID != nil {
		return nil
	}

	var linked string
	if linkID != "" {
		target, err := st.GetPlayer(ctx, linkID)
		if err != nil {
			return err
		}
		if target.OwnerID != req.SharedWithID {
			return ErrLinkNotOwned
		}
		linked = target.ID
	} else {
		src, err := st.GetPlayer(ctx, req.ItemID)
		if err != nil {
			return err
		}
		clone := store.Player{
			ID:           util.NewID("player"),
			OwnerID:      req.SharedWithID,
			Name:         src.Name,
			LinkedUserID: src.LinkedUserID,
		}
		if err := st.InsertPlayer(ctx, clone); err != nil {
			return err
		}
		linked = clone.ID
	}
	return st.SetSharedPlayerLink(ctx, mirror.ID, &linked)
}

// resolveGameRole links or clones one game role for the recipient, scoped to
// the already resolved game. Shared by every path that maps roles so the
// match-create and match-edit flows cannot drift apart.
func resolveGameRole(ctx context.Context, st Store, ownerID, sharedWithID, roleID, permission string) (store.SharedGameRole, error) {
	mirror, err := st.GetSharedGameRole(ctx, ownerID, sharedWithID, roleID)
	if err == nil && mirror.LinkedGameRoleID != nil {
		return mirror, nil
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return store.SharedGameRole{}, err
	}

	src, err := st.GetGameRole(ctx, roleID)
	if err != nil {
		return store.SharedGameRole{}, err
	}
	sharedGame, err := st.GetSharedGame(ctx, ownerID, sharedWithID, src.GameID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.SharedGameRole{}, ErrUnresolvedDependency
	}
	if err != nil {
		return store.SharedGameRole{}, err
	}
	if sharedGame.LinkedGameID == nil {
		return store.SharedGameRole{}, ErrUnresolvedDependency
	}

	if mirror.ID == "" {
		mirror, err = st.InsertSharedGameRole(ctx, store.SharedGameRole{
			ID:           util.NewID("shgr"),
			OwnerID:      ownerID,
			SharedWithID: sharedWithID,
			GameRoleID:   roleID,
			SharedGameID: sharedGame.ID,
			Permission:   permission,
		})
		if err != nil {
			return store.SharedGameRole{}, err
		}
		if mirror.LinkedGameRoleID != nil {
			return mirror, nil
		}
	}

	clone := store.GameRole{
		ID:          util.NewID("role"),
		OwnerID:     sharedWithID,
		GameID:      *sharedGame.LinkedGameID,
		Name:        src.Name,
		Description: src.Description,
	}
	if err := st.InsertGameRole(ctx, clone); err != nil {
		return store.SharedGameRole{}, err
	}
	if err := st.SetSharedGameRoleLink(ctx, mirror.ID, &clone.ID); err != nil {
		return store.SharedGameRole{}, err
	}
	mirror.LinkedGameRoleID = &clone.ID
	return mirror, nil
}

// materializeMatch never clones. The single match row stays with its owner;
// the mirror references it together with the recipient-side game, scoresheet
// and location resolutions.
func materializeMatch(ctx context.Context, st Store, req store.ShareRequest, linkID string) error {
	if _, err := st.GetSharedMatch(ctx, req.OwnerID, req.SharedWithID, req.ItemID); err == nil {
		return nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	match, err := st.GetMatch(ctx, req.ItemID)
	if err != nil {
		return err
	}
	sharedGame, err := st.GetSharedGame(ctx, req.OwnerID, req.SharedWithID, match.GameID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUnresolvedDependency
	}
	if err != nil {
		return err
	}
	sharedSheet, err := st.GetSharedScoresheet(ctx, req.OwnerID, req.SharedWithID, match.ScoresheetID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUnresolvedDependency
	}
	if err != nil {
		return err
	}

	mirror := store.SharedMatch{
		ID:                 util.NewID("shm"),
		OwnerID:            req.OwnerID,
		SharedWithID:       req.SharedWithID,
		MatchID:            match.ID,
		SharedGameID:       &sharedGame.ID,
		SharedScoresheetID: &sharedSheet.ID,
		Permission:         req.Permission,
	}
	if match.LocationID != nil {
		// Location sharing can be off for this friendship; the mirror then
		// simply carries no location.
		sharedLocation, err := st.GetSharedLocation(ctx, req.OwnerID, req.SharedWithID, *match.LocationID)
		if err == nil {
			mirror.SharedLocationID = &sharedLocation.ID
		} else if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
	}
	_, err = st.InsertSharedMatch(ctx, mirror)
	return err
}

func materializeMatchPlayer(ctx context.Context, st Store, req store.ShareRequest, linkID string) error {
	mp, err := st.GetMatchPlayer(ctx, req.ItemID)
	if err != nil {
		return err
	}
	sharedMatch, err := st.GetSharedMatch(ctx, req.OwnerID, req.SharedWithID, mp.MatchID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUnresolvedDependency
	}
	if err != nil {
		return err
	}

	mirror := store.SharedMatchPlayer{
		ID:            util.NewID("shmp"),
		OwnerID:       req.OwnerID,
		SharedWithID:  req.SharedWithID,
		MatchPlayerID: mp.ID,
		SharedMatchID: sharedMatch.ID,
		Permission:    req.Permission,
	}
	sharedPlayer, err := st.GetSharedPlayer(ctx, req.OwnerID, req.SharedWithID, mp.PlayerID)
	if err == nil {
		mirror.SharedPlayerID = &sharedPlayer.ID
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	inserted, err := st.InsertSharedMatchPlayer(ctx, mirror)
	if err != nil {
		return err
	}

	roles, err := st.ListMatchPlayerRoles(ctx, mp.ID)
	if err != nil {
		return err
	}
	for _, role := range roles {
		sharedRole, err := resolveGameRole(ctx, st, req.OwnerID, req.SharedWithID, role.GameRoleID, req.Permission)
		if err != nil {
			return err
		}
		if err := st.InsertSharedMatchPlayerRole(ctx, store.SharedMatchPlayerRole{
			ID:                  util.NewID("shmpr"),
			SharedMatchPlayerID: inserted.ID,
			GameRoleID:          role.GameRoleID,
			SharedGameRoleID:    &sharedRole.ID,
		}); err != nil {
			return err
		}
	}
	return nil
}
