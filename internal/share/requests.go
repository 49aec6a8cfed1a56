package share

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"scorekeep/api/internal/perm"
	"scorekeep/api/internal/store"
	"scorekeep/api/internal/util"
)

// RequestTree is what the recipient's accept screen renders: the root plus
// its children in creation order.
type RequestTree struct {
	Root     store.ShareRequest
	Children []store.ShareRequest
}

// CreateShareRequest is the manual share entry point. The caller must own
// the root item; the recipient must be a friend. The whole tree (closure,
// request rows, any auto-accepted materialization) commits in one
// transaction.
func (e *Engine) CreateShareRequest(ctx context.Context, ownerID string, root ItemRef, recipientID string, permission perm.Permission) (RequestTree, error) {
	if !root.Type.Valid() {
		return RequestTree{}, fmt.Errorf("invalid item type %q", root.Type)
	}

	var tree RequestTree
	err := e.store.WithTx(ctx, func(tx Store) error {
		if err := verifyOwnership(ctx, tx, ownerID, root); err != nil {
			return err
		}
		// The recipient's own settings toward the owner decide per-type
		// allow/auto-accept. sql.ErrNoRows here means no friendship.
		recipientSetting, err := tx.GetFriendSetting(ctx, recipientID, ownerID)
		if err != nil {
			return err
		}
		tree, err = createTree(ctx, tx, ownerID, recipientID, root, permission, recipientSetting, allInclusive())
		return err
	})
	if err != nil {
		return RequestTree{}, err
	}
	return tree, nil
}

// createTree builds the closure, persists the request forest and immediately
// materializes every request whose derived status is accepted. Re-sharing the
// same item to the same recipient reuses the open (pending or accepted)
// request row instead of stacking a duplicate; only a rejected history allows
// a fresh ask. Runs inside the caller's transaction.
func createTree(ctx context.Context, st Store, ownerID, recipientID string, root ItemRef, permission perm.Permission, setting store.FriendSetting, opts closureOptions) (RequestTree, error) {
	children, err := buildClosure(ctx, st, ownerID, recipientID, root, opts)
	if err != nil {
		return RequestTree{}, err
	}

	newIDs := make(map[string]bool)
	storedStatus := make(map[string]string)

	rootReq, found, err := openRequest(ctx, st, ownerID, recipientID, root)
	if err != nil {
		return RequestTree{}, err
	}
	if found {
		storedStatus[rootReq.ID] = rootReq.Status
	} else {
		rootReq = store.ShareRequest{
			ID:           util.NewID("shr"),
			OwnerID:      ownerID,
			SharedWithID: recipientID,
			ItemType:     string(root.Type),
			ItemID:       root.ID,
			Permission:   string(permissionFor(setting, root.Type, permission)),
			Status:       derivedStatus(setting, root.Type),
		}
		newIDs[rootReq.ID] = true
	}
	// A reused root can itself be a child in an earlier tree. New children
	// then attach to that tree's root so the forest stays two levels deep.
	parentID := rootReq.ID
	if rootReq.ParentShareID != nil {
		parentID = *rootReq.ParentShareID
	}

	tree := RequestTree{Root: rootReq, Children: make([]store.ShareRequest, 0, len(children))}
	for _, child := range children {
		req, found, err := openRequest(ctx, st, ownerID, recipientID, child)
		if err != nil {
			return RequestTree{}, err
		}
		if found {
			storedStatus[req.ID] = req.Status
		} else {
			req = store.ShareRequest{
				ID:            util.NewID("shr"),
				OwnerID:       ownerID,
				SharedWithID:  recipientID,
				ItemType:      string(child.Type),
				ItemID:        child.ID,
				ParentShareID: &parentID,
				Permission:    string(permissionFor(setting, child.Type, permission)),
				Status:        derivedStatus(setting, child.Type),
			}
			newIDs[req.ID] = true
		}
		tree.Children = append(tree.Children, req)
	}
	promoteDependencies(&tree)

	if newIDs[tree.Root.ID] {
		if err := st.InsertShareRequest(ctx, tree.Root); err != nil {
			return RequestTree{}, err
		}
	}
	for _, child := range tree.Children {
		if !newIDs[child.ID] {
			continue
		}
		if err := st.InsertShareRequest(ctx, child); err != nil {
			return RequestTree{}, err
		}
	}
	// Promotion can lift a reused pending request to accepted; persist that.
	persistPromoted := func(req store.ShareRequest) error {
		if newIDs[req.ID] || storedStatus[req.ID] == req.Status {
			return nil
		}
		return st.UpdateShareRequestStatus(ctx, req.ID, req.Status)
	}
	if err := persistPromoted(tree.Root); err != nil {
		return RequestTree{}, err
	}
	for _, child := range tree.Children {
		if err := persistPromoted(child); err != nil {
			return RequestTree{}, err
		}
	}

	// Materialize auto-accepted requests in dependency order so that a
	// match always finds its game/scoresheet mirrors resolved. An item whose
	// dependency stayed pending or was disallowed cannot materialize yet;
	// it degrades to rejected rather than failing the whole tree.
	all := make([]*store.ShareRequest, 0, 1+len(tree.Children))
	all = append(all, &tree.Root)
	for i := range tree.Children {
		all = append(all, &tree.Children[i])
	}
	for rank := 0; rank <= dependencyRank[ItemMatchPlayer]; rank++ {
		for _, req := range all {
			if req.Status != StatusAccepted || dependencyRank[ItemType(req.ItemType)] != rank {
				continue
			}
			err := materialize(ctx, st, *req, "")
			if errors.Is(err, ErrUnresolvedDependency) {
				if err := st.UpdateShareRequestStatus(ctx, req.ID, StatusRejected); err != nil {
					return RequestTree{}, err
				}
				req.Status = StatusRejected
				continue
			}
			if err != nil {
				return RequestTree{}, fmt.Errorf("materialize %s %s: %w", req.ItemType, req.ItemID, err)
			}
		}
	}
	return tree, nil
}

// GetShareRequest returns the tree for its owner or its recipient. Anyone
// else gets not found.
func (e *Engine) GetShareRequest(ctx context.Context, callerID, requestID string) (RequestTree, error) {
	root, err := e.store.GetShareRequest(ctx, requestID)
	if err != nil {
		return RequestTree{}, err
	}
	if root.OwnerID != callerID && root.SharedWithID != callerID {
		return RequestTree{}, sql.ErrNoRows
	}
	if root.ParentShareID != nil {
		root, err = e.store.GetShareRequest(ctx, *root.ParentShareID)
		if err != nil {
			return RequestTree{}, err
		}
	}
	children, err := e.store.ListChildShareRequests(ctx, root.ID)
	if err != nil {
		return RequestTree{}, err
	}
	return RequestTree{Root: root, Children: children}, nil
}

// ListPendingForRecipient returns the recipient's open root requests.
func (e *Engine) ListPendingForRecipient(ctx context.Context, recipientID string) ([]store.ShareRequest, error) {
	return e.store.ListShareRequestsForRecipient(ctx, recipientID, StatusPending)
}

// openRequest looks up a live (pending or accepted) request for the item
// between the two users. The second return reports whether one exists.
func openRequest(ctx context.Context, st Store, ownerID, recipientID string, item ItemRef) (store.ShareRequest, bool, error) {
	req, err := st.FindOpenShareRequest(ctx, ownerID, recipientID, string(item.Type), item.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ShareRequest{}, false, nil
	}
	if err != nil {
		return store.ShareRequest{}, false, err
	}
	return req, true, nil
}

func verifyOwnership(ctx context.Context, st Store, ownerID string, root ItemRef) error {
	var itemOwner string
	switch root.Type {
	case ItemGame:
		game, err := st.GetGame(ctx, root.ID)
		if err != nil {
			return err
		}
		itemOwner = game.OwnerID
	case ItemMatch:
		match, err := st.GetMatch(ctx, root.ID)
		if err != nil {
			return err
		}
		itemOwner = match.OwnerID
	case ItemPlayer:
		player, err := st.GetPlayer(ctx, root.ID)
		if err != nil {
			return err
		}
		itemOwner = player.OwnerID
	default:
		return fmt.Errorf("item type %q cannot root a share", root.Type)
	}
	if itemOwner != ownerID {
		return sql.ErrNoRows
	}
	return nil
}

// promoteDependencies lifts pending catalog items to accepted when the tree
// contains an accepted match. A materialized match mirror needs its game,
// scoresheet, location and player mirrors resolved in the same pass; an
// auto-accepted match that left them pending could never materialize.
func promoteDependencies(tree *RequestTree) {
	matchAccepted := tree.Root.Status == StatusAccepted && ItemType(tree.Root.ItemType) == ItemMatch
	for _, child := range tree.Children {
		if child.Status == StatusAccepted && ItemType(child.ItemType) == ItemMatch {
			matchAccepted = true
		}
	}
	if !matchAccepted {
		return
	}
	for i := range tree.Children {
		child := &tree.Children[i]
		if child.Status == StatusPending && dependencyRank[ItemType(child.ItemType)] < dependencyRank[ItemMatch] {
			child.Status = StatusAccepted
		}
	}
	if tree.Root.Status == StatusPending && dependencyRank[ItemType(tree.Root.ItemType)] < dependencyRank[ItemMatch] {
		tree.Root.Status = StatusAccepted
	}
}

// derivedStatus maps the recipient's per-type settings onto an initial
// request status: disallowed types are rejected outright, allowed ones wait
// for a manual decision unless auto-accept is on.
func derivedStatus(setting store.FriendSetting, t ItemType) string {
	var allowed, auto bool
	switch t {
	case ItemGame:
		allowed, auto = setting.AllowSharedGames, setting.AutoAcceptGames
	case ItemScoresheet:
		allowed, auto = setting.AllowSharedScoresheets, setting.AutoAcceptScoresheets
	case ItemLocation:
		allowed, auto = setting.AllowSharedLocation, setting.AutoAcceptLocation
	case ItemPlayer:
		allowed, auto = setting.AllowSharedPlayers, setting.AutoAcceptPlayers
	case ItemMatch, ItemMatchPlayer:
		allowed, auto = setting.AllowSharedMatches, setting.AutoAcceptMatches
	}
	if !allowed {
		return StatusRejected
	}
	if auto {
		return StatusAccepted
	}
	return StatusPending
}

// permissionFor caps the requested permission at the recipient's per-type
// default: a recipient defaulting to view never receives edit unasked.
func permissionFor(setting store.FriendSetting, t ItemType, requested perm.Permission) perm.Permission {
	var fallback string
	switch t {
	case ItemGame:
		fallback = setting.DefaultPermissionGames
	case ItemScoresheet:
		fallback = setting.DefaultPermissionScoresheets
	case ItemLocation:
		fallback = setting.DefaultPermissionLocation
	case ItemPlayer:
		fallback = setting.DefaultPermissionPlayers
	case ItemMatch, ItemMatchPlayer:
		fallback = setting.DefaultPermissionMatches
	}
	if requested == perm.Edit && perm.Normalize(fallback) == perm.Edit {
		return perm.Edit
	}
	return perm.View
}

