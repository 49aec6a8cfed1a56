package share

import (
	"context"
	"fmt"

	"scorekeep/api/internal/store"
)

// ItemRef identifies one shareable item inside a closure. ParentID is the
// source item the reference was discovered through, kept for the request
// tree the recipient sees.
type ItemRef struct {
	Type     ItemType
	ID       string
	ParentID string
}

// closureOptions narrows what an auto-share includes. Manual shares include
// everything.
type closureOptions struct {
	includeLocation bool
	includePlayers  bool
}

func allInclusive() closureOptions {
	return closureOptions{includeLocation: true, includePlayers: true}
}

// buildClosure computes the deduplicated dependency closure of a root item,
// in dependency order (catalog items before the matches referencing them,
// match players last). The root itself is not part of the result. Items the
// recipient already accepted from this owner are skipped.
func buildClosure(ctx context.Context, st Store, ownerID, recipientID string, root ItemRef, opts closureOptions) ([]ItemRef, error) {
	c := &closureBuilder{
		st:          st,
		ownerID:     ownerID,
		recipientID: recipientID,
		opts:        opts,
		seen:        map[string]bool{itemKey(root.Type, root.ID): true},
	}

	var err error
	switch root.Type {
	case ItemGame:
		err = c.expandGame(ctx, root.ID)
	case ItemMatch:
		err = c.expandMatch(ctx, root.ID)
	case ItemPlayer:
		err = c.expandPlayer(ctx, root.ID)
	default:
		return nil, fmt.Errorf("item type %q cannot root a share", root.Type)
	}
	if err != nil {
		return nil, err
	}

	sortByDependencyRank(c.items)
	return c.items, nil
}

type closureBuilder struct {
	st          Store
	ownerID     string
	recipientID string
	opts        closureOptions
	seen        map[string]bool
	items       []ItemRef
}

func itemKey(t ItemType, id string) string {
	return string(t) + ":" + id
}

// add records one descriptor unless it was already discovered through
// another path or an accepted request for it already exists.
func (c *closureBuilder) add(ctx context.Context, t ItemType, id, parentID string) (bool, error) {
	key := itemKey(t, id)
	if c.seen[key] {
		return false, nil
	}
	c.seen[key] = true

	accepted, err := c.st.HasAcceptedShareRequest(ctx, c.ownerID, c.recipientID, string(t), id)
	if err != nil {
		return false, err
	}
	if accepted {
		return false, nil
	}
	c.items = append(c.items, ItemRef{Type: t, ID: id, ParentID: parentID})
	return true, nil
}

func (c *closureBuilder) expandGame(ctx context.Context, gameID string) error {
	sheets, err := c.st.ListGameScoresheets(ctx, gameID)
	if err != nil {
		return fmt.Errorf("closure scoresheets: %w", err)
	}
	for _, sheet := range sheets {
		if _, err := c.add(ctx, ItemScoresheet, sheet.ID, gameID); err != nil {
			return err
		}
	}

	matches, err := c.st.ListMatchesByGame(ctx, gameID)
	if err != nil {
		return fmt.Errorf("closure matches: %w", err)
	}
	for _, match := range matches {
		if match.OwnerID != c.ownerID {
			continue
		}
		added, err := c.add(ctx, ItemMatch, match.ID, gameID)
		if err != nil {
			return err
		}
		if !added {
			continue
		}
		if err := c.expandMatchChildren(ctx, match); err != nil {
			return err
		}
	}
	return nil
}

func (c *closureBuilder) expandMatch(ctx context.Context, matchID string) error {
	match, err := c.st.GetMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("closure match: %w", err)
	}
	if _, err := c.add(ctx, ItemGame, match.GameID, matchID); err != nil {
		return err
	}
	return c.expandMatchChildren(ctx, match)
}

// expandMatchChildren adds a match's scoresheet snapshot, location and
// participants. The match itself must already be in the closure (or be the
// root).
func (c *closureBuilder) expandMatchChildren(ctx context.Context, match store.Match) error {
	if _, err := c.add(ctx, ItemScoresheet, match.ScoresheetID, match.ID); err != nil {
		return err
	}
	if c.opts.includeLocation && match.LocationID != nil {
		if _, err := c.add(ctx, ItemLocation, *match.LocationID, match.ID); err != nil {
			return err
		}
	}

	participants, err := c.st.ListMatchPlayers(ctx, match.ID)
	if err != nil {
		return fmt.Errorf("closure match players: %w", err)
	}
	for _, mp := range participants {
		if c.opts.includePlayers {
			if _, err := c.add(ctx, ItemPlayer, mp.PlayerID, match.ID); err != nil {
				return err
			}
		}
		if _, err := c.add(ctx, ItemMatchPlayer, mp.ID, match.ID); err != nil {
			return err
		}
	}
	return nil
}

func (c *closureBuilder) expandPlayer(ctx context.Context, playerID string) error {
	matches, err := c.st.ListMatchesByPlayer(ctx, playerID)
	if err != nil {
		return fmt.Errorf("closure player matches: %w", err)
	}
	for _, match := range matches {
		if match.OwnerID != c.ownerID {
			continue
		}
		added, err := c.add(ctx, ItemMatch, match.ID, playerID)
		if err != nil {
			return err
		}
		if !added {
			continue
		}
		if _, err := c.add(ctx, ItemGame, match.GameID, match.ID); err != nil {
			return err
		}
		if err := c.expandMatchChildren(ctx, match); err != nil {
			return err
		}
	}
	return nil
}

// sortByDependencyRank is a stable ordering: items of equal rank keep their
// discovery order.
func sortByDependencyRank(items []ItemRef) {
	out := make([]ItemRef, 0, len(items))
	for rank := 0; rank <= dependencyRank[ItemMatchPlayer]; rank++ {
		for _, item := range items {
			if dependencyRank[item.Type] == rank {
				out = append(out, item)
			}
		}
	}
	copy(items, out)
}
