package share

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"scorekeep/api/internal/perm"
	"scorekeep/api/internal/store"
)

// FriendConfig is the pre-computed decision set for one auto-share target:
// which item kinds the owner pushes and at what permission, resolved from
// both directions' settings before any transaction opens.
type FriendConfig struct {
	FriendUserID string
	Permission   perm.Permission
	Setting      store.FriendSetting
	Options      closureOptions
}

// AutoShareMatch runs after the owner creates or edits a match. Every
// participant whose player is linked to a friend account is a candidate;
// each eligible friend gets the full share pipeline in an independent
// transaction, so one friend's failure leaves the others' shares committed.
// Errors are logged, never returned: auto-share must not fail the match
// write that triggered it.
func (e *Engine) AutoShareMatch(ctx context.Context, ownerID, matchID string) {
	configs, err := e.collectFriendConfigs(ctx, ownerID, matchID)
	if err != nil {
		log.Printf("auto-share: collect friends for match %s: %v", matchID, err)
		return
	}

	root := ItemRef{Type: ItemMatch, ID: matchID}
	for _, cfg := range configs {
		err := e.store.WithTx(ctx, func(tx Store) error {
			_, err := createTree(ctx, tx, ownerID, cfg.FriendUserID, root, cfg.Permission, cfg.Setting, cfg.Options)
			return err
		})
		if err != nil {
			log.Printf("auto-share: match %s to %s: %v", matchID, cfg.FriendUserID, err)
		}
	}
}

// collectFriendConfigs finds the distinct linked friends among a match's
// participants and keeps those for which both directions allow auto-shared
// matches. Settings are never assumed symmetric.
func (e *Engine) collectFriendConfigs(ctx context.Context, ownerID, matchID string) ([]FriendConfig, error) {
	participants, err := e.store.ListMatchPlayers(ctx, matchID)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	configs := make([]FriendConfig, 0)
	for _, mp := range participants {
		player, err := e.store.GetPlayer(ctx, mp.PlayerID)
		if err != nil {
			return nil, err
		}
		if player.LinkedUserID == nil || *player.LinkedUserID == ownerID || seen[*player.LinkedUserID] {
			continue
		}
		friendID := *player.LinkedUserID
		seen[friendID] = true

		ownSetting, err := e.store.GetFriendSetting(ctx, ownerID, friendID)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !ownSetting.AutoShareMatches {
			continue
		}
		friendSetting, err := e.store.GetFriendSetting(ctx, friendID, ownerID)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !friendSetting.AllowSharedMatches {
			continue
		}

		configs = append(configs, FriendConfig{
			FriendUserID: friendID,
			Permission:   perm.Normalize(ownSetting.DefaultPermissionMatches),
			Setting:      friendSetting,
			Options: closureOptions{
				includeLocation: ownSetting.ShareLocation,
				includePlayers:  ownSetting.SharePlayers,
			},
		})
	}
	return configs, nil
}
