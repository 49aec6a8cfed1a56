package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func (s *PostgresStore) CreateFriendship(ctx context.Context, friendship Friendship) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO friendships (id, owner_id, friend_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_id, friend_id) DO NOTHING
	`, friendship.ID, friendship.OwnerID, friendship.FriendID)
	if err != nil {
		return fmt.Errorf("create friendship: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListFriends(ctx context.Context, ownerID string) ([]Friendship, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, friend_id, created_at
		FROM friendships
		WHERE owner_id=$1
		ORDER BY created_at ASC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	defer rows.Close()

	items := make([]Friendship, 0)
	for rows.Next() {
		var item Friendship
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.FriendID, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan friendship: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate friendships: %w", err)
	}
	return items, nil
}

const friendSettingColumns = `
	id, owner_id, friend_id,
	auto_share_matches, share_location, share_players,
	allow_shared_games, allow_shared_players, allow_shared_location, allow_shared_matches, allow_shared_scoresheets,
	auto_accept_games, auto_accept_players, auto_accept_location, auto_accept_matches, auto_accept_scoresheets,
	default_permission_games, default_permission_players, default_permission_location, default_permission_matches, default_permission_scoresheets
`

func scanFriendSetting(row *sql.Row) (FriendSetting, error) {
	var fs FriendSetting
	err := row.Scan(
		&fs.ID, &fs.OwnerID, &fs.FriendID,
		&fs.AutoShareMatches, &fs.ShareLocation, &fs.SharePlayers,
		&fs.AllowSharedGames, &fs.AllowSharedPlayers, &fs.AllowSharedLocation, &fs.AllowSharedMatches, &fs.AllowSharedScoresheets,
		&fs.AutoAcceptGames, &fs.AutoAcceptPlayers, &fs.AutoAcceptLocation, &fs.AutoAcceptMatches, &fs.AutoAcceptScoresheets,
		&fs.DefaultPermissionGames, &fs.DefaultPermissionPlayers, &fs.DefaultPermissionLocation, &fs.DefaultPermissionMatches, &fs.DefaultPermissionScoresheets,
	)
	return fs, err
}

// GetFriendSetting reads one direction's settings. A friendship with no
// settings row yet falls back to the column defaults (allow everything,
// auto-accept nothing, view permission).
func (s *PostgresStore) GetFriendSetting(ctx context.Context, ownerID, friendID string) (FriendSetting, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+friendSettingColumns+`
		FROM friend_settings
		WHERE owner_id=$1 AND friend_id=$2
	`, ownerID, friendID)
	setting, err := scanFriendSetting(row)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if err := s.db.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM friendships WHERE owner_id=$1 AND friend_id=$2)
		`, ownerID, friendID).Scan(&exists); err != nil {
			return FriendSetting{}, fmt.Errorf("check friendship: %w", err)
		}
		if !exists {
			return FriendSetting{}, sql.ErrNoRows
		}
		return defaultFriendSetting(ownerID, friendID), nil
	}
	if err != nil {
		return FriendSetting{}, fmt.Errorf("get friend setting: %w", err)
	}
	return setting, nil
}

func defaultFriendSetting(ownerID, friendID string) FriendSetting {
	return FriendSetting{
		OwnerID:  ownerID,
		FriendID: friendID,

		ShareLocation: true,
		SharePlayers:  true,

		AllowSharedGames:       true,
		AllowSharedPlayers:     true,
		AllowSharedLocation:    true,
		AllowSharedMatches:     true,
		AllowSharedScoresheets: true,

		DefaultPermissionGames:       "view",
		DefaultPermissionPlayers:     "view",
		DefaultPermissionLocation:    "view",
		DefaultPermissionMatches:     "view",
		DefaultPermissionScoresheets: "view",
	}
}

func (s *PostgresStore) UpsertFriendSetting(ctx context.Context, setting FriendSetting) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO friend_settings (
			id, owner_id, friend_id,
			auto_share_matches, share_location, share_players,
			allow_shared_games, allow_shared_players, allow_shared_location, allow_shared_matches, allow_shared_scoresheets,
			auto_accept_games, auto_accept_players, auto_accept_location, auto_accept_matches, auto_accept_scoresheets,
			default_permission_games, default_permission_players, default_permission_location, default_permission_matches, default_permission_scoresheets
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (owner_id, friend_id) DO UPDATE SET
			auto_share_matches=EXCLUDED.auto_share_matches,
			share_location=EXCLUDED.share_location,
			share_players=EXCLUDED.share_players,
			allow_shared_games=EXCLUDED.allow_shared_games,
			allow_shared_players=EXCLUDED.allow_shared_players,
			allow_shared_location=EXCLUDED.allow_shared_location,
			allow_shared_matches=EXCLUDED.allow_shared_matches,
			allow_shared_scoresheets=EXCLUDED.allow_shared_scoresheets,
			auto_accept_games=EXCLUDED.auto_accept_games,
			auto_accept_players=EXCLUDED.auto_accept_players,
			auto_accept_location=EXCLUDED.auto_accept_location,
			auto_accept_matches=EXCLUDED.auto_accept_matches,
			auto_accept_scoresheets=EXCLUDED.auto_accept_scoresheets,
			default_permission_games=EXCLUDED.default_permission_games,
			default_permission_players=EXCLUDED.default_permission_players,
			default_permission_location=EXCLUDED.default_permission_location,
			default_permission_matches=EXCLUDED.default_permission_matches,
			default_permission_scoresheets=EXCLUDED.default_permission_scoresheets
	`,
		setting.ID, setting.OwnerID, setting.FriendID,
		setting.AutoShareMatches, setting.ShareLocation, setting.SharePlayers,
		setting.AllowSharedGames, setting.AllowSharedPlayers, setting.AllowSharedLocation, setting.AllowSharedMatches, setting.AllowSharedScoresheets,
		setting.AutoAcceptGames, setting.AutoAcceptPlayers, setting.AutoAcceptLocation, setting.AutoAcceptMatches, setting.AutoAcceptScoresheets,
		setting.DefaultPermissionGames, setting.DefaultPermissionPlayers, setting.DefaultPermissionLocation, setting.DefaultPermissionMatches, setting.DefaultPermissionScoresheets,
	)
	if err != nil {
		return fmt.Errorf("upsert friend setting: %w", err)
	}
	return nil
}
