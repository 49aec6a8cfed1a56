package store

import (
	"context"
	"fmt"
)

const shareRequestColumns = `id, owner_id, shared_with_id, item_type, item_id, parent_share_id, permission, status, created_at, expires_at`

func scanShareRequest(scan func(...any) error) (ShareRequest, error) {
	var req ShareRequest
	err := scan(&req.ID, &req.OwnerID, &req.SharedWithID, &req.ItemType, &req.ItemID,
		&req.ParentShareID, &req.Permission, &req.Status, &req.CreatedAt, &req.ExpiresAt)
	return req, err
}

func (s *PostgresStore) InsertShareRequest(ctx context.Context, req ShareRequest) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO share_requests (id, owner_id, shared_with_id, item_type, item_id, parent_share_id, permission, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, req.ID, req.OwnerID, req.SharedWithID, req.ItemType, req.ItemID, req.ParentShareID, req.Permission, req.Status, req.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert share request: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetShareRequest(ctx context.Context, requestID string) (ShareRequest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+shareRequestColumns+` FROM share_requests WHERE id=$1
	`, requestID)
	req, err := scanShareRequest(row.Scan)
	if err != nil {
		return ShareRequest{}, err
	}
	return req, nil
}

// ListChildShareRequests returns a request's direct children in creation
// order. The seq tiebreak matters because created_at is NOW() for every row
// written inside the same transaction.
func (s *PostgresStore) ListChildShareRequests(ctx context.Context, parentID string) ([]ShareRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+shareRequestColumns+`
		FROM share_requests
		WHERE parent_share_id=$1
		ORDER BY created_at ASC, seq ASC
	`, parentID)
	if err != nil {
		return nil, fmt.Errorf("list child share requests: %w", err)
	}
	defer rows.Close()

	items := make([]ShareRequest, 0)
	for rows.Next() {
		req, err := scanShareRequest(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan share request: %w", err)
		}
		items = append(items, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate share requests: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) ListShareRequestsForRecipient(ctx context.Context, sharedWithID, status string) ([]ShareRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+shareRequestColumns+`
		FROM share_requests
		WHERE shared_with_id=$1 AND status=$2 AND parent_share_id IS NULL
		ORDER BY created_at DESC, seq DESC
	`, sharedWithID, status)
	if err != nil {
		return nil, fmt.Errorf("list share requests: %w", err)
	}
	defer rows.Close()

	items := make([]ShareRequest, 0)
	for rows.Next() {
		req, err := scanShareRequest(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan share request: %w", err)
		}
		items = append(items, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate share requests: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpdateShareRequestStatus(ctx context.Context, requestID, status string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE share_requests SET status=$2 WHERE id=$1`, requestID, status)
	if err != nil {
		return fmt.Errorf("update share request status: %w", err)
	}
	return nil
}

// LatestShareRequestForItem finds the newest request for one item between two
// users, regardless of status. sql.ErrNoRows means nothing was ever requested.
func (s *PostgresStore) LatestShareRequestForItem(ctx context.Context, ownerID, sharedWithID, itemType, itemID string) (ShareRequest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+shareRequestColumns+`
		FROM share_requests
		WHERE owner_id=$1 AND shared_with_id=$2 AND item_type=$3 AND item_id=$4
		ORDER BY created_at DESC, seq DESC
		LIMIT 1
	`, ownerID, sharedWithID, itemType, itemID)
	req, err := scanShareRequest(row.Scan)
	if err != nil {
		return ShareRequest{}, err
	}
	return req, nil
}

// FindOpenShareRequest finds the newest pending or accepted request for one
// item between two users. sql.ErrNoRows means none is open; a rejected
// request does not block a re-share.
func (s *PostgresStore) FindOpenShareRequest(ctx context.Context, ownerID, sharedWithID, itemType, itemID string) (ShareRequest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+shareRequestColumns+`
		FROM share_requests
		WHERE owner_id=$1 AND shared_with_id=$2 AND item_type=$3 AND item_id=$4 AND status <> 'rejected'
		ORDER BY created_at DESC, seq DESC
		LIMIT 1
	`, ownerID, sharedWithID, itemType, itemID)
	req, err := scanShareRequest(row.Scan)
	if err != nil {
		return ShareRequest{}, err
	}
	return req, nil
}

func (s *PostgresStore) HasAcceptedShareRequest(ctx context.Context, ownerID, sharedWithID, itemType, itemID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM share_requests
			WHERE owner_id=$1 AND shared_with_id=$2 AND item_type=$3 AND item_id=$4 AND status='accepted'
		)
	`, ownerID, sharedWithID, itemType, itemID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check accepted share: %w", err)
	}
	return exists, nil
}

// Mirror inserts rely on the UNIQUE (owner, recipient, source) constraints.
// A conflict means an earlier acceptance already materialized the mirror, so
// each insert reselects and returns the canonical row either way.

func (s *PostgresStore) InsertSharedGame(ctx context.Context, sg SharedGame) (SharedGame, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shared_games (id, owner_id, shared_with_id, game_id, linked_game_id, permission)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner_id, shared_with_id, game_id) DO NOTHING
	`, sg.ID, sg.OwnerID, sg.SharedWithID, sg.GameID, sg.LinkedGameID, sg.Permission)
	if err != nil {
		return SharedGame{}, fmt.Errorf("insert shared game: %w", err)
	}
	return s.GetSharedGame(ctx, sg.OwnerID, sg.SharedWithID, sg.GameID)
}

func (s *PostgresStore) GetSharedGame(ctx context.Context, ownerID, sharedWithID, gameID string) (SharedGame, error) {
	var sg SharedGame
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, shared_with_id, game_id, linked_game_id, permission
		FROM shared_games
		WHERE owner_id=$1 AND shared_with_id=$2 AND game_id=$3
	`, ownerID, sharedWithID, gameID).Scan(&sg.ID, &sg.OwnerID, &sg.SharedWithID, &sg.GameID, &sg.LinkedGameID, &sg.Permission)
	if err != nil {
		return SharedGame{}, err
	}
	return sg, nil
}

func (s *PostgresStore) GetSharedGameForUser(ctx context.Context, gameID, userID string) (SharedGame, error) {
	var sg SharedGame
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, shared_with_id, game_id, linked_game_id, permission
		FROM shared_games
		WHERE game_id=$1 AND shared_with_id=$2
	`, gameID, userID).Scan(&sg.ID, &sg.OwnerID, &sg.SharedWithID, &sg.GameID, &sg.LinkedGameID, &sg.Permission)
	if err != nil {
		return SharedGame{}, err
	}
	return sg, nil
}

func (s *PostgresStore) SetSharedGameLink(ctx context.Context, sharedGameID string, linkedGameID *string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE shared_games SET linked_game_id=$2 WHERE id=$1`, sharedGameID, linkedGameID)
	if err != nil {
		return fmt.Errorf("set shared game link: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertSharedPlayer(ctx context.Context, sp SharedPlayer) (SharedPlayer, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shared_players (id, owner_id, shared_with_id, player_id, linked_player_id, permission)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner_id, shared_with_id, player_id) DO NOTHING
	`, sp.ID, sp.OwnerID, sp.SharedWithID, sp.PlayerID, sp.LinkedPlayerID, sp.Permission)
	if err != nil {
		return SharedPlayer{}, fmt.Errorf("insert shared player: %w", err)
	}
	return s.GetSharedPlayer(ctx, sp.OwnerID, sp.SharedWithID, sp.PlayerID)
}

func (s *PostgresStore) GetSharedPlayer(ctx context.Context, ownerID, sharedWithID, playerID string) (SharedPlayer, error) {
	var sp SharedPlayer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, shared_with_id, player_id, linked_player_id, permission
		FROM shared_players
		WHERE owner_id=$1 AND shared_with_id=$2 AND player_id=$3
	`, ownerID, sharedWithID, playerID).Scan(&sp.ID, &sp.OwnerID, &sp.SharedWithID, &sp.PlayerID, &sp.LinkedPlayerID, &sp.Permission)
	if err != nil {
		return SharedPlayer{}, err
	}
	return sp, nil
}

func (s *PostgresStore) GetSharedPlayerForUser(ctx context.Context, playerID, userID string) (SharedPlayer, error) {
	var sp SharedPlayer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, shared_with_id, player_id, linked_player_id, permission
		FROM shared_players
		WHERE player_id=$1 AND shared_with_id=$2
	`, playerID, userID).Scan(&sp.ID, &sp.OwnerID, &sp.SharedWithID, &sp.PlayerID, &sp.LinkedPlayerID, &sp.Permission)
	if err != nil {
		return SharedPlayer{}, err
	}
	return sp, nil
}

func (s *PostgresStore) SetSharedPlayerLink(ctx context.Context, sharedPlayerID string, linkedPlayerID *string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE shared_players SET linked_player_id=$2 WHERE id=$1`, sharedPlayerID, linkedPlayerID)
	if err != nil {
		return fmt.Errorf("set shared player link: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertSharedLocation(ctx context.Context, sl SharedLocation) (SharedLocation, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shared_locations (id, owner_id, shared_with_id, location_id, linked_location_id, permission)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner_id, shared_with_id, location_id) DO NOTHING
	`, sl.ID, sl.OwnerID, sl.SharedWithID, sl.LocationID, sl.LinkedLocationID, sl.Permission)
	if err != nil {
		return SharedLocation{}, fmt.Errorf("insert shared location: %w", err)
	}
	return s.GetSharedLocation(ctx, sl.OwnerID, sl.SharedWithID, sl.LocationID)
}

func (s *PostgresStore) GetSharedLocation(ctx context.Context, ownerID, sharedWithID, locationID string) (SharedLocation, error) {
	var sl SharedLocation
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, shared_with_id, location_id, linked_location_id, permission
		FROM shared_locations
		WHERE owner_id=$1 AND shared_with_id=$2 AND location_id=$3
	`, ownerID, sharedWithID, locationID).Scan(&sl.ID, &sl.OwnerID, &sl.SharedWithID, &sl.LocationID, &sl.LinkedLocationID, &sl.Permission)
	if err != nil {
		return SharedLocation{}, err
	}
	return sl, nil
}

func (s *PostgresStore) GetSharedLocationForUser(ctx context.Context, locationID, userID string) (SharedLocation, error) {
	var sl SharedLocation
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, shared_with_id, location_id, linked_location_id, permission
		FROM shared_locations
		WHERE location_id=$1 AND shared_with_id=$2
	`, locationID, userID).Scan(&sl.ID, &sl.OwnerID, &sl.SharedWithID, &sl.LocationID, &sl.LinkedLocationID, &sl.Permission)
	if err != nil {
		return SharedLocation{}, err
	}
	return sl, nil
}

func (s *PostgresStore) SetSharedLocationLink(ctx context.Context, sharedLocationID string, linkedLocationID *string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE shared_locations SET linked_location_id=$2 WHERE id=$1`, sharedLocationID, linkedLocationID)
	if err != nil {
		return fmt.Errorf("set shared location link: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertSharedScoresheet(ctx context.Context, ss SharedScoresheet) (SharedScoresheet, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shared_scoresheets (id, owner_id, shared_with_id, scoresheet_id, linked_scoresheet_id, shared_game_id, permission)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (owner_id, shared_with_id, scoresheet_id) DO NOTHING
	`, ss.ID, ss.OwnerID, ss.SharedWithID, ss.ScoresheetID, ss.LinkedScoresheetID, ss.SharedGameID, ss.Permission)
	if err != nil {
		return SharedScoresheet{}, fmt.Errorf("insert shared scoresheet: %w", err)
	}
	return s.GetSharedScoresheet(ctx, ss.OwnerID, ss.SharedWithID, ss.ScoresheetID)
}

func (s *PostgresStore) GetSharedScoresheet(ctx context.Context, ownerID, sharedWithID, scoresheetID string) (SharedScoresheet, error) {
	var ss SharedScoresheet
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, shared_with_id, scoresheet_id, linked_scoresheet_id, shared_game_id, permission
		FROM shared_scoresheets
		WHERE owner_id=$1 AND shared_with_id=$2 AND scoresheet_id=$3
	`, ownerID, sharedWithID, scoresheetID).Scan(&ss.ID, &ss.OwnerID, &ss.SharedWithID, &ss.ScoresheetID, &ss.LinkedScoresheetID, &ss.SharedGameID, &ss.Permission)
	if err != nil {
		return SharedScoresheet{}, err
	}
	return ss, nil
}

func (s *PostgresStore) SetSharedScoresheetLink(ctx context.Context, sharedScoresheetID string, linkedScoresheetID *string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE shared_scoresheets SET linked_scoresheet_id=$2 WHERE id=$1`, sharedScoresheetID, linkedScoresheetID)
	if err != nil {
		return fmt.Errorf("set shared scoresheet link: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertSharedRound(ctx context.Context, sr SharedRound) (SharedRound, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shared_rounds (id, owner_id, shared_with_id, round_id, linked_round_id, shared_scoresheet_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner_id, shared_with_id, round_id) DO NOTHING
	`, sr.ID, sr.OwnerID, sr.SharedWithID, sr.RoundID, sr.LinkedRoundID, sr.SharedScoresheetID)
	if err != nil {
		return SharedRound{}, fmt.Errorf("insert shared round: %w", err)
	}
	var out SharedRound
	err = s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, shared_with_id, round_id, linked_round_id, shared_scoresheet_id
		FROM shared_rounds
		WHERE owner_id=$1 AND shared_with_id=$2 AND round_id=$3
	`, sr.OwnerID, sr.SharedWithID, sr.RoundID).Scan(&out.ID, &out.OwnerID, &out.SharedWithID, &out.RoundID, &out.LinkedRoundID, &out.SharedScoresheetID)
	if err != nil {
		return SharedRound{}, err
	}
	return out, nil
}

func (s *PostgresStore) ListSharedRounds(ctx context.Context, sharedScoresheetID string) ([]SharedRound, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, shared_with_id, round_id, linked_round_id, shared_scoresheet_id
		FROM shared_rounds
		WHERE shared_scoresheet_id=$1
	`, sharedScoresheetID)
	if err != nil {
		return nil, fmt.Errorf("list shared rounds: %w", err)
	}
	defer rows.Close()

	items := make([]SharedRound, 0)
	for rows.Next() {
		var sr SharedRound
		if err := rows.Scan(&sr.ID, &sr.OwnerID, &sr.SharedWithID, &sr.RoundID, &sr.LinkedRoundID, &sr.SharedScoresheetID); err != nil {
			return nil, fmt.Errorf("scan shared round: %w", err)
		}
		items = append(items, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shared rounds: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertSharedGameRole(ctx context.Context, sgr SharedGameRole) (SharedGameRole, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shared_game_roles (id, owner_id, shared_with_id, game_role_id, linked_game_role_id, shared_game_id, permission)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (owner_id, shared_with_id, game_role_id) DO NOTHING
	`, sgr.ID, sgr.OwnerID, sgr.SharedWithID, sgr.GameRoleID, sgr.LinkedGameRoleID, sgr.SharedGameID, sgr.Permission)
	if err != nil {
		return SharedGameRole{}, fmt.Errorf("insert shared game role: %w", err)
	}
	return s.GetSharedGameRole(ctx, sgr.OwnerID, sgr.SharedWithID, sgr.GameRoleID)
}

func (s *PostgresStore) GetSharedGameRole(ctx context.Context, ownerID, sharedWithID, gameRoleID string) (SharedGameRole, error) {
	var sgr SharedGameRole
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, shared_with_id, game_role_id, linked_game_role_id, shared_game_id, permission
		FROM shared_game_roles
		WHERE owner_id=$1 AND shared_with_id=$2 AND game_role_id=$3
	`, ownerID, sharedWithID, gameRoleID).Scan(&sgr.ID, &sgr.OwnerID, &sgr.SharedWithID, &sgr.GameRoleID, &sgr.LinkedGameRoleID, &sgr.SharedGameID, &sgr.Permission)
	if err != nil {
		return SharedGameRole{}, err
	}
	return sgr, nil
}

func (s *PostgresStore) SetSharedGameRoleLink(ctx context.Context, sharedGameRoleID string, linkedGameRoleID *string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE shared_game_roles SET linked_game_role_id=$2 WHERE id=$1`, sharedGameRoleID, linkedGameRoleID)
	if err != nil {
		return fmt.Errorf("set shared game role link: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertSharedMatch(ctx context.Context, sm SharedMatch) (SharedMatch, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shared_matches (id, owner_id, shared_with_id, match_id, shared_game_id, shared_scoresheet_id, shared_location_id, permission)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (owner_id, shared_with_id, match_id) DO NOTHING
	`, sm.ID, sm.OwnerID, sm.SharedWithID, sm.MatchID, sm.SharedGameID, sm.SharedScoresheetID, sm.SharedLocationID, sm.Permission)
	if err != nil {
		return SharedMatch{}, fmt.Errorf("insert shared match: %w", err)
	}
	return s.GetSharedMatch(ctx, sm.OwnerID, sm.SharedWithID, sm.MatchID)
}

func (s *PostgresStore) GetSharedMatch(ctx context.Context, ownerID, sharedWithID, matchID string) (SharedMatch, error) {
	var sm SharedMatch
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, shared_with_id, match_id, shared_game_id, shared_scoresheet_id, shared_location_id, permission
		FROM shared_matches
		WHERE owner_id=$1 AND shared_with_id=$2 AND match_id=$3
	`, ownerID, sharedWithID, matchID).Scan(&sm.ID, &sm.OwnerID, &sm.SharedWithID, &sm.MatchID, &sm.SharedGameID, &sm.SharedScoresheetID, &sm.SharedLocationID, &sm.Permission)
	if err != nil {
		return SharedMatch{}, err
	}
	return sm, nil
}

// GetSharedMatchForUser resolves a recipient's grant on a match they do not
// own. sql.ErrNoRows is the unrelated-user case and must surface as not
// found, never as forbidden.
func (s *PostgresStore) GetSharedMatchForUser(ctx context.Context, matchID, userID string) (SharedMatch, error) {
	var sm SharedMatch
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, shared_with_id, match_id, shared_game_id, shared_scoresheet_id, shared_location_id, permission
		FROM shared_matches
		WHERE match_id=$1 AND shared_with_id=$2
	`, matchID, userID).Scan(&sm.ID, &sm.OwnerID, &sm.SharedWithID, &sm.MatchID, &sm.SharedGameID, &sm.SharedScoresheetID, &sm.SharedLocationID, &sm.Permission)
	if err != nil {
		return SharedMatch{}, err
	}
	return sm, nil
}

// MatchHasMirrors reports whether any recipient has been granted access to
// the match. Roster edits on such matches re-derive placements so every
// grant keeps seeing consistent results.
func (s *PostgresStore) MatchHasMirrors(ctx context.Context, matchID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM shared_matches WHERE match_id=$1)
	`, matchID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("match has mirrors: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) ListSharedMatchesForUser(ctx context.Context, userID string) ([]SharedMatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, shared_with_id, match_id, shared_game_id, shared_scoresheet_id, shared_location_id, permission
		FROM shared_matches
		WHERE shared_with_id=$1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list shared matches: %w", err)
	}
	defer rows.Close()

	items := make([]SharedMatch, 0)
	for rows.Next() {
		var sm SharedMatch
		if err := rows.Scan(&sm.ID, &sm.OwnerID, &sm.SharedWithID, &sm.MatchID, &sm.SharedGameID, &sm.SharedScoresheetID, &sm.SharedLocationID, &sm.Permission); err != nil {
			return nil, fmt.Errorf("scan shared match: %w", err)
		}
		items = append(items, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shared matches: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertSharedMatchPlayer(ctx context.Context, smp SharedMatchPlayer) (SharedMatchPlayer, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shared_match_players (id, owner_id, shared_with_id, match_player_id, shared_match_id, shared_player_id, permission)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (owner_id, shared_with_id, match_player_id) DO NOTHING
	`, smp.ID, smp.OwnerID, smp.SharedWithID, smp.MatchPlayerID, smp.SharedMatchID, smp.SharedPlayerID, smp.Permission)
	if err != nil {
		return SharedMatchPlayer{}, fmt.Errorf("insert shared match player: %w", err)
	}
	var out SharedMatchPlayer
	err = s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, shared_with_id, match_player_id, shared_match_id, shared_player_id, permission
		FROM shared_match_players
		WHERE owner_id=$1 AND shared_with_id=$2 AND match_player_id=$3
	`, smp.OwnerID, smp.SharedWithID, smp.MatchPlayerID).Scan(&out.ID, &out.OwnerID, &out.SharedWithID, &out.MatchPlayerID, &out.SharedMatchID, &out.SharedPlayerID, &out.Permission)
	if err != nil {
		return SharedMatchPlayer{}, err
	}
	return out, nil
}

func (s *PostgresStore) ListSharedMatchPlayers(ctx context.Context, sharedMatchID string) ([]SharedMatchPlayer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, shared_with_id, match_player_id, shared_match_id, shared_player_id, permission
		FROM shared_match_players
		WHERE shared_match_id=$1
	`, sharedMatchID)
	if err != nil {
		return nil, fmt.Errorf("list shared match players: %w", err)
	}
	defer rows.Close()

	items := make([]SharedMatchPlayer, 0)
	for rows.Next() {
		var smp SharedMatchPlayer
		if err := rows.Scan(&smp.ID, &smp.OwnerID, &smp.SharedWithID, &smp.MatchPlayerID, &smp.SharedMatchID, &smp.SharedPlayerID, &smp.Permission); err != nil {
			return nil, fmt.Errorf("scan shared match player: %w", err)
		}
		items = append(items, smp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shared match players: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertSharedMatchPlayerRole(ctx context.Context, smpr SharedMatchPlayerRole) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shared_match_player_roles (id, shared_match_player_id, game_role_id, shared_game_role_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (shared_match_player_id, game_role_id) DO NOTHING
	`, smpr.ID, smpr.SharedMatchPlayerID, smpr.GameRoleID, smpr.SharedGameRoleID)
	if err != nil {
		return fmt.Errorf("insert shared match player role: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListSharedMatchPlayerRoles(ctx context.Context, sharedMatchPlayerID string) ([]SharedMatchPlayerRole, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, shared_match_player_id, game_role_id, shared_game_role_id
		FROM shared_match_player_roles
		WHERE shared_match_player_id=$1
	`, sharedMatchPlayerID)
	if err != nil {
		return nil, fmt.Errorf("list shared match player roles: %w", err)
	}
	defer rows.Close()

	items := make([]SharedMatchPlayerRole, 0)
	for rows.Next() {
		var smpr SharedMatchPlayerRole
		if err := rows.Scan(&smpr.ID, &smpr.SharedMatchPlayerID, &smpr.GameRoleID, &smpr.SharedGameRoleID); err != nil {
			return nil, fmt.Errorf("scan shared match player role: %w", err)
		}
		items = append(items, smpr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shared match player roles: %w", err)
	}
	return items, nil
}
