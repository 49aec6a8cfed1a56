package store

import (
	"context"
	"fmt"
)

const matchColumns = `id, owner_id, game_id, scoresheet_id, location_id, name, date, duration, running, finished, comment, created_at`

func scanMatch(scan func(...any) error) (Match, error) {
	var match Match
	err := scan(&match.ID, &match.OwnerID, &match.GameID, &match.ScoresheetID, &match.LocationID,
		&match.Name, &match.Date, &match.Duration, &match.Running, &match.Finished, &match.Comment, &match.CreatedAt)
	return match, err
}

func (s *PostgresStore) InsertMatch(ctx context.Context, match Match) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO matches (id, owner_id, game_id, scoresheet_id, location_id, name, date, duration, running, finished, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, match.ID, match.OwnerID, match.GameID, match.ScoresheetID, match.LocationID,
		match.Name, match.Date, match.Duration, match.Running, match.Finished, match.Comment)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetMatch(ctx context.Context, matchID string) (Match, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id=$1`, matchID)
	match, err := scanMatch(row.Scan)
	if err != nil {
		return Match{}, err
	}
	return match, nil
}

func (s *PostgresStore) ListMatchesByGame(ctx context.Context, gameID string) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+matchColumns+` FROM matches WHERE game_id=$1 ORDER BY date ASC
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list matches by game: %w", err)
	}
	defer rows.Close()

	items := make([]Match, 0)
	for rows.Next() {
		match, err := scanMatch(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		items = append(items, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) ListMatchesByPlayer(ctx context.Context, playerID string) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.owner_id, m.game_id, m.scoresheet_id, m.location_id, m.name, m.date, m.duration, m.running, m.finished, m.comment, m.created_at
		FROM matches m
		JOIN match_players mp ON mp.match_id = m.id
		WHERE mp.player_id=$1
		ORDER BY m.date ASC
	`, playerID)
	if err != nil {
		return nil, fmt.Errorf("list matches by player: %w", err)
	}
	defer rows.Close()

	items := make([]Match, 0)
	for rows.Next() {
		match, err := scanMatch(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		items = append(items, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpdateMatchState(ctx context.Context, matchID string, running, finished bool, duration int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE matches SET running=$2, finished=$3, duration=$4 WHERE id=$1
	`, matchID, running, finished, duration)
	if err != nil {
		return fmt.Errorf("update match state: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateMatchComment(ctx context.Context, matchID, comment string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE matches SET comment=$2 WHERE id=$1`, matchID, comment)
	if err != nil {
		return fmt.Errorf("update match comment: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertMatchPlayer(ctx context.Context, mp MatchPlayer) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO match_players (id, match_id, player_id, score, placement, winner, team_id, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, mp.ID, mp.MatchID, mp.PlayerID, mp.Score, mp.Placement, mp.Winner, mp.TeamID, mp.SortOrder)
	if err != nil {
		return fmt.Errorf("insert match player: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetMatchPlayer(ctx context.Context, matchPlayerID string) (MatchPlayer, error) {
	var mp MatchPlayer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, match_id, player_id, score, placement, winner, team_id, sort_order
		FROM match_players
		WHERE id=$1
	`, matchPlayerID).Scan(&mp.ID, &mp.MatchID, &mp.PlayerID, &mp.Score, &mp.Placement, &mp.Winner, &mp.TeamID, &mp.SortOrder)
	if err != nil {
		return MatchPlayer{}, err
	}
	return mp, nil
}

func (s *PostgresStore) ListMatchPlayers(ctx context.Context, matchID string) ([]MatchPlayer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, match_id, player_id, score, placement, winner, team_id, sort_order
		FROM match_players
		WHERE match_id=$1
		ORDER BY sort_order ASC
	`, matchID)
	if err != nil {
		return nil, fmt.Errorf("list match players: %w", err)
	}
	defer rows.Close()

	items := make([]MatchPlayer, 0)
	for rows.Next() {
		var mp MatchPlayer
		if err := rows.Scan(&mp.ID, &mp.MatchID, &mp.PlayerID, &mp.Score, &mp.Placement, &mp.Winner, &mp.TeamID, &mp.SortOrder); err != nil {
			return nil, fmt.Errorf("scan match player: %w", err)
		}
		items = append(items, mp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match players: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpdateMatchPlayerScore(ctx context.Context, matchPlayerID string, score int) error {
	_, err := s.db.ExecContext(ctx, `UPDATE match_players SET score=$2 WHERE id=$1`, matchPlayerID, score)
	if err != nil {
		return fmt.Errorf("update match player score: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateMatchPlayerResult(ctx context.Context, matchPlayerID string, placement *int, score int, winner bool) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE match_players SET placement=$2, score=$3, winner=$4 WHERE id=$1
	`, matchPlayerID, placement, score, winner)
	if err != nil {
		return fmt.Errorf("update match player result: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateMatchPlayerTeam(ctx context.Context, matchPlayerID string, teamID *int) error {
	_, err := s.db.ExecContext(ctx, `UPDATE match_players SET team_id=$2 WHERE id=$1`, matchPlayerID, teamID)
	if err != nil {
		return fmt.Errorf("update match player team: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertRoundPlayer(ctx context.Context, rp RoundPlayer) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO round_players (id, round_id, match_player_id, score)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (round_id, match_player_id) DO UPDATE SET score=EXCLUDED.score
	`, rp.ID, rp.RoundID, rp.MatchPlayerID, rp.Score)
	if err != nil {
		return fmt.Errorf("insert round player: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRoundPlayers(ctx context.Context, matchPlayerID string) ([]RoundPlayer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rp.id, rp.round_id, rp.match_player_id, rp.score
		FROM round_players rp
		JOIN rounds r ON r.id = rp.round_id
		WHERE rp.match_player_id=$1
		ORDER BY r.sort_order ASC
	`, matchPlayerID)
	if err != nil {
		return nil, fmt.Errorf("list round players: %w", err)
	}
	defer rows.Close()

	items := make([]RoundPlayer, 0)
	for rows.Next() {
		var rp RoundPlayer
		if err := rows.Scan(&rp.ID, &rp.RoundID, &rp.MatchPlayerID, &rp.Score); err != nil {
			return nil, fmt.Errorf("scan round player: %w", err)
		}
		items = append(items, rp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate round players: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertMatchPlayerRole(ctx context.Context, mpr MatchPlayerRole) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO match_player_roles (id, match_player_id, game_role_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (match_player_id, game_role_id) DO NOTHING
	`, mpr.ID, mpr.MatchPlayerID, mpr.GameRoleID)
	if err != nil {
		return fmt.Errorf("insert match player role: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListMatchPlayerRoles(ctx context.Context, matchPlayerID string) ([]MatchPlayerRole, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, match_player_id, game_role_id
		FROM match_player_roles
		WHERE match_player_id=$1
	`, matchPlayerID)
	if err != nil {
		return nil, fmt.Errorf("list match player roles: %w", err)
	}
	defer rows.Close()

	items := make([]MatchPlayerRole, 0)
	for rows.Next() {
		var mpr MatchPlayerRole
		if err := rows.Scan(&mpr.ID, &mpr.MatchPlayerID, &mpr.GameRoleID); err != nil {
			return nil, fmt.Errorf("scan match player role: %w", err)
		}
		items = append(items, mpr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match player roles: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) DeleteMatchPlayerRoles(ctx context.Context, matchPlayerID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM match_player_roles WHERE match_player_id=$1`, matchPlayerID)
	if err != nil {
		return fmt.Errorf("delete match player roles: %w", err)
	}
	return nil
}

// DeleteMatchPlayers removes a match's whole roster, including per-round
// scores, role assignments, and the seat mirrors referencing the roster rows.
// shared_match_players holds a foreign key on match_players, so the mirrors
// must go first; a following auto-share pass recreates them for the new
// roster. Callers run this inside WithTx.
func (s *PostgresStore) DeleteMatchPlayers(ctx context.Context, matchID string) error {
	statements := []string{
		`DELETE FROM shared_match_player_roles WHERE shared_match_player_id IN (
			SELECT smp.id FROM shared_match_players smp
			JOIN match_players mp ON mp.id = smp.match_player_id
			WHERE mp.match_id=$1)`,
		`DELETE FROM shared_match_players WHERE match_player_id IN (SELECT id FROM match_players WHERE match_id=$1)`,
		`DELETE FROM round_players WHERE match_player_id IN (SELECT id FROM match_players WHERE match_id=$1)`,
		`DELETE FROM match_player_roles WHERE match_player_id IN (SELECT id FROM match_players WHERE match_id=$1)`,
		`DELETE FROM match_players WHERE match_id=$1`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt, matchID); err != nil {
			return fmt.Errorf("delete match players: %w", err)
		}
	}
	return nil
}

// DeleteMatch removes a match, its roster, and any mirrors referencing it.
// Callers run this inside WithTx.
func (s *PostgresStore) DeleteMatch(ctx context.Context, matchID string) error {
	if err := s.DeleteMatchPlayers(ctx, matchID); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM shared_matches WHERE match_id=$1`, matchID); err != nil {
		return fmt.Errorf("delete match mirrors: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM matches WHERE id=$1`, matchID); err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	return nil
}
