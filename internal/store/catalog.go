package store

import (
	"context"
	"fmt"
)

func (s *PostgresStore) InsertGame(ctx context.Context, game Game) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO games (id, owner_id, name, year_published, description, rules, players_min, players_max, playtime_min, playtime_max)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, game.ID, game.OwnerID, game.Name, game.YearPublished, game.Description, game.Rules,
		game.PlayersMin, game.PlayersMax, game.PlaytimeMin, game.PlaytimeMax)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetGame(ctx context.Context, gameID string) (Game, error) {
	var game Game
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, year_published, description, rules, players_min, players_max, playtime_min, playtime_max, created_at
		FROM games
		WHERE id=$1
	`, gameID).Scan(&game.ID, &game.OwnerID, &game.Name, &game.YearPublished, &game.Description, &game.Rules,
		&game.PlayersMin, &game.PlayersMax, &game.PlaytimeMin, &game.PlaytimeMax, &game.CreatedAt)
	if err != nil {
		return Game{}, err
	}
	return game, nil
}

func (s *PostgresStore) ListGamesByOwner(ctx context.Context, ownerID string) ([]Game, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, year_published, description, rules, players_min, players_max, playtime_min, playtime_max, created_at
		FROM games
		WHERE owner_id=$1
		ORDER BY name ASC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	items := make([]Game, 0)
	for rows.Next() {
		var game Game
		if err := rows.Scan(&game.ID, &game.OwnerID, &game.Name, &game.YearPublished, &game.Description, &game.Rules,
			&game.PlayersMin, &game.PlayersMax, &game.PlaytimeMin, &game.PlaytimeMax, &game.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		items = append(items, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertPlayer(ctx context.Context, player Player) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (id, owner_id, name, is_user, linked_user_id)
		VALUES ($1, $2, $3, $4, $5)
	`, player.ID, player.OwnerID, player.Name, player.IsUser, player.LinkedUserID)
	if err != nil {
		return fmt.Errorf("insert player: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPlayer(ctx context.Context, playerID string) (Player, error) {
	var player Player
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, is_user, linked_user_id, created_at
		FROM players
		WHERE id=$1
	`, playerID).Scan(&player.ID, &player.OwnerID, &player.Name, &player.IsUser, &player.LinkedUserID, &player.CreatedAt)
	if err != nil {
		return Player{}, err
	}
	return player, nil
}

func (s *PostgresStore) ListPlayersByOwner(ctx context.Context, ownerID string) ([]Player, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, is_user, linked_user_id, created_at
		FROM players
		WHERE owner_id=$1
		ORDER BY name ASC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	items := make([]Player, 0)
	for rows.Next() {
		var player Player
		if err := rows.Scan(&player.ID, &player.OwnerID, &player.Name, &player.IsUser, &player.LinkedUserID, &player.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		items = append(items, player)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertLocation(ctx context.Context, location Location) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO locations (id, owner_id, name, is_default)
		VALUES ($1, $2, $3, $4)
	`, location.ID, location.OwnerID, location.Name, location.IsDefault)
	if err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetLocation(ctx context.Context, locationID string) (Location, error) {
	var location Location
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, is_default, created_at
		FROM locations
		WHERE id=$1
	`, locationID).Scan(&location.ID, &location.OwnerID, &location.Name, &location.IsDefault, &location.CreatedAt)
	if err != nil {
		return Location{}, err
	}
	return location, nil
}

func (s *PostgresStore) ListLocationsByOwner(ctx context.Context, ownerID string) ([]Location, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, is_default, created_at
		FROM locations
		WHERE owner_id=$1
		ORDER BY name ASC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	items := make([]Location, 0)
	for rows.Next() {
		var location Location
		if err := rows.Scan(&location.ID, &location.OwnerID, &location.Name, &location.IsDefault, &location.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		items = append(items, location)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locations: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertScoresheet(ctx context.Context, sheet Scoresheet) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scoresheets (id, owner_id, game_id, parent_id, name, type, win_condition, rounds_score, target_score, is_coop)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, sheet.ID, sheet.OwnerID, sheet.GameID, sheet.ParentID, sheet.Name, sheet.Type,
		sheet.WinCondition, sheet.RoundsScore, sheet.TargetScore, sheet.IsCoop)
	if err != nil {
		return fmt.Errorf("insert scoresheet: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetScoresheet(ctx context.Context, scoresheetID string) (Scoresheet, error) {
	var sheet Scoresheet
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, game_id, parent_id, name, type, win_condition, rounds_score, target_score, is_coop, created_at
		FROM scoresheets
		WHERE id=$1
	`, scoresheetID).Scan(&sheet.ID, &sheet.OwnerID, &sheet.GameID, &sheet.ParentID, &sheet.Name, &sheet.Type,
		&sheet.WinCondition, &sheet.RoundsScore, &sheet.TargetScore, &sheet.IsCoop, &sheet.CreatedAt)
	if err != nil {
		return Scoresheet{}, err
	}
	return sheet, nil
}

// ListGameScoresheets returns a game's reusable sheets (game and default
// types), skipping the per-match snapshots.
func (s *PostgresStore) ListGameScoresheets(ctx context.Context, gameID string) ([]Scoresheet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, game_id, parent_id, name, type, win_condition, rounds_score, target_score, is_coop, created_at
		FROM scoresheets
		WHERE game_id=$1 AND type IN ('game', 'default')
		ORDER BY created_at ASC
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list game scoresheets: %w", err)
	}
	defer rows.Close()

	items := make([]Scoresheet, 0)
	for rows.Next() {
		var sheet Scoresheet
		if err := rows.Scan(&sheet.ID, &sheet.OwnerID, &sheet.GameID, &sheet.ParentID, &sheet.Name, &sheet.Type,
			&sheet.WinCondition, &sheet.RoundsScore, &sheet.TargetScore, &sheet.IsCoop, &sheet.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan scoresheet: %w", err)
		}
		items = append(items, sheet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scoresheets: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertRound(ctx context.Context, round Round) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rounds (id, scoresheet_id, name, type, score, sort_order, color)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, round.ID, round.ScoresheetID, round.Name, round.Type, round.Score, round.SortOrder, round.Color)
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRounds(ctx context.Context, scoresheetID string) ([]Round, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scoresheet_id, name, type, score, sort_order, color
		FROM rounds
		WHERE scoresheet_id=$1
		ORDER BY sort_order ASC
	`, scoresheetID)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	defer rows.Close()

	items := make([]Round, 0)
	for rows.Next() {
		var round Round
		if err := rows.Scan(&round.ID, &round.ScoresheetID, &round.Name, &round.Type, &round.Score, &round.SortOrder, &round.Color); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		items = append(items, round)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rounds: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertGameRole(ctx context.Context, role GameRole) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO game_roles (id, owner_id, game_id, name, description)
		VALUES ($1, $2, $3, $4, $5)
	`, role.ID, role.OwnerID, role.GameID, role.Name, role.Description)
	if err != nil {
		return fmt.Errorf("insert game role: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetGameRole(ctx context.Context, roleID string) (GameRole, error) {
	var role GameRole
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, game_id, name, description
		FROM game_roles
		WHERE id=$1
	`, roleID).Scan(&role.ID, &role.OwnerID, &role.GameID, &role.Name, &role.Description)
	if err != nil {
		return GameRole{}, err
	}
	return role, nil
}

func (s *PostgresStore) ListGameRoles(ctx context.Context, gameID string) ([]GameRole, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, game_id, name, description
		FROM game_roles
		WHERE game_id=$1
		ORDER BY name ASC
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list game roles: %w", err)
	}
	defer rows.Close()

	items := make([]GameRole, 0)
	for rows.Next() {
		var role GameRole
		if err := rows.Scan(&role.ID, &role.OwnerID, &role.GameID, &role.Name, &role.Description); err != nil {
			return nil, fmt.Errorf("scan game role: %w", err)
		}
		items = append(items, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate game roles: %w", err)
	}
	return items, nil
}
