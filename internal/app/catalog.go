package app

import (
	"context"
	"database/sql"
	"net/http"
	"strings"

	"scorekeep/api/internal/search"
	"scorekeep/api/internal/store"
	"scorekeep/api/internal/util"
)

type GameInput struct {
	Name          string `json:"name"`
	YearPublished *int   `json:"yearPublished"`
	Description   string `json:"description"`
	Rules         string `json:"rules"`
	PlayersMin    *int   `json:"playersMin"`
	PlayersMax    *int   `json:"playersMax"`
	PlaytimeMin   *int   `json:"playtimeMin"`
	PlaytimeMax   *int   `json:"playtimeMax"`
}

func (s *Service) CreateGame(ctx context.Context, callerID string, input GameInput) (GamePayload, error) {
	if strings.TrimSpace(input.Name) == "" {
		return GamePayload{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	game := store.Game{
		ID:            util.NewID("game"),
		OwnerID:       callerID,
		Name:          strings.TrimSpace(input.Name),
		YearPublished: input.YearPublished,
		Description:   input.Description,
		Rules:         input.Rules,
		PlayersMin:    input.PlayersMin,
		PlayersMax:    input.PlayersMax,
		PlaytimeMin:   input.PlaytimeMin,
		PlaytimeMax:   input.PlaytimeMax,
	}
	if err := s.store.InsertGame(ctx, game); err != nil {
		return GamePayload{}, err
	}
	s.search.IndexGame(search.GameRecord{
		ID:          game.ID,
		Name:        game.Name,
		Description: game.Description,
		OwnerID:     game.OwnerID,
	})
	created, err := s.store.GetGame(ctx, game.ID)
	if err != nil {
		return GamePayload{}, err
	}
	return gamePayload(created), nil
}

func (s *Service) GetGame(ctx context.Context, callerID, gameID string) (GamePayload, error) {
	game, err := s.engine.AuthorizeGameRead(ctx, callerID, gameID)
	if err != nil {
		return GamePayload{}, mapShareError(err)
	}
	return gamePayload(game), nil
}

func (s *Service) ListMyGames(ctx context.Context, callerID string) ([]GamePayload, error) {
	games, err := s.store.ListGamesByOwner(ctx, callerID)
	if err != nil {
		return nil, err
	}
	payloads := make([]GamePayload, 0, len(games))
	for _, game := range games {
		payloads = append(payloads, gamePayload(game))
	}
	return payloads, nil
}

func (s *Service) ListGameMatches(ctx context.Context, callerID, gameID string) ([]MatchPayload, error) {
	if _, err := s.engine.AuthorizeGameRead(ctx, callerID, gameID); err != nil {
		return nil, mapShareError(err)
	}
	matches, err := s.store.ListMatchesByGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	payloads := make([]MatchPayload, 0, len(matches))
	for _, match := range matches {
		payloads = append(payloads, matchPayload(match))
	}
	return payloads, nil
}

type PlayerInput struct {
	Name         string  `json:"name"`
	LinkedUserID *string `json:"linkedUserId"`
}

func (s *Service) CreatePlayer(ctx context.Context, callerID string, input PlayerInput) (PlayerPayload, error) {
	if strings.TrimSpace(input.Name) == "" {
		return PlayerPayload{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	if input.LinkedUserID != nil {
		if _, err := s.store.GetUserByID(ctx, *input.LinkedUserID); err != nil {
			return PlayerPayload{}, err
		}
	}
	player := store.Player{
		ID:           util.NewID("player"),
		OwnerID:      callerID,
		Name:         strings.TrimSpace(input.Name),
		IsUser:       input.LinkedUserID != nil,
		LinkedUserID: input.LinkedUserID,
	}
	if err := s.store.InsertPlayer(ctx, player); err != nil {
		return PlayerPayload{}, err
	}
	s.search.IndexPlayer(search.PlayerRecord{ID: player.ID, Name: player.Name, OwnerID: player.OwnerID})
	created, err := s.store.GetPlayer(ctx, player.ID)
	if err != nil {
		return PlayerPayload{}, err
	}
	return playerPayload(created), nil
}

func (s *Service) GetPlayer(ctx context.Context, callerID, playerID string) (PlayerPayload, error) {
	player, err := s.engine.AuthorizePlayerRead(ctx, callerID, playerID)
	if err != nil {
		return PlayerPayload{}, mapShareError(err)
	}
	return playerPayload(player), nil
}

func (s *Service) ListMyPlayers(ctx context.Context, callerID string) ([]PlayerPayload, error) {
	players, err := s.store.ListPlayersByOwner(ctx, callerID)
	if err != nil {
		return nil, err
	}
	payloads := make([]PlayerPayload, 0, len(players))
	for _, player := range players {
		payloads = append(payloads, playerPayload(player))
	}
	return payloads, nil
}

type LocationInput struct {
	Name      string `json:"name"`
	IsDefault bool   `json:"isDefault"`
}

func (s *Service) CreateLocation(ctx context.Context, callerID string, input LocationInput) (LocationPayload, error) {
	if strings.TrimSpace(input.Name) == "" {
		return LocationPayload{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	location := store.Location{
		ID:        util.NewID("loc"),
		OwnerID:   callerID,
		Name:      strings.TrimSpace(input.Name),
		IsDefault: input.IsDefault,
	}
	if err := s.store.InsertLocation(ctx, location); err != nil {
		return LocationPayload{}, err
	}
	s.search.IndexLocation(search.LocationRecord{ID: location.ID, Name: location.Name, OwnerID: location.OwnerID})
	created, err := s.store.GetLocation(ctx, location.ID)
	if err != nil {
		return LocationPayload{}, err
	}
	return locationPayload(created), nil
}

func (s *Service) GetLocation(ctx context.Context, callerID, locationID string) (LocationPayload, error) {
	location, err := s.engine.AuthorizeLocationRead(ctx, callerID, locationID)
	if err != nil {
		return LocationPayload{}, mapShareError(err)
	}
	return locationPayload(location), nil
}

func (s *Service) ListMyLocations(ctx context.Context, callerID string) ([]LocationPayload, error) {
	locations, err := s.store.ListLocationsByOwner(ctx, callerID)
	if err != nil {
		return nil, err
	}
	payloads := make([]LocationPayload, 0, len(locations))
	for _, location := range locations {
		payloads = append(payloads, locationPayload(location))
	}
	return payloads, nil
}

type RoundInput struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Score     int    `json:"score"`
	SortOrder int    `json:"sortOrder"`
	Color     string `json:"color"`
}

type ScoresheetInput struct {
	GameID       string       `json:"gameId"`
	Name         string       `json:"name"`
	Type         string       `json:"type"`
	WinCondition string       `json:"winCondition"`
	RoundsScore  string       `json:"roundsScore"`
	TargetScore  *int         `json:"targetScore"`
	IsCoop       bool         `json:"isCoop"`
	Rounds       []RoundInput `json:"rounds"`
}

func (s *Service) CreateScoresheet(ctx context.Context, callerID string, input ScoresheetInput) (ScoresheetPayload, error) {
	if strings.TrimSpace(input.Name) == "" {
		return ScoresheetPayload{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	sheetType := input.Type
	if sheetType == "" {
		sheetType = "default"
	}
	sheet := store.Scoresheet{
		ID:           util.NewID("sheet"),
		OwnerID:      callerID,
		GameID:       input.GameID,
		Name:         strings.TrimSpace(input.Name),
		Type:         sheetType,
		WinCondition: input.WinCondition,
		RoundsScore:  input.RoundsScore,
		TargetScore:  input.TargetScore,
		IsCoop:       input.IsCoop,
	}
	err := s.store.WithTx(ctx, func(tx *store.PostgresStore) error {
		game, err := tx.GetGame(ctx, input.GameID)
		if err != nil {
			return err
		}
		if game.OwnerID != callerID {
			return sql.ErrNoRows
		}
		if err := tx.InsertScoresheet(ctx, sheet); err != nil {
			return err
		}
		for i, round := range input.Rounds {
			sortOrder := round.SortOrder
			if sortOrder == 0 {
				sortOrder = i
			}
			if err := tx.InsertRound(ctx, store.Round{
				ID:           util.NewID("round"),
				ScoresheetID: sheet.ID,
				Name:         round.Name,
				Type:         round.Type,
				Score:        round.Score,
				SortOrder:    sortOrder,
				Color:        round.Color,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ScoresheetPayload{}, err
	}
	return s.GetScoresheet(ctx, callerID, sheet.ID)
}

func (s *Service) GetScoresheet(ctx context.Context, callerID, scoresheetID string) (ScoresheetPayload, error) {
	sheet, err := s.store.GetScoresheet(ctx, scoresheetID)
	if err != nil {
		return ScoresheetPayload{}, err
	}
	if sheet.OwnerID != callerID {
		return ScoresheetPayload{}, sql.ErrNoRows
	}
	rounds, err := s.store.ListRounds(ctx, scoresheetID)
	if err != nil {
		return ScoresheetPayload{}, err
	}
	return scoresheetPayload(sheet, rounds), nil
}

func (s *Service) ListGameScoresheets(ctx context.Context, callerID, gameID string) ([]ScoresheetPayload, error) {
	if _, err := s.engine.AuthorizeGameRead(ctx, callerID, gameID); err != nil {
		return nil, mapShareError(err)
	}
	sheets, err := s.store.ListGameScoresheets(ctx, gameID)
	if err != nil {
		return nil, err
	}
	payloads := make([]ScoresheetPayload, 0, len(sheets))
	for _, sheet := range sheets {
		rounds, err := s.store.ListRounds(ctx, sheet.ID)
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, scoresheetPayload(sheet, rounds))
	}
	return payloads, nil
}

type GameRoleInput struct {
	GameID      string `json:"gameId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Service) CreateGameRole(ctx context.Context, callerID string, input GameRoleInput) (GameRolePayload, error) {
	if strings.TrimSpace(input.Name) == "" {
		return GameRolePayload{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	game, err := s.store.GetGame(ctx, input.GameID)
	if err != nil {
		return GameRolePayload{}, err
	}
	if game.OwnerID != callerID {
		return GameRolePayload{}, sql.ErrNoRows
	}
	role := store.GameRole{
		ID:          util.NewID("role"),
		OwnerID:     callerID,
		GameID:      input.GameID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
	}
	if err := s.store.InsertGameRole(ctx, role); err != nil {
		return GameRolePayload{}, err
	}
	return gameRolePayload(role), nil
}

func (s *Service) ListGameRoles(ctx context.Context, callerID, gameID string) ([]GameRolePayload, error) {
	if _, err := s.engine.AuthorizeGameRead(ctx, callerID, gameID); err != nil {
		return nil, mapShareError(err)
	}
	roles, err := s.store.ListGameRoles(ctx, gameID)
	if err != nil {
		return nil, err
	}
	payloads := make([]GameRolePayload, 0, len(roles))
	for _, role := range roles {
		payloads = append(payloads, gameRolePayload(role))
	}
	return payloads, nil
}
