package app

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"scorekeep/api/internal/perm"
	"scorekeep/api/internal/store"
	"scorekeep/api/internal/util"
)

type ParticipantInput struct {
	PlayerID  string   `json:"playerId"`
	TeamID    *int     `json:"teamId"`
	RoleIDs   []string `json:"roleIds"`
	SortOrder int      `json:"sortOrder"`
}

type CreateMatchInput struct {
	GameID       string             `json:"gameId"`
	ScoresheetID string             `json:"scoresheetId"`
	LocationID   *string            `json:"locationId"`
	Name         string             `json:"name"`
	Date         time.Time          `json:"date"`
	Participants []ParticipantInput `json:"participants"`
}

type ScoreInput struct {
	MatchPlayerID string              `json:"matchPlayerId"`
	Score         int                 `json:"score"`
	Rounds        []RoundScorePayload `json:"rounds"`
}

type TeamInput struct {
	MatchPlayerID string `json:"matchPlayerId"`
	TeamID        *int   `json:"teamId"`
}

type RoleAssignmentInput struct {
	MatchPlayerID string   `json:"matchPlayerId"`
	GameRoleIDs   []string `json:"gameRoleIds"`
}

// CreateMatch records a play. Once the row is committed the auto-share
// fan-out runs; its failures never surface here.
func (s *Service) CreateMatch(ctx context.Context, callerID string, input CreateMatchInput) (MatchPayload, error) {
	if strings.TrimSpace(input.GameID) == "" || strings.TrimSpace(input.ScoresheetID) == "" {
		return MatchPayload{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "gameId and scoresheetId are required", nil)
	}
	if len(input.Participants) == 0 {
		return MatchPayload{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "at least one participant is required", nil)
	}

	date := input.Date
	if date.IsZero() {
		date = time.Now()
	}
	match := store.Match{
		ID:           util.NewID("match"),
		OwnerID:      callerID,
		GameID:       input.GameID,
		ScoresheetID: input.ScoresheetID,
		LocationID:   input.LocationID,
		Name:         input.Name,
		Date:         date,
		Running:      true,
	}

	err := s.store.WithTx(ctx, func(tx *store.PostgresStore) error {
		game, err := tx.GetGame(ctx, input.GameID)
		if err != nil {
			return err
		}
		if game.OwnerID != callerID {
			return sql.ErrNoRows
		}
		sheet, err := tx.GetScoresheet(ctx, input.ScoresheetID)
		if err != nil {
			return err
		}
		if sheet.OwnerID != callerID || sheet.GameID != input.GameID {
			return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Scoresheet does not belong to this game", nil)
		}
		if input.LocationID != nil {
			location, err := tx.GetLocation(ctx, *input.LocationID)
			if err != nil {
				return err
			}
			if location.OwnerID != callerID {
				return sql.ErrNoRows
			}
		}
		if err := tx.InsertMatch(ctx, match); err != nil {
			return err
		}
		return insertRoster(ctx, tx, callerID, match, input.Participants)
	})
	if err != nil {
		return MatchPayload{}, err
	}

	s.engine.AutoShareMatch(ctx, callerID, match.ID)

	created, err := s.store.GetMatch(ctx, match.ID)
	if err != nil {
		return MatchPayload{}, err
	}
	return matchPayload(created), nil
}

// UpdateMatchRoster replaces the participant list. Owner only. When the
// match is finished and already mirrored to recipients, placements are
// re-derived so every grant keeps seeing consistent results; the edit also
// re-runs auto-share so new linked participants receive their grants.
func (s *Service) UpdateMatchRoster(ctx context.Context, callerID, matchID string, participants []ParticipantInput) (MatchDetailPayload, error) {
	if len(participants) == 0 {
		return MatchDetailPayload{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "at least one participant is required", nil)
	}

	access, err := s.engine.AuthorizeMatch(ctx, callerID, matchID, perm.ActionRead)
	if err != nil {
		return MatchDetailPayload{}, mapShareError(err)
	}
	if !access.IsOwner {
		return MatchDetailPayload{}, domainError(http.StatusForbidden, "FORBIDDEN", "Only the owner can change the roster", nil)
	}

	err = s.store.WithTx(ctx, func(tx *store.PostgresStore) error {
		match, err := tx.GetMatch(ctx, matchID)
		if err != nil {
			return err
		}
		if err := tx.DeleteMatchPlayers(ctx, matchID); err != nil {
			return err
		}
		if err := insertRoster(ctx, tx, callerID, match, participants); err != nil {
			return err
		}
		if !match.Finished {
			return nil
		}
		mirrored, err := tx.MatchHasMirrors(ctx, matchID)
		if err != nil {
			return err
		}
		if !mirrored {
			return nil
		}
		return s.applyPlacements(ctx, tx, match)
	})
	if err != nil {
		return MatchDetailPayload{}, err
	}

	s.engine.AutoShareMatch(ctx, callerID, matchID)
	return s.GetSharedMatch(ctx, callerID, matchID)
}

func insertRoster(ctx context.Context, tx *store.PostgresStore, callerID string, match store.Match, participants []ParticipantInput) error {
	for i, participant := range participants {
		player, err := tx.GetPlayer(ctx, participant.PlayerID)
		if err != nil {
			return err
		}
		if player.OwnerID != callerID {
			return sql.ErrNoRows
		}
		sortOrder := participant.SortOrder
		if sortOrder == 0 {
			sortOrder = i
		}
		matchPlayer := store.MatchPlayer{
			ID:        util.NewID("mp"),
			MatchID:   match.ID,
			PlayerID:  participant.PlayerID,
			TeamID:    participant.TeamID,
			SortOrder: sortOrder,
		}
		if err := tx.InsertMatchPlayer(ctx, matchPlayer); err != nil {
			return err
		}
		for _, roleID := range participant.RoleIDs {
			role, err := tx.GetGameRole(ctx, roleID)
			if err != nil {
				return err
			}
			if role.GameID != match.GameID {
				return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Role does not belong to this game", nil)
			}
			if err := tx.InsertMatchPlayerRole(ctx, store.MatchPlayerRole{
				ID:            util.NewID("mpr"),
				MatchPlayerID: matchPlayer.ID,
				GameRoleID:    roleID,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) applyPlacements(ctx context.Context, tx *store.PostgresStore, match store.Match) error {
	sheet, err := tx.GetScoresheet(ctx, match.ScoresheetID)
	if err != nil {
		return err
	}
	players, err := tx.ListMatchPlayers(ctx, match.ID)
	if err != nil {
		return err
	}
	for _, result := range s.placement(players, sheet) {
		if err := tx.UpdateMatchPlayerResult(ctx, result.MatchPlayerID, result.Placement, result.Score, result.Winner); err != nil {
			return err
		}
	}
	return nil
}

// GetSharedMatch is the permission-gated read. Owners and recipients with a
// mirror see the same single match row; everyone else gets not found.
func (s *Service) GetSharedMatch(ctx context.Context, callerID, matchID string) (MatchDetailPayload, error) {
	access, err := s.engine.AuthorizeMatch(ctx, callerID, matchID, perm.ActionRead)
	if err != nil {
		return MatchDetailPayload{}, mapShareError(err)
	}
	return s.matchDetail(ctx, access.Match, access.IsOwner, access.Permission)
}

func (s *Service) matchDetail(ctx context.Context, match store.Match, isOwner bool, permission perm.Permission) (MatchDetailPayload, error) {
	players, err := s.store.ListMatchPlayers(ctx, match.ID)
	if err != nil {
		return MatchDetailPayload{}, err
	}
	payload := MatchDetailPayload{
		Match:      matchPayload(match),
		Players:    make([]MatchPlayerPayload, 0, len(players)),
		IsOwner:    isOwner,
		Permission: string(permission),
	}
	for _, player := range players {
		entry := MatchPlayerPayload{
			ID:        player.ID,
			PlayerID:  player.PlayerID,
			Score:     player.Score,
			Placement: player.Placement,
			Winner:    player.Winner,
			TeamID:    player.TeamID,
			SortOrder: player.SortOrder,
		}
		roles, err := s.store.ListMatchPlayerRoles(ctx, player.ID)
		if err != nil {
			return MatchDetailPayload{}, err
		}
		for _, role := range roles {
			entry.RoleIDs = append(entry.RoleIDs, role.GameRoleID)
		}
		roundScores, err := s.store.ListRoundPlayers(ctx, player.ID)
		if err != nil {
			return MatchDetailPayload{}, err
		}
		for _, rs := range roundScores {
			entry.Rounds = append(entry.Rounds, RoundScorePayload{RoundID: rs.RoundID, Score: rs.Score})
		}
		payload.Players = append(payload.Players, entry)
	}
	return payload, nil
}

func (s *Service) StartSharedMatch(ctx context.Context, callerID, matchID string) (MatchDetailPayload, error) {
	access, err := s.engine.AuthorizeMatch(ctx, callerID, matchID, perm.ActionStart)
	if err != nil {
		return MatchDetailPayload{}, mapShareError(err)
	}
	if access.Match.Finished {
		return MatchDetailPayload{}, domainError(http.StatusConflict, "MATCH_FINISHED", "Finished matches cannot be restarted", nil)
	}
	if err := s.store.UpdateMatchState(ctx, matchID, true, false, access.Match.Duration); err != nil {
		return MatchDetailPayload{}, err
	}
	return s.GetSharedMatch(ctx, callerID, matchID)
}

func (s *Service) PauseSharedMatch(ctx context.Context, callerID, matchID string, duration int) (MatchDetailPayload, error) {
	access, err := s.engine.AuthorizeMatch(ctx, callerID, matchID, perm.ActionPause)
	if err != nil {
		return MatchDetailPayload{}, mapShareError(err)
	}
	if duration < access.Match.Duration {
		duration = access.Match.Duration
	}
	if err := s.store.UpdateMatchState(ctx, matchID, false, false, duration); err != nil {
		return MatchDetailPayload{}, err
	}
	return s.GetSharedMatch(ctx, callerID, matchID)
}

// FinishSharedMatch closes the match and derives final placements.
func (s *Service) FinishSharedMatch(ctx context.Context, callerID, matchID string, duration int) (MatchDetailPayload, error) {
	access, err := s.engine.AuthorizeMatch(ctx, callerID, matchID, perm.ActionFinish)
	if err != nil {
		return MatchDetailPayload{}, mapShareError(err)
	}
	if duration < access.Match.Duration {
		duration = access.Match.Duration
	}
	err = s.store.WithTx(ctx, func(tx *store.PostgresStore) error {
		if err := tx.UpdateMatchState(ctx, matchID, false, true, duration); err != nil {
			return err
		}
		return s.applyPlacements(ctx, tx, access.Match)
	})
	if err != nil {
		return MatchDetailPayload{}, err
	}
	return s.GetSharedMatch(ctx, callerID, matchID)
}

func (s *Service) UpdateSharedMatchScores(ctx context.Context, callerID, matchID string, scores []ScoreInput) (MatchDetailPayload, error) {
	_, err := s.engine.AuthorizeMatch(ctx, callerID, matchID, perm.ActionScore)
	if err != nil {
		return MatchDetailPayload{}, mapShareError(err)
	}
	err = s.store.WithTx(ctx, func(tx *store.PostgresStore) error {
		for _, score := range scores {
			matchPlayer, err := tx.GetMatchPlayer(ctx, score.MatchPlayerID)
			if err != nil {
				return err
			}
			if matchPlayer.MatchID != matchID {
				return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Participant does not belong to this match", nil)
			}
			if err := tx.UpdateMatchPlayerScore(ctx, score.MatchPlayerID, score.Score); err != nil {
				return err
			}
			for _, round := range score.Rounds {
				if err := tx.InsertRoundPlayer(ctx, store.RoundPlayer{
					ID:            util.NewID("rp"),
					RoundID:       round.RoundID,
					MatchPlayerID: score.MatchPlayerID,
					Score:         round.Score,
				}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return MatchDetailPayload{}, err
	}
	return s.GetSharedMatch(ctx, callerID, matchID)
}

func (s *Service) UpdateSharedMatchComment(ctx context.Context, callerID, matchID, comment string) (MatchDetailPayload, error) {
	_, err := s.engine.AuthorizeMatch(ctx, callerID, matchID, perm.ActionComment)
	if err != nil {
		return MatchDetailPayload{}, mapShareError(err)
	}
	if err := s.store.UpdateMatchComment(ctx, matchID, comment); err != nil {
		return MatchDetailPayload{}, err
	}
	return s.GetSharedMatch(ctx, callerID, matchID)
}

func (s *Service) UpdateSharedMatchTeams(ctx context.Context, callerID, matchID string, teams []TeamInput) (MatchDetailPayload, error) {
	_, err := s.engine.AuthorizeMatch(ctx, callerID, matchID, perm.ActionTeam)
	if err != nil {
		return MatchDetailPayload{}, mapShareError(err)
	}
	err = s.store.WithTx(ctx, func(tx *store.PostgresStore) error {
		for _, team := range teams {
			matchPlayer, err := tx.GetMatchPlayer(ctx, team.MatchPlayerID)
			if err != nil {
				return err
			}
			if matchPlayer.MatchID != matchID {
				return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Participant does not belong to this match", nil)
			}
			if err := tx.UpdateMatchPlayerTeam(ctx, team.MatchPlayerID, team.TeamID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return MatchDetailPayload{}, err
	}
	return s.GetSharedMatch(ctx, callerID, matchID)
}

func (s *Service) UpdateSharedMatchRoles(ctx context.Context, callerID, matchID string, assignments []RoleAssignmentInput) (MatchDetailPayload, error) {
	access, err := s.engine.AuthorizeMatch(ctx, callerID, matchID, perm.ActionRole)
	if err != nil {
		return MatchDetailPayload{}, mapShareError(err)
	}
	err = s.store.WithTx(ctx, func(tx *store.PostgresStore) error {
		for _, assignment := range assignments {
			matchPlayer, err := tx.GetMatchPlayer(ctx, assignment.MatchPlayerID)
			if err != nil {
				return err
			}
			if matchPlayer.MatchID != matchID {
				return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Participant does not belong to this match", nil)
			}
			if err := tx.DeleteMatchPlayerRoles(ctx, assignment.MatchPlayerID); err != nil {
				return err
			}
			for _, roleID := range assignment.GameRoleIDs {
				role, err := tx.GetGameRole(ctx, roleID)
				if err != nil {
					return err
				}
				if role.GameID != access.Match.GameID {
					return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Role does not belong to this game", nil)
				}
				if err := tx.InsertMatchPlayerRole(ctx, store.MatchPlayerRole{
					ID:            util.NewID("mpr"),
					MatchPlayerID: assignment.MatchPlayerID,
					GameRoleID:    roleID,
				}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return MatchDetailPayload{}, err
	}
	return s.GetSharedMatch(ctx, callerID, matchID)
}

// DeleteMatch requires original ownership. A recipient holding a mirror is
// refused with Forbidden regardless of permission; unrelated callers get
// not found.
func (s *Service) DeleteMatch(ctx context.Context, callerID, matchID string) error {
	_, err := s.engine.AuthorizeMatch(ctx, callerID, matchID, perm.ActionDelete)
	if err != nil {
		return mapShareError(err)
	}
	return s.store.WithTx(ctx, func(tx *store.PostgresStore) error {
		return tx.DeleteMatch(ctx, matchID)
	})
}

func (s *Service) ListSharedMatches(ctx context.Context, callerID string) ([]SharedMatchPayload, error) {
	mirrors, err := s.engine.ListSharedMatches(ctx, callerID)
	if err != nil {
		return nil, err
	}
	payloads := make([]SharedMatchPayload, 0, len(mirrors))
	for _, mirror := range mirrors {
		match, err := s.store.GetMatch(ctx, mirror.MatchID)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}
		payloads = append(payloads, SharedMatchPayload{
			Match:      matchPayload(match),
			OwnerID:    mirror.OwnerID,
			Permission: mirror.Permission,
		})
	}
	return payloads, nil
}
