package share

import (
	"context"
	"errors"

	"scorekeep/api/internal/store"
)

// Store is the persistence surface the engine needs. WithTx hands the
// callback a transaction-scoped Store; nested calls run inside the already
// open transaction. Fakes in tests implement WithTx by self-application.
type Store interface {
	WithTx(ctx context.Context, fn func(Store) error) error

	GetGame(ctx context.Context, gameID string) (store.Game, error)
	InsertGame(ctx context.Context, game store.Game) error
	GetPlayer(ctx context.Context, playerID string) (store.Player, error)
	InsertPlayer(ctx context.Context, player store.Player) error
	GetLocation(ctx context.Context, locationID string) (store.Location, error)
	InsertLocation(ctx context.Context, location store.Location) error
	GetScoresheet(ctx context.Context, scoresheetID string) (store.Scoresheet, error)
	InsertScoresheet(ctx context.Context, sheet store.Scoresheet) error
	ListGameScoresheets(ctx context.Context, gameID string) ([]store.Scoresheet, error)
	ListRounds(ctx context.Context, scoresheetID string) ([]store.Round, error)
	InsertRound(ctx context.Context, round store.Round) error
	GetGameRole(ctx context.Context, roleID string) (store.GameRole, error)
	InsertGameRole(ctx context.Context, role store.GameRole) error

	GetMatch(ctx context.Context, matchID string) (store.Match, error)
	ListMatchesByGame(ctx context.Context, gameID string) ([]store.Match, error)
	ListMatchesByPlayer(ctx context.Context, playerID string) ([]store.Match, error)
	GetMatchPlayer(ctx context.Context, matchPlayerID string) (store.MatchPlayer, error)
	ListMatchPlayers(ctx context.Context, matchID string) ([]store.MatchPlayer, error)
	ListMatchPlayerRoles(ctx context.Context, matchPlayerID string) ([]store.MatchPlayerRole, error)

	GetFriendSetting(ctx context.Context, ownerID, friendID string) (store.FriendSetting, error)

	InsertShareRequest(ctx context.Context, req store.ShareRequest) error
	GetShareRequest(ctx context.Context, requestID string) (store.ShareRequest, error)
	ListChildShareRequests(ctx context.Context, parentID string) ([]store.ShareRequest, error)
	ListShareRequestsForRecipient(ctx context.Context, sharedWithID, status string) ([]store.ShareRequest, error)
	UpdateShareRequestStatus(ctx context.Context, requestID, status string) error
	HasAcceptedShareRequest(ctx context.Context, ownerID, sharedWithID, itemType, itemID string) (bool, error)
	FindOpenShareRequest(ctx context.Context, ownerID, sharedWithID, itemType, itemID string) (store.ShareRequest, error)

	InsertSharedGame(ctx context.Context, sg store.SharedGame) (store.SharedGame, error)
	GetSharedGame(ctx context.Context, ownerID, sharedWithID, gameID string) (store.SharedGame, error)
	GetSharedGameForUser(ctx context.Context, gameID, userID string) (store.SharedGame, error)
	SetSharedGameLink(ctx context.Context, sharedGameID string, linkedGameID *string) error
	InsertSharedPlayer(ctx context.Context, sp store.SharedPlayer) (store.SharedPlayer, error)
	GetSharedPlayer(ctx context.Context, ownerID, sharedWithID, playerID string) (store.SharedPlayer, error)
	GetSharedPlayerForUser(ctx context.Context, playerID, userID string) (store.SharedPlayer, error)
	SetSharedPlayerLink(ctx context.Context, sharedPlayerID string, linkedPlayerID *string) error
	InsertSharedLocation(ctx context.Context, sl store.SharedLocation) (store.SharedLocation, error)
	GetSharedLocation(ctx context.Context, ownerID, sharedWithID, locationID string) (store.SharedLocation, error)
	GetSharedLocationForUser(ctx context.Context, locationID, userID string) (store.SharedLocation, error)
	SetSharedLocationLink(ctx context.Context, sharedLocationID string, linkedLocationID *string) error
	InsertSharedScoresheet(ctx context.Context, ss store.SharedScoresheet) (store.SharedScoresheet, error)
	GetSharedScoresheet(ctx context.Context, ownerID, sharedWithID, scoresheetID string) (store.SharedScoresheet, error)
	SetSharedScoresheetLink(ctx context.Context, sharedScoresheetID string, linkedScoresheetID *string) error
	InsertSharedRound(ctx context.Context, sr store.SharedRound) (store.SharedRound, error)
	InsertSharedGameRole(ctx context.Context, sgr store.SharedGameRole) (store.SharedGameRole, error)
	GetSharedGameRole(ctx context.Context, ownerID, sharedWithID, gameRoleID string) (store.SharedGameRole, error)
	SetSharedGameRoleLink(ctx context.Context, sharedGameRoleID string, linkedGameRoleID *string) error
	InsertSharedMatch(ctx context.Context, sm store.SharedMatch) (store.SharedMatch, error)
	GetSharedMatch(ctx context.Context, ownerID, sharedWithID, matchID string) (store.SharedMatch, error)
	GetSharedMatchForUser(ctx context.Context, matchID, userID string) (store.SharedMatch, error)
	ListSharedMatchesForUser(ctx context.Context, userID string) ([]store.SharedMatch, error)
	InsertSharedMatchPlayer(ctx context.Context, smp store.SharedMatchPlayer) (store.SharedMatchPlayer, error)
	ListSharedMatchPlayers(ctx context.Context, sharedMatchID string) ([]store.SharedMatchPlayer, error)
	InsertSharedMatchPlayerRole(ctx context.Context, smpr store.SharedMatchPlayerRole) error
}

var (
	// ErrLinkNotOwned means a "link to mine" target does not belong to the
	// accepting recipient.
	ErrLinkNotOwned = errors.New("link target not owned by recipient")
	// ErrPermissionDenied means the caller's mirror exists but its
	// permission does not cover the attempted action.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrUnresolvedDependency means an item was accepted before something
	// it references was resolved to a mirror.
	ErrUnresolvedDependency = errors.New("dependency not resolved")
	// ErrAlreadyDecided means the request left pending before this call.
	ErrAlreadyDecided = errors.New("share request already decided")
)

type Engine struct {
	store Store
}

func NewEngine(st Store) *Engine {
	return &Engine{store: st}
}

// PgStore adapts the concrete Postgres store to the engine's transactional
// interface.
type PgStore struct {
	*store.PostgresStore
}

func NewPgStore(st *store.PostgresStore) PgStore {
	return PgStore{PostgresStore: st}
}

func (p PgStore) WithTx(ctx context.Context, fn func(Store) error) error {
	return p.PostgresStore.WithTx(ctx, func(tx *store.PostgresStore) error {
		return fn(PgStore{PostgresStore: tx})
	})
}
