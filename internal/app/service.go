package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"scorekeep/api/internal/auth"
	"scorekeep/api/internal/authpw"
	"scorekeep/api/internal/email"
	"scorekeep/api/internal/perm"
	"scorekeep/api/internal/search"
	"scorekeep/api/internal/share"
	"scorekeep/api/internal/store"
	"scorekeep/api/internal/util"
)

// PlacementResult is one participant's derived standing after a match
// finishes or its roster changes.
type PlacementResult struct {
	MatchPlayerID string
	Placement     *int
	Score         int
	Winner        bool
}

// PlacementFunc derives placements and winners from a roster and the
// scoresheet it was scored against. Pure; no store access.
type PlacementFunc func(players []store.MatchPlayer, sheet store.Scoresheet) []PlacementResult

// RefreshSessionStore holds refresh sessions. Redis when configured,
// Postgres otherwise.
type RefreshSessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID, displayName string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

type pgRefreshSessions struct {
	store *store.PostgresStore
}

// NewPostgresRefreshSessions adapts the Postgres store to the refresh
// session interface. The display name is re-read from users on lookup, so
// the save-side parameter is dropped.
func NewPostgresRefreshSessions(st *store.PostgresStore) RefreshSessionStore {
	return pgRefreshSessions{store: st}
}

func (p pgRefreshSessions) SaveRefreshSession(ctx context.Context, tokenHash, userID, displayName string, expiresAt time.Time) error {
	return p.store.SaveRefreshSession(ctx, tokenHash, userID, expiresAt)
}

func (p pgRefreshSessions) LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error) {
	return p.store.LookupRefreshSession(ctx, tokenHash)
}

func (p pgRefreshSessions) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	return p.store.RevokeRefreshSession(ctx, tokenHash)
}

type Deps struct {
	Store      *store.PostgresStore
	Engine     *share.Engine
	AuthPW     *authpw.Service
	Sessions   RefreshSessionStore
	Email      *email.Service
	Search     *search.Service
	Placement  PlacementFunc
	JWTSecret  []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	AppBaseURL string
}

type Service struct {
	store      *store.PostgresStore
	engine     *share.Engine
	authpw     *authpw.Service
	sessions   RefreshSessionStore
	email      *email.Service
	search     *search.Service
	placement  PlacementFunc
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	appBaseURL string
}

func New(deps Deps) *Service {
	placement := deps.Placement
	if placement == nil {
		placement = DefaultPlacement
	}
	return &Service{
		store:      deps.Store,
		engine:     deps.Engine,
		authpw:     deps.AuthPW,
		sessions:   deps.Sessions,
		email:      deps.Email,
		search:     deps.Search,
		placement:  placement,
		jwtSecret:  deps.JWTSecret,
		accessTTL:  deps.AccessTTL,
		refreshTTL: deps.RefreshTTL,
		appBaseURL: deps.AppBaseURL,
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) AuthPasswordService() *authpw.Service {
	return s.authpw
}

func (s *Service) SMTPConfigured() bool {
	return s.email != nil && s.email.IsConfigured()
}

// Session is an authenticated caller. JTI and ExpiresAt come from the access
// token and feed revocation on logout.
type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	JTI          string
	ExpiresAt    time.Time
}

func (s *Service) CreateSession(ctx context.Context, userID string) (Session, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return Session{}, err
	}

	jti := util.NewID("jti")
	token, err := auth.IssueToken(s.jwtSecret, user.ID, user.DisplayName, jti, s.accessTTL)
	if err != nil {
		return Session{}, err
	}

	refreshToken := util.NewID("rft") + util.NewID("")
	expiresAt := time.Now().Add(s.refreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refreshToken), user.ID, user.DisplayName, expiresAt); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refreshToken,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		JTI:          jti,
		ExpiresAt:    time.Now().Add(s.accessTTL),
	}, nil
}

// Refresh rotates the refresh token: the presented token is revoked and a
// fresh session issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return Session{}, auth.ErrInvalidToken
	}
	hash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, hash)
	if err != nil {
		return Session{}, auth.ErrInvalidToken
	}
	_ = s.sessions.RevokeRefreshSession(ctx, hash)
	return s.CreateSession(ctx, user.ID)
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken(s.jwtSecret, token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.ID)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}
	user, err := s.store.GetUserByID(ctx, claims.Subject)
	if err != nil {
		return Session{}, auth.ErrInvalidToken
	}
	session := Session{
		Token:    token,
		UserID:   user.ID,
		UserName: user.DisplayName,
		JTI:      claims.ID,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

// Logout revokes both halves of the session. Best effort; an expired or
// unknown token is not an error.
func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		exp := session.ExpiresAt
		if exp.IsZero() {
			exp = time.Now().Add(s.accessTTL)
		}
		_ = s.store.RevokeAccessToken(ctx, session.JTI, exp)
	}
	if strings.TrimSpace(refreshToken) != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// Search runs the link-target picker query, scoped to the caller's own
// catalog.
func (s *Service) Search(ctx context.Context, callerID, text, filterType string, limit, offset int) search.Response {
	return s.search.Search(search.Query{
		Text:       text,
		OwnerID:    callerID,
		FilterType: search.ResultType(filterType),
		Limit:      limit,
		Offset:     offset,
	})
}

// AddFriend records a mutual friendship. Settings stay at their defaults
// until each side updates their own direction.
func (s *Service) AddFriend(ctx context.Context, callerID, friendUserID string) error {
	if friendUserID == callerID {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Cannot befriend yourself", nil)
	}
	if _, err := s.store.GetUserByID(ctx, friendUserID); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(tx *store.PostgresStore) error {
		if err := tx.CreateFriendship(ctx, store.Friendship{
			ID:       util.NewID("fr"),
			OwnerID:  callerID,
			FriendID: friendUserID,
		}); err != nil {
			return err
		}
		return tx.CreateFriendship(ctx, store.Friendship{
			ID:       util.NewID("fr"),
			OwnerID:  friendUserID,
			FriendID: callerID,
		})
	})
}

func (s *Service) ListFriends(ctx context.Context, callerID string) ([]FriendPayload, error) {
	friendships, err := s.store.ListFriends(ctx, callerID)
	if err != nil {
		return nil, err
	}
	payloads := make([]FriendPayload, 0, len(friendships))
	for _, friendship := range friendships {
		name := ""
		if user, err := s.store.GetUserByID(ctx, friendship.FriendID); err == nil {
			name = user.DisplayName
		}
		payloads = append(payloads, FriendPayload{
			FriendID:   friendship.FriendID,
			FriendName: name,
			CreatedAt:  friendship.CreatedAt,
		})
	}
	return payloads, nil
}

func (s *Service) GetFriendSettings(ctx context.Context, callerID, friendID string) (FriendSettingPayload, error) {
	setting, err := s.store.GetFriendSetting(ctx, callerID, friendID)
	if err != nil {
		return FriendSettingPayload{}, err
	}
	return friendSettingPayload(setting), nil
}

// UpdateFriendSettings replaces the caller's direction of the friendship
// configuration. The friend's own direction is untouched.
func (s *Service) UpdateFriendSettings(ctx context.Context, callerID, friendID string, input FriendSettingPayload) (FriendSettingPayload, error) {
	if err := s.requireFriendship(ctx, callerID, friendID); err != nil {
		return FriendSettingPayload{}, err
	}
	setting := store.FriendSetting{
		ID:       util.NewID("fs"),
		OwnerID:  callerID,
		FriendID: friendID,

		AutoShareMatches: input.AutoShareMatches,
		ShareLocation:    input.ShareLocation,
		SharePlayers:     input.SharePlayers,

		AllowSharedGames:       input.AllowSharedGames,
		AllowSharedPlayers:     input.AllowSharedPlayers,
		AllowSharedLocation:    input.AllowSharedLocation,
		AllowSharedMatches:     input.AllowSharedMatches,
		AllowSharedScoresheets: input.AllowSharedScoresheets,

		AutoAcceptGames:       input.AutoAcceptGames,
		AutoAcceptPlayers:     input.AutoAcceptPlayers,
		AutoAcceptLocation:    input.AutoAcceptLocation,
		AutoAcceptMatches:     input.AutoAcceptMatches,
		AutoAcceptScoresheets: input.AutoAcceptScoresheets,

		DefaultPermissionGames:       string(perm.Normalize(input.DefaultPermissionGames)),
		DefaultPermissionPlayers:     string(perm.Normalize(input.DefaultPermissionPlayers)),
		DefaultPermissionLocation:    string(perm.Normalize(input.DefaultPermissionLocation)),
		DefaultPermissionMatches:     string(perm.Normalize(input.DefaultPermissionMatches)),
		DefaultPermissionScoresheets: string(perm.Normalize(input.DefaultPermissionScoresheets)),
	}
	if err := s.store.UpsertFriendSetting(ctx, setting); err != nil {
		return FriendSettingPayload{}, err
	}
	return s.GetFriendSettings(ctx, callerID, friendID)
}

func (s *Service) requireFriendship(ctx context.Context, callerID, friendID string) error {
	friendships, err := s.store.ListFriends(ctx, callerID)
	if err != nil {
		return err
	}
	for _, friendship := range friendships {
		if friendship.FriendID == friendID {
			return nil
		}
	}
	return sql.ErrNoRows
}

// DefaultPlacement ranks a roster by score. Ties share a placement; the
// scoresheet's win condition decides whether low or high scores win.
// Cooperative sheets get no placements, only a shared win against the
// target score.
func DefaultPlacement(players []store.MatchPlayer, sheet store.Scoresheet) []PlacementResult {
	results := make([]PlacementResult, 0, len(players))

	if sheet.IsCoop {
		won := true
		if sheet.TargetScore != nil {
			for _, player := range players {
				if player.Score < *sheet.TargetScore {
					won = false
					break
				}
			}
		}
		for _, player := range players {
			results = append(results, PlacementResult{
				MatchPlayerID: player.ID,
				Score:         player.Score,
				Winner:        won,
			})
		}
		return results
	}

	ordered := make([]store.MatchPlayer, len(players))
	copy(ordered, players)
	lowestWins := sheet.WinCondition == "lowest"
	sort.SliceStable(ordered, func(i, j int) bool {
		if lowestWins {
			return ordered[i].Score < ordered[j].Score
		}
		return ordered[i].Score > ordered[j].Score
	})

	placement := 0
	for i, player := range ordered {
		if i == 0 || player.Score != ordered[i-1].Score {
			placement = i + 1
		}
		rank := placement
		results = append(results, PlacementResult{
			MatchPlayerID: player.ID,
			Placement:     &rank,
			Score:         player.Score,
			Winner:        placement == 1,
		})
	}
	return results
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
