package store

import "time"

type User struct {
	ID                    string
	DisplayName           string
	Email                 string
	PasswordHash          string
	IsEmailVerified       bool
	VerificationToken     string
	VerificationExpiresAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Friendship links two users. Settings live per direction in FriendSetting;
// a friendship row alone grants nothing.
type Friendship struct {
	ID        string
	OwnerID   string
	FriendID  string
	CreatedAt time.Time
}

// FriendSetting holds one direction of a friendship's sharing configuration.
// The share-* fields describe what the owner pushes out, the allow-* and
// auto-accept-* fields describe what the owner accepts coming in.
type FriendSetting struct {
	ID       string
	OwnerID  string
	FriendID string

	AutoShareMatches bool
	ShareLocation    bool
	SharePlayers     bool

	AllowSharedGames       bool
	AllowSharedPlayers     bool
	AllowSharedLocation    bool
	AllowSharedMatches     bool
	AllowSharedScoresheets bool

	AutoAcceptGames       bool
	AutoAcceptPlayers     bool
	AutoAcceptLocation    bool
	AutoAcceptMatches     bool
	AutoAcceptScoresheets bool

	DefaultPermissionGames       string
	DefaultPermissionPlayers     string
	DefaultPermissionLocation    string
	DefaultPermissionMatches     string
	DefaultPermissionScoresheets string
}

type Game struct {
	ID            string
	OwnerID       string
	Name          string
	YearPublished *int
	Description   string
	Rules         string
	PlayersMin    *int
	PlayersMax    *int
	PlaytimeMin   *int
	PlaytimeMax   *int
	CreatedAt     time.Time
}

// Player is an owner-scoped roster entry. LinkedUserID ties a player to a
// real account, which is what makes auto-share able to find the friend
// behind a match participant.
type Player struct {
	ID           string
	OwnerID      string
	Name         string
	IsUser       bool
	LinkedUserID *string
	CreatedAt    time.Time
}

type Location struct {
	ID        string
	OwnerID   string
	Name      string
	IsDefault bool
	CreatedAt time.Time
}

type Scoresheet struct {
	ID           string
	OwnerID      string
	GameID       string
	ParentID     *string
	Name         string
	Type         string // default, game, match
	WinCondition string
	RoundsScore  string
	TargetScore  *int
	IsCoop       bool
	CreatedAt    time.Time
}

type Round struct {
	ID           string
	ScoresheetID string
	Name         string
	Type         string
	Score        int
	SortOrder    int
	Color        string
}

type GameRole struct {
	ID          string
	OwnerID     string
	GameID      string
	Name        string
	Description string
}

type Match struct {
	ID           string
	OwnerID      string
	GameID       string
	ScoresheetID string
	LocationID   *string
	Name         string
	Date         time.Time
	Duration     int
	Running      bool
	Finished     bool
	Comment      string
	CreatedAt    time.Time
}

type MatchPlayer struct {
	ID        string
	MatchID   string
	PlayerID  string
	Score     int
	Placement *int
	Winner    bool
	TeamID    *int
	SortOrder int
}

type RoundPlayer struct {
	ID            string
	RoundID       string
	MatchPlayerID string
	Score         int
}

type MatchPlayerRole struct {
	ID            string
	MatchPlayerID string
	GameRoleID    string
}

// ShareRequest is a persisted intent to grant a recipient access to one item.
// Requests form a forest: a root (no parent) plus children referencing it.
type ShareRequest struct {
	ID            string
	OwnerID       string
	SharedWithID  string
	ItemType      string
	ItemID        string
	ParentShareID *string
	Permission    string
	Status        string // pending, accepted, rejected
	CreatedAt     time.Time
	ExpiresAt     *time.Time
}

// Mirror rows grant a recipient permission-scoped access to an owner's
// entity. Catalog mirrors carry a linked id once acceptance resolves them;
// transactional mirrors (match, match player) only ever reference the single
// original row.

type SharedGame struct {
	ID           string
	OwnerID      string
	SharedWithID string
	GameID       string
	LinkedGameID *string
	Permission   string
}

type SharedPlayer struct {
	ID             string
	OwnerID        string
	SharedWithID   string
	PlayerID       string
	LinkedPlayerID *string
	Permission     string
}

type SharedLocation struct {
	ID               string
	OwnerID          string
	SharedWithID     string
	LocationID       string
	LinkedLocationID *string
	Permission       string
}

type SharedScoresheet struct {
	ID                 string
	OwnerID            string
	SharedWithID       string
	ScoresheetID       string
	LinkedScoresheetID *string
	SharedGameID       *string
	Permission         string
}

type SharedRound struct {
	ID                 string
	OwnerID            string
	SharedWithID       string
	RoundID            string
	LinkedRoundID      *string
	SharedScoresheetID string
}

type SharedGameRole struct {
	ID               string
	OwnerID          string
	SharedWithID     string
	GameRoleID       string
	LinkedGameRoleID *string
	SharedGameID     string
	Permission       string
}

type SharedMatch struct {
	ID                 string
	OwnerID            string
	SharedWithID       string
	MatchID            string
	SharedGameID       *string
	SharedScoresheetID *string
	SharedLocationID   *string
	Permission         string
}

type SharedMatchPlayer struct {
	ID             string
	OwnerID        string
	SharedWithID   string
	MatchPlayerID  string
	SharedMatchID  string
	SharedPlayerID *string
	Permission     string
}

type SharedMatchPlayerRole struct {
	ID                  string
	SharedMatchPlayerID string
	GameRoleID          string
	SharedGameRoleID    *string
}
