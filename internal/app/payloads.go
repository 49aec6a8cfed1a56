package app

import (
	"time"

	"scorekeep/api/internal/store"
)

// JSON shapes returned by the HTTP layer. Store models stay unexported from
// the wire so column renames never leak into responses.

type GamePayload struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"ownerId"`
	Name          string    `json:"name"`
	YearPublished *int      `json:"yearPublished"`
	Description   string    `json:"description"`
	Rules         string    `json:"rules"`
	PlayersMin    *int      `json:"playersMin"`
	PlayersMax    *int      `json:"playersMax"`
	PlaytimeMin   *int      `json:"playtimeMin"`
	PlaytimeMax   *int      `json:"playtimeMax"`
	CreatedAt     time.Time `json:"createdAt"`
}

func gamePayload(g store.Game) GamePayload {
	return GamePayload{
		ID:            g.ID,
		OwnerID:       g.OwnerID,
		Name:          g.Name,
		YearPublished: g.YearPublished,
		Description:   g.Description,
		Rules:         g.Rules,
		PlayersMin:    g.PlayersMin,
		PlayersMax:    g.PlayersMax,
		PlaytimeMin:   g.PlaytimeMin,
		PlaytimeMax:   g.PlaytimeMax,
		CreatedAt:     g.CreatedAt,
	}
}

type PlayerPayload struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	Name         string    `json:"name"`
	IsUser       bool      `json:"isUser"`
	LinkedUserID *string   `json:"linkedUserId"`
	CreatedAt    time.Time `json:"createdAt"`
}

func playerPayload(p store.Player) PlayerPayload {
	return PlayerPayload{
		ID:           p.ID,
		OwnerID:      p.OwnerID,
		Name:         p.Name,
		IsUser:       p.IsUser,
		LinkedUserID: p.LinkedUserID,
		CreatedAt:    p.CreatedAt,
	}
}

type LocationPayload struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Name      string    `json:"name"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
}

func locationPayload(l store.Location) LocationPayload {
	return LocationPayload{
		ID:        l.ID,
		OwnerID:   l.OwnerID,
		Name:      l.Name,
		IsDefault: l.IsDefault,
		CreatedAt: l.CreatedAt,
	}
}

type RoundPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Score     int    `json:"score"`
	SortOrder int    `json:"sortOrder"`
	Color     string `json:"color"`
}

type ScoresheetPayload struct {
	ID           string         `json:"id"`
	OwnerID      string         `json:"ownerId"`
	GameID       string         `json:"gameId"`
	ParentID     *string        `json:"parentId"`
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	WinCondition string         `json:"winCondition"`
	RoundsScore  string         `json:"roundsScore"`
	TargetScore  *int           `json:"targetScore"`
	IsCoop       bool           `json:"isCoop"`
	Rounds       []RoundPayload `json:"rounds,omitempty"`
}

func scoresheetPayload(sheet store.Scoresheet, rounds []store.Round) ScoresheetPayload {
	payload := ScoresheetPayload{
		ID:           sheet.ID,
		OwnerID:      sheet.OwnerID,
		GameID:       sheet.GameID,
		ParentID:     sheet.ParentID,
		Name:         sheet.Name,
		Type:         sheet.Type,
		WinCondition: sheet.WinCondition,
		RoundsScore:  sheet.RoundsScore,
		TargetScore:  sheet.TargetScore,
		IsCoop:       sheet.IsCoop,
	}
	for _, round := range rounds {
		payload.Rounds = append(payload.Rounds, RoundPayload{
			ID:        round.ID,
			Name:      round.Name,
			Type:      round.Type,
			Score:     round.Score,
			SortOrder: round.SortOrder,
			Color:     round.Color,
		})
	}
	return payload
}

type GameRolePayload struct {
	ID          string `json:"id"`
	GameID      string `json:"gameId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func gameRolePayload(role store.GameRole) GameRolePayload {
	return GameRolePayload{
		ID:          role.ID,
		GameID:      role.GameID,
		Name:        role.Name,
		Description: role.Description,
	}
}

type RoundScorePayload struct {
	RoundID string `json:"roundId"`
	Score   int    `json:"score"`
}

type MatchPlayerPayload struct {
	ID        string              `json:"id"`
	PlayerID  string              `json:"playerId"`
	Score     int                 `json:"score"`
	Placement *int                `json:"placement"`
	Winner    bool                `json:"winner"`
	TeamID    *int                `json:"teamId"`
	SortOrder int                 `json:"sortOrder"`
	RoleIDs   []string            `json:"roleIds,omitempty"`
	Rounds    []RoundScorePayload `json:"rounds,omitempty"`
}

type MatchPayload struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	GameID       string    `json:"gameId"`
	ScoresheetID string    `json:"scoresheetId"`
	LocationID   *string   `json:"locationId"`
	Name         string    `json:"name"`
	Date         time.Time `json:"date"`
	Duration     int       `json:"duration"`
	Running      bool      `json:"running"`
	Finished     bool      `json:"finished"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"createdAt"`
}

func matchPayload(m store.Match) MatchPayload {
	return MatchPayload{
		ID:           m.ID,
		OwnerID:      m.OwnerID,
		GameID:       m.GameID,
		ScoresheetID: m.ScoresheetID,
		LocationID:   m.LocationID,
		Name:         m.Name,
		Date:         m.Date,
		Duration:     m.Duration,
		Running:      m.Running,
		Finished:     m.Finished,
		Comment:      m.Comment,
		CreatedAt:    m.CreatedAt,
	}
}

// MatchDetailPayload is the shared-access read shape. Permission tells the
// client which mutations it may offer; IsOwner marks the original owner.
type MatchDetailPayload struct {
	Match      MatchPayload         `json:"match"`
	Players    []MatchPlayerPayload `json:"players"`
	IsOwner    bool                 `json:"isOwner"`
	Permission string               `json:"permission"`
}

type ShareRequestPayload struct {
	ID            string     `json:"id"`
	OwnerID       string     `json:"ownerId"`
	SharedWithID  string     `json:"sharedWithId"`
	ItemType      string     `json:"itemType"`
	ItemID        string     `json:"itemId"`
	ParentShareID *string    `json:"parentShareId"`
	Permission    string     `json:"permission"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	ExpiresAt     *time.Time `json:"expiresAt"`
}

func shareRequestPayload(req store.ShareRequest) ShareRequestPayload {
	return ShareRequestPayload{
		ID:            req.ID,
		OwnerID:       req.OwnerID,
		SharedWithID:  req.SharedWithID,
		ItemType:      req.ItemType,
		ItemID:        req.ItemID,
		ParentShareID: req.ParentShareID,
		Permission:    req.Permission,
		Status:        req.Status,
		CreatedAt:     req.CreatedAt,
		ExpiresAt:     req.ExpiresAt,
	}
}

type ShareTreePayload struct {
	Root     ShareRequestPayload   `json:"root"`
	Children []ShareRequestPayload `json:"children"`
}

type SharedMatchPayload struct {
	Match      MatchPayload `json:"match"`
	OwnerID    string       `json:"ownerId"`
	Permission string       `json:"permission"`
}

type FriendPayload struct {
	FriendID   string    `json:"friendId"`
	FriendName string    `json:"friendName"`
	CreatedAt  time.Time `json:"createdAt"`
}

type FriendSettingPayload struct {
	FriendID string `json:"friendId"`

	AutoShareMatches bool `json:"autoShareMatches"`
	ShareLocation    bool `json:"shareLocation"`
	SharePlayers     bool `json:"sharePlayers"`

	AllowSharedGames       bool `json:"allowSharedGames"`
	AllowSharedPlayers     bool `json:"allowSharedPlayers"`
	AllowSharedLocation    bool `json:"allowSharedLocation"`
	AllowSharedMatches     bool `json:"allowSharedMatches"`
	AllowSharedScoresheets bool `json:"allowSharedScoresheets"`

	AutoAcceptGames       bool `json:"autoAcceptGames"`
	AutoAcceptPlayers     bool `json:"autoAcceptPlayers"`
	AutoAcceptLocation    bool `json:"autoAcceptLocation"`
	AutoAcceptMatches     bool `json:"autoAcceptMatches"`
	AutoAcceptScoresheets bool `json:"autoAcceptScoresheets"`

	DefaultPermissionGames       string `json:"defaultPermissionGames"`
	DefaultPermissionPlayers     string `json:"defaultPermissionPlayers"`
	DefaultPermissionLocation    string `json:"defaultPermissionLocation"`
	DefaultPermissionMatches     string `json:"defaultPermissionMatches"`
	DefaultPermissionScoresheets string `json:"defaultPermissionScoresheets"`
}

func friendSettingPayload(setting store.FriendSetting) FriendSettingPayload {
	return FriendSettingPayload{
		FriendID:                     setting.FriendID,
		AutoShareMatches:             setting.AutoShareMatches,
		ShareLocation:                setting.ShareLocation,
		SharePlayers:                 setting.SharePlayers,
		AllowSharedGames:             setting.AllowSharedGames,
		AllowSharedPlayers:           setting.AllowSharedPlayers,
		AllowSharedLocation:          setting.AllowSharedLocation,
		AllowSharedMatches:           setting.AllowSharedMatches,
		AllowSharedScoresheets:       setting.AllowSharedScoresheets,
		AutoAcceptGames:              setting.AutoAcceptGames,
		AutoAcceptPlayers:            setting.AutoAcceptPlayers,
		AutoAcceptLocation:           setting.AutoAcceptLocation,
		AutoAcceptMatches:            setting.AutoAcceptMatches,
		AutoAcceptScoresheets:        setting.AutoAcceptScoresheets,
		DefaultPermissionGames:       setting.DefaultPermissionGames,
		DefaultPermissionPlayers:     setting.DefaultPermissionPlayers,
		DefaultPermissionLocation:    setting.DefaultPermissionLocation,
		DefaultPermissionMatches:     setting.DefaultPermissionMatches,
		DefaultPermissionScoresheets: setting.DefaultPermissionScoresheets,
	}
}
