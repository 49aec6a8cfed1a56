package share

// ItemType is the closed set of shareable item kinds. Every value must have
// a materializer registered in accept.go and a rank in dependencyRank.
type ItemType string

const (
	ItemGame        ItemType = "game"
	ItemScoresheet  ItemType = "scoresheet"
	ItemLocation    ItemType = "location"
	ItemPlayer      ItemType = "player"
	ItemMatch       ItemType = "match"
	ItemMatchPlayer ItemType = "matchPlayer"
)

var AllItemTypes = []ItemType{
	ItemGame,
	ItemScoresheet,
	ItemLocation,
	ItemPlayer,
	ItemMatch,
	ItemMatchPlayer,
}

func (t ItemType) Valid() bool {
	switch t {
	case ItemGame, ItemScoresheet, ItemLocation, ItemPlayer, ItemMatch, ItemMatchPlayer:
		return true
	default:
		return false
	}
}

// dependencyRank orders materialization so that an item is always resolved
// after everything it references. A match needs its game, scoresheet,
// location and players first; a match player additionally needs the match.
var dependencyRank = map[ItemType]int{
	ItemGame:        0,
	ItemScoresheet:  1,
	ItemLocation:    2,
	ItemPlayer:      3,
	ItemMatch:       4,
	ItemMatchPlayer: 5,
}

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)
