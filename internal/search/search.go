package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultGame     ResultType = "game"
	ResultPlayer   ResultType = "player"
	ResultLocation ResultType = "location"
)

// Result is a single search hit returned to the caller. The link-target
// picker uses these to offer "link to mine" candidates during acceptance.
type Result struct {
	Type    ResultType `json:"type"`
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Snippet string     `json:"snippet"`
	OwnerID string     `json:"ownerId"`
}

// Query describes a search request. OwnerID scopes every search to the
// caller's own catalog.
type Query struct {
	Text       string
	OwnerID    string
	FilterType ResultType // empty = all types
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// GameRecord is the data we index for a game.
type GameRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	OwnerID     string `json:"ownerId"`
}

// PlayerRecord is the data we index for a player.
type PlayerRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"ownerId"`
}

// LocationRecord is the data we index for a location.
type LocationRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"ownerId"`
}
