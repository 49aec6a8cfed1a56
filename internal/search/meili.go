package search

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
)

const (
	idxGames     = "scorekeep_games"
	idxPlayers   = "scorekeep_players"
	idxLocations = "scorekeep_locations"
)

// Meili implements Searcher via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures indexes. The caller
// should proceed without Meilisearch when the initial connection fails; the
// health loop picks it up if it comes back.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndexes()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndexes() {
	indexes := []struct {
		uid        string
		primaryKey string
		filterable []string
		searchable []string
	}{
		{
			uid:        idxGames,
			primaryKey: "id",
			filterable: []string{"ownerId"},
			searchable: []string{"name", "description"},
		},
		{
			uid:        idxPlayers,
			primaryKey: "id",
			filterable: []string{"ownerId"},
			searchable: []string{"name"},
		},
		{
			uid:        idxLocations,
			primaryKey: "id",
			filterable: []string{"ownerId"},
			searchable: []string{"name"},
		},
	}

	for _, idx := range indexes {
		if _, err := m.client.CreateIndex(&meili.IndexConfig{
			Uid:        idx.uid,
			PrimaryKey: idx.primaryKey,
		}); err != nil {
			log.Printf("search: create index %s (may already exist): %v", idx.uid, err)
		}

		index := m.client.Index(idx.uid)
		filterableInterface := make([]interface{}, len(idx.filterable))
		for i, v := range idx.filterable {
			filterableInterface[i] = v
		}
		if _, err := index.UpdateFilterableAttributes(&filterableInterface); err != nil {
			log.Printf("search: update filterable attrs for %s: %v", idx.uid, err)
		}
		if _, err := index.UpdateSearchableAttributes(&idx.searchable); err != nil {
			log.Printf("search: update searchable attrs for %s: %v", idx.uid, err)
		}
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring indexes")
				m.configureIndexes()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search queries the catalog indexes (or a filtered subset) and merges
// results. Every query is filtered to the requesting owner's entities.
func (m *Meili) Search(q Query) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}

	limit := int64(q.Limit)
	if limit == 0 {
		limit = 20
	}

	var queries []*meili.SearchRequest
	targetIndexes := []struct {
		uid  string
		rtyp ResultType
	}{
		{idxGames, ResultGame},
		{idxPlayers, ResultPlayer},
		{idxLocations, ResultLocation},
	}

	for _, ti := range targetIndexes {
		if q.FilterType != "" && q.FilterType != ti.rtyp {
			continue
		}
		sr := &meili.SearchRequest{
			IndexUID:              ti.uid,
			Limit:                 limit,
			Offset:                int64(q.Offset),
			AttributesToHighlight: []string{"*"},
			HighlightPreTag:       "<mark>",
			HighlightPostTag:      "</mark>",
			ShowRankingScore:      true,
			Filter:                []string{fmt.Sprintf("ownerId = %q", q.OwnerID)},
		}
		queries = append(queries, sr)
	}

	if len(queries) == 0 {
		return nil, 0, nil
	}

	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: queries,
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch multi-search: %w", err)
	}

	var results []Result
	total := 0
	for _, sr := range resp.Results {
		total += int(sr.EstimatedTotalHits)
		rtyp := indexToResultType(sr.IndexUID)
		for _, hit := range sr.Hits {
			results = append(results, hitToResult(hit, rtyp))
		}
	}

	return results, total, nil
}

func indexToResultType(uid string) ResultType {
	switch uid {
	case idxGames:
		return ResultGame
	case idxPlayers:
		return ResultPlayer
	case idxLocations:
		return ResultLocation
	default:
		return ""
	}
}

func hitToResult(hit meili.Hit, rtyp ResultType) Result {
	r := Result{Type: rtyp}
	r.ID = decodeString(hit, "id")
	r.OwnerID = decodeString(hit, "ownerId")
	r.Name = firstNonBlank(decodeFormattedString(hit, "name"), decodeString(hit, "name"))
	if rtyp == ResultGame {
		r.Snippet = firstNonBlank(decodeFormattedString(hit, "description"), decodeString(hit, "description"))
	}
	return r
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func decodeFormattedString(hit meili.Hit, key string) string {
	raw, ok := hit["_formatted"]
	if !ok {
		return ""
	}
	var formatted map[string]string
	if err := json.Unmarshal(raw, &formatted); err != nil {
		return ""
	}
	return strings.TrimSpace(formatted[key])
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

// IndexGame adds or updates a game in the search index.
func (m *Meili) IndexGame(g GameRecord) error {
	_, err := m.client.Index(idxGames).AddDocuments([]GameRecord{g}, nil)
	return err
}

// IndexPlayer adds or updates a player in the search index.
func (m *Meili) IndexPlayer(p PlayerRecord) error {
	_, err := m.client.Index(idxPlayers).AddDocuments([]PlayerRecord{p}, nil)
	return err
}

// IndexLocation adds or updates a location in the search index.
func (m *Meili) IndexLocation(l LocationRecord) error {
	_, err := m.client.Index(idxLocations).AddDocuments([]LocationRecord{l}, nil)
	return err
}

// IndexGames bulk-indexes games.
func (m *Meili) IndexGames(games []GameRecord) error {
	if len(games) == 0 {
		return nil
	}
	_, err := m.client.Index(idxGames).AddDocuments(games, nil)
	return err
}

// IndexPlayers bulk-indexes players.
func (m *Meili) IndexPlayers(players []PlayerRecord) error {
	if len(players) == 0 {
		return nil
	}
	_, err := m.client.Index(idxPlayers).AddDocuments(players, nil)
	return err
}

// IndexLocations bulk-indexes locations.
func (m *Meili) IndexLocations(locations []LocationRecord) error {
	if len(locations) == 0 {
		return nil
	}
	_, err := m.client.Index(idxLocations).AddDocuments(locations, nil)
	return err
}
