package search

import (
	"context"
	"log"
)

// Service is the facade that tries Meilisearch first and falls back to PG FTS.
type Service struct {
	meili *Meili
	pgfts *PgFTS
}

// NewService creates a search service. meili may be nil if Meilisearch is not configured.
func NewService(meili *Meili, pgfts *PgFTS) *Service {
	return &Service{meili: meili, pgfts: pgfts}
}

// Search tries Meilisearch if healthy, otherwise falls back to PG FTS.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to pgfts: %v", err)
	}

	results, total, err := s.pgfts.Search(q)
	if err != nil {
		log.Printf("search: pgfts error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexGame indexes a game (fire-and-forget to Meilisearch).
func (s *Service) IndexGame(g GameRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexGame(g); err != nil {
			log.Printf("search: index game %s: %v", g.ID, err)
		}
	}()
}

// IndexPlayer indexes a player (fire-and-forget to Meilisearch).
func (s *Service) IndexPlayer(p PlayerRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexPlayer(p); err != nil {
			log.Printf("search: index player %s: %v", p.ID, err)
		}
	}()
}

// IndexLocation indexes a location (fire-and-forget to Meilisearch).
func (s *Service) IndexLocation(l LocationRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexLocation(l); err != nil {
			log.Printf("search: index location %s: %v", l.ID, err)
		}
	}()
}

// ReindexAllFromPG reindexes all searchable entities from PostgreSQL into
// Meilisearch. Called at startup when Meilisearch is healthy.
func (s *Service) ReindexAllFromPG(ctx context.Context) {
	if s.meili == nil || !s.meili.Healthy() || s.pgfts == nil {
		return
	}
	games, players, locations, err := s.pgfts.LoadAllRecords(ctx)
	if err != nil {
		log.Printf("search: reindex load failed: %v", err)
		return
	}
	if err := s.meili.IndexGames(games); err != nil {
		log.Printf("search: reindex games: %v", err)
	}
	if err := s.meili.IndexPlayers(players); err != nil {
		log.Printf("search: reindex players: %v", err)
	}
	if err := s.meili.IndexLocations(locations); err != nil {
		log.Printf("search: reindex locations: %v", err)
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
