package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search executes a UNION ALL query across games, players, and locations
// using plainto_tsquery and ts_rank, with ts_headline for game snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tsQuery := "plainto_tsquery('english', $1)"
	args := []any{q.Text, q.OwnerID}

	var subQueries []string

	if q.FilterType == "" || q.FilterType == ResultGame {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'game'::text AS type, g.id, g.name,
				ts_headline('english', coalesce(g.description, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				g.owner_id,
				ts_rank(g.fts, %s) AS rank
			FROM games g
			WHERE g.fts @@ %s AND g.owner_id = $2`, tsQuery, tsQuery, tsQuery))
	}

	if q.FilterType == "" || q.FilterType == ResultPlayer {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'player'::text AS type, p.id, p.name,
				''::text AS snippet,
				p.owner_id,
				ts_rank(p.fts, %s) AS rank
			FROM players p
			WHERE p.fts @@ %s AND p.owner_id = $2`, tsQuery, tsQuery))
	}

	if q.FilterType == "" || q.FilterType == ResultLocation {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'location'::text AS type, l.id, l.name,
				''::text AS snippet,
				l.owner_id,
				ts_rank(l.fts, %s) AS rank
			FROM locations l
			WHERE l.fts @@ %s AND l.owner_id = $2`, tsQuery, tsQuery))
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub",
		strings.Join(subQueries, " UNION ALL "))

	dataSQL := fmt.Sprintf(`SELECT type, id, name, snippet, owner_id
		FROM (%s) sub
		ORDER BY rank DESC
		LIMIT %d OFFSET %d`,
		strings.Join(subQueries, " UNION ALL "),
		limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Name, &r.Snippet, &r.OwnerID); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all searchable records for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]GameRecord, []PlayerRecord, []LocationRecord, error) {
	gameRows, err := p.db.QueryContext(ctx, `
		SELECT id, name, description, owner_id
		FROM games
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load games: %w", err)
	}
	defer gameRows.Close()

	games := make([]GameRecord, 0)
	for gameRows.Next() {
		var g GameRecord
		if err := gameRows.Scan(&g.ID, &g.Name, &g.Description, &g.OwnerID); err != nil {
			return nil, nil, nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, g)
	}
	if err := gameRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate games: %w", err)
	}

	playerRows, err := p.db.QueryContext(ctx, `
		SELECT id, name, owner_id
		FROM players
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load players: %w", err)
	}
	defer playerRows.Close()

	players := make([]PlayerRecord, 0)
	for playerRows.Next() {
		var pl PlayerRecord
		if err := playerRows.Scan(&pl.ID, &pl.Name, &pl.OwnerID); err != nil {
			return nil, nil, nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, pl)
	}
	if err := playerRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate players: %w", err)
	}

	locationRows, err := p.db.QueryContext(ctx, `
		SELECT id, name, owner_id
		FROM locations
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load locations: %w", err)
	}
	defer locationRows.Close()

	locations := make([]LocationRecord, 0)
	for locationRows.Next() {
		var l LocationRecord
		if err := locationRows.Scan(&l.ID, &l.Name, &l.OwnerID); err != nil {
			return nil, nil, nil, fmt.Errorf("scan location: %w", err)
		}
		locations = append(locations, l)
	}
	if err := locationRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate locations: %w", err)
	}

	return games, players, locations, nil
}
