package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"

	"scorekeep/api/internal/util"
)

// Exercises roster deletion against a real database: shared_match_players and
// shared_match_player_roles hold foreign keys on match_players, so a roster
// rewrite on a mirrored match must remove the mirrors first or the whole
// transaction aborts.
func TestDeleteMatchPlayersRemovesSeatMirrors(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := Open(ctx, getTestDatabaseURL(t))
	if err != nil {
		t.Skipf("database not reachable: %v", err)
	}
	defer db.Close()

	if err := ApplyMigrations(ctx, db, "../../db/migrations"); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	ownerID := util.NewID("usr")
	friendID := util.NewID("usr")
	gameID := util.NewID("gam")
	sheetID := util.NewID("sht")
	roleID := util.NewID("rol")
	playerID := util.NewID("ply")
	matchID := util.NewID("mat")
	seatID := util.NewID("mpl")
	seatRoleID := util.NewID("mpr")
	sharedMatchID := util.NewID("smt")
	seatMirrorID := util.NewID("smp")
	seatRoleMirrorID := util.NewID("smr")

	seeds := []struct {
		query string
		args  []any
	}{
		{`INSERT INTO users (id, display_name, email) VALUES ($1, 'Owner', $2)`, []any{ownerID, ownerID + "@example.com"}},
		{`INSERT INTO users (id, display_name, email) VALUES ($1, 'Friend', $2)`, []any{friendID, friendID + "@example.com"}},
		{`INSERT INTO games (id, owner_id, name) VALUES ($1, $2, 'Cascadia')`, []any{gameID, ownerID}},
		{`INSERT INTO scoresheets (id, owner_id, game_id, name) VALUES ($1, $2, $3, 'Standard')`, []any{sheetID, ownerID, gameID}},
		{`INSERT INTO game_roles (id, owner_id, game_id, name) VALUES ($1, $2, $3, 'Starter')`, []any{roleID, ownerID, gameID}},
		{`INSERT INTO players (id, owner_id, name) VALUES ($1, $2, 'Friend')`, []any{playerID, ownerID}},
		{`INSERT INTO matches (id, owner_id, game_id, scoresheet_id, name) VALUES ($1, $2, $3, $4, 'Game night')`, []any{matchID, ownerID, gameID, sheetID}},
		{`INSERT INTO match_players (id, match_id, player_id) VALUES ($1, $2, $3)`, []any{seatID, matchID, playerID}},
		{`INSERT INTO match_player_roles (id, match_player_id, game_role_id) VALUES ($1, $2, $3)`, []any{seatRoleID, seatID, roleID}},
		{`INSERT INTO shared_matches (id, owner_id, shared_with_id, match_id) VALUES ($1, $2, $3, $4)`, []any{sharedMatchID, ownerID, friendID, matchID}},
		{`INSERT INTO shared_match_players (id, owner_id, shared_with_id, match_player_id, shared_match_id) VALUES ($1, $2, $3, $4, $5)`, []any{seatMirrorID, ownerID, friendID, seatID, sharedMatchID}},
		{`INSERT INTO shared_match_player_roles (id, shared_match_player_id, game_role_id) VALUES ($1, $2, $3)`, []any{seatRoleMirrorID, seatMirrorID, roleID}},
	}
	for _, seed := range seeds {
		if _, err := db.ExecContext(ctx, seed.query, seed.args...); err != nil {
			t.Fatalf("seed %q: %v", seed.query, err)
		}
	}
	defer func() {
		cleanup := []struct {
			query string
			args  []any
		}{
			{`DELETE FROM shared_match_player_roles WHERE id=$1`, []any{seatRoleMirrorID}},
			{`DELETE FROM shared_match_players WHERE id=$1`, []any{seatMirrorID}},
			{`DELETE FROM shared_matches WHERE id=$1`, []any{sharedMatchID}},
			{`DELETE FROM match_player_roles WHERE id=$1`, []any{seatRoleID}},
			{`DELETE FROM match_players WHERE id=$1`, []any{seatID}},
			{`DELETE FROM matches WHERE id=$1`, []any{matchID}},
			{`DELETE FROM players WHERE id=$1`, []any{playerID}},
			{`DELETE FROM game_roles WHERE id=$1`, []any{roleID}},
			{`DELETE FROM scoresheets WHERE id=$1`, []any{sheetID}},
			{`DELETE FROM games WHERE id=$1`, []any{gameID}},
			{`DELETE FROM users WHERE id IN ($1, $2)`, []any{ownerID, friendID}},
		}
		for _, c := range cleanup {
			_, _ = db.ExecContext(ctx, c.query, c.args...)
		}
	}()

	st := NewPostgresStore(db)
	err = st.WithTx(ctx, func(tx *PostgresStore) error {
		return tx.DeleteMatchPlayers(ctx, matchID)
	})
	if err != nil {
		t.Fatalf("DeleteMatchPlayers: %v", err)
	}

	var count int
	row := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shared_match_players WHERE shared_match_id=$1`, sharedMatchID)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("count seat mirrors: %v", err)
	}
	if count != 0 {
		t.Fatalf("got %d seat mirrors after roster delete, want 0", count)
	}
	row = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM match_players WHERE match_id=$1`, matchID)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("count roster rows: %v", err)
	}
	if count != 0 {
		t.Fatalf("got %d roster rows after delete, want 0", count)
	}

	// The match mirror itself survives a roster rewrite; only DeleteMatch
	// takes it down together with the match.
	if _, err := st.GetSharedMatch(ctx, ownerID, friendID, matchID); err != nil {
		t.Fatalf("match mirror lost on roster delete: %v", err)
	}

	err = st.WithTx(ctx, func(tx *PostgresStore) error {
		return tx.DeleteMatch(ctx, matchID)
	})
	if err != nil {
		t.Fatalf("DeleteMatch: %v", err)
	}
	if _, err := st.GetMatch(ctx, matchID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("match still present after delete: %v", err)
	}
	if _, err := st.GetSharedMatch(ctx, ownerID, friendID, matchID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("match mirror still present after delete: %v", err)
	}
}

func getTestDatabaseURL(t *testing.T) string {
	t.Helper()
	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		return url
	}
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "scorekeep")
	password := envOr("POSTGRES_PASSWORD", "scorekeep")
	dbname := envOr("POSTGRES_DB", "scorekeep")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, dbname)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
