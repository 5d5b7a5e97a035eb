// Package indexdb maintains a queryable SQLite read model of the intent
// stream. The compressed JSONL journal remains the source of truth; this
// index exists for ad-hoc inspection and tooling.
package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"korkmmo/internal/sim/catalogs"
	"korkmmo/internal/sim/tuning"
	"korkmmo/internal/sim/world"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan world.IntentRecord
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// Sized for chat bursts; overflow drops rather than stalling the
		// world loop.
		ch: make(chan world.IntentRecord, 8192),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL suits the append-heavy workload; NORMAL durability is fine for a
	// secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS intents (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			at TEXT NOT NULL,
			player_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			ok INTEGER NOT NULL,
			reason TEXT,
			detail TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_intents_player ON intents(player_id, seq);`,
		`CREATE INDEX IF NOT EXISTS idx_intents_kind ON intents(kind, seq);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			player_id TEXT NOT NULL,
			joined_at TEXT NOT NULL,
			name TEXT NOT NULL,
			left_at TEXT,
			PRIMARY KEY (player_id, joined_at)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// WriteIntent enqueues a record for the writer goroutine. It never blocks:
// when the queue is full the record is dropped and counted.
func (s *SQLiteIndex) WriteIntent(rec world.IntentRecord) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- rec:
	default:
		s.dropped.Add(1)
	}
	return nil
}

// Dropped reports how many records overflowed the queue.
func (s *SQLiteIndex) Dropped() uint64 { return s.dropped.Load() }

// UpsertCatalogs stores the active recipe and loot tables plus the applied
// tuning, keyed by digest, so a session in the db can be matched to its
// content versions.
func (s *SQLiteIndex) UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type row struct {
		name   string
		digest string
		json   []byte
	}
	var rows []row
	if b, err := json.Marshal(cats.Recipes.List); err == nil {
		rows = append(rows, row{"recipes", cats.Recipes.Digest, b})
	}
	if b, err := json.Marshal(cats.Loot.ByBiome); err == nil {
		rows = append(rows, row{"loot_tables", cats.Loot.Digest, b})
	}
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, row{"tuning", hex.EncodeToString(sum[:]), b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.digest == "" && r.name != "tuning" {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// IntentCounts returns per-kind totals, for the admin surface and tests.
func (s *SQLiteIndex) IntentCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM intents GROUP BY kind`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		out[kind] = n
	}
	return out, rows.Err()
}

// Flush waits until the writer has drained and committed everything queued
// so far. Intended for tests and shutdown paths.
func (s *SQLiteIndex) Flush() {
	if s == nil || s.closed.Load() {
		return
	}
	for len(s.ch) > 0 {
		time.Sleep(5 * time.Millisecond)
	}
	// One more settle interval so the in-flight record commits.
	time.Sleep(20 * time.Millisecond)
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertIntent, _ := s.db.Prepare(`INSERT INTO intents(at,player_id,kind,ok,reason,detail) VALUES(?,?,?,?,?,?)`)
	insertSession, _ := s.db.Prepare(`INSERT OR REPLACE INTO sessions(player_id,joined_at,name,left_at) VALUES(?,?,?,NULL)`)
	closeSession, _ := s.db.Prepare(`UPDATE sessions SET left_at=? WHERE player_id=? AND left_at IS NULL`)
	defer func() {
		for _, st := range []*sql.Stmt{insertIntent, insertSession, closeSession} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx          *sql.Tx
		opCount     int
		lastCommit  = time.Now()
		commitEvery = 500
		commitWait  = time.Second
	)

	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for rec := range s.ch {
		if tx == nil {
			txx, err := s.db.BeginTx(ctx, nil)
			if err != nil {
				time.Sleep(50 * time.Millisecond)
				continue
			}
			tx = txx
		}

		at := rec.At.UTC().Format(time.RFC3339Nano)
		if insertIntent != nil {
			ok := 0
			if rec.OK {
				ok = 1
			}
			if _, err := tx.Stmt(insertIntent).Exec(at, rec.PlayerID, rec.Kind, ok, rec.Reason, rec.Detail); err != nil {
				rollback()
				continue
			}
			opCount++
		}

		switch rec.Kind {
		case "join":
			if insertSession != nil {
				if _, err := tx.Stmt(insertSession).Exec(rec.PlayerID, at, rec.Detail); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		case "leave":
			if closeSession != nil {
				if _, err := tx.Stmt(closeSession).Exec(at, rec.PlayerID); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}

		if opCount >= commitEvery || time.Since(lastCommit) >= commitWait || len(s.ch) == 0 {
			commit()
		}
	}

	commit()
}
