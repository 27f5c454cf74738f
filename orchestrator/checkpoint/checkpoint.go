// ABOUTME: Sqlite-backed RunRecord store, one row per generation run, updated in place on each Save.
// ABOUTME: Read by --resume, which looks up the record stored under the current run's ID; the Orchestrator does not skip phases based on it.
package checkpoint

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/BillChan226/multiagent-gen/core"
)

// Record mirrors orchestrator.RunRecord for storage; kept independent of the
// orchestrator package to avoid a storage-layer ↔ domain-layer import cycle.
type Record struct {
	RunID           string
	Name            string
	Goal            string
	StartedAt       time.Time
	Phase           string
	PhasesCompleted []string
	Outcome         string
}

// Store is a sqlite-backed table of RunRecords (one upserted row per run), one file per
// workspace (<output-dir>/.checkpoint/runs.db).
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the checkpoint database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, core.NewFatalError("checkpoint.Open", "opening checkpoint db", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, core.NewFatalError("checkpoint.Open", "creating schema", err)
	}
	return &Store{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id           TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	goal             TEXT NOT NULL,
	started_at       TEXT NOT NULL,
	phase            TEXT NOT NULL,
	phases_completed TEXT NOT NULL,
	outcome          TEXT NOT NULL
);
`

// Save upserts rec by run ID, recording the latest phase transition.
func (s *Store) Save(rec Record) error {
	phases, err := json.Marshal(rec.PhasesCompleted)
	if err != nil {
		return core.NewFatalError("checkpoint.Save", "marshaling phases_completed", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO runs (run_id, name, goal, started_at, phase, phases_completed, outcome)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			phase = excluded.phase,
			phases_completed = excluded.phases_completed,
			outcome = excluded.outcome
	`, rec.RunID, rec.Name, rec.Goal, rec.StartedAt.Format(time.RFC3339), rec.Phase, string(phases), rec.Outcome)
	if err != nil {
		return core.NewFatalError("checkpoint.Save", "saving run record", err)
	}
	return nil
}

// Load returns the record for runID, and whether it was found.
func (s *Store) Load(runID string) (Record, bool, error) {
	row := s.db.QueryRow(`
		SELECT run_id, name, goal, started_at, phase, phases_completed, outcome
		FROM runs WHERE run_id = ?
	`, runID)

	var rec Record
	var startedAt, phases string
	err := row.Scan(&rec.RunID, &rec.Name, &rec.Goal, &startedAt, &rec.Phase, &phases, &rec.Outcome)
	if err == sql.ErrNoRows {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, core.NewFatalError("checkpoint.Load", "reading run record", err)
	}

	rec.StartedAt, err = time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return Record{}, false, core.NewFatalError("checkpoint.Load", "parsing started_at", err)
	}
	if err := json.Unmarshal([]byte(phases), &rec.PhasesCompleted); err != nil {
		return Record{}, false, core.NewFatalError("checkpoint.Load", "parsing phases_completed", err)
	}
	return rec, true, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
