package trajectory

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/veridyne/twinsampler/internal/state"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	prior         TEXT NOT NULL,
	sampler       TEXT NOT NULL,
	metadata_json TEXT,
	config_json   TEXT,
	initial_json  TEXT,
	steps         INTEGER NOT NULL,
	final_energy  REAL,
	run_error     TEXT,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS points (
	run_id      TEXT NOT NULL,
	step        INTEGER NOT NULL,
	energy      REAL NOT NULL,
	state_json  TEXT NOT NULL,
	PRIMARY KEY (run_id, step),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS run_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	event       TEXT NOT NULL,
	detail      TEXT,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS traces (
	run_id      TEXT PRIMARY KEY,
	energy_blob BLOB NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// #endregion schema

// #region archive

// Archive persists finished trajectories in SQLite for the inspect,
// replay, and fixture-export tools. The sampling core never opens one;
// archiving happens after a trajectory has been sealed and returned.
type Archive struct {
	db *sql.DB
}

// NewArchive opens (creating if needed) an archive database and runs
// migrations.
func NewArchive(dbPath string) (*Archive, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close closes the underlying database connection.
func (a *Archive) Close() error { return a.db.Close() }

// DB exposes the connection for the cmd tools' ad-hoc queries.
func (a *Archive) DB() *sql.DB { return a.db }

// #endregion archive

// #region save

// SaveRun writes a sealed trajectory, its points, and its dense energy
// trace atomically. initialJSON is the caller's pre-corruption seed state
// (needed to re-execute diffusion runs); runErr carries the truncation
// error text for partial trajectories, empty for clean runs.
func (a *Archive) SaveRun(t *Trajectory, configJSON, initialJSON, runErr string) error {
	metaJSON, err := json.Marshal(t.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var finalEnergy interface{}
	if e, ok := t.FinalEnergy(); ok {
		finalEnergy = e
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = tx.Exec(
		`INSERT INTO runs (run_id, prior, sampler, metadata_json, config_json, initial_json, steps, final_energy, run_error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.RunID, t.Prior, t.Sampler, string(metaJSON), nullIfEmpty(configJSON),
		nullIfEmpty(initialJSON), t.Len(), finalEnergy, nullIfEmpty(runErr), now,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, p := range t.Points {
		stateJSON, err := json.Marshal(p.State)
		if err != nil {
			return fmt.Errorf("marshal state at step %d: %w", p.Step, err)
		}
		_, err = tx.Exec(
			`INSERT INTO points (run_id, step, energy, state_json) VALUES (?, ?, ?, ?)`,
			t.RunID, p.Step, p.Energy, string(stateJSON),
		)
		if err != nil {
			return fmt.Errorf("insert point %d: %w", p.Step, err)
		}
	}

	_, err = tx.Exec(
		`INSERT INTO traces (run_id, energy_blob) VALUES (?, ?)`,
		t.RunID, encodeTrace(t.EnergyTrace()),
	)
	if err != nil {
		return fmt.Errorf("insert trace: %w", err)
	}

	return tx.Commit()
}

// #endregion save

// #region get

// GetRun reloads a trajectory by run id. The returned trajectory is
// sealed.
func (a *Archive) GetRun(runID string) (*Trajectory, error) {
	var t Trajectory
	var metaJSON sql.NullString
	err := a.db.QueryRow(
		`SELECT run_id, prior, sampler, metadata_json FROM runs WHERE run_id = ?`, runID,
	).Scan(&t.RunID, &t.Prior, &t.Sampler, &metaJSON)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	t.Metadata = make(map[string]string)
	if metaJSON.Valid && metaJSON.String != "" {
		if err := json.Unmarshal([]byte(metaJSON.String), &t.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}

	rows, err := a.db.Query(
		`SELECT step, energy, state_json FROM points WHERE run_id = ? ORDER BY step`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p Point
		var stateJSON string
		if err := rows.Scan(&p.Step, &p.Energy, &stateJSON); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		var s state.State
		if err := json.Unmarshal([]byte(stateJSON), &s); err != nil {
			return nil, fmt.Errorf("unmarshal state at step %d: %w", p.Step, err)
		}
		p.State = s
		t.Points = append(t.Points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	t.Seal()
	return &t, nil
}

// #endregion get

// #region list

// RunSummary is one row of the archive listing.
type RunSummary struct {
	RunID       string
	Prior       string
	Sampler     string
	ConfigJSON  string
	Steps       int
	FinalEnergy float64
	HasEnergy   bool
	RunError    string
	CreatedAt   time.Time
}

// ListRuns returns the most recent runs, newest first.
func (a *Archive) ListRuns(limit int) ([]RunSummary, error) {
	rows, err := a.db.Query(
		`SELECT run_id, prior, sampler, config_json, steps, final_energy, run_error, created_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var cfg, runErr sql.NullString
		var finalEnergy sql.NullFloat64
		var createdStr string
		if err := rows.Scan(&r.RunID, &r.Prior, &r.Sampler, &cfg, &r.Steps, &finalEnergy, &runErr, &createdStr); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.ConfigJSON = cfg.String
		r.RunError = runErr.String
		if finalEnergy.Valid {
			r.FinalEnergy = finalEnergy.Float64
			r.HasEnergy = true
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, r)
	}
	return out, rows.Err()
}

// #endregion list

// #region run-log

// LogEvent appends a run-scoped log entry (archived, diagnostics outcome,
// replay verdicts).
func (a *Archive) LogEvent(runID, event, detail string) error {
	_, err := a.db.Exec(
		`INSERT INTO run_log (run_id, event, detail, created_at) VALUES (?, ?, ?, ?)`,
		runID, event, nullIfEmpty(detail), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log event: %w", err)
	}
	return nil
}

// #endregion run-log

// #region trace-encoding

func encodeTrace(trace []float64) []byte {
	buf := make([]byte, len(trace)*8)
	for i, e := range trace {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(e))
	}
	return buf
}

// GetTrace decodes the dense energy trace for a run.
func (a *Archive) GetTrace(runID string) ([]float64, error) {
	var blob []byte
	err := a.db.QueryRow(`SELECT energy_blob FROM traces WHERE run_id = ?`, runID).Scan(&blob)
	if err != nil {
		return nil, fmt.Errorf("get trace %s: %w", runID, err)
	}
	trace := make([]float64, len(blob)/8)
	for i := range trace {
		trace[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return trace, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion trace-encoding
