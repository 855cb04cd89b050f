// Package db persists scan runs and per-muon feature rows to SQLite.
//
// Every flushed event frame becomes a batch of rows tagged with the run
// and event identifiers, so concurrent scans can interleave events in
// the sink without losing ordering information.
package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dispmuon/displacement.report/internal/muon"
)

// DB wraps the SQLite handle for the feature sink.
type DB struct {
	*sql.DB
}

// NewDB opens (creating if necessary) the SQLite database at path.
// Schema creation is separate: call MigrateUp with a migrations
// directory, or InitSchema for the inline bootstrap.
func NewDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	return &DB{sqlDB}, nil
}

// featureColumns returns the per-muon feature column names in insert
// order. The threshold and exponent families are generated from the
// tables declared in the muon package, keeping the schema aligned with
// muon.MuonFeatureRecord.Values.
func featureColumns() []string {
	cols := []string{"pt", "eta", "phi", "dz", "d0", "impact_factor", "charge"}
	for t := 0; t < muon.NumThresholds; t++ {
		cols = append(cols, "extratracks_"+muon.ThresholdSuffix(t)+"mm")
	}
	for t := 0; t < muon.NumThresholds; t++ {
		cols = append(cols, "sum_extra_track_pt_"+muon.ThresholdSuffix(t)+"mm")
	}
	for k := 0; k < muon.NumRatioExponents; k++ {
		cols = append(cols, "charge_weighted_ratio_"+muon.RatioSuffix(k))
	}
	return append(cols, "max_pt_ratio", "pt_range", "sum_extra_pt", "extra_pt_ratio")
}

// featureColumnDefs returns the CREATE TABLE definitions matching
// featureColumns. Counts and the charge are integral, everything else
// is floating point.
func featureColumnDefs() []string {
	defs := make([]string, 0, 64)
	for _, col := range featureColumns() {
		typ := "DOUBLE"
		if col == "charge" || strings.HasPrefix(col, "extratracks_") {
			typ = "BIGINT"
		}
		defs = append(defs, fmt.Sprintf("%s %s", col, typ))
	}
	return defs
}

// InitSchema creates the sink tables when they do not exist yet. Tools
// running with a migrations directory should prefer MigrateUp; tests
// and ad-hoc scans use this inline bootstrap.
func (db *DB) InitSchema() error {
	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS scan_runs (
			run_id           TEXT PRIMARY KEY,
			source           TEXT,
			started_at       TIMESTAMP,
			finished_at      TIMESTAMP,
			events           BIGINT DEFAULT 0,
			muons            BIGINT DEFAULT 0,
			ancestry_faults  BIGINT DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS muon_features (
			run_id       TEXT,
			event_id     BIGINT,
			category     TEXT,
			category_idx BIGINT,
			%s
		);
		CREATE INDEX IF NOT EXISTS idx_muon_features_run_cat
			ON muon_features(run_id, category);
		CREATE TABLE IF NOT EXISTS truth_muon_matches (
			run_id            TEXT,
			event_id          BIGINT,
			muon_index        BIGINT,
			reco_pt           DOUBLE,
			reco_eta          DOUBLE,
			reco_phi          DOUBLE,
			truth_pt          DOUBLE,
			truth_eta         DOUBLE,
			truth_phi         DOUBLE,
			truth_pdg         BIGINT,
			is_pileup         INTEGER,
			is_signal         INTEGER,
			flag_prompt       INTEGER,
			flag_hard_process INTEGER,
			flag_last_copy    INTEGER,
			photon_mother     INTEGER
		);
	`, strings.Join(featureColumnDefs(), ",\n\t\t\t"))

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// InsertRun records the start of a scan run.
func (db *DB) InsertRun(runID, source string, startedAt time.Time) error {
	_, err := db.Exec(
		`INSERT INTO scan_runs (run_id, source, started_at) VALUES (?, ?, ?)`,
		runID, source, startedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun records the completion counters of a scan run.
func (db *DB) FinishRun(runID string, finishedAt time.Time, events, muons int64, ancestryFaults int64) error {
	_, err := db.Exec(
		`UPDATE scan_runs SET finished_at = ?, events = ?, muons = ?, ancestry_faults = ? WHERE run_id = ?`,
		finishedAt, events, muons, ancestryFaults, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// InsertFrame persists one flushed event frame inside a single
// transaction: the categorised feature rows plus the truth-linked
// records. The transaction is the per-event serialization point, so a
// failure partway through one event cannot corrupt previously flushed
// events.
func (db *DB) InsertFrame(runID string, frame *muon.Frame) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin frame transaction: %w", err)
	}
	defer tx.Rollback()

	cols := featureColumns()
	insertSQL := fmt.Sprintf(
		`INSERT INTO muon_features (run_id, event_id, category, category_idx, %s) VALUES (?, ?, ?, ?%s)`,
		strings.Join(cols, ", "),
		strings.Repeat(", ?", len(cols)),
	)
	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return fmt.Errorf("prepare feature insert: %w", err)
	}
	defer stmt.Close()

	for _, cat := range muon.Categories() {
		buf := &frame.Categories[cat]
		for i := 0; i < buf.Len(); i++ {
			rec := buf.Record(i)
			args := make([]any, 0, 4+len(cols))
			args = append(args, runID, frame.EventID, cat.String(), i)
			for _, v := range rec.Values() {
				args = append(args, v)
			}
			if _, err := stmt.Exec(args...); err != nil {
				return fmt.Errorf("insert feature row (event %d, %s): %w", frame.EventID, cat, err)
			}
		}
	}

	for _, row := range frame.TruthRows {
		_, err := tx.Exec(
			`INSERT INTO truth_muon_matches (
				run_id, event_id, muon_index,
				reco_pt, reco_eta, reco_phi,
				truth_pt, truth_eta, truth_phi, truth_pdg,
				is_pileup, is_signal,
				flag_prompt, flag_hard_process, flag_last_copy, photon_mother
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, frame.EventID, row.Index,
			row.RecoPt, row.RecoEta, row.RecoPhi,
			row.TruthPt, row.TruthEta, row.TruthPhi, row.TruthPDG,
			row.IsPileup, row.IsSignal,
			row.Prompt, row.HardProcess, row.LastCopy, row.PhotonMother,
		)
		if err != nil {
			return fmt.Errorf("insert truth row (event %d, muon %d): %w", frame.EventID, row.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit frame (event %d): %w", frame.EventID, err)
	}
	return nil
}

// CategoryCounts returns the number of feature rows per category for
// one run, or across all runs when runID is empty.
func (db *DB) CategoryCounts(runID string) (map[string]int64, error) {
	query := `SELECT category, COUNT(*) FROM muon_features`
	var args []any
	if runID != "" {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	query += ` GROUP BY category`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query category counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var cat string
		var n int64
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		counts[cat] = n
	}
	return counts, rows.Err()
}

// FeatureColumn fetches a single feature column for one category. The
// column name is validated against the generated schema so callers
// cannot smuggle arbitrary SQL into the identifier position.
func (db *DB) FeatureColumn(runID, category, column string) ([]float64, error) {
	if !validFeatureColumn(column) {
		return nil, fmt.Errorf("unknown feature column %q", column)
	}

	query := fmt.Sprintf(`SELECT %s FROM muon_features WHERE category = ?`, column)
	args := []any{category}
	if runID != "" {
		query += ` AND run_id = ?`
		args = append(args, runID)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query feature column %s: %w", column, err)
	}
	defer rows.Close()

	var vals []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan feature value: %w", err)
		}
		vals = append(vals, v)
	}
	return vals, rows.Err()
}

// validFeatureColumn reports whether column is one of the generated
// feature columns.
func validFeatureColumn(column string) bool {
	for _, col := range featureColumns() {
		if col == column {
			return true
		}
	}
	return false
}

// MeanRatioCurve returns the per-exponent mean of the charge-weighted
// ratios for one category.
func (db *DB) MeanRatioCurve(runID, category string) ([muon.NumRatioExponents]float64, error) {
	var curve [muon.NumRatioExponents]float64
	for k := 0; k < muon.NumRatioExponents; k++ {
		col := "charge_weighted_ratio_" + muon.RatioSuffix(k)
		query := fmt.Sprintf(`SELECT COALESCE(AVG(%s), 0) FROM muon_features WHERE category = ?`, col)
		args := []any{category}
		if runID != "" {
			query += ` AND run_id = ?`
			args = append(args, runID)
		}
		if err := db.QueryRow(query, args...).Scan(&curve[k]); err != nil {
			return curve, fmt.Errorf("query mean ratio %s: %w", col, err)
		}
	}
	return curve, nil
}
