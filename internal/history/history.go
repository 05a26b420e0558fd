// Package history stores tbcounter run summaries in a SQLite database.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	"github.com/db47h/hwtb"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed schema.sql
var schemaSQL string

// A Run is the stored summary of one harness run.
type Run struct {
	ID       string
	Started  time.Time
	Device   string
	VCDFile  string
	Result   hwtb.Result
	Passed   bool
	Failures int
}

// NewRun returns a Run for res with a fresh time ordered id.
func NewRun(started time.Time, device, vcdFile string, res *hwtb.Result) *Run {
	return &Run{
		ID:       uuid.Must(uuid.NewV7()).String(),
		Started:  started,
		Device:   device,
		VCDFile:  vcdFile,
		Result:   *res,
		Passed:   res.Passed(),
		Failures: res.Mismatches(),
	}
}

// Store is a run history database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(err, "open history")
	}
	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "connect to history")
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "apply history schema")
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Record stores r and its phase verdicts in a single transaction.
func (s *Store) Record(ctx context.Context, r *Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "record run")
	}
	defer tx.Rollback()

	res := &r.Result
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started, device, mode, cycles, steps, finished, passed, mismatches, vcd_file)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Started.UnixNano(), r.Device, res.Mode, int64(res.Cycles), int64(res.Steps),
		boolInt(res.Finished), boolInt(r.Passed), r.Failures, r.VCDFile)
	if err != nil {
		return errors.Wrapf(err, "record run %s", r.ID)
	}
	for i, v := range res.Verdicts {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO verdicts (run_id, seq, phase, ok, checks, mismatches) VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, i, v.Phase, boolInt(v.OK), v.Checks, v.Mismatches)
		if err != nil {
			return errors.Wrapf(err, "record verdict %s of run %s", v.Phase, r.ID)
		}
	}
	return errors.Wrap(tx.Commit(), "record run")
}

// Recent returns up to limit runs, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started, device, mode, cycles, steps, finished, passed, mismatches, vcd_file
		 FROM runs ORDER BY started DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		var started, cycles, steps int64
		var finished, passed int
		if err := rows.Scan(&r.ID, &started, &r.Device, &r.Result.Mode, &cycles, &steps,
			&finished, &passed, &r.Failures, &r.VCDFile); err != nil {
			return nil, errors.Wrap(err, "scan run")
		}
		r.Started = time.Unix(0, started)
		r.Result.Cycles, r.Result.Steps = uint64(cycles), uint64(steps)
		r.Result.Finished = finished != 0
		r.Passed = passed != 0
		runs = append(runs, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "query runs")
	}
	rows.Close()

	for _, r := range runs {
		if r.Result.Verdicts, err = s.verdicts(ctx, r.ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *Store) verdicts(ctx context.Context, id string) ([]hwtb.Verdict, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT phase, ok, checks, mismatches FROM verdicts WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, errors.Wrapf(err, "query verdicts of run %s", id)
	}
	defer rows.Close()

	var vs []hwtb.Verdict
	for rows.Next() {
		var v hwtb.Verdict
		var ok int
		if err := rows.Scan(&v.Phase, &ok, &v.Checks, &v.Mismatches); err != nil {
			return nil, errors.Wrap(err, "scan verdict")
		}
		v.OK = ok != 0
		vs = append(vs, v)
	}
	return vs, errors.Wrap(rows.Err(), "query verdicts")
}
