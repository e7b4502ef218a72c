package store

import (
	"context"
	"errors"
	"fmt"
	"os"
)

type DoctorIssueLevel string

const (
	DoctorIssueLevelError DoctorIssueLevel = "error"
	DoctorIssueLevelWarn  DoctorIssueLevel = "warn"
)

type DoctorIssue struct {
	Level   DoctorIssueLevel `json:"level"`
	Code    string           `json:"code"`
	Message string           `json:"message"`
	Path    string           `json:"path,omitempty"`
	BatchID string           `json:"batchId,omitempty"`
}

type DoctorReport struct {
	Batches int           `json:"batches"`
	Issues  []DoctorIssue `json:"issues"`
}

func (r DoctorReport) HasErrors() bool {
	for _, it := range r.Issues {
		if it.Level == DoctorIssueLevelError {
			return true
		}
	}
	return false
}

var ErrDoctorIssuesFound = errors.New("doctor found errors")

// Doctor checks the config at cfgPath (the workspace config when empty) and
// the results database. Problems are reported as issues; the returned error is
// only for checks that could not run.
func (s Store) Doctor(ctx context.Context, cfgPath string) (DoctorReport, error) {
	var r DoctorReport

	cfgPath, _ = s.resolveConfigPath(cfgPath)
	if _, err := s.LoadConfig(cfgPath); err != nil {
		r.Issues = append(r.Issues, DoctorIssue{
			Level:   DoctorIssueLevelError,
			Code:    "config_invalid",
			Message: err.Error(),
			Path:    cfgPath,
		})
	}

	dbPath := s.sqlitePath()
	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		r.Issues = append(r.Issues, DoctorIssue{
			Level:   DoctorIssueLevelWarn,
			Code:    "no_database",
			Message: "no results imported yet",
			Path:    dbPath,
		})
		r.Issues = issuesOrEmpty(r.Issues)
		return r, nil
	}

	db, err := s.openSQLite(ctx)
	if err != nil {
		return r, err
	}
	defer db.Close()

	var integrity string
	if err := db.QueryRowContext(ctx, `PRAGMA integrity_check;`).Scan(&integrity); err != nil {
		return r, fmt.Errorf("integrity check: %w", err)
	}
	if integrity != "ok" {
		r.Issues = append(r.Issues, DoctorIssue{
			Level:   DoctorIssueLevelError,
			Code:    "sqlite_integrity",
			Message: integrity,
			Path:    dbPath,
		})
	}

	rows, err := db.QueryContext(ctx, `
		SELECT b.batch_id, b.entry_count, COUNT(e.seq)
		FROM batches b LEFT JOIN entries e ON e.batch_id = b.batch_id
		GROUP BY b.batch_id, b.entry_count
		ORDER BY b.rowid`)
	if err != nil {
		return r, err
	}
	for rows.Next() {
		var id string
		var want, got int
		if err := rows.Scan(&id, &want, &got); err != nil {
			_ = rows.Close()
			return r, err
		}
		r.Batches++
		switch {
		case want != got:
			r.Issues = append(r.Issues, DoctorIssue{
				Level:   DoctorIssueLevelError,
				Code:    "entry_count_mismatch",
				Message: fmt.Sprintf("batch records %d entries but %d are stored", want, got),
				BatchID: id,
			})
		case got == 0:
			r.Issues = append(r.Issues, DoctorIssue{
				Level:   DoctorIssueLevelWarn,
				Code:    "empty_batch",
				Message: "batch has no entries",
				BatchID: id,
			})
		}
	}
	if err := rows.Close(); err != nil {
		return r, err
	}
	if err := rows.Err(); err != nil {
		return r, err
	}

	var orphans int
	if err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM entries
		WHERE batch_id NOT IN (SELECT batch_id FROM batches)`).Scan(&orphans); err != nil {
		return r, err
	}
	if orphans > 0 {
		r.Issues = append(r.Issues, DoctorIssue{
			Level:   DoctorIssueLevelError,
			Code:    "orphan_entries",
			Message: fmt.Sprintf("%d entries belong to no batch", orphans),
		})
	}

	r.Issues = issuesOrEmpty(r.Issues)
	return r, nil
}

func issuesOrEmpty(xs []DoctorIssue) []DoctorIssue {
	if xs == nil {
		return []DoctorIssue{}
	}
	return xs
}
