package reporter

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	bolt "go.etcd.io/bbolt"

	"infercheck/toolkit"
)

var bucketRuns = []byte("runs")

// RunRecord is the durable summary of one completed run.
type RunRecord struct {
	Service     string             `json:"service"`
	Environment string             `json:"environment"`
	Scope       string             `json:"scope"`
	StartedAt   string             `json:"started_at"`
	Summary     toolkit.RunSummary `json:"summary"`
}

// History keeps run summaries in a small BoltDB file so past runs survive
// report pruning.
type History struct {
	db *bolt.DB
}

// OpenHistory opens (or creates) the history database at the given path.
func OpenHistory(path string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("prepare history directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history db %q: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRuns)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare history bucket: %w", err)
	}
	return &History{db: db}, nil
}

func (h *History) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	return h.db.Close()
}

// Record appends one run summary. Keys are the RFC3339 start time, so a
// cursor walk returns runs in chronological order.
func (h *History) Record(report toolkit.RunReport, scope string) error {
	rec := RunRecord{
		Service:     report.Service,
		Environment: report.Environment,
		Scope:       scope,
		StartedAt:   report.StartedAt,
		Summary:     report.Summary,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal run record: %w", err)
	}

	return h.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRuns).Put([]byte(rec.StartedAt), data)
	})
}

// Recent returns up to n run records, newest first.
func (h *History) Recent(n int) ([]RunRecord, error) {
	var records []RunRecord
	err := h.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketRuns).Cursor()
		for k, v := c.Last(); k != nil && len(records) < n; k, v = c.Prev() {
			var rec RunRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode run record %q: %w", k, err)
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
