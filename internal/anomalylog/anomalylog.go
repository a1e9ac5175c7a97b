// Package anomalylog implements the append-only anomaly log (spec §6):
// newline-delimited JSON records with a UTC timestamp, written so
// that each record is appended atomically (either the whole record
// lands, or nothing does). Grounded on
// internal/database/file_distance_cache.go's file-backed-store shape,
// adapted from atomic-whole-file-rewrite to atomic single-record
// append, since the contract here is "append a record", not "replace
// the cache".
package anomalylog

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record is one anomaly-log entry: a live event that was evaluated
// for reoptimization, whether it actually triggered one, and why.
type Record struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Reason      string    `json:"reason"`
	DelayMin    float64   `json:"delay_min"`
	Rerouted    bool      `json:"rerouted"`
	RouteCost   float64   `json:"route_cost,omitempty"`
}

// Log appends Records to a single file, one JSON object per line.
type Log struct {
	path string
	mu   sync.Mutex
}

// Open prepares a Log backed by the file at path, creating it (and
// any missing parent directories are the caller's responsibility) if
// it does not already exist.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open anomaly log: %w", err)
	}
	f.Close()

	log.Printf("[ANOMALY] using anomaly log file: %s", path)
	return &Log{path: path}, nil
}

// Append writes one record as a single line. The write is guarded by
// a mutex and uses a single os.File.Write call on pre-marshaled bytes
// so that, on the append-mode POSIX semantics this relies on, the
// record lands whole or not at all.
func (l *Log) Append(rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	} else {
		rec.Timestamp = rec.Timestamp.UTC()
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal anomaly record: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open anomaly log for append: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("failed to append anomaly record: %w", err)
	}

	return nil
}
