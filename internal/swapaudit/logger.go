// Package swapaudit persists an append-only, tamper-evident record of
// every swap execution step alongside the coordinator's structured zap
// logging. Grounded on the teacher's internal/services/audit/logger.go
// (same NDJSON-append-and-fsync discipline), retargeted from wallet
// operations onto domain.Step entries keyed by swap ID.
package swapaudit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/swapcore/swapcore/internal/domain"
)

// Entry is one audited step, tagged with the swap it belongs to.
type Entry struct {
	SwapID string      `json:"swap_id"`
	Step   domain.Step `json:"step"`
}

// Logger appends Entry records to an NDJSON file, fsyncing after every
// write so a crash mid-swap never loses the last recorded step.
type Logger struct {
	filePath string
	mu       sync.Mutex
}

// New creates a Logger writing to filePath, creating parent directories
// with owner-only permissions.
func New(filePath string) (*Logger, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("swapaudit: creating log directory: %w", err)
	}
	return &Logger{filePath: filePath}, nil
}

// Record appends one step for the given swap.
func (l *Logger) Record(swapID string, step domain.Step) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.OpenFile(l.filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("swapaudit: opening log: %w", err)
	}
	defer file.Close()

	line, err := json.Marshal(Entry{SwapID: swapID, Step: step})
	if err != nil {
		return fmt.Errorf("swapaudit: marshaling entry: %w", err)
	}
	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("swapaudit: writing entry: %w", err)
	}
	return file.Sync()
}

// ReadAll returns every recorded entry for a given swap, in append
// order, for post-hoc reconciliation or dispute resolution.
func (l *Logger) ReadAll(swapID string) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.Open(l.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("swapaudit: reading log: %w", err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue // skip malformed lines rather than fail the whole read
		}
		if swapID == "" || entry.SwapID == swapID {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("swapaudit: scanning log: %w", err)
	}
	return entries, nil
}
