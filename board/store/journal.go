// ABOUTME: Append-only JSONL journal of board events, kept beside the two-key snapshot.
// ABOUTME: Provides fsynced append, sequential replay, and repair of truncated trailing lines.
package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/2389-research/kanban/board/core"
)

// Journal is an append-only JSONL event log backed by a file.
// Each line is a single JSON-serialized Event followed by a newline.
type Journal struct {
	path string
	file *os.File
}

// OpenJournal opens (or creates) a journal at path in append mode.
func OpenJournal(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create parent dirs: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return &Journal{path: path, file: file}, nil
}

// Path returns the path to the underlying file.
func (j *Journal) Path() string {
	return j.path
}

// Append writes one event as a JSON line and fsyncs.
func (j *Journal) Append(event *core.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := j.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write event line: %w", err)
	}
	if err := j.file.Sync(); err != nil {
		return fmt.Errorf("fsync: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (j *Journal) Close() error {
	return j.file.Close()
}

func newLineScanner(f *os.File) *bufio.Scanner {
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return scanner
}

// ReplayJournal reads all events in order. A missing file yields no events.
func ReplayJournal(path string) ([]core.Event, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open journal for replay: %w", err)
	}
	defer func() { _ = file.Close() }()

	var events []core.Event
	scanner := newLineScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var event core.Event
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			return nil, fmt.Errorf("parse event line: %w", err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan journal: %w", err)
	}
	return events, nil
}

// RepairJournal keeps only complete, parseable lines and atomically rewrites
// the file. Returns the number of events retained.
func RepairJournal(path string) (int, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("open journal for repair: %w", err)
	}

	var valid strings.Builder
	count := 0
	scanner := newLineScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var event core.Event
		if json.Unmarshal([]byte(line), &event) == nil {
			valid.WriteString(line)
			valid.WriteByte('\n')
			count++
		}
	}
	scanErr := scanner.Err()
	_ = file.Close()
	if scanErr != nil {
		return 0, fmt.Errorf("scan journal for repair: %w", scanErr)
	}

	if err := writeFileAtomic(path, []byte(valid.String())); err != nil {
		return 0, fmt.Errorf("rewrite journal: %w", err)
	}
	return count, nil
}
