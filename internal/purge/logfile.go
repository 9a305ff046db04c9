package purge

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"mastogone/internal/model"
)

// FileError wraps log/backup I/O failures so the CLI can map them to a
// distinct exit code.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string { return fmt.Sprintf("file %s: %v", e.Path, e.Err) }
func (e *FileError) Unwrap() error { return e.Err }

// appendFile is an append-only, owner-readable output file. Entries are
// written unbuffered so a killed process leaves a valid prefix.
type appendFile struct {
	path string
	f    *os.File
}

func openAppend(path string) (*appendFile, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	return &appendFile{path: path, f: f}, nil
}

func (w *appendFile) Close() error {
	if w == nil || w.f == nil {
		return nil
	}
	return w.f.Close()
}

// writeLogEntry appends one plain-text block: timestamp, flattened content,
// and a separator line.
func (w *appendFile) writeLogEntry(createdAt time.Time, text string) error {
	_, err := fmt.Fprintf(w.f, "%s UTC  %s\n---\n", createdAt.Format("2006-01-02 15:04:05"), text)
	if err != nil {
		return &FileError{Path: w.path, Err: err}
	}
	return nil
}

// backupRecord is one JSONL line per deleted status. Status timestamps
// marshal as RFC 3339 strings.
type backupRecord struct {
	ID       string       `json:"id"`
	Datetime string       `json:"datetime"`
	Status   model.Status `json:"status"`
}

func (w *appendFile) writeBackupRecord(c model.Candidate) error {
	rec := backupRecord{ID: c.ID, Datetime: c.CreatedAt.Format(time.RFC3339), Status: c.Status}
	b, err := json.Marshal(rec)
	if err != nil {
		return &FileError{Path: w.path, Err: err}
	}
	if _, err := w.f.Write(append(b, '\n')); err != nil {
		return &FileError{Path: w.path, Err: err}
	}
	return nil
}
