// Package auditlog is a JSON-Lines operation journal for mutating commands,
// grounded on the teacher's internal/audit/audit.go shape: a flat Entry
// struct, append-only writes, and malformed-line-skipping parsing. Logging
// never fails the caller's command (ground: the teacher's own comment,
// "Operations should not fail just because audit logging failed").
package auditlog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// FileName is the journal's name under the config directory.
const FileName = "audit.jsonl"

// Entry is one journal line. Optional fields are populated per operation;
// omitempty keeps unrelated operations' lines short.
type Entry struct {
	Timestamp string `json:"ts"` // RFC3339 with microseconds.
	ClientID  string `json:"client_id,omitempty"`
	Operation string `json:"op"` // e.g. "keys rotate", "files put".

	Vault      string   `json:"vault,omitempty"`
	Bucket     string   `json:"bucket,omitempty"`
	Keys       []string `json:"keys,omitempty"`
	BytesMoved int64    `json:"bytes,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Path returns <home>/.cybs3/audit.jsonl.
func Path(home string) string {
	return filepath.Join(home, ".cybs3", FileName)
}

// Log appends an entry to the journal. It never returns an error: a failure
// to create the directory, open the file, or write the line is dropped
// silently, and the caller is not told about it.
func Log(home string, entry Entry) {
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}

	path := Path(home)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return
	}

	// #nosec G306 -- the journal is a local operational record, not key material.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	_, _ = f.Write(append(data, '\n'))
}

// ReadEntries reads and parses every entry in the journal, returning an
// empty slice if it does not exist yet.
func ReadEntries(home string) ([]Entry, error) {
	data, err := os.ReadFile(Path(home))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ParseEntries(data)
}

// ParseEntries parses JSON-Lines data into Entries, silently skipping
// malformed lines so one corrupted append never hides the rest of the
// journal.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0
	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1
			if len(line) == 0 {
				continue
			}
			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				continue
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}
