// Package state persists the dynamic run-to-run records of the
// manager: per-pair source watermarks and per-megathread identities.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"submanager/internal/config"
)

// PairRecord is the dynamic record of one sync pair.
// Params: last synced source revision timestamp (unix seconds).
// Returns: staleness watermark for skip decisions.
type PairRecord struct {
	SourceTimestamp int64 `json:"source_timestamp" toml:"source_timestamp"`
}

// ThreadRecord is the dynamic record of one megathread.
// Params: embedded pair watermark plus rotation counter and live post id.
// Returns: identity the lifecycle engine reads and advances.
type ThreadRecord struct {
	PairRecord
	ThreadNumber int    `json:"thread_number" toml:"thread_number"`
	ThreadID     string `json:"thread_id" toml:"thread_id"`
}

// Document is the full dynamic state file.
// Params: records keyed by the configured pair and megathread ids.
// Returns: mutable store; unknown ids are retained across runs.
type Document struct {
	Sync       map[string]*PairRecord   `json:"sync" toml:"sync"`
	Megathread map[string]*ThreadRecord `json:"megathread" toml:"megathread"`
}

// Load reads the dynamic state file.
// Params: file path; format chosen by extension (.json or .toml).
// Returns: parsed document, or an empty one when the file is absent.
func Load(path string) (Document, bool, error) {
	doc := Document{
		Sync:       map[string]*PairRecord{},
		Megathread: map[string]*ThreadRecord{},
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, false, nil
	}
	if err != nil {
		return doc, false, fmt.Errorf("read dynamic state %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &doc)
	case ".toml":
		err = toml.Unmarshal(data, &doc)
	default:
		return doc, false, fmt.Errorf("%w: unsupported dynamic state format %q", config.ErrConfiguration, ext)
	}
	if err != nil {
		return doc, false, fmt.Errorf("decode dynamic state %s: %w", path, err)
	}
	if doc.Sync == nil {
		doc.Sync = map[string]*PairRecord{}
	}
	if doc.Megathread == nil {
		doc.Megathread = map[string]*ThreadRecord{}
	}
	return doc, true, nil
}

// EnsureSync returns the live record for a pair id, creating it on
// first sight.
// Params: pair id.
// Returns: record pointer owned by the document.
func (d *Document) EnsureSync(id string) *PairRecord {
	if rec, ok := d.Sync[id]; ok {
		return rec
	}
	rec := &PairRecord{}
	d.Sync[id] = rec
	return rec
}

// EnsureThread returns the live record for a megathread id, seeding it
// from the configured initial state on first sight.
// Params: megathread id, configured initial values.
// Returns: record pointer owned by the document.
func (d *Document) EnsureThread(id string, initial config.InitialState) *ThreadRecord {
	if rec, ok := d.Megathread[id]; ok {
		return rec
	}
	rec := &ThreadRecord{
		ThreadNumber: initial.ThreadNumber,
		ThreadID:     initial.ThreadID,
	}
	d.Megathread[id] = rec
	return rec
}

// Snapshot deep-copies the document.
// Params: none.
// Returns: independent copy for change detection before a run.
func (d Document) Snapshot() Document {
	out := Document{
		Sync:       make(map[string]*PairRecord, len(d.Sync)),
		Megathread: make(map[string]*ThreadRecord, len(d.Megathread)),
	}
	for id, rec := range d.Sync {
		cp := *rec
		out.Sync[id] = &cp
	}
	for id, rec := range d.Megathread {
		cp := *rec
		out.Megathread[id] = &cp
	}
	return out
}

// Equal reports whether two documents hold identical records.
// Params: other document.
// Returns: true when a save would write the same content.
func (d Document) Equal(other Document) bool {
	return reflect.DeepEqual(d.Sync, other.Sync) &&
		reflect.DeepEqual(d.Megathread, other.Megathread)
}

// Save writes the document back to disk.
// Params: file path; format chosen by extension like Load.
// Returns: error when encoding or writing fails.
func (d Document) Save(path string) error {
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		data, err = json.MarshalIndent(d, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	case ".toml":
		data, err = toml.Marshal(d)
	default:
		return fmt.Errorf("%w: unsupported dynamic state format %q", config.ErrConfiguration, ext)
	}
	if err != nil {
		return fmt.Errorf("encode dynamic state: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create state directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write dynamic state %s: %w", path, err)
	}
	return nil
}
