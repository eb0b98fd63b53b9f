package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pkiage/tool-credit-risk-modelling/adapters/ml"
	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
)

// FileStore persists one JSON document per model under a directory.
// Callers treat failures as non-fatal; training never aborts because a
// snapshot could not be written.
type FileStore struct {
	dir string
	log zerolog.Logger
}

// snapshotDocument is the on-disk layout: metadata for listing plus the
// encoded classifier for rebuilding.
type snapshotDocument struct {
	Metadata   Metadata        `json:"metadata"`
	SavedAt    time.Time       `json:"saved_at"`
	Parameters json.RawMessage `json:"parameters"`
}

func NewFileStore(dir string, log zerolog.Logger) *FileStore {
	return &FileStore{dir: dir, log: log}
}

// Save writes the record as {dir}/{model_id}.json.
func (s *FileStore) Save(rec *Record) error {
	if rec == nil || rec.Model == nil {
		return fmt.Errorf("%w: nil model record", core.ErrInvalidInput)
	}
	id := rec.Metadata.ModelID.String()
	if !safeID(id) {
		return fmt.Errorf("%w: model ID %q not usable as a file name", core.ErrInvalidInput, id)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	params, err := ml.EncodeModel(rec.Model)
	if err != nil {
		return fmt.Errorf("encode model %s: %w", id, err)
	}
	doc := snapshotDocument{
		Metadata:   rec.Metadata,
		SavedAt:    time.Now().UTC(),
		Parameters: params,
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", id, err)
	}
	if err := os.WriteFile(s.path(id), b, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", id, err)
	}

	s.log.Debug().Str("model_id", id).Str("dir", s.dir).Msg("model snapshot saved")
	return nil
}

// Load rebuilds a record from its snapshot file.
func (s *FileStore) Load(id core.ModelID) (*Record, error) {
	if !safeID(id.String()) {
		return nil, core.NewModelNotFoundError(id.String())
	}
	b, err := os.ReadFile(s.path(id.String()))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, core.NewModelNotFoundError(id.String())
		}
		return nil, fmt.Errorf("read snapshot %s: %w", id, err)
	}

	var doc snapshotDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", id, err)
	}
	model, err := ml.DecodeModel(doc.Parameters)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return &Record{Metadata: doc.Metadata, Model: model}, nil
}

// List returns metadata from every readable snapshot, unordered.
// Corrupt files are logged and skipped.
func (s *FileStore) List() ([]Metadata, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read model dir: %w", err)
	}

	var out []Metadata
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			s.log.Warn().Err(err).Str("file", e.Name()).Msg("unreadable model snapshot")
			continue
		}
		var doc struct {
			Metadata Metadata `json:"metadata"`
		}
		if err := json.Unmarshal(b, &doc); err != nil || doc.Metadata.ModelID.IsEmpty() {
			s.log.Warn().Str("file", e.Name()).Msg("skipping corrupt model snapshot")
			continue
		}
		out = append(out, doc.Metadata)
	}
	return out, nil
}

// Delete removes a snapshot file.
func (s *FileStore) Delete(id core.ModelID) error {
	if !safeID(id.String()) {
		return core.NewModelNotFoundError(id.String())
	}
	if err := os.Remove(s.path(id.String())); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return core.NewModelNotFoundError(id.String())
		}
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	}
	return nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// safeID accepts only identifiers that cannot escape the model dir.
func safeID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}
