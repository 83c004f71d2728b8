// Package registry discovers locally installed models by scanning a data
// directory for per-model metadata files.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ErrModelNotFound is returned by lookups that need an installed model.
var ErrModelNotFound = errors.New("model not found")

// Layout describes where a model's metadata lives inside the models dir.
type Layout string

const (
	// LayoutNested reads <dir>/<entry>/<metadata file>.
	LayoutNested Layout = "nested"
	// LayoutFlat reads <dir>/<entry> directly.
	LayoutFlat Layout = "flat"
)

// DeleteConfig shapes the response of a delete.
type DeleteConfig struct {
	Object string `mapstructure:"object" json:"object"`
}

// Configuration tells the loader which directory to scan and what file
// inside each entry holds the metadata.
type Configuration struct {
	DirName          string       `mapstructure:"dir_name" json:"dirName"`
	MetadataFileName string       `mapstructure:"metadata_file_name" json:"metadataFileName"`
	Layout           Layout       `mapstructure:"layout" json:"layout,omitempty"`
	Delete           DeleteConfig `mapstructure:"delete" json:"delete"`
}

// DeleteResult is returned after a model directory has been removed.
type DeleteResult struct {
	ID      string
	Object  string
	Deleted bool
}

// Loader builds the model catalog from disk. It holds no state between
// calls; every Load reflects the directory as it is right now.
type Loader struct {
	fs     afero.Fs
	root   string
	logger *zap.Logger
}

// NewLoader returns a loader rooted at dataRoot. A nil logger is replaced
// with a no-op logger.
func NewLoader(fs afero.Fs, dataRoot string, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{fs: fs, root: dataRoot, logger: logger}
}

// Dir returns the absolute directory scanned for the given configuration.
func (l *Loader) Dir(cfg Configuration) string {
	return filepath.Join(l.root, cfg.DirName)
}

// entryResult is the outcome of reading one directory entry.
type entryResult struct {
	entry      string
	descriptor ModelDescriptor
	err        error
}

// Load returns every readable, parseable descriptor in directory listing
// order. It never fails: a missing directory yields an empty catalog and
// entries that cannot be read or parsed are left out.
func (l *Loader) Load(ctx context.Context, cfg Configuration) []ModelDescriptor {
	results := l.scan(ctx, cfg)

	catalog := make([]ModelDescriptor, 0, len(results))
	for _, r := range results {
		if r.err != nil {
			l.logger.Debug("skipping model entry",
				zap.String("entry", r.entry),
				zap.Error(r.err),
			)
			continue
		}
		catalog = append(catalog, r.descriptor)
	}
	return catalog
}

// Get returns the first descriptor with the given id.
func (l *Loader) Get(ctx context.Context, cfg Configuration, id string) (ModelDescriptor, bool) {
	if id == "" {
		return ModelDescriptor{}, false
	}
	for _, d := range l.Load(ctx, cfg) {
		if d.ID == id {
			return d, true
		}
	}
	return ModelDescriptor{}, false
}

// Delete removes the entry whose metadata carries the given id.
func (l *Loader) Delete(ctx context.Context, cfg Configuration, id string) (*DeleteResult, error) {
	for _, r := range l.scan(ctx, cfg) {
		if r.err != nil || id == "" || r.descriptor.ID != id {
			continue
		}

		target := filepath.Join(l.Dir(cfg), r.entry)
		if err := l.fs.RemoveAll(target); err != nil {
			return nil, fmt.Errorf("failed to remove %s: %w", target, err)
		}

		object := cfg.Delete.Object
		if object == "" {
			object = "model"
		}

		l.logger.Info("model deleted", zap.String("id", id), zap.String("path", target))
		return &DeleteResult{ID: id, Object: object, Deleted: true}, nil
	}

	return nil, ErrModelNotFound
}

func (l *Loader) scan(ctx context.Context, cfg Configuration) []entryResult {
	dir := l.Dir(cfg)

	exists, err := afero.DirExists(l.fs, dir)
	if err != nil || !exists {
		return nil
	}

	// sorted by name
	entries, err := afero.ReadDir(l.fs, dir)
	if err != nil {
		l.logger.Debug("failed to list models directory", zap.String("dir", dir), zap.Error(err))
		return nil
	}

	results := make([]entryResult, 0, len(entries))
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		results = append(results, l.readEntry(dir, entry, cfg))
	}
	return results
}

func (l *Loader) readEntry(dir string, entry os.FileInfo, cfg Configuration) entryResult {
	res := entryResult{entry: entry.Name()}

	path := filepath.Join(dir, entry.Name(), cfg.MetadataFileName)
	if cfg.Layout == LayoutFlat {
		path = filepath.Join(dir, entry.Name())
	}

	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		res.err = fmt.Errorf("read %s: %w", path, err)
		return res
	}

	if err := json.Unmarshal(data, &res.descriptor); err != nil {
		res.err = fmt.Errorf("parse %s: %w", path, err)
	}
	return res
}
