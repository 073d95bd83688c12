// Package corpus reads scraped recipe shards and the cleaned corpus file.
//
// A shard is a JSON array of raw records. Preprocess merges every shard in a
// directory, normalizes and deduplicates the records and writes the cleaned
// corpus, which is the only input the indexer reads.
package corpus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/poiesic/larder/core"
)

// ShardPattern matches shard files inside the input directory.
const ShardPattern = "*.json"

// json.Unmarshal accepts a top-level null for a slice and leaves it nil.
var errNotArray = errors.New("top-level value is not a JSON array")

// LoadShards reads every shard in dir, in lexical order, and concatenates
// their records. Shards that cannot be read or parsed are logged and skipped.
// It fails with core.ErrMalformedInput when dir is missing, holds no shards,
// or no shard could be loaded.
func LoadShards(dir string, logger *slog.Logger) ([]core.RawRecord, error) {
	if logger == nil {
		logger = slog.Default()
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrMalformedInput, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", core.ErrMalformedInput, dir)
	}

	paths, err := filepath.Glob(filepath.Join(dir, ShardPattern))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrMalformedInput, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no shards in %s", core.ErrMalformedInput, dir)
	}
	sort.Strings(paths)

	var (
		records []core.RawRecord
		loaded  int
	)
	for _, path := range paths {
		shard, err := readShard(path)
		if err != nil {
			logger.Warn("skipping unreadable shard", "path", path, "err", err)
			continue
		}
		loaded++
		records = append(records, shard...)
		logger.Debug("loaded shard", "path", path, "records", len(shard))
	}
	if loaded == 0 {
		return nil, fmt.Errorf("%w: none of %d shards in %s could be loaded", core.ErrMalformedInput, len(paths), dir)
	}

	logger.Info("loaded shards", "shards", loaded, "skipped", len(paths)-loaded, "records", len(records))
	return records, nil
}

func readShard(path string) ([]core.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []core.RawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	if records == nil {
		return nil, errNotArray
	}
	return records, nil
}

// LoadCleaned reads a cleaned corpus file written by WriteCleaned.
func LoadCleaned(path string) ([]core.NormalizedRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrMalformedInput, err)
	}
	var records []core.NormalizedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrMalformedInput, path, err)
	}
	if records == nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrMalformedInput, path, errNotArray)
	}
	return records, nil
}

// WriteCleaned writes records as an indented JSON array with non-ASCII text
// left unescaped. The file is replaced atomically.
func WriteCleaned(path string, records []core.NormalizedRecord) error {
	if records == nil {
		records = []core.NormalizedRecord{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Exists reports whether a cleaned corpus file is present at path.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
