package toc

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
)

// CacheDirName is the subdirectory of the cache root holding per-guide
// ToC JSON files.
const CacheDirName = "toc_cache"

// Store persists parsed tables of contents, one JSON file per guide,
// keyed by the guide's base filename. The Store is the only writer of
// these files.
type Store struct {
	// Root is the directory containing the toc_cache subdirectory,
	// normally the guides directory.
	Root   string
	Logger *slog.Logger
}

// NewStore creates a cache store rooted at dir.
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{Root: dir, Logger: logger}
}

// Path returns the cache file path for a guide.
func (s *Store) Path(guidePath string) string {
	return filepath.Join(s.Root, CacheDirName, filepath.Base(guidePath)+".json")
}

// Load returns the cached ToC for a guide, or nil on any miss: missing or
// unreadable file, malformed JSON, wrong shape, or a cache older than the
// guide PDF. Stale and corrupt caches are removed best-effort.
func (s *Store) Load(guidePath string) []Entry {
	guideInfo, err := os.Stat(guidePath)
	if err != nil {
		return nil
	}

	cacheFile := s.Path(guidePath)
	cacheInfo, err := os.Stat(cacheFile)
	if err != nil {
		return nil
	}

	// The guide changed after caching; the entries may map to pages that
	// no longer exist.
	if cacheInfo.ModTime().Before(guideInfo.ModTime()) {
		s.Logger.Info("ToC cache is stale, removing", "cache", cacheFile)
		if err := os.Remove(cacheFile); err != nil {
			s.Logger.Warn("failed to remove stale cache", "cache", cacheFile, "error", err)
		}
		return nil
	}

	data, err := os.ReadFile(cacheFile)
	if err != nil {
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.Logger.Warn("corrupt ToC cache, removing", "cache", cacheFile, "error", err)
		if err := os.Remove(cacheFile); err != nil {
			s.Logger.Warn("failed to remove corrupt cache", "cache", cacheFile, "error", err)
		}
		return nil
	}
	if len(entries) == 0 {
		return nil
	}

	return entries
}

// Save writes the ToC for a guide atomically: serialize to a temp file in
// the cache directory, then rename over the destination. Returns false on
// any failure; the temp file is cleaned up.
func (s *Store) Save(guidePath string, entries []Entry) bool {
	if len(entries) == 0 {
		return false
	}

	cacheDir := filepath.Join(s.Root, CacheDirName)
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		s.Logger.Warn("failed to create cache directory", "dir", cacheDir, "error", err)
		return false
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return false
	}

	cacheFile := s.Path(guidePath)
	tempFile := cacheFile + ".tmp"

	if err := os.WriteFile(tempFile, data, 0o644); err != nil {
		s.Logger.Warn("failed to write ToC cache", "cache", tempFile, "error", err)
		return false
	}
	if err := os.Rename(tempFile, cacheFile); err != nil {
		s.Logger.Warn("failed to finalize ToC cache", "cache", cacheFile, "error", err)
		_ = os.Remove(tempFile)
		return false
	}

	return true
}

// Clear removes the cached ToC for a guide. Missing caches are not an error.
func (s *Store) Clear(guidePath string) error {
	err := os.Remove(s.Path(guidePath))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
