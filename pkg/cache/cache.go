package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	apperrors "gumdl/pkg/errors"
	"gumdl/pkg/logger"
)

// Cache is the persistent record of completed downloads, keyed by
// (product id, file id). It is append-only within a run and rewritten
// whole on every Save.
type Cache struct {
	path    string
	entries map[string]map[string]struct{}
	logger  logger.Logger
}

// New creates a cache backed by the given file path. Nothing is read
// until Load is called.
func New(path string) *Cache {
	return &Cache{
		path:    path,
		entries: make(map[string]map[string]struct{}),
		logger:  logger.GetLogger(),
	}
}

// Load populates the cache from disk. A missing file is an empty cache;
// an unreadable or unparsable one is a fatal error, since proceeding
// would either re-download everything or silently skip it.
func (c *Cache) Load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			c.logger.DebugWithFields("no cache file, starting empty", map[string]interface{}{
				"path": c.path,
			})
			return nil
		}
		return apperrors.New(apperrors.ErrorTypeCache,
			fmt.Sprintf("failed to read cache file %s: %v", c.path, err))
	}

	var onDisk map[string][]string
	if err := json.Unmarshal(data, &onDisk); err != nil {
		return apperrors.New(apperrors.ErrorTypeCache,
			fmt.Sprintf("cache file %s is corrupt: %v", c.path, err))
	}

	for productID, fileIDs := range onDisk {
		files := make(map[string]struct{}, len(fileIDs))
		for _, fileID := range fileIDs {
			files[fileID] = struct{}{}
		}
		c.entries[productID] = files
	}

	c.logger.DebugWithFields("cache loaded", map[string]interface{}{
		"path":     c.path,
		"products": len(c.entries),
	})
	return nil
}

// IsCached reports whether a file was downloaded in this or a previous run
func (c *Cache) IsCached(productID, fileID string) bool {
	_, ok := c.entries[productID][fileID]
	return ok
}

// Mark records a completed download. Idempotent.
func (c *Cache) Mark(productID, fileID string) {
	files, ok := c.entries[productID]
	if !ok {
		files = make(map[string]struct{})
		c.entries[productID] = files
	}
	files[fileID] = struct{}{}
}

// Save writes the full cache state to disk atomically (temp file, fsync,
// rename). Safe to call after every file and again on interruption.
func (c *Cache) Save() error {
	onDisk := make(map[string][]string, len(c.entries))
	for productID, files := range c.entries {
		fileIDs := make([]string, 0, len(files))
		for fileID := range files {
			fileIDs = append(fileIDs, fileID)
		}
		// Deterministic serialization: a save/load/save cycle must
		// reproduce the file byte for byte.
		sort.Strings(fileIDs)
		onDisk[productID] = fileIDs
	}

	data, err := json.MarshalIndent(onDisk, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	tempPath := c.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary cache file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write cache: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync cache file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close cache file: %w", err)
	}

	if err := os.Rename(tempPath, c.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace cache file: %w", err)
	}

	c.logger.DebugWithFields("cache saved", map[string]interface{}{
		"path":     c.path,
		"products": len(c.entries),
	})
	return nil
}

// Products returns the number of products with at least one cached file
func (c *Cache) Products() int {
	return len(c.entries)
}
