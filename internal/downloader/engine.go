// Package downloader streams product files to disk, one at a time, keeping
// the download cache in sync so finished files are never fetched twice.
package downloader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gumdl/pkg/cache"
	apperrors "gumdl/pkg/errors"
	"gumdl/pkg/logger"
	"gumdl/pkg/ui"
)

// Streamer provides the byte stream for a download URL. Satisfied by the
// gumroad client; tests substitute their own.
type Streamer interface {
	GetStream(url string) (io.ReadCloser, int64, error)
}

// Task describes one file to fetch. Position and SiblingCount place the file
// among the downloadable files of its folder, for display only.
type Task struct {
	ProductID    string
	FileID       string
	SourceURL    string
	TreePath     string
	DestPath     string
	Position     int
	SiblingCount int

	// Transient bars are erased when the file finishes; archive downloads
	// keep theirs on screen.
	Transient bool
}

// Engine downloads task files sequentially and records completions
type Engine struct {
	client    Streamer
	cache     *cache.Cache
	chunkSize int
	progress  bool
	logger    logger.Logger
}

// New creates a download engine. chunkSize is the copy buffer size; progress
// controls whether per-file bars are rendered.
func New(client Streamer, dlCache *cache.Cache, chunkSize int, progress bool, log logger.Logger) *Engine {
	if log == nil {
		log = logger.GetLogger()
	}
	if chunkSize <= 0 {
		chunkSize = 4096
	}
	return &Engine{
		client:    client,
		cache:     dlCache,
		chunkSize: chunkSize,
		progress:  progress,
		logger:    log,
	}
}

// Download fetches one file unless the cache already records it. A server
// that declares a zero or absent content length is treated as a failure: the
// file is neither written nor cached, so a later run retries it.
func (e *Engine) Download(task *Task) error {
	if e.cache.IsCached(task.ProductID, task.FileID) {
		e.logger.DebugWithFields("file already downloaded, skipping", map[string]interface{}{
			"product_id": task.ProductID,
			"file_id":    task.FileID,
			"path":       task.TreePath,
		})
		return nil
	}

	body, size, err := e.client.GetStream(task.SourceURL)
	if err != nil {
		return err
	}
	defer body.Close()

	if size <= 0 {
		e.logger.WarnWithFields("server sent no content length for this file", map[string]interface{}{
			"product_id": task.ProductID,
			"file_id":    task.FileID,
			"path":       task.TreePath,
			"length":     size,
		})
		return &apperrors.Error{
			Type:    apperrors.ErrorTypeZeroLength,
			Message: fmt.Sprintf("server sent no content for %s", task.TreePath),
		}
	}

	if err := os.MkdirAll(filepath.Dir(task.DestPath), 0755); err != nil {
		return &apperrors.Error{
			Type:    apperrors.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create directory: %v", err),
		}
	}

	written, err := e.writeFile(task, body, size)
	if err != nil {
		// The partial file stays on disk; it is not cached, so the next
		// run fetches it again from the start.
		return err
	}

	e.logger.InfoWithFields("file downloaded", map[string]interface{}{
		"product_id": task.ProductID,
		"file_id":    task.FileID,
		"path":       task.TreePath,
		"size":       ui.FormatSize(written),
	})

	e.cache.Mark(task.ProductID, task.FileID)
	if err := e.cache.Save(); err != nil {
		e.logger.WithError(err).Error("failed to persist download cache")
	}

	return nil
}

// writeFile copies the body to the destination in fixed-size chunks
func (e *Engine) writeFile(task *Task, body io.Reader, size int64) (int64, error) {
	out, err := os.Create(task.DestPath)
	if err != nil {
		return 0, &apperrors.Error{
			Type:    apperrors.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create file: %v", err),
		}
	}
	defer out.Close()

	var dst io.Writer = out
	var bar *ui.FileProgress
	if e.progress {
		name := filepath.Base(task.DestPath)
		if task.Transient {
			bar = ui.NewFileProgress(name, size, task.Position, task.SiblingCount, true)
		} else {
			bar = ui.NewArchiveProgress(name, size)
		}
		dst = io.MultiWriter(out, bar)
	}

	buf := make([]byte, e.chunkSize)
	var written int64
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, writeErr := dst.Write(buf[:n]); writeErr != nil {
				return written, &apperrors.Error{
					Type:    apperrors.ErrorTypeUnknown,
					Message: fmt.Sprintf("failed to write file: %v", writeErr),
				}
			}
			written += int64(n)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return written, &apperrors.Error{
				Type:    apperrors.ErrorTypeNetwork,
				Message: fmt.Sprintf("download interrupted: %v", readErr),
			}
		}
	}

	if bar != nil {
		bar.Finish()
	}

	return written, nil
}
