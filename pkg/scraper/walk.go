package scraper

import (
	"path"
	"path/filepath"
	"strings"

	"gumdl/internal/downloader"
	"gumdl/pkg/gumroad"
	"gumdl/pkg/logger"
	"gumdl/pkg/paths"
)

// Walker flattens a product content tree into an ordered list of download
// tasks. Within each folder, subfolders are walked before the folder's own
// files, so a product downloads depth-first with files trailing their
// sibling folders.
type Walker struct {
	resolver *paths.Resolver
	logger   logger.Logger
}

// NewWalker creates a content tree walker
func NewWalker(resolver *paths.Resolver, log logger.Logger) *Walker {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Walker{resolver: resolver, logger: log}
}

// Walk returns the download tasks for every downloadable file in the tree,
// with destination paths rooted at destRoot. Files without a download URL
// are embedded previews and are skipped.
func (w *Walker) Walk(items []gumroad.ContentItem, destRoot string) []*downloader.Task {
	return w.walkLevel(items, destRoot, "")
}

func (w *Walker) walkLevel(items []gumroad.ContentItem, destDir, treePath string) []*downloader.Task {
	var tasks []*downloader.Task

	for _, item := range items {
		folder, ok := item.(gumroad.Folder)
		if !ok {
			continue
		}
		if len(folder.Children) == 0 {
			w.logger.WarnWithFields("folder has no content", map[string]interface{}{
				"folder": path.Join(treePath, folder.Name),
			})
			continue
		}
		sub := w.walkLevel(folder.Children,
			filepath.Join(destDir, w.resolver.SanitizeName(folder.Name)),
			path.Join(treePath, folder.Name))
		tasks = append(tasks, sub...)
	}

	var files []gumroad.File
	for _, item := range items {
		file, ok := item.(gumroad.File)
		if !ok {
			continue
		}
		if file.DownloadURL == "" {
			w.logger.InfoWithFields("file has no download link, skipping", map[string]interface{}{
				"file": path.Join(treePath, file.Name),
			})
			continue
		}
		files = append(files, file)
	}

	for i, file := range files {
		name := w.fileName(file)
		productID, fileID := gumroad.CacheIdentity(file.DownloadURL)
		tasks = append(tasks, &downloader.Task{
			ProductID:    productID,
			FileID:       fileID,
			SourceURL:    file.DownloadURL,
			TreePath:     path.Join(treePath, name),
			DestPath:     filepath.Join(destDir, name),
			Position:     i + 1,
			SiblingCount: len(files),
			Transient:    true,
		})
	}

	return tasks
}

// fileName builds the on-disk name: the sanitized display name with the
// lowercased extension the page declares for the file. The declared extension
// wins over whatever suffix the display name already carries.
func (w *Walker) fileName(file gumroad.File) string {
	name := w.resolver.SanitizeName(file.Name)
	ext := strings.ToLower(file.Extension)
	if ext == "" {
		return name
	}
	if cur := filepath.Ext(name); cur != "" {
		name = strings.TrimSuffix(name, cur)
	}
	return name + "." + ext
}
