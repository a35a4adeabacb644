package scraper

import (
	"golang.org/x/net/html"

	"gumdl/internal/downloader"
)

// Fetcher is the slice of the HTTP client the scraper depends on. Tests
// substitute a fake or point the real client at a local server.
type Fetcher interface {
	// GetDocument fetches and parses one page
	GetDocument(url string) (*html.Node, error)

	// BaseURL returns the platform base URL, without trailing slash
	BaseURL() string
}

// Downloader executes one download task
type Downloader interface {
	Download(task *downloader.Task) error
}
