package scraper

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gumdl/internal/downloader"
	apperrors "gumdl/pkg/errors"
	"gumdl/pkg/gumroad"
	"gumdl/pkg/logger"
	"gumdl/pkg/paths"
)

// profileSubdomainPattern extracts the creator's subdomain from a profile
// URL like https://somecreator.gumroad.com.
var profileSubdomainPattern = regexp.MustCompile(`^https?://([^./]+)\.gumroad\.com`)

// Stats counts the outcomes of one run
type Stats struct {
	Products int
	Skipped  int
	Failed   int
}

// Scraper drives a whole run over the library or over direct product links
type Scraper struct {
	client   Fetcher
	engine   Downloader
	resolver *paths.Resolver
	walker   *Walker
	logger   logger.Logger
	stats    Stats
}

// New creates a scraper
func New(client Fetcher, engine Downloader, resolver *paths.Resolver, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scraper{
		client:   client,
		engine:   engine,
		resolver: resolver,
		walker:   NewWalker(resolver, log),
		logger:   log,
	}
}

// Stats returns the counters accumulated so far
func (s *Scraper) Stats() Stats {
	return s.stats
}

// ScrapeLibrary fetches the library listing and scrapes every purchase,
// optionally narrowed to the named creators (matched case-insensitively).
// Bundle purchases group other products and are skipped. Per-product
// failures are logged and counted; only run-level failures are returned.
func (s *Scraper) ScrapeLibrary(creators []string) error {
	doc, err := s.client.GetDocument(s.client.BaseURL() + "/library")
	if err != nil {
		return err
	}

	page, err := gumroad.ParseLibraryPage(doc)
	if err != nil {
		return err
	}

	filter := make(map[string]bool, len(creators))
	for _, c := range creators {
		filter[strings.ToLower(c)] = true
	}

	s.logger.InfoWithFields("library loaded", map[string]interface{}{
		"purchases": len(page.Results),
	})

	for _, result := range page.Results {
		creator := s.resolveCreator(&result.Product)

		if len(filter) > 0 && !filter[strings.ToLower(creator)] {
			s.logger.DebugWithFields("creator not selected, skipping", map[string]interface{}{
				"creator": creator,
				"product": result.Product.Name,
			})
			s.stats.Skipped++
			continue
		}

		if result.Purchase.IsBundle {
			s.logger.InfoWithFields("bundle purchase, skipping", map[string]interface{}{
				"product": result.Product.Name,
			})
			s.stats.Skipped++
			continue
		}

		if result.Purchase.DownloadURL == "" {
			s.logger.WarnWithFields("purchase has no content link, skipping", map[string]interface{}{
				"product": result.Product.Name,
			})
			s.stats.Skipped++
			continue
		}

		if err := s.ScrapeProduct(result.Purchase.DownloadURL, result.Product.UploadedAt()); err != nil {
			if IsFatal(err) {
				return err
			}
			s.logger.WithError(err).ErrorWithFields("product failed", map[string]interface{}{
				"product": result.Product.Name,
			})
			s.stats.Failed++
		}
	}

	return nil
}

// ScrapeProduct scrapes one product content page and downloads its files.
// uploadedAt comes from the library listing and is nil for direct links;
// the naming template hard-fails if it needs the field and it is missing.
//
// When the page offers a download-everything ZIP action the whole product is
// fetched as one archive, except when the content is already a single
// archive file, where re-packing it server side would just waste a request.
func (s *Scraper) ScrapeProduct(link string, uploadedAt *time.Time) error {
	url := gumroad.NormalizeProductURL(s.client.BaseURL(), link)

	doc, err := s.client.GetDocument(url)
	if err != nil {
		return err
	}
	page, err := gumroad.ParseProductPage(doc)
	if err != nil {
		return err
	}

	s.logger.InfoWithFields("scraping product", map[string]interface{}{
		"product": page.ProductName,
		"creator": page.CreatorName,
	})

	receipt, err := s.fetchReceipt(page.ReceiptPath)
	if err != nil {
		return err
	}

	folder, err := s.resolver.ProductFolder(page.CreatorName, paths.FolderContext{
		ProductName: page.ProductName,
		PurchaseAt:  receipt.PurchasedAt,
		UploadedAt:  uploadedAt,
		Price:       receipt.Price,
	})
	if err != nil {
		return err
	}

	s.stats.Products++

	if page.HasZipAction && !gumroad.ContentIsSingleArchive(page.Content) {
		return s.downloadArchive(url, page, folder)
	}
	return s.downloadTree(page, folder)
}

// downloadArchive fetches the whole product as one server-packed ZIP
func (s *Scraper) downloadArchive(productURL string, page *gumroad.ProductPage, folder string) error {
	archiveURL := gumroad.ArchiveURL(productURL)
	productID, fileID := gumroad.CacheIdentity(archiveURL)
	name := s.resolver.SanitizeName(page.ProductName) + ".zip"

	return s.engine.Download(&downloader.Task{
		ProductID:    productID,
		FileID:       fileID,
		SourceURL:    archiveURL,
		TreePath:     name,
		DestPath:     filepath.Join(folder, name),
		Position:     1,
		SiblingCount: 1,
	})
}

// downloadTree walks the content tree and downloads each file in turn
func (s *Scraper) downloadTree(page *gumroad.ProductPage, folder string) error {
	tasks := s.walker.Walk(page.Content, folder)
	if len(tasks) == 0 {
		s.logger.WarnWithFields("product has no downloadable files", map[string]interface{}{
			"product": page.ProductName,
		})
		return nil
	}

	var lastErr error
	for _, task := range tasks {
		task.SourceURL = gumroad.ResolveURL(s.client.BaseURL(), task.SourceURL)
		if err := s.engine.Download(task); err != nil {
			if IsFatal(err) {
				return err
			}
			s.logger.WithError(err).ErrorWithFields("file failed", map[string]interface{}{
				"file": task.TreePath,
			})
			lastErr = err
		}
	}
	return lastErr
}

// fetchReceipt loads the purchase receipt referenced by the product page.
// A product page without a receipt link yields zero metadata, which only
// matters if the naming template asks for it.
func (s *Scraper) fetchReceipt(receiptPath string) (*gumroad.Receipt, error) {
	if receiptPath == "" {
		return &gumroad.Receipt{}, nil
	}

	doc, err := s.client.GetDocument(gumroad.ResolveURL(s.client.BaseURL(), receiptPath))
	if err != nil {
		return nil, err
	}
	return gumroad.ParseReceipt(doc)
}

// resolveCreator picks the creator name for filtering and folder naming.
// Strategies, in order: the profile URL subdomain, the creator display
// name, the raw creator id the listing always carries.
func (s *Scraper) resolveCreator(product *gumroad.LibraryProduct) string {
	if product.Creator != nil {
		if m := profileSubdomainPattern.FindStringSubmatch(product.Creator.ProfileURL); m != nil {
			s.logger.DebugWithFields("creator resolved", map[string]interface{}{
				"strategy": "profile_url",
				"creator":  m[1],
			})
			return m[1]
		}
		if product.Creator.Name != "" {
			s.logger.DebugWithFields("creator resolved", map[string]interface{}{
				"strategy": "display_name",
				"creator":  product.Creator.Name,
			})
			return product.Creator.Name
		}
	}
	s.logger.DebugWithFields("creator resolved", map[string]interface{}{
		"strategy": "creator_id",
		"creator":  product.CreatorID,
	})
	return product.CreatorID
}

// IsFatal reports whether an error must abort the whole run
func IsFatal(err error) bool {
	var appErr *apperrors.Error
	return errors.As(err, &appErr) && apperrors.IsFatal(appErr.Type)
}
