package gumroad

import "time"

// Product describes a single purchased product. Immutable once scraped;
// used only to compute the output location and cache keys.
type Product struct {
	ID          string
	CreatorName string
	Name        string
	PurchasedAt time.Time
	Price       string
	UploadedAt  *time.Time
}

// ContentItem is a node in a product's content tree: either a File or a
// Folder. The tree is rooted, acyclic and finite, but its depth and fan-out
// are data-driven.
type ContentItem interface {
	isContentItem()
}

// File is a downloadable leaf of the content tree. DownloadURL is empty for
// embedded preview-only items, which are skipped.
type File struct {
	ID          string
	Name        string
	Extension   string
	DownloadURL string
}

func (File) isContentItem() {}

// Folder groups child items. Child order follows the order supplied by the
// page; it is never re-sorted.
type Folder struct {
	Name     string
	Children []ContentItem
}

func (Folder) isContentItem() {}

// ProductPage is the parsed form of a product content page
type ProductPage struct {
	CreatorName  string
	ProductName  string
	ReceiptPath  string
	HasZipAction bool
	Content      []ContentItem
}

// Receipt carries the purchase metadata scraped from the receipt page
type Receipt struct {
	PurchasedAt time.Time
	Price       string
}

// LibraryPage is the embedded JSON payload of the library listing
type LibraryPage struct {
	Results []LibraryResult `json:"results"`
}

// LibraryResult is one purchase row of the library listing
type LibraryResult struct {
	Purchase LibraryPurchase `json:"purchase"`
	Product  LibraryProduct  `json:"product"`
}

// LibraryPurchase identifies the purchase and how to reach its content
type LibraryPurchase struct {
	ID          string `json:"id"`
	DownloadURL string `json:"download_url"`
	IsBundle    bool   `json:"is_bundle_purchase"`
}

// LibraryProduct carries per-product metadata from the listing. Creator is
// nullable; CreatorID is the raw fallback identifier the listing always has.
type LibraryProduct struct {
	Name      string          `json:"name"`
	CreatorID string          `json:"creator_id"`
	Creator   *LibraryCreator `json:"creator"`
	UpdatedAt string          `json:"updated_at"`
}

// LibraryCreator is the structured creator reference of a listing row
type LibraryCreator struct {
	Name       string `json:"name"`
	ProfileURL string `json:"profile_url"`
}

// UploadedAt parses the listing's product update timestamp, nil when the
// field is absent or malformed.
func (p *LibraryProduct) UploadedAt() *time.Time {
	if p.UpdatedAt == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, p.UpdatedAt); err == nil {
			return &t
		}
	}
	return nil
}
