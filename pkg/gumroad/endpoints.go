package gumroad

import "strings"

// archiveExtensions are the file types a creator can publish as the whole
// product content in a single pre-packed file.
var archiveExtensions = map[string]bool{
	"zip": true,
	"rar": true,
}

// IsArchiveExtension reports whether ext (lower case, no dot) is an archive type
func IsArchiveExtension(ext string) bool {
	return archiveExtensions[ext]
}

// isBareID reports whether link is a bare alphanumeric product identifier
// rather than a URL.
func isBareID(link string) bool {
	if link == "" {
		return false
	}
	for _, c := range link {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

// NormalizeProductURL expands a bare product id into a full content URL and
// leaves full URLs untouched.
func NormalizeProductURL(baseURL, link string) string {
	link = strings.TrimSpace(link)
	if isBareID(link) {
		return baseURL + "/d/" + link
	}
	return link
}

// ArchiveURL rewrites a product content URL into its download-all-as-ZIP
// counterpart.
func ArchiveURL(productURL string) string {
	return strings.Replace(productURL, "/d/", "/zip/", 1)
}

// ResolveURL expands a relative href against the configured base URL
func ResolveURL(baseURL, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return baseURL + href
}

// CacheIdentity derives the (product id, file id) cache key from a download
// URL. File URLs end in /<product_id>/<file_id>; archive URLs end in
// /zip/<product_id>, in which case the marker and the id are swapped so the
// archive is cached under the product with the synthetic file id "zip".
func CacheIdentity(url string) (productID, fileID string) {
	parts := strings.Split(strings.TrimRight(url, "/"), "/")
	if len(parts) < 2 {
		return url, url
	}
	productID, fileID = parts[len(parts)-2], parts[len(parts)-1]
	if productID == "zip" {
		productID, fileID = fileID, "zip"
	}
	return productID, fileID
}
