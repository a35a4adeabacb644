package gumroad

import (
	"strings"

	"golang.org/x/net/html"

	apperrors "gumdl/pkg/errors"
)

// ParseProductPage extracts the metadata and content tree from a product
// content page. The page carries the creator and receipt references in its
// side column stacks, the product title in the page header, and the
// downloadable content as a nested role=tree widget.
func ParseProductPage(doc *html.Node) (*ProductPage, error) {
	page := &ProductPage{}

	header := firstByTag(doc, "header")
	if header == nil {
		return nil, parseErr("product page has no header")
	}
	title := firstByTag(header, "h1")
	if title == nil {
		return nil, parseErr("product page header has no title")
	}
	page.ProductName = nodeText(title)

	paragraphs := firstByClass(doc, "paragraphs")
	if paragraphs == nil {
		return nil, parseErr("product page has no details column")
	}
	var stacks []*html.Node
	walkNodes(paragraphs, func(n *html.Node) bool {
		if n != paragraphs && n.Type == html.ElementNode && hasClass(n, "stack") {
			stacks = append(stacks, n)
			return false // stacks do not nest
		}
		return true
	})
	if len(stacks) < 3 {
		return nil, parseErr("product page details column is incomplete")
	}

	if link := firstByTag(stacks[1], "a"); link != nil {
		page.ReceiptPath = attrVal(link, "href")
	}
	if creator := firstByTag(stacks[2], "a"); creator != nil {
		page.CreatorName = nodeText(creator)
	}
	if page.CreatorName == "" {
		return nil, parseErr("product page names no creator")
	}

	if actions := firstByClass(doc, "actions"); actions != nil {
		walkNodes(actions, func(n *html.Node) bool {
			if isElement(n, "button") && strings.Contains(nodeText(n), "ZIP") {
				page.HasZipAction = true
				return false
			}
			return true
		})
	}

	if tree := firstByRole(doc, "tree"); tree != nil {
		page.Content = parseTreeLevel(tree)
	}

	return page, nil
}

// parseTreeLevel parses the direct treeitem children of a container node,
// preserving page order.
func parseTreeLevel(container *html.Node) []ContentItem {
	var items []ContentItem
	for _, child := range elementChildren(container) {
		if attrVal(child, "role") != "treeitem" {
			continue
		}
		if hasClass(child, "js-file-list-element") {
			items = append(items, parseFileItem(child))
		} else {
			items = append(items, parseFolderItem(child))
		}
	}
	return items
}

// parseFileItem reads one file leaf: the first h4 is the display name, the
// first li holds the declared extension, and the first anchor (when present)
// links the binary. Items without an anchor are preview-only.
func parseFileItem(n *html.Node) File {
	f := File{}
	if name := firstByTag(n, "h4"); name != nil {
		f.Name = nodeText(name)
	}
	if ext := firstByTag(n, "li"); ext != nil {
		f.Extension = strings.ToLower(nodeText(ext))
	}
	if link := firstByTag(n, "a"); link != nil {
		f.DownloadURL = attrVal(link, "href")
		_, f.ID = CacheIdentity(f.DownloadURL)
	}
	return f
}

// parseFolderItem reads one folder node and recurses into its role=group
// children container.
func parseFolderItem(n *html.Node) Folder {
	folder := Folder{}
	if name := firstByTag(n, "h4"); name != nil {
		folder.Name = nodeText(name)
	}
	if group := firstByRole(n, "group"); group != nil {
		folder.Children = parseTreeLevel(group)
	}
	return folder
}

// CountFiles returns the number of file leaves anywhere in the tree
func CountFiles(items []ContentItem) int {
	count := 0
	for _, item := range items {
		switch it := item.(type) {
		case File:
			count++
		case Folder:
			count += CountFiles(it.Children)
		}
	}
	return count
}

// ContentIsSingleArchive reports whether the tree consists of exactly one
// file and that file is itself an archive. Such products are fetched through
// the tree rather than re-packed server side.
func ContentIsSingleArchive(items []ContentItem) bool {
	if CountFiles(items) != 1 {
		return false
	}
	var only *File
	var find func([]ContentItem)
	find = func(items []ContentItem) {
		for _, item := range items {
			switch it := item.(type) {
			case File:
				only = &it
			case Folder:
				find(it.Children)
			}
		}
	}
	find(items)
	return only != nil && IsArchiveExtension(only.Extension)
}

func parseErr(msg string) error {
	return &apperrors.Error{Type: apperrors.ErrorTypeParsing, Message: msg}
}
