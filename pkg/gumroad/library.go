package gumroad

import (
	"encoding/json"
	"fmt"

	"golang.org/x/net/html"
)

// libraryComponentName identifies the server-rendered React component whose
// props JSON carries the purchase listing.
const libraryComponentName = "LibraryPage"

// ParseLibraryPage extracts the purchase listing embedded in the library
// page. The listing is not rendered as HTML; it ships as the JSON body of a
// react-on-rails component script tag.
func ParseLibraryPage(doc *html.Node) (*LibraryPage, error) {
	script := findNode(doc, func(n *html.Node) bool {
		return isElement(n, "script") &&
			hasClass(n, "js-react-on-rails-component") &&
			attrVal(n, "data-component-name") == libraryComponentName
	})
	if script == nil {
		return nil, parseErr("library page carries no purchase listing")
	}

	payload := ""
	if script.FirstChild != nil && script.FirstChild.Type == html.TextNode {
		payload = script.FirstChild.Data
	}

	var page LibraryPage
	if err := json.Unmarshal([]byte(payload), &page); err != nil {
		return nil, parseErr(fmt.Sprintf("failed to decode purchase listing: %v", err))
	}
	return &page, nil
}
