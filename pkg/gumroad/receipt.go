package gumroad

import (
	"strings"
	"time"

	"golang.org/x/net/html"
)

// receiptDateLayout matches the long-form purchase date printed on receipts,
// e.g. "January 2, 2006".
const receiptDateLayout = "January 2, 2006"

// ParseReceipt extracts the purchase date and the paid price from a receipt
// page. The main column's first block prints the date; the following block's
// first line is the amount charged.
func ParseReceipt(doc *html.Node) (*Receipt, error) {
	main := firstByTag(doc, "main")
	if main == nil {
		return nil, parseErr("receipt page has no main column")
	}

	blocks := elementChildren(main)
	if len(blocks) == 0 {
		return nil, parseErr("receipt page main column is empty")
	}

	datePara := firstByTag(blocks[0], "p")
	if datePara == nil {
		return nil, parseErr("receipt page prints no purchase date")
	}
	purchasedAt, err := time.Parse(receiptDateLayout, nodeText(datePara))
	if err != nil {
		return nil, parseErr("receipt purchase date is malformed: " + err.Error())
	}

	if len(blocks) < 2 {
		return nil, parseErr("receipt page prints no payment details")
	}
	// The payment block lists the price first, then card and fee lines.
	price := leadingText(blocks[1])
	if i := strings.IndexByte(price, '\n'); i >= 0 {
		price = strings.TrimSpace(price[:i])
	}
	if price == "" {
		return nil, parseErr("receipt page prints no price")
	}

	return &Receipt{PurchasedAt: purchasedAt, Price: price}, nil
}
