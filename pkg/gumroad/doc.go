// Package gumroad implements the authenticated fetcher and the parsers for
// the Gumroad pages this tool consumes: the library listing, the product
// content page (including its embedded file/folder tree), and the purchase
// receipt page.
//
// The client never follows redirects; a logged-out session answers content
// URLs with a small "You are being redirected" interstitial, which is
// detected and reported as a distinct auth_redirect error so callers can
// abort the run instead of retrying.
package gumroad
