// Package scraper orchestrates a run: it reads the library listing or a
// direct product link, resolves each product's output folder, flattens the
// content tree into download tasks and feeds them to the download engine.
//
// Failures are two-tier. An expired session, a corrupt cache or a broken
// naming template aborts the run; anything scoped to a single product or
// file is logged and the run moves on.
package scraper
