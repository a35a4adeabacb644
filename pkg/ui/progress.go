package ui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
)

// maxLabelWidth bounds progress bar labels so long file names do not wrap
// the terminal line.
const maxLabelWidth = 40

// FileProgress renders the byte progress of one download. It implements
// io.Writer so it can sit in an io.MultiWriter alongside the output file.
type FileProgress struct {
	bar *progressbar.ProgressBar
}

var _ io.Writer = (*FileProgress)(nil)

// NewFileProgress creates a bar for one file. Position and total annotate the
// label with the file's place among its siblings. Transient bars are cleared
// once done so per-file progress does not pile up over a long run.
func NewFileProgress(name string, size int64, position, total int, transient bool) *FileProgress {
	return newProgress(fileLabel(name, size, position, total), size, transient)
}

// NewArchiveProgress creates a persistent bar for a whole-product archive.
// The label carries no sibling position, just the name and total size.
func NewArchiveProgress(name string, size int64) *FileProgress {
	return newProgress(archiveLabel(name, size), size, false)
}

func fileLabel(name string, size int64, position, total int) string {
	return fmt.Sprintf("[%d/%d] %s", position, total, sizedLabel(name, size))
}

func archiveLabel(name string, size int64) string {
	return sizedLabel(name, size)
}

func sizedLabel(name string, size int64) string {
	label := Shorten(name, maxLabelWidth)
	if size > 0 {
		label += " (" + humanize.Bytes(uint64(size)) + ")"
	}
	return label
}

func newProgress(label string, size int64, transient bool) *FileProgress {
	opts := []progressbar.Option{
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(20),
		progressbar.OptionThrottle(100 * time.Millisecond),
	}
	if transient {
		opts = append(opts, progressbar.OptionClearOnFinish())
	} else {
		opts = append(opts, progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}))
	}

	return &FileProgress{bar: progressbar.NewOptions64(size, opts...)}
}

func (p *FileProgress) Write(b []byte) (int, error) {
	return p.bar.Write(b)
}

// Finish completes the bar, clearing it when it was created transient
func (p *FileProgress) Finish() {
	_ = p.bar.Finish()
}

// FormatSize renders a byte count for log and summary lines
func FormatSize(n int64) string {
	if n < 0 {
		return "unknown size"
	}
	return humanize.Bytes(uint64(n))
}

// Shorten trims s to at most max runes using a middle ellipsis, keeping both
// the start and the extension-bearing tail readable.
func Shorten(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max || max < 5 {
		return s
	}
	head := (max - 3) / 2
	tail := max - 3 - head
	return string(runes[:head]) + "..." + string(runes[len(runes)-tail:])
}
