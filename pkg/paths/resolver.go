package paths

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	apperrors "gumdl/pkg/errors"
)

// disallowed characters replaced in every path component built from
// upstream metadata. Creator, product, folder and file names are all
// free text controlled by the platform.
const disallowedChars = `<>:"/\|?*`

var placeholderPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

// FolderContext carries the fields available to the product folder template.
// UploadedAt is nil when a product is scraped from a direct link, where the
// library listing (the only source of that timestamp) was never seen.
type FolderContext struct {
	ProductName string
	PurchaseAt  time.Time
	UploadedAt  *time.Time
	Price       string
}

// Resolver derives deterministic, filesystem-safe output paths from
// product and purchase metadata.
type Resolver struct {
	root        string
	template    string
	replacement string
}

// NewResolver creates a resolver rooted at the output directory. template is
// the user-supplied product folder format string, replacement the substitute
// for disallowed filename characters.
func NewResolver(root, template, replacement string) *Resolver {
	return &Resolver{
		root:        root,
		template:    template,
		replacement: replacement,
	}
}

// SanitizeName replaces filesystem-disallowed characters with the configured
// replacement string. Idempotent as long as the replacement itself contains
// no disallowed characters (enforced by config validation).
func (r *Resolver) SanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, c := range name {
		if strings.ContainsRune(disallowedChars, c) {
			b.WriteString(r.replacement)
		} else {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// ProductFolder formats the folder template against the naming context and
// returns root/creator/folder. Every referenced placeholder must resolve;
// a template asking for a field this scrape cannot supply is a hard error.
func (r *Resolver) ProductFolder(creator string, ctx FolderContext) (string, error) {
	folderName, err := r.expandTemplate(ctx)
	if err != nil {
		return "", err
	}
	return filepath.Join(r.root, r.SanitizeName(creator), r.SanitizeName(folderName)), nil
}

func (r *Resolver) expandTemplate(ctx FolderContext) (string, error) {
	var expandErr error

	expanded := placeholderPattern.ReplaceAllStringFunc(r.template, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]

		switch name {
		case "product_name":
			return ctx.ProductName
		case "purchase_at":
			return ctx.PurchaseAt.Format("2006-01-02")
		case "uploaded_at":
			if ctx.UploadedAt == nil {
				expandErr = apperrors.New(apperrors.ErrorTypeTemplate,
					"template references {uploaded_at} but the upload date is unavailable for this scrape")
				return match
			}
			return ctx.UploadedAt.Format("2006-01-02")
		case "price":
			return ctx.Price
		default:
			expandErr = apperrors.New(apperrors.ErrorTypeTemplate,
				fmt.Sprintf("unknown template placeholder %q", match))
			return match
		}
	})

	if expandErr != nil {
		return "", expandErr
	}
	return expanded, nil
}
