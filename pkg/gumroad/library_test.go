package gumroad

import (
	"testing"
	"time"
)

const libraryFixture = `<!DOCTYPE html>
<html><body>
<script class="js-react-on-rails-component" data-component-name="LibraryPage" type="application/json">
{"results": [
  {"purchase": {"id": "p1", "download_url": "https://app.gumroad.com/d/abc", "is_bundle_purchase": false},
   "product": {"name": "Brush Pack", "creator_id": "c1",
               "creator": {"name": "Alice", "profile_url": "https://alice.gumroad.com"},
               "updated_at": "2025-12-01T10:30:00Z"}},
  {"purchase": {"id": "p2", "download_url": "", "is_bundle_purchase": true},
   "product": {"name": "Mega Bundle", "creator_id": "c2", "creator": null, "updated_at": ""}}
]}
</script>
</body></html>`

func TestParseLibraryPage(t *testing.T) {
	page, err := ParseLibraryPage(parseHTML(t, libraryFixture))
	if err != nil {
		t.Fatalf("ParseLibraryPage failed: %v", err)
	}

	if len(page.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(page.Results))
	}

	first := page.Results[0]
	if first.Purchase.DownloadURL != "https://app.gumroad.com/d/abc" {
		t.Errorf("download url = %q", first.Purchase.DownloadURL)
	}
	if first.Purchase.IsBundle {
		t.Error("first purchase should not be a bundle")
	}
	if first.Product.Creator == nil || first.Product.Creator.Name != "Alice" {
		t.Errorf("creator not decoded: %+v", first.Product.Creator)
	}
	uploaded := first.Product.UploadedAt()
	if uploaded == nil {
		t.Fatal("uploaded date should parse")
	}
	want := time.Date(2025, 12, 1, 10, 30, 0, 0, time.UTC)
	if !uploaded.Equal(want) {
		t.Errorf("uploaded = %s, want %s", uploaded, want)
	}

	second := page.Results[1]
	if !second.Purchase.IsBundle {
		t.Error("second purchase should be a bundle")
	}
	if second.Product.Creator != nil {
		t.Errorf("null creator should decode as nil, got %+v", second.Product.Creator)
	}
	if second.Product.UploadedAt() != nil {
		t.Error("empty updated_at should yield nil")
	}
}

func TestParseLibraryPageMissingComponent(t *testing.T) {
	fixture := `<html><body>
	<script class="js-react-on-rails-component" data-component-name="NavBar">{}</script>
	</body></html>`

	if _, err := ParseLibraryPage(parseHTML(t, fixture)); err == nil {
		t.Error("expected error when the listing component is absent")
	}
}

func TestParseLibraryPageMalformedJSON(t *testing.T) {
	fixture := `<html><body>
	<script class="js-react-on-rails-component" data-component-name="LibraryPage">{broken</script>
	</body></html>`

	if _, err := ParseLibraryPage(parseHTML(t, fixture)); err == nil {
		t.Error("expected error for malformed listing JSON")
	}
}

func TestLibraryProductUploadedAtLayouts(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantNil bool
	}{
		{"rfc3339", "2025-12-01T10:30:00Z", false},
		{"date only", "2025-12-01", false},
		{"empty", "", true},
		{"garbage", "last tuesday", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := LibraryProduct{UpdatedAt: tt.value}
			got := p.UploadedAt()
			if tt.wantNil && got != nil {
				t.Errorf("expected nil, got %s", got)
			}
			if !tt.wantNil && got == nil {
				t.Error("expected a parsed time, got nil")
			}
		})
	}
}
