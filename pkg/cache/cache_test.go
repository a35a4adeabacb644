package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "gumdl/pkg/errors"
)

func newTestCache(t *testing.T) (*Cache, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "downloads.cache")
	c := New(path)
	if err := c.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return c, path
}

func TestMissingFileStartsEmpty(t *testing.T) {
	c, _ := newTestCache(t)
	if c.Products() != 0 {
		t.Errorf("fresh cache should be empty, has %d products", c.Products())
	}
	if c.IsCached("p1", "f1") {
		t.Error("fresh cache should not report files as cached")
	}
}

func TestMarkAndIsCached(t *testing.T) {
	c, _ := newTestCache(t)

	c.Mark("p1", "f1")
	c.Mark("p1", "f2")
	c.Mark("p2", "f1")

	if !c.IsCached("p1", "f1") || !c.IsCached("p1", "f2") || !c.IsCached("p2", "f1") {
		t.Error("marked files should be cached")
	}
	if c.IsCached("p1", "f3") {
		t.Error("unmarked file reported as cached")
	}
	if c.IsCached("p3", "f1") {
		t.Error("unknown product reported as cached")
	}
}

func TestMarkIsIdempotent(t *testing.T) {
	c, _ := newTestCache(t)

	c.Mark("p1", "f1")
	c.Mark("p1", "f1")

	if err := c.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded := New(cachePath(c))
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if !reloaded.IsCached("p1", "f1") {
		t.Error("file lost across save/load")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c, path := newTestCache(t)

	c.Mark("p1", "f2")
	c.Mark("p1", "f1")
	c.Mark("p2", "zip")

	if err := c.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded := New(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	for _, k := range [][2]string{{"p1", "f1"}, {"p1", "f2"}, {"p2", "zip"}} {
		if !reloaded.IsCached(k[0], k[1]) {
			t.Errorf("entry (%s, %s) lost across round trip", k[0], k[1])
		}
	}
}

func TestSaveIsDeterministic(t *testing.T) {
	c, path := newTestCache(t)

	c.Mark("p1", "f2")
	c.Mark("p1", "f1")
	c.Mark("p9", "f1")
	c.Mark("p2", "f5")

	if err := c.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	reloaded := New(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if err := reloaded.Save(); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if string(first) != string(second) {
		t.Error("save/load/save should reproduce the file byte for byte")
	}
}

func TestCorruptFileIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "downloads.cache")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	c := New(path)
	err := c.Load()
	if err == nil {
		t.Fatal("corrupt cache file should fail to load")
	}
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || appErr.Type != apperrors.ErrorTypeCache {
		t.Errorf("expected a cache error, got %v", err)
	}
}

func TestSaveSurvivesExistingTempFile(t *testing.T) {
	c, path := newTestCache(t)
	if err := os.WriteFile(path+".tmp", []byte("stale"), 0644); err != nil {
		t.Fatal(err)
	}

	c.Mark("p1", "f1")
	if err := c.Save(); err != nil {
		t.Fatalf("Save failed with stale temp file present: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should be gone after rename")
	}
}

// cachePath exposes the backing path for reload tests
func cachePath(c *Cache) string {
	return c.path
}
