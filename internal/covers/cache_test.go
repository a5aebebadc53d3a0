package covers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func coverOrigin(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewCache_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "covers")

	cache, err := NewCache(dir)
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}
	if cache.CacheDir() != dir {
		t.Errorf("expected cache dir %s, got %s", dir, cache.CacheDir())
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("cache directory missing: %v", err)
	}
}

func TestGetCover_EmptyURLIsNoop(t *testing.T) {
	cache, _ := NewCache(t.TempDir())

	path, err := cache.GetCover(1, "")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if path != "" {
		t.Errorf("expected empty path, got %s", path)
	}
}

func TestGetCover_SecondHitServedFromDisk(t *testing.T) {
	server := coverOrigin(t, http.StatusOK, "jpeg bytes")
	cache, _ := NewCache(t.TempDir())

	first, err := cache.GetCover(7, server.URL+"/cover.jpg")
	if err != nil {
		t.Fatalf("GetCover failed: %v", err)
	}
	data, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("cached file unreadable: %v", err)
	}
	if string(data) != "jpeg bytes" {
		t.Errorf("cached file holds %q", data)
	}

	// The origin going away must not matter once the file is on disk.
	server.Close()
	second, err := cache.GetCover(7, server.URL+"/cover.jpg")
	if err != nil {
		t.Fatalf("cached GetCover failed: %v", err)
	}
	if first != second {
		t.Errorf("cache returned %s then %s", first, second)
	}
}

func TestGetCover_UpstreamFailure(t *testing.T) {
	server := coverOrigin(t, http.StatusNotFound, "")
	cache, _ := NewCache(t.TempDir())

	if _, err := cache.GetCover(7, server.URL+"/missing.jpg"); err == nil {
		t.Error("expected error for 404 upstream")
	}
}

func TestInvalidateCover_RemovesCachedFile(t *testing.T) {
	server := coverOrigin(t, http.StatusOK, "jpeg bytes")
	cache, _ := NewCache(t.TempDir())

	path, err := cache.GetCover(7, server.URL+"/cover.jpg")
	if err != nil {
		t.Fatalf("GetCover failed: %v", err)
	}
	if err := cache.InvalidateCover(7); err != nil {
		t.Fatalf("InvalidateCover failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("cached file survived invalidation")
	}
}

func TestCoverFilename_Keying(t *testing.T) {
	cache, _ := NewCache(t.TempDir())

	base := cache.coverFilename(1, "https://example.com/cover.jpg")
	if base != cache.coverFilename(1, "https://example.com/cover.jpg") {
		t.Error("filename must be deterministic")
	}
	if base == cache.coverFilename(1, "https://example.com/other.jpg") {
		t.Error("distinct URLs must not collide")
	}
	if base == cache.coverFilename(2, "https://example.com/cover.jpg") {
		t.Error("distinct books must not collide")
	}
}
