package downloader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestResolveOutputPathPlainFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "archive.bin")
	resolved, err := ResolveOutputPath(target, "https://example.com/archive.bin")
	if err != nil {
		t.Fatalf("ResolveOutputPath returned error: %v", err)
	}
	if resolved != target {
		t.Errorf("resolved = %q, want %q", resolved, target)
	}
}

func TestResolveOutputPathExistingDirectory(t *testing.T) {
	dir := t.TempDir()
	resolved, err := ResolveOutputPath(dir, "https://example.com/files/data.tar.gz?token=abc")
	if err != nil {
		t.Fatalf("ResolveOutputPath returned error: %v", err)
	}
	if resolved != filepath.Join(dir, "data.tar.gz") {
		t.Errorf("resolved = %q, want URL filename inside %q", resolved, dir)
	}
}

func TestResolveOutputPathTrailingSeparator(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "not-yet-created") + string(os.PathSeparator)
	resolved, err := ResolveOutputPath(dir, "https://example.com/download/movie.mkv")
	if err != nil {
		t.Fatalf("ResolveOutputPath returned error: %v", err)
	}
	if filepath.Base(resolved) != "movie.mkv" {
		t.Errorf("resolved = %q, want movie.mkv inside the directory", resolved)
	}
}

func TestResolveOutputPathNamelessURL(t *testing.T) {
	dir := t.TempDir()
	resolved, err := ResolveOutputPath(dir, "https://example.com/")
	if err != nil {
		t.Fatalf("ResolveOutputPath returned error: %v", err)
	}
	if filepath.Base(resolved) != "download" {
		t.Errorf("resolved = %q, want fallback name download", resolved)
	}
}

func TestResolveOutputPathRenewsExisting(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "report.pdf")
	if err := os.WriteFile(target, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	resolved, err := ResolveOutputPath(target, "https://example.com/report.pdf")
	if err != nil {
		t.Fatalf("ResolveOutputPath returned error: %v", err)
	}
	if resolved != filepath.Join(dir, "report-(1).pdf") {
		t.Errorf("resolved = %q, want report-(1).pdf", resolved)
	}
}

func TestResolveOutputPathEmpty(t *testing.T) {
	if _, err := ResolveOutputPath("", "https://example.com/x"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty path: got %v, want ErrInvalidArgument", err)
	}
}

func TestCreateDestFilePreallocates(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "dir", "payload.bin")
	dest, err := CreateDestFile(target, 4096)
	if err != nil {
		t.Fatalf("CreateDestFile returned error: %v", err)
	}
	info, err := os.Stat(dest.Path)
	if err != nil {
		t.Fatalf("stat destination: %v", err)
	}
	if info.Size() != 4096 {
		t.Errorf("destination size = %d, want 4096", info.Size())
	}
	handle, err := dest.OpenHandle()
	if err != nil {
		t.Fatalf("OpenHandle returned error: %v", err)
	}
	defer handle.Close()
	if err := dest.Close(); err != nil {
		t.Errorf("Close returned error: %v", err)
	}
	// worker handles outlive the creation handle
	if _, err := handle.WriteAt([]byte("abc"), 1024); err != nil {
		t.Errorf("WriteAt into preallocated span: %v", err)
	}
}

func TestCreateDestFileZeroSize(t *testing.T) {
	target := filepath.Join(t.TempDir(), "empty.bin")
	dest, err := CreateDestFile(target, 0)
	if err != nil {
		t.Fatalf("CreateDestFile returned error: %v", err)
	}
	defer dest.Close()
	info, err := os.Stat(dest.Path)
	if err != nil {
		t.Fatalf("stat destination: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("destination size = %d, want 0", info.Size())
	}
}
