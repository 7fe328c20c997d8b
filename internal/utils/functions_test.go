package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseHeaderArgs(t *testing.T) {
	headers := []string{
		"Authorization: Bearer token123",
		"X-Custom:  spaced value ",
		"malformed-no-colon",
		"Accept: text/html",
	}
	result := ParseHeaderArgs(headers)
	if len(result) != 3 {
		t.Fatalf("expected 3 headers, got %d", len(result))
	}
	if result["Authorization"] != "Bearer token123" {
		t.Errorf("unexpected Authorization value: %q", result["Authorization"])
	}
	if result["X-Custom"] != "spaced value" {
		t.Errorf("whitespace not trimmed: %q", result["X-Custom"])
	}
}

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   uint64
		want string
	}{
		{512, "512 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1048576, "1.00 MB"},
	}
	for _, c := range cases {
		if got := FormatBytes(c.in); got != c.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatSpeed(t *testing.T) {
	if got := FormatSpeed(2048, 2); got != "1.00 KB/s" {
		t.Errorf("FormatSpeed(2048, 2) = %q, want 1.00 KB/s", got)
	}
	if got := FormatSpeed(100, 0); got != "0 B/s" {
		t.Errorf("FormatSpeed with zero elapsed = %q, want 0 B/s", got)
	}
}

func TestRenewOutputPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	renewed := RenewOutputPath(path)
	if want := filepath.Join(dir, "report-(1).txt"); renewed != want {
		t.Errorf("got %q, want %q", renewed, want)
	}
	if err := os.WriteFile(renewed, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if got, want := RenewOutputPath(path), filepath.Join(dir, "report-(2).txt"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
