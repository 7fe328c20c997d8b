package downloader

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/tanq16/baku/internal/utils"
)

// ResolveOutputPath turns the user-facing output argument into a concrete
// file path. A path that is an existing directory (or ends with a path
// separator) gets the URL-derived filename appended; anything else is taken
// as the file path itself. An existing file is never clobbered; the path is
// renewed with a -(N) suffix instead.
func ResolveOutputPath(outputPath, rawURL string) (string, error) {
	if outputPath == "" {
		return "", ErrInvalidArgument
	}
	isDir := strings.HasSuffix(outputPath, "/") || strings.HasSuffix(outputPath, string(os.PathSeparator))
	if info, err := os.Stat(outputPath); err == nil && info.IsDir() {
		isDir = true
	}
	resolved := outputPath
	if isDir {
		name, err := filenameFromURL(rawURL)
		if err != nil {
			return "", err
		}
		resolved = filepath.Join(outputPath, name)
	}
	if _, err := os.Stat(resolved); err == nil {
		resolved = utils.RenewOutputPath(resolved)
	}
	return resolved, nil
}

func filenameFromURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("error parsing url: %v", err)
	}
	name := path.Base(parsed.Path)
	if name == "/" || name == "." || name == "" {
		name = "download"
	}
	return name, nil
}

// DestFile is the single local file all workers write into. It is created
// and sized up front so every offset write lands inside an allocated span.
type DestFile struct {
	Path string
	Size int64
	file *os.File
}

func CreateDestFile(path string, size int64) (*DestFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("error creating destination directory: %v", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("error creating destination file: %v", err)
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, fmt.Errorf("error sizing destination file: %v", err)
	}
	return &DestFile{Path: path, Size: size, file: f}, nil
}

// OpenHandle returns an independent write handle. Each worker gets its own
// handle, so nothing file-level is shared between goroutines.
func (d *DestFile) OpenHandle() (*os.File, error) {
	return os.OpenFile(d.Path, os.O_WRONLY, 0644)
}

// Close releases the creation handle; worker handles are unaffected.
func (d *DestFile) Close() error {
	return d.file.Close()
}
