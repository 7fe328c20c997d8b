package downloader

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/tanq16/baku/internal/utils"
)

// Remote is one URL reachable through a configured client. FetchSize asks
// for metadata only; OpenRange opens a stream over a byte span.
type Remote struct {
	url    string
	client *utils.BakuHTTPClient
}

func NewRemote(url string, client *utils.BakuHTTPClient) *Remote {
	return &Remote{url: url, client: client}
}

func (r *Remote) URL() string {
	return r.url
}

// FetchSize issues a HEAD request and returns the declared content length.
// A length of zero is valid; a missing or negative one is not.
func (r *Remote) FetchSize() (int64, error) {
	req, err := http.NewRequest("HEAD", r.url, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSizeUnavailable, err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSizeUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return 0, fmt.Errorf("%w: server returned %d", ErrSizeUnavailable, resp.StatusCode)
	}
	contentLength := resp.Header.Get("Content-Length")
	if contentLength == "" {
		return 0, fmt.Errorf("%w: server didn't provide Content-Length header", ErrSizeUnavailable)
	}
	size, err := strconv.ParseInt(contentLength, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad Content-Length %q", ErrSizeUnavailable, contentLength)
	}
	if size < 0 {
		return 0, fmt.Errorf("%w: negative Content-Length %d", ErrSizeUnavailable, size)
	}
	return size, nil
}

// OpenRange requests bytes [start, end] (both inclusive, the wire
// convention) and returns the body stream. A server that ignores the Range
// header answers 200 with the whole file, which would corrupt offset
// writes, so anything but 206 is rejected.
func (r *Remote) OpenRange(start, end int64) (io.ReadCloser, error) {
	req, err := http.NewRequest("GET", r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRangeRequestFailed, err)
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, end))
	req.Header.Set("Connection", "keep-alive")
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRangeRequestFailed, err)
	}
	if resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: unexpected status code %d", ErrRangeRequestFailed, resp.StatusCode)
	}
	return resp.Body, nil
}
