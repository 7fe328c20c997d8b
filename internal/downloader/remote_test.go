package downloader

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/tanq16/baku/internal/utils"
)

func testPattern(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func testClient() *utils.BakuHTTPClient {
	return utils.NewBakuHTTPClient(utils.HTTPClientConfig{})
}

// rangeHandler serves data with HEAD metadata and honest Range handling:
// requested ends past the last byte are clamped the way real servers do.
func rangeHandler(data []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.Header().Set("Content-Length", strconv.Itoa(len(data)))
			w.Header().Set("Accept-Ranges", "bytes")
		case http.MethodGet:
			rangeHeader := r.Header.Get("Range")
			if rangeHeader == "" {
				w.Write(data)
				return
			}
			var start, end int64
			if _, err := fmt.Sscanf(rangeHeader, "bytes=%d-%d", &start, &end); err != nil {
				http.Error(w, "bad range", http.StatusBadRequest)
				return
			}
			if end >= int64(len(data)) {
				end = int64(len(data)) - 1
			}
			if start > end || start < 0 {
				http.Error(w, "unsatisfiable", http.StatusRequestedRangeNotSatisfiable)
				return
			}
			w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, len(data)))
			w.Header().Set("Content-Length", strconv.FormatInt(end-start+1, 10))
			w.WriteHeader(http.StatusPartialContent)
			w.Write(data[start : end+1])
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func newRangeServer(t *testing.T, data []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(rangeHandler(data))
	t.Cleanup(server.Close)
	return server
}

func TestFetchSize(t *testing.T) {
	server := newRangeServer(t, testPattern(4096))
	remote := NewRemote(server.URL, testClient())
	size, err := remote.FetchSize()
	if err != nil {
		t.Fatalf("FetchSize returned error: %v", err)
	}
	if size != 4096 {
		t.Errorf("FetchSize = %d, want 4096", size)
	}
}

func TestFetchSizeZeroLength(t *testing.T) {
	server := newRangeServer(t, nil)
	remote := NewRemote(server.URL, testClient())
	size, err := remote.FetchSize()
	if err != nil {
		t.Fatalf("FetchSize returned error: %v", err)
	}
	if size != 0 {
		t.Errorf("FetchSize = %d, want 0", size)
	}
}

func TestFetchSizeMissingContentLength(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// no explicit Content-Length and nothing written, so the HEAD
		// response carries no length at all
	}))
	t.Cleanup(server.Close)
	remote := NewRemote(server.URL, testClient())
	if _, err := remote.FetchSize(); !errors.Is(err, ErrSizeUnavailable) {
		t.Errorf("FetchSize error = %v, want ErrSizeUnavailable", err)
	}
}

func TestFetchSizeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)
	remote := NewRemote(server.URL, testClient())
	if _, err := remote.FetchSize(); !errors.Is(err, ErrSizeUnavailable) {
		t.Errorf("FetchSize error = %v, want ErrSizeUnavailable", err)
	}
}

func TestOpenRange(t *testing.T) {
	data := testPattern(1000)
	server := newRangeServer(t, data)
	remote := NewRemote(server.URL, testClient())
	stream, err := remote.OpenRange(10, 19)
	if err != nil {
		t.Fatalf("OpenRange returned error: %v", err)
	}
	defer stream.Close()
	got, err := io.ReadAll(stream)
	if err != nil {
		t.Fatalf("reading range body: %v", err)
	}
	if string(got) != string(data[10:20]) {
		t.Errorf("OpenRange(10, 19) returned %d unexpected bytes", len(got))
	}
}

func TestOpenRangeRejectsFullResponse(t *testing.T) {
	data := testPattern(100)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// a server that ignores Range and replies 200 with everything
		w.Write(data)
	}))
	t.Cleanup(server.Close)
	remote := NewRemote(server.URL, testClient())
	if _, err := remote.OpenRange(0, 49); !errors.Is(err, ErrRangeRequestFailed) {
		t.Errorf("OpenRange error = %v, want ErrRangeRequestFailed", err)
	}
}
