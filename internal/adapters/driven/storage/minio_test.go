package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalese-app/legalese-core/internal/core/domain"
)

// fakeS3 serves the handful of path-style S3 calls the store makes
type fakeS3 struct {
	mu      sync.Mutex
	bucket  bool
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	bucket, key, _ := strings.Cut(path, "/")
	if bucket != "uploads" {
		notFound(w, "NoSuchBucket")
		return
	}

	if key == "" {
		switch r.Method {
		case http.MethodHead:
			if !f.bucket {
				w.WriteHeader(http.StatusNotFound)
				return
			}
		case http.MethodPut:
			f.bucket = true
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		if strings.HasPrefix(r.Header.Get("X-Amz-Content-Sha256"), "STREAMING-") {
			body = decodeChunked(body)
		}
		f.objects[key] = body
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet, http.MethodHead:
		body, ok := f.objects[key]
		if !ok {
			notFound(w, "NoSuchKey")
			return
		}
		w.Header().Set("ETag", `"etag"`)
		w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Length", fmt.Sprint(len(body)))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(body)
		}
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	}
}

// decodeChunked strips aws-chunked framing: "<hex>;chunk-signature=...\r\n<data>\r\n"
func decodeChunked(body []byte) []byte {
	var out []byte
	rest := string(body)
	for {
		header, after, ok := strings.Cut(rest, "\r\n")
		if !ok {
			return out
		}
		sizeHex, _, _ := strings.Cut(header, ";")
		var size int
		if _, err := fmt.Sscanf(sizeHex, "%x", &size); err != nil || size == 0 || size > len(after) {
			return out
		}
		out = append(out, after[:size]...)
		rest = strings.TrimPrefix(after[size:], "\r\n")
	}
}

func (f *fakeS3) snapshot() (bool, map[string][]byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	objects := make(map[string][]byte, len(f.objects))
	for k, v := range f.objects {
		objects[k] = v
	}
	return f.bucket, objects
}

func notFound(w http.ResponseWriter, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>not found</Message></Error>`, code)
}

func newTestStore(t *testing.T) (*MinioStore, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	store, err := NewMinioStore(Config{
		Endpoint:  strings.TrimPrefix(server.URL, "http://"),
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    "uploads",
		Region:    "us-east-1",
	})
	require.NoError(t, err)
	return store, fake
}

func TestNewMinioStore_RequiresEndpointAndBucket(t *testing.T) {
	_, err := NewMinioStore(Config{Bucket: "uploads"})
	assert.Error(t, err)
	_, err = NewMinioStore(Config{Endpoint: "localhost:9000"})
	assert.Error(t, err)
}

func TestMinioStore_EnsureBucketAndPing(t *testing.T) {
	store, fake := newTestStore(t)
	ctx := context.Background()

	assert.Error(t, store.Ping(ctx))

	require.NoError(t, store.EnsureBucket(ctx))
	created, _ := fake.snapshot()
	assert.True(t, created)
	assert.NoError(t, store.Ping(ctx))
}

func TestMinioStore_PutGetDelete(t *testing.T) {
	store, fake := newTestStore(t)
	ctx := context.Background()
	content := "%PDF-1.7 the term is 12 months"

	require.NoError(t, store.Put(ctx, "user-1/contract.pdf", strings.NewReader(content), int64(len(content)), "application/pdf"))
	_, objects := fake.snapshot()
	assert.Equal(t, content, string(objects["user-1/contract.pdf"]))

	rc, err := store.Get(ctx, "user-1/contract.pdf")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, content, string(got))

	require.NoError(t, store.Delete(ctx, "user-1/contract.pdf"))
	_, objects = fake.snapshot()
	assert.Empty(t, objects)

	_, err = store.Get(ctx, "user-1/contract.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// deleting again is fine
	assert.NoError(t, store.Delete(ctx, "user-1/contract.pdf"))
}
