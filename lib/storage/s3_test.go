package storage

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is a tiny path-style S3 subset: PUT stores, everything else 501s.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    bool
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	if len(parts) != 2 || req.Method != http.MethodPut {
		return respond(http.StatusNotImplemented), nil
	}
	if f.fail {
		return respond(http.StatusForbidden), nil
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	if strings.Contains(req.Header.Get("Content-Encoding"), "aws-chunked") {
		body = decodeAWSChunked(body)
	}
	f.mu.Lock()
	f.objects[parts[1]] = body
	f.mu.Unlock()
	resp := respond(http.StatusOK)
	resp.Header.Set("ETag", `"etag"`)
	return resp, nil
}

func respond(status int) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{},
		Body:       io.NopCloser(bytes.NewReader(nil)),
	}
}

// decodeAWSChunked strips the aws-chunked framing: <hex>[;ext]\r\n<data>\r\n ... 0\r\n<trailers>
func decodeAWSChunked(b []byte) []byte {
	var out bytes.Buffer
	r := bufio.NewReader(bytes.NewReader(b))
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return out.Bytes()
		}
		sizeField := strings.TrimSpace(strings.SplitN(line, ";", 2)[0])
		size, err := strconv.ParseInt(sizeField, 16, 64)
		if err != nil || size == 0 {
			return out.Bytes()
		}
		chunk := make([]byte, size)
		if _, err := io.ReadFull(r, chunk); err != nil {
			return out.Bytes()
		}
		out.Write(chunk)
		_, _ = r.ReadString('\n')
	}
}

func newFakeS3Store(t *testing.T) (*S3Store, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: make(map[string][]byte)}
	store, err := NewS3(context.Background(), S3Config{
		Region:          "us-east-1",
		Bucket:          "plant-files",
		Endpoint:        "https://mock.s3.local",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		PathStyle:       true,
		HTTPClient:      &http.Client{Transport: fake},
	})
	require.NoError(t, err)
	return store, fake
}

func TestNewS3RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), S3Config{})
	require.Error(t, err)
}

func TestS3Upload(t *testing.T) {
	store, fake := newFakeS3Store(t)
	payload := []byte("ply binary")

	err := store.Upload(context.Background(), "abc.ply", bytes.NewReader(payload), int64(len(payload)), "application/octet-stream")
	require.NoError(t, err)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, payload, fake.objects["abc.ply"])
	assert.Equal(t, DriverS3, store.Driver())
}

func TestS3UploadFailure(t *testing.T) {
	store, fake := newFakeS3Store(t)
	fake.fail = true

	err := store.Upload(context.Background(), "abc.png", strings.NewReader("x"), 1, "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "abc.png")
}

func TestS3SignedURL(t *testing.T) {
	store, _ := newFakeS3Store(t)
	ctx := context.Background()

	read, err := store.SignedURL(ctx, "abc.png", PermissionRead, time.Hour)
	require.NoError(t, err)
	assert.Contains(t, read, "https://mock.s3.local/plant-files/abc.png")
	assert.Contains(t, read, "X-Amz-Expires=3600")
	assert.Contains(t, read, "X-Amz-Signature=")

	write, err := store.SignedURL(ctx, "abc.png", PermissionWrite, 10*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, write, "X-Amz-Expires=600")
	assert.NotEqual(t, read, write)

	_, err = store.SignedURL(ctx, "abc.png", Permission("delete"), time.Minute)
	require.Error(t, err)
}
