package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestNewUnconfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty", Config{}},
		{"no credentials", Config{Endpoint: "http://s3.local", Bucket: "b"}},
		{"no endpoint", Config{AccessKey: "a", SecretKey: "s", Bucket: "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			if err != nil || c != nil {
				t.Errorf("New() = %v, %v; want nil, nil", c, err)
			}
		})
	}
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(Config{Endpoint: "http://s3.local", AccessKey: "a", SecretKey: "s"})
	if err == nil {
		t.Error("expected error without a bucket")
	}
}

func TestFileURL(t *testing.T) {
	direct, _ := New(Config{Endpoint: "http://s3.local/", AccessKey: "a", SecretKey: "s", Bucket: "covers-bucket"})
	cdn, _ := New(Config{Endpoint: "http://s3.local", AccessKey: "a", SecretKey: "s", Bucket: "covers-bucket", PublicURL: "https://cdn.example.com/"})

	tests := []struct {
		name   string
		client *Client
		key    string
		want   string
	}{
		{"path style", direct, "covers/a.png", "http://s3.local/covers-bucket/covers/a.png"},
		{"public url", cdn, "covers/a.png", "https://cdn.example.com/covers/a.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if url := tt.client.FileURL(tt.key); url != tt.want {
				t.Errorf("FileURL = %q, want %q", url, tt.want)
			}
		})
	}
}

func TestUploadAndDelete(t *testing.T) {
	type call struct {
		method, path, contentType, acl string
		body                           []byte
	}
	var (
		mu    sync.Mutex
		calls []call
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, call{r.Method, r.URL.Path, r.Header.Get("Content-Type"), r.Header.Get("X-Amz-Acl"), body})
		mu.Unlock()
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := New(Config{Endpoint: srv.URL, Region: "us-east-1", AccessKey: "a", SecretKey: "s", Bucket: "media"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	data := []byte("\x89PNG fake image")
	ctx := context.Background()
	if err := c.Upload(ctx, "covers/x.png", "image/png", bytes.NewReader(data), int64(len(data))); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := c.Delete(ctx, "covers/x.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 2 {
		t.Fatalf("calls: got %d, want 2", len(calls))
	}
	put := calls[0]
	if put.method != http.MethodPut || put.path != "/media/covers/x.png" {
		t.Errorf("upload request: %s %s", put.method, put.path)
	}
	if put.contentType != "image/png" {
		t.Errorf("content type: %q", put.contentType)
	}
	if put.acl != "public-read" {
		t.Errorf("acl: %q", put.acl)
	}
	if !bytes.Contains(put.body, data) {
		t.Errorf("body not uploaded: %q", put.body)
	}
	if calls[1].method != http.MethodDelete || calls[1].path != "/media/covers/x.png" {
		t.Errorf("delete request: %s %s", calls[1].method, calls[1].path)
	}
}
