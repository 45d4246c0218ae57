package imagestore

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestLocalStore(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root)
	ctx := context.Background()

	if err := store.Save(ctx, "uploads/recipe/test-uuid.jpg", strings.NewReader("jpeg bytes"), "image/jpeg"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	full := filepath.Join(root, "uploads", "recipe", "test-uuid.jpg")
	data, err := os.ReadFile(full)
	if err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}
	if string(data) != "jpeg bytes" {
		t.Errorf("unexpected content: %q", data)
	}

	if err := store.Delete(ctx, "uploads/recipe/test-uuid.jpg"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(full); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected file removed, got %v", err)
	}
	if err := store.Delete(ctx, "uploads/recipe/test-uuid.jpg"); err != nil {
		t.Errorf("deleting a missing file should succeed, got %v", err)
	}
}

func TestLocalStore_InvalidPath(t *testing.T) {
	store := NewLocalStore(t.TempDir())

	for _, key := range []string{"", "/", "../escape.jpg", "uploads/../../escape.jpg"} {
		if err := store.Save(context.Background(), key, strings.NewReader("x"), ""); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("key %q: expected ErrInvalidPath, got %v", key, err)
		}
	}
}

type fakeObjects struct {
	puts    map[string]string
	types   map[string]string
	deleted []string
	err     error
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.puts[*in.Bucket+"/"+*in.Key] = string(body)
	if in.ContentType != nil {
		f.types[*in.Key] = *in.ContentType
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deleted = append(f.deleted, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	fake := &fakeObjects{puts: map[string]string{}, types: map[string]string{}}
	store := &S3Store{client: fake, bucket: "media"}
	ctx := context.Background()

	if err := store.Save(ctx, "uploads/recipe/a.png", strings.NewReader("png"), "image/png"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if fake.puts["media/uploads/recipe/a.png"] != "png" {
		t.Errorf("unexpected uploads: %v", fake.puts)
	}
	if fake.types["uploads/recipe/a.png"] != "image/png" {
		t.Errorf("content type not passed: %v", fake.types)
	}

	if err := store.Delete(ctx, "uploads/recipe/a.png"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(fake.deleted) != 1 {
		t.Errorf("expected one delete, got %v", fake.deleted)
	}

	fake.err = errors.New("boom")
	if err := store.Save(ctx, "uploads/recipe/b.png", strings.NewReader("png"), ""); err == nil {
		t.Error("expected upload error")
	}
}

// TestS3Store_PlainHTTPEndpoint uploads through the real SDK client to an
// http:// endpoint, as used with a local MinIO.
func TestS3Store_PlainHTTPEndpoint(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(t.TempDir(), "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(t.TempDir(), "credentials"))
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	var (
		mu     sync.Mutex
		puts   int
		path   string
		body   string
		header http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		defer mu.Unlock()
		if r.Method == http.MethodPut {
			puts++
			path = r.URL.Path
			body = string(data)
			header = r.Header.Clone()
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	ctx := context.Background()
	store, err := NewS3Store(ctx, S3Config{
		Bucket:    "media",
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "minio",
		SecretKey: "minio-secret",
	})
	if err != nil {
		t.Fatalf("NewS3Store failed: %v", err)
	}

	// A buffered reader cannot seek, like the remainder of a sniffed upload.
	payload := "\x89PNG image bytes"
	r := bufio.NewReader(strings.NewReader(payload))
	if err := store.Save(ctx, "uploads/recipe/c.png", r, "image/png"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if puts != 1 {
		t.Fatalf("expected one PUT, got %d", puts)
	}
	if path != "/media/uploads/recipe/c.png" {
		t.Errorf("unexpected object path %q", path)
	}
	if !strings.Contains(body, payload) {
		t.Errorf("uploaded body %q does not carry the image", body)
	}
	if header.Get("Content-Type") != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", header.Get("Content-Type"))
	}
	if header.Get("Authorization") == "" {
		t.Error("expected a signed request")
	}
}
