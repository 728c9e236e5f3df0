package syncer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"koqa/internal/objstore"
)

// fakeStore is an in-memory objstore.Store for tests.
type fakeStore struct {
	objects map[string]string // key -> content
	listErr error
}

func (f *fakeStore) EnsureBucket(ctx context.Context, bucket string) error {
	return nil
}

func (f *fakeStore) List(ctx context.Context, bucket string) ([]objstore.ObjectInfo, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var infos []objstore.ObjectInfo
	for key, content := range f.objects {
		infos = append(infos, objstore.ObjectInfo{Key: key, Size: int64(len(content))})
	}
	return infos, nil
}

func (f *fakeStore) Download(ctx context.Context, bucket, key, localPath string) error {
	content, ok := f.objects[key]
	if !ok {
		return errors.New("object not found")
	}
	return os.WriteFile(localPath, []byte(content), 0644)
}

func TestSyncer_Sync(t *testing.T) {
	store := &fakeStore{
		objects: map[string]string{
			"guide.md":          "# 안내\n\n사내 문서입니다.",
			"events/2025.csv":   "행사명,행사 시작일\n심포지엄,2025-04-01",
			"notes.jsonl":       `{"id":"a"}`,
			"image.png":         "binary",
			"archive/dump.sql":  "SELECT 1;",
		},
	}

	docsDir := t.TempDir()
	s := New(store, "documents", docsDir)

	downloaded, err := s.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() unexpected error: %v", err)
	}

	if len(downloaded) != 3 {
		t.Errorf("Sync() downloaded %d files, want 3: %v", len(downloaded), downloaded)
	}

	// Unsupported extensions must not be downloaded
	if _, err := os.Stat(filepath.Join(docsDir, "image.png")); !os.IsNotExist(err) {
		t.Error("Sync() downloaded unsupported file image.png")
	}

	// Nested keys preserve their path
	content, err := os.ReadFile(filepath.Join(docsDir, "events", "2025.csv"))
	if err != nil {
		t.Fatalf("expected nested file to exist: %v", err)
	}
	if len(content) == 0 {
		t.Error("downloaded file is empty")
	}
}

func TestSyncer_Sync_ListError(t *testing.T) {
	store := &fakeStore{listErr: errors.New("connection refused")}
	s := New(store, "documents", t.TempDir())

	if _, err := s.Sync(context.Background()); err == nil {
		t.Error("Sync() expected error when listing fails")
	}
}

func TestSyncer_ListRemote(t *testing.T) {
	store := &fakeStore{
		objects: map[string]string{
			"a.md":  "x",
			"b.csv": "y",
			"c.txt": "z",
		},
	}
	s := New(store, "documents", t.TempDir())

	keys, err := s.ListRemote(context.Background())
	if err != nil {
		t.Fatalf("ListRemote() unexpected error: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("ListRemote() = %v, want 2 supported keys", keys)
	}
}

func TestSyncer_Scan(t *testing.T) {
	docsDir := t.TempDir()
	mustWrite := func(rel, content string) {
		path := filepath.Join(docsDir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	mustWrite("root.md", "# Root")
	mustWrite("events/list.csv", "행사명\n워크숍")
	mustWrite("events/raw.bin", "skip me")

	s := New(&fakeStore{}, "documents", docsDir)
	files, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() unexpected error: %v", err)
	}

	if len(files) != 2 {
		t.Fatalf("Scan() found %d files, want 2: %+v", len(files), files)
	}

	byPath := make(map[string]ScannedFile)
	for _, f := range files {
		byPath[f.RelPath] = f
	}

	if f, ok := byPath["root.md"]; !ok || f.Folder != "" {
		t.Errorf("root.md folder = %q, want empty", f.Folder)
	}
	if f, ok := byPath["events/list.csv"]; !ok || f.Folder != "events" {
		t.Errorf("events/list.csv folder = %q, want events", f.Folder)
	}
}

func TestSyncer_Scan_MissingDir(t *testing.T) {
	s := New(&fakeStore{}, "documents", filepath.Join(t.TempDir(), "does-not-exist"))
	files, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() unexpected error for missing dir: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("Scan() = %v, want empty", files)
	}
}

func TestIsSupported(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"a.md", true},
		{"b.csv", true},
		{"c.jsonl", true},
		{"d.MD", true},
		{"e.txt", false},
		{"noext", false},
		{"nested/path/f.csv", true},
	}
	for _, tt := range tests {
		if got := IsSupported(tt.key); got != tt.want {
			t.Errorf("IsSupported(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
