// internal/storage/archive/localfs_test.go
package archive

import (
	"context"
	"testing"
)

func TestLocalFS_ImplementsStorage(t *testing.T) {
	var _ Storage = (*LocalFS)(nil)
}

func TestLocalFS_WriteRead(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewLocalFS(dir)
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}

	ctx := context.Background()
	data := []byte(`{"status":"ok"}`)

	if err := fs.Write(ctx, "symbols/cu/days/2026-08-27.json", data); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := fs.Read(ctx, "symbols/cu/days/2026-08-27.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if string(got) != string(data) {
		t.Errorf("got %q, want %q", got, data)
	}
}

func TestLocalFS_Exists(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	ctx := context.Background()

	exists, _ := fs.Exists(ctx, "nonexistent.json")
	if exists {
		t.Error("expected false for nonexistent file")
	}

	fs.Write(ctx, "latest.json", []byte("{}"))
	exists, _ = fs.Exists(ctx, "latest.json")
	if !exists {
		t.Error("expected true for existing file")
	}
}

func TestLocalFS_List(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	ctx := context.Background()

	fs.Write(ctx, "symbols/cu/days/2026-08-26.json", []byte("a"))
	fs.Write(ctx, "symbols/cu/days/2026-08-27.json", []byte("b"))
	fs.Write(ctx, "symbols/al/days/2026-08-27.json", []byte("c"))

	paths, err := fs.List(ctx, "symbols/cu/days")
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %d", len(paths))
	}
	// Slash-separated regardless of platform, so published paths sort
	// and compare the same as S3 keys.
	for _, p := range paths {
		if p != "symbols/cu/days/2026-08-26.json" && p != "symbols/cu/days/2026-08-27.json" {
			t.Errorf("unexpected path %q", p)
		}
	}
}

func TestLocalFS_ListMissingPrefix(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)

	paths, err := fs.List(context.Background(), "symbols/zn/days")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("expected empty list, got %v", paths)
	}
}

func TestLocalFS_Delete(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	ctx := context.Background()

	fs.Write(ctx, "exports/cu.csv", []byte("data"))
	fs.Delete(ctx, "exports/cu.csv")

	exists, _ := fs.Exists(ctx, "exports/cu.csv")
	if exists {
		t.Error("file should be deleted")
	}
}

func TestNewDefaultsToLocalFS(t *testing.T) {
	store, err := New(Config{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := store.(*LocalFS); !ok {
		t.Errorf("store = %T, want *LocalFS", store)
	}
}
