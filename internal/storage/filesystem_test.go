package storage

import (
	"context"
	"io"
	"os"
	"testing"
)

func TestWriteAndOpen(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	key, err := store.Write(context.Background(), "videos/result.mp4", []byte("MOVIE"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if key != "videos/result.mp4" {
		t.Fatalf("key = %q", key)
	}

	f, err := store.Open(key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "MOVIE" {
		t.Fatalf("data = %q", data)
	}

	if _, err := os.Stat(store.Path(key)); err != nil {
		t.Fatalf("Path should resolve to the written file: %v", err)
	}
}

func TestWriteRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := store.Write(context.Background(), "../escape.mp4", []byte("x")); err == nil {
		t.Fatal("expected traversal rejection")
	}
	if store.Path("../escape.mp4") != "" {
		t.Fatal("Path must not resolve traversal keys")
	}
}

func TestWriteRequiresKey(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := store.Write(context.Background(), "  ", []byte("x")); err == nil {
		t.Fatal("expected error for empty key")
	}
}
