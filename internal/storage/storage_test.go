package storage

import (
	"io"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *DiskStore {
	t.Helper()
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	return store
}

func TestSaveOpenDelete(t *testing.T) {
	store := newTestStore(t)

	n, err := store.Save("proofs/2026/cert.pdf", strings.NewReader("proof bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if n != int64(len("proof bytes")) {
		t.Errorf("Save wrote %d bytes, want %d", n, len("proof bytes"))
	}

	f, err := store.Open("proofs/2026/cert.pdf")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "proof bytes" {
		t.Errorf("read %q, want %q", data, "proof bytes")
	}

	if err := store.Delete("proofs/2026/cert.pdf"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Open("proofs/2026/cert.pdf"); err == nil {
		t.Error("Open succeeded after Delete")
	}
}

func TestDeleteMissingIsNoError(t *testing.T) {
	store := newTestStore(t)
	if err := store.Delete("never/written.bin"); err != nil {
		t.Errorf("Delete of missing blob: %v", err)
	}
}

func TestChecksum(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Save("a.txt", strings.NewReader("hello")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	sum, size, err := store.Checksum("a.txt")
	if err != nil {
		t.Fatalf("Checksum: %v", err)
	}
	// sha256("hello")
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if sum != want {
		t.Errorf("checksum = %s, want %s", sum, want)
	}
	if size != 5 {
		t.Errorf("size = %d, want 5", size)
	}
}

func TestRejectsTraversal(t *testing.T) {
	store := newTestStore(t)
	for _, key := range []string{"", "../escape", "/abs/path"} {
		if _, err := store.Save(key, strings.NewReader("x")); err != ErrInvalidKey {
			t.Errorf("Save(%q) err = %v, want ErrInvalidKey", key, err)
		}
	}
}
