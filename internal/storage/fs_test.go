package storage

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestFSStoreRoundTrip(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key, err := s.Put("/exams/e1/q1/diagram.png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if key != "exams/e1/q1/diagram.png" {
		t.Fatalf("key = %q", key)
	}
	rc, err := s.Get(key)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "png-bytes" {
		t.Fatalf("content = %q", b)
	}
	if _, err := s.Get("exams/e1/missing.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing: %v", err)
	}
}

func TestCleanKeyRejectsEscapes(t *testing.T) {
	for _, k := range []string{"", "/", "..", "../etc/passwd", "a/../../b", `..\secret`} {
		if _, err := CleanKey(k); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("CleanKey(%q) = %v, want ErrInvalidKey", k, err)
		}
	}
	if k, err := CleanKey("a/./b//c"); err != nil || k != "a/b/c" {
		t.Fatalf("CleanKey = %q, %v", k, err)
	}
}
