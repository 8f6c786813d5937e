package kv

import "testing"

func TestStoreSetGetDelete(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if _, ok, err := s.Get("missing"); err != nil || ok {
		t.Fatalf("Get missing = ok=%v err=%v", ok, err)
	}

	if err := s.Set("k", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := s.Get("k")
	if err != nil || !ok || got != "v1" {
		t.Fatalf("Get = %q, %v, %v", got, ok, err)
	}

	// A second write replaces the value wholesale.
	if err := s.Set("k", "v2"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, _, _ = s.Get("k")
	if got != "v2" {
		t.Fatalf("Get after rewrite = %q", got)
	}

	if err := s.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get("k"); ok {
		t.Fatal("value should be gone after Delete")
	}
	if err := s.Delete("k"); err != nil {
		t.Fatalf("Delete of absent key should be a no-op: %v", err)
	}
}

func TestStoreKeySanitization(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.Set("../escape", "x"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := s.Get("../escape")
	if err != nil || !ok || got != "x" {
		t.Fatalf("Get = %q, %v, %v", got, ok, err)
	}
}
