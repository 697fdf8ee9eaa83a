package dashboard

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSessionStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "session.json")
	store := NewFileSessionStore(path)

	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("fresh store: ok=%v err=%v", ok, err)
	}

	session := Session{
		Token: "tok-123",
		User:  User{Username: "ops", Role: "admin", AllowedSites: []string{"HQ"}},
	}
	if err := store.Save(session); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, ok, err := store.Load()
	if err != nil || !ok {
		t.Fatalf("Load after save: ok=%v err=%v", ok, err)
	}
	if loaded.Token != session.Token || loaded.User.Username != "ops" {
		t.Fatalf("round trip mismatch: %#v", loaded)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if _, ok, _ := store.Load(); ok {
		t.Fatalf("session survived Clear")
	}
}

func TestFileSessionStoreClearIsIdempotent(t *testing.T) {
	store := NewFileSessionStore(filepath.Join(t.TempDir(), "session.json"))
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear on empty store returned error: %v", err)
	}
}

func TestFileSessionStoreCorruptFileMeansLoggedOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	store := NewFileSessionStore(path)
	if _, ok, err := store.Load(); ok || err != nil {
		t.Fatalf("corrupt session file: ok=%v err=%v", ok, err)
	}
}

func TestMemorySessionStore(t *testing.T) {
	store := NewMemorySessionStore()
	if _, ok, _ := store.Load(); ok {
		t.Fatalf("fresh memory store reported a session")
	}
	if err := store.Save(Session{Token: "t"}); err != nil {
		t.Fatal(err)
	}
	session, ok, _ := store.Load()
	if !ok || session.Token != "t" {
		t.Fatalf("unexpected session: %#v ok=%v", session, ok)
	}
	if err := store.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.Load(); ok {
		t.Fatalf("session survived Clear")
	}
}
