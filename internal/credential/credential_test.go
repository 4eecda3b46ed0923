package credential_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tasktrack/internal/credential"
)

func exerciseStore(t *testing.T, store credential.Store) {
	t.Helper()

	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("expected empty store, got ok=%v err=%v", ok, err)
	}

	want := credential.Credential{
		Token:     "tok-1",
		UserID:    "alice@example.com",
		ExpiresAt: time.Date(2026, 10, 20, 12, 0, 0, 0, time.UTC),
	}
	if err := store.Save(want); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, ok, err := store.Load()
	if err != nil || !ok {
		t.Fatalf("expected stored credential, got ok=%v err=%v", ok, err)
	}
	if got.Token != want.Token || got.UserID != want.UserID || !got.ExpiresAt.Equal(want.ExpiresAt) {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	// Save replaces, never appends.
	if err := store.Save(credential.Credential{Token: "tok-2", UserID: "bob@example.com"}); err != nil {
		t.Fatalf("second save failed: %v", err)
	}
	got, _, _ = store.Load()
	if got.Token != "tok-2" {
		t.Errorf("expected replaced token tok-2, got %q", got.Token)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, ok, err := store.Load(); err != nil || ok {
		t.Errorf("expected empty store after clear, got ok=%v err=%v", ok, err)
	}
	if err := store.Clear(); err != nil {
		t.Errorf("clearing an empty store should succeed, got %v", err)
	}
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	exerciseStore(t, credential.NewFile(path))
}

func TestFileStore_Mode0600(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store := credential.NewFile(path)
	if err := store.Save(credential.Credential{Token: "t", UserID: "u@example.com"}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected mode 0600, got %o", perm)
	}
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	_, ok, err := credential.NewFile(path).Load()
	if ok || !errors.Is(err, credential.ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got ok=%v err=%v", ok, err)
	}
}

func TestSQLiteStore(t *testing.T) {
	store, err := credential.OpenSQLite(filepath.Join(t.TempDir(), "tasktrack.db"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer store.Close()
	exerciseStore(t, store)
}

func TestSQLiteStore_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasktrack.db")
	first, err := credential.OpenSQLite(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := first.Save(credential.Credential{Token: "persisted", UserID: "a@example.com"}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	first.Close()

	second, err := credential.OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer second.Close()
	got, ok, err := second.Load()
	if err != nil || !ok || got.Token != "persisted" {
		t.Errorf("expected persisted credential, got %+v ok=%v err=%v", got, ok, err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, credential.NewMemory())
}

func TestCredentialExpired(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	if (credential.Credential{}).Expired(now) {
		t.Error("credential without expiry should not be expired")
	}
	if !(credential.Credential{ExpiresAt: now}).Expired(now) {
		t.Error("credential expiring now should be expired")
	}
	if (credential.Credential{ExpiresAt: now.Add(time.Minute)}).Expired(now) {
		t.Error("credential expiring later should not be expired")
	}
}
