package session_test

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	sessionModel "github.com/livepaste/backend/internal/model/session"
	session "github.com/livepaste/backend/internal/service/session"
)

func newRegistry(t *testing.T) *session.Registry {
	t.Helper()
	return session.NewRegistry(filepath.Join(t.TempDir(), "sessions.json"))
}

func TestCreateConflictUntilEnded(t *testing.T) {
	r := newRegistry(t)

	if _, err := r.Create("secret", "alice"); err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if _, err := r.Create("secret", "bob"); err != session.ErrSessionExists {
		t.Fatalf("expected ErrSessionExists, got %v", err)
	}

	if err := r.End("secret", "alice"); err != nil {
		t.Fatalf("End err: %v", err)
	}

	// The passphrase frees up as soon as the prior session has ended.
	if _, err := r.Create("secret", "bob"); err != nil {
		t.Fatalf("Create after end err: %v", err)
	}
}

func TestUpdateContentReadYourWrite(t *testing.T) {
	r := newRegistry(t)
	if _, err := r.Create("secret", ""); err != nil {
		t.Fatalf("Create err: %v", err)
	}

	if err := r.UpdateContent("secret", "hello clipboard"); err != nil {
		t.Fatalf("UpdateContent err: %v", err)
	}

	s, ok := r.Get("secret")
	if !ok {
		t.Fatal("expected session")
	}
	if s.Content != "hello clipboard" {
		t.Fatalf("unexpected content: %q", s.Content)
	}
}

func TestUpdateContentNotFound(t *testing.T) {
	r := newRegistry(t)
	if err := r.UpdateContent("missing", "x"); err != session.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestEndOwnership(t *testing.T) {
	r := newRegistry(t)
	if _, err := r.Create("secret", "alice"); err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if err := r.UpdateContent("secret", "payload"); err != nil {
		t.Fatalf("UpdateContent err: %v", err)
	}

	if err := r.End("secret", "mallory"); err != session.ErrNotOwner {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := r.End("secret", "alice"); err != nil {
		t.Fatalf("End err: %v", err)
	}

	s, ok := r.Get("secret")
	if !ok {
		t.Fatal("ended session should remain until gc")
	}
	if !s.Ended {
		t.Fatal("expected ended flag")
	}
	if s.Content != "" {
		t.Fatalf("content should be cleared on end, got %q", s.Content)
	}
	if len(s.Files) != 0 {
		t.Fatalf("files should be cleared on end, got %+v", s.Files)
	}
}

func TestEndAnonymousSession(t *testing.T) {
	r := newRegistry(t)
	if _, err := r.Create("secret", ""); err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if err := r.End("secret", "anyone"); err != nil {
		t.Fatalf("anonymous sessions can be ended by anyone, got %v", err)
	}
}

func TestAppendFile(t *testing.T) {
	r := newRegistry(t)
	if _, err := r.Create("secret", ""); err != nil {
		t.Fatalf("Create err: %v", err)
	}

	rec := sessionModel.FileRecord{
		Filename:    "notes.txt",
		URL:         "/static/uploads/secret/notes.txt",
		Size:        5,
		ContentType: "text/plain",
		UploadedAt:  time.Now().UTC(),
	}
	if err := r.AppendFile("secret", rec); err != nil {
		t.Fatalf("AppendFile err: %v", err)
	}

	s, _ := r.Get("secret")
	if len(s.Files) != 1 || s.Files[0].Filename != "notes.txt" {
		t.Fatalf("unexpected files: %+v", s.Files)
	}
}

func TestGarbageCollect(t *testing.T) {
	r := newRegistry(t)

	// Ended sessions go regardless of age or connections.
	if _, err := r.Create("ended", "a"); err != nil {
		t.Fatalf("Create err: %v", err)
	}
	r.ConnectionOpened("ended")
	if err := r.End("ended", "a"); err != nil {
		t.Fatalf("End err: %v", err)
	}

	// Idle, disconnected sessions go once they outlive the expiry.
	if _, err := r.Create("idle", ""); err != nil {
		t.Fatalf("Create err: %v", err)
	}

	// Connected sessions stay regardless of age.
	if _, err := r.Create("busy", ""); err != nil {
		t.Fatalf("Create err: %v", err)
	}
	r.ConnectionOpened("busy")

	time.Sleep(20 * time.Millisecond)
	removed := r.GarbageCollect(10 * time.Millisecond)
	if removed != 2 {
		t.Fatalf("expected 2 removed (ended + idle past expiry), got %d", removed)
	}
	if _, ok := r.Get("idle"); ok {
		t.Fatal("idle session past expiry should be collected")
	}
	if _, ok := r.Get("ended"); ok {
		t.Fatal("ended session should be collected")
	}
	if _, ok := r.Get("busy"); !ok {
		t.Fatal("connected session must survive gc")
	}
}

func TestPersistLoadRoundTrip(t *testing.T) {
	dataFile := filepath.Join(t.TempDir(), "sessions.json")

	r := session.NewRegistry(dataFile)
	for i := 0; i < 3; i++ {
		p := fmt.Sprintf("pass-%d", i)
		if _, err := r.Create(p, "alice"); err != nil {
			t.Fatalf("Create err: %v", err)
		}
		if err := r.UpdateContent(p, fmt.Sprintf("content-%d", i)); err != nil {
			t.Fatalf("UpdateContent err: %v", err)
		}
		if err := r.AppendFile(p, sessionModel.FileRecord{Filename: "f.txt", Size: int64(i)}); err != nil {
			t.Fatalf("AppendFile err: %v", err)
		}
	}
	if err := r.End("pass-2", "alice"); err != nil {
		t.Fatalf("End err: %v", err)
	}
	if err := r.Persist(); err != nil {
		t.Fatalf("Persist err: %v", err)
	}

	restored := session.NewRegistry(dataFile)
	for i := 0; i < 3; i++ {
		p := fmt.Sprintf("pass-%d", i)
		want, _ := r.Get(p)
		want.Connected = 0 // connections never survive a restart
		got, ok := restored.Get(p)
		if !ok {
			t.Fatalf("missing session %s after reload", p)
		}
		if !reflect.DeepEqual(want, got) {
			t.Fatalf("round trip mismatch for %s:\nwant %+v\ngot  %+v", p, want, got)
		}
	}
}

func TestLoadCorruptSnapshot(t *testing.T) {
	dataFile := filepath.Join(t.TempDir(), "sessions.json")
	if err := os.WriteFile(dataFile, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write err: %v", err)
	}

	r := session.NewRegistry(dataFile)
	if _, err := r.Create("secret", ""); err != nil {
		t.Fatalf("corrupt snapshot must yield an empty registry, got %v", err)
	}
}

func TestConcurrentUpdates(t *testing.T) {
	r := newRegistry(t)
	if _, err := r.Create("secret", ""); err != nil {
		t.Fatalf("Create err: %v", err)
	}

	const writers = 32
	written := make([]string, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		written[i] = fmt.Sprintf("value-%d", i)
		wg.Add(1)
		go func(content string) {
			defer wg.Done()
			if err := r.UpdateContent("secret", content); err != nil {
				t.Errorf("UpdateContent err: %v", err)
			}
		}(written[i])
	}
	wg.Wait()

	s, ok := r.Get("secret")
	if !ok {
		t.Fatal("registry lost the session")
	}
	for _, w := range written {
		if s.Content == w {
			return
		}
	}
	t.Fatalf("final content %q is none of the written values", s.Content)
}

func TestConnectionCountNeverNegative(t *testing.T) {
	r := newRegistry(t)
	if _, err := r.Create("secret", ""); err != nil {
		t.Fatalf("Create err: %v", err)
	}

	r.ConnectionClosed("secret")
	s, _ := r.Get("secret")
	if s.Connected != 0 {
		t.Fatalf("expected connected 0, got %d", s.Connected)
	}
}
