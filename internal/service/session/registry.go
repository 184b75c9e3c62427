package session

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/livepaste/backend/internal/model/session"
)

var (
	ErrSessionExists   = errors.New("session exists")
	ErrSessionNotFound = errors.New("session not found")
	ErrNotOwner        = errors.New("only owner can end session")
)

// Registry owns every session keyed by passphrase. A single mutex covers the
// whole map so create/get/update/end/gc are mutually atomic; critical
// sections touch memory only, snapshot I/O happens outside the lock.
type Registry struct {
	mu       sync.Mutex
	fileMu   sync.Mutex
	dataFile string
	sessions map[string]*session.Session
}

// NewRegistry returns a registry persisted to dataFile and loads the last
// snapshot if one exists.
func NewRegistry(dataFile string) *Registry {
	r := &Registry{
		dataFile: dataFile,
		sessions: make(map[string]*session.Session),
	}
	r.load()
	return r
}

// Create inserts a new session. A passphrase is only considered taken while
// its session has not ended; creating over an ended session replaces it.
func (r *Registry) Create(passphrase, owner string) (session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[passphrase]; ok && !existing.Ended {
		return session.Session{}, ErrSessionExists
	}
	s := session.New(passphrase, owner)
	r.sessions[passphrase] = s
	return s.Clone(), nil
}

// Get returns a copy of the session, ended or not. Join/read paths must treat
// ended sessions as absent; the owner-restricted end path may still see them.
func (r *Registry) Get(passphrase string) (session.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[passphrase]
	if !ok {
		return session.Session{}, false
	}
	return s.Clone(), true
}

// UpdateContent replaces the shared text. Last write wins; ordering is
// whichever mutation acquires the lock last.
func (r *Registry) UpdateContent(passphrase, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[passphrase]
	if !ok {
		return ErrSessionNotFound
	}
	s.Content = content
	s.LastActive = time.Now().UTC()
	return nil
}

// AppendFile records an uploaded attachment.
func (r *Registry) AppendFile(passphrase string, rec session.FileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[passphrase]
	if !ok {
		return ErrSessionNotFound
	}
	s.Files = append(s.Files, rec)
	s.LastActive = time.Now().UTC()
	return nil
}

// End marks the session terminal and clears its content. Only the owner may
// end an owned session; anonymous sessions can be ended by anyone.
func (r *Registry) End(passphrase, requester string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[passphrase]
	if !ok {
		return ErrSessionNotFound
	}
	if s.Owner != "" && s.Owner != requester {
		return ErrNotOwner
	}
	s.Ended = true
	s.Content = ""
	s.Files = make([]session.FileRecord, 0)
	return nil
}

// ConnectionOpened bumps the live-subscriber count for the passphrase.
func (r *Registry) ConnectionOpened(passphrase string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[passphrase]; ok {
		s.Connected++
		s.LastActive = time.Now().UTC()
	}
}

// ConnectionClosed decrements the live-subscriber count, never below zero.
func (r *Registry) ConnectionClosed(passphrase string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[passphrase]; ok {
		if s.Connected > 0 {
			s.Connected--
		}
		s.LastActive = time.Now().UTC()
	}
}

// Persist writes the full registry snapshot durably. The snapshot is
// serialized under the registry lock but written to disk outside it; a
// temp-file write plus atomic rename means a crash never leaves a
// half-written snapshot visible.
func (r *Registry) Persist() error {
	r.mu.Lock()
	snapshot := make(map[string]session.Session, len(r.sessions))
	for k, s := range r.sessions {
		snapshot[k] = s.Clone()
	}
	r.mu.Unlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	r.fileMu.Lock()
	defer r.fileMu.Unlock()

	tmp := r.dataFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, r.dataFile)
}

// load reads the last snapshot. Missing or corrupt snapshots yield an empty
// registry; connection counts are reset since sockets do not survive restarts.
func (r *Registry) load() {
	raw, err := os.ReadFile(r.dataFile)
	if err != nil {
		return
	}

	var snapshot map[string]session.Session
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for k, s := range snapshot {
		restored := s
		restored.Connected = 0
		if restored.Files == nil {
			restored.Files = make([]session.FileRecord, 0)
		}
		r.sessions[k] = &restored
	}
}

// GarbageCollect removes every ended session and every idle session with no
// live connections whose last activity is older than expiry. It returns the
// number of sessions removed.
func (r *Registry) GarbageCollect(expiry time.Duration) int {
	now := time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for k, s := range r.sessions {
		if s.Ended || (s.Connected == 0 && now.Sub(s.LastActive) > expiry) {
			delete(r.sessions, k)
			removed++
		}
	}
	return removed
}
