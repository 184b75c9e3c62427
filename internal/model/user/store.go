package user

import (
	"encoding/json"
	"os"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// record is the persisted shape of one user entry.
type record struct {
	PasswordHash string `json:"passwordHash"`
}

// Store manages login credentials backed by a JSON file. Passwords are kept
// only as bcrypt hashes.
type Store struct {
	mu       sync.Mutex
	dataFile string
	users    map[string]record
}

// NewStore loads the credential file if present. A missing or corrupt file
// yields an empty store rather than an error.
func NewStore(dataFile string) *Store {
	s := &Store{
		dataFile: dataFile,
		users:    make(map[string]record),
	}
	raw, err := os.ReadFile(dataFile)
	if err != nil {
		return s
	}
	if err := json.Unmarshal(raw, &s.users); err != nil {
		s.users = make(map[string]record)
	}
	return s
}

// Add registers a new user. It reports false if the username is taken.
func (s *Store) Add(username, password string) (bool, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	if _, exists := s.users[username]; exists {
		s.mu.Unlock()
		return false, nil
	}
	s.users[username] = record{PasswordHash: string(hash)}
	s.mu.Unlock()

	return true, s.save()
}

// Verify reports whether the username exists and the password matches.
func (s *Store) Verify(username, password string) bool {
	s.mu.Lock()
	rec, ok := s.users[username]
	s.mu.Unlock()
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)) == nil
}

// Exists reports whether the username is registered.
func (s *Store) Exists(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[username]
	return ok
}

func (s *Store) save() error {
	s.mu.Lock()
	data, err := json.MarshalIndent(s.users, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return err
	}
	tmp := s.dataFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.dataFile)
}
