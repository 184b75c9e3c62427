package session

import "time"

// Session is the shared state addressed by one passphrase: the live
// clipboard text plus the attachments uploaded while the session was active.
type Session struct {
	Passphrase string       `json:"passphrase"`
	Owner      string       `json:"owner,omitempty"`
	Content    string       `json:"content"`
	Files      []FileRecord `json:"files"`
	CreatedAt  time.Time    `json:"createdAt"`
	LastActive time.Time    `json:"lastActive"`
	Connected  int          `json:"connected"`
	Ended      bool         `json:"ended"`
}

// FileRecord describes one uploaded attachment. Bytes live on disk under the
// session's upload directory; the record only carries metadata.
type FileRecord struct {
	Filename    string    `json:"filename"`
	URL         string    `json:"url"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// New returns a fresh session owned by the given principal. An empty owner
// means the session is anonymous and anyone may end it.
func New(passphrase, owner string) *Session {
	now := time.Now().UTC()
	return &Session{
		Passphrase: passphrase,
		Owner:      owner,
		Files:      make([]FileRecord, 0),
		CreatedAt:  now,
		LastActive: now,
	}
}

// Clone returns a deep copy safe to hand to callers outside the registry lock.
func (s *Session) Clone() Session {
	out := *s
	out.Files = append([]FileRecord(nil), s.Files...)
	return out
}
