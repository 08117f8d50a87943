package domain

import (
	"time"
)

// SessionID is a unique identifier for a rename session.
type SessionID string

// String returns the string representation of the SessionID.
func (id SessionID) String() string {
	return string(id)
}

// EntryID is a unique identifier for a staged file entry.
type EntryID string

// String returns the string representation of the EntryID.
func (id EntryID) String() string {
	return string(id)
}

// PrefixConfig holds the per-session date and name settings the prefix is
// built from. It is initialized from the current date when the session is
// created and mutated only by direct user input.
type PrefixConfig struct {
	Year          int    `json:"year"`
	Month         int    `json:"month"`
	Day           int    `json:"day"`
	IncludeDay    bool   `json:"include_day"`
	SenderName    string `json:"sender_name"`
	IncludeSender bool   `json:"include_sender"`
}

// DefaultPrefixConfig returns a prefix configuration seeded from now.
// Day and sender inclusion start disabled.
func DefaultPrefixConfig(now time.Time) PrefixConfig {
	return PrefixConfig{
		Year:  now.Year(),
		Month: int(now.Month()),
		Day:   now.Day(),
	}
}

// FileEntry represents one file staged for renaming. The original name and
// payload are immutable once the entry is created; NewBaseName and
// ReceiverName are user-editable.
type FileEntry struct {
	ID           EntryID
	OriginalName string
	// NewBaseName starts as the original name without its extension.
	NewBaseName string
	// Extension is derived once at creation (from the last '.' to the end,
	// or empty if the original name has no dot) and never recomputed.
	Extension    string
	ReceiverName string
	Size         int64
	// BlobKey locates the staged payload in the blob store.
	BlobKey string
	AddedAt time.Time
}

// EntryUpdate describes a partial edit to a file entry. Nil fields are left
// unchanged.
type EntryUpdate struct {
	NewBaseName  *string `json:"new_base_name,omitempty"`
	ReceiverName *string `json:"receiver_name,omitempty"`
}

// Session is one user's staged batch of files plus its prefix configuration.
// Entries keep their add order.
type Session struct {
	ID         SessionID
	Prefix     PrefixConfig
	Entries    []*FileEntry
	CreatedAt  time.Time
	LastActive time.Time
}

// Entry returns the entry with the given ID, or nil if absent.
func (s *Session) Entry(id EntryID) *FileEntry {
	for _, e := range s.Entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// Clone returns a deep copy of the session. Repositories hand out clones so
// callers never share entry pointers with the store.
func (s *Session) Clone() *Session {
	c := *s
	c.Entries = make([]*FileEntry, len(s.Entries))
	for i, e := range s.Entries {
		entry := *e
		c.Entries[i] = &entry
	}
	return &c
}
