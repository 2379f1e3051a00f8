package models

// EntryType classifies a vault entry.
type EntryType string

const (
	EntryTypeLogin    EntryType = "LOGIN"
	EntryTypeNote     EntryType = "NOTE"
	EntryTypeCard     EntryType = "CARD"
	EntryTypeIdentity EntryType = "IDENTITY"
)

// Entry is the plaintext part of a vault record: title, type and bookkeeping
// columns. Secret values never live here; they are stored per field in
// entry_fields as cipher blobs.
type Entry struct {
	ID  int64  `json:"id"`
	UID string `json:"uid"`

	Type     EntryType `json:"type"`
	Title    string    `json:"title"`
	Favorite bool      `json:"favorite"`

	// CreatedAt and UpdatedAt are epoch milliseconds.
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// EntryDetail is an Entry together with its decrypted field map. It exists
// only in memory while the vault is unlocked.
type EntryDetail struct {
	Entry
	Fields map[string]string `json:"fields"`
}

// EntryInput carries the caller-supplied values for create/update operations.
type EntryInput struct {
	ID       int64
	Type     EntryType
	Title    string
	Favorite bool
	Fields   map[string]string
}
