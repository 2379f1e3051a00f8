package models

// ExportFile is the self-contained encrypted export format, version 1.
// Data is base64(IV || ciphertext || tag) and decrypts to a JSON array of
// [ExportEntry] with a key derived from the master password and the embedded
// salt at 200000 PBKDF2 iterations.
type ExportFile struct {
	Version int    `json:"version"`
	Salt    string `json:"salt"` // hex, 16 bytes
	Data    string `json:"data"` // base64 cipher blob
}

// ExportEntry is one plaintext entry inside the decrypted export payload.
type ExportEntry struct {
	Type     EntryType         `json:"type"`
	Title    string            `json:"title"`
	Favorite bool              `json:"favorite"`
	Fields   map[string]string `json:"fields"`
}
