package models

// PasswordHistory is one retained password version as stored: the value is a
// cipher blob, opened only by the service layer while the vault is unlocked.
type PasswordHistory struct {
	ID       int64
	EntryID  int64
	ValueEnc []byte
	// ChangedAt is epoch milliseconds.
	ChangedAt int64
}

// PasswordVersion is a decrypted history row handed to the presentation layer.
type PasswordVersion struct {
	Password string
	// ChangedAt is epoch milliseconds.
	ChangedAt int64
}
