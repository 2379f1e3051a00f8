package models

// BackupCode is one single-use recovery credential. Only the bcrypt hash of
// the code is persisted; once Used is set the row is permanently non-matchable.
type BackupCode struct {
	ID       int64
	CodeHash string
	Used     bool
}
