package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/akulikov/go-secret-vault/internal/store"
	"github.com/akulikov/go-secret-vault/models"
)

// In-memory repository fakes. Service tests exercise the real cipher and
// session logic against these instead of a database.

type fakeMetaRepo struct {
	values map[string]string
}

func newFakeMetaRepo() *fakeMetaRepo {
	return &fakeMetaRepo{values: make(map[string]string)}
}

func (r *fakeMetaRepo) Get(_ context.Context, key string) (string, error) {
	v, ok := r.values[key]
	if !ok {
		return "", fmt.Errorf("meta %s: %w", key, store.ErrMetaKeyNotFound)
	}
	return v, nil
}

func (r *fakeMetaRepo) Set(_ context.Context, key, value string) error {
	r.values[key] = value
	return nil
}

func (r *fakeMetaRepo) Exists(_ context.Context, key string) (bool, error) {
	_, ok := r.values[key]
	return ok, nil
}

type fakeBackupCodeRepo struct {
	rows   []models.BackupCode
	nextID int64
}

func newFakeBackupCodeRepo() *fakeBackupCodeRepo {
	return &fakeBackupCodeRepo{}
}

func (r *fakeBackupCodeRepo) ReplaceAll(_ context.Context, codeHashes []string) error {
	r.rows = r.rows[:0]
	for _, h := range codeHashes {
		r.nextID++
		r.rows = append(r.rows, models.BackupCode{ID: r.nextID, CodeHash: h})
	}
	return nil
}

func (r *fakeBackupCodeRepo) FindUnused(_ context.Context) ([]models.BackupCode, error) {
	var out []models.BackupCode
	for _, row := range r.rows {
		if !row.Used {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakeBackupCodeRepo) MarkUsed(_ context.Context, id int64) error {
	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows[i].Used = true
			return nil
		}
	}
	return fmt.Errorf("backup code %d not found", id)
}

func (r *fakeBackupCodeRepo) CountUnused(_ context.Context) (int, error) {
	n := 0
	for _, row := range r.rows {
		if !row.Used {
			n++
		}
	}
	return n, nil
}

type fakeEntryRepo struct {
	entries map[int64]models.Entry
	order   []int64
	nextID  int64
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{entries: make(map[int64]models.Entry)}
}

func (r *fakeEntryRepo) Create(_ context.Context, entry models.Entry) (int64, error) {
	r.nextID++
	entry.ID = r.nextID
	r.entries[entry.ID] = entry
	r.order = append(r.order, entry.ID)
	return entry.ID, nil
}

func (r *fakeEntryRepo) GetByID(_ context.Context, id int64) (models.Entry, error) {
	entry, ok := r.entries[id]
	if !ok {
		return models.Entry{}, fmt.Errorf("entry %d: %w", id, store.ErrEntryNotFound)
	}
	return entry, nil
}

func (r *fakeEntryRepo) List(_ context.Context) ([]models.Entry, error) {
	out := make([]models.Entry, 0, len(r.order))
	for _, id := range r.order {
		if entry, ok := r.entries[id]; ok {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *fakeEntryRepo) SearchByTitle(ctx context.Context, query string) ([]models.Entry, error) {
	all, _ := r.List(ctx)
	var out []models.Entry
	for _, entry := range all {
		if strings.Contains(strings.ToLower(entry.Title), strings.ToLower(query)) {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *fakeEntryRepo) Update(_ context.Context, entry models.Entry) error {
	if _, ok := r.entries[entry.ID]; !ok {
		return fmt.Errorf("entry %d: %w", entry.ID, store.ErrEntryNotFound)
	}
	r.entries[entry.ID] = entry
	return nil
}

func (r *fakeEntryRepo) Delete(_ context.Context, id int64) error {
	delete(r.entries, id)
	return nil
}

type fakeFieldRepo struct {
	fields map[int64]map[string][]byte
}

func newFakeFieldRepo() *fakeFieldRepo {
	return &fakeFieldRepo{fields: make(map[int64]map[string][]byte)}
}

func (r *fakeFieldRepo) ReplaceFields(_ context.Context, entryID int64, fields map[string][]byte) error {
	copied := make(map[string][]byte, len(fields))
	for k, v := range fields {
		copied[k] = append([]byte(nil), v...)
	}
	r.fields[entryID] = copied
	return nil
}

func (r *fakeFieldRepo) GetFields(_ context.Context, entryID int64) (map[string][]byte, error) {
	out := make(map[string][]byte, len(r.fields[entryID]))
	for k, v := range r.fields[entryID] {
		out[k] = append([]byte(nil), v...)
	}
	return out, nil
}

type fakeHistoryRepo struct {
	rows   []models.PasswordHistory
	nextID int64
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{}
}

func (r *fakeHistoryRepo) Save(_ context.Context, entryID int64, valueEnc []byte, changedAt int64) error {
	r.nextID++
	r.rows = append(r.rows, models.PasswordHistory{
		ID:        r.nextID,
		EntryID:   entryID,
		ValueEnc:  append([]byte(nil), valueEnc...),
		ChangedAt: changedAt,
	})

	kept := make([]models.PasswordHistory, 0, len(r.rows))
	perEntry, _ := r.FindByEntry(context.Background(), entryID)
	drop := make(map[int64]bool)
	for i, row := range perEntry {
		if i >= store.MaxHistory {
			drop[row.ID] = true
		}
	}
	for _, row := range r.rows {
		if !drop[row.ID] {
			kept = append(kept, row)
		}
	}
	r.rows = kept
	return nil
}

func (r *fakeHistoryRepo) FindByEntry(_ context.Context, entryID int64) ([]models.PasswordHistory, error) {
	var out []models.PasswordHistory
	// rows are appended in order, so walking backwards yields newest first
	for i := len(r.rows) - 1; i >= 0; i-- {
		if r.rows[i].EntryID == entryID {
			out = append(out, r.rows[i])
		}
	}
	return out, nil
}

// fakeTotpProvider accepts exactly one code.
type fakeTotpProvider struct {
	secret    string
	validCode string
}

func (f *fakeTotpProvider) GenerateSecret() (string, error) { return f.secret, nil }

func (f *fakeTotpProvider) Verify(secret, code string) bool {
	return secret == f.secret && code == f.validCode
}

func (f *fakeTotpProvider) ProvisionURI(account, secret string) string {
	return "otpauth://totp/" + account + "?secret=" + secret
}
