// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Andrei Kulikov

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/akulikov/go-secret-vault/internal/crypto"
	"github.com/akulikov/go-secret-vault/internal/logger"
	"github.com/akulikov/go-secret-vault/internal/store"
	"github.com/akulikov/go-secret-vault/models"
)

// fieldPassword is the field whose previous value is pushed to history when
// a login entry's password changes.
const fieldPassword = "password"

type vaultService struct {
	entries store.EntryRepository
	fields  store.FieldRepository
	history store.HistoryRepository
	cipher  crypto.VaultCipher
	logger  *logger.Logger

	now func() time.Time
}

// NewVaultService wires entry management over the entry, field and history
// repositories.
func NewVaultService(entries store.EntryRepository, fields store.FieldRepository, history store.HistoryRepository, cipher crypto.VaultCipher, log *logger.Logger) VaultService {
	return &vaultService{
		entries: entries,
		fields:  fields,
		history: history,
		cipher:  cipher,
		logger:  log,
		now:     time.Now,
	}
}

func (s *vaultService) CreateEntry(ctx context.Context, input models.EntryInput, key []byte) (int64, error) {
	nowMillis := s.now().UnixMilli()
	entry := models.Entry{
		UID:       uuid.NewString(),
		Type:      input.Type,
		Title:     input.Title,
		Favorite:  input.Favorite,
		CreatedAt: nowMillis,
		UpdatedAt: nowMillis,
	}

	id, err := s.entries.Create(ctx, entry)
	if err != nil {
		return 0, fmt.Errorf("create entry: %w", err)
	}

	blobs, err := s.encryptFields(input.Fields, key)
	if err != nil {
		return 0, err
	}
	if err = s.fields.ReplaceFields(ctx, id, blobs); err != nil {
		return 0, fmt.Errorf("store entry fields: %w", err)
	}

	logger.FromContext(ctx).Info().Str("func", "vaultService.CreateEntry").
		Int64("entry_id", id).Str("type", string(input.Type)).Msg("entry created")
	return id, nil
}

func (s *vaultService) GetEntry(ctx context.Context, id int64, key []byte) (models.EntryDetail, error) {
	entry, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return models.EntryDetail{}, fmt.Errorf("get entry: %w", err)
	}

	fields, err := s.decryptFields(ctx, id, key)
	if err != nil {
		return models.EntryDetail{}, err
	}
	return models.EntryDetail{Entry: entry, Fields: fields}, nil
}

func (s *vaultService) ListEntries(ctx context.Context) ([]models.Entry, error) {
	entries, err := s.entries.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

func (s *vaultService) SearchEntries(ctx context.Context, query string) ([]models.Entry, error) {
	entries, err := s.entries.SearchByTitle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search entries: %w", err)
	}
	return entries, nil
}

func (s *vaultService) UpdateEntry(ctx context.Context, input models.EntryInput, key []byte) error {
	existing, err := s.entries.GetByID(ctx, input.ID)
	if err != nil {
		return fmt.Errorf("get entry: %w", err)
	}

	nowMillis := s.now().UnixMilli()

	if existing.Type == models.EntryTypeLogin {
		if err = s.pushPasswordHistory(ctx, input, key, nowMillis); err != nil {
			return err
		}
	}

	existing.Type = input.Type
	existing.Title = input.Title
	existing.Favorite = input.Favorite
	existing.UpdatedAt = nowMillis
	if err = s.entries.Update(ctx, existing); err != nil {
		return fmt.Errorf("update entry: %w", err)
	}

	blobs, err := s.encryptFields(input.Fields, key)
	if err != nil {
		return err
	}
	if err = s.fields.ReplaceFields(ctx, input.ID, blobs); err != nil {
		return fmt.Errorf("store entry fields: %w", err)
	}

	logger.FromContext(ctx).Info().Str("func", "vaultService.UpdateEntry").
		Int64("entry_id", input.ID).Msg("entry updated")
	return nil
}

func (s *vaultService) DeleteEntry(ctx context.Context, id int64) error {
	if err := s.entries.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	logger.FromContext(ctx).Info().Str("func", "vaultService.DeleteEntry").
		Int64("entry_id", id).Msg("entry deleted")
	return nil
}

func (s *vaultService) GetHistory(ctx context.Context, id int64, key []byte) ([]models.PasswordVersion, error) {
	rows, err := s.history.FindByEntry(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	versions := make([]models.PasswordVersion, 0, len(rows))
	for _, row := range rows {
		password, err := s.cipher.DecryptString(row.ValueEnc, key)
		if err != nil {
			return nil, fmt.Errorf("decrypt history entry %d: %w", row.ID, err)
		}
		versions = append(versions, models.PasswordVersion{
			Password:  password,
			ChangedAt: row.ChangedAt,
		})
	}
	return versions, nil
}

// pushPasswordHistory saves the current password of a login entry before an
// update overwrites it. Only a real change is recorded: same value, a blank
// old value or a removed password field push nothing.
func (s *vaultService) pushPasswordHistory(ctx context.Context, input models.EntryInput, key []byte, nowMillis int64) error {
	current, err := s.decryptFields(ctx, input.ID, key)
	if err != nil {
		return err
	}

	oldPassword := current[fieldPassword]
	if strings.TrimSpace(oldPassword) == "" || oldPassword == input.Fields[fieldPassword] {
		return nil
	}

	blob, err := s.cipher.EncryptString(oldPassword, key)
	if err != nil {
		return fmt.Errorf("encrypt history entry: %w", err)
	}
	if err = s.history.Save(ctx, input.ID, blob, nowMillis); err != nil {
		return fmt.Errorf("save history entry: %w", err)
	}
	return nil
}

// encryptFields seals every non-blank field value. Blank values are dropped
// so the stored field set never contains empty secrets.
func (s *vaultService) encryptFields(fields map[string]string, key []byte) (map[string][]byte, error) {
	blobs := make(map[string][]byte, len(fields))
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			continue
		}
		blob, err := s.cipher.EncryptString(value, key)
		if err != nil {
			return nil, fmt.Errorf("encrypt field %s: %w", name, err)
		}
		blobs[name] = blob
	}
	return blobs, nil
}

func (s *vaultService) decryptFields(ctx context.Context, entryID int64, key []byte) (map[string]string, error) {
	blobs, err := s.fields.GetFields(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("load entry fields: %w", err)
	}

	fields := make(map[string]string, len(blobs))
	for name, blob := range blobs {
		value, err := s.cipher.DecryptString(blob, key)
		if err != nil {
			return nil, fmt.Errorf("decrypt field %s: %w", name, err)
		}
		fields[name] = value
	}
	return fields, nil
}
