// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Andrei Kulikov

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/akulikov/go-secret-vault/internal/crypto"
	"github.com/akulikov/go-secret-vault/internal/logger"
	"github.com/akulikov/go-secret-vault/models"
)

// exportVersion is the only export file format understood by this build.
const exportVersion = 1

type exportService struct {
	vault  VaultService
	cipher crypto.VaultCipher
	logger *logger.Logger
}

// NewExportService wires encrypted export/import over the vault service.
func NewExportService(vault VaultService, cipher crypto.VaultCipher, log *logger.Logger) ExportService {
	return &exportService{vault: vault, cipher: cipher, logger: log}
}

func (s *exportService) Export(ctx context.Context, path string, key []byte, masterPassword []byte) error {
	defer crypto.Zero(masterPassword)

	entries, err := s.vault.ListEntries(ctx)
	if err != nil {
		return err
	}

	payload := make([]models.ExportEntry, 0, len(entries))
	for _, entry := range entries {
		detail, err := s.vault.GetEntry(ctx, entry.ID, key)
		if err != nil {
			return err
		}
		payload = append(payload, models.ExportEntry{
			Type:     detail.Type,
			Title:    detail.Title,
			Favorite: detail.Favorite,
			Fields:   detail.Fields,
		})
	}

	plain, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode export payload: %w", err)
	}
	defer crypto.Zero(plain)

	// The export gets its own salt and key so the file stands alone: it can
	// be imported into a vault with a different salt, as long as the master
	// password matches.
	salt, err := s.cipher.GenerateSalt()
	if err != nil {
		return fmt.Errorf("generate export salt: %w", err)
	}
	exportKey, err := s.cipher.DeriveKey(masterPassword, salt, crypto.DefaultIterations)
	if err != nil {
		return fmt.Errorf("derive export key: %w", err)
	}
	defer crypto.Zero(exportKey)

	blob, err := s.cipher.Encrypt(plain, exportKey)
	if err != nil {
		return fmt.Errorf("encrypt export payload: %w", err)
	}

	file := models.ExportFile{
		Version: exportVersion,
		Salt:    crypto.ToHex(salt),
		Data:    crypto.ToBase64(blob),
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode export file: %w", err)
	}
	if err = os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}

	logger.FromContext(ctx).Info().Str("func", "exportService.Export").
		Int("entries", len(payload)).Msg("vault exported")
	return nil
}

func (s *exportService) Import(ctx context.Context, path string, masterPassword []byte, key []byte) (int, error) {
	defer crypto.Zero(masterPassword)

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read export file: %w", err)
	}

	var file models.ExportFile
	if err = json.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("decode export file: %w", err)
	}
	if file.Version != exportVersion {
		return 0, fmt.Errorf("unsupported export version %d", file.Version)
	}

	salt, err := crypto.FromHex(file.Salt)
	if err != nil {
		return 0, fmt.Errorf("decode export salt: %w", err)
	}
	blob, err := crypto.FromBase64(file.Data)
	if err != nil {
		return 0, fmt.Errorf("decode export payload: %w", err)
	}

	exportKey, err := s.cipher.DeriveKey(masterPassword, salt, crypto.DefaultIterations)
	if err != nil {
		return 0, fmt.Errorf("derive export key: %w", err)
	}
	defer crypto.Zero(exportKey)

	plain, err := s.cipher.Decrypt(blob, exportKey)
	if err != nil {
		if errors.Is(err, crypto.ErrAuthenticationFailed) {
			return 0, ErrInvalidCredentials
		}
		return 0, fmt.Errorf("decrypt export payload: %w", err)
	}
	defer crypto.Zero(plain)

	var items []models.ExportEntry
	if err = json.Unmarshal(plain, &items); err != nil {
		return 0, fmt.Errorf("decode export payload: %w", err)
	}

	imported := 0
	for _, item := range items {
		_, err = s.vault.CreateEntry(ctx, models.EntryInput{
			Type:     item.Type,
			Title:    item.Title,
			Favorite: item.Favorite,
			Fields:   item.Fields,
		}, key)
		if err != nil {
			return imported, err
		}
		imported++
	}

	logger.FromContext(ctx).Info().Str("func", "exportService.Import").
		Int("entries", imported).Msg("vault imported")
	return imported, nil
}
