// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Andrei Kulikov

// Package service implements the vault engine: the two-step unlock session
// with rate limiting, entry management with field-level encryption, password
// history, backup codes, encrypted export/import, password generation and
// the clipboard guard. Repositories underneath only ever see cipher blobs.
package service

import (
	"github.com/akulikov/go-secret-vault/internal/config"
	"github.com/akulikov/go-secret-vault/internal/crypto"
	"github.com/akulikov/go-secret-vault/internal/logger"
	"github.com/akulikov/go-secret-vault/internal/store"
	"github.com/akulikov/go-secret-vault/internal/totp"
)

// Services bundles every service the application layer needs.
type Services struct {
	Auth      AuthService
	Vault     VaultService
	Export    ExportService
	Generator *PasswordGenerator
	Clipboard *Clipboard
}

// NewServices builds the full service graph over the given repositories.
func NewServices(repos *store.Repositories, cfg *config.Config, log *logger.Logger) *Services {
	cipher := crypto.NewVaultCipher()
	totpSvc := totp.NewService("go-secret-vault")
	limiter := NewAttemptLimiter()

	vault := NewVaultService(repos.Entries, repos.Fields, repos.History, cipher, log)
	return &Services{
		Auth:      NewAuthService(repos.Meta, repos.BackupCodes, cipher, totpSvc, limiter, cfg.Security.KDFIterations, log),
		Vault:     vault,
		Export:    NewExportService(vault, cipher, log),
		Generator: NewPasswordGenerator(),
		Clipboard: NewClipboard(cfg.Security.ClipboardClearAfter, log),
	}
}
