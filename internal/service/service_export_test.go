package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akulikov/go-secret-vault/internal/crypto"
	"github.com/akulikov/go-secret-vault/internal/logger"
	"github.com/akulikov/go-secret-vault/models"
)

func newExportFixture(t *testing.T) (*vaultFixture, ExportService) {
	t.Helper()
	f := newVaultFixture(t)
	return f, NewExportService(f.vault, crypto.NewVaultCipher(), logger.Nop())
}

func TestExportService_RoundTrip(t *testing.T) {
	src, exporter := newExportFixture(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vault-export.json")

	_, err := src.vault.CreateEntry(ctx, loginInput("GitHub", "octocat", "hunter2"), src.key)
	require.NoError(t, err)
	_, err = src.vault.CreateEntry(ctx, models.EntryInput{
		Type:     models.EntryTypeNote,
		Title:    "Wifi",
		Favorite: true,
		Fields:   map[string]string{"body": "ssid=home pass=12345"},
	}, src.key)
	require.NoError(t, err)

	require.NoError(t, exporter.Export(ctx, path, src.key, []byte("master pw")))

	// Import into a fresh, empty vault.
	dst, importer := newExportFixture(t)
	n, err := importer.Import(ctx, path, []byte("master pw"), dst.key)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entries, err := dst.vault.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byTitle := map[string]models.Entry{}
	for _, e := range entries {
		byTitle[e.Title] = e
	}
	require.Contains(t, byTitle, "GitHub")
	require.Contains(t, byTitle, "Wifi")
	assert.True(t, byTitle["Wifi"].Favorite)

	detail, err := dst.vault.GetEntry(ctx, byTitle["GitHub"].ID, dst.key)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", detail.Fields["password"])
}

func TestExportService_FileFormat(t *testing.T) {
	src, exporter := newExportFixture(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vault-export.json")

	_, err := src.vault.CreateEntry(ctx, loginInput("GitHub", "octocat", "hunter2"), src.key)
	require.NoError(t, err)
	require.NoError(t, exporter.Export(ctx, path, src.key, []byte("master pw")))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var file models.ExportFile
	require.NoError(t, json.Unmarshal(raw, &file))
	assert.Equal(t, 1, file.Version)

	salt, err := crypto.FromHex(file.Salt)
	require.NoError(t, err)
	assert.Len(t, salt, crypto.SaltLen)

	blob, err := crypto.FromBase64(file.Data)
	require.NoError(t, err)
	assert.Greater(t, len(blob), 12+16, "blob must hold IV, ciphertext and tag")

	// Nothing secret in the clear.
	assert.NotContains(t, string(raw), "hunter2")
	assert.NotContains(t, string(raw), "octocat")
}

func TestExportService_WrongPasswordRejected(t *testing.T) {
	src, exporter := newExportFixture(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vault-export.json")

	_, err := src.vault.CreateEntry(ctx, loginInput("GitHub", "octocat", "hunter2"), src.key)
	require.NoError(t, err)
	require.NoError(t, exporter.Export(ctx, path, src.key, []byte("master pw")))

	dst, importer := newExportFixture(t)
	_, err = importer.Import(ctx, path, []byte("not the password"), dst.key)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	entries, err := dst.vault.ListEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExportService_UnsupportedVersion(t *testing.T) {
	_, importer := newExportFixture(t)
	path := filepath.Join(t.TempDir(), "vault-export.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":2,"salt":"00","data":""}`), 0o600))

	_, err := importer.Import(context.Background(), path, []byte("pw"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported export version")
}

func TestExportService_MissingFile(t *testing.T) {
	_, importer := newExportFixture(t)

	_, err := importer.Import(context.Background(), filepath.Join(t.TempDir(), "nope.json"), []byte("pw"), nil)
	require.Error(t, err)
}
