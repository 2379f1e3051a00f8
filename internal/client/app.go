// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Andrei Kulikov

package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/akulikov/go-secret-vault/internal/config"
	"github.com/akulikov/go-secret-vault/internal/logger"
	"github.com/akulikov/go-secret-vault/internal/service"
	"github.com/akulikov/go-secret-vault/internal/workers"
	"github.com/akulikov/go-secret-vault/models"
)

// App is the interactive vault client. It owns the prompt loop and the
// background auto-lock job.
type App struct {
	services *service.Services
	autoLock *workers.AutoLock
	jobs     *workers.Workers
	cfg      *config.Config
	logger   *logger.Logger

	in  *bufio.Reader
	out io.Writer
}

func NewApp(services *service.Services, cfg *config.Config, log *logger.Logger) *App {
	autoLock := workers.NewAutoLock(services.Auth, cfg.Security.AutoLockAfter, log)
	return &App{
		services: services,
		autoLock: autoLock,
		jobs:     workers.New(autoLock),
		cfg:      cfg,
		logger:   log,
		in:       bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}
}

// Run starts the client and blocks until the user quits.
func (a *App) Run() error {
	ctx := a.logger.WithContext(context.Background())

	setup, err := a.services.Auth.IsVaultSetup(ctx)
	if err != nil {
		return err
	}
	if !setup {
		if err = a.setupFlow(ctx); err != nil {
			return err
		}
	}

	a.jobs.Start(ctx)
	defer a.jobs.Stop()
	defer a.services.Auth.Lock()
	defer func() { _ = a.services.Clipboard.ClearNow() }()

	for {
		line, err := a.prompt()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		a.autoLock.Touch()

		cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
		arg = strings.TrimSpace(arg)
		if cmd == "" {
			continue
		}
		if cmd == "quit" || cmd == "exit" {
			return nil
		}

		if err = a.dispatch(ctx, cmd, arg); err != nil {
			a.printErr(err)
		}
	}
}

func (a *App) dispatch(ctx context.Context, cmd, arg string) error {
	switch cmd {
	case "help":
		a.printHelp()
		return nil
	case "unlock":
		return a.unlockFlow(ctx)
	case "lock":
		a.services.Auth.Lock()
		fmt.Fprintln(a.out, "Locked.")
		return nil
	case "gen":
		return a.generate(arg)
	}

	// Everything below needs an unlocked session.
	key, err := a.services.Auth.SessionKey()
	if err != nil {
		if errors.Is(err, service.ErrVaultLocked) {
			return errors.New(`vault is locked, run "unlock" first`)
		}
		return err
	}

	switch cmd {
	case "list":
		return a.list(ctx, "")
	case "search":
		return a.list(ctx, arg)
	case "show":
		return a.show(ctx, arg, key)
	case "add":
		return a.add(ctx, key)
	case "edit":
		return a.edit(ctx, arg, key)
	case "del":
		return a.del(ctx, arg)
	case "history":
		return a.showHistory(ctx, arg, key)
	case "copy":
		return a.copyField(ctx, arg, key)
	case "codes":
		return a.backupCodes(ctx, arg)
	case "passwd":
		return a.changePassword(ctx)
	case "export":
		return a.export(ctx, arg, key)
	case "import":
		return a.importFile(ctx, arg, key)
	default:
		return fmt.Errorf(`unknown command %q, try "help"`, cmd)
	}
}

// setupFlow initializes a fresh vault: master password, authenticator
// enrollment and the first batch of backup codes.
func (a *App) setupFlow(ctx context.Context) error {
	fmt.Fprintln(a.out, "No vault found. Setting up a new one.")

	password, err := a.readNewPassword()
	if err != nil {
		return err
	}

	secret, err := a.services.Auth.SetupVault(ctx, password)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "\nAdd this secret to your authenticator app:")
	fmt.Fprintf(a.out, "  %s\n", secret)
	fmt.Fprintf(a.out, "  %s\n\n", a.services.Auth.EnrollmentURI(secret))

	codes, err := a.services.Auth.GenerateBackupCodes(a.cfg.Security.BackupCodeCount)
	if err != nil {
		return err
	}
	if err = a.services.Auth.StoreBackupCodes(ctx, codes); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Backup codes (shown once, store them safely):")
	for _, code := range codes {
		fmt.Fprintf(a.out, "  %s\n", code)
	}
	fmt.Fprintln(a.out, "\nVault ready and unlocked.")
	return nil
}

// unlockFlow runs the two-step unlock: master password, then a TOTP code or
// a backup code.
func (a *App) unlockFlow(ctx context.Context) error {
	if a.services.Auth.IsUnlocked() {
		fmt.Fprintln(a.out, "Already unlocked.")
		return nil
	}

	password, err := a.readSecret("Master password: ")
	if err != nil {
		return err
	}
	if err = a.services.Auth.VerifyMasterPassword(ctx, password); err != nil {
		return err
	}

	code, err := a.readLine(`Code from authenticator (or "backup <code>"): `)
	if err != nil {
		return err
	}
	code = strings.TrimSpace(code)
	if rest, ok := strings.CutPrefix(code, "backup "); ok {
		err = a.services.Auth.VerifyBackupCode(ctx, strings.TrimSpace(rest))
	} else {
		err = a.services.Auth.VerifyTotp(ctx, code)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Unlocked.")
	return nil
}

func (a *App) list(ctx context.Context, query string) error {
	var (
		entries []models.Entry
		err     error
	)
	if query == "" {
		entries, err = a.services.Vault.ListEntries(ctx)
	} else {
		entries, err = a.services.Vault.SearchEntries(ctx, query)
	}
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No entries.")
		return nil
	}

	for _, entry := range entries {
		marker := " "
		if entry.Favorite {
			marker = "*"
		}
		fmt.Fprintf(a.out, "%4d %s [%s] %s\n", entry.ID, marker, entry.Type, entry.Title)
	}
	return nil
}

func (a *App) show(ctx context.Context, arg string, key []byte) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	detail, err := a.services.Vault.GetEntry(ctx, id, key)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "[%s] %s\n", detail.Type, detail.Title)
	fmt.Fprintf(a.out, "  updated: %s\n", time.UnixMilli(detail.UpdatedAt).Format(time.RFC3339))
	for _, name := range sortedKeys(detail.Fields) {
		fmt.Fprintf(a.out, "  %s: %s\n", name, detail.Fields[name])
	}
	return nil
}

func (a *App) add(ctx context.Context, key []byte) error {
	input, err := a.readEntryInput(models.EntryInput{Type: models.EntryTypeLogin})
	if err != nil {
		return err
	}

	id, err := a.services.Vault.CreateEntry(ctx, input, key)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created entry %d.\n", id)
	return nil
}

func (a *App) edit(ctx context.Context, arg string, key []byte) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	detail, err := a.services.Vault.GetEntry(ctx, id, key)
	if err != nil {
		return err
	}

	input, err := a.readEntryInput(models.EntryInput{
		ID:       id,
		Type:     detail.Type,
		Title:    detail.Title,
		Favorite: detail.Favorite,
		Fields:   detail.Fields,
	})
	if err != nil {
		return err
	}

	if err = a.services.Vault.UpdateEntry(ctx, input, key); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated entry %d.\n", id)
	return nil
}

func (a *App) del(ctx context.Context, arg string) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	confirm, err := a.readLine(fmt.Sprintf("Delete entry %d? [y/N]: ", id))
	if err != nil {
		return err
	}
	if strings.ToLower(strings.TrimSpace(confirm)) != "y" {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}
	if err = a.services.Vault.DeleteEntry(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted entry %d.\n", id)
	return nil
}

func (a *App) showHistory(ctx context.Context, arg string, key []byte) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	versions, err := a.services.Vault.GetHistory(ctx, id, key)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		fmt.Fprintln(a.out, "No previous passwords.")
		return nil
	}
	for _, v := range versions {
		fmt.Fprintf(a.out, "  %s  %s\n", time.UnixMilli(v.ChangedAt).Format(time.RFC3339), v.Password)
	}
	return nil
}

// copyField puts one field value on the clipboard, e.g. "copy 3 password".
func (a *App) copyField(ctx context.Context, arg string, key []byte) error {
	idArg, field, ok := strings.Cut(arg, " ")
	if !ok {
		return errors.New("usage: copy <id> <field>")
	}
	id, err := parseID(idArg)
	if err != nil {
		return err
	}
	detail, err := a.services.Vault.GetEntry(ctx, id, key)
	if err != nil {
		return err
	}
	field = strings.TrimSpace(field)
	value, ok := detail.Fields[field]
	if !ok {
		return fmt.Errorf("entry %d has no field %q", id, field)
	}
	if err = a.services.Clipboard.CopySecret(value); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Copied. Clipboard clears in %s.\n", a.cfg.Security.ClipboardClearAfter)
	return nil
}

// backupCodes shows how many codes remain, or replaces the pool when called
// as "codes new".
func (a *App) backupCodes(ctx context.Context, arg string) error {
	if arg != "new" {
		n, err := a.services.Auth.UnusedBackupCodes(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%d backup codes remaining. Use \"codes new\" to replace them.\n", n)
		return nil
	}

	codes, err := a.services.Auth.GenerateBackupCodes(a.cfg.Security.BackupCodeCount)
	if err != nil {
		return err
	}
	if err = a.services.Auth.StoreBackupCodes(ctx, codes); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "New backup codes (previous ones are now void):")
	for _, code := range codes {
		fmt.Fprintf(a.out, "  %s\n", code)
	}
	return nil
}

func (a *App) changePassword(ctx context.Context) error {
	oldPassword, err := a.readSecret("Current master password: ")
	if err != nil {
		return err
	}
	newPassword, err := a.readNewPassword()
	if err != nil {
		return err
	}
	if err = a.services.Auth.ChangeMasterPassword(ctx, oldPassword, newPassword); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Master password changed.")
	return nil
}

func (a *App) export(ctx context.Context, path string, key []byte) error {
	if path == "" {
		return errors.New("usage: export <file>")
	}
	password, err := a.readSecret("Master password (protects the export): ")
	if err != nil {
		return err
	}
	if err = a.services.Export.Export(ctx, path, key, password); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Exported to %s.\n", path)
	return nil
}

func (a *App) importFile(ctx context.Context, path string, key []byte) error {
	if path == "" {
		return errors.New("usage: import <file>")
	}
	password, err := a.readSecret("Export file password: ")
	if err != nil {
		return err
	}
	n, err := a.services.Export.Import(ctx, path, password, key)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Imported %d entries.\n", n)
	return nil
}

func (a *App) generate(arg string) error {
	length := 20
	if arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			return fmt.Errorf("bad length %q", arg)
		}
		length = n
	}
	password, err := a.services.Generator.Generate(length, service.GeneratorOptions{
		Upper: true, Lower: true, Digits: true, Symbols: true,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s  (strength %d/4)\n", password, a.services.Generator.Strength(password))
	return nil
}

// readEntryInput prompts for entry values, showing current ones as defaults
// when editing.
func (a *App) readEntryInput(current models.EntryInput) (models.EntryInput, error) {
	typeStr, err := a.readLineDefault("Type (LOGIN/NOTE/CARD/IDENTITY)", string(current.Type))
	if err != nil {
		return models.EntryInput{}, err
	}
	entryType := models.EntryType(strings.ToUpper(strings.TrimSpace(typeStr)))
	switch entryType {
	case models.EntryTypeLogin, models.EntryTypeNote, models.EntryTypeCard, models.EntryTypeIdentity:
	default:
		return models.EntryInput{}, fmt.Errorf("unknown entry type %q", typeStr)
	}

	title, err := a.readLineDefault("Title", current.Title)
	if err != nil {
		return models.EntryInput{}, err
	}
	if strings.TrimSpace(title) == "" {
		return models.EntryInput{}, errors.New("title must not be empty")
	}

	fields := make(map[string]string, len(current.Fields))
	for k, v := range current.Fields {
		fields[k] = v
	}
	fmt.Fprintln(a.out, `Fields: "name=value" per line, "name=" removes, empty line finishes.`)
	for {
		line, err := a.readLine("> ")
		if err != nil {
			return models.EntryInput{}, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, "=")
		if !ok {
			fmt.Fprintln(a.out, `expected "name=value"`)
			continue
		}
		name = strings.TrimSpace(name)
		if value == "" {
			delete(fields, name)
			continue
		}
		fields[name] = value
	}

	return models.EntryInput{
		ID:       current.ID,
		Type:     entryType,
		Title:    strings.TrimSpace(title),
		Favorite: current.Favorite,
		Fields:   fields,
	}, nil
}

// readNewPassword prompts for a password twice and reports its strength.
func (a *App) readNewPassword() ([]byte, error) {
	for {
		password, err := a.readSecret("New master password: ")
		if err != nil {
			return nil, err
		}
		if len(password) < 8 {
			fmt.Fprintln(a.out, "Password must be at least 8 characters.")
			continue
		}
		repeat, err := a.readSecret("Repeat: ")
		if err != nil {
			return nil, err
		}
		if string(password) != string(repeat) {
			fmt.Fprintln(a.out, "Passwords do not match, try again.")
			continue
		}
		if s := a.services.Generator.Strength(string(password)); s < 2 {
			fmt.Fprintf(a.out, "Warning: weak password (strength %d/4).\n", s)
		}
		return password, nil
	}
}

// readSecret reads a line without echo when stdin is a terminal.
func (a *App) readSecret(promptText string) ([]byte, error) {
	fmt.Fprint(a.out, promptText)
	fd := int(syscall.Stdin)
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(a.out)
		if err != nil {
			return nil, fmt.Errorf("read password: %w", err)
		}
		return secret, nil
	}
	line, err := a.readLine("")
	if err != nil {
		return nil, err
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}

func (a *App) prompt() (string, error) {
	if a.services.Auth.IsUnlocked() {
		return a.readLine("vault> ")
	}
	return a.readLine("vault (locked)> ")
}

func (a *App) readLine(promptText string) (string, error) {
	fmt.Fprint(a.out, promptText)
	line, err := a.in.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *App) readLineDefault(label, current string) (string, error) {
	promptText := label + ": "
	if current != "" {
		promptText = fmt.Sprintf("%s [%s]: ", label, current)
	}
	line, err := a.readLine(promptText)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(line) == "" {
		return current, nil
	}
	return line, nil
}

func (a *App) printErr(err error) {
	var rle *service.RateLimitedError
	if errors.As(err, &rle) {
		fmt.Fprintf(a.out, "Too many failed attempts. Try again in %s.\n", rle.RetryAfter.Round(time.Second))
		return
	}
	fmt.Fprintf(a.out, "Error: %v\n", err)
}

func (a *App) printHelp() {
	fmt.Fprint(a.out, `Commands:
  unlock                  unlock the vault (password + code)
  lock                    lock the vault
  list                    list all entries
  search <text>           search entries by title
  show <id>               show an entry with decrypted fields
  add                     create an entry
  edit <id>               edit an entry
  del <id>                delete an entry
  history <id>            previous passwords of an entry
  copy <id> <field>       copy a field to the clipboard
  gen [length]            generate a password
  codes [new]             show or replace backup codes
  passwd                  change the master password
  export <file>           write an encrypted export
  import <file>           import an encrypted export
  quit                    exit
`)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad entry id %q", arg)
	}
	return id, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
