package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akulikov/go-secret-vault/internal/crypto"
	"github.com/akulikov/go-secret-vault/internal/logger"
)

// testIterations keeps the KDF fast in tests. Production counts are set
// through configuration.
const testIterations = 1_000

type authFixture struct {
	auth    AuthService
	meta    *fakeMetaRepo
	codes   *fakeBackupCodeRepo
	totp    *fakeTotpProvider
	limiter *AttemptLimiter
	clock   *testClock
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	clock := newTestClock()
	f := &authFixture{
		meta:    newFakeMetaRepo(),
		codes:   newFakeBackupCodeRepo(),
		totp:    &fakeTotpProvider{secret: "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP", validCode: "123456"},
		limiter: newTestLimiter(clock),
		clock:   clock,
	}
	f.auth = NewAuthService(f.meta, f.codes, crypto.NewVaultCipher(), f.totp, f.limiter, testIterations, logger.Nop())
	return f
}

// setup initializes the vault and locks it again, leaving a clean slate for
// unlock-flow tests.
func (f *authFixture) setup(t *testing.T, password string) {
	t.Helper()
	_, err := f.auth.SetupVault(context.Background(), []byte(password))
	require.NoError(t, err)
	f.auth.Lock()
}

func TestAuthService_SetupVault(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	setup, err := f.auth.IsVaultSetup(ctx)
	require.NoError(t, err)
	assert.False(t, setup)

	secret, err := f.auth.SetupVault(ctx, []byte("correct horse"))
	require.NoError(t, err)
	assert.Equal(t, f.totp.secret, secret)

	setup, err = f.auth.IsVaultSetup(ctx)
	require.NoError(t, err)
	assert.True(t, setup)

	// Setup leaves the session unlocked for immediate use.
	assert.True(t, f.auth.IsUnlocked())
	key, err := f.auth.SessionKey()
	require.NoError(t, err)
	assert.Len(t, key, crypto.KeyLen)

	// Metadata rows the unlock flow depends on.
	for _, k := range []string{"kdf_salt", "kdf_iterations", "totp_secret_enc"} {
		_, err := f.meta.Get(ctx, k)
		assert.NoError(t, err, k)
	}
}

func TestAuthService_SetupVaultTwiceRejected(t *testing.T) {
	f := newAuthFixture(t)
	f.setup(t, "pw")

	_, err := f.auth.SetupVault(context.Background(), []byte("pw"))
	require.ErrorIs(t, err, ErrVaultAlreadySetup)
}

func TestAuthService_UnlockFlow(t *testing.T) {
	f := newAuthFixture(t)
	f.setup(t, "correct horse")
	ctx := context.Background()

	// Wrong password counts a failure and keeps the session locked.
	err := f.auth.VerifyMasterPassword(ctx, []byte("wrong horse"))
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 1, f.limiter.PasswordFailures())
	assert.False(t, f.auth.IsUnlocked())

	// Correct password resets the counter but does not unlock yet.
	err = f.auth.VerifyMasterPassword(ctx, []byte("correct horse"))
	require.NoError(t, err)
	assert.Equal(t, 0, f.limiter.PasswordFailures())
	assert.False(t, f.auth.IsUnlocked())
	_, err = f.auth.SessionKey()
	require.ErrorIs(t, err, ErrVaultLocked)

	// Wrong TOTP code, then the right one.
	err = f.auth.VerifyTotp(ctx, "000000")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 1, f.limiter.TotpFailures())

	err = f.auth.VerifyTotp(ctx, "123456")
	require.NoError(t, err)
	assert.True(t, f.auth.IsUnlocked())
	assert.Equal(t, 0, f.limiter.TotpFailures())

	key, err := f.auth.SessionKey()
	require.NoError(t, err)
	assert.Len(t, key, crypto.KeyLen)
}

func TestAuthService_TotpRequiresPasswordFirst(t *testing.T) {
	f := newAuthFixture(t)
	f.setup(t, "pw")

	err := f.auth.VerifyTotp(context.Background(), "123456")
	require.ErrorIs(t, err, ErrPasswordNotVerified)
}

func TestAuthService_BackupCodeRequiresPasswordFirst(t *testing.T) {
	f := newAuthFixture(t)
	f.setup(t, "pw")

	err := f.auth.VerifyBackupCode(context.Background(), "1111-2222-3333")
	require.ErrorIs(t, err, ErrPasswordNotVerified)
}

func TestAuthService_LockoutAfterRepeatedPasswordFailures(t *testing.T) {
	f := newAuthFixture(t)
	f.setup(t, "pw")
	ctx := context.Background()

	for i := 0; i < maxAttempts; i++ {
		err := f.auth.VerifyMasterPassword(ctx, []byte("nope"))
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	// Even the correct password is rejected during the lockout window.
	err := f.auth.VerifyMasterPassword(ctx, []byte("pw"))
	require.ErrorIs(t, err, ErrRateLimited)
	var rle *RateLimitedError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, baseLockoutDelay, rle.RetryAfter)

	f.clock.advance(baseLockoutDelay)
	require.NoError(t, f.auth.VerifyMasterPassword(ctx, []byte("pw")))
}

func TestAuthService_BackupCodeFlow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.auth.SetupVault(ctx, []byte("pw"))
	require.NoError(t, err)

	codes, err := f.auth.GenerateBackupCodes(3)
	require.NoError(t, err)
	require.Len(t, codes, 3)
	for _, code := range codes {
		assert.Regexp(t, `^\d{4}-\d{4}-\d{4}$`, code)
	}
	require.NoError(t, f.auth.StoreBackupCodes(ctx, codes))

	n, err := f.auth.UnusedBackupCodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Unlock via password + backup code.
	f.auth.Lock()
	require.NoError(t, f.auth.VerifyMasterPassword(ctx, []byte("pw")))
	require.NoError(t, f.auth.VerifyBackupCode(ctx, codes[1]))
	assert.True(t, f.auth.IsUnlocked())

	// A consumed code never works again.
	f.auth.Lock()
	require.NoError(t, f.auth.VerifyMasterPassword(ctx, []byte("pw")))
	err = f.auth.VerifyBackupCode(ctx, codes[1])
	require.ErrorIs(t, err, ErrInvalidCredentials)

	n, err = f.auth.UnusedBackupCodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestAuthService_StoreBackupCodesRequiresUnlock(t *testing.T) {
	f := newAuthFixture(t)
	f.setup(t, "pw")

	err := f.auth.StoreBackupCodes(context.Background(), []string{"1111-2222-3333"})
	require.ErrorIs(t, err, ErrVaultLocked)
}

func TestAuthService_ChangeMasterPassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.auth.SetupVault(ctx, []byte("old pw"))
	require.NoError(t, err)

	oldSalt := f.meta.values["kdf_salt"]
	require.NoError(t, f.auth.ChangeMasterPassword(ctx, []byte("old pw"), []byte("new pw")))

	// Re-keying rotates the salt and keeps the session unlocked.
	assert.NotEqual(t, oldSalt, f.meta.values["kdf_salt"])
	assert.True(t, f.auth.IsUnlocked())

	// Old password no longer unlocks, the new one does.
	f.auth.Lock()
	err = f.auth.VerifyMasterPassword(ctx, []byte("old pw"))
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.NoError(t, f.auth.VerifyMasterPassword(ctx, []byte("new pw")))
	require.NoError(t, f.auth.VerifyTotp(ctx, "123456"))
}

func TestAuthService_ChangeMasterPasswordWrongOld(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.auth.SetupVault(ctx, []byte("old pw"))
	require.NoError(t, err)

	err = f.auth.ChangeMasterPassword(ctx, []byte("not it"), []byte("new pw"))
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// Vault still opens with the original password.
	f.auth.Lock()
	require.NoError(t, f.auth.VerifyMasterPassword(ctx, []byte("old pw")))
}

func TestAuthService_ChangeMasterPasswordRequiresUnlock(t *testing.T) {
	f := newAuthFixture(t)
	f.setup(t, "pw")

	err := f.auth.ChangeMasterPassword(context.Background(), []byte("pw"), []byte("new"))
	require.ErrorIs(t, err, ErrVaultLocked)
}

func TestAuthService_VerifyBeforeSetup(t *testing.T) {
	f := newAuthFixture(t)

	err := f.auth.VerifyMasterPassword(context.Background(), []byte("pw"))
	require.ErrorIs(t, err, ErrVaultNotSetup)
}

func TestAuthService_LockWipesSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.auth.SetupVault(ctx, []byte("pw"))
	require.NoError(t, err)
	require.True(t, f.auth.IsUnlocked())

	f.auth.Lock()
	assert.False(t, f.auth.IsUnlocked())
	_, err = f.auth.SessionKey()
	require.ErrorIs(t, err, ErrVaultLocked)

	// Locking twice is harmless.
	f.auth.Lock()
}

func TestAuthService_EnrollmentURI(t *testing.T) {
	f := newAuthFixture(t)
	uri := f.auth.EnrollmentURI(f.totp.secret)
	assert.Contains(t, uri, "otpauth://totp/")
	assert.Contains(t, uri, f.totp.secret)
}

func TestAuthService_SessionKeyStableAcrossSteps(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.auth.SetupVault(ctx, []byte("pw"))
	require.NoError(t, err)
	keyAtSetup, err := f.auth.SessionKey()
	require.NoError(t, err)
	setupCopy := append([]byte(nil), keyAtSetup...)

	f.auth.Lock()
	require.NoError(t, f.auth.VerifyMasterPassword(ctx, []byte("pw")))
	require.NoError(t, f.auth.VerifyTotp(ctx, "123456"))

	keyAfterUnlock, err := f.auth.SessionKey()
	require.NoError(t, err)
	assert.Equal(t, setupCopy, keyAfterUnlock, "same password and salt must derive the same key")
}
