// Package totp implements the time-based one-time password capability the
// unlock flow consumes: Base32 secret generation, 6-digit code verification
// per RFC 6238 with one time step of clock-skew tolerance each direction, and
// otpauth:// provisioning URIs for authenticator enrollment.
package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// Step is the TOTP time step.
	Step = 30 * time.Second
	// Digits is the code length.
	Digits = 6
	// skewSteps is the accepted clock skew in steps, each direction.
	skewSteps = 1

	secretSize = 20 // 160-bit secret
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// Service generates and verifies TOTP codes.
type Service struct {
	issuer string
	now    func() time.Time
}

// NewService constructs a TOTP Service labelling provisioning URIs with issuer.
func NewService(issuer string) *Service {
	return &Service{issuer: issuer, now: time.Now}
}

// GenerateSecret returns a fresh Base32-encoded 160-bit secret. The secret is
// stored encrypted in vault_meta; it leaves the process only inside the
// provisioning URI shown during enrollment.
func (s *Service) GenerateSecret() (string, error) {
	secret := make([]byte, secretSize)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("generate totp secret: %w", err)
	}
	return b32.EncodeToString(secret), nil
}

// Verify reports whether code is valid for secret at the current time,
// accepting the previous, current and next time step.
func (s *Service) Verify(secret, code string) bool {
	return s.verifyAt(secret, code, s.now())
}

func (s *Service) verifyAt(secret, code string, when time.Time) bool {
	code = strings.TrimSpace(code)
	if len(code) != Digits {
		return false
	}

	raw, err := b32.DecodeString(strings.ToUpper(strings.TrimSpace(secret)))
	if err != nil {
		return false
	}
	defer zero(raw)

	counter := when.Unix() / int64(Step/time.Second)
	for i := int64(-skewSteps); i <= skewSteps; i++ {
		c := counter + i
		if c < 0 {
			continue
		}
		if hotp(raw, uint64(c)) == code {
			return true
		}
	}
	return false
}

// ProvisionURI returns the otpauth:// URI encoding secret for the given
// account label, suitable for QR-code rendering by the presentation layer.
func (s *Service) ProvisionURI(account, secret string) string {
	label := url.PathEscape(s.issuer + ":" + account)
	q := url.Values{}
	q.Set("secret", secret)
	q.Set("issuer", s.issuer)
	q.Set("algorithm", "SHA1")
	q.Set("digits", fmt.Sprint(Digits))
	q.Set("period", fmt.Sprint(int(Step/time.Second)))
	return "otpauth://totp/" + label + "?" + q.Encode()
}

// hotp computes the RFC 4226 truncated 6-digit code for one counter value.
func hotp(secret []byte, counter uint64) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], counter)

	mac := hmac.New(sha1.New, secret)
	mac.Write(buf[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0F
	trunc := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7FFFFFFF
	return fmt.Sprintf("%0*d", Digits, trunc%1_000_000)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
