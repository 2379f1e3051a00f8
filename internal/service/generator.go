package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// Character classes for generated passwords.
const (
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*()-_=+[]{};:,.<>?"
)

// GeneratorOptions selects which character classes a generated password
// draws from. At least one class must be enabled.
type GeneratorOptions struct {
	Upper   bool
	Lower   bool
	Digits  bool
	Symbols bool
}

// PasswordGenerator produces random passwords and scores password strength.
type PasswordGenerator struct{}

func NewPasswordGenerator() *PasswordGenerator {
	return &PasswordGenerator{}
}

// Generate returns a random password of the given length. Every enabled
// character class is guaranteed to appear at least once, so length must be
// at least the number of enabled classes.
func (g *PasswordGenerator) Generate(length int, opts GeneratorOptions) (string, error) {
	var classes []string
	if opts.Upper {
		classes = append(classes, upperChars)
	}
	if opts.Lower {
		classes = append(classes, lowerChars)
	}
	if opts.Digits {
		classes = append(classes, digitChars)
	}
	if opts.Symbols {
		classes = append(classes, symbolChars)
	}
	if len(classes) == 0 {
		return "", fmt.Errorf("no character classes enabled")
	}
	if length < len(classes) {
		return "", fmt.Errorf("length %d too short for %d character classes", length, len(classes))
	}

	pool := strings.Join(classes, "")
	out := make([]byte, 0, length)

	// One guaranteed character per class, the rest from the full pool.
	for _, class := range classes {
		c, err := randomChar(class)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for len(out) < length {
		c, err := randomChar(pool)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	// Fisher-Yates, so the guaranteed characters do not cluster at the front.
	for i := len(out) - 1; i > 0; i-- {
		j, err := randomInt(i + 1)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}
	return string(out), nil
}

// Strength scores a password 0 (very weak) to 4 (strong) from its length
// and character class variety.
func (g *PasswordGenerator) Strength(password string) int {
	if password == "" {
		return 0
	}

	variety := 0
	for _, class := range []string{upperChars, lowerChars, digitChars, symbolChars} {
		if strings.ContainsAny(password, class) {
			variety++
		}
	}

	score := 0
	switch {
	case len(password) >= 16:
		score += 2
	case len(password) >= 10:
		score++
	}
	if variety >= 3 {
		score++
	}
	if variety == 4 {
		score++
	}
	if len(password) < 8 {
		score = min(score, 1)
	}
	return min(score, 4)
}

func randomChar(pool string) (byte, error) {
	i, err := randomInt(len(pool))
	if err != nil {
		return 0, err
	}
	return pool[i], nil
}

func randomInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("random int: %w", err)
	}
	return int(v.Int64()), nil
}
