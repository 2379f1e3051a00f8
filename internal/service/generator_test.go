package service

import (
	"strings"
	"testing"
)

func TestGenerate_Length(t *testing.T) {
	g := NewPasswordGenerator()
	for _, n := range []int{4, 12, 20, 64} {
		pw, err := g.Generate(n, GeneratorOptions{Upper: true, Lower: true, Digits: true, Symbols: true})
		if err != nil {
			t.Fatalf("Generate(%d): %v", n, err)
		}
		if len(pw) != n {
			t.Errorf("Generate(%d) length = %d", n, len(pw))
		}
	}
}

func TestGenerate_EveryEnabledClassPresent(t *testing.T) {
	g := NewPasswordGenerator()
	opts := GeneratorOptions{Upper: true, Lower: true, Digits: true, Symbols: true}
	for i := 0; i < 50; i++ {
		pw, err := g.Generate(8, opts)
		if err != nil {
			t.Fatal(err)
		}
		for _, class := range []string{upperChars, lowerChars, digitChars, symbolChars} {
			if !strings.ContainsAny(pw, class) {
				t.Fatalf("password %q missing class %q", pw, class[:5])
			}
		}
	}
}

func TestGenerate_OnlyEnabledClassesUsed(t *testing.T) {
	g := NewPasswordGenerator()
	pw, err := g.Generate(32, GeneratorOptions{Digits: true})
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range pw {
		if !strings.ContainsRune(digitChars, c) {
			t.Fatalf("password %q contains non-digit %q", pw, c)
		}
	}
}

func TestGenerate_Errors(t *testing.T) {
	g := NewPasswordGenerator()

	if _, err := g.Generate(10, GeneratorOptions{}); err == nil {
		t.Error("expected error with no classes enabled")
	}
	if _, err := g.Generate(2, GeneratorOptions{Upper: true, Lower: true, Digits: true}); err == nil {
		t.Error("expected error when length < enabled classes")
	}
}

func TestGenerate_NotConstant(t *testing.T) {
	g := NewPasswordGenerator()
	opts := GeneratorOptions{Upper: true, Lower: true, Digits: true, Symbols: true}
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		pw, err := g.Generate(16, opts)
		if err != nil {
			t.Fatal(err)
		}
		seen[pw] = true
	}
	if len(seen) < 9 {
		t.Errorf("expected near-unique passwords, got %d distinct of 10", len(seen))
	}
}

func TestStrength(t *testing.T) {
	g := NewPasswordGenerator()
	tests := []struct {
		password string
		want     int
	}{
		{"", 0},
		{"abc", 0},
		{"abcdefg", 0},
		{"Ab1!xyz", 1},                  // varied but short
		{"abcdefghij", 1},               // long enough, one class
		{"Abcdefghi1", 2},               // 10+ chars, 3 classes
		{"Abcdefgh1!", 3},               // 10+ chars, 4 classes
		{"Abcdefghijklmn1!", 4},         // 16+ chars, 4 classes
		{"abcdefghijklmnopqrstuvwx", 2}, // 16+ chars, 1 class
	}
	for _, tt := range tests {
		if got := g.Strength(tt.password); got != tt.want {
			t.Errorf("Strength(%q) = %d, want %d", tt.password, got, tt.want)
		}
	}
}
