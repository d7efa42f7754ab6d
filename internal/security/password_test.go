package security

import (
	"strings"
	"testing"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	passwords := []string{"password123", "correct horse battery staple", "ümlaut-ß", strings.Repeat("x", MaxPasswordBytes)}

	for _, p := range passwords {
		hash, err := HashPassword(p)
		if err != nil {
			t.Fatalf("HashPassword(%q) error: %v", p, err)
		}

		if hash == p {
			t.Fatalf("hash must not equal the plaintext")
		}

		if !VerifyPassword(hash, p) {
			t.Fatalf("VerifyPassword should accept the original password %q", p)
		}
	}
}

func TestHashPassword_SaltedPerCall(t *testing.T) {
	a, err := HashPassword("same-input")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	b, err := HashPassword("same-input")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	if a == b {
		t.Fatalf("expected two different digests for the same input")
	}
}

func TestVerifyPassword_Rejects(t *testing.T) {
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	tests := []struct {
		name  string
		hash  string
		plain string
	}{
		{name: "wrong_password", hash: hash, plain: "password124"},
		{name: "empty_password", hash: hash, plain: ""},
		{name: "empty_hash", hash: "", plain: "password123"},
		{name: "malformed_hash", hash: "not-a-bcrypt-digest", plain: "password123"},
		{name: "truncated_hash", hash: hash[:len(hash)-5], plain: "password123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if VerifyPassword(tt.hash, tt.plain) {
				t.Fatalf("expected VerifyPassword to return false")
			}
		})
	}
}
