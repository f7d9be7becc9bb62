package crypto

import (
	"strings"
	"testing"
)

func testArgon2() *Argon2 {
	// Cheap parameters; production values live in NewArgon2.
	return &Argon2{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestHashAndVerify(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"simple", "password123"},
		{"empty", ""},
		{"unicode", "pässwörd-日本語"},
		{"long", strings.Repeat("x", 256)},
	}

	a := testArgon2()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := a.Hash(tt.password)
			if err != nil {
				t.Fatalf("Hash: %v", err)
			}
			if !strings.HasPrefix(hash, "$argon2id$") {
				t.Fatalf("unexpected encoding: %q", hash)
			}

			ok, err := a.Verify(tt.password, hash)
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if !ok {
				t.Fatal("correct password rejected")
			}

			ok, err = a.Verify(tt.password+"x", hash)
			if err != nil {
				t.Fatalf("Verify wrong: %v", err)
			}
			if ok {
				t.Fatal("wrong password accepted")
			}
		})
	}
}

func TestHashesAreSalted(t *testing.T) {
	a := testArgon2()

	h1, err := a.Hash("password123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	h2, err := a.Hash("password123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if h1 == h2 {
		t.Fatal("two hashes of one password are identical; salt missing")
	}
}

func TestVerifyHonorsEncodedParameters(t *testing.T) {
	// A hash carries its parameters; a handler configured differently
	// must still verify it.
	producer := testArgon2()
	hash, err := producer.Hash("password123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	verifier := &Argon2{Memory: 16 * 1024, Iterations: 2, Parallelism: 2, SaltLength: 16, KeyLength: 32}
	ok, err := verifier.Verify("password123", hash)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("verification ignored the encoded parameters")
	}
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"not encoded", "plaintext"},
		{"wrong algorithm", "$argon2i$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA"},
		{"missing sections", "$argon2id$v=19$m=8192,t=1,p=1"},
		{"bad salt encoding", "$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaA"},
	}

	a := testArgon2()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := a.Verify("password123", tt.hash); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
