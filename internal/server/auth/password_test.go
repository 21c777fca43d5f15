package auth

import (
	"strings"
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hash == "password123" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("unexpected hash: %q", hash)
	}

	if !CheckPassword(hash, "password123") {
		t.Fatalf("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatalf("wrong password accepted")
	}
}

func TestHashPassword_DistinctSalts(t *testing.T) {
	t.Parallel()

	h1, err := HashPassword("same")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	h2, err := HashPassword("same")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("two hashes of the same password are identical")
	}
}
