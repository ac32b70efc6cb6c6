package security

import (
	"strings"
	"testing"
)

func TestNewClientSecret_URLSafe(t *testing.T) {
	secret, err := NewClientSecret()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(secret) < 40 {
		t.Fatalf("secret too short: %d chars", len(secret))
	}
	if strings.ContainsAny(secret, "+/=") {
		t.Fatalf("secret contains reserved characters: %q", secret)
	}
}

func TestNewClientSecret_Unique(t *testing.T) {
	first, err := NewClientSecret()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := NewClientSecret()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct secrets")
	}
}

func TestHashSecret_NeverPlaintext(t *testing.T) {
	secret, err := NewClientSecret()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	hash, err := HashSecret(secret)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == secret {
		t.Fatal("hash equals plaintext")
	}
	if !CompareSecret(hash, secret) {
		t.Fatal("expected secret to match its hash")
	}
	if CompareSecret(hash, "wrong") {
		t.Fatal("expected mismatch for wrong secret")
	}
}
