package auth

import (
	"strings"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	keys, err := NewKeys("test-secret")
	if err != nil {
		t.Fatalf("NewKeys: %v", err)
	}

	token, err := keys.GenerateToken("user-123", RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := keys.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Subject != "user-123" {
		t.Errorf("got subject %q, want user-123", claims.Subject)
	}
	if claims.Role != RoleAdmin {
		t.Errorf("got role %q, want %q", claims.Role, RoleAdmin)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	keys, _ := NewKeys("secret-a")
	other, _ := NewKeys("secret-b")

	token, err := keys.GenerateToken("user-123", RoleUser)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := other.ParseToken(token); err == nil {
		t.Fatal("expected verification failure with a different secret")
	}
}

func TestParseTokenTampered(t *testing.T) {
	keys, _ := NewKeys("test-secret")
	token, _ := keys.GenerateToken("user-123", RoleUser)

	tampered := token[:len(token)-2] + "xx"
	if tampered == token {
		tampered = token[:len(token)-2] + "yy"
	}
	if _, err := keys.ParseToken(tampered); err == nil {
		t.Fatal("expected failure for a tampered token")
	}
}

func TestParseTokenGarbage(t *testing.T) {
	keys, _ := NewKeys("test-secret")
	for _, tok := range []string{"", "not-a-token", strings.Repeat("a.", 3)} {
		if _, err := keys.ParseToken(tok); err == nil {
			t.Fatalf("expected failure for %q", tok)
		}
	}
}

func TestNewKeysEmptySecret(t *testing.T) {
	if _, err := NewKeys(""); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
