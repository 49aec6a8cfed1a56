package auth

import (
	"errors"
	"testing"
	"time"
)

var secret = []byte("test-secret")

func TestIssueAndParseToken(t *testing.T) {
	signed, err := IssueToken(secret, "u_1", "Alice", "jti_1", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	claims, err := ParseToken(secret, signed)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Subject != "u_1" || claims.Name != "Alice" || claims.ID != "jti_1" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseTokenExpired(t *testing.T) {
	signed, err := IssueToken(secret, "u_1", "Alice", "jti_1", -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := ParseToken(secret, signed); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("err = %v, want ErrExpiredToken", err)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	signed, err := IssueToken(secret, "u_1", "Alice", "jti_1", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := ParseToken([]byte("other-secret"), signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseTokenGarbage(t *testing.T) {
	if _, err := ParseToken(secret, "not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseTokenMissingClaims(t *testing.T) {
	signed, err := IssueToken(secret, "", "Alice", "jti_1", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := ParseToken(secret, signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("empty subject accepted")
	}
}

func TestHashTokenStable(t *testing.T) {
	a := HashToken("refresh-token")
	b := HashToken("refresh-token")
	if a != b {
		t.Fatalf("hash not deterministic")
	}
	if a == HashToken("other") {
		t.Fatalf("distinct tokens collide")
	}
	if len(a) != 64 {
		t.Fatalf("hash length = %d, want 64 hex chars", len(a))
	}
}
