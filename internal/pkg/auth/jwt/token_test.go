package jwt

import (
	"testing"
	"time"
)

const testSecret = "test-secret-key"

func TestGenerateAndParseToken(t *testing.T) {
	payload := &Payload{
		ID:       "42",
		Email:    "alice@example.com",
		Nickname: "alice",
	}

	token, err := GenerateToken(payload, testSecret, SessionExpiration)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("GenerateToken() returned empty token")
	}

	parsed, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}

	if parsed.ID != payload.ID {
		t.Errorf("parsed.ID = %q, want %q", parsed.ID, payload.ID)
	}
	if parsed.Email != payload.Email {
		t.Errorf("parsed.Email = %q, want %q", parsed.Email, payload.Email)
	}
	if parsed.Nickname != payload.Nickname {
		t.Errorf("parsed.Nickname = %q, want %q", parsed.Nickname, payload.Nickname)
	}
	if parsed.Issuer != TokenIssuer {
		t.Errorf("parsed.Issuer = %q, want %q", parsed.Issuer, TokenIssuer)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken(&Payload{ID: "1"}, testSecret, SessionExpiration)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := ParseToken(token, "a-different-secret"); err == nil {
		t.Error("ParseToken() with wrong secret: want error")
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken(&Payload{ID: "1"}, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := ParseToken(token, testSecret); err == nil {
		t.Error("ParseToken() with expired token: want error")
	}
}

func TestParseTokenGarbage(t *testing.T) {
	if _, err := ParseToken("not.a.token", testSecret); err == nil {
		t.Error("ParseToken() with garbage input: want error")
	}
}
