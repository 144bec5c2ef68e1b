package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func testTokens() TokenService {
	return TokenService{Secret: []byte("test-secret"), Issuer: "edutech", TTL: 24 * time.Hour, BcryptCost: 4}
}

func TestHashPasswordUsesMinimumCost(t *testing.T) {
	tokens := testTokens()
	hash, err := tokens.HashPassword("segredo123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "segredo123" {
		t.Fatalf("password stored in plaintext")
	}
	if hash[:7] != "$2a$10$" {
		t.Fatalf("hash prefix: want=%q got=%q", "$2a$10$", hash[:7])
	}
	if !tokens.VerifyPassword("segredo123", hash) {
		t.Fatalf("verify should accept the right password")
	}
	if tokens.VerifyPassword("errada", hash) {
		t.Fatalf("verify should reject a wrong password")
	}
}

func TestIssueAndValidateSession(t *testing.T) {
	tokens := testTokens()
	token, exp, err := tokens.IssueSession(7, "ana@escola.br", RoleStudent)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if d := time.Until(exp); d < 23*time.Hour || d > 25*time.Hour {
		t.Fatalf("expiry should be ~24h away: got=%s", d)
	}

	session, err := tokens.ValidateSession(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if session.UserID != 7 || session.Email != "ana@escola.br" || session.Role != RoleStudent {
		t.Fatalf("session: got=%+v", session)
	}
	if session.TokenID == "" {
		t.Fatalf("session should carry a token id")
	}
}

func TestValidateSessionRejects(t *testing.T) {
	tokens := testTokens()
	good, _, _ := tokens.IssueSession(1, "a@b.c", RoleAdmin)

	other := tokens
	other.Secret = []byte("another-secret")
	forged, _, _ := other.IssueSession(1, "a@b.c", RoleAdmin)

	expired := tokens
	expired.TTL = -time.Minute
	stale, _, _ := expired.IssueSession(1, "a@b.c", RoleAdmin)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"iss": "edutech", "typ": "access", "id": 1, "tipo": "admin",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	cases := map[string]string{
		"empty":     "",
		"garbage":   "not-a-token",
		"forged":    forged,
		"expired":   stale,
		"unsigned":  unsigned,
		"truncated": good[:len(good)-4],
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := tokens.ValidateSession(token)
			if !HasCode(err, CodeUnauthorized) {
				t.Fatalf("want UNAUTHORIZED got=%v", err)
			}
		})
	}
}
