package logger

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(t *testing.T) (*Logger, *observer.ObservedLogs) {
	t.Helper()
	t.Setenv("LOG_REDACTION_ENABLED", "")
	core, logs := observer.New(zapcore.DebugLevel)
	return FromZap(zap.New(core)), logs
}

func TestRedactsCredentialKeys(t *testing.T) {
	log, logs := observed(t)

	log.Info("login attempt", "email", "ana@escola.br", "senha", "hunter22", "path", "/usuarios/login")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries: want=1 got=%d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["email"] != redacted {
		t.Fatalf("email: want=%q got=%v", redacted, fields["email"])
	}
	if fields["senha"] != redacted {
		t.Fatalf("senha: want=%q got=%v", redacted, fields["senha"])
	}
	if fields["path"] != "/usuarios/login" {
		t.Fatalf("path: want=%q got=%v", "/usuarios/login", fields["path"])
	}
}

func TestHashesUserIdentifiers(t *testing.T) {
	log, logs := observed(t)

	log.Info("joined", "id_usuario", 7)

	got, _ := logs.All()[0].ContextMap()["id_usuario"].(string)
	if !strings.HasPrefix(got, "hash:") || len(got) != len("hash:")+12 {
		t.Fatalf("id_usuario should be hashed: got=%q", got)
	}
}

func TestSanitizeBodyRedactsNestedValues(t *testing.T) {
	log, _ := observed(t)

	body := map[string]interface{}{
		"nome":       "Ana",
		"senhaAtual": "old-secret",
		"novaSenha":  "new-secret",
		"extra": map[string]interface{}{
			"token": "abc",
		},
		"raw": "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.sig",
	}
	clean := log.SanitizeBody(body)

	if clean["nome"] != "Ana" {
		t.Fatalf("nome: want=%q got=%v", "Ana", clean["nome"])
	}
	for _, key := range []string{"senhaAtual", "novaSenha", "raw"} {
		if clean[key] != redacted {
			t.Fatalf("%s: want=%q got=%v", key, redacted, clean[key])
		}
	}
	nested, _ := clean["extra"].(map[string]interface{})
	if nested["token"] != redacted {
		t.Fatalf("nested token: want=%q got=%v", redacted, nested["token"])
	}
	if body["senhaAtual"] != "old-secret" {
		t.Fatalf("input map must not be mutated")
	}
}

func TestRedactionCanBeDisabled(t *testing.T) {
	t.Setenv("LOG_REDACTION_ENABLED", "off")
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core))

	log.Debug("debugging", "email", "ana@escola.br")

	if got := logs.All()[0].ContextMap()["email"]; got != "ana@escola.br" {
		t.Fatalf("email: want raw value got=%v", got)
	}
}
