package config

import (
	"strings"
	"testing"
)

func TestLoadRequiresSigningSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/edutech")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected error when JWT_SECRET is unset")
	}
	if !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("error should name the variable: got=%q", err.Error())
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "s3cret")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when DATABASE_URL is unset")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/edutech")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("SESSION_TTL_SECONDS", "")
	t.Setenv("PORT", "")
	t.Setenv("CORS_ORIGINS", " http://localhost:3000 , ,https://edutech.app")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseDriver != "pgx" {
		t.Fatalf("driver: want=%q got=%q", "pgx", cfg.DatabaseDriver)
	}
	if cfg.BcryptCost != 10 {
		t.Fatalf("bcrypt cost must not drop below 10: got=%d", cfg.BcryptCost)
	}
	if cfg.SessionTTLSeconds != 86400 {
		t.Fatalf("session ttl: want=86400 got=%d", cfg.SessionTTLSeconds)
	}
	if cfg.Port != "3001" {
		t.Fatalf("port: want=%q got=%q", "3001", cfg.Port)
	}
	if len(cfg.CorsOrigins) != 2 || cfg.CorsOrigins[1] != "https://edutech.app" {
		t.Fatalf("cors origins: got=%v", cfg.CorsOrigins)
	}
}

func TestLoadNormalizesDriver(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:edutech.db")
	t.Setenv("JWT_SECRET", "s3cret")

	cases := map[string]string{
		"postgres": "pgx",
		"SQLite3":  "sqlite",
		"sqlite":   "sqlite",
	}
	for raw, want := range cases {
		t.Setenv("DATABASE_DRIVER", raw)
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load %q: %v", raw, err)
		}
		if cfg.DatabaseDriver != want {
			t.Fatalf("driver %q: want=%q got=%q", raw, want, cfg.DatabaseDriver)
		}
	}

	t.Setenv("DATABASE_DRIVER", "mysql")
	if _, err := Load(); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}
