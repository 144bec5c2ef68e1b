package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	"edutech-backend-go/internal/db"
	"edutech-backend-go/internal/migrations"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	conn, err := db.Open("sqlite", filepath.Join(t.TempDir(), "services_test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if err := migrations.Apply(context.Background(), conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func countRows(t *testing.T, conn *sqlx.DB, table string) int {
	t.Helper()
	var n int
	if err := conn.Get(&n, "SELECT COUNT(*) FROM "+table); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func mustRegister(t *testing.T, users *UserService, nome, email string, role Role) int64 {
	t.Helper()
	id, err := users.Register(context.Background(), RegisterInput{Nome: nome, Email: email, Senha: "segredo123", Tipo: role})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return id
}

func sampleExercise(titulo string) ExerciseInput {
	return ExerciseInput{
		Titulo:      titulo,
		Enunciado:   "Quanto é 2 + 2?",
		Dificuldade: 2,
		Alternativas: []AlternativaInput{
			{Descricao: "3"},
			{Descricao: "4", Correta: true},
			{Descricao: "5"},
		},
	}
}

func ptr[T any](v T) *T {
	return &v
}
