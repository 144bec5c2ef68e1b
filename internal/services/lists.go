package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"edutech-backend-go/internal/db"
	"edutech-backend-go/internal/models"
)

const msgListNotFound = "Lista de exercícios não encontrada."

type ListInput struct {
	Titulo     string
	Descricao  *string
	Exercicios []int64
	IDTurma    *int64
}

type ListService struct {
	DB *sqlx.DB
}

func (in *ListInput) normalize() error {
	in.Titulo = strings.TrimSpace(in.Titulo)
	if in.Titulo == "" {
		return ErrValidation("Título é obrigatório.")
	}
	seen := make(map[int64]bool, len(in.Exercicios))
	refs := make([]int64, 0, len(in.Exercicios))
	for _, id := range in.Exercicios {
		if seen[id] {
			continue
		}
		seen[id] = true
		refs = append(refs, id)
	}
	in.Exercicios = refs
	return nil
}

func insertListLinks(ctx context.Context, tx *sqlx.Tx, listID int64, exercises []int64) error {
	stmt := tx.Rebind(`INSERT INTO lista_exercicio (id_lista, id_exercicio) VALUES (?, ?)`)
	for _, exerciseID := range exercises {
		if _, err := tx.ExecContext(ctx, stmt, listID, exerciseID); err != nil {
			return err
		}
	}
	return nil
}

func (s *ListService) Create(ctx context.Context, in ListInput) (int64, error) {
	if err := in.normalize(); err != nil {
		return 0, err
	}
	var id int64
	err := db.WithTx(ctx, s.DB, "create_lista", func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &id, tx.Rebind(`
INSERT INTO lista (titulo, descricao, id_turma, criado_em)
VALUES (?, ?, ?, ?)
RETURNING id
`), in.Titulo, in.Descricao, in.IDTurma, time.Now().UTC())
		if err != nil {
			return err
		}
		return insertListLinks(ctx, tx, id, in.Exercicios)
	})
	if err != nil {
		return 0, txError("create lista", err)
	}
	return id, nil
}

// Update rewrites the list row and replaces its exercise links.
func (s *ListService) Update(ctx context.Context, id int64, in ListInput) error {
	if err := in.normalize(); err != nil {
		return err
	}
	err := db.WithTx(ctx, s.DB, "update_lista", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`
UPDATE lista SET titulo = ?, descricao = ?, id_turma = ? WHERE id = ?
`), in.Titulo, in.Descricao, in.IDTurma, id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrNotFound(msgListNotFound)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM lista_exercicio WHERE id_lista = ?`), id); err != nil {
			return err
		}
		return insertListLinks(ctx, tx, id, in.Exercicios)
	})
	return txError("update lista", err)
}

func (s *ListService) Delete(ctx context.Context, id int64) error {
	err := db.WithTx(ctx, s.DB, "delete_lista", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM lista_exercicio WHERE id_lista = ?`), id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM lista WHERE id = ?`), id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrNotFound(msgListNotFound)
		}
		return nil
	})
	return txError("delete lista", err)
}

// AddExercise links one exercise to a list. Duplicates are caught by the
// pre-check and, under concurrency, by the (id_lista, id_exercicio) key.
func (s *ListService) AddExercise(ctx context.Context, listID, exerciseID int64) error {
	var state struct {
		ListExists     bool `db:"list_exists"`
		ExerciseExists bool `db:"exercise_exists"`
		Linked         bool `db:"linked"`
	}
	err := s.DB.GetContext(ctx, &state, s.DB.Rebind(`
SELECT
  EXISTS(SELECT 1 FROM lista WHERE id = ?) AS list_exists,
  EXISTS(SELECT 1 FROM exercicio WHERE id = ?) AS exercise_exists,
  EXISTS(SELECT 1 FROM lista_exercicio WHERE id_lista = ? AND id_exercicio = ?) AS linked
`), listID, exerciseID, listID, exerciseID)
	if err != nil {
		return storageError("check lista_exercicio", err)
	}
	switch {
	case !state.ListExists:
		return ErrNotFound(msgListNotFound)
	case !state.ExerciseExists:
		return ErrNotFound(msgExerciseNotFound)
	case state.Linked:
		return ErrAlreadyInList()
	}
	_, err = s.DB.ExecContext(ctx, s.DB.Rebind(`INSERT INTO lista_exercicio (id_lista, id_exercicio) VALUES (?, ?)`), listID, exerciseID)
	if err != nil {
		if db.Classify(err) == db.KindUniqueViolation {
			return ErrAlreadyInList()
		}
		return storageError("insert lista_exercicio", err)
	}
	return nil
}

// List returns lists with their exercise counts, optionally scoped to a turma.
func (s *ListService) List(ctx context.Context, turmaID *int64) ([]models.ListaResumo, error) {
	query := `
SELECT l.id, l.titulo, l.descricao, l.id_turma, COUNT(le.id_exercicio) AS total_exercicios
FROM lista l
LEFT JOIN lista_exercicio le ON le.id_lista = l.id
`
	args := []interface{}{}
	if turmaID != nil {
		query += "WHERE l.id_turma = ?\n"
		args = append(args, *turmaID)
	}
	query += "GROUP BY l.id, l.titulo, l.descricao, l.id_turma\nORDER BY l.id"
	items := []models.ListaResumo{}
	if err := s.DB.SelectContext(ctx, &items, s.DB.Rebind(query), args...); err != nil {
		return nil, storageError("list listas", err)
	}
	return items, nil
}

func (s *ListService) Get(ctx context.Context, id int64) (models.ListaCompleta, error) {
	var out models.ListaCompleta
	err := s.DB.GetContext(ctx, &out.Lista, s.DB.Rebind(`
SELECT id, titulo, descricao, id_turma, criado_em FROM lista WHERE id = ?
`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return out, ErrNotFound(msgListNotFound)
	}
	if err != nil {
		return out, storageError("load lista", err)
	}
	out.Exercicios, err = s.exercises(ctx, id)
	return out, err
}

// Exercises lists the exercises linked to a list.
func (s *ListService) Exercises(ctx context.Context, id int64) ([]models.ExercicioResumo, error) {
	var exists bool
	if err := s.DB.GetContext(ctx, &exists, s.DB.Rebind(`SELECT EXISTS(SELECT 1 FROM lista WHERE id = ?)`), id); err != nil {
		return nil, storageError("check lista", err)
	}
	if !exists {
		return nil, ErrNotFound(msgListNotFound)
	}
	return s.exercises(ctx, id)
}

func (s *ListService) exercises(ctx context.Context, listID int64) ([]models.ExercicioResumo, error) {
	items := []models.ExercicioResumo{}
	err := s.DB.SelectContext(ctx, &items, s.DB.Rebind(`
SELECT e.id, e.titulo, e.dificuldade
FROM exercicio e
JOIN lista_exercicio le ON le.id_exercicio = e.id
WHERE le.id_lista = ?
ORDER BY e.id
`), listID)
	if err != nil {
		return nil, storageError("list exercicios of lista", err)
	}
	return items, nil
}
