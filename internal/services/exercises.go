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

// GeneralListTitle names the per-turma list that exercises are enrolled in
// when they are created for a turma.
const GeneralListTitle = "General Exercises"

const msgExerciseNotFound = "Exercício não encontrado."

type AlternativaInput struct {
	Descricao string
	Correta   bool
}

type ExerciseInput struct {
	Titulo       string
	Enunciado    string
	Dificuldade  int
	IDMapa       *int64
	Alternativas []AlternativaInput
	IDTurma      *int64
}

type ExerciseService struct {
	DB *sqlx.DB
}

func (in *ExerciseInput) normalize() error {
	in.Titulo = strings.TrimSpace(in.Titulo)
	in.Enunciado = strings.TrimSpace(in.Enunciado)
	if in.Titulo == "" || in.Enunciado == "" {
		return ErrValidation("Título e enunciado são obrigatórios.")
	}
	if in.Dificuldade < 1 || in.Dificuldade > 10 {
		return ErrValidation("Dificuldade deve estar entre 1 e 10.")
	}
	if len(in.Alternativas) == 0 {
		return ErrValidation("O exercício precisa de pelo menos uma alternativa.")
	}
	for i := range in.Alternativas {
		in.Alternativas[i].Descricao = strings.TrimSpace(in.Alternativas[i].Descricao)
		if in.Alternativas[i].Descricao == "" {
			return ErrValidation("Toda alternativa precisa de uma descrição.")
		}
	}
	return nil
}

// Create writes the exercise, its alternatives and, when a turma is given,
// the link into that turma's general list, all in one transaction.
func (s *ExerciseService) Create(ctx context.Context, in ExerciseInput) (models.Exercicio, error) {
	if err := in.normalize(); err != nil {
		return models.Exercicio{}, err
	}
	ex := models.Exercicio{
		Titulo:      in.Titulo,
		Enunciado:   in.Enunciado,
		Dificuldade: in.Dificuldade,
		IDMapa:      in.IDMapa,
		CriadoEm:    time.Now().UTC(),
	}
	err := db.WithTx(ctx, s.DB, "create_exercicio", func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &ex.ID, tx.Rebind(`
INSERT INTO exercicio (titulo, enunciado, dificuldade, id_mapa, criado_em)
VALUES (?, ?, ?, ?, ?)
RETURNING id
`), ex.Titulo, ex.Enunciado, ex.Dificuldade, ex.IDMapa, ex.CriadoEm)
		if err != nil {
			return err
		}
		if err := insertAlternatives(ctx, tx, ex.ID, in.Alternativas); err != nil {
			return err
		}
		if in.IDTurma == nil {
			return nil
		}
		listID, err := findOrCreateGeneralList(ctx, tx, *in.IDTurma)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, tx.Rebind(`INSERT INTO lista_exercicio (id_lista, id_exercicio) VALUES (?, ?)`), listID, ex.ID)
		return err
	})
	if err != nil {
		return models.Exercicio{}, txError("create exercicio", err)
	}
	return ex, nil
}

func insertAlternatives(ctx context.Context, tx *sqlx.Tx, exerciseID int64, alts []AlternativaInput) error {
	stmt := tx.Rebind(`INSERT INTO alternativa (id_exercicio, descricao, correta) VALUES (?, ?, ?)`)
	for _, alt := range alts {
		if _, err := tx.ExecContext(ctx, stmt, exerciseID, alt.Descricao, alt.Correta); err != nil {
			return err
		}
	}
	return nil
}

func findOrCreateGeneralList(ctx context.Context, tx *sqlx.Tx, turmaID int64) (int64, error) {
	var listID int64
	err := tx.GetContext(ctx, &listID, tx.Rebind(`
SELECT id FROM lista WHERE titulo = ? AND id_turma = ? ORDER BY id LIMIT 1
`), GeneralListTitle, turmaID)
	if err == nil {
		return listID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	err = tx.GetContext(ctx, &listID, tx.Rebind(`
INSERT INTO lista (titulo, descricao, id_turma, criado_em)
VALUES (?, ?, ?, ?)
RETURNING id
`), GeneralListTitle, "Exercícios gerais da turma", turmaID, time.Now().UTC())
	return listID, err
}

// Update rewrites the exercise row and replaces its alternatives wholesale.
func (s *ExerciseService) Update(ctx context.Context, id int64, in ExerciseInput) (models.Exercicio, error) {
	if err := in.normalize(); err != nil {
		return models.Exercicio{}, err
	}
	var ex models.Exercicio
	err := db.WithTx(ctx, s.DB, "update_exercicio", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`
UPDATE exercicio SET titulo = ?, enunciado = ?, dificuldade = ?, id_mapa = ?
WHERE id = ?
`), in.Titulo, in.Enunciado, in.Dificuldade, in.IDMapa, id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrNotFound(msgExerciseNotFound)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM alternativa WHERE id_exercicio = ?`), id); err != nil {
			return err
		}
		if err := insertAlternatives(ctx, tx, id, in.Alternativas); err != nil {
			return err
		}
		return tx.GetContext(ctx, &ex, tx.Rebind(`
SELECT id, titulo, enunciado, dificuldade, id_mapa, criado_em FROM exercicio WHERE id = ?
`), id)
	})
	if err != nil {
		return models.Exercicio{}, txError("update exercicio", err)
	}
	return ex, nil
}

// Delete removes the exercise along with its alternatives, list links and
// answers.
func (s *ExerciseService) Delete(ctx context.Context, id int64) error {
	err := db.WithTx(ctx, s.DB, "delete_exercicio", func(tx *sqlx.Tx) error {
		for _, stmt := range []string{
			`DELETE FROM resposta WHERE id_exercicio = ?`,
			`DELETE FROM lista_exercicio WHERE id_exercicio = ?`,
			`DELETE FROM alternativa WHERE id_exercicio = ?`,
		} {
			if _, err := tx.ExecContext(ctx, tx.Rebind(stmt), id); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM exercicio WHERE id = ?`), id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrNotFound(msgExerciseNotFound)
		}
		return nil
	})
	return txError("delete exercicio", err)
}

func (s *ExerciseService) List(ctx context.Context) ([]models.ExercicioResumo, error) {
	items := []models.ExercicioResumo{}
	if err := s.DB.SelectContext(ctx, &items, `SELECT id, titulo, dificuldade FROM exercicio ORDER BY id`); err != nil {
		return nil, storageError("list exercicios", err)
	}
	return items, nil
}

// Get reads the exercise and its alternatives with two queries.
func (s *ExerciseService) Get(ctx context.Context, id int64) (models.ExercicioCompleto, error) {
	var out models.ExercicioCompleto
	err := s.DB.GetContext(ctx, &out.Exercicio, s.DB.Rebind(`
SELECT id, titulo, enunciado, dificuldade, id_mapa, criado_em FROM exercicio WHERE id = ?
`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return out, ErrNotFound(msgExerciseNotFound)
	}
	if err != nil {
		return out, storageError("load exercicio", err)
	}
	out.Alternativas = []models.Alternativa{}
	err = s.DB.SelectContext(ctx, &out.Alternativas, s.DB.Rebind(`
SELECT id, id_exercicio, descricao, correta FROM alternativa WHERE id_exercicio = ? ORDER BY id
`), id)
	if err != nil {
		return out, storageError("load alternativas", err)
	}
	return out, nil
}

// ListByTurma returns the exercises linked to any list of the turma.
func (s *ExerciseService) ListByTurma(ctx context.Context, turmaID int64) ([]models.ExercicioResumo, error) {
	items := []models.ExercicioResumo{}
	err := s.DB.SelectContext(ctx, &items, s.DB.Rebind(`
SELECT DISTINCT e.id, e.titulo, e.dificuldade
FROM exercicio e
JOIN lista_exercicio le ON le.id_exercicio = e.id
JOIN lista l ON l.id = le.id_lista
WHERE l.id_turma = ?
ORDER BY e.id
`), turmaID)
	if err != nil {
		return nil, storageError("list exercicios by turma", err)
	}
	return items, nil
}
