package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"edutech-backend-go/internal/models"
)

const msgAnswerNotFound = "Resposta não encontrada."

type AnswerService struct {
	DB *sqlx.DB
}

const answerColumns = `id, id_usuario, id_exercicio, id_alternativa, foi_correta, data_resolucao`

// correctness looks up the alternative and checks that it belongs to the
// exercise.
func (s *AnswerService) correctness(ctx context.Context, exerciseID, alternativeID int64) (bool, error) {
	var alt struct {
		IDExercicio int64 `db:"id_exercicio"`
		Correta     bool  `db:"correta"`
	}
	err := s.DB.GetContext(ctx, &alt, s.DB.Rebind(`SELECT id_exercicio, correta FROM alternativa WHERE id = ?`), alternativeID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrValidation("Alternativa inválida.")
	}
	if err != nil {
		return false, storageError("load alternativa", err)
	}
	if alt.IDExercicio != exerciseID {
		return false, ErrValidation("A alternativa não pertence a este exercício.")
	}
	return alt.Correta, nil
}

// Submit records an attempt. Correctness is always computed from the stored
// alternative, never taken from the client.
func (s *AnswerService) Submit(ctx context.Context, userID, exerciseID, alternativeID int64) (models.Resposta, error) {
	correct, err := s.correctness(ctx, exerciseID, alternativeID)
	if err != nil {
		return models.Resposta{}, err
	}
	r := models.Resposta{
		IDUsuario:     userID,
		IDExercicio:   exerciseID,
		IDAlternativa: &alternativeID,
		FoiCorreta:    correct,
		DataResolucao: time.Now().UTC(),
	}
	err = s.DB.GetContext(ctx, &r.ID, s.DB.Rebind(`
INSERT INTO resposta (id_usuario, id_exercicio, id_alternativa, foi_correta, data_resolucao)
VALUES (?, ?, ?, ?, ?)
RETURNING id
`), r.IDUsuario, r.IDExercicio, r.IDAlternativa, r.FoiCorreta, r.DataResolucao)
	if err != nil {
		return models.Resposta{}, storageError("insert resposta", err)
	}
	return r, nil
}

func (s *AnswerService) get(ctx context.Context, id int64) (models.Resposta, error) {
	var r models.Resposta
	err := s.DB.GetContext(ctx, &r, s.DB.Rebind(`SELECT `+answerColumns+` FROM resposta WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return r, ErrNotFound(msgAnswerNotFound)
	}
	if err != nil {
		return r, storageError("load resposta", err)
	}
	return r, nil
}

func (s *AnswerService) ListMine(ctx context.Context, userID int64) ([]models.Resposta, error) {
	items := []models.Resposta{}
	err := s.DB.SelectContext(ctx, &items, s.DB.Rebind(`
SELECT `+answerColumns+` FROM resposta WHERE id_usuario = ? ORDER BY data_resolucao DESC, id DESC
`), userID)
	if err != nil {
		return nil, storageError("list respostas", err)
	}
	return items, nil
}

func (s *AnswerService) ListByExercise(ctx context.Context, exerciseID int64) ([]models.Resposta, error) {
	items := []models.Resposta{}
	err := s.DB.SelectContext(ctx, &items, s.DB.Rebind(`
SELECT `+answerColumns+` FROM resposta WHERE id_exercicio = ? ORDER BY data_resolucao DESC, id DESC
`), exerciseID)
	if err != nil {
		return nil, storageError("list respostas of exercicio", err)
	}
	return items, nil
}

// Update lets the owner change the chosen alternative; correctness is
// recomputed.
func (s *AnswerService) Update(ctx context.Context, id, userID, alternativeID int64) (models.Resposta, error) {
	r, err := s.get(ctx, id)
	if err != nil {
		return models.Resposta{}, err
	}
	if r.IDUsuario != userID {
		return models.Resposta{}, ErrForbidden("Você só pode alterar suas próprias respostas.")
	}
	correct, err := s.correctness(ctx, r.IDExercicio, alternativeID)
	if err != nil {
		return models.Resposta{}, err
	}
	r.IDAlternativa = &alternativeID
	r.FoiCorreta = correct
	r.DataResolucao = time.Now().UTC()
	_, err = s.DB.ExecContext(ctx, s.DB.Rebind(`
UPDATE resposta SET id_alternativa = ?, foi_correta = ?, data_resolucao = ? WHERE id = ?
`), r.IDAlternativa, r.FoiCorreta, r.DataResolucao, id)
	if err != nil {
		return models.Resposta{}, storageError("update resposta", err)
	}
	return r, nil
}

// Delete removes an answer; only its owner or an admin may do so.
func (s *AnswerService) Delete(ctx context.Context, id, userID int64, role Role) error {
	r, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if r.IDUsuario != userID && role != RoleAdmin {
		return ErrForbidden("Você só pode excluir suas próprias respostas.")
	}
	_, err = s.DB.ExecContext(ctx, s.DB.Rebind(`DELETE FROM resposta WHERE id = ?`), id)
	return storageError("delete resposta", err)
}
