package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"edutech-backend-go/internal/db"
	"edutech-backend-go/internal/models"
)

const msgMapNotFound = "Mapa não encontrado."

// MapInput carries map fields; nil pointers are left untouched on update.
type MapInput struct {
	Titulo    *string
	Dica      *string
	Descricao *string
	Caminho   *string
}

type MapService struct {
	DB *sqlx.DB
}

const mapColumns = `id, titulo, dica, descricao, caminho`

func (s *MapService) Create(ctx context.Context, in MapInput) (models.Mapa, error) {
	if in.Titulo == nil || strings.TrimSpace(*in.Titulo) == "" {
		return models.Mapa{}, ErrValidation("Título é obrigatório.")
	}
	m := models.Mapa{
		Titulo:    strings.TrimSpace(*in.Titulo),
		Dica:      in.Dica,
		Descricao: in.Descricao,
		Caminho:   in.Caminho,
	}
	err := s.DB.GetContext(ctx, &m.ID, s.DB.Rebind(`
INSERT INTO mapa (titulo, dica, descricao, caminho) VALUES (?, ?, ?, ?) RETURNING id
`), m.Titulo, m.Dica, m.Descricao, m.Caminho)
	if err != nil {
		return models.Mapa{}, storageError("insert mapa", err)
	}
	return m, nil
}

func (s *MapService) Get(ctx context.Context, id int64) (models.Mapa, error) {
	var m models.Mapa
	err := s.DB.GetContext(ctx, &m, s.DB.Rebind(`SELECT `+mapColumns+` FROM mapa WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrNotFound(msgMapNotFound)
	}
	if err != nil {
		return m, storageError("load mapa", err)
	}
	return m, nil
}

func (s *MapService) List(ctx context.Context) ([]models.Mapa, error) {
	items := []models.Mapa{}
	if err := s.DB.SelectContext(ctx, &items, `SELECT `+mapColumns+` FROM mapa ORDER BY id`); err != nil {
		return nil, storageError("list mapas", err)
	}
	return items, nil
}

func (s *MapService) Update(ctx context.Context, id int64, in MapInput) (models.Mapa, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return models.Mapa{}, err
	}
	if in.Titulo != nil {
		titulo := strings.TrimSpace(*in.Titulo)
		if titulo == "" {
			return models.Mapa{}, ErrValidation("Título não pode ser vazio.")
		}
		current.Titulo = titulo
	}
	if in.Dica != nil {
		current.Dica = in.Dica
	}
	if in.Descricao != nil {
		current.Descricao = in.Descricao
	}
	if in.Caminho != nil {
		current.Caminho = in.Caminho
	}
	_, err = s.DB.ExecContext(ctx, s.DB.Rebind(`
UPDATE mapa SET titulo = ?, dica = ?, descricao = ?, caminho = ? WHERE id = ?
`), current.Titulo, current.Dica, current.Descricao, current.Caminho, id)
	if err != nil {
		return models.Mapa{}, storageError("update mapa", err)
	}
	return current, nil
}

// Delete detaches the map from its exercises and removes it.
func (s *MapService) Delete(ctx context.Context, id int64) error {
	err := db.WithTx(ctx, s.DB, "delete_mapa", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE exercicio SET id_mapa = NULL WHERE id_mapa = ?`), id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM mapa WHERE id = ?`), id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrNotFound(msgMapNotFound)
		}
		return nil
	})
	return txError("delete mapa", err)
}
