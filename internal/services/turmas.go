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

const msgTurmaNotFound = "Turma não encontrada."

type JoinOutcome int

const (
	JoinJoined JoinOutcome = iota
	JoinInvalidCode
	JoinRoleNotEligible
	JoinAlreadyMember
)

// JoinResult is what the frontend shows after an invite-code join.
type JoinResult struct {
	Outcome  JoinOutcome
	Mensagem string
	IDTurma  int64
}

func (r JoinResult) Sucesso() bool {
	return r.Outcome == JoinJoined
}

// Code is the machine-readable reason for a failed join.
func (r JoinResult) Code() string {
	switch r.Outcome {
	case JoinInvalidCode:
		return CodeInvalidCode
	case JoinRoleNotEligible:
		return CodeRoleNotEligible
	case JoinAlreadyMember:
		return CodeAlreadyMember
	}
	return ""
}

type RosterOutcome int

const (
	RosterAdded RosterOutcome = iota
	RosterAlreadyMember
	RosterRoleMismatch
	RosterUserNotFound
)

type TurmaService struct {
	DB      *sqlx.DB
	Invites InviteCodeGenerator
}

func rosterTable(role Role) (string, bool) {
	switch role {
	case RoleStudent:
		return "aluno_turma", true
	case RoleTeacher:
		return "professor_turma", true
	}
	return "", false
}

func codeExistsIn(tx *sqlx.Tx) CodeExists {
	return func(ctx context.Context, code string) (bool, error) {
		var exists bool
		err := tx.GetContext(ctx, &exists, tx.Rebind(`SELECT EXISTS(SELECT 1 FROM turma WHERE codigo_convite = ?)`), code)
		return exists, err
	}
}

// Create inserts the turma with a fresh invite code. A teacher creator is
// enrolled in the teacher roster in the same transaction.
func (s *TurmaService) Create(ctx context.Context, nome string, creatorID int64, creatorRole Role) (models.Turma, error) {
	nome = strings.TrimSpace(nome)
	if nome == "" {
		return models.Turma{}, ErrValidation("Nome da turma é obrigatório.")
	}
	turma := models.Turma{Nome: nome, CriadoEm: time.Now().UTC()}
	err := db.WithTx(ctx, s.DB, "create_turma", func(tx *sqlx.Tx) error {
		code, err := s.Invites.Generate(ctx, codeExistsIn(tx))
		if err != nil {
			return err
		}
		turma.CodigoConvite = code
		err = tx.GetContext(ctx, &turma.ID, tx.Rebind(`
INSERT INTO turma (nome, codigo_convite, criado_em) VALUES (?, ?, ?) RETURNING id
`), turma.Nome, turma.CodigoConvite, turma.CriadoEm)
		if err != nil {
			return err
		}
		if creatorRole != RoleTeacher {
			return nil
		}
		_, err = tx.ExecContext(ctx, tx.Rebind(`INSERT INTO professor_turma (id_turma, id_usuario) VALUES (?, ?)`), turma.ID, creatorID)
		return err
	})
	if err != nil {
		return models.Turma{}, txError("create turma", err)
	}
	return turma, nil
}

// Update renames the turma. The invite code never changes.
func (s *TurmaService) Update(ctx context.Context, id int64, nome string) (models.Turma, error) {
	nome = strings.TrimSpace(nome)
	if nome == "" {
		return models.Turma{}, ErrValidation("Nome da turma é obrigatório.")
	}
	res, err := s.DB.ExecContext(ctx, s.DB.Rebind(`UPDATE turma SET nome = ? WHERE id = ?`), nome, id)
	if err != nil {
		return models.Turma{}, storageError("update turma", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return models.Turma{}, storageError("update turma", err)
	} else if n == 0 {
		return models.Turma{}, ErrNotFound(msgTurmaNotFound)
	}
	var turma models.Turma
	err = s.DB.GetContext(ctx, &turma, s.DB.Rebind(`SELECT id, nome, codigo_convite, criado_em FROM turma WHERE id = ?`), id)
	return turma, storageError("load turma", err)
}

// Delete empties both rosters, detaches the turma's lists and removes the
// turma as one unit.
func (s *TurmaService) Delete(ctx context.Context, id int64) error {
	err := db.WithTx(ctx, s.DB, "delete_turma", func(tx *sqlx.Tx) error {
		for _, stmt := range []string{
			`DELETE FROM aluno_turma WHERE id_turma = ?`,
			`DELETE FROM professor_turma WHERE id_turma = ?`,
			`UPDATE lista SET id_turma = NULL WHERE id_turma = ?`,
		} {
			if _, err := tx.ExecContext(ctx, tx.Rebind(stmt), id); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM turma WHERE id = ?`), id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrNotFound(msgTurmaNotFound)
		}
		return nil
	})
	return txError("delete turma", err)
}

const turmaSummarySelect = `
SELECT t.id, t.nome, t.codigo_convite,
       COUNT(DISTINCT a.id_usuario) AS total_alunos,
       COUNT(DISTINCT p.id_usuario) AS total_professores,
       COUNT(DISTINCT l.id) AS total_listas
FROM turma t
LEFT JOIN aluno_turma a ON a.id_turma = t.id
LEFT JOIN professor_turma p ON p.id_turma = t.id
LEFT JOIN lista l ON l.id_turma = t.id
`

const turmaSummaryGroup = `GROUP BY t.id, t.nome, t.codigo_convite
ORDER BY t.nome`

func (s *TurmaService) Get(ctx context.Context, id int64) (models.TurmaSummary, error) {
	var out models.TurmaSummary
	err := s.DB.GetContext(ctx, &out, s.DB.Rebind(turmaSummarySelect+"WHERE t.id = ?\n"+turmaSummaryGroup), id)
	if errors.Is(err, sql.ErrNoRows) {
		return out, ErrNotFound(msgTurmaNotFound)
	}
	if err != nil {
		return out, storageError("load turma", err)
	}
	return out, nil
}

func (s *TurmaService) List(ctx context.Context) ([]models.TurmaSummary, error) {
	items := []models.TurmaSummary{}
	if err := s.DB.SelectContext(ctx, &items, turmaSummarySelect+turmaSummaryGroup); err != nil {
		return nil, storageError("list turmas", err)
	}
	return items, nil
}

// ForUser returns the caller's classes: the matching roster for students and
// teachers, every class for admins.
func (s *TurmaService) ForUser(ctx context.Context, userID int64, role Role) ([]models.TurmaSummary, error) {
	if role == RoleAdmin {
		return s.List(ctx)
	}
	table, ok := rosterTable(role)
	if !ok {
		return []models.TurmaSummary{}, nil
	}
	query := turmaSummarySelect +
		"WHERE t.id IN (SELECT id_turma FROM " + table + " WHERE id_usuario = ?)\n" +
		turmaSummaryGroup
	items := []models.TurmaSummary{}
	if err := s.DB.SelectContext(ctx, &items, s.DB.Rebind(query), userID); err != nil {
		return nil, storageError("list turmas of usuario", err)
	}
	return items, nil
}

func (s *TurmaService) inRoster(ctx context.Context, table string, turmaID, userID int64) (bool, error) {
	var exists bool
	err := s.DB.GetContext(ctx, &exists, s.DB.Rebind(`
SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id_turma = ? AND id_usuario = ?)
`), turmaID, userID)
	if err != nil {
		return false, storageError("check roster", err)
	}
	return exists, nil
}

// Teaches reports whether the user is on the turma's teacher roster.
func (s *TurmaService) Teaches(ctx context.Context, turmaID, userID int64) (bool, error) {
	return s.inRoster(ctx, "professor_turma", turmaID, userID)
}

// IsMember reports whether the user is on either roster of the turma.
func (s *TurmaService) IsMember(ctx context.Context, turmaID, userID int64) (bool, error) {
	teaches, err := s.Teaches(ctx, turmaID, userID)
	if err != nil || teaches {
		return teaches, err
	}
	return s.inRoster(ctx, "aluno_turma", turmaID, userID)
}

// Join enrolls the caller through an invite code. Rejections come back as a
// JoinResult, not an error; errors are reserved for storage failures.
func (s *TurmaService) Join(ctx context.Context, code string, userID int64, role Role) (JoinResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return JoinResult{}, ErrValidation("Código de convite é obrigatório.")
	}
	var result JoinResult
	err := db.WithTx(ctx, s.DB, "join_turma", func(tx *sqlx.Tx) error {
		var turmaID int64
		err := tx.GetContext(ctx, &turmaID, tx.Rebind(`SELECT id FROM turma WHERE codigo_convite = ?`), code)
		if errors.Is(err, sql.ErrNoRows) {
			result = JoinResult{Outcome: JoinInvalidCode, Mensagem: "Código de convite inválido."}
			return nil
		}
		if err != nil {
			return err
		}
		table, ok := rosterTable(role)
		if !ok || !Authorize(role, OpJoinTurma) {
			result = JoinResult{Outcome: JoinRoleNotEligible, Mensagem: "Apenas alunos e professores podem entrar em turmas.", IDTurma: turmaID}
			return nil
		}
		var exists bool
		err = tx.GetContext(ctx, &exists, tx.Rebind(`
SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id_turma = ? AND id_usuario = ?)
`), turmaID, userID)
		if err != nil {
			return err
		}
		if exists {
			result = alreadyInTurma(turmaID)
			return nil
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO `+table+` (id_turma, id_usuario) VALUES (?, ?)`), turmaID, userID); err != nil {
			return err
		}
		result = JoinResult{Outcome: JoinJoined, Mensagem: "Entrada na turma realizada com sucesso!", IDTurma: turmaID}
		return nil
	})
	if err != nil {
		if db.Classify(err) == db.KindUniqueViolation {
			return alreadyInTurma(result.IDTurma), nil
		}
		return JoinResult{}, txError("join turma", err)
	}
	return result, nil
}

func alreadyInTurma(turmaID int64) JoinResult {
	return JoinResult{Outcome: JoinAlreadyMember, Mensagem: "Você já está nesta turma.", IDTurma: turmaID}
}

// AddMember puts a user on the roster for roster. The user's stored role must
// match the roster; a repeated add writes nothing.
func (s *TurmaService) AddMember(ctx context.Context, turmaID, userID int64, roster Role) (RosterOutcome, error) {
	table, ok := rosterTable(roster)
	if !ok {
		return RosterRoleMismatch, nil
	}
	var outcome RosterOutcome
	err := db.WithTx(ctx, s.DB, "add_roster_member", func(tx *sqlx.Tx) error {
		var turmaExists bool
		if err := tx.GetContext(ctx, &turmaExists, tx.Rebind(`SELECT EXISTS(SELECT 1 FROM turma WHERE id = ?)`), turmaID); err != nil {
			return err
		}
		if !turmaExists {
			return ErrNotFound(msgTurmaNotFound)
		}
		var tipo string
		err := tx.GetContext(ctx, &tipo, tx.Rebind(`SELECT tipo FROM usuario WHERE id = ?`), userID)
		if errors.Is(err, sql.ErrNoRows) {
			outcome = RosterUserNotFound
			return nil
		}
		if err != nil {
			return err
		}
		if Role(tipo) != roster {
			outcome = RosterRoleMismatch
			return nil
		}
		var exists bool
		err = tx.GetContext(ctx, &exists, tx.Rebind(`
SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id_turma = ? AND id_usuario = ?)
`), turmaID, userID)
		if err != nil {
			return err
		}
		if exists {
			outcome = RosterAlreadyMember
			return nil
		}
		_, err = tx.ExecContext(ctx, tx.Rebind(`INSERT INTO `+table+` (id_turma, id_usuario) VALUES (?, ?)`), turmaID, userID)
		outcome = RosterAdded
		return err
	})
	if err != nil {
		if db.Classify(err) == db.KindUniqueViolation {
			return RosterAlreadyMember, nil
		}
		return 0, txError("add roster member", err)
	}
	return outcome, nil
}

func (s *TurmaService) RemoveMember(ctx context.Context, turmaID, userID int64, roster Role) error {
	table, ok := rosterTable(roster)
	if !ok {
		return ErrValidation("Tipo de participante inválido.")
	}
	res, err := s.DB.ExecContext(ctx, s.DB.Rebind(`DELETE FROM `+table+` WHERE id_turma = ? AND id_usuario = ?`), turmaID, userID)
	if err != nil {
		return storageError("remove roster member", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageError("remove roster member", err)
	}
	if n == 0 {
		if roster == RoleStudent {
			return ErrNotFound("Aluno não encontrado na turma.")
		}
		return ErrNotFound("Professor não encontrado na turma.")
	}
	return nil
}

func (s *TurmaService) Members(ctx context.Context, turmaID int64, roster Role) ([]models.RosterMember, error) {
	table, ok := rosterTable(roster)
	if !ok {
		return nil, ErrValidation("Tipo de participante inválido.")
	}
	items := []models.RosterMember{}
	err := s.DB.SelectContext(ctx, &items, s.DB.Rebind(`
SELECT u.id, u.nome, u.email, u.tipo
FROM usuario u
JOIN `+table+` r ON r.id_usuario = u.id
WHERE r.id_turma = ?
ORDER BY u.nome
`), turmaID)
	if err != nil {
		return nil, storageError("list roster", err)
	}
	return items, nil
}
