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

const (
	msgUserNotFound       = "Usuário não encontrado."
	msgInvalidCredentials = "Email ou senha inválidos."
	minPasswordLength     = 6
)

type UserService struct {
	DB     *sqlx.DB
	Tokens TokenService
}

type RegisterInput struct {
	Nome  string
	Email string
	Senha string
	Tipo  Role
}

type ProfileInput struct {
	Nome  *string
	Email *string
}

type LoginResult struct {
	User      models.User
	Token     string
	ExpiresAt time.Time
}

const userColumns = `id, nome, email, senha, tipo, criado_em`

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user and returns its id. The email is checked up front
// and the unique index on usuario.email catches concurrent signups.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (int64, error) {
	nome := strings.TrimSpace(in.Nome)
	email := normalizeEmail(in.Email)
	if nome == "" || email == "" || in.Senha == "" {
		return 0, ErrValidation("Nome, email e senha são obrigatórios.")
	}
	if len(in.Senha) < minPasswordLength {
		return 0, ErrValidation("A senha deve ter pelo menos 6 caracteres.")
	}
	role := in.Tipo
	if role == "" {
		role = RoleStudent
	}
	if _, ok := ParseRole(string(role)); !ok {
		return 0, ErrValidation("Tipo de usuário inválido.")
	}

	taken, err := s.emailTaken(ctx, email, 0)
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, ErrDuplicateEmail()
	}
	hash, err := s.Tokens.HashPassword(in.Senha)
	if err != nil {
		return 0, storageError("hash password", err)
	}
	var id int64
	err = s.DB.GetContext(ctx, &id, s.DB.Rebind(`
INSERT INTO usuario (nome, email, senha, tipo, criado_em)
VALUES (?, ?, ?, ?, ?)
RETURNING id
`), nome, email, hash, string(role), time.Now().UTC())
	if err != nil {
		if db.Classify(err) == db.KindUniqueViolation {
			return 0, ErrDuplicateEmail()
		}
		return 0, storageError("insert usuario", err)
	}
	return id, nil
}

func (s *UserService) emailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	var exists bool
	err := s.DB.GetContext(ctx, &exists, s.DB.Rebind(`
SELECT EXISTS(SELECT 1 FROM usuario WHERE email = ? AND id <> ?)
`), email, exceptID)
	if err != nil {
		return false, storageError("check email", err)
	}
	return exists, nil
}

// Authenticate returns the same error for an unknown email and a wrong
// password.
func (s *UserService) Authenticate(ctx context.Context, email, senha string) (models.User, error) {
	var user models.User
	err := s.DB.GetContext(ctx, &user, s.DB.Rebind(`SELECT `+userColumns+` FROM usuario WHERE email = ?`), normalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		s.Tokens.burnPasswordCheck(senha)
		return models.User{}, ErrUnauthorized(msgInvalidCredentials)
	}
	if err != nil {
		return models.User{}, storageError("load usuario", err)
	}
	if !s.Tokens.VerifyPassword(senha, user.Senha) {
		return models.User{}, ErrUnauthorized(msgInvalidCredentials)
	}
	return user, nil
}

func (s *UserService) Login(ctx context.Context, email, senha string) (LoginResult, error) {
	if strings.TrimSpace(email) == "" || senha == "" {
		return LoginResult{}, ErrValidation("Email e senha são obrigatórios.")
	}
	user, err := s.Authenticate(ctx, email, senha)
	if err != nil {
		return LoginResult{}, err
	}
	token, exp, err := s.Tokens.IssueSession(user.ID, user.Email, Role(user.Tipo))
	if err != nil {
		return LoginResult{}, storageError("sign token", err)
	}
	return LoginResult{User: user, Token: token, ExpiresAt: exp}, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (models.User, error) {
	var user models.User
	err := s.DB.GetContext(ctx, &user, s.DB.Rebind(`SELECT `+userColumns+` FROM usuario WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound(msgUserNotFound)
	}
	if err != nil {
		return models.User{}, storageError("load usuario", err)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := s.DB.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM usuario ORDER BY nome`)
	if err != nil {
		return nil, storageError("list usuarios", err)
	}
	return users, nil
}

// UpdateProfile changes name and/or email. Absent fields keep their value.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, in ProfileInput) (models.User, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	nome := current.Nome
	email := current.Email
	if in.Nome != nil {
		nome = strings.TrimSpace(*in.Nome)
		if nome == "" {
			return models.User{}, ErrValidation("Nome não pode ser vazio.")
		}
	}
	if in.Email != nil {
		email = normalizeEmail(*in.Email)
		if email == "" {
			return models.User{}, ErrValidation("Email não pode ser vazio.")
		}
		taken, err := s.emailTaken(ctx, email, id)
		if err != nil {
			return models.User{}, err
		}
		if taken {
			return models.User{}, ErrDuplicateEmail()
		}
	}
	_, err = s.DB.ExecContext(ctx, s.DB.Rebind(`UPDATE usuario SET nome = ?, email = ? WHERE id = ?`), nome, email, id)
	if err != nil {
		if db.Classify(err) == db.KindUniqueViolation {
			return models.User{}, ErrDuplicateEmail()
		}
		return models.User{}, storageError("update usuario", err)
	}
	current.Nome = nome
	current.Email = email
	return current, nil
}

func (s *UserService) ChangePassword(ctx context.Context, id int64, atual, nova string) error {
	if len(nova) < minPasswordLength {
		return ErrValidation("A nova senha deve ter pelo menos 6 caracteres.")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !s.Tokens.VerifyPassword(atual, user.Senha) {
		return ErrValidation("Senha atual incorreta.")
	}
	hash, err := s.Tokens.HashPassword(nova)
	if err != nil {
		return storageError("hash password", err)
	}
	_, err = s.DB.ExecContext(ctx, s.DB.Rebind(`UPDATE usuario SET senha = ? WHERE id = ?`), hash, id)
	return storageError("update senha", err)
}

// Delete removes the user together with roster rows and answers.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	err := db.WithTx(ctx, s.DB, "delete_usuario", func(tx *sqlx.Tx) error {
		var exists bool
		if err := tx.GetContext(ctx, &exists, tx.Rebind(`SELECT EXISTS(SELECT 1 FROM usuario WHERE id = ?)`), id); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound(msgUserNotFound)
		}
		for _, stmt := range []string{
			`DELETE FROM resposta WHERE id_usuario = ?`,
			`DELETE FROM aluno_turma WHERE id_usuario = ?`,
			`DELETE FROM professor_turma WHERE id_usuario = ?`,
			`DELETE FROM usuario WHERE id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, tx.Rebind(stmt), id); err != nil {
				return err
			}
		}
		return nil
	})
	return txError("delete usuario", err)
}
