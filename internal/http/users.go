package httpapi

import (
	"net/http"
	"time"

	"edutech-backend-go/internal/models"
	"edutech-backend-go/internal/services"
)

type RegisterRequest struct {
	Nome  string `json:"nome"`
	Email string `json:"email" validate:"omitempty,email"`
	Senha string `json:"senha"`
	Tipo  string `json:"tipo" validate:"omitempty,oneof=aluno professor"`
}

type LoginRequest struct {
	Email string `json:"email"`
	Senha string `json:"senha"`
}

type UpdateProfileRequest struct {
	Nome  *string `json:"nome"`
	Email *string `json:"email" validate:"omitempty,email"`
}

type ChangePasswordRequest struct {
	SenhaAtual string `json:"senha_atual" validate:"required"`
	NovaSenha  string `json:"nova_senha" validate:"required"`
}

// UserDTO is the public shape of a user; the password hash never leaves the
// service layer.
type UserDTO struct {
	ID       int64      `json:"id"`
	Nome     string     `json:"nome"`
	Email    string     `json:"email"`
	Tipo     string     `json:"tipo"`
	CriadoEm *time.Time `json:"criado_em,omitempty"`
}

type LoginResponse struct {
	Mensagem string  `json:"mensagem"`
	Usuario  UserDTO `json:"usuario"`
	Token    string  `json:"token"`
}

type ProfileResponse struct {
	Mensagem string  `json:"mensagem"`
	Usuario  UserDTO `json:"usuario"`
}

func toUserDTO(u models.User) UserDTO {
	created := u.CriadoEm
	return UserDTO{ID: u.ID, Nome: u.Nome, Email: u.Email, Tipo: u.Tipo, CriadoEm: &created}
}

// Register is public signup. Admin accounts are only created from the CLI.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := s.Users.Register(r.Context(), services.RegisterInput{
		Nome:  req.Nome,
		Email: req.Email,
		Senha: req.Senha,
		Tipo:  services.Role(req.Tipo),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, MessageResponse{Mensagem: "Usuário cadastrado com sucesso.", ID: id})
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.Users.Login(r.Context(), req.Email, req.Senha)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, LoginResponse{
		Mensagem: "Login realizado com sucesso.",
		Usuario:  UserDTO{ID: res.User.ID, Nome: res.User.Nome, Email: res.User.Email, Tipo: res.User.Tipo},
		Token:    res.Token,
	})
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := CurrentSession(r)
	if err := s.Revoker.Revoke(r.Context(), session.TokenID, session.ExpiresAt); err != nil {
		s.Log.Error("revoke token failed", "error", err, "jti", session.TokenID)
		WriteError(w, http.StatusServiceUnavailable, "Serviço de sessão indisponível.", services.CodeUnavailable)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Mensagem: "Logout realizado com sucesso."})
}

func (s *Server) Profile(w http.ResponseWriter, r *http.Request) {
	session, _ := CurrentSession(r)
	user, err := s.Users.Get(r.Context(), session.UserID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toUserDTO(user))
}

func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	session, _ := CurrentSession(r)
	var req UpdateProfileRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	user, err := s.Users.UpdateProfile(r.Context(), session.UserID, services.ProfileInput{Nome: req.Nome, Email: req.Email})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, ProfileResponse{Mensagem: "Perfil atualizado com sucesso.", Usuario: toUserDTO(user)})
}

func (s *Server) ChangePassword(w http.ResponseWriter, r *http.Request) {
	session, _ := CurrentSession(r)
	var req ChangePasswordRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.Users.ChangePassword(r.Context(), session.UserID, req.SenhaAtual, req.NovaSenha); err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Mensagem: "Senha alterada com sucesso."})
}

func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.Users.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items := make([]UserDTO, 0, len(users))
	for _, u := range users {
		items = append(items, toUserDTO(u))
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.Users.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Mensagem: "Usuário deletado com sucesso."})
}
