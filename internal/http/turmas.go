package httpapi

import (
	"net/http"

	"edutech-backend-go/internal/services"
)

type TurmaRequest struct {
	Nome string `json:"nome" validate:"required"`
}

type JoinRequest struct {
	CodigoConvite string `json:"codigo_convite" validate:"required"`
}

type RosterRequest struct {
	IDUsuario int64 `json:"id_usuario" validate:"required,gt=0"`
}

type CreateTurmaResponse struct {
	Mensagem      string `json:"mensagem"`
	ID            int64  `json:"id"`
	CodigoConvite string `json:"codigo_convite"`
}

type JoinResponse struct {
	Sucesso  bool   `json:"sucesso"`
	Mensagem string `json:"mensagem"`
	IDTurma  int64  `json:"id_turma,omitempty"`
	Erro     string `json:"erro,omitempty"`
}

// requireMember lets admins through and otherwise needs the caller on one of
// the turma's rosters.
func (s *Server) requireMember(r *http.Request, turmaID int64) error {
	session, _ := CurrentSession(r)
	if session.Role == services.RoleAdmin {
		return nil
	}
	member, err := s.Turmas.IsMember(r.Context(), turmaID, session.UserID)
	if err != nil {
		return err
	}
	if !member {
		return services.ErrForbidden("Você não participa desta turma.")
	}
	return nil
}

func (s *Server) requireTeacherOf(r *http.Request, turmaID int64) error {
	session, _ := CurrentSession(r)
	teaches := false
	if session.Role == services.RoleTeacher {
		var err error
		teaches, err = s.Turmas.Teaches(r.Context(), turmaID, session.UserID)
		if err != nil {
			return err
		}
	}
	if !services.CanManageTurma(session.Role, teaches) {
		return services.ErrForbidden("Apenas professores da turma podem gerenciá-la.")
	}
	return nil
}

func (s *Server) CreateTurma(w http.ResponseWriter, r *http.Request) {
	session, _ := CurrentSession(r)
	var req TurmaRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	turma, err := s.Turmas.Create(r.Context(), req.Nome, session.UserID, session.Role)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, CreateTurmaResponse{
		Mensagem:      "Turma criada com sucesso.",
		ID:            turma.ID,
		CodigoConvite: turma.CodigoConvite,
	})
}

func (s *Server) ListTurmas(w http.ResponseWriter, r *http.Request) {
	items, err := s.Turmas.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *Server) MyTurmas(w http.ResponseWriter, r *http.Request) {
	session, _ := CurrentSession(r)
	items, err := s.Turmas.ForUser(r.Context(), session.UserID, session.Role)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *Server) JoinTurma(w http.ResponseWriter, r *http.Request) {
	session, _ := CurrentSession(r)
	var req JoinRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.Turmas.Join(r.Context(), req.CodigoConvite, session.UserID, session.Role)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if !res.Sucesso() {
		status = http.StatusBadRequest
	}
	WriteJSON(w, status, JoinResponse{Sucesso: res.Sucesso(), Mensagem: res.Mensagem, IDTurma: res.IDTurma, Erro: res.Code()})
}

func (s *Server) GetTurma(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.requireMember(r, id); err != nil {
		s.fail(w, r, err)
		return
	}
	turma, err := s.Turmas.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, turma)
}

func (s *Server) UpdateTurma(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.requireTeacherOf(r, id); err != nil {
		s.fail(w, r, err)
		return
	}
	var req TurmaRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	turma, err := s.Turmas.Update(r.Context(), id, req.Nome)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"mensagem": "Turma atualizada com sucesso.", "turma": turma})
}

func (s *Server) DeleteTurma(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.requireTeacherOf(r, id); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.Turmas.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Mensagem: "Turma deletada com sucesso."})
}

func (s *Server) TurmaStudents(w http.ResponseWriter, r *http.Request) {
	s.roster(w, r, services.RoleStudent)
}

func (s *Server) TurmaTeachers(w http.ResponseWriter, r *http.Request) {
	s.roster(w, r, services.RoleTeacher)
}

func (s *Server) roster(w http.ResponseWriter, r *http.Request, role services.Role) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.requireMember(r, id); err != nil {
		s.fail(w, r, err)
		return
	}
	items, err := s.Turmas.Members(r.Context(), id, role)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *Server) AddStudent(w http.ResponseWriter, r *http.Request) {
	s.addMember(w, r, services.RoleStudent)
}

func (s *Server) AddTeacher(w http.ResponseWriter, r *http.Request) {
	s.addMember(w, r, services.RoleTeacher)
}

var rosterMessages = map[services.Role]struct {
	added, mismatch string
}{
	services.RoleStudent: {"Aluno adicionado à turma com sucesso.", "O usuário informado não é um aluno."},
	services.RoleTeacher: {"Professor adicionado à turma com sucesso.", "O usuário informado não é um professor."},
}

func (s *Server) addMember(w http.ResponseWriter, r *http.Request, role services.Role) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.requireTeacherOf(r, id); err != nil {
		s.fail(w, r, err)
		return
	}
	var req RosterRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	outcome, err := s.Turmas.AddMember(r.Context(), id, req.IDUsuario, role)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	msgs := rosterMessages[role]
	switch outcome {
	case services.RosterAdded:
		WriteJSON(w, http.StatusCreated, MessageResponse{Mensagem: msgs.added})
	case services.RosterAlreadyMember:
		WriteError(w, http.StatusBadRequest, "Usuário já está nesta turma.", services.CodeAlreadyMember)
	case services.RosterRoleMismatch:
		WriteError(w, http.StatusBadRequest, msgs.mismatch, services.CodeRoleNotEligible)
	default:
		WriteError(w, http.StatusNotFound, "Usuário não encontrado.", services.CodeNotFound)
	}
}

func (s *Server) RemoveStudent(w http.ResponseWriter, r *http.Request) {
	s.removeMember(w, r, services.RoleStudent, "Aluno removido da turma com sucesso.")
}

func (s *Server) RemoveTeacher(w http.ResponseWriter, r *http.Request) {
	s.removeMember(w, r, services.RoleTeacher, "Professor removido da turma com sucesso.")
}

func (s *Server) removeMember(w http.ResponseWriter, r *http.Request, role services.Role, msg string) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	userID, err := pathID(r, "id_usuario")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.requireTeacherOf(r, id); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.Turmas.RemoveMember(r.Context(), id, userID, role); err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Mensagem: msg})
}
