package httpapi

import (
	"net/http"

	"edutech-backend-go/internal/models"
)

type SubmitAnswerRequest struct {
	IDExercicio   int64 `json:"id_exercicio" validate:"required,gt=0"`
	IDAlternativa int64 `json:"id_alternativa" validate:"required,gt=0"`
}

type UpdateAnswerRequest struct {
	IDAlternativa int64 `json:"id_alternativa" validate:"required,gt=0"`
}

type AnswerResponse struct {
	Mensagem string          `json:"mensagem"`
	Resposta models.Resposta `json:"resposta"`
}

// SubmitAnswer always records the caller as the author; a client supplied
// id_usuario is ignored.
func (s *Server) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	session, _ := CurrentSession(r)
	var req SubmitAnswerRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.Answers.Submit(r.Context(), session.UserID, req.IDExercicio, req.IDAlternativa)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, AnswerResponse{Mensagem: "Resposta salva com sucesso.", Resposta: res})
}

func (s *Server) MyAnswers(w http.ResponseWriter, r *http.Request) {
	session, _ := CurrentSession(r)
	items, err := s.Answers.ListMine(r.Context(), session.UserID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *Server) AnswersByExercise(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items, err := s.Answers.ListByExercise(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *Server) UpdateAnswer(w http.ResponseWriter, r *http.Request) {
	session, _ := CurrentSession(r)
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req UpdateAnswerRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.Answers.Update(r.Context(), id, session.UserID, req.IDAlternativa)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, AnswerResponse{Mensagem: "Resposta atualizada com sucesso.", Resposta: res})
}

func (s *Server) DeleteAnswer(w http.ResponseWriter, r *http.Request) {
	session, _ := CurrentSession(r)
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.Answers.Delete(r.Context(), id, session.UserID, session.Role); err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Mensagem: "Resposta deletada com sucesso."})
}
