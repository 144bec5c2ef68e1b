package httpapi

import (
	"net/http"

	"edutech-backend-go/internal/services"
)

type ListRequest struct {
	Titulo     string  `json:"titulo" validate:"required"`
	Descricao  *string `json:"descricao"`
	Exercicios []int64 `json:"exercicios" validate:"required,min=1,dive,gt=0"`
	IDTurma    *int64  `json:"id_turma" validate:"omitempty,gt=0"`
}

func (req ListRequest) input() services.ListInput {
	return services.ListInput{
		Titulo:     req.Titulo,
		Descricao:  req.Descricao,
		Exercicios: req.Exercicios,
		IDTurma:    req.IDTurma,
	}
}

type AddExerciseRequest struct {
	IDExercicio int64 `json:"id_exercicio" validate:"required,gt=0"`
}

func (s *Server) CreateList(w http.ResponseWriter, r *http.Request) {
	var req ListRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := s.Lists.Create(r.Context(), req.input())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, MessageResponse{Mensagem: "Lista de exercícios criada com sucesso.", ID: id})
}

func (s *Server) ListLists(w http.ResponseWriter, r *http.Request) {
	turmaID, err := queryID(r, "id_turma")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items, err := s.Lists.List(r.Context(), turmaID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *Server) GetList(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	list, err := s.Lists.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, list)
}

func (s *Server) ListExercisesOfList(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items, err := s.Lists.Exercises(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *Server) UpdateList(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req ListRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.Lists.Update(r.Context(), id, req.input()); err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Mensagem: "Lista de exercícios atualizada com sucesso."})
}

func (s *Server) DeleteList(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.Lists.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Mensagem: "Lista de exercícios deletada com sucesso."})
}

func (s *Server) AddExerciseToList(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req AddExerciseRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.Lists.AddExercise(r.Context(), id, req.IDExercicio); err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, MessageResponse{Mensagem: "Exercício adicionado à lista com sucesso."})
}
