package httpapi

import (
	"net/http"

	"edutech-backend-go/internal/models"
	"edutech-backend-go/internal/services"
)

type AlternativaRequest struct {
	Descricao string `json:"descricao" validate:"required"`
	Correta   bool   `json:"correta"`
}

type ExerciseRequest struct {
	Titulo       string               `json:"titulo" validate:"required"`
	Enunciado    string               `json:"enunciado" validate:"required"`
	Dificuldade  int                  `json:"dificuldade" validate:"required,min=1,max=10"`
	IDMapa       *int64               `json:"id_mapa" validate:"omitempty,gt=0"`
	Alternativas []AlternativaRequest `json:"alternativas" validate:"required,min=1,dive"`
	IDTurma      *int64               `json:"id_turma" validate:"omitempty,gt=0"`
}

func (req ExerciseRequest) input() services.ExerciseInput {
	alts := make([]services.AlternativaInput, 0, len(req.Alternativas))
	for _, a := range req.Alternativas {
		alts = append(alts, services.AlternativaInput{Descricao: a.Descricao, Correta: a.Correta})
	}
	return services.ExerciseInput{
		Titulo:       req.Titulo,
		Enunciado:    req.Enunciado,
		Dificuldade:  req.Dificuldade,
		IDMapa:       req.IDMapa,
		Alternativas: alts,
		IDTurma:      req.IDTurma,
	}
}

type ExerciseResponse struct {
	Mensagem  string           `json:"mensagem"`
	Exercicio models.Exercicio `json:"exercicio"`
}

// AlternativaDTO omits correta when nil so students never see the answer key.
type AlternativaDTO struct {
	ID          int64  `json:"id"`
	IDExercicio int64  `json:"id_exercicio"`
	Descricao   string `json:"descricao"`
	Correta     *bool  `json:"correta,omitempty"`
}

type ExerciseDetailDTO struct {
	models.Exercicio
	Alternativas []AlternativaDTO `json:"alternativas"`
}

func toExerciseDetail(ex models.ExercicioCompleto, role services.Role) ExerciseDetailDTO {
	alts := make([]AlternativaDTO, 0, len(ex.Alternativas))
	for _, a := range ex.Alternativas {
		dto := AlternativaDTO{ID: a.ID, IDExercicio: a.IDExercicio, Descricao: a.Descricao}
		if role != services.RoleStudent {
			correta := a.Correta
			dto.Correta = &correta
		}
		alts = append(alts, dto)
	}
	return ExerciseDetailDTO{Exercicio: ex.Exercicio, Alternativas: alts}
}

func (s *Server) CreateExercise(w http.ResponseWriter, r *http.Request) {
	var req ExerciseRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	ex, err := s.Exercises.Create(r.Context(), req.input())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, ExerciseResponse{Mensagem: "Exercício criado com sucesso.", Exercicio: ex})
}

func (s *Server) ListExercises(w http.ResponseWriter, r *http.Request) {
	items, err := s.Exercises.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *Server) GetExercise(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ex, err := s.Exercises.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	session, _ := CurrentSession(r)
	WriteJSON(w, http.StatusOK, toExerciseDetail(ex, session.Role))
}

func (s *Server) ExercisesByTurma(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items, err := s.Exercises.ListByTurma(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *Server) UpdateExercise(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req ExerciseRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	ex, err := s.Exercises.Update(r.Context(), id, req.input())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, ExerciseResponse{Mensagem: "Exercício atualizado com sucesso.", Exercicio: ex})
}

func (s *Server) DeleteExercise(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.Exercises.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Mensagem: "Exercício deletado com sucesso."})
}
