package httpapi

import (
	"net/http"

	"edutech-backend-go/internal/models"
	"edutech-backend-go/internal/services"
)

type MapRequest struct {
	Titulo    *string `json:"titulo"`
	Dica      *string `json:"dica"`
	Descricao *string `json:"descricao"`
	Caminho   *string `json:"caminho"`
}

func (req MapRequest) input() services.MapInput {
	return services.MapInput{Titulo: req.Titulo, Dica: req.Dica, Descricao: req.Descricao, Caminho: req.Caminho}
}

type MapResponse struct {
	Mensagem string      `json:"mensagem"`
	Mapa     models.Mapa `json:"mapa"`
}

func (s *Server) CreateMap(w http.ResponseWriter, r *http.Request) {
	var req MapRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	m, err := s.Maps.Create(r.Context(), req.input())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, MessageResponse{Mensagem: "Mapa criado com sucesso.", ID: m.ID})
}

func (s *Server) ListMaps(w http.ResponseWriter, r *http.Request) {
	items, err := s.Maps.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *Server) GetMap(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	m, err := s.Maps.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, m)
}

func (s *Server) UpdateMap(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req MapRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	m, err := s.Maps.Update(r.Context(), id, req.input())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MapResponse{Mensagem: "Mapa atualizado com sucesso.", Mapa: m})
}

func (s *Server) DeleteMap(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.Maps.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Mensagem: "Mapa deletado com sucesso."})
}
