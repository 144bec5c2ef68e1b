package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"edutech-backend-go/internal/services"
)

func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	row, err := s.Reports.Dashboard(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, row)
}

// ReportView serves any whitelisted reporting view by name, applying the
// view's own filter parameter from the query string.
func (s *Server) ReportView(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "nome")
	rows, err := s.Reports.View(r.Context(), name, reportFilter(r, name))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, rows)
}

func (s *Server) TurmaStatistics(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	stats, err := s.Reports.TurmaStatistics(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

func (s *Server) DifficultyDistribution(w http.ResponseWriter, r *http.Request) {
	items, err := s.Reports.DifficultyDistribution(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *Server) TopMaps(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limite"), 10)
	if limit > 100 {
		limit = 100
	}
	items, err := s.Reports.TopMaps(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *Server) ExportReport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "nome")
	f, err := s.Reports.Export(r.Context(), name, reportFilter(r, name))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer f.Close()

	fileName := fmt.Sprintf("relatorio_%s_%s.xlsx", name, time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+fileName)
	if err := f.Write(w); err != nil {
		s.Log.Error("write export failed", "report", name, "error", err)
	}
}

func reportFilter(r *http.Request, name string) string {
	if param := services.FilterParam(name); param != "" {
		return r.URL.Query().Get(param)
	}
	return ""
}
