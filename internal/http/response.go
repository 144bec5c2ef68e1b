package httpapi

import (
	"encoding/json"
	"net/http"

	"edutech-backend-go/internal/services"
)

type ErrorResponse struct {
	Mensagem string `json:"mensagem"`
	Erro     string `json:"erro,omitempty"`
}

type MessageResponse struct {
	Mensagem string `json:"mensagem"`
	ID       int64  `json:"id,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message, code string) {
	WriteJSON(w, status, ErrorResponse{Mensagem: message, Erro: code})
}

// fail writes err as {mensagem, erro}. The underlying cause only reaches the
// log, together with the sanitized request body.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	serr, ok := services.AsServiceError(err)
	if !ok {
		serr = services.ServiceError{
			Status:  http.StatusInternalServerError,
			Code:    services.CodeInternal,
			Message: "Erro interno do servidor.",
			Err:     err,
		}
	}
	if serr.Status >= http.StatusInternalServerError {
		s.Log.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestID(r),
			"erro", serr.Code,
			"error", serr.Error(),
			"body", s.Log.SanitizeBody(requestBody(r)),
		)
	} else if serr.Err != nil {
		s.Log.Warn("request rejected",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestID(r),
			"erro", serr.Code,
			"error", serr.Error(),
		)
	}
	WriteError(w, serr.Status, serr.Message, serr.Code)
}
