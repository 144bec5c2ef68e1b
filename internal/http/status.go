package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"edutech-backend-go/internal/services"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		s.Log.Warn("health check failed", "error", err)
		WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "error", Database: "indisponível"})
		return
	}
	WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok", Database: "conectado"})
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.Config.CorsOrigins) == 0 {
		return true
	}
	for _, allowed := range s.Config.CorsOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// StatusSocket streams host samples to an admin. Browsers cannot set headers
// on websocket requests, so the token comes in the query string. The sampling
// loop belongs to the connection and stops when it closes.
func (s *Server) StatusSocket(w http.ResponseWriter, r *http.Request) {
	session, err := s.Tokens.ValidateSession(r.URL.Query().Get("token"))
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "Token inválido.", services.CodeUnauthorized)
		return
	}
	if revoked, err := s.Revoker.IsRevoked(r.Context(), session.TokenID); err != nil || revoked {
		WriteError(w, http.StatusUnauthorized, "Token inválido.", services.CodeUnauthorized)
		return
	}
	if !services.Authorize(session.Role, services.OpManageUsers) {
		WriteError(w, http.StatusForbidden, "Acesso negado.", services.CodeForbidden)
		return
	}
	upgrader := websocket.Upgrader{CheckOrigin: s.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	interval := time.Duration(s.Config.StatusSampleSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		sample := services.CaptureStatus(ctx, s.Config.StatusDiskPath)
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(sample); err != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
