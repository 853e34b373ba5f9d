package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-portal/internal/dto"
	"github.com/noah-isme/lms-portal/internal/middleware"
	"github.com/noah-isme/lms-portal/internal/service"
	"github.com/noah-isme/lms-portal/pkg/response"
)

type sessionEnder interface {
	End(token string) bool
}

// SessionHandler exposes the caller's own session.
type SessionHandler struct {
	sessions sessionEnder
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(sessions sessionEnder) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Get godoc
// @Summary Current session
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /session [get]
func (h *SessionHandler) Get(c *gin.Context) {
	ws, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, dto.SessionView{
		User:      service.Summary(ws.User()),
		ExpiresAt: ws.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Delete godoc
// @Summary Drop the session workspace
// @Tags Session
// @Success 204
// @Router /session [delete]
func (h *SessionHandler) Delete(c *gin.Context) {
	h.sessions.End(middleware.TokenFrom(c))
	response.NoContent(c)
}
