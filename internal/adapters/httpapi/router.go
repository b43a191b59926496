// Package httpapi exposes the agent's local REST control surface: status,
// dialing, answering and ending calls.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/verent/callsig/internal/config"
	"github.com/verent/callsig/internal/core"
	"github.com/verent/callsig/internal/domain"
)

// Controller is the slice of the signaling client the API drives.
type Controller interface {
	IsConnected() bool
	SessionID() string
	NewCall(callerName, callerNumber, destination string, callID uuid.UUID) (core.Call, error)
	Call(id uuid.UUID) (core.Call, bool)
	Calls() []core.Call
}

func AuthMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token != "" && c.GetHeader("Authorization") != "Bearer "+token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func SetupRouter(cfg *config.Config, ctrl Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	log.Info().Str("module", "adapters.httpapi").Int("port", cfg.APIPort).Msg("router setup")

	api := r.Group("/api", AuthMiddleware(cfg.APIToken))
	h := &handlers{ctrl: ctrl, callerName: cfg.CallerName, callerNumber: cfg.CallerNumber}

	api.GET("/status", h.status)
	api.GET("/calls", h.listCalls)
	api.POST("/calls", h.dial)
	api.POST("/calls/:id/answer", h.answer)
	api.POST("/calls/:id/hold", h.hold)
	api.POST("/calls/:id/unhold", h.unhold)
	api.DELETE("/calls/:id", h.hangup)

	return r
}

type handlers struct {
	ctrl         Controller
	callerName   string
	callerNumber string
}

type callDTO struct {
	ID           string `json:"id"`
	State        string `json:"state"`
	Direction    string `json:"direction"`
	CallerName   string `json:"caller_name"`
	CallerNumber string `json:"caller_number"`
	Destination  string `json:"destination,omitempty"`
}

func toDTO(c core.Call) callDTO {
	return callDTO{
		ID:           c.ID().String(),
		State:        c.State().String(),
		Direction:    string(c.Direction()),
		CallerName:   c.CallerName(),
		CallerNumber: c.CallerNumber(),
		Destination:  c.DestinationNumber(),
	}
}

func (h *handlers) status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connected":  h.ctrl.IsConnected(),
		"session_id": h.ctrl.SessionID(),
		"calls":      len(h.ctrl.Calls()),
	})
}

func (h *handlers) listCalls(c *gin.Context) {
	calls := h.ctrl.Calls()
	out := make([]callDTO, 0, len(calls))
	for _, call := range calls {
		out = append(out, toDTO(call))
	}
	c.JSON(http.StatusOK, out)
}

type dialRequest struct {
	Destination  string `json:"destination"`
	CallerName   string `json:"caller_name"`
	CallerNumber string `json:"caller_number"`
}

func (h *handlers) dial(c *gin.Context) {
	var req dialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	name := req.CallerName
	if name == "" {
		name = h.callerName
	}
	number := req.CallerNumber
	if number == "" {
		number = h.callerNumber
	}

	callID := uuid.New()
	call, err := h.ctrl.NewCall(name, number, req.Destination, callID)
	if err != nil {
		c.JSON(dialStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, toDTO(call))
}

func dialStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrDestinationRequired):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSessionRequired):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSocketNotConnected):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *handlers) withCall(c *gin.Context, fn func(core.Call) error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed call id"})
		return
	}
	call, ok := h.ctrl.Call(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such call"})
		return
	}
	if err := fn(call); err != nil {
		log.Error().Err(err).Str("module", "adapters.httpapi").Str("call_id", id.String()).Msg("call operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toDTO(call))
}

func (h *handlers) answer(c *gin.Context) {
	// Not the request context: the media session must outlive the request.
	h.withCall(c, func(call core.Call) error { return call.Answer(context.Background()) })
}

func (h *handlers) hold(c *gin.Context) {
	h.withCall(c, func(call core.Call) error { return call.Hold() })
}

func (h *handlers) unhold(c *gin.Context) {
	h.withCall(c, func(call core.Call) error { return call.Unhold() })
}

func (h *handlers) hangup(c *gin.Context) {
	h.withCall(c, func(call core.Call) error { return call.Hangup() })
}
