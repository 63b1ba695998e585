package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-workspace/internal/core"
	"github.com/vovakirdan/wirechat-workspace/internal/msgid"
)

// StandupHandlers provides HTTP handlers for standups.
type StandupHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewStandupHandlers creates a new standup handlers instance.
func NewStandupHandlers(hub *core.Hub, logger *zerolog.Logger) *StandupHandlers {
	return &StandupHandlers{
		hub: hub,
		log: logger,
	}
}

// Start opens a standup.
// POST /api/channels/:id/standup, POST /api/dms/:id/standup
func (h *StandupHandlers) Start(kind msgid.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref, ok := containerRef(c, kind)
		if !ok {
			return
		}
		var req StandupStartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: core.ErrCodeValidation})
			return
		}

		deadline, err := h.hub.StartStandup(c.Request.Context(), callerToken(c), ref, req.Length)
		if err != nil {
			writeError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, StandupStartResponse{TimeFinish: deadline})
	}
}

// Send adds a line to the active standup.
// POST /api/channels/:id/standup/send, POST /api/dms/:id/standup/send
func (h *StandupHandlers) Send(kind msgid.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref, ok := containerRef(c, kind)
		if !ok {
			return
		}
		var req StandupSendRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: core.ErrCodeValidation})
			return
		}

		if err := h.hub.SendStandup(c.Request.Context(), callerToken(c), ref, req.Message); err != nil {
			writeError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{})
	}
}

// Active reports whether a standup is running.
// GET /api/channels/:id/standup, GET /api/dms/:id/standup
func (h *StandupHandlers) Active(kind msgid.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref, ok := containerRef(c, kind)
		if !ok {
			return
		}

		status, err := h.hub.StandupActive(c.Request.Context(), callerToken(c), ref)
		if err != nil {
			writeError(c, h.log, err)
			return
		}

		resp := StandupActiveResponse{IsActive: status.Active}
		if status.Active {
			deadline := status.Deadline
			resp.TimeFinish = &deadline
		}
		c.JSON(http.StatusOK, resp)
	}
}
