package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-workspace/internal/core"
	"github.com/vovakirdan/wirechat-workspace/internal/msgid"
)

// MessageHandlers provides HTTP handlers for the message lifecycle.
type MessageHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(hub *core.Hub, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		hub: hub,
		log: logger,
	}
}

// containerRef reads the :id path parameter of a channel or DM route.
func containerRef(c *gin.Context, kind msgid.Kind) (core.Ref, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + kind.String() + " id", Code: core.ErrCodeValidation})
		return core.Ref{}, false
	}
	return core.Ref{Kind: kind, ID: id}, true
}

// messageID reads the :id path parameter of a message route.
func messageID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid message id", Code: core.ErrCodeValidation})
		return 0, false
	}
	return id, true
}

func (h *MessageHandlers) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.log.Debug().Err(err).Str("path", c.FullPath()).Msg("invalid request body")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: core.ErrCodeValidation})
		return false
	}
	return true
}

// Send posts a message.
// POST /api/channels/:id/messages, POST /api/dms/:id/messages
func (h *MessageHandlers) Send(kind msgid.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref, ok := containerRef(c, kind)
		if !ok {
			return
		}
		var req SendRequest
		if !h.bind(c, &req) {
			return
		}

		id, err := h.hub.Send(c.Request.Context(), callerToken(c), ref, req.Message)
		if err != nil {
			writeError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, MessageIDResponse{MessageID: id})
	}
}

// SendLater schedules a message.
// POST /api/channels/:id/messages/later, POST /api/dms/:id/messages/later
func (h *MessageHandlers) SendLater(kind msgid.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref, ok := containerRef(c, kind)
		if !ok {
			return
		}
		var req SendLaterRequest
		if !h.bind(c, &req) {
			return
		}

		id, err := h.hub.SendLater(c.Request.Context(), callerToken(c), ref, req.Message, req.TimeSent)
		if err != nil {
			writeError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, MessageIDResponse{MessageID: id})
	}
}

// List returns a page of messages.
// GET /api/channels/:id/messages?start=N, GET /api/dms/:id/messages?start=N
func (h *MessageHandlers) List(kind msgid.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref, ok := containerRef(c, kind)
		if !ok {
			return
		}
		start, err := strconv.Atoi(c.DefaultQuery("start", "0"))
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid start", Code: core.ErrCodeValidation})
			return
		}

		page, err := h.hub.Messages(c.Request.Context(), callerToken(c), ref, start)
		if err != nil {
			writeError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, MessagesResponse{
			Messages: toMessageList(page.Messages),
			Start:    page.Start,
			End:      page.End,
		})
	}
}

// Share reposts a message into a channel or DM.
// POST /api/messages/:id/share
func (h *MessageHandlers) Share(c *gin.Context) {
	id, ok := messageID(c)
	if !ok {
		return
	}
	var req ShareRequest
	if !h.bind(c, &req) {
		return
	}

	shared, err := h.hub.Share(c.Request.Context(), callerToken(c), id, req.Message, destinationOf(req.ChannelID, req.DMID))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, ShareResponse{SharedMessageID: shared})
}

// Edit replaces a message body.
// PUT /api/messages/:id
func (h *MessageHandlers) Edit(c *gin.Context) {
	id, ok := messageID(c)
	if !ok {
		return
	}
	var req EditRequest
	if !h.bind(c, &req) {
		return
	}
	h.mutate(c, id, core.OpEdit{Body: req.Message})
}

// Remove deletes a message.
// DELETE /api/messages/:id
func (h *MessageHandlers) Remove(c *gin.Context) {
	if id, ok := messageID(c); ok {
		h.mutate(c, id, core.OpRemove{})
	}
}

// Pin pins a message.
// POST /api/messages/:id/pin
func (h *MessageHandlers) Pin(c *gin.Context) {
	if id, ok := messageID(c); ok {
		h.mutate(c, id, core.OpPin{})
	}
}

// Unpin unpins a message.
// POST /api/messages/:id/unpin
func (h *MessageHandlers) Unpin(c *gin.Context) {
	if id, ok := messageID(c); ok {
		h.mutate(c, id, core.OpUnpin{})
	}
}

// React reacts to a message.
// POST /api/messages/:id/react
func (h *MessageHandlers) React(c *gin.Context) {
	id, ok := messageID(c)
	if !ok {
		return
	}
	var req ReactRequest
	if !h.bind(c, &req) {
		return
	}
	h.mutate(c, id, core.OpReact{Kind: req.ReactID})
}

// Unreact withdraws a reaction.
// POST /api/messages/:id/unreact
func (h *MessageHandlers) Unreact(c *gin.Context) {
	id, ok := messageID(c)
	if !ok {
		return
	}
	var req ReactRequest
	if !h.bind(c, &req) {
		return
	}
	h.mutate(c, id, core.OpUnreact{Kind: req.ReactID})
}

func (h *MessageHandlers) mutate(c *gin.Context, id int64, m core.Mutation) {
	if err := h.hub.Mutate(c.Request.Context(), callerToken(c), id, m); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// Search finds messages in the caller's channels and DMs.
// GET /api/search?q=
func (h *MessageHandlers) Search(c *gin.Context) {
	found, err := h.hub.Search(c.Request.Context(), callerToken(c), c.Query("q"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, SearchResponse{Messages: toMessageList(found)})
}

// Notifications returns the caller's most recent notifications.
// GET /api/notifications
func (h *MessageHandlers) Notifications(c *gin.Context) {
	feed, err := h.hub.Notifications(c.Request.Context(), callerToken(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, NotificationsResponse{Notifications: toNotificationList(feed)})
}
