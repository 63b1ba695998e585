package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-workspace/internal/core"
	"github.com/vovakirdan/wirechat-workspace/internal/store"
)

// statusOf maps a core error kind to an HTTP status code.
func statusOf(err error) int {
	switch {
	case errors.Is(err, core.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, core.ErrState):
		return http.StatusConflict
	case errors.Is(err, core.ErrHubStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, logger *zerolog.Logger, err error) {
	status := statusOf(err)

	var ce *core.CoreError
	if errors.As(err, &ce) {
		c.JSON(status, ErrorResponse{Error: ce.Message, Code: ce.Code})
		return
	}

	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(status, ErrorResponse{Error: "internal server error", Code: "internal"})
		return
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: "unavailable"})
}

func toMessageResponse(v core.MessageView) MessageResponse {
	reacts := make([]ReactResponse, 0, len(v.Reacts))
	for _, r := range v.Reacts {
		reacts = append(reacts, ReactResponse{
			ReactID:           r.Kind,
			UserIDs:           r.UserIDs,
			IsThisUserReacted: r.ByCaller,
		})
	}
	return MessageResponse{
		MessageID: v.ID,
		UserID:    v.AuthorID,
		Message:   v.Body,
		TimeSent:  v.SentAt,
		IsPinned:  v.Pinned,
		Reacts:    reacts,
	}
}

func toMessageList(views []core.MessageView) []MessageResponse {
	out := make([]MessageResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toMessageResponse(v))
	}
	return out
}

func toNotificationList(feed []store.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(feed))
	for _, n := range feed {
		out = append(out, NotificationResponse{
			ChannelID:           n.ChannelID,
			DMID:                n.DMID,
			NotificationMessage: n.Text,
		})
	}
	return out
}

// destinationOf turns optional request ids into a core destination.
func destinationOf(channelID, dmID *int64) core.Destination {
	dest := core.Destination{ChannelID: store.NoContainer, DMID: store.NoContainer}
	if channelID != nil {
		dest.ChannelID = *channelID
	}
	if dmID != nil {
		dest.DMID = *dmID
	}
	return dest
}
