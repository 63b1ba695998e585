package http

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// SendRequest is the body of an immediate send.
type SendRequest struct {
	Message string `json:"message"`
}

// SendLaterRequest is the body of a deferred send.
type SendLaterRequest struct {
	Message  string `json:"message"`
	TimeSent int64  `json:"time_sent" binding:"required"`
}

// ShareRequest is the body of a share. Exactly one of ChannelID and DMID
// must be given; -1 also counts as absent.
type ShareRequest struct {
	Message   string `json:"message"`
	ChannelID *int64 `json:"channel_id"`
	DMID      *int64 `json:"dm_id"`
}

// EditRequest is the body of an edit. An empty message removes it.
type EditRequest struct {
	Message string `json:"message"`
}

// ReactRequest is the body of react and unreact.
type ReactRequest struct {
	ReactID int `json:"react_id"`
}

// StandupStartRequest is the body of a standup start.
type StandupStartRequest struct {
	Length int64 `json:"length"`
}

// StandupSendRequest is the body of a standup line.
type StandupSendRequest struct {
	Message string `json:"message"`
}

// MessageIDResponse carries the id of a created message.
type MessageIDResponse struct {
	MessageID int64 `json:"message_id"`
}

// ShareResponse carries the id of a shared message.
type ShareResponse struct {
	SharedMessageID int64 `json:"shared_message_id"`
}

// ReactResponse is a reaction in API responses.
type ReactResponse struct {
	ReactID           int     `json:"react_id"`
	UserIDs           []int64 `json:"u_ids"`
	IsThisUserReacted bool    `json:"is_this_user_reacted"`
}

// MessageResponse is a message in API responses.
type MessageResponse struct {
	MessageID int64           `json:"message_id"`
	UserID    int64           `json:"u_id"`
	Message   string          `json:"message"`
	TimeSent  int64           `json:"time_sent"`
	IsPinned  bool            `json:"is_pinned"`
	Reacts    []ReactResponse `json:"reacts"`
}

// MessagesResponse is a page of messages.
type MessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
	Start    int               `json:"start"`
	End      int               `json:"end"`
}

// SearchResponse lists matching messages.
type SearchResponse struct {
	Messages []MessageResponse `json:"messages"`
}

// NotificationResponse is a feed entry.
type NotificationResponse struct {
	ChannelID           int64  `json:"channel_id"`
	DMID                int64  `json:"dm_id"`
	NotificationMessage string `json:"notification_message"`
}

// NotificationsResponse is the caller's notification feed.
type NotificationsResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
}

// StandupStartResponse carries the standup deadline.
type StandupStartResponse struct {
	TimeFinish int64 `json:"time_finish"`
}

// StandupActiveResponse reports the standup state.
type StandupActiveResponse struct {
	IsActive   bool   `json:"is_active"`
	TimeFinish *int64 `json:"time_finish"`
}
