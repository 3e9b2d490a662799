// Package ws is the websocket transport: one persistent connection per
// client, JSON frames in, topic broadcasts out. Identity is bound at
// handshake time from the jwt cookie and re-attached to every frame's
// context before dispatch.
package ws

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"chatter-box/errors"
)

// Inbound destinations. A frame names the operation it requests; payload
// identity fields are never trusted, the connection's identity rules.
const (
	DestSendMessage   = "chat.sendMessage"
	DestEditMessage   = "chat.editMessage"
	DestDeleteMessage = "chat.deleteMessage"
	DestSubscribe     = "subscribe"
	DestUnsubscribe   = "unsubscribe"
)

var validate = validator.New()

// Frame is one inbound websocket message.
type Frame struct {
	Destination string          `json:"destination"`
	Body        json.RawMessage `json:"body"`
}

// Content carries no validation: empty messages are legal, and an absent
// field is indistinguishable from an empty one.
type SendBody struct {
	RoomID  int64  `json:"roomId" validate:"required"`
	Content string `json:"content"`
}

type EditBody struct {
	MessageID  int64  `json:"messageId" validate:"required"`
	NewContent string `json:"newContent"`
}

type DeleteBody struct {
	MessageID int64 `json:"messageId" validate:"required"`
}

type SubscribeBody struct {
	Topic string `json:"topic" validate:"required"`
}

// Broadcast is the outbound shape for topic fan-out.
type Broadcast struct {
	Topic   string `json:"topic"`
	Payload any    `json:"payload"`
}

// ErrorReply tells the requesting connection, and only it, why a frame was
// rejected.
type ErrorReply struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code        string `json:"code"`
	Destination string `json:"destination,omitempty"`
	Message     string `json:"message"`
}

// Receipt acknowledges a control frame (subscribe, unsubscribe).
type Receipt struct {
	Receipt string `json:"receipt"`
	Topic   string `json:"topic"`
}

// decodeBody unmarshals and validates a frame body. Both failure modes are
// reported as validation errors to the requester.
func decodeBody[T any](raw json.RawMessage) (T, error) {
	var body T
	if err := json.Unmarshal(raw, &body); err != nil {
		return body, fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	if err := validate.Struct(body); err != nil {
		return body, fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	return body, nil
}
