package events

import (
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/helpers"
	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
	"github.com/pkg/errors"
)

const (
	DefaultInboundTopic  = "grillo.inbound"
	DefaultOutboundTopic = "grillo.outbound"
)

// InboundMessage is a prompt a host received from one of its users.
type InboundMessage struct {
	SenderID string `json:"sender_id"`
	Prompt   string `json:"prompt"`
}

// OutboundMessage is the answer to an InboundMessage. Error is set instead of Reply
// when the turn failed.
type OutboundMessage struct {
	SenderID       string     `json:"sender_id"`
	Reply          string     `json:"reply,omitempty"`
	ConversationID string     `json:"conversation_id,omitempty"`
	MessageID      string     `json:"message_id,omitempty"`
	Mode           types.Mode `json:"mode,omitempty"`
	Error          string     `json:"error,omitempty"`
}

func NewOutboundMessage(senderID string, resp *conversation.ChatResponse, err error) *OutboundMessage {
	ret := &OutboundMessage{SenderID: senderID}
	if err != nil {
		ret.Error = err.Error()
		return ret
	}
	ret.Reply = resp.Message
	ret.ConversationID = resp.ConversationID
	ret.MessageID = resp.MessageID
	ret.Mode = resp.Mode
	return ret
}

// toWatermill serializes v into a new message carrying correlationID.
func toWatermill(v interface{}, correlationID string) (*message.Message, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	msg := message.NewMessage(watermill.NewUUID(), b)
	if correlationID != "" {
		msg.Metadata.Set(helpers.CorrelationIDMetadataKey, correlationID)
	}
	return msg, nil
}

func ParseInbound(msg *message.Message) (*InboundMessage, error) {
	ret := &InboundMessage{}
	if err := json.Unmarshal(msg.Payload, ret); err != nil {
		return nil, errors.Wrap(err, "could not parse inbound message")
	}
	if ret.SenderID == "" {
		return nil, errors.New("inbound message without sender_id")
	}
	return ret, nil
}

func ParseOutbound(msg *message.Message) (*OutboundMessage, error) {
	ret := &OutboundMessage{}
	if err := json.Unmarshal(msg.Payload, ret); err != nil {
		return nil, errors.Wrap(err, "could not parse outbound message")
	}
	return ret, nil
}
