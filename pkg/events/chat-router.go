package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/helpers"
	"github.com/rs/zerolog/log"
)

// Dispatcher runs one chat turn for a sender.
type Dispatcher interface {
	Dispatch(ctx context.Context, senderID string, prompt string) (*conversation.ChatResponse, error)
}

// ChatRouter connects a host message bus to a dispatcher: prompts arrive on the
// inbound topic, answers leave on the outbound topic with the correlation id of the
// prompt.
type ChatRouter struct {
	logger        watermill.LoggerAdapter
	Publisher     message.Publisher
	Subscriber    message.Subscriber
	router        *message.Router
	dispatcher    Dispatcher
	inboundTopic  string
	outboundTopic string
}

type ChatRouterOption func(*ChatRouter)

func WithLogger(logger watermill.LoggerAdapter) ChatRouterOption {
	return func(r *ChatRouter) {
		r.logger = logger
	}
}

// WithVerbose routes watermill logs through zerolog.
func WithVerbose(verbose bool) ChatRouterOption {
	return func(r *ChatRouter) {
		if verbose {
			r.logger = helpers.NewWatermill(log.Logger)
		}
	}
}

// WithPubSub replaces the in-process gochannel with an external bus.
func WithPubSub(publisher message.Publisher, subscriber message.Subscriber) ChatRouterOption {
	return func(r *ChatRouter) {
		r.Publisher = publisher
		r.Subscriber = subscriber
	}
}

func WithTopics(inbound string, outbound string) ChatRouterOption {
	return func(r *ChatRouter) {
		r.inboundTopic = inbound
		r.outboundTopic = outbound
	}
}

func NewChatRouter(dispatcher Dispatcher, options ...ChatRouterOption) (*ChatRouter, error) {
	ret := &ChatRouter{
		logger:        watermill.NopLogger{},
		dispatcher:    dispatcher,
		inboundTopic:  DefaultInboundTopic,
		outboundTopic: DefaultOutboundTopic,
	}

	for _, o := range options {
		o(ret)
	}

	if ret.Publisher == nil || ret.Subscriber == nil {
		goPubSub := gochannel.NewGoChannel(gochannel.Config{
			BlockPublishUntilSubscriberAck: true,
		}, ret.logger)
		ret.Publisher = goPubSub
		ret.Subscriber = goPubSub
	}

	router, err := message.NewRouter(message.RouterConfig{}, ret.logger)
	if err != nil {
		return nil, err
	}
	router.AddHandler(
		"chat",
		ret.inboundTopic,
		ret.Subscriber,
		ret.outboundTopic,
		helpers.CorrelationPublisherDecorator{Publisher: ret.Publisher},
		ret.handleInbound,
	)
	ret.router = router

	return ret, nil
}

func (r *ChatRouter) handleInbound(msg *message.Message) ([]*message.Message, error) {
	correlationID := msg.Metadata.Get(helpers.CorrelationIDMetadataKey)
	ctx := helpers.ContextWithCorrelationID(msg.Context(), correlationID)

	in, err := ParseInbound(msg)
	if err != nil {
		// a malformed prompt is dropped, retrying it would fail the same way
		log.Error().Err(err).Str("message_uuid", msg.UUID).Msg("dropping inbound message")
		return nil, nil
	}

	log.Debug().
		Str("sender_id", in.SenderID).
		Str("correlation_id", correlationID).
		Msg("handling inbound prompt")

	resp, err := r.dispatcher.Dispatch(ctx, in.SenderID, in.Prompt)
	if err != nil {
		log.Warn().Err(err).Str("sender_id", in.SenderID).Msg("chat turn failed")
	}

	out, err := toWatermill(NewOutboundMessage(in.SenderID, resp, err), correlationID)
	if err != nil {
		return nil, err
	}
	out.SetContext(ctx)
	return []*message.Message{out}, nil
}

// Submit publishes a prompt on the inbound topic. With the default gochannel it blocks
// until the answer was acknowledged, so the outbound topic must be consumed
// concurrently.
func (r *ChatRouter) Submit(ctx context.Context, senderID string, prompt string) (string, error) {
	correlationID := helpers.CorrelationIDFromContext(ctx)
	msg, err := toWatermill(&InboundMessage{SenderID: senderID, Prompt: prompt}, correlationID)
	if err != nil {
		return "", err
	}
	msg.SetContext(ctx)
	if err := r.Publisher.Publish(r.inboundTopic, msg); err != nil {
		return "", err
	}
	return correlationID, nil
}

// Replies subscribes to the outbound topic.
func (r *ChatRouter) Replies(ctx context.Context) (<-chan *message.Message, error) {
	return r.Subscriber.Subscribe(ctx, r.outboundTopic)
}

func (r *ChatRouter) Close() error {
	log.Debug().Msg("Closing router")
	if err := r.router.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close router")
	}
	log.Debug().Msg("Closing publisher")
	if err := r.Publisher.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close pubsub")
	}
	return nil
}

func (r *ChatRouter) Running() chan struct{} {
	return r.router.Running()
}

func (r *ChatRouter) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}
