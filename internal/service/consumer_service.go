// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"

	"multistep-rag-be/internal/pkg/logger"
	"multistep-rag-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// EventForwarder ships events off-process, e.g. to NATS JetStream
type EventForwarder interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	forwarder  EventForwarder
	logger     logger.ILogger
}

// NewConsumerService drains run events from the in-process bus. forwarder may be nil,
// in which case events are only logged.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	forwarder EventForwarder,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		forwarder:  forwarder,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var event events.BaseEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal run event", map[string]interface{}{"error": err.Error()})
		msg.Ack() // malformed messages would be redelivered forever
		return
	}

	level := cs.logger.Info
	if event.Type == events.TypeRunFailed {
		level = cs.logger.Warn
	}
	level("CONSUMER", "Run finished", event.Data)

	if cs.forwarder != nil {
		// a Nack on gochannel redelivers immediately, so forwarding failures are dropped
		if err := cs.forwarder.Publish(ctx, event); err != nil {
			cs.logger.Warn("CONSUMER", "Failed to forward run event", map[string]interface{}{
				"type":  event.Type,
				"error": err.Error(),
			})
		}
	}

	msg.Ack()
}
