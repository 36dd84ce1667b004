package service

import (
	"context"
	"encoding/json"
	"time"

	"multistep-rag-be/internal/pkg/logger"
	"multistep-rag-be/pkg/events"
	"multistep-rag-be/pkg/rag"
	"multistep-rag-be/pkg/rag/workflow"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const RunEventsTopic = "rag.runs"

type IPublisherService interface {
	workflow.RunNotifier
	Publish(ctx context.Context, event events.Event) error
}

type publisherService struct {
	publisher message.Publisher
	topicName string
	logger    logger.ILogger
}

func NewPublisherService(publisher message.Publisher, topicName string, log logger.ILogger) IPublisherService {
	return &publisherService{
		publisher: publisher,
		topicName: topicName,
		logger:    log,
	}
}

func (p *publisherService) Publish(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(events.BaseEvent{
		Type:       event.EventType(),
		Data:       event.Payload(),
		OccurredAt: event.Timestamp(),
	})
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return p.publisher.Publish(p.topicName, msg)
}

// RunFinished never fails the run; publishing problems are only logged
func (p *publisherService) RunFinished(ctx context.Context, report workflow.RunReport) {
	run := events.RunEvent{
		SessionID:     report.SessionID,
		Question:      report.Question,
		Outcome:       string(report.Outcome),
		Path:          make([]string, len(report.Path)),
		RephraseCount: report.RephraseCount,
		Resumed:       report.Resumed,
		DurationMs:    report.Duration.Milliseconds(),
	}
	for i, step := range report.Path {
		run.Path[i] = string(step)
	}
	if report.Err != nil {
		run.ErrorKind = rag.Kind(report.Err)
		run.Error = report.Err.Error()
	}

	if err := p.Publish(ctx, events.NewRunEvent(run, time.Now())); err != nil {
		p.logger.Warn("PUBLISHER", "Failed to publish run event", map[string]interface{}{
			"session_id": report.SessionID,
			"error":      err.Error(),
		})
	}
}
