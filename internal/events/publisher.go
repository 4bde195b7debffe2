package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Aman-Sigroha/WildWardenServer/internal/domain"
)

const (
	// TopicCaseEvents carries case creation events, keyed by device so one
	// device's alerts stay ordered.
	TopicCaseEvents = "case_events"
	// TopicCaseStatusEvents carries dispatcher decisions and deletions,
	// keyed by case id.
	TopicCaseStatusEvents = "case_status_events"
)

// CaseCreated is emitted after a telemetry submission is stored.
type CaseCreated struct {
	CaseID       string    `json:"caseId"`
	DeviceID     string    `json:"deviceId"`
	PurgedCases  int64     `json:"purgedCases"`
	IngestedAt   time.Time `json:"ingestedAt"`
}

// CaseStatusChanged is emitted after a dispatcher accepts or rejects a case.
type CaseStatusChanged struct {
	CaseID     string    `json:"caseId"`
	DeviceID   string    `json:"deviceId"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurredAt"`
}

// CaseDeleted is emitted after an operator removes a case.
type CaseDeleted struct {
	CaseID     string    `json:"caseId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// messageWriter is satisfied by Producer and by test stubs.
type messageWriter interface {
	WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error
}

// Publisher turns case lifecycle changes into Kafka messages. Publishing is
// best-effort: failures are logged and never surfaced to the caller, so a
// broker outage cannot block telemetry ingest.
type Publisher struct {
	writer messageWriter
	logger *zap.Logger
}

// NewPublisher constructs a Publisher over a Producer.
func NewPublisher(writer *Producer, logger *zap.Logger) *Publisher {
	return &Publisher{writer: writer, logger: logger}
}

// CaseCreated implements domain.EventSink.
func (p *Publisher) CaseCreated(ctx context.Context, c domain.Case, purged int64) {
	p.publish(ctx, TopicCaseEvents, "case.created", c.DeviceID, CaseCreated{
		CaseID:      c.ID,
		DeviceID:    c.DeviceID,
		PurgedCases: purged,
		IngestedAt:  c.Timestamp,
	})
}

// CaseStatusChanged implements domain.EventSink.
func (p *Publisher) CaseStatusChanged(ctx context.Context, c domain.Case) {
	p.publish(ctx, TopicCaseStatusEvents, "case.status_changed", c.ID, CaseStatusChanged{
		CaseID:     c.ID,
		DeviceID:   c.DeviceID,
		Status:     string(c.Status),
		OccurredAt: time.Now().UTC(),
	})
}

// CaseDeleted implements domain.EventSink.
func (p *Publisher) CaseDeleted(ctx context.Context, id string) {
	p.publish(ctx, TopicCaseStatusEvents, "case.deleted", id, CaseDeleted{
		CaseID:     id,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *Publisher) publish(ctx context.Context, topic, eventType, key string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("marshal event failed", zap.String("event_type", eventType), zap.Error(err))
		return
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, topic, msg); err != nil {
		p.logger.Error("publish event failed",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
