package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
)

type EventType string

const (
	QuizGraded          EventType = "quiz.graded"
	ModuleUnlocked      EventType = "module.unlocked"
	CourseCompleted     EventType = "course.completed"
	QuizAccessRequested EventType = "quiz.access_requested"
)

// LearningEvent is the envelope published for every notable learning
// milestone. Consumers key on Type; the remaining fields are best-effort
// context.
type LearningEvent struct {
	ID         string                 `json:"id"`
	Type       EventType              `json:"type"`
	StudentID  string                 `json:"student_id"`
	CourseID   uint                   `json:"course_id,omitempty"`
	ModuleID   uint                   `json:"module_id,omitempty"`
	Score      float64                `json:"score,omitempty"`
	Passed     bool                   `json:"passed,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// Publisher emits learning events. Publishing is fire-and-forget from the
// caller's perspective; delivery failures are logged, never surfaced to the
// student flow.
type Publisher interface {
	Publish(ctx context.Context, event *LearningEvent) error
	Close() error
}

// ===== KAFKA PUBLISHER =====

type kafkaPublisher struct {
	publisher message.Publisher
	topic     string
	logger    *slog.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (Publisher, error) {
	pub, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka publisher: %w", err)
	}
	return &kafkaPublisher{publisher: pub, topic: topic, logger: logger}, nil
}

func (p *kafkaPublisher) Publish(ctx context.Context, event *LearningEvent) error {
	if event.ID == "" {
		event.ID = watermill.NewUUID()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal learning event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("student_id", event.StudentID)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("publish learning event: %w", err)
	}

	p.logger.Debug("learning event published",
		"event_id", event.ID,
		"type", event.Type,
		"student_id", event.StudentID,
		"module_id", event.ModuleID)
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.publisher.Close()
}

// ===== MOCK PUBLISHER (tests and local runs without a broker) =====

type MockPublisher struct {
	mu     sync.Mutex
	events []*LearningEvent
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(_ context.Context, event *LearningEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	m.events = append(m.events, event)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// Events returns a copy of everything published so far.
func (m *MockPublisher) Events() []*LearningEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*LearningEvent(nil), m.events...)
}

// EventsOfType filters published events by type.
func (m *MockPublisher) EventsOfType(t EventType) []*LearningEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*LearningEvent
	for _, e := range m.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
