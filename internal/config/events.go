package config

import (
	"log/slog"
	"strings"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/events"
)

// EventConfig holds configuration for learning event publishing
type EventConfig struct {
	Enabled      bool
	Publisher    string // kafka or mock
	KafkaBrokers string
	Topic        string
}

// GetKafkaBrokers returns Kafka brokers as a slice
func (c *EventConfig) GetKafkaBrokers() []string {
	return strings.Split(c.KafkaBrokers, ",")
}

// CreateEventPublisher creates an event publisher based on configuration
func (c *EventConfig) CreateEventPublisher(logger *slog.Logger) (events.Publisher, error) {
	if !c.Enabled {
		logger.Info("event publishing disabled, using mock publisher")
		return events.NewMockPublisher(), nil
	}

	switch c.Publisher {
	case "kafka":
		logger.Info("creating kafka event publisher",
			"brokers", c.KafkaBrokers,
			"topic", c.Topic)
		return events.NewKafkaPublisher(c.GetKafkaBrokers(), c.Topic, logger)
	case "mock":
		logger.Info("using mock event publisher")
		return events.NewMockPublisher(), nil
	default:
		logger.Warn("unknown event publisher type, falling back to mock", "publisher", c.Publisher)
		return events.NewMockPublisher(), nil
	}
}
