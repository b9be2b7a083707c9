package watermillutil

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"
)

// NewPublisher creates a JetStream publisher. Payloads travel as raw bytes
// with metadata in NATS headers so the gateway can read plain JSON.
func NewPublisher(natsURL string, logger watermill.LoggerAdapter, opts ...nc.Option) (message.Publisher, error) {
	pub, err := nats.NewPublisher(nats.PublisherConfig{
		URL:               natsURL,
		NatsOptions:       opts,
		Marshaler:         &nats.NATSMarshaler{},
		SubjectCalculator: nats.DefaultSubjectCalculator,
		JetStream: nats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
	}
	return pub, nil
}
