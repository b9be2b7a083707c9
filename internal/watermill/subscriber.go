package watermillutil

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"
)

// NewSubscriber creates a JetStream subscriber with explicit acks. Instances
// sharing queueGroup split the inbound load.
func NewSubscriber(natsURL, queueGroup string, logger watermill.LoggerAdapter, opts ...nc.Option) (message.Subscriber, error) {
	sub, err := nats.NewSubscriber(nats.SubscriberConfig{
		URL:              natsURL,
		NatsOptions:      opts,
		QueueGroupPrefix: queueGroup,
		SubscribersCount: 4,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     10 * time.Second,
		Unmarshaler:      &nats.NATSMarshaler{},
		JetStream: nats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
			SubscribeOptions: []nc.SubOpt{
				nc.DeliverAll(),
				nc.AckExplicit(),
			},
			DurablePrefix: queueGroup,
		},
		SubjectCalculator: nats.DefaultSubjectCalculator,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS subscriber: %w", err)
	}
	return sub, nil
}
