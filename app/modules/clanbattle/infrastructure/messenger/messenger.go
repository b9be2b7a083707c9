package clanbattlemessenger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"
	"github.com/Black-And-White-Club/clanbattle-bot/internal/observability"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	nc "github.com/nats-io/nats.go"
	"golang.org/x/time/rate"
)

// Requester is the request/reply half of a NATS connection.
type Requester interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nc.Msg, error)
}

// Config bounds outbound calls to the gateway.
type Config struct {
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Messenger talks to the chat gateway. Panel calls are request/reply so the
// message id comes back synchronously; defers and notices are published.
type Messenger struct {
	conn      Requester
	publisher message.Publisher
	limiter   *rate.Limiter
	timeout   time.Duration
	logger    *slog.Logger
}

func NewMessenger(conn Requester, publisher message.Publisher, cfg Config, logger *slog.Logger) *Messenger {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Messenger{
		conn:      conn,
		publisher: publisher,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		timeout:   cfg.RequestTimeout,
		logger:    logger,
	}
}

func (m *Messenger) CreateMessage(ctx context.Context, channelID string, model *clanbattledomain.RenderModel) (string, error) {
	reply, err := m.request(ctx, PanelCreateRequestV1, PanelCreatePayloadV1{ChannelID: channelID, Panel: *model})
	if err != nil {
		return "", err
	}
	if reply.MessageID == "" {
		return "", fmt.Errorf("%w: gateway returned no message id", clanbattledomain.ErrTransport)
	}
	return reply.MessageID, nil
}

func (m *Messenger) EditMessage(ctx context.Context, channelID, messageID string, model *clanbattledomain.RenderModel) error {
	_, err := m.request(ctx, PanelEditRequestV1, PanelEditPayloadV1{ChannelID: channelID, MessageID: messageID, Panel: *model})
	return err
}

// Defer acknowledges an interaction so the platform does not time it out.
func (m *Messenger) Defer(ctx context.Context, interactionID string) error {
	if interactionID == "" {
		return nil
	}
	return m.publish(ctx, InteractionDeferredV1, InteractionDeferPayloadV1{InteractionID: interactionID})
}

// Notify shows text to a member.
func (m *Messenger) Notify(ctx context.Context, channelID, memberID, interactionID, text string) error {
	return m.publish(ctx, NoticeSendRequestedV1, NoticePayloadV1{
		ChannelID:     channelID,
		MemberID:      memberID,
		InteractionID: interactionID,
		Text:          text,
	})
}

func (m *Messenger) request(ctx context.Context, subject string, payload any) (PanelReplyV1, error) {
	var reply PanelReplyV1

	data, err := json.Marshal(payload)
	if err != nil {
		return reply, fmt.Errorf("failed to marshal %s request: %w", subject, err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.limiter.Wait(ctx); err != nil {
		return reply, fmt.Errorf("%w: rate limit wait on %s: %w", clanbattledomain.ErrTransport, subject, err)
	}

	msg, err := m.conn.RequestWithContext(ctx, subject, data)
	if err != nil {
		if errors.Is(err, nc.ErrNoResponders) {
			m.logger.WarnContext(ctx, "No gateway is listening", slog.String("subject", subject))
		}
		return reply, fmt.Errorf("%w: request on %s: %w", clanbattledomain.ErrTransport, subject, err)
	}

	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return reply, fmt.Errorf("%w: malformed reply on %s: %w", clanbattledomain.ErrTransport, subject, err)
	}
	if reply.Error != "" {
		return reply, fmt.Errorf("%w: %s: %s", clanbattledomain.ErrTransport, subject, reply.Error)
	}
	return reply, nil
}

func (m *Messenger) publish(ctx context.Context, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", topic, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	if id := observability.CorrelationIDValue(ctx); id != "" {
		middleware.SetCorrelationID(id, msg)
	}
	msg.SetContext(ctx)
	if err := m.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("%w: publish %s: %w", clanbattledomain.ErrTransport, topic, err)
	}
	return nil
}
