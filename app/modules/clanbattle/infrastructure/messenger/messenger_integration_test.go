package clanbattlemessenger_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"
	clanbattlemessenger "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/infrastructure/messenger"
	"github.com/Black-And-White-Club/clanbattle-bot/integration_tests/containers"
	natsutil "github.com/Black-And-White-Club/clanbattle-bot/internal/nats"
	watermillutil "github.com/Black-And-White-Club/clanbattle-bot/internal/watermill"
	"github.com/ThreeDotsLabs/watermill"
	nc "github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessenger_AgainstNATS(t *testing.T) {
	containers.RequireDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, natsURL, err := containers.SetupNatsContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	conn, err := natsutil.Connect(natsutil.Config{URL: natsURL, Name: "messenger-test"}, logger)
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	// Stand-in gateway.
	_, err = conn.Subscribe(clanbattlemessenger.PanelCreateRequestV1, func(msg *nc.Msg) {
		var req clanbattlemessenger.PanelCreatePayloadV1
		_ = json.Unmarshal(msg.Data, &req)
		reply, _ := json.Marshal(clanbattlemessenger.PanelReplyV1{MessageID: "posted-in-" + req.ChannelID})
		_ = msg.Respond(reply)
	})
	require.NoError(t, err)
	_, err = conn.Subscribe(clanbattlemessenger.PanelEditRequestV1, func(msg *nc.Msg) {
		reply, _ := json.Marshal(clanbattlemessenger.PanelReplyV1{Error: "unknown message"})
		_ = msg.Respond(reply)
	})
	require.NoError(t, err)

	wmLogger := watermill.NewSlogLogger(logger)
	pub, err := watermillutil.NewPublisher(natsURL, wmLogger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pub.Close() })
	sub, err := watermillutil.NewSubscriber(natsURL, "messenger-test", wmLogger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })

	m := clanbattlemessenger.NewMessenger(conn, pub, clanbattlemessenger.Config{RequestTimeout: 3 * time.Second}, logger)

	id, err := m.CreateMessage(ctx, "ch1", &clanbattledomain.RenderModel{Title: "Wyvern"})
	require.NoError(t, err)
	assert.Equal(t, "posted-in-ch1", id)

	err = m.EditMessage(ctx, "ch1", "gone", &clanbattledomain.RenderModel{Title: "Wyvern"})
	assert.ErrorIs(t, err, clanbattledomain.ErrTransport)

	defers, err := sub.Subscribe(ctx, clanbattlemessenger.InteractionDeferredV1)
	require.NoError(t, err)
	require.NoError(t, m.Defer(ctx, "ix-42"))

	select {
	case msg := <-defers:
		var got clanbattlemessenger.InteractionDeferPayloadV1
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, "ix-42", got.InteractionID)
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("defer was not delivered")
	}
}
