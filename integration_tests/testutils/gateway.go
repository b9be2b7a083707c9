package testutils

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	clanbattlemessenger "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/infrastructure/messenger"
	"github.com/nats-io/nats.go"
)

// FakeGateway answers panel create and edit requests the way the chat
// gateway does and records what it was asked to draw.
type FakeGateway struct {
	mu      sync.Mutex
	next    int
	creates []clanbattlemessenger.PanelCreatePayloadV1
	edits   []clanbattlemessenger.PanelEditPayloadV1
}

// NewFakeGateway subscribes on conn until the test ends.
func NewFakeGateway(t *testing.T, conn *nats.Conn) *FakeGateway {
	t.Helper()
	g := &FakeGateway{}

	createSub, err := conn.Subscribe(clanbattlemessenger.PanelCreateRequestV1, g.handleCreate)
	if err != nil {
		t.Fatalf("failed to subscribe to panel creates: %v", err)
	}
	editSub, err := conn.Subscribe(clanbattlemessenger.PanelEditRequestV1, g.handleEdit)
	if err != nil {
		t.Fatalf("failed to subscribe to panel edits: %v", err)
	}
	if err := conn.Flush(); err != nil {
		t.Fatalf("failed to flush gateway subscriptions: %v", err)
	}
	t.Cleanup(func() {
		_ = createSub.Unsubscribe()
		_ = editSub.Unsubscribe()
	})
	return g
}

func (g *FakeGateway) handleCreate(msg *nats.Msg) {
	var p clanbattlemessenger.PanelCreatePayloadV1
	if err := json.Unmarshal(msg.Data, &p); err != nil {
		respond(msg, clanbattlemessenger.PanelReplyV1{Error: err.Error()})
		return
	}
	g.mu.Lock()
	g.next++
	id := fmt.Sprintf("msg-%d", g.next)
	g.creates = append(g.creates, p)
	g.mu.Unlock()
	respond(msg, clanbattlemessenger.PanelReplyV1{MessageID: id})
}

func (g *FakeGateway) handleEdit(msg *nats.Msg) {
	var p clanbattlemessenger.PanelEditPayloadV1
	if err := json.Unmarshal(msg.Data, &p); err != nil {
		respond(msg, clanbattlemessenger.PanelReplyV1{Error: err.Error()})
		return
	}
	g.mu.Lock()
	g.edits = append(g.edits, p)
	g.mu.Unlock()
	respond(msg, clanbattlemessenger.PanelReplyV1{MessageID: p.MessageID})
}

func respond(msg *nats.Msg, reply clanbattlemessenger.PanelReplyV1) {
	data, _ := json.Marshal(reply)
	_ = msg.Respond(data)
}

func (g *FakeGateway) Creates() []clanbattlemessenger.PanelCreatePayloadV1 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]clanbattlemessenger.PanelCreatePayloadV1(nil), g.creates...)
}

func (g *FakeGateway) Edits() []clanbattlemessenger.PanelEditPayloadV1 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]clanbattlemessenger.PanelEditPayloadV1(nil), g.edits...)
}

// LastEdit returns the most recent edit, or false when there was none.
func (g *FakeGateway) LastEdit() (clanbattlemessenger.PanelEditPayloadV1, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.edits) == 0 {
		return clanbattlemessenger.PanelEditPayloadV1{}, false
	}
	return g.edits[len(g.edits)-1], true
}
