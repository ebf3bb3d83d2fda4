package messaging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logisim-sim/logisim/internal/domain/messaging"
	"github.com/logisim-sim/logisim/internal/domain/shared"
)

func TestDeliverAll_DirectMessage(t *testing.T) {
	bus := messaging.New()
	order := []shared.AgentID{"alpha", "beta"}
	alpha := bus.Register("alpha")
	beta := bus.Register("beta")

	alpha.Send(messaging.Msg{Src: "alpha", Dst: "beta", Type: "ping"})
	bus.DeliverAll(order)

	inbox := beta.DrainInbox()
	require.Len(t, inbox, 1)
	assert.Equal(t, "ping", inbox[0].Type)
	assert.Empty(t, alpha.Outbox, "outbox cleared after delivery")
	assert.Empty(t, beta.DrainInbox(), "drain empties the inbox")
}

func TestDeliverAll_TopicBroadcastSkipsSender(t *testing.T) {
	bus := messaging.New()
	order := []shared.AgentID{"a", "b", "c"}
	a := bus.Register("a", "news")
	b := bus.Register("b", "news")
	c := bus.Register("c")

	a.Send(messaging.Msg{Src: "a", Topic: "news", Type: "update"})
	bus.DeliverAll(order)

	assert.Empty(t, a.DrainInbox(), "sender does not receive its own broadcast")
	assert.Len(t, b.DrainInbox(), 1)
	assert.Empty(t, c.DrainInbox(), "non-subscriber receives nothing")
}

func TestDeliverAll_UnknownRecipientDropped(t *testing.T) {
	bus := messaging.New()
	a := bus.Register("a")
	a.Send(messaging.Msg{Src: "a", Dst: "ghost", Type: "x"})

	bus.DeliverAll([]shared.AgentID{"a"})
	assert.Empty(t, a.Outbox)
}

func TestUnregister(t *testing.T) {
	bus := messaging.New()
	a := bus.Register("a")
	bus.Register("b", "news")

	bus.Unregister("b")
	a.Send(messaging.Msg{Src: "a", Topic: "news", Type: "x"})
	a.Send(messaging.Msg{Src: "a", Dst: "b", Type: "y"})
	bus.DeliverAll([]shared.AgentID{"a"})

	assert.Nil(t, bus.Mailbox("b"))
}

func TestOneTickDelay(t *testing.T) {
	// A message sent during tick N's decide is not readable until the
	// delivery phase has run, which happens on tick N+1.
	bus := messaging.New()
	order := []shared.AgentID{"a", "b"}
	a := bus.Register("a")
	b := bus.Register("b")

	a.Send(messaging.Msg{Src: "a", Dst: "b", Type: "late"})
	assert.Empty(t, b.Inbox, "before the delivery phase nothing is visible")

	bus.DeliverAll(order)
	assert.Len(t, b.Inbox, 1)
}
