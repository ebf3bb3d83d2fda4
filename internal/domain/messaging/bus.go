// Package messaging implements the per-agent inbox/outbox mailbox and the
// once-per-tick deliver-all step that moves every outbox message to its
// recipient (or topic subscribers).
package messaging

import "github.com/logisim-sim/logisim/internal/domain/shared"

// Msg is an envelope carried between agents. Dst is optional: when empty,
// the message is broadcast to every agent subscribed to Topic.
type Msg struct {
	Src   shared.AgentID
	Dst   shared.AgentID
	Topic string
	Type  string
	Body  map[string]any
}

// Mailbox is the inbox/outbox pair every agent owns. Inbox is drained
// during decide(); outbox is drained during the delivery phase.
type Mailbox struct {
	Inbox  []Msg
	Outbox []Msg
}

// Send appends a message to this mailbox's outbox.
func (m *Mailbox) Send(msg Msg) {
	m.Outbox = append(m.Outbox, msg)
}

// DrainInbox returns and clears the current inbox contents.
func (m *Mailbox) DrainInbox() []Msg {
	inbox := m.Inbox
	m.Inbox = nil
	return inbox
}

// Bus owns every agent's mailbox and performs the per-tick delivery step.
type Bus struct {
	mailboxes map[shared.AgentID]*Mailbox
	topics    map[string][]shared.AgentID
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{
		mailboxes: make(map[shared.AgentID]*Mailbox),
		topics:    make(map[string][]shared.AgentID),
	}
}

// Register creates a mailbox for an agent, optionally subscribing it to topics.
func (b *Bus) Register(agent shared.AgentID, topics ...string) *Mailbox {
	mb := &Mailbox{}
	b.mailboxes[agent] = mb
	for _, topic := range topics {
		b.topics[topic] = append(b.topics[topic], agent)
	}
	return mb
}

// Mailbox returns the mailbox for an agent, or nil if unregistered.
func (b *Bus) Mailbox(agent shared.AgentID) *Mailbox {
	return b.mailboxes[agent]
}

// Unregister drops an agent's mailbox and every topic subscription it held,
// used when a truck is decommissioned mid-run.
func (b *Bus) Unregister(agent shared.AgentID) {
	delete(b.mailboxes, agent)
	for topic, subs := range b.topics {
		kept := subs[:0]
		for _, s := range subs {
			if s != agent {
				kept = append(kept, s)
			}
		}
		b.topics[topic] = kept
	}
}

// DeliverAll moves every agent's outbox messages into the recipient's (or
// topic subscribers') inbox, then clears every outbox. This is the one
// place the "message sent on tick N is visible on tick N+1" guarantee is
// implemented: DeliverAll runs once per tick, strictly after perceive and
// strictly before decide.
func (b *Bus) DeliverAll(order []shared.AgentID) {
	for _, agentID := range order {
		mb, ok := b.mailboxes[agentID]
		if !ok {
			continue
		}
		for _, msg := range mb.Outbox {
			if msg.Dst != "" {
				if dstBox, ok := b.mailboxes[msg.Dst]; ok {
					dstBox.Inbox = append(dstBox.Inbox, msg)
				}
				continue
			}
			if msg.Topic != "" {
				for _, subscriber := range b.topics[msg.Topic] {
					if subscriber == agentID {
						continue
					}
					if dstBox, ok := b.mailboxes[subscriber]; ok {
						dstBox.Inbox = append(dstBox.Inbox, msg)
					}
				}
			}
		}
		mb.Outbox = nil
	}
}
