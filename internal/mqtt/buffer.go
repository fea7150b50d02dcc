package mqtt

import "log"

// pendingMsg is a serialized message waiting for the broker.
type pendingMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
	// stale marks messages superseded by a newer one of the same kind,
	// such as heartbeats. Only the latest stale message is kept and stale
	// messages are evicted first when the outbox is full.
	stale bool
}

// outbox holds messages while disconnected, oldest first. State changes
// outlive heartbeats: when full, the oldest heartbeat goes before any alert.
// Not safe for concurrent use; RealPublisher guards it with its mutex.
type outbox struct {
	msgs    []pendingMsg
	limit   int
	dropped int
	warned  bool
}

func newOutbox(limit int) *outbox {
	if limit < 1 {
		limit = 1
	}
	return &outbox{limit: limit}
}

func (o *outbox) add(msg pendingMsg) {
	if msg.stale {
		o.remove(func(m pendingMsg) bool { return m.stale && m.topic == msg.topic })
	}
	if len(o.msgs) == o.limit {
		if !o.remove(func(m pendingMsg) bool { return m.stale }) {
			o.msgs = o.msgs[1:]
		}
		o.dropped++
		if !o.warned {
			log.Printf("mqtt: outbox full (%d messages), dropping oldest", o.limit)
			o.warned = true
		}
	}
	o.msgs = append(o.msgs, msg)
}

// remove deletes the first message matching fn.
func (o *outbox) remove(fn func(pendingMsg) bool) bool {
	for i, m := range o.msgs {
		if fn(m) {
			o.msgs = append(o.msgs[:i], o.msgs[i+1:]...)
			return true
		}
	}
	return false
}

// take empties the outbox and returns what it held.
func (o *outbox) take() []pendingMsg {
	if len(o.msgs) == 0 {
		return nil
	}
	out := o.msgs
	o.msgs = nil
	o.warned = false
	return out
}

func (o *outbox) len() int {
	return len(o.msgs)
}
