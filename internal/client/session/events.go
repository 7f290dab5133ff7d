package session

import "github.com/dmitrijs2005/spendwise/internal/client/models"

type EventKind int

const (
	RecordsChanged EventKind = iota + 1
	IdentityChanged
)

func (k EventKind) String() string {
	switch k {
	case RecordsChanged:
		return "records_changed"
	case IdentityChanged:
		return "identity_changed"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers after a change is applied.
type Event struct {
	Kind EventKind
	Key  models.StorageKey
	// Record is set for RecordsChanged when a single collection changed.
	Record models.RecordKind
}

// Subscribe registers fn and returns a function that removes it.
func (c *Controller) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.subsMu.Lock()
		defer c.subsMu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Controller) emit(events ...Event) {
	if len(events) == 0 {
		return
	}
	c.subsMu.Lock()
	subs := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subsMu.Unlock()

	for _, e := range events {
		for _, fn := range subs {
			fn(e)
		}
	}
}
