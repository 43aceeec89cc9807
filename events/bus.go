package events

import (
	"time"

	"github.com/google/uuid"
)

// Envelope wraps an emitted event with a unique identifier and wall-clock
// receipt time.
type Envelope struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Emitted time.Time `json:"emitted"`
	Event   Event     `json:"event"`
}

// Bus is a buffered in-process emitter. Emit never blocks: when the buffer
// is full the event is dropped and the drop counter incremented, so a slow
// observer cannot stall settlement.
type Bus struct {
	ch      chan Envelope
	dropped chan struct{}
}

// NewBus creates a bus holding up to size undelivered envelopes.
func NewBus(size int) *Bus {
	if size <= 0 {
		size = 64
	}
	return &Bus{
		ch:      make(chan Envelope, size),
		dropped: make(chan struct{}, 1),
	}
}

func (b *Bus) Emit(evt Event) {
	env := Envelope{
		ID:      uuid.NewString(),
		Type:    evt.EventType(),
		Emitted: time.Now().UTC(),
		Event:   evt,
	}
	select {
	case b.ch <- env:
	default:
		select {
		case b.dropped <- struct{}{}:
		default:
		}
	}
}

// Events returns the stream of delivered envelopes.
func (b *Bus) Events() <-chan Envelope { return b.ch }

// Dropped reports (and clears) whether any event was dropped since the last
// call.
func (b *Bus) Dropped() bool {
	select {
	case <-b.dropped:
		return true
	default:
		return false
	}
}
