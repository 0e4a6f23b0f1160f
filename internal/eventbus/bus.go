// Package eventbus is an in-memory fanout of poll and delivery events.
//
// Publish never blocks: subscribers get buffered channels and a slow
// subscriber simply misses events.
package eventbus

import (
	"sync"
	"time"
)

const (
	TypePollOK        = "poll.ok"
	TypePollFailed    = "poll.failed"
	TypeStatusChanged = "status.changed"
	TypeNotifySent    = "notify.sent"
	TypeNotifyFailed  = "notify.failed"
)

// Event is a small signal; Data is one of the payload types below.
type Event struct {
	Type string
	Time time.Time
	Data any
}

// PollResult accompanies poll.ok and poll.failed.
type PollResult struct {
	Tick        string
	Cursor      int64
	Submissions int
	Error       string
}

// StatusChange accompanies status.changed.
type StatusChange struct {
	Tick    string
	Name    string
	Status  string
	Message string
}

// Delivery accompanies notify.sent and notify.failed.
type Delivery struct {
	ChatID string
	Text   string
	Error  string
}

type Bus interface {
	Publish(e Event)
	Subscribe(buffer int) (ch <-chan Event, unsubscribe func())
}

// New returns a bus that owns no goroutines.
func New() Bus {
	return &memBus{subs: map[uint64]chan Event{}}
}

type memBus struct {
	mu   sync.RWMutex
	subs map[uint64]chan Event
	seq  uint64
}

func (b *memBus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	// Sending under the read lock keeps Subscribe's close from racing the send.
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (b *memBus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	b.seq++
	id := b.seq
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(ch)
			b.mu.Unlock()
		})
	}
	return ch, unsub
}

// Nop discards everything.
type Nop struct{}

func (Nop) Publish(Event) {}

func (Nop) Subscribe(int) (<-chan Event, func()) {
	ch := make(chan Event)
	close(ch)
	return ch, func() {}
}
