package crawl

import "sync"

// Event is one progress notification emitted during a crawl.
type Event struct {
	UserID   string `json:"user_id"`
	Stage    string `json:"stage"`
	ObjectID string `json:"object_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

const (
	StageStarted   = "started"
	StageDatabases = "databases_listed"
	StageDatabase  = "database_queried"
	StagePages     = "pages_listed"
	StagePage      = "page_fetched"
	StageDone      = "done"
	StageFailed    = "failed"
)

// Broker fans crawl events out to subscribers. Publishing never blocks: a
// subscriber that cannot keep up drops events rather than stalling the crawl.
type Broker struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: map[chan Event]struct{}{}}
}

// Subscribe returns a buffered event channel and a cancel function. The
// channel is closed on cancel.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 64)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *Broker) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}
