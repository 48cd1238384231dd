package events

import "sync"

// Event names emitted by the crawl and inquiry pipelines.
const (
	Status            = "status"
	Progress          = "progress"
	ListingFound      = "listing_found"
	RunComplete       = "run_complete"
	RunFailed         = "run_failed"
	InquiryProgress   = "inquiry_progress"
	InquiryReady      = "inquiry_ready"
	InquiriesComplete = "inquiries_complete"
)

// Event is one observer notification.
type Event struct {
	Name    string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Bus fans events out to subscribers with fire-and-forget semantics.
// Publish never blocks: when a subscriber's buffer is full the oldest
// queued event is dropped to make room. A slow observer can lose events
// but can never stall the pipeline.
type Bus struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
	size int
}

// NewBus creates a Bus whose subscribers buffer up to size events.
func NewBus(size int) *Bus {
	if size < 1 {
		size = 1
	}
	return &Bus{
		subs: make(map[chan Event]struct{}),
		size: size,
	}
}

// Subscribe registers a new subscriber channel.
func (b *Bus) Subscribe() chan Event {
	ch := make(chan Event, b.size)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the channel and closes it.
func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish delivers the event to every subscriber without blocking.
func (b *Bus) Publish(name string, payload interface{}) {
	ev := Event{Name: name, Payload: payload}

	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		for {
			select {
			case ch <- ev:
			default:
				// Buffer full: drop the oldest event and retry once.
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}
