package feed

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/lib/pq"
)

const channelName = "bid_events"

// Listener is the Postgres-backed EventSource. One LISTEN connection
// fans out to per-load subscribers.
type Listener struct {
	pl *pq.Listener

	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

func NewListener(conninfo string) (*Listener, error) {
	pl := pq.NewListener(conninfo, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Printf("feed: listener event %d: %v", ev, err)
		}
	})
	if err := pl.Listen(channelName); err != nil {
		pl.Close()
		return nil, err
	}

	l := &Listener{
		pl:   pl,
		subs: make(map[string]map[chan Event]struct{}),
	}
	go l.run()
	return l, nil
}

func (l *Listener) run() {
	for n := range l.pl.Notify {
		if n == nil {
			// Reconnect marker; subscribers resync from their next fetch.
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(n.Extra), &ev); err != nil {
			log.Printf("feed: bad payload on %s: %v", channelName, err)
			continue
		}
		l.broadcast(ev)
	}
}

func (l *Listener) broadcast(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ch := range l.subs[ev.Bid.LoadID] {
		select {
		case ch <- ev:
		default:
			log.Printf("feed: dropping event for slow subscriber on load %s", ev.Bid.LoadID)
		}
	}
}

// Subscribe returns a channel of events for one load. The channel closes
// when ctx is done.
func (l *Listener) Subscribe(ctx context.Context, loadID string) (<-chan Event, error) {
	ch := make(chan Event, 16)

	l.mu.Lock()
	if l.subs[loadID] == nil {
		l.subs[loadID] = make(map[chan Event]struct{})
	}
	l.subs[loadID][ch] = struct{}{}
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.mu.Lock()
		delete(l.subs[loadID], ch)
		if len(l.subs[loadID]) == 0 {
			delete(l.subs, loadID)
		}
		l.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

func (l *Listener) Close() error {
	return l.pl.Close()
}
