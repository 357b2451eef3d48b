// Package feed mirrors bid mutations to connected sessions. The merge
// rules are pure functions over a bid list; transport is behind the
// EventSource interface so tests never need a database.
package feed

import (
	"context"
	"sync"

	"freightboard/db"
)

type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Event is one bid change as emitted by the bids trigger.
type Event struct {
	Action Action `json:"action"`
	Bid    db.Bid `json:"bid"`
}

// EventSource delivers the events for one load until ctx is done.
type EventSource interface {
	Subscribe(ctx context.Context, loadID string) (<-chan Event, error)
}

// Apply merges one event into a bid list and returns the new list.
// Inserts prepend, updates replace by id, deletes filter by id. Applying
// the same event twice yields the same list: an insert for a known id
// degrades to a replace, and an update for an unknown (e.g. already
// deleted) id is a no-op.
func Apply(bids []db.Bid, ev Event) []db.Bid {
	switch ev.Action {
	case ActionInsert:
		for i := range bids {
			if bids[i].ID == ev.Bid.ID {
				out := make([]db.Bid, len(bids))
				copy(out, bids)
				out[i] = ev.Bid
				return out
			}
		}
		out := make([]db.Bid, 0, len(bids)+1)
		out = append(out, ev.Bid)
		return append(out, bids...)
	case ActionUpdate:
		out := make([]db.Bid, len(bids))
		copy(out, bids)
		for i := range out {
			if out[i].ID == ev.Bid.ID {
				out[i] = ev.Bid
			}
		}
		return out
	case ActionDelete:
		out := make([]db.Bid, 0, len(bids))
		for _, b := range bids {
			if b.ID != ev.Bid.ID {
				out = append(out, b)
			}
		}
		return out
	}
	return bids
}

// View is a load's bid list kept current by Apply. The stream handler
// holds one per connection so every frame can carry the full merged list.
type View struct {
	mu   sync.Mutex
	bids []db.Bid
}

func NewView(initial []db.Bid) *View {
	bids := make([]db.Bid, len(initial))
	copy(bids, initial)
	return &View{bids: bids}
}

func (v *View) Apply(ev Event) []db.Bid {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.bids = Apply(v.bids, ev)
	return v.bids
}

func (v *View) Bids() []db.Bid {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]db.Bid, len(v.bids))
	copy(out, v.bids)
	return out
}
