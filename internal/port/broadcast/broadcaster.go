// Package broadcast defines the port for pushing hub events to listeners.
package broadcast

import "context"

// Broadcaster delivers a typed event to every listener it manages.
// Implementations must not block the caller on slow listeners.
type Broadcaster interface {
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}

// Fanout sends each event to all of its members in order.
type Fanout []Broadcaster

// NewFanout drops nil members.
func NewFanout(members ...Broadcaster) Fanout {
	out := make(Fanout, 0, len(members))
	for _, m := range members {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// BroadcastEvent forwards to every member.
func (f Fanout) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	for _, b := range f {
		b.BroadcastEvent(ctx, eventType, payload)
	}
}
