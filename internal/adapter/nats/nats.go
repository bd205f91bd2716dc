// Package nats publishes hub events to NATS JetStream so other processes
// (night audit, group-level dashboards) can follow a property's activity.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Strob0t/athena/internal/port/broadcast"
)

const (
	publishTimeout = 5 * time.Second
	// queueSize bounds events waiting for the publish worker. Events beyond
	// it are dropped and counted.
	queueSize = 1024
)

// Envelope is the message body published for every event.
type Envelope struct {
	Type     string          `json:"type"`
	Hotel    string          `json:"hotel"`
	Payload  json.RawMessage `json:"payload"`
	Occurred time.Time       `json:"occurred"`
}

// Handler processes one delivered envelope. Returning an error naks the message.
type Handler func(ctx context.Context, env Envelope) error

// publishFunc sends one message body to a subject.
type publishFunc func(ctx context.Context, subject string, data []byte) error

type outbound struct {
	subject   string
	eventType string
	body      []byte
}

// Publisher forwards hub events to JetStream. BroadcastEvent only enqueues;
// a single worker publishes in order.
type Publisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	prefix string
	stream string
	hotel  string

	publish publishFunc
	queue   chan outbound
	done    chan struct{}
	mu      sync.RWMutex // guards queue against send-after-close
	closed  bool
	dropped atomic.Int64
}

var _ broadcast.Broadcaster = (*Publisher)(nil)

// Connect dials url and ensures a stream capturing "<prefix>.>" exists.
func Connect(ctx context.Context, url, prefix, hotel string) (*Publisher, error) {
	nc, err := nats.Connect(url, nats.Name("athena-hub"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	stream := StreamName(prefix)
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     stream,
		Subjects: []string{prefix + ".>"},
		MaxAge:   7 * 24 * time.Hour,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	slog.Info("nats connected", "url", url, "stream", stream)
	p := newPublisher(prefix, hotel, func(ctx context.Context, subject string, data []byte) error {
		_, err := js.Publish(ctx, subject, data)
		return err
	})
	p.nc, p.js, p.stream = nc, js, stream
	return p, nil
}

func newPublisher(prefix, hotel string, publish publishFunc) *Publisher {
	p := &Publisher{
		prefix:  prefix,
		hotel:   hotel,
		publish: publish,
		queue:   make(chan outbound, queueSize),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *Publisher) run() {
	defer close(p.done)
	for msg := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := p.publish(ctx, msg.subject, msg.body); err != nil {
			slog.Warn("nats publish failed", "type", msg.eventType, "error", err)
		}
		cancel()
	}
}

// StreamName derives the JetStream stream name from a subject prefix.
func StreamName(prefix string) string {
	return strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(prefix))
}

// Subject maps an event type such as "alert.raised" to "<prefix>.alert.raised".
func Subject(prefix, eventType string) string {
	return prefix + "." + eventType
}

// BroadcastEvent queues the event for publishing and returns immediately.
// When the queue is full the event is dropped and logged.
func (p *Publisher) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "marshal nats event payload", "type", eventType, "error", err)
		return
	}
	body, err := json.Marshal(Envelope{
		Type:     eventType,
		Hotel:    p.hotel,
		Payload:  data,
		Occurred: time.Now().UTC(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "marshal nats envelope", "type", eventType, "error", err)
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.dropped.Add(1)
		return
	}
	select {
	case p.queue <- outbound{subject: Subject(p.prefix, eventType), eventType: eventType, body: body}:
	default:
		n := p.dropped.Add(1)
		slog.WarnContext(ctx, "nats publish queue full, event dropped", "type", eventType, "dropped", n)
	}
}

// Dropped returns how many events were discarded because the queue was full
// or the publisher was closed.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// Subscribe consumes envelopes whose event type matches filter ("alert.*",
// ">" for everything). The returned func stops consumption.
func (p *Publisher) Subscribe(ctx context.Context, filter string, handler Handler) (func(), error) {
	consumer, err := p.js.CreateOrUpdateConsumer(ctx, p.stream, jetstream.ConsumerConfig{
		FilterSubject: Subject(p.prefix, filter),
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("nats consumer create: %w", err)
	}

	cons, err := consumer.Consume(func(msg jetstream.Msg) {
		var env Envelope
		if err := json.Unmarshal(msg.Data(), &env); err != nil {
			slog.Error("nats envelope decode failed", "subject", msg.Subject(), "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, env); err != nil {
			slog.Error("nats handler failed", "subject", msg.Subject(), "error", err)
			if nakErr := msg.Nak(); nakErr != nil {
				slog.Error("nats nak failed", "error", nakErr)
			}
			return
		}
		if ackErr := msg.Ack(); ackErr != nil {
			slog.Error("nats ack failed", "error", ackErr)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("nats consume: %w", err)
	}
	return cons.Stop, nil
}

// Close publishes what is still queued, then drains and closes the connection.
// Calling Close twice is a no-op.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()
	<-p.done

	if p.nc == nil {
		return nil
	}
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
		return fmt.Errorf("nats drain: %w", err)
	}
	return nil
}
