// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package notify delivers player-facing messages off the decision path.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Message is a single notification for a player.
type Message struct {
	ID       ulid.ULID
	PlayerID string
	Text     string
	At       time.Time
}

// Sink delivers messages to players. Delivery happens on the dispatcher's
// goroutine, so a slow sink only delays other messages.
type Sink interface {
	Deliver(ctx context.Context, msg Message) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, msg Message) error

// Deliver calls f(ctx, msg).
func (f SinkFunc) Deliver(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// LogSink writes messages to a logger. It is the sink used when no host is
// attached, e.g. by the CLI.
type LogSink struct {
	Logger *slog.Logger
}

// Deliver implements Sink.
func (s LogSink) Deliver(ctx context.Context, msg Message) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "notify player",
		"message_id", msg.ID.String(),
		"player", msg.PlayerID,
		"text", msg.Text)
	return nil
}

// DefaultBuffer is the queue length used when none is given.
const DefaultBuffer = 256

var (
	messagesDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blockguard_notify_messages_delivered_total",
		Help: "Total number of player notifications delivered",
	})
	messagesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blockguard_notify_messages_dropped_total",
		Help: "Total number of player notifications dropped",
	}, []string{"reason"})
)

// Dispatcher queues messages and delivers them from a single goroutine.
// Notify never blocks: when the queue is full the message is dropped.
type Dispatcher struct {
	sink  Sink
	queue chan Message
	now   func() time.Time

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewDispatcher starts a dispatcher delivering to sink with a queue of
// buffer messages. A buffer below one uses DefaultBuffer.
func NewDispatcher(sink Sink, buffer int) *Dispatcher {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	d := &Dispatcher{
		sink:  sink,
		queue: make(chan Message, buffer),
		now:   time.Now,
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

// Notify queues text for playerID. It is safe to call after Close, in which
// case the message is dropped.
func (d *Dispatcher) Notify(ctx context.Context, playerID, text string) {
	at := d.now()
	msg := Message{ID: newID(at), PlayerID: playerID, Text: text, At: at}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		messagesDropped.WithLabelValues("closed").Inc()
		return
	}
	select {
	case d.queue <- msg:
	default:
		messagesDropped.WithLabelValues("queue_full").Inc()
		slog.WarnContext(ctx, "notification dropped: queue full",
			"player", playerID,
			"message_id", msg.ID.String())
	}
}

// Close stops accepting messages, delivers everything already queued and
// waits for the delivery goroutine to exit. ctx bounds the wait.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	ctx := context.Background()
	for msg := range d.queue {
		if err := d.sink.Deliver(ctx, msg); err != nil {
			messagesDropped.WithLabelValues("sink_error").Inc()
			slog.Warn("notification delivery failed",
				"player", msg.PlayerID,
				"message_id", msg.ID.String(),
				"error", err)
			continue
		}
		messagesDelivered.Inc()
	}
}
