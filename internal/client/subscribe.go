package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nhle/todolist/internal/api"
	"github.com/nhle/todolist/internal/model"
)

// ConnState describes the live subscription's connection.
type ConnState int

const (
	StateConnecting ConnState = iota
	StateLive
	StateReconnecting
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateLive:
		return "live"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Event is one delivery on a Subscription: either a snapshot or a change
// of connection state (with the error that caused it, if any).
type Event struct {
	Snapshot *model.Snapshot
	State    ConnState
	Err      error
}

// Subscription streams live snapshots until cancelled.
type Subscription struct {
	events chan Event
	cancel context.CancelFunc
	done   chan struct{}
}

// Events returns the event channel. It is closed after Cancel, or when the
// context given to Subscribe ends.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Cancel stops the subscription and waits for its goroutine to exit.
func (s *Subscription) Cancel() {
	s.cancel()
	<-s.done
}

// Subscribe opens the live list. The first snapshot is the current table;
// every mutation on the server delivers a fresh full snapshot. Dropped
// connections are re-dialed after the reconnect delay.
func (c *Client) Subscribe(ctx context.Context) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		events: make(chan Event, 16),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go c.runSubscription(ctx, sub)
	return sub
}

func (c *Client) runSubscription(ctx context.Context, sub *Subscription) {
	defer close(sub.done)
	defer close(sub.events)

	emit := func(ev Event) bool {
		select {
		case sub.events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	state := StateConnecting
	for {
		if !emit(Event{State: state}) {
			return
		}

		err := c.stream(ctx, emit)
		if ctx.Err() != nil {
			return
		}
		c.logger.Warn("live subscription dropped", "endpoint", c.base.String(), "err", err)
		state = StateReconnecting
		if !emit(Event{State: state, Err: err}) {
			return
		}

		t := time.NewTimer(c.reconnectDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// stream dials once and forwards snapshots until the connection fails.
func (c *Client) stream(ctx context.Context, emit func(Event) bool) error {
	header := http.Header{}
	c.authorize(header)

	conn, resp, err := c.dialer.DialContext(ctx, c.subscribeURL(), header)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
			return &TransportError{Op: "subscribe", Err: fmt.Errorf("dial: %s", resp.Status)}
		}
		return &TransportError{Op: "subscribe", Err: err}
	}
	defer conn.Close()

	// Unblock ReadJSON when the subscription is cancelled.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if !emit(Event{State: StateLive}) {
		return ctx.Err()
	}
	for {
		var snap model.Snapshot
		if err := conn.ReadJSON(&snap); err != nil {
			return &TransportError{Op: "subscribe", Err: err}
		}
		if !emit(Event{Snapshot: &snap, State: StateLive}) {
			return ctx.Err()
		}
	}
}

func (c *Client) subscribeURL() string {
	u := *c.base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path += api.PathSubscribe
	return u.String()
}
