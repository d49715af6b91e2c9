package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Subscription represents an active Pub/Sub subscription to paint events.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan *PaintEvent
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of paint events.
// The channel will be closed when the subscription is closed or the context is cancelled.
func (s *Subscription) Events() <-chan *PaintEvent {
	return s.events
}

// Errors returns the channel of subscription errors.
// Malformed messages are reported here and skipped; the subscription continues.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and cleans up resources. Implements io.Closer.
// Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribePaintEvents subscribes to paint events for a canvas.
// Caller must call subscription.Close() when done.
// Context cancellation also stops the subscription.
//
// Delivery is at-most-once: a slow subscriber may miss events, so callers
// should treat an event as a hint to re-read the canvas rather than as state.
func (c *Client) SubscribePaintEvents(ctx context.Context, canvasID string) (*Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, PaintEventsChannel(canvasID))

	// Wait for the subscription to be confirmed so no event published after
	// we return is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to paint events: %w", err)
	}

	eventsChan := make(chan *PaintEvent, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var event PaintEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal paint event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &event:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}
