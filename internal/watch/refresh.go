package watch

import (
	"context"
	"log"
	"time"

	"github.com/dyluth/daub/pkg/canvas"
	"github.com/dyluth/daub/pkg/ledger"
)

// DefaultInterval is how often Run re-reads the canvas without events.
const DefaultInterval = 5 * time.Second

// Loader re-reads the canvas into the store. *canvas.Controller implements it.
type Loader interface {
	Load(ctx context.Context) (*canvas.Snapshot, error)
}

// EventSource delivers paint events. *ledger.Client implements it.
type EventSource interface {
	SubscribePaintEvents(ctx context.Context, canvasID string) (*ledger.Subscription, error)
}

// Options configures Run.
type Options struct {
	Interval time.Duration               // Poll interval (default DefaultInterval)
	OnLoad   func(snap *canvas.Snapshot) // Called after each successful load
	OnError  func(err error)             // Called after each failed load
	Logger   *log.Logger                 // Defaults to log.Default()
}

// Run keeps the store in step with the ledger until ctx is cancelled. It
// loads once immediately, then on every tick and on every paint event.
// Bursts of events are coalesced into a single load. Load failures are
// logged and retried on the next trigger; they never stop the loop.
//
// events may be nil, in which case Run only polls. If the subscription
// cannot be opened Run also falls back to polling.
func Run(ctx context.Context, loader Loader, events EventSource, canvasID string, opts Options) error {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	var (
		eventsCh <-chan *ledger.PaintEvent
		errorsCh <-chan error
	)
	if events != nil {
		sub, err := events.SubscribePaintEvents(ctx, canvasID)
		if err != nil {
			logger.Printf("[Watch] Paint events unavailable, polling every %v: %v", opts.Interval, err)
		} else {
			defer sub.Close()
			eventsCh = sub.Events()
			errorsCh = sub.Errors()
		}
	}

	load := func() {
		snap, err := loader.Load(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Printf("[Watch] Failed to load canvas %s: %v", canvasID, err)
			if opts.OnError != nil {
				opts.OnError(err)
			}
			return
		}
		if opts.OnLoad != nil {
			opts.OnLoad(snap)
		}
	}

	load()

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			load()

		case _, ok := <-eventsCh:
			if !ok {
				logger.Printf("[Watch] Paint event stream closed, polling every %v", opts.Interval)
				eventsCh = nil
				continue
			}
			drain(eventsCh)
			load()

		case err, ok := <-errorsCh:
			if !ok {
				errorsCh = nil
				continue
			}
			logger.Printf("[Watch] Paint event error: %v", err)
		}
	}
}

// drain discards events already buffered so a burst causes one load.
func drain(ch <-chan *ledger.PaintEvent) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
