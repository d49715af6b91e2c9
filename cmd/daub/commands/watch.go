package commands

import (
	"fmt"
	"sync"
	"time"

	"github.com/dyluth/daub/internal/printer"
	"github.com/dyluth/daub/internal/watch"
	"github.com/dyluth/daub/pkg/canvas"
	"github.com/spf13/cobra"
)

var (
	watchOutputFormat string
	watchLive         bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow paints on the canvas as they happen",
	Long: `Follow paints on the current canvas in real time.

By default every confirmed paint is printed as one line. With --live the
whole canvas is redrawn after each change instead.

Output Formats:
  default - Human-readable output with timestamps and emojis
  json    - Line-delimited JSON for programmatic processing

Examples:
  # Stream paints
  daub watch

  # Export paints as JSON
  daub watch --output=json > paints.jsonl

  # Redraw the canvas as it fills up
  daub watch --live`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or json)")
	watchCmd.Flags().BoolVar(&watchLive, "live", false, "Redraw the canvas on every change")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	var outputFormat watch.OutputFormat
	switch watchOutputFormat {
	case "default":
		outputFormat = watch.OutputFormatDefault
	case "json":
		outputFormat = watch.OutputFormatJSON
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutputFormat),
			[]string{"Valid formats: default, json"},
		)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := connectLedger(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	info, err := requireCanvas(ctx, client, cfg)
	if err != nil {
		return err
	}

	if !watchLive {
		return watch.StreamPaints(ctx, client, info.ID, outputFormat, printer.Writer())
	}

	ctrl := newController(cfg, client, info, newLogger(), nil)
	defer ctrl.Close()

	trigger, stop := redrawOnChange(ctrl.Store(), func() {
		snap := ctrl.Store().LastSnapshot()
		if snap == nil {
			return
		}
		// Clear the screen and home the cursor before each redraw.
		printer.Printf("\033[H\033[2J")
		if err := drawCanvas(ctrl, snap); err != nil {
			printer.Warning("%v\n", err)
		}
		printer.Printf("Updated %s · Ctrl-C to stop\n", time.Now().Format("15:04:05"))
	})
	defer stop()

	var firstLoad sync.Once
	return watch.Run(ctx, ctrl, client, info.ID, watch.Options{
		Interval: cfg.Watch.Interval,
		Logger:   newLogger(),
		OnLoad: func(*canvas.Snapshot) {
			// Later redraws come from store changes only.
			firstLoad.Do(trigger)
		},
		OnError: func(err error) {
			printer.Warning("Refresh failed: %v\n", err)
		},
	})
}

// redrawOnChange runs redraw on its own goroutine after every batch of store
// changes and every trigger call. Bursts collapse into one redraw. stop
// unsubscribes and waits for a running redraw to finish.
func redrawOnChange(store *canvas.Store, redraw func()) (trigger func(), stop func()) {
	signal := make(chan struct{}, 1)
	done := make(chan struct{})
	finished := make(chan struct{})

	trigger = func() {
		select {
		case signal <- struct{}{}:
		default:
		}
	}
	unsubscribe := store.Subscribe(func([]int) { trigger() })

	go func() {
		defer close(finished)
		for {
			select {
			case <-done:
				return
			case <-signal:
				redraw()
			}
		}
	}()

	var once sync.Once
	stop = func() {
		once.Do(func() {
			unsubscribe()
			close(done)
			<-finished
		})
	}
	return trigger, stop
}
