package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/dyluth/daub/internal/config"
	"github.com/dyluth/daub/internal/printer"
	"github.com/dyluth/daub/internal/resolver"
	"github.com/dyluth/daub/pkg/canvas"
	"github.com/dyluth/daub/pkg/ledger"
	"golang.org/x/time/rate"
)

// loadConfig resolves daub.yml, the environment and the global flags, in
// increasing order of precedence.
func loadConfig() (*config.DaubConfig, error) {
	cfg, err := config.Resolve(configPath, nil)
	if err != nil {
		return nil, printer.ErrorWithContext(
			"invalid configuration",
			err.Error(),
			map[string]string{"config": configPath},
			[]string{
				"Create a configuration file:\n  daub init",
				"Point at another file:\n  daub --config path/to/daub.yml ...",
			},
		)
	}
	if identityFlag != "" {
		cfg.Identity = identityFlag
	}
	if canvasFlag != "" {
		cfg.Canvas.ID = canvasFlag
	}
	return cfg, nil
}

// connectLedger opens the ledger and checks it answers.
func connectLedger(ctx context.Context, cfg *config.DaubConfig) (*ledger.Client, error) {
	client, err := ledger.NewClientFromURL(cfg.Ledger.RedisURL)
	if err != nil {
		return nil, printer.Error(
			"invalid ledger URL",
			err.Error(),
			[]string{"Set ledger.redis_url in daub.yml or DAUB_REDIS_URL, e.g. redis://localhost:6379/0"},
		)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, printer.ErrorWithContext(
			"ledger connection failed",
			fmt.Sprintf("Could not reach the ledger: %v", err),
			map[string]string{"redis_url": cfg.Ledger.RedisURL},
			[]string{"Start a local ledger:\n  docker run -d -p 6379:6379 redis:7"},
		)
	}
	return client, nil
}

// requireCanvas resolves the configured canvas id, which may be a short
// prefix, and returns the canvas's ledger metadata.
func requireCanvas(ctx context.Context, client *ledger.Client, cfg *config.DaubConfig) (*ledger.CanvasInfo, error) {
	if cfg.Canvas.ID == "" {
		return nil, printer.Error(
			"no canvas selected",
			"No canvas id is configured.",
			[]string{
				"Create one:\n  daub create",
				"Select one:\n  daub --canvas <id> ... or export DAUB_CANVAS_ID=<id>",
			},
		)
	}

	canvasID, err := resolver.ResolveCanvasID(ctx, client, cfg.Canvas.ID)
	if err != nil {
		var amb *resolver.AmbiguousError
		switch {
		case resolver.IsNotFoundError(err):
			return nil, printer.Error(
				"canvas not found",
				err.Error(),
				[]string{"List canvases by creating one:\n  daub create"},
			)
		case errors.As(err, &amb):
			return nil, printer.Error("ambiguous canvas id", resolver.FormatAmbiguousError(amb), nil)
		default:
			return nil, printer.Error("canvas lookup failed", err.Error(), nil)
		}
	}

	info, err := client.GetCanvas(ctx, canvasID)
	if err != nil {
		return nil, printer.Error("canvas lookup failed", err.Error(), nil)
	}
	cfg.Canvas.ID = canvasID
	return info, nil
}

// requireIdentity fails with setup guidance when no identity is configured.
func requireIdentity(cfg *config.DaubConfig) error {
	if cfg.Identity != "" {
		return nil
	}
	return printer.Error(
		"no identity",
		"Painting and funding need a painter identity.",
		[]string{
			"Pass one:\n  daub --identity 0xYOURADDRESS ...",
			"Or set identity in daub.yml or DAUB_IDENTITY",
		},
	)
}

// newController wires a controller for info's canvas against client.
func newController(cfg *config.DaubConfig, client *ledger.Client, info *ledger.CanvasInfo, logger *log.Logger, onResult func(canvas.PaintResult)) *canvas.Controller {
	grid := canvas.NewGrid(info.Size)
	return canvas.NewController(grid, canvas.NewStore(grid), client, canvas.ControllerOptions{
		CanvasID:      info.ID,
		Identity:      cfg.Identity,
		CellSize:      cfg.Canvas.CellSize,
		SubmitTimeout: cfg.Controller.SubmitTimeout,
		RateLimit:     rate.Limit(cfg.Controller.RateLimit),
		RateBurst:     cfg.Controller.RateBurst,
		OnResult:      onResult,
		Logger:        logger,
	})
}

// newLogger returns the logger for controller and loop events: stderr with
// --verbose, silent otherwise.
func newLogger() *log.Logger {
	if verbose {
		return log.New(os.Stderr, "", log.LstdFlags)
	}
	return log.New(io.Discard, "", 0)
}

// parseCell reads a cell from either "INDEX" or "X Y" arguments.
func parseCell(grid canvas.Grid, args []string) (int, error) {
	switch len(args) {
	case 1:
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return 0, fmt.Errorf("invalid cell index %q", args[0])
		}
		if !grid.Contains(index) {
			return 0, fmt.Errorf("cell %d: %w", index, canvas.ErrOutOfRange)
		}
		return index, nil
	case 2:
		x, errX := strconv.Atoi(args[0])
		y, errY := strconv.Atoi(args[1])
		if errX != nil || errY != nil {
			return 0, fmt.Errorf("invalid coordinates %q %q", args[0], args[1])
		}
		return grid.CoordToIndex(x, y)
	default:
		return 0, fmt.Errorf("expected INDEX or X Y, got %d arguments", len(args))
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
