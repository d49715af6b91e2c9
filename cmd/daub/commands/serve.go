package commands

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/dyluth/daub/internal/printer"
	"github.com/dyluth/daub/internal/server"
	"github.com/dyluth/daub/internal/watch"
	"github.com/dyluth/daub/pkg/canvas"
	"github.com/spf13/cobra"
)

var serveListenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the canvas over HTTP",
	Long: `Serve the canvas to display clients over HTTP.

The server keeps its view in step with the ledger by re-reading the canvas
on every paint event and every watch.interval. Paints submitted over HTTP
are applied optimistically and reconciled in the background.

Endpoints:
  GET  /healthz
  GET  /api/v1/canvas
  GET  /api/v1/cells/{index}
  POST /api/v1/paint
  POST /api/v1/pick
  POST /api/v1/pointer
  POST /api/v1/refresh
  PUT  /api/v1/settings`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListenAddr, "listen", "", "Listen address (default server.listen_addr from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	addr := cfg.Server.ListenAddr
	if serveListenAddr != "" {
		addr = serveListenAddr
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

	logger := log.New(os.Stderr, "", log.LstdFlags)
	ctrl := newController(cfg, client, info, logger, func(r canvas.PaintResult) {
		if r.Err != nil {
			logger.Printf("[Server] Paint %d reverted: %v", r.Index, r.Err)
		}
	})

	srv := server.New(ctrl, client, logger)
	if err := srv.Start(addr); err != nil {
		return printer.Error("failed to start server", err.Error(), nil)
	}
	printer.Success("Serving canvas %s on %s\n", info.ID, addr)

	loopDone := make(chan error, 1)
	go func() {
		loopDone <- watch.Run(ctx, ctrl, client, info.ID, watch.Options{
			Interval: cfg.Watch.Interval,
			Logger:   logger,
		})
	}()

	<-ctx.Done()
	printer.Info("\nShutting down...\n")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("[Server] Shutdown error: %v", err)
	}
	ctrl.Close()
	<-loopDone
	return nil
}
