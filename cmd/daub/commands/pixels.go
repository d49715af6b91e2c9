package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dyluth/daub/internal/filter"
	"github.com/dyluth/daub/internal/history"
	"github.com/dyluth/daub/internal/printer"
	"github.com/dyluth/daub/internal/timespec"
	"github.com/dyluth/daub/pkg/canvas"
	"github.com/spf13/cobra"
)

var (
	pixelsOutputFormat string
	pixelsSince        string
	pixelsUntil        string
	pixelsOwner        string
	pixelsColor        string
)

var pixelsCmd = &cobra.Command{
	Use:   "pixels [INDEX]",
	Short: "List painted pixels with filtering",
	Long: `Inspect the painted pixels of a canvas in list or get mode.

List Mode (no INDEX):
  Displays painted pixels, oldest first, as a table or JSONL stream.

Get Mode (with INDEX):
  Displays one cell as pretty-printed JSON.

Time Filters (list mode only):
  --since  - Show pixels painted after this time
  --until  - Show pixels painted before this time

Content Filters (list mode only):
  --owner  - Filter by owner identity (glob pattern: "0xab*")
  --color  - Filter by exact color ("#ff0000")

Examples:
  # Everything painted in the last two hours
  daub pixels --since=2h

  # One painter's cells as JSONL for jq
  daub pixels --owner='0xab*' --output=jsonl | jq .index

  # A single cell
  daub pixels 2010`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPixels,
}

func init() {
	pixelsCmd.Flags().StringVarP(&pixelsOutputFormat, "output", "o", "default", "Output format: default or jsonl (ignored in get mode)")
	pixelsCmd.Flags().StringVar(&pixelsSince, "since", "", "Show pixels after time (duration or RFC3339)")
	pixelsCmd.Flags().StringVar(&pixelsUntil, "until", "", "Show pixels before time (duration or RFC3339)")
	pixelsCmd.Flags().StringVar(&pixelsOwner, "owner", "", "Filter by owner (glob pattern)")
	pixelsCmd.Flags().StringVar(&pixelsColor, "color", "", "Filter by color (#rrggbb)")
	rootCmd.AddCommand(pixelsCmd)
}

func runPixels(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	isGetMode := len(args) > 0

	var outputFormat history.OutputFormat
	var criteria *filter.Criteria
	if !isGetMode {
		switch pixelsOutputFormat {
		case "default":
			outputFormat = history.OutputFormatDefault
		case "jsonl":
			outputFormat = history.OutputFormatJSONL
		default:
			return printer.Error(
				"invalid output format",
				fmt.Sprintf("Unknown format: %s", pixelsOutputFormat),
				[]string{"Valid formats: default, jsonl"},
			)
		}

		var err error
		criteria, err = buildCriteria(time.Now())
		if err != nil {
			return printer.Error("invalid filter", err.Error(), []string{"Times are durations like '2h' or RFC3339 like '2026-10-19T13:00:00Z'"})
		}
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

	if isGetMode {
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return printer.Error("invalid cell", fmt.Sprintf("invalid cell index %q", args[0]), nil)
		}
		err = history.GetCell(ctx, client, info.ID, index, printer.Writer())
		if history.IsNotPainted(err) {
			printer.Info("Cell %d is unpainted\n", index)
			return nil
		}
		if err != nil {
			return printer.Error("failed to read cell", err.Error(), nil)
		}
		return nil
	}

	if err := history.ListPixels(ctx, client, info.ID, outputFormat, criteria, time.Now(), printer.Writer()); err != nil {
		return printer.Error("failed to list pixels", err.Error(), nil)
	}
	return nil
}

// buildCriteria turns the list-mode flags into filter criteria.
func buildCriteria(now time.Time) (*filter.Criteria, error) {
	since, until, err := timespec.ParseRange(pixelsSince, pixelsUntil, now)
	if err != nil {
		return nil, err
	}

	criteria := &filter.Criteria{
		SinceTimestampMs: since,
		UntilTimestampMs: until,
		OwnerGlob:        pixelsOwner,
	}
	if pixelsColor != "" {
		packed, err := canvas.EncodeColor(pixelsColor)
		if err != nil {
			return nil, err
		}
		criteria.Color = &packed
	}
	return criteria, nil
}
