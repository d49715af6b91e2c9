package history

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// FormatTable writes entries as an aligned table and returns how many rows
// it wrote. Ages are relative to now.
func FormatTable(w io.Writer, entries []Entry, canvasID string, now time.Time) int {
	if len(entries) == 0 {
		fmt.Fprintf(w, "No painted pixels found on canvas '%s'\n", formatID(canvasID))
		return 0
	}

	fmt.Fprintf(w, "Pixels on canvas '%s':\n\n", formatID(canvasID))

	fmt.Fprintf(w, "%-6s %-9s %-8s %-14s %s\n", "CELL", "X,Y", "COLOR", "OWNER", "AGE")
	fmt.Fprintf(w, "%-6s %-9s %-8s %-14s %s\n", "------", "---------", "--------", "--------------", "--------")

	for _, e := range entries {
		fmt.Fprintf(w, "%-6d %-9s %-8s %-14s %s\n",
			e.Index,
			fmt.Sprintf("%d,%d", e.X, e.Y),
			e.Color,
			formatOwner(e.Owner),
			formatAge(e.Timestamp, now),
		)
	}

	noun := "pixel"
	if len(entries) != 1 {
		noun = "pixels"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(entries), noun)

	return len(entries)
}

// FormatJSONL writes each entry as one compact JSON line, for jq and friends.
func FormatJSONL(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal pixel to JSON: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}
	return nil
}

// FormatSingleJSON writes one entry as pretty-printed JSON.
func FormatSingleJSON(w io.Writer, e Entry) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal pixel to JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	fmt.Fprintln(w)
	return nil
}

// formatID shortens long ids to their first 8 characters.
func formatID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatOwner keeps the head and tail of long identities: 0x12ab…9f3c
func formatOwner(owner string) string {
	if owner == "" {
		return "-"
	}
	if len(owner) > 14 {
		return owner[:6] + "…" + owner[len(owner)-4:]
	}
	return owner
}

// formatAge renders a millisecond timestamp as "2m ago" style text.
func formatAge(timestampMs int64, now time.Time) string {
	if timestampMs == 0 {
		return "-"
	}

	diff := now.Sub(time.UnixMilli(timestampMs))
	switch {
	case diff < 0:
		return "just now"
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}
