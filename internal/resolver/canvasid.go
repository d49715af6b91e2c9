package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dyluth/daub/pkg/ledger"
	"github.com/google/uuid"
)

// MinShortIDLength is the shortest prefix accepted for a canvas id.
const MinShortIDLength = 6

// CanvasFinder is the ledger lookup the resolver needs.
type CanvasFinder interface {
	GetCanvas(ctx context.Context, canvasID string) (*ledger.CanvasInfo, error)
	FindCanvases(ctx context.Context, prefix string) ([]string, error)
}

// ResolveCanvasID expands a short canvas id prefix to the full id.
// A full UUID is checked for existence and returned unchanged.
func ResolveCanvasID(ctx context.Context, finder CanvasFinder, shortID string) (string, error) {
	if _, err := uuid.Parse(shortID); err == nil && len(shortID) == 36 {
		if _, err := finder.GetCanvas(ctx, shortID); err != nil {
			if errors.Is(err, ledger.ErrCanvasNotFound) {
				return "", &NotFoundError{ShortID: shortID}
			}
			return "", fmt.Errorf("failed to verify canvas: %w", err)
		}
		return shortID, nil
	}

	if len(shortID) < MinShortIDLength {
		return "", fmt.Errorf("short ID must be at least %d characters (got %d)", MinShortIDLength, len(shortID))
	}

	matches, err := finder.FindCanvases(ctx, strings.ToLower(shortID))
	if err != nil {
		return "", fmt.Errorf("failed to search for canvas: %w", err)
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{ShortID: shortID}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{ShortID: shortID, Matches: matches}
	}
}

// NotFoundError indicates no canvas matched the id.
type NotFoundError struct {
	ShortID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no canvas found matching '%s'", e.ShortID)
}

// AmbiguousError indicates several canvases share the prefix.
type AmbiguousError struct {
	ShortID string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous short ID '%s' matches %d canvases", e.ShortID, len(e.Matches))
}

// FormatAmbiguousError lists up to ten matching ids for display.
func FormatAmbiguousError(err *AmbiguousError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ambiguous short ID '%s' matches %d canvases:\n", err.ShortID, len(err.Matches))

	shown := min(len(err.Matches), 10)
	for _, id := range err.Matches[:shown] {
		fmt.Fprintf(&b, "  %s\n", id)
	}
	if len(err.Matches) > shown {
		fmt.Fprintf(&b, "  ...and %d more\n", len(err.Matches)-shown)
	}

	b.WriteString("\nUse a longer prefix to pick one canvas.")
	return b.String()
}

// IsNotFoundError reports whether err is a *NotFoundError.
func IsNotFoundError(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsAmbiguousError reports whether err is an *AmbiguousError.
func IsAmbiguousError(err error) bool {
	var amb *AmbiguousError
	return errors.As(err, &amb)
}
