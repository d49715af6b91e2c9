package filter

import (
	"path/filepath"

	"github.com/dyluth/daub/pkg/ledger"
)

// Criteria selects painted pixels. All set criteria must match.
type Criteria struct {
	SinceTimestampMs int64   // 0 = no lower bound
	UntilTimestampMs int64   // 0 = no upper bound
	OwnerGlob        string  // Glob on the owner identity, empty = any owner
	Color            *uint32 // Exact packed color, nil = any color
}

// Matches reports whether p satisfies every criterion.
func (c *Criteria) Matches(p ledger.Pixel) bool {
	if c.SinceTimestampMs > 0 && p.Timestamp < c.SinceTimestampMs {
		return false
	}
	if c.UntilTimestampMs > 0 && p.Timestamp > c.UntilTimestampMs {
		return false
	}

	if c.OwnerGlob != "" {
		matched, err := filepath.Match(c.OwnerGlob, p.Owner)
		if err != nil || !matched {
			return false
		}
	}

	if c.Color != nil && p.Color != *c.Color {
		return false
	}

	return true
}

// HasFilters reports whether any criterion is set.
func (c *Criteria) HasFilters() bool {
	return c.SinceTimestampMs > 0 ||
		c.UntilTimestampMs > 0 ||
		c.OwnerGlob != "" ||
		c.Color != nil
}
