package devledger

import (
	"fmt"
	"regexp"
)

const (
	// DefaultName is used when no ledger name is given
	DefaultName = "default"

	// MaxNameLength is the maximum length for a ledger name (DNS-compatible)
	MaxNameLength = 63
)

// NamePattern accepts lowercase alphanumerics with inner hyphens.
var NamePattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

// ValidateName checks a ledger name against DNS label rules, since it ends
// up in a container name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("ledger name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("ledger name too long: %d characters (max: %d)", len(name), MaxNameLength)
	}
	if !NamePattern.MatchString(name) {
		return fmt.Errorf("invalid ledger name '%s': must be lowercase alphanumeric with hyphens (not at start/end)", name)
	}
	return nil
}
