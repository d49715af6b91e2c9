package devledger

import (
	"fmt"

	"github.com/google/uuid"
)

// Label keys on every container daub starts
const (
	LabelProject   = "daub.project"
	LabelName      = "daub.ledger.name"
	LabelRunID     = "daub.ledger.run_id"
	LabelComponent = "daub.component"
	LabelRedisPort = "daub.redis.port"
)

// ComponentLedger is the LabelComponent value of a ledger container.
const ComponentLedger = "ledger"

// BuildLabels creates the label set for a ledger container.
func BuildLabels(name, runID string, port int) map[string]string {
	return map[string]string{
		LabelProject:   "true",
		LabelName:      name,
		LabelRunID:     runID,
		LabelComponent: ComponentLedger,
		LabelRedisPort: fmt.Sprintf("%d", port),
	}
}

// GenerateRunID creates a new id for one `daub ledger up`.
func GenerateRunID() string {
	return uuid.New().String()
}

// ContainerName returns the Docker container name for a ledger.
func ContainerName(name string) string {
	return fmt.Sprintf("daub-ledger-%s", name)
}
