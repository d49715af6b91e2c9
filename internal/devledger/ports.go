package devledger

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
)

const (
	// Host port range for ledger containers
	startPort = 6379
	endPort   = 6478
)

// ContainerLister is the Docker read the port and status helpers need.
type ContainerLister interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]types.Container, error)
}

// FindNextAvailablePort returns the first port in 6379-6478 that no daub
// container has claimed and that can be bound on this host.
func FindNextAvailablePort(ctx context.Context, cli ContainerLister) (int, error) {
	filter := filters.NewArgs()
	filter.Add("label", fmt.Sprintf("%s=true", LabelProject))
	filter.Add("label", fmt.Sprintf("%s=%s", LabelComponent, ComponentLedger))

	containers, err := cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filter,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to query Docker containers: %w", err)
	}

	usedPorts := make(map[int]bool)
	for _, c := range containers {
		if portStr, ok := c.Labels[LabelRedisPort]; ok {
			if port, err := strconv.Atoi(portStr); err == nil {
				usedPorts[port] = true
			}
		}
	}

	for port := startPort; port <= endPort; port++ {
		if usedPorts[port] {
			continue
		}
		if isPortBindable(port) {
			return port, nil
		}
	}

	return 0, fmt.Errorf("no available ledger ports (range %d-%d exhausted)", startPort, endPort)
}

// isPortBindable reports whether port can be bound on localhost.
func isPortBindable(port int) bool {
	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
	if err != nil {
		return false
	}
	listener.Close()
	return true
}

// RedisHost returns the host that reaches published container ports. Inside
// a container that is the Docker host, not localhost.
func RedisHost() string {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return "host.docker.internal"
	}
	return "localhost"
}

// RedisURL returns the ledger URL for a published port.
func RedisURL(port int) string {
	return fmt.Sprintf("redis://%s:%d/0", RedisHost(), port)
}
