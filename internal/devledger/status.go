package devledger

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
)

// Status is the state of a ledger container.
type Status string

const (
	// StatusRunning indicates the container is running
	StatusRunning Status = "Running"

	// StatusStopped indicates the container exists but is not running
	StatusStopped Status = "Stopped"
)

// DetermineStatus maps a container's Docker state to a ledger status.
func DetermineStatus(c types.Container) Status {
	if c.State == "running" {
		return StatusRunning
	}
	return StatusStopped
}

// Info describes one ledger container.
type Info struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Port        int       `json:"port"`
	RedisURL    string    `json:"redis_url"`
	ContainerID string    `json:"container_id"`
	Created     time.Time `json:"created"`
}

// List returns every daub ledger container, sorted by name.
func List(ctx context.Context, cli ContainerLister) ([]Info, error) {
	return list(ctx, cli, "")
}

// Find returns the ledger called name, or nil if there is none.
func Find(ctx context.Context, cli ContainerLister, name string) (*Info, error) {
	infos, err := list(ctx, cli, name)
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, nil
	}
	return &infos[0], nil
}

func list(ctx context.Context, cli ContainerLister, name string) ([]Info, error) {
	filter := filters.NewArgs()
	filter.Add("label", fmt.Sprintf("%s=true", LabelProject))
	filter.Add("label", fmt.Sprintf("%s=%s", LabelComponent, ComponentLedger))
	if name != "" {
		filter.Add("label", fmt.Sprintf("%s=%s", LabelName, name))
	}

	containers, err := cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filter,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger containers: %w", err)
	}

	infos := make([]Info, 0, len(containers))
	for _, c := range containers {
		port, _ := strconv.Atoi(c.Labels[LabelRedisPort])
		info := Info{
			Name:        c.Labels[LabelName],
			Status:      DetermineStatus(c),
			Port:        port,
			ContainerID: c.ID,
			Created:     time.Unix(c.Created, 0),
		}
		if port > 0 {
			info.RedisURL = RedisURL(port)
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}
