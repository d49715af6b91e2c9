package devledger

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/dyluth/daub/pkg/ledger"
)

// DefaultImage is the Redis image ledgers run on.
const DefaultImage = "redis:7-alpine"

// UpOptions configures Up.
type UpOptions struct {
	Name         string        // Ledger name (default DefaultName)
	Image        string        // Redis image (default DefaultImage)
	Port         int           // Host port, 0 = first free port from 6379
	ReadyTimeout time.Duration // How long to wait for Redis to answer (default 15s)
}

// Up starts a Redis container to act as a development ledger and waits
// until it answers a ping.
func Up(ctx context.Context, cli *client.Client, opts UpOptions) (*Info, error) {
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.Image == "" {
		opts.Image = DefaultImage
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 15 * time.Second
	}
	if err := ValidateName(opts.Name); err != nil {
		return nil, err
	}

	existing, err := Find(ctx, cli, opts.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("ledger '%s' already exists (%s)", opts.Name, existing.Status)
	}

	port := opts.Port
	if port == 0 {
		if port, err = FindNextAvailablePort(ctx, cli); err != nil {
			return nil, err
		}
	}

	if err := pullImage(ctx, cli, opts.Image); err != nil {
		return nil, err
	}

	resp, err := cli.ContainerCreate(ctx, &container.Config{
		Image:  opts.Image,
		Labels: BuildLabels(opts.Name, GenerateRunID(), port),
		ExposedPorts: nat.PortSet{
			"6379/tcp": struct{}{},
		},
	}, &container.HostConfig{
		PortBindings: nat.PortMap{
			"6379/tcp": []nat.PortBinding{
				{
					HostIP:   "127.0.0.1",
					HostPort: fmt.Sprintf("%d", port),
				},
			},
		},
	}, nil, nil, ContainerName(opts.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger container: %w", err)
	}

	if err := cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		_ = cli.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return nil, fmt.Errorf("failed to start ledger container: %w", err)
	}

	url := RedisURL(port)
	if err := waitReady(ctx, url, opts.ReadyTimeout); err != nil {
		return nil, err
	}

	return &Info{
		Name:        opts.Name,
		Status:      StatusRunning,
		Port:        port,
		RedisURL:    url,
		ContainerID: resp.ID,
		Created:     time.Now(),
	}, nil
}

// Down stops and removes the ledger called name. Its data is lost.
func Down(ctx context.Context, cli *client.Client, name string) error {
	info, err := Find(ctx, cli, name)
	if err != nil {
		return err
	}
	if info == nil {
		return fmt.Errorf("no ledger named '%s'", name)
	}

	timeout := 5
	_ = cli.ContainerStop(ctx, info.ContainerID, container.StopOptions{Timeout: &timeout})
	if err := cli.ContainerRemove(ctx, info.ContainerID, container.RemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("failed to remove ledger container: %w", err)
	}
	return nil
}

func pullImage(ctx context.Context, cli *client.Client, image string) error {
	reader, err := cli.ImagePull(ctx, image, types.ImagePullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull %s: %w", image, err)
	}
	defer reader.Close()

	// The pull only completes once the progress stream is drained.
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("failed to pull %s: %w", image, err)
	}
	return nil
}

// waitReady pings url every 200ms until it answers or timeout passes.
func waitReady(ctx context.Context, url string, timeout time.Duration) error {
	client, err := ledger.NewClientFromURL(url)
	if err != nil {
		return err
	}
	defer client.Close()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	timeoutCh := time.After(timeout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeoutCh:
			return fmt.Errorf("ledger at %s not ready after %v", url, timeout)
		case <-ticker.C:
			if err := client.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}
