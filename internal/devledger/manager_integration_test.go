//go:build integration

package devledger

import (
	"context"
	"testing"
	"time"

	"github.com/dyluth/daub/pkg/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpDown(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cli, err := NewDockerClient(ctx)
	if err != nil {
		t.Skipf("Docker not available: %v", err)
	}
	defer cli.Close()

	name := "it-" + GenerateRunID()[:8]
	info, err := Up(ctx, cli, UpOptions{Name: name})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Down(context.Background(), cli, name) })

	assert.Equal(t, StatusRunning, info.Status)

	client, err := ledger.NewClientFromURL(info.RedisURL)
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.Ping(ctx))

	_, err = Up(ctx, cli, UpOptions{Name: name})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	found, err := Find(ctx, cli, name)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, info.Port, found.Port)

	require.NoError(t, Down(ctx, cli, name))
	found, err = Find(ctx, cli, name)
	require.NoError(t, err)
	assert.Nil(t, found)
}
