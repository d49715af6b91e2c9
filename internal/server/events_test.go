package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dyluth/daub/pkg/canvas"
	"github.com/dyluth/daub/pkg/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedLedger holds every submission until gate is closed.
type gatedLedger struct {
	*ledger.Client
	gate chan struct{}
}

func (g *gatedLedger) SubmitPaint(ctx context.Context, canvasID string, index int, color uint32, coinID string) error {
	select {
	case <-g.gate:
	case <-ctx.Done():
		return ctx.Err()
	}
	return g.Client.SubmitPaint(ctx, canvasID, index, color, coinID)
}

// readCellsEvents decodes "cells" events from an event stream onto a channel.
func readCellsEvents(t *testing.T, resp *http.Response) <-chan CellsEvent {
	t.Helper()
	events := make(chan CellsEvent, 16)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(resp.Body)
		var name string
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event: "):
				name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: ") && name == "cells":
				var ev CellsEvent
				if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err == nil {
					events <- ev
				}
			case line == "":
				name = ""
			}
		}
	}()
	return events
}

func nextCellsEvent(t *testing.T, events <-chan CellsEvent) CellsEvent {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "event stream closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cells event")
		return CellsEvent{}
	}
}

func TestEventsStream(t *testing.T) {
	gate := make(chan struct{})
	env := setupServerWithLedger(t, func(c *ledger.Client) canvas.Ledger {
		return &gatedLedger{Client: c, gate: gate}
	}, func(o *canvas.ControllerOptions) {
		o.SubmitTimeout = 2 * time.Second
	})

	resp, err := http.Get(env.srv.URL + "/api/v1/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	events := readCellsEvents(t, resp)

	t.Run("optimistic paint streams as pending", func(t *testing.T) {
		resp, body := env.do(t, http.MethodPost, "/api/v1/paint", PaintRequest{Index: ptr(5), Color: "#00ff00"})
		require.Equal(t, http.StatusAccepted, resp.StatusCode, string(body))

		ev := nextCellsEvent(t, events)
		assert.Equal(t, []ChangedCell{{Index: 5, VisibleCell: canvas.VisibleCell{Color: "#00ff00", Status: canvas.StatusPending}}}, ev.Cells)
		assert.Equal(t, 1, ev.Stats.Painted)
	})

	t.Run("ledger ack streams as confirmed", func(t *testing.T) {
		close(gate)
		env.ctrl.Wait()

		ev := nextCellsEvent(t, events)
		assert.Equal(t, []ChangedCell{{Index: 5, VisibleCell: canvas.VisibleCell{Color: "#00ff00", Status: canvas.StatusConfirmed}}}, ev.Cells)
	})

	t.Run("refresh streams cells painted elsewhere", func(t *testing.T) {
		ctx := context.Background()
		_, err := env.client.Mint(ctx, "0xthem", 10)
		require.NoError(t, err)
		coin, err := env.client.SelectFundingHandle(ctx, "0xthem")
		require.NoError(t, err)
		require.NoError(t, env.client.SubmitPaint(ctx, env.canvasID, 9, 0x0000FF, coin))

		resp, body := env.do(t, http.MethodPost, "/api/v1/refresh", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		deadline := time.After(2 * time.Second)
		for {
			select {
			case ev, ok := <-events:
				require.True(t, ok, "event stream closed")
				for _, c := range ev.Cells {
					if c.Index == 9 {
						assert.Equal(t, canvas.VisibleCell{Color: "#0000ff", Status: canvas.StatusConfirmed}, c.VisibleCell)
						return
					}
				}
			case <-deadline:
				t.Fatal("refresh change for cell 9 never streamed")
			}
		}
	})
}

func TestChangeSetCoalesces(t *testing.T) {
	changes := newChangeSet()
	changes.add([]int{4, 2})
	changes.add([]int{2, 7})

	<-changes.signal
	assert.Equal(t, []int{2, 4, 7}, changes.take())
	assert.Empty(t, changes.take())

	select {
	case <-changes.signal:
		t.Fatal("signal should fire once per batch of adds")
	default:
	}
}
