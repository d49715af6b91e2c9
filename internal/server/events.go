package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/dyluth/daub/pkg/canvas"
)

const eventsHeartbeatInterval = 15 * time.Second

// ChangedCell is one entry of a cells event.
type ChangedCell struct {
	Index int `json:"index"`
	canvas.VisibleCell
}

// CellsEvent is the data of a "cells" server-sent event: every index that
// changed since the previous event, with what to draw there now.
type CellsEvent struct {
	Cells []ChangedCell `json:"cells"`
	Stats canvas.Stats  `json:"stats"`
}

// changeSet accumulates changed indices between writes. A slow client gets
// one coalesced event instead of a backlog.
type changeSet struct {
	mu      sync.Mutex
	indices map[int]struct{}
	signal  chan struct{}
}

func newChangeSet() *changeSet {
	return &changeSet{
		indices: make(map[int]struct{}),
		signal:  make(chan struct{}, 1),
	}
}

func (c *changeSet) add(changed []int) {
	c.mu.Lock()
	for _, i := range changed {
		c.indices[i] = struct{}{}
	}
	c.mu.Unlock()

	select {
	case c.signal <- struct{}{}:
	default:
	}
}

func (c *changeSet) take() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int, 0, len(c.indices))
	for i := range c.indices {
		out = append(out, i)
	}
	c.indices = make(map[int]struct{})
	sort.Ints(out)
	return out
}

// handleEvents streams store changes as server-sent events until the client
// goes away. Optimistic paints, confirmations, reverts and refreshes all
// arrive here.
// GET /api/v1/events
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "streaming unsupported", Code: "internal"})
		return
	}

	// Streams outlive the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	changes := newChangeSet()
	unsubscribe := s.ctrl.Store().Subscribe(changes.add)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(eventsHeartbeatInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		case <-changes.signal:
			indices := changes.take()
			if len(indices) == 0 {
				continue
			}
			data, err := json.Marshal(s.cellsEvent(indices))
			if err != nil {
				s.logger.Printf("[Server] Failed to marshal cells event: %v", err)
				continue
			}
			fmt.Fprintf(w, "event: cells\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func (s *Server) cellsEvent(indices []int) CellsEvent {
	cells := make([]ChangedCell, 0, len(indices))
	for _, i := range indices {
		cells = append(cells, ChangedCell{Index: i, VisibleCell: s.ctrl.VisibleCell(i)})
	}
	return CellsEvent{Cells: cells, Stats: s.ctrl.Stats()}
}
