package canvas

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// slotState is the per-index state machine. Unpainted indices have no slot.
type slotState uint8

const (
	stateUnpainted slotState = iota
	statePending
	stateConfirmed
)

func (s slotState) String() string {
	switch s {
	case statePending:
		return "pending"
	case stateConfirmed:
		return "confirmed"
	default:
		return "unpainted"
	}
}

// slot holds exactly one state and only the data valid in that state, so
// combinations like "pending without owner" cannot be represented.
type slot struct {
	state   slotState
	pending PendingWrite // valid when state == statePending
	cell    Cell         // valid when state == stateConfirmed
	acked   bool         // confirmed by the ledger locally, not yet seen in a snapshot
}

func (s slot) visible() Cell {
	if s.state == statePending {
		return Cell{
			Index:  s.pending.Index,
			Color:  s.pending.Color,
			Owner:  s.pending.Owner,
			Status: StatusPending,
		}
	}
	return s.cell
}

// Pure transitions. Each takes the current slot and returns the next one;
// Store applies them under its lock.

func applyOptimistic(cur slot, w PendingWrite) (slot, error) {
	switch cur.state {
	case statePending:
		return cur, ErrAlreadyPending
	case stateConfirmed:
		return cur, ErrAlreadyPainted
	}
	return slot{state: statePending, pending: w}, nil
}

func confirm(cur slot, ackedAt time.Time) (slot, bool) {
	if cur.state != statePending {
		return cur, false
	}
	return slot{
		state: stateConfirmed,
		acked: true,
		cell: Cell{
			Index:     cur.pending.Index,
			Color:     cur.pending.Color,
			Owner:     cur.pending.Owner,
			Timestamp: ackedAt.UnixMilli(),
			Status:    StatusConfirmed,
		},
	}, true
}

func revert(cur slot) (slot, bool) {
	if cur.state != statePending {
		return cur, false
	}
	return slot{state: stateUnpainted}, true
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the time source used for submission and
// acknowledgement timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// Store is the reconciliation store: confirmed cells from the last snapshot
// overlaid with locally pending writes. It is safe for concurrent use; every
// transition is atomic with respect to every other.
type Store struct {
	grid Grid
	now  func() time.Time

	mu        sync.Mutex
	slots     map[int]slot
	last      *Snapshot
	listeners map[int]func(changed []int)
	nextID    int
}

// NewStore creates an empty store for grid.
func NewStore(grid Grid, opts ...StoreOption) *Store {
	s := &Store{
		grid:      grid,
		now:       time.Now,
		slots:     make(map[int]slot),
		listeners: make(map[int]func([]int)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Grid returns the grid the store was created for.
func (s *Store) Grid() Grid {
	return s.grid
}

// ApplyOptimistic records a pending write for an unpainted cell and makes it
// immediately visible with StatusPending.
// Fails with ErrOutOfRange, ErrAlreadyPending or ErrAlreadyPainted, in which
// case the store is unchanged.
func (s *Store) ApplyOptimistic(index int, color uint32, owner string) (PendingWrite, error) {
	if !s.grid.Contains(index) {
		return PendingWrite{}, fmt.Errorf("index %d: %w", index, ErrOutOfRange)
	}
	if color > MaxColor {
		return PendingWrite{}, fmt.Errorf("color %#x: %w", color, ErrInvalidColor)
	}
	if owner == "" {
		return PendingWrite{}, fmt.Errorf("pending write for cell %d has no owner: %w", index, ErrNotReady)
	}

	s.mu.Lock()
	w := PendingWrite{Index: index, Color: color, Owner: owner, SubmittedAt: s.now()}
	next, err := applyOptimistic(s.slots[index], w)
	if err != nil {
		s.mu.Unlock()
		return PendingWrite{}, fmt.Errorf("cell %d: %w", index, err)
	}
	s.slots[index] = next
	listeners := s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, []int{index})
	return w, nil
}

// Confirm folds the pending write for index into a Confirmed cell, keeping
// the locally submitted color and owner. Confirming an index without a
// pending write is a no-op and returns false.
func (s *Store) Confirm(index int) bool {
	s.mu.Lock()
	next, changed := confirm(s.slots[index], s.now())
	if !changed {
		s.mu.Unlock()
		return false
	}
	s.slots[index] = next
	listeners := s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, []int{index})
	return true
}

// Revert drops the pending write for index, making it paintable again.
// Reverting an index without a pending write is a no-op and returns false.
func (s *Store) Revert(index int) bool {
	s.mu.Lock()
	if _, changed := revert(s.slots[index]); !changed {
		s.mu.Unlock()
		return false
	}
	delete(s.slots, index)
	listeners := s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, []int{index})
	return true
}

// Refresh replaces the confirmed layer with snap's cells.
//
// Pending writes for indices the snapshot does not mention stay overlaid.
// A pending write whose index the snapshot already contains is dropped: the
// ledger's value wins once observed. Cells confirmed locally but missing from
// the snapshot are kept, since the ledger never un-paints a cell and such a
// snapshot predates the acknowledgement.
//
// Returns the indices whose visible value changed.
func (s *Store) Refresh(snap *Snapshot) []int {
	if snap == nil {
		return nil
	}

	s.mu.Lock()
	next := make(map[int]slot, len(snap.Cells)+len(s.slots))
	for index, cell := range snap.Cells {
		if !s.grid.Contains(index) {
			continue
		}
		cell.Index = index
		cell.Status = StatusConfirmed
		next[index] = slot{state: stateConfirmed, cell: cell}
	}
	for index, cur := range s.slots {
		if _, seen := next[index]; seen {
			continue
		}
		if cur.state == statePending || cur.acked {
			next[index] = cur
		}
	}

	var changed []int
	for index, cur := range s.slots {
		n, ok := next[index]
		if !ok || n.visible() != cur.visible() {
			changed = append(changed, index)
		}
	}
	for index := range next {
		if _, existed := s.slots[index]; !existed {
			changed = append(changed, index)
		}
	}
	sort.Ints(changed)

	s.slots = next
	s.last = snap
	listeners := s.listenersLocked()
	s.mu.Unlock()

	if len(changed) > 0 {
		notify(listeners, changed)
	}
	return changed
}

// Get returns the visible cell at index, applying Pending over Confirmed over
// Unpainted precedence. The second result is false for unpainted cells.
func (s *Store) Get(index int) (Cell, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.slots[index]
	if !ok {
		return Cell{}, false
	}
	return cur.visible(), true
}

// Size counts every non-unpainted index (Pending + Confirmed).
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

// Cells returns a copy of the merged view ordered by index.
func (s *Store) Cells() []Cell {
	s.mu.Lock()
	cells := make([]Cell, 0, len(s.slots))
	for _, cur := range s.slots {
		cells = append(cells, cur.visible())
	}
	s.mu.Unlock()

	sort.Slice(cells, func(i, j int) bool { return cells[i].Index < cells[j].Index })
	return cells
}

// Pending returns the in-flight writes ordered by index.
func (s *Store) Pending() []PendingWrite {
	s.mu.Lock()
	var writes []PendingWrite
	for _, cur := range s.slots {
		if cur.state == statePending {
			writes = append(writes, cur.pending)
		}
	}
	s.mu.Unlock()

	sort.Slice(writes, func(i, j int) bool { return writes[i].Index < writes[j].Index })
	return writes
}

// IsPending reports whether index has a write in flight.
func (s *Store) IsPending(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[index].state == statePending
}

// CountByOwner counts visible cells painted by owner, pending included.
func (s *Store) CountByOwner(owner string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, cur := range s.slots {
		if cur.visible().Owner == owner {
			n++
		}
	}
	return n
}

// LastSnapshot returns the snapshot most recently passed to Refresh, or nil.
func (s *Store) LastSnapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Subscribe registers fn to be called with the changed indices after every
// transition. fn runs outside the store lock and may read the store.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(changed []int)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) listenersLocked() []func([]int) {
	if len(s.listeners) == 0 {
		return nil
	}
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func([]int), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	return fns
}

func notify(listeners []func([]int), changed []int) {
	for _, fn := range listeners {
		fn(append([]int(nil), changed...))
	}
}
