package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Ledger is the narrow interface the controller needs from the remote ledger.
type Ledger interface {
	// ReadCanvasObject fetches the raw canvas object. Any error is treated as
	// "snapshot unavailable".
	ReadCanvasObject(ctx context.Context, canvasID string) (RawObject, error)

	// SubmitPaint submits a single-cell paint transaction paid with
	// fundingHandle. One attempt; no retries.
	SubmitPaint(ctx context.Context, canvasID string, index int, color uint32, fundingHandle string) error

	// SelectFundingHandle picks something the identity can pay with.
	// An error means there is nothing to pay with.
	SelectFundingHandle(ctx context.Context, identity string) (string, error)
}

// Zoom bounds and step used by the canvas view.
const (
	MinZoom  = 0.5
	MaxZoom  = 3.0
	ZoomStep = 0.25
)

// PaintResult reports how a submitted paint resolved.
type PaintResult struct {
	Index   int           `json:"index"`
	Color   uint32        `json:"color"`
	Err     error         `json:"-"`       // nil on success, *SubmitError otherwise
	Elapsed time.Duration `json:"elapsed"` // submission round trip
}

// PointerOutcome describes what a pointer event did.
type PointerOutcome struct {
	Index   int           // -1 when the pointer fell outside the grid
	Tool    Tool          // tool that handled the event
	Color   uint32        // picked color (eyedropper) or painted color (paint)
	Picked  bool          // eyedropper found a painted cell
	Pending *PendingWrite // paint started
}

// Stats summarises progress for the info panel.
type Stats struct {
	Painted         int `json:"painted"`          // Pending + Confirmed cells
	Total           int `json:"total"`            // N²
	ProgressPct     int `json:"progress_pct"`     // rounded percent of Total
	Mine            int `json:"mine"`             // cells owned by the current identity
	ContributionPct int `json:"contribution_pct"` // rounded percent of Painted
}

// ControllerOptions configures a Controller.
type ControllerOptions struct {
	CanvasID      string            // Ledger object id of the canvas
	Identity      string            // Painter identity (wallet address)
	CellSize      float64           // On-screen cell size at zoom 1 (default DefaultCellSize)
	SubmitTimeout time.Duration     // Per-submission deadline (default 30s)
	RateLimit     rate.Limit        // Submissions per second, 0 = unlimited
	RateBurst     int               // Burst for RateLimit (default 1)
	OnResult      func(PaintResult) // Called once per resolved submission; must not call Close
	Logger        *log.Logger       // Defaults to log.Default()
}

// Controller sequences paint actions: pointer mapping, tool dispatch,
// optimistic apply, asynchronous submission, and reconciliation.
type Controller struct {
	grid   Grid
	store  *Store
	ledger Ledger
	opts   ControllerOptions
	logger *log.Logger

	mu       sync.Mutex
	canvasID string
	identity string
	tool     Tool
	color    uint32
	zoom     float64

	limiter  *rate.Limiter
	inflight sync.WaitGroup
	closed   atomic.Bool

	// resolveMu orders result reconciliation against Close.
	resolveMu sync.Mutex
}

// NewController creates a controller driving store against ledger.
func NewController(grid Grid, store *Store, ledger Ledger, opts ControllerOptions) *Controller {
	if opts.CellSize <= 0 {
		opts.CellSize = DefaultCellSize
	}
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	c := &Controller{
		grid:     grid,
		store:    store,
		ledger:   ledger,
		opts:     opts,
		logger:   logger,
		canvasID: opts.CanvasID,
		identity: opts.Identity,
		tool:     ToolPaint,
		color:    0xFF0000,
		zoom:     1,
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(opts.RateLimit, burst)
	}
	return c
}

// Store returns the reconciliation store the controller drives.
func (c *Controller) Store() *Store {
	return c.store
}

// SetIdentity sets the painter identity. An empty identity makes the
// controller not ready.
func (c *Controller) SetIdentity(identity string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity = identity
}

// Identity returns the current painter identity.
func (c *Controller) Identity() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// SetCanvasID points the controller at a canvas object.
func (c *Controller) SetCanvasID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.canvasID = id
}

// CanvasID returns the current canvas object id.
func (c *Controller) CanvasID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canvasID
}

// SetTool selects the active tool.
func (c *Controller) SetTool(t Tool) error {
	if err := t.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tool = t
	return nil
}

// Tool returns the active tool.
func (c *Controller) Tool() Tool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tool
}

// SetColor sets the active packed color.
func (c *Controller) SetColor(packed uint32) error {
	if packed > MaxColor {
		return fmt.Errorf("color %#x: %w", packed, ErrInvalidColor)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.color = packed
	return nil
}

// SetColorHex sets the active color from a display string such as "#ff0000".
func (c *Controller) SetColorHex(display string) error {
	packed, err := EncodeColor(display)
	if err != nil {
		return err
	}
	return c.SetColor(packed)
}

// Color returns the active packed color.
func (c *Controller) Color() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.color
}

// SetZoom sets the zoom factor, clamped to [MinZoom, MaxZoom], and returns
// the value applied.
func (c *Controller) SetZoom(z float64) float64 {
	z = math.Max(MinZoom, math.Min(MaxZoom, z))
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zoom = z
	return z
}

// Zoom returns the current zoom factor.
func (c *Controller) Zoom() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zoom
}

// ZoomIn increases the zoom by one step.
func (c *Controller) ZoomIn() float64 {
	return c.SetZoom(c.Zoom() + ZoomStep)
}

// ZoomOut decreases the zoom by one step.
func (c *Controller) ZoomOut() float64 {
	return c.SetZoom(c.Zoom() - ZoomStep)
}

// Load pulls the canvas object from the ledger, decodes it and refreshes the
// store's confirmed layer. Read failures are wrapped in
// ErrSnapshotUnavailable; a missing or empty object yields ErrDecode.
func (c *Controller) Load(ctx context.Context) (*Snapshot, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	canvasID := c.CanvasID()
	if canvasID == "" {
		return nil, fmt.Errorf("load canvas: %w", ErrNotReady)
	}

	raw, err := c.ledger.ReadCanvasObject(ctx, canvasID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotUnavailable, err)
	}

	snap, err := Decode(c.grid, raw)
	if err != nil {
		c.logEvent("snapshot_decode_failed", map[string]interface{}{
			"level":  "warn",
			"canvas": canvasID,
			"error":  err.Error(),
		})
		return nil, fmt.Errorf("decode canvas %s: %w", canvasID, err)
	}
	if snap.ID == "" {
		snap.ID = canvasID
	}

	if c.closed.Load() {
		return snap, nil
	}
	changed := c.store.Refresh(snap)

	fields := map[string]interface{}{
		"canvas":        canvasID,
		"cells":         len(snap.Cells),
		"total_painted": snap.TotalPainted,
		"is_completed":  snap.IsCompleted,
		"changed":       len(changed),
	}
	if snap.Anomalies > 0 {
		fields["anomalies"] = snap.Anomalies
	}
	c.logEvent("snapshot_loaded", fields)

	return snap, nil
}

// HandlePointer maps a pointer position (relative to the canvas origin, in
// display pixels) to a cell and dispatches it to the active tool. A pointer
// outside the grid is a no-op with Index -1.
func (c *Controller) HandlePointer(ctx context.Context, px, py float64) (PointerOutcome, error) {
	if err := c.ready(); err != nil {
		return PointerOutcome{Index: -1}, err
	}

	index, err := c.grid.PointerToIndex(px, py, c.opts.CellSize, c.Zoom())
	if err != nil {
		return PointerOutcome{Index: -1, Tool: c.Tool()}, nil
	}

	switch c.Tool() {
	case ToolEyedropper:
		color, ok := c.Pick(index)
		return PointerOutcome{Index: index, Tool: ToolEyedropper, Color: color, Picked: ok}, nil
	default:
		w, err := c.Paint(ctx, index)
		if err != nil {
			return PointerOutcome{Index: index, Tool: ToolPaint}, err
		}
		return PointerOutcome{Index: index, Tool: ToolPaint, Color: w.Color, Pending: &w}, nil
	}
}

// Pick copies the color of the cell at index into the active color and
// switches back to the paint tool. Unpainted cells leave everything unchanged.
func (c *Controller) Pick(index int) (uint32, bool) {
	cell, ok := c.store.Get(index)
	if !ok {
		return c.Color(), false
	}
	c.mu.Lock()
	c.color = cell.Color
	c.tool = ToolPaint
	c.mu.Unlock()
	return cell.Color, true
}

// Paint applies an optimistic write of the active color to index and submits
// it to the ledger in the background. The returned PendingWrite is already
// visible in the store; its resolution is reported through OnResult.
func (c *Controller) Paint(ctx context.Context, index int) (PendingWrite, error) {
	return c.paint(ctx, index, c.Color())
}

// PaintColor is Paint with an explicit color. The active color is untouched.
func (c *Controller) PaintColor(ctx context.Context, index int, packed uint32) (PendingWrite, error) {
	if packed > MaxColor {
		return PendingWrite{}, fmt.Errorf("color %#x: %w", packed, ErrInvalidColor)
	}
	return c.paint(ctx, index, packed)
}

func (c *Controller) paint(ctx context.Context, index int, color uint32) (PendingWrite, error) {
	if err := c.ready(); err != nil {
		return PendingWrite{}, err
	}
	if !c.grid.Contains(index) {
		return PendingWrite{}, fmt.Errorf("index %d: %w", index, ErrOutOfRange)
	}
	if _, occupied := c.store.Get(index); occupied {
		return PendingWrite{}, fmt.Errorf("cell %d: %w", index, ErrCellOccupied)
	}
	if c.limiter != nil && !c.limiter.Allow() {
		return PendingWrite{}, ErrRateLimited
	}

	c.mu.Lock()
	canvasID, identity := c.canvasID, c.identity
	c.mu.Unlock()

	w, err := c.store.ApplyOptimistic(index, color, identity)
	if err != nil {
		if IsContention(err) {
			return PendingWrite{}, fmt.Errorf("%w: %w", ErrCellOccupied, err)
		}
		return PendingWrite{}, err
	}

	c.logEvent("paint_submitted", map[string]interface{}{
		"canvas": canvasID,
		"index":  index,
		"color":  color,
		"owner":  identity,
	})

	c.inflight.Add(1)
	go c.submit(context.WithoutCancel(ctx), canvasID, w)

	return w, nil
}

// submit runs one ledger submission and reconciles the store with its result.
func (c *Controller) submit(parent context.Context, canvasID string, w PendingWrite) {
	defer c.inflight.Done()

	ctx, cancel := context.WithTimeout(parent, c.opts.SubmitTimeout)
	defer cancel()

	start := time.Now()
	err := c.submitOnce(ctx, canvasID, w)
	result := PaintResult{Index: w.Index, Color: w.Color, Elapsed: time.Since(start)}

	c.resolveMu.Lock()
	defer c.resolveMu.Unlock()

	if c.closed.Load() {
		c.logEvent("paint_result_discarded", map[string]interface{}{
			"canvas":    canvasID,
			"index":     w.Index,
			"succeeded": err == nil,
		})
		return
	}

	if err != nil {
		c.store.Revert(w.Index)
		result.Err = &SubmitError{Index: w.Index, Err: err}
		c.logEvent("paint_reverted", map[string]interface{}{
			"level":      "warn",
			"canvas":     canvasID,
			"index":      w.Index,
			"error":      err.Error(),
			"latency_ms": result.Elapsed.Milliseconds(),
		})
	} else {
		c.store.Confirm(w.Index)
		c.logEvent("paint_confirmed", map[string]interface{}{
			"canvas":     canvasID,
			"index":      w.Index,
			"latency_ms": result.Elapsed.Milliseconds(),
		})
	}

	if c.opts.OnResult != nil {
		c.opts.OnResult(result)
	}
}

func (c *Controller) submitOnce(ctx context.Context, canvasID string, w PendingWrite) error {
	handle, err := c.ledger.SelectFundingHandle(ctx, w.Owner)
	if err != nil {
		return fmt.Errorf("no funding for %s: %w", w.Owner, err)
	}
	if handle == "" {
		return fmt.Errorf("no funding for %s", w.Owner)
	}
	if err := c.ledger.SubmitPaint(ctx, canvasID, w.Index, w.Color, handle); err != nil {
		return fmt.Errorf("submit paint: %w", err)
	}
	return nil
}

// VisibleCell returns what the display layer should draw at index.
func (c *Controller) VisibleCell(index int) VisibleCell {
	cell, ok := c.store.Get(index)
	if !ok {
		return VisibleCell{}
	}
	display, err := DecodeColor(cell.Color)
	if err != nil {
		return VisibleCell{}
	}
	return VisibleCell{Color: display, Status: cell.Status}
}

// Stats summarises canvas progress and the current identity's share.
func (c *Controller) Stats() Stats {
	painted := c.store.Size()
	total := c.grid.Cells()
	mine := 0
	if identity := c.Identity(); identity != "" {
		mine = c.store.CountByOwner(identity)
	}
	return Stats{
		Painted:         painted,
		Total:           total,
		ProgressPct:     int(math.Round(float64(painted) / float64(total) * 100)),
		Mine:            mine,
		ContributionPct: int(math.Round(float64(mine) / math.Max(1, float64(painted)) * 100)),
	}
}

// Wait blocks until every in-flight submission has resolved.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// Close stops the controller from driving further updates. In-flight
// submissions are not aborted; their results are discarded. A result already
// being applied finishes before Close returns.
func (c *Controller) Close() error {
	c.resolveMu.Lock()
	defer c.resolveMu.Unlock()
	c.closed.Store(true)
	return nil
}

func (c *Controller) ready() error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == "" || c.canvasID == "" {
		return ErrNotReady
	}
	return nil
}

// logEvent writes a single-line JSON event.
func (c *Controller) logEvent(eventType string, data map[string]interface{}) {
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	if _, ok := data["level"]; !ok {
		data["level"] = "info"
	}
	data["component"] = "canvas"
	data["event_type"] = eventType

	jsonData, err := json.Marshal(data)
	if err != nil {
		c.logger.Printf("[Canvas] Failed to marshal log event: %v", err)
		return
	}

	c.logger.Println(string(jsonData))
}

// IsNotReady returns true if err means the controller lacks an identity or
// canvas and the user should be prompted to set one up.
func IsNotReady(err error) bool {
	return errors.Is(err, ErrNotReady)
}
