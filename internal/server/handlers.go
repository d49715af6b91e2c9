package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dyluth/daub/pkg/canvas"
	"github.com/go-chi/chi/v5"
)

// CellView is one painted cell as served to displays.
type CellView struct {
	Index  int               `json:"index"`
	X      int               `json:"x"`
	Y      int               `json:"y"`
	Color  string            `json:"color"`
	Owner  string            `json:"owner"`
	Status canvas.CellStatus `json:"status"`
}

// CanvasResponse is the body of GET /api/v1/canvas.
type CanvasResponse struct {
	CanvasID    string       `json:"canvas_id"`
	Size        int          `json:"size"`
	Cells       []CellView   `json:"cells"`
	Stats       canvas.Stats `json:"stats"`
	Tool        canvas.Tool  `json:"tool"`
	Color       string       `json:"color"`
	Zoom        float64      `json:"zoom"`
	PixelPrice  string       `json:"pixel_price,omitempty"`
	IsCompleted bool         `json:"is_completed"`
}

// PaintRequest is the body of POST /api/v1/paint. Either Index or both X and
// Y must be set; Color, when set, is painted instead of the active color and
// then becomes the active color.
type PaintRequest struct {
	Index *int   `json:"index,omitempty"`
	X     *int   `json:"x,omitempty"`
	Y     *int   `json:"y,omitempty"`
	Color string `json:"color,omitempty"`
}

// PaintResponse is the body of a successful POST /api/v1/paint.
type PaintResponse struct {
	Index  int               `json:"index"`
	Color  string            `json:"color"`
	Owner  string            `json:"owner"`
	Status canvas.CellStatus `json:"status"`
}

// PickRequest is the body of POST /api/v1/pick.
type PickRequest struct {
	Index int `json:"index"`
}

// PickResponse is the body of POST /api/v1/pick.
type PickResponse struct {
	Color  string `json:"color"`
	Picked bool   `json:"picked"`
}

// PointerRequest is the body of POST /api/v1/pointer, in display pixels
// relative to the canvas origin.
type PointerRequest struct {
	PX float64 `json:"px"`
	PY float64 `json:"py"`
}

// PointerResponse is the body of POST /api/v1/pointer.
type PointerResponse struct {
	Index   int            `json:"index"`
	Tool    canvas.Tool    `json:"tool"`
	Color   string         `json:"color,omitempty"`
	Picked  bool           `json:"picked,omitempty"`
	Pending *PaintResponse `json:"pending,omitempty"`
}

// SettingsRequest is the body of PUT /api/v1/settings. Empty fields are
// left unchanged.
type SettingsRequest struct {
	Tool     canvas.Tool `json:"tool,omitempty"`
	Color    string      `json:"color,omitempty"`
	Zoom     *float64    `json:"zoom,omitempty"`
	Identity *string     `json:"identity,omitempty"`
}

// handleCanvas serves the merged view.
// GET /api/v1/canvas
func (s *Server) handleCanvas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.canvasResponse())
}

func (s *Server) canvasResponse() CanvasResponse {
	store := s.ctrl.Store()
	grid := store.Grid()

	cells := store.Cells()
	views := make([]CellView, 0, len(cells))
	for _, c := range cells {
		x, y, err := grid.IndexToCoord(c.Index)
		if err != nil {
			continue
		}
		display, err := canvas.DecodeColor(c.Color)
		if err != nil {
			continue
		}
		views = append(views, CellView{
			Index:  c.Index,
			X:      x,
			Y:      y,
			Color:  display,
			Owner:  c.Owner,
			Status: c.Status,
		})
	}

	active, _ := canvas.DecodeColor(s.ctrl.Color())
	resp := CanvasResponse{
		CanvasID: s.ctrl.CanvasID(),
		Size:     grid.Size(),
		Cells:    views,
		Stats:    s.ctrl.Stats(),
		Tool:     s.ctrl.Tool(),
		Color:    active,
		Zoom:     s.ctrl.Zoom(),
	}
	if snap := store.LastSnapshot(); snap != nil {
		resp.PixelPrice = snap.PixelPrice
		resp.IsCompleted = snap.IsCompleted
	}
	return resp
}

// handleCell serves what a display should draw at one index.
// GET /api/v1/cells/{index}
func (s *Server) handleCell(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeBadRequest(w, "index must be an integer")
		return
	}
	if !s.ctrl.Store().Grid().Contains(index) {
		writeError(w, fmt.Errorf("index %d: %w", index, canvas.ErrOutOfRange))
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.VisibleCell(index))
}

// handlePaint starts an optimistic paint.
// POST /api/v1/paint
func (s *Server) handlePaint(w http.ResponseWriter, r *http.Request) {
	var req PaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	var index int
	switch {
	case req.Index != nil:
		index = *req.Index
	case req.X != nil && req.Y != nil:
		i, err := s.ctrl.Store().Grid().CoordToIndex(*req.X, *req.Y)
		if err != nil {
			writeError(w, err)
			return
		}
		index = i
	default:
		writeBadRequest(w, "index or x and y required")
		return
	}

	var (
		pw  canvas.PendingWrite
		err error
	)
	if req.Color != "" {
		packed, encErr := canvas.EncodeColor(req.Color)
		if encErr != nil {
			writeError(w, encErr)
			return
		}
		pw, err = s.ctrl.PaintColor(r.Context(), index, packed)
		if err == nil {
			err = s.ctrl.SetColor(packed)
		}
	} else {
		pw, err = s.ctrl.Paint(r.Context(), index)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, pendingResponse(pw))
}

func pendingResponse(pw canvas.PendingWrite) PaintResponse {
	display, _ := canvas.DecodeColor(pw.Color)
	return PaintResponse{
		Index:  pw.Index,
		Color:  display,
		Owner:  pw.Owner,
		Status: canvas.StatusPending,
	}
}

// handlePick copies a cell's color into the active color.
// POST /api/v1/pick
func (s *Server) handlePick(w http.ResponseWriter, r *http.Request) {
	var req PickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}
	if !s.ctrl.Store().Grid().Contains(req.Index) {
		writeError(w, fmt.Errorf("index %d: %w", req.Index, canvas.ErrOutOfRange))
		return
	}

	packed, picked := s.ctrl.Pick(req.Index)
	display, _ := canvas.DecodeColor(packed)
	writeJSON(w, http.StatusOK, PickResponse{Color: display, Picked: picked})
}

// handlePointer dispatches a pointer event to the active tool.
// POST /api/v1/pointer
func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	var req PointerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	out, err := s.ctrl.HandlePointer(r.Context(), req.PX, req.PY)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := PointerResponse{Index: out.Index, Tool: out.Tool, Picked: out.Picked}
	if out.Picked {
		resp.Color, _ = canvas.DecodeColor(out.Color)
	}
	if out.Pending != nil {
		pending := pendingResponse(*out.Pending)
		resp.Pending = &pending
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRefresh re-reads the canvas from the ledger.
// POST /api/v1/refresh
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ctrl.Load(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.canvasResponse())
}

// handleSettings changes the active tool, color, zoom or identity.
// PUT /api/v1/settings
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	if req.Tool != "" {
		if err := s.ctrl.SetTool(req.Tool); err != nil {
			writeBadRequest(w, err.Error())
			return
		}
	}
	if req.Color != "" {
		if err := s.ctrl.SetColorHex(req.Color); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.Zoom != nil {
		s.ctrl.SetZoom(*req.Zoom)
	}
	if req.Identity != nil {
		s.ctrl.SetIdentity(*req.Identity)
	}

	writeJSON(w, http.StatusOK, s.canvasResponse())
}
