package canvas

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RawObject is the ledger's object-read result, as decoded from JSON.
// Its layout is owned by the ledger; only Decode interprets it.
type RawObject map[string]any

// Ledger field names. The ledger's table encoding is versioned externally and
// these are the only names this module depends on.
const (
	fieldData         = "data"
	fieldObjectID     = "objectId"
	fieldContent      = "content"
	fieldFields       = "fields"
	fieldContents     = "contents"
	fieldKey          = "key"
	fieldValue        = "value"
	fieldError        = "error"
	fieldPixels       = "pixels"
	fieldContributors = "contributors"
	fieldTotalPainted = "total_painted"
	fieldIsCompleted  = "is_completed"
	fieldPixelPrice   = "pixel_price"
	fieldColor        = "color"
	fieldOwner        = "owner"
	fieldTimestamp    = "timestamp"
)

// Decode converts a raw ledger canvas object into a Snapshot.
//
// Missing tables decode as empty and missing counters as zero. Pixel or
// contributor entries that cannot be interpreted (non-numeric or out-of-range
// index, out-of-range color, wrong shape) are skipped and counted in
// Snapshot.Anomalies; logging them is the caller's job.
//
// Returns ErrDecode only when the object itself is absent or carries no
// content, which is how the ledger reports a canvas that does not exist yet.
func Decode(grid Grid, raw RawObject) (*Snapshot, error) {
	id, fields, err := locateFields(raw)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		ID:           id,
		Cells:        make(map[int]Cell),
		Contributors: make(map[string]int),
		PixelPrice:   "0",
	}

	for _, entry := range tableEntries(fields[fieldPixels]) {
		cell, ok := decodePixel(grid, entry)
		if !ok {
			snap.Anomalies++
			continue
		}
		if _, dup := snap.Cells[cell.Index]; dup {
			snap.Anomalies++
			continue
		}
		snap.Cells[cell.Index] = cell
	}

	for _, entry := range tableEntries(fields[fieldContributors]) {
		key, value, ok := entryKeyValue(entry)
		if !ok {
			snap.Anomalies++
			continue
		}
		owner, okOwner := key.(string)
		count, okCount := toInt64(unwrapFields(value))
		if !okOwner || owner == "" || !okCount || count < 0 {
			snap.Anomalies++
			continue
		}
		snap.Contributors[owner] = int(count)
	}

	if n, ok := toInt64(fields[fieldTotalPainted]); ok && n > 0 {
		snap.TotalPainted = int(n)
	}
	if b, ok := toBool(fields[fieldIsCompleted]); ok {
		snap.IsCompleted = b
	}
	if p, ok := toDecimal(fields[fieldPixelPrice]); ok {
		snap.PixelPrice = p
	}

	return snap, nil
}

// DecodeJSON decodes a JSON-encoded ledger object. Numbers are kept exact.
func DecodeJSON(grid Grid, data []byte) (*Snapshot, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrDecode
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw RawObject
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return Decode(grid, raw)
}

// locateFields walks down to the canvas field map. It accepts the full
// object-read response ({"data": {"content": {"fields": ...}}}) as well as
// {"content": ...} and the bare content level ({"fields": ...}).
func locateFields(raw RawObject) (string, map[string]any, error) {
	if len(raw) == 0 {
		return "", nil, ErrDecode
	}

	obj := map[string]any(raw)
	var id string

	if v, ok := obj[fieldData]; ok {
		data, ok := v.(map[string]any)
		if !ok || len(data) == 0 {
			return "", nil, ErrDecode
		}
		id, _ = data[fieldObjectID].(string)
		content, ok := data[fieldContent].(map[string]any)
		if !ok || len(content) == 0 {
			return "", nil, ErrDecode
		}
		obj = content
	} else if v, ok := obj[fieldContent]; ok {
		content, ok := v.(map[string]any)
		if !ok || len(content) == 0 {
			return "", nil, ErrDecode
		}
		obj = content
	} else if _, ok := obj[fieldFields]; !ok {
		// Neither data, content nor fields: an error response or noise.
		return "", nil, ErrDecode
	}

	if _, isErr := obj[fieldError]; isErr {
		return "", nil, ErrDecode
	}

	fields, _ := obj[fieldFields].(map[string]any)
	if fields == nil {
		fields = map[string]any{}
	}
	return id, fields, nil
}

// tableEntries returns the entry list of a ledger table, which may appear as
// {"fields": {"contents": [...]}}, {"contents": [...]} or a bare list.
func tableEntries(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		if list, ok := t[fieldContents].([]any); ok {
			return list
		}
		if inner, ok := t[fieldFields].(map[string]any); ok {
			if list, ok := inner[fieldContents].([]any); ok {
				return list
			}
		}
	}
	return nil
}

// unwrapFields returns v["fields"] when v is a wrapped struct, else v.
func unwrapFields(v any) any {
	if m, ok := v.(map[string]any); ok {
		if inner, ok := m[fieldFields]; ok {
			return inner
		}
	}
	return v
}

// entryKeyValue extracts key and value from a table entry. Entries that carry
// their value fields inline ({key, color, owner, timestamp}) return the entry
// itself as the value.
func entryKeyValue(entry any) (key any, value any, ok bool) {
	m, isMap := unwrapFields(entry).(map[string]any)
	if !isMap {
		return nil, nil, false
	}
	key, ok = m[fieldKey]
	if !ok {
		return nil, nil, false
	}
	if v, has := m[fieldValue]; has {
		return key, v, true
	}
	return key, m, true
}

func decodePixel(grid Grid, entry any) (Cell, bool) {
	key, value, ok := entryKeyValue(entry)
	if !ok {
		return Cell{}, false
	}

	index, ok := toInt64(key)
	if !ok || index < 0 || index > math.MaxInt32 || !grid.Contains(int(index)) {
		return Cell{}, false
	}

	fields, ok := unwrapFields(value).(map[string]any)
	if !ok {
		return Cell{}, false
	}

	color, ok := toInt64(fields[fieldColor])
	if !ok || color < 0 || color > MaxColor {
		return Cell{}, false
	}

	owner, _ := fields[fieldOwner].(string)
	timestamp, _ := toInt64(fields[fieldTimestamp])

	return Cell{
		Index:     int(index),
		Color:     uint32(color),
		Owner:     owner,
		Timestamp: timestamp,
		Status:    StatusConfirmed,
	}, true
}

// toInt64 accepts the ledger's numeric encodings: decimal strings (u64 values
// are serialised as strings), JSON numbers and native integers.
func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n, err == nil
	case json.Number:
		n, err := t.Int64()
		return n, err == nil
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) || math.Abs(t) > 1<<53 {
			return 0, false
		}
		return int64(t), true
	case int:
		return int64(t), true
	case int64:
		return t, true
	case uint32:
		return int64(t), true
	case uint64:
		if t > math.MaxInt64 {
			return 0, false
		}
		return int64(t), true
	}
	return 0, false
}

func toBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(t)
		return b, err == nil
	}
	return false, false
}

// toDecimal keeps amounts as text so that u64 prices survive untouched.
func toDecimal(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return "", false
		}
		if _, err := strconv.ParseUint(s, 10, 64); err != nil {
			return "", false
		}
		return s, true
	case json.Number:
		return t.String(), true
	case float64:
		if t < 0 {
			return "", false
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	}
	return "", false
}
