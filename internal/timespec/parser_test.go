package timespec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		want    int64
		wantErr bool
	}{
		{"duration", "2h", now.Add(-2 * time.Hour).UnixMilli(), false},
		{"compound duration", "1h30m", now.Add(-90 * time.Minute).UnixMilli(), false},
		{"rfc3339", "2026-10-19T10:00:00Z", time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC).UnixMilli(), false},
		{"now", "now", now.UnixMilli(), false},
		{"empty", "", 0, true},
		{"negative duration", "-1h", 0, true},
		{"garbage", "yesterday", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.spec, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRange(t *testing.T) {
	t.Run("open range", func(t *testing.T) {
		since, until, err := ParseRange("", "", now)
		require.NoError(t, err)
		assert.Zero(t, since)
		assert.Zero(t, until)
	})

	t.Run("both bounds", func(t *testing.T) {
		since, until, err := ParseRange("2h", "1h", now)
		require.NoError(t, err)
		assert.Less(t, since, until)
	})

	t.Run("inverted range", func(t *testing.T) {
		_, _, err := ParseRange("1h", "2h", now)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--since must be before --until")
	})

	t.Run("bad since", func(t *testing.T) {
		_, _, err := ParseRange("soon", "", now)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid --since")
	})
}
