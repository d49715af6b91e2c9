package printer

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture redirects output for the duration of the test with colors off.
func capture(t *testing.T) (out, errOut *bytes.Buffer) {
	t.Helper()
	out, errOut = &bytes.Buffer{}, &bytes.Buffer{}
	noColor := color.NoColor
	color.NoColor = true
	SetOutput(out, errOut)
	t.Cleanup(func() {
		SetOutput(nil, nil)
		color.NoColor = noColor
	})
	return out, errOut
}

func TestError(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		_, errOut := capture(t)
		err := Error("Test Error", "This is a test error", []string{})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
		assert.Equal(t, "Test Error\n\nThis is a test error\n", errOut.String())
	})

	t.Run("prints a single suggestion inline", func(t *testing.T) {
		_, errOut := capture(t)
		err := Error("Test Error", "Explanation", []string{"Try this fix"})
		require.Equal(t, "Test Error", err.Error())
		assert.Contains(t, errOut.String(), "\nTry this fix\n")
		assert.NotContains(t, errOut.String(), "Either:")
	})

	t.Run("numbers multiple suggestions", func(t *testing.T) {
		_, errOut := capture(t)
		err := Error("Test Error", "Explanation", []string{
			"First option",
			"Second option",
		})
		require.Equal(t, "Test Error", err.Error())
		assert.Contains(t, errOut.String(), "Either:\n  1. First option\n  2. Second option\n")
	})
}

func TestErrorWithContext(t *testing.T) {
	_, errOut := capture(t)
	context := map[string]string{
		"Identity": "0xabc",
		"Canvas":   "0xcanvas",
	}
	err := ErrorWithContext("Test Error", "Explanation", context, []string{"Fix it"})
	require.Equal(t, "Test Error", err.Error())
	assert.Contains(t, errOut.String(), "  Canvas: 0xcanvas\n  Identity: 0xabc\n")
}

func TestMessages(t *testing.T) {
	out, errOut := capture(t)

	Success("painted cell %d\n", 7)
	Success("✓ already prefixed\n")
	Warning("low balance\n")
	Pending("cell %d submitted\n", 8)
	Step("connecting\n")
	Info("plain %s\n", "info")

	assert.Equal(t, "✓ painted cell 7\n✓ already prefixed\n⚠️  low balance\n⏳ cell 8 submitted\n→ connecting\nplain info\n", out.String())
	assert.Empty(t, errOut.String())
	assert.Same(t, out, Writer())
}
