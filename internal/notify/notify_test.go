package notify

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotifyFallsBackToConsole(t *testing.T) {
	var out bytes.Buffer
	n := NewWithDialog(func(title, message string, isError bool) bool {
		return false
	}, &out)

	n.Notify("Update failed", "disk full", true)

	assert.Equal(t, "Update failed: disk full\n", out.String())
}

func TestNotifySkipsConsoleWhenDialogShown(t *testing.T) {
	var out bytes.Buffer
	shown := false
	n := NewWithDialog(func(title, message string, isError bool) bool {
		shown = true
		assert.Equal(t, "Update complete", title)
		assert.False(t, isError)
		return true
	}, &out)

	n.Notify("Update complete", "restarting", false)

	assert.True(t, shown)
	assert.Empty(t, out.String())
}

func TestNotifyPanickingDialogFallsBackToConsole(t *testing.T) {
	var out bytes.Buffer
	n := NewWithDialog(func(title, message string, isError bool) bool {
		panic("broken display")
	}, &out)

	assert.NotPanics(t, func() {
		n.Notify("Update failed", "oops", true)
	})

	// the message must not be lost when the dialog mechanism blows up
	assert.Equal(t, "Update failed: oops\n", out.String())
}
