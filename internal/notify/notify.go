// Package notify shows best-effort failure dialogs to the user.
package notify

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// Notifier reports updater outcomes to the user through whatever dialog
// mechanism the platform offers, falling back to plain console output. It
// never fails: a broken notification must not mask the error being reported.
type Notifier struct {
	dialog func(title, message string, isError bool) bool
	out    io.Writer
}

func New() *Notifier {
	return &Notifier{
		dialog: showDialog,
		out:    os.Stdout,
	}
}

// NewWithDialog is used by tests to substitute the platform dialog.
func NewWithDialog(dialog func(title, message string, isError bool) bool, out io.Writer) *Notifier {
	return &Notifier{
		dialog: dialog,
		out:    out,
	}
}

// Notify displays title and message to the user. When no dialog mechanism is
// available the message is written as "title: message" to standard output.
func (n *Notifier) Notify(title, message string, isError bool) {
	if n.tryDialog(title, message, isError) {
		return
	}

	if _, err := fmt.Fprintf(n.out, "%s: %s\n", title, message); err != nil {
		log.Warnf("failed to write notification: %v", err)
	}
}

// tryDialog reports whether a platform dialog was shown. A panicking dialog
// mechanism counts as unavailable so the console fallback still runs.
func (n *Notifier) tryDialog(title, message string, isError bool) (shown bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Warnf("notification dialog panicked: %v", r)
			shown = false
		}
	}()
	return n.dialog(title, message, isError)
}
