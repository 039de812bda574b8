package notify

import (
	"fmt"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
)

func showDialog(title, message string, isError bool) bool {
	osascript, err := exec.LookPath("osascript")
	if err != nil {
		return false
	}

	icon := "note"
	if isError {
		icon = "stop"
	}

	script := fmt.Sprintf(
		`display dialog %s with title %s buttons {"OK"} default button "OK" with icon %s`,
		appleScriptString(message), appleScriptString(title), icon,
	)

	if err := exec.Command(osascript, "-e", script).Run(); err != nil {
		log.Warnf("osascript dialog failed: %v", err)
		return false
	}
	return true
}

// appleScriptString quotes s as an AppleScript string literal.
func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
