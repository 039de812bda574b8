package notify

import (
	"os/exec"

	log "github.com/sirupsen/logrus"
)

// showDialog tries the common dialog helpers in preference order and stops at
// the first one installed on the host.
func showDialog(title, message string, isError bool) bool {
	type candidate struct {
		name string
		args func() []string
	}

	candidates := []candidate{
		{"zenity", func() []string {
			kind := "--info"
			if isError {
				kind = "--error"
			}
			return []string{kind, "--title", title, "--text", message}
		}},
		{"kdialog", func() []string {
			kind := "--msgbox"
			if isError {
				kind = "--error"
			}
			return []string{"--title", title, kind, message}
		}},
		{"xmessage", func() []string {
			return []string{"-center", title + ": " + message}
		}},
	}

	for _, c := range candidates {
		path, err := exec.LookPath(c.name)
		if err != nil {
			continue
		}
		if err := exec.Command(path, c.args()...).Run(); err != nil {
			log.Warnf("%s dialog failed: %v", c.name, err)
			continue
		}
		return true
	}
	return false
}
