//go:build !windows

package restart

import (
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

var interpreterNames = []string{"python3", "python"}

// discoverEntryPoint prefers a named, executable launcher script inside the
// installation and falls back to interpreter + entry script.
func (r *Restarter) discoverEntryPoint(appDir string) (string, []string, error) {
	launcher := filepath.Join(appDir, r.LauncherScript)
	if info, err := os.Stat(launcher); err == nil && info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0 {
		return launcher, nil, nil
	}

	return r.interpreterEntryPoint()
}

// setDetachedProcAttr runs the application in a new session so it survives
// the updater process exiting.
func setDetachedProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}
}
