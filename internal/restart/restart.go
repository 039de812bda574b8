// Package restart relaunches the host application after an update.
package restart

import (
	"fmt"
	"os/exec"

	log "github.com/sirupsen/logrus"
)

// Restarter discovers the installation's entry point and relaunches it. How
// the entry point is found is platform specific; see the per-platform
// discoverEntryPoint implementations.
type Restarter struct {
	// AppName is the canonical application identifier used to rank
	// candidate executables (case-insensitive substring match).
	AppName string
	// EntryScript is the script started through an interpreter when no
	// native executable or launcher script is found.
	EntryScript string
	// LauncherScript is the preferred launcher on script-launcher platforms.
	LauncherScript string
}

// Restart launches the application detached from the updater with the working
// directory set to appDir. It does not wait for or verify successful startup;
// an error is returned only when the process cannot be spawned at all.
func (r *Restarter) Restart(appDir string) error {
	name, args, err := r.discoverEntryPoint(appDir)
	if err != nil {
		return fmt.Errorf("discover entry point: %w", err)
	}

	cmd := exec.Command(name, args...)
	cmd.Dir = appDir
	setDetachedProcAttr(cmd)

	log.Infof("relaunching application: %s", cmd.String())
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}

	log.Infof("application relaunched with PID %d", cmd.Process.Pid)

	// Release the process so the OS can fully detach it
	if err := cmd.Process.Release(); err != nil {
		log.Warnf("failed to release relaunched process: %v", err)
	}
	return nil
}

// interpreterEntryPoint resolves a script interpreter from the current
// execution environment and points it at the entry script. The script path
// stays relative; the spawned process runs with the installation directory
// as its working directory.
func (r *Restarter) interpreterEntryPoint() (string, []string, error) {
	for _, name := range interpreterNames {
		interpreter, err := exec.LookPath(name)
		if err != nil {
			continue
		}
		return interpreter, []string{r.EntryScript}, nil
	}
	return "", nil, fmt.Errorf("no script interpreter found for %s", r.EntryScript)
}
