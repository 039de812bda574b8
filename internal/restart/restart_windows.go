package restart

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
)

// pythonw keeps the relaunched GUI app from opening a console window.
var interpreterNames = []string{"pythonw.exe", "python.exe"}

// discoverEntryPoint scans the installation for candidate executables,
// preferring one whose name matches the canonical application identifier,
// and falls back to interpreter + entry script.
func (r *Restarter) discoverEntryPoint(appDir string) (string, []string, error) {
	entries, err := os.ReadDir(appDir)
	if err != nil {
		return "", nil, err
	}

	var first string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ".exe") {
			continue
		}
		if strings.Contains(strings.ToLower(name), strings.ToLower(r.AppName)) {
			return filepath.Join(appDir, name), nil, nil
		}
		if first == "" {
			first = name
		}
	}
	if first != "" {
		return filepath.Join(appDir, first), nil, nil
	}

	return r.interpreterEntryPoint()
}

// setDetachedProcAttr detaches the application from the updater's console
// and process group so it survives the updater exiting.
func setDetachedProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | 0x00000008, // 0x00000008 is DETACHED_PROCESS
	}
}
