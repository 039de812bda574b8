package updater

import (
	"path/filepath"
	"time"
)

// Config carries the file-system naming conventions and timing knobs shared
// between the updater components. The values are injected rather than
// recomputed inline so tests can override them.
type Config struct {
	// AppName is the canonical application identifier, used to rank
	// candidate executables during restart.
	AppName string
	// EntryScript is started through an interpreter when no executable or
	// launcher script is found.
	EntryScript string
	// LauncherScript is the preferred launcher on script-launcher platforms.
	LauncherScript string

	// BackupSuffix is appended to the installation directory name to form
	// the sibling backup snapshot path.
	BackupSuffix string
	// PreserveTempSuffix is appended to the installation directory name to
	// form the sibling stash area used during the swap window.
	PreserveTempSuffix string
	// ResultSuffix is appended to the installation directory name to form
	// the sibling result file the relaunched application can read.
	ResultSuffix string
	// UpdateTempMarker names the scratch directory created by the download
	// step; when the staging area's parent carries this name the whole
	// scratch area is removed after a successful update.
	UpdateTempMarker string

	// ExcludeDirNames are directory names skipped when snapshotting the
	// installation (caches, virtualenvs, log directories).
	ExcludeDirNames []string
	// ExcludeFileSuffixes are file name suffixes skipped when snapshotting.
	ExcludeFileSuffixes []string

	// PollInterval is the delay between host-process liveness probes.
	PollInterval time.Duration
	// WaitTimeout bounds how long the updater waits for the host to exit.
	WaitTimeout time.Duration
	// GracePeriod is slept after the host exits so the OS can release file
	// handles before the installation is touched.
	GracePeriod time.Duration
}

func DefaultConfig() Config {
	return Config{
		AppName:             "pythonator",
		EntryScript:         "app.py",
		LauncherScript:      "pythonator.sh",
		BackupSuffix:        "_backup",
		PreserveTempSuffix:  "_preserve_tmp",
		ResultSuffix:        "_update_result.json",
		UpdateTempMarker:    "pythonator_update",
		ExcludeDirNames:     []string{"__pycache__", ".venv", "venv", "logs"},
		ExcludeFileSuffixes: []string{".log"},
		PollInterval:        500 * time.Millisecond,
		WaitTimeout:         30 * time.Second,
		GracePeriod:         time.Second,
	}
}

// BackupDir returns the backup snapshot path for appDir.
func (c Config) BackupDir(appDir string) string {
	return sibling(appDir, c.BackupSuffix)
}

// PreserveTempDir returns the stash area path for appDir.
func (c Config) PreserveTempDir(appDir string) string {
	return sibling(appDir, c.PreserveTempSuffix)
}

// ResultFile returns the result file path for appDir.
func (c Config) ResultFile(appDir string) string {
	return sibling(appDir, c.ResultSuffix)
}

func sibling(appDir, suffix string) string {
	appDir = filepath.Clean(appDir)
	return filepath.Join(filepath.Dir(appDir), filepath.Base(appDir)+suffix)
}
