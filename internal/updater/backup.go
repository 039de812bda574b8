package updater

import (
	"fmt"
	"io/fs"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/cfunkz/pythonator-updater/util"
)

// Manager performs the file-system side of an update: the disaster-recovery
// snapshot and the staged-file swap.
type Manager struct {
	cfg Config

	// remove is the best-effort deletion used by the wipe phase; tests
	// substitute it to provoke removal failures.
	remove func(path string) error
}

func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:    cfg,
		remove: os.RemoveAll,
	}
}

// Backup snapshots appDir to its sibling backup directory and returns the
// snapshot path. A stale snapshot from a previous failed run is force-removed
// first, best effort; the copy itself merges into whatever remains, so a
// partial leftover never fails the backup on its own. Any copy error is
// fatal: nothing has been mutated yet, so the run can abort cleanly.
func (m *Manager) Backup(appDir string) (string, error) {
	backupDir := m.cfg.BackupDir(appDir)

	if err := os.RemoveAll(backupDir); err != nil {
		log.Warnf("failed to remove stale backup %s: %v", backupDir, err)
	}

	log.Infof("snapshotting %s to %s", appDir, backupDir)
	if err := util.CopyTree(appDir, backupDir, m.excludeFromBackup); err != nil {
		return "", fmt.Errorf("backup %s: %w", appDir, err)
	}

	return backupDir, nil
}

// excludeFromBackup drops transient artifacts from the snapshot: compiled
// caches, virtualenvs, log directories and log files.
func (m *Manager) excludeFromBackup(relPath string, d fs.DirEntry) bool {
	name := d.Name()
	if d.IsDir() {
		for _, dir := range m.cfg.ExcludeDirNames {
			if name == dir {
				return true
			}
		}
		return false
	}
	for _, suffix := range m.cfg.ExcludeFileSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
