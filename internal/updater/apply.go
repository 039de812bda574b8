package updater

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/cfunkz/pythonator-updater/util"
)

// Apply swaps the staged update into appDir in four ordered phases:
//
//  1. stash:   copy every existing preserve entry into the sibling stash area
//  2. wipe:    remove every top-level entry whose name is not preserved
//  3. install: copy every top-level staged entry whose name is not preserved
//  4. restore: copy the stashed entries back over the installed tree
//
// Naming a path in preserve makes its final content authoritative from the
// pre-update tree: the wipe and install phases skip matching top-level names
// entirely, so preserved content is never even transiently deleted there, and
// the restore phase overrides anything staging supplied under the same name.
// The stash area is removed once the restore phase has run, even when the
// restore itself partially failed. A fatal error in an earlier phase leaves
// the stash in place: together with the backup it is the recoverable state.
func (m *Manager) Apply(stagingDir, appDir string, preserve []string) error {
	stashDir := m.cfg.PreserveTempDir(appDir)

	preserved := make(map[string]struct{}, len(preserve))
	for _, p := range preserve {
		preserved[p] = struct{}{}
	}

	if err := m.stash(appDir, stashDir, preserve); err != nil {
		return err
	}

	if err := m.wipe(appDir, preserved); err != nil {
		return err
	}

	if err := m.install(stagingDir, appDir, preserved); err != nil {
		return err
	}

	restoreErr := m.restore(stashDir, appDir, preserve)

	if err := os.RemoveAll(stashDir); err != nil {
		log.Warnf("failed to remove preserve stash %s: %v", stashDir, err)
	}

	return restoreErr
}

// stash copies each preserve entry that exists under appDir into the stash
// area at the same relative path. The area is recreated from scratch so a
// leftover from an interrupted run cannot leak stale content.
func (m *Manager) stash(appDir, stashDir string, preserve []string) error {
	if err := os.RemoveAll(stashDir); err != nil {
		return fmt.Errorf("clear preserve stash: %w", err)
	}
	if err := os.MkdirAll(stashDir, 0o755); err != nil {
		return fmt.Errorf("create preserve stash: %w", err)
	}

	for _, rel := range preserve {
		src := filepath.Join(appDir, rel)
		if _, err := os.Stat(src); os.IsNotExist(err) {
			log.Debugf("preserve entry %s does not exist, skipping", rel)
			continue
		}
		log.Infof("stashing %s", rel)
		if err := util.CopyPath(src, filepath.Join(stashDir, rel)); err != nil {
			return fmt.Errorf("stash %s: %w", rel, err)
		}
	}
	return nil
}

// wipe removes every top-level entry under appDir whose name is not
// preserved. Per-entry removal failures are logged and swallowed so one
// locked file cannot abort the whole wipe; failing to enumerate the
// installation at all is fatal, because install would otherwise merge onto
// a completely unwiped tree.
func (m *Manager) wipe(appDir string, preserved map[string]struct{}) error {
	entries, err := os.ReadDir(appDir)
	if err != nil {
		return fmt.Errorf("read installation directory: %w", err)
	}

	var merr *multierror.Error
	for _, entry := range entries {
		if _, ok := preserved[entry.Name()]; ok {
			continue
		}
		if err := m.remove(filepath.Join(appDir, entry.Name())); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("remove %s: %w", entry.Name(), err))
		}
	}
	if err := merr.ErrorOrNil(); err != nil {
		log.Warnf("some installation entries could not be removed: %v", err)
	}
	return nil
}

// install copies every top-level staged entry whose name is not preserved
// into appDir: directories merge into any remaining destination, files
// overwrite. Failures here are fatal because the installation may be left
// incompletely populated.
func (m *Manager) install(stagingDir, appDir string, preserved map[string]struct{}) error {
	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		return fmt.Errorf("read staging directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if _, ok := preserved[name]; ok {
			log.Debugf("staging entry %s is preserved, skipping", name)
			continue
		}
		src := filepath.Join(stagingDir, name)
		dst := filepath.Join(appDir, name)

		var copyErr error
		if entry.IsDir() {
			copyErr = util.CopyTree(src, dst, nil)
		} else {
			copyErr = util.CopyFile(src, dst)
		}
		if copyErr != nil {
			return fmt.Errorf("install %s: %w", name, copyErr)
		}
	}
	return nil
}

// restore copies each stashed preserve entry back into appDir. A preserved
// directory replaces its destination wholesale; a preserved file overwrites
// it. Failures are collected so every entry gets its restore attempt before
// the error propagates.
func (m *Manager) restore(stashDir, appDir string, preserve []string) error {
	var merr *multierror.Error
	for _, rel := range preserve {
		src := filepath.Join(stashDir, rel)
		info, err := os.Stat(src)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("stat stashed %s: %w", rel, err))
			continue
		}

		dst := filepath.Join(appDir, rel)
		if info.IsDir() {
			if err := os.RemoveAll(dst); err != nil {
				merr = multierror.Append(merr, fmt.Errorf("clear %s before restore: %w", rel, err))
				continue
			}
		}
		log.Infof("restoring %s", rel)
		if err := util.CopyPath(src, dst); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("restore %s: %w", rel, err))
		}
	}
	return merr.ErrorOrNil()
}
