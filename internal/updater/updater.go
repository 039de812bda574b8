// Package updater implements the self-update pipeline: wait for the host to
// exit, snapshot the installation, swap in the staged files while keeping the
// preserve list intact, clean up, and relaunch the host.
package updater

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/cfunkz/pythonator-updater/internal/notify"
	"github.com/cfunkz/pythonator-updater/internal/proc"
	"github.com/cfunkz/pythonator-updater/internal/restart"
)

// UpdateRequest is the immutable input for one update run.
type UpdateRequest struct {
	StagingDir    string
	AppDir        string
	PID           int32
	Preserve      []string
	TargetVersion string
}

type processWaiter interface {
	Wait(ctx context.Context, pid int32) bool
}

type hostRestarter interface {
	Restart(appDir string) error
}

type notifier interface {
	Notify(title, message string, isError bool)
}

type fileManager interface {
	Backup(appDir string) (string, error)
	Apply(stagingDir, appDir string, preserve []string) error
}

// Updater sequences the update pipeline and owns the error policy: backup,
// swap, and restart errors are fatal; every cleanup step and per-entry wipe
// failure is logged and ignored. On any fatal error the backup snapshot is
// retained as the sole recovery mechanism.
type Updater struct {
	cfg       Config
	files     fileManager
	waiter    processWaiter
	restarter hostRestarter
	notifier  notifier
}

func New(cfg Config) *Updater {
	return &Updater{
		cfg:    cfg,
		files:  NewManager(cfg),
		waiter: proc.NewWaiter(cfg.PollInterval, cfg.WaitTimeout),
		restarter: &restart.Restarter{
			AppName:        cfg.AppName,
			EntryScript:    cfg.EntryScript,
			LauncherScript: cfg.LauncherScript,
		},
		notifier: notify.New(),
	}
}

// WithWaiter is used by tests to substitute the liveness probe.
func (u *Updater) WithWaiter(w processWaiter) *Updater {
	u.waiter = w
	return u
}

// WithRestarter is used by tests to substitute the relaunch step.
func (u *Updater) WithRestarter(r hostRestarter) *Updater {
	u.restarter = r
	return u
}

// WithNotifier is used by tests to capture notifications.
func (u *Updater) WithNotifier(n notifier) *Updater {
	u.notifier = n
	return u
}

// WithFileManager is used by tests to substitute the backup/apply steps.
func (u *Updater) WithFileManager(m fileManager) *Updater {
	u.files = m
	return u
}

// Run executes one update. It returns nil on success; any error has already
// been reported to the user and recorded in the result file by the time it
// propagates, so the caller only needs to map it to the exit code.
func (u *Updater) Run(ctx context.Context, req UpdateRequest) error {
	runID := uuid.New().String()
	logger := log.WithField("run", runID)
	results := NewResultHandler(u.cfg.ResultFile(req.AppDir))

	logger.Infof("updating %s from %s (pid %d, preserve %v)",
		req.AppDir, req.StagingDir, req.PID, req.Preserve)

	logger.Infof("waiting for pid %d to exit", req.PID)
	if !u.waiter.Wait(ctx, req.PID) {
		err := fmt.Errorf("application (pid %d) did not exit within %s", req.PID, u.cfg.WaitTimeout)
		u.fail(results, runID, req.TargetVersion, err)
		return err
	}

	// grace period so the OS releases file handles held by the exited host
	time.Sleep(u.cfg.GracePeriod)

	if err := u.swap(logger, req); err != nil {
		u.fail(results, runID, req.TargetVersion, err)
		return err
	}

	u.writeResult(results, Result{
		RunID:         runID,
		Success:       true,
		TargetVersion: req.TargetVersion,
		ExecutedAt:    time.Now(),
	})

	logger.Infof("update complete")
	return nil
}

// swap is the mutating part of the pipeline. From the first Backup write
// onward a failure leaves the snapshot in place for manual recovery.
func (u *Updater) swap(logger *log.Entry, req UpdateRequest) error {
	if err := checkStaging(req.StagingDir); err != nil {
		return err
	}

	backupDir, err := u.files.Backup(req.AppDir)
	if err != nil {
		return err
	}

	if err := u.files.Apply(req.StagingDir, req.AppDir, req.Preserve); err != nil {
		return err
	}

	u.cleanupScratch(logger, req.StagingDir)

	if err := os.RemoveAll(backupDir); err != nil {
		logger.Warnf("failed to remove backup %s: %v", backupDir, err)
	}

	if err := u.restarter.Restart(req.AppDir); err != nil {
		return fmt.Errorf("restart: %w", err)
	}
	return nil
}

// cleanupScratch removes the whole download/extract area, but only when the
// staging directory's parent carries the well-known marker name; anything
// else is not ours to delete.
func (u *Updater) cleanupScratch(logger *log.Entry, stagingDir string) {
	parent := filepath.Dir(filepath.Clean(stagingDir))
	if filepath.Base(parent) != u.cfg.UpdateTempMarker {
		logger.Debugf("staging parent %s is not the update scratch area, leaving it", parent)
		return
	}
	if err := os.RemoveAll(parent); err != nil {
		logger.Warnf("failed to remove update scratch area %s: %v", parent, err)
	}
}

// checkStaging refuses to start the swap when the staging area is unusable.
// A missing staging directory would otherwise surface only in the install
// phase, after the wipe has already emptied the installation.
func checkStaging(stagingDir string) error {
	info, err := os.Stat(stagingDir)
	if err != nil {
		return fmt.Errorf("staging directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("staging path %s is not a directory", stagingDir)
	}
	return nil
}

func (u *Updater) fail(results *ResultHandler, runID, targetVersion string, err error) {
	log.WithField("run", runID).Errorf("update failed: %v", err)

	u.notifier.Notify("Update failed", err.Error(), true)

	u.writeResult(results, Result{
		RunID:         runID,
		Success:       false,
		Error:         err.Error(),
		TargetVersion: targetVersion,
		ExecutedAt:    time.Now(),
	})
}

func (u *Updater) writeResult(results *ResultHandler, result Result) {
	if err := results.Write(result); err != nil {
		log.Warnf("failed to write update result: %v", err)
	}
}
