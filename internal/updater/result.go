package updater

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Result records the outcome of one update run. It is written next to the
// installation so the relaunched application (or the user) can inspect what
// happened without parsing logs.
type Result struct {
	RunID         string
	Success       bool
	Error         string
	TargetVersion string
	ExecutedAt    time.Time
}

// ResultHandler reads and writes the update result file.
type ResultHandler struct {
	resultFile string
}

func NewResultHandler(resultFile string) *ResultHandler {
	return &ResultHandler{resultFile: resultFile}
}

// Write stores the result atomically: a temporary file is written first and
// renamed into place, so a reader never observes a partial result.
func (rh *ResultHandler) Write(result Result) error {
	log.Infof("writing update result to %s", rh.resultFile)

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	tmpPath := rh.resultFile + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp result file: %w", err)
	}

	if err := os.Rename(tmpPath, rh.resultFile); err != nil {
		if cleanupErr := os.Remove(tmpPath); cleanupErr != nil {
			log.Warnf("failed to remove temp result file: %v", cleanupErr)
		}
		return fmt.Errorf("rename result file: %w", err)
	}

	return nil
}

// Read returns the stored result.
func (rh *ResultHandler) Read() (Result, error) {
	data, err := os.ReadFile(rh.resultFile)
	if err != nil {
		return Result{}, err
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("invalid result format: %w", err)
	}
	return result, nil
}

// Cleanup removes the result file if it exists.
func (rh *ResultHandler) Cleanup() error {
	err := os.Remove(rh.resultFile)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Watch blocks until the result file appears and returns its content. It is
// meant for the relaunched application: a result written before the watch
// started is returned immediately.
func (rh *ResultHandler) Watch(ctx context.Context) (Result, error) {
	if result, err := rh.Read(); err == nil {
		return result, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			log.Warnf("failed to close result watcher: %v", err)
		}
	}()

	// Watch the directory, not the file: the file does not exist yet.
	if err := watcher.Add(filepath.Dir(rh.resultFile)); err != nil {
		return Result{}, fmt.Errorf("watch result directory: %w", err)
	}

	// The file may have appeared between the first read and the watch setup.
	if result, err := rh.Read(); err == nil {
		return result, nil
	}

	for {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return Result{}, errors.New("result watcher closed unexpectedly")
			}
			if event.Name != rh.resultFile {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				result, err := rh.Read()
				if err != nil {
					log.Debugf("result not readable yet: %v", err)
					continue
				}
				return result, nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return Result{}, errors.New("result watcher closed unexpectedly")
			}
			return Result{}, fmt.Errorf("result watcher: %w", err)
		}
	}
}
