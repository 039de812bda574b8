package updater

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type waiterStub struct {
	exited bool
}

func (w *waiterStub) Wait(ctx context.Context, pid int32) bool {
	return w.exited
}

type restarterSpy struct {
	appDir string
	err    error
}

func (r *restarterSpy) Restart(appDir string) error {
	r.appDir = appDir
	return r.err
}

type notifierSpy struct {
	titles   []string
	messages []string
	errors   []bool
}

func (n *notifierSpy) Notify(title, message string, isError bool) {
	n.titles = append(n.titles, title)
	n.messages = append(n.messages, message)
	n.errors = append(n.errors, isError)
}

// newRun builds an updater with a staged tree under the well-known scratch
// marker and all external collaborators faked out.
func newRun(t *testing.T, cfg Config, appFiles, stagedFiles map[string]string) (*Updater, UpdateRequest, *restarterSpy, *notifierSpy) {
	t.Helper()

	appDir := newInstallation(t, appFiles)

	scratch := filepath.Join(t.TempDir(), cfg.UpdateTempMarker)
	stagingDir := filepath.Join(scratch, "staging")
	require.NoError(t, os.MkdirAll(stagingDir, 0o755))
	for rel, content := range stagedFiles {
		path := filepath.Join(stagingDir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	restarter := &restarterSpy{}
	notifier := &notifierSpy{}
	u := New(cfg).
		WithWaiter(&waiterStub{exited: true}).
		WithRestarter(restarter).
		WithNotifier(notifier)

	req := UpdateRequest{
		StagingDir:    stagingDir,
		AppDir:        appDir,
		PID:           4242,
		Preserve:      []string{"bots.json", "logs"},
		TargetVersion: "0.3.0",
	}
	return u, req, restarter, notifier
}

func TestRunSuccess(t *testing.T) {
	cfg := testConfig()
	u, req, restarter, notifier := newRun(t,
		cfg,
		map[string]string{
			"app.py":        "v1",
			"bots.json":     `{"bots":["custom"]}`,
			"logs/bot1.log": "history",
		},
		map[string]string{
			"app.py":    "v2",
			"bots.json": `{"bots":[]}`,
		},
	)

	require.NoError(t, u.Run(context.Background(), req))

	// updated tree with preserved entries intact
	assert.Equal(t, "v2", readFile(t, filepath.Join(req.AppDir, "app.py")))
	assert.Equal(t, `{"bots":["custom"]}`, readFile(t, filepath.Join(req.AppDir, "bots.json")))
	assert.Equal(t, "history", readFile(t, filepath.Join(req.AppDir, "logs", "bot1.log")))

	// all scratch state is gone
	assert.NoDirExists(t, cfg.BackupDir(req.AppDir))
	assert.NoDirExists(t, cfg.PreserveTempDir(req.AppDir))
	assert.NoDirExists(t, filepath.Dir(req.StagingDir))

	// host relaunched from the installation, no dialog shown
	assert.Equal(t, req.AppDir, restarter.appDir)
	assert.Empty(t, notifier.titles)

	// result records the successful run
	result, err := NewResultHandler(cfg.ResultFile(req.AppDir)).Read()
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "0.3.0", result.TargetVersion)
	assert.NotEmpty(t, result.RunID)
}

func TestRunLeavesForeignStagingParentAlone(t *testing.T) {
	cfg := testConfig()
	u, req, _, _ := newRun(t, cfg,
		map[string]string{"app.py": "v1"},
		map[string]string{"app.py": "v2"},
	)

	// move staging out of the marker directory
	foreign := filepath.Join(t.TempDir(), "downloads", "staging")
	require.NoError(t, os.MkdirAll(filepath.Dir(foreign), 0o755))
	require.NoError(t, os.Rename(req.StagingDir, foreign))
	req.StagingDir = foreign

	require.NoError(t, u.Run(context.Background(), req))

	assert.DirExists(t, filepath.Dir(foreign))
}

func TestRunTimeoutLeavesInstallationUntouched(t *testing.T) {
	cfg := testConfig()
	u, req, restarter, notifier := newRun(t, cfg,
		map[string]string{"app.py": "v1"},
		map[string]string{"app.py": "v2"},
	)
	u.WithWaiter(&waiterStub{exited: false})

	err := u.Run(context.Background(), req)
	require.Error(t, err)

	// nothing was mutated and no backup was made
	assert.Equal(t, "v1", readFile(t, filepath.Join(req.AppDir, "app.py")))
	assert.NoDirExists(t, cfg.BackupDir(req.AppDir))
	assert.Empty(t, restarter.appDir)

	// the user saw an error dialog and the result records the failure
	require.Len(t, notifier.titles, 1)
	assert.True(t, notifier.errors[0])

	result, err := NewResultHandler(cfg.ResultFile(req.AppDir)).Read()
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestRunMissingStagingFailsBeforeMutation(t *testing.T) {
	cfg := testConfig()
	u, req, _, notifier := newRun(t, cfg,
		map[string]string{"app.py": "v1"},
		map[string]string{"app.py": "v2"},
	)
	require.NoError(t, os.RemoveAll(req.StagingDir))

	err := u.Run(context.Background(), req)
	require.Error(t, err)

	assert.Equal(t, "v1", readFile(t, filepath.Join(req.AppDir, "app.py")))
	assert.NoDirExists(t, cfg.BackupDir(req.AppDir))
	require.Len(t, notifier.titles, 1)
}

func TestRunRestartFailureIsFatal(t *testing.T) {
	cfg := testConfig()
	u, req, restarter, notifier := newRun(t, cfg,
		map[string]string{"app.py": "v1"},
		map[string]string{"app.py": "v2"},
	)
	restarter.err = assert.AnError

	err := u.Run(context.Background(), req)
	require.Error(t, err)

	// the swap itself already happened
	assert.Equal(t, "v2", readFile(t, filepath.Join(req.AppDir, "app.py")))

	require.Len(t, notifier.titles, 1)
	result, readErr := NewResultHandler(cfg.ResultFile(req.AppDir)).Read()
	require.NoError(t, readErr)
	assert.False(t, result.Success)
}

func TestRunStagingNotADirectoryFailsBeforeMutation(t *testing.T) {
	cfg := testConfig()
	u, req, _, notifier := newRun(t, cfg,
		map[string]string{
			"app.py":    "v1",
			"bots.json": `{"bots":["custom"]}`,
		},
		map[string]string{"app.py": "v2"},
	)

	stagedFile := filepath.Join(filepath.Dir(req.StagingDir), "not-a-dir")
	require.NoError(t, os.WriteFile(stagedFile, []byte("x"), 0o644))
	req.StagingDir = stagedFile

	err := u.Run(context.Background(), req)
	require.Error(t, err)

	// no backup was created because the failure precedes mutation
	assert.NoDirExists(t, cfg.BackupDir(req.AppDir))
	require.Len(t, notifier.titles, 1)
}

// failingApplyManager backs up for real but fails the swap, standing in for
// a mid-apply crash.
type failingApplyManager struct {
	real *Manager
}

func (f *failingApplyManager) Backup(appDir string) (string, error) {
	return f.real.Backup(appDir)
}

func (f *failingApplyManager) Apply(stagingDir, appDir string, preserve []string) error {
	return assert.AnError
}

func TestRunApplyFailureRetainsBackup(t *testing.T) {
	cfg := testConfig()
	u, req, restarter, notifier := newRun(t, cfg,
		map[string]string{
			"app.py":    "v1",
			"bots.json": `{"bots":["custom"]}`,
		},
		map[string]string{"app.py": "v2"},
	)
	u.WithFileManager(&failingApplyManager{real: NewManager(cfg)})

	err := u.Run(context.Background(), req)
	require.Error(t, err)

	// the snapshot survives, unmodified relative to the pre-update tree
	backupDir := cfg.BackupDir(req.AppDir)
	assert.Equal(t, "v1", readFile(t, filepath.Join(backupDir, "app.py")))
	assert.Equal(t, `{"bots":["custom"]}`, readFile(t, filepath.Join(backupDir, "bots.json")))

	// the host is not relaunched and the user is told
	assert.Empty(t, restarter.appDir)
	require.Len(t, notifier.titles, 1)
	assert.True(t, notifier.errors[0])

	result, readErr := NewResultHandler(cfg.ResultFile(req.AppDir)).Read()
	require.NoError(t, readErr)
	assert.False(t, result.Success)
}
