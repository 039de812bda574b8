// Package cmd wires the command-line contract of the update agent:
//
//	updater <staging-dir> <app-dir> <pid> <preserve-list>
//
// The agent is launched by the host application right before it exits; the
// preserve list is a comma-separated set of paths relative to the
// installation directory that must survive the update unchanged.
package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	goversion "github.com/hashicorp/go-version"
	"github.com/spf13/cobra"

	"github.com/cfunkz/pythonator-updater/internal/updater"
	"github.com/cfunkz/pythonator-updater/util"
)

var (
	logLevel      string
	logFile       string
	waitTimeout   time.Duration
	targetVersion string

	rootCmd = &cobra.Command{
		Use:          "updater <staging-dir> <app-dir> <pid> <preserve-list>",
		Short:        "Applies a staged Pythonator update and relaunches the application",
		Args:         cobra.ExactArgs(4),
		SilenceUsage: true,
		RunE:         runUpdate,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "sets the updater log level")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "console", "sets the updater log path. If console is specified the log will be output to stderr")
	rootCmd.PersistentFlags().DurationVar(&waitTimeout, "wait-timeout", 30*time.Second, "how long to wait for the application to exit before giving up")
	rootCmd.PersistentFlags().StringVar(&targetVersion, "target-version", "", "version being installed, recorded in the update result")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	if err := util.InitLog(logLevel, logFile); err != nil {
		return err
	}

	req, err := parseRequest(args)
	if err != nil {
		return err
	}

	if targetVersion != "" {
		if _, err := goversion.NewVersion(targetVersion); err != nil {
			return fmt.Errorf("invalid target version %q: %w", targetVersion, err)
		}
		req.TargetVersion = targetVersion
	}

	cfg := updater.DefaultConfig()
	cfg.WaitTimeout = waitTimeout

	return updater.New(cfg).Run(cmd.Context(), req)
}

// parseRequest validates the positional arguments. Errors here are usage
// errors: the run exits 1 without touching the installation or showing a
// dialog.
func parseRequest(args []string) (updater.UpdateRequest, error) {
	stagingDir, err := filepath.Abs(args[0])
	if err != nil {
		return updater.UpdateRequest{}, fmt.Errorf("invalid staging path %q: %w", args[0], err)
	}
	appDir, err := filepath.Abs(args[1])
	if err != nil {
		return updater.UpdateRequest{}, fmt.Errorf("invalid application path %q: %w", args[1], err)
	}

	pid, err := strconv.ParseInt(args[2], 10, 32)
	if err != nil || pid <= 0 {
		return updater.UpdateRequest{}, fmt.Errorf("invalid pid %q", args[2])
	}

	return updater.UpdateRequest{
		StagingDir: stagingDir,
		AppDir:     appDir,
		PID:        int32(pid),
		Preserve:   parsePreserveList(args[3]),
	}, nil
}

// parsePreserveList splits the comma-separated preserve list. It is a set:
// duplicates and surrounding whitespace are harmless, an empty string means
// nothing is preserved.
func parsePreserveList(csv string) []string {
	var preserve []string
	seen := make(map[string]struct{})
	for _, entry := range strings.Split(csv, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if _, ok := seen[entry]; ok {
			continue
		}
		seen[entry] = struct{}{}
		preserve = append(preserve, entry)
	}
	return preserve
}
