// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/gutenberg-invenio/internal/ledger"
)

// LedgerPath resolves the ledger location: an explicit path wins, otherwise
// the ledger lives in dataDir. disabled returns "".
func LedgerPath(dataDir, explicit string, disabled bool) string {
	if disabled {
		return ""
	}
	if explicit != "" {
		return explicit
	}
	return filepath.Join(dataDir, ledger.DefaultFile)
}

// RunLog records one run in the ledger. Every method is a no-op when the
// ledger is disabled or could not be opened; ledger errors are logged and
// never stop a run.
type RunLog struct {
	ledger *ledger.Ledger
	runID  string
	logger *zap.Logger
}

// StartRunLog opens the ledger at path and starts a run for program. An
// empty path disables recording.
func StartRunLog(ctx context.Context, path, program string, logger *zap.Logger) *RunLog {
	r := &RunLog{logger: logger}
	if path == "" {
		return r
	}
	l, err := ledger.Open(path)
	if err != nil {
		logger.Warn("ledger unavailable, continuing without it", zap.String("path", path), zap.Error(err))
		return r
	}
	id, err := l.StartRun(ctx, program)
	if err != nil {
		logger.Warn("ledger run not started", zap.Error(err))
		l.Close()
		return r
	}
	r.ledger, r.runID = l, id
	logger.Debug("ledger run started", zap.String("run_id", id), zap.String("path", path))
	return r
}

// RunID returns the run id, or "" when recording is disabled.
func (r *RunLog) RunID() string { return r.runID }

// Record appends events to the run.
func (r *RunLog) Record(ctx context.Context, events ...ledger.Event) {
	if r.ledger == nil {
		return
	}
	if err := r.ledger.Record(ctx, r.runID, events...); err != nil {
		r.logger.Warn("ledger record failed", zap.Error(err))
	}
}

// Finish closes the run and the ledger. It reports the stored counters
// when the run was recorded.
func (r *RunLog) Finish(ctx context.Context) (ledger.Run, bool) {
	if r.ledger == nil {
		return ledger.Run{}, false
	}
	defer r.ledger.Close()
	run, err := r.ledger.Finish(ctx, r.runID)
	if err != nil {
		r.logger.Warn("ledger finish failed", zap.Error(err))
		return ledger.Run{}, false
	}
	return run, true
}

// NewRunsCmd returns the "runs" subcommand: without arguments it lists
// recent runs, with a run id it prints that run as YAML. path resolves the
// ledger location once flags and config are loaded.
func NewRunsCmd(path func() string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show recorded runs from the audit ledger",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := path()
			if p == "" {
				return fmt.Errorf("ledger disabled")
			}
			l, err := ledger.Open(p)
			if err != nil {
				return err
			}
			defer l.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				return l.ExportYAML(cmd.Context(), out, args[0])
			}
			limit, _ := cmd.Flags().GetInt("limit")
			runs, err := l.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, run := range runs {
				status := "running"
				if run.FinishedAt != nil {
					status = fmt.Sprintf("%d ok, %d failed", run.Succeeded, run.Failed)
				}
				fmt.Fprintf(out, "%s  %s  %-18s %s\n",
					run.ID, run.StartedAt.Format("2006-01-02 15:04:05"), run.Program, status)
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "maximum number of runs to list")
	return cmd
}
