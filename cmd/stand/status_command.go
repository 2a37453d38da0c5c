package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"stand/internal/irlog"
	"stand/internal/runstore"
)

func newStatusCommand(cc *commandContext) *cobra.Command {
	var recent int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show sweep progress and recent run history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := cc.ensureController()
			if err != nil {
				return err
			}
			defer ctl.close()

			cfg := ctl.store.Snapshot()
			rows := [][]string{
				{"Config", ctl.store.Path()},
				{"Data dir", ctl.store.DataDir()},
				{"Serial port", fmt.Sprintf("%s @ %d baud", cfg.Serial.Port, cfg.Serial.Baudrate)},
				{"Lattice", fmt.Sprintf("%.2f to %.2f Hz, step %.2f Hz", cfg.Loop.StartFrequency, cfg.Loop.MaxFrequency, cfg.Loop.Step)},
				{"Checkpoint", fmt.Sprintf("%.2f Hz", cfg.Loop.CurrentFrequency)},
				{"Progress", fmt.Sprintf("%.1f%%", sweepProgress(cfg.Loop.StartFrequency, cfg.Loop.MaxFrequency, cfg.Loop.CurrentFrequency))},
				{"Tone", fmt.Sprintf("%.2fs, IR delay %.1fs, pause %.1fs", cfg.Loop.Duration, cfg.Loop.IRDelay, cfg.Loop.LoopSleep)},
				{"Step cap", strconv.Itoa(cfg.Loop.MaxLoopsPerRun)},
				{"Actuations", actuationSummary(actuationLogPath(ctl.store.DataDir(), cfg.Loop.LogFile))},
			}
			cmd.Println(renderTable([]string{"Field", "Value"}, rows, nil))

			if ctl.runs == nil {
				return nil
			}
			runs, err := ctl.runs.RecentRuns(cmd.Context(), recent)
			if err != nil {
				return fmt.Errorf("read run history: %w", err)
			}
			if len(runs) == 0 {
				cmd.Println("no recorded runs")
				return nil
			}
			cmd.Println(renderTable(
				[]string{"Started", "Mode", "Outcome", "From", "To", "Steps", "Missed"},
				runRows(runs),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().IntVar(&recent, "recent", 10, "number of recent runs to list")
	return cmd
}

func runRows(runs []runstore.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Mode,
			r.Outcome,
			fmt.Sprintf("%.2f", r.StartFrequency),
			fmt.Sprintf("%.2f", r.EndFrequency),
			strconv.Itoa(r.StepsCompleted),
			strconv.Itoa(r.MissedCount),
		})
	}
	return rows
}

// actuationSummary condenses the actuation log into a single row:
// how many triggers were recorded and when the last one went out.
func actuationSummary(path string) string {
	entries, err := irlog.Read(path)
	if err != nil || len(entries) == 0 {
		return "none recorded"
	}
	last := entries[len(entries)-1]
	return fmt.Sprintf("%d recorded, last %.1f Hz at %s",
		len(entries), last.Frequency, last.Timestamp.Local().Format("2006-01-02 15:04:05"))
}

// sweepProgress reports how much of the lattice the checkpoint has
// passed, in percent.
func sweepProgress(start, max, current float64) float64 {
	if max <= start {
		return 100
	}
	p := (current - start) / (max - start) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
