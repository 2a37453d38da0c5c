package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"stand/internal/api"
)

func newRunCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run a bounded sweep from the saved checkpoint",
		Long: "run plays the frequency lattice from the persisted checkpoint,\n" +
			"firing the IR camera trigger for every tone, until the lattice or\n" +
			"the per-run step cap is exhausted. Ctrl-C stops cleanly and keeps\n" +
			"the checkpoint so the next run resumes where this one left off.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRun(cc, cmd, func(ctx context.Context, ctl *controller) (string, error) {
				return ctl.svc.StartRun(ctx)
			})
		},
	}
}

func newRerunCommand(cc *commandContext) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "rerun",
		Short: "Replay only the missing frequencies",
		Long: "rerun reconciles the expected lattice against the chosen source\n" +
			"and replays exactly the frequencies with no capture. Replay runs\n" +
			"never move the sweep checkpoint.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRun(cc, cmd, func(ctx context.Context, ctl *controller) (string, error) {
				return ctl.svc.RerunMissing(ctx, source)
			})
		},
	}
	cmd.Flags().StringVar(&source, "source", api.SourceCaptures,
		"missing-frequency source: captures (video directory) or history (last run)")
	return cmd
}

func newResetCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Rewind the sweep checkpoint to the start frequency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := cc.ensureController()
			if err != nil {
				return err
			}
			defer ctl.close()
			if err := ctl.acquireLock(); err != nil {
				return err
			}
			defer func() { _ = ctl.lock.Unlock() }()

			msg, err := ctl.svc.Reset(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Println(msg)
			return nil
		},
	}
}

// executeRun hosts the shared run-command lifecycle: lock, initialize,
// launch via begin, then wait for completion or an interrupt.
func executeRun(cc *commandContext, cmd *cobra.Command, begin func(ctx context.Context, ctl *controller) (string, error)) error {
	ctl, err := cc.ensureController()
	if err != nil {
		return err
	}
	defer ctl.close()
	if err := ctl.acquireLock(); err != nil {
		return err
	}
	defer func() { _ = ctl.lock.Unlock() }()

	signalCtx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	msg, err := ctl.svc.Initialize(signalCtx)
	if err != nil {
		return err
	}
	cmd.Println(msg)

	_ = ctl.monitor.Start(signalCtx)
	defer ctl.monitor.Stop()

	msg, err = begin(signalCtx, ctl)
	if err != nil {
		return err
	}
	cmd.Println(msg)

	if err := ctl.manager.Wait(signalCtx); err != nil {
		// Interrupted: stop the workers and keep the checkpoint.
		msg, serr := ctl.svc.StopRun(context.Background())
		if serr != nil {
			return serr
		}
		cmd.Println(msg)
	}

	printRunSummary(cmd, ctl)
	return nil
}

func printRunSummary(cmd *cobra.Command, ctl *controller) {
	st := ctl.svc.Status()
	outcome := st.LastOutcome
	if outcome == "" {
		return
	}
	cmd.Printf("run %s; next frequency %.2f Hz\n", outcome, st.CurrentFrequency)
	if len(st.Missed) > 0 {
		cmd.Printf("missed %d frequencies: %s\n", len(st.Missed), formatFrequencies(st.Missed))
		cmd.Println("replay them with `stand rerun --source history`")
	}
}
