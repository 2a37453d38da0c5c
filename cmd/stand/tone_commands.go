package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newPlayCommand(cc *commandContext) *cobra.Command {
	var frequency float64
	var duration float64

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play one fixed tone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := cc.ensureController()
			if err != nil {
				return err
			}
			defer ctl.close()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			msg, err := ctl.svc.PlayTone(ctx, frequency, duration)
			if err != nil {
				return err
			}
			cmd.Println(msg)
			return nil
		},
	}
	cmd.Flags().Float64VarP(&frequency, "frequency", "f", 0, "tone frequency in Hz (0 uses the configured default)")
	cmd.Flags().Float64VarP(&duration, "duration", "d", 0, "duration in seconds (0 uses the configured default)")
	return cmd
}

func newSweepCommand(cc *commandContext) *cobra.Command {
	var from float64
	var to float64
	var duration float64

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Play one linear chirp",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := cc.ensureController()
			if err != nil {
				return err
			}
			defer ctl.close()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			msg, err := ctl.svc.PlaySweep(ctx, from, to, duration)
			if err != nil {
				return err
			}
			cmd.Println(msg)
			return nil
		},
	}
	cmd.Flags().Float64Var(&from, "from", 0, "start frequency in Hz (0 uses the lattice start)")
	cmd.Flags().Float64Var(&to, "to", 0, "end frequency in Hz (0 uses the lattice maximum)")
	cmd.Flags().Float64VarP(&duration, "duration", "d", 0, "duration in seconds (0 uses the configured default)")
	return cmd
}
