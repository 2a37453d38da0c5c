package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	cc := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "stand",
		Short:         "Vibration test stand controller",
		Long: "stand drives a loudspeaker vibration test: it sweeps a frequency\n" +
			"lattice, plays each tone, and fires an IR camera trigger over a\n" +
			"serial link so every frequency is captured on video.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newRunCommand(cc))
	rootCmd.AddCommand(newRerunCommand(cc))
	rootCmd.AddCommand(newResetCommand(cc))
	rootCmd.AddCommand(newStatusCommand(cc))
	rootCmd.AddCommand(newMissingCommand(cc))
	rootCmd.AddCommand(newPlayCommand(cc))
	rootCmd.AddCommand(newSweepCommand(cc))
	rootCmd.AddCommand(newSerialCommand(cc))
	rootCmd.AddCommand(newConfigCommand(cc))

	return rootCmd
}
