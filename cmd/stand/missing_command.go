package main

import (
	"github.com/spf13/cobra"

	"stand/internal/api"
)

func newMissingCommand(cc *commandContext) *cobra.Command {
	var source string
	var all bool

	cmd := &cobra.Command{
		Use:   "missing",
		Short: "List frequencies with no capture",
		Long: "missing compares the expected frequency lattice against the\n" +
			"chosen source and lists every frequency that has no capture.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := cc.ensureController()
			if err != nil {
				return err
			}
			defer ctl.close()

			report, err := ctl.svc.Missing(cmd.Context(), source)
			if err != nil {
				return err
			}
			if len(report.Frequencies) == 0 {
				cmd.Printf("no missing frequencies (%s)\n", report.Source)
				return nil
			}

			cmd.Printf("%d missing frequencies (%s)\n", len(report.Frequencies), report.Source)
			rows := make([][]string, 0, len(report.Ranges))
			for _, r := range report.Ranges {
				rows = append(rows, []string{r})
			}
			cmd.Println(renderTable([]string{"Range (Hz)"}, rows, nil))
			if all {
				cmd.Println(formatFrequencies(report.Frequencies))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", api.SourceCaptures,
		"missing-frequency source: captures (video directory) or history (last run)")
	cmd.Flags().BoolVar(&all, "all", false, "print every frequency, not just ranges")
	return cmd
}
