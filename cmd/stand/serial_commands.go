package main

import (
	"github.com/spf13/cobra"

	"stand/internal/actuator"
)

func newSerialCommand(cc *commandContext) *cobra.Command {
	serialCmd := &cobra.Command{
		Use:   "serial",
		Short: "Serial link utilities",
	}
	serialCmd.AddCommand(newSerialTestCommand(cc))
	serialCmd.AddCommand(newSerialPortsCommand())
	return serialCmd
}

func newSerialTestCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Send the trigger command once and report any reply",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := cc.ensureController()
			if err != nil {
				return err
			}
			defer ctl.close()

			msg, err := ctl.svc.SerialTest(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Println(msg)
			return nil
		},
	}
}

func newSerialPortsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports available on this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := actuator.ListPorts()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				cmd.Println("no serial ports found")
				return nil
			}
			for _, port := range ports {
				cmd.Println(port)
			}
			return nil
		},
	}
}
