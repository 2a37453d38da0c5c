package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCommand(cc *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	configCmd.AddCommand(newConfigPathCommand(cc))
	configCmd.AddCommand(newConfigInitCommand(cc))
	configCmd.AddCommand(newConfigShowCommand(cc))
	configCmd.AddCommand(newConfigGetCommand(cc))
	configCmd.AddCommand(newConfigSetCommand(cc))
	return configCmd
}

func newConfigPathCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := cc.configPath()
			if err != nil {
				return err
			}
			cmd.Println(path)
			return nil
		},
	}
}

func newConfigInitCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration file with defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cc.ensureStore()
			if err != nil {
				return err
			}
			cmd.Printf("configuration ready at %s\n", store.Path())
			return nil
		},
	}
}

func newConfigShowCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print every configuration value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cc.ensureStore()
			if err != nil {
				return err
			}
			items := store.Items()
			rows := make([][]string, 0, len(items))
			for _, item := range items {
				rows = append(rows, []string{item.Key, item.Value})
			}
			cmd.Println(renderTable([]string{"Key", "Value"}, rows, nil))
			return nil
		},
	}
}

func newConfigGetCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cc.ensureStore()
			if err != nil {
				return err
			}
			value, err := store.Get(args[0])
			if err != nil {
				return err
			}
			cmd.Println(value)
			return nil
		},
	}
}

func newConfigSetCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cc.ensureStore()
			if err != nil {
				return err
			}
			if err := store.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := store.Save(); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			value, err := store.Get(args[0])
			if err != nil {
				return err
			}
			cmd.Printf("%s = %s\n", args[0], value)
			return nil
		},
	}
}
